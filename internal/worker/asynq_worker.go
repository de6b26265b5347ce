package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/salonlink/internal/logger"
	"github.com/salonlink/internal/provider"
	"github.com/salonlink/internal/queue"
	"github.com/salonlink/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderSync, c.handleOrderSync)
}

func (c *Consumer) handleOrderSync(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_sync_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_sync_unmarshal_failed", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if c.OrderSyncService == nil {
		logger.Warnw("worker_order_sync_skip_service_nil")
		return nil
	}

	var (
		result *service.OrderSyncResult
		err    error
	)
	switch {
	case payload.Event != nil:
		result, err = c.OrderSyncService.HandleOrderEvent(ctx, payload.Event)
	case payload.OrderID != 0:
		result, err = c.OrderSyncService.Rematch(ctx, payload.OrderID)
	default:
		logger.Debugw("worker_order_sync_skip_empty_payload")
		return nil
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderEventInvalid):
			logger.Debugw("worker_order_sync_skip_invalid_event", "order_id", payload.OrderID, "error", err)
			return nil
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_sync_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_order_sync_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	if result != nil {
		logger.Debugw("worker_order_sync_done", "sync_status", result.SyncStatus, "stale", result.Stale)
	}
	return nil
}
