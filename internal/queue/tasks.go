package queue

import (
	"encoding/json"

	"github.com/salonlink/internal/commerce"
	"github.com/salonlink/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderSync 订单同步与推荐核销任务
	TaskOrderSync = constants.TaskOrderSync
)

// OrderSyncPayload 订单同步任务载荷
// Event 为空时按 OrderID 对已落库订单重新匹配。
type OrderSyncPayload struct {
	Event   *commerce.OrderEvent `json:"event,omitempty"`
	OrderID uint                 `json:"order_id,omitempty"`
}

// NewOrderSyncTask 创建订单同步任务
func NewOrderSyncTask(payload OrderSyncPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderSync, body), nil
}
