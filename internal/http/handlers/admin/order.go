package admin

import (
	"errors"

	handlershared "github.com/salonlink/internal/http/handlers/shared"
	"github.com/salonlink/internal/http/response"
	"github.com/salonlink/internal/queue"
	"github.com/salonlink/internal/service"

	"github.com/gin-gonic/gin"
)

// GetOrder 查看已同步订单
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if order == nil {
		respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		return
	}
	response.Success(c, order)
}

// RematchOrder 对已落库订单重新执行推荐匹配
// async=true 且队列可用时投递到队列，否则同步执行并返回匹配结果。
func (h *Handler) RematchOrder(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if c.Query("async") == "true" && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueueOrderSync(queue.OrderSyncPayload{OrderID: id}); err != nil {
			respondError(c, response.CodeInternal, "error.queue_unavailable", err)
			return
		}
		response.Success(c, gin.H{"order_id": id, "queued": true})
		return
	}

	result, err := h.OrderSyncService.Rematch(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.rematch_failed", err)
		return
	}
	requestLog(c).Infow("admin_order_rematched", "order_id", id, "sync_status", result.SyncStatus)
	response.Success(c, result)
}
