package public

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/salonlink/internal/cache"
	"github.com/salonlink/internal/commerce"
	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/http/response"
	"github.com/salonlink/internal/metrics"
	"github.com/salonlink/internal/queue"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

const maxWebhookBodyBytes = 1 << 20

var orderWebhookTopics = map[string]struct{}{
	constants.WebhookTopicOrderCreated:   {},
	constants.WebhookTopicOrderUpdated:   {},
	constants.WebhookTopicOrderPaid:      {},
	constants.WebhookTopicOrderCancelled: {},
}

// CommerceOrderWebhook 接收平台订单 webhook
// 签名失败返回 401，处理失败返回 5xx 让平台重投；重复投递直接确认。
func (h *Handler) CommerceOrderWebhook(c *gin.Context) {
	topic := strings.TrimSpace(c.GetHeader(commerce.HeaderTopic))
	deliveryID := strings.TrimSpace(c.GetHeader(commerce.HeaderWebhookID))

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		metrics.WebhookDelivery(topic, "invalid_payload")
		response.ErrorWithStatus(c, http.StatusBadRequest, response.CodeBadRequest, response.Message("error.webhook_payload"))
		return
	}

	if err := commerce.VerifyWebhook(h.Config.Commerce.WebhookSecret, body, c.GetHeader(commerce.HeaderHMAC)); err != nil {
		if errors.Is(err, commerce.ErrConfigInvalid) {
			requestLog(c).Errorw("webhook_secret_missing", "topic", topic)
			metrics.WebhookDelivery(topic, "not_configured")
			response.ErrorWithStatus(c, http.StatusInternalServerError, response.CodeInternal, response.Message("error.webhook_not_configured"))
			return
		}
		requestLog(c).Warnw("webhook_signature_invalid", "topic", topic, "delivery_id", deliveryID, "client_ip", c.ClientIP())
		metrics.WebhookDelivery(topic, "invalid_signature")
		response.ErrorWithStatus(c, http.StatusUnauthorized, response.CodeUnauthorized, response.Message("error.webhook_signature"))
		return
	}

	if _, ok := orderWebhookTopics[topic]; !ok {
		requestLog(c).Debugw("webhook_topic_ignored", "topic", topic, "delivery_id", deliveryID)
		metrics.WebhookDelivery(topic, "ignored")
		response.Success(c, gin.H{"ignored": true})
		return
	}

	event, err := commerce.ParseOrderEvent(topic, deliveryID, body)
	if err != nil {
		requestLog(c).Warnw("webhook_payload_invalid", "topic", topic, "delivery_id", deliveryID, "error", err)
		metrics.WebhookDelivery(topic, "invalid_payload")
		response.ErrorWithStatus(c, http.StatusBadRequest, response.CodeBadRequest, response.Message("error.webhook_payload"))
		return
	}

	ctx := c.Request.Context()
	claimed, err := cache.ClaimWebhookDelivery(ctx, deliveryID, h.webhookDedupeTTL())
	if err != nil {
		requestLog(c).Warnw("webhook_dedupe_unavailable", "delivery_id", deliveryID, "error", err)
		claimed = true
	}
	if !claimed {
		metrics.WebhookDelivery(topic, "duplicate")
		response.Success(c, gin.H{"duplicate": true})
		return
	}

	if h.QueueClient.Enabled() {
		err := h.QueueClient.EnqueueOrderSync(queue.OrderSyncPayload{Event: event})
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			metrics.WebhookDelivery(topic, "duplicate")
			response.Success(c, gin.H{"duplicate": true})
			return
		}
		if err != nil {
			h.releaseDelivery(c, deliveryID)
			requestLog(c).Errorw("webhook_enqueue_failed", "delivery_id", deliveryID, "external_order_id", event.ExternalID, "error", err)
			metrics.WebhookDelivery(topic, "failed")
			response.ErrorWithStatus(c, http.StatusServiceUnavailable, response.CodeInternal, response.Message("error.queue_unavailable"))
			return
		}
		metrics.WebhookDelivery(topic, "queued")
		response.Success(c, gin.H{"queued": true})
		return
	}

	result, err := h.OrderSyncService.HandleOrderEvent(ctx, event)
	if err != nil {
		h.releaseDelivery(c, deliveryID)
		requestLog(c).Errorw("webhook_order_sync_failed", "delivery_id", deliveryID, "external_order_id", event.ExternalID, "error", err)
		metrics.WebhookDelivery(topic, "failed")
		response.ErrorWithStatus(c, http.StatusInternalServerError, response.CodeInternal, response.Message("error.order_sync_failed"))
		return
	}
	metrics.WebhookDelivery(topic, "processed")
	response.Success(c, result)
}

func (h *Handler) webhookDedupeTTL() time.Duration {
	hours := h.Config.Commerce.WebhookDedupeHours
	if hours <= 0 {
		return 0
	}
	return time.Duration(hours) * time.Hour
}

func (h *Handler) releaseDelivery(c *gin.Context, deliveryID string) {
	if err := cache.ReleaseWebhookDelivery(c.Request.Context(), deliveryID); err != nil {
		requestLog(c).Warnw("webhook_release_delivery_failed", "delivery_id", deliveryID, "error", err)
	}
}
