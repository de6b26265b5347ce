package cache

import (
	"context"
	"strings"
	"time"
)

// ClaimWebhookDelivery 占用 webhook 投递 ID，重复投递返回 false
func ClaimWebhookDelivery(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	deliveryID = strings.TrimSpace(deliveryID)
	if deliveryID == "" {
		return true, nil
	}
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return SetNX(ctx, "webhook:delivery:"+deliveryID, time.Now().Unix(), ttl)
}

// ReleaseWebhookDelivery 处理失败时释放占用，允许平台重投
func ReleaseWebhookDelivery(ctx context.Context, deliveryID string) error {
	deliveryID = strings.TrimSpace(deliveryID)
	if deliveryID == "" {
		return nil
	}
	return Del(ctx, "webhook:delivery:"+deliveryID)
}
