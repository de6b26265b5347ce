package service

import (
	"context"
	"strings"
	"time"

	"github.com/salonlink/internal/commerce"
	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/logger"
	"github.com/salonlink/internal/metrics"
	"github.com/salonlink/internal/models"
	"github.com/salonlink/internal/repository"
)

const orderCancelledReason = "order cancelled on commerce platform"

// OrderSyncService 订单同步：落库订单镜像并触发推荐核销
type OrderSyncService struct {
	orderRepo       repository.OrderRepository
	customerService *CustomerService
	referralService *ReferralService
	settingService  *SettingService
	nowFunc         func() time.Time
}

// NewOrderSyncService 创建订单同步服务
func NewOrderSyncService(
	orderRepo repository.OrderRepository,
	customerService *CustomerService,
	referralService *ReferralService,
	settingService *SettingService,
) *OrderSyncService {
	return &OrderSyncService{
		orderRepo:       orderRepo,
		customerService: customerService,
		referralService: referralService,
		settingService:  settingService,
		nowFunc:         time.Now,
	}
}

// OrderSyncResult 单次同步结果
type OrderSyncResult struct {
	Order       *models.Order      `json:"order"`
	Stale       bool               `json:"stale"`
	SyncStatus  string             `json:"sync_status"`
	Redemptions []RedemptionResult `json:"redemptions"`
}

// HandleOrderEvent 处理订单事件
// 早于已存储版本的事件直接忽略；取消/作废订单会取消其未结算的推荐。
func (s *OrderSyncService) HandleOrderEvent(ctx context.Context, event *commerce.OrderEvent) (*OrderSyncResult, error) {
	if event == nil || strings.TrimSpace(event.ExternalID) == "" {
		return nil, ErrOrderEventInvalid
	}
	existing, err := s.orderRepo.GetByExternalID(event.ExternalID)
	if err != nil {
		return nil, err
	}
	if isStaleOrderEvent(existing, event) {
		logger.Debugw("order_sync_stale_event",
			"external_order_id", event.ExternalID,
			"delivery_id", event.DeliveryID,
			"topic", event.Topic,
		)
		return &OrderSyncResult{Order: existing, Stale: true, SyncStatus: existing.SyncStatus}, nil
	}

	customer, err := s.customerService.ResolveFromOrder(event.Customer, event.Phone, event.ShippingPhone, event.BillingPhone)
	if err != nil {
		logger.Warnw("order_sync_resolve_customer_failed", "external_order_id", event.ExternalID, "error", err)
		customer = nil
	}

	order, err := s.upsertOrder(existing, event, customer)
	if err != nil {
		return nil, err
	}

	if event.IsCancelled() {
		return s.cancelOrder(order)
	}
	return s.match(ctx, order)
}

// Rematch 对已落库订单重新执行核销匹配
func (s *OrderSyncService) Rematch(ctx context.Context, orderID uint) (*OrderSyncResult, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.CancelledAt != nil {
		return s.cancelOrder(order)
	}
	return s.match(ctx, order)
}

// match 先按优惠码逐个匹配；没有任何可识别的推荐优惠码时才按客户兜底
func (s *OrderSyncService) match(ctx context.Context, order *models.Order) (*OrderSyncResult, error) {
	redemptionOrder := RedemptionOrder{
		OrderID:    order.ID,
		Amount:     order.CommissionBase(),
		ProductIDs: []string(order.ProductIDs),
	}
	result := &OrderSyncResult{Order: order, Redemptions: make([]RedemptionResult, 0)}

	recognized := false
	matched := false
	failed := false
	for _, code := range order.DiscountCodes.Codes() {
		redemption, err := s.referralService.MatchByDiscountCode(ctx, code, redemptionOrder)
		if err != nil {
			recognized = true
			failed = true
			logger.Errorw("order_sync_match_failed",
				"order_id", order.ID,
				"external_order_id", order.ExternalID,
				"code", code,
				"error", err,
			)
			continue
		}
		if redemption.Outcome != constants.RedemptionOutcomeNoMatch {
			recognized = true
		}
		if redemptionBelongsToOrder(redemption, order.ID) {
			matched = true
		}
		result.Redemptions = append(result.Redemptions, *redemption)
	}

	if !recognized && order.CustomerID != nil && s.customerFallbackEnabled() {
		redemption, err := s.matchByCustomer(ctx, order, redemptionOrder)
		if err != nil {
			failed = true
			logger.Errorw("order_sync_match_failed",
				"order_id", order.ID,
				"external_order_id", order.ExternalID,
				"customer_id", *order.CustomerID,
				"error", err,
			)
		} else if redemption != nil {
			if redemptionBelongsToOrder(redemption, order.ID) {
				matched = true
			}
			result.Redemptions = append(result.Redemptions, *redemption)
		}
	}

	// 任一优惠码核销失败即标记 match_failed，便于后台按订单重新匹配
	switch {
	case failed:
		result.SyncStatus = constants.OrderSyncStatusMatchFailed
	case matched:
		result.SyncStatus = constants.OrderSyncStatusMatched
	default:
		result.SyncStatus = constants.OrderSyncStatusUnmatched
	}
	if err := s.recordSyncStatus(order, result.SyncStatus); err != nil {
		return nil, err
	}
	return result, nil
}

// matchByCustomer 订单已关联推荐时由 MatchByCustomer 返回 already_matched
func (s *OrderSyncService) matchByCustomer(ctx context.Context, order *models.Order, redemptionOrder RedemptionOrder) (*RedemptionResult, error) {
	return s.referralService.MatchByCustomer(ctx, *order.CustomerID, redemptionOrder)
}

func (s *OrderSyncService) cancelOrder(order *models.Order) (*OrderSyncResult, error) {
	cancelled, err := s.referralService.CancelByOrder(order.ID, orderCancelledReason)
	if err != nil {
		logger.Errorw("order_sync_cancel_referral_failed",
			"order_id", order.ID,
			"external_order_id", order.ExternalID,
			"error", err,
		)
		return nil, err
	}
	if cancelled {
		logger.Infow("order_sync_referral_cancelled", "order_id", order.ID, "external_order_id", order.ExternalID)
	}
	if err := s.recordSyncStatus(order, constants.OrderSyncStatusCancelled); err != nil {
		return nil, err
	}
	return &OrderSyncResult{Order: order, SyncStatus: constants.OrderSyncStatusCancelled}, nil
}

func (s *OrderSyncService) recordSyncStatus(order *models.Order, status string) error {
	now := s.nowFunc()
	if err := s.orderRepo.UpdateSyncStatus(order.ID, status, now); err != nil {
		return err
	}
	order.SyncStatus = status
	order.SyncedAt = &now
	metrics.OrderSynced(status)
	return nil
}

func (s *OrderSyncService) upsertOrder(existing *models.Order, event *commerce.OrderEvent, customer *models.Customer) (*models.Order, error) {
	order := existing
	if order == nil {
		order = &models.Order{ExternalID: strings.TrimSpace(event.ExternalID)}
	}
	order.OrderNumber = strings.TrimSpace(event.OrderNumber)
	order.Email = strings.ToLower(strings.TrimSpace(event.Email))
	order.Phone = NormalizePhone(firstNonEmpty(event.Phone, event.BillingPhone, event.ShippingPhone))
	order.Currency = strings.ToUpper(strings.TrimSpace(event.Currency))
	order.SubtotalAmount = models.NewMoneyFromDecimal(event.Subtotal)
	order.DiscountAmount = models.NewMoneyFromDecimal(event.DiscountTotal)
	order.TaxAmount = models.NewMoneyFromDecimal(event.Tax)
	order.ShippingAmount = models.NewMoneyFromDecimal(event.Shipping)
	order.TotalAmount = models.NewMoneyFromDecimal(event.Total)
	order.FinancialStatus = strings.ToLower(strings.TrimSpace(event.FinancialStatus))
	order.FulfillmentStatus = strings.ToLower(strings.TrimSpace(event.FulfillmentStatus))
	order.ProductIDs = models.StringArray(append([]string{}, event.ProductIDs...))
	order.CancelledAt = event.CancelledAt
	order.ExternalUpdatedAt = event.UpdatedAt

	lines := make(models.OrderDiscountLines, 0, len(event.DiscountCodes))
	for _, applied := range event.DiscountCodes {
		lines = append(lines, models.OrderDiscountLine{
			Code:   strings.TrimSpace(applied.Code),
			Amount: models.NewMoneyFromDecimal(applied.Amount),
			Type:   strings.TrimSpace(applied.Type),
		})
	}
	order.DiscountCodes = lines
	if customer != nil {
		customerID := customer.ID
		order.CustomerID = &customerID
	}

	now := s.nowFunc()
	order.SyncedAt = &now
	if order.ID == 0 {
		order.SyncStatus = constants.OrderSyncStatusSynced
		if err := s.orderRepo.Create(order); err != nil {
			return nil, err
		}
		return order, nil
	}
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderSyncService) customerFallbackEnabled() bool {
	setting, err := s.settingService.GetReferralSetting()
	if err != nil {
		logger.Warnw("order_sync_load_setting_failed", "error", err)
	}
	return setting.MatchByCustomerFallback
}

func isStaleOrderEvent(existing *models.Order, event *commerce.OrderEvent) bool {
	if existing == nil || existing.ExternalUpdatedAt == nil || event.UpdatedAt == nil {
		return false
	}
	return event.UpdatedAt.Before(*existing.ExternalUpdatedAt)
}

func redemptionBelongsToOrder(result *RedemptionResult, orderID uint) bool {
	if result == nil {
		return false
	}
	if result.Outcome == constants.RedemptionOutcomeMatched {
		return true
	}
	return result.Outcome == constants.RedemptionOutcomeAlreadyMatched &&
		result.Referral != nil &&
		result.Referral.OrderID != nil &&
		*result.Referral.OrderID == orderID
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
