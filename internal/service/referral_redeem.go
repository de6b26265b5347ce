package service

import (
	"context"
	"strings"

	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/logger"
	"github.com/salonlink/internal/metrics"
	"github.com/salonlink/internal/models"
	"github.com/salonlink/internal/repository"

	"gorm.io/gorm"
)

// 核销匹配路径
const (
	RedemptionPathCode     = "code"
	RedemptionPathCustomer = "customer"
)

// RedemptionOrder 参与核销的订单信息
type RedemptionOrder struct {
	OrderID    uint
	Amount     models.Money
	ProductIDs []string
}

// RedemptionResult 核销结果
type RedemptionResult struct {
	Outcome    string           `json:"outcome"`
	Referral   *models.Referral `json:"referral,omitempty"`
	Commission *DualCommission  `json:"commission,omitempty"`
}

// Matched 本次调用是否完成了核销
func (r *RedemptionResult) Matched() bool {
	return r != nil && r.Outcome == constants.RedemptionOutcomeMatched
}

// MatchByDiscountCode 按订单上的优惠码核销推荐
func (s *ReferralService) MatchByDiscountCode(ctx context.Context, code string, order RedemptionOrder) (*RedemptionResult, error) {
	discount, err := s.lookupDiscountCode(code)
	if err != nil {
		return nil, err
	}
	if discount == nil {
		return s.noMatch(RedemptionPathCode, "code", code, "order_id", order.OrderID), nil
	}
	referral, err := s.referralRepo.GetByDiscountCodeID(discount.ID)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		return s.noMatch(RedemptionPathCode, "code", code, "discount_code_id", discount.ID, "order_id", order.OrderID), nil
	}
	return s.redeem(ctx, referral, order, RedemptionPathCode)
}

// MatchByCustomer 订单没有可识别优惠码时按客户兜底核销
// 同一客户存在多条 pending 推荐时取最近创建的一条。
func (s *ReferralService) MatchByCustomer(ctx context.Context, customerID uint, order RedemptionOrder) (*RedemptionResult, error) {
	if order.OrderID == 0 {
		return nil, ErrRedemptionOrder
	}
	linked, err := s.referralRepo.GetByOrderID(order.OrderID)
	if err != nil {
		return nil, err
	}
	if linked != nil {
		return s.alreadyMatched(linked, RedemptionPathCustomer, order), nil
	}
	referral, err := s.referralRepo.GetLatestPendingByCustomer(customerID)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		return s.noMatch(RedemptionPathCustomer, "customer_id", customerID, "order_id", order.OrderID), nil
	}
	return s.redeem(ctx, referral, order, RedemptionPathCustomer)
}

func (s *ReferralService) lookupDiscountCode(code string) (*models.DiscountCode, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, nil
	}
	discount, err := s.discountRepo.GetByCode(trimmed)
	if err != nil || discount != nil {
		return discount, err
	}
	if normalized := NormalizePhone(trimmed); normalized != "" && normalized != trimmed {
		return s.discountRepo.GetByCode(normalized)
	}
	return nil, nil
}

// redeem 计算双佣金并以条件更新完成 pending -> redeemed，同事务累加优惠码使用次数
// 同一订单最多核销一条推荐：条件更新带 NOT EXISTS 守卫，order_id 唯一索引兜底并发写入。
func (s *ReferralService) redeem(_ context.Context, referral *models.Referral, order RedemptionOrder, path string) (*RedemptionResult, error) {
	if order.OrderID == 0 {
		return nil, ErrRedemptionOrder
	}
	if referral.Status != constants.ReferralStatusPending {
		return s.alreadyMatched(referral, path, order), nil
	}

	referrer, err := s.stylistRepo.GetByID(referral.ReferrerID)
	if err != nil {
		return nil, err
	}
	if referrer == nil {
		return nil, ErrReferrerNotFound
	}
	commission, err := s.dualService.Calculate(referrer, order.Amount, order.ProductIDs)
	if err != nil {
		return nil, err
	}
	stylistAmount := commission.Stylist.Amount
	if !commission.Stylist.Matched() && referral.CommissionRate.IsPositive() {
		stylistAmount = models.NewMoneyFromDecimal(percentOf(order.Amount.Decimal, referral.CommissionRate.Decimal))
	}

	now := s.nowFunc()
	update := repository.RedemptionUpdate{
		OrderID:                  order.OrderID,
		OrderAmount:              order.Amount,
		CommissionAmount:         stylistAmount,
		SuggestedCommission:      stylistAmount,
		SuggestedSalonCommission: commission.Salon.Amount,
		ActualSalonCommission:    commission.Salon.Amount,
		CommissionRuleID:         commission.Stylist.RuleID,
		SalonCommissionRuleID:    commission.Salon.RuleID,
		SalonID:                  commission.SalonID,
		RedeemedAt:               now,
	}

	applied := false
	err = s.referralRepo.Transaction(func(tx *gorm.DB) error {
		affected, err := s.referralRepo.WithTx(tx).MarkRedeemed(referral.ID, update)
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		applied = true
		return s.discountRepo.WithTx(tx).RecordUsage(referral.DiscountCodeID, now)
	})
	if err != nil {
		// 并发写入同一订单时唯一索引冲突，按已有核销处理
		if holder, getErr := s.referralRepo.GetByOrderID(order.OrderID); getErr == nil && holder != nil {
			return s.alreadyMatched(holder, path, order), nil
		}
		return nil, err
	}
	if !applied {
		return s.alreadyMatched(s.currentHolder(referral, order), path, order), nil
	}

	updated, err := s.referralRepo.GetByID(referral.ID)
	if err != nil || updated == nil {
		updated = referral
	}
	metrics.RedemptionOutcome(path, constants.RedemptionOutcomeMatched)
	metrics.CommissionSuggested("stylist", stylistAmount.Decimal)
	metrics.CommissionSuggested("salon", commission.Salon.Amount.Decimal)
	logger.Infow("referral_redeemed",
		"referral_id", referral.ID,
		"order_id", order.OrderID,
		"path", path,
		"order_amount", order.Amount.String(),
		"commission_amount", stylistAmount.String(),
		"salon_commission", commission.Salon.Amount.String(),
	)
	return &RedemptionResult{
		Outcome:    constants.RedemptionOutcomeMatched,
		Referral:   updated,
		Commission: &commission,
	}, nil
}

// currentHolder 返回订单已核销的推荐，不存在时返回推荐的最新状态
func (s *ReferralService) currentHolder(referral *models.Referral, order RedemptionOrder) *models.Referral {
	if holder, err := s.referralRepo.GetByOrderID(order.OrderID); err == nil && holder != nil {
		return holder
	}
	if current, err := s.referralRepo.GetByID(referral.ID); err == nil && current != nil {
		return current
	}
	return referral
}

func (s *ReferralService) noMatch(path string, kv ...interface{}) *RedemptionResult {
	metrics.RedemptionOutcome(path, constants.RedemptionOutcomeNoMatch)
	logger.Debugw("referral_match_no_match", append([]interface{}{"path", path}, kv...)...)
	return &RedemptionResult{Outcome: constants.RedemptionOutcomeNoMatch}
}

func (s *ReferralService) alreadyMatched(referral *models.Referral, path string, order RedemptionOrder) *RedemptionResult {
	metrics.RedemptionOutcome(path, constants.RedemptionOutcomeAlreadyMatched)
	logger.Debugw("referral_match_already_matched",
		"path", path,
		"referral_id", referral.ID,
		"status", referral.Status,
		"order_id", order.OrderID,
	)
	return &RedemptionResult{Outcome: constants.RedemptionOutcomeAlreadyMatched, Referral: referral}
}
