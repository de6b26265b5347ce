package service

import (
	"context"
	"strings"
	"time"

	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/logger"
	"github.com/salonlink/internal/metrics"
	"github.com/salonlink/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BulkCreditInput 批量结算输入
type BulkCreditInput struct {
	IDs              []uint
	StylistReference string
	SalonReference   string
}

// BulkCreditResult 批量结算结果
type BulkCreditResult struct {
	Requested int   `json:"requested"`
	Credited  int64 `json:"credited"`
	Skipped   int64 `json:"skipped"`
}

// BulkCredit 批量结算，只有 redeemed/payable 的推荐会被置为 credited，其余静默跳过
func (s *ReferralService) BulkCredit(_ context.Context, input BulkCreditInput) (*BulkCreditResult, error) {
	ids := uniqueReferralIDs(input.IDs)
	if len(ids) == 0 {
		return nil, ErrReferralIDsRequired
	}
	credited, err := s.referralRepo.BulkCredit(ids, input.StylistReference, input.SalonReference, s.nowFunc())
	if err != nil {
		return nil, err
	}
	metrics.ReferralTransition(constants.ReferralStatusCredited, credited)
	logger.Infow("referral_bulk_credit",
		"requested", len(ids),
		"credited", credited,
		"stylist_reference", strings.TrimSpace(input.StylistReference),
		"salon_reference", strings.TrimSpace(input.SalonReference),
	)
	return &BulkCreditResult{
		Requested: len(ids),
		Credited:  credited,
		Skipped:   int64(len(ids)) - credited,
	}, nil
}

// UpdateCommissionInput 管理员调整佣金输入，空字段表示不修改
type UpdateCommissionInput struct {
	CommissionAmount      *decimal.Decimal
	ActualSalonCommission *decimal.Decimal
	Status                string
	Note                  *string
}

// UpdateCommission 管理员手工调整佣金或推进状态，不触发规则重算
func (s *ReferralService) UpdateCommission(_ context.Context, id uint, input UpdateCommissionInput) (*models.Referral, error) {
	targetStatus := strings.ToLower(strings.TrimSpace(input.Status))
	if targetStatus != "" && !IsReferralStatusValid(targetStatus) {
		return nil, ErrReferralStatusUnknown
	}
	if input.CommissionAmount != nil && input.CommissionAmount.IsNegative() {
		return nil, ErrCommissionAmountInvalid
	}
	if input.ActualSalonCommission != nil && input.ActualSalonCommission.IsNegative() {
		return nil, ErrCommissionAmountInvalid
	}

	now := s.nowFunc()
	err := s.referralRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.referralRepo.WithTx(tx)
		current, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrReferralNotFound
		}

		updates := map[string]interface{}{"updated_at": now}
		// 金额覆盖不受状态限制（含 credited），状态仍只能前进
		if input.CommissionAmount != nil {
			updates["commission_amount"] = models.NewMoneyFromDecimal(*input.CommissionAmount)
		}
		if input.ActualSalonCommission != nil {
			updates["actual_salon_commission"] = models.NewMoneyFromDecimal(*input.ActualSalonCommission)
		}
		if input.Note != nil {
			updates["note"] = strings.TrimSpace(*input.Note)
		}

		if targetStatus == "" || targetStatus == current.Status {
			_, err := repo.UpdateFields(id, updates)
			return err
		}
		if !CanTransitionReferral(current.Status, targetStatus) {
			return ErrReferralTransitionInvalid
		}
		for key, value := range statusTimestampUpdates(targetStatus, now) {
			updates[key] = value
		}
		affected, err := repo.TransitionStatus(id, []string{current.Status}, targetStatus, updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrReferralStatusInvalid
		}
		metrics.ReferralTransition(targetStatus, affected)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("referral_commission_updated", "referral_id", id, "status", targetStatus)
	return s.GetReferral(id)
}

// Cancel 取消推荐（任意非终态）
func (s *ReferralService) Cancel(_ context.Context, id uint, reason string) (*models.Referral, error) {
	referral, err := s.referralRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		return nil, ErrReferralNotFound
	}
	if !CanTransitionReferral(referral.Status, constants.ReferralStatusCancelled) {
		return nil, ErrReferralStatusInvalid
	}
	affected, err := s.cancelReferral(id, referralSourcesFor(constants.ReferralStatusCancelled), reason)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrReferralStatusInvalid
	}
	return s.GetReferral(id)
}

// CancelByOrder 订单取消或退款时取消已核销未结算的推荐
func (s *ReferralService) CancelByOrder(orderID uint, reason string) (bool, error) {
	referral, err := s.referralRepo.GetByOrderID(orderID)
	if err != nil || referral == nil {
		return false, err
	}
	affected, err := s.cancelReferral(referral.ID, []string{
		constants.ReferralStatusRedeemed,
		constants.ReferralStatusPayable,
	}, reason)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *ReferralService) cancelReferral(id uint, from []string, reason string) (int64, error) {
	now := s.nowFunc()
	updates := statusTimestampUpdates(constants.ReferralStatusCancelled, now)
	updates["cancel_reason"] = strings.TrimSpace(reason)
	updates["updated_at"] = now
	affected, err := s.referralRepo.TransitionStatus(id, from, constants.ReferralStatusCancelled, updates)
	if err != nil {
		return 0, err
	}
	metrics.ReferralTransition(constants.ReferralStatusCancelled, affected)
	if affected > 0 {
		logger.Infow("referral_cancelled", "referral_id", id, "reason", strings.TrimSpace(reason))
	}
	return affected, nil
}

// ExpireDue 将优惠码已过期的 pending 推荐置为 expired，并同步优惠码状态
func (s *ReferralService) ExpireDue(_ context.Context) (int64, error) {
	now := s.nowFunc()
	expired, err := s.referralRepo.ExpirePendingWithExpiredCodes(now)
	if err != nil {
		return 0, err
	}
	if _, err := s.discountRepo.ExpireDue(now); err != nil {
		return expired, err
	}
	metrics.ReferralTransition(constants.ReferralStatusExpired, expired)
	return expired, nil
}

// PromotePayable 核销超过确认期的推荐转为 payable
func (s *ReferralService) PromotePayable(_ context.Context) (int64, error) {
	setting, err := s.settingService.GetReferralSetting()
	if err != nil {
		logger.Warnw("referral_load_setting_failed", "error", err)
	}
	now := s.nowFunc()
	before := now.AddDate(0, 0, -setting.PayableAfterDays)
	promoted, err := s.referralRepo.MarkRedeemedPayable(before, now)
	if err != nil {
		return 0, err
	}
	metrics.ReferralTransition(constants.ReferralStatusPayable, promoted)
	return promoted, nil
}

func statusTimestampUpdates(status string, now time.Time) map[string]interface{} {
	updates := make(map[string]interface{}, 1)
	switch status {
	case constants.ReferralStatusRedeemed:
		updates["redeemed_at"] = now
	case constants.ReferralStatusPayable:
		updates["payable_at"] = now
	case constants.ReferralStatusCredited:
		updates["credited_at"] = now
	case constants.ReferralStatusCancelled:
		updates["cancelled_at"] = now
	}
	return updates
}

func uniqueReferralIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
