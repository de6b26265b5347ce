package service

import (
	"context"
	"strings"
	"time"

	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/logger"
	"github.com/salonlink/internal/metrics"
	"github.com/salonlink/internal/models"
	"github.com/salonlink/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReferralService 推荐生命周期服务（创建、核销、查询）
type ReferralService struct {
	referralRepo    repository.ReferralRepository
	discountRepo    repository.DiscountCodeRepository
	stylistRepo     repository.StylistRepository
	discountService *DiscountService
	dualService     *DualCommissionService
	settingService  *SettingService
	nowFunc         func() time.Time
}

// NewReferralService 创建推荐服务
func NewReferralService(
	referralRepo repository.ReferralRepository,
	discountRepo repository.DiscountCodeRepository,
	stylistRepo repository.StylistRepository,
	discountService *DiscountService,
	dualService *DualCommissionService,
	settingService *SettingService,
) *ReferralService {
	return &ReferralService{
		referralRepo:    referralRepo,
		discountRepo:    discountRepo,
		stylistRepo:     stylistRepo,
		discountService: discountService,
		dualService:     dualService,
		settingService:  settingService,
		nowFunc:         time.Now,
	}
}

// CreateReferralInput 创建推荐输入
type CreateReferralInput struct {
	CustomerPhone     string
	CustomerEmail     string
	CustomerFirstName string
	CustomerLastName  string
	DiscountType      string
	DiscountValue     *decimal.Decimal
	ValidityDays      int
	ProductID         string
	Note              string
}

// Create 创建推荐：发放优惠码并在同一事务内写入 pending 推荐
func (s *ReferralService) Create(ctx context.Context, referrerID uint, input CreateReferralInput) (*models.Referral, error) {
	referrer, err := s.stylistRepo.GetByID(referrerID)
	if err != nil {
		return nil, err
	}
	if referrer == nil {
		return nil, ErrReferrerNotFound
	}
	if referrer.Status == constants.AccountStatusDisabled {
		return nil, ErrReferrerDisabled
	}

	setting, err := s.settingService.GetReferralSetting()
	if err != nil {
		logger.Warnw("referral_load_setting_failed", "referrer_id", referrerID, "error", err)
	}
	rate := referrer.CommissionRate
	if !rate.IsPositive() {
		rate = models.NewMoneyFromDecimal(decimal.NewFromFloat(setting.DefaultCommissionRate))
	}

	var referral *models.Referral
	code, customer, err := s.discountService.IssueWithin(ctx, IssueDiscountInput{
		CustomerPhone:     input.CustomerPhone,
		CustomerEmail:     input.CustomerEmail,
		CustomerFirstName: input.CustomerFirstName,
		CustomerLastName:  input.CustomerLastName,
		Type:              input.DiscountType,
		Value:             input.DiscountValue,
		ValidityDays:      input.ValidityDays,
		ProductID:         input.ProductID,
		Note:              input.Note,
		IssuedBy:          referrer.ID,
	}, func(tx *gorm.DB, code *models.DiscountCode, customer *models.Customer) error {
		referral = &models.Referral{
			ReferrerID:     referrer.ID,
			CustomerID:     customer.ID,
			DiscountCodeID: code.ID,
			Status:         constants.ReferralStatusPending,
			CommissionRate: rate,
			Note:           strings.TrimSpace(input.Note),
		}
		return s.referralRepo.WithTx(tx).Create(referral)
	})
	if err != nil {
		return nil, err
	}

	referral.Referrer = referrer
	referral.Customer = customer
	referral.DiscountCode = code
	metrics.ReferralCreated()
	logger.Infow("referral_created",
		"referral_id", referral.ID,
		"referrer_id", referrer.ID,
		"customer_id", customer.ID,
		"code", code.Code,
	)
	return referral, nil
}

// GetReferral 获取推荐详情
func (s *ReferralService) GetReferral(id uint) (*models.Referral, error) {
	referral, err := s.referralRepo.GetDetailByID(id)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		return nil, ErrReferralNotFound
	}
	return referral, nil
}

// GetReferralForReferrer 获取推荐人自己的推荐详情
func (s *ReferralService) GetReferralForReferrer(referrerID, id uint) (*models.Referral, error) {
	referral, err := s.GetReferral(id)
	if err != nil {
		return nil, err
	}
	if referral.ReferrerID != referrerID {
		return nil, ErrReferralNotFound
	}
	return referral, nil
}

// ListReferrals 推荐列表
func (s *ReferralService) ListReferrals(filter repository.ReferralListFilter) ([]models.Referral, int64, error) {
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	if filter.Status != "" && !IsReferralStatusValid(filter.Status) {
		return nil, 0, ErrReferralStatusUnknown
	}
	return s.referralRepo.List(filter)
}

// ReferralDashboard 推荐人统计面板
type ReferralDashboard struct {
	TotalReferrals      int64            `json:"total_referrals"`
	StatusCounts        map[string]int64 `json:"status_counts"`
	ConversionRate      float64          `json:"conversion_rate"`
	UnpaidCommission    models.Money     `json:"unpaid_commission"`
	CreditedCommission  models.Money     `json:"credited_commission"`
	SalonCommission     models.Money     `json:"salon_commission"`
	CancelledCommission models.Money     `json:"cancelled_commission"`
}

// Dashboard 推荐人按状态汇总
func (s *ReferralService) Dashboard(referrerID uint) (*ReferralDashboard, error) {
	rows, err := s.referralRepo.AggregateByReferrer(referrerID)
	if err != nil {
		return nil, err
	}
	dashboard := &ReferralDashboard{
		StatusCounts: map[string]int64{
			constants.ReferralStatusPending:   0,
			constants.ReferralStatusRedeemed:  0,
			constants.ReferralStatusPayable:   0,
			constants.ReferralStatusCredited:  0,
			constants.ReferralStatusExpired:   0,
			constants.ReferralStatusCancelled: 0,
		},
	}
	unpaid := decimal.Zero
	credited := decimal.Zero
	salon := decimal.Zero
	cancelled := decimal.Zero
	for _, row := range rows {
		dashboard.TotalReferrals += row.Count
		dashboard.StatusCounts[row.Status] += row.Count
		switch row.Status {
		case constants.ReferralStatusRedeemed, constants.ReferralStatusPayable:
			unpaid = unpaid.Add(row.CommissionAmount)
			salon = salon.Add(row.SalonCommissionAmount)
		case constants.ReferralStatusCredited:
			credited = credited.Add(row.CommissionAmount)
			salon = salon.Add(row.SalonCommissionAmount)
		case constants.ReferralStatusCancelled:
			cancelled = cancelled.Add(row.CommissionAmount)
		}
	}
	converted := dashboard.StatusCounts[constants.ReferralStatusRedeemed] +
		dashboard.StatusCounts[constants.ReferralStatusPayable] +
		dashboard.StatusCounts[constants.ReferralStatusCredited]
	if dashboard.TotalReferrals > 0 {
		rate, _ := decimal.NewFromInt(converted).
			Div(decimal.NewFromInt(dashboard.TotalReferrals)).
			Mul(decimal.NewFromInt(100)).
			Round(2).
			Float64()
		dashboard.ConversionRate = rate
	}
	dashboard.UnpaidCommission = models.NewMoneyFromDecimal(unpaid)
	dashboard.CreditedCommission = models.NewMoneyFromDecimal(credited)
	dashboard.SalonCommission = models.NewMoneyFromDecimal(salon)
	dashboard.CancelledCommission = models.NewMoneyFromDecimal(cancelled)
	return dashboard, nil
}
