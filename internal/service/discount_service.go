package service

import (
	"context"
	"strings"
	"time"

	"github.com/salonlink/internal/commerce"
	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/logger"
	"github.com/salonlink/internal/models"
	"github.com/salonlink/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const discountPriceRuleTitlePrefix = "REF-"

// DiscountService 推荐优惠码发放服务
type DiscountService struct {
	repo            repository.DiscountCodeRepository
	customerService *CustomerService
	settingService  *SettingService
	gateway         commerce.Gateway
	nowFunc         func() time.Time
}

// NewDiscountService 创建优惠码服务
func NewDiscountService(
	repo repository.DiscountCodeRepository,
	customerService *CustomerService,
	settingService *SettingService,
	gateway commerce.Gateway,
) *DiscountService {
	return &DiscountService{
		repo:            repo,
		customerService: customerService,
		settingService:  settingService,
		gateway:         gateway,
		nowFunc:         time.Now,
	}
}

// IssueDiscountInput 发放优惠码输入，零值字段使用推荐配置中的默认值
type IssueDiscountInput struct {
	CustomerPhone     string
	CustomerEmail     string
	CustomerFirstName string
	CustomerLastName  string
	Type              string
	Value             *decimal.Decimal
	ValidityDays      int
	StartsAt          *time.Time
	ProductID         string
	Note              string
	IssuedBy          uint
}

// IssuedHook 优惠码落库后在同一事务内执行，返回错误会回滚整个发放
type IssuedHook func(tx *gorm.DB, code *models.DiscountCode, customer *models.Customer) error

// Issue 发放优惠码（优惠码即客户手机号）
func (s *DiscountService) Issue(ctx context.Context, input IssueDiscountInput) (*models.DiscountCode, *models.Customer, error) {
	return s.IssueWithin(ctx, input, nil)
}

// IssueWithin 发放优惠码，并在同一事务内执行 hook
// 平台侧与本地任一步失败都会撤销已完成的步骤，不留下半成品。
func (s *DiscountService) IssueWithin(ctx context.Context, input IssueDiscountInput, hook IssuedHook) (*models.DiscountCode, *models.Customer, error) {
	phone := NormalizePhone(input.CustomerPhone)
	if phone == "" {
		return nil, nil, ErrCustomerPhoneRequired
	}
	existing, err := s.repo.GetByCode(phone)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrDiscountCodeExists
	}

	setting, err := s.settingService.GetReferralSetting()
	if err != nil {
		logger.Warnw("discount_load_referral_setting_failed", "error", err)
	}
	code, err := s.buildDiscountCode(phone, input, setting)
	if err != nil {
		return nil, nil, err
	}

	customer, err := s.customerService.Resolve(ctx, CustomerAttributes{
		Phone:     phone,
		Email:     input.CustomerEmail,
		FirstName: input.CustomerFirstName,
		LastName:  input.CustomerLastName,
		Source:    constants.CustomerSourceReferral,
	}, constants.CustomerScopeGlobal)
	if err != nil {
		return nil, nil, err
	}
	code.CustomerID = customer.ID

	createdPriceRuleID, err := s.createExternalCode(ctx, code, customer, setting)
	if err != nil {
		return nil, nil, err
	}

	err = s.repo.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(code); err != nil {
			return err
		}
		if hook != nil {
			return hook(tx, code, customer)
		}
		return nil
	})
	if err != nil {
		s.rollbackExternalCode(ctx, code, createdPriceRuleID)
		if dup, getErr := s.repo.GetByCode(phone); getErr == nil && dup != nil {
			return nil, nil, ErrDiscountCodeExists
		}
		return nil, nil, err
	}
	code.Customer = customer
	return code, customer, nil
}

func (s *DiscountService) buildDiscountCode(phone string, input IssueDiscountInput, setting ReferralSetting) (*models.DiscountCode, error) {
	discountType := strings.ToLower(strings.TrimSpace(input.Type))
	if discountType == "" {
		discountType = setting.DefaultDiscountType
	}
	if discountType != constants.DiscountTypePercentage && discountType != constants.DiscountTypeFixedAmount {
		return nil, ErrDiscountTypeInvalid
	}

	value := decimal.NewFromFloat(setting.DefaultDiscountValue)
	if input.Value != nil {
		value = *input.Value
	}
	value = value.Round(2)
	if !value.IsPositive() {
		return nil, ErrDiscountValueInvalid
	}
	if discountType == constants.DiscountTypePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrDiscountValueInvalid
	}

	startsAt := s.nowFunc()
	if input.StartsAt != nil && !input.StartsAt.IsZero() {
		startsAt = *input.StartsAt
	}
	validityDays := input.ValidityDays
	if validityDays == 0 {
		validityDays = setting.DefaultValidityDays
	}
	if validityDays < 0 {
		return nil, ErrDiscountWindowInvalid
	}
	expiresAt := startsAt.AddDate(0, 0, validityDays)
	if !expiresAt.After(s.nowFunc()) {
		return nil, ErrDiscountWindowInvalid
	}

	return &models.DiscountCode{
		Code:       phone,
		Type:       discountType,
		Value:      models.NewMoneyFromDecimal(value),
		StartsAt:   startsAt,
		ExpiresAt:  expiresAt,
		UsageLimit: setting.DiscountUsageLimit,
		Status:     constants.DiscountStatusActive,
		ProductID:  strings.TrimSpace(input.ProductID),
		Note:       strings.TrimSpace(input.Note),
		CreatedBy:  input.IssuedBy,
	}, nil
}

// createExternalCode 在平台创建价格规则与优惠码，返回本次新建的价格规则 ID（复用共享规则时为空）
func (s *DiscountService) createExternalCode(ctx context.Context, code *models.DiscountCode, customer *models.Customer, setting ReferralSetting) (string, error) {
	if s.gateway == nil {
		return "", nil
	}

	priceRuleID := setting.SharedPriceRuleID
	createdPriceRuleID := ""
	if priceRuleID == "" {
		rule, err := s.gateway.CreatePriceRule(ctx, commerce.PriceRuleInput{
			Title:              discountPriceRuleTitlePrefix + code.Code,
			ValueType:          externalValueType(code.Type),
			Value:              code.Value.Decimal,
			CustomerExternalID: customer.ExternalID,
			ProductID:          code.ProductID,
			UsageLimit:         code.UsageLimit,
			StartsAt:           code.StartsAt,
			EndsAt:             code.ExpiresAt,
		})
		if err != nil {
			return "", externalFailure("create price rule", err)
		}
		priceRuleID = rule.ID
		createdPriceRuleID = rule.ID
	} else {
		code.SharedPriceRule = true
	}

	external, err := s.gateway.CreateDiscountCode(ctx, priceRuleID, code.Code)
	if err != nil {
		if createdPriceRuleID != "" {
			s.deletePriceRule(ctx, createdPriceRuleID)
		}
		return "", externalFailure("create discount code", err)
	}
	code.ExternalPriceRuleID = priceRuleID
	code.ExternalCodeID = external.ID
	return createdPriceRuleID, nil
}

func (s *DiscountService) rollbackExternalCode(ctx context.Context, code *models.DiscountCode, createdPriceRuleID string) {
	if createdPriceRuleID != "" {
		s.deletePriceRule(ctx, createdPriceRuleID)
		return
	}
	if code != nil && code.SharedPriceRule {
		// 网关没有单独删除优惠码的能力，共享规则下的孤立优惠码需人工清理
		logger.Warnw("discount_shared_code_orphaned",
			"code", code.Code,
			"price_rule_id", code.ExternalPriceRuleID,
			"external_code_id", code.ExternalCodeID,
		)
	}
}

func (s *DiscountService) deletePriceRule(ctx context.Context, priceRuleID string) {
	if err := s.gateway.DeletePriceRule(ctx, priceRuleID); err != nil {
		logger.Errorw("discount_price_rule_compensation_failed", "price_rule_id", priceRuleID, "error", err)
	}
}

// ResolveCodes 将订单上的优惠码映射为本地推荐优惠码（兼容带分隔符的手机号写法）
func (s *DiscountService) ResolveCodes(codes []string) ([]models.DiscountCode, error) {
	normalized := make([]string, 0, len(codes)*2)
	seen := make(map[string]struct{}, len(codes))
	for _, raw := range codes {
		for _, candidate := range []string{strings.TrimSpace(raw), NormalizePhone(raw)} {
			if candidate == "" {
				continue
			}
			if _, ok := seen[candidate]; ok {
				continue
			}
			seen[candidate] = struct{}{}
			normalized = append(normalized, candidate)
		}
	}
	return s.repo.ListByCodes(normalized)
}

// GetByCode 按优惠码查询
func (s *DiscountService) GetByCode(code string) (*models.DiscountCode, error) {
	row, err := s.repo.GetByCode(NormalizePhone(code))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrDiscountCodeNotFound
	}
	return row, nil
}

func externalValueType(discountType string) string {
	if discountType == constants.DiscountTypeFixedAmount {
		return commerce.ValueTypeFixedAmount
	}
	return commerce.ValueTypePercentage
}
