package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/models"
	"github.com/salonlink/internal/repository"

	"github.com/shopspring/decimal"
)

const commissionRuleNameMaxRune = 120

// CommissionRuleService 佣金规则管理服务
type CommissionRuleService struct {
	repo       repository.CommissionRuleRepository
	calculator *CommissionCalculator
}

// NewCommissionRuleService 创建佣金规则服务
func NewCommissionRuleService(repo repository.CommissionRuleRepository, calculator *CommissionCalculator) *CommissionRuleService {
	return &CommissionRuleService{repo: repo, calculator: calculator}
}

// CommissionRuleInput 创建/更新佣金规则输入
type CommissionRuleInput struct {
	Name           string
	Type           string
	Value          decimal.Decimal
	Tiers          []models.CommissionTier
	RoleApplicable []string
	AllowedLevels  []string
	ProductIDs     []string
	StylistIDs     []uint
	MinOrderAmount decimal.Decimal
	MaxCommission  *decimal.Decimal
	Priority       int
	IsActive       bool
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	Description    string
}

// ListRules 规则列表
func (s *CommissionRuleService) ListRules(filter repository.CommissionRuleListFilter) ([]models.CommissionRule, int64, error) {
	filter.Type = strings.ToLower(strings.TrimSpace(filter.Type))
	return s.repo.List(filter)
}

// GetRule 获取规则
func (s *CommissionRuleService) GetRule(id uint) (*models.CommissionRule, error) {
	rule, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrCommissionRuleNotFound
	}
	return rule, nil
}

// CreateRule 创建规则
func (s *CommissionRuleService) CreateRule(input CommissionRuleInput) (*models.CommissionRule, error) {
	rule := &models.CommissionRule{}
	if err := applyCommissionRuleInput(rule, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// UpdateRule 全量更新规则
func (s *CommissionRuleService) UpdateRule(id uint, input CommissionRuleInput) (*models.CommissionRule, error) {
	rule, err := s.GetRule(id)
	if err != nil {
		return nil, err
	}
	if err := applyCommissionRuleInput(rule, input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteRule 删除规则
func (s *CommissionRuleService) DeleteRule(id uint) error {
	affected, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCommissionRuleNotFound
	}
	return nil
}

// Preview 使用当前启用规则试算佣金，不落库
func (s *CommissionRuleService) Preview(input CommissionInput) (CommissionResult, error) {
	return s.calculator.Evaluate(input)
}

func applyCommissionRuleInput(rule *models.CommissionRule, input CommissionRuleInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" || len([]rune(name)) > commissionRuleNameMaxRune {
		return fmt.Errorf("%w: 规则名称不能为空且不超过 %d 个字符", ErrCommissionRuleInvalid, commissionRuleNameMaxRune)
	}
	ruleType := strings.ToLower(strings.TrimSpace(input.Type))
	switch ruleType {
	case constants.CommissionRuleTypePercentage:
		if input.Value.IsNegative() || input.Value.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("%w: 百分比必须在 0-100 之间", ErrCommissionRuleInvalid)
		}
	case constants.CommissionRuleTypeFixed:
		if input.Value.IsNegative() {
			return fmt.Errorf("%w: 固定金额不能为负数", ErrCommissionRuleInvalid)
		}
	case constants.CommissionRuleTypeTiered:
		if err := validateCommissionTiers(input.Tiers); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: 未知的规则类型 %q", ErrCommissionRuleInvalid, input.Type)
	}
	if input.MinOrderAmount.IsNegative() {
		return fmt.Errorf("%w: 最低订单金额不能为负数", ErrCommissionRuleInvalid)
	}
	if input.MaxCommission != nil && input.MaxCommission.IsNegative() {
		return fmt.Errorf("%w: 佣金封顶不能为负数", ErrCommissionRuleInvalid)
	}
	if input.ValidFrom != nil && input.ValidUntil != nil && input.ValidUntil.Before(*input.ValidFrom) {
		return fmt.Errorf("%w: 失效时间不能早于生效时间", ErrCommissionRuleInvalid)
	}
	roles := normalizeRuleKeys(input.RoleApplicable)
	for _, role := range roles {
		if !isCommissionRoleKnown(role) {
			return fmt.Errorf("%w: 未知的角色 %q", ErrCommissionRuleInvalid, role)
		}
	}

	rule.Name = name
	rule.Type = ruleType
	rule.Value = models.NewMoneyFromDecimal(input.Value)
	rule.Tiers = nil
	if ruleType == constants.CommissionRuleTypeTiered {
		rule.Tiers = models.CommissionTiers(input.Tiers)
		rule.Value = models.Money{}
	}
	rule.RoleApplicable = models.StringArray(roles)
	rule.AllowedLevels = models.StringArray(normalizeRuleKeys(input.AllowedLevels))
	rule.ProductIDs = models.StringArray(normalizeRuleValues(input.ProductIDs))
	rule.StylistIDs = models.UintArray(uniqueReferralIDs(input.StylistIDs))
	rule.MinOrderAmount = models.NewMoneyFromDecimal(input.MinOrderAmount)
	rule.MaxCommission = nil
	if input.MaxCommission != nil {
		rule.MaxCommission = models.MoneyPtr(models.NewMoneyFromDecimal(*input.MaxCommission))
	}
	rule.Priority = input.Priority
	rule.IsActive = input.IsActive
	rule.ValidFrom = input.ValidFrom
	rule.ValidUntil = input.ValidUntil
	rule.Description = strings.TrimSpace(input.Description)
	return nil
}

func validateCommissionTiers(tiers []models.CommissionTier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%w: 阶梯规则至少需要一个区间", ErrCommissionRuleInvalid)
	}
	hundred := decimal.NewFromInt(100)
	for i, tier := range tiers {
		if tier.MinAmount.IsNegative() {
			return fmt.Errorf("%w: 第 %d 个区间下限不能为负数", ErrCommissionRuleInvalid, i+1)
		}
		if tier.MaxAmount != nil && tier.MaxAmount.LessThan(tier.MinAmount.Decimal) {
			return fmt.Errorf("%w: 第 %d 个区间上限小于下限", ErrCommissionRuleInvalid, i+1)
		}
		if tier.Rate.IsNegative() || tier.Rate.GreaterThan(hundred) {
			return fmt.Errorf("%w: 第 %d 个区间比例必须在 0-100 之间", ErrCommissionRuleInvalid, i+1)
		}
	}
	return nil
}

func isCommissionRoleKnown(role string) bool {
	switch role {
	case constants.CommissionRoleStylist, constants.CommissionRoleAgent, constants.CommissionRoleSalonOwner:
		return true
	}
	return false
}

func normalizeRuleKeys(items []string) []string {
	result := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		key := normalizeRuleKey(item)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, key)
	}
	return result
}

func normalizeRuleValues(items []string) []string {
	result := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		value := strings.TrimSpace(item)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}
