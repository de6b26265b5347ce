package service

import (
	"strings"
	"time"

	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/models"
	"github.com/salonlink/internal/repository"

	"github.com/shopspring/decimal"
)

// CommissionInput 佣金计算输入
type CommissionInput struct {
	OrderAmount models.Money
	TargetRole  string
	TargetLevel string
	TargetID    uint
	ProductIDs  []string
}

// CommissionResult 佣金计算结果，RuleID 为空表示没有规则命中
type CommissionResult struct {
	Rate     models.Money `json:"rate"`
	Amount   models.Money `json:"amount"`
	RuleID   *uint        `json:"rule_id,omitempty"`
	RuleName string       `json:"rule_name,omitempty"`
	RuleType string       `json:"rule_type,omitempty"`
}

// Matched 是否命中规则
func (r CommissionResult) Matched() bool {
	return r.RuleID != nil
}

// rulePredicate 单个规则过滤条件，返回 false 表示规则不适用
type rulePredicate func(rule *models.CommissionRule, input *CommissionInput, now time.Time) bool

// 过滤顺序即匹配顺序，全部通过后再计算金额
var commissionRulePredicates = []rulePredicate{
	ruleWithinValidity,
	ruleMeetsMinOrderAmount,
	ruleMatchesProducts,
	ruleMatchesTarget,
	ruleMatchesLevel,
	ruleMatchesRole,
}

// CommissionCalculator 基于优先级的佣金规则计算器
type CommissionCalculator struct {
	ruleRepo repository.CommissionRuleRepository
	nowFunc  func() time.Time
}

// NewCommissionCalculator 创建佣金计算器
func NewCommissionCalculator(ruleRepo repository.CommissionRuleRepository) *CommissionCalculator {
	return &CommissionCalculator{
		ruleRepo: ruleRepo,
		nowFunc:  time.Now,
	}
}

// Evaluate 读取当前启用规则并计算佣金
func (c *CommissionCalculator) Evaluate(input CommissionInput) (CommissionResult, error) {
	rules, err := c.ruleRepo.ListActiveOrderedByPriority()
	if err != nil {
		return CommissionResult{}, err
	}
	return EvaluateCommissionRules(rules, input, c.nowFunc()), nil
}

// EvaluateCommissionRules 在给定规则集上计算佣金
// rules 需按 priority desc, id asc 排好序；返回第一条通过全部过滤且能算出金额的规则。
func EvaluateCommissionRules(rules []models.CommissionRule, input CommissionInput, now time.Time) CommissionResult {
	input.TargetRole = normalizeRuleKey(input.TargetRole)
	input.TargetLevel = normalizeRuleKey(input.TargetLevel)

	for i := range rules {
		rule := &rules[i]
		if !rule.IsActive {
			continue
		}
		if !ruleSurvivesPredicates(rule, &input, now) {
			continue
		}
		rate, amount, ok := computeRuleCommission(rule, input.OrderAmount)
		if !ok {
			continue
		}
		if rule.MaxCommission != nil && amount.GreaterThan(rule.MaxCommission.Decimal) {
			amount = rule.MaxCommission.Decimal
		}
		ruleID := rule.ID
		return CommissionResult{
			Rate:     models.NewMoneyFromDecimal(rate),
			Amount:   models.NewMoneyFromDecimal(amount),
			RuleID:   &ruleID,
			RuleName: rule.Name,
			RuleType: rule.Type,
		}
	}
	return CommissionResult{}
}

func ruleSurvivesPredicates(rule *models.CommissionRule, input *CommissionInput, now time.Time) bool {
	for _, predicate := range commissionRulePredicates {
		if !predicate(rule, input, now) {
			return false
		}
	}
	return true
}

func ruleWithinValidity(rule *models.CommissionRule, _ *CommissionInput, now time.Time) bool {
	if rule.ValidFrom != nil && now.Before(*rule.ValidFrom) {
		return false
	}
	if rule.ValidUntil != nil && now.After(*rule.ValidUntil) {
		return false
	}
	return true
}

func ruleMeetsMinOrderAmount(rule *models.CommissionRule, input *CommissionInput, _ time.Time) bool {
	if !rule.MinOrderAmount.IsPositive() {
		return true
	}
	return input.OrderAmount.GreaterThanOrEqual(rule.MinOrderAmount.Decimal)
}

func ruleMatchesProducts(rule *models.CommissionRule, input *CommissionInput, _ time.Time) bool {
	if len(rule.ProductIDs) == 0 {
		return true
	}
	for _, productID := range input.ProductIDs {
		if rule.ProductIDs.Contains(strings.TrimSpace(productID)) {
			return true
		}
	}
	return false
}

// 指定发型师的规则只对名单内的目标生效；沙龙评估时目标 ID 为 0，此类规则总是跳过
func ruleMatchesTarget(rule *models.CommissionRule, input *CommissionInput, _ time.Time) bool {
	if len(rule.StylistIDs) == 0 {
		return true
	}
	return input.TargetID != 0 && rule.StylistIDs.Contains(input.TargetID)
}

func ruleMatchesLevel(rule *models.CommissionRule, input *CommissionInput, _ time.Time) bool {
	if len(rule.AllowedLevels) == 0 {
		return true
	}
	return containsRuleKey(rule.AllowedLevels, input.TargetLevel)
}

func ruleMatchesRole(rule *models.CommissionRule, input *CommissionInput, _ time.Time) bool {
	if len(rule.RoleApplicable) == 0 {
		return true
	}
	return containsRuleKey(rule.RoleApplicable, input.TargetRole)
}

// computeRuleCommission 按规则类型计算比例与金额，ok=false 表示规则不适用
func computeRuleCommission(rule *models.CommissionRule, orderAmount models.Money) (decimal.Decimal, decimal.Decimal, bool) {
	switch strings.ToLower(strings.TrimSpace(rule.Type)) {
	case constants.CommissionRuleTypePercentage:
		rate := rule.Value.Decimal
		return rate, percentOf(orderAmount.Decimal, rate), true
	case constants.CommissionRuleTypeFixed:
		// 固定金额不对应比例
		return decimal.Zero, rule.Value.Decimal.Round(2), true
	case constants.CommissionRuleTypeTiered:
		for _, tier := range rule.Tiers {
			if tier.Contains(orderAmount) {
				return tier.Rate.Decimal, percentOf(orderAmount.Decimal, tier.Rate.Decimal), true
			}
		}
		return decimal.Zero, decimal.Zero, false
	default:
		return decimal.Zero, decimal.Zero, false
	}
}

func percentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
}

func normalizeRuleKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func containsRuleKey(items models.StringArray, target string) bool {
	if target == "" {
		return false
	}
	for _, item := range items {
		if normalizeRuleKey(item) == target {
			return true
		}
	}
	return false
}
