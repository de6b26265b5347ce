package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/salonlink/internal/config"
	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/models"
)

const (
	referralCommissionRateMax   = 100
	referralPayableAfterDaysMax = 3650
	referralValidityDaysMin     = 1
	referralValidityDaysMax     = 3650
	referralPriceRuleIDMaxRune  = 64
)

// ReferralSetting 推荐业务配置
type ReferralSetting struct {
	DefaultCommissionRate   float64 `json:"default_commission_rate"`
	PayableAfterDays        int     `json:"payable_after_days"`
	DefaultDiscountType     string  `json:"default_discount_type"`
	DefaultDiscountValue    float64 `json:"default_discount_value"`
	DefaultValidityDays     int     `json:"default_validity_days"`
	DiscountUsageLimit      int     `json:"discount_usage_limit"`
	SharedPriceRuleID       string  `json:"shared_price_rule_id"`
	MatchByCustomerFallback bool    `json:"match_by_customer_fallback"`
}

// ReferralDefaultSetting 默认推荐配置
func ReferralDefaultSetting() ReferralSetting {
	return NormalizeReferralSetting(ReferralSetting{
		DefaultCommissionRate:   0,
		PayableAfterDays:        14,
		DefaultDiscountType:     constants.DiscountTypePercentage,
		DefaultDiscountValue:    10,
		DefaultValidityDays:     30,
		DiscountUsageLimit:      1,
		MatchByCustomerFallback: true,
	})
}

// ReferralSettingFromConfig 以配置文件覆盖默认推荐配置
func ReferralSettingFromConfig(cfg *config.Config) ReferralSetting {
	setting := ReferralDefaultSetting()
	if cfg == nil {
		return setting
	}
	if t := strings.TrimSpace(cfg.Referral.DefaultDiscountType); t != "" {
		setting.DefaultDiscountType = t
	}
	if cfg.Referral.DefaultDiscountValue > 0 {
		setting.DefaultDiscountValue = cfg.Referral.DefaultDiscountValue
	}
	if cfg.Referral.DefaultValidityDays > 0 {
		setting.DefaultValidityDays = cfg.Referral.DefaultValidityDays
	}
	setting.MatchByCustomerFallback = cfg.Referral.MatchByCustomerFallback
	setting.SharedPriceRuleID = strings.TrimSpace(cfg.Commerce.SharedPriceRuleID)
	return NormalizeReferralSetting(setting)
}

// NormalizeReferralSetting 归一化推荐配置
func NormalizeReferralSetting(setting ReferralSetting) ReferralSetting {
	setting.DefaultCommissionRate = roundSettingDecimal(setting.DefaultCommissionRate)
	if setting.DefaultCommissionRate < 0 {
		setting.DefaultCommissionRate = 0
	}
	if setting.DefaultCommissionRate > referralCommissionRateMax {
		setting.DefaultCommissionRate = referralCommissionRateMax
	}

	if setting.PayableAfterDays < 0 {
		setting.PayableAfterDays = 0
	}
	if setting.PayableAfterDays > referralPayableAfterDaysMax {
		setting.PayableAfterDays = referralPayableAfterDaysMax
	}

	setting.DefaultDiscountType = strings.ToLower(strings.TrimSpace(setting.DefaultDiscountType))
	if setting.DefaultDiscountType != constants.DiscountTypeFixedAmount {
		setting.DefaultDiscountType = constants.DiscountTypePercentage
	}
	setting.DefaultDiscountValue = roundSettingDecimal(setting.DefaultDiscountValue)
	if setting.DefaultDiscountValue < 0 {
		setting.DefaultDiscountValue = 0
	}

	if setting.DefaultValidityDays < referralValidityDaysMin {
		setting.DefaultValidityDays = referralValidityDaysMin
	}
	if setting.DefaultValidityDays > referralValidityDaysMax {
		setting.DefaultValidityDays = referralValidityDaysMax
	}
	if setting.DiscountUsageLimit < 0 {
		setting.DiscountUsageLimit = 0
	}

	setting.SharedPriceRuleID = strings.TrimSpace(setting.SharedPriceRuleID)
	if runes := []rune(setting.SharedPriceRuleID); len(runes) > referralPriceRuleIDMaxRune {
		setting.SharedPriceRuleID = string(runes[:referralPriceRuleIDMaxRune])
	}
	return setting
}

// ValidateReferralSetting 校验推荐配置
func ValidateReferralSetting(setting ReferralSetting) error {
	normalized := NormalizeReferralSetting(setting)
	if normalized.DefaultDiscountType == constants.DiscountTypePercentage && normalized.DefaultDiscountValue > 100 {
		return fmt.Errorf("%w: 百分比优惠不能超过 100", ErrReferralConfigInvalid)
	}
	if normalized.DefaultDiscountValue <= 0 {
		return fmt.Errorf("%w: 默认优惠数值必须大于 0", ErrReferralConfigInvalid)
	}
	return nil
}

// ReferralSettingToMap 将推荐配置转换为 settings 存储结构
func ReferralSettingToMap(setting ReferralSetting) map[string]interface{} {
	normalized := NormalizeReferralSetting(setting)
	return map[string]interface{}{
		"default_commission_rate":    normalized.DefaultCommissionRate,
		"payable_after_days":         normalized.PayableAfterDays,
		"default_discount_type":      normalized.DefaultDiscountType,
		"default_discount_value":     normalized.DefaultDiscountValue,
		"default_validity_days":      normalized.DefaultValidityDays,
		"discount_usage_limit":       normalized.DiscountUsageLimit,
		"shared_price_rule_id":       normalized.SharedPriceRuleID,
		"match_by_customer_fallback": normalized.MatchByCustomerFallback,
	}
}

func referralSettingFromJSON(raw models.JSON, fallback ReferralSetting) ReferralSetting {
	result := fallback

	if v, ok := raw["default_commission_rate"]; ok {
		if parsed, err := parseSettingFloat(v); err == nil {
			result.DefaultCommissionRate = parsed
		}
	}
	if v, ok := raw["payable_after_days"]; ok {
		if parsed, err := parseSettingInt(v); err == nil {
			result.PayableAfterDays = parsed
		}
	}
	if v, ok := raw["default_discount_type"]; ok {
		result.DefaultDiscountType = normalizeSettingText(v)
	}
	if v, ok := raw["default_discount_value"]; ok {
		if parsed, err := parseSettingFloat(v); err == nil {
			result.DefaultDiscountValue = parsed
		}
	}
	if v, ok := raw["default_validity_days"]; ok {
		if parsed, err := parseSettingInt(v); err == nil {
			result.DefaultValidityDays = parsed
		}
	}
	if v, ok := raw["discount_usage_limit"]; ok {
		if parsed, err := parseSettingInt(v); err == nil {
			result.DiscountUsageLimit = parsed
		}
	}
	if v, ok := raw["shared_price_rule_id"]; ok {
		result.SharedPriceRuleID = normalizeSettingText(v)
	}
	if v, ok := raw["match_by_customer_fallback"]; ok {
		result.MatchByCustomerFallback = parseSettingBool(v)
	}

	return NormalizeReferralSetting(result)
}

// GetReferralSetting 获取推荐设置（优先 settings，空时回退默认）
func (s *SettingService) GetReferralSetting() (ReferralSetting, error) {
	if s == nil {
		return ReferralDefaultSetting(), nil
	}
	fallback := s.referralDefaults

	value, err := s.GetByKey(constants.SettingKeyReferralConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return referralSettingFromJSON(value, fallback), nil
}

// UpdateReferralSetting 更新推荐设置
func (s *SettingService) UpdateReferralSetting(setting ReferralSetting) (ReferralSetting, error) {
	normalized := NormalizeReferralSetting(setting)
	if err := ValidateReferralSetting(normalized); err != nil {
		return s.referralDefaults, err
	}
	if _, err := s.Update(constants.SettingKeyReferralConfig, ReferralSettingToMap(normalized)); err != nil {
		return s.referralDefaults, err
	}
	return normalized, nil
}

func roundSettingDecimal(value float64) float64 {
	return math.Round(value*100) / 100
}
