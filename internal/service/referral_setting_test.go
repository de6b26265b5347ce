package service

import (
	"errors"
	"testing"

	"github.com/salonlink/internal/config"
	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/models"
)

type mockSettingRepo struct {
	store map[string]models.JSON
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{store: map[string]models.JSON{}}
}

func (m *mockSettingRepo) GetByKey(key string) (*models.Setting, error) {
	value, ok := m.store[key]
	if !ok {
		return nil, nil
	}
	return &models.Setting{Key: key, ValueJSON: value}, nil
}

func (m *mockSettingRepo) Upsert(key string, value models.JSON) (*models.Setting, error) {
	m.store[key] = value
	return &models.Setting{Key: key, ValueJSON: value}, nil
}

func TestNormalizeReferralSettingClampsValues(t *testing.T) {
	setting := NormalizeReferralSetting(ReferralSetting{
		DefaultCommissionRate: 120.456,
		PayableAfterDays:      -3,
		DefaultDiscountType:   " UNKNOWN ",
		DefaultDiscountValue:  12.345,
		DefaultValidityDays:   0,
		DiscountUsageLimit:    -1,
		SharedPriceRuleID:     "  pr-1  ",
	})
	if setting.DefaultCommissionRate != 100 {
		t.Fatalf("expected commission rate clamped to 100, got %v", setting.DefaultCommissionRate)
	}
	if setting.PayableAfterDays != 0 {
		t.Fatalf("expected payable days clamped to 0, got %d", setting.PayableAfterDays)
	}
	if setting.DefaultDiscountType != constants.DiscountTypePercentage {
		t.Fatalf("expected fallback discount type percentage, got %s", setting.DefaultDiscountType)
	}
	if setting.DefaultDiscountValue != 12.35 {
		t.Fatalf("expected discount value rounded to 12.35, got %v", setting.DefaultDiscountValue)
	}
	if setting.DefaultValidityDays != 1 {
		t.Fatalf("expected validity days at least 1, got %d", setting.DefaultValidityDays)
	}
	if setting.DiscountUsageLimit != 0 {
		t.Fatalf("expected usage limit clamped to 0, got %d", setting.DiscountUsageLimit)
	}
	if setting.SharedPriceRuleID != "pr-1" {
		t.Fatalf("expected trimmed price rule id, got %q", setting.SharedPriceRuleID)
	}
}

func TestValidateReferralSettingRejectsPercentageOver100(t *testing.T) {
	err := ValidateReferralSetting(ReferralSetting{
		DefaultDiscountType:  constants.DiscountTypePercentage,
		DefaultDiscountValue: 150,
	})
	if !errors.Is(err, ErrReferralConfigInvalid) {
		t.Fatalf("expected ErrReferralConfigInvalid, got %v", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestGetReferralSettingFallsBackToConfigDefaults(t *testing.T) {
	svc := NewSettingService(newMockSettingRepo())
	cfg := &config.Config{}
	cfg.Referral.DefaultDiscountType = constants.DiscountTypeFixedAmount
	cfg.Referral.DefaultDiscountValue = 25
	cfg.Referral.DefaultValidityDays = 7
	cfg.Commerce.SharedPriceRuleID = "shared-1"
	svc.SetReferralDefaults(ReferralSettingFromConfig(cfg))

	setting, err := svc.GetReferralSetting()
	if err != nil {
		t.Fatalf("get referral setting failed: %v", err)
	}
	if setting.DefaultDiscountType != constants.DiscountTypeFixedAmount || setting.DefaultDiscountValue != 25 {
		t.Fatalf("unexpected discount defaults: %+v", setting)
	}
	if setting.DefaultValidityDays != 7 || setting.SharedPriceRuleID != "shared-1" {
		t.Fatalf("unexpected config defaults: %+v", setting)
	}
}

func TestUpdateReferralSettingRoundTrip(t *testing.T) {
	repo := newMockSettingRepo()
	svc := NewSettingService(repo)

	updated, err := svc.UpdateReferralSetting(ReferralSetting{
		DefaultCommissionRate:   8,
		PayableAfterDays:        30,
		DefaultDiscountType:     constants.DiscountTypePercentage,
		DefaultDiscountValue:    15,
		DefaultValidityDays:     60,
		DiscountUsageLimit:      1,
		MatchByCustomerFallback: false,
	})
	if err != nil {
		t.Fatalf("update referral setting failed: %v", err)
	}
	if updated.PayableAfterDays != 30 {
		t.Fatalf("unexpected updated setting: %+v", updated)
	}
	if _, ok := repo.store[constants.SettingKeyReferralConfig]; !ok {
		t.Fatalf("expected setting to be stored under %s", constants.SettingKeyReferralConfig)
	}

	loaded, err := svc.GetReferralSetting()
	if err != nil {
		t.Fatalf("reload referral setting failed: %v", err)
	}
	if loaded.DefaultCommissionRate != 8 || loaded.DefaultValidityDays != 60 || loaded.MatchByCustomerFallback {
		t.Fatalf("unexpected reloaded setting: %+v", loaded)
	}
}

func TestUpdateSettingNormalizesRawReferralMap(t *testing.T) {
	svc := NewSettingService(newMockSettingRepo())
	value, err := svc.Update(constants.SettingKeyReferralConfig, map[string]interface{}{
		"payable_after_days":     "21",
		"default_discount_value": "12.5",
		"unknown_key":            true,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if value["payable_after_days"] != 21 {
		t.Fatalf("expected payable days parsed to 21, got %v", value["payable_after_days"])
	}
	if _, ok := value["unknown_key"]; ok {
		t.Fatalf("unknown keys should be dropped from referral config")
	}
}
