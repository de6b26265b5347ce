package service

import (
	"errors"
	"fmt"
)

// 基础错误类别，业务错误通过 %w 归入其中，便于接口层统一映射状态码
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrExternalFailure = errors.New("external service failure")
)

// 认证
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrTokenInvalid       = errors.New("token invalid")
)

// 推荐人与客户
var (
	ErrReferrerNotFound      = fmt.Errorf("%w: referrer", ErrNotFound)
	ErrReferrerDisabled      = errors.New("referrer disabled")
	ErrCustomerNotFound      = fmt.Errorf("%w: customer", ErrNotFound)
	ErrCustomerPhoneRequired = fmt.Errorf("%w: customer phone is required", ErrValidation)
	ErrInvalidEmail          = fmt.Errorf("%w: customer email is invalid", ErrValidation)
)

// 推荐记录
var (
	ErrReferralNotFound          = fmt.Errorf("%w: referral", ErrNotFound)
	ErrReferralStatusInvalid     = fmt.Errorf("%w: referral status does not allow this operation", ErrConflict)
	ErrReferralTransitionInvalid = fmt.Errorf("%w: referral status transition not allowed", ErrValidation)
	ErrReferralStatusUnknown     = fmt.Errorf("%w: unknown referral status", ErrValidation)
	ErrReferralIDsRequired       = fmt.Errorf("%w: referral ids are required", ErrValidation)
	ErrCommissionAmountInvalid   = fmt.Errorf("%w: commission amount must be non-negative", ErrValidation)
)

// 优惠码
var (
	ErrDiscountCodeExists    = fmt.Errorf("%w: discount code already exists", ErrConflict)
	ErrDiscountCodeNotFound  = fmt.Errorf("%w: discount code", ErrNotFound)
	ErrDiscountTypeInvalid   = fmt.Errorf("%w: discount type is invalid", ErrValidation)
	ErrDiscountValueInvalid  = fmt.Errorf("%w: discount value is invalid", ErrValidation)
	ErrDiscountWindowInvalid = fmt.Errorf("%w: discount validity window is invalid", ErrValidation)
)

// 佣金规则
var (
	ErrCommissionRuleNotFound = fmt.Errorf("%w: commission rule", ErrNotFound)
	ErrCommissionRuleInvalid  = fmt.Errorf("%w: commission rule is invalid", ErrValidation)
)

// 订单同步
var (
	ErrOrderNotFound     = fmt.Errorf("%w: order", ErrNotFound)
	ErrOrderEventInvalid = fmt.Errorf("%w: order event is invalid", ErrValidation)
	ErrRedemptionOrder   = fmt.Errorf("%w: redemption requires a stored order", ErrValidation)
)

// 设置
var (
	ErrReferralConfigInvalid = fmt.Errorf("%w: referral config is invalid", ErrValidation)
)

// externalFailure 将平台调用失败包装为统一的外部错误
func externalFailure(action string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrExternalFailure, action, err)
}
