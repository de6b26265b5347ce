package shared

import (
	"errors"

	"github.com/salonlink/internal/http/response"
	"github.com/salonlink/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedHandlerError 定义业务错误到接口错误响应的映射关系。
type MappedHandlerError struct {
	Target error
	Code   int
	Key    string
}

// RespondWithMappedError 按规则顺序匹配错误，未命中时使用兜底码并记录原始错误。
func RespondWithMappedError(c *gin.Context, err error, rules []MappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// ConcatMappedHandlerErrors 合并多组映射规则。
func ConcatMappedHandlerErrors(groups ...[]MappedHandlerError) []MappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// ReferralErrorRules 推荐相关业务错误
var ReferralErrorRules = []MappedHandlerError{
	{Target: service.ErrReferrerNotFound, Code: response.CodeNotFound, Key: "error.referrer_not_found"},
	{Target: service.ErrReferrerDisabled, Code: response.CodeForbidden, Key: "error.referrer_disabled"},
	{Target: service.ErrReferralNotFound, Code: response.CodeNotFound, Key: "error.referral_not_found"},
	{Target: service.ErrReferralStatusInvalid, Code: response.CodeConflict, Key: "error.referral_status_invalid"},
	{Target: service.ErrReferralTransitionInvalid, Code: response.CodeBadRequest, Key: "error.referral_transition_fail"},
	{Target: service.ErrReferralStatusUnknown, Code: response.CodeBadRequest, Key: "error.referral_status_unknown"},
	{Target: service.ErrReferralIDsRequired, Code: response.CodeBadRequest, Key: "error.referral_ids_required"},
	{Target: service.ErrCommissionAmountInvalid, Code: response.CodeBadRequest, Key: "error.commission_invalid"},
}

// DiscountErrorRules 优惠码发放相关业务错误
var DiscountErrorRules = []MappedHandlerError{
	{Target: service.ErrDiscountCodeExists, Code: response.CodeConflict, Key: "error.discount_code_exists"},
	{Target: service.ErrDiscountTypeInvalid, Code: response.CodeBadRequest, Key: "error.discount_invalid"},
	{Target: service.ErrDiscountValueInvalid, Code: response.CodeBadRequest, Key: "error.discount_invalid"},
	{Target: service.ErrDiscountWindowInvalid, Code: response.CodeBadRequest, Key: "error.discount_invalid"},
	{Target: service.ErrCustomerPhoneRequired, Code: response.CodeBadRequest, Key: "error.customer_invalid"},
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest, Key: "error.customer_invalid"},
	{Target: service.ErrExternalFailure, Code: response.CodeBadRequest, Key: "error.commerce_unavailable"},
}

// CommissionRuleErrorRules 佣金规则相关业务错误
var CommissionRuleErrorRules = []MappedHandlerError{
	{Target: service.ErrCommissionRuleNotFound, Code: response.CodeNotFound, Key: "error.rule_not_found"},
	{Target: service.ErrCommissionRuleInvalid, Code: response.CodeBadRequest, Key: "error.rule_invalid"},
}

// BaseErrorRules 通用分类兜底，放在具体规则之后
var BaseErrorRules = []MappedHandlerError{
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
	{Target: service.ErrConflict, Code: response.CodeConflict, Key: "error.bad_request"},
	{Target: service.ErrValidation, Code: response.CodeBadRequest, Key: "error.bad_request"},
}
