package response

import (
	"fmt"
	"strings"
)

var messages = map[string]string{
	"error.bad_request":              "invalid request",
	"error.unauthorized":             "unauthorized",
	"error.forbidden":                "permission denied",
	"error.not_found":                "resource not found",
	"error.internal":                 "internal error",
	"error.jwt_secret_missing":       "jwt secret is not configured",
	"error.auth_header_missing":      "authorization header missing",
	"error.auth_header_invalid":      "authorization header invalid",
	"error.token_invalid":            "token invalid",
	"error.token_revoked":            "token revoked",
	"error.login_invalid":            "invalid username or password",
	"error.account_disabled":         "account disabled",
	"error.login_too_many":           "too many login attempts, retry in %d seconds",
	"error.rate_limited":             "too many requests, retry in %d seconds",
	"error.rate_limit_unavailable":   "rate limiter unavailable",
	"error.referrer_not_found":       "referrer not found",
	"error.referrer_disabled":        "referrer disabled",
	"error.referral_not_found":       "referral not found",
	"error.referral_status_invalid":  "referral status does not allow this operation",
	"error.referral_status_unknown":  "unknown referral status",
	"error.referral_ids_required":    "referral ids are required",
	"error.referral_fetch_failed":    "failed to load referrals",
	"error.referral_create_failed":   "failed to create referral",
	"error.referral_update_failed":   "failed to update referral",
	"error.commission_invalid":       "commission amount is invalid",
	"error.discount_code_exists":     "a discount code already exists for this phone",
	"error.discount_invalid":         "discount parameters are invalid",
	"error.customer_invalid":         "customer phone or email is invalid",
	"error.commerce_unavailable":     "commerce platform request failed",
	"error.rule_not_found":           "commission rule not found",
	"error.rule_invalid":             "commission rule is invalid",
	"error.rule_fetch_failed":        "failed to load commission rules",
	"error.rule_save_failed":         "failed to save commission rule",
	"error.setting_invalid":          "referral settings are invalid",
	"error.setting_fetch_failed":     "failed to load referral settings",
	"error.setting_save_failed":      "failed to save referral settings",
	"error.order_not_found":          "order not found",
	"error.order_sync_failed":        "order sync failed",
	"error.webhook_signature":        "webhook signature invalid",
	"error.webhook_payload":          "webhook payload invalid",
	"error.webhook_not_configured":   "webhook secret is not configured",
	"error.queue_unavailable":        "queue unavailable",
	"error.role_invalid":             "role is invalid",
	"error.authz_update_failed":      "failed to update permissions",
	"error.admin_id_invalid":         "admin id invalid",
	"error.admin_id_type_invalid":    "admin id type invalid",
	"error.stylist_id_invalid":       "stylist id invalid",
	"error.stylist_id_type_invalid":  "stylist id type invalid",
	"error.super_admin_required":     "super admin required",
	"error.stylist_fetch_failed":     "failed to load stylist",
	"error.admin_fetch_failed":       "failed to load admin",
	"error.dashboard_fetch_failed":   "failed to load dashboard",
	"error.preview_failed":           "commission preview failed",
	"error.bulk_credit_failed":       "bulk credit failed",
	"error.rematch_failed":           "order rematch failed",
	"error.metrics_disabled":         "metrics disabled",
	"error.referral_cancel_failed":   "failed to cancel referral",
	"error.referral_transition_fail": "referral status transition not allowed",
}

// Message 按 key 取提示文案，未登记的 key 原样返回
func Message(key string, args ...interface{}) string {
	key = strings.TrimSpace(key)
	text, ok := messages[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}
