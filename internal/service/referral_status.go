package service

import (
	"strings"

	"github.com/salonlink/internal/constants"
)

// referralTransitions 推荐状态只允许向前流转
var referralTransitions = map[string][]string{
	constants.ReferralStatusPending: {
		constants.ReferralStatusRedeemed,
		constants.ReferralStatusExpired,
		constants.ReferralStatusCancelled,
	},
	constants.ReferralStatusRedeemed: {
		constants.ReferralStatusPayable,
		constants.ReferralStatusCredited,
		constants.ReferralStatusCancelled,
	},
	constants.ReferralStatusPayable: {
		constants.ReferralStatusCredited,
		constants.ReferralStatusCancelled,
	},
}

// CanTransitionReferral 判断推荐状态能否从 from 流转到 to
func CanTransitionReferral(from, to string) bool {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	for _, next := range referralTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// referralSourcesFor 返回可以流转到 to 的所有来源状态
func referralSourcesFor(to string) []string {
	sources := make([]string, 0, 3)
	for _, from := range []string{
		constants.ReferralStatusPending,
		constants.ReferralStatusRedeemed,
		constants.ReferralStatusPayable,
	} {
		if CanTransitionReferral(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

// IsReferralTerminal 是否为终态
func IsReferralTerminal(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case constants.ReferralStatusCredited, constants.ReferralStatusExpired, constants.ReferralStatusCancelled:
		return true
	}
	return false
}

// IsReferralStatusValid 是否为已知状态
func IsReferralStatusValid(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case constants.ReferralStatusPending,
		constants.ReferralStatusRedeemed,
		constants.ReferralStatusPayable,
		constants.ReferralStatusCredited,
		constants.ReferralStatusExpired,
		constants.ReferralStatusCancelled:
		return true
	}
	return false
}
