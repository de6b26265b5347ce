package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/salonlink/internal/http/handlers/shared"
	"github.com/salonlink/internal/http/response"
	"github.com/salonlink/internal/repository"
	"github.com/salonlink/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var referralAdminErrorRules = handlershared.ConcatMappedHandlerErrors(
	handlershared.ReferralErrorRules,
	handlershared.BaseErrorRules,
)

// ListReferrals 推荐列表（可按推荐人、沙龙、状态与时间过滤）
func (h *Handler) ListReferrals(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.ReferralListFilter{
		Page:       page,
		PageSize:   pageSize,
		ReferrerID: parseQueryUint(c, "referrer_id"),
		CustomerID: parseQueryUint(c, "customer_id"),
		SalonID:    parseQueryUint(c, "salon_id"),
		Status:     c.Query("status"),
		Keyword:    strings.TrimSpace(c.Query("keyword")),
	}
	var err error
	if filter.CreatedFrom, err = parseQueryTime(c, "created_from"); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if filter.CreatedTo, err = parseQueryTime(c, "created_to"); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	referrals, total, err := h.ReferralService.ListReferrals(filter)
	if err != nil {
		handlershared.RespondWithMappedError(c, err, referralAdminErrorRules, response.CodeInternal, "error.referral_fetch_failed")
		return
	}
	response.SuccessWithPage(c, referrals, response.NewPagination(page, pageSize, total))
}

// GetReferral 推荐详情
func (h *Handler) GetReferral(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	referral, err := h.ReferralService.GetReferral(id)
	if err != nil {
		handlershared.RespondWithMappedError(c, err, referralAdminErrorRules, response.CodeInternal, "error.referral_fetch_failed")
		return
	}
	response.Success(c, referral)
}

// UpdateCommissionRequest 管理员调整佣金请求
type UpdateCommissionRequest struct {
	CommissionAmount      *decimal.Decimal `json:"commission_amount"`
	ActualSalonCommission *decimal.Decimal `json:"actual_salon_commission"`
	Status                string           `json:"status"`
	Note                  *string          `json:"note"`
}

// UpdateReferralCommission 调整佣金金额或推进状态
func (h *Handler) UpdateReferralCommission(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	referral, err := h.ReferralService.UpdateCommission(c.Request.Context(), id, service.UpdateCommissionInput{
		CommissionAmount:      req.CommissionAmount,
		ActualSalonCommission: req.ActualSalonCommission,
		Status:                req.Status,
		Note:                  req.Note,
	})
	if err != nil {
		handlershared.RespondWithMappedError(c, err, referralAdminErrorRules, response.CodeInternal, "error.referral_update_failed")
		return
	}
	requestLog(c).Infow("admin_referral_commission_updated",
		"referral_id", referral.ID,
		"admin_id", c.GetUint("admin_id"),
		"status", referral.Status,
	)
	response.Success(c, referral)
}

// CancelReferralRequest 取消推荐请求
type CancelReferralRequest struct {
	Reason string `json:"reason"`
}

// CancelReferral 取消推荐
func (h *Handler) CancelReferral(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req CancelReferralRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	referral, err := h.ReferralService.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		handlershared.RespondWithMappedError(c, err, referralAdminErrorRules, response.CodeInternal, "error.referral_cancel_failed")
		return
	}
	response.Success(c, referral)
}

// BulkCreditRequest 批量结算请求
type BulkCreditRequest struct {
	IDs              []uint `json:"ids" binding:"required"`
	StylistReference string `json:"stylist_reference"`
	SalonReference   string `json:"salon_reference"`
}

// BulkCreditReferrals 批量结算佣金
func (h *Handler) BulkCreditReferrals(c *gin.Context) {
	var req BulkCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.ReferralService.BulkCredit(c.Request.Context(), service.BulkCreditInput{
		IDs:              req.IDs,
		StylistReference: req.StylistReference,
		SalonReference:   req.SalonReference,
	})
	if err != nil {
		handlershared.RespondWithMappedError(c, err, referralAdminErrorRules, response.CodeInternal, "error.bulk_credit_failed")
		return
	}
	response.Success(c, result)
}

func parseQueryUint(c *gin.Context, key string) uint {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(value)
}

func parseQueryTime(c *gin.Context, key string) (*time.Time, error) {
	return parseTimeNullable(c.Query(key))
}

func parseTimeNullable(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
