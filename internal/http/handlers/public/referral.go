package public

import (
	handlershared "github.com/salonlink/internal/http/handlers/shared"
	"github.com/salonlink/internal/http/response"
	"github.com/salonlink/internal/repository"
	"github.com/salonlink/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var createReferralErrorRules = handlershared.ConcatMappedHandlerErrors(
	handlershared.ReferralErrorRules,
	handlershared.DiscountErrorRules,
	handlershared.BaseErrorRules,
)

// CreateReferralRequest 创建推荐请求
type CreateReferralRequest struct {
	CustomerPhone     string           `json:"customer_phone" binding:"required"`
	CustomerEmail     string           `json:"customer_email"`
	CustomerFirstName string           `json:"customer_first_name"`
	CustomerLastName  string           `json:"customer_last_name"`
	DiscountType      string           `json:"discount_type"`
	DiscountValue     *decimal.Decimal `json:"discount_value"`
	ValidityDays      int              `json:"validity_days"`
	ProductID         string           `json:"product_id"`
	Note              string           `json:"note"`
}

// CreateReferral 发型师为顾客创建推荐，优惠码即顾客手机号
func (h *Handler) CreateReferral(c *gin.Context) {
	stylistID, ok := getStylistID(c)
	if !ok {
		return
	}
	var req CreateReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	referral, err := h.ReferralService.Create(c.Request.Context(), stylistID, service.CreateReferralInput{
		CustomerPhone:     req.CustomerPhone,
		CustomerEmail:     req.CustomerEmail,
		CustomerFirstName: req.CustomerFirstName,
		CustomerLastName:  req.CustomerLastName,
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		ValidityDays:      req.ValidityDays,
		ProductID:         req.ProductID,
		Note:              req.Note,
	})
	if err != nil {
		handlershared.RespondWithMappedError(c, err, createReferralErrorRules, response.CodeInternal, "error.referral_create_failed")
		return
	}
	response.Success(c, referral)
}

// ListMyReferrals 当前发型师的推荐列表
func (h *Handler) ListMyReferrals(c *gin.Context) {
	stylistID, ok := getStylistID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	referrals, total, err := h.ReferralService.ListReferrals(repository.ReferralListFilter{
		Page:       page,
		PageSize:   pageSize,
		ReferrerID: stylistID,
		Status:     c.Query("status"),
		Keyword:    c.Query("keyword"),
	})
	if err != nil {
		handlershared.RespondWithMappedError(c, err, handlershared.ReferralErrorRules, response.CodeInternal, "error.referral_fetch_failed")
		return
	}
	response.SuccessWithPage(c, referrals, response.NewPagination(page, pageSize, total))
}

// GetMyReferral 当前发型师的推荐详情
func (h *Handler) GetMyReferral(c *gin.Context) {
	stylistID, ok := getStylistID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	referral, err := h.ReferralService.GetReferralForReferrer(stylistID, id)
	if err != nil {
		handlershared.RespondWithMappedError(c, err, handlershared.ReferralErrorRules, response.CodeInternal, "error.referral_fetch_failed")
		return
	}
	response.Success(c, referral)
}

// GetReferralDashboard 当前发型师的推荐统计
func (h *Handler) GetReferralDashboard(c *gin.Context) {
	stylistID, ok := getStylistID(c)
	if !ok {
		return
	}
	dashboard, err := h.ReferralService.Dashboard(stylistID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.dashboard_fetch_failed", err)
		return
	}
	response.Success(c, dashboard)
}
