package admin

import (
	"strings"

	handlershared "github.com/salonlink/internal/http/handlers/shared"
	"github.com/salonlink/internal/http/response"
	"github.com/salonlink/internal/models"
	"github.com/salonlink/internal/repository"
	"github.com/salonlink/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var commissionRuleErrorRules = handlershared.ConcatMappedHandlerErrors(
	handlershared.CommissionRuleErrorRules,
	handlershared.BaseErrorRules,
)

// CommissionRuleRequest 创建/更新佣金规则请求
type CommissionRuleRequest struct {
	Name           string                  `json:"name" binding:"required"`
	Type           string                  `json:"type" binding:"required"`
	Value          decimal.Decimal         `json:"value"`
	Tiers          []models.CommissionTier `json:"tiers"`
	RoleApplicable []string                `json:"role_applicable"`
	AllowedLevels  []string                `json:"allowed_levels"`
	ProductIDs     []string                `json:"product_ids"`
	StylistIDs     []uint                  `json:"stylist_ids"`
	MinOrderAmount decimal.Decimal         `json:"min_order_amount"`
	MaxCommission  *decimal.Decimal        `json:"max_commission"`
	Priority       int                     `json:"priority"`
	IsActive       *bool                   `json:"is_active"`
	ValidFrom      string                  `json:"valid_from"`
	ValidUntil     string                  `json:"valid_until"`
	Description    string                  `json:"description"`
}

func (req CommissionRuleRequest) toInput() (service.CommissionRuleInput, error) {
	validFrom, err := parseTimeNullable(req.ValidFrom)
	if err != nil {
		return service.CommissionRuleInput{}, err
	}
	validUntil, err := parseTimeNullable(req.ValidUntil)
	if err != nil {
		return service.CommissionRuleInput{}, err
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	return service.CommissionRuleInput{
		Name:           req.Name,
		Type:           req.Type,
		Value:          req.Value,
		Tiers:          req.Tiers,
		RoleApplicable: req.RoleApplicable,
		AllowedLevels:  req.AllowedLevels,
		ProductIDs:     req.ProductIDs,
		StylistIDs:     req.StylistIDs,
		MinOrderAmount: req.MinOrderAmount,
		MaxCommission:  req.MaxCommission,
		Priority:       req.Priority,
		IsActive:       isActive,
		ValidFrom:      validFrom,
		ValidUntil:     validUntil,
		Description:    req.Description,
	}, nil
}

// ListCommissionRules 佣金规则列表
func (h *Handler) ListCommissionRules(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.CommissionRuleListFilter{
		Page:     page,
		PageSize: pageSize,
		Type:     strings.TrimSpace(c.Query("type")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	}
	switch strings.ToLower(strings.TrimSpace(c.Query("is_active"))) {
	case "true", "1":
		active := true
		filter.IsActive = &active
	case "false", "0":
		inactive := false
		filter.IsActive = &inactive
	}

	rules, total, err := h.CommissionRuleService.ListRules(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.rule_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rules, response.NewPagination(page, pageSize, total))
}

// GetCommissionRule 佣金规则详情
func (h *Handler) GetCommissionRule(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	rule, err := h.CommissionRuleService.GetRule(id)
	if err != nil {
		handlershared.RespondWithMappedError(c, err, commissionRuleErrorRules, response.CodeInternal, "error.rule_fetch_failed")
		return
	}
	response.Success(c, rule)
}

// CreateCommissionRule 创建佣金规则
func (h *Handler) CreateCommissionRule(c *gin.Context) {
	var req CommissionRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	rule, err := h.CommissionRuleService.CreateRule(input)
	if err != nil {
		handlershared.RespondWithMappedError(c, err, commissionRuleErrorRules, response.CodeInternal, "error.rule_save_failed")
		return
	}
	requestLog(c).Infow("admin_commission_rule_created", "rule_id", rule.ID, "admin_id", c.GetUint("admin_id"))
	response.Success(c, rule)
}

// UpdateCommissionRule 更新佣金规则
func (h *Handler) UpdateCommissionRule(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req CommissionRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	rule, err := h.CommissionRuleService.UpdateRule(id, input)
	if err != nil {
		handlershared.RespondWithMappedError(c, err, commissionRuleErrorRules, response.CodeInternal, "error.rule_save_failed")
		return
	}
	requestLog(c).Infow("admin_commission_rule_updated", "rule_id", rule.ID, "admin_id", c.GetUint("admin_id"))
	response.Success(c, rule)
}

// DeleteCommissionRule 删除佣金规则
func (h *Handler) DeleteCommissionRule(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.CommissionRuleService.DeleteRule(id); err != nil {
		handlershared.RespondWithMappedError(c, err, commissionRuleErrorRules, response.CodeInternal, "error.rule_save_failed")
		return
	}
	requestLog(c).Infow("admin_commission_rule_deleted", "rule_id", id, "admin_id", c.GetUint("admin_id"))
	response.Success(c, gin.H{"id": id})
}

// PreviewCommissionRequest 佣金试算请求
type PreviewCommissionRequest struct {
	OrderAmount decimal.Decimal `json:"order_amount" binding:"required"`
	TargetRole  string          `json:"target_role"`
	TargetLevel string          `json:"target_level"`
	TargetID    uint            `json:"target_id"`
	ProductIDs  []string        `json:"product_ids"`
}

// PreviewCommission 按当前规则试算佣金，不落库
func (h *Handler) PreviewCommission(c *gin.Context) {
	var req PreviewCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if req.OrderAmount.IsNegative() {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.CommissionRuleService.Preview(service.CommissionInput{
		OrderAmount: models.NewMoneyFromDecimal(req.OrderAmount),
		TargetRole:  strings.TrimSpace(req.TargetRole),
		TargetLevel: strings.TrimSpace(req.TargetLevel),
		TargetID:    req.TargetID,
		ProductIDs:  req.ProductIDs,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.preview_failed", err)
		return
	}
	response.Success(c, result)
}
