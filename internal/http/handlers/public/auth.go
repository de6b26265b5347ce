package public

import (
	"errors"

	"github.com/salonlink/internal/http/response"
	"github.com/salonlink/internal/service"

	"github.com/gin-gonic/gin"
)

// StylistLoginRequest 发型师登录请求
type StylistLoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// StylistLogin 发型师手机号登录
func (h *Handler) StylistLogin(c *gin.Context) {
	var req StylistLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	stylist, token, expiresAt, err := h.AuthService.StylistLogin(req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "error.login_invalid", nil)
		case errors.Is(err, service.ErrAccountDisabled):
			respondError(c, response.CodeUnauthorized, "error.account_disabled", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"stylist":    stylist,
	})
}

// GetCurrentStylist 当前发型师资料
func (h *Handler) GetCurrentStylist(c *gin.Context) {
	stylistID, ok := getStylistID(c)
	if !ok {
		return
	}
	stylist, err := h.StylistRepo.GetByID(stylistID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.stylist_fetch_failed", err)
		return
	}
	if stylist == nil {
		respondError(c, response.CodeNotFound, "error.referrer_not_found", nil)
		return
	}
	response.Success(c, stylist)
}
