package admin

import (
	"errors"

	"github.com/salonlink/internal/http/response"
	"github.com/salonlink/internal/service"

	"github.com/gin-gonic/gin"
)

// GetReferralSetting 获取推荐配置
func (h *Handler) GetReferralSetting(c *gin.Context) {
	setting, err := h.SettingService.GetReferralSetting()
	if err != nil {
		respondError(c, response.CodeInternal, "error.setting_fetch_failed", err)
		return
	}
	response.Success(c, setting)
}

// UpdateReferralSetting 更新推荐配置
func (h *Handler) UpdateReferralSetting(c *gin.Context) {
	var req service.ReferralSetting
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	setting, err := h.SettingService.UpdateReferralSetting(req)
	if err != nil {
		if errors.Is(err, service.ErrReferralConfigInvalid) {
			respondError(c, response.CodeBadRequest, "error.setting_invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.setting_save_failed", err)
		return
	}
	requestLog(c).Infow("admin_referral_setting_updated", "admin_id", c.GetUint("admin_id"))
	response.Success(c, setting)
}
