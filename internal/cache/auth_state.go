package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/salonlink/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// AdminAuthState 管理员鉴权快照
type AdminAuthState struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	IsSuper      bool   `json:"is_super"`
	UpdatedAt    int64  `json:"updated_at"`
}

// StylistAuthState 发型师鉴权快照
type StylistAuthState struct {
	StylistID    uint   `json:"stylist_id"`
	Status       string `json:"status"`
	TokenVersion uint64 `json:"token_version"`
	UpdatedAt    int64  `json:"updated_at"`
}

func adminAuthStateKey(adminID uint) string {
	return fmt.Sprintf("auth:admin:%d", adminID)
}

func stylistAuthStateKey(stylistID uint) string {
	return fmt.Sprintf("auth:stylist:%d", stylistID)
}

// BuildAdminAuthState 从管理员模型构建鉴权快照
func BuildAdminAuthState(admin *models.Admin) *AdminAuthState {
	if admin == nil {
		return nil
	}
	return &AdminAuthState{
		AdminID:      admin.ID,
		Username:     admin.Username,
		TokenVersion: admin.TokenVersion,
		IsSuper:      admin.IsSuper,
		UpdatedAt:    time.Now().Unix(),
	}
}

// BuildStylistAuthState 从发型师模型构建鉴权快照
func BuildStylistAuthState(stylist *models.Stylist) *StylistAuthState {
	if stylist == nil {
		return nil
	}
	return &StylistAuthState{
		StylistID:    stylist.ID,
		Status:       stylist.Status,
		TokenVersion: stylist.TokenVersion,
		UpdatedAt:    time.Now().Unix(),
	}
}

// GetAdminAuthState 获取管理员鉴权快照
func GetAdminAuthState(ctx context.Context, adminID uint) (*AdminAuthState, bool, error) {
	if adminID == 0 {
		return nil, false, nil
	}
	var state AdminAuthState
	hit, err := GetJSON(ctx, adminAuthStateKey(adminID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetAdminAuthState 写入管理员鉴权快照
func SetAdminAuthState(ctx context.Context, state *AdminAuthState) error {
	if state == nil || state.AdminID == 0 {
		return nil
	}
	return SetJSON(ctx, adminAuthStateKey(state.AdminID), state, authStateCacheTTL)
}

// GetStylistAuthState 获取发型师鉴权快照
func GetStylistAuthState(ctx context.Context, stylistID uint) (*StylistAuthState, bool, error) {
	if stylistID == 0 {
		return nil, false, nil
	}
	var state StylistAuthState
	hit, err := GetJSON(ctx, stylistAuthStateKey(stylistID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetStylistAuthState 写入发型师鉴权快照
func SetStylistAuthState(ctx context.Context, state *StylistAuthState) error {
	if state == nil || state.StylistID == 0 {
		return nil
	}
	return SetJSON(ctx, stylistAuthStateKey(state.StylistID), state, authStateCacheTTL)
}

// DelStylistAuthState 删除发型师鉴权快照
func DelStylistAuthState(ctx context.Context, stylistID uint) error {
	if stylistID == 0 {
		return nil
	}
	return Del(ctx, stylistAuthStateKey(stylistID))
}
