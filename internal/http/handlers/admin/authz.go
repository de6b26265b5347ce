package admin

import (
	"errors"

	"github.com/salonlink/internal/authz"
	handlershared "github.com/salonlink/internal/http/handlers/shared"
	"github.com/salonlink/internal/http/response"

	"github.com/gin-gonic/gin"
)

type authzAssignRolesPayload struct {
	Roles []string `json:"roles"`
}

// GetAuthzMe 获取当前管理员的角色与生效权限
func (h *Handler) GetAuthzMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	permissions, err := h.AuthzService.PermissionsOf(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.admin_fetch_failed", err)
		return
	}
	roles, err := h.AuthzService.RolesOf(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.admin_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"admin_id":    adminID,
		"is_super":    currentIsSuper(c),
		"roles":       roles,
		"permissions": permissions,
	})
}

// ListAuthzRoles 内置角色目录
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	response.Success(c, authz.BuiltinRoles())
}

// ListAuthzAdmins 获取管理员及其角色
func (h *Handler) ListAuthzAdmins(c *gin.Context) {
	admins, err := h.AdminRepo.List()
	if err != nil {
		respondError(c, response.CodeInternal, "error.admin_fetch_failed", err)
		return
	}
	items := make([]gin.H, 0, len(admins))
	for _, admin := range admins {
		roles, roleErr := h.AuthzService.RolesOf(admin.ID)
		if roleErr != nil {
			respondError(c, response.CodeInternal, "error.admin_fetch_failed", roleErr)
			return
		}
		items = append(items, gin.H{
			"id":            admin.ID,
			"username":      admin.Username,
			"is_super":      admin.IsSuper,
			"last_login_at": admin.LastLoginAt,
			"roles":         roles,
		})
	}
	response.Success(c, items)
}

// AssignAuthzAdminRoles 覆盖设置管理员角色
func (h *Handler) AssignAuthzAdminRoles(c *gin.Context) {
	targetID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req authzAssignRolesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	target, err := h.AdminRepo.GetByID(targetID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.admin_fetch_failed", err)
		return
	}
	if target == nil {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}
	roles, err := h.AuthzService.AssignRoles(targetID, req.Roles)
	if err != nil {
		if errors.Is(err, authz.ErrUnknownRole) {
			respondError(c, response.CodeBadRequest, "error.role_invalid", err)
			return
		}
		respondError(c, response.CodeInternal, "error.authz_update_failed", err)
		return
	}
	requestLog(c).Infow("admin_authz_roles_assigned",
		"operator_admin_id", c.GetUint("admin_id"),
		"target_admin_id", targetID,
		"roles", roles,
	)
	response.Success(c, gin.H{"admin_id": targetID, "roles": roles})
}
