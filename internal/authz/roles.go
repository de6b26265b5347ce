package authz

import (
	"sort"
	"strings"
)

// Role 后台内置角色
// 角色集合由代码固定，后台只允许给管理员分配，不允许增删角色或改动策略。
type Role struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Inherits    []string     `json:"inherits,omitempty"`
	Grants      []Permission `json:"grants"`
}

// Permission 角色授予的接口权限
type Permission struct {
	Role   string `json:"role,omitempty"`
	Object string `json:"object"`
	Action string `json:"action"`
}

var builtinRoles = []Role{
	{
		Name:        "readonly_auditor",
		Description: "查看推荐、佣金规则、订单与配置",
		Grants: []Permission{
			{Object: "/admin/*", Action: "GET"},
			{Object: "/admin/commission-rules/preview", Action: "POST"},
		},
	},
	{
		Name:        "operations",
		Description: "维护佣金规则、推荐配置，处理订单重匹配与推荐取消",
		Inherits:    []string{"readonly_auditor"},
		Grants: []Permission{
			{Object: "/admin/commission-rules", Action: "*"},
			{Object: "/admin/commission-rules/:id", Action: "*"},
			{Object: "/admin/settings/referral", Action: "PUT"},
			{Object: "/admin/orders/:id/rematch", Action: "POST"},
			{Object: "/admin/referrals/:id/cancel", Action: "POST"},
		},
	},
	{
		Name:        "finance",
		Description: "核对佣金金额并批量入账",
		Inherits:    []string{"readonly_auditor"},
		Grants: []Permission{
			{Object: "/admin/referrals/:id/commission", Action: "PATCH"},
			{Object: "/admin/referrals/bulk-credit", Action: "POST"},
		},
	},
}

// BuiltinRoles 返回内置角色目录（副本）
func BuiltinRoles() []Role {
	roles := make([]Role, 0, len(builtinRoles))
	for _, role := range builtinRoles {
		copied := role
		copied.Inherits = append([]string(nil), role.Inherits...)
		copied.Grants = append([]Permission(nil), role.Grants...)
		roles = append(roles, copied)
	}
	return roles
}

// LookupRole 按名称查找内置角色，大小写与首尾空白不敏感
func LookupRole(name string) (Role, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, role := range builtinRoles {
		if role.Name == normalized {
			return role, true
		}
	}
	return Role{}, false
}

// expandPermissions 展开角色（含继承）的全部权限，按 对象/动作 去重
func expandPermissions(names []string) []Permission {
	seen := map[string]struct{}{}
	visited := map[string]struct{}{}
	result := make([]Permission, 0)

	var walk func(name string)
	walk = func(name string) {
		if _, ok := visited[name]; ok {
			return
		}
		visited[name] = struct{}{}
		role, ok := LookupRole(name)
		if !ok {
			return
		}
		for _, grant := range role.Grants {
			object := NormalizeObject(grant.Object)
			action := NormalizeAction(grant.Action)
			key := object + "|" + action
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			result = append(result, Permission{Role: role.Name, Object: object, Action: action})
		}
		for _, parent := range role.Inherits {
			walk(parent)
		}
	}
	for _, name := range names {
		walk(name)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Object == result[j].Object {
			return result[i].Action < result[j].Action
		}
		return result[i].Object < result[j].Object
	})
	return result
}
