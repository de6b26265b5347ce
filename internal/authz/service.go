package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	adminSubjectFmt = "admin:%d"
	roleSubjectPfx  = "role:"
)

// 管理员 -> 角色 -> 接口；对象按 keyMatch2 匹配，动作 * 表示任意方法
const adminRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var (
	// ErrUnknownRole 非内置角色
	ErrUnknownRole = errors.New("unknown admin role")
	// ErrAdminIDRequired 管理员 ID 缺失
	ErrAdminIDRequired = errors.New("admin id is required")

	errServiceUnavailable = errors.New("authz service unavailable")
)

// Service 后台 RBAC 授权服务
// 超级管理员在中间件层直接放行，其余管理员按所分配的内置角色判定。
type Service struct {
	enforcer *casbin.SyncedEnforcer
	mu       sync.Mutex
}

// NewService 创建授权服务，策略存放在 casbin_rule 表
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(adminRBACModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return errServiceUnavailable
	}
	return nil
}

// SyncBuiltinRoles 将内置角色目录同步到策略表
// 补齐缺失的策略与继承关系，删除目录里已不存在的旧策略。
func (s *Service) SyncBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, role := range builtinRoles {
		subject := roleSubject(role.Name)

		want := make(map[string][]interface{}, len(role.Grants))
		for _, grant := range role.Grants {
			object := NormalizeObject(grant.Object)
			action := NormalizeAction(grant.Action)
			want[object+"|"+action] = []interface{}{subject, object, action}
		}
		current, err := s.enforcer.GetFilteredPolicy(0, subject)
		if err != nil {
			return fmt.Errorf("load role %s policies failed: %w", role.Name, err)
		}
		for _, rule := range current {
			if len(rule) < 3 {
				continue
			}
			key := rule[1] + "|" + rule[2]
			if _, keep := want[key]; keep {
				delete(want, key)
				continue
			}
			if _, err := s.enforcer.RemovePolicy(rule[0], rule[1], rule[2]); err != nil {
				return fmt.Errorf("remove stale policy of %s failed: %w", role.Name, err)
			}
		}
		for _, params := range want {
			if _, err := s.enforcer.AddPolicy(params...); err != nil {
				return fmt.Errorf("add policy of %s failed: %w", role.Name, err)
			}
		}

		parents := make(map[string]struct{}, len(role.Inherits))
		for _, parent := range role.Inherits {
			parents[roleSubject(parent)] = struct{}{}
		}
		links, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 0, subject)
		if err != nil {
			return fmt.Errorf("load role %s inheritance failed: %w", role.Name, err)
		}
		for _, link := range links {
			if len(link) < 2 {
				continue
			}
			if _, keep := parents[link[1]]; keep {
				delete(parents, link[1])
				continue
			}
			if _, err := s.enforcer.RemoveNamedGroupingPolicy("g", link[0], link[1]); err != nil {
				return fmt.Errorf("remove stale inheritance of %s failed: %w", role.Name, err)
			}
		}
		for parent := range parents {
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, parent); err != nil {
				return fmt.Errorf("link %s to %s failed: %w", role.Name, parent, err)
			}
		}
	}
	return nil
}

// CanAccess 判定管理员是否可以访问接口
func (s *Service) CanAccess(adminID uint, object, action string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if adminID == 0 {
		return false, ErrAdminIDRequired
	}
	return s.enforcer.Enforce(SubjectForAdmin(adminID), NormalizeObject(object), NormalizeAction(action))
}

// AssignRoles 覆盖管理员的角色，返回规范化后的角色名
// 空列表表示收回全部角色。
func (s *Service) AssignRoles(adminID uint, names []string) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if adminID == 0 {
		return nil, ErrAdminIDRequired
	}
	assigned := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		role, ok := LookupRole(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRole, strings.TrimSpace(name))
		}
		if _, dup := seen[role.Name]; dup {
			continue
		}
		seen[role.Name] = struct{}{}
		assigned = append(assigned, role.Name)
	}
	sort.Strings(assigned)

	s.mu.Lock()
	defer s.mu.Unlock()
	subject := SubjectForAdmin(adminID)
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, subject); err != nil {
		return nil, fmt.Errorf("clear admin roles failed: %w", err)
	}
	for _, name := range assigned {
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, roleSubject(name)); err != nil {
			return nil, fmt.Errorf("assign admin role failed: %w", err)
		}
	}
	return assigned, nil
}

// RolesOf 查询管理员直接分配的内置角色
func (s *Service) RolesOf(adminID uint) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if adminID == 0 {
		return nil, ErrAdminIDRequired
	}
	subjects, err := s.enforcer.GetRolesForUser(SubjectForAdmin(adminID))
	if err != nil {
		return nil, fmt.Errorf("get admin roles failed: %w", err)
	}
	roles := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		name := strings.TrimPrefix(subject, roleSubjectPfx)
		if _, ok := LookupRole(name); ok && name != subject {
			roles = append(roles, name)
		}
	}
	sort.Strings(roles)
	return roles, nil
}

// PermissionsOf 查询管理员生效的接口权限（含继承）
func (s *Service) PermissionsOf(adminID uint) ([]Permission, error) {
	roles, err := s.RolesOf(adminID)
	if err != nil {
		return nil, err
	}
	return expandPermissions(roles), nil
}

func roleSubject(name string) string {
	return roleSubjectPfx + name
}

// SubjectForAdmin 生成管理员主体标识
func SubjectForAdmin(adminID uint) string {
	return fmt.Sprintf(adminSubjectFmt, adminID)
}

// NormalizeObject 统一授权资源路径，去掉 /api/v1 前缀
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if normalized == "" {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if normalized == apiV1Prefix {
		return "/"
	}
	if strings.HasPrefix(normalized, apiV1Prefix+"/") {
		return strings.TrimPrefix(normalized, apiV1Prefix)
	}
	return normalized
}

// NormalizeAction 统一授权动作
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
