package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.SyncBuiltinRoles(); err != nil {
		t.Fatalf("sync builtin roles failed: %v", err)
	}
	return svc, db
}

func TestBuiltinRolesAccessMatrix(t *testing.T) {
	svc, _ := setupAuthzServiceTest(t)
	if _, err := svc.AssignRoles(3, []string{"operations"}); err != nil {
		t.Fatalf("assign operations failed: %v", err)
	}
	if _, err := svc.AssignRoles(4, []string{"finance"}); err != nil {
		t.Fatalf("assign finance failed: %v", err)
	}
	if _, err := svc.AssignRoles(5, []string{"readonly_auditor"}); err != nil {
		t.Fatalf("assign auditor failed: %v", err)
	}

	cases := []struct {
		adminID uint
		object  string
		action  string
		want    bool
	}{
		{3, "/api/v1/admin/settings/referral", "get", true},
		{3, "/api/v1/admin/settings/referral", "PUT", true},
		{3, "/api/v1/admin/commission-rules/42", "DELETE", true},
		{3, "/api/v1/admin/referrals/bulk-credit", "POST", false},
		{4, "/api/v1/admin/referrals/17/commission", "PATCH", true},
		{4, "/api/v1/admin/referrals/bulk-credit", "POST", true},
		{4, "/api/v1/admin/commission-rules/3", "PUT", false},
		{4, "/api/v1/admin/commission-rules/preview", "POST", true},
		{5, "/api/v1/admin/referrals", "GET", true},
		{5, "/api/v1/admin/orders/9/rematch", "POST", false},
		{6, "/api/v1/admin/referrals", "GET", false},
	}
	for _, tc := range cases {
		allow, err := svc.CanAccess(tc.adminID, tc.object, tc.action)
		if err != nil {
			t.Fatalf("can access %d %s %s failed: %v", tc.adminID, tc.action, tc.object, err)
		}
		if allow != tc.want {
			t.Fatalf("admin %d %s %s: want %v got %v", tc.adminID, tc.action, tc.object, tc.want, allow)
		}
	}
}

func TestAssignRolesOverridesPrevious(t *testing.T) {
	svc, _ := setupAuthzServiceTest(t)
	roles, err := svc.AssignRoles(2, []string{" Operations ", "operations"})
	if err != nil {
		t.Fatalf("assign first role failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "operations" {
		t.Fatalf("roles want [operations], got=%v", roles)
	}

	if _, err := svc.AssignRoles(2, []string{"finance"}); err != nil {
		t.Fatalf("assign second role failed: %v", err)
	}
	roles, err = svc.RolesOf(2)
	if err != nil {
		t.Fatalf("roles of failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "finance" {
		t.Fatalf("roles want [finance], got=%v", roles)
	}
	if allow, _ := svc.CanAccess(2, "/admin/commission-rules", "POST"); allow {
		t.Fatalf("expected operations permission removed")
	}
	if allow, _ := svc.CanAccess(2, "/admin/referrals/bulk-credit", "POST"); !allow {
		t.Fatalf("expected finance permission granted")
	}

	roles, err = svc.AssignRoles(2, nil)
	if err != nil || len(roles) != 0 {
		t.Fatalf("expected roles cleared, got %v err=%v", roles, err)
	}
	if allow, _ := svc.CanAccess(2, "/admin/referrals", "GET"); allow {
		t.Fatalf("expected no access after clearing roles")
	}
}

func TestAssignRolesRejectsUnknownRole(t *testing.T) {
	svc, _ := setupAuthzServiceTest(t)
	if _, err := svc.AssignRoles(2, []string{"finance"}); err != nil {
		t.Fatalf("assign finance failed: %v", err)
	}
	if _, err := svc.AssignRoles(2, []string{"finance", "superuser"}); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected unknown role error, got %v", err)
	}
	roles, err := svc.RolesOf(2)
	if err != nil || len(roles) != 1 || roles[0] != "finance" {
		t.Fatalf("rejected assignment must keep previous roles, got %v err=%v", roles, err)
	}
	if _, err := svc.AssignRoles(0, []string{"finance"}); !errors.Is(err, ErrAdminIDRequired) {
		t.Fatalf("expected admin id error, got %v", err)
	}
}

func TestPermissionsOfExpandsInheritance(t *testing.T) {
	svc, _ := setupAuthzServiceTest(t)
	if _, err := svc.AssignRoles(8, []string{"finance", "operations"}); err != nil {
		t.Fatalf("assign roles failed: %v", err)
	}
	permissions, err := svc.PermissionsOf(8)
	if err != nil {
		t.Fatalf("permissions of failed: %v", err)
	}
	want := map[string]bool{
		"GET /admin/*":                          true,
		"POST /admin/commission-rules/preview":  true,
		"PATCH /admin/referrals/:id/commission": true,
		"POST /admin/referrals/bulk-credit":     true,
		"* /admin/commission-rules":             true,
		"* /admin/commission-rules/:id":         true,
		"PUT /admin/settings/referral":          true,
		"POST /admin/orders/:id/rematch":        true,
		"POST /admin/referrals/:id/cancel":      true,
	}
	if len(permissions) != len(want) {
		t.Fatalf("want %d permissions, got %d: %+v", len(want), len(permissions), permissions)
	}
	for _, item := range permissions {
		if !want[item.Action+" "+item.Object] {
			t.Fatalf("unexpected permission %+v", item)
		}
	}
}

func TestSyncBuiltinRolesRemovesStalePolicies(t *testing.T) {
	svc, db := setupAuthzServiceTest(t)
	stale := map[string]interface{}{"ptype": "p", "v0": "role:finance", "v1": "/admin/commission-rules", "v2": "*"}
	if err := db.Table(casbinTableName).Create(stale).Error; err != nil {
		t.Fatalf("insert stale policy failed: %v", err)
	}
	if err := svc.enforcer.LoadPolicy(); err != nil {
		t.Fatalf("reload policy failed: %v", err)
	}
	if _, err := svc.AssignRoles(4, []string{"finance"}); err != nil {
		t.Fatalf("assign finance failed: %v", err)
	}
	if allow, _ := svc.CanAccess(4, "/admin/commission-rules", "POST"); !allow {
		t.Fatalf("stale policy should be active before sync")
	}

	if err := svc.SyncBuiltinRoles(); err != nil {
		t.Fatalf("resync failed: %v", err)
	}
	if allow, _ := svc.CanAccess(4, "/admin/commission-rules", "POST"); allow {
		t.Fatalf("stale policy should be removed by sync")
	}
	if allow, _ := svc.CanAccess(4, "/admin/referrals/bulk-credit", "POST"); !allow {
		t.Fatalf("builtin finance policy must survive sync")
	}
	var count int64
	if err := db.Table(casbinTableName).Where("ptype = ? AND v0 = ?", "p", "role:finance").Count(&count).Error; err != nil {
		t.Fatalf("count policies failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("finance should keep exactly 2 policies, got %d", count)
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/referrals/:id", want: "/admin/referrals/:id"},
		{in: "/admin/referrals/:id", want: "/admin/referrals/:id"},
		{in: "admin/referrals", want: "/admin/referrals"},
		{in: "/api/v1", want: "/"},
		{in: "/api/v10/admin", want: "/api/v10/admin"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestLookupRole(t *testing.T) {
	role, ok := LookupRole("  FINANCE ")
	if !ok || role.Name != "finance" {
		t.Fatalf("expected finance role, got %+v ok=%v", role, ok)
	}
	if _, ok := LookupRole("__anchor__"); ok {
		t.Fatalf("unexpected role lookup hit")
	}
	roles := BuiltinRoles()
	roles[0].Grants[0].Object = "/mutated"
	if BuiltinRoles()[0].Grants[0].Object == "/mutated" {
		t.Fatalf("builtin catalog must not be mutable through BuiltinRoles")
	}
}
