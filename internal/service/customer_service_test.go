package service

import (
	"context"
	"testing"

	"github.com/salonlink/internal/commerce"
	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/repository"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"  +1 (555) 010-2": "+15550102",
		"555.010.2030":     "5550102030",
		"+":                "",
		"12+34":            "1234",
	}
	for raw, want := range cases {
		if got := NormalizePhone(raw); got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestCustomerCreateScopes(t *testing.T) {
	db := setupServiceTestDB(t, "customer_scope")
	gateway := newFakeGateway()
	svc := NewCustomerService(repository.NewCustomerRepository(db), gateway)

	local, err := svc.Create(context.Background(), CustomerAttributes{Phone: "5550700"}, constants.CustomerScopeLocal)
	if err != nil {
		t.Fatalf("local create failed: %v", err)
	}
	if local.ExternalID != "" || gateway.customers != 0 {
		t.Fatalf("local scope must not reach the platform")
	}

	global, err := svc.Create(context.Background(), CustomerAttributes{Phone: "5550701", Email: "A@B.co"}, constants.CustomerScopeGlobal)
	if err != nil {
		t.Fatalf("global create failed: %v", err)
	}
	if global.ExternalID == "" || gateway.customers != 1 || global.Email != "a@b.co" {
		t.Fatalf("expected platform customer, got %+v", global)
	}

	found, err := svc.FindByEmail("a@b.co")
	if err != nil || found == nil || found.ID != global.ID {
		t.Fatalf("expected find by email, got %+v err=%v", found, err)
	}
}

func TestResolveFromOrderPrefersExternalIDThenPhone(t *testing.T) {
	db := setupServiceTestDB(t, "customer_resolve")
	svc := NewCustomerService(repository.NewCustomerRepository(db), newFakeGateway())

	existing, err := svc.Create(context.Background(), CustomerAttributes{Phone: "5550710"}, constants.CustomerScopeLocal)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	resolved, err := svc.ResolveFromOrder(&commerce.CustomerRef{ExternalID: "cu-77", Phone: "555 0710"})
	if err != nil || resolved == nil || resolved.ID != existing.ID {
		t.Fatalf("expected phone match, got %+v err=%v", resolved, err)
	}
	byExternal, err := svc.ResolveFromOrder(&commerce.CustomerRef{ExternalID: "cu-77"})
	if err != nil || byExternal == nil || byExternal.ID != existing.ID {
		t.Fatalf("expected external id backfilled, got %+v err=%v", byExternal, err)
	}

	created, err := svc.ResolveFromOrder(nil, "", "5550711")
	if err != nil || created == nil || created.Source != constants.CustomerSourceOrder {
		t.Fatalf("expected local customer from order phone, got %+v err=%v", created, err)
	}
	none, err := svc.ResolveFromOrder(nil)
	if err != nil || none != nil {
		t.Fatalf("expected nil customer without identifiers, got %+v err=%v", none, err)
	}
}
