package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(Config{
		AccessToken:       "shpat_test",
		APIBaseURL:        server.URL,
		APIVersion:        "2024-07",
		RequestsPerSecond: 100,
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(Config{ShopDomain: "demo.myshopify.com"})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config invalid, got %v", err)
	}
}

func TestCreatePriceRuleSendsNegativeValueAndPrerequisiteCustomer(t *testing.T) {
	var captured map[string]map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/admin/api/2024-07/price_rules.json" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Shopify-Access-Token") != "shpat_test" {
			t.Errorf("missing access token header")
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("decode body failed: %v", err)
		}
		_, _ = w.Write([]byte(`{"price_rule":{"id":507328175,"title":"5551234"}}`))
	})

	rule, err := client.CreatePriceRule(context.Background(), PriceRuleInput{
		Title:              "5551234",
		ValueType:          ValueTypePercentage,
		Value:              decimal.NewFromInt(15),
		CustomerExternalID: "207119551",
		UsageLimit:         1,
		StartsAt:           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:             time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create price rule failed: %v", err)
	}
	if rule.ID != "507328175" {
		t.Fatalf("unexpected price rule id: %s", rule.ID)
	}
	payload := captured["price_rule"]
	if payload["value"] != "-15.00" {
		t.Fatalf("expected negative value, got %v", payload["value"])
	}
	if payload["customer_selection"] != "prerequisite" {
		t.Fatalf("expected prerequisite customer selection, got %v", payload["customer_selection"])
	}
	if payload["ends_at"] != "2026-01-31T00:00:00Z" {
		t.Fatalf("unexpected ends_at: %v", payload["ends_at"])
	}
}

func TestCreateDiscountCodeMapsStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"code":["must be unique"]}}`))
	})

	_, err := client.CreateDiscountCode(context.Background(), "1", "5551234")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected request failed, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected status error 422, got %v", err)
	}
}

func TestDeletePriceRuleIgnoresNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || !strings.HasSuffix(r.URL.Path, "/price_rules/99.json") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
	})
	if err := client.DeletePriceRule(context.Background(), "99"); err != nil {
		t.Fatalf("delete missing price rule should succeed, got %v", err)
	}
}

func TestCreateCustomerDecodesID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"customer":{"id":1073339460,"phone":"+15551234","email":""}}`))
	})
	customer, err := client.CreateCustomer(context.Background(), CustomerInput{Phone: "+15551234"})
	if err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	if customer.ID != "1073339460" {
		t.Fatalf("unexpected customer id: %s", customer.ID)
	}
}

func TestCreateOrderRejectsEmptyLines(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	})
	if _, err := client.CreateOrder(context.Background(), OrderInput{}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config invalid, got %v", err)
	}
}

func TestMetricPathReplacesNumericIDs(t *testing.T) {
	cases := map[string]string{
		"/price_rules.json":                    "/price_rules.json",
		"/price_rules/123.json":                "/price_rules/:id.json",
		"/price_rules/123/discount_codes.json": "/price_rules/:id/discount_codes.json",
	}
	for input, want := range cases {
		if got := metricPath(input); got != want {
			t.Fatalf("metricPath(%q) = %q, want %q", input, got, want)
		}
	}
}
