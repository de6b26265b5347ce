package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/salonlink/internal/metrics"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	defaultAPIVersion        = "2024-07"
	defaultTimeout           = 15 * time.Second
	defaultRequestsPerSecond = 2
)

// Config 平台 Admin API 配置
type Config struct {
	ShopDomain        string
	AccessToken       string
	APIVersion        string
	APIBaseURL        string
	Timeout           time.Duration
	RequestsPerSecond float64
}

func (c *Config) normalize() {
	c.ShopDomain = strings.TrimSpace(c.ShopDomain)
	c.AccessToken = strings.TrimSpace(c.AccessToken)
	c.APIVersion = strings.TrimSpace(c.APIVersion)
	if c.APIVersion == "" {
		c.APIVersion = defaultAPIVersion
	}
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" && c.ShopDomain != "" {
		c.APIBaseURL = "https://" + c.ShopDomain
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = defaultRequestsPerSecond
	}
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if cfg.AccessToken == "" {
		return fmt.Errorf("%w: access_token is required", ErrConfigInvalid)
	}
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("%w: shop_domain is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
		return fmt.Errorf("%w: shop_domain is invalid", ErrConfigInvalid)
	}
	return nil
}

// Client 平台 Admin REST API 客户端
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient 创建客户端
func NewClient(cfg Config) (*Client, error) {
	cfg.normalize()
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	burst := int(cfg.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
	}, nil
}

// CreatePriceRule 创建价格规则
func (c *Client) CreatePriceRule(ctx context.Context, input PriceRuleInput) (*PriceRule, error) {
	valueType := strings.TrimSpace(input.ValueType)
	if valueType != ValueTypePercentage && valueType != ValueTypeFixedAmount {
		return nil, fmt.Errorf("%w: unsupported value_type %q", ErrConfigInvalid, input.ValueType)
	}
	rule := map[string]interface{}{
		"title":             strings.TrimSpace(input.Title),
		"target_type":       "line_item",
		"target_selection":  "all",
		"allocation_method": "across",
		"value_type":        valueType,
		"value":             input.Value.Abs().Neg().StringFixed(2),
		"once_per_customer": true,
		"starts_at":         input.StartsAt.UTC().Format(time.RFC3339),
	}
	if !input.EndsAt.IsZero() {
		rule["ends_at"] = input.EndsAt.UTC().Format(time.RFC3339)
	}
	if input.UsageLimit > 0 {
		rule["usage_limit"] = input.UsageLimit
	}
	if id := strings.TrimSpace(input.CustomerExternalID); id != "" {
		rule["customer_selection"] = "prerequisite"
		rule["prerequisite_customer_ids"] = []json.Number{json.Number(id)}
	} else {
		rule["customer_selection"] = "all"
	}
	if productID := strings.TrimSpace(input.ProductID); productID != "" {
		rule["target_selection"] = "entitled"
		rule["entitled_product_ids"] = []json.Number{json.Number(productID)}
	}

	var resp struct {
		PriceRule struct {
			ID    json.Number `json:"id"`
			Title string      `json:"title"`
		} `json:"price_rule"`
	}
	if err := c.do(ctx, http.MethodPost, "/price_rules.json", map[string]interface{}{"price_rule": rule}, &resp); err != nil {
		return nil, err
	}
	if resp.PriceRule.ID.String() == "" {
		return nil, fmt.Errorf("%w: price_rule.id missing", ErrResponseInvalid)
	}
	return &PriceRule{ID: resp.PriceRule.ID.String(), Title: resp.PriceRule.Title}, nil
}

// CreateDiscountCode 在价格规则下创建优惠码
func (c *Client) CreateDiscountCode(ctx context.Context, priceRuleID, code string) (*DiscountCode, error) {
	priceRuleID = strings.TrimSpace(priceRuleID)
	code = strings.TrimSpace(code)
	if priceRuleID == "" || code == "" {
		return nil, fmt.Errorf("%w: price_rule_id and code are required", ErrConfigInvalid)
	}
	var resp struct {
		DiscountCode struct {
			ID          json.Number `json:"id"`
			PriceRuleID json.Number `json:"price_rule_id"`
			Code        string      `json:"code"`
		} `json:"discount_code"`
	}
	path := "/price_rules/" + url.PathEscape(priceRuleID) + "/discount_codes.json"
	body := map[string]interface{}{"discount_code": map[string]interface{}{"code": code}}
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	if resp.DiscountCode.ID.String() == "" {
		return nil, fmt.Errorf("%w: discount_code.id missing", ErrResponseInvalid)
	}
	return &DiscountCode{
		ID:          resp.DiscountCode.ID.String(),
		PriceRuleID: priceRuleID,
		Code:        resp.DiscountCode.Code,
	}, nil
}

// DeletePriceRule 删除价格规则（已不存在视为成功）
func (c *Client) DeletePriceRule(ctx context.Context, priceRuleID string) error {
	priceRuleID = strings.TrimSpace(priceRuleID)
	if priceRuleID == "" {
		return nil
	}
	err := c.do(ctx, http.MethodDelete, "/price_rules/"+url.PathEscape(priceRuleID)+".json", nil, nil)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

// CreateCustomer 创建平台客户
func (c *Client) CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	customer := map[string]interface{}{
		"phone":      strings.TrimSpace(input.Phone),
		"first_name": strings.TrimSpace(input.FirstName),
		"last_name":  strings.TrimSpace(input.LastName),
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		customer["email"] = email
	}
	var resp struct {
		Customer struct {
			ID    json.Number `json:"id"`
			Phone string      `json:"phone"`
			Email string      `json:"email"`
		} `json:"customer"`
	}
	if err := c.do(ctx, http.MethodPost, "/customers.json", map[string]interface{}{"customer": customer}, &resp); err != nil {
		return nil, err
	}
	if resp.Customer.ID.String() == "" {
		return nil, fmt.Errorf("%w: customer.id missing", ErrResponseInvalid)
	}
	return &Customer{ID: resp.Customer.ID.String(), Phone: resp.Customer.Phone, Email: resp.Customer.Email}, nil
}

// CreateOrder 代客下单
func (c *Client) CreateOrder(ctx context.Context, input OrderInput) (*Order, error) {
	if len(input.LineItems) == 0 {
		return nil, fmt.Errorf("%w: line_items is empty", ErrConfigInvalid)
	}
	lines := make([]map[string]interface{}, 0, len(input.LineItems))
	for _, item := range input.LineItems {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		lines = append(lines, map[string]interface{}{
			"variant_id": json.Number(strings.TrimSpace(item.VariantID)),
			"quantity":   quantity,
		})
	}
	order := map[string]interface{}{
		"line_items": lines,
		"note":       strings.TrimSpace(input.Note),
	}
	if id := strings.TrimSpace(input.CustomerExternalID); id != "" {
		order["customer"] = map[string]interface{}{"id": json.Number(id)}
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		order["email"] = email
	}
	if code := strings.TrimSpace(input.DiscountCode); code != "" {
		order["discount_codes"] = []map[string]interface{}{{"code": code}}
	}
	var resp struct {
		Order struct {
			ID          json.Number `json:"id"`
			OrderNumber json.Number `json:"order_number"`
		} `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders.json", map[string]interface{}{"order": order}, &resp); err != nil {
		return nil, err
	}
	if resp.Order.ID.String() == "" {
		return nil, fmt.Errorf("%w: order.id missing", ErrResponseInvalid)
	}
	return &Order{ID: resp.Order.ID.String(), OrderNumber: resp.Order.OrderNumber.String()}, nil
}

// StatusError 平台返回的非 2xx 响应
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return "commerce request failed: status " + strconv.Itoa(e.StatusCode) + ": " + e.Body
}

// Unwrap 归类为请求失败
func (e *StatusError) Unwrap() error {
	return ErrRequestFailed
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%w: encode payload failed", ErrRequestFailed)
		}
		reader = bytes.NewReader(raw)
	}
	endpoint := c.cfg.APIBaseURL + "/admin/api/" + c.cfg.APIVersion + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("X-Shopify-Access-Token", c.cfg.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveCommerceRequest(method+" "+metricPath(path), "error", time.Since(started).Seconds())
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	metrics.ObserveCommerceRequest(method+" "+metricPath(path), strconv.Itoa(resp.StatusCode), time.Since(started).Seconds())
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return nil
}

// metricPath 将路径中的数字 ID 替换为 :id
func metricPath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		trimmed := strings.TrimSuffix(part, ".json")
		if _, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			parts[i] = ":id"
			if trimmed != part {
				parts[i] += ".json"
			}
		}
	}
	return strings.Join(parts, "/")
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
