package commerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Webhook 请求头
const (
	HeaderHMAC       = "X-Shopify-Hmac-Sha256"
	HeaderTopic      = "X-Shopify-Topic"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
)

// DiscountApplication 订单应用的优惠码
type DiscountApplication struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
	Type   string          `json:"type"`
}

// CustomerRef 订单关联的客户
type CustomerRef struct {
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// OrderEvent 归一化后的订单事件
type OrderEvent struct {
	Topic             string                `json:"topic"`
	DeliveryID        string                `json:"delivery_id"`
	ExternalID        string                `json:"external_id"`
	OrderNumber       string                `json:"order_number"`
	Email             string                `json:"email"`
	Phone             string                `json:"phone"`
	Currency          string                `json:"currency"`
	Subtotal          decimal.Decimal       `json:"subtotal"`
	DiscountTotal     decimal.Decimal       `json:"discount_total"`
	Tax               decimal.Decimal       `json:"tax"`
	Shipping          decimal.Decimal       `json:"shipping"`
	Total             decimal.Decimal       `json:"total"`
	FinancialStatus   string                `json:"financial_status"`
	FulfillmentStatus string                `json:"fulfillment_status"`
	DiscountCodes     []DiscountApplication `json:"discount_codes"`
	Customer          *CustomerRef          `json:"customer,omitempty"`
	ShippingPhone     string                `json:"shipping_phone"`
	BillingPhone      string                `json:"billing_phone"`
	ProductIDs        []string              `json:"product_ids"`
	CancelledAt       *time.Time            `json:"cancelled_at,omitempty"`
	UpdatedAt         *time.Time            `json:"updated_at,omitempty"`
}

// IsCancelled 订单是否已取消或退款作废
func (e *OrderEvent) IsCancelled() bool {
	if e == nil {
		return false
	}
	if e.CancelledAt != nil {
		return true
	}
	switch strings.ToLower(e.FinancialStatus) {
	case "voided", "refunded":
		return true
	}
	return false
}

// ComputeSignature 计算 webhook 签名（base64(HMAC-SHA256(body))）
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook 校验 webhook 签名
func VerifyWebhook(secret string, body []byte, signature string) error {
	secret = strings.TrimSpace(secret)
	signature = strings.TrimSpace(signature)
	if secret == "" {
		return fmt.Errorf("%w: webhook_secret is empty", ErrConfigInvalid)
	}
	if signature == "" {
		return fmt.Errorf("%w: signature header missing", ErrSignatureInvalid)
	}
	expected := ComputeSignature(secret, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureInvalid
	}
	return nil
}

type rawMoneySet struct {
	ShopMoney struct {
		Amount decimal.Decimal `json:"amount"`
	} `json:"shop_money"`
}

type rawAddress struct {
	Phone string `json:"phone"`
}

type rawOrder struct {
	ID                    json.Number  `json:"id"`
	OrderNumber           json.Number  `json:"order_number"`
	Email                 string       `json:"email"`
	Phone                 string       `json:"phone"`
	Currency              string       `json:"currency"`
	SubtotalPrice         string       `json:"subtotal_price"`
	TotalDiscounts        string       `json:"total_discounts"`
	TotalTax              string       `json:"total_tax"`
	TotalPrice            string       `json:"total_price"`
	TotalShippingPriceSet *rawMoneySet `json:"total_shipping_price_set"`
	FinancialStatus       string       `json:"financial_status"`
	FulfillmentStatus     *string      `json:"fulfillment_status"`
	CancelledAt           *time.Time   `json:"cancelled_at"`
	UpdatedAt             *time.Time   `json:"updated_at"`
	DiscountCodes         []struct {
		Code   string `json:"code"`
		Amount string `json:"amount"`
		Type   string `json:"type"`
	} `json:"discount_codes"`
	Customer *struct {
		ID        json.Number `json:"id"`
		Email     string      `json:"email"`
		Phone     string      `json:"phone"`
		FirstName string      `json:"first_name"`
		LastName  string      `json:"last_name"`
	} `json:"customer"`
	ShippingAddress *rawAddress `json:"shipping_address"`
	BillingAddress  *rawAddress `json:"billing_address"`
	LineItems       []struct {
		ProductID json.Number `json:"product_id"`
	} `json:"line_items"`
}

// ParseOrderEvent 解析订单 webhook 负载
func ParseOrderEvent(topic, deliveryID string, body []byte) (*OrderEvent, error) {
	var raw rawOrder
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
	}
	externalID := strings.TrimSpace(raw.ID.String())
	if externalID == "" {
		return nil, fmt.Errorf("%w: order id missing", ErrPayloadInvalid)
	}

	event := &OrderEvent{
		Topic:           strings.TrimSpace(topic),
		DeliveryID:      strings.TrimSpace(deliveryID),
		ExternalID:      externalID,
		OrderNumber:     raw.OrderNumber.String(),
		Email:           strings.TrimSpace(raw.Email),
		Phone:           strings.TrimSpace(raw.Phone),
		Currency:        strings.ToUpper(strings.TrimSpace(raw.Currency)),
		Subtotal:        parseAmount(raw.SubtotalPrice),
		DiscountTotal:   parseAmount(raw.TotalDiscounts),
		Tax:             parseAmount(raw.TotalTax),
		Total:           parseAmount(raw.TotalPrice),
		FinancialStatus: strings.ToLower(strings.TrimSpace(raw.FinancialStatus)),
		CancelledAt:     raw.CancelledAt,
		UpdatedAt:       raw.UpdatedAt,
	}
	if raw.TotalShippingPriceSet != nil {
		event.Shipping = raw.TotalShippingPriceSet.ShopMoney.Amount
	}
	if raw.FulfillmentStatus != nil {
		event.FulfillmentStatus = strings.ToLower(strings.TrimSpace(*raw.FulfillmentStatus))
	}
	for _, item := range raw.DiscountCodes {
		code := strings.TrimSpace(item.Code)
		if code == "" {
			continue
		}
		event.DiscountCodes = append(event.DiscountCodes, DiscountApplication{
			Code:   code,
			Amount: parseAmount(item.Amount),
			Type:   strings.TrimSpace(item.Type),
		})
	}
	if raw.Customer != nil {
		event.Customer = &CustomerRef{
			ExternalID: raw.Customer.ID.String(),
			Email:      strings.TrimSpace(raw.Customer.Email),
			Phone:      strings.TrimSpace(raw.Customer.Phone),
			FirstName:  strings.TrimSpace(raw.Customer.FirstName),
			LastName:   strings.TrimSpace(raw.Customer.LastName),
		}
	}
	if raw.ShippingAddress != nil {
		event.ShippingPhone = strings.TrimSpace(raw.ShippingAddress.Phone)
	}
	if raw.BillingAddress != nil {
		event.BillingPhone = strings.TrimSpace(raw.BillingAddress.Phone)
	}
	seen := make(map[string]struct{}, len(raw.LineItems))
	for _, item := range raw.LineItems {
		productID := item.ProductID.String()
		if productID == "" {
			continue
		}
		if _, ok := seen[productID]; ok {
			continue
		}
		seen[productID] = struct{}{}
		event.ProductIDs = append(event.ProductIDs, productID)
	}
	return event, nil
}

func parseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d.Round(2)
}
