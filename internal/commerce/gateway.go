package commerce

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("commerce config invalid")
	ErrRequestFailed    = errors.New("commerce request failed")
	ErrResponseInvalid  = errors.New("commerce response invalid")
	ErrSignatureInvalid = errors.New("commerce webhook signature invalid")
	ErrPayloadInvalid   = errors.New("commerce webhook payload invalid")
)

// 价格规则优惠类型
const (
	ValueTypePercentage  = "percentage"
	ValueTypeFixedAmount = "fixed_amount"
)

// Gateway 电商平台能力抽象（价格规则、优惠码、客户、订单）
type Gateway interface {
	CreatePriceRule(ctx context.Context, input PriceRuleInput) (*PriceRule, error)
	CreateDiscountCode(ctx context.Context, priceRuleID, code string) (*DiscountCode, error)
	DeletePriceRule(ctx context.Context, priceRuleID string) error
	CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error)
	CreateOrder(ctx context.Context, input OrderInput) (*Order, error)
}

// PriceRuleInput 创建价格规则输入
type PriceRuleInput struct {
	Title              string
	ValueType          string
	Value              decimal.Decimal
	CustomerExternalID string
	ProductID          string
	UsageLimit         int
	StartsAt           time.Time
	EndsAt             time.Time
}

// PriceRule 平台价格规则
type PriceRule struct {
	ID    string
	Title string
}

// DiscountCode 平台优惠码
type DiscountCode struct {
	ID          string
	PriceRuleID string
	Code        string
}

// CustomerInput 创建平台客户输入
type CustomerInput struct {
	Phone     string
	Email     string
	FirstName string
	LastName  string
}

// Customer 平台客户
type Customer struct {
	ID    string
	Phone string
	Email string
}

// OrderLineInput 下单商品行
type OrderLineInput struct {
	VariantID string
	Quantity  int
}

// OrderInput 代客下单输入
type OrderInput struct {
	CustomerExternalID string
	Email              string
	DiscountCode       string
	LineItems          []OrderLineInput
	Note               string
}

// Order 平台订单
type Order struct {
	ID          string
	OrderNumber string
}
