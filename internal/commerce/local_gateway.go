package commerce

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// LocalGateway 未接入平台时使用的本地网关，生成本地 ID 并记录价格规则
type LocalGateway struct {
	mu         sync.Mutex
	priceRules map[string]PriceRuleInput
}

// NewLocalGateway 创建本地网关
func NewLocalGateway() *LocalGateway {
	return &LocalGateway{priceRules: make(map[string]PriceRuleInput)}
}

// CreatePriceRule 记录价格规则
func (g *LocalGateway) CreatePriceRule(_ context.Context, input PriceRuleInput) (*PriceRule, error) {
	id := "local-pr-" + uuid.NewString()
	g.mu.Lock()
	g.priceRules[id] = input
	g.mu.Unlock()
	return &PriceRule{ID: id, Title: input.Title}, nil
}

// CreateDiscountCode 生成本地优惠码
func (g *LocalGateway) CreateDiscountCode(_ context.Context, priceRuleID, code string) (*DiscountCode, error) {
	return &DiscountCode{
		ID:          "local-dc-" + uuid.NewString(),
		PriceRuleID: strings.TrimSpace(priceRuleID),
		Code:        strings.TrimSpace(code),
	}, nil
}

// DeletePriceRule 删除本地价格规则
func (g *LocalGateway) DeletePriceRule(_ context.Context, priceRuleID string) error {
	g.mu.Lock()
	delete(g.priceRules, strings.TrimSpace(priceRuleID))
	g.mu.Unlock()
	return nil
}

// CreateCustomer 生成本地客户 ID
func (g *LocalGateway) CreateCustomer(_ context.Context, input CustomerInput) (*Customer, error) {
	return &Customer{ID: "local-cu-" + uuid.NewString(), Phone: input.Phone, Email: input.Email}, nil
}

// CreateOrder 生成本地订单 ID
func (g *LocalGateway) CreateOrder(_ context.Context, _ OrderInput) (*Order, error) {
	id := uuid.NewString()
	return &Order{ID: "local-or-" + id, OrderNumber: id[:8]}, nil
}

// PriceRuleCount 当前记录的价格规则数量
func (g *LocalGateway) PriceRuleCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.priceRules)
}
