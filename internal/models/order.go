package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// OrderDiscountLine 订单上应用的优惠码
type OrderDiscountLine struct {
	Code   string `json:"code"`   // 优惠码
	Amount Money  `json:"amount"` // 优惠金额
	Type   string `json:"type"`   // 优惠类型
}

// OrderDiscountLines 订单优惠码列表
type OrderDiscountLines []OrderDiscountLine

// Value 实现 driver.Valuer 接口
func (l OrderDiscountLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口
func (l *OrderDiscountLines) Scan(value interface{}) error {
	if value == nil {
		*l = OrderDiscountLines{}
		return nil
	}
	return scanJSONColumn(value, l)
}

// Codes 返回去重后的优惠码
func (l OrderDiscountLines) Codes() []string {
	seen := make(map[string]struct{}, len(l))
	codes := make([]string, 0, len(l))
	for _, line := range l {
		if line.Code == "" {
			continue
		}
		if _, ok := seen[line.Code]; ok {
			continue
		}
		seen[line.Code] = struct{}{}
		codes = append(codes, line.Code)
	}
	return codes
}

// Order 电商平台订单的本地镜像
type Order struct {
	ID                uint               `gorm:"primarykey" json:"id"`                                          // 主键
	ExternalID        string             `gorm:"type:varchar(64);uniqueIndex;not null" json:"external_id"`      // 平台订单 ID
	OrderNumber       string             `gorm:"type:varchar(64);index" json:"order_number"`                    // 平台订单号
	CustomerID        *uint              `gorm:"index" json:"customer_id,omitempty"`                            // 本地客户ID
	Email             string             `gorm:"type:varchar(255)" json:"email"`                                // 下单邮箱
	Phone             string             `gorm:"type:varchar(32)" json:"phone"`                                 // 下单手机号
	Currency          string             `gorm:"type:varchar(8)" json:"currency"`                               // 币种
	SubtotalAmount    Money              `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal_amount"`  // 商品小计
	DiscountAmount    Money              `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`  // 优惠金额
	TaxAmount         Money              `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`       // 税费
	ShippingAmount    Money              `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_amount"`  // 运费
	TotalAmount       Money              `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`     // 实付金额
	FinancialStatus   string             `gorm:"type:varchar(32);index" json:"financial_status"`                // 财务状态
	FulfillmentStatus string             `gorm:"type:varchar(32)" json:"fulfillment_status"`                    // 履约状态
	DiscountCodes     OrderDiscountLines `gorm:"type:text" json:"discount_codes"`                               // 应用的优惠码
	ProductIDs        StringArray        `gorm:"type:text" json:"product_ids"`                                  // 商品 ID 列表
	SyncStatus        string             `gorm:"type:varchar(20);not null;default:'synced';index" json:"sync_status"` // 同步状态
	CancelledAt       *time.Time         `json:"cancelled_at,omitempty"`                                        // 平台取消时间
	ExternalUpdatedAt *time.Time         `json:"external_updated_at,omitempty"`                                 // 平台更新时间（用于丢弃乱序事件）
	SyncedAt          *time.Time         `json:"synced_at,omitempty"`                                           // 最近同步时间
	CreatedAt         time.Time          `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt         time.Time          `gorm:"index" json:"updated_at"`                                       // 更新时间
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// CommissionBase 佣金计算基数（商品小计减去优惠，不含税费与运费）
func (o *Order) CommissionBase() Money {
	if o == nil {
		return Money{}
	}
	base := o.SubtotalAmount.Decimal.Sub(o.DiscountAmount.Decimal)
	if base.IsNegative() {
		return Money{}
	}
	return NewMoneyFromDecimal(base)
}
