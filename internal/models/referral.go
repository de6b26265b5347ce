package models

import "time"

// Referral 推荐记录（推荐人、客户、优惠码、订单与佣金的关联）
type Referral struct {
	ID                       uint       `gorm:"primarykey" json:"id"`                                                     // 主键
	ReferrerID               uint       `gorm:"not null;index" json:"referrer_id"`                                        // 推荐人（发型师/代理）
	CustomerID               uint       `gorm:"not null;index" json:"customer_id"`                                        // 客户ID
	DiscountCodeID           uint       `gorm:"not null;uniqueIndex" json:"discount_code_id"`                             // 优惠码ID（一码一单）
	OrderID                  *uint      `gorm:"uniqueIndex" json:"order_id,omitempty"`                                    // 核销订单ID（一单只核销一条推荐）
	CommissionRuleID         *uint      `gorm:"index" json:"commission_rule_id,omitempty"`                                // 命中的发型师佣金规则
	SalonCommissionRuleID    *uint      `gorm:"index" json:"salon_commission_rule_id,omitempty"`                          // 命中的沙龙佣金规则
	SalonID                  *uint      `gorm:"index" json:"salon_id,omitempty"`                                          // 核销时的沙龙快照
	Status                   string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`          // 状态
	OrderAmount              Money      `gorm:"type:decimal(20,2);not null;default:0" json:"order_amount"`                // 订单金额
	CommissionRate           Money      `gorm:"type:decimal(10,2);not null;default:0" json:"commission_rate"`             // 创建时的佣金比例快照
	CommissionAmount         Money      `gorm:"type:decimal(20,2);not null;default:0" json:"commission_amount"`           // 发型师实际佣金（结算口径）
	SuggestedCommission      Money      `gorm:"type:decimal(20,2);not null;default:0" json:"suggested_commission"`        // 发型师建议佣金
	SuggestedSalonCommission Money      `gorm:"type:decimal(20,2);not null;default:0" json:"suggested_salon_commission"`  // 沙龙建议佣金
	ActualSalonCommission    Money      `gorm:"type:decimal(20,2);not null;default:0" json:"actual_salon_commission"`     // 沙龙实际佣金
	RedeemedAt               *time.Time `gorm:"index" json:"redeemed_at,omitempty"`                                       // 核销时间
	PayableAt                *time.Time `gorm:"index" json:"payable_at,omitempty"`                                        // 转可结算时间
	CreditedAt               *time.Time `gorm:"index" json:"credited_at,omitempty"`                                       // 结算时间
	CancelledAt              *time.Time `json:"cancelled_at,omitempty"`                                                   // 取消时间
	CancelReason             string     `gorm:"type:varchar(255)" json:"cancel_reason"`                                   // 取消原因
	StylistPaymentReference  string     `gorm:"type:varchar(128)" json:"stylist_payment_reference"`                       // 发型师打款凭证
	SalonPaymentReference    string     `gorm:"type:varchar(128)" json:"salon_payment_reference"`                         // 沙龙打款凭证
	Note                     string     `gorm:"type:varchar(255)" json:"note"`                                            // 备注
	CreatedAt                time.Time  `gorm:"index" json:"created_at"`                                                  // 创建时间
	UpdatedAt                time.Time  `gorm:"index" json:"updated_at"`                                                  // 更新时间

	Referrer     *Stylist      `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`         // 推荐人
	Customer     *Customer     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`         // 客户
	DiscountCode *DiscountCode `gorm:"foreignKey:DiscountCodeID" json:"discount_code,omitempty"` // 优惠码
	Order        *Order        `gorm:"foreignKey:OrderID" json:"order,omitempty"`               // 核销订单
}

// TableName 指定表名
func (Referral) TableName() string {
	return "referrals"
}
