package models

import (
	"time"

	"gorm.io/gorm"
)

// DiscountCode 推荐优惠码（与电商平台价格规则一一对应）
type DiscountCode struct {
	ID                  uint           `gorm:"primarykey" json:"id"`                                            // 主键
	Code                string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`               // 优惠码（默认等于客户手机号）
	CustomerID          uint           `gorm:"not null;index" json:"customer_id"`                               // 客户ID
	Type                string         `gorm:"type:varchar(20);not null" json:"type"`                           // 类型（percentage/fixed_amount）
	Value               Money          `gorm:"type:decimal(20,2);not null" json:"value"`                        // 优惠数值
	StartsAt            time.Time      `gorm:"not null" json:"starts_at"`                                       // 生效时间
	ExpiresAt           time.Time      `gorm:"not null;index" json:"expires_at"`                                // 失效时间
	UsageLimit          int            `gorm:"not null;default:1" json:"usage_limit"`                           // 使用上限（0 表示不限制）
	UsageCount          int            `gorm:"not null;default:0" json:"usage_count"`                           // 已使用次数
	Status              string         `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`  // 状态
	ProductID           string         `gorm:"type:varchar(64)" json:"product_id"`                              // 限定商品（可选）
	Note                string         `gorm:"type:varchar(255)" json:"note"`                                   // 备注
	CreatedBy           uint           `gorm:"not null;default:0;index" json:"created_by"`                      // 发放人（发型师ID）
	ExternalPriceRuleID string         `gorm:"type:varchar(64);index" json:"external_price_rule_id"`            // 平台价格规则 ID
	ExternalCodeID      string         `gorm:"type:varchar(64)" json:"external_code_id"`                        // 平台优惠码 ID
	SharedPriceRule     bool           `gorm:"not null;default:false" json:"shared_price_rule"`                 // 是否复用共享价格规则
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt           time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"` // 客户
}

// TableName 指定表名
func (DiscountCode) TableName() string {
	return "discount_codes"
}
