package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// CommissionTier 阶梯佣金区间
type CommissionTier struct {
	MinAmount Money  `json:"min_amount"`           // 区间下限（含）
	MaxAmount *Money `json:"max_amount,omitempty"` // 区间上限（含，空表示无上限）
	Rate      Money  `json:"rate"`                 // 佣金比例（百分比）
}

// Contains 判断金额是否落在区间内
func (t CommissionTier) Contains(amount Money) bool {
	if amount.Decimal.LessThan(t.MinAmount.Decimal) {
		return false
	}
	if t.MaxAmount != nil && amount.Decimal.GreaterThan(t.MaxAmount.Decimal) {
		return false
	}
	return true
}

// CommissionTiers 阶梯列表（按声明顺序匹配）
type CommissionTiers []CommissionTier

// Value 实现 driver.Valuer 接口
func (t CommissionTiers) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口
func (t *CommissionTiers) Scan(value interface{}) error {
	if value == nil {
		*t = CommissionTiers{}
		return nil
	}
	return scanJSONColumn(value, t)
}

// CommissionRule 佣金规则
type CommissionRule struct {
	ID             uint            `gorm:"primarykey" json:"id"`                                          // 主键
	Name           string          `gorm:"type:varchar(120);not null" json:"name"`                        // 规则名称
	Type           string          `gorm:"type:varchar(20);not null" json:"type"`                         // 计算方式（percentage/fixed/tiered）
	Value          Money           `gorm:"type:decimal(20,2);not null;default:0" json:"value"`            // 比例或固定金额
	Tiers          CommissionTiers `gorm:"type:text" json:"tiers"`                                        // 阶梯配置
	RoleApplicable StringArray     `gorm:"type:text" json:"role_applicable"`                              // 适用角色（空表示不限）
	AllowedLevels  StringArray     `gorm:"type:text" json:"allowed_levels"`                               // 适用等级（空表示不限）
	ProductIDs     StringArray     `gorm:"type:text" json:"product_ids"`                                  // 适用商品（空表示不限）
	StylistIDs     UintArray       `gorm:"type:text" json:"stylist_ids"`                                  // 指定发型师（空表示不限）
	MinOrderAmount Money           `gorm:"type:decimal(20,2);not null;default:0" json:"min_order_amount"` // 最低订单金额
	MaxCommission  *Money          `gorm:"type:decimal(20,2)" json:"max_commission"`                      // 佣金封顶（空表示不封顶）
	Priority       int             `gorm:"not null;default:0;index" json:"priority"`                      // 优先级（越大越先匹配）
	IsActive       bool            `gorm:"not null;default:true;index" json:"is_active"`                  // 是否启用
	ValidFrom      *time.Time      `gorm:"index" json:"valid_from"`                                       // 生效时间
	ValidUntil     *time.Time      `gorm:"index" json:"valid_until"`                                      // 失效时间
	Description    string          `gorm:"type:text" json:"description"`                                  // 说明
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt      time.Time       `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`                                                // 软删除时间
}

// TableName 指定表名
func (CommissionRule) TableName() string {
	return "commission_rules"
}
