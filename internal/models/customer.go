package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer 终端客户
type Customer struct {
	ID         uint           `gorm:"primarykey" json:"id"`                               // 主键
	Phone      string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"phone"` // 手机号（归一化）
	Email      string         `gorm:"type:varchar(255);index" json:"email"`               // 邮箱
	FirstName  string         `gorm:"type:varchar(120)" json:"first_name"`                // 名
	LastName   string         `gorm:"type:varchar(120)" json:"last_name"`                 // 姓
	ExternalID string         `gorm:"type:varchar(64);index" json:"external_id"`          // 电商平台客户 ID
	Source     string         `gorm:"type:varchar(32);not null;default:''" json:"source"` // 来源（referral/order）
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                            // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                     // 软删除时间
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}
