package models

import (
	"time"

	"gorm.io/gorm"
)

// Stylist 发型师/渠道代理（推荐人）
type Stylist struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                            // 主键
	Name               string         `gorm:"type:varchar(120);not null" json:"name"`                          // 姓名
	Phone              string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"phone"`              // 手机号（登录账号）
	Email              string         `gorm:"type:varchar(255);index" json:"email"`                            // 邮箱
	PasswordHash       string         `gorm:"not null" json:"-"`                                               // 密码哈希
	Role               string         `gorm:"type:varchar(32);not null;default:'stylist';index" json:"role"`   // 角色（stylist/agent/salon_owner）
	Level              string         `gorm:"type:varchar(32);not null;default:'bronze';index" json:"level"`   // 等级
	SalonID            *uint          `gorm:"index" json:"salon_id,omitempty"`                                 // 所属沙龙
	CommissionRate     Money          `gorm:"type:decimal(10,2);not null;default:0" json:"commission_rate"`    // 个人默认佣金比例（百分比，仅作快照兜底）
	Status             string         `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`  // 账号状态
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`                                     // Token 版本
	LastLoginAt        *time.Time     `json:"last_login_at"`                                                   // 最后登录时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间

	Salon *Salon `gorm:"foreignKey:SalonID" json:"salon,omitempty"` // 所属沙龙
}

// TableName 指定表名
func (Stylist) TableName() string {
	return "stylists"
}

// Salon 沙龙门店
type Salon struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                           // 主键
	Name      string         `gorm:"type:varchar(160);not null" json:"name"`                         // 门店名称
	OwnerID   *uint          `gorm:"index" json:"owner_id,omitempty"`                                // 店主（发型师账号）
	Level     string         `gorm:"type:varchar(32);not null;default:''" json:"level"`              // 沙龙等级（空表示最低等级）
	City      string         `gorm:"type:varchar(120)" json:"city"`                                  // 所在城市
	Status    string         `gorm:"type:varchar(20);not null;default:'active';index" json:"status"` // 状态
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间
}

// TableName 指定表名
func (Salon) TableName() string {
	return "salons"
}
