package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/salonlink/internal/models"

	"gorm.io/gorm"
)

// StylistRepository 发型师与沙龙数据访问接口
type StylistRepository interface {
	GetByID(id uint) (*models.Stylist, error)
	GetByPhone(phone string) (*models.Stylist, error)
	Create(stylist *models.Stylist) error
	Update(stylist *models.Stylist) error
	UpdateLoginAt(id uint, at time.Time) error

	GetSalonByID(id uint) (*models.Salon, error)
	CreateSalon(salon *models.Salon) error
}

// GormStylistRepository GORM 发型师仓储
type GormStylistRepository struct {
	db *gorm.DB
}

// NewStylistRepository 创建发型师仓储
func NewStylistRepository(db *gorm.DB) *GormStylistRepository {
	return &GormStylistRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStylistRepository) WithTx(tx *gorm.DB) *GormStylistRepository {
	if tx == nil {
		return r
	}
	return &GormStylistRepository{db: tx}
}

// GetByID 按ID获取发型师
func (r *GormStylistRepository) GetByID(id uint) (*models.Stylist, error) {
	if id == 0 {
		return nil, nil
	}
	var stylist models.Stylist
	if err := r.db.Preload("Salon").First(&stylist, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stylist, nil
}

// GetByPhone 按手机号获取发型师
func (r *GormStylistRepository) GetByPhone(phone string) (*models.Stylist, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, nil
	}
	var stylist models.Stylist
	if err := r.db.Where("phone = ?", phone).First(&stylist).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stylist, nil
}

// Create 创建发型师
func (r *GormStylistRepository) Create(stylist *models.Stylist) error {
	return r.db.Create(stylist).Error
}

// Update 更新发型师
func (r *GormStylistRepository) Update(stylist *models.Stylist) error {
	return r.db.Omit("Salon").Save(stylist).Error
}

// UpdateLoginAt 记录最后登录时间
func (r *GormStylistRepository) UpdateLoginAt(id uint, at time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Stylist{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}

// GetSalonByID 按ID获取沙龙
func (r *GormStylistRepository) GetSalonByID(id uint) (*models.Salon, error) {
	if id == 0 {
		return nil, nil
	}
	var salon models.Salon
	if err := r.db.First(&salon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &salon, nil
}

// CreateSalon 创建沙龙
func (r *GormStylistRepository) CreateSalon(salon *models.Salon) error {
	return r.db.Create(salon).Error
}
