package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/salonlink/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单镜像数据访问接口
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	GetByID(id uint) (*models.Order, error)
	GetByExternalID(externalID string) (*models.Order, error)
	Create(order *models.Order) error
	Update(order *models.Order) error
	UpdateSyncStatus(id uint, status string, now time.Time) error
}

// GormOrderRepository GORM 订单仓储
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// GetByID 按ID获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByExternalID 按平台订单 ID 获取订单
func (r *GormOrderRepository) GetByExternalID(externalID string) (*models.Order, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Where("external_id = ?", externalID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// Update 更新订单
func (r *GormOrderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

// UpdateSyncStatus 更新同步状态
func (r *GormOrderRepository) UpdateSyncStatus(id uint, status string, now time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sync_status": strings.TrimSpace(status),
			"synced_at":   now,
			"updated_at":  now,
		}).Error
}
