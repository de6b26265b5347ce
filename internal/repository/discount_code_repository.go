package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/models"

	"gorm.io/gorm"
)

// DiscountCodeRepository 优惠码数据访问接口
type DiscountCodeRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) DiscountCodeRepository
	Create(code *models.DiscountCode) error
	GetByID(id uint) (*models.DiscountCode, error)
	GetByCode(code string) (*models.DiscountCode, error)
	ListByCodes(codes []string) ([]models.DiscountCode, error)
	RecordUsage(id uint, now time.Time) error
	UpdateStatus(id uint, status string, now time.Time) error
	ExpireDue(now time.Time) (int64, error)
}

// GormDiscountCodeRepository GORM 优惠码仓储
type GormDiscountCodeRepository struct {
	db *gorm.DB
}

// NewDiscountCodeRepository 创建优惠码仓储
func NewDiscountCodeRepository(db *gorm.DB) *GormDiscountCodeRepository {
	return &GormDiscountCodeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountCodeRepository) WithTx(tx *gorm.DB) DiscountCodeRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountCodeRepository{db: tx}
}

// Transaction 执行事务
func (r *GormDiscountCodeRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建优惠码
func (r *GormDiscountCodeRepository) Create(code *models.DiscountCode) error {
	return r.db.Create(code).Error
}

// GetByID 按ID获取优惠码
func (r *GormDiscountCodeRepository) GetByID(id uint) (*models.DiscountCode, error) {
	if id == 0 {
		return nil, nil
	}
	var row models.DiscountCode
	if err := r.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetByCode 按优惠码获取（包含已软删除的记录，保证全局唯一）
func (r *GormDiscountCodeRepository) GetByCode(code string) (*models.DiscountCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var row models.DiscountCode
	if err := r.db.Unscoped().Where("code = ?", code).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByCodes 批量按优惠码查询
func (r *GormDiscountCodeRepository) ListByCodes(codes []string) ([]models.DiscountCode, error) {
	if len(codes) == 0 {
		return []models.DiscountCode{}, nil
	}
	var rows []models.DiscountCode
	if err := r.db.Where("code IN ?", codes).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// RecordUsage 使用次数 +1，达到上限时标记为 used
func (r *GormDiscountCodeRepository) RecordUsage(id uint, now time.Time) error {
	if id == 0 {
		return nil
	}
	if err := r.db.Model(&models.DiscountCode{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count + ?", 1),
			"updated_at":  now,
		}).Error; err != nil {
		return err
	}
	return r.db.Model(&models.DiscountCode{}).
		Where("id = ? AND usage_limit > 0 AND usage_count >= usage_limit AND status = ?", id, constants.DiscountStatusActive).
		Updates(map[string]interface{}{
			"status":     constants.DiscountStatusUsed,
			"updated_at": now,
		}).Error
}

// UpdateStatus 更新优惠码状态
func (r *GormDiscountCodeRepository) UpdateStatus(id uint, status string, now time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.DiscountCode{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     strings.TrimSpace(status),
			"updated_at": now,
		}).Error
}

// ExpireDue 将过期的有效优惠码置为 expired
func (r *GormDiscountCodeRepository) ExpireDue(now time.Time) (int64, error) {
	result := r.db.Model(&models.DiscountCode{}).
		Where("status = ? AND expires_at <= ?", constants.DiscountStatusActive, now).
		Updates(map[string]interface{}{
			"status":     constants.DiscountStatusExpired,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
