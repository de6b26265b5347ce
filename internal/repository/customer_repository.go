package repository

import (
	"errors"
	"strings"

	"github.com/salonlink/internal/models"

	"gorm.io/gorm"
)

// CustomerRepository 客户数据访问接口
type CustomerRepository interface {
	WithTx(tx *gorm.DB) CustomerRepository
	GetByID(id uint) (*models.Customer, error)
	GetByPhone(phone string) (*models.Customer, error)
	GetByEmail(email string) (*models.Customer, error)
	GetByExternalID(externalID string) (*models.Customer, error)
	Create(customer *models.Customer) error
	Update(customer *models.Customer) error
}

// GormCustomerRepository GORM 客户仓储
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建客户仓储
func NewCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCustomerRepository) WithTx(tx *gorm.DB) CustomerRepository {
	if tx == nil {
		return r
	}
	return &GormCustomerRepository{db: tx}
}

// GetByID 按ID获取客户
func (r *GormCustomerRepository) GetByID(id uint) (*models.Customer, error) {
	if id == 0 {
		return nil, nil
	}
	return r.first(r.db.Where("id = ?", id))
}

// GetByPhone 按手机号获取客户
func (r *GormCustomerRepository) GetByPhone(phone string) (*models.Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, nil
	}
	return r.first(r.db.Where("phone = ?", phone))
}

// GetByEmail 按邮箱获取客户（不区分大小写）
func (r *GormCustomerRepository) GetByEmail(email string) (*models.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	return r.first(r.db.Where("LOWER(email) = ?", email).Order("id asc"))
}

// GetByExternalID 按平台客户 ID 获取客户
func (r *GormCustomerRepository) GetByExternalID(externalID string) (*models.Customer, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}
	return r.first(r.db.Where("external_id = ?", externalID))
}

// Create 创建客户
func (r *GormCustomerRepository) Create(customer *models.Customer) error {
	return r.db.Create(customer).Error
}

// Update 更新客户
func (r *GormCustomerRepository) Update(customer *models.Customer) error {
	return r.db.Save(customer).Error
}

func (r *GormCustomerRepository) first(query *gorm.DB) (*models.Customer, error) {
	var customer models.Customer
	if err := query.First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}
