package repository

import (
	"errors"
	"strings"

	"github.com/salonlink/internal/models"

	"gorm.io/gorm"
)

// CommissionRuleRepository 佣金规则数据访问接口
type CommissionRuleRepository interface {
	ListActiveOrderedByPriority() ([]models.CommissionRule, error)
	GetByID(id uint) (*models.CommissionRule, error)
	Create(rule *models.CommissionRule) error
	Update(rule *models.CommissionRule) error
	Delete(id uint) (int64, error)
	List(filter CommissionRuleListFilter) ([]models.CommissionRule, int64, error)
}

// GormCommissionRuleRepository GORM 佣金规则仓储
type GormCommissionRuleRepository struct {
	db *gorm.DB
}

// NewCommissionRuleRepository 创建佣金规则仓储
func NewCommissionRuleRepository(db *gorm.DB) *GormCommissionRuleRepository {
	return &GormCommissionRuleRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionRuleRepository) WithTx(tx *gorm.DB) *GormCommissionRuleRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRuleRepository{db: tx}
}

// ListActiveOrderedByPriority 启用规则按优先级降序，同优先级按创建顺序
func (r *GormCommissionRuleRepository) ListActiveOrderedByPriority() ([]models.CommissionRule, error) {
	var rules []models.CommissionRule
	if err := r.db.
		Where("is_active = ?", true).
		Order("priority desc").
		Order("id asc").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// GetByID 按ID获取规则
func (r *GormCommissionRuleRepository) GetByID(id uint) (*models.CommissionRule, error) {
	if id == 0 {
		return nil, nil
	}
	var rule models.CommissionRule
	if err := r.db.First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// Create 创建规则
func (r *GormCommissionRuleRepository) Create(rule *models.CommissionRule) error {
	isActive := rule.IsActive
	if err := r.db.Create(rule).Error; err != nil {
		return err
	}
	// is_active 带默认值，false 需要在插入后单独写入
	if !isActive {
		rule.IsActive = false
		return r.db.Model(rule).Update("is_active", false).Error
	}
	return nil
}

// Update 更新规则
func (r *GormCommissionRuleRepository) Update(rule *models.CommissionRule) error {
	return r.db.Save(rule).Error
}

// Delete 删除规则（软删除），返回受影响行数
func (r *GormCommissionRuleRepository) Delete(id uint) (int64, error) {
	if id == 0 {
		return 0, nil
	}
	result := r.db.Delete(&models.CommissionRule{}, id)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// List 规则列表
func (r *GormCommissionRuleRepository) List(filter CommissionRuleListFilter) ([]models.CommissionRule, int64, error) {
	query := r.db.Model(&models.CommissionRule{})
	if ruleType := strings.TrimSpace(filter.Type); ruleType != "" {
		query = query.Where("type = ?", ruleType)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"name", "description"})
		query = query.Where(condition, repeatLikeArgs("%"+keyword+"%", argCount)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rules []models.CommissionRule
	if err := query.Order("priority desc").Order("id asc").Find(&rules).Error; err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}
