package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferralRepository 推荐记录数据访问接口
type ReferralRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ReferralRepository

	Create(referral *models.Referral) error
	GetByID(id uint) (*models.Referral, error)
	GetDetailByID(id uint) (*models.Referral, error)
	GetByIDForUpdate(id uint) (*models.Referral, error)
	GetByDiscountCodeID(discountCodeID uint) (*models.Referral, error)
	GetByOrderID(orderID uint) (*models.Referral, error)
	GetLatestPendingByCustomer(customerID uint) (*models.Referral, error)
	MarkRedeemed(id uint, update RedemptionUpdate) (int64, error)
	BulkCredit(ids []uint, stylistRef, salonRef string, now time.Time) (int64, error)
	UpdateFields(id uint, updates map[string]interface{}) (int64, error)
	TransitionStatus(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (int64, error)
	ExpirePendingWithExpiredCodes(now time.Time) (int64, error)
	MarkRedeemedPayable(before, now time.Time) (int64, error)
	List(filter ReferralListFilter) ([]models.Referral, int64, error)
	AggregateByReferrer(referrerID uint) ([]ReferralStatusAggregate, error)
}

// GormReferralRepository GORM 推荐记录仓储
type GormReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository 创建推荐记录仓储
func NewReferralRepository(db *gorm.DB) *GormReferralRepository {
	return &GormReferralRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralRepository) WithTx(tx *gorm.DB) ReferralRepository {
	if tx == nil {
		return r
	}
	return &GormReferralRepository{db: tx}
}

// Transaction 执行事务
func (r *GormReferralRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建推荐记录
func (r *GormReferralRepository) Create(referral *models.Referral) error {
	return r.db.Create(referral).Error
}

// GetByID 按ID获取推荐记录
func (r *GormReferralRepository) GetByID(id uint) (*models.Referral, error) {
	if id == 0 {
		return nil, nil
	}
	return r.first(r.db.Where("id = ?", id))
}

// GetDetailByID 按ID获取推荐记录及关联数据
func (r *GormReferralRepository) GetDetailByID(id uint) (*models.Referral, error) {
	if id == 0 {
		return nil, nil
	}
	query := r.db.
		Preload("Referrer").
		Preload("Customer").
		Preload("DiscountCode").
		Preload("Order").
		Where("id = ?", id)
	return r.first(query)
}

// GetByIDForUpdate 按ID获取推荐记录并加锁
func (r *GormReferralRepository) GetByIDForUpdate(id uint) (*models.Referral, error) {
	if id == 0 {
		return nil, nil
	}
	return r.first(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// GetByDiscountCodeID 按优惠码获取推荐记录（一码一条）
func (r *GormReferralRepository) GetByDiscountCodeID(discountCodeID uint) (*models.Referral, error) {
	if discountCodeID == 0 {
		return nil, nil
	}
	return r.first(r.db.Where("discount_code_id = ?", discountCodeID))
}

// GetByOrderID 按核销订单获取推荐记录
func (r *GormReferralRepository) GetByOrderID(orderID uint) (*models.Referral, error) {
	if orderID == 0 {
		return nil, nil
	}
	return r.first(r.db.Where("order_id = ?", orderID))
}

// GetLatestPendingByCustomer 获取客户最近一条待核销推荐
func (r *GormReferralRepository) GetLatestPendingByCustomer(customerID uint) (*models.Referral, error) {
	if customerID == 0 {
		return nil, nil
	}
	query := r.db.
		Where("customer_id = ? AND status = ?", customerID, constants.ReferralStatusPending).
		Order("created_at desc").
		Order("id desc")
	return r.first(query)
}

// MarkRedeemed 条件更新 pending -> redeemed，返回受影响行数
// 0 表示推荐已被处理或该订单已核销了其他推荐。
func (r *GormReferralRepository) MarkRedeemed(id uint, update RedemptionUpdate) (int64, error) {
	if id == 0 {
		return 0, nil
	}
	if update.OrderID == 0 {
		return 0, ErrOrderIDRequired
	}
	result := r.db.Model(&models.Referral{}).
		Where("id = ? AND status = ?", id, constants.ReferralStatusPending).
		Where("NOT EXISTS (SELECT 1 FROM referrals AS linked WHERE linked.order_id = ? AND linked.id <> ?)", update.OrderID, id).
		Updates(map[string]interface{}{
			"status":                     constants.ReferralStatusRedeemed,
			"order_id":                   update.OrderID,
			"order_amount":               update.OrderAmount,
			"commission_amount":          update.CommissionAmount,
			"suggested_commission":       update.SuggestedCommission,
			"suggested_salon_commission": update.SuggestedSalonCommission,
			"actual_salon_commission":    update.ActualSalonCommission,
			"commission_rule_id":         update.CommissionRuleID,
			"salon_commission_rule_id":   update.SalonCommissionRuleID,
			"salon_id":                   update.SalonID,
			"redeemed_at":                update.RedeemedAt,
			"updated_at":                 update.RedeemedAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// BulkCredit 批量结算，仅 redeemed/payable 状态会被更新
func (r *GormReferralRepository) BulkCredit(ids []uint, stylistRef, salonRef string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	updates := map[string]interface{}{
		"status":      constants.ReferralStatusCredited,
		"credited_at": now,
		"updated_at":  now,
	}
	if ref := strings.TrimSpace(stylistRef); ref != "" {
		updates["stylist_payment_reference"] = ref
	}
	if ref := strings.TrimSpace(salonRef); ref != "" {
		updates["salon_payment_reference"] = ref
	}
	result := r.db.Model(&models.Referral{}).
		Where("id IN ? AND status IN ?", ids, []string{
			constants.ReferralStatusRedeemed,
			constants.ReferralStatusPayable,
		}).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateFields 按字段更新推荐记录
func (r *GormReferralRepository) UpdateFields(id uint, updates map[string]interface{}) (int64, error) {
	if id == 0 || len(updates) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Referral{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// TransitionStatus 在当前状态属于 fromStatuses 时切换到 toStatus
func (r *GormReferralRepository) TransitionStatus(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (int64, error) {
	if id == 0 || len(fromStatuses) == 0 {
		return 0, nil
	}
	values := make(map[string]interface{}, len(updates)+1)
	for key, value := range updates {
		values[key] = value
	}
	values["status"] = toStatus
	result := r.db.Model(&models.Referral{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(values)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ExpirePendingWithExpiredCodes 将优惠码已过期的待核销推荐置为 expired
func (r *GormReferralRepository) ExpirePendingWithExpiredCodes(now time.Time) (int64, error) {
	expiredCodes := r.db.Model(&models.DiscountCode{}).
		Select("id").
		Where("expires_at <= ?", now)
	result := r.db.Model(&models.Referral{}).
		Where("status = ? AND discount_code_id IN (?)", constants.ReferralStatusPending, expiredCodes).
		Updates(map[string]interface{}{
			"status":     constants.ReferralStatusExpired,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkRedeemedPayable 将核销时间早于 before 的推荐转为 payable
func (r *GormReferralRepository) MarkRedeemedPayable(before, now time.Time) (int64, error) {
	result := r.db.Model(&models.Referral{}).
		Where("status = ? AND redeemed_at IS NOT NULL AND redeemed_at <= ?", constants.ReferralStatusRedeemed, before).
		Updates(map[string]interface{}{
			"status":     constants.ReferralStatusPayable,
			"payable_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// List 推荐记录列表
func (r *GormReferralRepository) List(filter ReferralListFilter) ([]models.Referral, int64, error) {
	query := r.db.Model(&models.Referral{}).
		Preload("Referrer").
		Preload("Customer").
		Preload("DiscountCode")
	if filter.ReferrerID != 0 {
		query = query.Where("referrals.referrer_id = ?", filter.ReferrerID)
	}
	if filter.CustomerID != 0 {
		query = query.Where("referrals.customer_id = ?", filter.CustomerID)
	}
	if filter.SalonID != 0 {
		query = query.Where("referrals.salon_id = ?", filter.SalonID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("referrals.status = ?", status)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("referrals.status IN ?", filter.Statuses)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"c.phone", "c.email", "dc.code"})
		query = query.
			Joins("LEFT JOIN customers c ON c.id = referrals.customer_id").
			Joins("LEFT JOIN discount_codes dc ON dc.id = referrals.discount_code_id").
			Where(condition, repeatLikeArgs("%"+keyword+"%", argCount)...)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("referrals.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("referrals.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Referral
	if err := query.Order("referrals.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// AggregateByReferrer 按状态统计推荐人的推荐数量与佣金
func (r *GormReferralRepository) AggregateByReferrer(referrerID uint) ([]ReferralStatusAggregate, error) {
	if referrerID == 0 {
		return []ReferralStatusAggregate{}, nil
	}
	var rows []struct {
		Status                string          `gorm:"column:status"`
		Total                 int64           `gorm:"column:total"`
		CommissionAmount      decimal.Decimal `gorm:"column:commission_amount"`
		SalonCommissionAmount decimal.Decimal `gorm:"column:salon_commission_amount"`
	}
	err := r.db.Model(&models.Referral{}).
		Select("status, COUNT(*) AS total, COALESCE(SUM(commission_amount), 0) AS commission_amount, COALESCE(SUM(actual_salon_commission), 0) AS salon_commission_amount").
		Where("referrer_id = ?", referrerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]ReferralStatusAggregate, 0, len(rows))
	for _, row := range rows {
		result = append(result, ReferralStatusAggregate{
			Status:                row.Status,
			Count:                 row.Total,
			CommissionAmount:      row.CommissionAmount.Round(2),
			SalonCommissionAmount: row.SalonCommissionAmount.Round(2),
		})
	}
	return result, nil
}

func (r *GormReferralRepository) first(query *gorm.DB) (*models.Referral, error) {
	var referral models.Referral
	if err := query.First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}
