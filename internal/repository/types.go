package repository

import (
	"errors"
	"time"

	"github.com/salonlink/internal/models"

	"github.com/shopspring/decimal"
)

// ErrOrderIDRequired 核销缺少订单 ID
var ErrOrderIDRequired = errors.New("order id is required")

// ReferralListFilter 查询推荐记录的过滤条件
type ReferralListFilter struct {
	Page        int
	PageSize    int
	ReferrerID  uint
	CustomerID  uint
	SalonID     uint
	Status      string
	Statuses    []string
	Keyword     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CommissionRuleListFilter 查询佣金规则的过滤条件
type CommissionRuleListFilter struct {
	Page     int
	PageSize int
	Type     string
	IsActive *bool
	Keyword  string
}

// ReferralStatusAggregate 按状态聚合的推荐统计
type ReferralStatusAggregate struct {
	Status                string
	Count                 int64
	CommissionAmount      decimal.Decimal
	SalonCommissionAmount decimal.Decimal
}

// RedemptionUpdate 核销时写入的字段
type RedemptionUpdate struct {
	OrderID                  uint
	OrderAmount              models.Money
	CommissionAmount         models.Money
	SuggestedCommission      models.Money
	SuggestedSalonCommission models.Money
	ActualSalonCommission    models.Money
	CommissionRuleID         *uint
	SalonCommissionRuleID    *uint
	SalonID                  *uint
	RedeemedAt               time.Time
}
