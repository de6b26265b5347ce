package constants

// 推荐记录状态常量
const (
	ReferralStatusPending   = "pending"
	ReferralStatusRedeemed  = "redeemed"
	ReferralStatusPayable   = "payable"
	ReferralStatusCredited  = "credited"
	ReferralStatusExpired   = "expired"
	ReferralStatusCancelled = "cancelled"
)

// 优惠码状态常量
const (
	DiscountStatusActive   = "active"
	DiscountStatusExpired  = "expired"
	DiscountStatusUsed     = "used"
	DiscountStatusDisabled = "disabled"
)

// 优惠码类型常量
const (
	DiscountTypePercentage  = "percentage"
	DiscountTypeFixedAmount = "fixed_amount"
)

// 佣金规则类型常量
const (
	CommissionRuleTypePercentage = "percentage"
	CommissionRuleTypeFixed      = "fixed"
	CommissionRuleTypeTiered     = "tiered"
)

// 佣金角色常量
const (
	CommissionRoleStylist    = "stylist"
	CommissionRoleAgent      = "agent"
	CommissionRoleSalonOwner = "salon_owner"
)

// 等级常量（由低到高）
const (
	LevelBronze   = "bronze"
	LevelSilver   = "silver"
	LevelGold     = "gold"
	LevelPlatinum = "platinum"
)

// LevelOrder 等级从低到高排列
var LevelOrder = []string{LevelBronze, LevelSilver, LevelGold, LevelPlatinum}

// DefaultSalonLevel 沙龙未设置等级时使用最低等级
const DefaultSalonLevel = LevelBronze

// 发型师与沙龙账号状态常量
const (
	AccountStatusActive   = "active"
	AccountStatusDisabled = "disabled"
)

// 客户创建范围常量
const (
	CustomerScopeLocal  = "local"
	CustomerScopeGlobal = "global"
)

// 客户来源常量
const (
	CustomerSourceReferral = "referral"
	CustomerSourceOrder    = "order"
)

// 订单同步状态常量
const (
	OrderSyncStatusSynced      = "synced"
	OrderSyncStatusMatched     = "matched"
	OrderSyncStatusUnmatched   = "unmatched"
	OrderSyncStatusMatchFailed = "match_failed"
	OrderSyncStatusCancelled   = "cancelled"
)

// 外部订单财务状态常量
const (
	OrderFinancialStatusPending           = "pending"
	OrderFinancialStatusAuthorized        = "authorized"
	OrderFinancialStatusPaid              = "paid"
	OrderFinancialStatusPartiallyPaid     = "partially_paid"
	OrderFinancialStatusPartiallyRefunded = "partially_refunded"
	OrderFinancialStatusRefunded          = "refunded"
	OrderFinancialStatusVoided            = "voided"
)

// 订单 webhook 主题常量
const (
	WebhookTopicOrderCreated   = "orders/create"
	WebhookTopicOrderUpdated   = "orders/updated"
	WebhookTopicOrderPaid      = "orders/paid"
	WebhookTopicOrderCancelled = "orders/cancelled"
)

// 匹配结果常量
const (
	RedemptionOutcomeMatched        = "matched"
	RedemptionOutcomeNoMatch        = "no_match"
	RedemptionOutcomeAlreadyMatched = "already_matched"
)

// 队列与任务常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
	TaskOrderSync = "order:sync"
)

// 设置键常量
const (
	SettingKeyReferralConfig = "referral_config"
)
