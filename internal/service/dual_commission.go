package service

import (
	"strings"
	"time"

	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/models"
	"github.com/salonlink/internal/repository"
)

// DualCommission 发型师与沙龙两份独立佣金
type DualCommission struct {
	Stylist CommissionResult `json:"stylist"`
	Salon   CommissionResult `json:"salon"`
	SalonID *uint            `json:"salon_id,omitempty"`
}

// DualCommissionService 组合发型师与沙龙两次规则评估
type DualCommissionService struct {
	ruleRepo    repository.CommissionRuleRepository
	stylistRepo repository.StylistRepository
	nowFunc     func() time.Time
}

// NewDualCommissionService 创建双佣金服务
func NewDualCommissionService(ruleRepo repository.CommissionRuleRepository, stylistRepo repository.StylistRepository) *DualCommissionService {
	return &DualCommissionService{
		ruleRepo:    ruleRepo,
		stylistRepo: stylistRepo,
		nowFunc:     time.Now,
	}
}

// Calculate 计算推荐人的双佣金
// 推荐人没有沙龙时沙龙佣金为零且不评估规则。
func (s *DualCommissionService) Calculate(referrer *models.Stylist, orderAmount models.Money, productIDs []string) (DualCommission, error) {
	if referrer == nil {
		return DualCommission{}, ErrReferrerNotFound
	}
	rules, err := s.ruleRepo.ListActiveOrderedByPriority()
	if err != nil {
		return DualCommission{}, err
	}
	now := s.nowFunc()

	result := DualCommission{
		Stylist: EvaluateCommissionRules(rules, CommissionInput{
			OrderAmount: orderAmount,
			TargetRole:  stylistCommissionRole(referrer),
			TargetLevel: referrer.Level,
			TargetID:    referrer.ID,
			ProductIDs:  productIDs,
		}, now),
	}
	if referrer.SalonID == nil || *referrer.SalonID == 0 {
		return result, nil
	}

	salonID := *referrer.SalonID
	level, err := s.resolveSalonLevel(referrer, salonID)
	if err != nil {
		return DualCommission{}, err
	}
	// TODO: 沙龙评估传入的目标 ID 固定为 0，按沙龙 ID 指定的规则目前无法命中，需要规则模型增加 salon_ids 后再支持
	result.Salon = EvaluateCommissionRules(rules, CommissionInput{
		OrderAmount: orderAmount,
		TargetRole:  constants.CommissionRoleSalonOwner,
		TargetLevel: level,
		TargetID:    0,
		ProductIDs:  productIDs,
	}, now)
	result.SalonID = &salonID
	return result, nil
}

func (s *DualCommissionService) resolveSalonLevel(referrer *models.Stylist, salonID uint) (string, error) {
	salon := referrer.Salon
	if salon == nil || salon.ID != salonID {
		loaded, err := s.stylistRepo.GetSalonByID(salonID)
		if err != nil {
			return "", err
		}
		salon = loaded
	}
	if salon == nil || strings.TrimSpace(salon.Level) == "" {
		return constants.DefaultSalonLevel, nil
	}
	return salon.Level, nil
}

// stylistCommissionRole 渠道代理按自身角色匹配，其余推荐人按发型师匹配
func stylistCommissionRole(referrer *models.Stylist) string {
	if normalizeRuleKey(referrer.Role) == constants.CommissionRoleAgent {
		return constants.CommissionRoleAgent
	}
	return constants.CommissionRoleStylist
}
