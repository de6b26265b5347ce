package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/salonlink/internal/commerce"
	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/logger"
	"github.com/salonlink/internal/models"
	"github.com/salonlink/internal/repository"
)

// CustomerService 客户业务服务
type CustomerService struct {
	repo    repository.CustomerRepository
	gateway commerce.Gateway
}

// NewCustomerService 创建客户服务
func NewCustomerService(repo repository.CustomerRepository, gateway commerce.Gateway) *CustomerService {
	return &CustomerService{repo: repo, gateway: gateway}
}

// CustomerAttributes 创建或匹配客户时使用的属性
type CustomerAttributes struct {
	Phone      string
	Email      string
	FirstName  string
	LastName   string
	ExternalID string
	Source     string
}

// NormalizePhone 归一化手机号：去掉空白与常见分隔符，保留开头的 +
func NormalizePhone(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	normalized := b.String()
	if normalized == "+" {
		return ""
	}
	return normalized
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", nil
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// GetByID 获取客户
func (s *CustomerService) GetByID(id uint) (*models.Customer, error) {
	customer, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

// FindByPhone 按手机号查找客户，不存在返回 nil
func (s *CustomerService) FindByPhone(phone string) (*models.Customer, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return nil, nil
	}
	return s.repo.GetByPhone(normalized)
}

// FindByEmail 按邮箱查找客户，不存在返回 nil
func (s *CustomerService) FindByEmail(email string) (*models.Customer, error) {
	normalized, err := normalizeEmail(email)
	if err != nil || normalized == "" {
		return nil, nil
	}
	return s.repo.GetByEmail(normalized)
}

// Create 创建客户
// scope=global 时先在电商平台建档，平台失败则本地不落库。
func (s *CustomerService) Create(ctx context.Context, attrs CustomerAttributes, scope string) (*models.Customer, error) {
	phone := NormalizePhone(attrs.Phone)
	if phone == "" {
		return nil, ErrCustomerPhoneRequired
	}
	email, err := normalizeEmail(attrs.Email)
	if err != nil {
		return nil, err
	}

	customer := &models.Customer{
		Phone:      phone,
		Email:      email,
		FirstName:  strings.TrimSpace(attrs.FirstName),
		LastName:   strings.TrimSpace(attrs.LastName),
		ExternalID: strings.TrimSpace(attrs.ExternalID),
		Source:     strings.TrimSpace(attrs.Source),
	}
	if customer.Source == "" {
		customer.Source = constants.CustomerSourceReferral
	}

	if scope == constants.CustomerScopeGlobal && customer.ExternalID == "" && s.gateway != nil {
		external, err := s.gateway.CreateCustomer(ctx, commerce.CustomerInput{
			Phone:     customer.Phone,
			Email:     customer.Email,
			FirstName: customer.FirstName,
			LastName:  customer.LastName,
		})
		if err != nil {
			return nil, externalFailure("create customer", err)
		}
		customer.ExternalID = external.ID
	}

	if err := s.repo.Create(customer); err != nil {
		// 并发创建同一手机号时回读已存在的记录
		existing, getErr := s.repo.GetByPhone(phone)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return customer, nil
}

// Resolve 按手机号查找客户，不存在时按 scope 创建
func (s *CustomerService) Resolve(ctx context.Context, attrs CustomerAttributes, scope string) (*models.Customer, error) {
	existing, err := s.FindByPhone(attrs.Phone)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.Create(ctx, attrs, scope)
	}
	if scope == constants.CustomerScopeGlobal && existing.ExternalID == "" && s.gateway != nil {
		external, err := s.gateway.CreateCustomer(ctx, commerce.CustomerInput{
			Phone:     existing.Phone,
			Email:     existing.Email,
			FirstName: existing.FirstName,
			LastName:  existing.LastName,
		})
		if err != nil {
			return nil, externalFailure("create customer", err)
		}
		existing.ExternalID = external.ID
		if err := s.repo.Update(existing); err != nil {
			return nil, err
		}
	}
	return existing, nil
}

// ResolveFromOrder 根据订单上的客户信息匹配本地客户
// 依次按平台客户 ID、手机号、邮箱查找；均未命中且有手机号时本地建档。
func (s *CustomerService) ResolveFromOrder(ref *commerce.CustomerRef, phones ...string) (*models.Customer, error) {
	candidates := make([]string, 0, len(phones)+1)
	var email string
	if ref != nil {
		if externalID := strings.TrimSpace(ref.ExternalID); externalID != "" {
			customer, err := s.repo.GetByExternalID(externalID)
			if err != nil {
				return nil, err
			}
			if customer != nil {
				return customer, nil
			}
		}
		candidates = append(candidates, ref.Phone)
		email = ref.Email
	}
	candidates = append(candidates, phones...)

	for _, phone := range candidates {
		customer, err := s.FindByPhone(phone)
		if err != nil {
			return nil, err
		}
		if customer != nil {
			s.backfillExternalID(customer, ref)
			return customer, nil
		}
	}
	if customer, err := s.FindByEmail(email); err != nil || customer != nil {
		if customer != nil {
			s.backfillExternalID(customer, ref)
		}
		return customer, err
	}

	for _, phone := range candidates {
		if NormalizePhone(phone) == "" {
			continue
		}
		attrs := CustomerAttributes{Phone: phone, Source: constants.CustomerSourceOrder}
		if ref != nil {
			attrs.Email = ref.Email
			attrs.FirstName = ref.FirstName
			attrs.LastName = ref.LastName
			attrs.ExternalID = ref.ExternalID
		}
		if _, err := normalizeEmail(attrs.Email); err != nil {
			attrs.Email = ""
		}
		return s.Create(context.Background(), attrs, constants.CustomerScopeLocal)
	}
	return nil, nil
}

func (s *CustomerService) backfillExternalID(customer *models.Customer, ref *commerce.CustomerRef) {
	if customer == nil || ref == nil || customer.ExternalID != "" {
		return
	}
	externalID := strings.TrimSpace(ref.ExternalID)
	if externalID == "" {
		return
	}
	customer.ExternalID = externalID
	if err := s.repo.Update(customer); err != nil {
		logger.Warnw("customer_backfill_external_id_failed", "customer_id", customer.ID, "error", err)
	}
}
