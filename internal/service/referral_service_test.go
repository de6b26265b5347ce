package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/salonlink/internal/commerce"
	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/models"
	"github.com/salonlink/internal/repository"

	"gorm.io/gorm"
)

type fakeGateway struct {
	mu               sync.Mutex
	seq              int
	priceRules       map[string]commerce.PriceRuleInput
	codes            map[string]string
	deletedRules     []string
	customers        int
	failPriceRule    error
	failDiscountCode error
	failCustomer     error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		priceRules: make(map[string]commerce.PriceRuleInput),
		codes:      make(map[string]string),
	}
}

func (g *fakeGateway) nextID(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s-%d", prefix, g.seq)
}

func (g *fakeGateway) CreatePriceRule(_ context.Context, input commerce.PriceRuleInput) (*commerce.PriceRule, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failPriceRule != nil {
		return nil, g.failPriceRule
	}
	id := g.nextID("pr")
	g.priceRules[id] = input
	return &commerce.PriceRule{ID: id, Title: input.Title}, nil
}

func (g *fakeGateway) CreateDiscountCode(_ context.Context, priceRuleID, code string) (*commerce.DiscountCode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failDiscountCode != nil {
		return nil, g.failDiscountCode
	}
	id := g.nextID("dc")
	g.codes[code] = priceRuleID
	return &commerce.DiscountCode{ID: id, PriceRuleID: priceRuleID, Code: code}, nil
}

func (g *fakeGateway) DeletePriceRule(_ context.Context, priceRuleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.priceRules, priceRuleID)
	g.deletedRules = append(g.deletedRules, priceRuleID)
	return nil
}

func (g *fakeGateway) CreateCustomer(_ context.Context, input commerce.CustomerInput) (*commerce.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failCustomer != nil {
		return nil, g.failCustomer
	}
	g.customers++
	return &commerce.Customer{ID: g.nextID("cu"), Phone: input.Phone, Email: input.Email}, nil
}

func (g *fakeGateway) CreateOrder(_ context.Context, _ commerce.OrderInput) (*commerce.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID("or")
	return &commerce.Order{ID: id, OrderNumber: id}, nil
}

func (g *fakeGateway) priceRuleCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.priceRules)
}

type referralTestEnv struct {
	db              *gorm.DB
	gateway         *fakeGateway
	settingService  *SettingService
	customerService *CustomerService
	discountService *DiscountService
	dualService     *DualCommissionService
	referralService *ReferralService
	orderSync       *OrderSyncService
}

func newReferralTestEnv(t *testing.T, name string) *referralTestEnv {
	t.Helper()
	db := setupServiceTestDB(t, name)
	gateway := newFakeGateway()

	referralRepo := repository.NewReferralRepository(db)
	discountRepo := repository.NewDiscountCodeRepository(db)
	stylistRepo := repository.NewStylistRepository(db)
	ruleRepo := repository.NewCommissionRuleRepository(db)

	settingService := NewSettingService(repository.NewSettingRepository(db))
	customerService := NewCustomerService(repository.NewCustomerRepository(db), gateway)
	discountService := NewDiscountService(discountRepo, customerService, settingService, gateway)
	dualService := NewDualCommissionService(ruleRepo, stylistRepo)
	referralService := NewReferralService(referralRepo, discountRepo, stylistRepo, discountService, dualService, settingService)
	orderSync := NewOrderSyncService(repository.NewOrderRepository(db), customerService, referralService, settingService)

	return &referralTestEnv{
		db:              db,
		gateway:         gateway,
		settingService:  settingService,
		customerService: customerService,
		discountService: discountService,
		dualService:     dualService,
		referralService: referralService,
		orderSync:       orderSync,
	}
}

func (e *referralTestEnv) createStylist(t *testing.T, phone string, salon *models.Salon) *models.Stylist {
	t.Helper()
	stylist := &models.Stylist{
		Name:         "stylist " + phone,
		Phone:        phone,
		PasswordHash: "x",
		Role:         constants.CommissionRoleStylist,
		Level:        constants.LevelBronze,
		Status:       constants.AccountStatusActive,
	}
	if salon != nil {
		stylist.SalonID = &salon.ID
	}
	if err := e.db.Create(stylist).Error; err != nil {
		t.Fatalf("create stylist failed: %v", err)
	}
	return stylist
}

func (e *referralTestEnv) createSalon(t *testing.T, level string) *models.Salon {
	t.Helper()
	salon := &models.Salon{Name: "salon", Level: level, Status: constants.AccountStatusActive}
	if err := e.db.Create(salon).Error; err != nil {
		t.Fatalf("create salon failed: %v", err)
	}
	return salon
}

func (e *referralTestEnv) createReferral(t *testing.T, referrer *models.Stylist, phone string) *models.Referral {
	t.Helper()
	referral, err := e.referralService.Create(context.Background(), referrer.ID, CreateReferralInput{CustomerPhone: phone})
	if err != nil {
		t.Fatalf("create referral failed: %v", err)
	}
	return referral
}

func (e *referralTestEnv) createOrder(t *testing.T, externalID string, subtotal string) *models.Order {
	t.Helper()
	order := &models.Order{
		ExternalID:     externalID,
		SubtotalAmount: models.MustMoney(subtotal),
		TotalAmount:    models.MustMoney(subtotal),
	}
	if err := e.db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func (e *referralTestEnv) reloadReferral(t *testing.T, id uint) *models.Referral {
	t.Helper()
	var referral models.Referral
	if err := e.db.First(&referral, id).Error; err != nil {
		t.Fatalf("reload referral failed: %v", err)
	}
	return &referral
}

func (e *referralTestEnv) reloadCode(t *testing.T, id uint) *models.DiscountCode {
	t.Helper()
	var code models.DiscountCode
	if err := e.db.First(&code, id).Error; err != nil {
		t.Fatalf("reload discount code failed: %v", err)
	}
	return &code
}

func TestCreateReferralIssuesCodeAndSnapshotsRate(t *testing.T) {
	env := newReferralTestEnv(t, "referral_create")
	referrer := env.createStylist(t, "5550100", nil)
	if err := env.db.Model(referrer).Update("commission_rate", models.MustMoney("12.5")).Error; err != nil {
		t.Fatalf("update commission rate failed: %v", err)
	}

	referral, err := env.referralService.Create(context.Background(), referrer.ID, CreateReferralInput{
		CustomerPhone: "(555) 123-4567",
		CustomerEmail: "Client@Example.com",
	})
	if err != nil {
		t.Fatalf("create referral failed: %v", err)
	}
	if referral.Status != constants.ReferralStatusPending {
		t.Fatalf("expected pending referral, got %s", referral.Status)
	}
	if referral.CommissionRate.String() != "12.50" {
		t.Fatalf("expected snapshot rate 12.50, got %s", referral.CommissionRate)
	}
	if referral.DiscountCode == nil || referral.DiscountCode.Code != "5551234567" {
		t.Fatalf("expected code equal to normalized phone, got %+v", referral.DiscountCode)
	}
	if referral.Customer == nil || referral.Customer.ExternalID == "" || referral.Customer.Email != "client@example.com" {
		t.Fatalf("expected customer created on platform, got %+v", referral.Customer)
	}
	if env.gateway.priceRuleCount() != 1 {
		t.Fatalf("expected one price rule, got %d", env.gateway.priceRuleCount())
	}
}

func TestCreateReferralRejectsDisabledReferrer(t *testing.T) {
	env := newReferralTestEnv(t, "referral_disabled")
	referrer := env.createStylist(t, "5550101", nil)
	if err := env.db.Model(referrer).Update("status", constants.AccountStatusDisabled).Error; err != nil {
		t.Fatalf("disable referrer failed: %v", err)
	}
	_, err := env.referralService.Create(context.Background(), referrer.ID, CreateReferralInput{CustomerPhone: "5550001"})
	if !errors.Is(err, ErrReferrerDisabled) {
		t.Fatalf("expected ErrReferrerDisabled, got %v", err)
	}
	if _, err := env.referralService.Create(context.Background(), 9999, CreateReferralInput{CustomerPhone: "5550001"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for unknown referrer, got %v", err)
	}
}

func TestCreateReferralConflictKeepsSingleReferral(t *testing.T) {
	env := newReferralTestEnv(t, "referral_conflict")
	referrer := env.createStylist(t, "5550102", nil)
	env.createReferral(t, referrer, "5550002")

	_, err := env.referralService.Create(context.Background(), referrer.ID, CreateReferralInput{CustomerPhone: "555-0002"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	var count int64
	env.db.Model(&models.Referral{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected one referral, got %d", count)
	}
	if env.gateway.priceRuleCount() != 1 {
		t.Fatalf("expected no extra price rule, got %d", env.gateway.priceRuleCount())
	}
}

// 1000 的订单：发型师 10% 得 100，沙龙 5% 得 50
func TestRedeemDualCommissionForSalonStylist(t *testing.T) {
	env := newReferralTestEnv(t, "referral_dual")
	createTestCommissionRule(t, env.db, models.CommissionRule{
		Name:           "stylist",
		Type:           constants.CommissionRuleTypePercentage,
		Value:          models.MustMoney("10"),
		RoleApplicable: models.StringArray{constants.CommissionRoleStylist},
	})
	createTestCommissionRule(t, env.db, models.CommissionRule{
		Name:           "salon",
		Type:           constants.CommissionRuleTypePercentage,
		Value:          models.MustMoney("5"),
		RoleApplicable: models.StringArray{constants.CommissionRoleSalonOwner},
		AllowedLevels:  models.StringArray{constants.LevelSilver},
	})
	salon := env.createSalon(t, constants.LevelSilver)
	referrer := env.createStylist(t, "5550103", salon)
	referral := env.createReferral(t, referrer, "5550003")
	order := env.createOrder(t, "ext-dual", "1000")

	result, err := env.referralService.MatchByDiscountCode(context.Background(), "5550003", RedemptionOrder{
		OrderID: order.ID,
		Amount:  models.MustMoney("1000"),
	})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if !result.Matched() {
		t.Fatalf("expected matched, got %s", result.Outcome)
	}
	if result.Commission.Stylist.Amount.String() != "100.00" || result.Commission.Salon.Amount.String() != "50.00" {
		t.Fatalf("expected 100/50, got %s/%s", result.Commission.Stylist.Amount, result.Commission.Salon.Amount)
	}

	stored := env.reloadReferral(t, referral.ID)
	if stored.Status != constants.ReferralStatusRedeemed || stored.OrderID == nil || *stored.OrderID != order.ID {
		t.Fatalf("unexpected stored referral: %+v", stored)
	}
	if stored.CommissionAmount.String() != "100.00" || stored.SuggestedSalonCommission.String() != "50.00" || stored.ActualSalonCommission.String() != "50.00" {
		t.Fatalf("unexpected stored amounts: %+v", stored)
	}
	if stored.SalonID == nil || *stored.SalonID != salon.ID || stored.RedeemedAt == nil {
		t.Fatalf("expected salon snapshot and redeemed_at, got %+v", stored)
	}
}

func TestRedeemWithoutSalonHasZeroSalonCommission(t *testing.T) {
	env := newReferralTestEnv(t, "referral_no_salon")
	createTestCommissionRule(t, env.db, models.CommissionRule{
		Type:  constants.CommissionRuleTypePercentage,
		Value: models.MustMoney("10"),
	})
	referrer := env.createStylist(t, "5550104", nil)
	env.createReferral(t, referrer, "5550004")
	order := env.createOrder(t, "ext-no-salon", "300")

	result, err := env.referralService.MatchByDiscountCode(context.Background(), "5550004", RedemptionOrder{OrderID: order.ID, Amount: models.MustMoney("300")})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if result.Commission.SalonID != nil || result.Commission.Salon.Matched() || !result.Commission.Salon.Amount.IsZero() {
		t.Fatalf("expected no salon commission, got %+v", result.Commission.Salon)
	}
	if result.Commission.Stylist.Amount.String() != "30.00" {
		t.Fatalf("expected stylist 30.00, got %s", result.Commission.Stylist.Amount)
	}
}

func TestRedeemFallsBackToSnapshotRate(t *testing.T) {
	env := newReferralTestEnv(t, "referral_snapshot")
	referrer := env.createStylist(t, "5550105", nil)
	if err := env.db.Model(referrer).Update("commission_rate", models.MustMoney("8")).Error; err != nil {
		t.Fatalf("update commission rate failed: %v", err)
	}
	env.createReferral(t, referrer, "5550005")
	order := env.createOrder(t, "ext-snapshot", "250")

	result, err := env.referralService.MatchByDiscountCode(context.Background(), "5550005", RedemptionOrder{OrderID: order.ID, Amount: models.MustMoney("250")})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if result.Referral.CommissionAmount.String() != "20.00" {
		t.Fatalf("expected snapshot commission 20.00, got %s", result.Referral.CommissionAmount)
	}
	if result.Referral.CommissionRuleID != nil {
		t.Fatalf("expected no rule id, got %v", *result.Referral.CommissionRuleID)
	}
}

func TestMatchByDiscountCodeIsIdempotent(t *testing.T) {
	env := newReferralTestEnv(t, "referral_idempotent")
	referrer := env.createStylist(t, "5550106", nil)
	referral := env.createReferral(t, referrer, "5550006")
	order := env.createOrder(t, "ext-idem", "100")
	redemptionOrder := RedemptionOrder{OrderID: order.ID, Amount: models.MustMoney("100")}

	first, err := env.referralService.MatchByDiscountCode(context.Background(), "5550006", redemptionOrder)
	if err != nil || !first.Matched() {
		t.Fatalf("expected first match, got %+v err=%v", first, err)
	}
	second, err := env.referralService.MatchByDiscountCode(context.Background(), "5550006", redemptionOrder)
	if err != nil {
		t.Fatalf("second match failed: %v", err)
	}
	if second.Outcome != constants.RedemptionOutcomeAlreadyMatched {
		t.Fatalf("expected already_matched, got %s", second.Outcome)
	}

	code := env.reloadCode(t, referral.DiscountCodeID)
	if code.UsageCount != 1 || code.Status != constants.DiscountStatusUsed {
		t.Fatalf("expected usage 1 and used status, got count=%d status=%s", code.UsageCount, code.Status)
	}
}

func TestMatchByDiscountCodeConcurrentDeliveries(t *testing.T) {
	env := newReferralTestEnv(t, "referral_concurrent")
	referrer := env.createStylist(t, "5550107", nil)
	referral := env.createReferral(t, referrer, "5550007")
	order := env.createOrder(t, "ext-concurrent", "100")
	redemptionOrder := RedemptionOrder{OrderID: order.ID, Amount: models.MustMoney("100")}

	var wg sync.WaitGroup
	var mu sync.Mutex
	matched := 0
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := env.referralService.MatchByDiscountCode(context.Background(), "5550007", redemptionOrder)
			if err != nil {
				return
			}
			if result.Matched() {
				mu.Lock()
				matched++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if matched > 1 {
		t.Fatalf("expected at most one matched outcome, got %d", matched)
	}
	code := env.reloadCode(t, referral.DiscountCodeID)
	if code.UsageCount > 1 {
		t.Fatalf("expected usage count <= 1, got %d", code.UsageCount)
	}
}

func TestMatchByDiscountCodeUnknownCode(t *testing.T) {
	env := newReferralTestEnv(t, "referral_unknown")
	result, err := env.referralService.MatchByDiscountCode(context.Background(), "SUMMER10", RedemptionOrder{OrderID: 1, Amount: models.MustMoney("10")})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if result.Outcome != constants.RedemptionOutcomeNoMatch {
		t.Fatalf("expected no_match, got %s", result.Outcome)
	}
}

func TestMatchByCustomerPicksLatestPending(t *testing.T) {
	env := newReferralTestEnv(t, "referral_customer")
	first := env.createStylist(t, "5550108", nil)
	second := env.createStylist(t, "5550109", nil)

	older := env.createReferral(t, first, "5550008")
	customerID := older.CustomerID
	if err := env.db.Model(&models.Referral{}).Where("id = ?", older.ID).Update("created_at", time.Now().Add(-48*time.Hour)).Error; err != nil {
		t.Fatalf("age referral failed: %v", err)
	}

	code := &models.DiscountCode{
		Code:       "5550008-B",
		CustomerID: customerID,
		Type:       constants.DiscountTypePercentage,
		Value:      models.MustMoney("10"),
		StartsAt:   time.Now(),
		ExpiresAt:  time.Now().Add(24 * time.Hour),
		UsageLimit: 1,
		Status:     constants.DiscountStatusActive,
	}
	if err := env.db.Create(code).Error; err != nil {
		t.Fatalf("create code failed: %v", err)
	}
	newer := &models.Referral{ReferrerID: second.ID, CustomerID: customerID, DiscountCodeID: code.ID, Status: constants.ReferralStatusPending}
	if err := env.db.Create(newer).Error; err != nil {
		t.Fatalf("create referral failed: %v", err)
	}

	order := env.createOrder(t, "ext-customer", "100")
	result, err := env.referralService.MatchByCustomer(context.Background(), customerID, RedemptionOrder{OrderID: order.ID, Amount: models.MustMoney("100")})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if !result.Matched() || result.Referral.ID != newer.ID {
		t.Fatalf("expected newest referral %d, got %+v", newer.ID, result.Referral)
	}
	if env.reloadReferral(t, older.ID).Status != constants.ReferralStatusPending {
		t.Fatalf("older referral should stay pending")
	}
}

func TestMatchByCustomerTwiceForSameOrderRedeemsOnce(t *testing.T) {
	env := newReferralTestEnv(t, "referral_customer_twice")
	first := env.createStylist(t, "5550120", nil)
	second := env.createStylist(t, "5550121", nil)

	older := env.createReferral(t, first, "5550020")
	customerID := older.CustomerID
	code := &models.DiscountCode{
		Code:       "5550020-B",
		CustomerID: customerID,
		Type:       constants.DiscountTypePercentage,
		Value:      models.MustMoney("10"),
		StartsAt:   time.Now(),
		ExpiresAt:  time.Now().Add(24 * time.Hour),
		UsageLimit: 1,
		Status:     constants.DiscountStatusActive,
	}
	if err := env.db.Create(code).Error; err != nil {
		t.Fatalf("create code failed: %v", err)
	}
	newer := &models.Referral{ReferrerID: second.ID, CustomerID: customerID, DiscountCodeID: code.ID, Status: constants.ReferralStatusPending}
	if err := env.db.Create(newer).Error; err != nil {
		t.Fatalf("create referral failed: %v", err)
	}

	order := env.createOrder(t, "ext-customer-twice", "100")
	redemptionOrder := RedemptionOrder{OrderID: order.ID, Amount: models.MustMoney("100")}
	firstResult, err := env.referralService.MatchByCustomer(context.Background(), customerID, redemptionOrder)
	if err != nil || !firstResult.Matched() {
		t.Fatalf("first match failed: %+v err=%v", firstResult, err)
	}
	secondResult, err := env.referralService.MatchByCustomer(context.Background(), customerID, redemptionOrder)
	if err != nil {
		t.Fatalf("second match failed: %v", err)
	}
	if secondResult.Outcome != constants.RedemptionOutcomeAlreadyMatched || secondResult.Referral.ID != firstResult.Referral.ID {
		t.Fatalf("expected already_matched on the first referral, got %+v", secondResult)
	}

	var linked int64
	env.db.Model(&models.Referral{}).Where("order_id = ?", order.ID).Count(&linked)
	if linked != 1 {
		t.Fatalf("order must redeem a single referral, got %d", linked)
	}
	if env.reloadReferral(t, older.ID).Status != constants.ReferralStatusPending {
		t.Fatalf("older referral should stay pending")
	}
}

func TestMatchByDiscountCodeAfterCustomerMatchKeepsOrderSingle(t *testing.T) {
	env := newReferralTestEnv(t, "referral_code_after_customer")
	first := env.createStylist(t, "5550122", nil)
	second := env.createStylist(t, "5550123", nil)
	byCustomer := env.createReferral(t, first, "5550022")
	byCode := env.createReferral(t, second, "5550023")

	order := env.createOrder(t, "ext-code-after-customer", "100")
	redemptionOrder := RedemptionOrder{OrderID: order.ID, Amount: models.MustMoney("100")}
	if result, err := env.referralService.MatchByCustomer(context.Background(), byCustomer.CustomerID, redemptionOrder); err != nil || !result.Matched() {
		t.Fatalf("customer match failed: %+v err=%v", result, err)
	}
	result, err := env.referralService.MatchByDiscountCode(context.Background(), "5550023", redemptionOrder)
	if err != nil {
		t.Fatalf("code match failed: %v", err)
	}
	if result.Outcome != constants.RedemptionOutcomeAlreadyMatched || result.Referral.ID != byCustomer.ID {
		t.Fatalf("expected already_matched on the customer referral, got %+v", result)
	}
	stored := env.reloadReferral(t, byCode.ID)
	if stored.Status != constants.ReferralStatusPending || env.reloadCode(t, stored.DiscountCodeID).UsageCount != 0 {
		t.Fatalf("code referral must stay pending and unused, got %+v", stored)
	}
}

func TestMatchRequiresStoredOrder(t *testing.T) {
	env := newReferralTestEnv(t, "referral_no_order")
	referrer := env.createStylist(t, "5550124", nil)
	referral := env.createReferral(t, referrer, "5550024")

	if _, err := env.referralService.MatchByDiscountCode(context.Background(), "5550024", RedemptionOrder{Amount: models.MustMoney("10")}); !errors.Is(err, ErrRedemptionOrder) {
		t.Fatalf("expected redemption order error, got %v", err)
	}
	if _, err := env.referralService.MatchByCustomer(context.Background(), referral.CustomerID, RedemptionOrder{Amount: models.MustMoney("10")}); !errors.Is(err, ErrRedemptionOrder) {
		t.Fatalf("expected redemption order error, got %v", err)
	}
	if env.reloadReferral(t, referral.ID).Status != constants.ReferralStatusPending {
		t.Fatalf("referral must stay pending")
	}
}

func TestDashboardAggregatesByStatus(t *testing.T) {
	env := newReferralTestEnv(t, "referral_dashboard")
	createTestCommissionRule(t, env.db, models.CommissionRule{
		Type:  constants.CommissionRuleTypePercentage,
		Value: models.MustMoney("10"),
	})
	referrer := env.createStylist(t, "5550110", nil)
	env.createReferral(t, referrer, "5550010")
	env.createReferral(t, referrer, "5550011")
	order := env.createOrder(t, "ext-dashboard", "500")
	if _, err := env.referralService.MatchByDiscountCode(context.Background(), "5550010", RedemptionOrder{OrderID: order.ID, Amount: models.MustMoney("500")}); err != nil {
		t.Fatalf("match failed: %v", err)
	}

	dashboard, err := env.referralService.Dashboard(referrer.ID)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if dashboard.TotalReferrals != 2 || dashboard.StatusCounts[constants.ReferralStatusPending] != 1 || dashboard.StatusCounts[constants.ReferralStatusRedeemed] != 1 {
		t.Fatalf("unexpected counts: %+v", dashboard)
	}
	if dashboard.UnpaidCommission.String() != "50.00" || dashboard.ConversionRate != 50 {
		t.Fatalf("unexpected totals: unpaid=%s rate=%v", dashboard.UnpaidCommission, dashboard.ConversionRate)
	}
}

func TestListReferralsRejectsUnknownStatus(t *testing.T) {
	env := newReferralTestEnv(t, "referral_list")
	if _, _, err := env.referralService.ListReferrals(repository.ReferralListFilter{Status: "paid"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
