package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/models"

	"github.com/shopspring/decimal"
)

func (e *referralTestEnv) redeemedReferral(t *testing.T, referrer *models.Stylist, phone, externalOrderID string) *models.Referral {
	t.Helper()
	referral := e.createReferral(t, referrer, phone)
	order := e.createOrder(t, externalOrderID, "200")
	result, err := e.referralService.MatchByDiscountCode(context.Background(), phone, RedemptionOrder{OrderID: order.ID, Amount: models.MustMoney("200")})
	if err != nil || !result.Matched() {
		t.Fatalf("redeem failed: %+v err=%v", result, err)
	}
	return e.reloadReferral(t, referral.ID)
}

func (e *referralTestEnv) setReferralStatus(t *testing.T, id uint, status string) {
	t.Helper()
	if err := e.db.Model(&models.Referral{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		t.Fatalf("set referral status failed: %v", err)
	}
}

// pending/redeemed/payable/credited 四条各一，只有 redeemed 与 payable 会被结算
func TestBulkCreditOnlyCreditsRedeemedAndPayable(t *testing.T) {
	env := newReferralTestEnv(t, "admin_bulk_credit")
	referrer := env.createStylist(t, "5550400", nil)

	pending := env.createReferral(t, referrer, "5550401")
	redeemed := env.redeemedReferral(t, referrer, "5550402", "ext-bulk-1")
	payable := env.redeemedReferral(t, referrer, "5550403", "ext-bulk-2")
	env.setReferralStatus(t, payable.ID, constants.ReferralStatusPayable)
	credited := env.redeemedReferral(t, referrer, "5550404", "ext-bulk-3")
	env.setReferralStatus(t, credited.ID, constants.ReferralStatusCredited)

	result, err := env.referralService.BulkCredit(context.Background(), BulkCreditInput{
		IDs:              []uint{pending.ID, redeemed.ID, payable.ID, credited.ID, redeemed.ID},
		StylistReference: "PAY-001",
	})
	if err != nil {
		t.Fatalf("bulk credit failed: %v", err)
	}
	if result.Requested != 4 || result.Credited != 2 || result.Skipped != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if env.reloadReferral(t, pending.ID).Status != constants.ReferralStatusPending {
		t.Fatalf("pending referral must stay pending")
	}
	for _, id := range []uint{redeemed.ID, payable.ID} {
		stored := env.reloadReferral(t, id)
		if stored.Status != constants.ReferralStatusCredited || stored.CreditedAt == nil || stored.StylistPaymentReference != "PAY-001" {
			t.Fatalf("expected referral %d credited, got %+v", id, stored)
		}
	}

	if _, err := env.referralService.BulkCredit(context.Background(), BulkCreditInput{}); !errors.Is(err, ErrReferralIDsRequired) {
		t.Fatalf("expected ids required, got %v", err)
	}
}

func TestUpdateCommissionOverridesAmountsWithoutRecalculation(t *testing.T) {
	env := newReferralTestEnv(t, "admin_update_amount")
	referrer := env.createStylist(t, "5550410", nil)
	referral := env.redeemedReferral(t, referrer, "5550411", "ext-update-1")

	amount := decimal.RequireFromString("33.30")
	salonAmount := decimal.RequireFromString("12")
	note := " adjusted "
	updated, err := env.referralService.UpdateCommission(context.Background(), referral.ID, UpdateCommissionInput{
		CommissionAmount:      &amount,
		ActualSalonCommission: &salonAmount,
		Status:                constants.ReferralStatusPayable,
		Note:                  &note,
	})
	if err != nil {
		t.Fatalf("update commission failed: %v", err)
	}
	if updated.Status != constants.ReferralStatusPayable || updated.PayableAt == nil {
		t.Fatalf("expected payable, got %+v", updated)
	}
	if updated.CommissionAmount.String() != "33.30" || updated.ActualSalonCommission.String() != "12.00" || updated.Note != "adjusted" {
		t.Fatalf("unexpected amounts: %+v", updated)
	}
	if updated.SuggestedCommission.Equal(updated.CommissionAmount.Decimal) {
		t.Fatalf("suggested commission must keep the calculated value")
	}
}

func TestUpdateCommissionNeverMovesBackward(t *testing.T) {
	env := newReferralTestEnv(t, "admin_update_backward")
	referrer := env.createStylist(t, "5550420", nil)
	referral := env.redeemedReferral(t, referrer, "5550421", "ext-back-1")
	env.setReferralStatus(t, referral.ID, constants.ReferralStatusCredited)

	_, err := env.referralService.UpdateCommission(context.Background(), referral.ID, UpdateCommissionInput{Status: constants.ReferralStatusRedeemed})
	if !errors.Is(err, ErrReferralTransitionInvalid) {
		t.Fatalf("expected transition error, got %v", err)
	}
	amount := decimal.NewFromInt(1)
	salonAmount := decimal.NewFromInt(2)
	updated, err := env.referralService.UpdateCommission(context.Background(), referral.ID, UpdateCommissionInput{
		CommissionAmount:      &amount,
		ActualSalonCommission: &salonAmount,
	})
	if err != nil {
		t.Fatalf("credited amount override failed: %v", err)
	}
	if updated.Status != constants.ReferralStatusCredited || updated.CommissionAmount.String() != "1.00" || updated.ActualSalonCommission.String() != "2.00" {
		t.Fatalf("expected credited referral with overridden amounts, got %+v", updated)
	}

	negative := decimal.NewFromInt(-1)
	if _, err := env.referralService.UpdateCommission(context.Background(), referral.ID, UpdateCommissionInput{CommissionAmount: &negative}); !errors.Is(err, ErrCommissionAmountInvalid) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := env.referralService.UpdateCommission(context.Background(), referral.ID, UpdateCommissionInput{Status: "paid"}); !errors.Is(err, ErrReferralStatusUnknown) {
		t.Fatalf("expected unknown status, got %v", err)
	}
	missing := "missing"
	if _, err := env.referralService.UpdateCommission(context.Background(), 9999, UpdateCommissionInput{Note: &missing}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCancelReferral(t *testing.T) {
	env := newReferralTestEnv(t, "admin_cancel")
	referrer := env.createStylist(t, "5550430", nil)
	pending := env.createReferral(t, referrer, "5550431")

	cancelled, err := env.referralService.Cancel(context.Background(), pending.ID, "customer opted out")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.ReferralStatusCancelled || cancelled.CancelledAt == nil || cancelled.CancelReason != "customer opted out" {
		t.Fatalf("unexpected cancelled referral: %+v", cancelled)
	}
	if _, err := env.referralService.Cancel(context.Background(), pending.ID, "again"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on terminal referral, got %v", err)
	}
}

func TestCancelByOrderOnlyAffectsUnsettled(t *testing.T) {
	env := newReferralTestEnv(t, "admin_cancel_order")
	referrer := env.createStylist(t, "5550440", nil)
	redeemed := env.redeemedReferral(t, referrer, "5550441", "ext-cancel-1")

	ok, err := env.referralService.CancelByOrder(*redeemed.OrderID, "refunded")
	if err != nil || !ok {
		t.Fatalf("expected cancel by order, ok=%v err=%v", ok, err)
	}
	if env.reloadReferral(t, redeemed.ID).Status != constants.ReferralStatusCancelled {
		t.Fatalf("expected cancelled")
	}

	credited := env.redeemedReferral(t, referrer, "5550442", "ext-cancel-2")
	env.setReferralStatus(t, credited.ID, constants.ReferralStatusCredited)
	ok, err = env.referralService.CancelByOrder(*credited.OrderID, "refunded")
	if err != nil || ok {
		t.Fatalf("credited referral must not be cancelled, ok=%v err=%v", ok, err)
	}
	if ok, err := env.referralService.CancelByOrder(9999, "none"); err != nil || ok {
		t.Fatalf("expected no-op for unknown order, ok=%v err=%v", ok, err)
	}
}

func TestExpireDueAndPromotePayable(t *testing.T) {
	env := newReferralTestEnv(t, "admin_lifecycle")
	referrer := env.createStylist(t, "5550450", nil)
	stale := env.createReferral(t, referrer, "5550451")
	fresh := env.createReferral(t, referrer, "5550452")
	if err := env.db.Model(&models.DiscountCode{}).Where("id = ?", stale.DiscountCodeID).Update("expires_at", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("expire code failed: %v", err)
	}

	expired, err := env.referralService.ExpireDue(context.Background())
	if err != nil || expired != 1 {
		t.Fatalf("expected one expired referral, got %d err=%v", expired, err)
	}
	if env.reloadReferral(t, stale.ID).Status != constants.ReferralStatusExpired {
		t.Fatalf("expected stale referral expired")
	}
	if env.reloadCode(t, stale.DiscountCodeID).Status != constants.DiscountStatusExpired {
		t.Fatalf("expected code expired")
	}
	if env.reloadReferral(t, fresh.ID).Status != constants.ReferralStatusPending {
		t.Fatalf("fresh referral must stay pending")
	}

	old := env.redeemedReferral(t, referrer, "5550453", "ext-life-1")
	recent := env.redeemedReferral(t, referrer, "5550454", "ext-life-2")
	if err := env.db.Model(&models.Referral{}).Where("id = ?", old.ID).Update("redeemed_at", time.Now().AddDate(0, 0, -20)).Error; err != nil {
		t.Fatalf("age redemption failed: %v", err)
	}

	promoted, err := env.referralService.PromotePayable(context.Background())
	if err != nil || promoted != 1 {
		t.Fatalf("expected one promoted referral, got %d err=%v", promoted, err)
	}
	if env.reloadReferral(t, old.ID).Status != constants.ReferralStatusPayable {
		t.Fatalf("expected old redemption payable")
	}
	if env.reloadReferral(t, recent.ID).Status != constants.ReferralStatusRedeemed {
		t.Fatalf("recent redemption must stay redeemed")
	}
}

func TestReferralTransitions(t *testing.T) {
	allowed := [][2]string{
		{constants.ReferralStatusPending, constants.ReferralStatusRedeemed},
		{constants.ReferralStatusRedeemed, constants.ReferralStatusPayable},
		{constants.ReferralStatusPayable, constants.ReferralStatusCredited},
		{constants.ReferralStatusRedeemed, constants.ReferralStatusCredited},
		{constants.ReferralStatusPending, constants.ReferralStatusExpired},
		{constants.ReferralStatusPending, constants.ReferralStatusCancelled},
	}
	for _, pair := range allowed {
		if !CanTransitionReferral(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s allowed", pair[0], pair[1])
		}
	}
	denied := [][2]string{
		{constants.ReferralStatusCredited, constants.ReferralStatusRedeemed},
		{constants.ReferralStatusPayable, constants.ReferralStatusRedeemed},
		{constants.ReferralStatusExpired, constants.ReferralStatusRedeemed},
		{constants.ReferralStatusCancelled, constants.ReferralStatusPending},
	}
	for _, pair := range denied {
		if CanTransitionReferral(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s denied", pair[0], pair[1])
		}
	}
	if !IsReferralTerminal(constants.ReferralStatusCredited) || IsReferralTerminal(constants.ReferralStatusPayable) {
		t.Fatalf("unexpected terminal classification")
	}
}
