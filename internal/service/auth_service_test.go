package service

import (
	"context"
	"errors"
	"testing"

	"github.com/salonlink/internal/config"
	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/models"
	"github.com/salonlink/internal/repository"
)

func newAuthTestService(t *testing.T, name string) (*AuthService, *repository.GormStylistRepository, *repository.GormAdminRepository) {
	t.Helper()
	db := setupServiceTestDB(t, name)
	cfg := &config.Config{
		JWT:        config.JWTConfig{SecretKey: "admin-secret", ExpireHours: 1},
		StylistJWT: config.JWTConfig{SecretKey: "stylist-secret", ExpireHours: 1},
	}
	stylistRepo := repository.NewStylistRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	return NewAuthService(cfg, adminRepo, stylistRepo), stylistRepo, adminRepo
}

func TestAdminLoginIssuesParsableToken(t *testing.T) {
	svc, _, adminRepo := newAuthTestService(t, "auth_admin")
	hash, err := svc.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if err := adminRepo.Create(&models.Admin{Username: "finance", PasswordHash: hash}); err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	if _, _, _, err := svc.Login("finance", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	admin, token, _, err := svc.Login("finance", "s3cret-pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if admin.LastLoginAt == nil {
		t.Fatalf("expected last login recorded")
	}
	claims, err := svc.ParseJWT(token)
	if err != nil || claims.AdminID != admin.ID || claims.Username != "finance" {
		t.Fatalf("unexpected claims: %+v err=%v", claims, err)
	}
	if _, err := svc.ResolveAdmin(context.Background(), claims); err != nil {
		t.Fatalf("resolve admin failed: %v", err)
	}
	if _, err := svc.ParseStylistJWT(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("admin token must not parse with the stylist secret, got %v", err)
	}
}

func TestStylistLoginByPhone(t *testing.T) {
	svc, stylistRepo, _ := newAuthTestService(t, "auth_stylist")
	hash, err := svc.HashPassword("cut-and-color")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	stylist := &models.Stylist{
		Name:         "Ana",
		Phone:        "5550600",
		PasswordHash: hash,
		Role:         constants.CommissionRoleStylist,
		Status:       constants.AccountStatusActive,
	}
	if err := stylistRepo.Create(stylist); err != nil {
		t.Fatalf("create stylist failed: %v", err)
	}

	logged, token, _, err := svc.StylistLogin("555-0600", "cut-and-color")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := svc.ParseStylistJWT(token)
	if err != nil || claims.StylistID != logged.ID || claims.Role != constants.CommissionRoleStylist {
		t.Fatalf("unexpected claims: %+v err=%v", claims, err)
	}
	if _, err := svc.ResolveStylist(context.Background(), claims); err != nil {
		t.Fatalf("resolve stylist failed: %v", err)
	}

	stylist.Status = constants.AccountStatusDisabled
	if err := stylistRepo.Update(stylist); err != nil {
		t.Fatalf("disable stylist failed: %v", err)
	}
	if _, _, _, err := svc.StylistLogin("5550600", "cut-and-color"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected disabled account, got %v", err)
	}
	if _, err := svc.ResolveStylist(context.Background(), claims); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected disabled on resolve, got %v", err)
	}
	if _, _, _, err := svc.StylistLogin("", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestParseJWTRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuthTestService(t, "auth_garbage")
	if _, err := svc.ParseJWT("not.a.token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}
