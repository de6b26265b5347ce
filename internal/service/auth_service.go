package service

import (
	"context"
	"strings"
	"time"

	"github.com/salonlink/internal/cache"
	"github.com/salonlink/internal/config"
	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/models"
	"github.com/salonlink/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 管理员与发型师认证服务
type AuthService struct {
	cfg         *config.Config
	adminRepo   repository.AdminRepository
	stylistRepo repository.StylistRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, adminRepo repository.AdminRepository, stylistRepo repository.StylistRepository) *AuthService {
	return &AuthService{
		cfg:         cfg,
		adminRepo:   adminRepo,
		stylistRepo: stylistRepo,
	}
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// JWTClaims 管理员 JWT 声明
type JWTClaims struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// StylistJWTClaims 发型师 JWT 声明
type StylistJWTClaims struct {
	StylistID    uint   `json:"stylist_id"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成管理员 Token
func (s *AuthService) GenerateJWT(admin *models.Admin) (string, time.Time, error) {
	expiresAt := time.Now().Add(resolveJWTExpire(s.cfg.JWT, 24))
	claims := JWTClaims{
		AdminID:          admin.ID,
		Username:         admin.Username,
		TokenVersion:     admin.TokenVersion,
		RegisteredClaims: newRegisteredClaims(expiresAt),
	}
	return signJWT(claims, s.cfg.JWT.SecretKey, expiresAt)
}

// ParseJWT 解析管理员 Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	if err := parseJWT(tokenString, s.cfg.JWT.SecretKey, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// GenerateStylistJWT 生成发型师 Token
func (s *AuthService) GenerateStylistJWT(stylist *models.Stylist) (string, time.Time, error) {
	expiresAt := time.Now().Add(resolveJWTExpire(s.cfg.StylistJWT, 168))
	claims := StylistJWTClaims{
		StylistID:        stylist.ID,
		Role:             stylist.Role,
		TokenVersion:     stylist.TokenVersion,
		RegisteredClaims: newRegisteredClaims(expiresAt),
	}
	return signJWT(claims, s.cfg.StylistJWT.SecretKey, expiresAt)
}

// ParseStylistJWT 解析发型师 Token
func (s *AuthService) ParseStylistJWT(tokenString string) (*StylistJWTClaims, error) {
	claims := &StylistJWTClaims{}
	if err := parseJWT(tokenString, s.cfg.StylistJWT.SecretKey, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Login 管理员登录
func (s *AuthService) Login(username, password string) (*models.Admin, string, time.Time, error) {
	admin, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if admin == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := s.VerifyPassword(admin.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(admin)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	if err := s.adminRepo.UpdateLoginAt(admin.ID, now); err != nil {
		return nil, "", time.Time{}, err
	}
	admin.LastLoginAt = &now
	_ = cache.SetAdminAuthState(context.Background(), cache.BuildAdminAuthState(admin))

	return admin, token, expiresAt, nil
}

// StylistLogin 发型师使用手机号登录
func (s *AuthService) StylistLogin(phone, password string) (*models.Stylist, string, time.Time, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	stylist, err := s.stylistRepo.GetByPhone(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if stylist == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := s.VerifyPassword(stylist.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if strings.EqualFold(stylist.Status, constants.AccountStatusDisabled) {
		return nil, "", time.Time{}, ErrAccountDisabled
	}

	token, expiresAt, err := s.GenerateStylistJWT(stylist)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	if err := s.stylistRepo.UpdateLoginAt(stylist.ID, now); err != nil {
		return nil, "", time.Time{}, err
	}
	stylist.LastLoginAt = &now
	_ = cache.SetStylistAuthState(context.Background(), cache.BuildStylistAuthState(stylist))

	return stylist, token, expiresAt, nil
}

// ResolveStylist 校验 Token 对应的发型师仍然有效
func (s *AuthService) ResolveStylist(ctx context.Context, claims *StylistJWTClaims) (*models.Stylist, error) {
	if claims == nil || claims.StylistID == 0 {
		return nil, ErrTokenInvalid
	}
	if state, hit, err := cache.GetStylistAuthState(ctx, claims.StylistID); err == nil && hit && state != nil {
		if state.TokenVersion != claims.TokenVersion {
			return nil, ErrTokenInvalid
		}
		if state.Status == constants.AccountStatusDisabled {
			return nil, ErrAccountDisabled
		}
	}
	stylist, err := s.stylistRepo.GetByID(claims.StylistID)
	if err != nil {
		return nil, err
	}
	if stylist == nil || stylist.TokenVersion != claims.TokenVersion {
		return nil, ErrTokenInvalid
	}
	if stylist.Status == constants.AccountStatusDisabled {
		return nil, ErrAccountDisabled
	}
	_ = cache.SetStylistAuthState(ctx, cache.BuildStylistAuthState(stylist))
	return stylist, nil
}

// ResolveAdmin 校验 Token 对应的管理员仍然有效
func (s *AuthService) ResolveAdmin(ctx context.Context, claims *JWTClaims) (*models.Admin, error) {
	if claims == nil || claims.AdminID == 0 {
		return nil, ErrTokenInvalid
	}
	if state, hit, err := cache.GetAdminAuthState(ctx, claims.AdminID); err == nil && hit && state != nil {
		if state.TokenVersion != claims.TokenVersion {
			return nil, ErrTokenInvalid
		}
		return &models.Admin{ID: state.AdminID, Username: state.Username, TokenVersion: state.TokenVersion, IsSuper: state.IsSuper}, nil
	}
	admin, err := s.adminRepo.GetByID(claims.AdminID)
	if err != nil {
		return nil, err
	}
	if admin == nil || admin.TokenVersion != claims.TokenVersion {
		return nil, ErrTokenInvalid
	}
	_ = cache.SetAdminAuthState(ctx, cache.BuildAdminAuthState(admin))
	return admin, nil
}

func resolveJWTExpire(cfg config.JWTConfig, fallbackHours int) time.Duration {
	hours := cfg.ExpireHours
	if hours <= 0 {
		hours = fallbackHours
	}
	return time.Duration(hours) * time.Hour
}

func newRegisteredClaims(expiresAt time.Time) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
}

func signJWT(claims jwt.Claims, secret string, expiresAt time.Time) (string, time.Time, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

func parseJWT(tokenString, secret string, claims jwt.Claims) error {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return ErrTokenInvalid
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
