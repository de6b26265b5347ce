package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/salonlink/internal/authz"
	"github.com/salonlink/internal/cache"
	"github.com/salonlink/internal/config"
	adminhandlers "github.com/salonlink/internal/http/handlers/admin"
	publichandlers "github.com/salonlink/internal/http/handlers/public"
	"github.com/salonlink/internal/http/response"
	"github.com/salonlink/internal/logger"
	"github.com/salonlink/internal/metrics"
	"github.com/salonlink/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按发型师端/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "sl"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 发型师认证
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("phone")), publicHandler.StylistLogin)
		}

		// 平台 webhook（签名校验在处理器内完成）
		webhooks := apiV1.Group("/webhooks")
		{
			webhooks.POST("/commerce/orders", publicHandler.CommerceOrderWebhook)
		}

		// 发型师接口（需鉴权）
		stylist := apiV1.Group("")
		stylist.Use(StylistJWTAuthMiddleware(cfg.StylistJWT.SecretKey, c.AuthService))
		{
			stylist.GET("/me", publicHandler.GetCurrentStylist)
			stylist.POST("/referrals", publicHandler.CreateReferral)
			stylist.GET("/referrals", publicHandler.ListMyReferrals)
			stylist.GET("/referrals/dashboard", publicHandler.GetReferralDashboard)
			stylist.GET("/referrals/:id", publicHandler.GetMyReferral)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AuthService), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/me", adminHandler.GetAdminMe)

				// 推荐与佣金结算
				authorized.GET("/referrals", adminHandler.ListReferrals)
				authorized.POST("/referrals/bulk-credit", adminHandler.BulkCreditReferrals)
				authorized.GET("/referrals/:id", adminHandler.GetReferral)
				authorized.PATCH("/referrals/:id/commission", adminHandler.UpdateReferralCommission)
				authorized.POST("/referrals/:id/cancel", adminHandler.CancelReferral)

				// 佣金规则
				authorized.GET("/commission-rules", adminHandler.ListCommissionRules)
				authorized.POST("/commission-rules", adminHandler.CreateCommissionRule)
				authorized.POST("/commission-rules/preview", adminHandler.PreviewCommission)
				authorized.GET("/commission-rules/:id", adminHandler.GetCommissionRule)
				authorized.PUT("/commission-rules/:id", adminHandler.UpdateCommissionRule)
				authorized.DELETE("/commission-rules/:id", adminHandler.DeleteCommissionRule)

				// 推荐配置
				authorized.GET("/settings/referral", adminHandler.GetReferralSetting)
				authorized.PUT("/settings/referral", adminHandler.UpdateReferralSetting)

				// 订单修复
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.POST("/orders/:id/rematch", adminHandler.RematchOrder)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.PUT("/authz/admins/:id/roles", adminHandler.AssignAuthzAdminRoles)
			}
		}
	}

	// 指标
	if cfg.Metrics.Enabled {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(metrics.Handler()))
	}

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
