package provider

import (
	"github.com/salonlink/internal/authz"
	"github.com/salonlink/internal/cache"
	"github.com/salonlink/internal/commerce"
	"github.com/salonlink/internal/config"
	"github.com/salonlink/internal/logger"
	"github.com/salonlink/internal/metrics"
	"github.com/salonlink/internal/models"
	"github.com/salonlink/internal/queue"
	"github.com/salonlink/internal/repository"
	"github.com/salonlink/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Gateway     commerce.Gateway

	// Repositories
	AdminRepo          repository.AdminRepository
	StylistRepo        repository.StylistRepository
	CustomerRepo       repository.CustomerRepository
	DiscountCodeRepo   repository.DiscountCodeRepository
	CommissionRuleRepo repository.CommissionRuleRepository
	ReferralRepo       repository.ReferralRepository
	OrderRepo          repository.OrderRepository
	SettingRepo        repository.SettingRepository

	// Services
	AuthzService          *authz.Service
	AuthService           *service.AuthService
	SettingService        *service.SettingService
	CustomerService       *service.CustomerService
	DiscountService       *service.DiscountService
	CommissionCalculator  *service.CommissionCalculator
	CommissionRuleService *service.CommissionRuleService
	DualCommissionService *service.DualCommissionService
	ReferralService       *service.ReferralService
	OrderSyncService      *service.OrderSyncService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}
	metrics.Register()

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Gateway:     newGateway(cfg),
	}

	c.initRepositories(models.DB)
	c.initServices(models.DB)
	return c
}

// NewContainerWithDB 使用指定数据库与网关构建容器（不初始化缓存与队列）
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, gateway commerce.Gateway) *Container {
	c := &Container{Config: cfg, Gateway: gateway}
	c.initRepositories(db)
	c.initServices(db)
	return c
}

// newGateway 未启用电商平台时退化为本地网关
func newGateway(cfg *config.Config) commerce.Gateway {
	if !cfg.Commerce.Enabled {
		logger.Infow("provider_commerce_disabled", "gateway", "local")
		return commerce.NewLocalGateway()
	}
	client, err := commerce.NewClient(commerce.Config{
		ShopDomain:        cfg.Commerce.ShopDomain,
		AccessToken:       cfg.Commerce.AccessToken,
		APIVersion:        cfg.Commerce.APIVersion,
		Timeout:           cfg.Commerce.Timeout(),
		RequestsPerSecond: cfg.Commerce.RequestsPerSecond,
	})
	if err != nil {
		logger.Errorw("provider_init_commerce_client_failed", "error", err)
		panic(err)
	}
	return client
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.AdminRepo = repository.NewAdminRepository(db)
	c.StylistRepo = repository.NewStylistRepository(db)
	c.CustomerRepo = repository.NewCustomerRepository(db)
	c.DiscountCodeRepo = repository.NewDiscountCodeRepository(db)
	c.CommissionRuleRepo = repository.NewCommissionRuleRepository(db)
	c.ReferralRepo = repository.NewReferralRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initServices(db *gorm.DB) {
	authzService, err := authz.NewService(db)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.SyncBuiltinRoles(); err != nil {
		logger.Errorw("provider_sync_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.SettingService.SetReferralDefaults(service.ReferralSettingFromConfig(c.Config))

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo, c.StylistRepo)
	c.CustomerService = service.NewCustomerService(c.CustomerRepo, c.Gateway)
	c.DiscountService = service.NewDiscountService(c.DiscountCodeRepo, c.CustomerService, c.SettingService, c.Gateway)
	c.CommissionCalculator = service.NewCommissionCalculator(c.CommissionRuleRepo)
	c.CommissionRuleService = service.NewCommissionRuleService(c.CommissionRuleRepo, c.CommissionCalculator)
	c.DualCommissionService = service.NewDualCommissionService(c.CommissionRuleRepo, c.StylistRepo)
	c.ReferralService = service.NewReferralService(
		c.ReferralRepo,
		c.DiscountCodeRepo,
		c.StylistRepo,
		c.DiscountService,
		c.DualCommissionService,
		c.SettingService,
	)
	c.OrderSyncService = service.NewOrderSyncService(
		c.OrderRepo,
		c.CustomerService,
		c.ReferralService,
		c.SettingService,
	)
}
