package main

import (
	"errors"
	"fmt"

	"github.com/salonlink/internal/config"
	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/logger"
	"github.com/salonlink/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const demoPassword = "salon-demo-pass"

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.InitDefaultAdmin(cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword); err != nil {
		stdLog.Printf("Failed to init admin: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo password: %v", err)
	}

	// 店主账号先于沙龙创建，随后回填归属关系
	owner := seedStylist(stdLog, models.Stylist{
		Name:         "Nora Owner",
		Phone:        "5550001000",
		PasswordHash: string(hash),
		Role:         constants.CommissionRoleSalonOwner,
		Level:        constants.LevelGold,
		Status:       constants.AccountStatusActive,
	})
	salon := seedSalon(stdLog, models.Salon{
		Name:   "Northside Hair Studio",
		Level:  constants.LevelGold,
		City:   "Portland",
		Status: constants.AccountStatusActive,
	}, owner)

	members := []models.Stylist{
		{
			Name:         "Ivy Stylist",
			Phone:        "5550001001",
			PasswordHash: string(hash),
			Role:         constants.CommissionRoleStylist,
			Level:        constants.LevelSilver,
			Status:       constants.AccountStatusActive,
		},
		{
			Name:         "Omar Stylist",
			Phone:        "5550001002",
			PasswordHash: string(hash),
			Role:         constants.CommissionRoleStylist,
			Level:        constants.LevelBronze,
			Status:       constants.AccountStatusActive,
		},
	}
	var seeded []*models.Stylist
	for _, member := range members {
		if salon != nil {
			member.SalonID = &salon.ID
		}
		if stylist := seedStylist(stdLog, member); stylist != nil {
			seeded = append(seeded, stylist)
		}
	}

	rules := []models.CommissionRule{
		{
			Name:           "Stylist catch-all",
			Type:           constants.CommissionRuleTypePercentage,
			Value:          models.MustMoney("10"),
			RoleApplicable: models.StringArray{constants.CommissionRoleStylist},
			Priority:       0,
			IsActive:       true,
			Description:    "Default 10% referral commission",
		},
		{
			Name:           "Salon owner override",
			Type:           constants.CommissionRuleTypePercentage,
			Value:          models.MustMoney("5"),
			RoleApplicable: models.StringArray{constants.CommissionRoleSalonOwner},
			Priority:       0,
			IsActive:       true,
			Description:    "Salon side of dual commission",
		},
		{
			Name:           "Agent flat fee",
			Type:           constants.CommissionRuleTypeFixed,
			Value:          models.MustMoney("25"),
			RoleApplicable: models.StringArray{constants.CommissionRoleAgent},
			MinOrderAmount: models.MustMoney("100"),
			Priority:       10,
			IsActive:       true,
		},
	}
	if len(seeded) > 0 {
		top := models.MustMoney("2000")
		rules = append(rules, models.CommissionRule{
			Name:       "Top stylist tiers",
			Type:       constants.CommissionRuleTypeTiered,
			StylistIDs: models.UintArray{seeded[0].ID},
			Tiers: models.CommissionTiers{
				{MinAmount: models.MustMoney("0"), MaxAmount: models.MoneyPtr(models.MustMoney("499.99")), Rate: models.MustMoney("10")},
				{MinAmount: models.MustMoney("500"), MaxAmount: &top, Rate: models.MustMoney("12")},
				{MinAmount: models.MustMoney("2000.01"), Rate: models.MustMoney("15")},
			},
			MaxCommission: models.MoneyPtr(models.MustMoney("500")),
			Priority:      100,
			IsActive:      true,
		})
	}
	for _, rule := range rules {
		seedCommissionRule(stdLog, rule)
	}

	fmt.Println("\nDemo data ready")
	fmt.Println("- 1 salon with owner", "5550001000")
	fmt.Println("- 2 stylists (password:", demoPassword+")")
	fmt.Println("- 4 commission rules")
}

type printfLogger interface {
	Printf(format string, v ...interface{})
}

func seedStylist(stdLog printfLogger, stylist models.Stylist) *models.Stylist {
	var existing models.Stylist
	err := models.DB.Where("phone = ?", stylist.Phone).First(&existing).Error
	if err == nil {
		stdLog.Printf("Stylist already exists: %s", stylist.Phone)
		return &existing
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		stdLog.Printf("Failed to load stylist %s: %v", stylist.Phone, err)
		return nil
	}
	if err := models.DB.Create(&stylist).Error; err != nil {
		stdLog.Printf("Failed to create stylist %s: %v", stylist.Phone, err)
		return nil
	}
	stdLog.Printf("Created stylist: %s (%s)", stylist.Name, stylist.Role)
	return &stylist
}

func seedSalon(stdLog printfLogger, salon models.Salon, owner *models.Stylist) *models.Salon {
	var existing models.Salon
	err := models.DB.Where("name = ?", salon.Name).First(&existing).Error
	switch {
	case err == nil:
		stdLog.Printf("Salon already exists: %s", salon.Name)
		salon = existing
	case errors.Is(err, gorm.ErrRecordNotFound):
		if owner != nil {
			salon.OwnerID = &owner.ID
		}
		if err := models.DB.Create(&salon).Error; err != nil {
			stdLog.Printf("Failed to create salon %s: %v", salon.Name, err)
			return nil
		}
		stdLog.Printf("Created salon: %s", salon.Name)
	default:
		stdLog.Printf("Failed to load salon %s: %v", salon.Name, err)
		return nil
	}
	if owner != nil && owner.SalonID == nil {
		if err := models.DB.Model(owner).Update("salon_id", salon.ID).Error; err != nil {
			stdLog.Printf("Failed to link owner to salon: %v", err)
		}
	}
	return &salon
}

func seedCommissionRule(stdLog printfLogger, rule models.CommissionRule) {
	var existing models.CommissionRule
	err := models.DB.Where("name = ?", rule.Name).First(&existing).Error
	if err == nil {
		stdLog.Printf("Commission rule already exists: %s", rule.Name)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		stdLog.Printf("Failed to load commission rule %s: %v", rule.Name, err)
		return
	}
	if err := models.DB.Create(&rule).Error; err != nil {
		stdLog.Printf("Failed to create commission rule %s: %v", rule.Name, err)
		return
	}
	stdLog.Printf("Created commission rule: %s (%s)", rule.Name, rule.Type)
}
