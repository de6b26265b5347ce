//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/salonlink/internal/constants"
	"github.com/salonlink/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}
	all := models.AllModels()
	_ = db.Migrator().DropTable(all...)
	if err := db.AutoMigrate(all...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(all...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgresConcurrentMarkRedeemedSingleWinner(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewReferralRepository(db)
	now := time.Now()
	referral := createRepoTestReferral(t, db, "5559001", constants.ReferralStatusPending, now, now.Add(time.Hour))

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(orderID uint) {
			defer wg.Done()
			affected, err := repo.MarkRedeemed(referral.ID, RedemptionUpdate{
				OrderID:          orderID,
				OrderAmount:      models.MustMoney("100"),
				CommissionAmount: models.MustMoney("10"),
				RedeemedAt:       now,
			})
			if err != nil {
				t.Errorf("mark redeemed failed: %v", err)
				return
			}
			mu.Lock()
			winners += affected
			mu.Unlock()
		}(uint(i + 1))
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestPostgresReferralKeywordSearchUsesILike(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewReferralRepository(db)
	now := time.Now()
	createRepoTestReferral(t, db, "5559101", constants.ReferralStatusPending, now, now.Add(time.Hour))

	rows, total, err := repo.List(ReferralListFilter{Keyword: "559101", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("expected one match, got total=%d rows=%d", total, len(rows))
	}
}
