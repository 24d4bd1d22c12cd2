package service

import (
	"testing"
	"time"

	"affiliate-service/internal/database"
	"affiliate-service/internal/models"
	"affiliate-service/internal/repository"
	"affiliate-service/internal/ws"
	"affiliate-service/pkg/currency"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full service stack against an in-memory database.
type testEnv struct {
	db              *gorm.DB
	affiliateRepo   *repository.AffiliateRepository
	attributionRepo *repository.AttributionRepository
	commissionRepo  *repository.CommissionRepository
	payoutRepo      *repository.PayoutRepository
	settingRepo     *repository.SettingRepository

	referralSvc    *ReferralService
	attributionSvc *AttributionService
	ledgerSvc      *LedgerService
	payoutSvc      *PayoutService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and serializes
	// concurrent writers the way the production MySQL row locks would.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	env := &testEnv{
		db:              db,
		affiliateRepo:   repository.NewAffiliateRepository(db),
		attributionRepo: repository.NewAttributionRepository(db),
		commissionRepo:  repository.NewCommissionRepository(db),
		payoutRepo:      repository.NewPayoutRepository(db),
		settingRepo:     repository.NewSettingRepository(db),
	}
	hub := ws.NewHub()
	converter := currency.NewConverter("", time.Hour, 105.0)

	env.referralSvc = NewReferralService(env.affiliateRepo)
	env.attributionSvc = NewAttributionService(db, env.attributionRepo, env.affiliateRepo, env.settingRepo)
	env.ledgerSvc = NewLedgerService(db, env.commissionRepo, env.affiliateRepo, env.attributionRepo, env.settingRepo, env.attributionSvc, hub)
	env.payoutSvc = NewPayoutService(db, env.payoutRepo, env.affiliateRepo, env.commissionRepo, env.settingRepo, converter, hub)
	return env
}

// newAffiliate creates an enrolled affiliate with bank details filled in.
func (e *testEnv) newAffiliate(t *testing.T, userID uint, code string) *models.Affiliate {
	t.Helper()
	a := &models.Affiliate{
		UserID:        userID,
		DisplayName:   "Test Affiliate",
		Email:         "affiliate@example.com",
		ReferralCode:  code,
		IsActive:      true,
		Tier:          "BRONZE",
		BankName:      "MUFG",
		AccountNumber: "1234567",
		AccountHolder: "TEST AFFILIATE",
		BankCurrency:  "JPY",
	}
	require.NoError(t, e.affiliateRepo.Create(a))
	return a
}

// setSettings overrides the program parameters for a test.
func (e *testEnv) setSettings(t *testing.T, fields map[string]interface{}) {
	t.Helper()
	_, err := e.settingRepo.UpdateFields(fields)
	require.NoError(t, err)
}

// reload returns the current affiliate row.
func (e *testEnv) reload(t *testing.T, id uint) *models.Affiliate {
	t.Helper()
	a, err := e.affiliateRepo.GetByID(id)
	require.NoError(t, err)
	return a
}

// assertLedgerInvariant checks total == pending + approved + paid.
func assertLedgerInvariant(t *testing.T, a *models.Affiliate) {
	t.Helper()
	require.Equal(t, a.TotalCommission, a.PendingCommission+a.ApprovedCommission+a.PaidCommission,
		"ledger invariant violated: total=%d pending=%d approved=%d paid=%d",
		a.TotalCommission, a.PendingCommission, a.ApprovedCommission, a.PaidCommission)
	require.GreaterOrEqual(t, a.ReservedCommission, int64(0))
	require.LessOrEqual(t, a.ReservedCommission, a.ApprovedCommission)
}
