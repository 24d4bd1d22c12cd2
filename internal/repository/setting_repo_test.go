package repository

import (
	"testing"

	"affiliate-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsLazyCreateWithDefaults(t *testing.T) {
	repo := NewSettingRepository(newTestDB(t))

	s, err := repo.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCommissionRatePercent, s.CommissionRatePercent)
	assert.Equal(t, int64(domain.DefaultMinPayoutAmount), s.MinPayoutAmount)
	assert.Equal(t, domain.DefaultAttributionWindowDays, s.AttributionWindowDays)
	assert.Equal(t, domain.DefaultTaxRatePercent, s.TaxRatePercent)
	assert.Contains(t, s.EnabledPayoutMethods, domain.PayoutMethodBankJP)

	// A second read returns the same singleton row.
	again, err := repo.Get()
	require.NoError(t, err)
	assert.Equal(t, s.ID, again.ID)
}

func TestSettingsUpdateFields(t *testing.T) {
	repo := NewSettingRepository(newTestDB(t))

	updated, err := repo.UpdateFields(map[string]interface{}{
		"commission_rate_percent": 7.5,
		"min_payout_amount":       int64(10000),
	})
	require.NoError(t, err)
	assert.Equal(t, 7.5, updated.CommissionRatePercent)
	assert.Equal(t, int64(10000), updated.MinPayoutAmount)
	// Untouched fields keep their defaults.
	assert.Equal(t, domain.DefaultAttributionWindowDays, updated.AttributionWindowDays)
}
