package repository

import (
	"testing"
	"time"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvedEntry(t *testing.T, repo *CommissionRepository, orderID string, amount int64, approvedAt time.Time) *models.CommissionEntry {
	t.Helper()
	e := &models.CommissionEntry{
		OrderID:     orderID,
		AffiliateID: 1,
		OrderTotal:  amount * 10,
		RatePercent: 10,
		Amount:      amount,
		Status:      domain.CommissionApproved,
		OrderedAt:   approvedAt,
		ApprovedAt:  &approvedAt,
	}
	require.NoError(t, repo.Create(repo.db, e))
	return e
}

func TestMarkPaidUpToConsumesOldestFirst(t *testing.T) {
	repo := NewCommissionRepository(newTestDB(t))
	now := time.Now()
	first := approvedEntry(t, repo, "order-1", 600, now.Add(-2*time.Hour))
	second := approvedEntry(t, repo, "order-2", 400, now.Add(-time.Hour))

	marked, err := repo.MarkPaidUpTo(repo.db, 1, 1000, 7, now)
	require.NoError(t, err)
	require.Len(t, marked, 2)
	assert.Equal(t, first.ID, marked[0].ID)
	assert.Equal(t, second.ID, marked[1].ID)

	stored, err := repo.GetByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommissionPaid, stored.Status)
	require.NotNil(t, stored.PayoutID)
	assert.Equal(t, uint(7), *stored.PayoutID)
}

func TestMarkPaidUpToNeverOvershoots(t *testing.T) {
	repo := NewCommissionRepository(newTestDB(t))
	now := time.Now()
	big := approvedEntry(t, repo, "order-1", 1000, now.Add(-2*time.Hour))
	small := approvedEntry(t, repo, "order-2", 300, now.Add(-time.Hour))

	// A partial payout must not flip the larger entry terminal; the smaller
	// one that fits is consumed instead.
	marked, err := repo.MarkPaidUpTo(repo.db, 1, 500, 7, now)
	require.NoError(t, err)
	require.Len(t, marked, 1)
	assert.Equal(t, small.ID, marked[0].ID)

	stored, err := repo.GetByID(big.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommissionApproved, stored.Status)
	assert.Nil(t, stored.PayoutID)
}
