package service

import (
	"testing"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOrderCreditsPendingCommission(t *testing.T) {
	env := newTestEnv(t)
	a := env.newAffiliate(t, 1, "ABC12345")
	env.setSettings(t, map[string]interface{}{"commission_rate_percent": 10.0})

	_, err := env.attributionSvc.TrackClick("ABC12345", "visitor-1", "")
	require.NoError(t, err)

	entry, err := env.ledgerSvc.RecordOrder("order-1", "visitor-1", nil, 12345, "")
	require.NoError(t, err)
	assert.Equal(t, a.ID, entry.AffiliateID)
	assert.Equal(t, domain.CommissionPending, entry.Status)
	// 10% of 12345 rounds to 1235 yen, computed once and stored.
	assert.Equal(t, int64(1235), entry.Amount)
	assert.Equal(t, 10.0, entry.RatePercent)
	require.NotNil(t, entry.AttributionID)

	after := env.reload(t, a.ID)
	assert.Equal(t, int64(1235), after.PendingCommission)
	assert.Equal(t, int64(1235), after.TotalCommission)
	assert.Equal(t, int64(1), after.TotalOrders)
	assert.Equal(t, int64(12345), after.TotalGMV)
	assertLedgerInvariant(t, after)
}

func TestRecordOrderIsIdempotentPerOrderID(t *testing.T) {
	env := newTestEnv(t)
	a := env.newAffiliate(t, 1, "ABC12345")
	_, err := env.attributionSvc.TrackClick("ABC12345", "visitor-1", "")
	require.NoError(t, err)

	first, err := env.ledgerSvc.RecordOrder("order-1", "visitor-1", nil, 10000, "")
	require.NoError(t, err)

	second, err := env.ledgerSvc.RecordOrder("order-1", "visitor-1", nil, 10000, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	after := env.reload(t, a.ID)
	assert.Equal(t, first.Amount, after.PendingCommission)
	assert.Equal(t, int64(1), after.TotalOrders)
	assertLedgerInvariant(t, after)
}

func TestRecordOrderBindsIdentifiedUser(t *testing.T) {
	env := newTestEnv(t)
	a := env.newAffiliate(t, 1, "ABC12345")
	_, err := env.attributionSvc.TrackClick("ABC12345", "visitor-1", "")
	require.NoError(t, err)

	// The order arrives with a known user; the single commit covers the
	// commission entry, the totals, and the bind stamp.
	userID := uint(42)
	entry, err := env.ledgerSvc.RecordOrder("order-1", "visitor-1", &userID, 10000, "")
	require.NoError(t, err)
	require.NotNil(t, entry.AttributionID)

	var stored models.Attribution
	require.NoError(t, env.db.First(&stored, *entry.AttributionID).Error)
	require.NotNil(t, stored.BoundUserID)
	assert.Equal(t, userID, *stored.BoundUserID)
	assert.NotNil(t, stored.BoundAt)
	assert.Equal(t, a.ID, stored.AffiliateID)
	assert.Equal(t, int64(1), stored.OrderCount)
}

func TestRecordOrderFallsBackToReferralCode(t *testing.T) {
	env := newTestEnv(t)
	a := env.newAffiliate(t, 1, "ABC12345")

	// No click was ever tracked; the order carries the code directly.
	entry, err := env.ledgerSvc.RecordOrder("order-1", "", nil, 10000, "ABC12345")
	require.NoError(t, err)
	assert.Equal(t, a.ID, entry.AffiliateID)
	assert.Nil(t, entry.AttributionID)
}

func TestRecordOrderUnattributed(t *testing.T) {
	env := newTestEnv(t)
	env.newAffiliate(t, 1, "ABC12345")

	_, err := env.ledgerSvc.RecordOrder("order-1", "unknown-visitor", nil, 10000, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordOrderRejectsNonPositiveTotal(t *testing.T) {
	env := newTestEnv(t)
	env.newAffiliate(t, 1, "ABC12345")

	_, err := env.ledgerSvc.RecordOrder("order-1", "visitor-1", nil, 0, "ABC12345")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = env.ledgerSvc.RecordOrder("order-1", "visitor-1", nil, -500, "ABC12345")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestApproveShiftsPendingToApproved(t *testing.T) {
	env := newTestEnv(t)
	a := env.newAffiliate(t, 1, "ABC12345")
	entry, err := env.ledgerSvc.RecordOrder("order-1", "", nil, 10000, "ABC12345")
	require.NoError(t, err)

	require.NoError(t, env.ledgerSvc.Approve(entry.ID, 99))

	after := env.reload(t, a.ID)
	assert.Zero(t, after.PendingCommission)
	assert.Equal(t, entry.Amount, after.ApprovedCommission)
	// Approval keeps the amount in the lifetime total.
	assert.Equal(t, entry.Amount, after.TotalCommission)
	assertLedgerInvariant(t, after)

	stored, err := env.commissionRepo.GetByID(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommissionApproved, stored.Status)
	require.NotNil(t, stored.ApprovedBy)
	assert.Equal(t, uint(99), *stored.ApprovedBy)
}

func TestApproveTwiceIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	a := env.newAffiliate(t, 1, "ABC12345")
	entry, err := env.ledgerSvc.RecordOrder("order-1", "", nil, 10000, "ABC12345")
	require.NoError(t, err)

	require.NoError(t, env.ledgerSvc.Approve(entry.ID, 99))
	require.NoError(t, env.ledgerSvc.Approve(entry.ID, 99))

	after := env.reload(t, a.ID)
	assert.Equal(t, entry.Amount, after.ApprovedCommission)
	assertLedgerInvariant(t, after)
}

func TestRejectRemovesFromPendingAndTotal(t *testing.T) {
	env := newTestEnv(t)
	a := env.newAffiliate(t, 1, "ABC12345")
	entry, err := env.ledgerSvc.RecordOrder("order-1", "", nil, 10000, "ABC12345")
	require.NoError(t, err)

	require.NoError(t, env.ledgerSvc.Reject(entry.ID, 99, "self purchase"))

	after := env.reload(t, a.ID)
	assert.Zero(t, after.PendingCommission)
	// A rejected commission is backed out of the lifetime total as well.
	assert.Zero(t, after.TotalCommission)
	assertLedgerInvariant(t, after)

	stored, err := env.commissionRepo.GetByID(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommissionRejected, stored.Status)
	assert.Equal(t, "self purchase", stored.RejectReason)
}

func TestRejectAfterApproveFails(t *testing.T) {
	env := newTestEnv(t)
	a := env.newAffiliate(t, 1, "ABC12345")
	entry, err := env.ledgerSvc.RecordOrder("order-1", "", nil, 10000, "ABC12345")
	require.NoError(t, err)

	require.NoError(t, env.ledgerSvc.Approve(entry.ID, 99))
	err = env.ledgerSvc.Reject(entry.ID, 99, "changed my mind")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// The balance shift from the failed reject did not leak.
	after := env.reload(t, a.ID)
	assert.Equal(t, entry.Amount, after.ApprovedCommission)
	assert.Equal(t, entry.Amount, after.TotalCommission)
	assertLedgerInvariant(t, after)
}

func TestApproveRejectMixedBatchConservesBalances(t *testing.T) {
	env := newTestEnv(t)
	a := env.newAffiliate(t, 1, "ABC12345")
	env.setSettings(t, map[string]interface{}{"commission_rate_percent": 10.0})

	e1, err := env.ledgerSvc.RecordOrder("order-1", "", nil, 10000, "ABC12345")
	require.NoError(t, err)
	e2, err := env.ledgerSvc.RecordOrder("order-2", "", nil, 20000, "ABC12345")
	require.NoError(t, err)
	e3, err := env.ledgerSvc.RecordOrder("order-3", "", nil, 30000, "ABC12345")
	require.NoError(t, err)

	require.NoError(t, env.ledgerSvc.Approve(e1.ID, 99))
	require.NoError(t, env.ledgerSvc.Reject(e2.ID, 99, "refunded"))

	after := env.reload(t, a.ID)
	assert.Equal(t, e1.Amount, after.ApprovedCommission)
	assert.Equal(t, e3.Amount, after.PendingCommission)
	assert.Equal(t, e1.Amount+e3.Amount, after.TotalCommission)
	assertLedgerInvariant(t, after)
}
