package service

import (
	"context"
	"sync"
	"testing"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// approvedAffiliate sets up an affiliate holding the given approved balance,
// built through the ledger so the aggregates stay honest.
func (e *testEnv) approvedAffiliate(t *testing.T, userID uint, code string, approved int64) *models.Affiliate {
	t.Helper()
	a := e.newAffiliate(t, userID, code)
	e.setSettings(t, map[string]interface{}{"commission_rate_percent": 10.0, "min_payout_amount": 100})
	entry, err := e.ledgerSvc.RecordOrder("seed-"+code, "", nil, approved*10, code)
	require.NoError(t, err)
	require.Equal(t, approved, entry.Amount)
	require.NoError(t, e.ledgerSvc.Approve(entry.ID, 1))
	return a
}

func TestRequestReservesAtRequestTime(t *testing.T) {
	env := newTestEnv(t)
	a := env.approvedAffiliate(t, 1, "ABC12345", 1000)

	payout, err := env.payoutSvc.Request(context.Background(), a.ID, 600, domain.PayoutMethodBankJP)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutPending, payout.Status)
	assert.NotEmpty(t, payout.Reference)
	assert.Equal(t, int64(600), payout.Amount)
	// 10% withholding applied up front.
	assert.Equal(t, int64(60), payout.TaxAmount)
	assert.Equal(t, int64(540), payout.NetAmount)
	assert.Equal(t, "MUFG", payout.BankName)

	after := env.reload(t, a.ID)
	// Approved is untouched while the request is open; the hold lives in the
	// reserved bucket and only the withdrawable balance shrinks.
	assert.Equal(t, int64(1000), after.ApprovedCommission)
	assert.Equal(t, int64(600), after.ReservedCommission)
	assert.Equal(t, int64(400), after.AvailableBalance())
	assertLedgerInvariant(t, after)
}

func TestRequestValidation(t *testing.T) {
	env := newTestEnv(t)
	a := env.approvedAffiliate(t, 1, "ABC12345", 1000)

	_, err := env.payoutSvc.Request(context.Background(), a.ID, 0, domain.PayoutMethodBankJP)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = env.payoutSvc.Request(context.Background(), a.ID, -50, domain.PayoutMethodBankJP)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	env.setSettings(t, map[string]interface{}{"min_payout_amount": 500})
	_, err = env.payoutSvc.Request(context.Background(), a.ID, 499, domain.PayoutMethodBankJP)
	assert.ErrorIs(t, err, domain.ErrBelowMinimumPayout)

	_, err = env.payoutSvc.Request(context.Background(), a.ID, 2000, domain.PayoutMethodBankJP)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	_, err = env.payoutSvc.Request(context.Background(), a.ID, 500, "CARRIER_PIGEON")
	assert.ErrorIs(t, err, domain.ErrUnsupportedMethod)
}

func TestRequestRequiresBankInfo(t *testing.T) {
	env := newTestEnv(t)
	a := env.approvedAffiliate(t, 1, "ABC12345", 1000)
	require.NoError(t, env.affiliateRepo.UpdateBankInfo(a.ID, map[string]interface{}{
		"bank_name": "", "account_number": "", "account_holder": "",
	}))

	_, err := env.payoutSvc.Request(context.Background(), a.ID, 500, domain.PayoutMethodBankJP)
	assert.ErrorIs(t, err, domain.ErrMissingBankInfo)
}

func TestRequestIntlSnapshotsFxRate(t *testing.T) {
	env := newTestEnv(t)
	a := env.approvedAffiliate(t, 1, "ABC12345", 1000)

	payout, err := env.payoutSvc.Request(context.Background(), a.ID, 600, domain.PayoutMethodBankIntl)
	require.NoError(t, err)
	assert.Equal(t, "IDR", payout.Currency)
	require.NotNil(t, payout.FxRate)
	// The test converter has no upstream URL, so the fallback rate applies.
	assert.Equal(t, 105.0, *payout.FxRate)
	require.NotNil(t, payout.EstimatedForeign)
	assert.Equal(t, int64(540*105), *payout.EstimatedForeign)
}

func TestConcurrentRequestsCannotOverdraw(t *testing.T) {
	env := newTestEnv(t)
	a := env.approvedAffiliate(t, 1, "ABC12345", 1000)

	// Ten concurrent requests for 600 each against a balance of 1000: at
	// most one reservation can fit.
	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.payoutSvc.Request(context.Background(), a.ID, 600, domain.PayoutMethodBankJP)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
		}
	}
	assert.Equal(t, 1, ok)

	after := env.reload(t, a.ID)
	assert.Equal(t, int64(600), after.ReservedCommission)
	assert.Equal(t, int64(400), after.AvailableBalance())
	assertLedgerInvariant(t, after)
}

func TestRejectReleasesReservation(t *testing.T) {
	env := newTestEnv(t)
	a := env.approvedAffiliate(t, 1, "ABC12345", 1000)

	payout, err := env.payoutSvc.Request(context.Background(), a.ID, 600, domain.PayoutMethodBankJP)
	require.NoError(t, err)
	require.NoError(t, env.payoutSvc.Reject(payout.ID, 99, "bank details mismatch"))

	after := env.reload(t, a.ID)
	assert.Zero(t, after.ReservedCommission)
	assert.Equal(t, int64(1000), after.AvailableBalance())
	assertLedgerInvariant(t, after)

	stored, err := env.payoutRepo.GetByID(payout.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutRejected, stored.Status)
	assert.Equal(t, "bank details mismatch", stored.RejectReason)

	// Replayed rejection changes nothing.
	require.NoError(t, env.payoutSvc.Reject(payout.ID, 99, "again"))
	assert.Zero(t, env.reload(t, a.ID).ReservedCommission)
}

func TestCompleteSettlesLedgerAndMarksEntriesPaid(t *testing.T) {
	env := newTestEnv(t)
	a := env.approvedAffiliate(t, 1, "ABC12345", 1000)
	seed, err := env.commissionRepo.GetByOrderID("seed-ABC12345")
	require.NoError(t, err)

	payout, err := env.payoutSvc.Request(context.Background(), a.ID, 1000, domain.PayoutMethodBankJP)
	require.NoError(t, err)
	require.NoError(t, env.payoutSvc.Approve(payout.ID, 99))
	require.NoError(t, env.payoutSvc.Process(payout.ID))
	require.NoError(t, env.payoutSvc.Complete(payout.ID, 99, "wire-555"))

	after := env.reload(t, a.ID)
	assert.Zero(t, after.ApprovedCommission)
	assert.Zero(t, after.ReservedCommission)
	assert.Equal(t, int64(1000), after.PaidCommission)
	assert.Equal(t, int64(1000), after.TotalCommission)
	assertLedgerInvariant(t, after)

	stored, err := env.payoutRepo.GetByID(payout.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutCompleted, stored.Status)
	assert.Equal(t, "wire-555", stored.TransactionID)

	// The commission entry funding the payout is now linked and paid.
	entry, err := env.commissionRepo.GetByID(seed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommissionPaid, entry.Status)
	require.NotNil(t, entry.PayoutID)
	assert.Equal(t, payout.ID, *entry.PayoutID)

	// Completing again is a no-op.
	require.NoError(t, env.payoutSvc.Complete(payout.ID, 99, "wire-555"))
	assert.Equal(t, int64(1000), env.reload(t, a.ID).PaidCommission)
}

func TestTransitionOrderEnforced(t *testing.T) {
	env := newTestEnv(t)
	a := env.approvedAffiliate(t, 1, "ABC12345", 1000)

	payout, err := env.payoutSvc.Request(context.Background(), a.ID, 500, domain.PayoutMethodBankJP)
	require.NoError(t, err)

	// Cannot complete a payout that was never processed.
	err = env.payoutSvc.Complete(payout.ID, 99, "wire-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Cannot process before approval.
	err = env.payoutSvc.Process(payout.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// The failed attempts left the ledger alone.
	after := env.reload(t, a.ID)
	assert.Equal(t, int64(500), after.ReservedCommission)
	assert.Zero(t, after.PaidCommission)
	assertLedgerInvariant(t, after)
}

func TestMarkPaidShortcutsTheStateMachine(t *testing.T) {
	env := newTestEnv(t)
	a := env.approvedAffiliate(t, 1, "ABC12345", 1000)

	payout, err := env.payoutSvc.Request(context.Background(), a.ID, 1000, domain.PayoutMethodBankJP)
	require.NoError(t, err)
	require.NoError(t, env.payoutSvc.MarkPaid(payout.ID, 99))

	stored, err := env.payoutRepo.GetByID(payout.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutPaid, stored.Status)

	after := env.reload(t, a.ID)
	assert.Equal(t, int64(1000), after.PaidCommission)
	assert.Zero(t, after.ReservedCommission)
	assertLedgerInvariant(t, after)
}

// TestPayoutLifecycleEndToEnd walks a referral from the first click to paid
// money: click, order, approval, payout request, completion.
func TestPayoutLifecycleEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	a := env.newAffiliate(t, 1, "ABC12345")
	env.setSettings(t, map[string]interface{}{"commission_rate_percent": 10.0, "min_payout_amount": 1000})

	_, err := env.attributionSvc.TrackClick("ABC12345", "visitor-1", "")
	require.NoError(t, err)

	entry, err := env.ledgerSvc.RecordOrder("order-1", "visitor-1", nil, 10000, "")
	require.NoError(t, err)
	require.Equal(t, int64(1000), entry.Amount)
	require.NoError(t, env.ledgerSvc.Approve(entry.ID, 99))

	state := env.reload(t, a.ID)
	require.Equal(t, int64(1000), state.AvailableBalance())

	payout, err := env.payoutSvc.Request(context.Background(), a.ID, 1000, domain.PayoutMethodBankJP)
	require.NoError(t, err)

	// While the payout is open the approved bucket still reads 1000 but a
	// second full withdrawal is impossible.
	state = env.reload(t, a.ID)
	require.Equal(t, int64(1000), state.ApprovedCommission)
	_, err = env.payoutSvc.Request(context.Background(), a.ID, 1000, domain.PayoutMethodBankJP)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	require.NoError(t, env.payoutSvc.Approve(payout.ID, 99))
	require.NoError(t, env.payoutSvc.Process(payout.ID))
	require.NoError(t, env.payoutSvc.Complete(payout.ID, 99, "wire-1"))

	final := env.reload(t, a.ID)
	assert.Zero(t, final.ApprovedCommission)
	assert.Zero(t, final.ReservedCommission)
	assert.Equal(t, int64(1000), final.PaidCommission)
	assert.Equal(t, int64(1000), final.TotalCommission)
	assertLedgerInvariant(t, final)
}
