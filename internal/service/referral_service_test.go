package service

import (
	"sync"
	"testing"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollGeneratesUniqueCodes(t *testing.T) {
	env := newTestEnv(t)

	seen := make(map[string]bool)
	for i := 1; i <= 50; i++ {
		a, err := env.referralSvc.Enroll(uint(i), "Affiliate", "a@example.com")
		require.NoError(t, err)
		require.Len(t, a.ReferralCode, domain.ReferralCodeLength)
		for _, ch := range a.ReferralCode {
			assert.Contains(t, codeAlphabet, string(ch))
		}
		assert.False(t, seen[a.ReferralCode], "duplicate code %s", a.ReferralCode)
		seen[a.ReferralCode] = true
	}
}

func TestEnrollIsIdempotentPerUser(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.referralSvc.Enroll(7, "Affiliate", "a@example.com")
	require.NoError(t, err)
	second, err := env.referralSvc.Enroll(7, "Affiliate", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ReferralCode, second.ReferralCode)
}

func TestConcurrentEnrollmentNeverSharesCodes(t *testing.T) {
	env := newTestEnv(t)

	const n = 20
	var wg sync.WaitGroup
	codes := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := env.referralSvc.Enroll(uint(100+i), "Affiliate", "a@example.com")
			if err == nil {
				codes[i] = a.ReferralCode
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, code := range codes {
		require.NotEmpty(t, code)
		require.False(t, seen[code], "two affiliates share code %s", code)
		seen[code] = true
	}
}

func TestEnrollSurfacesStorageErrors(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Migrator().DropTable(&models.Affiliate{}))

	_, err := env.referralSvc.Enroll(1, "Affiliate", "a@example.com")
	require.Error(t, err)
	// The real failure comes through, not a code-allocation message.
	assert.NotContains(t, err.Error(), "referral code")
}

func TestResolve(t *testing.T) {
	env := newTestEnv(t)
	a := env.newAffiliate(t, 1, "ABC12345")

	got, err := env.referralSvc.Resolve("ABC12345")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = env.referralSvc.Resolve("NOPE0000")
	assert.ErrorIs(t, err, domain.ErrInvalidReferralCode)
}
