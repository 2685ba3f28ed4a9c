package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/siddhasavor/backend/internal/config"
	"github.com/siddhasavor/backend/internal/models"
	"github.com/siddhasavor/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:             "test-secret",
		JWTAccessExpiry:       15 * time.Minute,
		JWTRefreshExpiry:      24 * time.Hour,
		BaseURL:               "https://app.example.com/",
		InviteTTL:             48 * time.Hour,
		PasswordResetTTL:      time.Hour,
		ReminderMaxAttempts:   3,
		ReminderRetryInterval: time.Millisecond,
	}
}

func clock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func newTokenService(t *testing.T) (*TokenService, *gorm.DB, *time.Time) {
	t.Helper()
	db := testutil.NewDB(t)
	now := fixedNow
	svc := NewTokenService(db, testConfig())
	svc.now = clock(&now)
	return svc, db, &now
}

func TestCreateInvite(t *testing.T) {
	svc, db, _ := newTokenService(t)
	ctx := context.Background()

	resp, err := svc.CreateInvite(ctx, "DR-1", "", 0)
	require.NoError(t, err)

	assert.Len(t, resp.Token, 27)
	assert.Equal(t, "https://app.example.com/register?token="+resp.Token, resp.URL)
	assert.True(t, resp.ExpiresAt.Equal(fixedNow.Add(48*time.Hour)))

	var stored models.InviteLink
	require.NoError(t, db.Where("token = ?", resp.Token).First(&stored).Error)
	assert.Equal(t, models.RolePatient, stored.Role)
	assert.Equal(t, "DR-1", stored.DoctorUID)
}

func TestCreateInviteRejectsUnknownRole(t *testing.T) {
	svc, _, _ := newTokenService(t)

	_, err := svc.CreateInvite(context.Background(), "DR-1", "nurse", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidInviteRole)
}

func TestInviteExpiresByTime(t *testing.T) {
	svc, _, now := newTokenService(t)
	ctx := context.Background()

	resp, err := svc.CreateInvite(ctx, "DR-1", models.RolePatient, 2*time.Hour)
	require.NoError(t, err)

	status, err := svc.InviteStatus(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InviteActive, status)

	*now = fixedNow.Add(2 * time.Hour)
	status, err = svc.InviteStatus(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InviteExpired, status)

	_, err = svc.ResolveInvite(ctx, resp.Token, models.RolePatient)
	assert.ErrorIs(t, err, ErrInviteExpired)
}

func TestResolveInvite(t *testing.T) {
	svc, _, _ := newTokenService(t)
	ctx := context.Background()

	resp, err := svc.CreateInvite(ctx, "DR-1", models.RoleDoctor, time.Hour)
	require.NoError(t, err)

	invite, err := svc.ResolveInvite(ctx, resp.Token, models.RoleDoctor)
	require.NoError(t, err)
	assert.Equal(t, "DR-1", invite.DoctorUID)

	_, err = svc.ResolveInvite(ctx, resp.Token, models.RolePatient)
	assert.ErrorIs(t, err, ErrInviteInvalid)

	_, err = svc.ResolveInvite(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrInviteInvalid)

	_, err = svc.ResolveInvite(ctx, "", "")
	assert.ErrorIs(t, err, ErrInviteInvalid)
}

func TestListInvites(t *testing.T) {
	svc, _, now := newTokenService(t)
	ctx := context.Background()

	_, err := svc.CreateInvite(ctx, "DR-1", "", time.Hour)
	require.NoError(t, err)
	*now = fixedNow.Add(time.Minute)
	_, err = svc.CreateInvite(ctx, "DR-2", "", 3*time.Hour)
	require.NoError(t, err)

	*now = fixedNow.Add(90 * time.Minute)
	list, err := svc.ListInvites(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "DR-2", list[0].DoctorUID)
	assert.Equal(t, string(models.InviteActive), list[0].Status)
	assert.InDelta(t, 1.52, list[0].HoursRemaining, 0.001)

	assert.Equal(t, "DR-1", list[1].DoctorUID)
	assert.Equal(t, string(models.InviteExpired), list[1].Status)
	assert.Zero(t, list[1].HoursRemaining)
}

func TestCreatePasswordReset(t *testing.T) {
	svc, _, _ := newTokenService(t)

	reset, err := svc.CreatePasswordReset(context.Background(), "Asha@Example.com", models.RolePatient, map[string]interface{}{"name": "Asha"})
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", reset.Email)
	assert.Len(t, reset.Code, 6)
	assert.Regexp(t, `^[0-9]{6}$`, reset.Code)
	assert.Len(t, reset.Token, 43)
	assert.False(t, reset.IsUsed)
	assert.True(t, reset.ExpiresAt.Equal(fixedNow.Add(time.Hour)))
	assert.JSONEq(t, `{"name":"Asha"}`, string(reset.Data))
}

func TestVerifyResetTokenOrder(t *testing.T) {
	svc, db, now := newTokenService(t)
	ctx := context.Background()

	reset, err := svc.CreatePasswordReset(ctx, "a@example.com", models.RoleDoctor, nil)
	require.NoError(t, err)

	_, err = svc.VerifyResetToken(ctx, "unknown", reset.Code)
	assert.ErrorIs(t, err, ErrResetInvalid)

	_, err = svc.VerifyResetToken(ctx, reset.Token, "000000x")
	assert.ErrorIs(t, err, ErrResetCodeMismatch)

	got, err := svc.VerifyResetToken(ctx, reset.Token, reset.Code)
	require.NoError(t, err)
	assert.Equal(t, reset.ID, got.ID)

	*now = fixedNow.Add(time.Hour)
	_, err = svc.VerifyResetToken(ctx, reset.Token, "wrong!")
	assert.ErrorIs(t, err, ErrResetExpired)

	// A used token reports used even before it expires.
	*now = fixedNow
	require.NoError(t, db.Model(&models.PasswordReset{}).Where("id = ?", reset.ID).Update("is_used", true).Error)
	_, err = svc.VerifyResetToken(ctx, reset.Token, reset.Code)
	assert.ErrorIs(t, err, ErrResetAlreadyUsed)
}

func TestClaimResetTokenOnce(t *testing.T) {
	svc, db, _ := newTokenService(t)
	ctx := context.Background()

	reset, err := svc.CreatePasswordReset(ctx, "a@example.com", models.RoleDoctor, nil)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claimed int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := ClaimResetToken(db, reset.Token, reset.Code, fixedNow)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, claimed)
}

func TestClaimResetTokenRejectsExpired(t *testing.T) {
	svc, db, _ := newTokenService(t)

	reset, err := svc.CreatePasswordReset(context.Background(), "a@example.com", models.RoleDoctor, nil)
	require.NoError(t, err)

	ok, err := ClaimResetToken(db, reset.Token, reset.Code, fixedNow.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompletePasswordReset(t *testing.T) {
	svc, db, _ := newTokenService(t)
	ctx := context.Background()

	doctor := models.Doctor{UID: "DR-1", Name: "Dr Meena", Email: "meena@example.com", PasswordHash: "old", Role: models.RoleDoctor}
	require.NoError(t, db.Create(&doctor).Error)

	reset, err := svc.CreatePasswordReset(ctx, doctor.Email, models.RoleDoctor, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.CompletePasswordReset(ctx, reset.Token, reset.Code, "short"), ErrWeakPassword)

	require.NoError(t, svc.CompletePasswordReset(ctx, reset.Token, reset.Code, "new-password"))

	var updated models.Doctor
	require.NoError(t, db.First(&updated, "uid = ?", "DR-1").Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("new-password")))

	err = svc.CompletePasswordReset(ctx, reset.Token, reset.Code, "another-password")
	assert.ErrorIs(t, err, ErrResetAlreadyUsed)
}

func TestCompletePasswordResetUnknownAccount(t *testing.T) {
	svc, db, _ := newTokenService(t)
	ctx := context.Background()

	reset, err := svc.CreatePasswordReset(ctx, "ghost@example.com", models.RolePatient, nil)
	require.NoError(t, err)

	err = svc.CompletePasswordReset(ctx, reset.Token, reset.Code, "new-password")
	assert.ErrorIs(t, err, ErrResetInvalid)

	// The claim rolls back with the failed update.
	var stored models.PasswordReset
	require.NoError(t, db.First(&stored, "id = ?", reset.ID).Error)
	assert.False(t, stored.IsUsed)
}

func TestCleanupExpiredTokens(t *testing.T) {
	svc, _, now := newTokenService(t)
	ctx := context.Background()

	_, err := svc.CreatePasswordReset(ctx, "a@example.com", models.RoleDoctor, nil)
	require.NoError(t, err)
	*now = fixedNow.Add(30 * time.Minute)
	_, err = svc.CreatePasswordReset(ctx, "b@example.com", models.RoleDoctor, nil)
	require.NoError(t, err)

	*now = fixedNow.Add(time.Hour)
	removed, err := svc.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = svc.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	stats, err := svc.GetResetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.Active)
}

func TestGetResetStats(t *testing.T) {
	svc, db, now := newTokenService(t)
	ctx := context.Background()

	used, err := svc.CreatePasswordReset(ctx, "a@example.com", models.RoleDoctor, nil)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.PasswordReset{}).Where("id = ?", used.ID).Update("is_used", true).Error)

	_, err = svc.CreatePasswordReset(ctx, "b@example.com", models.RoleDoctor, nil)
	require.NoError(t, err)

	*now = fixedNow.Add(2 * time.Hour)
	_, err = svc.CreatePasswordReset(ctx, "c@example.com", models.RoleDoctor, nil)
	require.NoError(t, err)

	stats, err := svc.GetResetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Used)
	assert.Equal(t, int64(1), stats.Expired)
	assert.Equal(t, int64(1), stats.Active)
}
