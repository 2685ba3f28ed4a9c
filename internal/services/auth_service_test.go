package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	*patientFixture
	auth *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	pf := newPatientFixture(t)
	auth := NewAuthService(pf.db, testConfig(), pf.tokens, pf.patients, pf.gateway)
	// Access tokens are verified against the wall clock by jwt, so only the
	// refresh path uses the fixture clock.
	auth.now = utcNow
	return &authFixture{patientFixture: pf, auth: auth}
}

func registerDoctor(t *testing.T, f *authFixture, email string) *models.Doctor {
	t.Helper()
	doctor, err := f.auth.RegisterDoctor(context.Background(), &dto.DoctorRegisterRequest{
		Name: "Dr Meena", Email: email, Password: "password123",
	})
	require.NoError(t, err)
	return doctor
}

func TestRegisterDoctor(t *testing.T) {
	f := newAuthFixture(t)

	doctor := registerDoctor(t, f, "Meena@Example.com")
	assert.Regexp(t, `^DR-[0-9A-Za-z]{27}$`, doctor.UID)
	assert.Equal(t, "meena@example.com", doctor.Email)
	assert.Equal(t, models.RoleDoctor, doctor.Role)

	_, err := f.auth.RegisterDoctor(context.Background(), &dto.DoctorRegisterRequest{
		Name: "Dup", Email: "meena@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterDoctorWithInvite(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	patientInvite, err := f.tokens.CreateInvite(ctx, "DR-ADMIN", models.RolePatient, time.Hour)
	require.NoError(t, err)
	_, err = f.auth.RegisterDoctor(ctx, &dto.DoctorRegisterRequest{
		Name: "X", Email: "x@example.com", Password: "password123", InviteToken: patientInvite.Token,
	})
	assert.ErrorIs(t, err, ErrInviteInvalid)

	doctorInvite, err := f.tokens.CreateInvite(ctx, "DR-ADMIN", models.RoleDoctor, time.Hour)
	require.NoError(t, err)
	_, err = f.auth.RegisterDoctor(ctx, &dto.DoctorRegisterRequest{
		Name: "X", Email: "x@example.com", Password: "password123", InviteToken: doctorInvite.Token,
	})
	assert.NoError(t, err)
}

func TestDoctorLogin(t *testing.T) {
	f := newAuthFixture(t)
	doctor := registerDoctor(t, f, "meena@example.com")

	resp, err := f.auth.Login(context.Background(), &dto.LoginRequest{
		Email: "MEENA@example.com", Password: "password123", Role: models.RoleDoctor,
	})
	require.NoError(t, err)
	assert.Equal(t, doctor.UID, resp.User.ID)
	assert.Equal(t, models.RoleDoctor, resp.User.Role)
	assert.NotEmpty(t, resp.RefreshToken)

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, doctor.UID, claims["sub"])
	assert.Equal(t, "meena@example.com", claims["email"])
	assert.Equal(t, models.RoleDoctor, claims["role"])

	_, err = f.auth.Login(context.Background(), &dto.LoginRequest{
		Email: "meena@example.com", Password: "nope-nope", Role: models.RoleDoctor,
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(context.Background(), &dto.LoginRequest{
		Email: "meena@example.com", Password: "password123", Role: "nurse",
	})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestPatientLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	p := seedPatient(t, f.db, "DR-1", "p@example.com", models.PatientPending, models.DiagnosisPCOS)

	_, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "p@example.com", Password: "password123", Role: models.RolePatient})
	assert.ErrorIs(t, err, ErrPatientPending)

	_, err = f.patients.Approve(ctx, "DR-1", p.ID, ActionApprove)
	require.NoError(t, err)

	resp, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "p@example.com", Password: "password123", Role: models.RolePatient})
	require.NoError(t, err)
	assert.Equal(t, p.ID.String(), resp.User.ID)
	assert.Equal(t, models.RolePatient, resp.User.Role)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	registerDoctor(t, f, "meena@example.com")

	first, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "meena@example.com", Password: "password123", Role: models.RoleDoctor})
	require.NoError(t, err)

	second, err := f.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: "garbage"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	registerDoctor(t, f, "meena@example.com")

	resp, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "meena@example.com", Password: "password123", Role: models.RoleDoctor})
	require.NoError(t, err)

	f.auth.now = func() time.Time { return time.Now().UTC().Add(25 * time.Hour) }
	_, err = f.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRevokes(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	registerDoctor(t, f, "meena@example.com")

	resp, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "meena@example.com", Password: "password123", Role: models.RoleDoctor})
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, &dto.LogoutRequest{RefreshToken: resp.RefreshToken}))
	require.NoError(t, f.auth.Logout(ctx, &dto.LogoutRequest{}))

	_, err = f.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequestPasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	registerDoctor(t, f, "meena@example.com")

	require.NoError(t, f.auth.RequestPasswordReset(ctx, &dto.PasswordResetRequest{Email: "meena@example.com", Role: models.RoleDoctor}))

	msgs := f.gateway.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "meena@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].Text, "https://app.example.com/reset-password?token=")

	code := regexp.MustCompile(`code (\d{6})`).FindStringSubmatch(msgs[0].Text)
	require.Len(t, code, 2)

	var reset models.PasswordReset
	require.NoError(t, f.db.Where("email = ?", "meena@example.com").First(&reset).Error)
	assert.Equal(t, code[1], reset.Code)
	assert.Equal(t, models.RoleDoctor, reset.UserRole)
	assert.Contains(t, string(reset.Data), "DR-")

	require.NoError(t, f.tokens.CompletePasswordReset(ctx, reset.Token, reset.Code, "brand-new-pass"))
	_, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "meena@example.com", Password: "brand-new-pass", Role: models.RoleDoctor})
	assert.NoError(t, err)
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	err := f.auth.RequestPasswordReset(context.Background(), &dto.PasswordResetRequest{Email: "ghost@example.com", Role: models.RolePatient})
	require.NoError(t, err)
	assert.Empty(t, f.gateway.Messages())

	var count int64
	require.NoError(t, f.db.Model(&models.PasswordReset{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListDoctors(t *testing.T) {
	f := newAuthFixture(t)
	registerDoctor(t, f, "a@example.com")
	registerDoctor(t, f, "b@example.com")

	doctors, err := f.auth.ListDoctors(context.Background())
	require.NoError(t, err)
	assert.Len(t, doctors, 2)
}
