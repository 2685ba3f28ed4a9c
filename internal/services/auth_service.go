package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/segmentio/ksuid"
	"github.com/siddhasavor/backend/internal/config"
	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/models"
	"github.com/siddhasavor/backend/internal/notify"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrPatientPending     = errors.New("registration is awaiting doctor approval")
	ErrInvalidRole        = errors.New("role must be doctor or patient")
)

type AuthService struct {
	db       *gorm.DB
	cfg      *config.Config
	tokens   *TokenService
	patients *PatientService
	gateway  notify.Gateway
	now      func() time.Time
}

func NewAuthService(db *gorm.DB, cfg *config.Config, tokens *TokenService, patients *PatientService, gateway notify.Gateway) *AuthService {
	return &AuthService{
		db:       db,
		cfg:      cfg,
		tokens:   tokens,
		patients: patients,
		gateway:  gateway,
		now:      utcNow,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterDoctor creates a doctor account. When an invite token is supplied it
// must be an active doctor invite.
func (s *AuthService) RegisterDoctor(ctx context.Context, req *dto.DoctorRegisterRequest) (*models.Doctor, error) {
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}
	if req.InviteToken != "" {
		if _, err := s.tokens.ResolveInvite(ctx, req.InviteToken, models.RoleDoctor); err != nil {
			return nil, err
		}
	}

	email := normalizeEmail(req.Email)
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Doctor{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	doctor := models.Doctor{
		UID:          "DR-" + ksuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleDoctor,
	}
	if err := s.db.WithContext(ctx).Create(&doctor).Error; err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}
	return &doctor, nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	switch req.Role {
	case models.RoleDoctor:
		var doctor models.Doctor
		if err := s.db.WithContext(ctx).Where("email = ?", email).First(&doctor).Error; err != nil {
			return nil, ErrInvalidCredentials
		}
		if err := bcrypt.CompareHashAndPassword([]byte(doctor.PasswordHash), []byte(req.Password)); err != nil {
			return nil, ErrInvalidCredentials
		}
		return s.generateTokenPair(ctx, principal{
			Subject: doctor.UID, Name: doctor.Name, Email: doctor.Email, Role: doctor.Role,
		})

	case models.RolePatient:
		patient, err := s.patients.Authenticate(ctx, email, req.Password)
		if err != nil {
			return nil, err
		}
		return s.generateTokenPair(ctx, principal{
			Subject: patient.ID.String(), Name: patient.Name, Email: patient.Email, Role: models.RolePatient,
		})

	default:
		return nil, ErrInvalidRole
	}
}

func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token_hash = ? AND revoked = ?", tokenHash, false).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	// Revoke before issuing so a replayed token cannot mint a second pair.
	result := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ? AND revoked = ?", stored.ID, false).
		Update("revoked", true)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", result.Error)
	}
	if result.RowsAffected == 0 || !stored.ExpiresAt.After(s.now()) {
		return nil, ErrInvalidToken
	}

	p, err := s.lookupPrincipal(ctx, stored.Subject, stored.Role)
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(ctx, *p)
}

// Logout revokes the refresh token when one is given.
func (s *AuthService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	if req.RefreshToken == "" {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", hashToken(req.RefreshToken)).
		Update("revoked", true).Error
}

func (s *AuthService) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	var doctors []models.Doctor
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&doctors).Error; err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

// RequestPasswordReset emails a reset link and code when the account exists.
// Unknown emails succeed silently so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, req *dto.PasswordResetRequest) error {
	email := normalizeEmail(req.Email)

	var payload map[string]interface{}
	switch req.Role {
	case models.RoleDoctor:
		var doctor models.Doctor
		if err := s.db.WithContext(ctx).Where("email = ?", email).First(&doctor).Error; err != nil {
			return ignoreNotFound(err)
		}
		payload = map[string]interface{}{"subject": doctor.UID, "name": doctor.Name}
	case models.RolePatient:
		var patient models.Patient
		if err := s.db.WithContext(ctx).Where("email = ?", email).First(&patient).Error; err != nil {
			return ignoreNotFound(err)
		}
		payload = map[string]interface{}{"subject": patient.ID.String(), "name": patient.Name}
	default:
		return ErrInvalidRole
	}

	reset, err := s.tokens.CreatePasswordReset(ctx, email, req.Role, payload)
	if err != nil {
		return err
	}

	url := strings.TrimRight(s.cfg.BaseURL, "/") + "/reset-password?token=" + reset.Token
	msg := notify.ComposePasswordReset(email, url, reset.Code, s.cfg.PasswordResetTTL.String())
	if err := s.gateway.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return fmt.Errorf("failed to look up account: %w", err)
}

type principal struct {
	Subject string
	Name    string
	Email   string
	Role    string
}

func (s *AuthService) lookupPrincipal(ctx context.Context, subject, role string) (*principal, error) {
	switch role {
	case models.RoleDoctor, models.RoleAdmin:
		var doctor models.Doctor
		if err := s.db.WithContext(ctx).Where("uid = ?", subject).First(&doctor).Error; err != nil {
			return nil, ErrInvalidToken
		}
		return &principal{Subject: doctor.UID, Name: doctor.Name, Email: doctor.Email, Role: doctor.Role}, nil
	case models.RolePatient:
		var patient models.Patient
		if err := s.db.WithContext(ctx).Where("id = ?", subject).First(&patient).Error; err != nil {
			return nil, ErrInvalidToken
		}
		if patient.Status != models.PatientApproved {
			return nil, ErrPatientPending
		}
		return &principal{Subject: patient.ID.String(), Name: patient.Name, Email: patient.Email, Role: models.RolePatient}, nil
	default:
		return nil, ErrInvalidToken
	}
}

func (s *AuthService) generateTokenPair(ctx context.Context, p principal) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(p)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, p)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			ID:    p.Subject,
			Name:  p.Name,
			Email: p.Email,
			Role:  p.Role,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(p principal) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   p.Subject,
		"email": p.Email,
		"role":  p.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, p principal) (string, error) {
	rawToken, err := randomToken()
	if err != nil {
		return "", err
	}

	record := models.RefreshToken{
		Subject:   p.Subject,
		Role:      p.Role,
		TokenHash: hashToken(rawToken),
		ExpiresAt: s.now().Add(s.cfg.JWTRefreshExpiry),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	slog.DebugContext(ctx, "refresh token issued", "subject", p.Subject, "role", p.Role)
	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
