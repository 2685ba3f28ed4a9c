package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/siddhasavor/backend/internal/config"
	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/models"
	"github.com/siddhasavor/backend/internal/observability"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInvalidInviteRole = errors.New("invite role must be patient or doctor")
	ErrInviteInvalid     = errors.New("invite link is invalid")
	ErrInviteExpired     = errors.New("invite link has expired")
	ErrResetInvalid      = errors.New("reset token is invalid")
	ErrResetAlreadyUsed  = errors.New("reset token has already been used")
	ErrResetExpired      = errors.New("reset token has expired")
	ErrResetCodeMismatch = errors.New("reset code does not match")
	ErrWeakPassword      = errors.New("password must be at least 8 characters")
)

type TokenService struct {
	db  *gorm.DB
	cfg *config.Config
	now func() time.Time
}

func NewTokenService(db *gorm.DB, cfg *config.Config) *TokenService {
	return &TokenService{db: db, cfg: cfg, now: utcNow}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// CreateInvite issues an invite for doctorUID. A non-positive ttl falls back
// to the configured default.
func (s *TokenService) CreateInvite(ctx context.Context, doctorUID, role string, ttl time.Duration) (*dto.InviteResponse, error) {
	defer observability.FromContext(ctx).Time(ctx, "invites.create")()

	if role == "" {
		role = models.RolePatient
	}
	if role != models.RolePatient && role != models.RoleDoctor {
		return nil, ErrInvalidInviteRole
	}
	if ttl <= 0 {
		ttl = s.cfg.InviteTTL
	}

	now := s.now()
	invite := models.InviteLink{
		Token:     ksuid.New().String(),
		Role:      role,
		DoctorUID: doctorUID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&invite).Error; err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	return &dto.InviteResponse{
		Token:     invite.Token,
		URL:       s.registrationURL(invite.Token),
		ExpiresAt: invite.ExpiresAt,
	}, nil
}

func (s *TokenService) registrationURL(token string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/register?token=" + token
}

// InviteStatus reports ACTIVE or EXPIRED for a stored token.
func (s *TokenService) InviteStatus(ctx context.Context, token string) (models.InviteStatus, error) {
	invite, err := s.findInvite(ctx, token)
	if err != nil {
		return "", err
	}
	return invite.Status(s.now()), nil
}

// ResolveInvite returns the invite only when it exists, matches role and is
// still active.
func (s *TokenService) ResolveInvite(ctx context.Context, token, role string) (*models.InviteLink, error) {
	invite, err := s.findInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	if role != "" && invite.Role != role {
		return nil, ErrInviteInvalid
	}
	if invite.Status(s.now()) != models.InviteActive {
		return nil, ErrInviteExpired
	}
	return invite, nil
}

func (s *TokenService) findInvite(ctx context.Context, token string) (*models.InviteLink, error) {
	if token == "" {
		return nil, ErrInviteInvalid
	}
	var invite models.InviteLink
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteInvalid
		}
		return nil, fmt.Errorf("failed to load invite: %w", err)
	}
	return &invite, nil
}

func (s *TokenService) Summarize(invite *models.InviteLink, now time.Time) dto.InviteSummary {
	return dto.InviteSummary{
		Token:          invite.Token,
		Role:           invite.Role,
		DoctorUID:      invite.DoctorUID,
		ExpiresAt:      invite.ExpiresAt,
		CreatedAt:      invite.CreatedAt,
		Status:         string(invite.Status(now)),
		HoursRemaining: models.HoursRemaining(invite.ExpiresAt, now),
	}
}

func (s *TokenService) ListInvites(ctx context.Context) ([]dto.InviteSummary, error) {
	var invites []models.InviteLink
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}

	now := s.now()
	summaries := make([]dto.InviteSummary, len(invites))
	for i := range invites {
		summaries[i] = s.Summarize(&invites[i], now)
	}
	return summaries, nil
}

// CreatePasswordReset stores a fresh token/code pair. payload is kept as JSON
// so completion does not need to look the account up again.
func (s *TokenService) CreatePasswordReset(ctx context.Context, email, role string, payload map[string]interface{}) (*models.PasswordReset, error) {
	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	code, err := randomCode()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reset payload: %w", err)
	}

	reset := models.PasswordReset{
		Email:     strings.ToLower(email),
		Token:     token,
		Code:      code,
		UserRole:  role,
		Data:      datatypes.JSON(data),
		IsUsed:    false,
		ExpiresAt: s.now().Add(s.cfg.PasswordResetTTL),
	}
	if err := s.db.WithContext(ctx).Create(&reset).Error; err != nil {
		return nil, fmt.Errorf("failed to store password reset: %w", err)
	}
	return &reset, nil
}

// VerifyResetToken checks a token without consuming it. Checks run in a fixed
// order: unknown, used, expired, wrong code.
func (s *TokenService) VerifyResetToken(ctx context.Context, token, code string) (*models.PasswordReset, error) {
	if token == "" {
		return nil, ErrResetInvalid
	}

	var reset models.PasswordReset
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResetInvalid
		}
		return nil, fmt.Errorf("failed to load reset token: %w", err)
	}

	if reset.IsUsed {
		return nil, ErrResetAlreadyUsed
	}
	if !reset.ExpiresAt.After(s.now()) {
		return nil, ErrResetExpired
	}
	if subtle.ConstantTimeCompare([]byte(reset.Code), []byte(code)) != 1 {
		return nil, ErrResetCodeMismatch
	}
	return &reset, nil
}

// ClaimResetToken marks the token used in one conditional update. It reports
// false when another caller claimed it first or it is no longer valid.
func ClaimResetToken(tx *gorm.DB, token, code string, now time.Time) (bool, error) {
	result := tx.Model(&models.PasswordReset{}).
		Where("token = ? AND code = ? AND is_used = ? AND expires_at > ?", token, code, false, now).
		Updates(map[string]interface{}{
			"is_used":    true,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim reset token: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// CompletePasswordReset verifies the token, then claims it and writes the new
// password hash in the same transaction.
func (s *TokenService) CompletePasswordReset(ctx context.Context, token, code, newPassword string) error {
	defer observability.FromContext(ctx).Time(ctx, "password_reset.complete")()

	if len(newPassword) < 8 {
		return ErrWeakPassword
	}

	reset, err := s.VerifyResetToken(ctx, token, code)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := ClaimResetToken(tx, token, code, s.now())
		if err != nil {
			return err
		}
		if !claimed {
			return ErrResetAlreadyUsed
		}

		var target interface{}
		switch reset.UserRole {
		case models.RoleDoctor:
			target = &models.Doctor{}
		case models.RolePatient:
			target = &models.Patient{}
		default:
			return ErrResetInvalid
		}

		result := tx.Model(target).Where("email = ?", reset.Email).Update("password_hash", string(hash))
		if result.Error != nil {
			return fmt.Errorf("failed to update password: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrResetInvalid
		}
		return nil
	})
}

// CleanupExpiredTokens deletes every reset row with expires_at <= now.
func (s *TokenService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.PasswordReset{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clean up reset tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *TokenService) GetResetStats(ctx context.Context) (dto.ResetStats, error) {
	var stats dto.ResetStats
	now := s.now()
	db := s.db.WithContext(ctx).Model(&models.PasswordReset{})

	if err := db.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return stats, fmt.Errorf("failed to count reset tokens: %w", err)
	}
	if err := db.Session(&gorm.Session{}).Where("is_used = ?", true).Count(&stats.Used).Error; err != nil {
		return stats, fmt.Errorf("failed to count used reset tokens: %w", err)
	}
	if err := db.Session(&gorm.Session{}).Where("is_used = ? AND expires_at <= ?", false, now).Count(&stats.Expired).Error; err != nil {
		return stats, fmt.Errorf("failed to count expired reset tokens: %w", err)
	}
	if err := db.Session(&gorm.Session{}).Where("is_used = ? AND expires_at > ?", false, now).Count(&stats.Active).Error; err != nil {
		return stats, fmt.Errorf("failed to count active reset tokens: %w", err)
	}
	return stats, nil
}

func randomToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
