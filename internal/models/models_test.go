package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, InviteActive, StatusOf(now.Add(time.Second), now))
	assert.Equal(t, InviteExpired, StatusOf(now, now))
	assert.Equal(t, InviteExpired, StatusOf(now.Add(-time.Hour), now))

	invite := InviteLink{ExpiresAt: now.Add(48 * time.Hour)}
	assert.Equal(t, InviteActive, invite.Status(now))
	assert.Equal(t, InviteExpired, invite.Status(now.Add(48*time.Hour)))
}

func TestHoursRemaining(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      float64
	}{
		{"whole hours", now.Add(48 * time.Hour), 48},
		{"rounded", now.Add(90*time.Minute + 20*time.Second), 1.51},
		{"expired", now.Add(-time.Minute), 0},
		{"at expiry", now, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, HoursRemaining(tt.expiresAt, now), 1e-9)
		})
	}
}

func TestParseMealType(t *testing.T) {
	for in, want := range map[string]MealType{
		"breakfast": MealBreakfast,
		" Lunch ":   MealLunch,
		"DINNER":    MealDinner,
	} {
		got, ok := ParseMealType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}

	_, ok := ParseMealType("supper")
	assert.False(t, ok)
	_, ok = ParseMealType("")
	assert.False(t, ok)
}

func TestDiagnosisAndStatusValid(t *testing.T) {
	for _, d := range Diagnoses {
		assert.True(t, d.Valid(), d)
	}
	assert.False(t, Diagnosis("diabetes").Valid())
	assert.False(t, Diagnosis("FLU").Valid())

	assert.True(t, PatientPending.Valid())
	assert.True(t, PatientApproved.Valid())
	assert.False(t, PatientStatus("REJECTED").Valid())
}

func TestPasswordResetUsable(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	r := PasswordReset{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, r.Usable(now))

	r.IsUsed = true
	assert.False(t, r.Usable(now))

	r = PasswordReset{ExpiresAt: now}
	assert.False(t, r.Usable(now))
}
