package dto

import "time"

type CreateInviteRequest struct {
	Role     string  `json:"role,omitempty" validate:"omitempty,oneof=patient doctor"`
	TTLHours float64 `json:"ttlHours,omitempty" validate:"gte=0,lte=720"`
}

type InviteResponse struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type InviteSummary struct {
	Token          string    `json:"token"`
	Role           string    `json:"role"`
	DoctorUID      string    `json:"doctorUid"`
	ExpiresAt      time.Time `json:"expiresAt"`
	CreatedAt      time.Time `json:"createdAt"`
	Status         string    `json:"status"`
	HoursRemaining float64   `json:"hoursRemaining"`
}

type ResetStats struct {
	Total   int64 `json:"total"`
	Used    int64 `json:"used"`
	Expired int64 `json:"expired"`
	Active  int64 `json:"active"`
}

type CleanupResult struct {
	CleanedTokens int64      `json:"cleanedTokens"`
	Stats         ResetStats `json:"stats"`
}
