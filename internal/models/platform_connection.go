package models

import (
	"time"

	"github.com/google/uuid"
)

// Connection statuses
const (
	ConnectionStatusActive  = "active"
	ConnectionStatusExpired = "expired"
	ConnectionStatusRevoked = "revoked"
)

type PlatformConnection struct {
	ID           uuid.UUID      `json:"_id"`
	User         uuid.UUID      `json:"user"`
	Platform     string         `json:"platform"`
	AccessToken  string         `json:"-"`
	RefreshToken *string        `json:"-"`
	ExpiresAt    *time.Time     `json:"expiresAt,omitempty"`
	AccountID    *string        `json:"accountId,omitempty"`
	AccountName  *string        `json:"accountName,omitempty"`
	Status       string         `json:"status"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (p *PlatformConnection) IsActive() bool {
	return p.Status == ConnectionStatusActive
}

// ConnectionSummary is the client-facing view of a connection.
type ConnectionSummary struct {
	Platform    string     `json:"platform"`
	Connected   bool       `json:"connected"`
	AccountID   *string    `json:"accountId,omitempty"`
	AccountName *string    `json:"accountName,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

func (p *PlatformConnection) Summary() ConnectionSummary {
	return ConnectionSummary{
		Platform:    p.Platform,
		Connected:   p.IsActive(),
		AccountID:   p.AccountID,
		AccountName: p.AccountName,
		ExpiresAt:   p.ExpiresAt,
	}
}
