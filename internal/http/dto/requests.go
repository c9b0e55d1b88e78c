package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/campaign-manager/backend/internal/models"
)

// Auth

type RegisterRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,lead_email"`
	Password string  `json:"password" validate:"required,min=6"`
	Company  *string `json:"company,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type UpdateProfileRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty" validate:"omitempty,lead_email"`
	Company *string `json:"company,omitempty"`
}

// Date accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	return &d.Time
}

func (d *Date) Value() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}

// Campaigns

// CampaignRequest is shared by create and update. Absent fields are left
// unchanged on update.
type CampaignRequest struct {
	Name           *string                      `json:"name,omitempty"`
	Description    *string                      `json:"description,omitempty"`
	Objective      *string                      `json:"objective,omitempty"`
	Status         *string                      `json:"status,omitempty"`
	StartDate      *Date                        `json:"startDate,omitempty"`
	EndDate        *Date                        `json:"endDate,omitempty"`
	Budget         *models.Budget               `json:"budget,omitempty"`
	TargetAudience *models.TargetAudience       `json:"targetAudience,omitempty"`
	Platforms      *[]models.PlatformAllocation `json:"platforms,omitempty" validate:"omitempty,max=7"`
	AdCreatives    *[]models.AdCreative         `json:"adCreatives,omitempty"`
	Team           *[]string                    `json:"team,omitempty" validate:"omitempty,dive,uuid"`
	Tags           *[]string                    `json:"tags,omitempty"`
	Notes          *string                      `json:"notes,omitempty"`
}

// Leads

type LeadSourceRequest struct {
	Platform    *string `json:"platform,omitempty"`
	Campaign    *string `json:"campaign,omitempty" validate:"omitempty,uuid"`
	AdCreative  *string `json:"adCreative,omitempty"`
	LandingPage *string `json:"landingPage,omitempty"`
}

type LeadRequest struct {
	FirstName      *string            `json:"firstName,omitempty"`
	LastName       *string            `json:"lastName,omitempty"`
	Email          *string            `json:"email,omitempty"`
	Phone          *string            `json:"phone,omitempty"`
	Status         *string            `json:"status,omitempty"`
	Source         *LeadSourceRequest `json:"source,omitempty"`
	AdditionalInfo *map[string]string `json:"additionalInfo,omitempty"`
	Notes          *string            `json:"notes,omitempty"`
	AssignedTo     *string            `json:"assignedTo,omitempty" validate:"omitempty,uuid"`
	Tags           *[]string          `json:"tags,omitempty"`
}

// Platforms

type ConnectRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	AccountID    string `json:"accountId"`
	AccountName  string `json:"accountName"`
}

type ImportLeadsRequest struct {
	Platform string `json:"platform" validate:"required,oneof=facebook linkedin"`
	FormID   string `json:"formId" validate:"required"`
}
