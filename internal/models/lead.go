package models

import (
	"encoding/json"
	"regexp"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Lead statuses
const (
	LeadStatusNew          = "new"
	LeadStatusContacted    = "contacted"
	LeadStatusQualified    = "qualified"
	LeadStatusConverted    = "converted"
	LeadStatusDisqualified = "disqualified"
)

var LeadStatuses = []string{
	LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
	LeadStatusConverted, LeadStatusDisqualified,
}

// LeadSourcePlatforms are the ad platforms plus "other".
var LeadSourcePlatforms = append(slices.Clone(AdPlatforms), PlatformOther)

var emailPattern = regexp.MustCompile(`^\w+([\.-]?\w+)*@\w+([\.-]?\w+)*(\.\w{2,3})+$`)

func IsValidEmail(s string) bool              { return emailPattern.MatchString(s) }
func IsValidLeadStatus(s string) bool         { return slices.Contains(LeadStatuses, s) }
func IsValidLeadSourcePlatform(s string) bool { return slices.Contains(LeadSourcePlatforms, s) }

type LeadSource struct {
	Platform     string    `json:"platform"`
	Campaign     uuid.UUID `json:"campaign"`
	CampaignName string    `json:"-"` // resolved on read
	AdCreative   string    `json:"adCreative,omitempty"`
	LandingPage  string    `json:"landingPage,omitempty"`
}

// CampaignRef is a populated campaign reference.
type CampaignRef struct {
	ID   uuid.UUID `json:"_id"`
	Name string    `json:"name"`
}

// MarshalJSON emits the campaign as {_id, name} once its name is resolved,
// and as a bare id otherwise.
func (s LeadSource) MarshalJSON() ([]byte, error) {
	type alias LeadSource
	if s.CampaignName == "" {
		return json.Marshal(alias(s))
	}
	return json.Marshal(struct {
		alias
		Campaign CampaignRef `json:"campaign"`
	}{alias(s), CampaignRef{ID: s.Campaign, Name: s.CampaignName}})
}

type Lead struct {
	ID             uuid.UUID         `json:"_id"`
	FirstName      string            `json:"firstName"`
	LastName       string            `json:"lastName,omitempty"`
	Email          string            `json:"email"`
	Phone          string            `json:"phone,omitempty"`
	Status         string            `json:"status"`
	Source         LeadSource        `json:"source"`
	AdditionalInfo map[string]string `json:"additionalInfo,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	Owner          uuid.UUID         `json:"owner"`
	AssignedTo     *uuid.UUID        `json:"assignedTo,omitempty"`
	Tags           []string          `json:"tags"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func (l *Lead) ApplyDefaults() {
	if l.Status == "" {
		l.Status = LeadStatusNew
	}
	if l.Tags == nil {
		l.Tags = []string{}
	}
}
