package models

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Campaign statuses
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
	CampaignStatusArchived  = "archived"
)

var CampaignStatuses = []string{
	CampaignStatusDraft, CampaignStatusActive, CampaignStatusPaused,
	CampaignStatusCompleted, CampaignStatusArchived,
}

var CampaignObjectives = []string{
	"awareness", "consideration", "conversion", "traffic", "engagement",
	"app_installs", "video_views", "lead_generation", "messages", "sales",
}

// Ad platforms
const (
	PlatformFacebook  = "facebook"
	PlatformGoogle    = "google"
	PlatformLinkedIn  = "linkedin"
	PlatformTwitter   = "twitter"
	PlatformSnapchat  = "snapchat"
	PlatformYouTube   = "youtube"
	PlatformInstagram = "instagram"
	PlatformOther     = "other" // lead sources only
)

var AdPlatforms = []string{
	PlatformFacebook, PlatformGoogle, PlatformLinkedIn, PlatformTwitter,
	PlatformSnapchat, PlatformYouTube, PlatformInstagram,
}

// Allocation statuses
const (
	AllocationStatusPending   = "pending"
	AllocationStatusActive    = "active"
	AllocationStatusPaused    = "paused"
	AllocationStatusCompleted = "completed"
	AllocationStatusError     = "error"
)

var AllocationStatuses = []string{
	AllocationStatusPending, AllocationStatusActive, AllocationStatusPaused,
	AllocationStatusCompleted, AllocationStatusError,
}

var CreativeTypes = []string{"image", "video", "carousel", "text"}

var Genders = []string{"male", "female", "all"}

func IsValidCampaignStatus(s string) bool { return slices.Contains(CampaignStatuses, s) }
func IsValidObjective(s string) bool      { return slices.Contains(CampaignObjectives, s) }
func IsValidPlatform(s string) bool       { return slices.Contains(AdPlatforms, s) }

type Budget struct {
	Total    float64  `json:"total"`
	Daily    *float64 `json:"daily,omitempty"`
	Currency string   `json:"currency"`
}

type AgeRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

type Location struct {
	Country string `json:"country,omitempty"`
	State   string `json:"state,omitempty"`
	City    string `json:"city,omitempty"`
}

type TargetAudience struct {
	AgeRange        *AgeRange  `json:"ageRange,omitempty"`
	Gender          []string   `json:"gender,omitempty"`
	Locations       []Location `json:"locations,omitempty"`
	Interests       []string   `json:"interests,omitempty"`
	Languages       []string   `json:"languages,omitempty"`
	CustomAudiences []string   `json:"customAudiences,omitempty"`
}

type PlatformAllocation struct {
	Name               string    `json:"name"`
	Status             string    `json:"status"`
	PlatformCampaignID string    `json:"platformCampaignId,omitempty"`
	Budget             float64   `json:"budget"`
	Metrics            Metrics   `json:"metrics"`
	LastUpdated        time.Time `json:"lastUpdated"`
}

type AdCreative struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Headline       string   `json:"headline,omitempty"`
	Description    string   `json:"description,omitempty"`
	MediaURL       string   `json:"mediaUrl,omitempty"`
	CallToAction   string   `json:"callToAction,omitempty"`
	DestinationURL string   `json:"destinationUrl,omitempty"`
	Platforms      []string `json:"platforms,omitempty"`
}

type Campaign struct {
	ID             uuid.UUID            `json:"_id"`
	Name           string               `json:"name"`
	Description    string               `json:"description,omitempty"`
	Objective      string               `json:"objective"`
	Status         string               `json:"status"`
	StartDate      time.Time            `json:"startDate"`
	EndDate        time.Time            `json:"endDate"`
	Budget         Budget               `json:"budget"`
	TargetAudience TargetAudience       `json:"targetAudience"`
	Platforms      []PlatformAllocation `json:"platforms"`
	AdCreatives    []AdCreative         `json:"adCreatives"`
	Leads          []uuid.UUID          `json:"leads"`
	Owner          uuid.UUID            `json:"owner"`
	Team           []uuid.UUID          `json:"team"`
	Tags           []string             `json:"tags"`
	Notes          string               `json:"notes,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// TotalMetrics sums every platform allocation. It is derived on read and never stored.
func (c *Campaign) TotalMetrics() Metrics {
	items := make([]Metrics, 0, len(c.Platforms))
	for _, p := range c.Platforms {
		items = append(items, p.Metrics)
	}
	return SumMetrics(items)
}

// HasLead reports whether id is in the campaign's lead back-references.
func (c *Campaign) HasLead(id uuid.UUID) bool {
	return slices.Contains(c.Leads, id)
}

// MarshalJSON adds the derived totalMetrics block to the stored fields.
func (c Campaign) MarshalJSON() ([]byte, error) {
	type alias Campaign
	return json.Marshal(struct {
		alias
		TotalMetrics Metrics `json:"totalMetrics"`
	}{alias(c), c.TotalMetrics()})
}

// ApplyDefaults fills the values a freshly created campaign starts with.
func (c *Campaign) ApplyDefaults(now time.Time) {
	if c.Status == "" {
		c.Status = CampaignStatusDraft
	}
	if c.Budget.Currency == "" {
		c.Budget.Currency = "USD"
	}
	for i := range c.Platforms {
		if c.Platforms[i].Status == "" {
			c.Platforms[i].Status = AllocationStatusPending
		}
		if c.Platforms[i].LastUpdated.IsZero() {
			c.Platforms[i].LastUpdated = now
		}
	}
	if c.Platforms == nil {
		c.Platforms = []PlatformAllocation{}
	}
	if c.AdCreatives == nil {
		c.AdCreatives = []AdCreative{}
	}
	if c.Leads == nil {
		c.Leads = []uuid.UUID{}
	}
	if c.Team == nil {
		c.Team = []uuid.UUID{}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
}
