package models

import (
	"time"

	"github.com/google/uuid"
)

// CountBucket is one group of a count-by aggregation.
type CountBucket struct {
	Key   string `json:"_id"`
	Count int64  `json:"count"`
}

type CampaignLeadCount struct {
	CampaignID   uuid.UUID `json:"_id"`
	CampaignName string    `json:"campaignName"`
	Count        int64     `json:"count"`
}

// DailyCount is the number of leads created on one UTC day (YYYY-MM-DD).
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type PlatformFunnel struct {
	Platform          string  `json:"platform"`
	Impressions       int64   `json:"impressions"`
	Clicks            int64   `json:"clicks"`
	Conversions       int64   `json:"conversions"`
	Spend             float64 `json:"spend"`
	CTR               float64 `json:"ctr"`
	ConversionRate    float64 `json:"conversionRate"`
	CostPerConversion float64 `json:"costPerConversion"`
}

// NewPlatformFunnel derives the funnel ratios from summed counters.
func NewPlatformFunnel(platform string, m Metrics) PlatformFunnel {
	return PlatformFunnel{
		Platform:          platform,
		Impressions:       m.Impressions,
		Clicks:            m.Clicks,
		Conversions:       m.Conversions,
		Spend:             m.Spend,
		CTR:               Percent(float64(m.Clicks), float64(m.Impressions)),
		ConversionRate:    Percent(float64(m.Conversions), float64(m.Clicks)),
		CostPerConversion: Ratio(m.Spend, float64(m.Conversions)),
	}
}

// DayKey formats t as a UTC calendar day.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
