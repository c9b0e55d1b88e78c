package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalMetrics(t *testing.T) {
	tests := []struct {
		name      string
		platforms []PlatformAllocation
		want      Metrics
	}{
		{
			name: "no platforms",
			want: Metrics{},
		},
		{
			name: "zero impressions keeps ratios at zero",
			platforms: []PlatformAllocation{
				{Name: PlatformFacebook, Metrics: Metrics{Spend: 40}},
			},
			want: Metrics{Spend: 40},
		},
		{
			name: "sums counters and recomputes ratios",
			platforms: []PlatformAllocation{
				{Name: PlatformFacebook, Metrics: Metrics{Impressions: 1000, Clicks: 50, Conversions: 5, Spend: 100, CTR: 99}},
				{Name: PlatformGoogle, Metrics: Metrics{Impressions: 3000, Clicks: 150, Conversions: 15, Spend: 300}},
			},
			want: Metrics{
				Impressions:       4000,
				Clicks:            200,
				Conversions:       20,
				Spend:             400,
				CTR:               5,
				CPC:               2,
				CPM:               100,
				CostPerConversion: 20,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Campaign{Platforms: tt.platforms}
			got := c.TotalMetrics()
			assert.Equal(t, tt.want.Impressions, got.Impressions)
			assert.Equal(t, tt.want.Clicks, got.Clicks)
			assert.Equal(t, tt.want.Conversions, got.Conversions)
			assert.InDelta(t, tt.want.Spend, got.Spend, 1e-9)
			assert.InDelta(t, tt.want.CTR, got.CTR, 1e-9)
			assert.InDelta(t, tt.want.CPC, got.CPC, 1e-9)
			assert.InDelta(t, tt.want.CPM, got.CPM, 1e-9)
			assert.InDelta(t, tt.want.CostPerConversion, got.CostPerConversion, 1e-9)
		})
	}
}

func TestCampaignJSONIncludesTotalMetrics(t *testing.T) {
	c := Campaign{
		ID:   uuid.New(),
		Name: "Spring",
		Platforms: []PlatformAllocation{
			{Name: PlatformLinkedIn, Metrics: Metrics{Impressions: 200, Clicks: 10, Spend: 5}},
		},
	}

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "Spring", out["name"])

	totals, ok := out["totalMetrics"].(map[string]any)
	require.True(t, ok, "totalMetrics missing")
	assert.EqualValues(t, 200, totals["impressions"])
	assert.EqualValues(t, 5, totals["ctr"])
}

func TestApplyDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := Campaign{Platforms: []PlatformAllocation{{Name: PlatformFacebook, Budget: 100}}}
	c.ApplyDefaults(now)

	assert.Equal(t, CampaignStatusDraft, c.Status)
	assert.Equal(t, "USD", c.Budget.Currency)
	assert.Equal(t, AllocationStatusPending, c.Platforms[0].Status)
	assert.Equal(t, now, c.Platforms[0].LastUpdated)
	assert.NotNil(t, c.Leads)
	assert.NotNil(t, c.Tags)
}

func TestRatioGuards(t *testing.T) {
	assert.Equal(t, 0.0, Ratio(10, 0))
	assert.Equal(t, 0.0, Percent(10, 0))
	assert.Equal(t, 50.0, Percent(1, 2))
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"a@x.com", true},
		{"first.last@sub.example.org", true},
		{"no-at-sign.com", false},
		{"a@x", false},
		{"a@x.toolong", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEmail(tt.input))
		})
	}
}

func TestLeadSourceJSON(t *testing.T) {
	id := uuid.New()

	raw, err := json.Marshal(LeadSource{Platform: "facebook", Campaign: id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"platform":"facebook","campaign":"`+id.String()+`"}`, string(raw))

	raw, err = json.Marshal(LeadSource{Platform: "facebook", Campaign: id, CampaignName: "Spring"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"platform":"facebook","campaign":{"_id":"`+id.String()+`","name":"Spring"}}`, string(raw))
}
