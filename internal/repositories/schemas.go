package repositories

import "github.com/campaign-manager/backend/internal/query"

// CampaignSchema whitelists the campaign fields list queries may touch.
var CampaignSchema = query.Schema{
	Fields: map[string]query.Field{
		"_id":             {Column: "id", Type: query.TypeUUID},
		"name":            {Column: "name", Type: query.TypeString},
		"objective":       {Column: "objective", Type: query.TypeString},
		"status":          {Column: "status", Type: query.TypeString},
		"startDate":       {Column: "start_date", Type: query.TypeTime},
		"endDate":         {Column: "end_date", Type: query.TypeTime},
		"budget.total":    {Column: "(budget->>'total')::numeric", Type: query.TypeNumber},
		"budget.daily":    {Column: "(budget->>'daily')::numeric", Type: query.TypeNumber},
		"budget.currency": {Column: "budget->>'currency'", Type: query.TypeString},
		"createdAt":       {Column: "created_at", Type: query.TypeTime},
		"updatedAt":       {Column: "updated_at", Type: query.TypeTime},
	},
	Selectable: []string{
		"description", "budget", "targetAudience", "platforms", "adCreatives",
		"leads", "owner", "team", "tags", "notes", "totalMetrics",
	},
	DefaultLimit: 10,
	DefaultSort:  []query.SortKey{{Field: "createdAt", Desc: true}},
}

// LeadSchema whitelists the lead fields list queries may touch.
var LeadSchema = query.Schema{
	Fields: map[string]query.Field{
		"_id":             {Column: "id", Type: query.TypeUUID},
		"firstName":       {Column: "first_name", Type: query.TypeString},
		"lastName":        {Column: "last_name", Type: query.TypeString},
		"email":           {Column: "email", Type: query.TypeString},
		"phone":           {Column: "phone", Type: query.TypeString},
		"status":          {Column: "status", Type: query.TypeString},
		"source.platform": {Column: "source_platform", Type: query.TypeString},
		"source.campaign": {Column: "source_campaign_id", Type: query.TypeUUID},
		"assignedTo":      {Column: "assigned_to", Type: query.TypeUUID},
		"createdAt":       {Column: "created_at", Type: query.TypeTime},
		"updatedAt":       {Column: "updated_at", Type: query.TypeTime},
	},
	Selectable: []string{
		"source", "additionalInfo", "notes", "owner", "tags",
	},
	DefaultLimit: 25,
	DefaultSort:  []query.SortKey{{Field: "createdAt", Desc: true}},
}
