package platforms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/campaign-manager/backend/internal/models"
)

var facebookObjectives = map[string]string{
	"awareness":       "BRAND_AWARENESS",
	"consideration":   "REACH",
	"conversion":      "CONVERSIONS",
	"traffic":         "TRAFFIC",
	"engagement":      "POST_ENGAGEMENT",
	"app_installs":    "APP_INSTALLS",
	"video_views":     "VIDEO_VIEWS",
	"lead_generation": "LEAD_GENERATION",
	"messages":        "MESSAGES",
	"sales":           "SALES",
}

var facebookStatuses = map[string]string{
	"active":    "ACTIVE",
	"paused":    "PAUSED",
	"draft":     "PAUSED",
	"completed": "PAUSED",
	"archived":  "ARCHIVED",
}

var facebookConversionActions = []string{"offsite_conversion", "lead", "purchase"}

// FacebookClient wraps the Graph API marketing endpoints.
type FacebookClient struct {
	apiClient
	baseURL     string
	accessToken string
	accountID   string
}

func (c *FacebookClient) Platform() string { return models.PlatformFacebook }

func (c *FacebookClient) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.accessToken)
	return strings.TrimRight(c.baseURL, "/") + "/" + path + "?" + params.Encode()
}

type facebookCampaign struct {
	Name                string   `json:"name"`
	Objective           string   `json:"objective"`
	Status              string   `json:"status"`
	SpecialAdCategories []string `json:"special_ad_categories"`
	DailyBudget         *int64   `json:"daily_budget,omitempty"`
	LifetimeBudget      *int64   `json:"lifetime_budget,omitempty"`
	StartTime           string   `json:"start_time"`
	EndTime             string   `json:"end_time"`
}

func (c *FacebookClient) CreateCampaign(ctx context.Context, spec CampaignSpec) (string, error) {
	body := facebookCampaign{
		Name:                spec.Name,
		Objective:           mapOr(facebookObjectives, spec.Objective, "REACH"),
		Status:              mapOr(facebookStatuses, spec.Status, "PAUSED"),
		SpecialAdCategories: []string{},
		StartTime:           spec.StartDate.UTC().Format("2006-01-02"),
		EndTime:             spec.EndDate.UTC().Format("2006-01-02"),
	}
	if spec.Budget.Daily != nil && *spec.Budget.Daily > 0 {
		v := cents(*spec.Budget.Daily)
		body.DailyBudget = &v
	} else {
		v := cents(spec.Budget.Total)
		body.LifetimeBudget = &v
	}

	var out struct {
		ID string `json:"id"`
	}
	if _, err := c.do(ctx, http.MethodPost, c.endpoint("act_"+c.accountID+"/campaigns", nil), nil, body, &out); err != nil {
		return "", fmt.Errorf("create facebook campaign: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("create facebook campaign: %w: empty id", ErrUpstream)
	}
	return out.ID, nil
}

func (c *FacebookClient) GetMetrics(ctx context.Context, externalID string) (models.Metrics, error) {
	params := url.Values{
		"fields":      {"impressions,clicks,spend,ctr,cpc,cpm,actions"},
		"date_preset": {"lifetime"},
		"level":       {"campaign"},
	}
	var out struct {
		Data []struct {
			Impressions number `json:"impressions"`
			Clicks      number `json:"clicks"`
			Spend       number `json:"spend"`
			Actions     []struct {
				ActionType string `json:"action_type"`
				Value      number `json:"value"`
			} `json:"actions"`
		} `json:"data"`
	}
	if _, err := c.do(ctx, http.MethodGet, c.endpoint(url.PathEscape(externalID)+"/insights", params), nil, nil, &out); err != nil {
		return models.Metrics{}, fmt.Errorf("get facebook metrics: %w", err)
	}

	var m models.Metrics
	if len(out.Data) > 0 {
		row := out.Data[0]
		m.Impressions = row.Impressions.int64()
		m.Clicks = row.Clicks.int64()
		m.Spend = float64(row.Spend)
		for _, a := range row.Actions {
			if slices.Contains(facebookConversionActions, a.ActionType) {
				m.Conversions += a.Value.int64()
			}
		}
	}
	m.Derive()
	return m, nil
}

func (c *FacebookClient) UpdateStatus(ctx context.Context, externalID, status string) error {
	body := map[string]string{"status": mapOr(facebookStatuses, status, "PAUSED")}
	if _, err := c.do(ctx, http.MethodPost, c.endpoint(url.PathEscape(externalID), nil), nil, body, nil); err != nil {
		return fmt.Errorf("update facebook campaign status: %w", err)
	}
	return nil
}

func (c *FacebookClient) FetchLeads(ctx context.Context, formID string) ([]ImportedLead, error) {
	params := url.Values{"fields": {"created_time,field_data,campaign_name,platform,ad_name"}}
	var out struct {
		Data []struct {
			ID           string `json:"id"`
			CampaignName string `json:"campaign_name"`
			AdName       string `json:"ad_name"`
			FieldData    []struct {
				Name   string   `json:"name"`
				Values []string `json:"values"`
			} `json:"field_data"`
		} `json:"data"`
	}
	if _, err := c.do(ctx, http.MethodGet, c.endpoint(url.PathEscape(formID)+"/leads", params), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get facebook leads: %w", err)
	}

	leads := make([]ImportedLead, 0, len(out.Data))
	for _, d := range out.Data {
		fields := map[string]string{}
		for _, f := range d.FieldData {
			if len(f.Values) > 0 {
				fields[f.Name] = f.Values[0]
			}
		}
		leads = append(leads, ImportedLead{
			PlatformLeadID: d.ID,
			FirstName:      firstNonEmpty(fields["first_name"], fields["firstname"]),
			LastName:       firstNonEmpty(fields["last_name"], fields["lastname"]),
			Email:          fields["email"],
			Phone:          firstNonEmpty(fields["phone_number"], fields["phone"]),
			CampaignName:   d.CampaignName,
			AdName:         d.AdName,
			AdditionalInfo: fields,
		})
	}
	return leads, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
