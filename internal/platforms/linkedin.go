package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/campaign-manager/backend/internal/models"
)

var linkedinObjectives = map[string]string{
	"awareness":       "BRAND_AWARENESS",
	"consideration":   "WEBSITE_VISITS",
	"conversion":      "LEAD_GENERATION",
	"traffic":         "WEBSITE_VISITS",
	"engagement":      "ENGAGEMENT",
	"video_views":     "VIDEO_VIEWS",
	"lead_generation": "LEAD_GENERATION",
	"messages":        "MESSAGE_AD",
	"sales":           "WEBSITE_CONVERSIONS",
}

var linkedinCreateStatuses = map[string]string{
	"active":    "ACTIVE",
	"paused":    "PAUSED",
	"draft":     "DRAFT",
	"completed": "COMPLETED",
	"archived":  "ARCHIVED",
}

var linkedinUpdateStatuses = map[string]string{
	"active":    "ACTIVE",
	"paused":    "PAUSED",
	"completed": "COMPLETED",
	"archived":  "ARCHIVED",
}

// LinkedInClient wraps the LinkedIn Marketing API ad account endpoints.
type LinkedInClient struct {
	apiClient
	baseURL     string
	accessToken string
	accountID   string
}

func (c *LinkedInClient) Platform() string { return models.PlatformLinkedIn }

func (c *LinkedInClient) headers() map[string]string {
	return map[string]string{
		"Authorization":             "Bearer " + c.accessToken,
		"X-Restli-Protocol-Version": "2.0.0",
	}
}

func (c *LinkedInClient) accountURL(path string) string {
	return strings.TrimRight(c.baseURL, "/") + "/adAccounts/" + url.PathEscape(c.accountID) + path
}

type linkedinMoney struct {
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type linkedinCampaign struct {
	Account       string        `json:"account"`
	Name          string        `json:"name"`
	Status        string        `json:"status"`
	ObjectiveType string        `json:"objectiveType"`
	CostType      string        `json:"costType"`
	UnitCost      linkedinMoney `json:"unitCost"`
	DailyBudget   linkedinMoney `json:"dailyBudget"`
	TotalBudget   linkedinMoney `json:"totalBudget"`
	StartDate     int64         `json:"startDate"`
	EndDate       int64         `json:"endDate"`
}

func (c *LinkedInClient) CreateCampaign(ctx context.Context, spec CampaignSpec) (string, error) {
	currency := spec.Budget.Currency
	if currency == "" {
		currency = "USD"
	}
	unit := spec.Budget.Total
	daily := spec.Budget.Total / 30
	if spec.Budget.Daily != nil && *spec.Budget.Daily > 0 {
		unit = *spec.Budget.Daily
		daily = *spec.Budget.Daily
	}

	body := linkedinCampaign{
		Account:       "urn:li:sponsoredAccount:" + c.accountID,
		Name:          spec.Name,
		Status:        mapOr(linkedinCreateStatuses, spec.Status, "DRAFT"),
		ObjectiveType: mapOr(linkedinObjectives, spec.Objective, "WEBSITE_VISITS"),
		CostType:      "CPC",
		UnitCost:      linkedinMoney{Amount: cents(unit), CurrencyCode: currency},
		DailyBudget:   linkedinMoney{Amount: cents(daily), CurrencyCode: currency},
		TotalBudget:   linkedinMoney{Amount: cents(spec.Budget.Total), CurrencyCode: currency},
		StartDate:     spec.StartDate.UnixMilli(),
		EndDate:       spec.EndDate.UnixMilli(),
	}

	var out struct {
		ID json.RawMessage `json:"id"`
	}
	resp, err := c.do(ctx, http.MethodPost, c.accountURL("/campaigns"), c.headers(), body, &out)
	if err != nil {
		return "", fmt.Errorf("create linkedin campaign: %w", err)
	}

	// Rest.li returns the new id in a header when the body is empty.
	id := resp.header.Get("X-RestLi-Id")
	if raw := strings.Trim(string(out.ID), `"`); raw != "" && raw != "null" {
		id = raw
	}
	if id == "" {
		return "", fmt.Errorf("create linkedin campaign: %w: empty id", ErrUpstream)
	}
	return id, nil
}

func (c *LinkedInClient) GetMetrics(ctx context.Context, externalID string) (models.Metrics, error) {
	// Rest.li 2.0 query syntax; url.Values would escape the structural characters.
	q := "q=analytics" +
		"&dateRange=(start:(day:1,month:1,year:2020),end:(day:31,month:12,year:2030))" +
		"&campaigns=List(" + url.QueryEscape("urn:li:sponsoredCampaign:"+externalID) + ")" +
		"&fields=impressions,clicks,conversions,costInUsd,clickThroughRate,costPerClick,costPer1000Impressions"

	var out struct {
		Elements []struct {
			Impressions number `json:"impressions"`
			Clicks      number `json:"clicks"`
			Conversions number `json:"conversions"`
			CostInUsd   number `json:"costInUsd"`
		} `json:"elements"`
	}
	if _, err := c.do(ctx, http.MethodGet, c.accountURL("/analytics?"+q), c.headers(), nil, &out); err != nil {
		return models.Metrics{}, fmt.Errorf("get linkedin metrics: %w", err)
	}

	var m models.Metrics
	if len(out.Elements) > 0 {
		e := out.Elements[0]
		m.Impressions = e.Impressions.int64()
		m.Clicks = e.Clicks.int64()
		m.Conversions = e.Conversions.int64()
		m.Spend = float64(e.CostInUsd)
	}
	m.Derive()
	return m, nil
}

func (c *LinkedInClient) UpdateStatus(ctx context.Context, externalID, status string) error {
	body := map[string]string{"status": mapOr(linkedinUpdateStatuses, status, "PAUSED")}
	if _, err := c.do(ctx, http.MethodPatch, c.accountURL("/campaigns/"+url.PathEscape(externalID)), c.headers(), body, nil); err != nil {
		return fmt.Errorf("update linkedin campaign status: %w", err)
	}
	return nil
}

func (c *LinkedInClient) FetchLeads(ctx context.Context, formID string) ([]ImportedLead, error) {
	var out struct {
		Elements []struct {
			ID           string `json:"id"`
			CampaignName string `json:"campaignName"`
			Fields       []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"fields"`
		} `json:"elements"`
	}
	endpoint := strings.TrimRight(c.baseURL, "/") + "/leadGenForms/" + url.PathEscape(formID) + "/submissions"
	if _, err := c.do(ctx, http.MethodGet, endpoint, c.headers(), nil, &out); err != nil {
		return nil, fmt.Errorf("get linkedin leads: %w", err)
	}

	leads := make([]ImportedLead, 0, len(out.Elements))
	for _, e := range out.Elements {
		fields := map[string]string{}
		for _, f := range e.Fields {
			fields[f.Name] = f.Value
		}
		leads = append(leads, ImportedLead{
			PlatformLeadID: e.ID,
			FirstName:      fields["firstName"],
			LastName:       fields["lastName"],
			Email:          firstNonEmpty(fields["emailAddress"], fields["email"]),
			Phone:          firstNonEmpty(fields["phoneNumber"], fields["phone"]),
			CampaignName:   e.CampaignName,
			AdditionalInfo: fields,
		})
	}
	return leads, nil
}
