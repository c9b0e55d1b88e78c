package platforms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/campaign-manager/backend/internal/models"
	"go.uber.org/zap"
)

var googleChannelTypes = map[string]string{
	"awareness":       "DISPLAY",
	"consideration":   "SEARCH",
	"conversion":      "PERFORMANCE_MAX",
	"traffic":         "SEARCH",
	"engagement":      "DISPLAY",
	"app_installs":    "APP",
	"video_views":     "VIDEO",
	"lead_generation": "PERFORMANCE_MAX",
	"messages":        "DISPLAY",
	"sales":           "SHOPPING",
}

var googleStatuses = map[string]string{
	"active":    "ENABLED",
	"paused":    "PAUSED",
	"draft":     "PAUSED",
	"completed": "PAUSED",
	"archived":  "REMOVED",
}

// GoogleClient wraps the Google Ads REST API. A 401 triggers one token
// refresh and one retry of the same call.
type GoogleClient struct {
	apiClient
	baseURL        string
	tokenURL       string
	clientID       string
	clientSecret   string
	developerToken string
	accessToken    string
	refreshToken   string
	customerID     string
	sink           TokenSink
}

func (c *GoogleClient) Platform() string { return models.PlatformGoogle }

func (c *GoogleClient) url(path string) string {
	return strings.TrimRight(c.baseURL, "/") + "/customers/" + c.customerID + path
}

func (c *GoogleClient) call(ctx context.Context, method, url string, body, out any) error {
	send := func() error {
		headers := map[string]string{
			"Authorization":   "Bearer " + c.accessToken,
			"developer-token": c.developerToken,
		}
		_, err := c.do(ctx, method, url, headers, body, out)
		return err
	}

	err := send()
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusUnauthorized || c.refreshToken == "" {
		return err
	}
	if err := c.refresh(ctx); err != nil {
		return err
	}
	return send()
}

func (c *GoogleClient) refresh(ctx context.Context) error {
	body := map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"refresh_token": c.refreshToken,
		"grant_type":    "refresh_token",
	}
	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if _, err := c.do(ctx, http.MethodPost, c.tokenURL, nil, body, &out); err != nil {
		return fmt.Errorf("refresh google access token: %w", err)
	}
	if out.AccessToken == "" {
		return fmt.Errorf("refresh google access token: %w: empty token", ErrUpstream)
	}
	c.accessToken = out.AccessToken

	expiresIn := time.Duration(out.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}
	if c.sink != nil {
		if err := c.sink(ctx, out.AccessToken, expiresIn); err != nil {
			c.log.Error("failed to store refreshed google token", zap.Error(err))
		}
	}
	return nil
}

type googleCampaign struct {
	Name                   string `json:"name"`
	Status                 string `json:"status"`
	AdvertisingChannelType string `json:"advertisingChannelType"`
	CampaignBudget         struct {
		AmountMicros   int64  `json:"amountMicros"`
		DeliveryMethod string `json:"deliveryMethod"`
	} `json:"campaignBudget"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (c *GoogleClient) CreateCampaign(ctx context.Context, spec CampaignSpec) (string, error) {
	body := googleCampaign{
		Name:                   spec.Name,
		Status:                 mapOr(googleStatuses, spec.Status, "PAUSED"),
		AdvertisingChannelType: mapOr(googleChannelTypes, spec.Objective, "SEARCH"),
		StartDate:              spec.StartDate.UTC().Format("20060102"),
		EndDate:                spec.EndDate.UTC().Format("20060102"),
	}
	if spec.Budget.Daily != nil && *spec.Budget.Daily > 0 {
		body.CampaignBudget.AmountMicros = micros(*spec.Budget.Daily)
		body.CampaignBudget.DeliveryMethod = "STANDARD"
	} else {
		body.CampaignBudget.AmountMicros = micros(spec.Budget.Total)
		body.CampaignBudget.DeliveryMethod = "ACCELERATED"
	}

	var out struct {
		ResourceName string `json:"resourceName"`
	}
	if err := c.call(ctx, http.MethodPost, c.url("/campaigns"), body, &out); err != nil {
		return "", fmt.Errorf("create google campaign: %w", err)
	}
	id := out.ResourceName[strings.LastIndex(out.ResourceName, "/")+1:]
	if id == "" {
		return "", fmt.Errorf("create google campaign: %w: empty resource name", ErrUpstream)
	}
	return id, nil
}

func (c *GoogleClient) GetMetrics(ctx context.Context, externalID string) (models.Metrics, error) {
	if !isDigits(externalID) {
		return models.Metrics{}, fmt.Errorf("get google metrics: invalid campaign id %q", externalID)
	}
	body := map[string]string{"query": `
		SELECT campaign.id, metrics.impressions, metrics.clicks, metrics.conversions,
		       metrics.cost_micros, metrics.ctr, metrics.average_cpc, metrics.average_cpm
		FROM campaign
		WHERE campaign.id = ` + externalID}

	var out struct {
		Results []struct {
			Metrics struct {
				Impressions number `json:"impressions"`
				Clicks      number `json:"clicks"`
				Conversions number `json:"conversions"`
				CostMicros  number `json:"costMicros"`
			} `json:"metrics"`
		} `json:"results"`
	}
	if err := c.call(ctx, http.MethodPost, c.url("/googleAds:search"), body, &out); err != nil {
		return models.Metrics{}, fmt.Errorf("get google metrics: %w", err)
	}

	var m models.Metrics
	if len(out.Results) > 0 {
		r := out.Results[0].Metrics
		m.Impressions = r.Impressions.int64()
		m.Clicks = r.Clicks.int64()
		m.Conversions = r.Conversions.int64()
		m.Spend = float64(r.CostMicros) / 1_000_000
	}
	m.Derive()
	return m, nil
}

func (c *GoogleClient) UpdateStatus(ctx context.Context, externalID, status string) error {
	body := map[string]string{"status": mapOr(googleStatuses, status, "PAUSED")}
	if err := c.call(ctx, http.MethodPatch, c.url("/campaigns/"+externalID), body, nil); err != nil {
		return fmt.Errorf("update google campaign status: %w", err)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
