// Package platforms talks to the external ad platform APIs.
package platforms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/campaign-manager/backend/internal/models"
	"go.uber.org/zap"
)

var (
	ErrUpstream    = errors.New("ad platform request failed")
	ErrUnsupported = errors.New("platform not supported")
)

// StatusError is a non-2xx answer from a platform API.
type StatusError struct {
	Platform string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Platform, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUpstream }

// CampaignSpec is what a platform needs to create a remote campaign.
type CampaignSpec struct {
	Name      string
	Objective string
	Status    string
	Budget    models.Budget
	StartDate time.Time
	EndDate   time.Time
}

// Client manages campaigns on one ad account.
type Client interface {
	Platform() string
	CreateCampaign(ctx context.Context, spec CampaignSpec) (string, error)
	GetMetrics(ctx context.Context, externalID string) (models.Metrics, error)
	UpdateStatus(ctx context.Context, externalID, status string) error
}

// LeadFetcher is implemented by platforms with lead forms.
type LeadFetcher interface {
	FetchLeads(ctx context.Context, formID string) ([]ImportedLead, error)
}

type ImportedLead struct {
	PlatformLeadID string
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	CampaignName   string
	AdName         string
	AdditionalInfo map[string]string
}

// TokenSink persists an access token obtained through a refresh.
type TokenSink func(ctx context.Context, accessToken string, expiresIn time.Duration) error

type Options struct {
	FacebookAPIURL       string
	GoogleAdsAPIURL      string
	GoogleOAuthTokenURL  string
	GoogleClientID       string
	GoogleClientSecret   string
	GoogleDeveloperToken string
	LinkedInAPIURL       string
	Timeout              time.Duration
}

// Factory builds clients bound to a user's stored connection.
type Factory struct {
	opts       Options
	httpClient *http.Client
	log        *zap.Logger
}

func NewFactory(opts Options, log *zap.Logger) *Factory {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Factory{
		opts:       opts,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Client returns the API client for conn. sink may be nil.
func (f *Factory) Client(conn *models.PlatformConnection, sink TokenSink) (Client, error) {
	account := ""
	if conn.AccountID != nil {
		account = *conn.AccountID
	}
	base := apiClient{httpClient: f.httpClient, log: f.log}

	switch conn.Platform {
	case models.PlatformFacebook:
		base.platform = models.PlatformFacebook
		return &FacebookClient{apiClient: base, baseURL: f.opts.FacebookAPIURL, accessToken: conn.AccessToken, accountID: account}, nil
	case models.PlatformGoogle:
		refresh := ""
		if conn.RefreshToken != nil {
			refresh = *conn.RefreshToken
		}
		base.platform = models.PlatformGoogle
		return &GoogleClient{
			apiClient:      base,
			baseURL:        f.opts.GoogleAdsAPIURL,
			tokenURL:       f.opts.GoogleOAuthTokenURL,
			clientID:       f.opts.GoogleClientID,
			clientSecret:   f.opts.GoogleClientSecret,
			developerToken: f.opts.GoogleDeveloperToken,
			accessToken:    conn.AccessToken,
			refreshToken:   refresh,
			customerID:     account,
			sink:           sink,
		}, nil
	case models.PlatformLinkedIn:
		base.platform = models.PlatformLinkedIn
		return &LinkedInClient{apiClient: base, baseURL: f.opts.LinkedInAPIURL, accessToken: conn.AccessToken, accountID: account}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, conn.Platform)
	}
}

func mapOr(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

// cents converts a currency amount to integer minor units.
func cents(v float64) int64 {
	return int64(v*100 + 0.5)
}

func micros(v float64) int64 {
	return int64(v*1_000_000 + 0.5)
}
