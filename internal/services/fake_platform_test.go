package services

import (
	"context"
	"strconv"
	"sync"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/platforms"
)

type fakeClient struct {
	platform string
	factory  *fakeFactory
}

func (c *fakeClient) Platform() string { return c.platform }

func (c *fakeClient) CreateCampaign(_ context.Context, spec platforms.CampaignSpec) (string, error) {
	f := c.factory
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures[c.platform]; err != nil {
		return "", err
	}
	f.created = append(f.created, spec)
	return c.platform + "-" + strconv.Itoa(len(f.created)), nil
}

func (c *fakeClient) GetMetrics(_ context.Context, externalID string) (models.Metrics, error) {
	f := c.factory
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures[c.platform]; err != nil {
		return models.Metrics{}, err
	}
	return f.metrics[externalID], nil
}

func (c *fakeClient) UpdateStatus(_ context.Context, externalID, status string) error {
	f := c.factory
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[externalID] = status
	return nil
}

func (c *fakeClient) FetchLeads(_ context.Context, _ string) ([]platforms.ImportedLead, error) {
	f := c.factory
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.imported, nil
}

// fakeFactory hands out in-memory clients and records what they were asked to do.
type fakeFactory struct {
	mu       sync.Mutex
	created  []platforms.CampaignSpec
	metrics  map[string]models.Metrics
	statuses map[string]string
	failures map[string]error
	imported []platforms.ImportedLead
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		metrics:  map[string]models.Metrics{},
		statuses: map[string]string{},
		failures: map[string]error{},
	}
}

func (f *fakeFactory) Client(conn *models.PlatformConnection, _ platforms.TokenSink) (platforms.Client, error) {
	return &fakeClient{platform: conn.Platform, factory: f}, nil
}
