package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campaign-manager/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSyncer struct {
	report services.SyncReport
	err    error
	calls  int
}

func (f *fakeSyncer) SyncAll(ctx context.Context) (services.SyncReport, error) {
	f.calls++
	return f.report, f.err
}

type fakeExpirer struct {
	n        int64
	err      error
	deadline bool
}

func (f *fakeExpirer) ExpireStale(ctx context.Context) (int64, error) {
	_, f.deadline = ctx.Deadline()
	return f.n, f.err
}

func TestSyncMetricsCountsAllocations(t *testing.T) {
	syncer := &fakeSyncer{report: services.SyncReport{Campaigns: 2, Synced: 3, Failed: 1}}
	s := NewScheduler(Schedules{}, syncer, &fakeExpirer{}, zap.NewNop())

	report := s.SyncMetrics(context.Background())
	assert.Equal(t, 3, report.Synced)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, syncer.calls)
}

func TestSyncMetricsRecordsFailure(t *testing.T) {
	syncer := &fakeSyncer{err: errors.New("db down")}
	s := NewScheduler(Schedules{}, syncer, &fakeExpirer{}, zap.NewNop())

	report := s.SyncMetrics(context.Background())
	assert.Zero(t, report.Synced)
	assert.Equal(t, 1, syncer.calls)
}

func TestExpireConnections(t *testing.T) {
	expirer := &fakeExpirer{n: 4}
	s := NewScheduler(Schedules{JobTimeout: time.Minute}, &fakeSyncer{}, expirer, zap.NewNop())

	assert.Equal(t, int64(4), s.ExpireConnections(context.Background()))
	assert.True(t, expirer.deadline)

	expirer.err = errors.New("boom")
	assert.Equal(t, int64(0), s.ExpireConnections(context.Background()))
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(Schedules{MetricsSync: "not a schedule", ConnectionExpiry: "@hourly"}, &fakeSyncer{}, &fakeExpirer{}, zap.NewNop())
	require.Error(t, s.Start())

	s = NewScheduler(Schedules{MetricsSync: "*/30 * * * *", ConnectionExpiry: "@hourly"}, &fakeSyncer{}, &fakeExpirer{}, zap.NewNop())
	require.NoError(t, s.Start())
	s.Stop()
}
