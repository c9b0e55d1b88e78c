// Package worker runs the periodic jobs of the worker binary.
package worker

import (
	"context"
	"time"

	"github.com/campaign-manager/backend/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var (
	jobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_job_runs_total",
			Help: "Total number of scheduled job runs",
		},
		[]string{"job", "result"},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of scheduled job runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	syncedAllocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_synced_allocations_total",
			Help: "Platform allocations refreshed by the metrics sync job",
		},
		[]string{"result"},
	)

	expiredConnections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worker_expired_connections_total",
			Help: "Platform connections marked expired",
		},
	)
)

const (
	JobMetricsSync      = "metrics_sync"
	JobConnectionExpiry = "connection_expiry"
)

type MetricsSyncer interface {
	SyncAll(ctx context.Context) (services.SyncReport, error)
}

type ConnectionExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

type Schedules struct {
	MetricsSync      string
	ConnectionExpiry string
	// JobTimeout bounds a single run. Zero means no bound.
	JobTimeout time.Duration
}

// Scheduler runs the metrics sync and connection expiry jobs on cron schedules.
type Scheduler struct {
	cron      *cron.Cron
	schedules Schedules
	syncer    MetricsSyncer
	expirer   ConnectionExpirer
	log       *zap.Logger
}

func NewScheduler(schedules Schedules, syncer MetricsSyncer, expirer ConnectionExpirer, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		schedules: schedules,
		syncer:    syncer,
		expirer:   expirer,
		log:       log,
	}
}

// Start registers both jobs and starts the cron loop. It fails on a
// malformed schedule.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedules.MetricsSync, func() { s.SyncMetrics(context.Background()) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.schedules.ConnectionExpiry, func() { s.ExpireConnections(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduler started",
		zap.String("metrics_sync", s.schedules.MetricsSync),
		zap.String("connection_expiry", s.schedules.ConnectionExpiry),
	)
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) jobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.schedules.JobTimeout > 0 {
		return context.WithTimeout(ctx, s.schedules.JobTimeout)
	}
	return context.WithCancel(ctx)
}

func observe(job string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	jobRuns.WithLabelValues(job, result).Inc()
	jobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
}

// SyncMetrics refreshes the metrics of every published campaign.
func (s *Scheduler) SyncMetrics(ctx context.Context) services.SyncReport {
	ctx, cancel := s.jobContext(ctx)
	defer cancel()
	start := time.Now()

	report, err := s.syncer.SyncAll(ctx)
	observe(JobMetricsSync, start, err)
	syncedAllocations.WithLabelValues("ok").Add(float64(report.Synced))
	syncedAllocations.WithLabelValues("error").Add(float64(report.Failed))

	if err != nil {
		s.log.Error("metrics sync failed", zap.Error(err))
		return report
	}
	s.log.Info("metrics sync finished",
		zap.Int("campaigns", report.Campaigns),
		zap.Int("synced", report.Synced),
		zap.Int("failed", report.Failed),
		zap.Duration("took", time.Since(start)),
	)
	return report
}

// ExpireConnections marks connections past their expiry as expired.
func (s *Scheduler) ExpireConnections(ctx context.Context) int64 {
	ctx, cancel := s.jobContext(ctx)
	defer cancel()
	start := time.Now()

	n, err := s.expirer.ExpireStale(ctx)
	observe(JobConnectionExpiry, start, err)
	if err != nil {
		s.log.Error("connection expiry failed", zap.Error(err))
		return 0
	}
	expiredConnections.Add(float64(n))
	if n > 0 {
		s.log.Info("expired platform connections", zap.Int64("count", n))
	}
	return n
}
