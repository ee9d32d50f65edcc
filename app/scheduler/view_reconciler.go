// Package scheduler runs the background view reconciliation sweep
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/clipforge/clipforge/app/services"
	businessflow "github.com/clipforge/clipforge/business_flow"
	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/models"
	"github.com/clipforge/clipforge/repository"
	"github.com/clipforge/clipforge/utils"
)

var (
	reconcilerPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipforge_reconciler_polls_total",
			Help: "Total reconciliation polls by platform and outcome",
		},
		[]string{"platform", "outcome"},
	)

	reconcilerFlagsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipforge_reconciler_flags_total",
			Help: "Total submissions auto-flagged by the reconciler, by anomaly kind",
		},
		[]string{"kind"},
	)

	reconcilerCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clipforge_reconciler_cycle_duration_seconds",
			Help:    "Duration of one full reconciliation sweep",
			Buckets: prometheus.DefBuckets,
		},
	)

	reconcilerBatchSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clipforge_reconciler_batch_size",
			Help: "Number of submissions picked up by the most recent sweep",
		},
	)
)

// Poll outcome labels for reconcilerPollsTotal
const (
	pollOutcomeAccepted     = "accepted"
	pollOutcomeFlagged      = "flagged"
	pollOutcomeRejected     = "sample_rejected"
	pollOutcomeUnavailable  = "unavailable"
	pollOutcomeError        = "error"
	pollOutcomeMissingAdpt  = "no_adapter"
	pollOutcomePersistError = "persist_error"
	pollOutcomeConflict     = "conflict"
)

// ViewReconciler periodically refreshes view counts for live submissions.
// One sweep lists every submission due for a poll, fans the polls out with a
// per-platform concurrency cap, and waits for all of them before returning,
// so sweeps never overlap and no submission is polled twice at once.
type ViewReconciler struct {
	subRepo    repository.SubmissionRepository
	sampleRepo repository.ViewSampleRepository
	adapters   *services.AdapterRegistry
	detector   businessflow.FraudDetector
	notifier   services.NotificationService

	db     *gorm.DB
	cfg    config.ReconcilerConfig
	clock  utils.Clock
	logger *log.Logger
}

func NewViewReconciler(
	subRepo repository.SubmissionRepository,
	sampleRepo repository.ViewSampleRepository,
	adapters *services.AdapterRegistry,
	detector businessflow.FraudDetector,
	notifier services.NotificationService,
	db *gorm.DB,
	cfg config.ReconcilerConfig,
	logCfg config.LoggingConfig,
	clock utils.Clock,
) *ViewReconciler {
	if cfg.CycleInterval <= 0 {
		cfg.CycleInterval = time.Minute
	}
	if cfg.PerPlatformConcurrency <= 0 {
		cfg.PerPlatformConcurrency = 1
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}

	r := &ViewReconciler{
		subRepo:    subRepo,
		sampleRepo: sampleRepo,
		adapters:   adapters,
		detector:   detector,
		notifier:   notifier,
		db:         db,
		cfg:        cfg,
		clock:      clock,
	}
	r.initLogger(logCfg)
	return r
}

// initLogger configures a logger that writes to stdout and, when enabled, a
// rotated sweep log separate from the main application log
func (r *ViewReconciler) initLogger(logCfg config.LoggingConfig) {
	var w io.Writer = os.Stdout
	if logCfg.EnableReconcilerLog && logCfg.ReconcilerLogPath != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logCfg.ReconcilerLogPath,
			MaxSize:    logCfg.MaxSize,
			MaxBackups: logCfg.MaxBackups,
			MaxAge:     logCfg.MaxAge,
			Compress:   logCfg.Compress,
		})
	}
	r.logger = log.New(w, "reconciler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the sweep loop in a background goroutine and returns a stop function
func (r *ViewReconciler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(r.cfg.CycleInterval)
		defer ticker.Stop()

		r.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.runOnce(ctx)
			}
		}
	}()

	return cancel
}

// runOnce executes one full sweep and blocks until every poll has finished
func (r *ViewReconciler) runOnce(ctx context.Context) {
	started := r.clock.Now()

	platforms := r.adapters.Platforms()
	if len(platforms) == 0 {
		return
	}

	cutoff := started.Add(-r.cfg.RecheckInterval)
	due, err := r.subRepo.ListDueForPoll(ctx, platforms, cutoff, r.cfg.BatchLimit)
	if err != nil {
		r.logger.Printf("reconciler: list due submissions failed: %v", err)
		return
	}
	reconcilerBatchSize.Set(float64(len(due)))
	if len(due) == 0 {
		return
	}
	r.logger.Printf("reconciler: sweep picked up %d submissions", len(due))

	// Per-platform semaphores bound concurrent API calls against each
	// platform independently
	sems := make(map[models.Platform]chan struct{}, len(platforms))
	for _, p := range platforms {
		sems[p] = make(chan struct{}, r.cfg.PerPlatformConcurrency)
	}

	var wg sync.WaitGroup
	for _, sub := range due {
		sem, ok := sems[sub.Platform]
		if !ok {
			reconcilerPollsTotal.WithLabelValues(string(sub.Platform), pollOutcomeMissingAdpt).Inc()
			continue
		}
		wg.Add(1)
		go func(sub *models.Submission) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()
			r.pollOne(ctx, sub)
		}(sub)
	}
	wg.Wait()

	elapsed := r.clock.Now().Sub(started)
	reconcilerCycleDuration.Observe(elapsed.Seconds())
	r.logger.Printf("reconciler: sweep finished in %s", elapsed)
}

// pollOne fetches a fresh view count for one submission and applies the
// detector's verdict
func (r *ViewReconciler) pollOne(ctx context.Context, sub *models.Submission) {
	adapter := r.adapters.Get(sub.Platform)
	if adapter == nil {
		reconcilerPollsTotal.WithLabelValues(string(sub.Platform), pollOutcomeMissingAdpt).Inc()
		return
	}

	pollCtx := ctx
	if r.cfg.PollTimeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, r.cfg.PollTimeout)
		defer cancel()
	}

	observed, err := adapter.FetchViews(pollCtx, sub.VideoURL)
	now := r.clock.Now()

	if err != nil {
		if services.IsVideoUnavailable(err) {
			r.handleUnavailable(ctx, sub, now)
			return
		}
		// Transient failure. Advance the cursor so a flaky URL does not
		// hog the batch, but leave the unavailable counter alone.
		r.logger.Printf("reconciler: poll failed for submission %s: %v", sub.UUID, err)
		reconcilerPollsTotal.WithLabelValues(string(sub.Platform), pollOutcomeError).Inc()
		sub.LastPolledAt = &now
		if affected, uerr := r.subRepo.UpdateStatusFrom(ctx, sub, sub.Status); uerr != nil {
			r.logger.Printf("reconciler: cursor update failed for submission %s: %v", sub.UUID, uerr)
		} else if affected == 0 {
			r.logger.Printf("reconciler: submission %s changed during poll, skipping cursor update", sub.UUID)
		}
		return
	}

	previous, err := r.sampleRepo.LatestBySubmission(ctx, sub.ID)
	if err != nil {
		r.logger.Printf("reconciler: load latest sample failed for submission %s: %v", sub.UUID, err)
		reconcilerPollsTotal.WithLabelValues(string(sub.Platform), pollOutcomePersistError).Inc()
		return
	}

	assessment := r.detector.Assess(sub, previous, observed, now)
	if err := r.applyAssessment(ctx, sub, assessment, observed, now); err != nil {
		if businessflow.IsConcurrencyConflict(err) {
			// A moderator or payout moved the submission while the poll was
			// in flight; their write wins and this observation is dropped.
			r.logger.Printf("reconciler: submission %s changed during poll, result discarded", sub.UUID)
			reconcilerPollsTotal.WithLabelValues(string(sub.Platform), pollOutcomeConflict).Inc()
			return
		}
		r.logger.Printf("reconciler: apply assessment failed for submission %s: %v", sub.UUID, err)
		reconcilerPollsTotal.WithLabelValues(string(sub.Platform), pollOutcomePersistError).Inc()
		return
	}

	switch assessment.Verdict {
	case businessflow.VerdictAcceptWithFlag:
		reconcilerPollsTotal.WithLabelValues(string(sub.Platform), pollOutcomeFlagged).Inc()
	case businessflow.VerdictRejectSample:
		reconcilerPollsTotal.WithLabelValues(string(sub.Platform), pollOutcomeRejected).Inc()
	default:
		reconcilerPollsTotal.WithLabelValues(string(sub.Platform), pollOutcomeAccepted).Inc()
	}
}

// applyAssessment persists the outcome of one successful poll: the sample
// (unless rejected), the refreshed view count, the advanced cursor, and any
// flag the detector raised, all in one transaction. The write is guarded on
// the status the sweep read; if a moderator moved the submission while the
// poll was in flight the whole outcome rolls back and the caller gets
// ErrConcurrencyConflict.
func (r *ViewReconciler) applyAssessment(ctx context.Context, sub *models.Submission, a businessflow.Assessment, observed int64, now time.Time) error {
	expected := sub.Status
	flagged := false

	err := repository.WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		sub.UnavailableCount = 0
		sub.LastPolledAt = &now

		switch a.Verdict {
		case businessflow.VerdictRejectSample:
			// Keep the previous count; the observation is not recorded
		default:
			sub.Views = observed
			sample := &models.ViewSample{
				SubmissionID: sub.ID,
				Views:        observed,
				Platform:     sub.Platform,
				ObservedAt:   now,
			}
			if err := r.sampleRepo.Save(txCtx, sample); err != nil {
				return fmt.Errorf("save view sample: %w", err)
			}
		}

		if a.Kind != "" && sub.CanTransitionTo(models.SubmissionStatusFlagged) {
			src := models.FlagSourceDetector
			detail := a.Detail
			sub.Status = models.SubmissionStatusFlagged
			sub.FlagKind = &a.Kind
			sub.FlagDetail = &detail
			sub.FlagSource = &src
			flagged = true
		}

		affected, err := r.subRepo.UpdateStatusFrom(txCtx, sub, expected)
		if err != nil {
			return err
		}
		if affected == 0 {
			return businessflow.ErrConcurrencyConflict
		}
		return nil
	})
	if err != nil {
		return err
	}

	if flagged {
		reconcilerFlagsTotal.WithLabelValues(string(a.Kind)).Inc()
		r.logger.Printf("reconciler: flagged submission %s: %s", sub.UUID, a.Detail)
		r.notifyFlag(sub, string(a.Kind))
	}
	return nil
}

// handleUnavailable advances the consecutive-failure counter and flags the
// submission once the counter crosses the configured threshold
func (r *ViewReconciler) handleUnavailable(ctx context.Context, sub *models.Submission, now time.Time) {
	reconcilerPollsTotal.WithLabelValues(string(sub.Platform), pollOutcomeUnavailable).Inc()

	expected := sub.Status
	sub.UnavailableCount++
	sub.LastPolledAt = &now

	flagged := false
	if r.cfg.UnreachableThreshold > 0 &&
		sub.UnavailableCount >= r.cfg.UnreachableThreshold &&
		sub.CanTransitionTo(models.SubmissionStatusFlagged) {
		kind := models.AnomalyUnreachable
		src := models.FlagSourceDetector
		detail := fmt.Sprintf("video unreachable for %d consecutive polls", sub.UnavailableCount)
		sub.Status = models.SubmissionStatusFlagged
		sub.FlagKind = &kind
		sub.FlagDetail = &detail
		sub.FlagSource = &src
		flagged = true
	}

	affected, err := r.subRepo.UpdateStatusFrom(ctx, sub, expected)
	if err != nil {
		r.logger.Printf("reconciler: update failed for unavailable submission %s: %v", sub.UUID, err)
		return
	}
	if affected == 0 {
		r.logger.Printf("reconciler: submission %s changed during poll, unavailable count not recorded", sub.UUID)
		return
	}

	if flagged {
		reconcilerFlagsTotal.WithLabelValues(string(models.AnomalyUnreachable)).Inc()
		r.logger.Printf("reconciler: flagged submission %s as unreachable after %d failed polls", sub.UUID, sub.UnavailableCount)
		r.notifyFlag(sub, string(models.AnomalyUnreachable))
	}
}

// notifyFlag tells the moderation channel about an auto-flag, best effort
func (r *ViewReconciler) notifyFlag(sub *models.Submission, kind string) {
	if r.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = r.notifier.Notify(ctx, services.Notification{
			Event: services.EventSubmissionFlagged,
			Title: "Submission flagged for review",
			Body:  fmt.Sprintf("submission %s flagged: %s", sub.UUID, kind),
		})
	}()
}
