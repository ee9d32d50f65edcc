package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clipforge/clipforge/app/services"
	businessflow "github.com/clipforge/clipforge/business_flow"
	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/models"
	"github.com/clipforge/clipforge/repository"
	testingutil "github.com/clipforge/clipforge/testing"
	"github.com/clipforge/clipforge/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock is a settable clock so sweeps can be driven deterministically
type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// stubAdapter answers polls from a test-supplied function
type stubAdapter struct {
	platform models.Platform
	fetch    func(ctx context.Context, videoURL string) (int64, error)
}

func (a *stubAdapter) Platform() models.Platform { return a.platform }

func (a *stubAdapter) FetchViews(ctx context.Context, videoURL string) (int64, error) {
	return a.fetch(ctx, videoURL)
}

func newTestReconciler(testDB *testingutil.TestDB, adapter services.PlatformAdapter, clock utils.Clock, unreachableThreshold int) *ViewReconciler {
	cfg := config.ReconcilerConfig{
		Enabled:                true,
		CycleInterval:          time.Minute,
		RecheckInterval:        time.Hour,
		BatchLimit:             10,
		PerPlatformConcurrency: 2,
		PollTimeout:            5 * time.Second,
		UnreachableThreshold:   unreachableThreshold,
	}
	detector := businessflow.NewFraudDetector(config.FraudConfig{
		DecreaseTolerance:       50,
		GrowthCeilingMultiplier: 20.0,
		GrowthGraceViews:        10000,
	})
	return NewViewReconciler(
		repository.NewSubmissionRepository(testDB.DB),
		repository.NewViewSampleRepository(testDB.DB),
		services.NewAdapterRegistry(adapter),
		detector,
		nil,
		testDB.DB,
		cfg,
		config.LoggingConfig{},
		clock,
	)
}

func TestReconcilerAcceptsNormalPoll(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		subRepo := repository.NewSubmissionRepository(testDB.DB)
		sampleRepo := repository.NewViewSampleRepository(testDB.DB)
		ctx := context.Background()

		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)
		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		sub, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusPending, 100)
		require.NoError(t, err)

		clock := &manualClock{now: utils.UTCNow()}
		_, err = fixtures.CreateTestViewSample(sub, 100, clock.now.Add(-time.Hour))
		require.NoError(t, err)

		adapter := &stubAdapter{
			platform: models.PlatformYouTube,
			fetch: func(context.Context, string) (int64, error) {
				return 150, nil
			},
		}
		r := newTestReconciler(testDB, adapter, clock, 3)
		r.runOnce(ctx)

		got, err := subRepo.ByUUID(ctx, sub.UUID.String())
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionStatusPending, got.Status)
		assert.EqualValues(t, 150, got.Views)
		assert.Zero(t, got.UnavailableCount)
		require.NotNil(t, got.LastPolledAt)

		samples, err := sampleRepo.ListBySubmission(ctx, sub.ID, 10)
		require.NoError(t, err)
		assert.Len(t, samples, 2)

		return nil
	})
	require.NoError(t, err)
}

func TestReconcilerRecordsDecreaseAndFlags(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		subRepo := repository.NewSubmissionRepository(testDB.DB)
		sampleRepo := repository.NewViewSampleRepository(testDB.DB)
		ctx := context.Background()

		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)
		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		clock := &manualClock{now: utils.UTCNow()}
		adapter := &stubAdapter{
			platform: models.PlatformYouTube,
			fetch: func(context.Context, string) (int64, error) {
				return 100, nil
			},
		}
		r := newTestReconciler(testDB, adapter, clock, 3)

		t.Run("PendingSubmissionFlagged", func(t *testing.T) {
			sub, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusPending, 1000)
			require.NoError(t, err)
			_, err = fixtures.CreateTestViewSample(sub, 1000, clock.now.Add(-time.Hour))
			require.NoError(t, err)

			r.runOnce(ctx)

			// The drop is flagged but the observed count still lands
			got, err := subRepo.ByUUID(ctx, sub.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.SubmissionStatusFlagged, got.Status)
			assert.EqualValues(t, 100, got.Views)
			require.NotNil(t, got.FlagKind)
			assert.Equal(t, models.AnomalyViewDecrease, *got.FlagKind)

			samples, err := sampleRepo.ListBySubmission(ctx, sub.ID, 10)
			require.NoError(t, err)
			require.Len(t, samples, 2)
			assert.EqualValues(t, 100, samples[0].Views)
		})

		t.Run("ApprovedSubmissionKeepsStatus", func(t *testing.T) {
			sub, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusApproved, 1000)
			require.NoError(t, err)
			_, err = fixtures.CreateTestViewSample(sub, 1000, clock.now.Add(-time.Hour))
			require.NoError(t, err)

			r.runOnce(ctx)

			// Approved is terminal, so only the count moves
			got, err := subRepo.ByUUID(ctx, sub.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.SubmissionStatusApproved, got.Status)
			assert.EqualValues(t, 100, got.Views)
			assert.Nil(t, got.FlagKind)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestReconcilerDropsNegativeCount(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		subRepo := repository.NewSubmissionRepository(testDB.DB)
		sampleRepo := repository.NewViewSampleRepository(testDB.DB)
		ctx := context.Background()

		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)
		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		sub, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusPending, 100)
		require.NoError(t, err)

		clock := &manualClock{now: utils.UTCNow()}
		adapter := &stubAdapter{
			platform: models.PlatformYouTube,
			fetch: func(context.Context, string) (int64, error) {
				return -5, nil
			},
		}
		r := newTestReconciler(testDB, adapter, clock, 3)
		r.runOnce(ctx)

		got, err := subRepo.ByUUID(ctx, sub.UUID.String())
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionStatusPending, got.Status)
		assert.EqualValues(t, 100, got.Views)
		assert.Nil(t, got.FlagKind)
		require.NotNil(t, got.LastPolledAt)

		samples, err := sampleRepo.ListBySubmission(ctx, sub.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, samples)

		return nil
	})
	require.NoError(t, err)
}

func TestReconcilerUnavailableThreshold(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		subRepo := repository.NewSubmissionRepository(testDB.DB)
		ctx := context.Background()

		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)
		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		sub, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusPending, 100)
		require.NoError(t, err)

		clock := &manualClock{now: utils.UTCNow()}
		adapter := &stubAdapter{
			platform: models.PlatformYouTube,
			fetch: func(context.Context, string) (int64, error) {
				return 0, services.ErrVideoUnavailable
			},
		}
		r := newTestReconciler(testDB, adapter, clock, 3)

		r.runOnce(ctx)
		clock.Advance(2 * time.Hour)
		r.runOnce(ctx)

		got, err := subRepo.ByUUID(ctx, sub.UUID.String())
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionStatusPending, got.Status)
		assert.Equal(t, 2, got.UnavailableCount)

		clock.Advance(2 * time.Hour)
		r.runOnce(ctx)

		got, err = subRepo.ByUUID(ctx, sub.UUID.String())
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionStatusFlagged, got.Status)
		assert.Equal(t, 3, got.UnavailableCount)
		require.NotNil(t, got.FlagKind)
		assert.Equal(t, models.AnomalyUnreachable, *got.FlagKind)

		return nil
	})
	require.NoError(t, err)
}

func TestReconcilerTransientErrorAdvancesCursorOnly(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		subRepo := repository.NewSubmissionRepository(testDB.DB)
		sampleRepo := repository.NewViewSampleRepository(testDB.DB)
		ctx := context.Background()

		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)
		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		sub, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusPending, 100)
		require.NoError(t, err)

		clock := &manualClock{now: utils.UTCNow()}
		adapter := &stubAdapter{
			platform: models.PlatformYouTube,
			fetch: func(context.Context, string) (int64, error) {
				return 0, errors.New("connection reset")
			},
		}
		r := newTestReconciler(testDB, adapter, clock, 3)
		r.runOnce(ctx)

		got, err := subRepo.ByUUID(ctx, sub.UUID.String())
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionStatusPending, got.Status)
		assert.EqualValues(t, 100, got.Views)
		assert.Zero(t, got.UnavailableCount)
		require.NotNil(t, got.LastPolledAt)

		samples, err := sampleRepo.ListBySubmission(ctx, sub.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, samples)

		return nil
	})
	require.NoError(t, err)
}

func TestReconcilerDiscardsPollAfterModeratorDecision(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		subRepo := repository.NewSubmissionRepository(testDB.DB)
		sampleRepo := repository.NewViewSampleRepository(testDB.DB)
		ctx := context.Background()

		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)
		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		sub, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusPending, 100)
		require.NoError(t, err)

		clock := &manualClock{now: utils.UTCNow()}

		// The moderator rejects the submission while its poll is in flight
		adapter := &stubAdapter{
			platform: models.PlatformYouTube,
			fetch: func(context.Context, string) (int64, error) {
				err := testDB.DB.Model(&models.Submission{}).
					Where("id = ?", sub.ID).
					Update("status", models.SubmissionStatusRejected).Error
				if err != nil {
					return 0, err
				}
				return 500, nil
			},
		}
		r := newTestReconciler(testDB, adapter, clock, 3)
		r.runOnce(ctx)

		// The rejection wins: the poll result is discarded wholesale
		got, err := subRepo.ByUUID(ctx, sub.UUID.String())
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionStatusRejected, got.Status)
		assert.EqualValues(t, 100, got.Views)
		assert.Nil(t, got.LastPolledAt)

		samples, err := sampleRepo.ListBySubmission(ctx, sub.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, samples)

		return nil
	})
	require.NoError(t, err)
}
