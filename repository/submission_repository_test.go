package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/clipforge/clipforge/models"
	"github.com/clipforge/clipforge/repository"
	testingutil "github.com/clipforge/clipforge/testing"
	"github.com/clipforge/clipforge/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionRepositoryListDueForPoll(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewSubmissionRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := context.Background()

		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)
		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		now := utils.UTCNow()
		cutoff := now.Add(-time.Hour)

		neverPolled, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusPending, 100)
		require.NoError(t, err)

		stale, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusApproved, 200)
		require.NoError(t, err)
		staleAt := now.Add(-2 * time.Hour)
		stale.LastPolledAt = &staleAt
		affected, err := repo.UpdateStatusFrom(ctx, stale, stale.Status)
		require.NoError(t, err)
		require.EqualValues(t, 1, affected)

		fresh, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusPending, 300)
		require.NoError(t, err)
		freshAt := now.Add(-time.Minute)
		fresh.LastPolledAt = &freshAt
		affected, err = repo.UpdateStatusFrom(ctx, fresh, fresh.Status)
		require.NoError(t, err)
		require.EqualValues(t, 1, affected)

		rejected, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusRejected, 400)
		require.NoError(t, err)

		platforms := []models.Platform{models.PlatformYouTube}

		t.Run("NeverPolledFirstThenStale", func(t *testing.T) {
			due, err := repo.ListDueForPoll(ctx, platforms, cutoff, 0)
			require.NoError(t, err)
			require.Len(t, due, 2)
			assert.Equal(t, neverPolled.ID, due[0].ID)
			assert.Equal(t, stale.ID, due[1].ID)
		})

		t.Run("FreshAndRejectedExcluded", func(t *testing.T) {
			due, err := repo.ListDueForPoll(ctx, platforms, cutoff, 0)
			require.NoError(t, err)
			for _, s := range due {
				assert.NotEqual(t, fresh.ID, s.ID)
				assert.NotEqual(t, rejected.ID, s.ID)
			}
		})

		t.Run("LimitApplied", func(t *testing.T) {
			due, err := repo.ListDueForPoll(ctx, platforms, cutoff, 1)
			require.NoError(t, err)
			require.Len(t, due, 1)
			assert.Equal(t, neverPolled.ID, due[0].ID)
		})

		t.Run("NoAdapterPlatforms", func(t *testing.T) {
			due, err := repo.ListDueForPoll(ctx, nil, cutoff, 0)
			require.NoError(t, err)
			assert.Empty(t, due)
		})

		t.Run("OtherPlatformExcluded", func(t *testing.T) {
			due, err := repo.ListDueForPoll(ctx, []models.Platform{models.PlatformTikTok}, cutoff, 0)
			require.NoError(t, err)
			assert.Empty(t, due)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSubmissionRepositoryUpdateStatusFrom(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewSubmissionRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := context.Background()

		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)
		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		t.Run("MatchingStatusWrites", func(t *testing.T) {
			sub, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusPending, 100)
			require.NoError(t, err)

			now := utils.UTCNow()
			sub.Status = models.SubmissionStatusApproved
			sub.Views = 250
			sub.LastReviewedAt = &now

			affected, err := repo.UpdateStatusFrom(ctx, sub, models.SubmissionStatusPending)
			require.NoError(t, err)
			assert.EqualValues(t, 1, affected)

			got, err := repo.ByUUID(ctx, sub.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, models.SubmissionStatusApproved, got.Status)
			assert.EqualValues(t, 250, got.Views)
			assert.NotNil(t, got.LastReviewedAt)
		})

		t.Run("StaleStatusWritesNothing", func(t *testing.T) {
			sub, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusRejected, 100)
			require.NoError(t, err)

			// A writer that read the row as pending lost the race
			stale := *sub
			stale.Status = models.SubmissionStatusPending
			stale.Views = 999
			polled := utils.UTCNow()
			stale.LastPolledAt = &polled

			affected, err := repo.UpdateStatusFrom(ctx, &stale, models.SubmissionStatusPending)
			require.NoError(t, err)
			assert.EqualValues(t, 0, affected)

			got, err := repo.ByUUID(ctx, sub.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, models.SubmissionStatusRejected, got.Status)
			assert.EqualValues(t, 100, got.Views)
			assert.Nil(t, got.LastPolledAt)
		})

		t.Run("PaidMarkersUntouched", func(t *testing.T) {
			sub, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusApproved, 100)
			require.NoError(t, err)
			payout, err := fixtures.CreateTestPayout(campaign, user, 50, 100)
			require.NoError(t, err)
			marked, err := repo.MarkPaid(ctx, []uint{sub.ID}, payout.ID, utils.UTCNow())
			require.NoError(t, err)
			require.EqualValues(t, 1, marked)

			fresh, err := repo.ByUUID(ctx, sub.UUID.String())
			require.NoError(t, err)
			fresh.Views = 500
			affected, err := repo.UpdateStatusFrom(ctx, fresh, models.SubmissionStatusApproved)
			require.NoError(t, err)
			require.EqualValues(t, 1, affected)

			got, err := repo.ByUUID(ctx, sub.UUID.String())
			require.NoError(t, err)
			assert.True(t, got.IsPaid())
			require.NotNil(t, got.PayoutID)
			assert.Equal(t, payout.ID, *got.PayoutID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSubmissionRepositoryPaidMarkers(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewSubmissionRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := context.Background()

		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)
		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		first, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusApproved, 10000)
		require.NoError(t, err)
		second, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusApproved, 4000)
		require.NoError(t, err)
		pending, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusPending, 500)
		require.NoError(t, err)

		payout, err := fixtures.CreateTestPayout(campaign, user, 7000, 14000)
		require.NoError(t, err)

		t.Run("ListApprovedUnpaidForUpdate", func(t *testing.T) {
			err := repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				eligible, err := repo.ListApprovedUnpaidForUpdate(txCtx, campaign.ID, user.ID)
				require.NoError(t, err)
				require.Len(t, eligible, 2)
				assert.Equal(t, first.ID, eligible[0].ID)
				assert.Equal(t, second.ID, eligible[1].ID)
				return nil
			})
			require.NoError(t, err)
		})

		t.Run("MarkPaid", func(t *testing.T) {
			paidAt := utils.UTCNow()
			count, err := repo.MarkPaid(ctx, []uint{first.ID, second.ID}, payout.ID, paidAt)
			require.NoError(t, err)
			assert.Equal(t, int64(2), count)

			got, err := repo.ByUUID(ctx, first.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, got.IsPaid())
			require.NotNil(t, got.PayoutID)
			assert.Equal(t, payout.ID, *got.PayoutID)
		})

		t.Run("MarkPaidSkipsAlreadyPaid", func(t *testing.T) {
			count, err := repo.MarkPaid(ctx, []uint{first.ID, pending.ID}, payout.ID, utils.UTCNow())
			require.NoError(t, err)
			// pending was never paid, first already is
			assert.Equal(t, int64(1), count)
		})

		t.Run("UnmarkPaid", func(t *testing.T) {
			count, err := repo.UnmarkPaid(ctx, payout.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)

			err = repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				eligible, err := repo.ListApprovedUnpaidForUpdate(txCtx, campaign.ID, user.ID)
				require.NoError(t, err)
				assert.Len(t, eligible, 2)
				return nil
			})
			require.NoError(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}
