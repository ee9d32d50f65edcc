package businessflow

import (
	"context"
	"testing"

	"github.com/clipforge/clipforge/app/dto"
	"github.com/clipforge/clipforge/app/services"
	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/models"
	"github.com/clipforge/clipforge/repository"
	testingutil "github.com/clipforge/clipforge/testing"
	"github.com/clipforge/clipforge/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSubmissionFlow(testDB *testingutil.TestDB) SubmissionFlow {
	return NewSubmissionFlow(
		repository.NewSubmissionRepository(testDB.DB),
		repository.NewCampaignRepository(testDB.DB),
		repository.NewCampaignMemberRepository(testDB.DB),
		repository.NewUserRepository(testDB.DB),
		repository.NewViewSampleRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		services.NewAdapterRegistry(),
		NewRateLimiter(repository.NewRateLimitRepository(testDB.DB), nil),
		nil,
		config.RateLimitConfig{},
		nil,
		testDB.DB,
	)
}

func TestFlagSubmissionIdempotent(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newTestSubmissionFlow(testDB)
		subRepo := repository.NewSubmissionRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := context.Background()

		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)
		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		sub, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusPending, 100)
		require.NoError(t, err)

		detail := utils.ToPtr("looks botted")
		req := &dto.FlagSubmissionRequest{SubmissionUUID: sub.UUID.String(), Detail: detail}

		resp, err := flow.FlagSubmission(ctx, req, nil)
		require.NoError(t, err)
		assert.Equal(t, string(models.SubmissionStatusFlagged), resp.Status)

		t.Run("SameReasonIsNoOp", func(t *testing.T) {
			resp, err := flow.FlagSubmission(ctx, req, nil)
			require.NoError(t, err)
			assert.Equal(t, string(models.SubmissionStatusFlagged), resp.Status)

			got, err := subRepo.ByUUID(ctx, sub.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, got.FlagDetail)
			assert.Equal(t, *detail, *got.FlagDetail)
		})

		t.Run("DifferentReasonConflicts", func(t *testing.T) {
			other := &dto.FlagSubmissionRequest{
				SubmissionUUID: sub.UUID.String(),
				Detail:         utils.ToPtr("purchased views"),
			}
			_, err := flow.FlagSubmission(ctx, other, nil)
			require.Error(t, err)
			assert.True(t, IsInvalidTransition(err))

			got, err := subRepo.ByUUID(ctx, sub.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, got.FlagDetail)
			assert.Equal(t, *detail, *got.FlagDetail)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestApproveSubmissionWithAuthoritativeViews(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newTestSubmissionFlow(testDB)
		subRepo := repository.NewSubmissionRepository(testDB.DB)
		sampleRepo := repository.NewViewSampleRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := context.Background()

		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)
		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		sub, err := fixtures.CreateTestSubmission(campaign, user, models.SubmissionStatusPending, 100)
		require.NoError(t, err)

		req := &dto.ReviewSubmissionRequest{
			SubmissionUUID: sub.UUID.String(),
			Views:          utils.ToPtr(int64(4200)),
		}
		resp, err := flow.ApproveSubmission(ctx, req, nil)
		require.NoError(t, err)
		assert.Equal(t, string(models.SubmissionStatusApproved), resp.Status)
		assert.EqualValues(t, 4200, resp.Views)

		got, err := subRepo.ByUUID(ctx, sub.UUID.String())
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionStatusApproved, got.Status)
		assert.EqualValues(t, 4200, got.Views)
		assert.Nil(t, got.FlagKind)

		// The count the moderator supplied is on the sample record too
		samples, err := sampleRepo.ListBySubmission(ctx, sub.ID, 10)
		require.NoError(t, err)
		require.Len(t, samples, 1)
		assert.EqualValues(t, 4200, samples[0].Views)

		t.Run("SecondApproveConflicts", func(t *testing.T) {
			_, err := flow.ApproveSubmission(ctx, req, nil)
			require.Error(t, err)
			assert.True(t, IsInvalidTransition(err))
		})

		return nil
	})
	require.NoError(t, err)
}
