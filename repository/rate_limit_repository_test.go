package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/clipforge/clipforge/repository"
	testingutil "github.com/clipforge/clipforge/testing"
	"github.com/clipforge/clipforge/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitRepositoryTryAcquire(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewRateLimitRepository(testDB.DB)
		ctx := context.Background()

		interval := 5 * time.Minute
		now := utils.UTCNow()

		t.Run("FirstAcquireAllowed", func(t *testing.T) {
			allowed, err := repo.TryAcquire(ctx, "user:1", "submission_create", now, now.Add(-interval))
			require.NoError(t, err)
			assert.True(t, allowed)

			entry, err := repo.Get(ctx, "user:1", "submission_create")
			require.NoError(t, err)
			require.NotNil(t, entry)
			assert.WithinDuration(t, now, entry.LastActionAt, time.Second)
		})

		t.Run("ImmediateRetryDenied", func(t *testing.T) {
			later := now.Add(time.Second)
			allowed, err := repo.TryAcquire(ctx, "user:1", "submission_create", later, later.Add(-interval))
			require.NoError(t, err)
			assert.False(t, allowed)

			// A denied attempt must not push the window forward
			entry, err := repo.Get(ctx, "user:1", "submission_create")
			require.NoError(t, err)
			require.NotNil(t, entry)
			assert.WithinDuration(t, now, entry.LastActionAt, time.Second)
		})

		t.Run("AllowedAfterInterval", func(t *testing.T) {
			later := now.Add(interval)
			allowed, err := repo.TryAcquire(ctx, "user:1", "submission_create", later, later.Add(-interval))
			require.NoError(t, err)
			assert.True(t, allowed)

			entry, err := repo.Get(ctx, "user:1", "submission_create")
			require.NoError(t, err)
			require.NotNil(t, entry)
			assert.WithinDuration(t, later, entry.LastActionAt, time.Second)
		})

		t.Run("KeysAreIndependent", func(t *testing.T) {
			allowed, err := repo.TryAcquire(ctx, "user:1", "payout_request", now, now.Add(-interval))
			require.NoError(t, err)
			assert.True(t, allowed)

			allowed, err = repo.TryAcquire(ctx, "user:2", "submission_create", now, now.Add(-interval))
			require.NoError(t, err)
			assert.True(t, allowed)
		})

		t.Run("GetAbsentKey", func(t *testing.T) {
			entry, err := repo.Get(ctx, "user:99", "submission_create")
			require.NoError(t, err)
			assert.Nil(t, entry)
		})

		return nil
	})
	require.NoError(t, err)
}
