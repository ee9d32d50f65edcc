package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/clipforge/clipforge/models"
	"github.com/clipforge/clipforge/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates a creator account with a random external account id
func (tf *TestFixtures) CreateTestUser() (*models.User, error) {
	user := &models.User{
		UUID:      uuid.New(),
		AccountID: fmt.Sprintf("acct_%d", rand.Int63()),
		Username:  "testcreator",
		Banned:    utils.ToPtr(false),
	}
	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}
	return user, nil
}

// CreateTestCampaign creates an active campaign allowing the given platforms
func (tf *TestFixtures) CreateTestCampaign(platforms ...models.Platform) (*models.Campaign, error) {
	if len(platforms) == 0 {
		platforms = []models.Platform{models.PlatformYouTube}
	}
	raw := make(pq.StringArray, 0, len(platforms))
	for _, p := range platforms {
		raw = append(raw, string(p))
	}

	campaign := &models.Campaign{
		UUID:           uuid.New(),
		Name:           fmt.Sprintf("campaign-%d", rand.Int63()),
		Description:    "test campaign",
		Type:           models.CampaignTypeClipping,
		Platforms:      raw,
		RatePer1KCents: 500,
		Status:         models.CampaignStatusActive,
		CreatedAt:      utils.UTCNow(),
	}
	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}
	return campaign, nil
}

// CreateTestMember joins the user to the campaign
func (tf *TestFixtures) CreateTestMember(campaign *models.Campaign, user *models.User) (*models.CampaignMember, error) {
	member := &models.CampaignMember{
		CampaignID: campaign.ID,
		UserID:     user.ID,
		JoinedAt:   utils.UTCNow(),
	}
	if err := tf.DB.DB.Create(member).Error; err != nil {
		return nil, fmt.Errorf("failed to create test membership: %w", err)
	}
	return member, nil
}

// CreateTestSubmission creates a submission in the given status
func (tf *TestFixtures) CreateTestSubmission(campaign *models.Campaign, user *models.User, status models.SubmissionStatus, views int64) (*models.Submission, error) {
	submission := &models.Submission{
		UUID:        uuid.New(),
		CampaignID:  campaign.ID,
		UserID:      user.ID,
		VideoURL:    fmt.Sprintf("https://youtube.com/watch?v=%d", rand.Int63()),
		Platform:    models.PlatformYouTube,
		Views:       views,
		Status:      status,
		SubmittedAt: utils.UTCNow(),
	}
	if err := tf.DB.DB.Create(submission).Error; err != nil {
		return nil, fmt.Errorf("failed to create test submission: %w", err)
	}
	return submission, nil
}

// CreateTestViewSample records one observation for the submission
func (tf *TestFixtures) CreateTestViewSample(submission *models.Submission, views int64, observedAt time.Time) (*models.ViewSample, error) {
	sample := &models.ViewSample{
		SubmissionID: submission.ID,
		Views:        views,
		Platform:     submission.Platform,
		ObservedAt:   observedAt,
	}
	if err := tf.DB.DB.Create(sample).Error; err != nil {
		return nil, fmt.Errorf("failed to create test view sample: %w", err)
	}
	return sample, nil
}

// CreateTestPayout creates a pending payout for the user on the campaign
func (tf *TestFixtures) CreateTestPayout(campaign *models.Campaign, user *models.User, amountCents, totalViews int64) (*models.Payout, error) {
	payout := &models.Payout{
		UUID:        uuid.New(),
		UserID:      user.ID,
		CampaignID:  campaign.ID,
		AmountCents: amountCents,
		TotalViews:  totalViews,
		Status:      models.PayoutStatusPending,
		RequestedAt: utils.UTCNow(),
	}
	if err := tf.DB.DB.Create(payout).Error; err != nil {
		return nil, fmt.Errorf("failed to create test payout: %w", err)
	}
	return payout, nil
}
