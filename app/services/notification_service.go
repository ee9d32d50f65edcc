package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/clipforge/clipforge/config"
)

// NotificationEvent identifies what happened
type NotificationEvent string

const (
	EventSubmissionApproved NotificationEvent = "submission_approved"
	EventSubmissionRejected NotificationEvent = "submission_rejected"
	EventSubmissionFlagged  NotificationEvent = "submission_flagged"
	EventPayoutRequested    NotificationEvent = "payout_requested"
	EventPayoutProcessed    NotificationEvent = "payout_processed"
)

// Notification is one message for a creator or moderation channel
type Notification struct {
	Event   NotificationEvent `json:"event"`
	UserRef string            `json:"user_ref"`
	Title   string            `json:"title"`
	Body    string            `json:"body"`
}

// NotificationService delivers user-facing notifications. Delivery is best
// effort; callers must not fail their own operation on notifier errors.
type NotificationService interface {
	Notify(ctx context.Context, n Notification) error
}

// WebhookNotificationService posts notifications to a chat webhook
type WebhookNotificationService struct {
	cfg    config.NotificationConfig
	client *http.Client
}

// NewWebhookNotificationService creates a webhook-backed notifier
func NewWebhookNotificationService(cfg config.NotificationConfig) NotificationService {
	return &WebhookNotificationService{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.WebhookTimeout,
		},
	}
}

// Notify posts one message to the configured webhook
func (s *WebhookNotificationService) Notify(ctx context.Context, n Notification) error {
	if s.cfg.WebhookURL == "" {
		return fmt.Errorf("notification webhook not configured")
	}

	payload := struct {
		Content string `json:"content"`
		Embeds  []any  `json:"embeds"`
	}{
		Content: n.UserRef,
		Embeds: []any{map[string]any{
			"title":       n.Title,
			"description": n.Body,
			"footer":      map[string]any{"text": string(n.Event)},
		}},
	}

	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook http status: %d", resp.StatusCode)
	}
	return nil
}

// LogNotificationService writes notifications to the application log. Used
// when no webhook is configured.
type LogNotificationService struct{}

// NewLogNotificationService creates a log-backed notifier
func NewLogNotificationService() NotificationService {
	return &LogNotificationService{}
}

// Notify logs the notification
func (s *LogNotificationService) Notify(ctx context.Context, n Notification) error {
	log.Printf("notification [%s] %s: %s (%s)", n.Event, n.Title, n.Body, n.UserRef)
	return nil
}
