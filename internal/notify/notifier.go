package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/mentorbook/mentorbook-api/pkg/circuitbreaker"
	"github.com/mentorbook/mentorbook-api/pkg/httpclient"
	"github.com/mentorbook/mentorbook-api/pkg/logger"
	"github.com/mentorbook/mentorbook-api/pkg/metrics"
	"github.com/mentorbook/mentorbook-api/pkg/retry"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Event names carried in the webhook payload
const (
	EventSessionCreated     = "session.created"
	EventSessionUpdated     = "session.updated"
	EventSessionCancelled   = "session.cancelled"
	EventSessionRescheduled = "session.rescheduled"
	EventSessionCompleted   = "session.completed"
)

// Notifier dispatches best-effort lifecycle notifications. Dispatch must
// never block or fail a committed booking transition; failures are logged
// and counted, nothing more.
type Notifier interface {
	SessionEvent(event string, session *models.Session, recipients []uuid.UUID)
}

// WebhookNotifier posts session events to a configured webhook endpoint.
// Calls run asynchronously behind a retry loop and a circuit breaker so a
// dead endpoint cannot pile up goroutines.
type WebhookNotifier struct {
	webhookURL string
	httpClient httpclient.Client
	breaker    *gobreaker.CircuitBreaker
	retryCfg   retry.Config
}

// NewWebhookNotifier creates a webhook notifier. An empty URL disables
// dispatch entirely.
func NewWebhookNotifier(webhookURL string, client httpclient.Client) *WebhookNotifier {
	return &WebhookNotifier{
		webhookURL: webhookURL,
		httpClient: client,
		breaker:    circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("notify-webhook")),
		retryCfg:   retry.WebhookConfig(),
	}
}

type eventPayload struct {
	Event      string      `json:"event"`
	SessionID  uuid.UUID   `json:"sessionId"`
	MentorID   uuid.UUID   `json:"mentorId"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	Status     string      `json:"status"`
	Recipients []uuid.UUID `json:"recipients"`
	SentAt     time.Time   `json:"sentAt"`
}

// SessionEvent dispatches one event in the background
func (n *WebhookNotifier) SessionEvent(event string, session *models.Session, recipients []uuid.UUID) {
	if n.webhookURL == "" {
		return
	}

	payload := eventPayload{
		Event:      event,
		SessionID:  session.ID,
		MentorID:   session.MentorID,
		Start:      session.ScheduleStart,
		End:        session.ScheduleEnd,
		Status:     string(session.Status),
		Recipients: recipients,
		SentAt:     time.Now().UTC(),
	}

	go func() {
		body, err := json.Marshal(payload)
		if err != nil {
			logger.Error("Failed to encode notification payload", zap.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err = retry.Do(ctx, n.retryCfg, "notifyWebhook", func() error {
			_, callErr := circuitbreaker.Execute(n.breaker, func() (struct{}, error) {
				return struct{}{}, n.post(body)
			})
			return circuitbreaker.FormatError(n.breaker.Name(), callErr)
		})

		if err != nil {
			metrics.NotificationsDispatched.WithLabelValues(event, "error").Inc()
			logger.Warn("Notification dispatch failed",
				zap.String("event", event),
				zap.String("session_id", session.ID.String()),
				zap.Error(err))
			return
		}

		metrics.NotificationsDispatched.WithLabelValues(event, "success").Inc()
		logger.Info("Notification dispatched",
			zap.String("event", event),
			zap.String("session_id", session.ID.String()),
			zap.Int("recipients", len(recipients)))
	}()
}

func (n *WebhookNotifier) post(body []byte) error {
	resp, err := n.httpClient.Post(n.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NopNotifier discards all events; used when no webhook is configured and
// in tests
type NopNotifier struct{}

// SessionEvent implements Notifier
func (NopNotifier) SessionEvent(string, *models.Session, []uuid.UUID) {}
