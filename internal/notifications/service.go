package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dossier/internal/config"
)

const userAgent = "Dossier/0.1.0"

// Event identifies a notification template. Step side effects in the catalog
// reference these kinds by string value.
type Event string

const (
	EventFilingSubmitted  Event = "filing_submitted"
	EventCapitalDeposit   Event = "capital_deposit_confirmed"
	EventRegistrationDone Event = "registration_completed"
	EventStepValidated    Event = "step_validated"
	EventCaseAccepted     Event = "case_accepted"
	EventCaseRejected     Event = "case_rejected"
	EventTestNotification Event = "test"
)

// Payload carries template values for an event.
type Payload map[string]string

// Service is the outbound notification surface consumed by the workflow
// engine. Delivery is best effort; callers never treat failure as fatal.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		transitions: cfg.Notifications.Transitions,
		validation:  cfg.Notifications.Validation,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	transitions bool
	validation  bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled(event) {
		return nil
	}
	return n.send(ctx, render(event, payload))
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventStepValidated:
		return n.validation
	case EventFilingSubmitted, EventCapitalDeposit, EventRegistrationDone:
		return n.transitions
	default:
		return true
	}
}

func render(event Event, payload Payload) message {
	caseLabel := strings.TrimSpace(payload["case_id"])
	if caseLabel == "" {
		caseLabel = "unknown case"
	}
	step := strings.TrimSpace(payload["step_name"])

	switch event {
	case EventFilingSubmitted:
		return message{
			title: "Dossier - Filing Submitted",
			body:  fmt.Sprintf("Registry filing submitted for case %s", caseLabel),
			tags:  []string{"dossier", "filing", "submitted"},
		}
	case EventCapitalDeposit:
		return message{
			title: "Dossier - Capital Deposit",
			body:  fmt.Sprintf("Capital deposit confirmed for case %s", caseLabel),
			tags:  []string{"dossier", "capital", "confirmed"},
		}
	case EventRegistrationDone:
		return message{
			title:    "Dossier - Registration Complete",
			body:     fmt.Sprintf("Company registration completed for case %s", caseLabel),
			tags:     []string{"dossier", "registration", "completed"},
			priority: "high",
		}
	case EventStepValidated:
		body := fmt.Sprintf("Step validated on case %s", caseLabel)
		if step != "" {
			body = fmt.Sprintf("Step %q validated on case %s", step, caseLabel)
		}
		return message{
			title: "Dossier - Step Validated",
			body:  body,
			tags:  []string{"dossier", "step", "validated"},
		}
	case EventCaseAccepted:
		return message{
			title:    "Dossier - Case Accepted",
			body:     fmt.Sprintf("Case %s accepted and closed", caseLabel),
			tags:     []string{"dossier", "case", "accepted"},
			priority: "high",
		}
	case EventCaseRejected:
		return message{
			title:    "Dossier - Case Rejected",
			body:     fmt.Sprintf("Case %s rejected", caseLabel),
			tags:     []string{"dossier", "case", "rejected"},
			priority: "high",
		}
	case EventTestNotification:
		return message{
			title:    "Dossier - Test",
			body:     "Notification system test",
			tags:     []string{"dossier", "test"},
			priority: "low",
		}
	default:
		body := fmt.Sprintf("Event %s on case %s", event, caseLabel)
		if step != "" {
			body = fmt.Sprintf("Event %s for step %q on case %s", event, step, caseLabel)
		}
		return message{
			title: "Dossier",
			body:  body,
			tags:  []string{"dossier"},
		}
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
