package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-candy/internal/common"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
	"github.com/noah-isme/backend-candy/internal/events"
	"github.com/noah-isme/backend-candy/internal/money"
)

// EmailNotifier emails the customer about their order.
type EmailNotifier struct {
	Mail         common.EmailSender
	Enabled      bool
	TopicToggles map[string]bool
}

// DefaultTopicToggles mails on creation and status changes but not on edits.
func DefaultTopicToggles() map[string]bool {
	return map[string]bool{
		events.TopicOrderCreated:       true,
		events.TopicOrderUpdated:       false,
		events.TopicOrderStatusChanged: true,
	}
}

// Notify implements events.Notifier.
func (n EmailNotifier) Notify(_ context.Context, event dbgen.DomainEvent) error {
	if !n.Enabled || n.Mail == nil {
		return nil
	}
	if n.TopicToggles != nil {
		if enabled, ok := n.TopicToggles[event.Topic]; ok && !enabled {
			return nil
		}
	}
	var payload events.OrderPayload
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("email notify: decode payload: %w", err)
		}
	}
	to := strings.TrimSpace(payload.CustomerEmail)
	if to == "" {
		return nil
	}
	return n.Mail.Send(to, subjectFor(event.Topic, payload), bodyFor(payload, event.OccurredAt.Time))
}

var statusLabels = map[string]string{
	"new":        "нове",
	"confirmed":  "підтверджено",
	"assembling": "збирається",
	"shipped":    "відправлено",
	"received":   "отримано",
}

func statusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

func subjectFor(topic string, p events.OrderPayload) string {
	switch topic {
	case events.TopicOrderCreated:
		return fmt.Sprintf("Замовлення %s прийнято", p.Number)
	case events.TopicOrderStatusChanged:
		return fmt.Sprintf("Замовлення %s: %s", p.Number, statusLabel(p.Status))
	default:
		return fmt.Sprintf("Замовлення %s оновлено", p.Number)
	}
}

func bodyFor(p events.OrderPayload, occurred time.Time) string {
	var b strings.Builder
	if name := strings.TrimSpace(p.CustomerName); name != "" {
		fmt.Fprintf(&b, "Вітаємо, %s!\n", name)
	}
	fmt.Fprintf(&b, "Замовлення: %s\n", p.Number)
	fmt.Fprintf(&b, "Статус: %s\n", statusLabel(p.Status))
	fmt.Fprintf(&b, "Сума: %s грн\n", money.Format(p.RevenueMinor))
	if !occurred.IsZero() {
		fmt.Fprintf(&b, "Час: %s\n", occurred.Format(time.RFC3339))
	}
	return b.String()
}

// LogSender records outbound mail in the log instead of delivering it. It is
// the default transport until a mail provider is configured.
type LogSender struct {
	From   string
	Logger zerolog.Logger
}

// Send implements common.EmailSender.
func (s LogSender) Send(to, subject, html string) error {
	s.Logger.Info().Str("from", s.From).Str("to", to).Str("subject", subject).Int("bytes", len(html)).Msg("email queued for delivery")
	return nil
}
