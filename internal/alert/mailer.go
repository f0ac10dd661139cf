// Package alert emails operators when the nurture engine degrades, e.g.
// when a sweep cannot read its due list at all.
package alert

import (
	"context"
	"fmt"
	"time"

	"nurture_backend/internal/events"
	"nurture_backend/platform/config"
	"nurture_backend/platform/logger"

	gomail "github.com/wneessen/go-mail"
)

// Mailer delivers operator alerts over SMTP. A nil mailer (alerting
// unconfigured) drops alerts silently.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string
	log      *logger.Logger
}

// NewMailer builds a mailer, or nil when alerting is not configured.
func NewMailer(cfg config.AlertConfig, log *logger.Logger) *Mailer {
	if !cfg.IsAlertingEnabled() {
		return nil
	}
	return &Mailer{
		host:     cfg.GetSMTPHost(),
		port:     cfg.GetSMTPPort(),
		username: cfg.GetSMTPUsername(),
		password: cfg.GetSMTPPassword(),
		from:     cfg.GetAlertFromAddress(),
		to:       cfg.GetAlertToAddress(),
		log:      log,
	}
}

// Send delivers one alert email.
func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	if m == nil {
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("alert from: %w", err)
	}
	if err := msg.To(m.to); err != nil {
		return fmt.Errorf("alert to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(m.host,
		gomail.WithPort(m.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.username),
		gomail.WithPassword(m.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("alert smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("alert smtp send: %w", err)
	}
	return nil
}

// SubscribeSweepAborted wires the mailer to the event bus so aborted
// sweeps page an operator.
func (m *Mailer) SubscribeSweepAborted(bus events.Bus) {
	if m == nil || bus == nil {
		return
	}
	bus.Subscribe(events.SweepAborted{}.EventName(), events.HandlerFunc(func(ctx context.Context, ev events.Event) error {
		aborted, ok := ev.(events.SweepAborted)
		if !ok {
			return nil
		}
		err := m.Send(ctx,
			"nurture sweep aborted",
			fmt.Sprintf("A nurture sweep run aborted before selecting any leads.\n\nReason: %s\nAt: %s\n",
				aborted.Reason, aborted.OccurredAt().Format(time.RFC3339)),
		)
		if err != nil {
			m.log.Error("sweep-aborted alert delivery failed", "error", err)
		}
		return err
	}))
}
