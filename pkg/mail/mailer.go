package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/guardpost/guardpost/pkg/config"
	"github.com/guardpost/guardpost/pkg/observability"
)

// Mailer sends a plain-text message to a single recipient
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers mail through a configured SMTP relay
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *observability.Logger
}

// NewSMTP creates a mailer for the given SMTP configuration
func NewSMTP(cfg config.SMTPConfig, logger *observability.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Send composes and delivers the message, dialing per call. The SMTP
// conversation is bounded by ctx.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", m.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
	}
	if m.cfg.TLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}

	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail to %s via %s:%d: %w", to, m.cfg.Host, m.cfg.Port, err)
	}

	m.logger.WithField("to", to).Debug("invitation mail delivered")
	return nil
}

// Noop discards all mail; used when no SMTP host is configured
type Noop struct {
	logger *observability.Logger
}

// NewNoop creates a mailer that drops messages with a log line
func NewNoop(logger *observability.Logger) *Noop {
	return &Noop{logger: logger}
}

// Send logs and discards the message
func (m *Noop) Send(_ context.Context, to, subject, _ string) error {
	m.logger.WithFields(map[string]interface{}{
		"to":      to,
		"subject": subject,
	}).Info("SMTP not configured, dropping mail")
	return nil
}
