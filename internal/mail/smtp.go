package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/spec-kit/clinic-booking/internal/config"
)

const dialTimeout = 15 * time.Second

// SMTPSender delivers mail through the configured SMTP relay.
type SMTPSender struct {
	cfg config.MailConfig
}

// NewSMTPSender builds a sender for cfg. The connection is opened per message.
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.cfg.DefaultSender); err != nil {
		return fmt.Errorf("mail sender %q: %w", s.cfg.DefaultSender, err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("mail recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	if msg.TextBody != "" {
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
		if msg.HTMLBody != "" {
			m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
		}
	} else {
		m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	}

	client, err := gomail.NewClient(s.cfg.Server, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (s *SMTPSender) clientOptions() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTimeout(dialTimeout),
	}
	if s.cfg.UseTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

// NewSender picks SMTP when configured, otherwise logs messages.
func NewSender(cfg config.MailConfig, fallback *LogSender) Sender {
	if cfg.Enabled() {
		return NewSMTPSender(cfg)
	}
	return fallback
}
