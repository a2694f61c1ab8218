package email

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-api/internal/config"
)

// Attachment is an in-memory file sent along with a message.
type Attachment struct {
	Name string
	Data []byte
}

type Service interface {
	Send(ctx context.Context, to, subject, body string, attachments ...Attachment) error
}

// sender is satisfied by *gomail.Dialer.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	sender sender
	from   string
	logger *zerolog.Logger
}

// NewService returns an SMTP backed mailer, or a no-op one when cfg.Host is empty.
func NewService(cfg config.SMTPConfig, logger *zerolog.Logger) Service {
	if cfg.Host == "" {
		return noopService{logger: logger}
	}
	return &smtpService{
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

func (s *smtpService) Send(ctx context.Context, to, subject, body string, attachments ...Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	for _, a := range attachments {
		data := a.Data
		m.Attach(a.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}

	s.logger.Debug().Str("to", to).Str("subject", subject).Msg("Email sent")
	return nil
}

type noopService struct {
	logger *zerolog.Logger
}

func (n noopService) Send(ctx context.Context, to, subject, body string, attachments ...Attachment) error {
	n.logger.Debug().Str("to", to).Str("subject", subject).Msg("SMTP not configured, email skipped")
	return nil
}
