// Package mail delivers transactional email. The SMTP sender is used in
// production; the log sender stands in during local development so the
// verification flow works without a mail server.
package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/r-scheele/authgate/internal/logging"
)

// Sender delivers a single message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail through an SMTP relay using gomail. A dialer is
// created per message; gomail keeps no long-lived connection either way.
type SMTPSender struct {
	host string
	port int
	user string
	pass string
	from string
}

func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, user: user, pass: pass, from: from}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.host, s.port, s.user, s.pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// LogSender writes the message to the log instead of delivering it.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.Info(ctx, "mail delivery skipped, no SMTP configured", "to", to, "subject", subject, "body", body)
	return nil
}

// VerificationBody renders the email carrying a signup verification code.
func VerificationBody(code int) (subject, body string) {
	subject = "Verify your account"
	body = fmt.Sprintf("<p>Your verification code is <b>%06d</b>.</p>", code)
	return subject, body
}
