package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Mailer delivers transactional e-mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, plainBody, htmlBody string) error
}

// SMTPConfig describes the outbound SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

// NewSMTPMailer creates a mailer for cfg.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, plainBody, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", plainBody)
	if htmlBody != "" {
		msg.AddAlternative("text/html", htmlBody)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when
// no SMTP host is configured.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(_ context.Context, to, subject, plainBody, _ string) error {
	l := m.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("email not sent: smtp disabled", "to", to, "subject", subject, "body", plainBody)
	return nil
}

// OTPMessage renders the one-time password e-mail.
func OTPMessage(purpose, otp string, ttlMinutes int) (subject, plain, html string) {
	subject = "Your TailorOne verification code"
	if purpose == "reset" {
		subject = "Reset your TailorOne password"
	}
	plain = fmt.Sprintf("Your code is %s. It expires in %d minutes.\n\nIf you did not request it, ignore this email.", otp, ttlMinutes)
	html = fmt.Sprintf(`
		<html>
		<body>
			<p>Your code is <strong>%s</strong>.</p>
			<p>It expires in %d minutes.</p>
			<p>If you did not request it, ignore this email.</p>
		</body>
		</html>
	`, otp, ttlMinutes)
	return subject, plain, html
}
