package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer delivers the one-time password email.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
	Name() string
}

// SMTPMailer sends HTML mail through an authenticated SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

func NewSMTPMailer(host string, port int, email, password string, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, email, password),
		from:   email,
		logger: logger.Named("mailer"),
	}
}

func (m *SMTPMailer) Name() string {
	return "smtp"
}

func (m *SMTPMailer) SendOTP(_ context.Context, to, code string, ttl time.Duration) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your OTP Code - ArogyaAI")
	msg.SetBody("text/html", otpEmailBody(code, ttl))

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error("send otp mail failed", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrMailFailed, err)
	}
	m.logger.Info("otp mail sent", zap.String("to", to))
	return nil
}

// LogMailer writes the code to the log instead of sending it. Only wired when
// SMTP is not configured outside production.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger.Named("mailer")}
}

func (m *LogMailer) Name() string {
	return "log"
}

func (m *LogMailer) SendOTP(_ context.Context, to, code string, ttl time.Duration) error {
	m.logger.Debug("otp mail (not sent)",
		zap.String("to", to),
		zap.String("code", code),
		zap.Duration("ttl", ttl),
	)
	return nil
}

func otpEmailBody(code string, ttl time.Duration) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	sb.WriteString("<h2>ArogyaAI - OTP Verification</h2>")
	fmt.Fprintf(&sb, "<p>Your OTP code is: <strong>%s</strong></p>", code)
	fmt.Fprintf(&sb, "<p>This code will expire in %d minutes.</p>", int(ttl.Minutes()))
	sb.WriteString("<p>If you didn't request this code, please ignore this email.</p>")
	sb.WriteString("<br><p>Best regards,<br>ArogyaAI Team</p>")
	sb.WriteString("</body></html>")
	return sb.String()
}
