package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SMTPConfig holds relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer renders HTML messages and hands them to an SMTP relay.
type SMTPMailer struct {
	cfg    SMTPConfig
	ttl    time.Duration
	logger *zap.Logger
	send   sendFunc
}

// NewSMTPMailer returns a mailer for cfg. ttl is the code lifetime quoted in
// the reset email.
func NewSMTPMailer(cfg SMTPConfig, ttl time.Duration, logger *zap.Logger) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPMailer{cfg: cfg, ttl: ttl, logger: logger.Named("mailer"), send: smtp.SendMail}
}

var resetOTPTemplate = template.Must(template.New("reset_otp").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1>Password Reset Request</h1>
  <p>Hello {{.Name}},</p>
  <p>We received a request to reset your password. Use the code below to continue:</p>
  <p style="font-size: 32px; letter-spacing: 5px; font-family: monospace;">{{.Code}}</p>
  <ul>
    <li>This code is valid for <strong>{{.Minutes}} minutes</strong> only</li>
    <li>Do not share this code with anyone</li>
    <li>If you didn't request this password reset, please ignore this email</li>
  </ul>
</div>`))

var resetSuccessTemplate = template.Must(template.New("reset_success").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1>Password Changed</h1>
  <p>Hello {{.Name}},</p>
  <p>Your password was reset successfully. If this wasn't you, contact support immediately.</p>
</div>`))

func (m *SMTPMailer) SendPasswordResetOTP(ctx context.Context, email, code, name string) error {
	data := struct {
		Name    string
		Code    string
		Minutes int
	}{displayName(name), code, int(m.ttl.Minutes())}
	return m.deliver(ctx, email, "Password Reset - Your OTP Code", resetOTPTemplate, data)
}

func (m *SMTPMailer) SendPasswordResetSuccess(ctx context.Context, email, name string) error {
	data := struct{ Name string }{displayName(name)}
	return m.deliver(ctx, email, "Your password has been changed", resetSuccessTemplate, data)
}

func (m *SMTPMailer) deliver(ctx context.Context, to, subject string, tmpl *template.Template, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
	}

	msg := buildMessage(m.cfg.From, to, subject, body.String())
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	m.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func buildMessage(from, to, subject, html string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}
