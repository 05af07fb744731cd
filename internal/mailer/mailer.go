package mailer

//go:generate mockgen -source=mailer.go -destination=mocks/mock_mailer.go -package=mocks

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers password reset messages.
type Mailer interface {
	SendPasswordResetOTP(ctx context.Context, email, code, name string) error
	SendPasswordResetSuccess(ctx context.Context, email, name string) error
}

// LogMailer writes messages to the log instead of sending them. It is the
// development default when no SMTP host is configured.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger.Named("mailer")}
}

func (m *LogMailer) SendPasswordResetOTP(_ context.Context, email, code, name string) error {
	m.logger.Info("password reset code",
		zap.String("email", email),
		zap.String("name", displayName(name)),
		zap.String("otp", code),
	)
	return nil
}

func (m *LogMailer) SendPasswordResetSuccess(_ context.Context, email, name string) error {
	m.logger.Info("password reset confirmation",
		zap.String("email", email),
		zap.String("name", displayName(name)),
	)
	return nil
}

func displayName(name string) string {
	if name == "" {
		return "User"
	}
	return name
}
