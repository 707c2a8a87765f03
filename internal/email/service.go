package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/smarthealth/healthconnect-api/internal/config"
	"github.com/smarthealth/healthconnect-api/pkg/logger"
)

type Service interface {
	SendVerification(ctx context.Context, email string, token string) error
	SendPasswordReset(ctx context.Context, email string, token string) error
	SendWelcome(ctx context.Context, email string, name string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

func NewSMTPService(cfg config.SMTPConfig, logger *logger.Logger) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

func (s *smtpService) SendVerification(ctx context.Context, email, token string) error {
	body := fmt.Sprintf("Please verify your email address using this code: %s", token)
	return s.send(ctx, email, "Verify your email", body)
}

func (s *smtpService) SendPasswordReset(ctx context.Context, email, token string) error {
	body := fmt.Sprintf("Use this code to reset your password: %s\n\nIf you did not request a reset, ignore this message.", token)
	return s.send(ctx, email, "Password reset", body)
}

func (s *smtpService) SendWelcome(ctx context.Context, email, name string) error {
	body := fmt.Sprintf("Hi %s,\n\nYour account has been created. You can now sign in and book appointments.", name)
	return s.send(ctx, email, "Welcome", body)
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	s.logger.Debug("email sent", "to", to, "subject", subject)
	return nil
}

// noopService is used when SMTP is not configured.
type noopService struct {
	logger *logger.Logger
}

func NewNoopService(logger *logger.Logger) Service {
	return &noopService{logger: logger}
}

func (s *noopService) SendVerification(ctx context.Context, email, token string) error {
	s.logger.Info("email delivery disabled, skipping verification email", "to", email)
	return nil
}

func (s *noopService) SendPasswordReset(ctx context.Context, email, token string) error {
	s.logger.Info("email delivery disabled, skipping password reset email", "to", email)
	return nil
}

func (s *noopService) SendWelcome(ctx context.Context, email, name string) error {
	s.logger.Info("email delivery disabled, skipping welcome email", "to", email)
	return nil
}
