// internal/pkg/email/service.go
package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/sirupsen/logrus"
	"github.com/your-org/shopping-cart-backend/internal/config"
	"github.com/your-org/shopping-cart-backend/internal/pkg/pricing"
)

// Notifier dispatches customer notifications. Order flows treat delivery as
// fire-and-forget: a failed send never blocks or fails the request that
// triggered it.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, to, username, orderNumber string, total float64, itemCount int) error
	SendOrderStatusUpdate(ctx context.Context, to, orderNumber, status string) error
}

// Service sends notifications via the configured provider. The default
// "log" provider only records the message, which keeps local development
// and tests free of external dependencies.
type Service struct {
	config *config.Config
	logger *logrus.Logger
}

// NewService creates a new notification service
func NewService(cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		config: cfg,
		logger: logger,
	}
}

// SendOrderConfirmation sends the post-checkout confirmation message
func (s *Service) SendOrderConfirmation(ctx context.Context, to, username, orderNumber string, total float64, itemCount int) error {
	subject := fmt.Sprintf("Order Confirmation - %s", orderNumber)
	body := fmt.Sprintf(
		"Hi %s,\n\nThank you for your order!\n\nOrder number: %s\nItems: %d\nTotal: $%s\n\nWe will let you know when it ships.\n",
		username, orderNumber, itemCount, pricing.FormatAmount(total),
	)
	return s.send(ctx, to, subject, body)
}

// SendOrderStatusUpdate notifies the customer of an order status change
func (s *Service) SendOrderStatusUpdate(ctx context.Context, to, orderNumber, status string) error {
	subject := fmt.Sprintf("Order %s - Status Update", orderNumber)
	body := fmt.Sprintf("Your order %s is now %s.\n", orderNumber, status)
	return s.send(ctx, to, subject, body)
}

func (s *Service) send(ctx context.Context, to, subject, body string) error {
	switch s.config.Email.Provider {
	case "smtp":
		return s.sendSMTP(to, subject, body)
	case "log":
		s.logger.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("notification dispatched (log provider)")
		return nil
	default:
		return fmt.Errorf("unsupported email provider: %s", s.config.Email.Provider)
	}
}

func (s *Service) sendSMTP(to, subject, body string) error {
	cfg := s.config.Email
	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		cfg.FromName, cfg.FromEmail, to, subject, body)

	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, cfg.FromEmail, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
