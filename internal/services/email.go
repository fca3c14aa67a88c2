package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventra/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendPaymentInvoice sends the invoice email using the "invoice" template.
func (s *emailService) SendPaymentInvoice(ctx context.Context, data *domain.InvoiceEmailData) error {
	if data == nil {
		return fmt.Errorf("invoice data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("invoice", data)
	if err != nil {
		return fmt.Errorf("failed to render invoice template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send invoice email: %w", err)
	}
	s.logger.InfoContext(ctx, "invoice email sent", "to", data.Email, "transaction_id", data.TransactionID)
	return nil
}
