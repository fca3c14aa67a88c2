package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// InvoiceEmailData holds data for the payment invoice email.
type InvoiceEmailData struct {
	Email         string
	ClientName    string
	EventTitle    string
	EventDate     string
	TransactionID string
	Amount        string
	Currency      string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendPaymentInvoice(ctx context.Context, data *InvoiceEmailData) error
}
