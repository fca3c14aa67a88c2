package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eventra/internal/domain"
)

// Dispatcher runs post-commit side effects in the background: bus events and
// the invoice email. Failures are logged and dropped.
type Dispatcher struct {
	publisher domain.EventPublisher
	emails    domain.EmailService
	clients   domain.ClientRepository
	currency  string
	logger    *slog.Logger
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewDispatcher(publisher domain.EventPublisher, emails domain.EmailService, clients domain.ClientRepository, currency string, logger *slog.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		emails:    emails,
		clients:   clients,
		currency:  currency,
		logger:    logger,
		timeout:   timeout,
	}
}

func (d *Dispatcher) Joined(ctx context.Context, res *domain.JoinResult) {
	d.publish(ctx, domain.SubjectParticipantJoined, domain.BookingEvent{
		EventID:       res.UpdatedEvent.ID,
		ClientID:      res.Participant.ClientID,
		ParticipantID: res.Participant.ID,
		TransactionID: res.Payment.TransactionID,
		Status:        string(res.Participant.Status),
		Capacity:      res.UpdatedEvent.Capacity,
		Amount:        res.Payment.Amount.StringFixed(2),
		OccurredAt:    time.Now(),
	})
}

func (d *Dispatcher) Left(ctx context.Context, res *domain.LeaveResult) {
	d.publish(ctx, domain.SubjectParticipantLeft, domain.BookingEvent{
		EventID:       res.UpdatedEvent.ID,
		ClientID:      res.Participant.ClientID,
		ParticipantID: res.Participant.ID,
		TransactionID: res.Participant.TransactionID,
		Status:        string(res.Participant.Status),
		Capacity:      res.UpdatedEvent.Capacity,
		OccurredAt:    time.Now(),
	})
}

func (d *Dispatcher) Reconciled(ctx context.Context, res *domain.ReconcileResult) {
	subject := domain.SubjectPaymentCancelled
	if res.Payment.Status == domain.PaymentPaid {
		subject = domain.SubjectPaymentPaid
	}
	msg := domain.BookingEvent{
		EventID:       res.Payment.EventID,
		ClientID:      res.Payment.ClientID,
		TransactionID: res.TransactionID,
		Status:        string(res.Payment.Status),
		Amount:        res.Payment.Amount.StringFixed(2),
		OccurredAt:    time.Now(),
	}
	if res.Participant != nil {
		msg.ParticipantID = res.Participant.ID
	}
	if res.Event != nil {
		msg.Capacity = res.Event.Capacity
	}
	d.publish(ctx, subject, msg)

	if res.Payment.Status == domain.PaymentPaid {
		d.dispatch(ctx, "invoice", func(ctx context.Context) error {
			return d.sendInvoice(ctx, res)
		})
	}
}

func (d *Dispatcher) Completed(ctx context.Context, ev *domain.Event) {
	d.publish(ctx, domain.SubjectEventCompleted, domain.BookingEvent{
		EventID:    ev.ID,
		Status:     string(ev.Status),
		Capacity:   ev.Capacity,
		OccurredAt: time.Now(),
	})
}

// Wait blocks until in-flight side effects finish. Used on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) publish(ctx context.Context, subject string, msg domain.BookingEvent) {
	if d.publisher == nil {
		return
	}
	d.dispatch(ctx, subject, func(ctx context.Context) error {
		return d.publisher.Publish(ctx, subject, msg)
	})
}

func (d *Dispatcher) sendInvoice(ctx context.Context, res *domain.ReconcileResult) error {
	if d.emails == nil {
		return nil
	}
	client, err := d.clients.GetByID(ctx, res.Payment.ClientID)
	if err != nil {
		return fmt.Errorf("load client: %w", err)
	}
	data := &domain.InvoiceEmailData{
		Email:         client.Email,
		ClientName:    client.Name,
		TransactionID: res.TransactionID,
		Amount:        res.Payment.Amount.StringFixed(2),
		Currency:      d.currency,
	}
	if res.Event != nil {
		data.EventTitle = res.Event.Title
		data.EventDate = res.Event.Date.Format(time.RFC1123)
	}
	return d.emails.SendPaymentInvoice(ctx, data)
}

// dispatch runs fn detached from the request's cancellation.
func (d *Dispatcher) dispatch(ctx context.Context, name string, fn func(context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			d.logger.WarnContext(ctx, "notification failed", "kind", name, "err", err)
		}
	}()
}
