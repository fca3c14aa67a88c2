package services

import (
	"context"
	"time"

	"eventra/internal/domain"
)

type nopMetrics struct{}

func (nopMetrics) ObserveJoin(string) {}
func (nopMetrics) ObserveLeave(string) {}
func (nopMetrics) ObserveReconcile(domain.CallbackOutcome, string) {}
func (nopMetrics) ObserveGateway(string, time.Duration, error) {}

type nopNotifier struct{}

func (nopNotifier) Joined(context.Context, *domain.JoinResult) {}
func (nopNotifier) Left(context.Context, *domain.LeaveResult) {}
func (nopNotifier) Reconciled(context.Context, *domain.ReconcileResult) {}
func (nopNotifier) Completed(context.Context, *domain.Event) {}

func orNopMetrics(m domain.Metrics) domain.Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

func orNopNotifier(n domain.Notifier) domain.Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// resultLabel is the metrics label for an operation result.
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return domain.KindOf(err).String()
}
