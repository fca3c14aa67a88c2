package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eventra/internal/domain"
)

// Prometheus implements domain.Metrics on its own registry.
type Prometheus struct {
	registry  *prometheus.Registry
	joins     *prometheus.CounterVec
	leaves    *prometheus.CounterVec
	reconcile *prometheus.CounterVec
	gateway   *prometheus.HistogramVec
}

func New() *Prometheus {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventra",
			Name:      "booking_joins_total",
			Help:      "Join attempts by result.",
		}, []string{"result"}),
		leaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventra",
			Name:      "booking_leaves_total",
			Help:      "Leave attempts by result.",
		}, []string{"result"}),
		reconcile: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventra",
			Name:      "payment_reconciliations_total",
			Help:      "Gateway callbacks processed by outcome and result.",
		}, []string{"outcome", "result"}),
		gateway: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "eventra",
			Name:      "gateway_request_duration_seconds",
			Help:      "Payment gateway call latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"op", "result"}),
	}
	reg.MustRegister(
		p.joins, p.leaves, p.reconcile, p.gateway,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

var _ domain.Metrics = (*Prometheus)(nil)

func (p *Prometheus) ObserveJoin(result string) {
	p.joins.WithLabelValues(result).Inc()
}

func (p *Prometheus) ObserveLeave(result string) {
	p.leaves.WithLabelValues(result).Inc()
}

func (p *Prometheus) ObserveReconcile(outcome domain.CallbackOutcome, result string) {
	p.reconcile.WithLabelValues(string(outcome), result).Inc()
}

func (p *Prometheus) ObserveGateway(op string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.gateway.WithLabelValues(op, result).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
