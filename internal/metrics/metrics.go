// Package metrics exposes Prometheus metrics for the RPC layer, the snapshot store and the ledger.
package metrics

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/subsplit/internal/ledger"
	"github.com/mmynk/subsplit/internal/models"
	"github.com/mmynk/subsplit/internal/storage"
)

const namespace = "subsplit"

// Metrics holds the collectors registered for one server.
type Metrics struct {
	rpcRequests       *prometheus.CounterVec
	rpcDuration       *prometheus.HistogramVec
	storeOps          *prometheus.CounterVec
	storeSaveDuration prometheus.Histogram
}

// New registers the RPC and store collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		rpcRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		storeOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Snapshot store loads and saves by result.",
		}, []string{"op", "result"}),
		storeSaveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_save_duration_seconds",
			Help:      "Time to persist the whole ledger.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Interceptor counts and times every unary RPC.
func (m *Metrics) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			m.rpcRequests.WithLabelValues(procedure, code).Inc()
			m.rpcDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
			return resp, err
		}
	}
}

// InstrumentStore wraps s so loads and saves are counted and saves are timed.
func (m *Metrics) InstrumentStore(s storage.Store) storage.Store {
	return &instrumentedStore{Store: s, m: m}
}

type instrumentedStore struct {
	storage.Store
	m *Metrics
}

func (s *instrumentedStore) Load(ctx context.Context) (*models.Ledger, error) {
	l, err := s.Store.Load(ctx)
	s.m.storeOps.WithLabelValues("load", result(err)).Inc()
	return l, err
}

func (s *instrumentedStore) Save(ctx context.Context, l *models.Ledger) error {
	start := time.Now()
	err := s.Store.Save(ctx, l)
	s.m.storeSaveDuration.Observe(time.Since(start).Seconds())
	s.m.storeOps.WithLabelValues("save", result(err)).Inc()
	return err
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// StatsFunc reports the ledger's current record counts.
type StatsFunc func() ledger.Stats

// RegisterLedgerGauges exposes the ledger's record counts as gauges sampled at scrape time.
func RegisterLedgerGauges(reg prometheus.Registerer, stats StatsFunc) {
	f := promauto.With(reg)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "subscriptions",
		Help:      "Subscriptions currently in the ledger.",
	}, func() float64 { return float64(stats().Subscriptions) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "payment_records",
		Help:      "Payment records currently in the ledger.",
	}, func() float64 { return float64(stats().Payments) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "unpaid_payment_records",
		Help:      "Payment records not yet marked paid.",
	}, func() float64 { return float64(stats().Unpaid) })
}

// Handler serves the metrics gathered by reg.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
