package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK         = "ok"
	resultNotFound   = "not_found"
	resultReadError  = "read_error"
	resultWriteError = "write_error"
	resultError      = "error"
)

// InstrumentedStore records per-operation counts and latency of the wrapped Store.
type InstrumentedStore struct {
	next    Store
	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func NewInstrumentedStore(next Store, reg prometheus.Registerer) *InstrumentedStore {
	s := &InstrumentedStore{
		next: next,
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_store_operations_total",
				Help: "Catalog store operations by result",
			},
			[]string{"op", "result"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "catalog_store_operation_duration_seconds",
				Help: "Catalog store operation latency",
			},
			[]string{"op"},
		),
	}

	reg.MustRegister(s.ops, s.latency)
	return s
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *InstrumentedStore) List(ctx context.Context) ([]Product, error) {
	defer s.observe("list", time.Now())
	out, err := s.next.List(ctx)
	s.count("list", err)
	return out, err
}

func (s *InstrumentedStore) Get(ctx context.Context, id int) (Product, error) {
	defer s.observe("get", time.Now())
	p, err := s.next.Get(ctx, id)
	s.count("get", err)
	return p, err
}

func (s *InstrumentedStore) Add(ctx context.Context, in ProductInput) (Product, error) {
	defer s.observe("add", time.Now())
	p, err := s.next.Add(ctx, in)
	s.count("add", err)
	return p, err
}

func (s *InstrumentedStore) Update(ctx context.Context, id int, patch ProductPatch) (Product, error) {
	defer s.observe("update", time.Now())
	p, err := s.next.Update(ctx, id, patch)
	s.count("update", err)
	return p, err
}

func (s *InstrumentedStore) Delete(ctx context.Context, id int) error {
	defer s.observe("delete", time.Now())
	err := s.next.Delete(ctx, id)
	s.count("delete", err)
	return err
}

func (s *InstrumentedStore) observe(op string, start time.Time) {
	s.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *InstrumentedStore) count(op string, err error) {
	s.ops.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, ErrNotFound):
		return resultNotFound
	case errors.Is(err, ErrStorageRead):
		return resultReadError
	case errors.Is(err, ErrStorageWrite):
		return resultWriteError
	default:
		return resultError
	}
}
