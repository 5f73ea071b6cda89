package departures

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"jizdninerad.cz/internal/logging"
	"jizdninerad.cz/internal/metrics"
)

// Fetcher retrieves the raw departure board payload for a query.
type Fetcher interface {
	FetchDepartureBoard(ctx context.Context, q StopQuery) ([]byte, error)
}

// Service runs the whole pipeline for one query: fetch, then normalize.
// It keeps no state between lookups.
type Service struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewService wires a Service. logger and m may be nil.
func NewService(fetcher Fetcher, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "departures")),
		metrics: m,
	}
}

// Lookup fetches and normalizes the departures for q.
func (s *Service) Lookup(ctx context.Context, q StopQuery) ([]DepartureRecord, error) {
	start := time.Now()

	payload, err := s.fetcher.FetchDepartureBoard(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch departure board: %w", err)
	}

	records, err := Normalize(payload, q.TimeFrom)
	if err != nil {
		kind := ErrorKind(err)
		if s.metrics != nil {
			s.metrics.NormalizationErrorsTotal.WithLabelValues(kind).Inc()
		}
		logging.LogError(s.logger, "departure board normalization failed", err,
			slog.String("kind", kind),
			slog.Int("stops", len(q.StopNames)))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.DeparturesReturned.Observe(float64(len(records)))
	}
	s.logger.Debug("departure board normalized",
		slog.Int("stops", len(q.StopNames)),
		slog.Int("departures", len(records)),
		slog.Duration("elapsed", time.Since(start)))

	return records, nil
}
