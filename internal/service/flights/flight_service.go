package flights

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/flighttracker/internal/domain"
	"github.com/Domenick1991/flighttracker/internal/kafka"
	"github.com/Domenick1991/flighttracker/internal/repository"
	"github.com/Domenick1991/flighttracker/internal/synthetic"
	"github.com/google/uuid"
)

const (
	defaultUpstreamTimeout = 10 * time.Second
	publishTimeout         = 2 * time.Second
)

type FlightUseCase interface {
	// Lookup resolves a flight code to live, repaired, synthetic or upstream
	// error data. The returned error is always a *domain.ValidationError.
	Lookup(ctx context.Context, flightIATA string, forceSynthetic bool) (*domain.LookupResult, error)
	// Upcoming returns the synthetic next-day departure for flightIATA.
	Upcoming(ctx context.Context, flightIATA string) (*domain.FlightResponse, error)
}

type Synthesizer interface {
	Generate(flightIATA string) *domain.FlightResponse
}

type EventProducer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type FlightService struct {
	repo     repository.FlightRepository
	synth    Synthesizer
	logger   *slog.Logger
	producer EventProducer
	topic    string
	timeout  time.Duration
	now      func() time.Time
}

type FlightServiceOption func(*FlightService)

func WithLogger(logger *slog.Logger) FlightServiceOption {
	return func(s *FlightService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEvents publishes one kafka.LookupEvent per lookup to topic.
func WithEvents(producer EventProducer, topic string) FlightServiceOption {
	return func(s *FlightService) {
		s.producer = producer
		s.topic = topic
	}
}

// WithUpstreamTimeout bounds the provider call. Expiry counts as a transport failure.
func WithUpstreamTimeout(d time.Duration) FlightServiceOption {
	return func(s *FlightService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithClock(now func() time.Time) FlightServiceOption {
	return func(s *FlightService) {
		s.now = now
	}
}

func NewFlightService(repo repository.FlightRepository, synth Synthesizer, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{
		repo:    repo,
		synth:   synth,
		logger:  slog.Default(),
		timeout: defaultUpstreamTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlightService) Lookup(ctx context.Context, flightIATA string, forceSynthetic bool) (*domain.LookupResult, error) {
	code := strings.TrimSpace(flightIATA)
	if code == "" {
		return nil, &domain.ValidationError{Err: domain.ErrEmptyFlightCode}
	}

	logger := s.logger.With("flight_iata", code)
	logger.Info("flight search request", "force_synthetic", forceSynthetic)

	started := s.now()
	result := s.lookup(ctx, logger, code, forceSynthetic)
	s.publish(ctx, logger, code, result, s.now().Sub(started))

	return result, nil
}

func (s *FlightService) lookup(ctx context.Context, logger *slog.Logger, code string, forceSynthetic bool) *domain.LookupResult {
	if forceSynthetic {
		return s.fallback(logger, code, domain.ReasonForced)
	}
	if !s.repo.Configured() {
		logger.Error("configuration error", "error", domain.ErrNoCredential)
		return s.fallback(logger, code, domain.ReasonMissingCredential)
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.repo.SearchByIATA(reqCtx, code)
	if err != nil {
		logger.Error("error fetching flight data", "error", err)
		return s.fallback(logger, code, domain.ReasonTransportFailure)
	}

	return s.classify(logger, code, resp)
}

func (s *FlightService) Upcoming(ctx context.Context, flightIATA string) (*domain.FlightResponse, error) {
	code := strings.TrimSpace(flightIATA)
	if code == "" {
		return nil, &domain.ValidationError{Err: domain.ErrEmptyFlightCode}
	}

	current := s.synth.Generate(code)
	next := make([]domain.FlightRecord, 0, len(current.Data))
	for _, rec := range current.Data {
		next = append(next, synthetic.NextFlight(rec))
	}
	return &domain.FlightResponse{Pagination: current.Pagination, Data: next}, nil
}

func (s *FlightService) fallback(logger *slog.Logger, code string, reason domain.FallbackReason) *domain.LookupResult {
	logger.Info("falling back to synthetic data", "reason", reason)
	return domain.SyntheticResult(s.synth.Generate(code), reason)
}

func (s *FlightService) publish(ctx context.Context, logger *slog.Logger, code string, result *domain.LookupResult, took time.Duration) {
	if s.producer == nil || s.topic == "" {
		return
	}

	event := kafka.LookupEvent{
		ID:         uuid.NewString(),
		Type:       "flight_lookup",
		FlightIATA: code,
		Kind:       string(result.Kind),
		Reason:     string(result.Reason),
		DurationMs: took.Milliseconds(),
		OccurredAt: s.now().UTC(),
	}
	if result.Error != nil {
		event.Status = result.Error.Status
	}
	if result.Flights != nil {
		event.Records = len(result.Flights.Data)
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.producer.Publish(pubCtx, s.topic, code, event); err != nil {
		logger.Warn("failed to publish lookup event", "event_id", event.ID, "error", err)
	}
}

var _ FlightUseCase = (*FlightService)(nil)
