package extractor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/eshaffer321/statement-reconciler/internal/domain/statement"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/metrics"
)

var (
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("extractor circuit breaker is open")
	// ErrTimeout is returned when one extraction exceeds its deadline.
	ErrTimeout = errors.New("extraction timed out")
)

// BreakerConfig configures the circuit breaker around an Extractor.
type BreakerConfig struct {
	Name        string
	Timeout     time.Duration // per call; zero disables
	MaxRequests uint32        // allowed through while half-open
	Interval    time.Duration // closed-state count reset
	OpenTimeout time.Duration // time spent open before probing
	MaxFailures uint32        // consecutive failures that trip the breaker
}

// DefaultBreakerConfig returns conservative settings for a remote model.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:        "extractor",
		Timeout:     60 * time.Second,
		MaxRequests: 1,
		Interval:    time.Minute,
		OpenTimeout: 30 * time.Second,
		MaxFailures: 5,
	}
}

// BreakerExtractor wraps an Extractor with a circuit breaker and a timeout.
type BreakerExtractor struct {
	next    Extractor
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	metrics metrics.Collector
	logger  *slog.Logger
}

// NewBreakerExtractor wraps next. Nil collector or logger fall back to no-ops.
func NewBreakerExtractor(next Extractor, cfg BreakerConfig, collector metrics.Collector, logger *slog.Logger) *BreakerExtractor {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Name == "" {
		cfg.Name = "extractor"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}

	be := &BreakerExtractor{
		next:    next,
		timeout: cfg.Timeout,
		metrics: collector,
		logger:  logger,
	}

	be.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)

			var state metrics.CircuitState
			switch to {
			case gobreaker.StateClosed:
				state = metrics.CircuitClosed
			case gobreaker.StateHalfOpen:
				state = metrics.CircuitHalfOpen
			case gobreaker.StateOpen:
				state = metrics.CircuitOpen
			}
			be.metrics.RecordCircuitState(name, state)
		},
	})

	return be
}

// Extract implements Extractor.
func (b *BreakerExtractor) Extract(ctx context.Context, statementText string) ([]statement.ParsedTransaction, error) {
	start := time.Now()

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Extract(ctx, statementText)
	})

	duration := time.Since(start)
	b.metrics.RecordExtraction(err == nil, duration)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.logger.Warn("circuit breaker open - extraction rejected")
			return nil, ErrCircuitOpen
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			b.logger.Warn("extraction timeout",
				"timeout", b.timeout,
				"elapsed", duration,
			)
			return nil, ErrTimeout
		}
		b.logger.Error("extraction failed", "duration", duration, "error", err)
		return nil, err
	}

	return result.([]statement.ParsedTransaction), nil
}

// State reports the breaker state.
func (b *BreakerExtractor) State() metrics.CircuitState {
	switch b.cb.State() {
	case gobreaker.StateOpen:
		return metrics.CircuitOpen
	case gobreaker.StateHalfOpen:
		return metrics.CircuitHalfOpen
	default:
		return metrics.CircuitClosed
	}
}
