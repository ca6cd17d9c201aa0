package utils

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettings tune a circuit breaker. MaxRequests is both the number of
// trial requests let through while half open and the minimum sample before the
// failure ratio can trip the breaker.
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  100,
		Interval:     60 * time.Second,
		Timeout:      60 * time.Second,
		FailureRatio: 0.6,
	}
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	defaults := DefaultBreakerSettings()
	if s.MaxRequests == 0 {
		s.MaxRequests = defaults.MaxRequests
	}
	if s.Interval <= 0 {
		s.Interval = defaults.Interval
	}
	if s.Timeout <= 0 {
		s.Timeout = defaults.Timeout
	}
	if s.FailureRatio <= 0 {
		s.FailureRatio = defaults.FailureRatio
	}
	return s
}

// ReadyToTrip opens the breaker once at least MaxRequests calls were made
// and the failure ratio reached FailureRatio.
func (s BreakerSettings) ReadyToTrip(counts gobreaker.Counts) bool {
	return counts.Requests >= s.MaxRequests &&
		float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
}

// NewCircuitBreaker builds a breaker for the named dependency. A cancelled
// request context is not held against the dependency.
func NewCircuitBreaker(name string, settings BreakerSettings) *gobreaker.CircuitBreaker {
	settings = settings.withDefaults()

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: settings.ReadyToTrip,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// ExecuteContext runs req through cb. A context that is already done is
// returned without reaching the breaker.
func ExecuteContext(ctx context.Context, cb *gobreaker.CircuitBreaker, req func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := cb.Execute(func() (interface{}, error) {
		return nil, req(ctx)
	})
	return err
}
