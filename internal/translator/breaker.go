package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/valpere/nepatran/internal"
)

// BreakerConfig tunes the circuit breaker around a service.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the
	// circuit. Zero disables the breaker.
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

// Breaker stops calling a failing model for OpenTimeout once MaxFailures
// calls in a row have failed. While open, every call fails fast with
// internal.ErrTranslationUnavailable.
type Breaker struct {
	svc TranslationService
	cb  *gobreaker.CircuitBreaker
}

func NewBreaker(svc TranslationService, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	maxFailures := cfg.MaxFailures
	return &Breaker{
		svc: svc,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    svc.Name(),
			Timeout: cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return maxFailures > 0 && counts.ConsecutiveFailures >= maxFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("model circuit state changed", "service", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (b *Breaker) Name() string {
	return b.svc.Name()
}

func (b *Breaker) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	var result *ServiceResult
	_, err := b.cb.Execute(func() (interface{}, error) {
		var err error
		result, err = b.svc.Translate(ctx, cfg, req)
		return nil, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &ServiceResult{ServiceName: b.Name(), Error: err.Error()},
			fmt.Errorf("%w: %s: %v", internal.ErrTranslationUnavailable, b.Name(), err)
	}
	return result, err
}

func (b *Breaker) IsAvailable(ctx context.Context) error {
	if b.cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("%w: %s circuit is open", internal.ErrTranslationUnavailable, b.Name())
	}
	return b.svc.IsAvailable(ctx)
}

func (b *Breaker) SupportedLanguages(ctx context.Context) ([]string, error) {
	return b.svc.SupportedLanguages(ctx)
}

// State reports the breaker state, for logs and tests.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
