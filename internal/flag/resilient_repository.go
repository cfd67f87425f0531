package flag

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/flagship/flagship/internal/resilience"
)

// ResilientRepository decorates a Repository with a circuit breaker. When
// the backend keeps failing, further calls fail fast with ErrConnection
// instead of waiting on a dead connection. Not-found results are not
// failures and never trip the breaker.
type ResilientRepository struct {
	inner   Repository
	breaker *gobreaker.CircuitBreaker[any]
	logger  zerolog.Logger
}

// NewResilientRepository wraps the repository with a circuit breaker.
func NewResilientRepository(inner Repository, logger zerolog.Logger) *ResilientRepository {
	cfg := resilience.DefaultCircuitBreakerConfig("flag-storage")
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrFlagNotFound)
	}
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.Warn().
			Str("breaker", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("storage circuit breaker state changed")
	}

	return &ResilientRepository{
		inner:   inner,
		breaker: resilience.NewCircuitBreaker[any](cfg),
		logger:  logger,
	}
}

func (r *ResilientRepository) execute(op func() (any, error)) (any, error) {
	result, err := r.breaker.Execute(op)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("circuit open: %w", ErrConnection)
		}
		return nil, err
	}
	return result, nil
}

// Store persists a new flag through the breaker.
func (r *ResilientRepository) Store(ctx context.Context, f *Flag) error {
	_, err := r.execute(func() (any, error) {
		return nil, r.inner.Store(ctx, f)
	})
	return err
}

// GetByID retrieves a flag by ID through the breaker.
func (r *ResilientRepository) GetByID(ctx context.Context, id string) (*Flag, error) {
	result, err := r.execute(func() (any, error) {
		return r.inner.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Flag), nil
}

// GetByName retrieves a flag by name through the breaker.
func (r *ResilientRepository) GetByName(ctx context.Context, name string) (*Flag, error) {
	result, err := r.execute(func() (any, error) {
		return r.inner.GetByName(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Flag), nil
}

// GetAll retrieves flags through the breaker.
func (r *ResilientRepository) GetAll(ctx context.Context, filter ListFilter) ([]Flag, error) {
	result, err := r.execute(func() (any, error) {
		return r.inner.GetAll(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return result.([]Flag), nil
}

// Update replaces a stored flag through the breaker.
func (r *ResilientRepository) Update(ctx context.Context, f *Flag) (*Flag, error) {
	result, err := r.execute(func() (any, error) {
		return r.inner.Update(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Flag), nil
}

// Delete removes a flag through the breaker.
func (r *ResilientRepository) Delete(ctx context.Context, id string) error {
	_, err := r.execute(func() (any, error) {
		return nil, r.inner.Delete(ctx, id)
	})
	return err
}

// DeleteAll removes every flag through the breaker.
func (r *ResilientRepository) DeleteAll(ctx context.Context) error {
	_, err := r.execute(func() (any, error) {
		return nil, r.inner.DeleteAll(ctx)
	})
	return err
}

// Ping forwards readiness checks to the wrapped repository, bypassing the
// breaker so a recovered backend is observed immediately.
func (r *ResilientRepository) Ping(ctx context.Context) error {
	if p, ok := r.inner.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Ensure ResilientRepository implements Repository.
var _ Repository = (*ResilientRepository)(nil)
