package flag

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the flag service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
}

// Service owns flag lifecycle rules: creation, lookup, evaluation,
// partial update, and deletion. It holds no state of its own beyond a
// reference to its configured repository.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new flag service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}
}

// CreateFlag constructs a new flag with a fresh identity and persists it.
// The expiration date is computed by adding the offset to the current time;
// a zero offset falls back to the default policy of four weeks. Duplicate
// names are permitted; uniqueness is a documented limitation, not a rule.
func (s *Service) CreateFlag(ctx context.Context, name string, value bool, desc *string, offset ExpirationOffset) (*Flag, error) {
	if offset.IsZero() {
		offset = DefaultExpiration
	}

	now := time.Now().UTC()
	expiration := offset.FromNow(now)
	f := &Flag{
		ID:             uuid.NewString(),
		Name:           name,
		Value:          value,
		Desc:           desc,
		ExpirationDate: &expiration,
		DateCreated:    now,
	}

	if err := s.repo.Store(ctx, f); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("flag_id", f.ID).
		Str("flag_name", f.Name).
		Bool("value", f.Value).
		Time("expiration_date", expiration).
		Msg("flag created")

	return f, nil
}

// GetFlag retrieves a flag by ID. Returns ErrFlagNotFound if absent.
func (s *Service) GetFlag(ctx context.Context, id string) (*Flag, error) {
	return s.repo.GetByID(ctx, id)
}

// IsEnabled evaluates the flag with the given name. An expired flag
// evaluates to false regardless of its stored value; the expiration
// override takes precedence. Returns ErrFlagNotFound for unknown names.
func (s *Service) IsEnabled(ctx context.Context, name string) (bool, error) {
	f, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return false, err
	}
	if f.ExpiredNow() {
		return false, nil
	}
	return f.Value, nil
}

// UpdateFlag applies a merge-patch to the flag with the given ID: only
// non-nil fields of the update are copied onto the existing flag, which is
// then re-persisted in full. ID and DateCreated never change. Returns
// ErrFlagNotFound if no flag exists with this ID.
func (s *Service) UpdateFlag(ctx context.Context, id string, update FlagUpdate) (*Flag, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		existing.Name = *update.Name
	}
	if update.Value != nil {
		existing.Value = *update.Value
	}
	if update.Desc != nil {
		existing.Desc = update.Desc
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("flag_id", updated.ID).
		Str("flag_name", updated.Name).
		Msg("flag updated")

	return updated, nil
}

// DeleteFlag removes the flag with the given ID. It reports whether a flag
// existed and was removed; the repository's not-found error is converted to
// a false return rather than surfaced, so deletes are idempotent here.
func (s *Service) DeleteFlag(ctx context.Context, id string) (bool, error) {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrFlagNotFound) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info().Str("flag_id", id).Msg("flag deleted")
	return true, nil
}

// GetAllFlags lists stored flags. With a name filter it returns a
// single-element slice when a match exists or an empty slice otherwise,
// never an error for "no match". Without a filter it returns every flag.
func (s *Service) GetAllFlags(ctx context.Context, nameFilter *string) ([]Flag, error) {
	if nameFilter != nil {
		f, err := s.repo.GetByName(ctx, *nameFilter)
		if err != nil {
			if errors.Is(err, ErrFlagNotFound) {
				return []Flag{}, nil
			}
			return nil, err
		}
		return []Flag{*f}, nil
	}

	return s.repo.GetAll(ctx, ListFilter{})
}

// DeleteAllFlags removes every stored flag. An already-empty store is a
// success, not an error.
func (s *Service) DeleteAllFlags(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return err
	}
	s.logger.Info().Msg("all flags deleted")
	return nil
}
