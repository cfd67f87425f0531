package flag

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PostgresRepository is a PostgreSQL implementation of Repository, for
// deployments that already run Postgres instead of a document store.
type PostgresRepository struct {
	pool      *pgxpool.Pool
	logger    zerolog.Logger
	opTimeout time.Duration
}

// PostgresRepositoryConfig holds configuration for the Postgres repository.
type PostgresRepositoryConfig struct {
	Pool   *pgxpool.Pool
	Logger zerolog.Logger

	// OpTimeout bounds each storage call. Zero disables the deadline.
	OpTimeout time.Duration
}

// NewPostgresRepository creates a new PostgreSQL flag repository.
func NewPostgresRepository(cfg PostgresRepositoryConfig) *PostgresRepository {
	return &PostgresRepository{
		pool:      cfg.Pool,
		logger:    cfg.Logger,
		opTimeout: cfg.OpTimeout,
	}
}

// Store persists a new flag row keyed by its ID.
func (r *PostgresRepository) Store(ctx context.Context, f *Flag) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query := `
		INSERT INTO flags (id, name, value, description, expiration_date, date_created)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query, f.ID, f.Name, f.Value, f.Desc, f.ExpirationDate, f.DateCreated)
	if err != nil {
		return r.wrapErr("store", err)
	}
	return nil
}

// GetByID retrieves a flag by ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Flag, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query := `
		SELECT id, name, value, description, expiration_date, date_created
		FROM flags
		WHERE id = $1
	`

	f, err := r.scanRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("flag with id %q: %w", id, ErrFlagNotFound)
		}
		return nil, r.wrapErr("get_by_id", err)
	}
	return f, nil
}

// GetByName retrieves the first flag whose name matches, oldest first.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*Flag, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query := `
		SELECT id, name, value, description, expiration_date, date_created
		FROM flags
		WHERE name = $1
		ORDER BY date_created
		LIMIT 1
	`

	f, err := r.scanRow(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("flag with name %q: %w", name, ErrFlagNotFound)
		}
		return nil, r.wrapErr("get_by_name", err)
	}
	return f, nil
}

// GetAll retrieves flags matching the filter, up to the filter's limit.
func (r *PostgresRepository) GetAll(ctx context.Context, filter ListFilter) ([]Flag, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT id, name, value, description, expiration_date, date_created
		FROM flags
		WHERE ($1::text IS NULL OR name = $1)
		  AND ($2::boolean IS NULL OR value = $2)
		ORDER BY date_created
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, filter.Name, filter.Value, limit)
	if err != nil {
		return nil, r.wrapErr("get_all", err)
	}
	defer rows.Close()

	flags := make([]Flag, 0)
	for rows.Next() {
		f, err := r.scanRow(rows)
		if err != nil {
			return nil, r.wrapErr("get_all", err)
		}
		flags = append(flags, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrapErr("get_all", err)
	}
	return flags, nil
}

// Update replaces the full row matching the flag's ID.
func (r *PostgresRepository) Update(ctx context.Context, f *Flag) (*Flag, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query := `
		UPDATE flags
		SET name = $2, value = $3, description = $4, expiration_date = $5
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, f.ID, f.Name, f.Value, f.Desc, f.ExpirationDate)
	if err != nil {
		return nil, r.wrapErr("update", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("flag with id %q: %w", f.ID, ErrFlagNotFound)
	}
	return f, nil
}

// Delete removes the flag row with this ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM flags WHERE id = $1`, id)
	if err != nil {
		return r.wrapErr("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("flag with id %q: %w", id, ErrFlagNotFound)
	}
	return nil
}

// DeleteAll removes every flag row. Zero deletions is a success.
func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM flags`)
	if err != nil {
		return r.wrapErr("delete_all", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn().Msg("delete_all matched no rows")
	}
	return nil
}

// Ping verifies the pool can reach the database.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	if err := r.pool.Ping(ctx); err != nil {
		return r.wrapErr("ping", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scanRow(row rowScanner) (*Flag, error) {
	var f Flag
	err := row.Scan(&f.ID, &f.Name, &f.Value, &f.Desc, &f.ExpirationDate, &f.DateCreated)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *PostgresRepository) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

func (r *PostgresRepository) wrapErr(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		r.logger.Error().Err(err).Str("operation", op).Msg("storage backend unreachable")
		return fmt.Errorf("%s: %w", op, ErrConnection)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
