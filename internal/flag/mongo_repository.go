package flag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// flagDocument is the persisted form of a Flag. The ID becomes the store's
// native primary key field; all other attributes are flattened alongside it.
type flagDocument struct {
	ID             string     `bson:"_id"`
	Name           string     `bson:"name"`
	Value          bool       `bson:"value"`
	Desc           *string    `bson:"desc,omitempty"`
	ExpirationDate *time.Time `bson:"expiration_date,omitempty"`
	DateCreated    time.Time  `bson:"date_created"`
}

// flagToDocument converts a Flag to its persisted document form.
func flagToDocument(f *Flag) flagDocument {
	return flagDocument{
		ID:             f.ID,
		Name:           f.Name,
		Value:          f.Value,
		Desc:           f.Desc,
		ExpirationDate: f.ExpirationDate,
		DateCreated:    f.DateCreated,
	}
}

// documentToFlag is the inverse of flagToDocument. The two form a lossless
// round trip for every valid Flag.
func documentToFlag(doc flagDocument) *Flag {
	return &Flag{
		ID:             doc.ID,
		Name:           doc.Name,
		Value:          doc.Value,
		Desc:           doc.Desc,
		ExpirationDate: doc.ExpirationDate,
		DateCreated:    doc.DateCreated,
	}
}

// MongoRepositoryConfig holds configuration for the MongoDB repository.
type MongoRepositoryConfig struct {
	Collection *mongo.Collection
	Logger     zerolog.Logger

	// OpTimeout bounds each storage call. Zero disables the deadline.
	OpTimeout time.Duration
}

// MongoRepository is a MongoDB implementation of Repository. It relies on
// the server's per-operation atomicity; no multi-document transactions.
type MongoRepository struct {
	coll      *mongo.Collection
	logger    zerolog.Logger
	opTimeout time.Duration
}

// NewMongoRepository creates a new MongoDB-backed flag repository.
func NewMongoRepository(cfg MongoRepositoryConfig) *MongoRepository {
	return &MongoRepository{
		coll:      cfg.Collection,
		logger:    cfg.Logger,
		opTimeout: cfg.OpTimeout,
	}
}

// Store persists a new flag document.
func (r *MongoRepository) Store(ctx context.Context, f *Flag) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, flagToDocument(f)); err != nil {
		return r.wrapErr("store", err)
	}
	return nil
}

// GetByID retrieves a flag document by its primary key.
func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Flag, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	var doc flagDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("flag with id %q: %w", id, ErrFlagNotFound)
		}
		return nil, r.wrapErr("get_by_id", err)
	}
	return documentToFlag(doc), nil
}

// GetByName retrieves the first flag document whose name matches.
func (r *MongoRepository) GetByName(ctx context.Context, name string) (*Flag, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	var doc flagDocument
	err := r.coll.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("flag with name %q: %w", name, ErrFlagNotFound)
		}
		return nil, r.wrapErr("get_by_name", err)
	}
	return documentToFlag(doc), nil
}

// GetAll retrieves flag documents matching the filter, up to the limit.
func (r *MongoRepository) GetAll(ctx context.Context, filter ListFilter) ([]Flag, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := bson.M{}
	if filter.Name != nil {
		query["name"] = *filter.Name
	}
	if filter.Value != nil {
		query["value"] = *filter.Value
	}

	cursor, err := r.coll.Find(ctx, query, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, r.wrapErr("get_all", err)
	}
	defer cursor.Close(ctx)

	flags := make([]Flag, 0)
	for cursor.Next(ctx) {
		var doc flagDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, r.wrapErr("get_all", err)
		}
		flags = append(flags, *documentToFlag(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, r.wrapErr("get_all", err)
	}
	return flags, nil
}

// Update replaces the full document matching the flag's ID.
func (r *MongoRepository) Update(ctx context.Context, f *Flag) (*Flag, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": f.ID}, flagToDocument(f))
	if err != nil {
		return nil, r.wrapErr("update", err)
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("flag with id %q: %w", f.ID, ErrFlagNotFound)
	}
	return f, nil
}

// Delete removes the flag document with this ID.
func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return r.wrapErr("delete", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("flag with id %q: %w", id, ErrFlagNotFound)
	}
	return nil
}

// DeleteAll removes every flag document. Zero deletions is a success.
func (r *MongoRepository) DeleteAll(ctx context.Context) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	result, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return r.wrapErr("delete_all", err)
	}
	if result.DeletedCount == 0 {
		r.logger.Warn().Msg("delete_all matched no documents")
	}
	return nil
}

// Ping verifies the backing collection is reachable.
func (r *MongoRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	if err := r.coll.Database().Client().Ping(ctx, nil); err != nil {
		return r.wrapErr("ping", err)
	}
	return nil
}

// opContext applies the configured per-operation deadline, the only
// suspension point where a timeout is enforced.
func (r *MongoRepository) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

// wrapErr classifies transport failures as ErrConnection and logs the
// operation name for diagnosis.
func (r *MongoRepository) wrapErr(op string, err error) error {
	if isConnectionErr(err) {
		r.logger.Error().Err(err).Str("operation", op).Msg("storage backend unreachable")
		return fmt.Errorf("%s: %w", op, ErrConnection)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConnectionErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}

// Ensure MongoRepository implements Repository.
var _ Repository = (*MongoRepository)(nil)
