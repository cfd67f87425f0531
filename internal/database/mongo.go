// Package database provides storage backend connection management.
package database

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string

	// ConnectTimeout bounds the initial connect-and-ping, including retries.
	ConnectTimeout time.Duration

	// OpTimeout bounds each individual storage operation.
	OpTimeout time.Duration
}

// MongoConfigFromEnv creates a MongoConfig from environment variables.
func MongoConfigFromEnv() MongoConfig {
	connectTimeout, _ := time.ParseDuration(getEnvOrDefault("MONGO_CONNECT_TIMEOUT", "30s"))
	opTimeout, _ := time.ParseDuration(getEnvOrDefault("MONGO_OP_TIMEOUT", "5s"))

	return MongoConfig{
		URI:            getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		Database:       getEnvOrDefault("MONGO_DB", "flagship"),
		Collection:     getEnvOrDefault("MONGO_COLLECTION", "flags"),
		ConnectTimeout: connectTimeout,
		OpTimeout:      opTimeout,
	}
}

// Mongo wraps a connected MongoDB client and the flags collection handle.
type Mongo struct {
	client *mongo.Client
	config MongoConfig
}

// ConnectMongo connects to MongoDB, verifies reachability, and ensures the
// flags collection exists. The initial ping is retried with exponential
// backoff until ConnectTimeout elapses; retry policy belongs here, at the
// storage collaborator, not in the service.
func ConnectMongo(ctx context.Context, cfg MongoConfig, log zerolog.Logger) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = cfg.ConnectTimeout
	notify := func(err error, next time.Duration) {
		log.Warn().Err(err).Dur("retry_in", next).Msg("mongo not reachable yet")
	}

	if err := backoff.RetryNotify(ping, backoff.WithContext(policy, ctx), notify); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	m := &Mongo{client: client, config: cfg}
	if err := m.ensureCollection(ctx, log); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return m, nil
}

// ensureCollection creates the flags collection if it does not exist yet.
func (m *Mongo) ensureCollection(ctx context.Context, log zerolog.Logger) error {
	db := m.client.Database(m.config.Database)

	names, err := db.ListCollectionNames(ctx, map[string]any{"name": m.config.Collection})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	if len(names) > 0 {
		log.Info().Str("collection", m.config.Collection).Msg("collection already exists")
		return nil
	}

	if err := db.CreateCollection(ctx, m.config.Collection); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	log.Info().Str("collection", m.config.Collection).Msg("collection created")
	return nil
}

// FlagsCollection returns the collection holding flag documents.
func (m *Mongo) FlagsCollection() *mongo.Collection {
	return m.client.Database(m.config.Database).Collection(m.config.Collection)
}

// Close disconnects the MongoDB client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
