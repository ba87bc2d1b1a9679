// Package mongo implements the storage ports on MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second

	collectionUserDirectory = "user_directory"
	collectionTickets       = "tickets"
	collectionDepartments   = "departments"
	collectionCategories    = "categories"
	collectionAuditEvents   = "audit_events"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the secondary indexes used by ticket listing,
// category lookups and audit queries.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tickets := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_by", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "department_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := db.Collection(collectionTickets).Indexes().CreateMany(ctx, tickets); err != nil {
		return fmt.Errorf("ticket indexes: %w", err)
	}

	categories := mongo.IndexModel{Keys: bson.D{{Key: "department_id", Value: 1}}}
	if _, err := db.Collection(collectionCategories).Indexes().CreateOne(ctx, categories); err != nil {
		return fmt.Errorf("category indexes: %w", err)
	}

	audit := []mongo.IndexModel{
		{Keys: bson.D{{Key: "actor", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "action", Value: 1}}},
	}
	if _, err := db.Collection(collectionAuditEvents).Indexes().CreateMany(ctx, audit); err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	return nil
}
