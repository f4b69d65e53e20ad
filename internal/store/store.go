// Package store is the collection interface the handlers talk to, with one
// implementation per supported database backend.
package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/talkincode/productapi/config"
	"github.com/talkincode/productapi/internal/domain"
	"github.com/talkincode/productapi/internal/filter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is one document collection.
type Store interface {
	// Find returns the documents selected by spec, in spec order.
	Find(ctx context.Context, spec filter.Spec) ([]domain.Product, error)

	// FindOne returns domain.ErrNotFound when no document has the id.
	FindOne(ctx context.Context, id primitive.ObjectID) (domain.Product, error)

	// InsertOne stores doc and returns the identifier the store assigned to it.
	// Any id already set on doc is ignored.
	InsertOne(ctx context.Context, doc domain.Product) (primitive.ObjectID, error)

	// UpdateOne sets the patch fields and returns the number of matched documents.
	UpdateOne(ctx context.Context, id primitive.ObjectID, patch domain.Patch) (int64, error)

	// DeleteOne returns the number of removed documents.
	DeleteOne(ctx context.Context, id primitive.ObjectID) (int64, error)

	// EnsureCollection creates the collection if it does not exist. Safe to repeat.
	EnsureCollection(ctx context.Context) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the backend named by cfg.Type and verifies it is reachable.
func Open(ctx context.Context, cfg config.DBConfig) (Store, error) {
	if err := cfg.RequireLocator(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case config.DatabaseMongo, "":
		return OpenMongo(ctx, cfg)
	case config.DatabasePostgres:
		return OpenGorm(ctx, cfg)
	case config.DatabaseBolt:
		return OpenBolt(cfg)
	case config.DatabaseMemory:
		return NewMemoryStore(), nil
	default:
		return nil, errors.Errorf("unknown database backend: %q (supported: mongo, postgres, bolt, memory)", cfg.Type)
	}
}
