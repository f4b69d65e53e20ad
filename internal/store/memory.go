package store

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/btree"
	"github.com/talkincode/productapi/internal/domain"
	"github.com/talkincode/productapi/internal/filter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func lessByID(a, b domain.Product) bool {
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

// MemoryStore is an ephemeral store for tests and local runs. Documents are
// indexed by id, which orders them by insertion.
type MemoryStore struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[domain.Product]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tree: btree.NewG[domain.Product](16, lessByID)}
}

func (s *MemoryStore) Find(ctx context.Context, spec filter.Spec) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	all := make([]domain.Product, 0, s.tree.Len())
	s.tree.Ascend(func(doc domain.Product) bool {
		all = append(all, doc)
		return true
	})
	s.mu.RUnlock()
	return spec.Apply(all), nil
}

func (s *MemoryStore) FindOne(ctx context.Context, id primitive.ObjectID) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.tree.Get(domain.Product{ID: id})
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return doc, nil
}

func (s *MemoryStore) InsertOne(ctx context.Context, doc domain.Product) (primitive.ObjectID, error) {
	if err := ctx.Err(); err != nil {
		return primitive.NilObjectID, err
	}
	doc.ID = primitive.NewObjectID()
	s.mu.Lock()
	s.tree.ReplaceOrInsert(doc)
	s.mu.Unlock()
	return doc.ID, nil
}

func (s *MemoryStore) UpdateOne(ctx context.Context, id primitive.ObjectID, patch domain.Patch) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.tree.Get(domain.Product{ID: id})
	if !ok {
		return 0, nil
	}
	s.tree.ReplaceOrInsert(patch.Apply(doc))
	return 1, nil
}

func (s *MemoryStore) DeleteOne(ctx context.Context, id primitive.ObjectID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tree.Delete(domain.Product{ID: id}); !ok {
		return 0, nil
	}
	return 1, nil
}

func (s *MemoryStore) EnsureCollection(context.Context) error { return nil }

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }
