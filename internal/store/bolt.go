package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/talkincode/productapi/config"
	"github.com/talkincode/productapi/internal/domain"
	"github.com/talkincode/productapi/internal/filter"
	bolt "go.etcd.io/bbolt"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errBucketMissing = errors.New("collection bucket does not exist")

// BoltStore keeps each collection in a bucket of a single bbolt file, keyed by
// the raw ObjectID bytes so cursor order is insertion order.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
}

// OpenBolt opens (creating if needed) the file at cfg.URI.
func OpenBolt(cfg config.DBConfig) (*BoltStore, error) {
	if dir := filepath.Dir(cfg.URI); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating data directory %s", dir)
		}
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(cfg.URI, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, errors.Wrapf(err, "opening bolt file %s", cfg.URI)
	}
	return &BoltStore{db: db, bucket: []byte(cfg.Collection)}, nil
}

func (s *BoltStore) view(ctx context.Context, fn func(b *bolt.Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return errors.WithStack(errBucketMissing)
		}
		return fn(b)
	})
}

func (s *BoltStore) update(ctx context.Context, fn func(b *bolt.Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return errors.WithStack(errBucketMissing)
		}
		return fn(b)
	})
}

func (s *BoltStore) Find(ctx context.Context, spec filter.Spec) ([]domain.Product, error) {
	var all []domain.Product
	err := s.view(ctx, func(b *bolt.Bucket) error {
		return b.ForEach(func(_, v []byte) error {
			var doc domain.Product
			if err := json.Unmarshal(v, &doc); err != nil {
				return errors.Wrap(err, "decoding document")
			}
			all = append(all, doc)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrapf(err, "finding documents in '%s'", s.bucket)
	}
	return spec.Apply(all), nil
}

func (s *BoltStore) FindOne(ctx context.Context, id primitive.ObjectID) (domain.Product, error) {
	var doc domain.Product
	found := false
	err := s.view(ctx, func(b *bolt.Bucket) error {
		v := b.Get(id[:])
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &doc)
	})
	if err != nil {
		return domain.Product{}, errors.Wrapf(err, "finding document %s", id.Hex())
	}
	if !found {
		return domain.Product{}, domain.ErrNotFound
	}
	return doc, nil
}

func (s *BoltStore) InsertOne(ctx context.Context, doc domain.Product) (primitive.ObjectID, error) {
	doc.ID = primitive.NewObjectID()
	data, err := json.Marshal(doc)
	if err != nil {
		return primitive.NilObjectID, errors.Wrap(err, "encoding document")
	}
	err = s.update(ctx, func(b *bolt.Bucket) error {
		return b.Put(doc.ID[:], data)
	})
	if err != nil {
		return primitive.NilObjectID, errors.Wrap(err, "inserting document")
	}
	return doc.ID, nil
}

func (s *BoltStore) UpdateOne(ctx context.Context, id primitive.ObjectID, patch domain.Patch) (int64, error) {
	var matched int64
	err := s.update(ctx, func(b *bolt.Bucket) error {
		v := b.Get(id[:])
		if v == nil {
			return nil
		}
		matched = 1
		var doc domain.Product
		if err := json.Unmarshal(v, &doc); err != nil {
			return err
		}
		data, err := json.Marshal(patch.Apply(doc))
		if err != nil {
			return err
		}
		return b.Put(id[:], data)
	})
	if err != nil {
		return 0, errors.Wrapf(err, "updating document %s", id.Hex())
	}
	return matched, nil
}

func (s *BoltStore) DeleteOne(ctx context.Context, id primitive.ObjectID) (int64, error) {
	var deleted int64
	err := s.update(ctx, func(b *bolt.Bucket) error {
		if b.Get(id[:]) == nil {
			return nil
		}
		deleted = 1
		return b.Delete(id[:])
	})
	if err != nil {
		return 0, errors.Wrapf(err, "deleting document %s", id.Hex())
	}
	return deleted, nil
}

func (s *BoltStore) EnsureCollection(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	return errors.Wrapf(err, "creating bucket '%s'", s.bucket)
}

func (s *BoltStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error { return nil })
}

func (s *BoltStore) Close(_ context.Context) error {
	return s.db.Close()
}
