package store

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/productapi/config"
	"github.com/talkincode/productapi/internal/domain"
	"github.com/talkincode/productapi/internal/filter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seed(t *testing.T, ctx context.Context, s Store) map[string]primitive.ObjectID {
	t.Helper()
	ids := map[string]primitive.ObjectID{}
	for _, p := range []domain.Product{
		domain.NewProduct("Apple iPhone 15", 1200, "Electronics", ""),
		domain.NewProduct("Samsung Galaxy S23", 999, "Electronics", "flagship"),
		domain.NewProduct("Chocolate Cake", 15, "Food", ""),
		domain.NewProduct("Laptop", 1100, "Electronics", ""),
	} {
		id, err := s.InsertOne(ctx, p)
		require.NoError(t, err)
		require.False(t, id.IsZero())
		ids[p.Name] = id
	}
	return ids
}

func names(docs []domain.Product) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Name)
	}
	return out
}

// runStoreContract exercises the behavior every backend must share.
func runStoreContract(t *testing.T, open func(t *testing.T) Store) {
	for name, test := range map[string]func(ctx context.Context, t *testing.T, s Store){
		"EnsureCollectionIsIdempotent": func(ctx context.Context, t *testing.T, s Store) {
			require.NoError(t, s.EnsureCollection(ctx))
			require.NoError(t, s.Ping(ctx))
		},
		"InsertThenFindOne": func(ctx context.Context, t *testing.T, s Store) {
			in := domain.NewProduct("Widget", 10, "Tools", "")
			id, err := s.InsertOne(ctx, in)
			require.NoError(t, err)

			out, err := s.FindOne(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, id, out.ID)
			assert.Equal(t, "Widget", out.Name)
			assert.Equal(t, 10.0, out.Price)
			assert.Equal(t, "Tools", out.Category)
			assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
		},
		"InsertIgnoresCallerID": func(ctx context.Context, t *testing.T, s Store) {
			in := domain.NewProduct("Widget", 10, "Tools", "")
			in.ID = primitive.NewObjectID()
			id, err := s.InsertOne(ctx, in)
			require.NoError(t, err)
			assert.NotEqual(t, in.ID, id)
		},
		"FindOneMissing": func(ctx context.Context, t *testing.T, s Store) {
			_, err := s.FindOne(ctx, primitive.NewObjectID())
			assert.ErrorIs(t, err, domain.ErrNotFound)
		},
		"FindWithSpec": func(ctx context.Context, t *testing.T, s Store) {
			seed(t, ctx, s)

			all, err := s.Find(ctx, filter.Spec{})
			require.NoError(t, err)
			assert.Equal(t, []string{"Apple iPhone 15", "Samsung Galaxy S23", "Chocolate Cake", "Laptop"}, names(all))

			q, err := url.ParseQuery("category=Electronics&minPrice=1000&sort=price&fields=name,price")
			require.NoError(t, err)
			spec, err := filter.Build(q)
			require.NoError(t, err)
			docs, err := s.Find(ctx, spec)
			require.NoError(t, err)
			assert.Equal(t, []string{"Laptop", "Apple iPhone 15"}, names(docs))
			for _, d := range docs {
				assert.False(t, d.ID.IsZero())
			}

			spec, err = filter.Build(url.Values{"sort": {"priceDesc"}, "limit": {"2"}, "skip": {"1"}})
			require.NoError(t, err)
			docs, err = s.Find(ctx, spec)
			require.NoError(t, err)
			assert.Equal(t, []string{"Laptop", "Samsung Galaxy S23"}, names(docs))

			spec, err = filter.Build(url.Values{"category": {"Toys"}})
			require.NoError(t, err)
			docs, err = s.Find(ctx, spec)
			require.NoError(t, err)
			assert.Empty(t, docs)
		},
		"UpdateOne": func(ctx context.Context, t *testing.T, s Store) {
			ids := seed(t, ctx, s)
			price := 12.5
			matched, err := s.UpdateOne(ctx, ids["Chocolate Cake"], domain.Patch{Price: &price})
			require.NoError(t, err)
			assert.EqualValues(t, 1, matched)

			doc, err := s.FindOne(ctx, ids["Chocolate Cake"])
			require.NoError(t, err)
			assert.Equal(t, 12.5, doc.Price)
			assert.Equal(t, "Food", doc.Category)

			matched, err = s.UpdateOne(ctx, primitive.NewObjectID(), domain.Patch{Price: &price})
			require.NoError(t, err)
			assert.Zero(t, matched)
		},
		"DeleteOne": func(ctx context.Context, t *testing.T, s Store) {
			ids := seed(t, ctx, s)
			deleted, err := s.DeleteOne(ctx, ids["Laptop"])
			require.NoError(t, err)
			assert.EqualValues(t, 1, deleted)

			_, err = s.FindOne(ctx, ids["Laptop"])
			assert.ErrorIs(t, err, domain.ErrNotFound)

			deleted, err = s.DeleteOne(ctx, ids["Laptop"])
			require.NoError(t, err)
			assert.Zero(t, deleted)
		},
	} {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			s := open(t)
			require.NoError(t, s.EnsureCollection(ctx))
			test(ctx, t, s)
		})
	}
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestBoltStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		s, err := OpenBolt(config.DBConfig{
			URI:        filepath.Join(t.TempDir(), "data", "shop.db"),
			Collection: "products",
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close(context.Background()) })
		return s
	})
}

func TestBoltStoreRequiresEnsureCollection(t *testing.T) {
	s, err := OpenBolt(config.DBConfig{URI: filepath.Join(t.TempDir(), "shop.db"), Collection: "items"})
	require.NoError(t, err)
	defer s.Close(context.Background())

	_, err = s.Find(context.Background(), filter.Spec{})
	assert.Error(t, err)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	runStoreContract(t, func(t *testing.T) Store {
		ctx := context.Background()
		s, err := OpenMongo(ctx, config.DBConfig{
			URI:            uri,
			Name:           "productapi_test",
			Collection:     fmt.Sprintf("products_%d", time.Now().UnixNano()),
			ConnectTimeout: 5 * time.Second,
		})
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = s.coll().Drop(ctx)
			_ = s.Close(ctx)
		})
		return s
	})
}

func TestGormStore(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	runStoreContract(t, func(t *testing.T) Store {
		ctx := context.Background()
		table := fmt.Sprintf("products_%d", time.Now().UnixNano())
		s, err := OpenGorm(ctx, config.DBConfig{URI: dsn, Collection: table})
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = s.db.Migrator().DropTable(table)
			_ = s.Close(ctx)
		})
		return s
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, config.DBConfig{Type: config.DatabaseMongo})
	assert.ErrorIs(t, err, config.ErrMissingDatabaseURI)

	_, err = Open(ctx, config.DBConfig{Type: "couch", URI: "couch://"})
	assert.Error(t, err)

	s, err := Open(ctx, config.DBConfig{Type: config.DatabaseMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.DBConfig{Type: config.DatabaseBolt, URI: filepath.Join(t.TempDir(), "x.db"), Collection: "items"})
	require.NoError(t, err)
	assert.IsType(t, &BoltStore{}, s)
	require.NoError(t, s.Close(ctx))
}

func TestMemoryStoreHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore().Find(ctx, filter.Spec{})
	assert.ErrorIs(t, err, context.Canceled)
}
