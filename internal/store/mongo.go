package store

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"github.com/talkincode/productapi/config"
	"github.com/talkincode/productapi/internal/domain"
	"github.com/talkincode/productapi/internal/filter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const namespaceExistsErrCode = 48

// MongoStore keeps documents in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	name   string
}

// OpenMongo connects and pings the server so a bad URI fails at startup.
func OpenMongo(ctx context.Context, cfg config.DBConfig) (*MongoStore, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout).SetServerSelectionTimeout(cfg.ConnectTimeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "problem connecting to the database")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, pkgerrors.Wrap(err, "problem reaching the database")
	}
	return NewMongoStore(client, cfg.Name, cfg.Collection), nil
}

// NewMongoStore wraps an already connected client.
func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(database), name: collection}
}

func (s *MongoStore) coll() *mongo.Collection {
	return s.db.Collection(s.name)
}

func (s *MongoStore) Find(ctx context.Context, spec filter.Spec) ([]domain.Product, error) {
	opts := options.Find()
	if spec.Sort != nil {
		dir := 1
		if spec.Sort.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: spec.Sort.Field, Value: dir}, {Key: "_id", Value: 1}})
	}
	if len(spec.Projection) > 0 {
		proj := bson.D{}
		for _, f := range spec.Projection {
			proj = append(proj, bson.E{Key: f, Value: 1})
		}
		opts.SetProjection(proj)
	}
	if spec.Skip > 0 {
		opts.SetSkip(spec.Skip)
	}
	if spec.Limit > 0 {
		opts.SetLimit(spec.Limit)
	}

	cur, err := s.coll().Find(ctx, mongoFilter(spec.Filter), opts)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "finding documents in '%s'", s.name)
	}
	docs := []domain.Product{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, pkgerrors.Wrapf(err, "decoding documents from '%s'", s.name)
	}
	return docs, nil
}

func mongoFilter(c filter.Criteria) bson.M {
	q := bson.M{}
	if c.Category != nil {
		q[domain.FieldCategory] = *c.Category
	}
	if c.MinPrice != nil || c.MaxPrice != nil {
		rng := bson.M{}
		if c.MinPrice != nil {
			rng["$gte"] = *c.MinPrice
		}
		if c.MaxPrice != nil {
			rng["$lte"] = *c.MaxPrice
		}
		q[domain.FieldPrice] = rng
	}
	return q
}

func (s *MongoStore) FindOne(ctx context.Context, id primitive.ObjectID) (domain.Product, error) {
	var doc domain.Product
	err := s.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Product{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, pkgerrors.Wrapf(err, "finding document %s", id.Hex())
	}
	return doc, nil
}

func (s *MongoStore) InsertOne(ctx context.Context, doc domain.Product) (primitive.ObjectID, error) {
	doc.ID = primitive.NilObjectID
	res, err := s.coll().InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, pkgerrors.Wrap(err, "inserting document")
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, pkgerrors.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}

func (s *MongoStore) UpdateOne(ctx context.Context, id primitive.ObjectID, patch domain.Patch) (int64, error) {
	res, err := s.coll().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": patch.Fields()})
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "updating document %s", id.Hex())
	}
	return res.MatchedCount, nil
}

func (s *MongoStore) DeleteOne(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.coll().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "deleting document %s", id.Hex())
	}
	return res.DeletedCount, nil
}

// EnsureCollection treats an already existing namespace as success.
func (s *MongoStore) EnsureCollection(ctx context.Context) error {
	names, err := s.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: s.name}})
	if err != nil {
		return pkgerrors.Wrap(err, "listing collections")
	}
	if len(names) > 0 {
		zap.L().Info("collection exists", zap.String("collection", s.name))
		return nil
	}

	err = s.db.CreateCollection(ctx, s.name)
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.HasErrorCode(namespaceExistsErrCode) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "creating collection '%s'", s.name)
	}
	zap.L().Info("collection created", zap.String("collection", s.name))
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return pkgerrors.WithStack(s.client.Ping(ctx, readpref.Primary()))
}

func (s *MongoStore) Close(ctx context.Context) error {
	return pkgerrors.Wrap(s.client.Disconnect(ctx), "disconnecting from the database")
}
