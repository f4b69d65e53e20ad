package store

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/talkincode/productapi/config"
	"github.com/talkincode/productapi/internal/domain"
	"github.com/talkincode/productapi/internal/filter"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// productRow is the relational shape of a document. Ids keep the ObjectID hex
// form so identifiers look the same whichever backend is configured.
type productRow struct {
	ID          string  `gorm:"primaryKey;size:24"`
	Name        string  `gorm:"index"`
	Price       float64 `gorm:"index"`
	Category    string  `gorm:"index;size:255"`
	Description string
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
}

var columnNames = map[string]string{
	domain.FieldID:          "id",
	domain.FieldName:        "name",
	domain.FieldPrice:       "price",
	domain.FieldCategory:    "category",
	domain.FieldDescription: "description",
	domain.FieldCreatedAt:   "created_at",
}

func (r productRow) toDomain() domain.Product {
	id, _ := primitive.ObjectIDFromHex(r.ID)
	return domain.Product{
		ID:          id,
		Name:        r.Name,
		Price:       r.Price,
		Category:    r.Category,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

// GormStore keeps documents in a relational table through gorm.
type GormStore struct {
	db    *gorm.DB
	table string
}

// OpenGorm connects to postgres using cfg.URI as the DSN.
func OpenGorm(ctx context.Context, cfg config.DBConfig) (*GormStore, error) {
	level := logger.Warn
	if cfg.Debug {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.URI), &gorm.Config{
		Logger: logger.New(
			zap.NewStdLog(zap.L()),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "problem connecting to the database")
	}
	s := NewGormStore(db, cfg.Collection)
	if err := s.Ping(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// NewGormStore wraps an open gorm handle; table is the collection name.
func NewGormStore(db *gorm.DB, table string) *GormStore {
	return &GormStore{db: db, table: table}
}

func (s *GormStore) tx(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.table)
}

func (s *GormStore) Find(ctx context.Context, spec filter.Spec) ([]domain.Product, error) {
	q := s.tx(ctx)
	if c := spec.Filter.Category; c != nil {
		q = q.Where("category = ?", *c)
	}
	if v := spec.Filter.MinPrice; v != nil {
		q = q.Where("price >= ?", *v)
	}
	if v := spec.Filter.MaxPrice; v != nil {
		q = q.Where("price <= ?", *v)
	}
	if len(spec.Projection) > 0 {
		cols := []string{"id"}
		for _, f := range spec.Projection {
			cols = append(cols, columnNames[f])
		}
		q = q.Select(cols)
	}
	if o := spec.Sort; o != nil {
		dir := " ASC"
		if o.Descending {
			dir = " DESC"
		}
		q = q.Order(columnNames[o.Field] + dir)
	}
	q = q.Order("id ASC")
	if spec.Skip > 0 {
		q = q.Offset(int(spec.Skip))
	}
	if spec.Limit > 0 {
		q = q.Limit(int(spec.Limit))
	}

	var rows []productRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrapf(err, "finding rows in '%s'", s.table)
	}
	docs := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r.toDomain())
	}
	return docs, nil
}

func (s *GormStore) FindOne(ctx context.Context, id primitive.ObjectID) (domain.Product, error) {
	var row productRow
	err := s.tx(ctx).Where("id = ?", id.Hex()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Product{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, pkgerrors.Wrapf(err, "finding row %s", id.Hex())
	}
	return row.toDomain(), nil
}

func (s *GormStore) InsertOne(ctx context.Context, doc domain.Product) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	row := productRow{
		ID:          id.Hex(),
		Name:        doc.Name,
		Price:       doc.Price,
		Category:    doc.Category,
		Description: doc.Description,
		CreatedAt:   doc.CreatedAt,
	}
	if err := s.tx(ctx).Create(&row).Error; err != nil {
		return primitive.NilObjectID, pkgerrors.Wrap(err, "inserting row")
	}
	return id, nil
}

func (s *GormStore) UpdateOne(ctx context.Context, id primitive.ObjectID, patch domain.Patch) (int64, error) {
	updates := map[string]interface{}{}
	for field, v := range patch.Fields() {
		updates[columnNames[field]] = v
	}
	res := s.tx(ctx).Where("id = ?", id.Hex()).Updates(updates)
	if res.Error != nil {
		return 0, pkgerrors.Wrapf(res.Error, "updating row %s", id.Hex())
	}
	return res.RowsAffected, nil
}

func (s *GormStore) DeleteOne(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res := s.tx(ctx).Where("id = ?", id.Hex()).Delete(&productRow{})
	if res.Error != nil {
		return 0, pkgerrors.Wrapf(res.Error, "deleting row %s", id.Hex())
	}
	return res.RowsAffected, nil
}

// EnsureCollection migrates the table; AutoMigrate is a no-op for an up to date schema.
func (s *GormStore) EnsureCollection(ctx context.Context) error {
	if err := s.tx(ctx).AutoMigrate(&productRow{}); err != nil {
		return pkgerrors.Wrapf(err, "migrating table '%s'", s.table)
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return pkgerrors.WithStack(err)
	}
	return pkgerrors.Wrap(sqlDB.PingContext(ctx), "problem reaching the database")
}

func (s *GormStore) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return pkgerrors.WithStack(err)
	}
	return sqlDB.Close()
}
