package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/inventory-advisor/internal/store/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Source interface {
	List(ctx context.Context, filter *SourceQueryFilter, options ...*SourceQueryOptions) (model.SourceList, error)
	Get(ctx context.Context, name string) (*model.Source, error)
	Create(ctx context.Context, source model.Source) (*model.Source, error)
	Delete(ctx context.Context, name string) error
}

type SourceStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// Make sure we conform to Source interface
var _ Source = (*SourceStore)(nil)

func NewSource(db *gorm.DB, log logrus.FieldLogger) Source {
	return &SourceStore{db: db, log: log}
}

// List returns the sources with their table headers, ordered by name unless
// options say otherwise.
func (s *SourceStore) List(ctx context.Context, filter *SourceQueryFilter, options ...*SourceQueryOptions) (model.SourceList, error) {
	var sources model.SourceList
	tx := s.getDB(ctx).Model(&sources).Preload("Tables", func(db *gorm.DB) *gorm.DB {
		return db.Order("table_name")
	})

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	sorted := false
	for _, o := range options {
		if o == nil {
			continue
		}
		for _, fn := range o.QueryFn {
			tx = fn(tx)
		}
		sorted = true
	}
	if !sorted {
		tx = tx.Order("name")
	}

	if err := tx.Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

func (s *SourceStore) Get(ctx context.Context, name string) (*model.Source, error) {
	source := model.Source{}
	result := s.getDB(ctx).Preload("Tables", func(db *gorm.DB) *gorm.DB {
		return db.Order("table_name")
	}).Where("name = ?", name).First(&source)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &source, nil
}

func (s *SourceStore) Create(ctx context.Context, source model.Source) (*model.Source, error) {
	if source.ID == uuid.Nil {
		source.ID = uuid.New()
	}
	if source.IngestedAt.IsZero() {
		source.IngestedAt = time.Now().UTC()
	}
	if err := s.getDB(ctx).Create(&source).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &source, nil
}

// Delete removes the source and every row ingested for it.
func (s *SourceStore) Delete(ctx context.Context, name string) error {
	return s.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		var source model.Source
		if err := tx.Where("name = ?", name).First(&source).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return err
		}
		if err := deleteContent(tx, source.ID); err != nil {
			return err
		}
		if err := tx.Delete(&source).Error; err != nil {
			s.log.Errorf("failed to delete source %q: %v", name, err)
			return err
		}
		return nil
	})
}

func (s *SourceStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}

// deleteContent drops the rows and table headers of a source. Foreign key
// enforcement is off by default on sqlite so the cascade is done by hand.
func deleteContent(tx *gorm.DB, sourceID uuid.UUID) error {
	if err := tx.Where("source_id = ?", sourceID).Delete(&model.InventoryRow{}).Error; err != nil {
		return err
	}
	return tx.Where("source_id = ?", sourceID).Delete(&model.SourceTable{}).Error
}
