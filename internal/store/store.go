package store

import (
	"context"

	"github.com/kubev2v/inventory-advisor/internal/store/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Source() Source
	Inventory() Inventory
	Statistics(ctx context.Context) (model.InventoryStats, error)
	Close() error
}

type DataStore struct {
	db        *gorm.DB
	log       logrus.FieldLogger
	source    Source
	inventory Inventory
}

func NewStore(db *gorm.DB) Store {
	log := logrus.New().WithField("pkg", "store")
	return &DataStore{
		db:        db,
		log:       log,
		source:    NewSource(db, log),
		inventory: NewInventory(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db, s.log)
}

func (s *DataStore) Source() Source {
	return s.source
}

func (s *DataStore) Inventory() Inventory {
	return s.inventory
}

func (s *DataStore) Statistics(ctx context.Context) (model.InventoryStats, error) {
	sources, err := s.Source().List(ctx, NewSourceQueryFilter())
	if err != nil {
		return model.InventoryStats{}, err
	}
	return model.NewInventoryStats(sources), nil
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
