package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/internal/store/model"
	"gorm.io/gorm"
)

// rows per INSERT, kept under the sqlite bound variable limit
const insertBatchSize = 200

type Inventory interface {
	// Replace stores data as the full content of source. An existing source
	// with the same name loses all of its previous rows.
	Replace(ctx context.Context, source model.Source, data inventory.SourceData) (*model.Source, error)
	// Load reads every source back, ordered by source name then row index.
	Load(ctx context.Context) ([]inventory.SourceData, error)
}

type InventoryStore struct {
	db *gorm.DB
}

var _ Inventory = (*InventoryStore)(nil)

func NewInventory(db *gorm.DB) Inventory {
	return &InventoryStore{db: db}
}

func (s *InventoryStore) Replace(ctx context.Context, source model.Source, data inventory.SourceData) (*model.Source, error) {
	source.Tables = nil
	source.RowCount = 0
	if source.IngestedAt.IsZero() {
		source.IngestedAt = time.Now().UTC()
	}

	err := s.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Source
		err := tx.Where("name = ?", source.Name).First(&existing).Error
		switch {
		case err == nil:
			source.ID = existing.ID
			source.CreatedAt = existing.CreatedAt
			if err := deleteContent(tx, existing.ID); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if source.ID == uuid.Nil {
				source.ID = uuid.New()
			}
		default:
			return err
		}

		tables, rows := toModel(source.ID, data)
		source.RowCount = len(rows)

		if err := tx.Save(&source).Error; err != nil {
			return err
		}
		if len(tables) > 0 {
			if err := tx.Create(&tables).Error; err != nil {
				return err
			}
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
				return err
			}
		}
		source.Tables = tables
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &source, nil
}

func (s *InventoryStore) Load(ctx context.Context) ([]inventory.SourceData, error) {
	db := s.getDB(ctx)

	var sources model.SourceList
	if err := db.Preload("Tables").Order("name").Find(&sources).Error; err != nil {
		return nil, err
	}

	type tableKey struct {
		source uuid.UUID
		table  string
	}
	records := make(map[tableKey][]inventory.Record)

	rows, err := db.Model(&model.InventoryRow{}).Order("source_id, table_name, row_index").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r model.InventoryRow
		if err := db.ScanRows(rows, &r); err != nil {
			return nil, err
		}
		k := tableKey{source: r.SourceID, table: r.Table}
		records[k] = append(records[k], inventory.Record(r.Payload))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	data := make([]inventory.SourceData, 0, len(sources))
	for _, src := range sources {
		sd := inventory.SourceData{
			Name:   src.Name,
			Tables: make(map[inventory.TableName]inventory.RawTable, len(src.Tables)),
		}
		for _, t := range src.Tables {
			sd.Tables[inventory.TableName(t.Table)] = inventory.RawTable{
				Columns: t.Columns,
				Rows:    records[tableKey{source: src.ID, table: t.Table}],
			}
		}
		data = append(data, sd)
	}

	return data, nil
}

func (s *InventoryStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}

func toModel(sourceID uuid.UUID, data inventory.SourceData) ([]model.SourceTable, []model.InventoryRow) {
	tables := make([]model.SourceTable, 0, len(data.Tables))
	var rows []model.InventoryRow

	for _, name := range inventory.KnownTables {
		raw, ok := data.Tables[name]
		if !ok {
			continue
		}
		columns := raw.Columns
		if columns == nil {
			columns = []string{}
		}
		tables = append(tables, model.SourceTable{
			SourceID: sourceID,
			Table:    string(name),
			Columns:  columns,
			RowCount: len(raw.Rows),
		})
		for i, rec := range raw.Rows {
			rows = append(rows, model.InventoryRow{
				SourceID: sourceID,
				Table:    string(name),
				RowIndex: i,
				Payload:  map[string]any(rec),
			})
		}
	}

	return tables, rows
}
