package model

import (
	"github.com/google/uuid"
)

// SourceTable records the header of one sheet of a source, in workbook order.
type SourceTable struct {
	SourceID uuid.UUID `gorm:"primaryKey;type:TEXT;"`
	Table    string    `gorm:"primaryKey;column:table_name;"`
	Columns  []string  `gorm:"serializer:json;type:TEXT;not null"`
	RowCount int       `gorm:"not null"`
}

// InventoryRow is a single sheet row stored as a JSON object keyed by
// column header.
type InventoryRow struct {
	SourceID uuid.UUID      `gorm:"primaryKey;type:TEXT;"`
	Table    string         `gorm:"primaryKey;column:table_name;"`
	RowIndex int            `gorm:"primaryKey;"`
	Payload  map[string]any `gorm:"serializer:json;type:TEXT;not null"`
}
