package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Source is one ingested environment: the content of a single RVTools
// workbook. Reingesting a workbook with the same name replaces it.
type Source struct {
	ID         uuid.UUID     `gorm:"primaryKey;type:TEXT;"`
	Name       string        `gorm:"uniqueIndex;not null"`
	FileName   string        `gorm:"not null"`
	Checksum   string        `gorm:"not null"`
	RowCount   int           `gorm:"not null"`
	IngestedAt time.Time     `gorm:"not null"`
	CreatedAt  time.Time     `json:"-"`
	UpdatedAt  time.Time     `json:"-"`
	Tables     []SourceTable `gorm:"foreignKey:SourceID;references:ID;constraint:OnDelete:CASCADE;"`
}

type SourceList []Source

func NewSource(name, fileName, checksum string) *Source {
	return &Source{
		ID:       uuid.New(),
		Name:     name,
		FileName: fileName,
		Checksum: checksum,
	}
}

func (s Source) String() string {
	val, _ := json.Marshal(s)
	return string(val)
}

// TableRows returns the number of rows ingested for table, 0 when the
// workbook had no such sheet.
func (s Source) TableRows(table string) int {
	for _, t := range s.Tables {
		if t.Table == table {
			return t.RowCount
		}
	}
	return 0
}
