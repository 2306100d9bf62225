package store

import (
	"time"

	"gorm.io/gorm"
)

type SortOrder int

const (
	Unsorted SortOrder = iota
	SortByName
	SortByIngestedTime
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type SourceQueryFilter BaseQuerier

func NewSourceQueryFilter() *SourceQueryFilter {
	return &SourceQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (sf *SourceQueryFilter) ByName(names ...string) *SourceQueryFilter {
	sf.QueryFn = append(sf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("name IN ?", names)
	})
	return sf
}

func (sf *SourceQueryFilter) ByChecksum(checksum string) *SourceQueryFilter {
	sf.QueryFn = append(sf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("checksum = ?", checksum)
	})
	return sf
}

// IngestedBefore keeps sources whose last ingestion is older than t.
func (sf *SourceQueryFilter) IngestedBefore(t time.Time) *SourceQueryFilter {
	sf.QueryFn = append(sf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("ingested_at < ?", t)
	})
	return sf
}

type SourceQueryOptions BaseQuerier

func NewSourceQueryOptions() *SourceQueryOptions {
	return &SourceQueryOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (o *SourceQueryOptions) WithSortOrder(sort SortOrder) *SourceQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		switch sort {
		case SortByName:
			return tx.Order("name")
		case SortByIngestedTime:
			return tx.Order("ingested_at DESC")
		default:
			return tx
		}
	})
	return o
}

func (o *SourceQueryOptions) WithLimit(limit int) *SourceQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(limit)
	})
	return o
}
