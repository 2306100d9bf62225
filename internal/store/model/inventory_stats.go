package model

import "sort"

type TableStats struct {
	Table string
	Rows  int
}

type InventoryStats struct {
	// TotalSources is the number of ingested environments.
	TotalSources int
	// TotalRows is the number of rows across every source and table.
	TotalRows int
	// TotalVMs is the number of vInfo rows.
	TotalVMs int
	// Tables holds row counts per sheet, sorted by table name.
	Tables []TableStats
}

const vmTable = "vInfo"

func NewInventoryStats(sources SourceList) InventoryStats {
	stats := InventoryStats{TotalSources: len(sources)}
	byTable := make(map[string]int)

	for _, s := range sources {
		stats.TotalRows += s.RowCount
		for _, t := range s.Tables {
			byTable[t.Table] += t.RowCount
		}
		stats.TotalVMs += s.TableRows(vmTable)
	}

	stats.Tables = make([]TableStats, 0, len(byTable))
	for table, rows := range byTable {
		stats.Tables = append(stats.Tables, TableStats{Table: table, Rows: rows})
	}
	sort.Slice(stats.Tables, func(i, j int) bool {
		return stats.Tables[i].Table < stats.Tables[j].Table
	})

	return stats
}
