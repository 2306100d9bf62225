package inventory

import (
	"strings"
	"time"

	"github.com/kubev2v/inventory-advisor/pkg/normalize"
)

// SourceColumn is the discriminator column added to every ingested row.
const SourceColumn = "Source"

// Record is one raw row: column header to value.
type Record map[string]any

// RawTable is a sheet as delivered by the ingestion layer.
type RawTable struct {
	Columns []string
	Rows    []Record
}

// Table is an immutable, schema-resolved view over the rows of one logical
// table across every ingested source.
type Table struct {
	name    TableName
	columns []string
	fields  map[Field][]string
	rows    []Row
}

// Row gives typed access to one record through the table's schema.
type Row struct {
	table  *Table
	values Record
}

func emptyTable(name TableName) *Table {
	return &Table{name: name, fields: map[Field][]string{}}
}

// newTable resolves the schema once against the union of headers. Sources
// exported by different RVTools releases may spell a header differently, so
// every matching alias is kept in preference order.
func newTable(name TableName, columns []string, records []Record) *Table {
	t := &Table{
		name:    name,
		columns: columns,
		fields:  resolveFields(Schemas[name], columns),
		rows:    make([]Row, 0, len(records)),
	}
	for _, rec := range records {
		t.rows = append(t.rows, Row{table: t, values: rec})
	}
	return t
}

func resolveFields(schema Schema, columns []string) map[Field][]string {
	byKey := make(map[string]string, len(columns))
	for _, c := range columns {
		key := strings.ToLower(strings.TrimSpace(c))
		if _, exists := byKey[key]; !exists {
			byKey[key] = c
		}
	}

	resolved := make(map[Field][]string, len(schema))
	for field, aliases := range schema {
		for _, alias := range aliases {
			if col, ok := byKey[strings.ToLower(alias)]; ok {
				resolved[field] = append(resolved[field], col)
			}
		}
	}
	return resolved
}

func (t *Table) Name() TableName { return t.name }

func (t *Table) Columns() []string { return t.columns }

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Empty() bool { return len(t.rows) == 0 }

func (t *Table) Rows() []Row { return t.rows }

// Has reports whether the table carries a column for every field.
func (t *Table) Has(fields ...Field) bool {
	for _, f := range fields {
		if _, ok := t.fields[f]; !ok {
			return false
		}
	}
	return true
}

// Column returns the preferred header a field resolved to.
func (t *Table) Column(f Field) (string, bool) {
	cols, ok := t.fields[f]
	if !ok {
		return "", false
	}
	return cols[0], true
}

func (r Row) Table() TableName { return r.table.name }

// Raw returns the underlying record. It must not be modified.
func (r Row) Raw() Record { return r.values }

// Value returns the raw value of a field; false when the row carries none
// of its aliases.
func (r Row) Value(f Field) (any, bool) {
	for _, col := range r.table.fields[f] {
		if v, ok := r.values[col]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r Row) String(f Field) string {
	v, _ := r.Value(f)
	return normalize.String(v)
}

func (r Row) Float(f Field) float64 {
	v, _ := r.Value(f)
	return normalize.Numeric(v, 0)
}

// FloatOr is Float with an explicit default for missing or unparsable values.
func (r Row) FloatOr(f Field, def float64) float64 {
	v, _ := r.Value(f)
	return normalize.Numeric(v, def)
}

func (r Row) Int(f Field) int {
	v, _ := r.Value(f)
	return normalize.Int(v, 0)
}

func (r Row) Bool(f Field) bool {
	v, _ := r.Value(f)
	return normalize.Bool(v)
}

func (r Row) Date(f Field) (time.Time, bool) {
	v, _ := r.Value(f)
	return normalize.Date(v)
}

func (r Row) Source() string {
	if s := r.String(FieldSource); s != "" {
		return s
	}
	return normalize.String(r.values[SourceColumn])
}

// VMKey identifies the VM a detail row belongs to. Sheets without a
// datacenter column leave it empty so lookups match on source and name.
func (r Row) VMKey() Key {
	return Key{Source: r.Source(), Datacenter: r.String(FieldDatacenter), Name: r.String(FieldVM)}
}

// HostKey identifies the host a detail row references.
func (r Row) HostKey() Key {
	return Key{Source: r.Source(), Datacenter: r.String(FieldDatacenter), Name: r.String(FieldHost)}
}
