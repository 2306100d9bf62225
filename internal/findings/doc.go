// Package findings defines the catalog of inventory checks.
//
// Each Check scans one or more inventory tables and emits typed Findings. Checks are
// independent and stateless; the Catalog runs them in registration order and concatenates
// their output. Deduplication and ordering belong to the ranking stage.
package findings
