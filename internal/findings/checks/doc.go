// Package checks provides the concrete Check implementations of the findings catalog.
//
// Each check reads the tables it declares through the inventory schema layer, never by
// raw column name, and is configured through functional options carrying its thresholds.
// A check that lacks its table or columns returns no findings; a record that fails to
// parse is reported through the input's skip hook and ignored.
package checks
