package inventory

import (
	"errors"
	"fmt"
)

// Analysis never fails on these; they describe why data was skipped.
var (
	ErrMissingTable   = errors.New("missing table")
	ErrMissingColumn  = errors.New("missing column")
	ErrValueCoercion  = errors.New("value coercion failure")
	ErrAmbiguousMatch = errors.New("ambiguous match")
	ErrUnknownVM      = errors.New("unknown vm")
	ErrUnknownEntity  = errors.New("unknown entity")
)

func NewErrMissingTable(name TableName) error {
	return fmt.Errorf("%w: %s", ErrMissingTable, name)
}

func NewErrMissingColumn(name TableName, fields ...Field) error {
	return fmt.Errorf("%w: %s %v", ErrMissingColumn, name, fields)
}

func NewErrValueCoercion(name TableName, field Field, value any) error {
	return fmt.Errorf("%w: %s.%s=%q", ErrValueCoercion, name, field, fmt.Sprint(value))
}

func NewErrAmbiguousMatch(subject, chosen, dropped string) error {
	return fmt.Errorf("%w: %s matched %s, ignoring %s", ErrAmbiguousMatch, subject, chosen, dropped)
}

// NewErrUnknownVM reports a detail row whose VM is absent from vInfo.
func NewErrUnknownVM(name TableName, key Key) error {
	return fmt.Errorf("%w: %s row references %s", ErrUnknownVM, name, key)
}

// NewErrUnknownEntity reports a row naming neither a known VM nor a known host.
func NewErrUnknownEntity(name TableName, key Key) error {
	return fmt.Errorf("%w: %s row references %s", ErrUnknownEntity, name, key)
}

// Reason is a short label for metrics.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingTable):
		return "missing_table"
	case errors.Is(err, ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, ErrValueCoercion):
		return "value_coercion"
	case errors.Is(err, ErrAmbiguousMatch):
		return "ambiguous_match"
	case errors.Is(err, ErrUnknownVM):
		return "unknown_vm"
	case errors.Is(err, ErrUnknownEntity):
		return "unknown_entity"
	default:
		return "other"
	}
}
