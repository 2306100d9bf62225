package service

import (
	"fmt"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(name string, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, name)}
}

func NewErrSourceNotFound(name string) *ErrResourceNotFound {
	return NewErrResourceNotFound(name, "source")
}

func NewErrFindingNotFound(ref string) *ErrResourceNotFound {
	return NewErrResourceNotFound(ref, "finding")
}

type ErrFileCorrupted struct {
	error
}

func NewErrFileCorrupted(message string) *ErrFileCorrupted {
	return &ErrFileCorrupted{fmt.Errorf("bad request: %s", message)}
}

func NewErrRVToolsFileCorrupted(message string) *ErrFileCorrupted {
	return NewErrFileCorrupted(fmt.Sprintf("The provided RVTools file is corrupted: %s", message))
}

func NewErrExcelFileNotValid() *ErrFileCorrupted {
	return NewErrFileCorrupted("the uploaded file is not a valid Excel (.xlsx) file")
}

type ErrUnsupportedFormat struct {
	error
}

func NewErrUnsupportedFormat(format string) *ErrUnsupportedFormat {
	return &ErrUnsupportedFormat{fmt.Errorf("unsupported report format: %s", format)}
}

type ErrInvalidQuery struct {
	error
}

func NewErrInvalidQuery(message string) *ErrInvalidQuery {
	return &ErrInvalidQuery{fmt.Errorf("invalid query: %s", message)}
}
