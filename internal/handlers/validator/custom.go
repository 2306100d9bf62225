package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/rvtools"
	"github.com/kubev2v/inventory-advisor/internal/service/report/types"
)

var (
	sourceNameValidRegex  = regexp.MustCompile(`^[a-zA-Z0-9+\-_. ()]+$`)
	findingTypeValidRegex = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

func nameValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return sourceNameValidRegex.MatchString(val)
}

func workbookValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	// the source is named after the file
	return rvtools.IsWorkbookName(val) && sourceNameValidRegex.MatchString(rvtools.SourceName(val))
}

func severityValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	_, ok = findings.ParseSeverity(strings.ToUpper(val))
	return ok
}

func findingTypeValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return findingTypeValidRegex.MatchString(strings.ToUpper(val))
}

func reportFormatValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	switch types.ReportFormat(strings.ToLower(val)) {
	case types.ReportFormatCSV, types.ReportFormatHTML, types.ReportFormatPDF:
		return true
	default:
		return false
	}
}
