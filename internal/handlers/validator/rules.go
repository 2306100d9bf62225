package validator

import "github.com/go-playground/validator/v10"

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func NewSourceValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("source_name", nameValidator),
		},
		{
			Rule: registerFn("workbook", workbookValidator),
		},
	}
}

func NewFindingsValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("source_name", nameValidator),
		},
		{
			Rule: registerFn("severity", severityValidator),
		},
		{
			Rule: registerFn("finding_type", findingTypeValidator),
		},
	}
}

func NewReportValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("report_format", reportFormatValidator),
		},
	}
}
