package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationRule struct {
	Rule func(v *validator.Validate)
}

// Validator wraps go-playground/validator with the rule sets of one endpoint
// and turns field failures into a message fit for an API reply.
type Validator struct {
	validator *validator.Validate
	rules     []ValidationRule
}

func NewValidator() *Validator {
	v := validator.New()
	return &Validator{validator: v}
}

func (v *Validator) Register(rules ...ValidationRule) {
	for _, validationRule := range rules {
		validationRule.Rule(v.validator)
	}
	v.rules = rules
}

func (v *Validator) Struct(s any) error {
	err := v.validator.Struct(s)
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	return &ValidationError{Fields: fields}
}

// ValidationError lists every field that broke a rule. It unwraps to the
// underlying validator.ValidationErrors.
type ValidationError struct {
	Fields validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, fe := range e.Fields {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s: fails %s", strings.ToLower(fe.Field()), rule))
	}
	return "invalid request: " + strings.Join(msgs, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Fields }
