package schema

import (
	"errors"
	"sort"

	"github.com/aretw0/flowstudio/pkg/domain"
)

// Schema is a map of configuration keys to their expected types.
type Schema map[string]Type

// Validate checks data against the schema.
// All failures are collected into a *domain.AggregateError of *domain.ValidationError.
// Keys absent from the schema are ignored.
func Validate(s Schema, data map[string]any) error {
	if len(s) == 0 {
		return nil
	}

	// Deterministic error order
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		typ := s[key]
		value, exists := data[key]
		if !exists || value == nil {
			if IsOptional(typ) {
				continue
			}
			errs = append(errs, &domain.ValidationError{Field: key, Reason: "required"})
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &domain.ValidationError{Field: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &domain.AggregateError{Errors: errs}
	}
	return nil
}

// ValidationErrors returns the individual failures of an error returned by Validate.
func ValidationErrors(err error) []error {
	var aggr *domain.AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
