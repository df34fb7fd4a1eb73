package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/flowstudio/pkg/domain"
)

func TestValidate_Success(t *testing.T) {
	s := Schema{
		"url":     String(),
		"timeout": Optional(Int()),
		"stream":  Optional(Bool()),
	}
	data := map[string]any{
		"url":     "https://api.example.com",
		"timeout": 30,
		"extra":   "ignored",
	}
	if err := Validate(s, data); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_MissingField(t *testing.T) {
	s := Schema{"url": String()}

	err := Validate(s, map[string]any{})
	if err == nil {
		t.Fatal("Validate() expected error for missing field")
	}
	errs := ValidationErrors(err)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	var ve *domain.ValidationError
	if !errors.As(errs[0], &ve) {
		t.Fatalf("expected *domain.ValidationError, got %T", errs[0])
	}
	if ve.Field != "url" || ve.Reason != "required" {
		t.Errorf("got %s/%s, want url/required", ve.Field, ve.Reason)
	}
}

func TestValidate_MultipleErrorsSorted(t *testing.T) {
	s := Schema{
		"prompt": String(),
		"model":  String(),
		"temp":   Optional(Float()),
	}
	err := Validate(s, map[string]any{"temp": "hot"})
	errs := ValidationErrors(err)
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(errs), err)
	}
	want := []string{"model", "prompt", "temp"}
	for i, e := range errs {
		var ve *domain.ValidationError
		errors.As(e, &ve)
		if ve.Field != want[i] {
			t.Errorf("errs[%d].Field = %q, want %q", i, ve.Field, want[i])
		}
	}
	if !strings.Contains(err.Error(), "3 validation errors") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	if err := Validate(nil, map[string]any{"a": 1}); err != nil {
		t.Errorf("Validate(nil) error = %v", err)
	}
	if ValidationErrors(nil) != nil {
		t.Error("ValidationErrors(nil) should be nil")
	}
}
