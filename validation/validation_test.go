package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/httpconnector/errors"
)

type inner struct {
	MaxConnections int `mapstructure:"max_connections" validate:"gte=0"`
}

type outer struct {
	Name      string `mapstructure:"name" validate:"required"`
	Transport inner  `mapstructure:"transport"`
	Mode      string `yaml:"mode" validate:"omitempty,oneof=fresh remaining"`
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(outer{Name: "a", Mode: "fresh"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_FieldNames(t *testing.T) {
	err := Validate(outer{Transport: inner{MaxConnections: -1}, Mode: "sometimes"})
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("Code = %s, want %s", appErr.Code, errors.ErrCodeInvalidInput)
	}
	for _, want := range []string{"name: is required", "transport.max_connections: must be at least 0", "mode: must be one of: fresh remaining"} {
		if !strings.Contains(appErr.Message, want) {
			t.Errorf("message %q missing %q", appErr.Message, want)
		}
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 3 {
		t.Errorf("expected 3 field errors in details, got %v", appErr.Details["fields"])
	}
}

func TestValidator_Chain(t *testing.T) {
	v := New()
	v.Required("name", "  ").
		Min("retries", -1, 0).
		OneOf("mode", "FRESH", []string{"fresh", "remaining"}).
		OneOf("other", "", []string{"x"}).
		Check(false, "proxy.port", "is required when proxy.host is set")

	if got := len(v.Errors()); got != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", got, v.Errors())
	}
	if v.Errors()[2].Field != "proxy.port" {
		t.Errorf("unexpected field order: %v", v.Errors())
	}
	if v.Validate() == nil {
		t.Fatal("expected Validate to return an error")
	}
}

func TestValidator_Merge(t *testing.T) {
	v := New()
	v.Merge("transport", Validate(outer{Name: "a", Transport: inner{MaxConnections: -5}}))
	v.Merge("tls", errors.Validation("bad"))
	v.Merge("none", nil)

	errs := v.Errors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if errs[0].Field != "transport.max_connections" {
		t.Errorf("merged field = %q", errs[0].Field)
	}
	if errs[1].Field != "tls" {
		t.Errorf("fallback field = %q", errs[1].Field)
	}
}

func TestValidator_Empty(t *testing.T) {
	if err := New().Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
