package validation

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestConfigValidator_Required(t *testing.T) {
	if err := NewConfigValidator("JobConfig").Required("OutputDir", "").Validate(); err == nil {
		t.Error("Expected error for empty required field")
	}
	if err := NewConfigValidator("JobConfig").Required("OutputDir", "result").Validate(); err != nil {
		t.Errorf("Expected no error for non-empty required field, got %v", err)
	}
}

func TestConfigValidator_NotEmpty(t *testing.T) {
	if err := NewConfigValidator("Vocabulary").NotEmpty("RefundStatuses", nil).Validate(); err == nil {
		t.Error("Expected error for empty list")
	}
	if err := NewConfigValidator("Vocabulary").NotEmpty("RefundStatuses", []string{"refunded"}).Validate(); err != nil {
		t.Errorf("Expected no error for non-empty list, got %v", err)
	}
}

func TestConfigValidator_RangeInt(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		min       int
		max       int
		expectErr bool
	}{
		{"below range", 0, 1, 10, true},
		{"above range", 15, 1, 10, true},
		{"at min", 1, 1, 10, false},
		{"at max", 10, 1, 10, false},
		{"in range", 5, 1, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfigValidator("Config").RangeInt("Workers", tt.value, tt.min, tt.max).Validate()
			if tt.expectErr && err == nil {
				t.Error("Expected error")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestConfigValidator_NonNegativeFloat(t *testing.T) {
	err := NewConfigValidator("JobConfig").
		NonNegativeFloat("HighValueThreshold", -1).
		NonNegativeFloat("HighValueThreshold", math.NaN()).
		Validate()
	if err == nil || strings.Count(err.Error(), "must be non-negative") != 2 {
		t.Errorf("Expected 2 errors, got %v", err)
	}

	if err := NewConfigValidator("JobConfig").NonNegativeFloat("HighValueThreshold", 5000).Validate(); err != nil {
		t.Errorf("Expected no error for positive value, got %v", err)
	}
}

func TestConfigValidator_Positive(t *testing.T) {
	if err := NewConfigValidator("Config").Positive("ShardSize", 0).Validate(); err == nil {
		t.Error("Expected error for zero value")
	}
	if err := NewConfigValidator("Config").Positive("ShardSize", 4096).Validate(); err != nil {
		t.Errorf("Expected no error for positive value, got %v", err)
	}
}

func TestConfigValidator_NonNegative(t *testing.T) {
	if err := NewConfigValidator("Config").NonNegative("Facets.categories.MaxLen", -1).Validate(); err == nil {
		t.Error("Expected error for negative value")
	}
	if err := NewConfigValidator("Config").NonNegative("Facets.categories.MaxLen", 0).Validate(); err != nil {
		t.Errorf("Expected no error for zero value, got %v", err)
	}
}

func TestConfigValidator_OneOf(t *testing.T) {
	allowed := []string{"debug", "info", "warn", "error"}

	if err := NewConfigValidator("Config").OneOf("LogLevel", "verbose", allowed).Validate(); err == nil {
		t.Error("Expected error for value not in allowed list")
	}
	if err := NewConfigValidator("Config").OneOf("LogLevel", "warn", allowed).Validate(); err != nil {
		t.Errorf("Expected no error for allowed value, got %v", err)
	}
}

func TestConfigValidator_Custom(t *testing.T) {
	sentinel := errors.New("custom validation failed")
	err := NewConfigValidator("TestConfig").Custom("CustomField", func() error {
		return sentinel
	}).Validate()
	if !errors.Is(err, sentinel) {
		t.Error("Expected wrapped error from custom validation")
	}
	if !strings.HasPrefix(err.Error(), "TestConfig.CustomField: ") {
		t.Errorf("error = %q, want config and field prefix", err)
	}

	err = NewConfigValidator("TestConfig").Custom("CustomField", func() error {
		return nil
	}).Validate()
	if err != nil {
		t.Errorf("Expected no error from passing custom validation, got %v", err)
	}
}

func TestConfigValidator_When(t *testing.T) {
	err := NewConfigValidator("TestConfig").When(true, func(v *ConfigValidator) {
		v.Positive("Count", -1)
	}).Validate()
	if err == nil {
		t.Error("Expected error when condition is true")
	}

	err = NewConfigValidator("TestConfig").When(false, func(v *ConfigValidator) {
		v.Positive("Count", -1)
	}).Validate()
	if err != nil {
		t.Errorf("Expected no error when condition is false, got %v", err)
	}
}

func TestConfigValidator_MultipleErrors(t *testing.T) {
	err := NewConfigValidator("TestConfig").
		Required("Name", "").
		Positive("Count", -1).
		NonNegative("MaxLen", -2).
		Validate()
	if err == nil {
		t.Fatal("Expected Validate() to report failures")
	}
	for _, field := range []string{"TestConfig.Name", "TestConfig.Count", "TestConfig.MaxLen"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q is missing %s", err, field)
		}
	}
}

func TestDefaultOr(t *testing.T) {
	if DefaultOr("", "default") != "default" {
		t.Error("Expected default for empty string")
	}
	if DefaultOr("value", "default") != "value" {
		t.Error("Expected value for non-empty string")
	}
}

func TestDefaultOrInt(t *testing.T) {
	if DefaultOrInt(0, 10) != 10 {
		t.Error("Expected default for zero")
	}
	if DefaultOrInt(-5, 10) != 10 {
		t.Error("Expected default for negative")
	}
	if DefaultOrInt(5, 10) != 5 {
		t.Error("Expected value for positive")
	}
}

type exampleConfig struct {
	Name    string
	Workers int
}

func (c *exampleConfig) Validate() error {
	return NewConfigValidator("exampleConfig").
		Required("Name", c.Name).
		Positive("Workers", c.Workers).
		Validate()
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(&exampleConfig{Name: "job", Workers: 2}); err != nil {
		t.Errorf("Expected valid config, got error: %v", err)
	}
	if err := ValidateConfig(&exampleConfig{}); err == nil {
		t.Error("Expected error for invalid config")
	}
	if err := ValidateConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}
