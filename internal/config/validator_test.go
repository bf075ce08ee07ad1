package config

import (
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "capture.width",
		Value:   -3,
		Message: "must be between 0 and 65535",
	}

	want := "capture.width: must be between 0 and 65535 (got: -3)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "output.max_size_mb", Value: -1, Message: "must be non-negative"},
		}
		want := "output.max_size_mb: must be non-negative (got: -1)"
		if errs.Error() != want {
			t.Errorf("Error() = %q, want %q", errs.Error(), want)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "1. field1") || !strings.Contains(result, "2. field2") {
			t.Errorf("Error() should number both fields: %s", result)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(*Config)
		wantFields []string
	}{
		{
			name:   "defaults are valid",
			modify: func(*Config) {},
		},
		{
			name:   "fixed width is valid",
			modify: func(c *Config) { c.Capture.Width = 80 },
		},
		{
			name:       "negative width",
			modify:     func(c *Config) { c.Capture.Width = -1 },
			wantFields: []string{"capture.width"},
		},
		{
			name:       "huge width",
			modify:     func(c *Config) { c.Capture.Width = maxWidth + 1 },
			wantFields: []string{"capture.width"},
		},
		{
			name:       "tab width above limit",
			modify:     func(c *Config) { c.Capture.TabWidth = 65 },
			wantFields: []string{"capture.tab_width"},
		},
		{
			name:       "negative tab width",
			modify:     func(c *Config) { c.Capture.TabWidth = -8 },
			wantFields: []string{"capture.tab_width"},
		},
		{
			name:       "negative max size",
			modify:     func(c *Config) { c.Output.MaxSizeMB = -1 },
			wantFields: []string{"output.max_size_mb"},
		},
		{
			name:       "max size above limit",
			modify:     func(c *Config) { c.Output.MaxSizeMB = maxLogSizeMB + 1 },
			wantFields: []string{"output.max_size_mb"},
		},
		{
			name:       "null byte in output dir",
			modify:     func(c *Config) { c.Output.Dir = "/tmp/a\x00b" },
			wantFields: []string{"output.dir"},
		},
		{
			name:       "overlong debug log path",
			modify:     func(c *Config) { c.Logging.File = "/" + strings.Repeat("a", maxPathLength) },
			wantFields: []string{"logging.file"},
		},
		{
			name:   "level is case insensitive",
			modify: func(c *Config) { c.Logging.Level = "DEBUG" },
		},
		{
			name:       "unknown level",
			modify:     func(c *Config) { c.Logging.Level = "verbose" },
			wantFields: []string{"logging.level"},
		},
		{
			name: "errors accumulate",
			modify: func(c *Config) {
				c.Capture.Width = -1
				c.Output.MaxSizeMB = -1
				c.Logging.Level = "loud"
			},
			wantFields: []string{"capture.width", "output.max_size_mb", "logging.level"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			errs := cfg.Validate()
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("Validate() = %v, want fields %v", errs, tt.wantFields)
			}
			for i, field := range tt.wantFields {
				if errs[i].Field != field {
					t.Errorf("errs[%d].Field = %q, want %q", i, errs[i].Field, field)
				}
			}
		})
	}
}

func TestValidLogLevels(t *testing.T) {
	levels := ValidLogLevels()
	if strings.Join(levels, ",") != "debug,info,warn,error" {
		t.Errorf("ValidLogLevels() = %v", levels)
	}
}
