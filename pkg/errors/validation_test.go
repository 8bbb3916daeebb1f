package errors

import (
	"strings"
	"testing"
)

func TestValidateModuleName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "sale", false},
		{"underscore", "sale_management", false},
		{"digits", "l10n_ch", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"space", "sale management", true},
		{"dot", "sale.order", true},
		{"shell", "sale;rm", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateModuleName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateModuleName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateDatabaseName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"default", "odoodb", false},
		{"dashes and dots", "odoo-14.0_prod", false},

		{"empty", "", true},
		{"too long", strings.Repeat("d", 64), true},
		{"quote", "odoo'db", true},
		{"subshell", "$(id)", true},
		{"leading dash", "-c", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDatabaseName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "odoo/local-src", false},
		{"absolute", "/srv/odoo/migration.yml", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"control", "foo\x01bar", true},
		{"too long", strings.Repeat("p", 5000), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
