package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// moduleNameRegex matches Odoo technical module names.
var moduleNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateModuleName validates an Odoo technical module name such as
// "sale_management". Display names are not accepted.
func ValidateModuleName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "module name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "module name too long (max 256 characters)")
	}
	if !moduleNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid module name: %q", name)
	}
	return nil
}

// databaseNameRegex matches PostgreSQL database names safe to place on a
// psql command line.
var databaseNameRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// ValidateDatabaseName validates a database name before it is handed to the
// psql subprocess. Names are passed through a shell, so anything outside a
// conservative character set is rejected.
func ValidateDatabaseName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "database name cannot be empty")
	}
	if len(name) > 63 {
		return New(ErrCodeInvalidInput, "database name too long (max 63 characters)")
	}
	if !databaseNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid database name: %q", name)
	}
	return nil
}

// ValidatePath validates a user supplied file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}
