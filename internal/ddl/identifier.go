package ddl

import (
	"fmt"
	"regexp"
	"strings"
)

// columnTypeRe matches type names with an optional precision/scale suffix:
//
//	INTEGER, TEXT, VARCHAR(255), DECIMAL(10,2), UNSIGNED BIG INT
var columnTypeRe = regexp.MustCompile(`(?i)^[A-Z][A-Z0-9_ ]*(?:\(\s*\d+\s*(?:,\s*\d+\s*)?\))?$`)

const maxColumnTypeLen = 64

// QuoteIdentifier wraps a SQL identifier in double quotes, doubling any
// embedded double quote.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral wraps a string value in single quotes, doubling any embedded
// single quote.
func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// ValidateColumnType checks that typeName is a plain type name. The empty
// type is allowed: SQLite columns may be declared without one.
func ValidateColumnType(typeName string) error {
	if typeName == "" {
		return nil
	}
	if len(typeName) > maxColumnTypeLen {
		return fmt.Errorf("column type must be at most %d characters", maxColumnTypeLen)
	}
	if strings.ContainsAny(typeName, ";-'\"\\") {
		return fmt.Errorf("column type contains invalid characters")
	}
	if !columnTypeRe.MatchString(typeName) {
		return fmt.Errorf("column type %q is not a recognized type pattern", typeName)
	}
	return nil
}

// ValidateDefault rejects default expressions that would end the statement.
func ValidateDefault(expr string) error {
	if strings.Contains(stripLiterals(expr), ";") {
		return fmt.Errorf("default expression %q contains a statement separator", expr)
	}
	return nil
}

// stripLiterals removes single-quoted literals so separators inside them are
// not mistaken for statement boundaries.
func stripLiterals(expr string) string {
	var b strings.Builder
	inLiteral := false
	for _, r := range expr {
		if r == '\'' {
			inLiteral = !inLiteral
			continue
		}
		if !inLiteral {
			b.WriteRune(r)
		}
	}
	return b.String()
}
