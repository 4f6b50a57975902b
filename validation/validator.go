// Package validation checks path and query parameters before they are
// forwarded to an upstream API.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/giygas/govdata-api/interfaces"
	"github.com/giygas/govdata-api/orangebook"
)

// Pre-compiled regex patterns, compiled once at package initialization
var (
	schemaRegex      = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,63}$`)
	identifierRegex  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)
	applicationRegex = regexp.MustCompile(`^(?i)(NDA|ANDA|BLA|N|A|B)?\s?[0-9]{1,6}$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "eval(", "expression(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"/*", "*/", "exec(", "execute(",
		// Command injection patterns
		"`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$regex:",
	}
)

const (
	maxInputLength      = 1000
	maxSearchTermLength = 64 << 10
	dateLayout          = "2006-01-02"
)

// Compile-time check to ensure Validator implements interfaces.Validator
var _ interfaces.Validator = (*Validator)(nil)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateInput checks short free-text filters such as a jurisdiction name
func (v *Validator) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if len(input) > maxInputLength {
		return fmt.Errorf("input too long: maximum %d characters", maxInputLength)
	}

	for _, r := range input {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return fmt.Errorf("input contains control characters")
		}
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateSearchTerm checks a title, keyword, description or ingredient.
// Terms are only compared for exact equality against upstream text, so any
// punctuation is allowed and only emptiness, control characters and size
// are checked.
func (v *Validator) ValidateSearchTerm(term string) error {
	if strings.TrimSpace(term) == "" {
		return fmt.Errorf("search term cannot be empty")
	}

	if len(term) > maxSearchTermLength {
		return fmt.Errorf("search term too long: maximum %d bytes", maxSearchTermLength)
	}

	for _, r := range term {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return fmt.Errorf("search term contains control characters")
		}
	}

	return nil
}

// ValidateSchema checks a metastore schema name such as "dataset" or "data-dictionary"
func (v *Validator) ValidateSchema(schema string) error {
	if !schemaRegex.MatchString(schema) {
		return fmt.Errorf("invalid schema name")
	}
	return nil
}

// ValidateIdentifier checks a metastore item identifier
func (v *Validator) ValidateIdentifier(id string) error {
	if !identifierRegex.MatchString(id) {
		return fmt.Errorf("invalid identifier")
	}
	return nil
}

// ValidateNDC accepts 10 or 11 digit National Drug Codes, with or without
// the two separating hyphens, and returns the trimmed code
func (v *Validator) ValidateNDC(ndc string) (string, error) {
	trimmed := strings.TrimSpace(ndc)
	if trimmed == "" {
		return "", fmt.Errorf("NDC cannot be empty")
	}

	digits, hyphens := 0, 0
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-':
			hyphens++
		default:
			return "", fmt.Errorf("NDC contains invalid characters. Only digits and hyphens are allowed")
		}
	}

	if hyphens != 0 && hyphens != 2 {
		return "", fmt.Errorf("NDC should have three hyphen-separated segments")
	}
	if strings.HasPrefix(trimmed, "-") || strings.HasSuffix(trimmed, "-") || strings.Contains(trimmed, "--") {
		return "", fmt.Errorf("NDC has an empty segment")
	}
	if digits != 10 && digits != 11 {
		return "", fmt.Errorf("NDC should have 10 or 11 digits")
	}

	return trimmed, nil
}

// ValidateApplicationNumber accepts an optional NDA/ANDA/BLA style prefix
// followed by up to six digits, and returns the canonical number
func (v *Validator) ValidateApplicationNumber(number string) (string, error) {
	trimmed := strings.TrimSpace(number)
	if !applicationRegex.MatchString(trimmed) {
		return "", fmt.Errorf("invalid application number")
	}
	return orangebook.NormalizeApplicationNumber(trimmed), nil
}

// ValidateURL requires an absolute http(s) URL
func (v *Validator) ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must be absolute")
	}
	return nil
}

// ValidateDate parses a YYYY-MM-DD date
func (v *Validator) ValidateDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// hasExcessiveRepetition checks for the same character repeated more than 10 times consecutively
func (v *Validator) hasExcessiveRepetition(input string) bool {
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}
