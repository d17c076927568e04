package profileform

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field names a draft member. Values match the JSON names used by the API.
type Field string

// Draft fields.
const (
	FieldFullName Field = "fullName"
	FieldEmail    Field = "email"
	FieldPhone    Field = "phone"
	FieldAddress1 Field = "address1"
	FieldAddress2 Field = "address2"
)

// AllFields lists the draft fields in display order.
var AllFields = []Field{FieldFullName, FieldEmail, FieldPhone, FieldAddress1, FieldAddress2}

// ParseField returns the Field named s.
func ParseField(s string) (Field, error) {
	for _, f := range AllFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Rule identifies which check a field failed.
type Rule string

// Validation rules.
const (
	RuleRequired      Rule = "required"
	RuleTooShort      Rule = "too_short"
	RuleInvalidFormat Rule = "invalid_format"
)

// Issue is a single field violation.
type Issue struct {
	Rule    Rule   `json:"rule"`
	Message string `json:"message"`
}

// ValidationResult maps each invalid field to its issue. An empty result
// means the draft can be committed.
type ValidationResult map[Field]Issue

// OK reports whether no field is invalid.
func (r ValidationResult) OK() bool {
	return len(r) == 0
}

const minFullNameLength = 2

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d +\-()]+$`)
)

// ValidateField applies the rules for f to value. It returns false when value
// is acceptable.
func ValidateField(f Field, value string) (Issue, bool) {
	trimmed := strings.TrimSpace(value)
	switch f {
	case FieldFullName:
		if trimmed == "" {
			return Issue{RuleRequired, "Full name is required"}, true
		}
		if utf8.RuneCountInString(trimmed) < minFullNameLength {
			return Issue{RuleTooShort, "Full name must be at least 2 characters"}, true
		}
	case FieldEmail:
		if trimmed == "" {
			return Issue{RuleRequired, "Email is required"}, true
		}
		if !emailPattern.MatchString(value) {
			return Issue{RuleInvalidFormat, "Please enter a valid email"}, true
		}
	case FieldPhone:
		if trimmed == "" {
			return Issue{RuleRequired, "Phone number is required"}, true
		}
		if !phonePattern.MatchString(value) {
			return Issue{RuleInvalidFormat, "Please enter a valid phone number"}, true
		}
	case FieldAddress1:
		if trimmed == "" {
			return Issue{RuleRequired, "Home address is required"}, true
		}
	}
	return Issue{}, false
}

// Validate checks every field and reports all violations together.
func (d Draft) Validate() ValidationResult {
	result := ValidationResult{}
	for _, f := range AllFields {
		if issue, bad := ValidateField(f, d.Get(f)); bad {
			result[f] = issue
		}
	}
	return result
}
