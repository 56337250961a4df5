package manifest

import (
	"fmt"

	"github.com/cperrin88/modelvault/pkg/errors"
)

// Rule names the manifest validation rule that an entry violated.
type Rule string

// Validation rules.
const (
	RuleZeroSize       Rule = "zero size"
	RuleInvalidDigest  Rule = "invalid sha256 digest"
	RulePlaceholder    Rule = "placeholder sha256 digest"
	RuleEmptyID        Rule = "empty id"
	RuleDuplicateID    Rule = "duplicate id"
	RuleVersion        Rule = "unsupported version"
	RuleMalformed      Rule = "malformed document"
	RuleMissingEntries Rule = "no models"
)

// Error is returned when a manifest, or one of its entries, is rejected.
type Error struct {
	ModelID string
	Rule    Rule
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("manifest %s", e.Rule)
	if e.ModelID != "" {
		msg = fmt.Sprintf("manifest entry for model %s: %s", e.ModelID, e.Rule)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{errors.ErrManifest, e.Err}
	}
	return []error{errors.ErrManifest}
}

func newError(id string, rule Rule, err error) *Error {
	return &Error{ModelID: id, Rule: rule, Err: err}
}
