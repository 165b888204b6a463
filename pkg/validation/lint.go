package validation

import (
	"errors"
	"strings"

	"github.com/goliatone/go-formforge/pkg/model"
)

// SchemaIssue represents a configuration problem with optional field
// location.
type SchemaIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// SchemaValidationResult captures lint outcomes for builder previews.
type SchemaValidationResult struct {
	Valid  bool          `json:"valid"`
	Issues []SchemaIssue `json:"issues,omitempty"`
}

// Checker is an additional schema check run by Lint, such as the
// derivation engine's formula checks.
type Checker func(fields []model.FormField) error

// Lint compiles fields and runs the extra checkers, folding every problem
// into a single result instead of failing on the first one.
func Lint(fields []model.FormField, checkers ...Checker) SchemaValidationResult {
	result := SchemaValidationResult{Valid: true}

	var errs []error
	if _, err := Compile(fields); err != nil {
		errs = append(errs, err)
	}
	for _, checker := range checkers {
		if checker == nil {
			continue
		}
		if err := checker(fields); err != nil {
			errs = append(errs, err)
		}
	}

	seen := make(map[SchemaIssue]struct{})
	for _, err := range errs {
		for _, issue := range issuesFromError(err) {
			if _, dup := seen[issue]; dup {
				continue
			}
			seen[issue] = struct{}{}
			result.Issues = append(result.Issues, issue)
		}
	}
	result.Valid = len(result.Issues) == 0
	return result
}

func issuesFromError(err error) []SchemaIssue {
	var schemaErr *model.SchemaError
	if errors.As(err, &schemaErr) {
		out := make([]SchemaIssue, 0, len(schemaErr.Issues))
		for _, issue := range schemaErr.Issues {
			out = append(out, SchemaIssue{Field: issue.FieldID, Message: strings.TrimSpace(issue.Message)})
		}
		return out
	}
	msg := strings.TrimSpace(err.Error())
	msg = strings.TrimPrefix(msg, model.ErrConfiguration.Error()+": ")
	return []SchemaIssue{{Message: msg}}
}
