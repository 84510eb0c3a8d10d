// internal/common/validation/schema.go

// Package validation enforces the activity registry's JSON schemas and
// the small format checks the workers share. Schema evaluation is
// delegated to gojsonschema; this package only shapes its findings into
// per-field errors the registry tooling can print.
package validation

import (
	"fmt"
	"regexp"

	"github.com/xeipuuv/gojsonschema"
)

// FieldError is one schema violation, addressed by the offending field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of validating one document against one schema.
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// Messages renders the violations as "field: message" lines.
func (r *Result) Messages() []string {
	messages := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return messages
}

// CompileSchema parses a registry schema once so it can be reused across
// jobs. A schema that does not compile is a registry defect, not a job
// input problem.
func CompileSchema(schema map[string]interface{}) (*gojsonschema.Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}

// ValidateDocument checks a payload against a compiled schema.
func ValidateDocument(schema *gojsonschema.Schema, document map[string]interface{}) (*Result, error) {
	outcome, err := schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	result := &Result{Valid: outcome.Valid()}
	for _, violation := range outcome.Errors() {
		result.Errors = append(result.Errors, FieldError{
			Field:   violation.Field(),
			Message: violation.Description(),
		})
	}
	return result, nil
}

var (
	activityIDPattern = regexp.MustCompile(`^[a-z]+\.[a-z]+\.[a-z]+$`)
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern      = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)
)

// ValidateActivityNaming checks that an activity ID follows the
// domain.subdomain.action convention, e.g. discovery.opportunity.search.
func ValidateActivityNaming(activityID string) error {
	if !activityIDPattern.MatchString(activityID) {
		return fmt.Errorf("activity ID must follow format: domain.subdomain.action (e.g., discovery.opportunity.search)")
	}
	return nil
}

// ValidateEmail checks basic email shape.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePhone checks basic phone number shape, country code included.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
