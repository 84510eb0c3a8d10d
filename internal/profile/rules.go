// internal/profile/rules.go
package profile

import (
	"sort"
	"strings"

	apperrors "sahayak-workers/internal/common/errors"
	"sahayak-workers/internal/models"
)

// Canonical field names accepted by update operations. These match the
// variable names carried through BPMN processes.
const (
	FieldName             = "name"
	FieldAge              = "age"
	FieldGender           = "gender"
	FieldLocation         = "location"
	FieldCaste            = "caste"
	FieldEducationLevel   = "educationLevel"
	FieldEducationField   = "educationField"
	FieldEmploymentStatus = "employmentStatus"
	FieldMonthlyIncome    = "monthlyIncome"
	FieldDependents       = "dependents"
	FieldLanguage         = "language"
	FieldInterests        = "interests"
	FieldSkills           = "skills"
)

// Rule validates and assigns one profile field. Set parses a raw value,
// checks the constraint and writes the field, returning false when the
// value violates the constraint. Check re-validates the field on an
// already-populated profile. Adding a field means adding a table entry,
// never a special case in the update path.
type Rule struct {
	Constraint string
	Set        func(p *models.Profile, raw interface{}) bool
	Check      func(p *models.Profile) bool
}

var fieldRules = map[string]Rule{
	FieldName: {
		Constraint: "must be a non-empty string",
		Set: func(p *models.Profile, raw interface{}) bool {
			s, ok := asString(raw)
			if !ok || strings.TrimSpace(s) == "" {
				return false
			}
			p.Name = strings.TrimSpace(s)
			return true
		},
		Check: func(p *models.Profile) bool { return true },
	},
	FieldAge: {
		Constraint: "must be an integer between 0 and 150",
		Set: func(p *models.Profile, raw interface{}) bool {
			n, ok := asInt(raw)
			if !ok || n < 0 || n > 150 {
				return false
			}
			p.Age = &n
			return true
		},
		Check: func(p *models.Profile) bool {
			return p.Age == nil || (*p.Age >= 0 && *p.Age <= 150)
		},
	},
	FieldGender: {
		Constraint: "must be a non-empty string",
		Set: func(p *models.Profile, raw interface{}) bool {
			s, ok := asString(raw)
			if !ok || strings.TrimSpace(s) == "" {
				return false
			}
			p.Gender = strings.ToLower(strings.TrimSpace(s))
			return true
		},
		Check: func(p *models.Profile) bool { return true },
	},
	FieldLocation: {
		Constraint: "must be a non-empty string",
		Set: func(p *models.Profile, raw interface{}) bool {
			s, ok := asString(raw)
			if !ok || strings.TrimSpace(s) == "" {
				return false
			}
			p.Location = strings.TrimSpace(s)
			return true
		},
		Check: func(p *models.Profile) bool { return true },
	},
	FieldCaste: {
		Constraint: "must be a non-empty string",
		Set: func(p *models.Profile, raw interface{}) bool {
			s, ok := asString(raw)
			if !ok || strings.TrimSpace(s) == "" {
				return false
			}
			p.Caste = strings.ToLower(strings.TrimSpace(s))
			return true
		},
		Check: func(p *models.Profile) bool { return true },
	},
	FieldEducationLevel: {
		Constraint: "must be a non-empty string",
		Set: func(p *models.Profile, raw interface{}) bool {
			s, ok := asString(raw)
			if !ok || strings.TrimSpace(s) == "" {
				return false
			}
			p.EducationLevel = strings.ToLower(strings.TrimSpace(s))
			return true
		},
		Check: func(p *models.Profile) bool { return true },
	},
	FieldEducationField: {
		Constraint: "must be a non-empty string",
		Set: func(p *models.Profile, raw interface{}) bool {
			s, ok := asString(raw)
			if !ok || strings.TrimSpace(s) == "" {
				return false
			}
			p.EducationField = strings.ToLower(strings.TrimSpace(s))
			return true
		},
		Check: func(p *models.Profile) bool { return true },
	},
	FieldEmploymentStatus: {
		Constraint: "must be one of employed, unemployed, student, self-employed",
		Set: func(p *models.Profile, raw interface{}) bool {
			s, ok := asString(raw)
			if !ok {
				return false
			}
			s = strings.ToLower(strings.TrimSpace(s))
			switch s {
			case models.EmploymentEmployed, models.EmploymentUnemployed,
				models.EmploymentStudent, models.EmploymentSelfEmployed:
				p.EmploymentStatus = s
				return true
			}
			return false
		},
		Check: func(p *models.Profile) bool {
			switch p.EmploymentStatus {
			case "", models.EmploymentEmployed, models.EmploymentUnemployed,
				models.EmploymentStudent, models.EmploymentSelfEmployed:
				return true
			}
			return false
		},
	},
	FieldMonthlyIncome: {
		Constraint: "must be a number greater than or equal to 0",
		Set: func(p *models.Profile, raw interface{}) bool {
			f, ok := asFloat(raw)
			if !ok || f < 0 {
				return false
			}
			p.MonthlyIncome = &f
			return true
		},
		Check: func(p *models.Profile) bool {
			return p.MonthlyIncome == nil || *p.MonthlyIncome >= 0
		},
	},
	FieldDependents: {
		Constraint: "must be an integer greater than or equal to 0",
		Set: func(p *models.Profile, raw interface{}) bool {
			n, ok := asInt(raw)
			if !ok || n < 0 {
				return false
			}
			p.Dependents = n
			return true
		},
		Check: func(p *models.Profile) bool { return p.Dependents >= 0 },
	},
	FieldLanguage: {
		Constraint: "must be one of hindi, english",
		Set: func(p *models.Profile, raw interface{}) bool {
			s, ok := asString(raw)
			if !ok {
				return false
			}
			s = strings.ToLower(strings.TrimSpace(s))
			switch s {
			case models.LanguageHindi, models.LanguageEnglish:
				p.Language = s
				return true
			}
			return false
		},
		Check: func(p *models.Profile) bool {
			switch p.Language {
			case "", models.LanguageHindi, models.LanguageEnglish:
				return true
			}
			return false
		},
	},
	FieldInterests: {
		Constraint: "must be a list of non-empty strings",
		Set: func(p *models.Profile, raw interface{}) bool {
			list, ok := asStringSlice(raw)
			if !ok {
				return false
			}
			p.Interests = list
			return true
		},
		Check: func(p *models.Profile) bool { return true },
	},
	FieldSkills: {
		Constraint: "must be a list of non-empty strings",
		Set: func(p *models.Profile, raw interface{}) bool {
			list, ok := asStringSlice(raw)
			if !ok {
				return false
			}
			p.Skills = list
			return true
		},
		Check: func(p *models.Profile) bool { return true },
	},
}

// Fields returns the canonical field names in sorted order.
func Fields() []string {
	names := make([]string, 0, len(fieldRules))
	for name := range fieldRules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyField parses and assigns one field on the profile. Unknown fields
// and constraint violations return a validation error naming the field.
func ApplyField(p *models.Profile, field string, raw interface{}) error {
	rule, ok := fieldRules[field]
	if !ok {
		return apperrors.NewValidationError(field, "is not an updatable profile field")
	}
	if !rule.Set(p, raw) {
		return apperrors.NewValidationError(field, rule.Constraint)
	}
	return nil
}

// Validate re-checks every rule against a populated profile and returns
// the first violation in field order.
func Validate(p *models.Profile) error {
	for _, field := range Fields() {
		if !fieldRules[field].Check(p) {
			return apperrors.NewValidationError(field, fieldRules[field].Constraint)
		}
	}
	return nil
}

func asString(raw interface{}) (string, bool) {
	s, ok := raw.(string)
	return s, ok
}

func asInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		// JSON numbers decode as float64; accept only whole values
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}

func asFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func asStringSlice(raw interface{}) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			item = strings.TrimSpace(item)
			if item == "" {
				return nil, false
			}
			out = append(out, strings.ToLower(item))
		}
		return out, true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			s = strings.TrimSpace(s)
			if s == "" {
				return nil, false
			}
			out = append(out, strings.ToLower(s))
		}
		return out, true
	default:
		return nil, false
	}
}
