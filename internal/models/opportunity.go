// internal/models/opportunity.go
package models

import (
	"fmt"
	"time"
)

// OpportunityType tags the closed set of opportunity variants.
type OpportunityType string

const (
	TypeJob     OpportunityType = "job"
	TypeScheme  OpportunityType = "scheme"
	TypeProgram OpportunityType = "program"
)

// TagImmediateAssistance marks opportunities that serve urgent-need citizens
// preferentially. Ranking promotes it for unemployed or below-poverty-line
// profiles.
const TagImmediateAssistance = "immediate-assistance"

// LocalizedText carries the default-language (English) text plus an optional
// Hindi translation.
type LocalizedText struct {
	English string `json:"english"`
	Hindi   string `json:"hindi,omitempty"`
}

// In returns the text in the requested language and a marker that is true
// when the preferred text was missing and English was substituted.
func (t LocalizedText) In(language string) (string, bool) {
	if language == LanguageHindi {
		if t.Hindi != "" {
			return t.Hindi, false
		}
		return t.English, true
	}
	return t.English, false
}

// CriterionKind is the closed set of predicate shapes an eligibility
// criterion can take. Anything outside it evaluates as unmatched.
type CriterionKind string

const (
	CriterionRange      CriterionKind = "range"
	CriterionMembership CriterionKind = "membership"
	CriterionEquality   CriterionKind = "equality"
)

// Criterion names the evaluator recognizes. An unrecognized name is always
// unmatched.
const (
	CriterionAge        = "age"
	CriterionIncome     = "income"
	CriterionGender     = "gender"
	CriterionCaste      = "caste"
	CriterionLocation   = "location"
	CriterionEducation  = "education"
	CriterionEmployment = "employment"
)

// Criterion is one testable eligibility condition attached to a scheme or
// program: a numeric range, a value set, or a single-value equality.
type Criterion struct {
	Name   string        `json:"name"`
	Kind   CriterionKind `json:"kind"`
	Min    *float64      `json:"min,omitempty"`
	Max    *float64      `json:"max,omitempty"`
	Values []string      `json:"values,omitempty"`
	Value  string        `json:"value,omitempty"`
}

// JobDetails holds the display fields specific to job openings.
type JobDetails struct {
	Company      string   `json:"company"`
	Requirements []string `json:"requirements"`
	SalaryRange  string   `json:"salaryRange"`
}

// SchemeDetails holds the display fields specific to government schemes.
type SchemeDetails struct {
	Benefits  []string `json:"benefits"`
	Documents []string `json:"documents"`
	Process   string   `json:"process"`
}

// ProgramDetails holds the display fields specific to educational programs.
type ProgramDetails struct {
	Institution string  `json:"institution"`
	Duration    string  `json:"duration"`
	Fees        float64 `json:"fees"`
	Scholarship bool    `json:"scholarship"`
}

// Opportunity is the closed tagged variant for jobs, schemes and programs:
// exactly one detail struct is non-nil and it matches Type. The core only
// reads opportunities; the external store owns and mutates them.
type Opportunity struct {
	ID           string          `json:"id"`
	Type         OpportunityType `json:"type"`
	Name         LocalizedText   `json:"name"`
	Description  LocalizedText   `json:"description"`
	Locations    []string        `json:"locations,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	MinEducation string          `json:"minEducation,omitempty"`
	Deadline     *time.Time      `json:"deadline,omitempty"`

	// Contact fields; any one present makes the opportunity SMS-offerable.
	Website  string `json:"website,omitempty"`
	Phone    string `json:"phone,omitempty"`
	ApplyURL string `json:"applyUrl,omitempty"`

	Criteria []Criterion `json:"criteria,omitempty"`

	Job     *JobDetails     `json:"job,omitempty"`
	Scheme  *SchemeDetails  `json:"scheme,omitempty"`
	Program *ProgramDetails `json:"program,omitempty"`
}

// Validate checks the variant invariant: Type is known and exactly the
// matching detail struct is set.
func (o *Opportunity) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("opportunity missing id")
	}
	switch o.Type {
	case TypeJob:
		if o.Job == nil {
			return fmt.Errorf("opportunity %s: type job without job details", o.ID)
		}
		if o.Scheme != nil || o.Program != nil {
			return fmt.Errorf("opportunity %s: job carries foreign details", o.ID)
		}
	case TypeScheme:
		if o.Scheme == nil {
			return fmt.Errorf("opportunity %s: type scheme without scheme details", o.ID)
		}
		if o.Job != nil || o.Program != nil {
			return fmt.Errorf("opportunity %s: scheme carries foreign details", o.ID)
		}
	case TypeProgram:
		if o.Program == nil {
			return fmt.Errorf("opportunity %s: type program without program details", o.ID)
		}
		if o.Job != nil || o.Scheme != nil {
			return fmt.Errorf("opportunity %s: program carries foreign details", o.ID)
		}
	default:
		return fmt.Errorf("opportunity %s: unknown type %q", o.ID, o.Type)
	}
	return nil
}

// HasTag reports whether the opportunity carries the given tag.
func (o *Opportunity) HasTag(tag string) bool {
	for _, t := range o.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasContact reports whether any contact field is present, which makes the
// opportunity eligible for an SMS with its details.
func (o *Opportunity) HasContact() bool {
	return o.Website != "" || o.Phone != "" || o.ApplyURL != ""
}

// SearchCriteria are the raw keyword/location/tag filters handed to the
// opportunity source.
type SearchCriteria struct {
	Keywords   []string `json:"keywords,omitempty"`
	Location   string   `json:"location,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	MaxResults int      `json:"maxResults,omitempty"`
}
