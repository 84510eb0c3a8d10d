// internal/models/profile.go
package models

import "time"

// Employment statuses accepted by profile validation.
const (
	EmploymentEmployed     = "employed"
	EmploymentUnemployed   = "unemployed"
	EmploymentStudent      = "student"
	EmploymentSelfEmployed = "self-employed"
)

// Languages the assistant speaks. English is the platform default.
const (
	LanguageHindi   = "hindi"
	LanguageEnglish = "english"
)

// HistoryAction is the kind of interaction recorded against an opportunity.
type HistoryAction string

const (
	ActionViewed  HistoryAction = "viewed"
	ActionSaved   HistoryAction = "saved"
	ActionApplied HistoryAction = "applied"
)

// Profile holds a citizen's validated attributes and interaction history.
// Age and MonthlyIncome are pointers so that "not provided" stays
// distinguishable from zero; eligibility treats an absent attribute as
// unmatched, never as satisfying a requirement.
type Profile struct {
	CitizenID        string   `json:"citizenId"`
	Name             string   `json:"name,omitempty"`
	Age              *int     `json:"age,omitempty"`
	Gender           string   `json:"gender,omitempty"`
	Location         string   `json:"location,omitempty"`
	Caste            string   `json:"caste,omitempty"`
	EducationLevel   string   `json:"educationLevel,omitempty"`
	EducationField   string   `json:"educationField,omitempty"`
	EmploymentStatus string   `json:"employmentStatus,omitempty"`
	MonthlyIncome    *float64 `json:"monthlyIncome,omitempty"`
	Dependents       int      `json:"dependents"`
	Language         string   `json:"language,omitempty"`
	Interests        []string `json:"interests,omitempty"`
	Skills           []string `json:"skills,omitempty"`

	// Interaction history, insertion-ordered and deduplicated per action.
	Viewed  []string `json:"viewed,omitempty"`
	Saved   []string `json:"saved,omitempty"`
	Applied []string `json:"applied,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// FieldUpdatedAt records when each field last changed, for
	// last-write-wins resolution of concurrent single-field updates.
	FieldUpdatedAt map[string]time.Time `json:"fieldUpdatedAt,omitempty"`
}

// Clone returns a deep copy so stores can hand out snapshots without
// aliasing their internal state.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Age != nil {
		age := *p.Age
		cp.Age = &age
	}
	if p.MonthlyIncome != nil {
		income := *p.MonthlyIncome
		cp.MonthlyIncome = &income
	}
	cp.Interests = append([]string(nil), p.Interests...)
	cp.Skills = append([]string(nil), p.Skills...)
	cp.Viewed = append([]string(nil), p.Viewed...)
	cp.Saved = append([]string(nil), p.Saved...)
	cp.Applied = append([]string(nil), p.Applied...)
	if p.FieldUpdatedAt != nil {
		cp.FieldUpdatedAt = make(map[string]time.Time, len(p.FieldUpdatedAt))
		for k, v := range p.FieldUpdatedAt {
			cp.FieldUpdatedAt[k] = v
		}
	}
	return &cp
}

// HistoryList returns the history slice for the given action kind.
func (p *Profile) HistoryList(action HistoryAction) []string {
	switch action {
	case ActionViewed:
		return p.Viewed
	case ActionSaved:
		return p.Saved
	case ActionApplied:
		return p.Applied
	default:
		return nil
	}
}

// AppendHistory adds an opportunity id to the action's list unless it is
// already present. Returns true when the list changed.
func (p *Profile) AppendHistory(action HistoryAction, opportunityID string) bool {
	list := p.HistoryList(action)
	for _, id := range list {
		if id == opportunityID {
			return false
		}
	}
	switch action {
	case ActionViewed:
		p.Viewed = append(p.Viewed, opportunityID)
	case ActionSaved:
		p.Saved = append(p.Saved, opportunityID)
	case ActionApplied:
		p.Applied = append(p.Applied, opportunityID)
	default:
		return false
	}
	return true
}

// UrgentNeed reports whether the profile signals urgent need: unemployed, or
// monthly income below the configured poverty line.
func (p *Profile) UrgentNeed(povertyLine float64) bool {
	if p.EmploymentStatus == EmploymentUnemployed {
		return true
	}
	return p.MonthlyIncome != nil && *p.MonthlyIncome < povertyLine
}

// FinancialNeed reports whether the profile signals financial need for
// education: income below the poverty line, or dependents to support.
func (p *Profile) FinancialNeed(povertyLine float64) bool {
	if p.Dependents > 0 {
		return true
	}
	return p.MonthlyIncome != nil && *p.MonthlyIncome < povertyLine
}
