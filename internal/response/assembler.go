// internal/response/assembler.go

// Package response turns core results into the structured payloads the
// voice layer speaks from. Every payload carries the simplify/escalate
// flags and the citizen's language; opportunity text falls back to
// English with a marker when a Hindi translation is missing, and display
// fields that the catalog does not have are omitted, never invented.
package response

import (
	"fmt"
	"strings"

	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/conversation"
	"sahayak-workers/internal/eligibility"
	"sahayak-workers/internal/models"
)

// Payload kinds, one per conversational outcome.
const (
	KindSearchResults = "search_results"
	KindEligibility   = "eligibility"
	KindProfileUpdate = "profile_update"
	KindClarification = "clarification"
	KindEscalation    = "escalation"
	KindHelp          = "help"
	KindUnavailable   = "unavailable"
)

// ClarifyCause selects the clarification wording.
type ClarifyCause string

const (
	CauseLowConfidence       ClarifyCause = "low_confidence"
	CauseUnresolvedReference ClarifyCause = "unresolved_reference"
	CauseValidation          ClarifyCause = "validation"
	CauseAskedToClarify      ClarifyCause = "asked_to_clarify"
)

// JobView carries the spoken fields of a job posting.
type JobView struct {
	Title        string   `json:"title"`
	Company      string   `json:"company,omitempty"`
	Location     string   `json:"location,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	Salary       string   `json:"salary,omitempty"`
}

// SchemeView carries the spoken fields of a government scheme.
type SchemeView struct {
	Name        string   `json:"name"`
	Benefits    []string `json:"benefits,omitempty"`
	Eligibility string   `json:"eligibility,omitempty"`
	Documents   []string `json:"documents,omitempty"`
	Process     string   `json:"process,omitempty"`
}

// ProgramView carries the spoken fields of an educational program.
type ProgramView struct {
	Name        string  `json:"name"`
	Institution string  `json:"institution,omitempty"`
	Duration    string  `json:"duration,omitempty"`
	Fees        float64 `json:"fees,omitempty"`
	Eligibility string  `json:"eligibility,omitempty"`
	Deadline    string  `json:"deadline,omitempty"`
}

// Item is one presented opportunity with exactly one view populated.
type Item struct {
	ID               string                 `json:"id"`
	Type             models.OpportunityType `json:"type"`
	Score            float64                `json:"score"`
	Eligible         *bool                  `json:"eligible,omitempty"`
	Reasons          []string               `json:"reasons"`
	Description      string                 `json:"description,omitempty"`
	LanguageFallback bool                   `json:"languageFallback,omitempty"`
	SMSOffer         bool                   `json:"smsOffer"`

	Job     *JobView     `json:"job,omitempty"`
	Scheme  *SchemeView  `json:"scheme,omitempty"`
	Program *ProgramView `json:"program,omitempty"`
}

// AlternativeView is a compact pointer at a related opportunity offered
// alongside an ineligible verdict.
type AlternativeView struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Eligible       bool     `json:"eligible"`
	SharedCriteria []string `json:"sharedCriteria"`
}

// Payload is the assembled response for one turn. Surfaced lists the
// presented opportunity ids in speaking order; the session turn record
// stores these ids so ordinal references can resolve against them.
type Payload struct {
	Kind         string             `json:"kind"`
	Message      string             `json:"message"`
	Language     string             `json:"language"`
	Items        []Item             `json:"items,omitempty"`
	Alternatives []AlternativeView  `json:"alternatives,omitempty"`
	Surfaced     []string           `json:"surfaced,omitempty"`
	SMSOffer     bool               `json:"smsOffer"`
	Simplify     bool               `json:"simplify"`
	Escalate     bool               `json:"escalate"`
	Notice       string             `json:"notice,omitempty"`
	Evaluation   *models.EligibilityResult `json:"evaluation,omitempty"`
}

// Assembler builds payloads. It is stateless; the flags and language come
// in with every call.
type Assembler struct {
	logger logger.Logger
}

func NewAssembler(log logger.Logger) *Assembler {
	return &Assembler{logger: log}
}

// SearchResults presents ranked matches. An empty result set is a normal
// payload with a "nothing found" message, not an error.
func (a *Assembler) SearchResults(language string, results []models.MatchResult, flags conversation.Flags) *Payload {
	p := &Payload{
		Kind:     KindSearchResults,
		Language: language,
		Simplify: flags.Simplify,
		Escalate: flags.Escalate,
	}

	if len(results) == 0 {
		p.Message = say(language, msgNoneFound)
		return p
	}

	for _, r := range results {
		item := a.buildItem(language, r)
		p.Items = append(p.Items, item)
		p.Surfaced = append(p.Surfaced, item.ID)
		if item.SMSOffer {
			p.SMSOffer = true
		}
	}
	p.Message = sayf(language, msgFound, len(p.Items))
	if p.SMSOffer {
		p.Message += " " + say(language, msgSMSOffer)
	}
	return p
}

// Eligibility presents one verdict with its explanation, pairing an
// ineligible outcome with alternatives that share a matched criterion.
func (a *Assembler) Eligibility(language string, opp *models.Opportunity, result models.EligibilityResult, alternatives []eligibility.Alternative, flags conversation.Flags) *Payload {
	name, fellBack := opp.Name.In(language)

	p := &Payload{
		Kind:       KindEligibility,
		Language:   language,
		Simplify:   flags.Simplify,
		Escalate:   flags.Escalate,
		Evaluation: &result,
		Surfaced:   []string{opp.ID},
	}
	if fellBack {
		p.Notice = say(language, msgLanguageFallback)
	}

	if result.Eligible {
		p.Message = sayf(language, msgEligible, name)
	} else {
		p.Message = sayf(language, msgIneligible, name)
		for _, alt := range alternatives {
			altName, _ := alt.Opportunity.Name.In(language)
			p.Alternatives = append(p.Alternatives, AlternativeView{
				ID:             alt.Opportunity.ID,
				Name:           altName,
				Eligible:       alt.Result.Eligible,
				SharedCriteria: alt.SharedCriteria,
			})
			p.Surfaced = append(p.Surfaced, alt.Opportunity.ID)
		}
		if len(p.Alternatives) > 0 {
			p.Message += " " + sayf(language, msgAlternatives, len(p.Alternatives))
		}
	}
	p.Message += " " + result.Explanation
	return p
}

// OpportunityDetails presents one opportunity in full, the payload behind
// "tell me more" turns.
func (a *Assembler) OpportunityDetails(language string, r models.MatchResult, flags conversation.Flags) *Payload {
	item := a.buildItem(language, r)
	p := &Payload{
		Kind:     KindSearchResults,
		Language: language,
		Items:    []Item{item},
		Surfaced: []string{item.ID},
		SMSOffer: item.SMSOffer,
		Simplify: flags.Simplify,
		Escalate: flags.Escalate,
	}
	name, _ := r.Opportunity.Name.In(language)
	p.Message = sayf(language, msgDetails, name)
	if p.SMSOffer {
		p.Message += " " + say(language, msgSMSOffer)
	}
	return p
}

// ProfileUpdated confirms a field change, naming the field and the stored
// value. A superseded update is confirmed as kept-newer, not as an error.
func (a *Assembler) ProfileUpdated(language, field string, value interface{}, superseded bool, flags conversation.Flags) *Payload {
	p := &Payload{
		Kind:     KindProfileUpdate,
		Language: language,
		Simplify: flags.Simplify,
		Escalate: flags.Escalate,
	}
	if superseded {
		p.Message = sayf(language, msgProfileSuperseded, field)
		p.Notice = "VALUE_SUPERSEDED"
		return p
	}
	p.Message = sayf(language, msgProfileUpdated, field, fmt.Sprintf("%v", value))
	return p
}

// Clarification asks the citizen to restate, with wording that names the
// concrete obstacle. detail carries the phrase, field or constraint.
func (a *Assembler) Clarification(language string, cause ClarifyCause, detail string, flags conversation.Flags) *Payload {
	p := &Payload{
		Kind:     KindClarification,
		Language: language,
		Simplify: flags.Simplify,
		Escalate: flags.Escalate,
	}

	switch cause {
	case CauseUnresolvedReference:
		p.Message = sayf(language, msgClarifyReference, detail)
	case CauseValidation:
		p.Message = sayf(language, msgClarifyValidation, detail)
	case CauseAskedToClarify:
		p.Message = say(language, msgClarifyRepeat)
	default:
		p.Message = say(language, msgClarifyRephrase)
	}

	if flags.Simplify {
		p.Message = say(language, msgClarifySimple)
	}
	return p
}

// Escalation tells the citizen a human will take over.
func (a *Assembler) Escalation(language string, flags conversation.Flags) *Payload {
	return &Payload{
		Kind:     KindEscalation,
		Language: language,
		Message:  say(language, msgEscalate),
		Simplify: flags.Simplify,
		Escalate: true,
	}
}

// Help lists what the assistant can do.
func (a *Assembler) Help(language string, flags conversation.Flags) *Payload {
	return &Payload{
		Kind:     KindHelp,
		Language: language,
		Message:  say(language, msgHelp),
		Simplify: flags.Simplify,
		Escalate: flags.Escalate,
	}
}

// Unavailable reports a temporary upstream outage after the retry budget
// is spent.
func (a *Assembler) Unavailable(language string, flags conversation.Flags) *Payload {
	return &Payload{
		Kind:     KindUnavailable,
		Language: language,
		Message:  say(language, msgUnavailable),
		Simplify: flags.Simplify,
		Escalate: flags.Escalate,
	}
}

func (a *Assembler) buildItem(language string, r models.MatchResult) Item {
	opp := r.Opportunity
	name, nameFellBack := opp.Name.In(language)
	description, descFellBack := opp.Description.In(language)

	item := Item{
		ID:               opp.ID,
		Type:             opp.Type,
		Score:            r.Score,
		Eligible:         r.Eligible,
		Reasons:          r.Reasons,
		Description:      description,
		LanguageFallback: nameFellBack || descFellBack,
		SMSOffer:         opp.HasContact(),
	}

	switch opp.Type {
	case models.TypeJob:
		view := &JobView{Title: name, Location: strings.Join(opp.Locations, ", ")}
		if opp.Job != nil {
			view.Company = opp.Job.Company
			view.Requirements = opp.Job.Requirements
			view.Salary = opp.Job.SalaryRange
		}
		item.Job = view
	case models.TypeScheme:
		view := &SchemeView{Name: name, Eligibility: criteriaSummary(opp.Criteria)}
		if opp.Scheme != nil {
			view.Benefits = opp.Scheme.Benefits
			view.Documents = opp.Scheme.Documents
			view.Process = opp.Scheme.Process
		}
		item.Scheme = view
	case models.TypeProgram:
		view := &ProgramView{Name: name, Eligibility: criteriaSummary(opp.Criteria)}
		if opp.Program != nil {
			view.Institution = opp.Program.Institution
			view.Duration = opp.Program.Duration
			view.Fees = opp.Program.Fees
		}
		if opp.Deadline != nil {
			view.Deadline = opp.Deadline.Format("2006-01-02")
		}
		item.Program = view
	}
	return item
}

// criteriaSummary renders a scheme's or program's conditions as one
// spoken line, e.g. "age between 18 and 30; caste one of sc, st".
func criteriaSummary(criteria []models.Criterion) string {
	if len(criteria) == 0 {
		return ""
	}
	parts := make([]string, 0, len(criteria))
	for _, c := range criteria {
		switch c.Kind {
		case models.CriterionRange:
			switch {
			case c.Min != nil && c.Max != nil:
				parts = append(parts, fmt.Sprintf("%s between %g and %g", c.Name, *c.Min, *c.Max))
			case c.Min != nil:
				parts = append(parts, fmt.Sprintf("%s at least %g", c.Name, *c.Min))
			case c.Max != nil:
				parts = append(parts, fmt.Sprintf("%s at most %g", c.Name, *c.Max))
			}
		case models.CriterionMembership:
			parts = append(parts, fmt.Sprintf("%s one of %s", c.Name, strings.Join(c.Values, ", ")))
		case models.CriterionEquality:
			parts = append(parts, fmt.Sprintf("%s is %s", c.Name, c.Value))
		}
	}
	return strings.Join(parts, "; ")
}
