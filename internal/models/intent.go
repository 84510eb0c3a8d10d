// internal/models/intent.go
package models

// Category is the closed set of classification categories the external NLU
// capability can supply.
type Category string

const (
	CategoryJob           Category = "job"
	CategoryScheme        Category = "scheme"
	CategoryEducation     Category = "education"
	CategoryProfileUpdate Category = "profile_update"
	CategoryClarification Category = "clarification"
	CategoryHelp          Category = "help"
)

// Topic returns the search topic this category maps to, or "" when the
// category carries no topic (profile updates and help are topic-neutral).
func (c Category) Topic() string {
	switch c {
	case CategoryJob, CategoryScheme, CategoryEducation:
		return string(c)
	default:
		return ""
	}
}

// Entities are the structured values the NLU extracted from the utterance.
type Entities struct {
	Location   string   `json:"location,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	Education  string   `json:"education,omitempty"`
	Experience string   `json:"experience,omitempty"`
	Income     *float64 `json:"income,omitempty"`
	Age        *int     `json:"age,omitempty"`
	Interests  []string `json:"interests,omitempty"`
}

// Classification is the externally supplied NLU result for one utterance.
// The core treats it as probabilistic input: low confidence routes to
// clarification, it is never re-derived here.
type Classification struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Entities   Entities `json:"entities"`
}
