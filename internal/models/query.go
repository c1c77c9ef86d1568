package models

// RoutingClass is one of the four top-level routes a query can take.
type RoutingClass string

const (
	RouteCatalog RoutingClass = "catalog"
	RouteSystem  RoutingClass = "system"
	RouteChat    RoutingClass = "chat"
	RouteEntity  RoutingClass = "entity"
)

// Query is the immutable per-request input. Created at request entry,
// discarded after the response.
type Query struct {
	Text      string `json:"text"`
	SessionID string `json:"sessionId"`
	PriorTurn string `json:"priorTurn,omitempty"`
	FollowUp  bool   `json:"followUp,omitempty"`
}

// Intent is the classifier output. Derived per request, never persisted here.
type Intent struct {
	RoutingClass RoutingClass `json:"routingClass"`
	Tag          string       `json:"tag"`
	Subcategory  string       `json:"subcategory,omitempty"`
	Confidence   float64      `json:"confidence"`
}

// TagQuery holds the tag sets extracted from query text. Required tags form
// the eligibility gate; optional tags only contribute to ranking.
type TagQuery struct {
	Required        map[string]struct{} `json:"-"`
	Optional        map[string]struct{} `json:"-"`
	MatchedKeywords []string            `json:"matchedKeywords"`
}

// NewTagQuery returns an empty TagQuery with initialized sets.
func NewTagQuery() TagQuery {
	return TagQuery{
		Required: make(map[string]struct{}),
		Optional: make(map[string]struct{}),
	}
}

// RequiredList returns the required set as a sorted-insensitive slice for
// logging and serialization.
func (tq TagQuery) RequiredList() []string {
	return setToList(tq.Required)
}

// OptionalList returns the optional set as a slice.
func (tq TagQuery) OptionalList() []string {
	return setToList(tq.Optional)
}

func setToList(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
