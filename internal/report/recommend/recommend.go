// Package recommend evaluates a declared rule table against classified
// subjects and emits a ranked action list. The rule table is immutable
// configuration passed in explicitly; recommendations are produced, never
// mutated.
package recommend

import (
	"fmt"
	"sort"

	"github.com/adlens/ads-audit/internal/domain"
	"github.com/adlens/ads-audit/internal/report/classify"
	"github.com/adlens/ads-audit/internal/report/metric"
)

// Subject is a classified record or segment under rule evaluation.
type Subject struct {
	Kind     domain.Kind `json:"kind"`
	Name     string      `json:"name"`
	Campaign string      `json:"campaign,omitempty"`

	domain.Metrics

	// Derived metrics by name ("ctr", "cpa", "efficiency", ...).
	Values map[string]metric.Value `json:"values,omitempty"`
	// Classifications by table name ("quality_score", "ad_strength", ...).
	Labels map[string]classify.Classification `json:"labels,omitempty"`
}

// Value returns a derived metric by name; missing names are Null.
func (s Subject) Value(name string) metric.Value {
	if v, ok := s.Values[name]; ok {
		return v
	}
	return metric.Null()
}

// Label returns a classification by table name; missing names are Unknown.
func (s Subject) Label(name string) classify.Classification {
	if c, ok := s.Labels[name]; ok {
		return c
	}
	return classify.Classification{Label: classify.Unknown, Rank: classify.UnknownRank}
}

// Rule is one row of the rule table: a condition on a subject mapped to an
// action with an impact and effort rating (each 1-3). Rules are evaluated in
// declared order and are not mutually exclusive.
type Rule struct {
	Name     string
	Category string
	When     func(Subject) bool
	Issue    string
	Action   string
	Impact   int
	Effort   int
}

// Recommendation is one matched rule applied to one subject.
type Recommendation struct {
	Subject  string      `json:"subject"`
	Kind     domain.Kind `json:"kind"`
	Campaign string      `json:"campaign,omitempty"`
	Category string      `json:"category"`
	Issue    string      `json:"issue"`
	Action   string      `json:"action"`
	Impact   int         `json:"impact"`
	Effort   int         `json:"effort"`
	Priority int         `json:"priority"`
	Cost     float64     `json:"cost"`
}

// MinData is the caller-supplied floor below which a subject is treated as
// having insufficient data. Such subjects are silently skipped, never
// flagged as errors.
type MinData struct {
	MinCost   float64
	MinClicks int64
}

// Sufficient reports whether the subject carries enough spend or traffic to
// recommend against.
func (m MinData) Sufficient(s Subject) bool {
	return s.Cost >= m.MinCost || s.Clicks >= m.MinClicks
}

// Generate evaluates the rules in declared order against every subject with
// sufficient data. Multiple matches per subject are expected. The result is
// sorted by priority (impact × effort) descending, ties broken by subject
// cost descending; the sort is stable.
func Generate(rules []Rule, subjects []Subject, min MinData) ([]Recommendation, error) {
	for i, r := range rules {
		if r.When == nil {
			return nil, fmt.Errorf("recommend: rule %d (%s) has no condition", i, r.Name)
		}
		if r.Impact < 1 || r.Impact > 3 {
			return nil, fmt.Errorf("recommend: rule %d (%s) impact %d outside 1-3", i, r.Name, r.Impact)
		}
		if r.Effort < 1 || r.Effort > 3 {
			return nil, fmt.Errorf("recommend: rule %d (%s) effort %d outside 1-3", i, r.Name, r.Effort)
		}
	}

	recs := make([]Recommendation, 0)
	for _, sub := range subjects {
		if !min.Sufficient(sub) {
			continue
		}
		for _, r := range rules {
			if !r.When(sub) {
				continue
			}
			recs = append(recs, Recommendation{
				Subject:  sub.Name,
				Kind:     sub.Kind,
				Campaign: sub.Campaign,
				Category: r.Category,
				Issue:    r.Issue,
				Action:   r.Action,
				Impact:   r.Impact,
				Effort:   r.Effort,
				Priority: r.Impact * r.Effort,
				Cost:     sub.Cost,
			})
		}
	}

	sort.SliceStable(recs, func(a, b int) bool {
		if recs[a].Priority != recs[b].Priority {
			return recs[a].Priority > recs[b].Priority
		}
		return recs[a].Cost > recs[b].Cost
	})

	return recs, nil
}
