// Package classify maps metric values onto named ordinal labels using
// breakpoint tables. Tables are immutable configuration data passed in
// explicitly; there is no mutable package state.
package classify

import (
	"fmt"
	"strings"

	"github.com/adlens/ads-audit/internal/report/metric"
)

// Unknown is the classification for undefined metrics or values that fall
// below every breakpoint. It is propagated, never defaulted to the worst or
// best label.
const Unknown = "Unknown"

// UnknownRank is the ordinal rank of the Unknown classification.
const UnknownRank = -1

// Breakpoint pairs a lower bound with the label it opens. Bounds are closed
// on the lower end, open on the upper end.
type Breakpoint struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Label string  `json:"label" yaml:"label"`
}

// Table is a named, ascending-ordered breakpoint table.
type Table struct {
	name        string
	breakpoints []Breakpoint
}

// NewTable builds a classification table. Breakpoints must be supplied in
// strictly ascending lower-bound order with non-empty labels.
func NewTable(name string, breakpoints []Breakpoint) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("classify: table name is required")
	}
	if len(breakpoints) == 0 {
		return nil, fmt.Errorf("classify: table %q has no breakpoints", name)
	}
	for i, bp := range breakpoints {
		if bp.Label == "" {
			return nil, fmt.Errorf("classify: table %q breakpoint %d has no label", name, i)
		}
		if i > 0 && bp.Lower <= breakpoints[i-1].Lower {
			return nil, fmt.Errorf("classify: table %q breakpoints not strictly ascending at index %d", name, i)
		}
	}

	bps := make([]Breakpoint, len(breakpoints))
	copy(bps, breakpoints)
	return &Table{name: name, breakpoints: bps}, nil
}

// Name returns the table's name.
func (t *Table) Name() string { return t.name }

// Labels returns the table's labels in ascending severity order.
func (t *Table) Labels() []string {
	labels := make([]string, len(t.breakpoints))
	for i, bp := range t.breakpoints {
		labels[i] = bp.Label
	}
	return labels
}

// Classification is a label with its ordinal rank within its table. Higher
// rank means a higher band.
type Classification struct {
	Label string `json:"label"`
	Rank  int    `json:"rank"`
}

// IsUnknown reports whether the classification carries no data.
func (c Classification) IsUnknown() bool { return c.Rank == UnknownRank }

// Classify returns the label of the highest lower bound ≤ the metric value.
// A null metric, or a value below the first lower bound, classifies as
// Unknown.
func (t *Table) Classify(v metric.Value) Classification {
	f, ok := v.Float()
	if !ok {
		return Classification{Label: Unknown, Rank: UnknownRank}
	}

	result := Classification{Label: Unknown, Rank: UnknownRank}
	for i, bp := range t.breakpoints {
		if f >= bp.Lower {
			result = Classification{Label: bp.Label, Rank: i}
		} else {
			break
		}
	}
	return result
}

// FromLabel resolves a vendor-supplied ordinal label (case-insensitive)
// against the table, for scales like ad strength that arrive as labels
// rather than numbers. Unmatched labels classify as Unknown.
func (t *Table) FromLabel(label string) Classification {
	for i, bp := range t.breakpoints {
		if strings.EqualFold(bp.Label, label) {
			return Classification{Label: bp.Label, Rank: i}
		}
	}
	return Classification{Label: Unknown, Rank: UnknownRank}
}
