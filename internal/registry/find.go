package registry

import (
	"context"
	"sort"
)

// Requirements is a closed set of known facets plus open metadata bags.
// Field typos fail at compile time for the tag facets; the Display and
// Numeric maps are the open "extra metadata" escape hatch for facets the
// schema does not enumerate.
//
// All supplied facets must match (conjunction); a record failing any single
// predicate is excluded entirely.
type Requirements struct {
	// Category restricts candidates to one manifest category
	// (exact match).
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Features must all appear in a record's feature_tags.
	Features []string `json:"features,omitempty" yaml:"features,omitempty"`

	// Compatibility must all appear in a record's compatibility_tags.
	Compatibility []string `json:"compatibility,omitempty" yaml:"compatibility,omitempty"`

	// Display requires exact matches on display_fields entries.
	Display map[string]string `json:"display,omitempty" yaml:"display,omitempty"`

	// Numeric requires each value to fall inside the record's numeric
	// range for that facet, bounds inclusive.
	Numeric map[string]float64 `json:"numeric,omitempty" yaml:"numeric,omitempty"`

	// Weights optionally turns the result order into a weighted score
	// ranking: each weight multiplies the midpoint of the record's numeric
	// range for that facet. When empty, results sort by id ascending.
	Weights map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
}

func (req Requirements) matches(r Record) bool {
	if req.Category != "" && r.Category != req.Category {
		return false
	}
	if !r.HasAllFeatures(req.Features) {
		return false
	}
	if !r.HasAllCompatibility(req.Compatibility) {
		return false
	}
	for k, want := range req.Display {
		if got, ok := r.DisplayFields[k]; !ok || got != want {
			return false
		}
	}
	for k, v := range req.Numeric {
		rng, ok := r.NumericRanges[k]
		if !ok || !rng.Contains(v) {
			return false
		}
	}
	return true
}

// score ranks a record under the supplied weights. Facets the record does
// not carry contribute nothing.
func (req Requirements) score(r Record) float64 {
	var s float64
	for facet, weight := range req.Weights {
		if rng, ok := r.NumericRanges[facet]; ok {
			s += weight * rng.Midpoint()
		}
	}
	return s
}

// Find materializes the candidate set via List and filters it by the
// conjunction of all supplied facet predicates. Ranking is deterministic:
// id ascending, or descending weighted score with id as tie-break when
// Weights is supplied. Total registry failure surfaces as a typed error,
// never as an empty result.
func (c *Client) Find(ctx context.Context, req Requirements) ([]Record, error) {
	candidates, err := c.List(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	matched := make([]Record, 0, len(candidates))
	for _, r := range candidates {
		if req.matches(r) {
			matched = append(matched, r)
		}
	}

	if len(req.Weights) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			si, sj := req.score(matched[i]), req.score(matched[j])
			if si != sj {
				return si > sj
			}
			return matched[i].ID < matched[j].ID
		})
	} else {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].ID < matched[j].ID
		})
	}
	return matched, nil
}
