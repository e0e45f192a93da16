package models

import "slices"

// Criteria gates an action group on the build result and on the role of the
// node that executed the build. All three action group variants share it.
type Criteria struct {
	Results []Result `json:"results,omitempty" yaml:"results,omitempty" validate:"dive,oneof=SUCCESS UNSTABLE FAILURE NOT_BUILT ABORTED"`
	Role    Role     `json:"role,omitempty"    yaml:"role,omitempty"    validate:"omitempty,oneof=any controller worker"`
}

// MatchesResult reports whether the group is eligible for the given build
// result. An empty filter matches every recorded result; a build without a
// recorded result never matches, regardless of the filter.
func (c *Criteria) MatchesResult(result Result) bool {
	if result == "" {
		return false
	}

	if len(c.Results) == 0 {
		return true
	}

	return slices.Contains(c.Results, result)
}
