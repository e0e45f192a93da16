package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCriteriaMatchesResult(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		result  Result
		want    bool
	}{
		{
			name:    "empty filter matches any recorded result",
			results: nil,
			result:  ResultSuccess,
			want:    true,
		},
		{
			name:    "empty filter matches failure",
			results: []Result{},
			result:  ResultFailure,
			want:    true,
		},
		{
			name:    "member result matches",
			results: []Result{ResultSuccess, ResultUnstable},
			result:  ResultUnstable,
			want:    true,
		},
		{
			name:    "non-member result does not match",
			results: []Result{ResultSuccess},
			result:  ResultFailure,
			want:    false,
		},
		{
			name:    "absent result never matches with empty filter",
			results: nil,
			result:  "",
			want:    false,
		},
		{
			name:    "absent result never matches with configured filter",
			results: []Result{ResultSuccess, ResultFailure},
			result:  "",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			criteria := Criteria{Results: tt.results}

			assert.Equal(t, tt.want, criteria.MatchesResult(tt.result))
		})
	}
}

func TestCriteriaMatchesEveryKnownResultWithEmptyFilter(t *testing.T) {
	criteria := Criteria{}

	for _, result := range KnownResults() {
		assert.True(t, criteria.MatchesResult(result), "result %s", result)
	}
}
