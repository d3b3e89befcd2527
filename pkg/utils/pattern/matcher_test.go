package pattern_test

import (
	"testing"

	"github.com/genc-murat/kmersketch/pkg/utils/pattern"
	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		glob string
		name string
		want bool
	}{
		{"*", "ecoli", true},
		{"ec?li", "ecoli", true},
		{"ec?li", "ecli", false},
		{"sample-*", "sample-1", true},
		{"sample-*", "other-1", false},
		{"run[12]", "run1", true},
		{"run[12]", "run3", false},
		{"run[0-9]", "run7", true},
		{"a.b", "a.b", true},
		{"a.b", "axb", false},
		{"a+b", "a+b", true},
		{`\*`, "*", true},
		{`\?`, "x", false},
		{"ecoli", "ecoli", true},
		{"[unclosed", "u", false},
	}

	for _, tt := range tests {
		t.Run(tt.glob+"_"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pattern.Match(tt.glob, tt.name))
		})
	}
}

func TestMatcherCachesResults(t *testing.T) {
	m := pattern.NewMatcher()
	for range 3 {
		assert.True(t, m.Match("s*", "sample"))
		assert.False(t, m.Match("[bad", "b"))
	}
}

func TestIsPattern(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"ecoli", false},
		{"ec?li", true},
		{"sample-*", true},
		{"[ab]", true},
		{`\*ecoli`, false},
		{`a\`, false},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			assert.Equal(t, tt.want, pattern.IsPattern(tt.s))
		})
	}
}

func TestExpand(t *testing.T) {
	names := []string{"run2", "run1", "other"}

	assert.Equal(t, []string{"run1", "run2"}, pattern.Expand([]string{"run*"}, names))
	assert.Equal(t, []string{"other", "run1", "run2"}, pattern.Expand([]string{"other", "run*", "run1"}, names))
	assert.Equal(t, []string{"missing"}, pattern.Expand([]string{"missing"}, names))
	assert.Empty(t, pattern.Expand([]string{"x*"}, names))
}

func TestFilter(t *testing.T) {
	names := []string{"a1", "a2", "b1"}

	assert.Equal(t, names, pattern.Filter(nil, names))
	assert.Equal(t, []string{"a1", "a2"}, pattern.Filter([]string{"a*"}, names))
	assert.Equal(t, []string{"a1", "b1"}, pattern.Filter([]string{"*1", "b*"}, names))
}
