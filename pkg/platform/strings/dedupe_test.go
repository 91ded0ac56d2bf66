package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: []string{}},
		{name: "trims whitespace", input: []string{"  foo  ", "bar  "}, expected: []string{"foo", "bar"}},
		{name: "removes duplicates preserving order", input: []string{"foo", "bar", "foo"}, expected: []string{"foo", "bar"}},
		{name: "drops empty", input: []string{"", "  ", "x"}, expected: []string{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []string{}, SortedUnique(nil))
	assert.Equal(t, []string{"critical_dqsn", "new_destination"},
		SortedUnique([]string{"new_destination", "critical_dqsn", "new_destination"}))
}

func TestAppendBounded(t *testing.T) {
	values, added := AppendBounded([]string{"a", "b"}, "a", 3)
	assert.False(t, added)
	assert.Equal(t, []string{"a", "b"}, values)

	values, added = AppendBounded(values, "c", 3)
	assert.True(t, added)
	assert.Equal(t, []string{"a", "b", "c"}, values)

	values, added = AppendBounded(values, "d", 3)
	assert.True(t, added)
	assert.Equal(t, []string{"b", "c", "d"}, values)
}
