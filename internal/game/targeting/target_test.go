package targeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoom []string

func (f fakeRoom) AlivePlayers() []string { return f }

func TestSelectionToggle(t *testing.T) {
	s := NewSelection(Requirement{MinTargets: 1, MaxTargets: 2})

	s.Toggle("a")
	s.Toggle("b")
	assert.Equal(t, []string{"a", "b"}, s.Targets)
	assert.True(t, s.IsComplete())

	s.Toggle("c")
	assert.Equal(t, []string{"a", "c"}, s.Targets, "full selection replaces the latest pick")

	s.Toggle("a")
	assert.Equal(t, []string{"c"}, s.Targets)

	s.Toggle("c")
	assert.Empty(t, s.Targets)
	assert.False(t, s.IsComplete())
}

func TestSelectionValidate(t *testing.T) {
	s := &Selection{Targets: []string{"a", "a"}, Requirement: Requirement{MinTargets: 1, MaxTargets: 3}}
	assert.Error(t, s.Validate())

	s.Targets = []string{"a", "b", "c", "d"}
	assert.Error(t, s.Validate())

	s.Targets = []string{"a"}
	assert.NoError(t, s.Validate())

	var nilSel *Selection
	assert.Error(t, nilSel.Validate())
	assert.False(t, nilSel.IsComplete())
}

func TestValidator(t *testing.T) {
	v := NewValidator(fakeRoom{"a", "b", "c"}, []string{"b", "c", "d"})

	assert.Equal(t, []string{"b", "c"}, v.Candidates())
	assert.NoError(t, v.ValidateTarget("b"))
	assert.Error(t, v.ValidateTarget("a"))
	assert.Error(t, v.ValidateTarget("d"))

	err := v.ValidateSelection(&Selection{Targets: []string{"b", "a"}, Requirement: Requirement{MaxTargets: 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid target")

	all := NewValidator(fakeRoom{"a", "b"}, nil)
	assert.Equal(t, []string{"a", "b"}, all.Candidates())
}

func TestFormatTargets(t *testing.T) {
	assert.Equal(t, "a+b", FormatTargets([]string{"a", "b"}))
	assert.Empty(t, FormatTargets(nil))
}
