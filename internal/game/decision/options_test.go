package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sameInt(a, b int) bool { return a == b }

// sumAtMost admits items while the context plus the item stays within limit.
func sumAtMost(limit int) func([]int, int) bool {
	return func(ctx []int, item int) bool {
		total := item
		for _, v := range ctx {
			total += v
		}
		return total <= limit
	}
}

func TestFilterWithBacktrack(t *testing.T) {
	pool := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name     string
		selected []int
		limit    int
		want     []int
	}{
		{"empty selection", nil, 3, []int{1, 2, 3}},
		{"selection narrows options", []int{1}, 4, []int{2, 3}},
		{"dead end backs off the latest pick", []int{1, 4}, 6, []int{2, 3, 5}},
		{"selected items are never offered", []int{2}, 10, []int{1, 3, 4, 5}},
		{"nothing fits even after backtracking", []int{5}, 0, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selected := append([]int(nil), tt.selected...)
			got := FilterWithBacktrack(pool, selected, sameInt, sumAtMost(tt.limit))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.selected, selected, "the selection is not modified")
		})
	}
}

func TestAvailableTargetsBacktracks(t *testing.T) {
	pool := []string{"a", "b", "c"}
	onlyOne := func(ctx []string, _ string) bool { return len(ctx) == 0 }

	assert.Equal(t, []string{"a", "b", "c"}, availableTargets(pool, nil, onlyOne))
	assert.Equal(t, []string{"b", "c"}, availableTargets(pool, []string{"a"}, onlyOne))
}
