package decision

import (
	"slices"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
)

// FilterWithBacktrack computes the selectable items of a pool: items not
// yet selected that accept admits given the current selection. When that
// leaves nothing while something is selected, the most recent pick is
// dropped from the context and the filter runs once more, so the player is
// never shown an empty screen they cannot back out of. The selection itself
// is not modified.
func FilterWithBacktrack[T any](pool, selected []T, same func(a, b T) bool, accept func(context []T, item T) bool) []T {
	remaining := make([]T, 0, len(pool))
	for _, item := range pool {
		if !slices.ContainsFunc(selected, func(s T) bool { return same(s, item) }) {
			remaining = append(remaining, item)
		}
	}

	available := filterPool(remaining, slices.Clone(selected), accept)
	if len(available) == 0 && len(selected) > 0 {
		available = filterPool(remaining, slices.Clone(selected[:len(selected)-1]), accept)
	}
	return available
}

func filterPool[T any](pool, context []T, accept func([]T, T) bool) []T {
	out := make([]T, 0, len(pool))
	for _, item := range pool {
		if accept(context, item) {
			out = append(out, item)
		}
	}
	return out
}

func sameName(a, b string) bool { return a == b }

// availableCards filters a card pool through a view filter.
func availableCards(pool, selected []card.Card, accept func([]card.Card, card.Card) bool) []card.Card {
	return FilterWithBacktrack(pool, selected, card.Card.Equal, accept)
}

// availableTargets filters players through a target filter.
func availableTargets(pool, selected []string, accept func([]string, string) bool) []string {
	return FilterWithBacktrack(pool, selected, sameName, accept)
}
