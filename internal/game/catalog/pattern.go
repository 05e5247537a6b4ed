package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
)

// Pattern is a parsed card pattern of the form names|suits|ranks|places.
// Alternatives are joined by '#', list items by ',', '.' matches anything
// and a leading '^' negates a name. The place "hand" also covers the
// player's hand piles and "equipped" the equip area.
type Pattern struct {
	raw  string
	alts []patternAlt
}

type patternAlt struct {
	names  []string
	suits  []string
	ranks  []rankRange
	places []string
}

type rankRange struct{ lo, hi int }

// ParsePattern parses a pattern string. A trailing '!' (forced marker) is ignored.
func ParsePattern(s string) (Pattern, error) {
	raw := strings.TrimSuffix(strings.TrimSpace(s), "!")
	if raw == "" {
		return Pattern{}, fmt.Errorf("empty pattern")
	}
	p := Pattern{raw: raw}
	for _, alt := range strings.Split(raw, "#") {
		fields := strings.Split(alt, "|")
		if len(fields) > 4 {
			return Pattern{}, fmt.Errorf("pattern %q: too many fields", s)
		}
		for len(fields) < 4 {
			fields = append(fields, ".")
		}
		a := patternAlt{
			names:  splitField(fields[0]),
			suits:  splitField(fields[1]),
			places: splitField(fields[3]),
		}
		for _, item := range splitField(fields[2]) {
			rr, err := parseRank(item)
			if err != nil {
				return Pattern{}, fmt.Errorf("pattern %q: %w", s, err)
			}
			a.ranks = append(a.ranks, rr)
		}
		p.alts = append(p.alts, a)
	}
	return p, nil
}

// String returns the pattern source.
func (p Pattern) String() string { return p.raw }

func splitField(f string) []string {
	f = strings.TrimSpace(f)
	if f == "" || f == "." {
		return nil
	}
	return strings.Split(f, ",")
}

var rankNames = map[string]int{"A": 1, "J": 11, "Q": 12, "K": 13}

func rankValue(s string) (int, error) {
	if v, ok := rankNames[s]; ok {
		return v, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v > 13 {
		return 0, fmt.Errorf("bad rank %q", s)
	}
	return v, nil
}

func parseRank(item string) (rankRange, error) {
	lo, hi, isRange := strings.Cut(item, "~")
	a, err := rankValue(lo)
	if err != nil {
		return rankRange{}, err
	}
	if !isRange {
		return rankRange{a, a}, nil
	}
	b, err := rankValue(hi)
	if err != nil {
		return rankRange{}, err
	}
	return rankRange{a, b}, nil
}

// Match reports whether c, held by player, satisfies the pattern.
func (p Pattern) Match(reg *Registry, r Room, player string, c card.Card) bool {
	for _, alt := range p.alts {
		if alt.matchName(reg, c.Name) && alt.matchSuit(c.Suit) && alt.matchRank(c.Rank) && alt.matchPlace(r, player, c) {
			return true
		}
	}
	return false
}

// AllowsName reports whether some alternative accepts a card of that name,
// ignoring suit, rank and place.
func (p Pattern) AllowsName(reg *Registry, name string) bool {
	return slices.ContainsFunc(p.alts, func(a patternAlt) bool {
		return a.matchName(reg, name)
	})
}

func (a patternAlt) matchName(reg *Registry, name string) bool {
	if len(a.names) == 0 {
		return true
	}
	positive := false
	for _, n := range a.names {
		if neg, ok := strings.CutPrefix(n, "^"); ok {
			if reg.IsKindOf(name, neg) {
				return false
			}
			continue
		}
		positive = true
		if reg.IsKindOf(name, n) {
			return true
		}
	}
	return !positive
}

func (a patternAlt) matchSuit(s card.Suit) bool {
	if len(a.suits) == 0 {
		return true
	}
	for _, want := range a.suits {
		switch want {
		case "red":
			if s.IsRed() {
				return true
			}
		case "black":
			if s.IsBlack() {
				return true
			}
		default:
			if s.String() == want {
				return true
			}
		}
	}
	return false
}

func (a patternAlt) matchRank(rank int) bool {
	if len(a.ranks) == 0 {
		return true
	}
	return slices.ContainsFunc(a.ranks, func(rr rankRange) bool {
		return rank >= rr.lo && rank <= rr.hi
	})
}

func (a patternAlt) matchPlace(r Room, player string, c card.Card) bool {
	if len(a.places) == 0 {
		return true
	}
	ids := c.EffectiveIDs()
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !slices.ContainsFunc(a.places, func(place string) bool {
			return inPlace(r, player, id, place)
		}) {
			return false
		}
	}
	return true
}

func inPlace(r Room, player string, id int, place string) bool {
	switch place {
	case "hand":
		if slices.Contains(r.Hand(player), id) {
			return true
		}
		for _, pile := range r.HandPiles(player) {
			if slices.Contains(r.Pile(player, pile), id) {
				return true
			}
		}
		return false
	case "equipped":
		return slices.Contains(r.Equips(player), id)
	default:
		return slices.Contains(r.Pile(player, place), id)
	}
}
