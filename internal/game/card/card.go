package card

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// VirtualID is the id carried by every card synthesized by a skill.
const VirtualID = -1

// Suit is the suit of a card. Virtual cards built from several subcards
// only keep the shared color.
type Suit int

const (
	// NoSuit is used by virtual cards without subcards.
	NoSuit Suit = iota
	// Spade suit
	Spade
	// Club suit
	Club
	// Heart suit
	Heart
	// Diamond suit
	Diamond
	// NoSuitBlack is a black virtual card without a single suit.
	NoSuitBlack
	// NoSuitRed is a red virtual card without a single suit.
	NoSuitRed
)

var suitNames = map[Suit]string{
	NoSuit:      "no_suit",
	Spade:       "spade",
	Club:        "club",
	Heart:       "heart",
	Diamond:     "diamond",
	NoSuitBlack: "no_suit_black",
	NoSuitRed:   "no_suit_red",
}

// String returns the wire name of the suit.
func (s Suit) String() string {
	if name, ok := suitNames[s]; ok {
		return name
	}
	return fmt.Sprintf("suit(%d)", int(s))
}

// IsRed reports whether the suit is a red one.
func (s Suit) IsRed() bool {
	return s == Heart || s == Diamond || s == NoSuitRed
}

// IsBlack reports whether the suit is a black one.
func (s Suit) IsBlack() bool {
	return s == Spade || s == Club || s == NoSuitBlack
}

// ParseSuit parses a wire suit name.
func ParseSuit(name string) (Suit, error) {
	for suit, n := range suitNames {
		if n == name {
			return suit, nil
		}
	}
	return NoSuit, fmt.Errorf("unknown suit %q", name)
}

// Card is either a physical card (ID >= 0) or a virtual card produced by a
// skill, identified by its name, skill and subcards.
type Card struct {
	ID            int
	Name          string
	Suit          Suit
	Rank          int
	SubCards      []int
	Skill         string
	SkillPosition string
	// UserString carries card-specific parameters set by the skill that
	// produced the card, such as the recipients of a distribution.
	UserString string
}

// New creates a physical card.
func New(id int, name string, suit Suit, rank int) Card {
	return Card{ID: id, Name: name, Suit: suit, Rank: rank}
}

// NewVirtual creates a virtual card built from subs. A single subcard lends
// its suit and rank; several subcards keep only their common color.
func NewVirtual(name, skill string, subs ...Card) Card {
	c := Card{ID: VirtualID, Name: name, Skill: skill, Suit: NoSuit}
	for _, sub := range subs {
		c.SubCards = append(c.SubCards, sub.EffectiveIDs()...)
	}
	switch len(subs) {
	case 0:
	case 1:
		c.Suit = subs[0].Suit
		c.Rank = subs[0].Rank
	default:
		red, black := true, true
		for _, sub := range subs {
			red = red && sub.Suit.IsRed()
			black = black && sub.Suit.IsBlack()
		}
		switch {
		case red:
			c.Suit = NoSuitRed
		case black:
			c.Suit = NoSuitBlack
		}
	}
	return c
}

// IsVirtual reports whether the card was synthesized by a skill.
func (c Card) IsVirtual() bool {
	return c.ID < 0
}

// EffectiveIDs returns the physical ids a card stands for.
func (c Card) EffectiveIDs() []int {
	if !c.IsVirtual() {
		return []int{c.ID}
	}
	return slices.Clone(c.SubCards)
}

// Equal reports whether two cards denote the same selectable item.
// Physical cards compare by id; virtual cards by name, skill, suit, rank
// and ordered subcards. The skill position is presentation only.
func (c Card) Equal(o Card) bool {
	if c.IsVirtual() != o.IsVirtual() {
		return false
	}
	if !c.IsVirtual() {
		return c.ID == o.ID
	}
	return c.Name == o.Name &&
		c.Skill == o.Skill &&
		c.Suit == o.Suit &&
		c.Rank == o.Rank &&
		c.UserString == o.UserString &&
		slices.Equal(c.SubCards, o.SubCards)
}

// Descriptor returns the wire form of the card: the decimal id for a
// physical card, Name:Skill[suit:rank]=id+id&position for a virtual one.
func (c Card) Descriptor() string {
	if !c.IsVirtual() {
		return strconv.Itoa(c.ID)
	}
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte(':')
	b.WriteString(c.Skill)
	fmt.Fprintf(&b, "[%s:%d]=", c.Suit, c.Rank)
	for i, id := range c.SubCards {
		if i > 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.Itoa(id))
	}
	if c.SkillPosition != "" {
		b.WriteByte('&')
		b.WriteString(c.SkillPosition)
	}
	return b.String()
}

// String implements fmt.Stringer.
func (c Card) String() string {
	return c.Descriptor()
}

var descriptorPattern = regexp.MustCompile(`^([A-Za-z_]+)(?::([A-Za-z_]*))?(?:\[([a-z_]+):(\d+)\])?(?:=([\d+]*))?(?:&(\w+))?$`)

// Parse decodes a card descriptor. A physical id only carries the id; the
// caller resolves it against the authoritative containers. A bare name is
// accepted and yields a virtual card without subcards.
func Parse(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Card{}, fmt.Errorf("empty card descriptor")
	}
	if id, err := strconv.Atoi(s); err == nil {
		if id < 0 {
			return Card{}, fmt.Errorf("invalid card id %d", id)
		}
		return Card{ID: id}, nil
	}

	m := descriptorPattern.FindStringSubmatch(s)
	if m == nil {
		return Card{}, fmt.Errorf("malformed card descriptor %q", s)
	}
	c := Card{ID: VirtualID, Name: m[1], Skill: m[2], SkillPosition: m[6]}
	if m[3] != "" {
		suit, err := ParseSuit(m[3])
		if err != nil {
			return Card{}, fmt.Errorf("card descriptor %q: %w", s, err)
		}
		c.Suit = suit
		c.Rank, _ = strconv.Atoi(m[4])
	}
	if m[5] != "" {
		for _, part := range strings.Split(m[5], "+") {
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil {
				return Card{}, fmt.Errorf("card descriptor %q: bad subcard %q", s, part)
			}
			c.SubCards = append(c.SubCards, id)
		}
	}
	return c, nil
}

// IDs returns the physical ids of cards, in order.
func IDs(cards []Card) []int {
	ids := make([]int, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.EffectiveIDs()...)
	}
	return ids
}

// Index returns the position of c in cards, or -1.
func Index(cards []Card, c Card) int {
	return slices.IndexFunc(cards, c.Equal)
}

// Contains reports whether cards holds an item equal to c.
func Contains(cards []Card, c Card) bool {
	return Index(cards, c) >= 0
}
