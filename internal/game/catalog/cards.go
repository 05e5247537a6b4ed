package catalog

import (
	"slices"
	"strings"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
)

// Built-in card names produced by the engine's own skills.
const (
	DummyCardName = "DummyCard"
	YijiCardName  = "YijiCard"
)

// BaseCard provides the default behavior of a function card: one target
// chosen by the card's filter, no extra targets, always available.
type BaseCard struct {
	CardName string
	CardKind string
	CardType CardType
}

// Name returns the card name.
func (b BaseCard) Name() string { return b.CardName }

// Kind returns the card family, defaulting to the name.
func (b BaseCard) Kind() string {
	if b.CardKind != "" {
		return b.CardKind
	}
	return b.CardName
}

// Type returns the card type.
func (b BaseCard) Type() CardType { return b.CardType }

// TargetFixed reports false; cards needing no target override it.
func (b BaseCard) TargetFixed(card.Card) bool { return false }

// TargetFilter rejects every target.
func (b BaseCard) TargetFilter(Room, []string, string, string, card.Card) bool { return false }

// TargetsFeasible accepts any non-empty selection.
func (b BaseCard) TargetsFeasible(_ Room, selected []string, _ string, _ card.Card) bool {
	return len(selected) > 0
}

// ExtraTargetFilter rejects every extra target.
func (b BaseCard) ExtraTargetFilter(Room, []string, string, string, card.Card) bool { return false }

// IsAvailable accepts.
func (b BaseCard) IsAvailable(Room, string, card.Card) bool { return true }

// CanRecast reports false.
func (b BaseCard) CanRecast(Room, string, card.Card) bool { return false }

// Votes reports false.
func (b BaseCard) Votes() bool { return false }

type selfCard struct {
	BaseCard
	available func(r Room, from string, c card.Card) bool
}

func fixedCard(name string, t CardType) selfCard {
	return selfCard{BaseCard: BaseCard{CardName: name, CardType: t}}
}

func (s selfCard) TargetFixed(card.Card) bool { return true }

func (s selfCard) TargetsFeasible(Room, []string, string, card.Card) bool { return true }

func (s selfCard) IsAvailable(r Room, from string, c card.Card) bool {
	if s.available == nil {
		return true
	}
	return s.available(r, from, c)
}

func never(Room, string, card.Card) bool { return false }

func oncePerTurn(key string) func(Room, string, card.Card) bool {
	return func(r Room, from string, _ card.Card) bool {
		return r.UsageCount(from, key) < 1
	}
}

type slashCard struct {
	BaseCard
}

func newSlash(name string) slashCard {
	return slashCard{BaseCard{CardName: name, CardKind: "Slash", CardType: TypeBasic}}
}

func (s slashCard) TargetFilter(r Room, selected []string, to, from string, _ card.Card) bool {
	return len(selected) == 0 && to != from && r.Distance(from, to) <= r.AttackRange(from)
}

func (s slashCard) ExtraTargetFilter(r Room, selected []string, to, from string, _ card.Card) bool {
	return to != from && !slices.Contains(selected, to) && r.Distance(from, to) <= r.AttackRange(from)
}

func (s slashCard) IsAvailable(r Room, from string, _ card.Card) bool {
	return r.UsageCount(from, "Slash") < 1
}

type singleTargetTrick struct {
	BaseCard
	maxDistance int
	needsCards  bool
}

func (t singleTargetTrick) TargetFilter(r Room, selected []string, to, from string, _ card.Card) bool {
	if len(selected) > 0 || to == from {
		return false
	}
	if t.maxDistance > 0 && r.Distance(from, to) > t.maxDistance {
		return false
	}
	if t.needsCards && len(r.Hand(to))+len(r.Equips(to)) == 0 {
		return false
	}
	return true
}

func (t singleTargetTrick) TargetsFeasible(_ Room, selected []string, _ string, _ card.Card) bool {
	return len(selected) == 1
}

type ironChain struct {
	BaseCard
}

func (ironChain) TargetFilter(_ Room, selected []string, to, _ string, _ card.Card) bool {
	return len(selected) < 2 && !slices.Contains(selected, to)
}

func (ironChain) TargetsFeasible(_ Room, selected []string, _ string, _ card.Card) bool {
	return len(selected) >= 1 && len(selected) <= 2
}

func (ironChain) CanRecast(r Room, from string, _ card.Card) bool {
	p, ok := r.Player(from)
	return ok && p.Phase == PhasePlay
}

type peachCard struct {
	selfCard
}

func (peachCard) IsAvailable(r Room, from string, _ card.Card) bool {
	p, ok := r.Player(from)
	return ok && p.Hp < p.MaxHp
}

type otherPlayerCard struct {
	BaseCard
	once string
}

func (o otherPlayerCard) TargetFilter(_ Room, selected []string, to, from string, _ card.Card) bool {
	return len(selected) == 0 && to != from
}

func (o otherPlayerCard) TargetsFeasible(_ Room, selected []string, _ string, _ card.Card) bool {
	return len(selected) == 1
}

func (o otherPlayerCard) IsAvailable(r Room, from string, _ card.Card) bool {
	return o.once == "" || r.UsageCount(from, o.once) < 1
}

// yijiCard carries its allowed recipients in UserString, joined by '+'.
type yijiCard struct {
	BaseCard
}

func (yijiCard) TargetFilter(_ Room, selected []string, to, from string, c card.Card) bool {
	if len(selected) > 0 || to == from {
		return false
	}
	return slices.Contains(strings.Split(c.UserString, "+"), to)
}

func (yijiCard) TargetsFeasible(_ Room, selected []string, _ string, _ card.Card) bool {
	return len(selected) == 1
}

func standardCards() []FunctionCard {
	return []FunctionCard{
		newSlash("Slash"),
		newSlash("FireSlash"),
		newSlash("ThunderSlash"),
		selfCard{BaseCard: BaseCard{CardName: "Jink", CardType: TypeBasic}, available: never},
		peachCard{fixedCard("Peach", TypeBasic)},
		selfCard{BaseCard: BaseCard{CardName: "Analeptic", CardType: TypeBasic}, available: oncePerTurn("Analeptic")},
		selfCard{BaseCard: BaseCard{CardName: "Nullification", CardType: TypeTrick}, available: never},
		fixedCard("ExNihilo", TypeTrick),
		fixedCard("ArcheryAttack", TypeTrick),
		singleTargetTrick{BaseCard: BaseCard{CardName: "Dismantlement", CardType: TypeTrick}, needsCards: true},
		singleTargetTrick{BaseCard: BaseCard{CardName: "Snatch", CardType: TypeTrick}, maxDistance: 1, needsCards: true},
		singleTargetTrick{BaseCard: BaseCard{CardName: "Duel", CardType: TypeTrick}},
		ironChain{BaseCard{CardName: "IronChain", CardType: TypeTrick}},
		fixedCard("Spear", TypeEquip),
		fixedCard("Halberd", TypeEquip),
		selfCard{BaseCard: BaseCard{CardName: "ZhihengCard", CardType: TypeSkill}, available: oncePerTurn("ZhihengCard")},
		otherPlayerCard{BaseCard: BaseCard{CardName: "RendeCard", CardType: TypeSkill}},
		fixedCard("KurouCard", TypeSkill),
	}
}
