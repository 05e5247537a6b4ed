// Package catalog holds the read-only card and skill behavior the decision
// engine evaluates: function cards with their target rules, view-as skills,
// target-mod skills and move-cards skills.
package catalog

import (
	"fmt"
	"slices"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
)

// Reason explains why the engine asked for a card.
type Reason int

const (
	// ReasonPlay is an active use during the play phase.
	ReasonPlay Reason = iota
	// ReasonResponse is a response that is not a use (e.g. Jink against Slash).
	ReasonResponse
	// ReasonResponseUse is a response that counts as a use (e.g. Peach when dying).
	ReasonResponseUse
	// ReasonUnknown covers decisions that do not involve card use.
	ReasonUnknown
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case ReasonPlay:
		return "play"
	case ReasonResponse:
		return "response"
	case ReasonResponseUse:
		return "response_use"
	default:
		return "unknown"
	}
}

// Method is how a card leaves the player's containers.
type Method int

const (
	MethodNone Method = iota
	MethodUse
	MethodResponse
	MethodDiscard
	MethodRecast
	MethodPindian
)

// CardType classifies function cards.
type CardType int

const (
	TypeBasic CardType = iota
	TypeTrick
	TypeEquip
	TypeSkill
)

// GuhuoType tells how a skill presents ambiguous virtual cards.
type GuhuoType int

const (
	// GuhuoNone means the raw selection alone determines the effective card.
	GuhuoNone GuhuoType = iota
	// GuhuoVirtualCardList enumerates every virtual card and lets the client point at one.
	GuhuoVirtualCardList
	// GuhuoPopUpBox lets the client name a card that is resolved against the enumeration.
	GuhuoPopUpBox
)

// Phase is a player's turn phase as reported by the room.
type Phase int

const (
	PhaseNotActive Phase = iota
	PhaseStart
	PhaseJudge
	PhaseDraw
	PhasePlay
	PhaseDiscard
	PhaseFinish
)

// Player is a read-only view of a seat.
type Player struct {
	Name  string
	Hp    int
	MaxHp int
	Alive bool
	Phase Phase
	Flags []string
}

// HasFlag reports whether the player carries flag.
func (p Player) HasFlag(flag string) bool {
	return slices.Contains(p.Flags, flag)
}

// SkillRef names a skill owned by a player and the general position it belongs to.
type SkillRef struct {
	Name     string
	Position string
}

// Skill positions.
const (
	PositionHead   = "head"
	PositionDeputy = "deputy"
)

// Room is the authoritative, read-only view of the game that card and skill
// predicates evaluate against. The rules engine owns every mutation.
type Room interface {
	AlivePlayers() []string
	Player(name string) (Player, bool)
	Card(id int) (card.Card, bool)
	Hand(player string) []int
	Equips(player string) []int
	Pile(player, name string) []int
	// HandPiles lists the piles whose cards may be used as if in hand.
	HandPiles(player string) []string
	Skills(player string) []SkillRef
	IsUsing(id int) bool
	IsCardLimited(player string, c card.Card, method Method) bool
	Distance(from, to string) int
	AttackRange(player string) int
	// UsageCount returns how many times player used key this turn.
	UsageCount(player, key string) int
}

// Env is the context a view-as skill is evaluated in.
type Env struct {
	Room    Room
	Reason  Reason
	Pattern string
	Method  Method
}

// FunctionCard is the behavior behind a card name.
type FunctionCard interface {
	Name() string
	// Kind is the family name used by patterns, e.g. Slash for FireSlash.
	Kind() string
	Type() CardType
	TargetFixed(c card.Card) bool
	TargetFilter(r Room, selected []string, to, from string, c card.Card) bool
	TargetsFeasible(r Room, selected []string, from string, c card.Card) bool
	ExtraTargetFilter(r Room, selected []string, to, from string, c card.Card) bool
	IsAvailable(r Room, from string, c card.Card) bool
	CanRecast(r Room, from string, c card.Card) bool
	// Votes reports whether the same player may be targeted more than once.
	Votes() bool
}

// ViewAsSkill turns raw cards into an effective card.
type ViewAsSkill interface {
	Name() string
	IsAvailable(env Env, player, position string) bool
	ViewFilter(env Env, selected []card.Card, c card.Card, player string) bool
	ViewAs(env Env, selected []card.Card, player string) (card.Card, bool)
	GuhuoCards(env Env, selected []card.Card, player string) []card.Card
	GuhuoType() GuhuoType
	// ExpandPile is a comma separated list of piles. A leading % means the
	// pile is gathered from every alive player.
	ExpandPile() string
	// IsResponseOrUse reports whether hand piles join the candidate pool.
	IsResponseOrUse() bool
}

// OneCardSkill is implemented by view-as skills that transform exactly one card.
type OneCardSkill interface {
	OneCard() bool
}

// TargetModSkill grants extra targets to a card already in use.
type TargetModSkill interface {
	Name() string
	CheckExtraTargets(r Room, from, to string, c card.Card, previous, current []string) bool
}

// MoveCardsSkill validates a guanxing-style arrangement. MoveFilter is
// asked per card id; id -1 validates the whole bottom pile.
type MoveCardsSkill interface {
	Name() string
	MoveFilter(r Room, player string, id int, bottom []int) bool
}

// Registry maps names to behavior. It is populated once at startup and
// must not be mutated after it is shared between sessions.
type Registry struct {
	cards      map[string]FunctionCard
	viewAs     map[string]ViewAsSkill
	targetMods map[string]TargetModSkill
	moveCards  map[string]MoveCardsSkill
}

// NewRegistry creates a registry holding the engine built-in cards.
func NewRegistry() *Registry {
	r := &Registry{
		cards:      make(map[string]FunctionCard),
		viewAs:     make(map[string]ViewAsSkill),
		targetMods: make(map[string]TargetModSkill),
		moveCards:  make(map[string]MoveCardsSkill),
	}
	r.cards[DummyCardName] = fixedCard(DummyCardName, TypeSkill)
	r.cards[YijiCardName] = yijiCard{BaseCard{CardName: YijiCardName, CardType: TypeSkill}}
	return r
}

// RegisterCard adds a function card.
func (r *Registry) RegisterCard(fc FunctionCard) error {
	if _, exists := r.cards[fc.Name()]; exists {
		return fmt.Errorf("card %s already registered", fc.Name())
	}
	r.cards[fc.Name()] = fc
	return nil
}

// RegisterViewAsSkill adds a view-as skill.
func (r *Registry) RegisterViewAsSkill(s ViewAsSkill) error {
	if _, exists := r.viewAs[s.Name()]; exists {
		return fmt.Errorf("skill %s already registered", s.Name())
	}
	r.viewAs[s.Name()] = s
	return nil
}

// RegisterTargetModSkill adds a target-mod skill.
func (r *Registry) RegisterTargetModSkill(s TargetModSkill) error {
	if _, exists := r.targetMods[s.Name()]; exists {
		return fmt.Errorf("target mod skill %s already registered", s.Name())
	}
	r.targetMods[s.Name()] = s
	return nil
}

// RegisterMoveCardsSkill adds a move-cards skill.
func (r *Registry) RegisterMoveCardsSkill(s MoveCardsSkill) error {
	if _, exists := r.moveCards[s.Name()]; exists {
		return fmt.Errorf("move cards skill %s already registered", s.Name())
	}
	r.moveCards[s.Name()] = s
	return nil
}

// Card looks up a function card by name.
func (r *Registry) Card(name string) (FunctionCard, bool) {
	fc, ok := r.cards[name]
	return fc, ok
}

// ViewAsSkill looks up a view-as skill by name.
func (r *Registry) ViewAsSkill(name string) (ViewAsSkill, bool) {
	s, ok := r.viewAs[name]
	return s, ok
}

// TargetModSkill looks up a target-mod skill by name.
func (r *Registry) TargetModSkill(name string) (TargetModSkill, bool) {
	s, ok := r.targetMods[name]
	return s, ok
}

// MoveCardsSkill looks up a move-cards skill by name.
func (r *Registry) MoveCardsSkill(name string) (MoveCardsSkill, bool) {
	s, ok := r.moveCards[name]
	return s, ok
}

// IsKindOf reports whether the card named name belongs to family kind.
func (r *Registry) IsKindOf(name, kind string) bool {
	if name == kind {
		return true
	}
	fc, ok := r.cards[name]
	return ok && fc.Kind() == kind
}

// Names lists registered card names of the given types in registration-independent order.
func (r *Registry) Names(types ...CardType) []string {
	names := make([]string, 0, len(r.cards))
	for name, fc := range r.cards {
		if slices.Contains(types, fc.Type()) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
