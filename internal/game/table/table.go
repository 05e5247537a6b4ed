// Package table provides an in-memory room: the authoritative card
// containers a decision session reads from. The sandbox driver mutates it
// between decisions the way a rules engine would.
package table

import (
	"fmt"
	"slices"
	"sync"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
	"go.uber.org/zap"
)

const defaultAttackRange = 1

type seat struct {
	player      catalog.Player
	hand        []int
	equips      []int
	piles       map[string][]int
	handPiles   []string
	skills      []catalog.SkillRef
	attackRange int
	limited     map[int]bool
	usage       map[string]int
}

// Table is a thread-safe in-memory catalog.Room.
type Table struct {
	logger *zap.Logger

	mu     sync.RWMutex
	order  []string
	seats  map[string]*seat
	cards  map[int]card.Card
	using  map[int]bool
	nextID int
}

// New creates an empty table.
func New(logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Table{
		logger: logger,
		seats:  make(map[string]*seat),
		cards:  make(map[int]card.Card),
		using:  make(map[int]bool),
	}
}

// AddPlayer seats a new alive player.
func (t *Table) AddPlayer(name string, hp int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.seats[name]; exists {
		return fmt.Errorf("player %s already seated", name)
	}
	t.seats[name] = &seat{
		player:      catalog.Player{Name: name, Hp: hp, MaxHp: hp, Alive: true},
		piles:       make(map[string][]int),
		attackRange: defaultAttackRange,
		limited:     make(map[int]bool),
		usage:       make(map[string]int),
	}
	t.order = append(t.order, name)
	t.logger.Debug("player seated", zap.String("player", name), zap.Int("hp", hp))
	return nil
}

// NewCard allocates an id for a physical card and registers it.
func (t *Table) NewCard(name string, suit card.Suit, rank int) card.Card {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		if _, taken := t.cards[t.nextID]; !taken {
			break
		}
		t.nextID++
	}
	c := card.New(t.nextID, name, suit, rank)
	t.cards[c.ID] = c
	t.nextID++
	return c
}

// AddCard registers a physical card with a caller-chosen id.
func (t *Table) AddCard(c card.Card) error {
	if c.IsVirtual() {
		return fmt.Errorf("cannot register virtual card %s", c.Name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.cards[c.ID]; exists {
		return fmt.Errorf("card %d already registered", c.ID)
	}
	t.cards[c.ID] = c
	return nil
}

func (t *Table) seat(name string) (*seat, error) {
	s, ok := t.seats[name]
	if !ok {
		return nil, fmt.Errorf("player %s not found", name)
	}
	return s, nil
}

// detach removes id from every container. Callers hold mu.
func (t *Table) detach(id int) {
	for _, s := range t.seats {
		s.hand = slices.DeleteFunc(s.hand, func(v int) bool { return v == id })
		s.equips = slices.DeleteFunc(s.equips, func(v int) bool { return v == id })
		for name, pile := range s.piles {
			s.piles[name] = slices.DeleteFunc(pile, func(v int) bool { return v == id })
		}
	}
}

func (t *Table) place(player string, ids []int, put func(s *seat, id int)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.seat(player)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := t.cards[id]; !ok {
			return fmt.Errorf("card %d not registered", id)
		}
		t.detach(id)
		put(s, id)
	}
	return nil
}

// Deal moves cards into a player's hand.
func (t *Table) Deal(player string, ids ...int) error {
	return t.place(player, ids, func(s *seat, id int) { s.hand = append(s.hand, id) })
}

// Equip moves cards into a player's equip area.
func (t *Table) Equip(player string, ids ...int) error {
	return t.place(player, ids, func(s *seat, id int) { s.equips = append(s.equips, id) })
}

// AddToPile moves cards onto a named pile of a player.
func (t *Table) AddToPile(player, pile string, ids ...int) error {
	return t.place(player, ids, func(s *seat, id int) { s.piles[pile] = append(s.piles[pile], id) })
}

// Discard removes cards from every container.
func (t *Table) Discard(ids ...int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range ids {
		t.detach(id)
		delete(t.using, id)
	}
}

// Give moves cards to another player's hand.
func (t *Table) Give(to string, ids ...int) error {
	return t.Deal(to, ids...)
}

func (t *Table) update(player string, fn func(s *seat)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.seat(player)
	if err != nil {
		return err
	}
	fn(s)
	return nil
}

// SetPhase sets a player's phase. Every other player becomes inactive when
// the phase is not PhaseNotActive.
func (t *Table) SetPhase(player string, phase catalog.Phase) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	target, err := t.seat(player)
	if err != nil {
		return err
	}
	if phase != catalog.PhaseNotActive {
		for _, s := range t.seats {
			s.player.Phase = catalog.PhaseNotActive
		}
	}
	target.player.Phase = phase
	return nil
}

// SetHp sets a player's current hp.
func (t *Table) SetHp(player string, hp int) error {
	return t.update(player, func(s *seat) { s.player.Hp = hp })
}

// Kill marks a player dead.
func (t *Table) Kill(player string) error {
	return t.update(player, func(s *seat) { s.player.Alive = false })
}

// SetFlag adds or removes a player flag.
func (t *Table) SetFlag(player, flag string, on bool) error {
	return t.update(player, func(s *seat) {
		s.player.Flags = slices.DeleteFunc(s.player.Flags, func(f string) bool { return f == flag })
		if on {
			s.player.Flags = append(s.player.Flags, flag)
		}
	})
}

// SetSkills replaces a player's skills.
func (t *Table) SetSkills(player string, skills ...catalog.SkillRef) error {
	return t.update(player, func(s *seat) { s.skills = slices.Clone(skills) })
}

// SetHandPiles declares piles a player may use as if in hand.
func (t *Table) SetHandPiles(player string, piles ...string) error {
	return t.update(player, func(s *seat) { s.handPiles = slices.Clone(piles) })
}

// SetAttackRange sets the distance a player's Slash reaches.
func (t *Table) SetAttackRange(player string, r int) error {
	return t.update(player, func(s *seat) { s.attackRange = r })
}

// Limit forbids player from using or responding with card id.
func (t *Table) Limit(player string, id int, on bool) error {
	return t.update(player, func(s *seat) { s.limited[id] = on })
}

// Use records one use of key by player this turn.
func (t *Table) Use(player, key string) error {
	return t.update(player, func(s *seat) { s.usage[key]++ })
}

// ResetUsage clears the per-turn usage counters of a player.
func (t *Table) ResetUsage(player string) error {
	return t.update(player, func(s *seat) { clear(s.usage) })
}

// SetUsing flags a card as being in use by an ongoing effect.
func (t *Table) SetUsing(id int, on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if on {
		t.using[id] = true
	} else {
		delete(t.using, id)
	}
}

// AlivePlayers returns alive players in seat order.
func (t *Table) AlivePlayers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.order))
	for _, name := range t.order {
		if t.seats[name].player.Alive {
			out = append(out, name)
		}
	}
	return out
}

// Player returns a copy of a player's public state.
func (t *Table) Player(name string) (catalog.Player, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.seats[name]
	if !ok {
		return catalog.Player{}, false
	}
	p := s.player
	p.Flags = slices.Clone(p.Flags)
	return p, true
}

// Card returns a registered physical card.
func (t *Table) Card(id int) (card.Card, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c, ok := t.cards[id]
	return c, ok
}

func (t *Table) read(player string, fn func(s *seat) []int) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.seats[player]
	if !ok {
		return nil
	}
	return slices.Clone(fn(s))
}

// Hand returns the ids in a player's hand.
func (t *Table) Hand(player string) []int {
	return t.read(player, func(s *seat) []int { return s.hand })
}

// Equips returns the ids in a player's equip area.
func (t *Table) Equips(player string) []int {
	return t.read(player, func(s *seat) []int { return s.equips })
}

// Pile returns the ids on a player's named pile.
func (t *Table) Pile(player, name string) []int {
	return t.read(player, func(s *seat) []int { return s.piles[name] })
}

// HandPiles returns piles usable as hand.
func (t *Table) HandPiles(player string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if s, ok := t.seats[player]; ok {
		return slices.Clone(s.handPiles)
	}
	return nil
}

// Skills returns a player's skills.
func (t *Table) Skills(player string) []catalog.SkillRef {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if s, ok := t.seats[player]; ok {
		return slices.Clone(s.skills)
	}
	return nil
}

// IsUsing reports whether a card is flagged as in use.
func (t *Table) IsUsing(id int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.using[id]
}

// IsCardLimited reports whether any physical card behind c is limited for player.
func (t *Table) IsCardLimited(player string, c card.Card, _ catalog.Method) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.seats[player]
	if !ok {
		return true
	}
	for _, id := range c.EffectiveIDs() {
		if s.limited[id] {
			return true
		}
	}
	return false
}

// Distance is the seat distance between two alive players around the table.
func (t *Table) Distance(from, to string) int {
	alive := t.AlivePlayers()
	i, j := slices.Index(alive, from), slices.Index(alive, to)
	if i < 0 || j < 0 {
		return len(alive) + 1
	}
	d := i - j
	if d < 0 {
		d = -d
	}
	return min(d, len(alive)-d)
}

// AttackRange returns a player's attack range.
func (t *Table) AttackRange(player string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if s, ok := t.seats[player]; ok {
		return s.attackRange
	}
	return 0
}

// UsageCount returns how often player used key this turn.
func (t *Table) UsageCount(player, key string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if s, ok := t.seats[player]; ok {
		return s.usage[key]
	}
	return 0
}

var _ catalog.Room = (*Table)(nil)
