package decision

import (
	"maps"
	"slices"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
	"github.com/sgs-online/sgs-server-go/internal/game/targeting"
)

// SelectionState is the transient record of one decision: its parameters
// as seen by the client and every partial choice made so far. A session
// owns exactly one, created per request and dropped at commit or cancel.
type SelectionState struct {
	Requestors []string

	// AllCards is the candidate pool per player before filtering.
	AllCards         map[string][]card.Card
	SelectedCards    map[string][]card.Card
	AvailableCards   map[string][]card.Card
	SelectedTargets  []string
	AvailableTargets []string
	// ExtraTargets are targets the card already has (ExtraTarget only).
	ExtraTargets []string
	Choice       *targeting.Selection

	PendingSkill   catalog.ViewAsSkill
	SkillOwner     string
	SkillPosition  string
	SkillInvoke    bool
	HighlightSkill string
	ViewAs         *card.Card

	OKEnabled     bool
	CancelEnabled bool
	Cancelable    bool

	Guhuo         []card.Card
	SelectedGuhuo *card.Card

	PrependPiles map[string][]string
	AppendPiles  map[string][]string
	EquipSkills  map[string][]string
	HeadSkills   map[string][]string
	DeputySkills map[string][]string
	ExtraInfo    []string

	Top         []int
	Bottom      []int
	MoveSuccess bool

	AutoTarget     bool
	FirstSelection bool
	FirstPending   bool
}

func newSelectionState() *SelectionState {
	return &SelectionState{
		AllCards:       make(map[string][]card.Card),
		SelectedCards:  make(map[string][]card.Card),
		AvailableCards: make(map[string][]card.Card),
		PrependPiles:   make(map[string][]string),
		AppendPiles:    make(map[string][]string),
		EquipSkills:    make(map[string][]string),
		HeadSkills:     make(map[string][]string),
		DeputySkills:   make(map[string][]string),
	}
}

// Clone returns a deep copy. Skills are shared; they are immutable or
// owned by the session.
func (st *SelectionState) Clone() *SelectionState {
	c := *st
	c.Requestors = slices.Clone(st.Requestors)
	c.AllCards = cloneCardMap(st.AllCards)
	c.SelectedCards = cloneCardMap(st.SelectedCards)
	c.AvailableCards = cloneCardMap(st.AvailableCards)
	c.SelectedTargets = slices.Clone(st.SelectedTargets)
	c.AvailableTargets = slices.Clone(st.AvailableTargets)
	c.ExtraTargets = slices.Clone(st.ExtraTargets)
	if st.Choice != nil {
		choice := *st.Choice
		choice.Targets = slices.Clone(st.Choice.Targets)
		c.Choice = &choice
	}
	c.ViewAs = cloneCard(st.ViewAs)
	c.SelectedGuhuo = cloneCard(st.SelectedGuhuo)
	c.Guhuo = cloneCards(st.Guhuo)
	c.PrependPiles = cloneStringMap(st.PrependPiles)
	c.AppendPiles = cloneStringMap(st.AppendPiles)
	c.EquipSkills = cloneStringMap(st.EquipSkills)
	c.HeadSkills = cloneStringMap(st.HeadSkills)
	c.DeputySkills = cloneStringMap(st.DeputySkills)
	c.ExtraInfo = slices.Clone(st.ExtraInfo)
	c.Top = slices.Clone(st.Top)
	c.Bottom = slices.Clone(st.Bottom)
	return &c
}

// clearSelection drops every partial choice.
func (st *SelectionState) clearSelection() {
	clear(st.SelectedCards)
	clear(st.AvailableCards)
	st.SelectedTargets = nil
	st.AvailableTargets = nil
	st.ViewAs = nil
	st.OKEnabled = false
}

func (st *SelectionState) clearGuhuo() {
	st.Guhuo = nil
	st.SelectedGuhuo = nil
}

func cloneCard(c *card.Card) *card.Card {
	if c == nil {
		return nil
	}
	v := *c
	v.SubCards = slices.Clone(c.SubCards)
	return &v
}

func cloneCards(cards []card.Card) []card.Card {
	if cards == nil {
		return nil
	}
	out := make([]card.Card, len(cards))
	for i, c := range cards {
		out[i] = c
		out[i].SubCards = slices.Clone(c.SubCards)
	}
	return out
}

func cloneCardMap(m map[string][]card.Card) map[string][]card.Card {
	out := make(map[string][]card.Card, len(m))
	for k, v := range m {
		out[k] = cloneCards(v)
	}
	return out
}

func cloneStringMap(m map[string][]string) map[string][]string {
	out := maps.Clone(m)
	if out == nil {
		out = make(map[string][]string)
	}
	for k, v := range out {
		out[k] = slices.Clone(v)
	}
	return out
}
