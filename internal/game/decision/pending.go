package decision

import (
	"slices"
	"strings"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
)

// startPending builds the candidate pool of the pending skill and computes
// its first option set.
func (s *Session) startPending() {
	st := s.st
	skill := st.PendingSkill
	owner := st.SkillOwner
	st.CancelEnabled = st.Cancelable

	var ids []int
	switch {
	case s.req.Kind == KindDiscard || s.req.Kind == KindYiji:
		ids = slices.Clone(s.req.Cards)
	default:
		ids = slices.Clone(s.room.Hand(owner))
		if skill.IsResponseOrUse() {
			ids = append(ids, s.handPileIDs(owner)...)
		}
		ids = append(ids, s.room.Equips(owner)...)
	}
	ids = append(ids, s.expandPiles(owner, skill.ExpandPile())...)
	st.AllCards[owner] = s.cardsOf(dedupe(ids))

	st.FirstPending = s.opts.IntelSelect
	s.updatePending()
}

// expandPiles resolves a skill's expand piles. "%name" gathers the pile
// from every alive player, "name" reads the owner's own pile.
func (s *Session) expandPiles(owner, spec string) []int {
	if spec == "" {
		return nil
	}
	var ids []int
	for _, name := range strings.Split(spec, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var pileIDs []int
		if shared, ok := strings.CutPrefix(name, "%"); ok {
			for _, p := range s.room.AlivePlayers() {
				pileIDs = append(pileIDs, s.room.Pile(p, shared)...)
			}
			name = shared
		} else {
			pileIDs = s.room.Pile(owner, name)
		}
		if len(pileIDs) == 0 {
			continue
		}
		ids = append(ids, pileIDs...)
		s.st.AppendPiles[owner] = append(s.st.AppendPiles[owner], formatPile(name, pileIDs))
	}
	return ids
}

// rawUsable gates raw cards offered to a skill.
func (s *Session) rawUsable(player string, c card.Card) bool {
	if c.IsVirtual() {
		return false
	}
	return !s.room.IsUsing(c.ID) && !s.room.IsCardLimited(player, c, s.req.Method)
}

// updatePending recomputes the available raw cards, the guhuo candidates
// and the effective card of the pending skill from the current selection.
func (s *Session) updatePending() {
	st := s.st
	skill := st.PendingSkill
	owner := st.SkillOwner
	env := s.env()
	prev := cloneCard(st.ViewAs)

	accept := func(ctx []card.Card, c card.Card) bool {
		return s.rawUsable(owner, c) && skill.ViewFilter(env, ctx, c, owner)
	}
	selected := st.SelectedCards[owner]
	available := availableCards(st.AllCards[owner], selected, accept)

	// Preselect the only sensible card of a one-card skill.
	if st.FirstPending && len(selected) == 0 {
		st.FirstPending = false
		if one, ok := skill.(catalog.OneCardSkill); ok && one.OneCard() && len(available) > 0 {
			trial := []card.Card{available[0]}
			if len(skill.GuhuoCards(env, trial, owner)) == 0 {
				if _, ok := skill.ViewAs(env, trial, owner); ok {
					st.SelectedCards[owner] = trial
					selected = trial
					available = availableCards(st.AllCards[owner], selected, accept)
				}
			}
		}
	}

	st.ViewAs = nil
	st.Guhuo = nil
	if skill.GuhuoType() != catalog.GuhuoNone {
		for _, g := range skill.GuhuoCards(env, selected, owner) {
			if s.checkCardAvailable(owner, g, true) {
				st.Guhuo = append(st.Guhuo, g)
			}
		}
		if st.SelectedGuhuo != nil && !card.Contains(st.Guhuo, *st.SelectedGuhuo) {
			st.SelectedGuhuo = nil
		}
	} else {
		st.SelectedGuhuo = nil
	}

	switch {
	case st.SelectedGuhuo != nil:
		if vc, ok := skill.ViewAs(env, []card.Card{*st.SelectedGuhuo}, owner); ok {
			st.ViewAs = &vc
		}
	case len(st.Guhuo) > 0:
		// The raw selection alone is ambiguous; a guhuo pick is required.
	default:
		if vc, ok := skill.ViewAs(env, selected, owner); ok {
			st.ViewAs = &vc
		}
	}
	if st.ViewAs != nil && st.ViewAs.IsVirtual() && st.ViewAs.SkillPosition == "" {
		st.ViewAs.SkillPosition = st.SkillPosition
	}

	// A published virtual card list replaces the raw cards; pop-up box
	// candidates stay in the guhuo list only.
	if s.listingGuhuo() {
		st.AvailableCards[owner] = slices.Clone(st.Guhuo)
	} else {
		st.AvailableCards[owner] = available
	}
	if !sameEffective(prev, st.ViewAs) {
		st.SelectedTargets = nil
	}
	s.enableTargets()
}

// listingGuhuo reports whether the pending skill currently offers its
// virtual card list instead of raw cards.
func (s *Session) listingGuhuo() bool {
	st := s.st
	return st.PendingSkill != nil &&
		st.PendingSkill.GuhuoType() == catalog.GuhuoVirtualCardList &&
		len(st.Guhuo) > 0
}

// resolveGuhuo maps a client pick onto the published guhuo candidates: an
// exact card match first, then an exact name, then (pop-up boxes only) a
// card of the named family.
func (s *Session) resolveGuhuo(pick card.Card) (card.Card, bool) {
	st := s.st
	if i := card.Index(st.Guhuo, pick); i >= 0 {
		return st.Guhuo[i], true
	}
	for _, g := range st.Guhuo {
		if g.Name == pick.Name {
			return g, true
		}
	}
	if st.PendingSkill.GuhuoType() != catalog.GuhuoPopUpBox {
		return card.Card{}, false
	}
	for _, g := range st.Guhuo {
		if s.reg.IsKindOf(g.Name, pick.Name) {
			return g, true
		}
	}
	return card.Card{}, false
}

// activateSkill makes skill pending for player, replacing any manual skill.
func (s *Session) activateSkill(skill catalog.ViewAsSkill, player, position string) {
	st := s.st
	st.PendingSkill = skill
	st.SkillOwner = player
	st.SkillPosition = position
	s.resetOptions()
}

// leaveSkill abandons a manually activated skill and returns to plain
// selection.
func (s *Session) leaveSkill() {
	st := s.st
	st.PendingSkill = nil
	st.SkillOwner = ""
	st.SkillPosition = ""
	s.resetOptions()
}

func dedupe(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
