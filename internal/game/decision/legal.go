package decision

import (
	"slices"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
)

// resetOptions drops every partial choice and recomputes the option sets
// from the room. A pending skill restarts from an empty selection.
func (s *Session) resetOptions() {
	st := s.st
	st.clearSelection()
	st.clearGuhuo()
	clear(st.AllCards)
	clear(st.PrependPiles)
	clear(st.AppendPiles)
	st.CancelEnabled = st.Cancelable
	s.refreshSkills()

	if st.PendingSkill != nil {
		s.startPending()
		return
	}

	for _, player := range st.Requestors {
		pool := s.rawPool(player)
		st.AllCards[player] = pool
		st.AvailableCards[player] = availableCards(pool, nil, func(ctx []card.Card, c card.Card) bool {
			return len(ctx) == 0 && s.checkCardAvailable(player, c, false)
		})
	}

	if st.FirstSelection && s.req.Kind.isResponse() {
		st.FirstSelection = false
		for _, player := range st.Requestors {
			if avail := st.AvailableCards[player]; len(avail) > 0 {
				s.selectRaw(player, avail[0])
				break
			}
		}
	}
}

// rawPool lists the cards a player may pick without a skill.
func (s *Session) rawPool(player string) []card.Card {
	ids := slices.Clone(s.room.Hand(player))
	if s.req.Kind.handOnly() {
		return s.cardsOf(ids)
	}
	if s.req.Kind == KindPlayCard || s.req.Method == catalog.MethodUse || s.req.Method == catalog.MethodResponse {
		ids = append(ids, s.handPileIDs(player)...)
	}
	ids = append(ids, s.room.Equips(player)...)
	return s.cardsOf(ids)
}

// handPileIDs collects the player's hand piles and records them as
// prepended piles.
func (s *Session) handPileIDs(player string) []int {
	var ids []int
	for _, pile := range s.room.HandPiles(player) {
		pileIDs := s.room.Pile(player, pile)
		if len(pileIDs) == 0 {
			continue
		}
		ids = append(ids, pileIDs...)
		s.st.PrependPiles[player] = append(s.st.PrependPiles[player], formatPile(pile, pileIDs))
	}
	return ids
}

// refreshSkills recomputes which view-as skills each requestor may click.
func (s *Session) refreshSkills() {
	st := s.st
	clear(st.EquipSkills)
	clear(st.HeadSkills)
	clear(st.DeputySkills)
	if st.SkillInvoke || s.req.Kind.handOnly() {
		return
	}
	env := s.env()
	for _, player := range st.Requestors {
		for _, id := range s.room.Equips(player) {
			c, ok := s.room.Card(id)
			if !ok {
				continue
			}
			if skill, ok := s.reg.ViewAsSkill(c.Name); ok && skill.IsAvailable(env, player, "") {
				st.EquipSkills[player] = append(st.EquipSkills[player], skill.Name())
			}
		}
		for _, ref := range s.room.Skills(player) {
			skill, ok := s.reg.ViewAsSkill(ref.Name)
			if !ok || !skill.IsAvailable(env, player, ref.Position) {
				continue
			}
			if ref.Position == catalog.PositionDeputy {
				st.DeputySkills[player] = append(st.DeputySkills[player], ref.Name)
			} else {
				st.HeadSkills[player] = append(st.HeadSkills[player], ref.Name)
			}
		}
	}
}

// skillListed reports whether the skill is published for player at position.
func (s *Session) skillListed(player, name, position string) bool {
	st := s.st
	switch position {
	case catalog.PositionDeputy:
		return slices.Contains(st.DeputySkills[player], name)
	case catalog.PositionHead:
		return slices.Contains(st.HeadSkills[player], name)
	}
	return slices.Contains(st.HeadSkills[player], name) ||
		slices.Contains(st.EquipSkills[player], name) ||
		slices.Contains(st.DeputySkills[player], name)
}

// checkCardAvailable is the legality gate every card passes before any
// filter: it must not be in use elsewhere and must be usable for the
// decision. Equipped cards only pass as skill products (viaSkill).
func (s *Session) checkCardAvailable(player string, c card.Card, viaSkill bool) bool {
	if !c.IsVirtual() && s.room.IsUsing(c.ID) {
		return false
	}
	if !c.IsVirtual() && !viaSkill && slices.Contains(s.room.Equips(player), c.ID) {
		return false
	}
	kind := s.req.Kind
	if kind.handOnly() {
		if s.room.IsCardLimited(player, c, s.req.Method) {
			return false
		}
		return s.pattern == nil || s.pattern.Match(s.reg, s.room, player, c)
	}
	fc, ok := s.reg.Card(c.Name)
	if !ok {
		return false
	}
	switch {
	case kind == KindPlayCard:
		if s.room.IsCardLimited(player, c, s.req.Method) {
			return false
		}
		return fc.IsAvailable(s.room, player, c)
	case kind.isResponse():
		if s.room.IsCardLimited(player, c, s.req.Method) {
			return false
		}
		if s.st.SkillInvoke || fc.Type() == catalog.TypeSkill {
			return true
		}
		return s.pattern != nil && s.pattern.Match(s.reg, s.room, player, c)
	}
	return true
}

// selectRaw makes c the only selected card of player outside a skill.
func (s *Session) selectRaw(player string, c card.Card) {
	st := s.st
	prev := cloneCard(st.ViewAs)
	clear(st.SelectedCards)
	st.SelectedCards[player] = []card.Card{c}
	st.ViewAs = cloneCard(&c)
	if !sameEffective(prev, st.ViewAs) {
		st.SelectedTargets = nil
	}
	s.enableTargets()
}

// deselectRaw drops the raw selection.
func (s *Session) deselectRaw() {
	st := s.st
	clear(st.SelectedCards)
	st.ViewAs = nil
	s.enableTargets()
}

func sameEffective(a, b *card.Card) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
