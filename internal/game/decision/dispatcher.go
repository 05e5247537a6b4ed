package decision

import (
	"slices"
	"strings"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
)

// dispatch routes an arity-checked event to its handler. Handlers return a
// *RejectError for anything outside the published option sets; the caller
// restores the state in that case.
func (s *Session) dispatch(ev Event) error {
	args := ev.Args
	switch ev.Kind {
	case EventCardPick:
		auto, err := parseFlag(args[2])
		if err != nil {
			return reject(ev.Kind, ErrProtocol, "%v", err)
		}
		s.st.AutoTarget = auto
		return s.onCardPick(args[0], args[1])

	case EventTargetPick:
		return s.onTargetPick(args[0])

	case EventSkillPick:
		auto, err := parseFlag(args[3])
		if err != nil {
			return reject(ev.Kind, ErrProtocol, "%v", err)
		}
		s.st.AutoTarget = auto
		return s.onSkillPick(ev.Kind, args[0], args[1], args[2])

	case EventSystemButton:
		confirm, err := parseFlag(args[0])
		if err != nil {
			return reject(ev.Kind, ErrProtocol, "%v", err)
		}
		if confirm {
			return s.onConfirm()
		}
		return s.onCancel()

	case EventDoubleClick:
		return s.onDoubleClick(args[0], args[1], args[2])

	case EventSwitchCards:
		return s.onSwitchCards(args[0], args[1])

	case EventSpecialDialogChoice:
		owner := s.st.SkillOwner
		if owner == "" {
			owner = s.actor()
		}
		return s.onSkillPick(ev.Kind, owner, args[0], s.st.SkillPosition)

	case EventMoveCard:
		if s.req.Kind != KindMoveCards {
			return reject(ev.Kind, ErrProtocol, "%s does not move cards", s.req.Kind)
		}
		return s.moveCard(args[0], args[1])

	case EventDashboardChange:
		return s.onDashboardChange()
	}
	return reject(ev.Kind, ErrProtocol, "unhandled event")
}

func (s *Session) onCardPick(player, descriptor string) error {
	if !s.req.Kind.cardFlow() {
		return reject(EventCardPick, ErrProtocol, "%s does not select cards", s.req.Kind)
	}
	if !s.isRequestor(player) {
		return reject(EventCardPick, ErrIllegalSelection, "%s is not deciding", player)
	}
	pick, err := card.Parse(descriptor)
	if err != nil {
		return reject(EventCardPick, ErrProtocol, "%v", err)
	}

	st := s.st
	if st.PendingSkill == nil {
		return s.pickRaw(player, pick)
	}
	if player != st.SkillOwner {
		return reject(EventCardPick, ErrIllegalSelection, "%s does not own %s", player, st.PendingSkill.Name())
	}
	if pick.IsVirtual() {
		return s.pickGuhuo(pick)
	}
	return s.pickForSkill(pick)
}

// pickRaw toggles a card outside any skill. Only one card is ever selected.
func (s *Session) pickRaw(player string, pick card.Card) error {
	st := s.st
	if card.Contains(st.SelectedCards[player], pick) {
		s.deselectRaw()
		return nil
	}
	i := card.Index(st.AvailableCards[player], pick)
	if i < 0 {
		return reject(EventCardPick, ErrIllegalSelection, "card %s is not available", pick)
	}
	s.selectRaw(player, st.AvailableCards[player][i])
	return nil
}

// pickForSkill toggles a raw card in the pending skill's selection.
func (s *Session) pickForSkill(pick card.Card) error {
	st := s.st
	owner := st.SkillOwner
	selected := st.SelectedCards[owner]
	if i := card.Index(selected, pick); i >= 0 {
		st.SelectedCards[owner] = slices.Delete(slices.Clone(selected), i, i+1)
		s.updatePending()
		return nil
	}
	if s.listingGuhuo() {
		return reject(EventCardPick, ErrIllegalSelection, "%s offers its card list only", st.PendingSkill.Name())
	}
	i := card.Index(st.AvailableCards[owner], pick)
	if i < 0 || st.AvailableCards[owner][i].IsVirtual() {
		return reject(EventCardPick, ErrIllegalSelection, "card %s is not available", pick)
	}
	c := st.AvailableCards[owner][i]
	env := s.env()
	if len(selected) > 0 && !st.PendingSkill.ViewFilter(env, selected, c, owner) {
		selected = selected[:len(selected)-1]
	}
	st.SelectedCards[owner] = append(slices.Clone(selected), c)
	s.updatePending()
	return nil
}

// pickGuhuo toggles the guhuo candidate the client named.
func (s *Session) pickGuhuo(pick card.Card) error {
	st := s.st
	g, ok := s.resolveGuhuo(pick)
	if !ok {
		return reject(EventCardPick, ErrIllegalSelection, "%s is not a guhuo candidate", pick.Name)
	}
	if st.SelectedGuhuo != nil && st.SelectedGuhuo.Equal(g) {
		st.SelectedGuhuo = nil
	} else {
		st.SelectedGuhuo = &g
	}
	s.updatePending()
	return nil
}

func (s *Session) onTargetPick(target string) error {
	switch s.req.Kind {
	case KindChooseTarget:
		return s.clickChoice(target)
	case KindExtraTarget:
		return s.clickExtraTarget(target)
	case KindMoveCards:
		return reject(EventTargetPick, ErrProtocol, "%s takes no targets", s.req.Kind)
	}
	return s.clickTarget(target)
}

func (s *Session) onSkillPick(kind EventKind, player, name, position string) error {
	st := s.st
	if !s.req.Kind.cardFlow() || s.req.Kind.handOnly() {
		return reject(kind, ErrSkillUnavailable, "%s allows no skills", s.req.Kind)
	}
	if st.SkillInvoke {
		return reject(kind, ErrSkillUnavailable, "%s is forced", st.PendingSkill.Name())
	}
	if !s.isRequestor(player) {
		return reject(kind, ErrIllegalSelection, "%s is not deciding", player)
	}
	if st.PendingSkill != nil && st.PendingSkill.Name() == name && st.SkillOwner == player {
		s.leaveSkill()
		return nil
	}
	if !s.skillListed(player, name, position) {
		return reject(kind, ErrSkillUnavailable, "%s cannot use %s now", player, name)
	}
	skill, ok := s.reg.ViewAsSkill(name)
	if !ok {
		return reject(kind, ErrSkillUnavailable, "unknown skill %s", name)
	}
	st.FirstPending = s.opts.IntelSelect
	s.activateSkill(skill, player, position)
	return nil
}

func (s *Session) onConfirm() error {
	st := s.st
	if !st.OKEnabled {
		return reject(EventSystemButton, ErrNotReady, "confirm is disabled")
	}
	if s.req.Kind == KindDiscard && s.req.StepWise {
		owner := st.SkillOwner
		s.discard.reserve(st.SelectedCards[owner])
		s.partialDiscard()
		if !s.discard.full() {
			s.resetOptions()
			// A pool with nothing left to reserve commits what was reserved.
			if len(st.AvailableCards[owner]) > 0 {
				return nil
			}
		}
		res := *s.fallback
		res.Committed = true
		res.Partial = false
		s.finish(res)
		return nil
	}
	if s.req.Kind == KindChooseTarget {
		if err := s.validateChoice(EventSystemButton); err != nil {
			return err
		}
	}
	s.reply(true)
	return nil
}

func (s *Session) onCancel() error {
	st := s.st
	if !st.Cancelable {
		return reject(EventSystemButton, ErrNotCancelable, "%s cannot be cancelled", s.req.Kind)
	}
	if st.PendingSkill != nil && !st.SkillInvoke {
		s.leaveSkill()
		return nil
	}
	s.reply(false)
	return nil
}

func (s *Session) onDoubleClick(player, descriptor, target string) error {
	st := s.st
	if s.req.Kind == KindChooseTarget {
		if target == "" || !slices.Contains(st.AvailableTargets, target) {
			return reject(EventDoubleClick, ErrIllegalSelection, "%q is not selectable", target)
		}
		chosen := st.Choice.Targets
		if s.req.Min > 1 || (len(chosen) > 0 && !slices.Equal(chosen, []string{target})) {
			return reject(EventDoubleClick, ErrNotReady, "double click needs a single target choice")
		}
		st.Choice.Targets = []string{target}
		if err := s.validateChoice(EventDoubleClick); err != nil {
			return err
		}
		s.reply(true)
		return nil
	}
	if !s.req.Kind.cardFlow() {
		return reject(EventDoubleClick, ErrProtocol, "%s has no double click", s.req.Kind)
	}

	if descriptor != "" {
		pick, err := card.Parse(descriptor)
		if err != nil {
			return reject(EventDoubleClick, ErrProtocol, "%v", err)
		}
		if !card.Contains(st.SelectedCards[player], pick) {
			if err := s.onCardPick(player, descriptor); err != nil {
				return err
			}
		}
	}
	if target != "" {
		return s.doubleClickTarget(target)
	}
	if st.ViewAs == nil || !st.OKEnabled {
		return reject(EventDoubleClick, ErrNotReady, "selection is not complete")
	}
	return s.onConfirm()
}

// onSwitchCards replaces the whole card selection of player.
func (s *Session) onSwitchCards(player, list string) error {
	if !s.req.Kind.cardFlow() {
		return reject(EventSwitchCards, ErrProtocol, "%s does not select cards", s.req.Kind)
	}
	if !s.isRequestor(player) {
		return reject(EventSwitchCards, ErrIllegalSelection, "%s is not deciding", player)
	}
	var picks []string
	for _, descriptor := range strings.Split(list, ",") {
		if descriptor = strings.TrimSpace(descriptor); descriptor != "" {
			picks = append(picks, descriptor)
		}
	}
	st := s.st
	if st.PendingSkill == nil && len(picks) > 1 {
		return reject(EventSwitchCards, ErrIllegalSelection, "only one card can be selected without a skill")
	}
	if st.PendingSkill == nil {
		clear(st.SelectedCards)
		st.ViewAs = nil
		s.enableTargets()
	} else {
		st.SelectedCards[st.SkillOwner] = nil
		st.SelectedGuhuo = nil
		s.updatePending()
	}
	for _, descriptor := range picks {
		pick, err := card.Parse(descriptor)
		if err != nil {
			return reject(EventSwitchCards, ErrProtocol, "%v", err)
		}
		if card.Contains(st.SelectedCards[player], pick) {
			continue
		}
		before := len(st.SelectedCards[player])
		if err := s.onCardPick(player, descriptor); err != nil {
			return err
		}
		if !pick.IsVirtual() && len(st.SelectedCards[player]) <= before && st.PendingSkill != nil {
			return reject(EventSwitchCards, ErrIllegalSelection, "card %s does not fit the selection", descriptor)
		}
	}
	return nil
}

func (s *Session) onDashboardChange() error {
	st := s.st
	if st.PendingSkill != nil && !st.SkillInvoke {
		s.leaveSkill()
		return nil
	}
	switch s.req.Kind {
	case KindChooseTarget, KindExtraTarget, KindMoveCards:
		return nil
	}
	s.resetOptions()
	return nil
}
