package decision

import (
	"slices"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
	"github.com/sgs-online/sgs-server-go/internal/game/targeting"
)

// Player flags that pin the first Slash target.
const (
	flagSlashFixToOne = "slashTargetFixToOne"
	flagSlashAssignee = "SlashAssignee"
)

// needsTargets reports whether the effective card is used against targets
// in this decision. Responses that are not uses never pick targets.
func (s *Session) needsTargets(fc catalog.FunctionCard, vc card.Card) bool {
	if fc.TargetFixed(vc) {
		return false
	}
	return s.req.Kind == KindPlayCard || s.req.Method == catalog.MethodUse || fc.Type() == catalog.TypeSkill
}

// enableTargets revalidates the selected targets of the effective card,
// recomputes the target options and the confirm button.
func (s *Session) enableTargets() {
	st := s.st
	if st.ViewAs == nil {
		st.SelectedTargets = nil
		st.AvailableTargets = nil
		st.OKEnabled = false
		return
	}
	vc := *st.ViewAs
	actor := s.actor()
	fc, ok := s.reg.Card(vc.Name)
	if !ok || !s.checkCardAvailable(actor, vc, st.PendingSkill != nil) {
		st.SelectedTargets = nil
		st.AvailableTargets = nil
		st.OKEnabled = false
		return
	}

	if !s.needsTargets(fc, vc) {
		st.SelectedTargets = nil
		st.AvailableTargets = nil
		st.OKEnabled = true
		if st.PendingSkill != nil && !st.SkillInvoke && !s.beginning &&
			len(st.SelectedCards[actor]) == 0 && st.SelectedGuhuo == nil && len(vc.SubCards) == 0 {
			s.autoCommit = true
		}
		return
	}

	filter := func(ctx []string, to string) bool {
		return fc.TargetFilter(s.room, ctx, to, actor, vc)
	}
	alive := s.room.AlivePlayers()

	kept := make([]string, 0, len(st.SelectedTargets))
	for _, t := range st.SelectedTargets {
		if slices.Contains(alive, t) && filter(kept, t) {
			kept = append(kept, t)
		}
	}

	if len(kept) == 0 && s.reg.IsKindOf(vc.Name, "Slash") {
		if p, ok := s.room.Player(actor); ok && p.HasFlag(flagSlashFixToOne) {
			for _, name := range alive {
				if target, ok := s.room.Player(name); ok && target.HasFlag(flagSlashAssignee) && filter(kept, name) {
					kept = append(kept, name)
					break
				}
			}
		}
	}

	available := s.targetOptions(fc, alive, kept, filter)
	if len(kept) == 0 && (st.AutoTarget || s.opts.AutoTarget) && len(available) == 1 && !fc.CanRecast(s.room, actor, vc) {
		kept = append(kept, available[0])
		available = s.targetOptions(fc, alive, kept, filter)
	}

	st.SelectedTargets = kept
	st.AvailableTargets = available
	st.OKEnabled = fc.TargetsFeasible(s.room, kept, actor, vc) ||
		(len(kept) == 0 && fc.CanRecast(s.room, actor, vc))
}

func (s *Session) targetOptions(fc catalog.FunctionCard, alive, selected []string, filter func([]string, string) bool) []string {
	if fc.Votes() {
		return filterPool(alive, slices.Clone(selected), filter)
	}
	return availableTargets(alive, selected, filter)
}

// clickTarget toggles target in the selection of the effective card.
func (s *Session) clickTarget(target string) error {
	st := s.st
	if st.ViewAs == nil {
		return reject(EventTargetPick, ErrIllegalSelection, "no card selected")
	}
	vc := *st.ViewAs
	fc, ok := s.reg.Card(vc.Name)
	if !ok || !s.needsTargets(fc, vc) {
		return reject(EventTargetPick, ErrIllegalSelection, "%s takes no targets", vc.Name)
	}
	actor := s.actor()
	selected := st.SelectedTargets

	switch {
	case slices.Contains(st.AvailableTargets, target):
		if !fc.Votes() || !slices.Contains(selected, target) {
			if !fc.TargetFilter(s.room, selected, target, actor, vc) && len(selected) > 0 {
				selected = selected[:len(selected)-1]
			}
		}
		st.SelectedTargets = append(slices.Clone(selected), target)
	case slices.Contains(selected, target):
		i := slices.Index(selected, target)
		if fc.Votes() {
			i = lastIndex(selected, target)
		}
		st.SelectedTargets = slices.Delete(slices.Clone(selected), i, i+1)
	default:
		return reject(EventTargetPick, ErrIllegalSelection, "%s is not a legal target", target)
	}
	s.enableTargets()
	return nil
}

// doubleClickTarget commits the effective card against target alone.
func (s *Session) doubleClickTarget(target string) error {
	st := s.st
	if st.ViewAs == nil {
		return reject(EventDoubleClick, ErrIllegalSelection, "no card selected")
	}
	vc := *st.ViewAs
	fc, ok := s.reg.Card(vc.Name)
	if !ok || !s.needsTargets(fc, vc) {
		return reject(EventDoubleClick, ErrIllegalSelection, "%s takes no targets", vc.Name)
	}
	actor := s.actor()
	single := []string{target}
	if !slices.Contains(st.AvailableTargets, target) && !slices.Contains(st.SelectedTargets, target) {
		return reject(EventDoubleClick, ErrIllegalSelection, "%s is not a legal target", target)
	}
	if !fc.TargetFilter(s.room, nil, target, actor, vc) || !fc.TargetsFeasible(s.room, single, actor, vc) {
		return reject(EventDoubleClick, ErrNotReady, "%s alone does not complete %s", target, vc.Name)
	}
	st.SelectedTargets = single
	st.AvailableTargets = nil
	st.OKEnabled = true
	s.reply(true)
	return nil
}

// checkExtraTargets recomputes the options of an ExtraTarget decision:
// alive players the card does not target yet, admitted by both the
// target-mod skill and the card's extra-target filter.
func (s *Session) checkExtraTargets() {
	st := s.st
	pool := make([]string, 0)
	for _, p := range s.room.AlivePlayers() {
		if !slices.Contains(st.ExtraTargets, p) {
			pool = append(pool, p)
		}
	}
	st.AvailableTargets = availableTargets(pool, st.SelectedTargets, s.extraTargetAccepts)
	st.OKEnabled = len(st.SelectedTargets) > 0
}

func (s *Session) extraTargetAccepts(ctx []string, to string) bool {
	st := s.st
	vc := *st.ViewAs
	mod, _ := s.reg.TargetModSkill(s.req.Skill)
	fc, _ := s.reg.Card(vc.Name)
	all := append(slices.Clone(st.ExtraTargets), ctx...)
	return mod.CheckExtraTargets(s.room, s.req.Requestor, to, vc, st.ExtraTargets, ctx) &&
		fc.ExtraTargetFilter(s.room, all, to, s.req.Requestor, vc)
}

func (s *Session) clickExtraTarget(target string) error {
	st := s.st
	selected := st.SelectedTargets
	switch {
	case slices.Contains(selected, target):
		i := slices.Index(selected, target)
		st.SelectedTargets = slices.Delete(slices.Clone(selected), i, i+1)
	case slices.Contains(st.AvailableTargets, target):
		if len(selected) > 0 && !s.extraTargetAccepts(selected, target) {
			selected = selected[:len(selected)-1]
		}
		st.SelectedTargets = append(slices.Clone(selected), target)
	default:
		return reject(EventTargetPick, ErrIllegalSelection, "%s cannot be added", target)
	}
	s.checkExtraTargets()
	return nil
}

// clickChoice toggles a ChooseTarget pick. Candidates are re-read from the
// room so players who died meanwhile drop out; a chosen one can still be
// deselected.
func (s *Session) clickChoice(target string) error {
	st := s.st
	st.AvailableTargets = s.choiceValidator().Candidates()
	if !slices.Contains(st.AvailableTargets, target) && !slices.Contains(st.Choice.Targets, target) {
		return reject(EventTargetPick, ErrIllegalSelection, "%s is not selectable", target)
	}
	st.Choice.Toggle(target)
	st.OKEnabled = st.Choice.IsComplete()
	return nil
}

func (s *Session) choiceValidator() *targeting.Validator {
	return targeting.NewValidator(s.room, s.req.Targets)
}

// validateChoice checks the chosen players against the room at commit time.
func (s *Session) validateChoice(kind EventKind) error {
	if err := s.choiceValidator().ValidateSelection(s.st.Choice); err != nil {
		return reject(kind, ErrIllegalSelection, "%v", err)
	}
	return nil
}

func lastIndex(items []string, v string) int {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i] == v {
			return i
		}
	}
	return -1
}
