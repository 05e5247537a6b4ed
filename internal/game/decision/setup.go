package decision

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
	"github.com/sgs-online/sgs-server-go/internal/game/targeting"
	"go.uber.org/zap"
)

// setup initializes the selection state for the request kind.
func (s *Session) setup() error {
	req := s.req
	st := s.st
	st.Cancelable = req.cancelable()
	st.CancelEnabled = st.Cancelable
	st.FirstSelection = s.opts.IntelSelect

	st.Requestors = []string{req.Requestor}
	if req.Requestor == "" {
		st.Requestors = append([]string(nil), req.Players...)
	}
	if len(st.Requestors) == 0 {
		return fmt.Errorf("%s has no deciding player", req.Kind)
	}

	switch req.Kind {
	case KindPlayCard, KindResponse, KindPeach, KindNullification:
		st.HighlightSkill = req.Skill
		s.applyForcedSkill()
		st.ExtraInfo = append([]string(nil), req.Info...)
		s.resetOptions()

	case KindDiscard:
		s.discard = newDiscardSkill(req.Cards, req.Min, req.Max)
		s.invokeBuiltin(s.discard)
		hasEquip := "no"
		for _, id := range req.Cards {
			if slices.Contains(s.room.Equips(req.Requestor), id) {
				hasEquip = "yes"
				break
			}
		}
		st.ExtraInfo = []string{strconv.Itoa(req.Min), strconv.Itoa(req.Max), hasEquip}
		s.resetOptions()

	case KindExchange:
		ex, err := newExchangeSkill(s.reg, req.Max, req.Min, req.ExpandPile, req.Pattern)
		if err != nil {
			return err
		}
		s.exchange = ex
		s.invokeBuiltin(ex)
		st.ExtraInfo = []string{strconv.Itoa(req.Max), strconv.Itoa(req.Min)}
		s.resetOptions()

	case KindYiji:
		s.yiji = newYijiSkill(req.Cards, req.Max, req.Targets, req.ExpandPile)
		s.invokeBuiltin(s.yiji)
		st.ExtraInfo = []string{strconv.Itoa(req.Max), strconv.FormatBool(st.Cancelable)}
		s.resetOptions()

	case KindPindian, KindShowCard:
		st.ExtraInfo = append([]string(nil), req.Info...)
		s.resetOptions()

	case KindChooseTarget:
		st.Choice = targeting.NewSelection(targeting.Requirement{
			MinTargets:  req.Min,
			MaxTargets:  req.Max,
			Description: req.Prompt,
		})
		st.AvailableTargets = s.choiceValidator().Candidates()
		st.ExtraInfo = []string{strconv.Itoa(req.Min), strconv.Itoa(req.Max)}
		if len(st.AvailableTargets) == 0 {
			return fmt.Errorf("no alive player among %v", req.Targets)
		}

	case KindExtraTarget:
		vc := *cloneCard(req.Card)
		st.ViewAs = &vc
		st.ExtraTargets = append([]string(nil), req.Selected...)
		s.checkExtraTargets()

	case KindMoveCards:
		st.Top = append([]int(nil), req.Top...)
		st.Bottom = append([]int(nil), req.Bottom...)
		if s.req.Max == 0 {
			s.req.Max = len(st.Top) + len(st.Bottom)
		}
		st.ExtraInfo = []string{strconv.Itoa(req.Min), strconv.Itoa(s.req.Max)}
		s.checkMoveCards()
	}
	return nil
}

// applyForcedSkill auto-activates the skill a request names when the
// player can use it now.
func (s *Session) applyForcedSkill() {
	name := s.req.forcedSkillName()
	if name == "" {
		return
	}
	skill, ok := s.reg.ViewAsSkill(name)
	if !ok {
		return
	}
	owner := s.st.Requestors[0]
	if !skill.IsAvailable(s.env(), owner, s.req.Position) {
		s.logger.Debug("forced skill unavailable",
			zap.String("request_id", s.req.ID),
			zap.String("skill", name),
			zap.String("player", owner),
		)
		return
	}
	st := s.st
	st.SkillInvoke = true
	st.PendingSkill = skill
	st.SkillOwner = owner
	st.SkillPosition = s.req.Position
	st.HighlightSkill = name
}

func (s *Session) invokeBuiltin(skill catalog.ViewAsSkill) {
	st := s.st
	st.SkillInvoke = true
	st.PendingSkill = skill
	st.SkillOwner = s.req.Requestor
}

// cardsOf resolves ids against the room, skipping unknown ones.
func (s *Session) cardsOf(ids []int) []card.Card {
	out := make([]card.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.room.Card(id); ok {
			out = append(out, c)
		}
	}
	return out
}
