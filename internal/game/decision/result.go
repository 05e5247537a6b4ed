package decision

import (
	"slices"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
	"go.uber.org/zap"
)

// Result is what the rules engine receives when a decision terminates.
// Only the fields of the request's kind are set:
//
//	card kinds      Player, Card, CardDescriptor, Targets
//	Discard         CardIDs (in selection order)
//	Exchange        CardIDs
//	Yiji            CardIDs, Target
//	ChooseTarget    Targets
//	ExtraTarget     Targets
//	MoveCards       Top, Bottom, Success
//
// A cancelled result has Committed false and carries the latest partial
// answer of a step-wise decision, if any, with Partial set.
type Result struct {
	RequestID      string     `json:"request_id"`
	Kind           Kind       `json:"kind"`
	Player         string     `json:"player,omitempty"`
	Committed      bool       `json:"committed"`
	Partial        bool       `json:"partial,omitempty"`
	Card           *card.Card `json:"-"`
	CardDescriptor string     `json:"card,omitempty"`
	Targets        []string   `json:"targets,omitempty"`
	Recast         bool       `json:"recast,omitempty"`
	CardIDs        []int      `json:"card_ids,omitempty"`
	Target         string     `json:"target,omitempty"`
	Top            []int      `json:"top,omitempty"`
	Bottom         []int      `json:"bottom,omitempty"`
	Success        bool       `json:"success,omitempty"`
}

func (s *Session) cancelledResult() Result {
	return Result{RequestID: s.req.ID, Kind: s.req.Kind}
}

// buildResult assembles the commit payload from the current selection.
func (s *Session) buildResult() Result {
	st := s.st
	res := Result{
		RequestID: s.req.ID,
		Kind:      s.req.Kind,
		Player:    s.actor(),
		Committed: true,
	}
	switch s.req.Kind {
	case KindChooseTarget:
		res.Targets = slices.Clone(st.Choice.Targets)
	case KindExtraTarget:
		res.Targets = slices.Clone(st.SelectedTargets)
	case KindMoveCards:
		res.Top = slices.Clone(st.Top)
		res.Bottom = slices.Clone(st.Bottom)
		res.Success = st.MoveSuccess
	case KindDiscard, KindExchange:
		if st.ViewAs != nil {
			res.CardIDs = st.ViewAs.EffectiveIDs()
		}
	case KindYiji:
		if st.ViewAs != nil {
			res.CardIDs = st.ViewAs.EffectiveIDs()
		}
		if len(st.SelectedTargets) > 0 {
			res.Target = st.SelectedTargets[0]
		}
	default:
		if st.ViewAs == nil {
			break
		}
		vc := *cloneCard(st.ViewAs)
		if st.PendingSkill != nil && vc.IsVirtual() && vc.SkillPosition == "" {
			vc.SkillPosition = st.SkillPosition
		}
		res.Card = &vc
		res.CardDescriptor = vc.Descriptor()
		if fc, ok := s.reg.Card(vc.Name); ok && !fc.TargetFixed(vc) {
			res.Targets = slices.Clone(st.SelectedTargets)
			res.Recast = len(res.Targets) == 0 && fc.CanRecast(s.room, res.Player, vc)
		}
	}
	return res
}

// reply terminates the request. A cancel returns the step-wise fallback
// when one was recorded.
func (s *Session) reply(commit bool) {
	var res Result
	switch {
	case commit:
		res = s.buildResult()
	case s.fallback != nil:
		res = *s.fallback
	default:
		res = s.cancelledResult()
	}
	s.finish(res)
}

func (s *Session) finish(res Result) {
	req := s.req
	lifecycle := LifecycleCancelled
	s.status = StatusCancelled
	if res.Committed {
		lifecycle = LifecycleCommitted
		s.status = StatusCommitted
	}

	s.results <- res
	s.results = nil
	s.req = nil
	s.st = nil
	s.room = nil
	s.fallback = nil
	s.autoCommit = false
	s.discard, s.exchange, s.yiji = nil, nil, nil

	ev := newLifecycle(lifecycle, s.client, req.ID, req.Kind)
	ev.Player = res.Player
	s.bus.Publish(ev)

	s.logger.Info("decision finished",
		zap.String("request_id", req.ID),
		zap.String("kind", req.Kind.String()),
		zap.String("player", res.Player),
		zap.Bool("committed", res.Committed),
		zap.Bool("partial", res.Partial),
		zap.String("card", res.CardDescriptor),
		zap.Strings("targets", res.Targets),
		zap.Ints("card_ids", res.CardIDs),
	)
}

// partialDiscard records the cards reserved so far as the fallback answer.
func (s *Session) partialDiscard() {
	ids := card.IDs(s.discard.reserved)
	s.fallback = &Result{
		RequestID: s.req.ID,
		Kind:      s.req.Kind,
		Player:    s.req.Requestor,
		Partial:   true,
		CardIDs:   ids,
	}
}

// partialMove records the current legal arrangement as the fallback answer.
func (s *Session) partialMove() {
	s.fallback = &Result{
		RequestID: s.req.ID,
		Kind:      s.req.Kind,
		Player:    s.req.Requestor,
		Partial:   true,
		Top:       slices.Clone(s.st.Top),
		Bottom:    slices.Clone(s.st.Bottom),
		Success:   true,
	}
}
