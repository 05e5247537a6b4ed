package decision

import (
	"slices"
	"strconv"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
)

// checkMoveCards recomputes a MoveCards decision: the cards the move
// filter lets the player move and whether the arrangement can be
// confirmed. A legal step-wise arrangement becomes the fallback answer.
func (s *Session) checkMoveCards() {
	st := s.st
	req := s.req
	mod, _ := s.reg.MoveCardsSkill(req.Skill)

	movable := make([]card.Card, 0, len(st.Top)+len(st.Bottom))
	for _, id := range append(slices.Clone(st.Top), st.Bottom...) {
		if !mod.MoveFilter(s.room, req.Requestor, id, st.Bottom) {
			continue
		}
		if c, ok := s.room.Card(id); ok {
			movable = append(movable, c)
		} else {
			movable = append(movable, card.Card{ID: id})
		}
	}
	st.AvailableCards[req.Requestor] = movable

	ok := len(st.Bottom) >= req.Min && len(st.Bottom) <= req.Max &&
		mod.MoveFilter(s.room, req.Requestor, -1, st.Bottom)
	st.MoveSuccess = ok
	st.OKEnabled = ok
	if ok && req.StepWise {
		s.partialMove()
	}
}

// moveCard moves the card at from to position to. Positions are 1-based;
// positive values index the top pile and negative values the bottom pile.
func (s *Session) moveCard(fromArg, toArg string) error {
	from, err := strconv.Atoi(fromArg)
	if err != nil || from == 0 {
		return reject(EventMoveCard, ErrProtocol, "bad source position %q", fromArg)
	}
	to, err := strconv.Atoi(toArg)
	if err != nil || to == 0 {
		return reject(EventMoveCard, ErrProtocol, "bad destination position %q", toArg)
	}

	st := s.st
	src := &st.Top
	index := from - 1
	if from < 0 {
		src = &st.Bottom
		index = -from - 1
	}
	if index >= len(*src) {
		return reject(EventMoveCard, ErrIllegalSelection, "no card at position %d", from)
	}
	id := (*src)[index]
	if !slices.ContainsFunc(st.AvailableCards[s.req.Requestor], func(c card.Card) bool { return c.ID == id }) {
		return reject(EventMoveCard, ErrIllegalSelection, "card %d cannot be moved", id)
	}

	*src = slices.Delete(*src, index, index+1)
	dst := &st.Top
	at := to - 1
	if to < 0 {
		dst = &st.Bottom
		at = -to - 1
	}
	if at > len(*dst) {
		return reject(EventMoveCard, ErrIllegalSelection, "destination %d out of range", to)
	}
	*dst = slices.Insert(*dst, at, id)
	s.checkMoveCards()
	return nil
}
