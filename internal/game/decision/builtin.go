package decision

import (
	"slices"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
	"github.com/sgs-online/sgs-server-go/internal/game/targeting"
)

// Built-in skills drive the card-selection decisions that are not card uses.
const (
	discardSkillName  = "discard"
	exchangeSkillName = "exchange"
	yijiSkillName     = "yiji"
)

// discardSkill selects between min and max of the offered cards. Cards
// reserved by earlier step-wise confirms stay out of the pool and count
// towards the bound.
type discardSkill struct {
	catalog.BaseSkill
	candidates []int
	min, max   int
	reserved   []card.Card
}

func newDiscardSkill(candidates []int, min, max int) *discardSkill {
	return &discardSkill{
		BaseSkill:  catalog.BaseSkill{SkillName: discardSkillName},
		candidates: candidates,
		min:        min,
		max:        max,
	}
}

func (s *discardSkill) ViewFilter(_ catalog.Env, selected []card.Card, c card.Card, _ string) bool {
	if c.IsVirtual() || !slices.Contains(s.candidates, c.ID) {
		return false
	}
	if card.Contains(s.reserved, c) {
		return false
	}
	return len(s.reserved)+len(selected) < s.max
}

func (s *discardSkill) ViewAs(_ catalog.Env, selected []card.Card, _ string) (card.Card, bool) {
	if len(selected) == 0 || len(s.reserved)+len(selected) < s.min {
		return card.Card{}, false
	}
	subs := append(slices.Clone(s.reserved), selected...)
	return card.NewVirtual(catalog.DummyCardName, discardSkillName, subs...), true
}

func (s *discardSkill) reserve(cards []card.Card) {
	s.reserved = append(s.reserved, cards...)
}

func (s *discardSkill) full() bool {
	return len(s.reserved) >= s.max
}

// exchangeSkill selects up to num cards matching an optional pattern.
type exchangeSkill struct {
	catalog.BaseSkill
	reg     *catalog.Registry
	num     int
	min     int
	pattern *catalog.Pattern
}

func newExchangeSkill(reg *catalog.Registry, num, min int, pile, pattern string) (*exchangeSkill, error) {
	s := &exchangeSkill{
		BaseSkill: catalog.BaseSkill{SkillName: exchangeSkillName, Pile: pile},
		reg:       reg,
		num:       num,
		min:       min,
	}
	if pattern != "" {
		p, err := catalog.ParsePattern(pattern)
		if err != nil {
			return nil, err
		}
		s.pattern = &p
	}
	return s, nil
}

func (s *exchangeSkill) ViewFilter(env catalog.Env, selected []card.Card, c card.Card, player string) bool {
	if c.IsVirtual() || len(selected) >= s.num {
		return false
	}
	return s.pattern == nil || s.pattern.Match(s.reg, env.Room, player, c)
}

func (s *exchangeSkill) ViewAs(_ catalog.Env, selected []card.Card, _ string) (card.Card, bool) {
	if len(selected) == 0 || len(selected) < s.min {
		return card.Card{}, false
	}
	return card.NewVirtual(catalog.DummyCardName, exchangeSkillName, selected...), true
}

// yijiSkill hands up to max of the offered cards to one of the recipients.
type yijiSkill struct {
	catalog.BaseSkill
	candidates []int
	max        int
	targets    []string
}

func newYijiSkill(candidates []int, max int, targets []string, pile string) *yijiSkill {
	return &yijiSkill{
		BaseSkill:  catalog.BaseSkill{SkillName: yijiSkillName, Pile: pile},
		candidates: candidates,
		max:        max,
		targets:    targets,
	}
}

func (s *yijiSkill) ViewFilter(_ catalog.Env, selected []card.Card, c card.Card, _ string) bool {
	return !c.IsVirtual() && slices.Contains(s.candidates, c.ID) && len(selected) < s.max
}

func (s *yijiSkill) ViewAs(_ catalog.Env, selected []card.Card, _ string) (card.Card, bool) {
	if len(selected) == 0 {
		return card.Card{}, false
	}
	c := card.NewVirtual(catalog.YijiCardName, yijiSkillName, selected...)
	c.UserString = targeting.FormatTargets(s.targets)
	return c, true
}
