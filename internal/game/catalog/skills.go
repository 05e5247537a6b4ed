package catalog

import (
	"slices"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
)

// BaseSkill supplies the default view-as behavior: nothing can be selected
// and nothing is produced. Concrete skills embed it and override.
type BaseSkill struct {
	SkillName     string
	Guhuo         GuhuoType
	Pile          string
	ResponseOrUse bool
	Single        bool
}

// Name returns the skill name.
func (b BaseSkill) Name() string { return b.SkillName }

// IsAvailable accepts.
func (b BaseSkill) IsAvailable(Env, string, string) bool { return true }

// ViewFilter rejects every card.
func (b BaseSkill) ViewFilter(Env, []card.Card, card.Card, string) bool { return false }

// ViewAs produces nothing.
func (b BaseSkill) ViewAs(Env, []card.Card, string) (card.Card, bool) { return card.Card{}, false }

// GuhuoCards returns no candidates.
func (b BaseSkill) GuhuoCards(Env, []card.Card, string) []card.Card { return nil }

// GuhuoType returns the configured guhuo mode.
func (b BaseSkill) GuhuoType() GuhuoType { return b.Guhuo }

// ExpandPile returns the configured expand piles.
func (b BaseSkill) ExpandPile() string { return b.Pile }

// IsResponseOrUse reports whether hand piles are candidates.
func (b BaseSkill) IsResponseOrUse() bool { return b.ResponseOrUse }

// OneCard reports whether the skill converts exactly one card.
func (b BaseSkill) OneCard() bool { return b.Single }

// PatternAllows reports whether pattern accepts a card called name. An
// empty or malformed pattern accepts nothing.
func (r *Registry) PatternAllows(pattern, name string) bool {
	p, err := ParsePattern(pattern)
	if err != nil {
		return false
	}
	return p.AllowsName(r, name)
}

// CanProduce reports whether player may currently use or respond with a card
// called name, as a skill producing it would need.
func (r *Registry) CanProduce(env Env, player, name string) bool {
	if env.Reason == ReasonPlay {
		fc, ok := r.Card(name)
		return ok && fc.IsAvailable(env.Room, player, card.NewVirtual(name, ""))
	}
	return r.PatternAllows(env.Pattern, name)
}

func inHand(r Room, player string, c card.Card) bool {
	return !c.IsVirtual() && slices.Contains(r.Hand(player), c.ID)
}

func handCards(r Room, player string) []card.Card {
	ids := r.Hand(player)
	cards := make([]card.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.Card(id); ok {
			cards = append(cards, c)
		}
	}
	return cards
}

// convertSkill turns one raw card into a card named by convert.
type convertSkill struct {
	BaseSkill
	reg     *Registry
	convert func(env Env, player string, c card.Card) string
	usable  func(env Env, player string) bool
}

func (s convertSkill) IsAvailable(env Env, player, _ string) bool {
	return s.usable(env, player)
}

func (s convertSkill) ViewFilter(env Env, selected []card.Card, c card.Card, player string) bool {
	if len(selected) > 0 || c.IsVirtual() {
		return false
	}
	name := s.convert(env, player, c)
	return name != "" && s.reg.CanProduce(env, player, name)
}

func (s convertSkill) ViewAs(env Env, selected []card.Card, player string) (card.Card, bool) {
	if len(selected) != 1 {
		return card.Card{}, false
	}
	name := s.convert(env, player, selected[0])
	if name == "" {
		return card.Card{}, false
	}
	return card.NewVirtual(name, s.SkillName, selected[0]), true
}

type spearSkill struct {
	BaseSkill
	reg *Registry
}

func (s spearSkill) IsAvailable(env Env, player, _ string) bool {
	return len(env.Room.Hand(player)) >= 2 && s.reg.CanProduce(env, player, "Slash")
}

func (s spearSkill) ViewFilter(env Env, selected []card.Card, c card.Card, player string) bool {
	return len(selected) < 2 && inHand(env.Room, player, c)
}

func (s spearSkill) ViewAs(_ Env, selected []card.Card, _ string) (card.Card, bool) {
	if len(selected) != 2 {
		return card.Card{}, false
	}
	return card.NewVirtual("Slash", s.SkillName, selected...), true
}

// multiCardSkill spends any number of cards on a skill card.
type multiCardSkill struct {
	BaseSkill
	product  string
	handOnly bool
	usable   func(env Env, player string) bool
}

func (s multiCardSkill) IsAvailable(env Env, player, _ string) bool {
	return s.usable(env, player)
}

func (s multiCardSkill) ViewFilter(env Env, _ []card.Card, c card.Card, player string) bool {
	if c.IsVirtual() {
		return false
	}
	return !s.handOnly || inHand(env.Room, player, c)
}

func (s multiCardSkill) ViewAs(_ Env, selected []card.Card, _ string) (card.Card, bool) {
	if len(selected) == 0 {
		return card.Card{}, false
	}
	return card.NewVirtual(s.product, s.SkillName, selected...), true
}

type zeroCardSkill struct {
	BaseSkill
	product string
	usable  func(env Env, player string) bool
}

func (s zeroCardSkill) IsAvailable(env Env, player, _ string) bool {
	return s.usable(env, player)
}

func (s zeroCardSkill) ViewAs(_ Env, selected []card.Card, _ string) (card.Card, bool) {
	if len(selected) > 0 {
		return card.Card{}, false
	}
	return card.NewVirtual(s.product, s.SkillName), true
}

// guhuoSkill lets the player name any basic or trick card for one hand card.
type guhuoSkill struct {
	BaseSkill
	reg *Registry
}

func (s guhuoSkill) IsAvailable(env Env, player, _ string) bool {
	if len(env.Room.Hand(player)) == 0 {
		return false
	}
	return slices.ContainsFunc(s.reg.Names(TypeBasic, TypeTrick), func(name string) bool {
		return s.reg.CanProduce(env, player, name)
	})
}

func (s guhuoSkill) ViewFilter(env Env, selected []card.Card, c card.Card, player string) bool {
	return len(selected) == 0 && inHand(env.Room, player, c)
}

func (s guhuoSkill) GuhuoCards(env Env, selected []card.Card, player string) []card.Card {
	if len(selected) != 1 || selected[0].IsVirtual() {
		return nil
	}
	var out []card.Card
	for _, name := range s.reg.Names(TypeBasic, TypeTrick) {
		if s.reg.CanProduce(env, player, name) {
			out = append(out, card.NewVirtual(name, s.SkillName, selected[0]))
		}
	}
	return out
}

func (s guhuoSkill) ViewAs(_ Env, selected []card.Card, _ string) (card.Card, bool) {
	if len(selected) != 1 || !selected[0].IsVirtual() || selected[0].Skill != s.SkillName {
		return card.Card{}, false
	}
	return selected[0], true
}

// qiceSkill spends the whole hand as any non-delayed trick.
type qiceSkill struct {
	BaseSkill
	reg *Registry
}

func (s qiceSkill) IsAvailable(env Env, player, _ string) bool {
	return env.Reason == ReasonPlay &&
		len(env.Room.Hand(player)) > 0 &&
		env.Room.UsageCount(player, s.SkillName) < 1
}

func (s qiceSkill) GuhuoCards(env Env, _ []card.Card, player string) []card.Card {
	if env.Reason != ReasonPlay {
		return nil
	}
	hand := handCards(env.Room, player)
	if len(hand) == 0 {
		return nil
	}
	var out []card.Card
	for _, name := range s.reg.Names(TypeTrick) {
		if name == "Nullification" {
			continue
		}
		out = append(out, card.NewVirtual(name, s.SkillName, hand...))
	}
	return out
}

func (s qiceSkill) ViewAs(_ Env, selected []card.Card, _ string) (card.Card, bool) {
	if len(selected) != 1 || !selected[0].IsVirtual() || selected[0].Skill != s.SkillName {
		return card.Card{}, false
	}
	return selected[0], true
}

type guanxingSkill struct{}

func (guanxingSkill) Name() string { return "guanxing" }

func (guanxingSkill) MoveFilter(Room, string, int, []int) bool { return true }

// halberdSkill lets a Slash hit up to two more players.
type halberdSkill struct {
	reg *Registry
}

func (halberdSkill) Name() string { return "Halberd" }

func (h halberdSkill) CheckExtraTargets(_ Room, from, to string, c card.Card, previous, current []string) bool {
	return h.reg.IsKindOf(c.Name, "Slash") &&
		len(current) < 2 &&
		to != from &&
		!slices.Contains(previous, to)
}

func inPlay(env Env, player string) bool {
	if env.Reason != ReasonPlay {
		return false
	}
	p, ok := env.Room.Player(player)
	return ok && p.Phase == PhasePlay
}

func standardSkills(reg *Registry) []ViewAsSkill {
	red := func(want string) func(Env, string, card.Card) string {
		return func(_ Env, _ string, c card.Card) string {
			if c.Suit.IsRed() {
				return want
			}
			return ""
		}
	}
	return []ViewAsSkill{
		convertSkill{
			BaseSkill: BaseSkill{SkillName: "wusheng", ResponseOrUse: true, Single: true},
			reg:       reg,
			convert:   red("Slash"),
			usable: func(env Env, player string) bool {
				return reg.CanProduce(env, player, "Slash")
			},
		},
		convertSkill{
			BaseSkill: BaseSkill{SkillName: "longdan", ResponseOrUse: true, Single: true},
			reg:       reg,
			convert: func(_ Env, _ string, c card.Card) string {
				switch {
				case reg.IsKindOf(c.Name, "Jink"):
					return "Slash"
				case reg.IsKindOf(c.Name, "Slash"):
					return "Jink"
				}
				return ""
			},
			usable: func(env Env, player string) bool {
				return reg.CanProduce(env, player, "Slash") || reg.CanProduce(env, player, "Jink")
			},
		},
		convertSkill{
			BaseSkill: BaseSkill{SkillName: "qixi", ResponseOrUse: true, Single: true},
			reg:       reg,
			convert: func(_ Env, _ string, c card.Card) string {
				if c.Suit.IsBlack() {
					return "Dismantlement"
				}
				return ""
			},
			usable: inPlay,
		},
		convertSkill{
			BaseSkill: BaseSkill{SkillName: "jijiu", ResponseOrUse: true, Single: true},
			reg:       reg,
			convert:   red("Peach"),
			usable: func(env Env, player string) bool {
				p, ok := env.Room.Player(player)
				return ok && p.Phase == PhaseNotActive && env.Reason != ReasonPlay &&
					reg.PatternAllows(env.Pattern, "Peach")
			},
		},
		convertSkill{
			BaseSkill: BaseSkill{SkillName: "jixi", Pile: "field", Single: true},
			reg:       reg,
			convert: func(env Env, player string, c card.Card) string {
				if slices.Contains(env.Room.Pile(player, "field"), c.ID) {
					return "Snatch"
				}
				return ""
			},
			usable: func(env Env, player string) bool {
				return inPlay(env, player) && len(env.Room.Pile(player, "field")) > 0
			},
		},
		spearSkill{BaseSkill: BaseSkill{SkillName: "Spear", ResponseOrUse: true}, reg: reg},
		multiCardSkill{
			BaseSkill: BaseSkill{SkillName: "zhiheng"},
			product:   "ZhihengCard",
			usable: func(env Env, player string) bool {
				return inPlay(env, player) && env.Room.UsageCount(player, "ZhihengCard") < 1
			},
		},
		multiCardSkill{
			BaseSkill: BaseSkill{SkillName: "rende"},
			product:   "RendeCard",
			handOnly:  true,
			usable: func(env Env, player string) bool {
				return inPlay(env, player) && len(env.Room.Hand(player)) > 0
			},
		},
		zeroCardSkill{
			BaseSkill: BaseSkill{SkillName: "kurou"},
			product:   "KurouCard",
			usable:    inPlay,
		},
		guhuoSkill{BaseSkill: BaseSkill{SkillName: "guhuo", Guhuo: GuhuoPopUpBox}, reg: reg},
		qiceSkill{BaseSkill: BaseSkill{SkillName: "qice", Guhuo: GuhuoVirtualCardList}, reg: reg},
	}
}
