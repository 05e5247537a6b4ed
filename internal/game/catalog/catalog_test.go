package catalog_test

import (
	"testing"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
	"github.com/sgs-online/sgs-server-go/internal/game/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newRoom(t *testing.T) (*table.Table, map[string]card.Card) {
	t.Helper()
	room := table.New(zaptest.NewLogger(t))
	for _, name := range []string{"liubei", "guanyu", "zhangfei"} {
		require.NoError(t, room.AddPlayer(name, 4))
	}
	cards := map[string]card.Card{
		"redJink":    room.NewCard("Jink", card.Heart, 2),
		"blackSlash": room.NewCard("Slash", card.Spade, 7),
		"peach":      room.NewCard("Peach", card.Diamond, 12),
		"spear":      room.NewCard("Spear", card.Spade, 12),
		"field":      room.NewCard("Duel", card.Club, 1),
	}
	require.NoError(t, room.Deal("liubei", cards["redJink"].ID, cards["blackSlash"].ID, cards["peach"].ID))
	require.NoError(t, room.Equip("liubei", cards["spear"].ID))
	require.NoError(t, room.AddToPile("liubei", "field", cards["field"].ID))
	require.NoError(t, room.SetPhase("liubei", catalog.PhasePlay))
	return room, cards
}

func TestPatternMatch(t *testing.T) {
	reg := catalog.NewStandard()
	room, cards := newRoom(t)

	tests := []struct {
		pattern string
		card    string
		want    bool
	}{
		{"Slash", "blackSlash", true},
		{"Jink", "blackSlash", false},
		{"Peach,Analeptic", "peach", true},
		{".|red", "redJink", true},
		{".|red", "blackSlash", false},
		{".|.|10~13", "peach", true},
		{".|.|A~9", "peach", false},
		{".|.|.|hand", "peach", true},
		{".|.|.|hand", "spear", false},
		{".|.|.|equipped", "spear", true},
		{"^Jink", "redJink", false},
		{"^Jink", "peach", true},
		{"Jink#.|black", "blackSlash", true},
		{"Slash!", "blackSlash", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.card, func(t *testing.T) {
			p, err := catalog.ParsePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Match(reg, room, "liubei", cards[tt.card]))
		})
	}
}

func TestPatternFamilies(t *testing.T) {
	reg := catalog.NewStandard()

	assert.True(t, reg.PatternAllows("Slash", "FireSlash"))
	assert.False(t, reg.PatternAllows("FireSlash", "Slash"))
	assert.False(t, reg.PatternAllows("", "Slash"))

	_, err := catalog.ParsePattern("a|b|c|d|e")
	assert.Error(t, err)
	_, err = catalog.ParsePattern(".|.|Z")
	assert.Error(t, err)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := catalog.NewStandard()
	err := reg.RegisterCard(catalog.BaseCard{CardName: "Slash"})
	assert.Error(t, err)

	_, ok := reg.Card(catalog.DummyCardName)
	assert.True(t, ok)
	assert.Same(t, catalog.Standard(), catalog.Standard())
}

func TestWushengConvertsRedCardsOnly(t *testing.T) {
	reg := catalog.NewStandard()
	room, cards := newRoom(t)
	skill, ok := reg.ViewAsSkill("wusheng")
	require.True(t, ok)

	env := catalog.Env{Room: room, Reason: catalog.ReasonPlay}
	assert.True(t, skill.IsAvailable(env, "liubei", catalog.PositionHead))
	assert.True(t, skill.ViewFilter(env, nil, cards["redJink"], "liubei"))
	assert.False(t, skill.ViewFilter(env, nil, cards["blackSlash"], "liubei"))
	assert.False(t, skill.ViewFilter(env, []card.Card{cards["redJink"]}, cards["peach"], "liubei"))

	slash, ok := skill.ViewAs(env, []card.Card{cards["redJink"]}, "liubei")
	require.True(t, ok)
	assert.Equal(t, "Slash", slash.Name)
	assert.Equal(t, []int{cards["redJink"].ID}, slash.SubCards)

	require.NoError(t, room.Use("liubei", "Slash"))
	assert.False(t, skill.IsAvailable(env, "liubei", catalog.PositionHead))

	response := catalog.Env{Room: room, Reason: catalog.ReasonResponse, Pattern: "Slash"}
	assert.True(t, skill.IsAvailable(response, "liubei", catalog.PositionHead))
}

func TestGuhuoEnumeratesPlayableNames(t *testing.T) {
	reg := catalog.NewStandard()
	room, cards := newRoom(t)
	skill, ok := reg.ViewAsSkill("guhuo")
	require.True(t, ok)
	assert.Equal(t, catalog.GuhuoPopUpBox, skill.GuhuoType())

	env := catalog.Env{Room: room, Reason: catalog.ReasonResponse, Pattern: "Slash"}
	guhuo := skill.GuhuoCards(env, []card.Card{cards["peach"]}, "liubei")
	var names []string
	for _, g := range guhuo {
		names = append(names, g.Name)
		assert.Equal(t, []int{cards["peach"].ID}, g.SubCards)
	}
	assert.Equal(t, []string{"FireSlash", "Slash", "ThunderSlash"}, names)

	assert.Empty(t, skill.GuhuoCards(env, nil, "liubei"))
}

func TestQiceListsTricksForWholeHand(t *testing.T) {
	reg := catalog.NewStandard()
	room, _ := newRoom(t)
	skill, ok := reg.ViewAsSkill("qice")
	require.True(t, ok)

	env := catalog.Env{Room: room, Reason: catalog.ReasonPlay}
	guhuo := skill.GuhuoCards(env, nil, "liubei")
	require.NotEmpty(t, guhuo)
	for _, g := range guhuo {
		assert.NotEqual(t, "Nullification", g.Name)
		assert.Len(t, g.SubCards, 3)
	}
}

func TestSlashTargetFilter(t *testing.T) {
	reg := catalog.NewStandard()
	room, _ := newRoom(t)
	slash, ok := reg.Card("FireSlash")
	require.True(t, ok)
	assert.Equal(t, "Slash", slash.Kind())

	c := card.NewVirtual("FireSlash", "")
	assert.True(t, slash.TargetFilter(room, nil, "guanyu", "liubei", c))
	assert.False(t, slash.TargetFilter(room, nil, "liubei", "liubei", c))
	assert.False(t, slash.TargetFilter(room, []string{"guanyu"}, "zhangfei", "liubei", c))
}

func TestHalberdExtraTargets(t *testing.T) {
	reg := catalog.NewStandard()
	room, _ := newRoom(t)
	mod, ok := reg.TargetModSkill("Halberd")
	require.True(t, ok)

	slash := card.NewVirtual("Slash", "")
	assert.True(t, mod.CheckExtraTargets(room, "liubei", "zhangfei", slash, []string{"guanyu"}, nil))
	assert.False(t, mod.CheckExtraTargets(room, "liubei", "guanyu", slash, []string{"guanyu"}, nil))
	assert.False(t, mod.CheckExtraTargets(room, "liubei", "zhangfei", slash, nil, []string{"a", "b"}))
	assert.False(t, mod.CheckExtraTargets(room, "liubei", "zhangfei", card.NewVirtual("Duel", ""), nil, nil))
}
