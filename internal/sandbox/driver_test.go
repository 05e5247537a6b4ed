package sandbox

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sgs-online/sgs-server-go/internal/config"
	"github.com/sgs-online/sgs-server-go/internal/game/card"
	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
	"github.com/sgs-online/sgs-server-go/internal/game/decision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newDriver(t *testing.T, players ...string) (*Driver, *decision.Manager) {
	t.Helper()
	return newDriverWithOptions(t, decision.Options{}, players...)
}

func newDriverWithOptions(t *testing.T, opts decision.Options, players ...string) (*Driver, *decision.Manager) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	manager := decision.NewManager(catalog.NewStandard(), nil, opts, logger)
	d, err := New(config.SandboxConfig{
		Players:  players,
		HandSize: 4,
		Seed:     7,
		Idle:     10 * time.Millisecond,
	}, catalog.NewStandard(), manager, logger)
	require.NoError(t, err)
	return d, manager
}

// script answers every new request of player with the events returned by
// decide until the test ends.
func script(t *testing.T, manager *decision.Manager, player string, decide func(req decision.Request) []decision.Event) {
	t.Helper()
	s := manager.Open(player)
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(2 * time.Millisecond)
		defer ticker.Stop()
		var last string
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			req, ok := s.Outstanding()
			if !ok || req.ID == last {
				continue
			}
			last = req.ID
			for _, ev := range decide(req) {
				ev.RequestID = req.ID
				assert.NoError(t, s.Handle(ev), "%s %v", ev.Kind, ev.Args)
			}
		}
	}()
}

func pick(player string, id int) decision.Event {
	return decision.Event{Kind: decision.EventCardPick, Args: []string{player, strconv.Itoa(id), ""}}
}

func button(confirm bool) decision.Event {
	return decision.Event{Kind: decision.EventSystemButton, Args: []string{strconv.FormatBool(confirm)}}
}

// discardFront picks the first cards offered by a discard request.
func discardFront(player string, req decision.Request) []decision.Event {
	var evs []decision.Event
	for _, id := range req.Cards[:req.Min] {
		evs = append(evs, pick(player, id))
	}
	return append(evs, button(true))
}

func TestNewDealsOpeningHands(t *testing.T) {
	d, _ := newDriver(t, "a", "b", "c")
	for _, p := range []string{"a", "b", "c"} {
		assert.Len(t, d.Room().Hand(p), 4)
		player, ok := d.Room().Player(p)
		require.True(t, ok)
		assert.Equal(t, startingHp, player.Hp)
	}
	assert.Equal(t, []catalog.SkillRef{skillPool[1]}, d.Room().Skills("b"))

	_, err := New(config.SandboxConfig{Players: []string{"solo"}, HandSize: 4}, catalog.NewStandard(), nil, nil)
	assert.Error(t, err)
}

func TestPlayTurnRequiresConnection(t *testing.T) {
	d, _ := newDriver(t, "a", "b")
	err := d.PlayTurn(context.Background(), "a")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestPlayTurnDiscardsDownToHp(t *testing.T) {
	d, manager := newDriver(t, "a", "b")
	var discarded []int
	script(t, manager, "a", func(req decision.Request) []decision.Event {
		switch req.Kind {
		case decision.KindPlayCard:
			return []decision.Event{button(false)}
		case decision.KindDiscard:
			assert.Equal(t, 2, req.Min)
			discarded = append(discarded, req.Cards[:2]...)
			return discardFront("a", req)
		}
		t.Errorf("unexpected %s request", req.Kind)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.PlayTurn(ctx, "a"))

	hand := d.Room().Hand("a")
	assert.Len(t, hand, 4)
	for _, id := range discarded {
		assert.NotContains(t, hand, id)
	}
	p, _ := d.Room().Player("a")
	assert.Equal(t, catalog.PhaseFinish, p.Phase)
}

func TestSlashWithoutJinkDealsDamage(t *testing.T) {
	d, manager := newDriver(t, "a", "b")
	slash := d.Room().NewCard("Slash", card.Spade, 7)
	require.NoError(t, d.Room().Deal("a", slash.ID))

	plays := 0
	script(t, manager, "a", func(req decision.Request) []decision.Event {
		switch req.Kind {
		case decision.KindPlayCard:
			plays++
			if plays == 1 {
				return []decision.Event{
					pick("a", slash.ID),
					{Kind: decision.EventTargetPick, Args: []string{"b"}},
					button(true),
				}
			}
			return []decision.Event{button(false)}
		case decision.KindDiscard:
			return discardFront("a", req)
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.PlayTurn(ctx, "a"))

	b, _ := d.Room().Player("b")
	assert.Equal(t, startingHp-1, b.Hp, "b is not connected and cannot dodge")
	assert.Equal(t, 1, d.Room().UsageCount("a", "Slash"))
	assert.NotContains(t, d.Room().Hand("a"), slash.ID)
}

func TestDyingPlayerIsSavedByPeach(t *testing.T) {
	d, manager := newDriver(t, "a", "b")
	slash := d.Room().NewCard("Slash", card.Spade, 7)
	peach := d.Room().NewCard("Peach", card.Heart, 3)
	require.NoError(t, d.Room().Deal("a", slash.ID, peach.ID))
	require.NoError(t, d.Room().SetHp("b", 1))

	plays := 0
	var peachInfo []string
	script(t, manager, "a", func(req decision.Request) []decision.Event {
		switch req.Kind {
		case decision.KindPlayCard:
			plays++
			if plays == 1 {
				return []decision.Event{
					pick("a", slash.ID),
					{Kind: decision.EventTargetPick, Args: []string{"b"}},
					button(true),
				}
			}
			return []decision.Event{button(false)}
		case decision.KindPeach:
			peachInfo = req.Info
			return []decision.Event{pick("a", peach.ID), button(true)}
		case decision.KindDiscard:
			return discardFront("a", req)
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.PlayTurn(ctx, "a"))

	b, _ := d.Room().Player("b")
	assert.True(t, b.Alive)
	assert.Equal(t, 1, b.Hp)
	assert.Equal(t, []string{"b", "1"}, peachInfo)
	assert.NotContains(t, d.Room().Hand("a"), peach.ID)
}

func TestSilentPlayerTimesOut(t *testing.T) {
	d, manager := newDriverWithOptions(t, decision.Options{Timeout: 20 * time.Millisecond}, "a", "b")
	manager.Open("a")
	opening := d.Room().Hand("a")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.PlayTurn(ctx, "a"))

	hand := d.Room().Hand("a")
	assert.Len(t, hand, 4)
	for _, id := range opening[:2] {
		assert.NotContains(t, hand, id, "the front of the hand is discarded")
	}
}

func TestRunStopsWithContext(t *testing.T) {
	d, _ := newDriver(t, "a", "b")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := d.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDeckReshufflesDiscards(t *testing.T) {
	d, _ := newDriver(t, "a", "b")
	total := d.deck.size()
	assert.Equal(t, 54-8, total, "the opening hands are out of the deck")
	drawn := d.deck.take(total + 5)
	assert.Len(t, drawn, total)
	assert.Empty(t, d.deck.take(1))

	d.deck.drop(drawn[:3]...)
	again := d.deck.take(5)
	assert.ElementsMatch(t, drawn[:3], again)
}
