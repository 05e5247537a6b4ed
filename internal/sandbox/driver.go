// Package sandbox runs a minimal turn loop on an in-memory table so the
// decision transport can be exercised without a rules engine. It deals
// cards, asks the active player to play or discard and applies a handful of
// card effects.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sgs-online/sgs-server-go/internal/config"
	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
	"github.com/sgs-online/sgs-server-go/internal/game/decision"
	"github.com/sgs-online/sgs-server-go/internal/game/table"
	"go.uber.org/zap"
)

const (
	startingHp = 4
	drawCount  = 2
)

// ErrNotConnected is returned when the active player has no session.
var ErrNotConnected = errors.New("player not connected")

// skillPool is handed out to seats in order.
var skillPool = []catalog.SkillRef{
	{Name: "wusheng", Position: catalog.PositionHead},
	{Name: "rende", Position: catalog.PositionHead},
	{Name: "longdan", Position: catalog.PositionHead},
	{Name: "zhiheng", Position: catalog.PositionHead},
	{Name: "kurou", Position: catalog.PositionHead},
	{Name: "qixi", Position: catalog.PositionHead},
	{Name: "jijiu", Position: catalog.PositionHead},
	{Name: "guhuo", Position: catalog.PositionHead},
}

// Driver owns the sandbox table and plays turns against connected players.
type Driver struct {
	cfg     config.SandboxConfig
	reg     *catalog.Registry
	manager *decision.Manager
	logger  *zap.Logger
	rng     *rand.Rand

	room *table.Table
	deck *deck
	turn int
}

// New seats cfg.Players and deals the opening hands.
func New(cfg config.SandboxConfig, reg *catalog.Registry, manager *decision.Manager, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Players) < 2 {
		return nil, fmt.Errorf("sandbox needs at least two players, got %d", len(cfg.Players))
	}
	d := &Driver{
		cfg:     cfg,
		reg:     reg,
		manager: manager,
		logger:  logger.Named("sandbox"),
		rng:     rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)>>1+1)),
	}
	if err := d.setup(); err != nil {
		return nil, err
	}
	return d, nil
}

// Room returns the current table.
func (d *Driver) Room() *table.Table {
	return d.room
}

func (d *Driver) setup() error {
	room := table.New(d.logger)
	for i, name := range d.cfg.Players {
		if err := room.AddPlayer(name, startingHp); err != nil {
			return err
		}
		if err := room.SetSkills(name, skillPool[i%len(skillPool)]); err != nil {
			return err
		}
	}
	d.room = room
	d.deck = newDeck(room, d.rng)
	d.turn = 0
	for _, name := range d.cfg.Players {
		if err := d.draw(name, d.cfg.HandSize); err != nil {
			return err
		}
	}
	d.logger.Info("sandbox table ready",
		zap.Strings("players", d.cfg.Players),
		zap.Int("deck", d.deck.size()),
	)
	return nil
}

func (d *Driver) draw(player string, n int) error {
	return d.room.Deal(player, d.deck.take(n)...)
}

func (d *Driver) discard(ids ...int) {
	d.room.Discard(ids...)
	d.deck.drop(ids...)
}

// Run plays turns in seat order until ctx is done. Turns of disconnected
// players are skipped after an idle pause; a finished game is redealt.
func (d *Driver) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		alive := d.room.AlivePlayers()
		if len(alive) < 2 {
			d.logger.Info("game over, redealing", zap.Strings("survivors", alive))
			if err := d.setup(); err != nil {
				return err
			}
			continue
		}

		player := alive[d.turn%len(alive)]
		d.turn++
		err := d.PlayTurn(ctx, player)
		switch {
		case err == nil:
		case errors.Is(err, ErrNotConnected):
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.cfg.Idle):
			}
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			d.logger.Warn("turn aborted", zap.String("player", player), zap.Error(err))
		}
	}
}

// PlayTurn runs the draw, play and discard phases of player. A player who
// disconnects mid-turn ends the play phase and discards automatically.
func (d *Driver) PlayTurn(ctx context.Context, player string) error {
	if _, ok := d.manager.Session(player); !ok {
		return fmt.Errorf("%w: %s", ErrNotConnected, player)
	}
	logger := d.logger.With(zap.String("player", player))

	if err := d.room.ResetUsage(player); err != nil {
		return err
	}
	if err := d.room.SetPhase(player, catalog.PhaseDraw); err != nil {
		return err
	}
	if err := d.draw(player, drawCount); err != nil {
		return err
	}

	if err := d.room.SetPhase(player, catalog.PhasePlay); err != nil {
		return err
	}
	for d.alive(player) {
		session, ok := d.manager.Session(player)
		if !ok {
			break
		}
		res, err := session.Request(ctx, d.room, decision.Request{
			Kind:      decision.KindPlayCard,
			Requestor: player,
			Prompt:    "play a card or end the play phase",
		})
		if err != nil {
			if ctx.Err() != nil || !errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("play card: %w", err)
			}
			logger.Info("play phase timed out")
			break
		}
		if !res.Committed {
			break
		}
		if err := d.resolve(ctx, player, res); err != nil {
			return err
		}
	}
	if !d.alive(player) {
		return nil
	}

	if err := d.room.SetPhase(player, catalog.PhaseDiscard); err != nil {
		return err
	}
	if err := d.discardPhase(ctx, player); err != nil {
		return err
	}
	logger.Debug("turn finished", zap.Int("hand", len(d.room.Hand(player))))
	return d.room.SetPhase(player, catalog.PhaseFinish)
}

func (d *Driver) discardPhase(ctx context.Context, player string) error {
	p, _ := d.room.Player(player)
	hand := d.room.Hand(player)
	excess := len(hand) - p.Hp
	if excess <= 0 {
		return nil
	}
	ids := hand[:excess]
	if session, ok := d.manager.Session(player); ok {
		res, err := session.Request(ctx, d.room, decision.Request{
			Kind:      decision.KindDiscard,
			Requestor: player,
			Prompt:    fmt.Sprintf("discard %d cards", excess),
			Cards:     hand,
			Min:       excess,
			Max:       excess,
		})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err == nil && res.Committed && len(res.CardIDs) == excess {
			ids = res.CardIDs
		}
	}
	d.discard(ids...)
	return nil
}

func (d *Driver) alive(player string) bool {
	p, ok := d.room.Player(player)
	return ok && p.Alive
}
