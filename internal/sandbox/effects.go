package sandbox

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
	"github.com/sgs-online/sgs-server-go/internal/game/decision"
	"go.uber.org/zap"
)

const flagDrank = "drank"

// resolve applies the committed card of a play decision.
func (d *Driver) resolve(ctx context.Context, player string, res decision.Result) error {
	c := res.Card
	if c == nil {
		return nil
	}
	d.logger.Info("card used",
		zap.String("player", player),
		zap.String("card", res.CardDescriptor),
		zap.Strings("targets", res.Targets),
	)

	ids := c.EffectiveIDs()
	if fc, ok := d.reg.Card(c.Name); ok && fc.Type() == catalog.TypeEquip && !c.IsVirtual() {
		return d.room.Equip(player, c.ID)
	}
	if res.Recast {
		d.discard(ids...)
		return d.draw(player, 1)
	}

	switch {
	case d.reg.IsKindOf(c.Name, "Slash"):
		d.discard(ids...)
		if err := d.room.Use(player, "Slash"); err != nil {
			return err
		}
		amount := 1
		if p, _ := d.room.Player(player); p.HasFlag(flagDrank) {
			amount++
			if err := d.room.SetFlag(player, flagDrank, false); err != nil {
				return err
			}
		}
		for _, target := range res.Targets {
			if err := d.slash(ctx, player, target, amount); err != nil {
				return err
			}
		}

	case c.Name == "Peach":
		d.discard(ids...)
		return d.heal(player)

	case c.Name == "Analeptic":
		d.discard(ids...)
		if err := d.room.Use(player, "Analeptic"); err != nil {
			return err
		}
		return d.room.SetFlag(player, flagDrank, true)

	case c.Name == "ExNihilo":
		d.discard(ids...)
		return d.draw(player, 2)

	case c.Name == "Dismantlement" || c.Name == "Snatch":
		d.discard(ids...)
		for _, target := range res.Targets {
			id, ok := d.randomCard(target)
			if !ok {
				continue
			}
			if c.Name == "Snatch" {
				if err := d.room.Give(player, id); err != nil {
					return err
				}
			} else {
				d.discard(id)
			}
		}

	case c.Name == "ZhihengCard":
		if err := d.room.Use(player, "ZhihengCard"); err != nil {
			return err
		}
		d.discard(ids...)
		return d.draw(player, len(ids))

	case c.Name == "RendeCard":
		if len(res.Targets) == 0 {
			return fmt.Errorf("rende without a recipient")
		}
		return d.room.Give(res.Targets[0], ids...)

	case c.Name == "KurouCard":
		if err := d.damage(ctx, player, 1); err != nil {
			return err
		}
		if d.alive(player) {
			return d.draw(player, 2)
		}

	default:
		d.discard(ids...)
	}
	return nil
}

// slash asks target for a Jink; a missing or declined response deals
// amount damage.
func (d *Driver) slash(ctx context.Context, from, target string, amount int) error {
	if s, ok := d.manager.Session(target); ok && d.alive(target) {
		res, err := s.Request(ctx, d.room, decision.Request{
			Kind:      decision.KindResponse,
			Requestor: target,
			Pattern:   "Jink",
			Prompt:    fmt.Sprintf("%s uses Slash on you", from),
		})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err == nil && res.Committed && res.Card != nil {
			d.discard(res.Card.EffectiveIDs()...)
			return nil
		}
	}
	return d.damage(ctx, target, amount)
}

func (d *Driver) heal(player string) error {
	p, ok := d.room.Player(player)
	if !ok || p.Hp >= p.MaxHp {
		return nil
	}
	return d.room.SetHp(player, p.Hp+1)
}

// damage lowers hp and, at zero, asks every connected player in seat order
// for a Peach until the victim is saved or everyone declined.
func (d *Driver) damage(ctx context.Context, victim string, amount int) error {
	p, ok := d.room.Player(victim)
	if !ok || !p.Alive {
		return nil
	}
	hp := p.Hp - amount
	if err := d.room.SetHp(victim, hp); err != nil {
		return err
	}
	d.logger.Info("damage dealt", zap.String("player", victim), zap.Int("hp", hp))

	for _, saver := range d.room.AlivePlayers() {
		if hp > 0 {
			break
		}
		s, ok := d.manager.Session(saver)
		if !ok {
			continue
		}
		for hp <= 0 {
			res, err := s.Request(ctx, d.room, decision.Request{
				Kind:    decision.KindPeach,
				Players: []string{saver},
				Prompt:  fmt.Sprintf("%s is dying", victim),
				Info:    []string{victim, strconv.Itoa(1 - hp)},
			})
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil || !res.Committed || res.Card == nil {
				break
			}
			d.discard(res.Card.EffectiveIDs()...)
			hp++
			if err := d.room.SetHp(victim, hp); err != nil {
				return err
			}
		}
	}

	if hp > 0 {
		return nil
	}
	d.logger.Info("player died", zap.String("player", victim))
	d.discard(slices.Concat(d.room.Hand(victim), d.room.Equips(victim))...)
	return d.room.Kill(victim)
}

func (d *Driver) randomCard(player string) (int, bool) {
	pool := slices.Concat(d.room.Hand(player), d.room.Equips(player))
	if len(pool) == 0 {
		return 0, false
	}
	return pool[d.rng.IntN(len(pool))], true
}
