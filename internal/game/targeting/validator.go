package targeting

import (
	"fmt"
	"slices"
)

// PlayerLookup is the slice of room state target validation needs.
type PlayerLookup interface {
	AlivePlayers() []string
}

// Validator checks player targets against the room and a fixed pool.
type Validator struct {
	room PlayerLookup
	pool []string
}

// NewValidator creates a validator. An empty pool allows every alive player.
func NewValidator(room PlayerLookup, pool []string) *Validator {
	return &Validator{room: room, pool: slices.Clone(pool)}
}

// ValidateTarget checks that target is alive and belongs to the pool.
func (v *Validator) ValidateTarget(target string) error {
	if !slices.Contains(v.room.AlivePlayers(), target) {
		return fmt.Errorf("target %s is not an alive player", target)
	}
	if len(v.pool) > 0 && !slices.Contains(v.pool, target) {
		return fmt.Errorf("target %s is not selectable", target)
	}
	return nil
}

// ValidateSelection checks every target and the selection bounds.
func (v *Validator) ValidateSelection(s *Selection) error {
	if err := s.Validate(); err != nil {
		return err
	}
	for _, t := range s.Targets {
		if err := v.ValidateTarget(t); err != nil {
			return fmt.Errorf("invalid target: %w", err)
		}
	}
	return nil
}

// Candidates returns the pool members that are currently alive, in pool order.
func (v *Validator) Candidates() []string {
	alive := v.room.AlivePlayers()
	if len(v.pool) == 0 {
		return alive
	}
	out := make([]string, 0, len(v.pool))
	for _, p := range v.pool {
		if slices.Contains(alive, p) {
			out = append(out, p)
		}
	}
	return out
}
