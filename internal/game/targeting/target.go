package targeting

import (
	"fmt"
	"slices"
	"strings"
)

// Requirement bounds how many players a choice must name.
type Requirement struct {
	// MinTargets is the minimum number of targets; 0 makes the choice optional
	MinTargets int
	// MaxTargets is the maximum number of targets
	MaxTargets int
	// Description is a human-readable description of the requirement
	Description string
}

// Selection is a player's running target choice against a requirement.
type Selection struct {
	// Targets holds player names in the order they were picked
	Targets []string
	// Requirement is the requirement this selection satisfies
	Requirement Requirement
}

// NewSelection creates an empty selection.
func NewSelection(req Requirement) *Selection {
	return &Selection{Targets: []string{}, Requirement: req}
}

// IsComplete reports whether the selection can be confirmed. An empty
// selection never completes; declining is a cancel.
func (s *Selection) IsComplete() bool {
	if s == nil {
		return false
	}
	count := len(s.Targets)
	return count > 0 && count >= s.Requirement.MinTargets && count <= s.Requirement.MaxTargets
}

// Validate checks the selection against its requirement.
func (s *Selection) Validate() error {
	if s == nil {
		return fmt.Errorf("target selection is nil")
	}
	count := len(s.Targets)
	if count < s.Requirement.MinTargets {
		return fmt.Errorf("not enough targets: need at least %d, got %d", s.Requirement.MinTargets, count)
	}
	if count > s.Requirement.MaxTargets {
		return fmt.Errorf("too many targets: need at most %d, got %d", s.Requirement.MaxTargets, count)
	}
	seen := make(map[string]bool, count)
	for _, t := range s.Targets {
		if seen[t] {
			return fmt.Errorf("target %s chosen twice", t)
		}
		seen[t] = true
	}
	return nil
}

// Toggle adds or removes target. Adding to a full selection replaces the
// most recent pick; an overfull selection is cleared first.
func (s *Selection) Toggle(target string) {
	if i := slices.Index(s.Targets, target); i >= 0 {
		s.Targets = slices.Delete(s.Targets, i, i+1)
		return
	}
	switch {
	case len(s.Targets) > s.Requirement.MaxTargets:
		s.Targets = s.Targets[:0]
	case len(s.Targets) == s.Requirement.MaxTargets && len(s.Targets) > 0:
		s.Targets = s.Targets[:len(s.Targets)-1]
	}
	s.Targets = append(s.Targets, target)
}

// FormatTargets joins player names for embedding in a card descriptor.
func FormatTargets(targets []string) string {
	return strings.Join(targets, "+")
}
