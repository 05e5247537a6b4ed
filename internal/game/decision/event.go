package decision

import (
	"fmt"
	"strconv"
)

// EventKind tags an inbound client event.
type EventKind int

const (
	EventCardPick EventKind = iota
	EventTargetPick
	EventSkillPick
	EventSystemButton
	EventDoubleClick
	EventSwitchCards
	EventSpecialDialogChoice
	EventMoveCard
	EventDashboardChange
)

var eventNames = map[EventKind]string{
	EventCardPick:            "card_pick",
	EventTargetPick:          "target_pick",
	EventSkillPick:           "skill_pick",
	EventSystemButton:        "system_button",
	EventDoubleClick:         "double_click",
	EventSwitchCards:         "switch_cards",
	EventSpecialDialogChoice: "special_dialog",
	EventMoveCard:            "move_card",
	EventDashboardChange:     "dashboard_change",
}

// eventArity is the exact argument count of each event kind:
//
//	card_pick        player, card, autoTarget
//	target_pick      target
//	skill_pick       player, skill, position, autoTarget
//	system_button    confirm
//	double_click     player, card, target
//	switch_cards     player, cards (comma separated)
//	special_dialog   skill
//	move_card        from, to
//	dashboard_change
var eventArity = map[EventKind]int{
	EventCardPick:            3,
	EventTargetPick:          1,
	EventSkillPick:           4,
	EventSystemButton:        1,
	EventDoubleClick:         3,
	EventSwitchCards:         2,
	EventSpecialDialogChoice: 1,
	EventMoveCard:            2,
	EventDashboardChange:     0,
}

// String returns the wire name of the event kind.
func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// ParseEventKind maps a wire name to an event kind.
func ParseEventKind(name string) (EventKind, error) {
	for k, n := range eventNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown event %q", ErrProtocol, name)
}

// Event is one client action against an outstanding request.
type Event struct {
	RequestID string
	Kind      EventKind
	Args      []string
}

func (e Event) checkArity() error {
	want, ok := eventArity[e.Kind]
	if !ok {
		return fmt.Errorf("%w: unknown event kind %d", ErrProtocol, int(e.Kind))
	}
	if len(e.Args) != want {
		return fmt.Errorf("%w: %s takes %d arguments, got %d", ErrProtocol, e.Kind, want, len(e.Args))
	}
	return nil
}

// parseFlag parses an optional boolean argument; empty means false.
func parseFlag(arg string) (bool, error) {
	if arg == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(arg)
	if err != nil {
		return false, fmt.Errorf("%w: bad flag %q", ErrProtocol, arg)
	}
	return v, nil
}
