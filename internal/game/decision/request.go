package decision

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
)

// Kind is the decision the rules engine asks a player to make.
type Kind int

const (
	KindPlayCard Kind = iota
	KindResponse
	KindPeach
	KindNullification
	KindDiscard
	KindExchange
	KindYiji
	KindPindian
	KindShowCard
	KindChooseTarget
	KindExtraTarget
	KindMoveCards
)

var kindNames = map[Kind]string{
	KindPlayCard:      "play_card",
	KindResponse:      "response",
	KindPeach:         "peach",
	KindNullification: "nullification",
	KindDiscard:       "discard",
	KindExchange:      "exchange",
	KindYiji:          "yiji",
	KindPindian:       "pindian",
	KindShowCard:      "show_card",
	KindChooseTarget:  "choose_target",
	KindExtraTarget:   "extra_target",
	KindMoveCards:     "move_cards",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseKind maps a wire name to a kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown decision kind %q", name)
}

// cardFlow reports whether the decision is negotiated through card and
// skill selection.
func (k Kind) cardFlow() bool {
	switch k {
	case KindChooseTarget, KindExtraTarget, KindMoveCards:
		return false
	}
	return true
}

// isResponse reports whether the decision answers with a single card.
func (k Kind) isResponse() bool {
	switch k {
	case KindResponse, KindPeach, KindNullification, KindPindian, KindShowCard:
		return true
	}
	return false
}

// handOnly reports whether only hand cards may be chosen and no skill applies.
func (k Kind) handOnly() bool {
	return k == KindPindian || k == KindShowCard
}

// Request holds the parameters of one decision. It is immutable while the
// decision is outstanding.
type Request struct {
	// ID identifies the request on the wire; assigned when empty.
	ID   string
	Kind Kind
	// Requestor is the deciding player. Peach and Nullification may leave it
	// empty to ask every player in Players.
	Requestor   string
	Players     []string
	Prompt      string
	NoticeIndex int
	// Pattern is the card pattern a response must match, or the card filter
	// of an exchange. A trailing '!' forces the response.
	Pattern string
	Reason  catalog.Reason
	Method  catalog.Method
	// ForcedSkill auto-activates when available. Without it, a pattern of
	// the form @@skill (or any pattern naming a view-as skill) is used.
	ForcedSkill string
	// Skill is the skill behind the request: the highlighted response skill,
	// the target-mod skill of ExtraTarget or the move filter of MoveCards.
	Skill    string
	Position string
	// Cancelable is honoured by Discard, Yiji and MoveCards; other kinds
	// derive cancelability from their pattern or bounds.
	Cancelable bool
	// NotCancelable rejects every cancel whatever the kind.
	NotCancelable bool
	// StepWise lets Discard and MoveCards record partial answers.
	StepWise   bool
	Min        int
	Max        int
	Cards      []int
	Targets    []string
	Selected   []string
	Card       *card.Card
	ExpandPile string
	Top        []int
	Bottom     []int
	Info       []string
}

var defaultPatterns = map[Kind]string{
	KindPeach:         "Peach",
	KindNullification: "Nullification",
}

var forcedPattern = regexp.MustCompile(`^@?@?([_A-Za-z]+)(\d+)?!?$`)

func (r *Request) applyDefaults() {
	switch r.Kind {
	case KindPlayCard:
		r.Reason = catalog.ReasonPlay
		if r.Method == catalog.MethodNone {
			r.Method = catalog.MethodUse
		}
	case KindResponse:
		if r.Reason == catalog.ReasonPlay {
			r.Reason = catalog.ReasonResponse
		}
		if r.Method == catalog.MethodNone {
			r.Method = catalog.MethodResponse
		}
	case KindPeach, KindNullification:
		if r.Pattern == "" {
			r.Pattern = defaultPatterns[r.Kind]
		}
		if r.Reason == catalog.ReasonPlay {
			r.Reason = catalog.ReasonResponseUse
		}
		if r.Method == catalog.MethodNone {
			r.Method = catalog.MethodUse
		}
	case KindDiscard, KindExchange:
		r.Reason = catalog.ReasonUnknown
		if r.Method == catalog.MethodNone {
			r.Method = catalog.MethodDiscard
		}
	case KindPindian:
		r.Reason = catalog.ReasonUnknown
		r.Method = catalog.MethodPindian
	default:
		r.Reason = catalog.ReasonUnknown
	}
}

func (r *Request) validate(reg *catalog.Registry) error {
	if _, ok := kindNames[r.Kind]; !ok {
		return fmt.Errorf("unknown kind %d", int(r.Kind))
	}
	if r.Requestor == "" && r.Kind != KindPeach && r.Kind != KindNullification {
		return fmt.Errorf("%s needs a requestor", r.Kind)
	}
	switch r.Kind {
	case KindDiscard:
		if r.Max <= 0 || r.Min > r.Max || len(r.Cards) < r.Min {
			return fmt.Errorf("discard bounds [%d,%d] over %d cards", r.Min, r.Max, len(r.Cards))
		}
	case KindExchange:
		if r.Max <= 0 || r.Min > r.Max {
			return fmt.Errorf("exchange bounds [%d,%d]", r.Min, r.Max)
		}
	case KindYiji:
		if len(r.Cards) == 0 || len(r.Targets) == 0 || r.Max <= 0 {
			return fmt.Errorf("yiji needs cards, recipients and a positive max")
		}
	case KindChooseTarget:
		if len(r.Targets) == 0 || r.Max <= 0 || r.Min > r.Max {
			return fmt.Errorf("choose target bounds [%d,%d] over %d targets", r.Min, r.Max, len(r.Targets))
		}
	case KindExtraTarget:
		if r.Card == nil {
			return fmt.Errorf("extra target needs the card in use")
		}
		if _, ok := reg.Card(r.Card.Name); !ok {
			return fmt.Errorf("extra target card %s is not registered", r.Card.Name)
		}
		if _, ok := reg.TargetModSkill(r.Skill); !ok {
			return fmt.Errorf("extra target skill %q is not registered", r.Skill)
		}
	case KindMoveCards:
		if r.Min < 0 || (r.Max > 0 && r.Min > r.Max) {
			return fmt.Errorf("move cards bounds [%d,%d]", r.Min, r.Max)
		}
		if _, ok := reg.MoveCardsSkill(r.Skill); !ok {
			return fmt.Errorf("move cards skill %q is not registered", r.Skill)
		}
	}
	return nil
}

func (r *Request) cancelable() bool {
	if r.NotCancelable {
		return false
	}
	forced := strings.HasSuffix(r.Pattern, "!")
	switch r.Kind {
	case KindPlayCard:
		return !forced
	case KindResponse:
		return !forced && r.Pattern != ""
	case KindPeach, KindNullification:
		return !forced
	case KindDiscard, KindYiji, KindMoveCards:
		return r.Cancelable
	case KindExchange, KindChooseTarget:
		return r.Min == 0
	case KindExtraTarget:
		return true
	default:
		return false
	}
}

// forcedSkillName returns the skill a request tries to auto-activate.
func (r *Request) forcedSkillName() string {
	if r.ForcedSkill != "" {
		return r.ForcedSkill
	}
	if m := forcedPattern.FindStringSubmatch(r.Pattern); m != nil {
		return m[1]
	}
	return ""
}
