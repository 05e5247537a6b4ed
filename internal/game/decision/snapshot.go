package decision

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/sgs-online/sgs-server-go/internal/game/card"
)

// Snapshot is the full option set published to the client after every
// accepted event. It is rebuilt from the selection state each time and
// never diffed. Slices and maps are never nil so that equal states encode
// to identical bytes.
type Snapshot struct {
	RequestID        string              `json:"request_id"`
	IsInitial        bool                `json:"is_initial"`
	Kind             string              `json:"kind"`
	Requestor        string              `json:"requestor"`
	Players          []string            `json:"players"`
	Prompt           string              `json:"prompt"`
	NoticeIndex      int                 `json:"notice_index"`
	SkillInvoke      bool                `json:"skill_invoke"`
	HighlightSkills  []string            `json:"highlight_skills"`
	SkillOwner       string              `json:"skill_owner"`
	SkillPosition    string              `json:"skill_position"`
	PendingSkill     string              `json:"pending_skill"`
	ViewAs           string              `json:"view_as"`
	AvailableTargets []string            `json:"available_targets"`
	SelectedTargets  []string            `json:"selected_targets"`
	ExtraTargets     []string            `json:"extra_targets"`
	OKEnabled        bool                `json:"ok_enabled"`
	CancelEnabled    bool                `json:"cancel_enabled"`
	GuhuoCards       []string            `json:"guhuo_cards"`
	SelectedGuhuo    string              `json:"selected_guhuo"`
	GuhuoType        int                 `json:"guhuo_type"`
	ExtraInfo        []string            `json:"extra_info"`
	AvailableCards   map[string][]string `json:"available_cards"`
	SelectedCards    map[string][]string `json:"selected_cards"`
	PrependPiles     map[string][]string `json:"prepend_piles"`
	AppendPiles      map[string][]string `json:"append_piles"`
	EquipSkills      map[string][]string `json:"equip_skills"`
	HeadSkills       map[string][]string `json:"head_skills"`
	DeputySkills     map[string][]string `json:"deputy_skills"`
	Top              []int               `json:"top"`
	Bottom           []int               `json:"bottom"`
	MoveSuccess      bool                `json:"move_success"`
}

// Encode returns the canonical JSON form of the snapshot.
func (s Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Digest returns the hex SHA-256 of the canonical JSON form. Clients
// compare it against their own rendering to detect desynchronization.
func (s Snapshot) Digest() (string, error) {
	data, err := s.Encode()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (s *Session) buildSnapshot(initial bool) Snapshot {
	st := s.st
	req := s.req
	snap := Snapshot{
		RequestID:        req.ID,
		IsInitial:        initial,
		Kind:             req.Kind.String(),
		Requestor:        req.Requestor,
		Players:          nonNil(st.Requestors),
		Prompt:           req.Prompt,
		NoticeIndex:      req.NoticeIndex,
		SkillInvoke:      st.SkillInvoke,
		HighlightSkills:  []string{},
		SkillOwner:       st.SkillOwner,
		SkillPosition:    st.SkillPosition,
		AvailableTargets: nonNil(st.AvailableTargets),
		SelectedTargets:  nonNil(st.SelectedTargets),
		ExtraTargets:     nonNil(st.ExtraTargets),
		OKEnabled:        st.OKEnabled,
		CancelEnabled:    st.CancelEnabled,
		GuhuoCards:       descriptors(st.Guhuo),
		ExtraInfo:        nonNil(st.ExtraInfo),
		AvailableCards:   make(map[string][]string, len(st.AvailableCards)),
		SelectedCards:    make(map[string][]string, len(st.SelectedCards)),
		PrependPiles:     copyPiles(st.PrependPiles),
		AppendPiles:      copyPiles(st.AppendPiles),
		EquipSkills:      copyPiles(st.EquipSkills),
		HeadSkills:       copyPiles(st.HeadSkills),
		DeputySkills:     copyPiles(st.DeputySkills),
		Top:              nonNil(st.Top),
		Bottom:           nonNil(st.Bottom),
		MoveSuccess:      st.MoveSuccess,
	}
	if st.Choice != nil {
		snap.SelectedTargets = nonNil(st.Choice.Targets)
	}
	if st.HighlightSkill != "" {
		snap.HighlightSkills = append(snap.HighlightSkills, st.HighlightSkill)
	}
	if st.PendingSkill != nil {
		snap.PendingSkill = st.PendingSkill.Name()
		snap.GuhuoType = int(st.PendingSkill.GuhuoType())
		if !slices.Contains(snap.HighlightSkills, snap.PendingSkill) {
			snap.HighlightSkills = append(snap.HighlightSkills, snap.PendingSkill)
		}
	}
	if st.ViewAs != nil {
		snap.ViewAs = st.ViewAs.Descriptor()
	}
	if st.SelectedGuhuo != nil {
		snap.SelectedGuhuo = st.SelectedGuhuo.Descriptor()
	}
	for player, cards := range st.AvailableCards {
		snap.AvailableCards[player] = descriptors(cards)
	}
	for player, cards := range st.SelectedCards {
		if len(cards) > 0 {
			snap.SelectedCards[player] = descriptors(cards)
		}
	}
	return snap
}

func descriptors(cards []card.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Descriptor())
	}
	return out
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}

func copyPiles(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		if len(v) > 0 {
			out[k] = slices.Clone(v)
		}
	}
	return out
}

func formatPile(name string, ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprint(id))
	}
	return name + ":" + strings.Join(parts, "+")
}
