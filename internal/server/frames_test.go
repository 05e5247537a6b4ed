package server

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sgs-online/sgs-server-go/internal/game/decision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestDecodeFrameStringifiesScalars(t *testing.T) {
	raw := map[string]any{
		"type":       "card_pick",
		"request_id": "r1",
		"args":       []any{"liubei", float64(12), true},
	}
	frame, err := decodeFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"liubei", "12", "true"}, frame.Args)

	ev, err := frame.event()
	require.NoError(t, err)
	assert.Equal(t, decision.EventCardPick, ev.Kind)
	assert.Equal(t, "r1", ev.RequestID)
	assert.Equal(t, []string{"liubei", "12", "true"}, ev.Args)
}

func TestDecodeFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"missing type", map[string]any{"args": []any{}}},
		{"nested argument", map[string]any{"type": "target_pick", "args": []any{map[string]any{"to": "guanyu"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeFrame(tt.raw)
			assert.ErrorIs(t, err, decision.ErrProtocol)
		})
	}

	frame, err := decodeFrame(map[string]any{"type": "shout"})
	require.NoError(t, err)
	_, err = frame.event()
	assert.ErrorIs(t, err, decision.ErrProtocol)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("%w: bad flag", decision.ErrProtocol), codes.InvalidArgument},
		{&decision.RejectError{Err: decision.ErrIllegalSelection}, codes.FailedPrecondition},
		{&decision.RejectError{Err: decision.ErrSkillUnavailable}, codes.FailedPrecondition},
		{&decision.RejectError{Err: decision.ErrNotCancelable}, codes.FailedPrecondition},
		{&decision.RejectError{Err: decision.ErrNotReady}, codes.FailedPrecondition},
		{decision.ErrStaleRequest, codes.NotFound},
		{decision.ErrNoRequest, codes.NotFound},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorCode(tt.err), tt.err.Error())
	}

	frame := errorFrame("r1", decision.ErrStaleRequest)
	assert.Equal(t, FrameError, frame.Type)
	assert.Equal(t, "r1", frame.RequestID)
	assert.Equal(t, "NotFound", frame.Code)
	assert.Equal(t, decision.ErrStaleRequest.Error(), frame.Message)
}

func TestClosedFrame(t *testing.T) {
	frame := closedFrame(decision.Lifecycle{
		Type:      decision.LifecycleCommitted,
		RequestID: "r1",
		Kind:      decision.KindDiscard,
		Player:    "liubei",
	})
	assert.Equal(t, FrameClosed, frame.Type)
	assert.Equal(t, map[string]any{"committed": true, "kind": "discard", "player": "liubei"}, frame.Data)
}
