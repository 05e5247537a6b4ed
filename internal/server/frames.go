package server

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/sgs-online/sgs-server-go/internal/game/decision"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// frameResync asks for the current snapshot again.
const frameResync = "resync"

// inboundFrame is a client message: {"type", "request_id", "args"}.
type inboundFrame struct {
	Type      string   `json:"type"`
	RequestID string   `json:"request_id"`
	Args      []string `json:"args"`
}

// scalarToStringHookFunc renders JSON numbers and booleans the way the
// event arguments spell them ("3", "true").
func scalarToStringHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Kind, to reflect.Kind, data interface{}) (interface{}, error) {
		if to != reflect.String {
			return data, nil
		}
		switch from {
		case reflect.Bool:
			return strconv.FormatBool(data.(bool)), nil
		case reflect.Float64:
			return strconv.FormatFloat(data.(float64), 'f', -1, 64), nil
		case reflect.Int, reflect.Int64:
			return fmt.Sprint(data), nil
		}
		return data, nil
	}
}

func decodeFrame(raw map[string]any) (inboundFrame, error) {
	var frame inboundFrame
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       scalarToStringHookFunc(),
		WeaklyTypedInput: true,
		Result:           &frame,
		TagName:          "json",
	})
	if err != nil {
		return inboundFrame{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return inboundFrame{}, fmt.Errorf("%w: %v", decision.ErrProtocol, err)
	}
	if frame.Type == "" {
		return inboundFrame{}, fmt.Errorf("%w: frame without type", decision.ErrProtocol)
	}
	return frame, nil
}

func (f inboundFrame) event() (decision.Event, error) {
	kind, err := decision.ParseEventKind(f.Type)
	if err != nil {
		return decision.Event{}, err
	}
	return decision.Event{RequestID: f.RequestID, Kind: kind, Args: f.Args}, nil
}

// errorCode classifies a dispatch error for the client.
func errorCode(err error) codes.Code {
	switch {
	case errors.Is(err, decision.ErrProtocol):
		return codes.InvalidArgument
	case errors.Is(err, decision.ErrIllegalSelection),
		errors.Is(err, decision.ErrSkillUnavailable),
		errors.Is(err, decision.ErrNotCancelable),
		errors.Is(err, decision.ErrNotReady):
		return codes.FailedPrecondition
	case errors.Is(err, decision.ErrStaleRequest),
		errors.Is(err, decision.ErrNoRequest):
		return codes.NotFound
	default:
		return codes.Internal
	}
}

func errorFrame(requestID string, err error) Frame {
	st := status.New(errorCode(err), err.Error())
	return Frame{
		Type:      FrameError,
		RequestID: requestID,
		Code:      st.Code().String(),
		Message:   st.Message(),
	}
}

func snapshotFrame(snap decision.Snapshot) (Frame, error) {
	digest, err := snap.Digest()
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:      FrameSnapshot,
		RequestID: snap.RequestID,
		Data:      snap,
		Digest:    digest,
	}, nil
}

func closedFrame(ev decision.Lifecycle) Frame {
	return Frame{
		Type:      FrameClosed,
		RequestID: ev.RequestID,
		Data: map[string]any{
			"committed": ev.Type == decision.LifecycleCommitted,
			"kind":      ev.Kind.String(),
			"player":    ev.Player,
		},
	}
}
