package server

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Frame is one outbound message.
type Frame struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
	Digest    string `json:"digest,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

const (
	FrameSnapshot = "snapshot"
	FrameClosed   = "closed"
	FrameError    = "error"
)

// Codec converts frames to and from websocket payloads.
type Codec interface {
	Name() string
	// MessageType is the websocket message type carrying encoded frames.
	MessageType() int
	Encode(f Frame) ([]byte, error)
	// Decode returns the loosely typed inbound frame.
	Decode(data []byte) (map[string]any, error)
}

// NewCodec returns the codec registered under name.
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "proto":
		return ProtoCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

// JSONCodec sends text frames.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) MessageType() int { return websocket.TextMessage }

func (JSONCodec) Encode(f Frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", f.Type, err)
	}
	return data, nil
}

func (JSONCodec) Decode(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode frame: not an object")
	}
	return raw, nil
}

// ProtoCodec sends binary frames holding a google.protobuf.Struct with the
// same shape as the JSON frame.
type ProtoCodec struct{}

func (ProtoCodec) Name() string { return "proto" }

func (ProtoCodec) MessageType() int { return websocket.BinaryMessage }

func (ProtoCodec) Encode(f Frame) ([]byte, error) {
	data, err := JSONCodec{}.Encode(f)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", f.Type, err)
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", f.Type, err)
	}
	out, err := proto.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", f.Type, err)
	}
	return out, nil
}

func (ProtoCodec) Decode(data []byte) (map[string]any, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return st.AsMap(), nil
}
