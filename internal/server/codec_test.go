package server

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecs(t *testing.T) {
	frame := Frame{
		Type:      FrameSnapshot,
		RequestID: "r1",
		Data:      map[string]any{"ok_enabled": true, "top": []int{3, 4}},
		Digest:    "abc",
	}

	for _, name := range []string{"json", "proto"} {
		t.Run(name, func(t *testing.T) {
			codec, err := NewCodec(name)
			require.NoError(t, err)
			assert.Equal(t, name, codec.Name())

			data, err := codec.Encode(frame)
			require.NoError(t, err)
			decoded, err := codec.Decode(data)
			require.NoError(t, err)

			assert.Equal(t, "snapshot", decoded["type"])
			assert.Equal(t, "r1", decoded["request_id"])
			assert.Equal(t, "abc", decoded["digest"])
			assert.Equal(t, map[string]any{"ok_enabled": true, "top": []any{float64(3), float64(4)}}, decoded["data"])
			assert.NotContains(t, decoded, "code", "empty fields are omitted")
		})
	}

	assert.Equal(t, websocket.TextMessage, JSONCodec{}.MessageType())
	assert.Equal(t, websocket.BinaryMessage, ProtoCodec{}.MessageType())

	_, err := NewCodec("xml")
	assert.Error(t, err)
}

func TestJSONCodecRejectsNonObjects(t *testing.T) {
	_, err := JSONCodec{}.Decode([]byte("nope"))
	assert.Error(t, err)
	_, err = JSONCodec{}.Decode([]byte("null"))
	assert.Error(t, err)
}

func TestProtoFramesDecodeIntoEvents(t *testing.T) {
	data, err := ProtoCodec{}.Encode(Frame{Type: "move_card", RequestID: "r2"})
	require.NoError(t, err)
	raw, err := ProtoCodec{}.Decode(data)
	require.NoError(t, err)
	raw["args"] = []any{float64(1), float64(-2)}

	frame, err := decodeFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "-2"}, frame.Args)
}
