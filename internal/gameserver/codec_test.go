package gameserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
	}{
		{"create", `{"type":"createSession","payload":{"displayName":"alice","sessionId":"AB1234"}}`,
			CreateSession{DisplayName: "alice", SessionID: "AB1234"}},
		{"create generated id", `{"type":"createSession","payload":{"displayName":"alice"}}`,
			CreateSession{DisplayName: "alice"}},
		{"join", `{"type":"joinSession","payload":{"displayName":"bob","sessionId":"AB1234"}}`,
			JoinSession{DisplayName: "bob", SessionID: "AB1234"}},
		{"move zero", `{"type":"makeMove","payload":{"sessionId":"AB1234","cellIndex":0}}`,
			MakeMove{SessionID: "AB1234", CellIndex: 0}},
		{"chat", `{"type":"sendChat","payload":{"sessionId":"AB1234","displayName":"bob","text":"hi"}}`,
			SendChat{SessionID: "AB1234", DisplayName: "bob", Text: "hi"}},
		{"reset", `{"type":"resetGame","payload":{"sessionId":"AB1234"}}`,
			ResetGame{SessionID: "AB1234"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCommand([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCommand_Rejects(t *testing.T) {
	for name, in := range map[string]string{
		"not json":          `{"type":`,
		"missing type":      `{"payload":{}}`,
		"unknown type":      `{"type":"teleport","payload":{}}`,
		"missing cellIndex": `{"type":"makeMove","payload":{"sessionId":"AB1234"}}`,
		"string cellIndex":  `{"type":"makeMove","payload":{"sessionId":"AB1234","cellIndex":"4"}}`,
		"join without id":   `{"type":"joinSession","payload":{"displayName":"bob"}}`,
		"payload not object": `{"type":"resetGame","payload":[1,2]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCommand([]byte(in))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBadRequest)
			assert.Equal(t, KindBadRequest, KindOf(err))
		})
	}
}

func TestProperty_DecodeCommand_NeverPanics(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(rt, "data")
		cmd, err := DecodeCommand(data)
		if err != nil {
			assert.ErrorIs(rt, err, ErrBadRequest)
			assert.Nil(rt, cmd)
		}
	})
}
