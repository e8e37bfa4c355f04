package session

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	data := []byte(`{"game_mode":"hearts","game_id":7,"player_id":42,"message_type":"state","message_id":3,"timestamp":1700000000000,"reply_to":9,"turn":42}`)

	env, err := ParseEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, "hearts", env.Mode)
	assert.Equal(t, uint64(7), env.GameID)
	assert.Equal(t, uint64(42), env.PlayerID)
	assert.Equal(t, MessageState, env.MessageType)
	assert.Equal(t, 3, env.MessageID)
	assert.Equal(t, uint64(1700000000000), env.Timestamp)
	assert.Equal(t, 9, env.ReplyTo)
	assert.Equal(t, int64(42), env.Get("turn").Int())
	assert.JSONEq(t, string(data), string(env.Raw))
}

func TestParseEnvelopeRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{name: "not json", data: `{"message_type":`},
		{name: "array", data: `[1,2,3]`},
		{name: "no type", data: `{"game_id":7}`, want: ErrMissingMessageType},
		{name: "empty type", data: `{"message_type":""}`, want: ErrMissingMessageType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnvelope([]byte(tt.data))
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestEnvelopeIsError(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
		text string
	}{
		{name: "error type", data: `{"message_type":"error","error":"not your turn"}`, want: true, text: "not your turn"},
		{name: "rest style", data: `{"message_type":"sort","type":"error","message":"bad order"}`, want: true, text: "bad order"},
		{name: "error field", data: `{"message_type":"sort","error":"no such card"}`, want: true, text: "no such card"},
		{name: "null error field", data: `{"message_type":"sort","error":null}`},
		{name: "empty error field", data: `{"message_type":"sort","error":""}`},
		{name: "plain", data: `{"message_type":"state","turn":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, env.IsError())
			if tt.want {
				assert.Equal(t, tt.text, env.ErrorText())
			}
		})
	}
}

func TestReplyErr(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"message_type":"ready","reply_to":4,"error":"game already started"}`))
	require.NoError(t, err)

	reply := &Reply{Envelope: env}
	var resp *ErrorResponse
	require.True(t, errors.As(reply.Err(), &resp))
	assert.Equal(t, MessageReady, resp.MessageType)
	assert.Equal(t, 4, resp.ReplyTo)
	assert.Equal(t, "server error: game already started", resp.Error())

	ok, err := ParseEnvelope([]byte(`{"message_type":"ready","reply_to":4}`))
	require.NoError(t, err)
	assert.NoError(t, (&Reply{Envelope: ok}).Err())
	assert.NoError(t, (*Reply)(nil).Err())
}

func TestEnvelopeDecode(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"message_type":"finished","winners":[1,2]}`))
	require.NoError(t, err)

	var p FinishedPayload
	require.NoError(t, env.Decode(&p))
	assert.Equal(t, []uint64{1, 2}, p.AllWinners())
	assert.Equal(t, []uint64{5}, FinishedPayload{Winner: 5}.AllWinners())
	assert.Nil(t, FinishedPayload{}.AllWinners())
}

func TestMergeObjects(t *testing.T) {
	header := []byte(`{"message_type":"sort","message_id":1}`)

	out, err := mergeObjects(header, []byte(`{ "order": [3, 1] }`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"message_type":"sort","message_id":1,"order":[3,1]}`, string(out))

	out, err = mergeObjects(header, []byte(`{}`))
	require.NoError(t, err)
	assert.JSONEq(t, string(header), string(out))

	_, err = mergeObjects(header, []byte(`[1]`))
	assert.Error(t, err)

	var v map[string]any
	out, err = mergeObjects(header, []byte("{\n\t\"value\": 3\n}"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(out, &v))
	assert.Equal(t, float64(3), v["value"])
}

func TestParsePayload(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"message_type":"countdown","value":3}`))
	require.NoError(t, err)
	p, err := ParsePayload(env)
	require.NoError(t, err)
	assert.Equal(t, CountdownPayload{Value: 3}, p)

	env, err = ParseEnvelope([]byte(`{"message_type":"state","turn":1}`))
	require.NoError(t, err)
	p, err = ParsePayload(env)
	require.NoError(t, err)
	assert.Nil(t, p)

	env, err = ParseEnvelope([]byte(`{"message_type":"finished","winners":[3,4]}`))
	require.NoError(t, err)
	p, err = ParsePayload(env)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4}, p.(FinishedPayload).AllWinners())

	env, err = ParseEnvelope([]byte(`{"message_type":"launch-missiles"}`))
	require.NoError(t, err)
	p, err = ParsePayload(env)
	assert.ErrorIs(t, err, ErrUnknownMessageType)
	assert.Nil(t, p)
}

func TestMessageDirections(t *testing.T) {
	assert.True(t, MessageSort.CanSend())
	assert.False(t, MessageSort.CanReceive())
	assert.True(t, MessageState.CanReceive())
	assert.False(t, MessageState.CanSend())
	assert.True(t, MessageBid.CanSend())
	assert.True(t, MessageBid.CanReceive())
	assert.False(t, MessageType("bogus").Known())
	assert.False(t, AnyMessage.Known())
}
