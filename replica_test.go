/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplicaJoinedRoomResynchronizes(t *testing.T) {
	r := newReplica("s1")
	r.strokes.Merge(0, Stroke{})
	r.nicks["s2"] = "bob"

	reqs, err := r.apply(wire(t, Message{Type: evJoinedRoom}))
	require.NoError(t, err)

	assert.Equal(t, []Message{
		{Type: evGetNicks},
		{Type: evGetCurrentStroke},
		{Type: evGetCurrentMessage},
	}, reqs)
	assert.Equal(t, 0, r.strokes.Len())
	assert.Empty(t, r.nicks)
}

func TestReplicaCurrentMessageRequestsGaps(t *testing.T) {
	r := newReplica("s1")
	for _, id := range []int{0, 3, 7, 8} {
		r.messages.Merge(id, ChatMessage{ID: id})
	}

	reqs, err := r.apply(wire(t, Message{Type: evCurrentMessage, Data: 9}))
	require.NoError(t, err)

	assert.Equal(t, []Message{
		{Type: evGetMessages, Data: RangeRequest{Start: 1, End: 3}},
		{Type: evGetMessages, Data: RangeRequest{Start: 4, End: 7}},
		{Type: evGetMessage, Data: 9},
	}, reqs)
}

func TestReplicaLiveEventBeyondFrontierTriggersFetch(t *testing.T) {
	r := newReplica("s1")
	r.strokes.Merge(0, Stroke{ID: 0})

	reqs, err := r.apply(wire(t, Message{Type: evDraw, Data: Stroke{ID: 2, Type: strokeContinue}}))
	require.NoError(t, err)
	assert.Equal(t, []Message{{Type: evGetStroke, Data: 1}}, reqs)

	reqs, err = r.apply(wire(t, Message{Type: evDraw, Data: Stroke{ID: 1, Type: strokeContinue}}))
	require.NoError(t, err)
	assert.Empty(t, reqs)
	assert.True(t, r.strokes.Complete())

	// Duplicates change nothing.
	reqs, err = r.apply(wire(t, Message{Type: evDraw, Data: Stroke{ID: 1, Type: strokeContinue}}))
	require.NoError(t, err)
	assert.Empty(t, reqs)
	assert.Equal(t, 3, r.strokes.Len())
}

func TestReplicaDrawReceivedCarriesID(t *testing.T) {
	r := newReplica("s1")

	ack := StrokeAck{ID: 0, Data: Stroke{X: 1, Type: strokeStart}}
	reqs, err := r.apply(wire(t, Message{Type: evDrawReceived, Data: ack}))
	require.NoError(t, err)
	assert.Empty(t, reqs)

	s, ok := r.strokes.Get(0)
	require.True(t, ok)
	assert.Equal(t, float64(1), s.X)
}

func TestReplicaRoundState(t *testing.T) {
	r := newReplica("s1")
	r.strokes.Merge(0, Stroke{})

	for _, msg := range []Message{
		{Type: evNicks, Data: []NickMessage{{SessionID: "s1", Nick: "alice"}, {SessionID: "s2", Nick: "bob"}}},
		{Type: evNick, Data: NickMessage{SessionID: "s2", Nick: "robert"}},
		{Type: evClear},
		{Type: evStartRound, Data: RoundStartMessage{Artist: "s2"}},
		{Type: evScores, Data: []ScoreEntry{{SessionID: "s1", Score: 42}}},
	} {
		_, err := r.apply(wire(t, msg))
		require.NoError(t, err, msg.Type)
	}

	assert.Equal(t, "robert", r.nickOf("s2"))
	assert.Equal(t, "s9", r.nickOf("s9"))
	assert.Equal(t, 0, r.strokes.Len())
	assert.Equal(t, "s2", r.artist)
	assert.Empty(t, r.word)
	assert.Equal(t, []ScoreEntry{{SessionID: "s1", Score: 42}}, r.scores)

	_, err := r.apply(wire(t, Message{Type: evGameWord, Data: "Hot Dog"}))
	require.NoError(t, err)
	assert.Equal(t, "Hot Dog", r.word)
}

func TestReplicaRejectsMalformedPayload(t *testing.T) {
	r := newReplica("")

	_, err := r.apply(Envelope{Type: evCurrentStroke, Data: json.RawMessage(`"two"`)})
	assert.Error(t, err)

	_, err = r.apply(Envelope{Type: evSetSessionID, Data: json.RawMessage(`"s7"`)})
	require.NoError(t, err)
	assert.Equal(t, "s7", r.sessionID)
}
