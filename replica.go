/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"fmt"
)

// replica is a client's view of one room: sparse copies of both logs plus the
// nick, round and score state the server pushes. It does no I/O; apply
// returns the requests the client should send next.
type replica struct {
	sessionID string
	nicks     map[string]string
	strokes   *SparseLog[Stroke]
	messages  *SparseLog[ChatMessage]
	artist    string
	word      string
	scores    []ScoreEntry
}

func newReplica(sessionID string) *replica {
	return &replica{
		sessionID: sessionID,
		nicks:     make(map[string]string),
		strokes:   NewSparseLog[Stroke](),
		messages:  NewSparseLog[ChatMessage](),
	}
}

func (r *replica) reset() {
	clear(r.nicks)
	r.strokes.Reset()
	r.messages.Reset()
	r.artist = ""
	r.word = ""
	r.scores = nil
}

func fetches(single, ranged string, reqs []FetchRequest) []Message {
	out := make([]Message, 0, len(reqs))
	for _, f := range reqs {
		if f.Single() {
			out = append(out, Message{Type: single, Data: f.Start})
			continue
		}
		out = append(out, Message{Type: ranged, Data: RangeRequest{Start: f.Start, End: f.End}})
	}
	return out
}

func (r *replica) missingStrokes() []Message {
	return fetches(evGetStroke, evGetStrokes, r.strokes.Missing())
}

func (r *replica) missingMessages() []Message {
	return fetches(evGetMessage, evGetMessages, r.messages.Missing())
}

func (r *replica) apply(env Envelope) ([]Message, error) {
	decode := func(v any) error {
		if err := json.Unmarshal(env.Data, v); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return nil
	}

	switch env.Type {
	case evSetSessionID:
		return nil, decode(&r.sessionID)

	case evJoinedRoom:
		r.reset()
		return []Message{
			{Type: evGetNicks},
			{Type: evGetCurrentStroke},
			{Type: evGetCurrentMessage},
		}, nil

	case evCurrentStroke:
		var frontier int
		if err := decode(&frontier); err != nil {
			return nil, err
		}
		r.strokes.SetFrontier(frontier)
		return r.missingStrokes(), nil

	case evCurrentMessage:
		var frontier int
		if err := decode(&frontier); err != nil {
			return nil, err
		}
		r.messages.SetFrontier(frontier)
		return r.missingMessages(), nil

	case evDraw:
		var s Stroke
		if err := decode(&s); err != nil {
			return nil, err
		}
		if r.strokes.Merge(s.ID, s) {
			return r.missingStrokes(), nil
		}

	case evDrawReceived:
		var ack StrokeAck
		if err := decode(&ack); err != nil {
			return nil, err
		}
		ack.Data.ID = ack.ID
		if r.strokes.Merge(ack.ID, ack.Data) {
			return r.missingStrokes(), nil
		}

	case evDrawStrokes:
		var strokes []Stroke
		if err := decode(&strokes); err != nil {
			return nil, err
		}
		for _, s := range strokes {
			r.strokes.Merge(s.ID, s)
		}

	case evMessage:
		var m ChatMessage
		if err := decode(&m); err != nil {
			return nil, err
		}
		if r.messages.Merge(m.ID, m) {
			return r.missingMessages(), nil
		}

	case evMessages:
		var messages []ChatMessage
		if err := decode(&messages); err != nil {
			return nil, err
		}
		for _, m := range messages {
			r.messages.Merge(m.ID, m)
		}

	case evClear:
		r.strokes.Reset()

	case evNick:
		var n NickMessage
		if err := decode(&n); err != nil {
			return nil, err
		}
		r.nicks[n.SessionID] = n.Nick

	case evNicks:
		var nicks []NickMessage
		if err := decode(&nicks); err != nil {
			return nil, err
		}
		for _, n := range nicks {
			r.nicks[n.SessionID] = n.Nick
		}

	case evStartRound:
		var start RoundStartMessage
		if err := decode(&start); err != nil {
			return nil, err
		}
		r.artist = start.Artist
		r.word = ""

	case evGameWord:
		return nil, decode(&r.word)

	case evScores:
		return nil, decode(&r.scores)
	}

	return nil, nil
}
