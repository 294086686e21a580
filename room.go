/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"slices"
	"time"
)

// Room is one game. players is the turn order; scores always has exactly the
// same keys. artist, when set, is a member of players.
type Room struct {
	id        string
	scores    map[string]int
	started   bool
	artist    string
	word      string
	players   []string
	turn      int
	remaining []string

	roundStart time.Time
	timer      Timer
	round      int
	ends       int

	strokes  eventLog[Stroke]
	messages eventLog[ChatMessage]
}

func newRoom(id string) *Room {
	return &Room{
		id:     id,
		scores: make(map[string]int),
	}
}

// inRound is true between startRound and the following endRound.
func (r *Room) inRound() bool {
	return r.started && r.artist != ""
}

func (r *Room) scoreTable() []ScoreEntry {
	table := make([]ScoreEntry, 0, len(r.players))
	for _, id := range r.players {
		table = append(table, ScoreEntry{SessionID: id, Score: r.scores[id]})
	}
	return table
}

func (e *Engine) joinRoom(connID string, sess *Session, roomID string) {
	if sess.Room != "" && sess.Room != roomID {
		e.leaveRoom(sess.ID, sess.Room)
	}

	room, ok := e.rooms[roomID]
	if !ok {
		room = newRoom(roomID)
		e.rooms[roomID] = room
		logf(e.cfg, "ROOMS: Created room %q", roomID)
	}

	if !slices.Contains(room.players, sess.ID) {
		room.players = append(room.players, sess.ID)
		room.scores[sess.ID] = 0
		logf(e.cfg, "ROOMS: Session %s joined %q (%d players)", sess.ID, roomID, len(room.players))
	}
	sess.Room = roomID

	if len(room.players) >= 2 && !room.started {
		e.startRound(room)
	}

	e.toConn(connID, Message{Type: evJoinedRoom})
	e.toRoom(room, Message{Type: evNick, Data: NickMessage{SessionID: sess.ID, Nick: sess.Nick}})
}

func (e *Engine) leaveRoom(sessionID, roomID string) {
	room, ok := e.rooms[roomID]
	if !ok {
		return
	}

	i := slices.Index(room.players, sessionID)
	if i < 0 {
		return
	}
	room.players = slices.Delete(room.players, i, i+1)
	delete(room.scores, sessionID)
	room.remaining = slices.DeleteFunc(room.remaining, func(id string) bool {
		return id == sessionID
	})

	if sess, ok := e.sessions.get(sessionID); ok && sess.Room == roomID {
		sess.Room = ""
	}

	logf(e.cfg, "ROOMS: Session %s left %q (%d players)", sessionID, roomID, len(room.players))

	switch {
	case len(room.players) <= 1:
		room.started = false
		e.endRound(room)
	case sessionID == room.artist:
		e.endRound(room)
	case room.inRound() && len(room.remaining) == 0:
		e.endRound(room)
	}

	if len(room.players) == 0 && e.rooms[roomID] == room {
		delete(e.rooms, roomID)
		logf(e.cfg, "ROOMS: Deleted empty room %q", roomID)
	}
}

// clearOldSessions reaps the sessions of roomID that have been idle longer
// than the configured timeout. It is the only way abandoned connections that
// never sent leaveRoom are reclaimed.
func (e *Engine) clearOldSessions(roomID string) {
	cutoff := e.now().Add(-e.cfg.idleTimeout)

	for _, id := range e.sessions.idle(roomID, cutoff) {
		if _, ok := e.sessions.get(id); !ok {
			continue
		}
		e.sessions.remove(id)
		logf(e.cfg, "SESSION: Reaped idle session %s from %q", id, roomID)
		e.leaveRoom(id, roomID)
	}
}
