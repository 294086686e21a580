/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"math"
	"slices"
	"time"
)

// startRound moves an idle room into a round. Calling it on a room that is
// already in a round does nothing.
func (e *Engine) startRound(room *Room) {
	if room.inRound() || len(room.players) < 2 {
		return
	}

	if room.timer != nil {
		room.timer.Stop()
		room.timer = nil
	}

	e.clearStrokes(room)

	if room.turn >= len(room.players) {
		room.turn = 0
	}

	room.started = true
	room.round++
	room.artist = room.players[room.turn]
	room.roundStart = e.now()
	room.word = e.words.Word()

	room.remaining = make([]string, 0, len(room.players)-1)
	for _, id := range room.players {
		if id != room.artist {
			room.remaining = append(room.remaining, id)
		}
	}

	expiry := roundExpiry{roomID: room.id, room: room, round: room.round}
	room.timer = e.afterFunc(e.cfg.roundLength, func() {
		e.expire(expiry)
	})

	logf(e.cfg, "ROUND: Round %d in %q started, artist %s", room.round, room.id, room.artist)

	e.toRoom(room, Message{Type: evStartRound, Data: RoundStartMessage{Artist: room.artist}})
	e.toSession(room.artist, Message{Type: evGameWord, Data: room.word})

	room.turn++
}

// endRound closes the current round, reaps idle sessions, publishes the scores
// and, while the room is still started, begins the next round.
func (e *Engine) endRound(room *Room) {
	if room.timer != nil {
		room.timer.Stop()
		room.timer = nil
	}
	room.artist = ""
	room.remaining = nil

	if room.turn >= len(room.players) {
		room.turn = 0
	}

	// Reaping can drop the room to one player, which ends it from leaveRoom.
	ends := room.ends
	e.clearOldSessions(room.id)
	if e.rooms[room.id] != room || room.ends != ends {
		return
	}
	room.ends++

	logf(e.cfg, "ROUND: Round %d in %q ended", room.round, room.id)

	e.toRoom(room, Message{Type: evScores, Data: room.scoreTable()})

	if room.started {
		e.startRound(room)
	}
}

// onRoundExpired ends a round when its timer fires. Expiries of rounds that
// already ended some other way are ignored.
func (e *Engine) onRoundExpired(x roundExpiry) {
	room, ok := e.rooms[x.roomID]
	if !ok || room != x.room || room.round != x.round || !room.inRound() {
		return
	}
	room.timer = nil

	logf(e.cfg, "ROUND: Round %d in %q timed out", room.round, room.id)
	e.endRound(room)
}

// guessScore converts the time left in a round into points, rounding half up.
// Late guesses score negative.
func guessScore(roundLength, elapsed time.Duration) int {
	remaining := roundLength.Milliseconds() - elapsed.Milliseconds()
	return int(math.Floor(float64(remaining)/1000 + 0.5))
}

// chat treats a message as a guess while a round is running, and as ordinary
// chat otherwise. The artist may not send anything during their own turn.
func (e *Engine) chat(sess *Session, text string) {
	room, ok := e.rooms[sess.Room]
	if !ok || sess.ID == room.artist {
		return
	}

	if room.inRound() && text == room.word {
		i := slices.Index(room.remaining, sess.ID)
		if i < 0 {
			return
		}

		points := guessScore(e.cfg.roundLength, e.now().Sub(room.roundStart))
		room.scores[sess.ID] += points
		room.remaining = slices.Delete(room.remaining, i, i+1)

		logf(e.cfg, "ROUND: Session %s guessed the word in %q for %d points", sess.ID, room.id, points)

		if len(room.remaining) == 0 {
			e.endRound(room)
		}
		return
	}

	msg := ChatMessage{
		ID:        room.messages.nextID(),
		SessionID: sess.ID,
		Data:      text,
	}
	room.messages.append(msg)

	e.toRoom(room, Message{Type: evMessage, Data: msg})
}

func (e *Engine) draw(connID string, sess *Session, s Stroke) {
	room, ok := e.rooms[sess.Room]
	if !ok || room.artist == "" || sess.ID != room.artist {
		return
	}

	s.ID = room.strokes.nextID()
	room.strokes.append(s)

	e.toConn(connID, Message{Type: evDrawReceived, Data: StrokeAck{ID: s.ID, Data: s}})
	e.toRoomExcept(room, connID, Message{Type: evDraw, Data: s})
}

func (e *Engine) clear(sess *Session) {
	room, ok := e.rooms[sess.Room]
	if !ok || room.artist == "" || sess.ID != room.artist {
		return
	}

	e.clearStrokes(room)
}

func (e *Engine) clearStrokes(room *Room) {
	room.strokes.clear()
	e.toRoom(room, Message{Type: evClear})
}
