/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// WordSource supplies the word for each round. It is called exactly once per
// round start.
type WordSource interface {
	Word() string
}

type fixedWord string

func (w fixedWord) Word() string {
	return string(w)
}

// Timer is the cancellable handle of a pending round expiry.
type Timer interface {
	Stop() bool
}

// Transport delivers a message to one live connection. Messages for
// connections that are gone are dropped.
type Transport interface {
	Send(connID string, msg Message)
}

type inbound struct {
	connID string
	env    Envelope
}

// roundExpiry names the room instance as well as its id, so an expiry queued
// before a room was deleted cannot end a round in its replacement.
type roundExpiry struct {
	roomID string
	room   *Room
	round  int
}

// Engine owns every session, binding, room and log. All of its state is
// touched only from the goroutine running run, one action at a time.
type Engine struct {
	cfg       *Config
	sessions  *SessionStore
	rooms     map[string]*Room
	words     WordSource
	clients   *clientSet
	transport Transport

	now       func() time.Time
	afterFunc func(time.Duration, func()) Timer

	register chan *Client
	unreg    chan *Client
	inbox    chan inbound
	expired  chan roundExpiry
	queries  chan func()
	done     chan struct{}
}

func newEngine(cfg *Config, words WordSource) *Engine {
	clients := newClientSet()

	return &Engine{
		cfg:       cfg,
		sessions:  newSessionStore(uuid.NewString, time.Now),
		rooms:     make(map[string]*Room),
		words:     words,
		clients:   clients,
		transport: clients,
		now:       time.Now,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		register: make(chan *Client),
		unreg:    make(chan *Client),
		inbox:    make(chan inbound, 256),
		expired:  make(chan roundExpiry, 16),
		queries:  make(chan func()),
		done:     make(chan struct{}),
	}
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)
	defer e.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-e.register:
			e.clients.add(c)
			logf(e.cfg, "SESSION: Connection %s opened (%d open)", c.id, e.clients.len())

		case c := <-e.unreg:
			e.clients.remove(c)
			e.sessions.disconnect(c.id)
			logf(e.cfg, "SESSION: Connection %s closed (%d open)", c.id, e.clients.len())

		case in := <-e.inbox:
			e.handle(in.connID, in.env)

		case x := <-e.expired:
			e.onRoundExpired(x)

		case q := <-e.queries:
			q()
		}
	}
}

func (e *Engine) stopTimers() {
	for _, room := range e.rooms {
		if room.timer != nil {
			room.timer.Stop()
			room.timer = nil
		}
	}
}

// submit hands an action to the engine loop, giving up once the engine stops.
func (e *Engine) submit(connID string, env Envelope) bool {
	select {
	case e.inbox <- inbound{connID: connID, env: env}:
		return true
	case <-e.done:
		return false
	}
}

func (e *Engine) attach(c *Client) bool {
	select {
	case e.register <- c:
		return true
	case <-e.done:
		return false
	}
}

func (e *Engine) detach(c *Client) {
	select {
	case e.unreg <- c:
	case <-e.done:
	}
}

func (e *Engine) expire(x roundExpiry) {
	select {
	case e.expired <- x:
	case <-e.done:
	}
}

// query runs f on the engine loop and waits for it to finish.
func (e *Engine) query(ctx context.Context, f func()) error {
	finished := make(chan struct{})
	run := func() {
		defer close(finished)
		f()
	}

	select {
	case e.queries <- run:
	case <-e.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handle processes one client action. Anything unauthorized or malformed is
// dropped without a reply.
func (e *Engine) handle(connID string, env Envelope) {
	sess := e.sessions.touch(connID)

	if env.Type == evSessionID {
		var presented *string
		_ = env.decode(&presented)
		e.identify(connID, presented)
		return
	}

	if sess == nil {
		logf(e.cfg, "SESSION: Dropped %q from unidentified connection %s", env.Type, connID)
		return
	}

	switch env.Type {
	case evRequestNick:
		var nick string
		if !env.decode(&nick) {
			return
		}
		e.requestNick(connID, sess, nick)

	case evJoinRoom:
		var roomID string
		if !env.decode(&roomID) || roomID == "" {
			return
		}
		e.joinRoom(connID, sess, roomID)

	case evLeaveRoom:
		if sess.Room != "" {
			e.leaveRoom(sess.ID, sess.Room)
		}

	case evDrawClick:
		var s Stroke
		if !env.decode(&s) || !s.Type.valid() {
			return
		}
		e.draw(connID, sess, s)

	case evClear:
		e.clear(sess)

	case evMessage:
		var text string
		if !env.decode(&text) || text == "" {
			return
		}
		e.chat(sess, text)

	default:
		e.read(connID, sess, env)
	}
}

// read serves the stateless log and directory queries of a room member.
func (e *Engine) read(connID string, sess *Session, env Envelope) {
	room, ok := e.rooms[sess.Room]
	if !ok {
		return
	}

	switch env.Type {
	case evGetCurrentStroke:
		e.toConn(connID, Message{Type: evCurrentStroke, Data: room.strokes.frontier()})

	case evGetCurrentMessage:
		e.toConn(connID, Message{Type: evCurrentMessage, Data: room.messages.frontier()})

	case evGetNicks:
		nicks := []NickMessage{}
		for _, s := range e.sessions.inRoom(room.id) {
			nicks = append(nicks, NickMessage{SessionID: s.ID, Nick: s.Nick})
		}
		e.toConn(connID, Message{Type: evNicks, Data: nicks})

	case evGetStroke:
		var id int
		if !env.decode(&id) {
			return
		}
		if s, ok := room.strokes.get(id); ok {
			e.toConn(connID, Message{Type: evDraw, Data: s})
		}

	case evGetMessage:
		var id int
		if !env.decode(&id) {
			return
		}
		if m, ok := room.messages.get(id); ok {
			e.toConn(connID, Message{Type: evMessage, Data: m})
		}

	case evGetStrokes:
		var r RangeRequest
		if !env.decode(&r) {
			return
		}
		if strokes, ok := room.strokes.slice(r.Start, r.End); ok {
			e.toConn(connID, Message{Type: evDrawStrokes, Data: strokes})
		}

	case evGetMessages:
		var r RangeRequest
		if !env.decode(&r) {
			return
		}
		if messages, ok := room.messages.slice(r.Start, r.End); ok {
			e.toConn(connID, Message{Type: evMessages, Data: messages})
		}
	}
}

func (e *Engine) identify(connID string, presented *string) {
	id := ""
	if presented != nil {
		id = *presented
	}

	sess, created := e.sessions.resolveOrCreate(connID, id)
	if !created {
		logf(e.cfg, "SESSION: Session %s resumed on connection %s", sess.ID, connID)
		return
	}

	logf(e.cfg, "SESSION: Issued session %s to connection %s", sess.ID, connID)
	e.toConn(connID, Message{Type: evSetSessionID, Data: sess.ID})
}

func (e *Engine) requestNick(connID string, sess *Session, nick string) {
	if nick == "" || e.sessions.nickTaken(nick) {
		e.toConn(connID, Message{Type: evNickStatus, Data: false})
		return
	}

	sess.Nick = nick
	e.toConn(connID, Message{Type: evNickStatus, Data: true})

	if room, ok := e.rooms[sess.Room]; ok {
		e.toRoom(room, Message{Type: evNick, Data: NickMessage{SessionID: sess.ID, Nick: nick}})
	}
}
