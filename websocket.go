/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"
)

const (
	maxFrameSize = 64 << 10
	sendQueue    = 256
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one live websocket connection. Its id is minted per connection;
// a reconnecting player gets a new Client and reclaims its session by id.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan Message
	limiter *rate.Limiter
}

func newClient(cfg *Config, conn *websocket.Conn) *Client {
	return &Client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan Message, sendQueue),
		limiter: rate.NewLimiter(rate.Limit(cfg.messageRate), cfg.messageBurst),
	}
}

// clientSet is the engine's view of live connections. It is only used from
// the engine goroutine.
type clientSet struct {
	clients map[string]*Client
}

func newClientSet() *clientSet {
	return &clientSet{clients: make(map[string]*Client)}
}

func (s *clientSet) add(c *Client) {
	s.clients[c.id] = c
}

func (s *clientSet) remove(c *Client) {
	if cur, ok := s.clients[c.id]; ok && cur == c {
		delete(s.clients, c.id)
		close(c.send)
	}
}

func (s *clientSet) len() int {
	return len(s.clients)
}

// Send drops messages for connections that are no longer open, and drops the
// connection itself when it cannot keep up.
func (s *clientSet) Send(connID string, msg Message) {
	c, ok := s.clients[connID]
	if !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(s.clients, connID)
		close(c.send)
	}
}

func serveWS(cfg *Config, e *Engine) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Websocket upgrade from %s failed: %v", realIP(r), err)
			return
		}

		client := newClient(cfg, conn)
		if !e.attach(client) {
			_ = conn.Close()
			return
		}

		logf(cfg, "SERVE: Websocket %s opened by %s", client.id, realIP(r))

		go client.writePump()
		client.readPump(cfg, e)
	}
}

func (c *Client) readPump(cfg *Config, e *Engine) {
	defer func() {
		e.detach(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
			logf(cfg, "SESSION: Dropped malformed frame from connection %s", c.id)
			continue
		}

		if !c.allow(env.Type) {
			logf(cfg, "SESSION: Rate limited %q from connection %s", env.Type, c.id)
			continue
		}

		if !e.submit(c.id, env) {
			return
		}
	}
}

// unthrottled lists stroke input and log reads, which are exempt from the
// per-connection limit.
var unthrottled = map[string]bool{
	evDrawClick:         true,
	evGetCurrentStroke:  true,
	evGetCurrentMessage: true,
	evGetNicks:          true,
	evGetStroke:         true,
	evGetMessage:        true,
	evGetStrokes:        true,
	evGetMessages:       true,
}

// allow applies the per-connection limit to chat, nick, room and session
// actions.
func (c *Client) allow(typ string) bool {
	if unthrottled[typ] {
		return true
	}
	return c.limiter.Allow()
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
