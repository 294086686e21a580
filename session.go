/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"slices"
	"strings"
	"time"
)

// Session is a player identity that outlives any single connection. Nick and
// Room are empty when unset.
type Session struct {
	ID         string
	Nick       string
	Room       string
	LastAccess time.Time
}

// SessionStore holds every session plus the binding between sessions and live
// connections. bySession is authoritative; byConn is pruned whenever a
// session moves to a new connection or a connection goes away, so it never
// outgrows the set of live connections.
type SessionStore struct {
	sessions  map[string]*Session
	byConn    map[string]string
	bySession map[string]string

	newID func() string
	now   func() time.Time
}

func newSessionStore(newID func() string, now func() time.Time) *SessionStore {
	return &SessionStore{
		sessions:  make(map[string]*Session),
		byConn:    make(map[string]string),
		bySession: make(map[string]string),
		newID:     newID,
		now:       now,
	}
}

// resolveOrCreate binds connID to the presented session, minting a fresh
// session when presented is empty or unknown.
func (s *SessionStore) resolveOrCreate(connID, presented string) (*Session, bool) {
	if sess, ok := s.sessions[presented]; ok && presented != "" {
		s.bind(connID, presented)
		return sess, false
	}

	sess := &Session{
		ID:         s.newID(),
		LastAccess: s.now(),
	}
	s.sessions[sess.ID] = sess
	s.bind(connID, sess.ID)

	return sess, true
}

func (s *SessionStore) bind(connID, sessionID string) {
	if old, ok := s.bySession[sessionID]; ok && old != connID {
		delete(s.byConn, old)
	}
	if prev, ok := s.byConn[connID]; ok && prev != sessionID {
		delete(s.bySession, prev)
	}
	s.byConn[connID] = sessionID
	s.bySession[sessionID] = connID
}

// touch refreshes the session bound to connID and returns it, or nil when the
// connection has not presented an identity yet.
func (s *SessionStore) touch(connID string) *Session {
	id, ok := s.byConn[connID]
	if !ok {
		return nil
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	sess.LastAccess = s.now()
	return sess
}

func (s *SessionStore) get(id string) (*Session, bool) {
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *SessionStore) connFor(sessionID string) (string, bool) {
	conn, ok := s.bySession[sessionID]
	return conn, ok
}

// disconnect forgets a dead connection. The session itself stays until the
// reaper collects it.
func (s *SessionStore) disconnect(connID string) {
	id, ok := s.byConn[connID]
	if !ok {
		return
	}
	delete(s.byConn, connID)
	if s.bySession[id] == connID {
		delete(s.bySession, id)
	}
}

func (s *SessionStore) remove(sessionID string) {
	if conn, ok := s.bySession[sessionID]; ok {
		delete(s.byConn, conn)
		delete(s.bySession, sessionID)
	}
	delete(s.sessions, sessionID)
}

// nickTaken checks every session, regardless of room.
func (s *SessionStore) nickTaken(nick string) bool {
	for _, sess := range s.sessions {
		if sess.Nick == nick {
			return true
		}
	}
	return false
}

func (s *SessionStore) inRoom(roomID string) []*Session {
	var out []*Session
	for _, sess := range s.sessions {
		if sess.Room == roomID {
			out = append(out, sess)
		}
	}
	slices.SortFunc(out, func(a, b *Session) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// idle lists, in id order, the sessions of roomID last seen before cutoff.
func (s *SessionStore) idle(roomID string, cutoff time.Time) []string {
	var ids []string
	for id, sess := range s.sessions {
		if sess.Room == roomID && sess.LastAccess.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}
