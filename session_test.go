/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(now *time.Time) *SessionStore {
	n := 0
	return newSessionStore(func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}, func() time.Time { return *now })
}

func TestResolveOrCreate(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(&now)

	sess, created := s.resolveOrCreate("c1", "")
	require.True(t, created)
	assert.Equal(t, "s1", sess.ID)
	assert.Equal(t, now, sess.LastAccess)

	again, created := s.resolveOrCreate("c2", "s1")
	assert.False(t, created)
	assert.Same(t, sess, again)

	_, created = s.resolveOrCreate("c3", "bogus")
	assert.True(t, created)
	assert.Len(t, s.sessions, 2)
}

func TestRebindPrunesOldConnection(t *testing.T) {
	now := time.Now()
	s := newTestStore(&now)

	s.resolveOrCreate("c1", "")
	s.resolveOrCreate("c2", "s1")

	assert.Nil(t, s.touch("c1"))
	conn, ok := s.connFor("s1")
	require.True(t, ok)
	assert.Equal(t, "c2", conn)
	assert.Len(t, s.byConn, 1)
}

func TestConnectionSwitchingSessions(t *testing.T) {
	now := time.Now()
	s := newTestStore(&now)

	s.resolveOrCreate("c1", "")
	s.resolveOrCreate("c2", "")

	// c1 now claims to be s2.
	s.resolveOrCreate("c1", "s2")

	_, ok := s.connFor("s1")
	assert.False(t, ok)

	conn, _ := s.connFor("s2")
	assert.Equal(t, "c1", conn)
	assert.Nil(t, s.touch("c2"))
}

func TestDisconnect(t *testing.T) {
	now := time.Now()
	s := newTestStore(&now)

	s.resolveOrCreate("c1", "")
	s.disconnect("c1")
	s.disconnect("never-seen")

	_, ok := s.connFor("s1")
	assert.False(t, ok)
	assert.Empty(t, s.byConn)

	_, ok = s.get("s1")
	assert.True(t, ok, "session survives its connection")
}

func TestStaleDisconnectKeepsNewBinding(t *testing.T) {
	now := time.Now()
	s := newTestStore(&now)

	s.resolveOrCreate("c1", "")
	s.resolveOrCreate("c2", "s1")
	s.disconnect("c1")

	conn, ok := s.connFor("s1")
	require.True(t, ok)
	assert.Equal(t, "c2", conn)
}

func TestTouchRefreshesLastAccess(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(&now)

	s.resolveOrCreate("c1", "")
	now = now.Add(time.Minute)

	sess := s.touch("c1")
	require.NotNil(t, sess)
	assert.Equal(t, now, sess.LastAccess)
}

func TestNickTakenIsGlobal(t *testing.T) {
	now := time.Now()
	s := newTestStore(&now)

	a, _ := s.resolveOrCreate("c1", "")
	a.Nick = "alice"
	a.Room = "r1"

	assert.True(t, s.nickTaken("alice"))
	assert.False(t, s.nickTaken("bob"))
}

func TestIdleAndRemove(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	now := start
	s := newTestStore(&now)

	for _, c := range []string{"c1", "c2", "c3"} {
		sess, _ := s.resolveOrCreate(c, "")
		sess.Room = "r1"
	}
	other, _ := s.resolveOrCreate("c4", "")
	other.Room = "r2"

	now = start.Add(5 * time.Minute)
	s.touch("c2")

	assert.Equal(t, []string{"s1", "s3"}, s.idle("r1", start.Add(time.Minute)))
	assert.Empty(t, s.idle("r1", start), "cutoff is exclusive")

	s.remove("s1")
	_, ok := s.get("s1")
	assert.False(t, ok)
	assert.Nil(t, s.touch("c1"))
	assert.Len(t, s.inRoom("r1"), 2)
}
