/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventLog(t *testing.T) {
	var l eventLog[ChatMessage]
	assert.Equal(t, -1, l.frontier())

	for i := 0; i < 3; i++ {
		l.append(ChatMessage{ID: l.nextID(), Data: "m"})
	}
	assert.Equal(t, 2, l.frontier())

	m, ok := l.get(1)
	assert.True(t, ok)
	assert.Equal(t, 1, m.ID)

	_, ok = l.get(3)
	assert.False(t, ok)
	_, ok = l.get(-1)
	assert.False(t, ok)

	got, ok := l.slice(0, 3)
	assert.True(t, ok)
	assert.Len(t, got, 3)

	for _, r := range [][2]int{{0, 4}, {2, 2}, {3, 1}, {-1, 2}} {
		_, ok := l.slice(r[0], r[1])
		assert.False(t, ok, "slice(%d, %d)", r[0], r[1])
	}

	l.clear()
	assert.Equal(t, -1, l.frontier())
	assert.Equal(t, 0, l.nextID())
}

func TestEventLogSliceIsACopy(t *testing.T) {
	var l eventLog[Stroke]
	l.append(Stroke{ID: 0, Colour: "red"})

	got, _ := l.slice(0, 1)
	got[0].Colour = "blue"

	s, _ := l.get(0)
	assert.Equal(t, "red", s.Colour)
}
