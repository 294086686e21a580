/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

// eventLog is the authoritative, append-only copy of a room's strokes or
// messages. An entry's id is its index.
type eventLog[T any] struct {
	entries []T
}

func (l *eventLog[T]) nextID() int {
	return len(l.entries)
}

func (l *eventLog[T]) append(v T) {
	l.entries = append(l.entries, v)
}

// frontier is the highest assigned id, or -1 for an empty log.
func (l *eventLog[T]) frontier() int {
	return len(l.entries) - 1
}

func (l *eventLog[T]) get(id int) (T, bool) {
	if id < 0 || id >= len(l.entries) {
		var zero T
		return zero, false
	}
	return l.entries[id], true
}

// slice answers only when every id in [start, end) exists.
func (l *eventLog[T]) slice(start, end int) ([]T, bool) {
	if start < 0 || start >= end || end > len(l.entries) {
		return nil, false
	}
	out := make([]T, end-start)
	copy(out, l.entries[start:end])
	return out, true
}

func (l *eventLog[T]) clear() {
	l.entries = nil
}
