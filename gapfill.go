/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"maps"
	"slices"
)

// FetchRequest asks for the half-open id range [Start, End).
type FetchRequest struct {
	Start int
	End   int
}

// Single reports whether the request covers exactly one id and should be sent
// as a by-value fetch rather than a range.
func (f FetchRequest) Single() bool {
	return f.End-f.Start == 1
}

// missingRanges returns one request per maximal run of ids absent from held
// in [0, frontier]. held must be sorted ascending.
func missingRanges(held []int, frontier int) []FetchRequest {
	keys := make([]int, 0, len(held)+2)
	if len(held) == 0 || held[0] != 0 {
		keys = append(keys, -1)
	}
	keys = append(keys, held...)
	if keys[len(keys)-1] != frontier {
		keys = append(keys, frontier+1)
	}

	var reqs []FetchRequest
	for i := 0; i+1 < len(keys); i++ {
		a, b := keys[i], keys[i+1]
		if b-a >= 2 {
			reqs = append(reqs, FetchRequest{Start: a + 1, End: b})
		}
	}
	return reqs
}

// SparseLog is a client-side copy of a room log. Entries may be missing until
// they are fetched; a missing id is simply absent from the map.
type SparseLog[T any] struct {
	entries  map[int]T
	frontier int
}

func NewSparseLog[T any]() *SparseLog[T] {
	return &SparseLog[T]{
		entries:  make(map[int]T),
		frontier: -1,
	}
}

// Merge stores v under id. Reapplying an id overwrites it with the same
// authoritative value. It reports whether the id moved the frontier forward.
func (s *SparseLog[T]) Merge(id int, v T) bool {
	if id < 0 {
		return false
	}
	s.entries[id] = v
	if id > s.frontier {
		s.frontier = id
		return true
	}
	return false
}

func (s *SparseLog[T]) Get(id int) (T, bool) {
	v, ok := s.entries[id]
	return v, ok
}

func (s *SparseLog[T]) Len() int {
	return len(s.entries)
}

func (s *SparseLog[T]) Frontier() int {
	return s.frontier
}

// SetFrontier records the server-reported frontier. It never moves backwards
// past ids already held.
func (s *SparseLog[T]) SetFrontier(frontier int) {
	if frontier < -1 {
		frontier = -1
	}
	if top := s.highest(); top > frontier {
		frontier = top
	}
	s.frontier = frontier
}

func (s *SparseLog[T]) highest() int {
	top := -1
	for id := range s.entries {
		top = max(top, id)
	}
	return top
}

func (s *SparseLog[T]) Keys() []int {
	return slices.Sorted(maps.Keys(s.entries))
}

// Missing computes the fetches needed to hold every id up to the frontier.
func (s *SparseLog[T]) Missing() []FetchRequest {
	return missingRanges(s.Keys(), s.frontier)
}

func (s *SparseLog[T]) Complete() bool {
	return len(s.Missing()) == 0
}

// Entries returns the held entries ordered by id.
func (s *SparseLog[T]) Entries() []T {
	keys := s.Keys()
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.entries[k])
	}
	return out
}

func (s *SparseLog[T]) Reset() {
	clear(s.entries)
	s.frontier = -1
}
