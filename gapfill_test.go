/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingRanges(t *testing.T) {
	tests := []struct {
		name     string
		held     []int
		frontier int
		want     []FetchRequest
	}{
		{"empty log", nil, -1, nil},
		{"nothing held", nil, 5, []FetchRequest{{0, 6}}},
		{"complete", []int{0, 1, 2}, 2, nil},
		{"two runs", []int{0, 3, 7, 8}, 8, []FetchRequest{{1, 3}, {4, 7}}},
		{"single hole", []int{0, 2}, 2, []FetchRequest{{1, 2}}},
		{"missing head", []int{2, 3}, 3, []FetchRequest{{0, 2}}},
		{"missing only zero", []int{1, 2}, 2, []FetchRequest{{0, 1}}},
		{"missing tail", []int{0}, 4, []FetchRequest{{1, 5}}},
		{"missing last", []int{0, 1}, 2, []FetchRequest{{2, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, missingRanges(tt.held, tt.frontier))
		})
	}
}

func TestMissingRangesSingleVersusRange(t *testing.T) {
	reqs := missingRanges([]int{0, 2, 6}, 6)
	require.Len(t, reqs, 2)

	assert.True(t, reqs[0].Single())
	assert.Equal(t, 1, reqs[0].Start)
	assert.False(t, reqs[1].Single())
	assert.Equal(t, FetchRequest{Start: 3, End: 6}, reqs[1])
}

// Satisfying every request must leave [0, frontier] fully held, using one
// request per maximal missing run.
func TestMissingRangesClosesEveryGap(t *testing.T) {
	cases := []struct {
		held     []int
		frontier int
	}{
		{nil, 0},
		{[]int{0}, 9},
		{[]int{4}, 4},
		{[]int{1, 3, 5, 7}, 9},
		{[]int{0, 1, 2, 10, 11, 20}, 25},
	}

	for _, c := range cases {
		reqs := missingRanges(c.held, c.frontier)

		have := map[int]bool{}
		for _, id := range c.held {
			have[id] = true
		}

		runs := 0
		for id := 0; id <= c.frontier; id++ {
			if !have[id] && (id == 0 || have[id-1]) {
				runs++
			}
		}
		assert.Len(t, reqs, runs, "held %v frontier %d", c.held, c.frontier)

		for _, r := range reqs {
			for id := r.Start; id < r.End; id++ {
				assert.False(t, have[id], "id %d requested but already held", id)
				have[id] = true
			}
		}
		for id := 0; id <= c.frontier; id++ {
			assert.True(t, have[id], "id %d still missing", id)
		}
	}
}

func TestSparseLogMergeIsIdempotent(t *testing.T) {
	l := NewSparseLog[ChatMessage]()
	m := ChatMessage{ID: 3, SessionID: "s1", Data: "hi"}

	assert.True(t, l.Merge(3, m))
	before := l.Entries()

	assert.False(t, l.Merge(3, m))
	assert.Equal(t, before, l.Entries())
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 3, l.Frontier())
}

func TestSparseLogMissingAndFrontier(t *testing.T) {
	l := NewSparseLog[Stroke]()
	assert.True(t, l.Complete())

	l.SetFrontier(4)
	assert.Equal(t, []FetchRequest{{0, 5}}, l.Missing())

	for _, id := range []int{0, 1, 4} {
		l.Merge(id, Stroke{ID: id})
	}
	assert.Equal(t, []FetchRequest{{2, 4}}, l.Missing())

	l.SetFrontier(1)
	assert.Equal(t, 4, l.Frontier(), "frontier never drops below held ids")

	l.Merge(2, Stroke{ID: 2})
	l.Merge(3, Stroke{ID: 3})
	assert.True(t, l.Complete())
	assert.True(t, slices.Equal([]int{0, 1, 2, 3, 4}, l.Keys()))

	_, ok := l.Get(5)
	assert.False(t, ok)

	l.Reset()
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, -1, l.Frontier())
}

func TestSparseLogIgnoresNegativeIDs(t *testing.T) {
	l := NewSparseLog[Stroke]()
	assert.False(t, l.Merge(-1, Stroke{}))
	assert.Equal(t, 0, l.Len())
}
