/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
)

// Events sent by clients.
const (
	evSessionID         = "sessionID"
	evRequestNick       = "requestNick"
	evJoinRoom          = "joinRoom"
	evLeaveRoom         = "leaveRoom"
	evDrawClick         = "drawClick"
	evClear             = "clear"
	evMessage           = "message"
	evGetCurrentStroke  = "getCurrentStroke"
	evGetCurrentMessage = "getCurrentMessage"
	evGetNicks          = "getNicks"
	evGetStroke         = "getStroke"
	evGetMessage        = "getMessage"
	evGetStrokes        = "getStrokes"
	evGetMessages       = "getMessages"
)

// Events sent by the server. clear and message share their names with the
// client events above.
const (
	evSetSessionID   = "setSessionID"
	evNickStatus     = "nickStatus"
	evJoinedRoom     = "joinedRoom"
	evNick           = "nick"
	evNicks          = "nicks"
	evCurrentStroke  = "currentStroke"
	evCurrentMessage = "currentMessage"
	evDraw           = "draw"
	evDrawStrokes    = "drawStrokes"
	evDrawReceived   = "drawReceived"
	evMessages       = "messages"
	evStartRound     = "startRound"
	evGameWord       = "gameWord"
	evScores         = "scores"
)

// Envelope is an undecoded frame; Data is decoded once the type is known.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is an outbound frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func (e Envelope) decode(v any) bool {
	if len(e.Data) == 0 {
		return false
	}
	return json.Unmarshal(e.Data, v) == nil
}

type StrokeType string

const (
	strokeStart    StrokeType = "strokeStart"
	strokeContinue StrokeType = "strokeContinue"
	strokeEnd      StrokeType = "strokeEnd"
)

func (t StrokeType) valid() bool {
	switch t {
	case strokeStart, strokeContinue, strokeEnd:
		return true
	}
	return false
}

type Stroke struct {
	ID     int        `json:"id"`
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Type   StrokeType `json:"type"`
	Colour string     `json:"colour"`
	Size   float64    `json:"size"`
}

type ChatMessage struct {
	ID        int    `json:"id"`
	SessionID string `json:"sessionID"`
	Data      string `json:"data"`
}

// StrokeAck echoes an accepted stroke back to the artist with its assigned id.
type StrokeAck struct {
	ID   int    `json:"id"`
	Data Stroke `json:"data"`
}

type NickMessage struct {
	SessionID string `json:"sessionID"`
	Nick      string `json:"nick"`
}

type ScoreEntry struct {
	SessionID string `json:"sessionID"`
	Score     int    `json:"score"`
}

type RoundStartMessage struct {
	Artist string `json:"artist"`
}

// RangeRequest is a half-open [Start, End) fetch.
type RangeRequest struct {
	Start int `json:"start"`
	End   int `json:"end"`
}
