/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

type RoomSummary struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
	Started bool   `json:"started"`
	Artist  string `json:"artist,omitempty"`
}

// roomSummaries snapshots every room from the engine loop.
func (e *Engine) roomSummaries(ctx context.Context) ([]RoomSummary, error) {
	var out []RoomSummary

	err := e.query(ctx, func() {
		out = make([]RoomSummary, 0, len(e.rooms))
		for _, room := range e.rooms {
			out = append(out, RoomSummary{
				ID:      room.id,
				Players: len(room.players),
				Started: room.started,
				Artist:  room.artist,
			})
		}
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(a, b RoomSummary) int {
		return strings.Compare(a.ID, b.ID)
	})

	return out, nil
}

func serveRooms(cfg *Config, e *Engine, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		rooms, err := e.roomSummaries(ctx)
		if err != nil {
			http.Error(w, "room directory unavailable", http.StatusServiceUnavailable)
			return
		}

		data, err := json.Marshal(rooms)
		if err != nil {
			errs <- err
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		written, err := w.Write(data)
		if err != nil {
			errs <- err
			return
		}

		logf(cfg, "SERVE: Room directory (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// roomURL is the address players share to join roomID.
func roomURL(cfg *Config, r *http.Request, roomID string) string {
	scheme := cfg.scheme()
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     cfg.prefix + "/",
		RawQuery: url.Values{"room": {roomID}}.Encode(),
	}

	return u.String()
}

// serveRoomQR renders a PNG QR code of the room's share link.
func serveRoomQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID := ps.ByName("roomid")
		if roomID == "" {
			http.Error(w, "missing room id", http.StatusBadRequest)
			return
		}

		const qrSize = 320
		png, err := qrcode.Encode(roomURL(cfg, r, roomID), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		if _, err := w.Write(png); err != nil {
			errs <- err
		}
	}
}
