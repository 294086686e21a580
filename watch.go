/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type watchOptions struct {
	server      string
	room        string
	nick        string
	sessionFile string
	quiet       bool
}

func newWatchCmd(v *viper.Viper) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Join a room as a headless player and mirror its strokes and chat.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.room == "" {
				return errors.New("--room is required")
			}
			return watch(cmd.Context(), &Config{verbose: !opts.quiet}, opts)
		},
	}

	flags := cmd.Flags()

	flags.StringVar(&opts.server, "server", "ws://localhost:8080/ws", "websocket endpoint to connect to (env: DOODLEBOX_SERVER)")
	flags.StringVar(&opts.room, "room", "", "room to join (env: DOODLEBOX_ROOM)")
	flags.StringVar(&opts.nick, "nick", "", "nickname to request after connecting (env: DOODLEBOX_NICK)")
	flags.StringVar(&opts.sessionFile, "session-file", "", "file used to remember the session id between runs (env: DOODLEBOX_SESSION_FILE)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress event output (env: DOODLEBOX_QUIET)")

	bindEnv(v, flags)

	return cmd
}

func loadSessionID(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(data)), nil
}

func saveSessionID(path, id string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(id+"\n"), 0o600)
}

func watch(ctx context.Context, cfg *Config, opts *watchOptions) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, opts.server, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotConnected, opts.server, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	id, err := loadSessionID(opts.sessionFile)
	if err != nil {
		return err
	}

	var presented any
	if id != "" {
		presented = id
	}

	hello := []Message{{Type: evSessionID, Data: presented}}
	if opts.nick != "" {
		hello = append(hello, Message{Type: evRequestNick, Data: opts.nick})
	}
	hello = append(hello, Message{Type: evJoinRoom, Data: opts.room})

	for _, msg := range hello {
		if err := conn.WriteJSON(msg); err != nil {
			return err
		}
	}

	rep := newReplica(id)

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		reqs, err := rep.apply(env)
		if err != nil {
			logf(cfg, "WATCH: %v", err)
			continue
		}

		report(cfg, rep, env)

		if env.Type == evSetSessionID {
			if err := saveSessionID(opts.sessionFile, rep.sessionID); err != nil {
				return err
			}
		}

		for _, req := range reqs {
			if err := conn.WriteJSON(req); err != nil {
				return err
			}
		}
	}
}

func report(cfg *Config, rep *replica, env Envelope) {
	switch env.Type {
	case evSetSessionID:
		logf(cfg, "WATCH: Assigned session %s", rep.sessionID)
	case evNickStatus:
		var ok bool
		_ = json.Unmarshal(env.Data, &ok)
		logf(cfg, "WATCH: Nick accepted: %t", ok)
	case evJoinedRoom:
		logf(cfg, "WATCH: Joined room, resynchronizing")
	case evStartRound:
		logf(cfg, "WATCH: Round started, artist %s", rep.nickOf(rep.artist))
	case evGameWord:
		logf(cfg, "WATCH: Drawing %q", rep.word)
	case evMessage, evMessages:
		logf(cfg, "WATCH: %d messages held (frontier %d)", rep.messages.Len(), rep.messages.Frontier())
	case evDraw, evDrawStrokes, evDrawReceived:
		logf(cfg, "WATCH: %d strokes held (frontier %d)", rep.strokes.Len(), rep.strokes.Frontier())
	case evClear:
		logf(cfg, "WATCH: Canvas cleared")
	case evScores:
		for _, s := range rep.scores {
			logf(cfg, "WATCH: Score %s: %d", rep.nickOf(s.SessionID), s.Score)
		}
	}
}

func (r *replica) nickOf(sessionID string) string {
	if nick := r.nicks[sessionID]; nick != "" {
		return nick
	}
	return sessionID
}
