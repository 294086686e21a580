/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind         string
	idleTimeout  time.Duration
	messageBurst int
	messageRate  float64
	port         int
	prefix       string
	profile      bool
	roundLength  time.Duration
	tlsCert      string
	tlsKey       string
	verbose      bool
	version      bool
	word         string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.roundLength <= 0 {
		return fmt.Errorf("invalid round length (must be positive): %s", c.roundLength)
	}
	if c.idleTimeout <= 0 {
		return fmt.Errorf("invalid idle timeout (must be positive): %s", c.idleTimeout)
	}
	if c.messageRate <= 0 || c.messageBurst < 1 {
		return fmt.Errorf("invalid message limit (rate must be positive, burst at least 1): %v/%d", c.messageRate, c.messageBurst)
	}
	if strings.TrimSpace(c.word) == "" {
		return errors.New("--word must not be empty")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// bindEnv lets every flag on fs be set from a DOODLEBOX_* environment variable
// unless it was given explicitly on the command line.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("DOODLEBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "doodlebox",
		Short:         "A multiplayer drawing and guessing game server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: DOODLEBOX_BIND)")
	fs.DurationVar(&cfg.idleTimeout, "idle-timeout", 2*time.Minute, "time without activity before a session is reaped at round end (env: DOODLEBOX_IDLE_TIMEOUT)")
	fs.IntVar(&cfg.messageBurst, "message-burst", 100, "chat, nick and room actions a connection may send in a burst (env: DOODLEBOX_MESSAGE_BURST)")
	fs.Float64Var(&cfg.messageRate, "message-rate", 50, "sustained chat, nick and room actions per second accepted from a connection (env: DOODLEBOX_MESSAGE_RATE)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: DOODLEBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: DOODLEBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: DOODLEBOX_PROFILE)")
	fs.DurationVar(&cfg.roundLength, "round-length", 100*time.Second, "length of a drawing round (env: DOODLEBOX_ROUND_LENGTH)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: DOODLEBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: DOODLEBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: DOODLEBOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: DOODLEBOX_VERSION)")
	fs.StringVar(&cfg.word, "word", "Hot Dog", "word handed to every artist (env: DOODLEBOX_WORD)")

	bindEnv(v, fs)

	cmd.AddCommand(newWatchCmd(v))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("doodlebox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
