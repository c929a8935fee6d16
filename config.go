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
	bind          string
	finishedGrace time.Duration
	level         string
	port          int
	prefix        string
	profile       bool
	readyWindow   time.Duration
	roomTimeout   time.Duration
	roundTimer    time.Duration
	rulesFile     string
	tlsCert       string
	tlsKey        string
	verbose       bool
	version       bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.readyWindow <= 0 {
		return fmt.Errorf("invalid ready window: %s", c.readyWindow)
	}
	if c.roundTimer <= 0 {
		return fmt.Errorf("invalid round timer: %s", c.roundTimer)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TWOKEYS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "twokeys",
		Short:         "A cooperative two-player puzzle game built around asymmetric information.",
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

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: TWOKEYS_BIND)")
	fs.DurationVar(&cfg.finishedGrace, "finished-grace", 5*time.Minute, "time finished or timed-out rooms remain addressable (env: TWOKEYS_FINISHED_GRACE)")
	fs.StringVar(&cfg.level, "level", "", "level id to serve, defaulting to the first configured level (env: TWOKEYS_LEVEL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: TWOKEYS_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: TWOKEYS_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: TWOKEYS_PROFILE)")
	fs.DurationVar(&cfg.readyWindow, "ready-window", time.Minute, "time after room creation during which ready signals are accepted (env: TWOKEYS_READY_WINDOW)")
	fs.DurationVar(&cfg.roomTimeout, "room-timeout", 60*time.Minute, "time before idle rooms are ended (env: TWOKEYS_ROOM_TIMEOUT)")
	fs.DurationVar(&cfg.roundTimer, "round-timer", 2*time.Minute, "time both roles have to jointly solve each round (env: TWOKEYS_ROUND_TIMER)")
	fs.StringVar(&cfg.rulesFile, "rules", "", "path to a YAML rules file overriding the built-in defaults (env: TWOKEYS_RULES)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: TWOKEYS_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: TWOKEYS_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: TWOKEYS_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: TWOKEYS_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("twokeys v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
