package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/f1r3fly-io/embers-client/api"
	"github.com/f1r3fly-io/embers-client/config"
	"github.com/f1r3fly-io/embers-client/crypto"
	"github.com/f1r3fly-io/embers-client/events"
	"github.com/f1r3fly-io/embers-client/keys"
)

// GlobalFlags returns the flags shared by every command
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "url",
			Usage:   "Platform URL (host:port or http(s) URL)",
			Sources: cli.EnvVars("EMBERS_URL"),
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to a YAML config file",
			Sources: cli.EnvVars("EMBERS_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.EnvVars("EMBERS_LOG_LEVEL"),
		},
	}
}

// keyFlags selects the signing key: a private key from the environment, a
// single private key file or a named key from the key directory.
func keyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "private-key",
			Usage:   "Private key hex (prefer the environment variable)",
			Sources: cli.EnvVars("EMBERS_PRIVATE_KEY"),
		},
		&cli.StringFlag{
			Name:  "key-name",
			Usage: "Key name in the key directory (defaults to keys.default from config)",
		},
		&cli.StringFlag{
			Name:  "key-file",
			Usage: "Path to a private key file",
		},
	}
}

// loadConfig reads --config and applies the global flag overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.IsSet("url") {
		cfg.URL = cmd.String("url")
	}
	if cmd.IsSet("log-level") {
		cfg.Logging.Level = cmd.String("log-level")
	}
	return cfg, cfg.Validate()
}

// newLogger builds the console logger used by background components.
func newLogger(cfg *config.Config, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(level).
		With().Timestamp().Logger(), nil
}

// loadKeyPair resolves the signing key from --private-key, --key-file or
// --key-name, in that order.
func loadKeyPair(ctx context.Context, cmd *cli.Command, cfg *config.Config) (*crypto.KeyPair, error) {
	if private := cmd.String("private-key"); private != "" {
		return api.WalletFromProvider(ctx, keys.NewMemoryKeyProvider("", private))
	}
	if path := cmd.String("key-file"); path != "" {
		return keys.LoadKeyPairFromFile(path)
	}

	name := cmd.String("key-name")
	if name == "" {
		name = cfg.Keys.Default
	}
	if name == "" {
		return nil, fmt.Errorf("no key selected: pass --key-name or --key-file, or set keys.default")
	}

	return api.WalletFromProvider(ctx, &keys.FileKeyProvider{KeyName: name, Dir: cfg.Keys.Dir})
}

// newClient builds an API client from the configuration.
func newClient(cfg *config.Config, logger zerolog.Logger, metrics *events.Metrics) *api.Client {
	opts := []api.Option{
		api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		api.WithConfirmTimeout(cfg.ConfirmTimeout),
		api.WithHub(events.NewHub(cfg.URL, events.ListenerConfig{Logger: logger, Metrics: metrics})),
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		opts = append(opts, api.WithRateLimit(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst))
	}
	return api.NewClient(cfg.URL, opts...)
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cli.Command, v interface{}) error {
	jsonOutput, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, string(jsonOutput))
	return err
}

// stderr is the command's diagnostic writer.
func stderr(cmd *cli.Command) io.Writer {
	return cmd.Root().ErrWriter
}
