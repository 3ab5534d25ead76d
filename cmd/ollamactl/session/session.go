// Package session holds the state shared by ollamactl commands: the global
// flags, the resolved configuration, and the logger and client built from it.
package session

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/papercomputeco/ollamaclient/pkg/config"
	"github.com/papercomputeco/ollamaclient/pkg/logger"
	"github.com/papercomputeco/ollamaclient/pkg/ollama"
)

// Session is created once per process and bound to the root command.
type Session struct {
	configPath string
	v          *viper.Viper

	loaded bool
	config config.Config
	logger *zap.Logger
	client *ollama.Client
}

func New() *Session {
	return &Session{v: config.NewViper()}
}

// Bind registers the global flags on root.
func (s *Session) Bind(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.StringVar(&s.configPath, "config", "", "Path to TOML config file (default: ~/.config/ollamactl/config.toml)")
	flags.String(config.KeyURL, "", "Model server URL (default: "+config.DefaultURL+")")
	flags.String(config.KeyModel, "", "Model to use (default: "+config.DefaultModel+")")
	flags.Bool(config.KeyDebug, false, "Enable debug logging")

	for _, key := range []string{config.KeyURL, config.KeyModel, config.KeyDebug} {
		_ = s.v.BindPFlag(key, flags.Lookup(key))
	}
}

// Load resolves the configuration and builds the logger and client. Logs go to
// the command's stderr. Later calls return the first result.
func (s *Session) Load(cmd *cobra.Command) error {
	if s.loaded {
		return nil
	}

	cfg, err := config.Load(s.v, s.configPath)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	s.config = cfg
	s.logger = logger.New(cmd.ErrOrStderr(), cfg.Debug)
	s.client = ollama.New(cfg.URL, ollama.WithLogger(s.logger))
	s.loaded = true

	s.logger.Debug("config loaded",
		zap.String("url", cfg.URL),
		zap.String("model", cfg.Model),
		zap.String("config", s.v.ConfigFileUsed()),
	)
	return nil
}

// ConfigPath returns the --config flag value.
func (s *Session) ConfigPath() string {
	return s.configPath
}

// Config returns the loaded configuration.
func (s *Session) Config() config.Config {
	return s.config
}

// Logger returns the loaded logger, or a no-op logger before Load.
func (s *Session) Logger() *zap.Logger {
	if s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}

// Client returns the client for the configured server.
func (s *Session) Client() *ollama.Client {
	return s.client
}

// Close flushes the logger.
func (s *Session) Close() {
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}
