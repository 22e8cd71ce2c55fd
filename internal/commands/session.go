package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/diogo/eerieecho/internal/api"
	"github.com/diogo/eerieecho/internal/chat"
	"github.com/diogo/eerieecho/internal/config"
	"github.com/diogo/eerieecho/internal/logging"
	"github.com/diogo/eerieecho/internal/models"
	"github.com/diogo/eerieecho/internal/render"
	"github.com/diogo/eerieecho/internal/tui"
)

// session is everything a chat needs, assembled from config and flags
type session struct {
	cfg        config.Config
	theme      config.Theme
	settings   *config.Settings
	client     api.GeminiClientInterface
	controller *chat.Controller
	logger     zerolog.Logger
	logCloser  io.Closer
}

// loadConfig reads the config file and applies the global flags
func (d *Dependencies) loadConfig(flags *globalFlags) config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(d.Stderr, "Warning: %v (using defaults)\n", err)
	}
	if flags == nil {
		return cfg
	}
	if flags.theme != "" {
		cfg.Theme = flags.theme
	}
	if flags.model != "" {
		cfg.Model = flags.model
	}
	if flags.verbose {
		cfg.Verbose = true
	}
	return cfg
}

// openSettings returns the key settings for cfg's credential store
func (d *Dependencies) openSettings(cfg config.Config) (*config.Settings, error) {
	store := d.Store
	if store == nil {
		var err error
		store, err = config.OpenStore(cfg)
		if err != nil {
			return nil, err
		}
	}

	settings := config.NewSettings(store)
	if err := settings.Load(); err != nil {
		return nil, fmt.Errorf("failed to load API key: %w", err)
	}
	return settings, nil
}

// openSession builds the logger, settings, client and controller
func (d *Dependencies) openSession(flags *globalFlags, notifier chat.Notifier) (*session, error) {
	cfg := d.loadConfig(flags)

	logPath, err := config.GetLogPath()
	if err != nil {
		return nil, err
	}
	logger, logCloser, err := logging.New(logging.Options{Path: logPath, Verbose: cfg.Verbose})
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, logger: logger, logCloser: logCloser}

	themes, err := config.LoadThemes()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load user themes")
		themes = config.DefaultThemes()
	}
	theme, err := config.FindTheme(themes, cfg.Theme)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(config.ThemeNames(themes), ", "))
	}
	s.theme = *theme

	s.settings, err = d.openSettings(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.client = d.Client
	if s.client == nil {
		client, err := api.NewClient(
			api.WithModel(models.ModelFromName(cfg.Model)),
			api.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
			api.WithLogger(logger),
		)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create client: %w", err)
		}
		s.client = client
	}

	palette := cfg.TUITheme
	if flags != nil && flags.theme != "" && s.theme.Palette != "" {
		palette = s.theme.Palette
	}
	if palette != "" && render.SetTUITheme(palette) {
		tui.UpdateTheme()
	}

	opts := append(chat.ThemeOptions(s.theme), chat.WithLogger(logger))
	if notifier != nil {
		opts = append(opts, chat.WithNotifier(notifier))
	}
	if d.Sleeper != nil {
		opts = append(opts, chat.WithSleeper(d.Sleeper))
	}
	s.controller = chat.NewController(s.settings, s.client, opts...)

	logger.Info().
		Str("theme", s.theme.Name).
		Str("model", s.client.GetModel().Name).
		Str("key_source", s.settings.Source()).
		Msg("session started")

	return s, nil
}

// Close releases the controller, client and log file
func (s *session) Close() {
	if s.controller != nil {
		s.controller.Close()
	}
	if s.client != nil {
		s.client.Close()
	}
	if s.logCloser != nil {
		_ = s.logCloser.Close()
	}
}
