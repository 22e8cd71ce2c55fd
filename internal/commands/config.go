package commands

import (
	"github.com/spf13/cobra"

	"github.com/diogo/eerieecho/internal/config"
	"github.com/diogo/eerieecho/internal/render"
	"github.com/diogo/eerieecho/internal/tui"
)

// NewConfigCmd creates the interactive configuration command
func NewConfigCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Open configuration menu",
		Long:  `Interactive menu to configure the theme, model, palette, credential store and API key.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(deps, flags)
		},
	}
}

func runConfig(deps *Dependencies, flags *globalFlags) error {
	cfg := deps.loadConfig(flags)

	themes, err := config.LoadThemes()
	if err != nil {
		themes = config.DefaultThemes()
	}

	settings, err := deps.openSettings(cfg)
	if err != nil {
		return err
	}

	if render.SetTUITheme(cfg.TUITheme) {
		tui.UpdateTheme()
	}

	return deps.TUI.RunConfig(tui.ConfigOptions{
		Config:   cfg,
		Themes:   themes,
		Settings: settings,
		OpenSettings: func(c config.Config) (tui.KeySaver, error) {
			s, err := deps.openSettings(c)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	})
}
