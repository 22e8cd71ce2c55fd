package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/diogo/eerieecho/internal/config"
	"github.com/diogo/eerieecho/internal/render"
)

// NewThemesCmd creates the command that lists chat themes
func NewThemesCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List available chat themes",
		Long: `List the built-in chat themes and any TOML themes found in the themes
directory. The active theme is marked with *.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runThemes(deps, flags)
		},
	}
}

func runThemes(deps *Dependencies, flags *globalFlags) error {
	cfg := deps.loadConfig(flags)

	themes, err := config.LoadThemes()
	if err != nil {
		fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Failed to load custom themes"))
		themes = config.DefaultThemes()
	}

	current := cfg.Theme
	if current == "" {
		current = config.DefaultThemeName
	}

	palette := render.GetTUITheme()
	active := lipgloss.NewStyle().Foreground(palette.Primary).Bold(true)
	dim := lipgloss.NewStyle().Foreground(palette.TextDim)

	for _, t := range themes {
		marker := "  "
		name := t.Name
		if t.Name == current {
			marker = "* "
			name = active.Render(t.Name)
		}
		fmt.Fprintf(deps.Stdout, "%s%s %s\n", marker, name, dim.Render("("+t.BotName+") "+t.Tagline))
	}

	if dir, err := config.GetThemesDir(); err == nil {
		fmt.Fprintln(deps.Stdout)
		fmt.Fprintln(deps.Stdout, dim.Render("Custom themes: "+dir))
	}
	return nil
}
