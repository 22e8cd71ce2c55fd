package chat

import (
	"github.com/diogo/eerieecho/internal/config"
	"github.com/diogo/eerieecho/internal/fallback"
)

// ThemeOptions returns the options that make a controller speak as theme
func ThemeOptions(theme config.Theme) []Option {
	return []Option{
		WithFallback(fallback.New(theme.Fallbacks, theme.EchoSuffix)),
		WithDelay(theme.DelayMin(), theme.DelaySpan()),
		WithWelcome(theme.Welcome),
		WithPriming(theme.SystemPrompt, theme.Acknowledgement),
	}
}
