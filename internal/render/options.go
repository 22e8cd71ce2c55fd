// Package render provides markdown rendering and colour palettes for the
// terminal.
package render

import (
	"os"

	"github.com/diogo/eerieecho/internal/config"
)

// StyleEnv overrides the markdown style from config
const StyleEnv = "GLAMOUR_STYLE"

// Options configures the markdown renderer behavior. Options is comparable
// and keys the renderer pool.
type Options struct {
	// Width defines the maximum output width (default: 80)
	Width int

	// Style is "crimson", a glamour style name, or a path to a JSON file
	Style string

	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return FromMarkdownConfig(config.DefaultMarkdownConfig())
}

// FromMarkdownConfig converts the markdown section of the config file
func FromMarkdownConfig(md config.MarkdownConfig) Options {
	opts := Options{
		Width:            80,
		Style:            md.Style,
		EnableEmoji:      md.EnableEmoji,
		PreserveNewLines: md.PreserveNewLines,
		TableWrap:        md.TableWrap,
		InlineTableLinks: md.InlineTableLinks,
	}
	if opts.Style == "" {
		opts.Style = ThemeCrimson
	}
	return opts
}

// OptionsFor builds options from cfg. GLAMOUR_STYLE takes precedence over
// the config file.
func OptionsFor(cfg config.Config, width int) Options {
	opts := FromMarkdownConfig(cfg.Markdown)
	if style := os.Getenv(StyleEnv); style != "" {
		opts.Style = style
	}
	if width > 0 {
		opts.Width = width
	}
	return opts
}

// WithWidth returns Options with the specified width.
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns Options with the specified style.
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

// WithEmoji returns Options with emoji support enabled/disabled.
func (o Options) WithEmoji(enabled bool) Options {
	o.EnableEmoji = enabled
	return o
}
