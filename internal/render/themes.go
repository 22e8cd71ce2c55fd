package render

import (
	_ "embed"
)

//go:embed themes/crimson.json
var crimsonTheme []byte

// Markdown style names
const (
	ThemeCrimson    = "crimson"
	ThemeDark       = "dark"
	ThemeLight      = "light"
	ThemeDracula    = "dracula"
	ThemeTokyoNight = "tokyo-night"
	ThemeNoTTY      = "notty"
	ThemeASCII      = "ascii"
)

// GetBuiltinTheme returns the JSON of a style shipped with eerieecho.
// Glamour's own styles are not included.
func GetBuiltinTheme(name string) ([]byte, bool) {
	switch name {
	case ThemeCrimson:
		return crimsonTheme, true
	default:
		return nil, false
	}
}

// IsBuiltinStyle returns true if the style is a built-in style
// (either glamour built-in or one of ours).
func IsBuiltinStyle(style string) bool {
	switch style {
	case ThemeCrimson, ThemeDark, ThemeLight, ThemeDracula, ThemeTokyoNight, ThemeNoTTY, ThemeASCII:
		return true
	default:
		return false
	}
}

// ThemeInfo contains information about a theme for display purposes.
type ThemeInfo struct {
	Name        string
	Description string
}

// AvailableThemes returns the markdown styles selectable from config.
func AvailableThemes() []ThemeInfo {
	return []ThemeInfo{
		{Name: ThemeCrimson, Description: "Blood red on black (default)"},
		{Name: ThemeDark, Description: "Glamour dark"},
		{Name: ThemeDracula, Description: "Dracula color scheme"},
		{Name: ThemeTokyoNight, Description: "Tokyo Night color scheme"},
		{Name: ThemeLight, Description: "Light theme for bright terminals"},
		{Name: ThemeNoTTY, Description: "Plain text (no styling)"},
		{Name: ThemeASCII, Description: "ASCII-only output"},
	}
}

// ThemeNames returns just the theme names for selection.
func ThemeNames() []string {
	themes := AvailableThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
