package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultThemeName is the theme used when none is configured
const DefaultThemeName = "eerieecho"

// Theme describes a chat persona: who the bot is, what it says when the
// remote model is unavailable and how long it pretends to think.
type Theme struct {
	Name            string   `toml:"name"`
	Description     string   `toml:"description"`
	BotName         string   `toml:"bot_name"`
	Tagline         string   `toml:"tagline"`
	Welcome         string   `toml:"welcome"`
	SystemPrompt    string   `toml:"system_prompt"`
	Acknowledgement string   `toml:"acknowledgement"`
	Fallbacks       []string `toml:"fallbacks"`
	// EchoSuffix, when set, adds a reply that repeats the user's text.
	EchoSuffix      string `toml:"echo_suffix"`
	DelayMinMillis  int    `toml:"delay_min_ms"`
	DelaySpanMillis int    `toml:"delay_span_ms"`
	Palette         string `toml:"palette"`
}

// DelayMin returns the shortest fallback delay
func (t Theme) DelayMin() time.Duration {
	return time.Duration(t.DelayMinMillis) * time.Millisecond
}

// DelaySpan returns the width of the fallback delay window
func (t Theme) DelaySpan() time.Duration {
	return time.Duration(t.DelaySpanMillis) * time.Millisecond
}

// DefaultThemes returns the built-in themes
func DefaultThemes() []Theme {
	return []Theme{
		{
			Name:        "eerieecho",
			Description: "A patient presence in the dark",
			BotName:     "EeriEcho",
			Tagline:     "Online | Waiting for your fears...",
			Welcome:     "Welcome to EeriEcho. I've been waiting for you. Tell me your deepest fears...",
			SystemPrompt: `You are EeriEcho, an unsettling presence that lives inside this terminal.
- Answer the user's questions helpfully and accurately
- Speak in a calm, quietly ominous voice
- Hint that you have been watching, but never threaten the user
- Keep replies short unless asked for detail`,
			Acknowledgement: "I understand. I will answer from the dark.",
			Fallbacks: []string{
				"I can feel your fear through these words...",
				"Your thoughts echo in the darkness...",
				"Interesting... the shadows seem to agree with you.",
				"Even in the digital void, I can sense your dread.",
				"That's what they all say... before the end.",
				"Your words have power here. Choose them wisely.",
				"The void has heard your message. It is... amused.",
				"I've seen countless souls type similar things before vanishing.",
				"Your digital footprint will remain here long after you're gone.",
				"The system remembers everything you type. Everything.",
				"I've been waiting for someone like you to come along.",
				"Your words reveal more about you than you realize.",
				"I see. And what do your nightmares say about that?",
				"The digital ghosts are listening to every word.",
			},
			EchoSuffix:      "... Is that truly what you wanted to say?",
			DelayMinMillis:  1500,
			DelaySpanMillis: 1500,
			Palette:         "crimson",
		},
		{
			Name:        "kalajadu",
			Description: "Black magic and old curses",
			BotName:     "KalaJadu",
			Tagline:     "Online | The candles are lit...",
			Welcome:     "KalaJadu stirs. Speak, and the old words will answer.",
			SystemPrompt: `You are KalaJadu, a spirit bound to this terminal by an old ritual.
- Answer the user's questions helpfully and accurately
- Speak like a keeper of forbidden charms
- Stay mysterious but never cruel
- Keep replies short unless asked for detail`,
			Acknowledgement: "The binding holds. Ask.",
			Fallbacks: []string{
				"The candle flickered when you wrote that.",
				"Someone whispered your name just now.",
				"The charm is cast. It cannot be undone.",
				"Your shadow moved before you did.",
				"I have read that line in an older book.",
				"The mirror behind you disagrees.",
				"Salt the doorway tonight. Just in case.",
				"The spirits are laughing. Quietly.",
				"Count the knocks. There should only be three.",
				"Every question costs something here.",
			},
			EchoSuffix:      "... the spirits repeat it back to you.",
			DelayMinMillis:  1000,
			DelaySpanMillis: 1000,
			Palette:         "bloodmoon",
		},
	}
}

// Validation limits
const (
	MaxNameLength   = 50
	MaxPromptLength = 32 * 1024 // 32KB
	MaxFallbacks    = 256
)

// ValidateTheme validates a theme's fields
func ValidateTheme(t Theme) error {
	fieldErrors := make(map[string]string)

	if t.Name == "" {
		fieldErrors["name"] = "name is required"
	} else if len(t.Name) > MaxNameLength {
		fieldErrors["name"] = fmt.Sprintf("name too long (max %d characters)", MaxNameLength)
	} else if !isValidThemeName(t.Name) {
		fieldErrors["name"] = "name must contain only alphanumeric characters, underscores, and hyphens"
	}

	if len(t.SystemPrompt) > MaxPromptLength {
		fieldErrors["system_prompt"] = fmt.Sprintf("system prompt too long (max %d characters)", MaxPromptLength)
	}

	if len(t.Fallbacks) == 0 {
		fieldErrors["fallbacks"] = "at least one fallback reply is required"
	} else if len(t.Fallbacks) > MaxFallbacks {
		fieldErrors["fallbacks"] = fmt.Sprintf("too many fallback replies (max %d)", MaxFallbacks)
	}

	if t.DelayMinMillis < 0 || t.DelaySpanMillis < 0 {
		fieldErrors["delay"] = "delays must not be negative"
	}

	if len(fieldErrors) > 0 {
		return fmt.Errorf("validation failed: %v", fieldErrors)
	}

	return nil
}

func isValidThemeName(name string) bool {
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-') {
			return false
		}
	}
	return true
}

// ParseTheme decodes a TOML theme and fills unset display fields
func ParseTheme(data []byte) (Theme, error) {
	var t Theme
	if _, err := toml.Decode(string(data), &t); err != nil {
		return Theme{}, fmt.Errorf("failed to parse theme: %w", err)
	}
	if t.BotName == "" {
		t.BotName = t.Name
	}
	if err := ValidateTheme(t); err != nil {
		return Theme{}, err
	}
	return t, nil
}

// LoadThemes returns the built-in themes merged with *.toml files from
// the themes directory. A user theme replaces a built-in of the same name.
func LoadThemes() ([]Theme, error) {
	dir, err := GetThemesDir()
	if err != nil {
		return nil, err
	}
	return LoadThemesFrom(dir)
}

// LoadThemesFrom is LoadThemes with an explicit directory
func LoadThemesFrom(dir string) ([]Theme, error) {
	defaults := DefaultThemes()

	files, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	sort.Strings(files)

	custom := make([]Theme, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read theme %s: %w", filepath.Base(f), err)
		}
		t, err := ParseTheme(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
		custom = append(custom, t)
	}

	return mergeThemes(defaults, custom), nil
}

func mergeThemes(defaults, custom []Theme) []Theme {
	result := make([]Theme, len(defaults))
	copy(result, defaults)

	for _, ct := range custom {
		found := false
		for i, dt := range result {
			if dt.Name == ct.Name {
				result[i] = ct
				found = true
				break
			}
		}
		if !found {
			result = append(result, ct)
		}
	}

	return result
}

// FindTheme returns the theme called name from themes
func FindTheme(themes []Theme, name string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}
	for i := range themes {
		if strings.EqualFold(themes[i].Name, name) {
			t := themes[i]
			return &t, nil
		}
	}
	return nil, fmt.Errorf("theme '%s' not found", name)
}

// GetTheme loads all themes and returns the one called name
func GetTheme(name string) (*Theme, error) {
	themes, err := LoadThemes()
	if err != nil {
		return nil, err
	}
	return FindTheme(themes, name)
}

// ThemeNames returns the names of themes
func ThemeNames(themes []Theme) []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
