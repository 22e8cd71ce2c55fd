package render

import "testing"

func TestDefaultTUITheme(t *testing.T) {
	theme, ok := GetTUIThemeByName(DefaultTUIThemeName)
	if !ok {
		t.Fatalf("default palette %q missing", DefaultTUIThemeName)
	}
	if theme.Name != CrimsonTheme.Name {
		t.Errorf("default = %s, want crimson", theme.Name)
	}
}

func TestSetTUITheme(t *testing.T) {
	defer SetTUITheme(DefaultTUIThemeName)

	if !SetTUITheme("bloodmoon") {
		t.Fatal("should accept bloodmoon")
	}
	if GetTUITheme().Name != "bloodmoon" {
		t.Errorf("GetTUITheme() = %s", GetTUITheme().Name)
	}

	if SetTUITheme("nonexistent") {
		t.Error("should reject unknown theme")
	}
	if GetTUITheme().Name != "bloodmoon" {
		t.Errorf("theme should remain bloodmoon, got %s", GetTUITheme().Name)
	}
}

func TestGetTUIThemeByName(t *testing.T) {
	testCases := []struct {
		name     string
		expected bool
	}{
		{"crimson", true},
		{"bloodmoon", true},
		{"tokyonight", true},
		{"catppuccin", true},
		{"nord", true},
		{"dracula", true},
		{"nonexistent", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			theme, ok := GetTUIThemeByName(tc.name)
			if ok != tc.expected {
				t.Errorf("GetTUIThemeByName(%q) ok = %v, want %v", tc.name, ok, tc.expected)
			}
			if ok && theme.Name != tc.name {
				t.Errorf("GetTUIThemeByName(%q) returned %q", tc.name, theme.Name)
			}
		})
	}
}

func TestTUIThemeNames(t *testing.T) {
	names := TUIThemeNames()
	themes := AvailableTUIThemes()

	if len(names) != len(themes) {
		t.Fatalf("names count (%d) != themes count (%d)", len(names), len(themes))
	}
	seen := map[string]bool{}
	for i, name := range names {
		if name != themes[i].Name {
			t.Errorf("name[%d] = %q, themes[%d].Name = %q", i, name, i, themes[i].Name)
		}
		if seen[name] {
			t.Errorf("duplicate theme %q", name)
		}
		seen[name] = true
	}
}

func TestThemeColors_AreValidHex(t *testing.T) {
	for _, theme := range AvailableTUIThemes() {
		t.Run(theme.Name, func(t *testing.T) {
			if theme.Description == "" {
				t.Error("description is empty")
			}
			colors := map[string]string{
				"Background": string(theme.Background),
				"Surface":    string(theme.Surface),
				"Border":     string(theme.Border),
				"Primary":    string(theme.Primary),
				"Secondary":  string(theme.Secondary),
				"Accent":     string(theme.Accent),
				"Warning":    string(theme.Warning),
				"Error":      string(theme.Error),
				"Text":       string(theme.Text),
				"TextDim":    string(theme.TextDim),
				"TextMute":   string(theme.TextMute),
			}

			for name, c := range colors {
				if len(c) != 7 || c[0] != '#' {
					t.Errorf("%s color %q should be #RRGGBB", name, c)
				}
			}
		})
	}
}
