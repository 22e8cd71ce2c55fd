package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/eerieecho/internal/config"
	"github.com/diogo/eerieecho/internal/models"
)

// KeySaver persists the API key. config.Settings implements it.
type KeySaver interface {
	SetAPIKey(key string) error
	MaskedKey() string
	HasAPIKey() bool
}

// keySavedMsg reports the outcome of a save from the overlay
type keySavedMsg struct {
	cleared bool
	err     error
}

// settingsOverlay is the API key drawer
type settingsOverlay struct {
	open     bool
	input    textinput.Model
	saver    KeySaver
	location string
}

func newSettingsOverlay(saver KeySaver, location string) settingsOverlay {
	ti := textinput.New()
	ti.Placeholder = "Paste your Gemini API key"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 256
	ti.Prompt = "› "

	return settingsOverlay{
		input:    ti,
		saver:    saver,
		location: location,
	}
}

// Open shows the drawer with an empty input
func (o *settingsOverlay) Open() tea.Cmd {
	o.open = true
	o.input.Reset()
	o.input.PromptStyle = inputLabelStyle
	o.input.TextStyle = lipgloss.NewStyle().Foreground(colorText)
	return o.input.Focus()
}

// Close hides the drawer without saving
func (o *settingsOverlay) Close() {
	o.open = false
	o.input.Blur()
	o.input.Reset()
}

// Update handles keys while the drawer is open. Enter saves, Esc cancels.
// An empty value clears the stored key.
func (o settingsOverlay) Update(msg tea.Msg) (settingsOverlay, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			o.Close()
			return o, nil
		case "enter":
			value := strings.TrimSpace(o.input.Value())
			o.Close()
			if o.saver == nil {
				return o, nil
			}
			saver := o.saver
			return o, func() tea.Msg {
				return keySavedMsg{cleared: value == "", err: saver.SetAPIKey(value)}
			}
		}
	}

	var cmd tea.Cmd
	o.input, cmd = o.input.Update(msg)
	return o, cmd
}

func (o settingsOverlay) View(width int) string {
	if width < 40 {
		width = 40
	}

	current := configDisabledStyle.Render("not set (replies come from the fallback script)")
	if o.saver != nil && o.saver.HasAPIKey() {
		current = configValueStyle.Render(o.saver.MaskedKey())
	}

	var sb strings.Builder
	sb.WriteString(overlayTitleStyle.Render("⚙ Settings"))
	sb.WriteString("\n")
	sb.WriteString(configSectionTitleStyle.Render("Gemini API key"))
	sb.WriteString("\n")
	sb.WriteString(hintStyle.Render("Current: ") + current)
	sb.WriteString("\n\n")
	sb.WriteString(o.input.View())
	sb.WriteString("\n\n")
	sb.WriteString(overlayWarningStyle.Width(width - 6).Render(
		"⚠ Your API key is stored locally (" + o.location + ") and only sent to the Gemini API."))
	sb.WriteString("\n")
	sb.WriteString(hintStyle.Render("Get a key: ") + overlayLinkStyle.Render(models.EndpointAPIKeyHelp))
	sb.WriteString("\n\n")
	sb.WriteString(statusKeyStyle.Render("Enter") + statusDescStyle.Render(" Save") +
		hintStyle.Render("  │  ") +
		statusKeyStyle.Render("Esc") + statusDescStyle.Render(" Cancel") +
		hintStyle.Render("  │  ") +
		statusDescStyle.Render("empty clears the key"))

	return overlayStyle.Width(width).Render(sb.String())
}

var _ KeySaver = (*config.Settings)(nil)
