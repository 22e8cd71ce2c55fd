package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/eerieecho/internal/config"
	"github.com/diogo/eerieecho/internal/models"
	"github.com/diogo/eerieecho/internal/render"
)

// configView represents the current view in the config menu
type configView int

const (
	viewMain configView = iota
	viewSelect
	viewKey
)

// Menu item indices for main view
const (
	menuChatTheme = iota
	menuModel
	menuTUITheme
	menuMarkdown
	menuCopyToClipboard
	menuVerbose
	menuCredentialStore
	menuAPIKey
	menuExit
	menuItemCount
)

var menuLabels = [menuItemCount]string{
	menuChatTheme:       "Chat Theme",
	menuModel:           "Model",
	menuTUITheme:        "Colour Theme",
	menuMarkdown:        "Markdown Style",
	menuCopyToClipboard: "Copy to Clipboard",
	menuVerbose:         "Verbose Logging",
	menuCredentialStore: "Key Storage",
	menuAPIKey:          "API Key",
	menuExit:            "Exit",
}

// feedbackClearMsg is sent to clear feedback messages
type feedbackClearMsg struct{}

// choice is one entry of a select sub-menu
type choice struct {
	value string
	desc  string
}

// SettingsOpener returns the key settings for a credential store config
type SettingsOpener func(cfg config.Config) (KeySaver, error)

// ConfigOptions holds what the config menu needs
type ConfigOptions struct {
	Config config.Config
	Themes []config.Theme
	// Settings manages the key for Config.CredentialStore.
	Settings KeySaver
	// OpenSettings is called after the credential store changes.
	OpenSettings SettingsOpener
	// Save persists the config; defaults to config.SaveConfig.
	Save func(config.Config) error
}

// ConfigModel represents the config TUI state
type ConfigModel struct {
	config       config.Config
	themes       []config.Theme
	save         func(config.Config) error
	openSettings SettingsOpener
	overlay      settingsOverlay

	view    configView
	cursor  int
	editing int
	choices []choice
	choice  int

	feedback        string
	feedbackErr     bool
	feedbackTimeout time.Duration

	width  int
	height int
	ready  bool
}

// NewConfigModel creates a new config TUI model
func NewConfigModel(opts ConfigOptions) ConfigModel {
	save := opts.Save
	if save == nil {
		save = config.SaveConfig
	}
	themes := opts.Themes
	if len(themes) == 0 {
		themes = config.DefaultThemes()
	}

	if opts.Config.TUITheme != "" && render.SetTUITheme(opts.Config.TUITheme) {
		UpdateTheme()
	}

	return ConfigModel{
		config:          opts.Config,
		themes:          themes,
		save:            save,
		openSettings:    opts.OpenSettings,
		overlay:         newSettingsOverlay(opts.Settings, config.StoreLocation(opts.Config)),
		feedbackTimeout: 2 * time.Second,
	}
}

// Init initializes the model
func (m ConfigModel) Init() tea.Cmd {
	return nil
}

// clearFeedback returns a command that clears the feedback message after a delay
func clearFeedback(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return feedbackClearMsg{}
	})
}

// Update handles messages and updates the model
func (m ConfigModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && m.view == viewKey {
		if key.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.overlay, cmd = m.overlay.Update(msg)
		if !m.overlay.open {
			m.view = viewMain
		}
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case feedbackClearMsg:
		m.feedback = ""

	case keySavedMsg:
		switch {
		case msg.err != nil:
			return m, m.setFeedback(fmt.Sprintf("Error: %v", msg.err), true)
		case msg.cleared:
			return m, m.setFeedback("API key cleared", false)
		default:
			return m, m.setFeedback("API key saved", false)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "esc":
			if m.view == viewSelect {
				m.view = viewMain
				return m, nil
			}
			return m, tea.Quit

		case "up", "k":
			m.move(-1)

		case "down", "j":
			m.move(1)

		case "enter", " ":
			if m.view == viewSelect {
				return m.applyChoice()
			}
			return m.handleSelect()
		}
	}

	return m, nil
}

func (m *ConfigModel) move(delta int) {
	if m.view == viewSelect {
		m.choice = wrap(m.choice+delta, len(m.choices))
		return
	}
	m.cursor = wrap(m.cursor+delta, menuItemCount)
}

func wrap(i, n int) int {
	if n == 0 {
		return 0
	}
	return (i%n + n) % n
}

// handleSelect handles menu item selection
func (m ConfigModel) handleSelect() (tea.Model, tea.Cmd) {
	switch m.cursor {
	case menuCopyToClipboard:
		m.config.CopyToClipboard = !m.config.CopyToClipboard
		return m, m.persist("Copy to clipboard " + enabledWord(m.config.CopyToClipboard))

	case menuVerbose:
		m.config.Verbose = !m.config.Verbose
		return m, m.persist("Verbose logging " + enabledWord(m.config.Verbose))

	case menuAPIKey:
		m.view = viewKey
		return m, m.overlay.Open()

	case menuExit:
		return m, tea.Quit
	}

	m.editing = m.cursor
	m.choices = m.choicesFor(m.cursor)
	m.choice = 0
	current := m.currentValue(m.cursor)
	for i, c := range m.choices {
		if c.value == current {
			m.choice = i
			break
		}
	}
	m.view = viewSelect
	return m, nil
}

// choicesFor lists the options of a select menu item
func (m ConfigModel) choicesFor(item int) []choice {
	var out []choice
	switch item {
	case menuChatTheme:
		for _, t := range m.themes {
			out = append(out, choice{t.Name, t.Description})
		}
	case menuModel:
		for _, model := range models.AllModels() {
			out = append(out, choice{model.Alias, model.Name + " · " + model.Description})
		}
	case menuTUITheme:
		for _, t := range render.AvailableTUIThemes() {
			out = append(out, choice{t.Name, t.Description})
		}
	case menuMarkdown:
		for _, t := range render.AvailableThemes() {
			out = append(out, choice{t.Name, t.Description})
		}
	case menuCredentialStore:
		for _, s := range config.AvailableStores() {
			out = append(out, choice{value: s})
		}
	}
	return out
}

func (m ConfigModel) currentValue(item int) string {
	switch item {
	case menuChatTheme:
		return m.config.Theme
	case menuModel:
		return m.config.Model
	case menuTUITheme:
		return m.config.TUITheme
	case menuMarkdown:
		return m.config.Markdown.Style
	case menuCredentialStore:
		if m.config.CredentialStore == "" {
			return config.StoreFile
		}
		return m.config.CredentialStore
	}
	return ""
}

// applyChoice stores the highlighted option of the open select menu
func (m ConfigModel) applyChoice() (tea.Model, tea.Cmd) {
	m.view = viewMain
	if len(m.choices) == 0 {
		return m, nil
	}
	value := m.choices[m.choice].value

	switch m.editing {
	case menuChatTheme:
		m.config.Theme = value
		if t, err := config.FindTheme(m.themes, value); err == nil && t.Palette != "" {
			m.applyPalette(t.Palette)
		}
	case menuModel:
		m.config.Model = value
	case menuTUITheme:
		m.applyPalette(value)
	case menuMarkdown:
		m.config.Markdown.Style = value
	case menuCredentialStore:
		previous := m.config.CredentialStore
		m.config.CredentialStore = value
		if err := m.reopenSettings(); err != nil {
			m.config.CredentialStore = previous
			m.overlay.location = config.StoreLocation(m.config)
			return m, m.setFeedback(fmt.Sprintf("Error: %v", err), true)
		}
	}

	return m, m.persist(fmt.Sprintf("%s set to %s", menuLabels[m.editing], value))
}

// applyPalette switches the colour theme immediately
func (m *ConfigModel) applyPalette(name string) {
	if render.SetTUITheme(name) {
		m.config.TUITheme = name
		UpdateTheme()
	}
}

func (m *ConfigModel) reopenSettings() error {
	m.overlay.location = config.StoreLocation(m.config)
	if m.openSettings == nil {
		return nil
	}
	saver, err := m.openSettings(m.config)
	if err != nil {
		return err
	}
	m.overlay.saver = saver
	return nil
}

func (m *ConfigModel) persist(success string) tea.Cmd {
	if err := m.save(m.config); err != nil {
		return m.setFeedback(fmt.Sprintf("Error: %v", err), true)
	}
	return m.setFeedback(success, false)
}

func (m *ConfigModel) setFeedback(text string, isErr bool) tea.Cmd {
	m.feedback = text
	m.feedbackErr = isErr
	return clearFeedback(m.feedbackTimeout)
}

func enabledWord(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}

// Config returns the edited configuration
func (m ConfigModel) Config() config.Config {
	return m.config
}

// View renders the TUI
func (m ConfigModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	if m.view == viewKey {
		return m.overlay.View(contentWidth)
	}

	sections := []string{
		configHeaderStyle.Width(contentWidth).Render(configTitleStyle.Render("⚙ EeriEcho Configuration")),
		configPanelStyle.Width(contentWidth).Render(m.renderPaths()),
	}

	if m.view == viewSelect {
		sections = append(sections, configPanelStyle.Width(contentWidth).Render(m.renderChoices()))
	} else {
		sections = append(sections, configPanelStyle.Width(contentWidth).Render(m.renderMainMenu()))
	}

	if m.feedback != "" {
		if m.feedbackErr {
			sections = append(sections, errorStyle.Render("✗ "+m.feedback))
		} else {
			sections = append(sections, configFeedbackStyle.Render("✓ "+m.feedback))
		}
	}

	sections = append(sections, m.renderStatusBar(contentWidth))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ConfigModel) renderPaths() string {
	configPath, _ := config.GetConfigPath()
	themesDir, _ := config.GetThemesDir()
	logPath, _ := config.GetLogPath()

	return lipgloss.JoinVertical(lipgloss.Left,
		configSectionTitleStyle.Render("Paths"),
		"   Config:  "+configPathStyle.Render(configPath),
		"   Themes:  "+configPathStyle.Render(themesDir),
		"   Log:     "+configPathStyle.Render(logPath),
		"   Key:     "+configPathStyle.Render(config.StoreLocation(m.config)),
	)
}

// renderMainMenu renders the main settings menu
func (m ConfigModel) renderMainMenu() string {
	lines := []string{configSectionTitleStyle.Render("Settings"), ""}

	for i := 0; i < menuItemCount; i++ {
		if i == menuExit {
			lines = append(lines, "")
		}
		cursor, style := "  ", configMenuItemStyle
		if m.cursor == i {
			cursor, style = configCursorStyle.Render("▸ "), configMenuSelectedStyle
		}

		label := menuLabels[i]
		line := cursor + style.Render(label)
		if value := m.renderValue(i); value != "" {
			line += strings.Repeat(" ", max(2, 20-len(label))) + value
		}
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m ConfigModel) renderValue(item int) string {
	switch item {
	case menuCopyToClipboard:
		return m.renderBoolValue(m.config.CopyToClipboard)
	case menuVerbose:
		return m.renderBoolValue(m.config.Verbose)
	case menuAPIKey:
		if m.overlay.saver != nil && m.overlay.saver.HasAPIKey() {
			return configEnabledStyle.Render("set ") + configPathStyle.Render(m.overlay.saver.MaskedKey())
		}
		return configDisabledStyle.Render("not set (fallback replies only)")
	case menuExit:
		return ""
	}
	if v := m.currentValue(item); v != "" {
		return configValueStyle.Render(v)
	}
	return configDisabledStyle.Render("default")
}

func (m ConfigModel) renderChoices() string {
	lines := []string{configSectionTitleStyle.Render("Select " + menuLabels[m.editing]), ""}
	current := m.currentValue(m.editing)

	for i, c := range m.choices {
		cursor, style := "  ", configMenuItemStyle
		if m.choice == i {
			cursor, style = configCursorStyle.Render("▸ "), configMenuSelectedStyle
		}
		text := c.value
		if c.desc != "" {
			text += " - " + c.desc
		}
		line := cursor + style.Render(text)
		if c.value == current {
			line += configEnabledStyle.Render(" (current)")
		}
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderBoolValue renders a boolean value with appropriate styling
func (m ConfigModel) renderBoolValue(value bool) string {
	if value {
		return configEnabledStyle.Render("enabled")
	}
	return configDisabledStyle.Render("disabled")
}

// renderStatusBar renders the bottom status bar
func (m ConfigModel) renderStatusBar(width int) string {
	back := "Exit"
	if m.view == viewSelect {
		back = "Back"
	}
	items := []string{
		statusKeyStyle.Render("↑↓") + statusDescStyle.Render(" Navigate"),
		statusKeyStyle.Render("Enter") + statusDescStyle.Render(" Select"),
		statusKeyStyle.Render("Esc") + statusDescStyle.Render(" "+back),
	}
	return configStatusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// RunConfig starts the config TUI
func RunConfig(opts ConfigOptions) error {
	p := tea.NewProgram(
		NewConfigModel(opts),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
