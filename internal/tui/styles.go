// Package tui provides the terminal user interface for eerieecho.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/diogo/eerieecho/internal/errors"
	"github.com/diogo/eerieecho/internal/models"
	"github.com/diogo/eerieecho/internal/render"
)

// Color variables (updated from theme)
var (
	colorSurface lipgloss.Color
	colorBorder  lipgloss.Color

	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color

	colorText     lipgloss.Color
	colorTextDim  lipgloss.Color
	colorTextMute lipgloss.Color
)

// Style variables (rebuilt when theme changes)
var (
	// Header panel
	headerStyle     lipgloss.Style
	titleStyle      lipgloss.Style
	subtitleStyle   lipgloss.Style
	statusOnStyle   lipgloss.Style
	statusOffStyle  lipgloss.Style
	hintStyle       lipgloss.Style
	avatarStyle     lipgloss.Style
	timestampStyle  lipgloss.Style
	typingDotsStyle lipgloss.Style

	messagesAreaStyle lipgloss.Style

	userBubbleStyle      lipgloss.Style
	userLabelStyle       lipgloss.Style
	assistantBubbleStyle lipgloss.Style
	assistantLabelStyle  lipgloss.Style
	cursorStyle          lipgloss.Style

	inputPanelStyle lipgloss.Style
	inputLabelStyle lipgloss.Style
	loadingStyle    lipgloss.Style

	statusBarStyle  lipgloss.Style
	statusKeyStyle  lipgloss.Style
	statusDescStyle lipgloss.Style

	toastStyle     lipgloss.Style
	toastInfoStyle lipgloss.Style
	errorStyle     lipgloss.Style

	// Settings overlay
	overlayStyle        lipgloss.Style
	overlayTitleStyle   lipgloss.Style
	overlayWarningStyle lipgloss.Style
	overlayLinkStyle    lipgloss.Style

	// Config menu
	configHeaderStyle       lipgloss.Style
	configTitleStyle        lipgloss.Style
	configPanelStyle        lipgloss.Style
	configSectionTitleStyle lipgloss.Style
	configMenuItemStyle     lipgloss.Style
	configMenuSelectedStyle lipgloss.Style
	configCursorStyle       lipgloss.Style
	configValueStyle        lipgloss.Style
	configEnabledStyle      lipgloss.Style
	configDisabledStyle     lipgloss.Style
	configPathStyle         lipgloss.Style
	configFeedbackStyle     lipgloss.Style
	configStatusBarStyle    lipgloss.Style
)

func init() {
	UpdateTheme()
}

// UpdateTheme refreshes all styles based on the current TUI theme
func UpdateTheme() {
	theme := render.GetTUITheme()

	colorSurface = theme.Surface
	colorBorder = theme.Border
	colorPrimary = theme.Primary
	colorSecondary = theme.Secondary
	colorAccent = theme.Accent
	colorWarning = theme.Warning
	colorError = theme.Error
	colorText = theme.Text
	colorTextDim = theme.TextDim
	colorTextMute = theme.TextMute

	rebuildStyles()
}

func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Italic(true)

	statusOnStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	statusOffStyle = lipgloss.NewStyle().
		Foreground(colorWarning).
		Bold(true)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	avatarStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Background(colorSecondary).
		Bold(true).
		Padding(0, 1)

	timestampStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	typingDotsStyle = lipgloss.NewStyle().
		Foreground(colorSecondary)

	messagesAreaStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	userBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Foreground(colorText).
		Padding(0, 1)

	userLabelStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderTop(false).
		BorderRight(false).
		BorderBottom(false).
		BorderForeground(colorPrimary).
		Background(colorSurface).
		Padding(0, 1)

	assistantLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	cursorStyle = lipgloss.NewStyle().
		Foreground(colorAccent)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorSecondary).
		Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true)

	loadingStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Italic(true)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	toastStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Background(colorError).
		Bold(true).
		Padding(0, 1)

	toastInfoStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Background(colorSecondary).
		Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)

	overlayStyle = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2)

	overlayTitleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		MarginBottom(1)

	overlayWarningStyle = lipgloss.NewStyle().
		Foreground(colorWarning)

	overlayLinkStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Underline(true)

	configHeaderStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(0, 2).
		MarginBottom(1)

	configTitleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	configPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(1, 2)

	configSectionTitleStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true).
		MarginBottom(1)

	configMenuItemStyle = lipgloss.NewStyle().
		Foreground(colorText).
		PaddingLeft(2)

	configMenuSelectedStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		PaddingLeft(0)

	configCursorStyle = lipgloss.NewStyle().
		Foreground(colorPrimary)

	configValueStyle = lipgloss.NewStyle().
		Foreground(colorAccent)

	configEnabledStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	configDisabledStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	configPathStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Italic(true)

	configFeedbackStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true).
		MarginTop(1)

	configStatusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		MarginTop(1)
}

// FormatError renders a completion failure with its details and a hint
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	errStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)
	tipStyle := lipgloss.NewStyle().Foreground(colorPrimary)

	var sb strings.Builder
	sb.WriteString(errStyle.Render("✗ " + apierrors.UserMessage(err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  HTTP status: %d", status)))
	}
	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render("  Endpoint: " + endpoint))
	}

	if hint := errorHint(err); hint != "" {
		sb.WriteString("\n")
		sb.WriteString(tipStyle.Render("  " + hint))
	}

	return sb.String()
}

func errorHint(err error) string {
	switch status := apierrors.GetHTTPStatus(err); {
	case errors.Is(err, apierrors.ErrMissingCredential):
		return "Set a key with 'eerieecho key set' or press ctrl+s in chat. Get one at " + models.EndpointAPIKeyHelp
	case status == 400 || status == 401 || status == 403:
		return "The API key was rejected. Check it with 'eerieecho key show'"
	case status == 429:
		return "Rate limited. Wait a moment before the next message"
	case apierrors.IsTimeoutError(err):
		return "Request timed out. Raise timeout_seconds in the config if this persists"
	}
	return ""
}
