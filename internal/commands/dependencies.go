package commands

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/diogo/eerieecho/internal/api"
	"github.com/diogo/eerieecho/internal/chat"
	"github.com/diogo/eerieecho/internal/config"
	"github.com/diogo/eerieecho/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(ctx context.Context, opts tui.ChatOptions) error
	RunConfig(opts tui.ConfigOptions) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Client is the Gemini API client. Nil builds one from config.
	Client api.GeminiClientInterface

	// Store holds the API key. Nil opens the store named in config.
	Store config.Store

	// TUI is the terminal user interface.
	TUI TUIInterface

	// Sleeper replaces the fallback delay timer when set.
	Sleeper chat.Sleeper

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// StdinIsTerminal reports whether stdin is interactive.
	StdinIsTerminal func() bool
	// ReadPassword reads a line from the terminal without echo.
	ReadPassword func() ([]byte, error)
	// CopyToClipboard writes text to the system clipboard.
	CopyToClipboard func(text string) error
	// TerminalWidth returns the width of stdout, or 0 when unknown.
	TerminalWidth func() int
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(ctx context.Context, opts tui.ChatOptions) error {
	return tui.RunChat(ctx, opts)
}

func (d *DefaultTUI) RunConfig(opts tui.ConfigOptions) error {
	return tui.RunConfig(opts)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI:    &DefaultTUI{},
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		StdinIsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
		ReadPassword: func() ([]byte, error) {
			return term.ReadPassword(int(os.Stdin.Fd()))
		},
		CopyToClipboard: clipboardWriteAll,
		TerminalWidth: func() int {
			width, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				return 0
			}
			return width
		},
	}
}
