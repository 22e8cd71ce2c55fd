package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/diogo/eerieecho/internal/chat"
	"github.com/diogo/eerieecho/internal/config"
	apierrors "github.com/diogo/eerieecho/internal/errors"
	"github.com/diogo/eerieecho/internal/render"
	"github.com/diogo/eerieecho/internal/tui"
)

var clipboardWriteAll = clipboard.WriteAll

// askOptions are the flags of a one-shot question
type askOptions struct {
	file   string
	output string
	raw    bool
}

func (o *askOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "Read the message from a file")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Write the reply to a file")
	cmd.Flags().BoolVar(&o.raw, "raw", false, "Print only the reply text")
}

// NewAskCmd creates the one-shot ask command
func NewAskCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send one message and print the reply",
		Long: `Send a single message to the current persona and print the reply.

The message is taken from the argument, from --file, or from stdin when it
is piped. Without an API key the reply comes from the theme's script.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), deps, flags, opts, args)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runAsk(ctx context.Context, deps *Dependencies, flags *globalFlags, opts *askOptions, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	message, err := readMessage(deps, opts, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(message) == "" {
		return apierrors.ErrEmptyMessage
	}

	s, err := deps.openSession(flags, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	var spin *spinner
	if !opts.raw {
		spin = newSpinner(deps.Stderr, s.theme.BotName+" is typing")
		spin.start()
	}

	reply, err := s.controller.Submit(ctx, message)
	if err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		return err
	}

	if spin != nil {
		if reply.Err != nil {
			spin.stopWithError()
			fmt.Fprintln(deps.Stderr, formatErrorMessage(reply.Err, "Gemini unavailable"))
		} else {
			spin.stopWithSuccess(routeLabel(reply.Route))
		}
	}

	text := reply.Message.Content

	if opts.raw {
		if opts.output != "" {
			return writeReply(opts.output, text)
		}
		_, err := fmt.Fprint(deps.Stdout, text)
		return err
	}

	if s.cfg.CopyToClipboard {
		copyReply(deps, text)
	}

	if opts.output != "" {
		if err := writeReply(opts.output, text); err != nil {
			return err
		}
		fmt.Fprintln(deps.Stderr, successStyle().Render("✓ Reply saved to "+opts.output))
		return nil
	}

	printReply(deps, s.theme.BotName, text, s.cfg)
	return nil
}

func readMessage(deps *Dependencies, opts *askOptions, args []string) (string, error) {
	switch {
	case len(args) > 0:
		return args[0], nil
	case opts.file != "":
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return "", fmt.Errorf("failed to read message file: %w", err)
		}
		return string(data), nil
	case deps.stdinIsPiped():
		data, err := io.ReadAll(deps.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	return "", apierrors.ErrEmptyMessage
}

func writeReply(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func copyReply(deps *Dependencies, text string) {
	copyFn := deps.CopyToClipboard
	if copyFn == nil {
		copyFn = clipboardWriteAll
	}
	if err := copyFn(text); err != nil {
		warn := lipgloss.NewStyle().Foreground(render.GetTUITheme().Warning)
		fmt.Fprintln(deps.Stderr, warn.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		return
	}
	fmt.Fprintln(deps.Stderr, successStyle().Render("✓ Copied to clipboard"))
}

// printReply renders the reply as a labelled markdown bubble
func printReply(deps *Dependencies, botName, text string, cfg config.Config) {
	termWidth := 0
	if deps.TerminalWidth != nil {
		termWidth = deps.TerminalWidth()
	}
	if termWidth <= 0 {
		termWidth = 80
	}
	bubbleWidth := min(max(termWidth-4, 40), 120)
	contentWidth := bubbleWidth - 4

	theme := render.GetTUITheme()
	label := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("✦ " + botName)
	bubble := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Foreground(theme.Text).
		Padding(0, 1).
		MarginTop(1).
		MarginBottom(1).
		Width(bubbleWidth)

	rendered := render.Reply(text, render.OptionsFor(cfg, contentWidth))
	fmt.Fprintln(deps.Stdout, label)
	fmt.Fprintln(deps.Stdout, bubble.Render(rendered))
}

func routeLabel(route chat.Route) string {
	if route == chat.RouteRemote {
		return "Replied via Gemini"
	}
	return "Replied from the script"
}

func successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(render.GetTUITheme().Secondary)
}

// formatErrorMessage renders err for the terminal. Completion failures get
// their status, endpoint and hint; anything else is prefixed with context.
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}
	if apierrors.IsCompletionError(err) || apierrors.IsTimeoutError(err) || errors.Is(err, apierrors.ErrMissingCredential) {
		return tui.FormatError(err)
	}
	errStyle := lipgloss.NewStyle().Foreground(render.GetTUITheme().Error)
	return errStyle.Render(fmt.Sprintf("✗ %s: %v", context, err))
}

// spinner is the animated indicator shown on stderr while a reply is pending
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// render draws one frame: a pulsing glyph, the message and fading dots
func (s *spinner) render() {
	theme := render.GetTUITheme()
	pulse := []lipgloss.Color{theme.Primary, theme.Secondary, theme.Accent, theme.Secondary}

	glyph := lipgloss.NewStyle().
		Foreground(pulse[s.frame%len(pulse)]).
		Bold(true).
		Render(spinnerFrames[s.frame%len(spinnerFrames)])

	var dots strings.Builder
	lit := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < lit {
			dots.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(theme.TextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(theme.Text).Italic(true).Render(s.message)
	fmt.Fprintf(s.out, "\r\033[K%s %s %s", glyph, msg, dots.String())
}

func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done
	fmt.Fprintln(s.out, successStyle().Bold(true).Render("✓ "+message))
}

func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}
