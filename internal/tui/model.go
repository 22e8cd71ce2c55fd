package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"

	"github.com/diogo/eerieecho/internal/chat"
	"github.com/diogo/eerieecho/internal/config"
	apierrors "github.com/diogo/eerieecho/internal/errors"
	"github.com/diogo/eerieecho/internal/models"
	"github.com/diogo/eerieecho/internal/render"
)

const toastDuration = 4 * time.Second

// copyToClipboard is swapped out in tests
var copyToClipboard = clipboard.WriteAll

// Message types for the TUI
type (
	replyMsg struct {
		reply chat.Reply
		err   error
	}
	noticeMsg struct {
		err error
	}
	toastExpiredMsg struct {
		gen int
	}
)

// Notices carries controller failure notifications into the running
// program. It implements chat.Notifier.
type Notices struct {
	ch chan error
}

// NewNotices creates a notice channel
func NewNotices() *Notices {
	return &Notices{ch: make(chan error, 4)}
}

// Notify queues err for display, dropping it if the queue is full
func (n *Notices) Notify(err error) {
	select {
	case n.ch <- err:
	default:
	}
}

func (n *Notices) wait() tea.Cmd {
	if n == nil {
		return nil
	}
	return func() tea.Msg {
		return noticeMsg{err: <-n.ch}
	}
}

// ChatOptions holds what the chat model needs
type ChatOptions struct {
	Controller *chat.Controller
	Settings   KeySaver
	Theme      config.Theme
	Config     config.Config
	ModelName  string
	Notices    *Notices
	Logger     zerolog.Logger
}

// Model represents the chat TUI state
type Model struct {
	ctx        context.Context
	controller *chat.Controller
	theme      config.Theme
	modelName  string
	mdOpts     render.Options
	logger     zerolog.Logger
	notices    *Notices

	// UI components
	viewport   viewport.Model
	textarea   textarea.Model
	spinner    spinner.Model
	overlay    settingsOverlay
	typewriter typewriter
	// intro starts the reveal of the welcome message
	intro tea.Cmd

	// rendered markdown by message ID and width
	rendered map[string]string

	toast    string
	toastErr bool
	toastGen int

	ready  bool
	width  int
	height int
}

// NewChatModel creates a new chat TUI model
func NewChatModel(ctx context.Context, opts ChatOptions) Model {
	if ctx == nil {
		ctx = context.Background()
	}

	ta := textarea.New()
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle
	ta.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(colorSecondary).Italic(true)

	s := spinner.New()
	s.Spinner = spinner.Ellipsis
	s.Style = typingDotsStyle

	m := Model{
		ctx:        ctx,
		controller: opts.Controller,
		theme:      opts.Theme,
		modelName:  opts.ModelName,
		mdOpts:     render.OptionsFor(opts.Config, 0),
		logger:     opts.Logger,
		notices:    opts.Notices,
		textarea:   ta,
		spinner:    s,
		overlay:    newSettingsOverlay(opts.Settings, config.StoreLocation(opts.Config)),
		typewriter: newTypewriter(time.Duration(opts.Config.TypewriterMillis) * time.Millisecond),
		rendered:   make(map[string]string),
	}
	if opts.Controller != nil {
		if msgs := opts.Controller.Messages(); len(msgs) > 0 && !msgs[len(msgs)-1].IsUser() {
			last := msgs[len(msgs)-1]
			m.intro = m.typewriter.Start(last.ID, last.Content)
		}
	}
	m.syncInput()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.notices.wait(),
		m.intro,
	)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if key, ok := msg.(tea.KeyMsg); ok && m.overlay.open {
		if key.String() == "ctrl+c" {
			return m, m.quit()
		}
		m.overlay, cmd = m.overlay.Update(msg)
		if !m.overlay.open {
			m.syncInput()
		}
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 1
		toastHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - toastHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}

		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.updateViewport()
		m.viewport.GotoBottom()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, m.quit()

		case "esc":
			if !m.typewriter.Done() {
				m.typewriter.Skip()
				m.updateViewport()
				return m, nil
			}
			return m, m.quit()

		case "ctrl+s":
			return m, m.openSettings()

		case "enter":
			return m.submit()
		}

	case replyMsg:
		if errors.Is(msg.err, apierrors.ErrClosed) {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Error().Err(msg.err).Msg("resolve failed")
			cmds = append(cmds, m.showToast(msg.err.Error(), true))
		} else {
			cmds = append(cmds, m.typewriter.Start(msg.reply.Message.ID, msg.reply.Message.Content))
		}
		m.syncInput()
		m.updateViewport()
		m.viewport.GotoBottom()

	case typewriterTickMsg:
		cmds = append(cmds, m.typewriter.Tick(msg))
		m.updateViewport()
		m.viewport.GotoBottom()

	case noticeMsg:
		cmds = append(cmds, m.showToast(apierrors.UserMessage(msg.err), true), m.notices.wait())

	case keySavedMsg:
		switch {
		case msg.err != nil:
			m.logger.Error().Err(msg.err).Msg("failed to save API key")
			cmds = append(cmds, m.showToast("Could not save key: "+msg.err.Error(), true))
		case msg.cleared:
			cmds = append(cmds, m.showToast("API key cleared. Replies now come from the fallback script.", false))
		default:
			cmds = append(cmds, m.showToast("API key saved.", false))
		}

	case toastExpiredMsg:
		if msg.gen == m.toastGen {
			m.toast = ""
		}

	case spinner.TickMsg:
		if m.typing() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			m.updateViewport()
		}
	}

	// Only pass KeyMsg to textarea to prevent escape sequence leaks
	if !m.typing() {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit handles Enter: slash commands first, then a chat turn
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.typing() {
		return m, nil
	}

	raw := m.textarea.Value()
	switch strings.TrimSpace(raw) {
	case "":
		return m, nil
	case "/exit", "/quit", "exit", "quit":
		return m, m.quit()
	case "/key", "/settings":
		m.textarea.Reset()
		return m, m.openSettings()
	case "/copy":
		m.textarea.Reset()
		return m, m.copyLastReply()
	}

	turn, err := m.controller.Accept(raw)
	if err != nil {
		// Busy or empty: the input is ignored
		m.logger.Debug().Err(err).Msg("message not accepted")
		return m, nil
	}

	m.textarea.Reset()
	m.syncInput()
	m.updateViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(m.resolve(turn), m.spinner.Tick)
}

// resolve runs the turn off the update loop
func (m Model) resolve(turn *chat.Turn) tea.Cmd {
	ctrl, ctx := m.controller, m.ctx
	return func() tea.Msg {
		reply, err := ctrl.Resolve(ctx, turn)
		return replyMsg{reply: reply, err: err}
	}
}

func (m *Model) openSettings() tea.Cmd {
	m.textarea.Blur()
	return m.overlay.Open()
}

func (m *Model) copyLastReply() tea.Cmd {
	last, ok := m.controller.LastReply()
	if !ok {
		return m.showToast("Nothing to copy yet.", false)
	}
	if err := copyToClipboard(last); err != nil {
		m.logger.Warn().Err(err).Msg("clipboard write failed")
		return m.showToast("Clipboard unavailable: "+err.Error(), true)
	}
	return m.showToast("Last reply copied to clipboard.", false)
}

func (m *Model) showToast(text string, isErr bool) tea.Cmd {
	m.toastGen++
	m.toast = text
	m.toastErr = isErr
	gen := m.toastGen
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{gen: gen}
	})
}

// quit drops any pending reply before the program exits
func (m Model) quit() tea.Cmd {
	m.controller.Close()
	return tea.Quit
}

func (m Model) typing() bool {
	return m.controller.Typing()
}

// syncInput disables the textarea while a reply is in flight
func (m *Model) syncInput() {
	if m.typing() {
		m.textarea.Placeholder = fmt.Sprintf("%s is typing...", m.botName())
		m.textarea.Blur()
		return
	}
	m.textarea.Placeholder = "Type your message here..."
	if !m.overlay.open {
		m.textarea.Focus()
	}
}

func (m Model) botName() string {
	if m.theme.BotName != "" {
		return m.theme.BotName
	}
	return "EeriEcho"
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	if m.overlay.open {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.overlay.View(min(m.width-8, 72)))
	}

	contentWidth := m.width - 4
	sections := []string{
		m.renderHeader(contentWidth),
		messagesAreaStyle.Width(contentWidth).Height(m.viewport.Height).Render(m.viewport.View()),
		m.renderToast(contentWidth),
		m.renderInput(contentWidth),
		m.renderStatusBar(contentWidth),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(width int) string {
	name := m.botName()
	avatar := avatarStyle.Render(initial(name))

	status := statusOffStyle.Render("○ FALLBACK")
	if m.controller.HasCredential() {
		status = statusOnStyle.Render("● ACTIVE")
	}
	if m.modelName != "" && m.controller.HasCredential() {
		status += hintStyle.Render("  " + m.modelName)
	}

	title := titleStyle.Render(name)
	used := lipgloss.Width(avatar) + lipgloss.Width(title) + lipgloss.Width(status) + 8
	tagline := ""
	if avail := width - used; avail > 3 && m.theme.Tagline != "" {
		tagline = subtitleStyle.Render(runewidth.Truncate(m.theme.Tagline, avail, "…"))
	}

	left := lipgloss.JoinHorizontal(lipgloss.Center, avatar, " ", title, "  ", tagline)
	gap := width - 4 - lipgloss.Width(left) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}

	return headerStyle.Width(width).Render(left + strings.Repeat(" ", gap) + status)
}

func (m Model) renderToast(width int) string {
	if m.toast == "" {
		return ""
	}
	text := runewidth.Truncate(m.toast, width-4, "…")
	if m.toastErr {
		return toastStyle.Render("✗ " + text)
	}
	return toastInfoStyle.Render(text)
}

func (m Model) renderInput(width int) string {
	label := inputLabelStyle.Render("You")
	if m.typing() {
		label = loadingStyle.Render(m.botName() + " is typing")
	}
	content := lipgloss.JoinVertical(lipgloss.Left, label, m.textarea.View())
	return inputPanelStyle.Width(width).Render(content)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Ctrl+S", "API key"},
		{"/copy", "Copy reply"},
		{"Esc", "Quit"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// updateViewport refreshes the viewport content from the controller's log
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	name := m.botName()

	for i, msg := range m.controller.Messages() {
		if i > 0 {
			content.WriteString("\n")
		}
		stamp := timestampStyle.Render(" " + msg.Timestamp.Format("15:04"))

		if msg.IsUser() {
			label := userLabelStyle.Render("You") + stamp
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Content)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := assistantLabelStyle.Render(name) + stamp
			content.WriteString(label + "\n")
			content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(m.renderAssistant(msg, bubbleWidth-4)))
		}
		content.WriteString("\n")
	}

	if m.typing() {
		content.WriteString("\n")
		content.WriteString(assistantLabelStyle.Render(name) + " " + m.spinner.View())
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// renderAssistant shows the typewriter prefix while animating, markdown after
func (m *Model) renderAssistant(msg models.Message, width int) string {
	if m.typewriter.Animating(msg.ID) {
		text := m.typewriter.Visible()
		if m.typewriter.CursorOn() {
			text += cursorStyle.Render("▌")
		}
		return lipgloss.NewStyle().Foreground(colorText).Width(width).Render(text)
	}

	key := fmt.Sprintf("%s/%d", msg.ID, width)
	if out, ok := m.rendered[key]; ok {
		return out
	}
	out := render.Reply(msg.Content, m.mdOpts.WithWidth(width))
	m.rendered[key] = out
	return out
}

func initial(name string) string {
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// RunChat starts the chat TUI and closes the controller when it exits
func RunChat(ctx context.Context, opts ChatOptions) error {
	defer opts.Controller.Close()

	p := tea.NewProgram(
		NewChatModel(ctx, opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
