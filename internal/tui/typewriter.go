package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// cursorBlinkTicks is how many reveal ticks the cursor stays in one state
const cursorBlinkTicks = 8

// typewriterTickMsg advances the reveal of message id. gen guards against
// ticks left over from a previous Start.
type typewriterTickMsg struct {
	id  string
	gen int
}

// typewriter reveals one rune per interval. It only controls what is drawn;
// the message content it animates is owned elsewhere.
type typewriter struct {
	id       string
	runes    []rune
	shown    int
	ticks    int
	gen      int
	interval time.Duration
}

func newTypewriter(interval time.Duration) typewriter {
	return typewriter{interval: interval}
}

// Start begins revealing text for message id. A zero interval shows the
// whole text at once and returns nil.
func (t *typewriter) Start(id, text string) tea.Cmd {
	t.gen++
	t.id = id
	t.runes = []rune(text)
	t.shown = 0
	t.ticks = 0

	if t.interval <= 0 || len(t.runes) == 0 {
		t.shown = len(t.runes)
		return nil
	}
	return t.next()
}

// Tick reveals one more rune and schedules the next tick until done
func (t *typewriter) Tick(msg typewriterTickMsg) tea.Cmd {
	if msg.id != t.id || msg.gen != t.gen || t.Done() {
		return nil
	}
	t.shown++
	t.ticks++
	if t.Done() {
		return nil
	}
	return t.next()
}

// Skip reveals the rest immediately
func (t *typewriter) Skip() {
	t.shown = len(t.runes)
}

// Done reports whether the full text is visible
func (t typewriter) Done() bool {
	return t.shown >= len(t.runes)
}

// Animating reports whether message id is mid-reveal
func (t typewriter) Animating(id string) bool {
	return id != "" && id == t.id && !t.Done()
}

// Visible returns the revealed prefix
func (t typewriter) Visible() string {
	return string(t.runes[:t.shown])
}

// CursorOn reports the blink state of the reveal cursor
func (t typewriter) CursorOn() bool {
	return (t.ticks/cursorBlinkTicks)%2 == 0
}

func (t typewriter) next() tea.Cmd {
	id, gen := t.id, t.gen
	return tea.Tick(t.interval, func(time.Time) tea.Msg {
		return typewriterTickMsg{id: id, gen: gen}
	})
}
