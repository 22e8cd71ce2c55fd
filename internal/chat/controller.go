// Package chat implements the conversation controller: it owns the visible
// message log and the model-facing transcript, routes each user turn to the
// remote model or the fallback selector, and gates submissions with a single
// typing flag.
package chat

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apierrors "github.com/diogo/eerieecho/internal/errors"
	"github.com/diogo/eerieecho/internal/fallback"
	"github.com/diogo/eerieecho/internal/models"
)

// Completer produces a model reply for a transcript
type Completer interface {
	Generate(ctx context.Context, transcript []models.TranscriptEntry, apiKey string) (string, error)
}

// CredentialSource supplies the current API key. An empty key means none is
// configured.
type CredentialSource interface {
	APIKey() string
}

// Notifier receives remote failures for a user-visible side channel
type Notifier interface {
	Notify(err error)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Route tells which path produced a reply
type Route int

const (
	RouteRemote Route = iota
	RouteFallback
)

func (r Route) String() string {
	if r == RouteRemote {
		return "remote"
	}
	return "fallback"
}

// Turn is an accepted user message awaiting its reply
type Turn struct {
	Message models.Message

	apiKey string
	// transcript snapshot including this turn's user entry
	transcript []models.TranscriptEntry
	// claimed is set by the first Resolve; guarded by Controller.mu
	claimed bool
}

// Reply is the outcome of a resolved turn
type Reply struct {
	Message models.Message
	Route   Route
	// Err is the remote failure that forced the fallback path, if any.
	Err error
}

// Controller is safe for concurrent use. At most one turn is in flight.
type Controller struct {
	mu         sync.Mutex
	messages   []models.Message
	transcript []models.TranscriptEntry
	typing     bool
	pending    *Turn
	closed     bool

	credentials CredentialSource
	completer   Completer
	selector    *fallback.Selector
	delayMin    time.Duration
	delaySpan   time.Duration
	rng         *rand.Rand
	sleep       Sleeper
	notifier    Notifier
	now         func() time.Time
	logger      zerolog.Logger

	welcome string
	prompt  string
	ack     string

	closeCtx context.Context
	shutdown context.CancelFunc
}

// Option configures a Controller
type Option func(*Controller)

// WithFallback sets the canned reply selector
func WithFallback(s *fallback.Selector) Option {
	return func(c *Controller) {
		if s != nil {
			c.selector = s
		}
	}
}

// WithDelay sets the fallback delay window [base, base+span]
func WithDelay(base, span time.Duration) Option {
	return func(c *Controller) {
		if base >= 0 {
			c.delayMin = base
		}
		if span >= 0 {
			c.delaySpan = span
		}
	}
}

// WithRand sets the random source used for picks and delays
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// WithSleeper replaces the timer used for the fallback delay
func WithSleeper(s Sleeper) Option {
	return func(c *Controller) {
		if s != nil {
			c.sleep = s
		}
	}
}

// WithNotifier sets the failure side channel
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithClock sets the timestamp source
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithWelcome shows text as the first, visible-only assistant message
func WithWelcome(text string) Option {
	return func(c *Controller) {
		c.welcome = text
	}
}

// WithPriming seeds the transcript with a hidden instruction and its
// acknowledgement
func WithPriming(prompt, ack string) Option {
	return func(c *Controller) {
		c.prompt = prompt
		c.ack = ack
	}
}

// DefaultFallbacks is used when no selector is configured
var DefaultFallbacks = []string{
	"The signal is weak. Say that again?",
}

// NewController creates a controller. A nil completer routes every turn to
// the fallback path.
func NewController(credentials CredentialSource, completer Completer, opts ...Option) *Controller {
	closeCtx, shutdown := context.WithCancel(context.Background())
	c := &Controller{
		credentials: credentials,
		completer:   completer,
		selector:    fallback.New(DefaultFallbacks, ""),
		rng:         fallback.NewRand(uint64(time.Now().UnixNano())),
		sleep:       sleepContext,
		now:         time.Now,
		logger:      zerolog.Nop(),
		closeCtx:    closeCtx,
		shutdown:    shutdown,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.prompt != "" {
		c.transcript = append(c.transcript,
			models.TranscriptEntry{Role: models.RoleUser, Text: c.prompt},
			models.TranscriptEntry{Role: models.RoleModel, Text: c.ack},
		)
	}
	if c.welcome != "" {
		c.messages = append(c.messages, models.NewMessage(models.SenderAssistant, c.welcome, c.now()))
	}

	return c
}

// Submit accepts text and blocks until its reply is resolved
func (c *Controller) Submit(ctx context.Context, text string) (Reply, error) {
	turn, err := c.Accept(text)
	if err != nil {
		return Reply{}, err
	}
	return c.Resolve(ctx, turn)
}

// Accept records a user message and takes the typing gate. Empty text, a
// held gate or a closed controller leave all state untouched.
func (c *Controller) Accept(text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apierrors.ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, apierrors.ErrClosed
	}
	if c.typing {
		return nil, apierrors.ErrBusy
	}

	msg := models.NewMessage(models.SenderUser, text, c.now())
	c.messages = append(c.messages, msg)
	c.transcript = append(c.transcript, models.TranscriptEntry{Role: models.RoleUser, Text: text})
	c.typing = true

	key := ""
	if c.credentials != nil {
		key = c.credentials.APIKey()
	}

	turn := &Turn{
		Message:    msg,
		apiKey:     key,
		transcript: append([]models.TranscriptEntry(nil), c.transcript...),
	}
	c.pending = turn
	return turn, nil
}

// Resolve produces the assistant reply for turn and releases the typing
// gate. Every accepted turn ends with exactly one assistant message unless
// the controller is closed first, in which case nothing is appended.
func (c *Controller) Resolve(ctx context.Context, turn *Turn) (Reply, error) {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return Reply{}, apierrors.ErrClosed
	case turn == nil || turn != c.pending || turn.claimed:
		c.mu.Unlock()
		return Reply{}, apierrors.ErrTurnNotPending
	}
	turn.claimed = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.closeCtx, cancel)
	defer stop()

	var remoteErr error
	if turn.apiKey != "" && c.completer != nil {
		text, err := c.completer.Generate(ctx, turn.transcript, turn.apiKey)
		if err == nil {
			return c.finish(turn, text, RouteRemote, nil)
		}
		remoteErr = err
		c.logger.Warn().
			Err(err).
			Int("status", apierrors.GetHTTPStatus(err)).
			Msg("remote completion failed, using fallback")
		if c.notifier != nil && !c.isClosed() {
			c.notifier.Notify(err)
		}
	} else {
		c.logger.Debug().Msg("no API key configured, using fallback")
	}

	c.mu.Lock()
	text := c.selector.Pick(turn.Message.Content, c.rng)
	delay := fallback.Delay(c.delayMin, c.delaySpan, c.rng)
	c.mu.Unlock()

	if err := c.sleep(ctx, delay); err != nil {
		c.logger.Debug().Err(err).Msg("fallback delay interrupted")
	}

	return c.finish(turn, text, RouteFallback, remoteErr)
}

// finish appends the assistant reply to both logs and clears typing
func (c *Controller) finish(turn *Turn, text string, route Route, remoteErr error) (Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Reply{}, apierrors.ErrClosed
	}
	if c.pending != turn {
		return Reply{}, apierrors.ErrTurnNotPending
	}
	c.pending = nil
	c.typing = false

	msg := models.NewMessage(models.SenderAssistant, text, c.now())
	c.messages = append(c.messages, msg)
	c.transcript = append(c.transcript, models.TranscriptEntry{Role: models.RoleModel, Text: text})

	c.logger.Debug().
		Str("route", route.String()).
		Int("messages", len(c.messages)).
		Msg("turn resolved")

	return Reply{Message: msg, Route: route, Err: remoteErr}, nil
}

// Close tears the controller down. Pending turns are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.typing = false
	c.pending = nil
	c.mu.Unlock()
	c.shutdown()
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Typing reports whether a turn is in flight
func (c *Controller) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typing
}

// Messages returns a copy of the visible log
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Message(nil), c.messages...)
}

// Transcript returns a copy of the model-facing transcript
func (c *Controller) Transcript() []models.TranscriptEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.TranscriptEntry(nil), c.transcript...)
}

// LastReply returns the most recent assistant message content
func (c *Controller) LastReply() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if !c.messages[i].IsUser() {
			return c.messages[i].Content, true
		}
	}
	return "", false
}

// HasCredential reports whether the next turn would try the remote model
func (c *Controller) HasCredential() bool {
	return c.credentials != nil && c.credentials.APIKey() != "" && c.completer != nil
}

// Selector returns the fallback selector
func (c *Controller) Selector() *fallback.Selector {
	return c.selector
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
