package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/eerieecho/internal/api"
	"github.com/diogo/eerieecho/internal/config"
	apierrors "github.com/diogo/eerieecho/internal/errors"
	"github.com/diogo/eerieecho/internal/fallback"
	"github.com/diogo/eerieecho/internal/models"
)

type staticKey string

func (k staticKey) APIKey() string { return string(k) }

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

type countingNotifier struct {
	mu   sync.Mutex
	errs []error
}

func (n *countingNotifier) Notify(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, err)
}

func (n *countingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errs)
}

var testFallbacks = []string{
	"I can feel your fear through these words...",
	"Your thoughts echo in the darkness...",
	"The digital ghosts are listening to every word.",
}

const testEcho = "... Is that truly what you wanted to say?"

type harness struct {
	ctrl     *Controller
	client   *api.MockGeminiClient
	sleeper  *recordingSleeper
	notifier *countingNotifier
	selector *fallback.Selector
}

func newHarness(t *testing.T, key string, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		client:   &api.MockGeminiClient{},
		sleeper:  &recordingSleeper{},
		notifier: &countingNotifier{},
		selector: fallback.New(testFallbacks, testEcho),
	}
	base := []Option{
		WithFallback(h.selector),
		WithDelay(1500*time.Millisecond, 1500*time.Millisecond),
		WithRand(fallback.NewRand(1)),
		WithSleeper(h.sleeper.Sleep),
		WithNotifier(h.notifier),
		WithWelcome("Welcome."),
		WithPriming("be eerie", "understood"),
	}
	h.ctrl = NewController(staticKey(key), h.client, append(base, opts...)...)
	t.Cleanup(h.ctrl.Close)
	return h
}

func TestNewController_WelcomeAndPriming(t *testing.T) {
	h := newHarness(t, "")

	msgs := h.ctrl.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Welcome.", msgs[0].Content)
	assert.False(t, msgs[0].IsUser())

	assert.Equal(t, []models.TranscriptEntry{
		{Role: models.RoleUser, Text: "be eerie"},
		{Role: models.RoleModel, Text: "understood"},
	}, h.ctrl.Transcript())
	assert.False(t, h.ctrl.Typing())
}

func TestSubmit_RemoteSuccess(t *testing.T) {
	h := newHarness(t, "valid-key")
	h.client.Reply = "Hi there"

	reply, err := h.ctrl.Submit(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, RouteRemote, reply.Route)
	assert.Equal(t, "Hi there", reply.Message.Content)
	assert.NoError(t, reply.Err)

	msgs := h.ctrl.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "hello", msgs[1].Content)
	assert.True(t, msgs[1].IsUser())
	assert.Equal(t, "Hi there", msgs[2].Content)

	// The client sees the priming pair plus the new user entry
	assert.Equal(t, 1, h.client.CallCount())
	assert.Equal(t, "valid-key", h.client.LastKey)
	assert.Equal(t, []models.TranscriptEntry{
		{Role: models.RoleUser, Text: "be eerie"},
		{Role: models.RoleModel, Text: "understood"},
		{Role: models.RoleUser, Text: "hello"},
	}, h.client.Transcript())

	transcript := h.ctrl.Transcript()
	require.Len(t, transcript, 4)
	assert.Equal(t, models.TranscriptEntry{Role: models.RoleModel, Text: "Hi there"}, transcript[3])

	assert.Empty(t, h.sleeper.delays, "remote path should not wait")
	assert.Equal(t, 0, h.notifier.Count())
	assert.False(t, h.ctrl.Typing())
}

func TestSubmit_RemoteReplyIsVerbatim(t *testing.T) {
	h := newHarness(t, "k")
	h.client.Reply = "  **bold**\n\n  "

	reply, err := h.ctrl.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "  **bold**\n\n  ", reply.Message.Content)
}

func TestSubmit_NoCredentialUsesFallback(t *testing.T) {
	h := newHarness(t, "")
	h.client.Reply = "should never be used"

	reply, err := h.ctrl.Submit(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, 0, h.client.CallCount(), "client must not be invoked without a key")
	assert.Equal(t, RouteFallback, reply.Route)
	assert.Contains(t, h.selector.Candidates("hello"), reply.Message.Content)
	assert.Equal(t, 0, h.notifier.Count(), "a missing key is not a failure")

	require.Len(t, h.sleeper.delays, 1)
	d := h.sleeper.delays[0]
	assert.GreaterOrEqual(t, d, 1500*time.Millisecond)
	assert.LessOrEqual(t, d, 3000*time.Millisecond)

	assert.Len(t, h.ctrl.Messages(), 3)
	assert.False(t, h.ctrl.Typing())
}

func TestSubmit_RemoteFailureFallsBack(t *testing.T) {
	failures := map[string]error{
		"http status":    apierrors.NewCompletionError(500, "https://example.test", "boom"),
		"transport":      apierrors.NewTransportError("https://example.test", errors.New("connection refused")),
		"no candidates":  &apierrors.CompletionError{Message: apierrors.MsgNoCandidates, Cause: apierrors.ErrNoCandidates},
		"malformed body": apierrors.NewParseError("https://example.test", "bad json"),
	}

	for name, failure := range failures {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, "k")
			h.client.Err = failure

			reply, err := h.ctrl.Submit(context.Background(), "hello")
			require.NoError(t, err, "remote failures never reach the caller")

			assert.Equal(t, RouteFallback, reply.Route)
			assert.ErrorIs(t, reply.Err, failure)
			assert.Contains(t, h.selector.Candidates("hello"), reply.Message.Content)
			assert.Equal(t, 1, h.notifier.Count(), "failure must be notified exactly once")
			assert.Equal(t, 1, h.client.CallCount(), "no retries")
			assert.Len(t, h.sleeper.delays, 1)
			assert.False(t, h.ctrl.Typing())
		})
	}
}

func TestSubmit_FallbackMirroredInTranscript(t *testing.T) {
	h := newHarness(t, "")

	reply, err := h.ctrl.Submit(context.Background(), "hello")
	require.NoError(t, err)

	transcript := h.ctrl.Transcript()
	require.Len(t, transcript, 4)
	assert.Equal(t, models.TranscriptEntry{Role: models.RoleUser, Text: "hello"}, transcript[2])
	assert.Equal(t, models.TranscriptEntry{Role: models.RoleModel, Text: reply.Message.Content}, transcript[3])
}

func TestSubmit_EmptyTextIsNoop(t *testing.T) {
	h := newHarness(t, "k")

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := h.ctrl.Submit(context.Background(), text)
		assert.ErrorIs(t, err, apierrors.ErrEmptyMessage)
	}

	assert.Len(t, h.ctrl.Messages(), 1)
	assert.Len(t, h.ctrl.Transcript(), 2)
	assert.Equal(t, 0, h.client.CallCount())
	assert.False(t, h.ctrl.Typing())
}

func TestSubmit_WhileTypingIsNoop(t *testing.T) {
	h := newHarness(t, "")

	turn, err := h.ctrl.Accept("first")
	require.NoError(t, err)
	assert.True(t, h.ctrl.Typing())

	msgs, transcript := len(h.ctrl.Messages()), len(h.ctrl.Transcript())

	_, err = h.ctrl.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, apierrors.ErrBusy)
	assert.Len(t, h.ctrl.Messages(), msgs)
	assert.Len(t, h.ctrl.Transcript(), transcript)

	_, err = h.ctrl.Resolve(context.Background(), turn)
	require.NoError(t, err)
	assert.False(t, h.ctrl.Typing())

	// The gate reopens once the first turn resolves
	_, err = h.ctrl.Submit(context.Background(), "third")
	require.NoError(t, err)
	assert.Len(t, h.ctrl.Messages(), 5)
}

func TestSubmit_ConcurrentSubmitsOnlyOneAccepted(t *testing.T) {
	h := newHarness(t, "k")
	h.client.Reply = "done"
	h.client.Block = make(chan struct{})

	const n = 8
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.ctrl.Submit(context.Background(), "hello")
			results <- err
		}()
	}

	require.Eventually(t, func() bool { return h.client.CallCount() == 1 }, time.Second, time.Millisecond)
	close(h.client.Block)
	wg.Wait()
	close(results)

	var ok, busy int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apierrors.ErrBusy):
			busy++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	// Rejected submits may race with the accepted one finishing and start
	// a second turn; none may overlap.
	assert.GreaterOrEqual(t, ok, 1)
	assert.Equal(t, n, ok+busy)
	assert.Len(t, h.ctrl.Messages(), 1+2*ok)
	assert.Equal(t, ok, h.client.CallCount())
}

func TestSubmit_TranscriptTracksMessages(t *testing.T) {
	h := newHarness(t, "k")

	outcomes := []error{nil, errors.New("down"), nil, nil, errors.New("down again")}
	for i, outcome := range outcomes {
		h.client.Reply = "remote reply"
		h.client.Err = outcome

		_, err := h.ctrl.Submit(context.Background(), "turn")
		require.NoError(t, err)

		msgs := h.ctrl.Messages()
		transcript := h.ctrl.Transcript()
		assert.Len(t, msgs, 1+2*(i+1))
		assert.Len(t, transcript, 2+len(msgs)-1)

		// Visible messages after the welcome banner line up with the
		// transcript after the priming pair
		for j, m := range msgs[1:] {
			entry := transcript[2+j]
			assert.Equal(t, m.Content, entry.Text)
			assert.Equal(t, models.RoleFor(m.Sender), entry.Role)
		}
	}

	transcript := h.ctrl.Transcript()
	for i := 1; i < len(transcript); i++ {
		assert.NotEqual(t, transcript[i-1].Role, transcript[i].Role, "roles must alternate at %d", i)
	}
	assert.Equal(t, 2, h.notifier.Count())
}

func TestSubmit_FallbackElapsedAtLeastMinimum(t *testing.T) {
	ctrl := NewController(staticKey(""), nil,
		WithFallback(fallback.New(testFallbacks, testEcho)),
		WithDelay(30*time.Millisecond, 10*time.Millisecond),
	)
	defer ctrl.Close()

	start := time.Now()
	reply, err := ctrl.Submit(context.Background(), "hello")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Len(t, ctrl.Messages(), 2)
	assert.Contains(t, ctrl.Selector().Candidates("hello"), reply.Message.Content)
}

func TestSubmit_CancelledContextStillResolves(t *testing.T) {
	ctrl := NewController(staticKey(""), nil,
		WithFallback(fallback.New(testFallbacks, "")),
		WithDelay(time.Hour, 0),
	)
	defer ctrl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply, err := ctrl.Submit(ctx, "hello")
	require.NoError(t, err)
	assert.Contains(t, testFallbacks, reply.Message.Content)
	assert.False(t, ctrl.Typing())
}

func TestClose_DropsPendingReply(t *testing.T) {
	h := newHarness(t, "k")
	h.client.Reply = "too late"
	h.client.Block = make(chan struct{})

	turn, err := h.ctrl.Accept("hello")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := h.ctrl.Resolve(context.Background(), turn)
		done <- err
	}()

	require.Eventually(t, func() bool { return h.client.CallCount() == 1 }, time.Second, time.Millisecond)
	before := h.ctrl.Messages()
	h.ctrl.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, apierrors.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Resolve did not return after Close")
	}

	assert.Equal(t, before, h.ctrl.Messages(), "nothing is appended after Close")
	assert.False(t, h.ctrl.Typing())
	assert.Equal(t, 0, h.notifier.Count())

	_, err = h.ctrl.Submit(context.Background(), "again")
	assert.ErrorIs(t, err, apierrors.ErrClosed)
}

func TestResolve_UnknownTurn(t *testing.T) {
	h := newHarness(t, "")

	_, err := h.ctrl.Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, apierrors.ErrTurnNotPending)

	_, err = h.ctrl.Resolve(context.Background(), &Turn{})
	assert.ErrorIs(t, err, apierrors.ErrTurnNotPending)
	assert.False(t, h.ctrl.Typing())
}

func TestResolve_ConcurrentResolvesOfOneTurn(t *testing.T) {
	h := newHarness(t, "k")
	h.client.Reply = "once"
	h.client.Block = make(chan struct{})

	before := len(h.ctrl.Messages())
	turn, err := h.ctrl.Accept("hello")
	require.NoError(t, err)

	const n = 4
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.ctrl.Resolve(context.Background(), turn)
			results <- err
		}()
	}

	require.Eventually(t, func() bool { return h.client.CallCount() == 1 }, time.Second, time.Millisecond)
	close(h.client.Block)
	wg.Wait()
	close(results)

	var ok, rejected int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apierrors.ErrTurnNotPending):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, rejected)
	assert.Equal(t, 1, h.client.CallCount())
	assert.Len(t, h.ctrl.Messages(), before+2)
	assert.Len(t, h.ctrl.Transcript(), 2+before+2-1)
	assert.False(t, h.ctrl.Typing())
}

func TestSubmit_KeyChangesTakeEffectNextTurn(t *testing.T) {
	settings := config.NewSettings(config.NewMemoryStore())
	client := &api.MockGeminiClient{Reply: "remote"}
	sleeper := &recordingSleeper{}

	ctrl := NewController(settings, client,
		WithFallback(fallback.New(testFallbacks, "")),
		WithSleeper(sleeper.Sleep),
	)
	defer ctrl.Close()

	reply, err := ctrl.Submit(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, RouteFallback, reply.Route)
	assert.False(t, ctrl.HasCredential())

	require.NoError(t, settings.SetAPIKey("new-key"))
	assert.True(t, ctrl.HasCredential())

	reply, err = ctrl.Submit(context.Background(), "two")
	require.NoError(t, err)
	assert.Equal(t, RouteRemote, reply.Route)
	assert.Equal(t, "new-key", client.LastKey)
}

func TestLastReply(t *testing.T) {
	ctrl := NewController(staticKey("k"), &api.MockGeminiClient{Reply: "answer"})
	defer ctrl.Close()

	_, ok := ctrl.LastReply()
	assert.False(t, ok)

	_, err := ctrl.Submit(context.Background(), "q")
	require.NoError(t, err)

	got, ok := ctrl.LastReply()
	assert.True(t, ok)
	assert.Equal(t, "answer", got)
}

func TestThemeOptions(t *testing.T) {
	theme, err := config.FindTheme(config.DefaultThemes(), "eerieecho")
	require.NoError(t, err)

	sleeper := &recordingSleeper{}
	opts := append(ThemeOptions(*theme), WithSleeper(sleeper.Sleep), WithRand(fallback.NewRand(3)))
	ctrl := NewController(staticKey(""), nil, opts...)
	defer ctrl.Close()

	msgs := ctrl.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, theme.Welcome, msgs[0].Content)
	assert.Equal(t, theme.SystemPrompt, ctrl.Transcript()[0].Text)
	assert.Equal(t, 15, ctrl.Selector().Len())

	reply, err := ctrl.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.Contains(t, ctrl.Selector().Candidates("hello"), reply.Message.Content)
	require.Len(t, sleeper.delays, 1)
	assert.GreaterOrEqual(t, sleeper.delays[0], 1500*time.Millisecond)
	assert.LessOrEqual(t, sleeper.delays[0], 3000*time.Millisecond)
}
