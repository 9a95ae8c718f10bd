package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/arunsharma1203/grievance/internal/telegram"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedSource returns the queued batches in order, then empty batches.
type scriptedSource struct {
	mu      sync.Mutex
	batches []batch
	offsets []int64
}

type batch struct {
	updates []telegram.Update
	err     error
}

func (s *scriptedSource) GetUpdates(_ context.Context, offset int64, _ int) ([]telegram.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets = append(s.offsets, offset)
	if len(s.batches) == 0 {
		return nil, nil
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b.updates, b.err
}

func (s *scriptedSource) seenOffsets() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.offsets...)
}

type recordingHandler struct {
	mu      sync.Mutex
	seen    []int64
	failOn  map[int64]bool
	delay   time.Duration
	active  atomic.Int32
	overlap atomic.Bool
}

func (h *recordingHandler) HandleUpdate(ctx context.Context, u telegram.Update) error {
	if h.active.Add(1) > 1 {
		h.overlap.Store(true)
	}
	defer h.active.Add(-1)
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	h.mu.Lock()
	h.seen = append(h.seen, u.UpdateID)
	h.mu.Unlock()
	if h.failOn[u.UpdateID] {
		return errors.New("boom")
	}
	return nil
}

func (h *recordingHandler) handled() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int64(nil), h.seen...)
}

func msg(id int64, text string) telegram.Update {
	return telegram.Update{UpdateID: id, Message: &telegram.Message{Chat: telegram.Chat{ID: 1}, Text: text}}
}

func newTestPoller(src Source, h Handler) *Poller {
	return New(src, h, Config{Interval: 10 * time.Millisecond, DispatchTimeout: time.Second}, zerolog.Nop())
}

func TestPollOnce_AdvancesCursorInOrder(t *testing.T) {
	src := &scriptedSource{batches: []batch{{updates: []telegram.Update{msg(5, "a"), msg(6, "b"), msg(7, "c")}}}}
	h := &recordingHandler{}
	p := newTestPoller(src, h)

	n, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int64{5, 6, 7}, h.handled())
	assert.Equal(t, int64(7), p.Cursor())

	_, err = p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 8}, src.seenOffsets())
}

func TestPollOnce_FailedDispatchIsNotRetried(t *testing.T) {
	src := &scriptedSource{batches: []batch{
		{updates: []telegram.Update{msg(1, "a"), msg(2, "b"), msg(3, "c")}},
		{updates: []telegram.Update{msg(2, "b"), msg(3, "c")}}, // provider redelivers
	}}
	h := &recordingHandler{failOn: map[int64]bool{2: true}}
	p := newTestPoller(src, h)

	n, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(3), p.Cursor())

	n, err = p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []int64{1, 2, 3}, h.handled())
}

func TestPollOnce_ProviderFailureKeepsCursor(t *testing.T) {
	src := &scriptedSource{batches: []batch{
		{updates: []telegram.Update{msg(10, "a")}},
		{err: errors.New("connection reset")},
		{updates: []telegram.Update{msg(11, "b")}},
	}}
	h := &recordingHandler{}
	p := newTestPoller(src, h)

	_, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	_, err = p.PollOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(10), p.Cursor())

	_, err = p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 11, 11}, src.seenOffsets())
	assert.Equal(t, []int64{10, 11}, h.handled())
}

func TestPollOnce_UpdateWithoutMessageAdvancesCursor(t *testing.T) {
	src := &scriptedSource{batches: []batch{{updates: []telegram.Update{{UpdateID: 4}, msg(5, "x")}}}}
	h := &recordingHandler{}
	p := newTestPoller(src, h)

	n, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{5}, h.handled())
	assert.Equal(t, int64(5), p.Cursor())
}

type panicHandler struct{}

func (panicHandler) HandleUpdate(context.Context, telegram.Update) error { panic("bad input") }

func TestPollOnce_HandlerPanicIsContained(t *testing.T) {
	src := &scriptedSource{batches: []batch{{updates: []telegram.Update{msg(1, "a")}}}}
	p := newTestPoller(src, panicHandler{})

	n, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(1), p.Cursor())
}

type deadlineHandler struct{ hadDeadline atomic.Bool }

func (d *deadlineHandler) HandleUpdate(ctx context.Context, _ telegram.Update) error {
	_, ok := ctx.Deadline()
	d.hadDeadline.Store(ok)
	return nil
}

func TestPollOnce_DispatchIsBounded(t *testing.T) {
	src := &scriptedSource{batches: []batch{{updates: []telegram.Update{msg(1, "a")}}}}
	h := &deadlineHandler{}
	p := newTestPoller(src, h)

	_, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, h.hadDeadline.Load())
}

func TestRun_CyclesNeverOverlapAndStopOnCancel(t *testing.T) {
	var updates []batch
	for i := int64(1); i <= 5; i++ {
		updates = append(updates, batch{updates: []telegram.Update{msg(i, "x")}})
	}
	src := &scriptedSource{batches: updates}
	h := &recordingHandler{delay: 25 * time.Millisecond}
	p := newTestPoller(src, h)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return p.Cursor() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	assert.False(t, h.overlap.Load(), "dispatches overlapped")
}
