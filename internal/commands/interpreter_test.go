package commands

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunsharma1203/grievance/internal/model"
	"github.com/arunsharma1203/grievance/internal/store"
	"github.com/arunsharma1203/grievance/internal/store/sqlite"
	"github.com/arunsharma1203/grievance/internal/telegram"
)

const (
	adminChat    = "1001"
	strangerChat = "2002"
)

type sent struct {
	chatID string
	text   string
}

type fakeReplier struct {
	mu   sync.Mutex
	msgs []sent
}

func (f *fakeReplier) SendTo(_ context.Context, chatID, text string, _ bool) telegram.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, sent{chatID, text})
	return telegram.Result{OK: true, Method: "sendMessage"}
}

func (f *fakeReplier) last(t *testing.T) sent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.msgs, "no reply sent")
	return f.msgs[len(f.msgs)-1]
}

func (f *fakeReplier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "cmd.db"))
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(ctx, db))
	st := sqlite.NewWithDB(db)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seed(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	_, err := st.Grievances().Create(ctx, &model.Grievance{ID: "12345", Username: "ana", Text: "noise"})
	require.NoError(t, err)
	_, err = st.Moods().Create(ctx, &model.Mood{Username: "ana", Value: 4})
	require.NoError(t, err)
	_, err = st.Diary().Create(ctx, &model.DiaryNote{ID: "d1", Body: "dear diary"})
	require.NoError(t, err)
}

func counts(t *testing.T, st store.Store) (int, int, int) {
	t.Helper()
	ctx := context.Background()
	g, err := st.Grievances().List(ctx)
	require.NoError(t, err)
	m, err := st.Moods().List(ctx, 0)
	require.NoError(t, err)
	d, err := st.Diary().List(ctx, 100)
	require.NoError(t, err)
	return len(g), len(m), len(d)
}

func newInterpreter(st store.Store, out Replier) *Interpreter {
	return New(st, out, adminChat, zerolog.Nop())
}

func TestRecordReply_UpdatesGrievance(t *testing.T) {
	st := newStore(t)
	seed(t, st)
	out := &fakeReplier{}
	in := newInterpreter(st, out)

	require.NoError(t, in.Handle(context.Background(), Inbound{ChatID: strangerChat, Text: "reply 12345 All good now"}))

	g, err := st.Grievances().Get(context.Background(), "12345")
	require.NoError(t, err)
	require.NotNil(t, g.Reply)
	assert.Equal(t, "All good now", *g.Reply)
	assert.NotNil(t, g.RepliedAt)
	assert.Equal(t, strangerChat, out.last(t).chatID)
	assert.Contains(t, out.last(t).text, "All good now")
}

func TestRecordReply_MissingGrievance(t *testing.T) {
	st := newStore(t)
	seed(t, st)
	out := &fakeReplier{}
	in := newInterpreter(st, out)

	require.NoError(t, in.Handle(context.Background(), Inbound{ChatID: adminChat, Text: "reply 99999 hello"}))
	assert.Contains(t, out.last(t).text, "not found")

	g, err := st.Grievances().Get(context.Background(), "12345")
	require.NoError(t, err)
	assert.Nil(t, g.Reply)
	assert.Nil(t, g.RepliedAt)
	_, err = st.Grievances().Get(context.Background(), "99999")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRecordReply_CaptionAndEscaping(t *testing.T) {
	st := newStore(t)
	seed(t, st)
	out := &fakeReplier{}
	in := newInterpreter(st, out)

	require.NoError(t, in.Handle(context.Background(), Inbound{ChatID: adminChat, Caption: "id#12345 <b>fixed</b> & done"}))
	g, err := st.Grievances().Get(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, "<b>fixed</b> & done", *g.Reply)
	assert.Contains(t, out.last(t).text, "&lt;b&gt;fixed&lt;/b&gt; &amp; done")
}

func TestClear_NonAdminNeverDeletes(t *testing.T) {
	st := newStore(t)
	seed(t, st)
	out := &fakeReplier{}
	in := newInterpreter(st, out)
	ctx := context.Background()

	require.NoError(t, in.Handle(ctx, Inbound{ChatID: strangerChat, Text: "/clear"}))
	assert.Equal(t, msgNotAuthorized, out.last(t).text)
	require.NoError(t, in.Handle(ctx, Inbound{ChatID: strangerChat, Text: "/confirm_clear"}))
	assert.Equal(t, msgNotAuthorized, out.last(t).text)

	g, m, d := counts(t, st)
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{g, m, d})
}

func TestClearRequest_AdminOnlyWarns(t *testing.T) {
	st := newStore(t)
	seed(t, st)
	out := &fakeReplier{}
	in := newInterpreter(st, out)

	require.NoError(t, in.Handle(context.Background(), Inbound{ChatID: adminChat, Text: "/clear"}))
	assert.Contains(t, out.last(t).text, "/confirm_clear")
	g, m, d := counts(t, st)
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{g, m, d})
}

func TestConfirmClear_AdminWithoutPriorClear(t *testing.T) {
	st := newStore(t)
	seed(t, st)
	out := &fakeReplier{}
	in := newInterpreter(st, out)

	require.NoError(t, in.Handle(context.Background(), Inbound{ChatID: adminChat, Text: "/confirm_clear"}))
	g, m, d := counts(t, st)
	assert.Equal(t, [3]int{0, 0, 0}, [3]int{g, m, d})

	report := out.last(t).text
	assert.Contains(t, report, "grievances: <b>1</b>")
	assert.Contains(t, report, "moods: <b>1</b>")
	assert.Contains(t, report, "diary notes: <b>1</b>")
}

// failingMoods makes the second step of a bulk clear fail.
type failingMoods struct{ store.Moods }

func (failingMoods) DeleteAll(context.Context) (int64, error) { return 0, errors.New("disk I/O error") }

type partialStore struct{ store.Store }

func (p partialStore) Moods() store.Moods { return failingMoods{p.Store.Moods()} }

func TestConfirmClear_PartialFailureReportsCounts(t *testing.T) {
	st := newStore(t)
	seed(t, st)
	out := &fakeReplier{}
	in := newInterpreter(partialStore{st}, out)

	err := in.Handle(context.Background(), Inbound{ChatID: adminChat, Text: "/confirm_clear"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")

	report := out.last(t).text
	assert.Contains(t, report, "deleting moods failed")
	assert.Contains(t, report, "grievances: <b>1</b>")
	assert.Contains(t, report, "moods: <b>FAILED</b>")
	assert.Contains(t, report, "diary notes: <b>not attempted</b>")

	g, m, d := counts(t, st)
	assert.Equal(t, [3]int{0, 1, 1}, [3]int{g, m, d})
}

func TestDeleteDiary(t *testing.T) {
	st := newStore(t)
	seed(t, st)
	out := &fakeReplier{}
	in := newInterpreter(st, out)
	ctx := context.Background()

	require.NoError(t, in.Handle(ctx, Inbound{ChatID: strangerChat, Text: "delete_diary d1"}))
	assert.Equal(t, msgNotAuthorized, out.last(t).text)
	_, err := st.Diary().Get(ctx, "d1")
	require.NoError(t, err)

	require.NoError(t, in.Handle(ctx, Inbound{ChatID: adminChat, Text: "delete_diary"}))
	assert.Equal(t, msgDeleteDiaryUsage, out.last(t).text)

	require.NoError(t, in.Handle(ctx, Inbound{ChatID: adminChat, Text: "delete_diary d1"}))
	assert.Contains(t, out.last(t).text, "deleted")
	_, err = st.Diary().Get(ctx, "d1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, in.Handle(ctx, Inbound{ChatID: adminChat, Text: "delete_diary d1"}))
	assert.Contains(t, out.last(t).text, "not found")
}

func TestUnrecognized(t *testing.T) {
	st := newStore(t)
	out := &fakeReplier{}
	in := newInterpreter(st, out)
	ctx := context.Background()

	require.NoError(t, in.Handle(ctx, Inbound{ChatID: strangerChat, Text: "hi there"}))
	assert.Zero(t, out.count(), "non-admin chatter must be ignored")

	require.NoError(t, in.Handle(ctx, Inbound{ChatID: adminChat, Text: "hi there"}))
	assert.True(t, strings.HasPrefix(out.last(t).text, "<b>Commands</b>"))
}

func TestHandleUpdate_UsesChatIdentity(t *testing.T) {
	st := newStore(t)
	seed(t, st)
	out := &fakeReplier{}
	in := newInterpreter(st, out)
	in.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := in.HandleUpdate(context.Background(), telegram.Update{UpdateID: 9, Message: &telegram.Message{
		Chat: telegram.Chat{ID: 1001}, Text: "id 12345 sorted",
	}})
	require.NoError(t, err)
	g, err := st.Grievances().Get(context.Background(), "12345")
	require.NoError(t, err)
	assert.True(t, g.RepliedAt.Equal(in.now()))
	assert.Equal(t, adminChat, out.last(t).chatID)
}
