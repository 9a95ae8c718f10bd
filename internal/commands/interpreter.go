package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arunsharma1203/grievance/internal/metrics"
	"github.com/arunsharma1203/grievance/internal/model"
	"github.com/arunsharma1203/grievance/internal/store"
	"github.com/arunsharma1203/grievance/internal/telegram"
)

// Replier sends a message back to a chat.
type Replier interface {
	SendTo(ctx context.Context, chatID, text string, markup bool) telegram.Result
}

// Interpreter applies operator commands to the store and answers in chat.
// It keeps no state between messages: /confirm_clear is honored whether or not /clear came first.
type Interpreter struct {
	st    store.Store
	out   Replier
	admin string
	log   zerolog.Logger
	now   func() time.Time
}

// New creates an Interpreter. adminChatID is the resolved admin identity.
func New(st store.Store, out Replier, adminChatID string, log zerolog.Logger) *Interpreter {
	return &Interpreter{
		st:    st,
		out:   out,
		admin: adminChatID,
		log:   log.With().Str("component", "commands").Logger(),
		now:   time.Now,
	}
}

// HandleUpdate implements poller.Handler.
func (i *Interpreter) HandleUpdate(ctx context.Context, u telegram.Update) error {
	in, ok := FromUpdate(u)
	if !ok {
		return nil
	}
	return i.Handle(ctx, in)
}

// Handle classifies and applies one inbound message. Returned errors are store
// failures; authorization and not-found outcomes are answered in chat instead.
func (i *Interpreter) Handle(ctx context.Context, in Inbound) error {
	cmd := Parse(in.Body())
	log := i.log.With().Int64("update_id", in.UpdateID).Str("chat_id", in.ChatID).Str("kind", string(cmd.Kind)).Logger()
	log.Debug().Msg("inbound command")

	var (
		outcome string
		err     error
	)
	switch cmd.Kind {
	case KindClearRequest:
		outcome = i.clearRequest(ctx, in)
	case KindClearConfirm:
		outcome, err = i.clearConfirm(ctx, in)
	case KindDeleteDiary:
		outcome, err = i.deleteDiary(ctx, in, cmd)
	case KindRecordReply:
		outcome, err = i.recordReply(ctx, in, cmd)
	default:
		outcome = i.unrecognized(ctx, in)
	}
	metrics.Commands.WithLabelValues(string(cmd.Kind), outcome).Inc()
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Kind, err)
	}
	log.Info().Str("outcome", outcome).Msg("command handled")
	return nil
}

const (
	outcomeOK           = "ok"
	outcomeUnauthorized = "unauthorized"
	outcomeNotFound     = "not_found"
	outcomeUsage        = "usage"
	outcomeIgnored      = "ignored"
	outcomeError        = "error"
	outcomePartial      = "partial"
)

func (i *Interpreter) isAdmin(in Inbound) bool {
	return i.admin != "" && in.ChatID == i.admin
}

func (i *Interpreter) reply(ctx context.Context, in Inbound, text string) {
	res := i.out.SendTo(ctx, in.ChatID, text, true)
	if !res.OK {
		i.log.Warn().Str("chat_id", in.ChatID).Str("description", res.Description).Msg("command reply not delivered")
	}
}

func (i *Interpreter) denied(ctx context.Context, in Inbound) string {
	i.reply(ctx, in, msgNotAuthorized)
	return outcomeUnauthorized
}

func (i *Interpreter) clearRequest(ctx context.Context, in Inbound) string {
	if !i.isAdmin(in) {
		return i.denied(ctx, in)
	}
	i.reply(ctx, in, msgClearWarning)
	return outcomeOK
}

type clearStep struct {
	label string
	run   func(context.Context) (int64, error)
}

func (i *Interpreter) clearConfirm(ctx context.Context, in Inbound) (string, error) {
	if !i.isAdmin(in) {
		return i.denied(ctx, in), nil
	}

	steps := []clearStep{
		{"grievances", i.st.Grievances().DeleteAll},
		{"moods", i.st.Moods().DeleteAll},
		{"diary notes", i.st.Diary().DeleteAll},
	}
	counts := make([]string, len(steps))
	for n := range counts {
		counts[n] = "not attempted"
	}

	for n, step := range steps {
		deleted, err := step.run(ctx)
		if err != nil {
			counts[n] = "FAILED"
			i.reply(ctx, in, clearReport("⚠️ Clear stopped: deleting "+step.label+" failed.", steps, counts))
			return outcomePartial, fmt.Errorf("delete all %s: %w", step.label, err)
		}
		counts[n] = fmt.Sprintf("%d", deleted)
	}
	i.reply(ctx, in, clearReport("🧹 All records cleared.", steps, counts))
	return outcomeOK, nil
}

func clearReport(head string, steps []clearStep, counts []string) string {
	var b strings.Builder
	b.WriteString(head)
	for n, step := range steps {
		fmt.Fprintf(&b, "\n%s: <b>%s</b>", step.label, counts[n])
	}
	return b.String()
}

func (i *Interpreter) deleteDiary(ctx context.Context, in Inbound, cmd Command) (string, error) {
	if !i.isAdmin(in) {
		return i.denied(ctx, in), nil
	}
	if cmd.Token == "" {
		i.reply(ctx, in, msgDeleteDiaryUsage)
		return outcomeUsage, nil
	}
	existed, err := i.st.Diary().Delete(ctx, cmd.Token)
	if err != nil {
		i.reply(ctx, in, "⚠️ Could not delete diary note "+code(cmd.Token)+".")
		return outcomeError, err
	}
	if !existed {
		i.reply(ctx, in, "❓ Diary note "+code(cmd.Token)+" not found.")
		return outcomeNotFound, nil
	}
	i.reply(ctx, in, "🗑 Diary note "+code(cmd.Token)+" deleted.")
	return outcomeOK, nil
}

func (i *Interpreter) recordReply(ctx context.Context, in Inbound, cmd Command) (string, error) {
	g, err := i.st.Grievances().SetReply(ctx, cmd.Token, cmd.Text, i.now())
	switch {
	case errors.Is(err, model.ErrNotFound):
		i.reply(ctx, in, "❓ Grievance "+code(cmd.Token)+" not found.")
		return outcomeNotFound, nil
	case err != nil:
		i.reply(ctx, in, "⚠️ Could not record the reply for "+code(cmd.Token)+".")
		return outcomeError, err
	}
	i.reply(ctx, in, fmt.Sprintf("✅ Reply recorded for %s (%s):\n<i>%s</i>",
		code(g.ID), telegram.EscapeHTML(g.Username), telegram.EscapeHTML(telegram.Truncate(*g.Reply, maxEcho))))
	return outcomeOK, nil
}

func (i *Interpreter) unrecognized(ctx context.Context, in Inbound) string {
	if !i.isAdmin(in) {
		return outcomeIgnored
	}
	i.reply(ctx, in, msgHelp)
	return outcomeOK
}

const maxEcho = 3000

func code(token string) string { return "<code>" + telegram.EscapeHTML(token) + "</code>" }

const (
	msgNotAuthorized = "⛔ You are not authorized to run this command."

	msgClearWarning = "⚠️ <b>This permanently deletes every grievance, mood and diary note.</b>\n" +
		"It cannot be undone. Send /confirm_clear to proceed."

	msgDeleteDiaryUsage = "Usage: <code>delete_diary &lt;id&gt;</code>"

	msgHelp = "<b>Commands</b>\n" +
		"<code>reply &lt;id&gt; &lt;text&gt;</code> answer a grievance\n" +
		"<code>id:&lt;id&gt; &lt;text&gt;</code> same as reply\n" +
		"<code>delete_diary &lt;id&gt;</code> delete a diary note\n" +
		"/clear wipe all records (asks for /confirm_clear)"
)
