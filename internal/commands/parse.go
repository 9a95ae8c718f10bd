// Package commands interprets the operator's chat messages and applies them to the record store.
package commands

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/arunsharma1203/grievance/internal/telegram"
)

// Kind classifies an inbound message.
type Kind string

const (
	KindClearRequest Kind = "clear_request"
	KindClearConfirm Kind = "clear_confirm"
	KindDeleteDiary  Kind = "delete_diary"
	KindRecordReply  Kind = "record_reply"
	KindUnrecognized Kind = "unrecognized"
)

// Command is the parsed form of one inbound message.
type Command struct {
	Kind  Kind
	Token string // record identity for DeleteDiary / RecordReply
	Text  string // reply body for RecordReply
	Raw   string
}

// Inbound is a message received from the chat channel.
type Inbound struct {
	UpdateID   int64
	ChatID     string
	SenderName string
	Text       string
	Caption    string
}

// Body is the text the command is read from: the message text, or its caption when text is empty.
func (in Inbound) Body() string {
	if strings.TrimSpace(in.Text) != "" {
		return in.Text
	}
	return in.Caption
}

// FromUpdate extracts an Inbound from a channel update. ok is false when the update has no message.
func FromUpdate(u telegram.Update) (Inbound, bool) {
	m := u.Msg()
	if m == nil {
		return Inbound{}, false
	}
	name := m.From.DisplayName()
	if name == "" {
		name = m.Chat.Title
	}
	return Inbound{
		UpdateID:   u.UpdateID,
		ChatID:     strconv.FormatInt(m.Chat.ID, 10),
		SenderName: name,
		Text:       m.Text,
		Caption:    m.Caption,
	}, true
}

var (
	deleteDiaryRe = regexp.MustCompile(`(?is)^/?delete_diary(?:@\S+)?(?:\s+(\S+))?`)
	// reply <token> <text> | id:<token> <text> | id#<token> <text> | id <token> <text>
	replyRe = regexp.MustCompile(`(?is)^(?:/?reply\s+|id[:#]\s*|id\s+)(\S+)\s+(.+)$`)
)

// Parse classifies text. Matching is case-insensitive and checked in priority order.
func Parse(text string) Command {
	raw := strings.TrimSpace(text)
	lower := strings.ToLower(raw)
	cmd := Command{Kind: KindUnrecognized, Raw: text}

	switch {
	case strings.HasPrefix(lower, "/clear"):
		cmd.Kind = KindClearRequest
	case strings.HasPrefix(lower, "/confirm_clear"):
		cmd.Kind = KindClearConfirm
	default:
		if m := deleteDiaryRe.FindStringSubmatch(raw); m != nil {
			cmd.Kind = KindDeleteDiary
			cmd.Token = m[1]
		} else if m := replyRe.FindStringSubmatch(raw); m != nil {
			if reply := strings.TrimSpace(m[2]); reply != "" {
				cmd.Kind = KindRecordReply
				cmd.Token = m[1]
				cmd.Text = reply
			}
		}
	}
	return cmd
}
