package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/arunsharma1203/grievance/internal/model"
	"github.com/arunsharma1203/grievance/internal/telegram"
)

// raw user text is cut before escaping so entities are never split
const (
	maxTextRunes    = 3500
	maxCaptionRunes = 800
)

func esc(s string, max int) string { return telegram.EscapeHTML(telegram.Truncate(s, max)) }

// absoluteURL prefixes server-relative links with the public base when one is configured.
func absoluteURL(publicBase, ref string) string {
	if publicBase != "" && strings.HasPrefix(ref, "/") {
		return publicBase + ref
	}
	return ref
}

func mediaLine(publicBase string, m model.Media) string {
	switch m.Kind() {
	case model.MediaLocal:
		return "\n🎧 " + telegram.EscapeHTML(absoluteURL(publicBase, m.AudioURL))
	case model.MediaRemote:
		return "\n🎧 voice attachment <code>" + telegram.EscapeHTML(m.TelegramFileID) + "</code>"
	}
	return ""
}

// who renders a submitter name in bold.
func who(username string) string { return telegram.Bold(esc(username, 100)) }

func grievanceNotice(publicBase string, g *model.Grievance) Notice {
	id := "<code>" + telegram.EscapeHTML(g.ID) + "</code>"
	text := fmt.Sprintf("📝 <b>New grievance</b> from %s\n\n%s%s\n\n🆔 %s\nAnswer with <code>reply %s your text</code>",
		who(g.Username), esc(g.Text, maxTextRunes), mediaLine(publicBase, g.Media), id, telegram.EscapeHTML(g.ID))
	caption := fmt.Sprintf("📝 Grievance from %s\n%s\n🆔 %s",
		who(g.Username), esc(g.Text, maxCaptionRunes), id)
	return Notice{Media: g.Media, Caption: caption, Text: text}
}

func moodNotice(m *model.Mood) Notice {
	return Notice{Text: fmt.Sprintf("%s %s rated their mood <b>%d/10</b>",
		moodEmoji(m.Value), who(m.Username), m.Value)}
}

func moodEmoji(v int) string {
	switch {
	case v <= 2:
		return "😢"
	case v <= 4:
		return "😕"
	case v <= 6:
		return "😐"
	case v <= 8:
		return "🙂"
	default:
		return "😄"
	}
}

func diaryNotice(publicBase string, n *model.DiaryNote) Notice {
	var head strings.Builder
	head.WriteString("📔 <b>New diary note</b>")
	if n.Username != nil && *n.Username != "" {
		head.WriteString(" by " + who(*n.Username))
	}
	if n.Title != nil && *n.Title != "" {
		head.WriteString("\n<i>" + esc(*n.Title, 200) + "</i>")
	}
	id := telegram.EscapeHTML(n.ID)
	text := fmt.Sprintf("%s\n\n%s%s\n\n🆔 <code>%s</code>\nDelete with <code>delete_diary %s</code>",
		head.String(), esc(n.Body, maxTextRunes), mediaLine(publicBase, n.Media), id, id)
	caption := fmt.Sprintf("%s\n%s\n🆔 <code>%s</code>", head.String(), esc(n.Body, maxCaptionRunes), id)
	return Notice{Media: n.Media, Caption: caption, Text: text}
}

func loginNotice(username string, at time.Time) Notice {
	return Notice{Text: fmt.Sprintf("🔔 %s just logged in (%s UTC)",
		who(username), at.UTC().Format("2006-01-02 15:04"))}
}

func uploadNotice(publicBase, url, filename string, size int64) Notice {
	text := fmt.Sprintf("🎙 <b>New audio upload</b> %s (%d KiB)\n%s",
		esc(filename, 200), (size+1023)/1024, telegram.EscapeHTML(absoluteURL(publicBase, url)))
	return Notice{
		Media:   model.NewMedia(url, ""),
		Caption: "🎙 " + esc(filename, 200),
		Text:    text,
	}
}
