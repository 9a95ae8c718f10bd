package model

import "time"

// MediaKind classifies the attachment carried by a record.
type MediaKind int

const (
	MediaNone MediaKind = iota
	// MediaLocal points at a blob previously uploaded to this server.
	MediaLocal
	// MediaRemote is a file token issued by the messaging channel.
	MediaRemote
)

func (k MediaKind) String() string {
	switch k {
	case MediaLocal:
		return "local"
	case MediaRemote:
		return "remote"
	default:
		return "none"
	}
}

// Media is an optional attachment reference. At most one of the two fields is set.
type Media struct {
	AudioURL       string `json:"audio_url,omitempty"`
	TelegramFileID string `json:"telegram_file_id,omitempty"`
}

// NewMedia normalises a pair of optional references into a Media value.
// When both are present the remote token wins; the file already lives on the channel.
func NewMedia(audioURL, telegramFileID string) Media {
	switch {
	case telegramFileID != "":
		return Media{TelegramFileID: telegramFileID}
	case audioURL != "":
		return Media{AudioURL: audioURL}
	default:
		return Media{}
	}
}

// Kind reports which reference is populated.
func (m Media) Kind() MediaKind {
	switch {
	case m.TelegramFileID != "":
		return MediaRemote
	case m.AudioURL != "":
		return MediaLocal
	default:
		return MediaNone
	}
}

// Grievance is a user-submitted complaint, optionally answered by the operator.
type Grievance struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Text     string  `json:"text"`
	Reply    *string `json:"reply"`
	Media
	CreatedAt time.Time  `json:"created_at"`
	RepliedAt *time.Time `json:"replied_at"`
}

// Mood is a single well-being rating. Immutable after creation.
type Mood struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Mood value bounds (inclusive).
const (
	MinMoodValue = 0
	MaxMoodValue = 10
)

// DiaryNote is a free-form journal entry.
type DiaryNote struct {
	ID       string  `json:"id"`
	Username *string `json:"username"`
	Title    *string `json:"title"`
	Body     string  `json:"body"`
	Media
	CreatedAt time.Time `json:"created_at"`
}

// Diary listing bounds.
const (
	DefaultDiaryLimit = 50
	MaxDiaryLimit     = 100
)

// ClampDiaryLimit bounds a caller supplied limit to [1, MaxDiaryLimit].
func ClampDiaryLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxDiaryLimit {
		return MaxDiaryLimit
	}
	return limit
}
