package telegram

import "encoding/json"

// Update is one entry returned by getUpdates.
type Update struct {
	UpdateID    int64    `json:"update_id"`
	Message     *Message `json:"message,omitempty"`
	ChannelPost *Message `json:"channel_post,omitempty"`
}

// Msg returns the message carried by the update, if any.
func (u Update) Msg() *Message {
	if u.Message != nil {
		return u.Message
	}
	return u.ChannelPost
}

type Message struct {
	MessageID int64    `json:"message_id"`
	From      *User    `json:"from,omitempty"`
	Chat      Chat     `json:"chat"`
	Date      int64    `json:"date"`
	Text      string   `json:"text,omitempty"`
	Caption   string   `json:"caption,omitempty"`
	Voice     *FileRef `json:"voice,omitempty"`
	Audio     *FileRef `json:"audio,omitempty"`
}

type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// DisplayName prefers @username, then the first/last name.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}

// FileRef is the voice/audio attachment of a message.
type FileRef struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id,omitempty"`
	Duration     int    `json:"duration,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// File is the getFile result.
type File struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size,omitempty"`
	FilePath string `json:"file_path,omitempty"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

// Result reports the outcome of a single gateway call. Failures are data, not errors.
type Result struct {
	OK          bool            `json:"ok"`
	Method      string          `json:"method,omitempty"`
	Fallback    bool            `json:"fallback,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// Media delivery kinds.
const (
	KindVoice = "voice"
	KindAudio = "audio"
)

// MediaResult is the outcome of SendMediaByToken.
type MediaResult struct {
	Result
	Kind string `json:"kind,omitempty"`
}

// UploadResult is the outcome of UploadLocalFile.
type UploadResult struct {
	Result
	Kind    string `json:"kind,omitempty"`
	FileID  string `json:"file_id,omitempty"`
	FileURL string `json:"file_url,omitempty"`
}
