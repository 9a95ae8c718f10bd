package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arunsharma1203/grievance/internal/model"
	"github.com/arunsharma1203/grievance/internal/telegram"
)

// Gateway is the outbound half of the chat channel.
type Gateway interface {
	Broadcast(ctx context.Context, text string, markup bool) telegram.Result
	SendMediaByToken(ctx context.Context, chatID, fileID, caption string) telegram.MediaResult
	UploadLocalFile(ctx context.Context, path, caption string) telegram.UploadResult
	ResolveFileURL(ctx context.Context, fileID string) (string, bool)
}

// LocalFiles maps a served upload URL back to a file on disk.
type LocalFiles interface {
	Resolve(ref, publicBase string) (string, bool)
}

// Strategy is how a notification reaches the channel.
type Strategy string

const (
	StrategyText        Strategy = "text"
	StrategyRemoteToken Strategy = "remote_token"
	StrategyUploadLocal Strategy = "upload_local"
)

// MediaState is the availability of a record's attachment at delivery time.
type MediaState string

const (
	MediaAbsent       MediaState = "none"
	MediaRemoteToken  MediaState = "remote"
	MediaLocalPresent MediaState = "local_present"
	MediaLocalMissing MediaState = "local_missing"
)

// decisionTable picks the delivery strategy for each media state. Any media
// strategy that fails falls back to the text summary once.
var decisionTable = map[MediaState]Strategy{
	MediaAbsent:       StrategyText,
	MediaRemoteToken:  StrategyRemoteToken,
	MediaLocalPresent: StrategyUploadLocal,
	MediaLocalMissing: StrategyText,
}

// Delivery is the single outcome of relaying one submission.
type Delivery struct {
	Strategy Strategy `json:"strategy"`
	OK       bool     `json:"ok"`
	Kind     string   `json:"kind,omitempty"`
	// Fallback is set when a media strategy failed and the text summary was sent instead.
	Fallback bool `json:"fallback,omitempty"`
	// PlainText is set when the channel rejected the markup and the message went out unformatted.
	PlainText bool   `json:"plain_text,omitempty"`
	FileID    string `json:"file_id,omitempty"`
	FileURL   string `json:"file_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Notice is what to relay: an attachment, its caption and a full text summary.
type Notice struct {
	Media   model.Media
	Caption string // HTML, short enough for a media caption
	Text    string // HTML summary used for text delivery and as fallback
}

// Relay evaluates the decision table and performs the delivery.
type Relay struct {
	gw         Gateway
	files      LocalFiles
	publicBase string
	log        zerolog.Logger
}

func NewRelay(gw Gateway, files LocalFiles, publicBase string, log zerolog.Logger) *Relay {
	return &Relay{gw: gw, files: files, publicBase: publicBase, log: log.With().Str("component", "relay").Logger()}
}

// Classify returns the media state and, for present local files, their path.
func (r *Relay) Classify(m model.Media) (MediaState, string) {
	switch m.Kind() {
	case model.MediaRemote:
		return MediaRemoteToken, ""
	case model.MediaLocal:
		if r.files != nil {
			if p, ok := r.files.Resolve(m.AudioURL, r.publicBase); ok {
				return MediaLocalPresent, p
			}
		}
		return MediaLocalMissing, ""
	default:
		return MediaAbsent, ""
	}
}

// Deliver relays n. It never fails; the outcome is reported in the Delivery.
func (r *Relay) Deliver(ctx context.Context, n Notice) Delivery {
	state, path := r.Classify(n.Media)
	d := Delivery{Strategy: decisionTable[state]}

	var mediaErr string
	switch d.Strategy {
	case StrategyRemoteToken:
		res := r.gw.SendMediaByToken(ctx, "", n.Media.TelegramFileID, n.Caption)
		if res.OK {
			d.OK, d.Kind, d.PlainText, d.FileID = true, res.Kind, res.Fallback, n.Media.TelegramFileID
			if u, ok := r.gw.ResolveFileURL(ctx, n.Media.TelegramFileID); ok {
				d.FileURL = u
			}
			return d
		}
		mediaErr = res.Description
	case StrategyUploadLocal:
		res := r.gw.UploadLocalFile(ctx, path, n.Caption)
		if res.OK {
			d.OK, d.Kind, d.PlainText, d.FileID, d.FileURL = true, res.Kind, res.Fallback, res.FileID, res.FileURL
			return d
		}
		mediaErr = res.Description
	}

	if mediaErr != "" {
		d.Fallback = true
		r.log.Warn().Str("strategy", string(d.Strategy)).Str("description", mediaErr).Msg("media delivery failed, sending text summary")
	} else if state == MediaLocalMissing {
		r.log.Warn().Str("audio_url", n.Media.AudioURL).Msg("attached upload not found, sending text summary")
	}

	res := r.gw.Broadcast(ctx, n.Text, true)
	d.OK, d.PlainText = res.OK, res.Fallback
	if !res.OK {
		d.Error = joinErrors(mediaErr, res.Description)
	}
	return d
}

func joinErrors(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "; ")
}
