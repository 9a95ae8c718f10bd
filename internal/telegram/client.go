// Package telegram is the notification gateway: a small Bot API client that
// broadcasts records, relays media and reads the operator's commands.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/arunsharma1203/grievance/internal/metrics"
)

// ErrNotConfigured is reported by every call when no bot token is set.
var ErrNotConfigured = errors.New("telegram not configured")

// Options configures a Client.
type Options struct {
	Token         string
	ChatID        string
	APIURL        string
	Timeout       time.Duration
	RatePerSecond float64
	Log           zerolog.Logger
}

// Client talks to the Telegram Bot API.
type Client struct {
	http    *resty.Client
	token   string
	chatID  string
	apiURL  string
	timeout time.Duration
	limiter *rate.Limiter
	log     zerolog.Logger
}

// New creates a Client. An empty token yields a disabled client.
func New(opts Options) *Client {
	if opts.APIURL == "" {
		opts.APIURL = "https://api.telegram.org"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	apiURL := strings.TrimRight(opts.APIURL, "/")

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RatePerSecond > 0 {
		burst := int(opts.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	// per-call contexts carry the tight bounds; the client timeout is the outer ceiling for uploads
	c := resty.New().
		SetBaseURL(apiURL + "/bot" + opts.Token).
		SetTimeout(uploadFactor * opts.Timeout)

	return &Client{
		http:    c,
		token:   opts.Token,
		chatID:  opts.ChatID,
		apiURL:  apiURL,
		timeout: opts.Timeout,
		limiter: limiter,
		log:     opts.Log.With().Str("component", "telegram").Logger(),
	}
}

const uploadFactor = 4

// Enabled reports whether the client has a bot token.
func (c *Client) Enabled() bool { return c.token != "" }

// BroadcastChat is the default destination for notifications.
func (c *Client) BroadcastChat() string { return c.chatID }

// FileURL builds the download URL for a getFile path.
func (c *Client) FileURL(filePath string) string {
	return fmt.Sprintf("%s/file/bot%s/%s", c.apiURL, c.token, strings.TrimLeft(filePath, "/"))
}

type upload struct {
	field string
	path  string
}

func (c *Client) disabled(method string) Result {
	metrics.TelegramRequests.WithLabelValues(method, metrics.ResultDisabled).Inc()
	return Result{Method: method, Description: ErrNotConfigured.Error()}
}

// do performs one Bot API call under bound, waiting on the rate limiter first.
func (c *Client) do(ctx context.Context, method string, bound time.Duration, form map[string]string, file *upload) Result {
	if !c.Enabled() {
		return c.disabled(method)
	}

	ctx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()
	start := time.Now()
	defer func() { metrics.TelegramLatency.WithLabelValues(method).Observe(time.Since(start).Seconds()) }()

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.TelegramRequests.WithLabelValues(method, metrics.ResultError).Inc()
		return Result{Method: method, Description: fmt.Sprintf("rate limiter: %v", err)}
	}

	req := c.http.R().SetContext(ctx).SetFormData(form)
	if file != nil {
		req.SetFile(file.field, file.path)
	}
	resp, err := req.Post("/" + method)
	if err != nil {
		metrics.TelegramRequests.WithLabelValues(method, metrics.ResultError).Inc()
		// the transport error embeds the request URL, which carries the token
		return Result{Method: method, Description: c.redact(err.Error())}
	}

	var ar apiResponse
	if err := json.Unmarshal(resp.Body(), &ar); err != nil {
		metrics.TelegramRequests.WithLabelValues(method, metrics.ResultError).Inc()
		return Result{Method: method, ErrorCode: resp.StatusCode(),
			Description: fmt.Sprintf("decode response (status %d): %v", resp.StatusCode(), err)}
	}
	out := Result{OK: ar.OK, Method: method, Description: ar.Description, ErrorCode: ar.ErrorCode, Raw: ar.Result}
	if out.OK {
		metrics.TelegramRequests.WithLabelValues(method, metrics.ResultOK).Inc()
	} else {
		metrics.TelegramRequests.WithLabelValues(method, metrics.ResultError).Inc()
	}
	return out
}

// send issues a message-producing call. A markup rejection is retried once without parse_mode.
func (c *Client) send(ctx context.Context, method string, form map[string]string, file *upload, markup bool, bound time.Duration) Result {
	attempt := func(withMarkup bool) Result {
		fields := make(map[string]string, len(form)+1)
		for k, v := range form {
			fields[k] = v
		}
		if withMarkup {
			fields["parse_mode"] = "HTML"
		}
		return c.do(ctx, method, bound, fields, file)
	}

	res := attempt(markup)
	if markup && !res.OK && IsMarkupError(res.Description) {
		c.log.Warn().Str("method", method).Str("description", res.Description).Msg("markup rejected, retrying as plain text")
		res = attempt(false)
		res.Fallback = true
		metrics.TelegramRequests.WithLabelValues(method, metrics.ResultFallback).Inc()
	}
	if !res.OK {
		c.log.Warn().Str("method", method).Int("error_code", res.ErrorCode).Str("description", res.Description).Msg("telegram call failed")
	}
	return res
}

// SendTo sends text to chatID. markup selects HTML parse mode.
func (c *Client) SendTo(ctx context.Context, chatID, text string, markup bool) Result {
	if !c.Enabled() {
		return c.disabled("sendMessage")
	}
	if chatID == "" {
		return Result{Method: "sendMessage", Description: "destination chat id is empty"}
	}
	return c.send(ctx, "sendMessage", map[string]string{
		"chat_id":                  chatID,
		"text":                     text,
		"disable_web_page_preview": "true",
	}, nil, markup, c.timeout)
}

// Broadcast sends text to the configured broadcast chat.
func (c *Client) Broadcast(ctx context.Context, text string, markup bool) Result {
	return c.SendTo(ctx, c.chatID, text, markup)
}

// SendMediaByToken relays a file the channel already holds, as voice first and audio second.
func (c *Client) SendMediaByToken(ctx context.Context, chatID, fileID, caption string) MediaResult {
	if !c.Enabled() {
		return MediaResult{Result: c.disabled("sendVoice")}
	}
	if chatID == "" {
		chatID = c.chatID
	}
	if chatID == "" {
		return MediaResult{Result: Result{Method: "sendVoice", Description: "destination chat id is empty"}}
	}
	form := func(field string) map[string]string {
		f := map[string]string{"chat_id": chatID, field: fileID}
		if caption != "" {
			f["caption"] = caption
		}
		return f
	}

	voice := c.send(ctx, "sendVoice", form(KindVoice), nil, caption != "", c.timeout)
	if voice.OK {
		return MediaResult{Result: voice, Kind: KindVoice}
	}
	audio := c.send(ctx, "sendAudio", form(KindAudio), nil, caption != "", c.timeout)
	if audio.OK {
		return MediaResult{Result: audio, Kind: KindAudio}
	}
	audio.Description = fmt.Sprintf("sendVoice: %s; sendAudio: %s", voice.Description, audio.Description)
	return MediaResult{Result: audio}
}

// voiceExts are narrow-band formats Telegram renders as voice notes.
var voiceExts = map[string]bool{".ogg": true, ".oga": true, ".opus": true}

// KindForPath picks voice or audio delivery from the file extension.
func KindForPath(path string) string {
	if voiceExts[strings.ToLower(filepath.Ext(path))] {
		return KindVoice
	}
	return KindAudio
}

// UploadLocalFile pushes a local blob to the broadcast chat and resolves its download URL.
func (c *Client) UploadLocalFile(ctx context.Context, path, caption string) UploadResult {
	kind := KindForPath(path)
	method := "sendAudio"
	if kind == KindVoice {
		method = "sendVoice"
	}
	if !c.Enabled() {
		return UploadResult{Result: c.disabled(method), Kind: kind}
	}
	if c.chatID == "" {
		return UploadResult{Result: Result{Method: method, Description: "broadcast chat id is empty"}, Kind: kind}
	}
	if _, err := os.Stat(path); err != nil {
		return UploadResult{Result: Result{Method: method, Description: fmt.Sprintf("local file: %v", err)}, Kind: kind}
	}

	form := map[string]string{"chat_id": c.chatID}
	if caption != "" {
		form["caption"] = caption
	}
	res := c.send(ctx, method, form, &upload{field: kind, path: path}, caption != "", uploadFactor*c.timeout)
	out := UploadResult{Result: res, Kind: kind}
	if !res.OK {
		return out
	}

	var msg Message
	if err := json.Unmarshal(res.Raw, &msg); err == nil {
		switch {
		case msg.Voice != nil:
			out.FileID = msg.Voice.FileID
		case msg.Audio != nil:
			out.FileID = msg.Audio.FileID
		}
	}
	if out.FileID != "" {
		if u, ok := c.ResolveFileURL(ctx, out.FileID); ok {
			out.FileURL = u
		}
	}
	return out
}

// ResolveFileURL looks up a fetchable URL for a file token.
func (c *Client) ResolveFileURL(ctx context.Context, fileID string) (string, bool) {
	if fileID == "" {
		return "", false
	}
	res := c.do(ctx, "getFile", c.timeout, map[string]string{"file_id": fileID}, nil)
	if !res.OK {
		return "", false
	}
	var f File
	if err := json.Unmarshal(res.Raw, &f); err != nil || f.FilePath == "" {
		return "", false
	}
	return c.FileURL(f.FilePath), true
}

// GetUpdates long-polls for updates with id >= offset. Unlike the send calls it
// reports failure as an error so the caller can abort its cycle.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	bound := time.Duration(timeoutSeconds)*time.Second + c.timeout
	res := c.do(ctx, "getUpdates", bound, map[string]string{
		"offset":          strconv.FormatInt(offset, 10),
		"timeout":         strconv.Itoa(timeoutSeconds),
		"allowed_updates": `["message","channel_post"]`,
	}, nil)
	if !res.OK {
		return nil, fmt.Errorf("getUpdates: %s", res.Description)
	}
	var updates []Update
	if err := json.Unmarshal(res.Raw, &updates); err != nil {
		return nil, fmt.Errorf("getUpdates: decode: %w", err)
	}
	return updates, nil
}

// GetMe returns the bot identity.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	res := c.do(ctx, "getMe", c.timeout, nil, nil)
	if !res.OK {
		return nil, fmt.Errorf("getMe: %s", res.Description)
	}
	var u User
	if err := json.Unmarshal(res.Raw, &u); err != nil {
		return nil, fmt.Errorf("getMe: decode: %w", err)
	}
	return &u, nil
}

// HealthPing implements health.HealthPinger.
func (c *Client) HealthPing(ctx context.Context) error {
	_, err := c.GetMe(ctx)
	return err
}

func (c *Client) redact(s string) string {
	if c.token == "" {
		return s
	}
	return strings.ReplaceAll(s, c.token, "<token>")
}
