package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/arunsharma1203/grievance/internal/model"
)

const (
	MaxUsernameLen  = 100
	MaxTextLen      = 10000
	MaxTitleLen     = 200
	MaxMediaRefLen  = 2048
	MaxReplyLen     = 4000
	usernameField   = "username"
	mediaURLField   = "audio_url"
	mediaTokenField = "telegram_file_id"
)

// NonEmpty rejects values that are empty after trimming.
func NonEmpty(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return model.NewValidationError(field, "is required")
	}
	return nil
}

// MaxLen rejects values longer than limit runes.
func MaxLen(field, v string, limit int) error {
	if utf8.RuneCountInString(v) > limit {
		return model.NewValidationError(field, fmt.Sprintf("exceeds %d characters", limit))
	}
	return nil
}

func optionalMaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	return MaxLen(field, *v, limit)
}

func media(audioURL, fileID string) error {
	if err := MaxLen(mediaURLField, audioURL, MaxMediaRefLen); err != nil {
		return err
	}
	return MaxLen(mediaTokenField, fileID, MaxMediaRefLen)
}

// -------- Request specific helpers ----------

// CreateGrievance requires an author and a body.
func CreateGrievance(username, text, audioURL, fileID string) error {
	if err := NonEmpty(usernameField, username); err != nil {
		return err
	}
	if err := MaxLen(usernameField, username, MaxUsernameLen); err != nil {
		return err
	}
	if err := NonEmpty("text", text); err != nil {
		return err
	}
	if err := MaxLen("text", text, MaxTextLen); err != nil {
		return err
	}
	return media(audioURL, fileID)
}

// Reply requires non-empty reply text.
func Reply(reply string) error {
	if err := NonEmpty("reply", reply); err != nil {
		return err
	}
	return MaxLen("reply", reply, MaxReplyLen)
}

// CreateMood requires an author and a value in range.
func CreateMood(username string, value int) error {
	if err := NonEmpty(usernameField, username); err != nil {
		return err
	}
	if err := MaxLen(usernameField, username, MaxUsernameLen); err != nil {
		return err
	}
	if value < model.MinMoodValue || value > model.MaxMoodValue {
		return model.NewValidationError("value", fmt.Sprintf("must be between %d and %d", model.MinMoodValue, model.MaxMoodValue))
	}
	return nil
}

// CreateDiary requires a body that is non-empty after trimming.
func CreateDiary(username, title *string, body, audioURL, fileID string) error {
	if err := NonEmpty("body", body); err != nil {
		return err
	}
	if err := MaxLen("body", body, MaxTextLen); err != nil {
		return err
	}
	if err := optionalMaxLen(usernameField, username, MaxUsernameLen); err != nil {
		return err
	}
	if err := optionalMaxLen("title", title, MaxTitleLen); err != nil {
		return err
	}
	return media(audioURL, fileID)
}

// MoodValue decodes a JSON mood value. Integers and numeric strings are
// accepted; fractions, booleans, null and anything else are rejected.
func MoodValue(raw json.RawMessage) (int, error) {
	invalid := model.NewValidationError("value", fmt.Sprintf("must be an integer between %d and %d", model.MinMoodValue, model.MaxMoodValue))
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, model.NewValidationError("value", "is required")
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, invalid
		}
		s = strings.TrimSpace(s)
	} else {
		s = string(raw)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, invalid
	}
	if f < model.MinMoodValue || f > model.MaxMoodValue {
		return 0, invalid
	}
	return int(f), nil
}

// DiaryLimit parses the ?limit= query value, defaulting on absence or garbage, then clamps.
func DiaryLimit(q string) int {
	q = strings.TrimSpace(q)
	if q == "" {
		return model.DefaultDiaryLimit
	}
	n, err := strconv.Atoi(q)
	if err != nil {
		return model.DefaultDiaryLimit
	}
	return model.ClampDiaryLimit(n)
}
