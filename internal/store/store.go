package store

import (
	"context"
	"time"

	"github.com/arunsharma1203/grievance/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Grievances() Grievances
	Moods() Moods
	Diary() DiaryNotes

	HealthPing(ctx context.Context) error
	Close() error
}

// Grievances are listed oldest-first for a conversational view.
type Grievances interface {
	Create(ctx context.Context, g *model.Grievance) (*model.Grievance, error)
	Get(ctx context.Context, id string) (*model.Grievance, error)
	// SetReply writes reply and repliedAt together in a single keyed update.
	SetReply(ctx context.Context, id, reply string, repliedAt time.Time) (*model.Grievance, error)
	List(ctx context.Context) ([]*model.Grievance, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// Moods are listed newest-first. The store assigns Mood.ID.
type Moods interface {
	Create(ctx context.Context, m *model.Mood) (*model.Mood, error)
	Get(ctx context.Context, id int64) (*model.Mood, error)
	// Latest returns the newest mood, restricted to username when non-empty.
	Latest(ctx context.Context, username string) (*model.Mood, error)
	List(ctx context.Context, limit int) ([]*model.Mood, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// DiaryNotes are listed newest-first, bounded by a limit clamped to [1,100].
type DiaryNotes interface {
	Create(ctx context.Context, n *model.DiaryNote) (*model.DiaryNote, error)
	Get(ctx context.Context, id string) (*model.DiaryNote, error)
	List(ctx context.Context, limit int) ([]*model.DiaryNote, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
}
