package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arunsharma1203/grievance/internal/model"
	"github.com/arunsharma1203/grievance/internal/store"
)

// New constructs a store backed directly by database/sql.
func New(db *sql.DB, d Dialect) store.Store { return &sqlStore{db: db, d: d} }

type sqlStore struct {
	db *sql.DB
	d  Dialect
}

func (s *sqlStore) Grievances() store.Grievances { return &grievances{db: s.db, d: s.d} }
func (s *sqlStore) Moods() store.Moods           { return &moods{db: s.db, d: s.d} }
func (s *sqlStore) Diary() store.DiaryNotes      { return &diary{db: s.db, d: s.d} }

// HealthPing implements health.HealthPinger.
func (s *sqlStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *sqlStore) Close() error { return s.db.Close() }

// timestamps are kept at microsecond precision so every backend round-trips them unchanged
func stamp(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Truncate(time.Microsecond)
}

func notFound(kind string, id any, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", kind, id, model.ErrNotFound)
	}
	return err
}

func conflict(d Dialect, kind, id string, err error) error {
	if d.IsConflict != nil && d.IsConflict(err) {
		return fmt.Errorf("%s %s already exists: %w", kind, id, model.ErrConflict)
	}
	return err
}

func deleteAll(ctx context.Context, db *sql.DB, table string) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- Grievances ---
type grievances struct {
	db *sql.DB
	d  Dialect
}

const grievanceColumns = `id, username, text, reply, audio_url, telegram_file_id, created_at, replied_at`

func scanGrievance(row interface{ Scan(...any) error }) (*model.Grievance, error) {
	var g model.Grievance
	var reply, audio, fileID sql.NullString
	var created, replied timeCol
	if err := row.Scan(&g.ID, &g.Username, &g.Text, &reply, &audio, &fileID, &created, &replied); err != nil {
		return nil, err
	}
	g.Reply = stringPtr(reply)
	g.AudioURL = audio.String
	g.TelegramFileID = fileID.String
	g.CreatedAt = created.t
	g.RepliedAt = replied.ptr()
	return &g, nil
}

func (r *grievances) Create(ctx context.Context, g *model.Grievance) (*model.Grievance, error) {
	out := *g
	out.CreatedAt = stamp(g.CreatedAt)
	if out.Reply == nil || out.RepliedAt == nil {
		out.Reply, out.RepliedAt = nil, nil
	}
	_, err := r.db.ExecContext(ctx, r.d.Rebind(`
        INSERT INTO grievances (id, username, text, reply, audio_url, telegram_file_id, created_at, replied_at)
        VALUES (?,?,?,?,?,?,?,?)
    `), out.ID, out.Username, out.Text, nullStringPtr(out.Reply), nullString(out.AudioURL), nullString(out.TelegramFileID),
		r.d.encodeTime(out.CreatedAt), r.d.encodeTimePtr(out.RepliedAt))
	if err != nil {
		return nil, conflict(r.d, "grievance", out.ID, err)
	}
	return &out, nil
}

func (r *grievances) Get(ctx context.Context, id string) (*model.Grievance, error) {
	row := r.db.QueryRowContext(ctx, r.d.Rebind(`SELECT `+grievanceColumns+` FROM grievances WHERE id=?`), id)
	g, err := scanGrievance(row)
	if err != nil {
		return nil, notFound("grievance", id, err)
	}
	return g, nil
}

func (r *grievances) SetReply(ctx context.Context, id, reply string, repliedAt time.Time) (*model.Grievance, error) {
	row := r.db.QueryRowContext(ctx, r.d.Rebind(`
        UPDATE grievances SET reply=?, replied_at=? WHERE id=?
        RETURNING `+grievanceColumns), reply, r.d.encodeTime(stamp(repliedAt)), id)
	g, err := scanGrievance(row)
	if err != nil {
		return nil, notFound("grievance", id, err)
	}
	return g, nil
}

func (r *grievances) List(ctx context.Context) ([]*model.Grievance, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+grievanceColumns+` FROM grievances ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []*model.Grievance{}
	for rows.Next() {
		g, err := scanGrievance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *grievances) DeleteAll(ctx context.Context) (int64, error) {
	return deleteAll(ctx, r.db, "grievances")
}

// --- Moods ---
type moods struct {
	db *sql.DB
	d  Dialect
}

const moodColumns = `id, username, value, created_at`

func scanMood(row interface{ Scan(...any) error }) (*model.Mood, error) {
	var m model.Mood
	var created timeCol
	if err := row.Scan(&m.ID, &m.Username, &m.Value, &created); err != nil {
		return nil, err
	}
	m.CreatedAt = created.t
	return &m, nil
}

func (r *moods) Create(ctx context.Context, m *model.Mood) (*model.Mood, error) {
	out := *m
	out.CreatedAt = stamp(m.CreatedAt)
	row := r.db.QueryRowContext(ctx, r.d.Rebind(`
        INSERT INTO moods (username, value, created_at) VALUES (?,?,?)
        RETURNING id
    `), out.Username, out.Value, r.d.encodeTime(out.CreatedAt))
	if err := row.Scan(&out.ID); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *moods) Get(ctx context.Context, id int64) (*model.Mood, error) {
	row := r.db.QueryRowContext(ctx, r.d.Rebind(`SELECT `+moodColumns+` FROM moods WHERE id=?`), id)
	m, err := scanMood(row)
	if err != nil {
		return nil, notFound("mood", id, err)
	}
	return m, nil
}

func (r *moods) Latest(ctx context.Context, username string) (*model.Mood, error) {
	query := `SELECT ` + moodColumns + ` FROM moods`
	var args []any
	if username != "" {
		query += ` WHERE username=?`
		args = append(args, username)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT 1`
	m, err := scanMood(r.db.QueryRowContext(ctx, r.d.Rebind(query), args...))
	if err != nil {
		return nil, notFound("mood for", username, err)
	}
	return m, nil
}

func (r *moods) List(ctx context.Context, limit int) ([]*model.Mood, error) {
	query := `SELECT ` + moodColumns + ` FROM moods ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []*model.Mood{}
	for rows.Next() {
		m, err := scanMood(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *moods) DeleteAll(ctx context.Context) (int64, error) {
	return deleteAll(ctx, r.db, "moods")
}

// --- Diary ---
type diary struct {
	db *sql.DB
	d  Dialect
}

const diaryColumns = `id, username, title, body, audio_url, telegram_file_id, created_at`

func scanDiary(row interface{ Scan(...any) error }) (*model.DiaryNote, error) {
	var n model.DiaryNote
	var username, title, audio, fileID sql.NullString
	var created timeCol
	if err := row.Scan(&n.ID, &username, &title, &n.Body, &audio, &fileID, &created); err != nil {
		return nil, err
	}
	n.Username = stringPtr(username)
	n.Title = stringPtr(title)
	n.AudioURL = audio.String
	n.TelegramFileID = fileID.String
	n.CreatedAt = created.t
	return &n, nil
}

func (r *diary) Create(ctx context.Context, n *model.DiaryNote) (*model.DiaryNote, error) {
	out := *n
	out.CreatedAt = stamp(n.CreatedAt)
	_, err := r.db.ExecContext(ctx, r.d.Rebind(`
        INSERT INTO diary_notes (id, username, title, body, audio_url, telegram_file_id, created_at)
        VALUES (?,?,?,?,?,?,?)
    `), out.ID, nullStringPtr(out.Username), nullStringPtr(out.Title), out.Body, nullString(out.AudioURL),
		nullString(out.TelegramFileID), r.d.encodeTime(out.CreatedAt))
	if err != nil {
		return nil, conflict(r.d, "diary note", out.ID, err)
	}
	return &out, nil
}

func (r *diary) Get(ctx context.Context, id string) (*model.DiaryNote, error) {
	row := r.db.QueryRowContext(ctx, r.d.Rebind(`SELECT `+diaryColumns+` FROM diary_notes WHERE id=?`), id)
	n, err := scanDiary(row)
	if err != nil {
		return nil, notFound("diary note", id, err)
	}
	return n, nil
}

func (r *diary) List(ctx context.Context, limit int) ([]*model.DiaryNote, error) {
	query := fmt.Sprintf(`SELECT `+diaryColumns+` FROM diary_notes ORDER BY created_at DESC, id DESC LIMIT %d`,
		model.ClampDiaryLimit(limit))
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []*model.DiaryNote{}
	for rows.Next() {
		n, err := scanDiary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *diary) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.d.Rebind(`DELETE FROM diary_notes WHERE id=?`), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *diary) DeleteAll(ctx context.Context) (int64, error) {
	return deleteAll(ctx, r.db, "diary_notes")
}
