package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/deva-ai/deva/internal/model"
	"github.com/deva-ai/deva/internal/store"
)

// New opens (or creates) a SQLite database file and returns a store.Store.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB wires a store around an existing connection (used by tests).
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Memories() store.Memories   { return &memories{db: s.db} }
func (s *sqliteStore) Reminders() store.Reminders { return &reminders{db: s.db} }
func (s *sqliteStore) Turns() store.Turns         { return &turns{db: s.db} }

func (s *sqliteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *sqliteStore) Close() error                   { return s.db.Close() }

// EnsureSchema creates the three tables if they do not exist.
// The seq columns make insertion order explicit so recency ordering does not
// depend on timestamp resolution.
func (s *sqliteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memories (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            memory_id TEXT NOT NULL UNIQUE,
            memory_type TEXT NOT NULL,
            title TEXT NOT NULL,
            content TEXT NOT NULL,
            tags TEXT NOT NULL DEFAULT '[]',
            importance INTEGER NOT NULL DEFAULT 1,
            event_time TIMESTAMP,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS reminders (
            reminder_id TEXT PRIMARY KEY,
            task TEXT NOT NULL,
            remind_at TIMESTAMP NOT NULL,
            repeat_interval TEXT,
            completed BOOLEAN NOT NULL DEFAULT 0,
            created_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS conversation_turns (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            role TEXT NOT NULL,
            message TEXT NOT NULL,
            created_at TIMESTAMP NOT NULL
        );`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// --- Memories ---

type memories struct{ db *sql.DB }

func (m *memories) Create(ctx context.Context, rec *model.MemoryRecord) (*model.MemoryRecord, error) {
	out := *rec
	out.ID = uuid.New().String()
	if out.Type == "" {
		out.Type = model.DefaultMemoryType
	}
	if out.Importance == 0 {
		out.Importance = 1
	}
	now := time.Now().UTC()
	out.CreatedAt = now
	out.UpdatedAt = now

	tagsJSON, err := marshalTags(out.Tags)
	if err != nil {
		return nil, err
	}
	_, err = m.db.ExecContext(ctx, `
        INSERT INTO memories (memory_id, memory_type, title, content, tags, importance, event_time, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?)`,
		out.ID, out.Type, out.Title, out.Content, tagsJSON, out.Importance, nullableTime(out.EventTime), now, now)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *memories) Recall(ctx context.Context, limit int) ([]*model.MemoryRecord, error) {
	rows, err := m.db.QueryContext(ctx, `
        SELECT memory_id, memory_type, title, content, tags, importance, event_time, created_at, updated_at
        FROM memories ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return collectMemories(rows)
}

func (m *memories) List(ctx context.Context) ([]*model.MemoryRecord, error) {
	rows, err := m.db.QueryContext(ctx, `
        SELECT memory_id, memory_type, title, content, tags, importance, event_time, created_at, updated_at
        FROM memories ORDER BY seq DESC`)
	if err != nil {
		return nil, err
	}
	return collectMemories(rows)
}

func (m *memories) Get(ctx context.Context, id string) (*model.MemoryRecord, error) {
	row := m.db.QueryRowContext(ctx, `
        SELECT memory_id, memory_type, title, content, tags, importance, event_time, created_at, updated_at
        FROM memories WHERE memory_id = ?`, id)
	rec, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	return rec, err
}

func (m *memories) Update(ctx context.Context, id string, req model.UpdateMemoryRequest) (*model.MemoryRecord, error) {
	cur, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		cur.Title = *req.Title
	}
	if req.Content != nil {
		cur.Content = *req.Content
	}
	if req.Tags != nil {
		cur.Tags = req.Tags
	}
	if req.Importance != nil {
		cur.Importance = model.ClampImportance(*req.Importance)
	}
	if req.EventTime != nil {
		cur.EventTime = req.EventTime
	}
	now := time.Now().UTC()
	if !now.After(cur.UpdatedAt) {
		now = cur.UpdatedAt.Add(time.Microsecond)
	}
	cur.UpdatedAt = now

	tagsJSON, err := marshalTags(cur.Tags)
	if err != nil {
		return nil, err
	}
	res, err := m.db.ExecContext(ctx, `
        UPDATE memories SET title=?, content=?, tags=?, importance=?, event_time=?, updated_at=?
        WHERE memory_id=?`,
		cur.Title, cur.Content, tagsJSON, cur.Importance, nullableTime(cur.EventTime), cur.UpdatedAt, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return cur, nil
}

func (m *memories) Delete(ctx context.Context, id string) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM memories WHERE memory_id = ?`, id)
	return err
}

// --- Reminders ---

type reminders struct{ db *sql.DB }

func (r *reminders) Schedule(ctx context.Context, rem *model.Reminder) (*model.Reminder, error) {
	if rem.RemindAt.IsZero() {
		return nil, model.ErrValidation
	}
	out := *rem
	out.ID = uuid.New().String()
	out.CreatedAt = time.Now().UTC()
	out.Completed = false

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO reminders (reminder_id, task, remind_at, repeat_interval, completed, created_at)
        VALUES (?,?,?,?,?,?)`,
		out.ID, out.Task, out.RemindAt.UTC(), out.Repeat, false, out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *reminders) List(ctx context.Context, pendingOnly bool) ([]*model.Reminder, error) {
	q := `SELECT reminder_id, task, remind_at, repeat_interval, completed, created_at
          FROM reminders ORDER BY remind_at ASC`
	if pendingOnly {
		q = `SELECT reminder_id, task, remind_at, repeat_interval, completed, created_at
             FROM reminders WHERE completed = 0 ORDER BY remind_at ASC`
	}
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Reminder
	for rows.Next() {
		var rem model.Reminder
		if err := rows.Scan(&rem.ID, &rem.Task, &rem.RemindAt, &rem.Repeat, &rem.Completed, &rem.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rem)
	}
	return out, rows.Err()
}

func (r *reminders) Complete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reminders SET completed = 1 WHERE reminder_id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *reminders) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE reminder_id = ?`, id)
	return err
}

// --- Conversation turns ---

type turns struct{ db *sql.DB }

func (t *turns) Append(ctx context.Context, role model.Role, text string) (*model.ConversationTurn, error) {
	now := time.Now().UTC()
	res, err := t.db.ExecContext(ctx, `
        INSERT INTO conversation_turns (role, message, created_at) VALUES (?,?,?)`,
		string(role), text, now)
	if err != nil {
		return nil, err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.ConversationTurn{Seq: seq, Role: role, Text: text, CreatedAt: now}, nil
}

func (t *turns) Recent(ctx context.Context, limit int) ([]*model.ConversationTurn, error) {
	rows, err := t.db.QueryContext(ctx, `
        SELECT seq, role, message, created_at FROM conversation_turns
        ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var desc []*model.ConversationTurn
	for rows.Next() {
		var turn model.ConversationTurn
		var role string
		if err := rows.Scan(&turn.Seq, &role, &turn.Text, &turn.CreatedAt); err != nil {
			return nil, err
		}
		turn.Role = model.Role(role)
		desc = append(desc, &turn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Rows arrive newest-first; callers want oldest-first.
	for i, j := 0, len(desc)-1; i < j; i, j = i+1, j-1 {
		desc[i], desc[j] = desc[j], desc[i]
	}
	return desc, nil
}

// --- helpers ---

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanMemory(row rowScanner) (*model.MemoryRecord, error) {
	var rec model.MemoryRecord
	var tagsJSON string
	var eventTime sql.NullTime
	if err := row.Scan(&rec.ID, &rec.Type, &rec.Title, &rec.Content, &tagsJSON, &rec.Importance, &eventTime, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
		return nil, err
	}
	if eventTime.Valid {
		et := eventTime.Time
		rec.EventTime = &et
	}
	return &rec, nil
}

func collectMemories(rows *sql.Rows) ([]*model.MemoryRecord, error) {
	defer func() { _ = rows.Close() }()
	var out []*model.MemoryRecord
	for rows.Next() {
		rec, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
