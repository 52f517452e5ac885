package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/deva-ai/deva/internal/model"
	"github.com/deva-ai/deva/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens a connection and returns a store.Store backed by Postgres.
func New(dsn string) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Memories() store.Memories   { return &memories{db: s.db} }
func (s *pgStore) Reminders() store.Reminders { return &reminders{db: s.db} }
func (s *pgStore) Turns() store.Turns         { return &turns{db: s.db} }

func (s *pgStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *pgStore) Close() error                   { return s.db.Close() }

func (s *pgStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memories (
            seq BIGSERIAL PRIMARY KEY,
            memory_id UUID NOT NULL UNIQUE,
            memory_type TEXT NOT NULL,
            title TEXT NOT NULL,
            content TEXT NOT NULL,
            tags JSONB NOT NULL DEFAULT '[]',
            importance INTEGER NOT NULL DEFAULT 1,
            event_time TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS reminders (
            reminder_id UUID PRIMARY KEY,
            task TEXT NOT NULL,
            remind_at TIMESTAMPTZ NOT NULL,
            repeat_interval TEXT,
            completed BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS conversation_turns (
            seq BIGSERIAL PRIMARY KEY,
            role TEXT NOT NULL,
            message TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        )`,
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
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		out.ID, out.Type, out.Title, out.Content, tagsJSON, out.Importance, nullableTime(out.EventTime), now, now)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *memories) Recall(ctx context.Context, limit int) ([]*model.MemoryRecord, error) {
	rows, err := m.db.QueryContext(ctx, `
        SELECT memory_id, memory_type, title, content, tags, importance, event_time, created_at, updated_at
        FROM memories ORDER BY seq DESC LIMIT $1`, limit)
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
        FROM memories WHERE memory_id = $1`, id)
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
        UPDATE memories SET title=$1, content=$2, tags=$3, importance=$4, event_time=$5, updated_at=$6
        WHERE memory_id=$7`,
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
	_, err := m.db.ExecContext(ctx, `DELETE FROM memories WHERE memory_id = $1`, id)
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
        VALUES ($1,$2,$3,$4,$5,$6)`,
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
             FROM reminders WHERE NOT completed ORDER BY remind_at ASC`
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
	res, err := r.db.ExecContext(ctx, `UPDATE reminders SET completed = TRUE WHERE reminder_id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *reminders) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE reminder_id = $1`, id)
	return err
}

// --- Conversation turns ---

type turns struct{ db *sql.DB }

func (t *turns) Append(ctx context.Context, role model.Role, text string) (*model.ConversationTurn, error) {
	now := time.Now().UTC()
	var seq int64
	row := t.db.QueryRowContext(ctx, `
        INSERT INTO conversation_turns (role, message, created_at)
        VALUES ($1,$2,$3) RETURNING seq`, string(role), text, now)
	if err := row.Scan(&seq); err != nil {
		return nil, err
	}
	return &model.ConversationTurn{Seq: seq, Role: role, Text: text, CreatedAt: now}, nil
}

func (t *turns) Recent(ctx context.Context, limit int) ([]*model.ConversationTurn, error) {
	rows, err := t.db.QueryContext(ctx, `
        SELECT seq, role, message, created_at FROM conversation_turns
        ORDER BY seq DESC LIMIT $1`, limit)
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
	var tagsJSON []byte
	var eventTime sql.NullTime
	if err := row.Scan(&rec.ID, &rec.Type, &rec.Title, &rec.Content, &tagsJSON, &rec.Importance, &eventTime, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tagsJSON, &rec.Tags); err != nil {
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
