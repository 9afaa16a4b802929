package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"pillbot/internal/course"
	logx "pillbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) LoadAll(ctx context.Context) (map[int64]course.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, started_at, active, doses FROM courses`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]course.Record{}
	for rows.Next() {
		var (
			id      int64
			started sql.NullString
			active  int
			doses   string
		)
		if err := rows.Scan(&id, &started, &active, &doses); err != nil {
			return nil, err
		}
		var rec course.Record
		rec.Active = active != 0
		if started.Valid && started.String != "" {
			t, err := time.Parse(time.RFC3339Nano, started.String)
			if err != nil {
				return nil, fmt.Errorf("user %d: bad started_at: %w", id, err)
			}
			rec.StartedAt = t
		}
		var raw []string
		if err := json.Unmarshal([]byte(doses), &raw); err != nil {
			return nil, fmt.Errorf("user %d: bad doses: %w", id, err)
		}
		for i, v := range raw {
			t, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return nil, fmt.Errorf("user %d: bad dose timestamp #%d: %w", id, i, err)
			}
			rec.DoseLog = append(rec.DoseLog, t)
		}
		out[id] = rec
	}
	return out, rows.Err()
}

func (s *sqliteStore) SaveAll(ctx context.Context, recs map[int64]course.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Full replace: the state is tiny and save is write-through.
	if _, err := tx.ExecContext(ctx, `DELETE FROM courses`); err != nil {
		return err
	}
	for id, rec := range recs {
		var started any
		if !rec.StartedAt.IsZero() {
			started = rec.StartedAt.Format(time.RFC3339Nano)
		}
		raw := make([]string, 0, len(rec.DoseLog))
		for _, t := range rec.DoseLog {
			raw = append(raw, t.Format(time.RFC3339Nano))
		}
		doses, err := json.Marshal(raw)
		if err != nil {
			return err
		}
		active := 0
		if rec.Active {
			active = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO courses(user_id, started_at, active, doses) VALUES(?,?,?,?)`,
			id, started, active, string(doses),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}
