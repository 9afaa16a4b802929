package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"pillbot/internal/course"
	logx "pillbot/pkg/logx"
)

// fileStore keeps the whole state in one JSON file. Saves go through a
// temp file + rename so a crash mid-write never leaves a torn state file.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	path string
}

// stateFile is the on-disk shape. User IDs are JSON object keys, so they are
// encoded as decimal strings.
type stateFile struct {
	Users map[string]userState `json:"users"`
}

type userState struct {
	StartedAt string   `json:"started_at,omitempty"`
	Active    bool     `json:"active"`
	Doses     []string `json:"doses,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) LoadAll(ctx context.Context) (map[int64]course.Record, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// First run: nothing saved yet.
			return map[int64]course.Record{}, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var sf stateFile
	if err := json.Unmarshal(b, &sf); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	out := make(map[int64]course.Record, len(sf.Users))
	for key, u := range sf.Users {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode state file: bad user id %q", key)
		}
		rec, err := decodeUserState(u)
		if err != nil {
			return nil, fmt.Errorf("decode state file: user %s: %w", key, err)
		}
		out[id] = rec
	}
	return out, nil
}

func (s *fileStore) SaveAll(ctx context.Context, recs map[int64]course.Record) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	sf := stateFile{Users: make(map[string]userState, len(recs))}
	for id, rec := range recs {
		sf.Users[strconv.FormatInt(id, 10)] = encodeUserState(rec)
	}

	b, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func encodeUserState(rec course.Record) userState {
	u := userState{Active: rec.Active}
	if !rec.StartedAt.IsZero() {
		u.StartedAt = rec.StartedAt.Format(time.RFC3339Nano)
	}
	for _, t := range rec.DoseLog {
		u.Doses = append(u.Doses, t.Format(time.RFC3339Nano))
	}
	return u
}

func decodeUserState(u userState) (course.Record, error) {
	var rec course.Record
	rec.Active = u.Active
	if u.StartedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, u.StartedAt)
		if err != nil {
			return course.Record{}, fmt.Errorf("bad started_at: %w", err)
		}
		rec.StartedAt = t
	}
	for i, raw := range u.Doses {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return course.Record{}, fmt.Errorf("bad dose timestamp #%d: %w", i, err)
		}
		rec.DoseLog = append(rec.DoseLog, t)
	}
	return rec, nil
}
