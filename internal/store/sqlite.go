package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"actionlog/internal/action"
	"actionlog/internal/document"
	"actionlog/internal/statecodec"

	_ "modernc.org/sqlite"
)

const (
	DirName = ".actionlog"
	DBName  = "actions.db"
)

// Store keeps the application state of one project in SQLite.
type Store struct {
	db      *sql.DB
	rootDir string
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func New(projectDir string) (*Store, error) {
	dataDir := filepath.Join(projectDir, DirName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create %s dir: %w", DirName, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DBName)+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The state has a single owner; serialize access through one connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, rootDir: projectDir}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RootDir() string { return s.rootDir }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS actions (
		id         INTEGER PRIMARY KEY,
		title      TEXT NOT NULL,
		descriptor TEXT NOT NULL,
		collapsed  INTEGER NOT NULL DEFAULT 1,
		order_idx  INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS replies (
		action_id   INTEGER NOT NULL REFERENCES actions(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		descriptors TEXT NOT NULL,
		played_at   INTEGER NOT NULL,
		PRIMARY KEY (action_id, seq)
	);

	CREATE TABLE IF NOT EXISTS selection (
		order_idx INTEGER PRIMARY KEY,
		action_id INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_actions_order ON actions(order_idx);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads the full state. An empty database yields a fresh state.
func (s *Store) Load(ctx context.Context) (*statecodec.State, error) {
	return loadState(ctx, s.db)
}

// Save replaces the stored state wholesale in one transaction.
func (s *Store) Save(ctx context.Context, st *statecodec.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := saveState(ctx, tx, st); err != nil {
		return err
	}
	return tx.Commit()
}

// Update loads the state, applies fn and saves the result atomically. When fn
// fails nothing is written.
func (s *Store) Update(ctx context.Context, fn func(*statecodec.State) error) (*statecodec.State, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	st, err := loadState(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	if err := saveState(ctx, tx, st); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return st, nil
}

func (s *Store) CountActions(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM actions").Scan(&count)
	return count, err
}

func loadState(ctx context.Context, q querier) (*statecodec.State, error) {
	st := statecodec.NewState()

	var raw string
	err := q.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = 'settings'").Scan(&raw)
	switch {
	case err == nil:
		if err := json.Unmarshal([]byte(raw), &st.Settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("load settings: %w", err)
	}

	entries, err := loadEntries(ctx, q)
	if err != nil {
		return nil, err
	}
	st.Actions, err = action.NewCollection(entries...)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, "SELECT action_id FROM selection ORDER BY order_idx")
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		st.Selected = append(st.Selected, id)
	}
	return st, rows.Err()
}

func loadEntries(ctx context.Context, q querier) ([]action.Entry, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, title, descriptor, collapsed FROM actions ORDER BY order_idx")
	if err != nil {
		return nil, fmt.Errorf("load actions: %w", err)
	}
	defer rows.Close()

	var entries []action.Entry
	index := make(map[int]int)
	for rows.Next() {
		var (
			id        int
			title     string
			raw       string
			collapsed int
		)
		if err := rows.Scan(&id, &title, &raw, &collapsed); err != nil {
			return nil, err
		}
		desc, err := document.Parse([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("decode descriptor of action %d: %w", id, err)
		}
		index[id] = len(entries)
		entries = append(entries, action.NewEntry(id, title, desc, collapsed != 0))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	replyRows, err := q.QueryContext(ctx, "SELECT action_id, descriptors, played_at FROM replies ORDER BY action_id, seq")
	if err != nil {
		return nil, fmt.Errorf("load replies: %w", err)
	}
	defer replyRows.Close()
	for replyRows.Next() {
		var (
			actionID int
			raw      string
			playedAt int64
		)
		if err := replyRows.Scan(&actionID, &raw, &playedAt); err != nil {
			return nil, err
		}
		var descs []document.Value
		if err := json.Unmarshal([]byte(raw), &descs); err != nil {
			return nil, fmt.Errorf("decode reply of action %d: %w", actionID, err)
		}
		i, ok := index[actionID]
		if !ok {
			continue
		}
		entries[i].PlayReplies = append(entries[i].PlayReplies, action.PlayReply{
			Descriptors: descs,
			Time:        time.UnixMilli(playedAt).UTC(),
		})
	}
	return entries, replyRows.Err()
}

func saveState(ctx context.Context, tx *sql.Tx, st *statecodec.State) error {
	for _, stmt := range []string{"DELETE FROM replies", "DELETE FROM actions", "DELETE FROM selection"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	settings, err := json.Marshal(st.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO settings (key, value) VALUES ('settings', ?)", string(settings),
	); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	for i, e := range st.Actions.Entries() {
		desc, err := e.Descriptor.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode descriptor of action %d: %w", e.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO actions (id, title, descriptor, collapsed, order_idx) VALUES (?, ?, ?, ?, ?)",
			e.ID, e.Title, string(desc), e.Collapsed, i,
		); err != nil {
			return fmt.Errorf("insert action %d: %w", e.ID, err)
		}
		for seq, r := range e.PlayReplies {
			descs := r.Descriptors
			if descs == nil {
				descs = []document.Value{}
			}
			raw, err := json.Marshal(descs)
			if err != nil {
				return fmt.Errorf("encode reply of action %d: %w", e.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO replies (action_id, seq, descriptors, played_at) VALUES (?, ?, ?, ?)",
				e.ID, seq, string(raw), r.Time.UnixMilli(),
			); err != nil {
				return fmt.Errorf("insert reply of action %d: %w", e.ID, err)
			}
		}
	}

	for i, id := range st.Selected {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO selection (order_idx, action_id) VALUES (?, ?)", i, id,
		); err != nil {
			return fmt.Errorf("insert selection: %w", err)
		}
	}
	return nil
}
