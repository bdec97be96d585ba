package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/verdantai/verdant-agent/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	thread_id  TEXT    NOT NULL,
	step       INTEGER NOT NULL,
	node       TEXT    NOT NULL,
	state      TEXT    NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (thread_id, step)
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_thread ON checkpoints (thread_id, step DESC);
`

// Store is a local-file implementation of domain.Checkpointer backed by
// libsql. State snapshots are stored as JSON, one row per checkpoint step.
type Store struct {
	db *sql.DB
}

func NewStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating checkpoints table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context, threadID domain.ThreadID) (*domain.AgentState, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM checkpoints WHERE thread_id = ? ORDER BY step DESC LIMIT 1`,
		string(threadID),
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite Load: %w", err)
	}

	var state domain.AgentState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("sqlite Load decode: %w", err)
	}
	return &state, nil
}

func (s *Store) Save(ctx context.Context, threadID domain.ThreadID, node string, state domain.AgentState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("sqlite Save encode: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (thread_id, step, node, state, created_at)
		 VALUES (?, (SELECT COALESCE(MAX(step), 0) + 1 FROM checkpoints WHERE thread_id = ?), ?, ?, ?)`,
		string(threadID), string(threadID), node, raw, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite Save: %w", err)
	}
	return nil
}

func (s *Store) History(ctx context.Context, threadID domain.ThreadID) ([]domain.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step, node, state, created_at FROM checkpoints WHERE thread_id = ? ORDER BY step ASC`,
		string(threadID),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite History: %w", err)
	}
	defer rows.Close()

	var out []domain.Checkpoint
	for rows.Next() {
		cp := domain.Checkpoint{ThreadID: threadID}
		var raw []byte
		if err := rows.Scan(&cp.Step, &cp.Node, &raw, &cp.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite History scan: %w", err)
		}
		if err := json.Unmarshal(raw, &cp.State); err != nil {
			return nil, fmt.Errorf("sqlite History decode: %w", err)
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

func (s *Store) ListThreads(ctx context.Context) ([]domain.ThreadInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT thread_id, COUNT(*), MAX(created_at) FROM checkpoints GROUP BY thread_id ORDER BY MAX(created_at) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite ListThreads: %w", err)
	}
	defer rows.Close()

	var out []domain.ThreadInfo
	for rows.Next() {
		var info domain.ThreadInfo
		var id string
		if err := rows.Scan(&id, &info.Steps, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite ListThreads scan: %w", err)
		}
		info.ID = domain.ThreadID(id)
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *Store) DeleteThread(ctx context.Context, threadID domain.ThreadID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE thread_id = ?`, string(threadID))
	if err != nil {
		return fmt.Errorf("sqlite DeleteThread: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
