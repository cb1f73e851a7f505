package editor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// mariadbStore is the MariaDB implementation of Store: one row per document
// in the documents table, envelope stored as JSON. The durable alternative
// to the Redis backend, selected via EDITOR_STORAGE.
type mariadbStore struct {
	db *sql.DB
}

// NewMariaDBStore creates a MariaDB-backed persisted-state store.
func NewMariaDBStore(db *sql.DB) Store {
	return &mariadbStore{db: db}
}

// Load reads and decodes the envelope for a document. A missing row and an
// undecodable envelope both return (nil, nil).
func (s *mariadbStore) Load(ctx context.Context, docID string) (*PersistedState, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM documents WHERE id = ?`, docID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying document state: %w", err)
	}
	return DecodeState(data), nil
}

// Save encodes and upserts the envelope for a document.
func (s *mariadbStore) Save(ctx context.Context, docID string, state *PersistedState) error {
	data, err := EncodeState(state)
	if err != nil {
		return fmt.Errorf("encoding editor state: %w", err)
	}

	query := `INSERT INTO documents (id, state)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE state = VALUES(state), updated_at = CURRENT_TIMESTAMP`

	if _, err := s.db.ExecContext(ctx, query, docID, data); err != nil {
		return fmt.Errorf("upserting document state: %w", err)
	}
	return nil
}

// Clear deletes the stored envelope for a document.
func (s *mariadbStore) Clear(ctx context.Context, docID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, docID); err != nil {
		return fmt.Errorf("deleting document state: %w", err)
	}
	return nil
}
