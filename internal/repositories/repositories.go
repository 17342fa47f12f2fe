// package repositories provides the persistence layer for client-local state.
//
// All state is keyed records in a single sqlite table: the in-flight job,
// the signed-in access token, generation preferences, and the last-visited
// view. Each record is independently readable and writable so that sign-out
// can clear the token and job while leaving preferences intact.
package repositories

import (
	"database/sql"
	"fmt"
)

// StateRepository reads and writes keyed records in the client_state table.
type StateRepository struct {
	db *sql.DB
}

// NewStateRepository creates a StateRepository backed by the given database.
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Get retrieves the value stored under key. The second return is false when
// no record exists.
func (r *StateRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM client_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read state %q: %w", key, err)
	}
	return value, true, nil
}

// Put stores value under key, replacing any prior record.
func (r *StateRepository) Put(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write state %q: %w", key, err)
	}
	return nil
}

// Delete removes the record stored under key. Deleting a missing key is not
// an error.
func (r *StateRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM client_state WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete state %q: %w", key, err)
	}
	return nil
}
