package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/chapgen/cli/internal/models"
)

// Storage keys for the client's keyed records.
const (
	KeyCurrentJob  = "current_job"
	KeyAccessToken = "access_token"
	KeyPreferences = "preferences"
	KeyLastView    = "last_view"
)

// SaveJob persists the in-flight job record.
func (r *StateRepository) SaveJob(job models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return r.Put(KeyCurrentJob, string(data))
}

// LoadJob restores the persisted job record, if any. A corrupt record is
// discarded rather than surfaced: a reload should never wedge on bad state.
func (r *StateRepository) LoadJob() (*models.Job, error) {
	raw, ok, err := r.Get(KeyCurrentJob)
	if err != nil || !ok {
		return nil, err
	}

	var job models.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		_ = r.Delete(KeyCurrentJob)
		return nil, nil
	}
	return &job, nil
}

// DeleteJob removes the persisted job record.
func (r *StateRepository) DeleteJob() error {
	return r.Delete(KeyCurrentJob)
}

// SaveToken persists the signed-in access token.
func (r *StateRepository) SaveToken(token string) error {
	return r.Put(KeyAccessToken, token)
}

// LoadToken restores the persisted access token, or "" when signed out.
func (r *StateRepository) LoadToken() (string, error) {
	token, _, err := r.Get(KeyAccessToken)
	return token, err
}

// DeleteToken removes the persisted access token.
func (r *StateRepository) DeleteToken() error {
	return r.Delete(KeyAccessToken)
}

// SavePreferences persists the generation sliders.
func (r *StateRepository) SavePreferences(prefs models.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	return r.Put(KeyPreferences, string(data))
}

// LoadPreferences restores persisted sliders, falling back to defaults when
// absent or unreadable.
func (r *StateRepository) LoadPreferences() (models.Preferences, error) {
	raw, ok, err := r.Get(KeyPreferences)
	if err != nil {
		return models.DefaultPreferences(), err
	}
	if !ok {
		return models.DefaultPreferences(), nil
	}

	var prefs models.Preferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return models.DefaultPreferences(), nil
	}
	return prefs, nil
}

// SaveLastView persists the last-visited view name.
func (r *StateRepository) SaveLastView(view string) error {
	return r.Put(KeyLastView, view)
}

// LoadLastView restores the last-visited view name, or "" when unset.
func (r *StateRepository) LoadLastView() (string, error) {
	view, _, err := r.Get(KeyLastView)
	return view, err
}
