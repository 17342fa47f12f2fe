// package session owns the signed-in identity: the opaque bearer token and
// the profile derived from it.
//
// The token and profile change together or not at all. A token whose profile
// fetch fails is treated as invalid and the whole session is cleared, so a
// session is never left half-populated. Dependents subscribe for changes and
// always read the current session through [Store.Current] at the moment of
// use rather than capturing a snapshot.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/chapgen/cli/internal/models"
	"github.com/chapgen/cli/internal/repositories"
	"github.com/chapgen/cli/internal/shared"
	"github.com/charmbracelet/log"
)

// Session is a point-in-time view of the signed-in identity. A zero Token
// means signed out.
type Session struct {
	Token   string
	Profile *models.Profile
}

// SignedIn reports whether a usable identity is present.
func (s Session) SignedIn() bool {
	return s.Token != "" && s.Profile != nil
}

// Store holds the current session, persists the token, and notifies
// subscribers on every change.
type Store struct {
	mu      sync.RWMutex
	token   string
	profile *models.Profile

	state       *repositories.StateRepository
	httpClient  *http.Client
	userinfoURL string
	logger      *log.Logger

	subMu   sync.Mutex
	subs    map[int]func(Session)
	nextSub int
}

// NewStore creates a session store. state may be nil for an in-memory-only
// store (used in tests).
func NewStore(state *repositories.StateRepository, client *http.Client, userinfoURL string, logger *log.Logger) *Store {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Store{
		state:       state,
		httpClient:  client,
		userinfoURL: userinfoURL,
		logger:      logger,
		subs:        map[int]func(Session){},
	}
}

// Current returns the session as of now.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{Token: s.token, Profile: s.profile}
}

// Subscribe registers fn to be called with the new session after every
// change. Returns an unsubscribe function.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	current := s.Current()

	s.subMu.Lock()
	fns := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(current)
	}
}

// SetToken stores a freshly issued token, persists it, and fetches the
// profile it identifies. A failed profile fetch invalidates the token: the
// store signs out and returns an error.
func (s *Store) SetToken(ctx context.Context, token string) error {
	if token == "" {
		s.SignOut()
		return nil
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		s.SignOut()
		return fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}

	s.mu.Lock()
	s.token = token
	s.profile = profile
	s.mu.Unlock()

	if s.state != nil {
		if err := s.state.SaveToken(token); err != nil {
			s.logger.Warnf("failed to persist token: %v", err)
		}
	}

	s.notify()
	return nil
}

// Restore loads a persisted token and revalidates it by fetching the
// profile. An invalid persisted token is cleared silently; the user is
// simply signed out.
func (s *Store) Restore(ctx context.Context) {
	if s.state == nil {
		return
	}

	token, err := s.state.LoadToken()
	if err != nil {
		s.logger.Warnf("failed to load persisted token: %v", err)
		return
	}
	if token == "" {
		return
	}

	if err := s.SetToken(ctx, token); err != nil {
		s.logger.Info("persisted token no longer valid, signed out")
	}
}

// SignOut atomically clears the token, the profile, and the persisted
// copies, then notifies subscribers so dependents (job tracker, connection
// manager) can react.
func (s *Store) SignOut() {
	s.mu.Lock()
	s.token = ""
	s.profile = nil
	s.mu.Unlock()

	if s.state != nil {
		if err := s.state.DeleteToken(); err != nil {
			s.logger.Warnf("failed to clear persisted token: %v", err)
		}
	}

	s.notify()
}

// fetchProfile resolves the profile behind a bearer token via the userinfo
// endpoint.
func (s *Store) fetchProfile(ctx context.Context, token string) (*models.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("userinfo rejected token: status %d", resp.StatusCode)
	}

	var profile models.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}

	return &profile, nil
}
