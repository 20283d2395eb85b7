// Package session is the single authority for "is a caller currently
// authenticated". It keeps the last loaded or saved state in memory so the
// predicates are O(1) reads, and mirrors every change into the preference
// store so a session survives process restarts.
package session

import (
	"sync"

	"go.uber.org/zap"

	"lugares-client/domain/entities"
	"lugares-client/infrastructure/persistence/prefs"
)

// Persisted key set. Namespaced together so Clear can sweep them all.
const (
	keyIsLoggedIn = "is_logged_in"
	keyAuthToken  = "auth_token"
	keyUserID     = "user_id"
	keyUserEmail  = "user_email"
	keyUserName   = "user_name"
	keyUserType   = "user_type"
)

var sessionKeys = []string{keyIsLoggedIn, keyAuthToken, keyUserID, keyUserEmail, keyUserName, keyUserType}

// Store persists and restores the authentication session.
type Store struct {
	prefs  prefs.Store
	logger *zap.Logger

	mu       sync.RWMutex
	loggedIn bool
	token    string
	user     *entities.User
}

// NewStore creates a session store over the given preference store.
func NewStore(p prefs.Store, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{prefs: p, logger: logger}
}

// Load rehydrates the session from the preference store. A logged-in flag
// without a usable token is corrupted state and is cleared rather than
// reported, so the app never acts as logged-in without a credential.
func (s *Store) Load() (entities.Session, bool) {
	flag, ok, err := s.prefs.Get(keyIsLoggedIn)
	if err != nil {
		s.logger.Warn("reading session flag", zap.Error(err))
		return entities.Session{}, false
	}
	if !ok || flag != "true" {
		return entities.Session{}, false
	}

	token, ok, err := s.prefs.Get(keyAuthToken)
	if err != nil || !ok || token == "" {
		s.logger.Warn("logged-in flag set but no token stored, clearing session")
		s.Clear()
		return entities.Session{}, false
	}

	user := &entities.User{
		ID:       s.readPref(keyUserID),
		Email:    s.readPref(keyUserEmail),
		FullName: s.readPref(keyUserName),
		Type:     entities.ParseUserType(s.readPref(keyUserType)),
		IsActive: true,
	}

	s.mu.Lock()
	s.loggedIn = true
	s.token = token
	s.user = user
	s.mu.Unlock()

	s.logger.Info("session restored", zap.String("email", user.Email))
	return entities.Session{Token: token, User: user}, true
}

// Save persists the token and a denormalized subset of the user profile,
// and marks the session logged in.
func (s *Store) Save(token string, user *entities.User) error {
	if token == "" {
		s.logger.Warn("refusing to save session without token")
		return nil
	}

	var firstErr error
	write := func(key, value string) {
		if err := s.prefs.Set(key, value); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	write(keyIsLoggedIn, "true")
	write(keyAuthToken, token)
	if user != nil {
		write(keyUserID, user.ID)
		write(keyUserEmail, user.Email)
		write(keyUserName, user.FullName)
		write(keyUserType, string(user.Type))
	}

	s.mu.Lock()
	s.loggedIn = true
	s.token = token
	s.user = user
	s.mu.Unlock()

	if firstErr != nil {
		s.logger.Error("persisting session", zap.Error(firstErr))
		return firstErr
	}
	if user != nil {
		s.logger.Info("session saved", zap.String("email", user.Email))
	}
	return nil
}

// Clear removes every session key. The in-memory state is reset regardless
// of store errors so the app never keeps acting as logged-in against stale
// partial state.
func (s *Store) Clear() {
	for _, key := range sessionKeys {
		if err := s.prefs.Delete(key); err != nil {
			s.logger.Warn("removing session key", zap.String("key", key), zap.Error(err))
		}
	}

	s.mu.Lock()
	s.loggedIn = false
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	s.logger.Info("session cleared")
}

// IsLoggedIn is an O(1) in-memory read; it never touches storage.
func (s *Store) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// Token returns the current bearer credential, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Current returns the cached user profile without any I/O.
func (s *Store) Current() *entities.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SetUser replaces the in-memory profile after a fresh fetch and refreshes
// the persisted denormalized fields.
func (s *Store) SetUser(user *entities.User) {
	s.mu.Lock()
	s.user = user
	loggedIn := s.loggedIn
	s.mu.Unlock()

	if user == nil || !loggedIn {
		return
	}
	for key, value := range map[string]string{
		keyUserID:    user.ID,
		keyUserEmail: user.Email,
		keyUserName:  user.FullName,
		keyUserType:  string(user.Type),
	} {
		if err := s.prefs.Set(key, value); err != nil {
			s.logger.Warn("refreshing persisted profile", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *Store) readPref(key string) string {
	v, _, err := s.prefs.Get(key)
	if err != nil {
		s.logger.Warn("reading preference", zap.String("key", key), zap.Error(err))
	}
	return v
}
