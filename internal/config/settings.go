package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// APIKeyEnv is consulted when the store holds no key
const APIKeyEnv = "GEMINI_API_KEY"

// Key sources reported by Settings.Source
const (
	SourceNone  = ""
	SourceStore = "store"
	SourceEnv   = "env"
)

// Settings holds the API key for the session and persists every change
// to the backing Store. It is safe for concurrent use.
type Settings struct {
	mu     sync.RWMutex
	store  Store
	apiKey string
	source string
	getenv func(string) string
}

// NewSettings creates Settings backed by store
func NewSettings(store Store) *Settings {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Settings{store: store, getenv: os.Getenv}
}

// Load reads the persisted key, falling back to GEMINI_API_KEY
func (s *Settings) Load() error {
	key, err := s.store.Get(APIKeyName)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if key != "" {
		s.apiKey, s.source = key, SourceStore
		return nil
	}
	if env := strings.TrimSpace(s.getenv(APIKeyEnv)); env != "" {
		s.apiKey, s.source = env, SourceEnv
		return nil
	}
	s.apiKey, s.source = "", SourceNone
	return nil
}

// APIKey returns the current key, or "" when none is configured
func (s *Settings) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// HasAPIKey reports whether a non-empty key is configured
func (s *Settings) HasAPIKey() bool {
	return s.APIKey() != ""
}

// Source reports where the current key came from
func (s *Settings) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// SetAPIKey replaces the key and persists it. An empty key clears the
// stored entry. The in-memory value is updated even if persisting fails.
func (s *Settings) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)

	s.mu.Lock()
	s.apiKey = key
	if key == "" {
		s.source = SourceNone
	} else {
		s.source = SourceStore
	}
	s.mu.Unlock()

	if key == "" {
		if err := s.store.Delete(APIKeyName); err != nil {
			return fmt.Errorf("failed to clear API key: %w", err)
		}
		return nil
	}
	if err := s.store.Set(APIKeyName, key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	return nil
}

// MaskedKey returns the key with its middle hidden, for display
func (s *Settings) MaskedKey() string {
	return MaskKey(s.APIKey())
}

// MaskKey hides all but the edges of key
func MaskKey(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) <= 8:
		return strings.Repeat("*", len(key))
	default:
		return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
	}
}
