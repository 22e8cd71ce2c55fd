package config

import (
	"errors"
	"testing"
)

type failingStore struct {
	*MemoryStore
}

func (f *failingStore) Set(name, value string) error {
	return errors.New("disk full")
}

func newTestSettings(store Store, env map[string]string) *Settings {
	s := NewSettings(store)
	s.getenv = func(k string) string { return env[k] }
	return s
}

func TestSettings_Load(t *testing.T) {
	tests := []struct {
		name       string
		stored     string
		env        string
		wantKey    string
		wantSource string
	}{
		{"nothing configured", "", "", "", SourceNone},
		{"stored key", "stored", "", "stored", SourceStore},
		{"env fallback", "", " from-env ", "from-env", SourceEnv},
		{"store wins over env", "stored", "from-env", "stored", SourceStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			if tt.stored != "" {
				_ = store.Set(APIKeyName, tt.stored)
			}
			s := newTestSettings(store, map[string]string{APIKeyEnv: tt.env})

			if err := s.Load(); err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if s.APIKey() != tt.wantKey {
				t.Errorf("APIKey() = %q, want %q", s.APIKey(), tt.wantKey)
			}
			if s.Source() != tt.wantSource {
				t.Errorf("Source() = %q, want %q", s.Source(), tt.wantSource)
			}
			if s.HasAPIKey() != (tt.wantKey != "") {
				t.Errorf("HasAPIKey() = %v", s.HasAPIKey())
			}
		})
	}
}

func TestSettings_SetAPIKeyPersists(t *testing.T) {
	store := NewMemoryStore()
	s := newTestSettings(store, nil)

	if err := s.SetAPIKey("  abc123  "); err != nil {
		t.Fatalf("SetAPIKey() error = %v", err)
	}
	if s.APIKey() != "abc123" {
		t.Errorf("APIKey() = %q, want trimmed key", s.APIKey())
	}

	// A fresh session sees the persisted value
	next := newTestSettings(store, nil)
	if err := next.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if next.APIKey() != "abc123" {
		t.Errorf("reloaded APIKey() = %q, want abc123", next.APIKey())
	}
}

func TestSettings_LastWriteWins(t *testing.T) {
	store := NewMemoryStore()
	s := newTestSettings(store, nil)

	for _, k := range []string{"a", "ab", "abc"} {
		if err := s.SetAPIKey(k); err != nil {
			t.Fatalf("SetAPIKey(%q) error = %v", k, err)
		}
	}

	got, _ := store.Get(APIKeyName)
	if got != "abc" || s.APIKey() != "abc" {
		t.Errorf("store = %q, memory = %q, want abc", got, s.APIKey())
	}
}

func TestSettings_ClearKey(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set(APIKeyName, "old")
	s := newTestSettings(store, nil)
	_ = s.Load()

	if err := s.SetAPIKey(""); err != nil {
		t.Fatalf("SetAPIKey(\"\") error = %v", err)
	}
	if s.HasAPIKey() {
		t.Error("key should be cleared")
	}
	if _, err := store.Get(APIKeyName); !errors.Is(err, ErrNotFound) {
		t.Errorf("stored key should be deleted, got %v", err)
	}
}

func TestSettings_PersistFailureKeepsMemoryValue(t *testing.T) {
	s := newTestSettings(&failingStore{MemoryStore: NewMemoryStore()}, nil)

	if err := s.SetAPIKey("k"); err == nil {
		t.Fatal("expected persist error")
	}
	if s.APIKey() != "k" {
		t.Errorf("APIKey() = %q, want in-memory value to be kept", s.APIKey())
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", ""},
		{"short", "*****"},
		{"AIzaSyA-1234567890-abcd", "AIza***************abcd"},
	}
	for _, tt := range tests {
		if got := MaskKey(tt.key); got != tt.want {
			t.Errorf("MaskKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
