package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zalando/go-keyring"
)

// APIKeyName is the entry under which the Gemini API key is stored
const APIKeyName = "geminiApiKey"

// KeyringService is the service name used for OS keyring entries
const KeyringService = "eerieecho"

// ErrNotFound is returned by a Store when no value exists for a name
var ErrNotFound = errors.New("credential not found")

// Store persists named secrets across sessions
type Store interface {
	Get(name string) (string, error)
	Set(name, value string) error
	Delete(name string) error
}

// FileStore keeps secrets in a 0600 JSON object on disk
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFileStore returns a FileStore at the default credentials path
func DefaultFileStore() (*FileStore, error) {
	path, err := GetCredentialsPath()
	if err != nil {
		return nil, err
	}
	return NewFileStore(path), nil
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// Save with restrictive permissions (owner read/write only)
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// Get returns the stored value for name
func (s *FileStore) Get(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := values[name]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under name
func (s *FileStore) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[name] = value
	return s.save(values)
}

// Delete removes name. Deleting a missing name is not an error.
func (s *FileStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[name]; !ok {
		return nil
	}
	delete(values, name)
	return s.save(values)
}

// KeyringStore keeps secrets in the OS keyring
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a KeyringStore for service
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = KeyringService
	}
	return &KeyringStore{service: service}
}

func (s *KeyringStore) Get(name string) (string, error) {
	v, err := keyring.Get(s.service, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keyring read failed: %w", err)
	}
	return v, nil
}

func (s *KeyringStore) Set(name, value string) error {
	if err := keyring.Set(s.service, name, value); err != nil {
		return fmt.Errorf("keyring write failed: %w", err)
	}
	return nil
}

func (s *KeyringStore) Delete(name string) error {
	err := keyring.Delete(s.service, name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete failed: %w", err)
	}
	return nil
}

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (s *MemoryStore) Get(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}

func (s *MemoryStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
	return nil
}

// OpenStore returns the Store selected by cfg.CredentialStore
func OpenStore(cfg Config) (Store, error) {
	switch cfg.CredentialStore {
	case "", StoreFile:
		return DefaultFileStore()
	case StoreKeyring:
		return NewKeyringStore(KeyringService), nil
	case StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q (use: file, keyring)", cfg.CredentialStore)
	}
}

// StoreLocation describes where cfg keeps the API key, for display
func StoreLocation(cfg Config) string {
	switch cfg.CredentialStore {
	case StoreKeyring:
		return "system keyring (service " + KeyringService + ")"
	case StoreMemory:
		return "memory only"
	default:
		path, err := GetCredentialsPath()
		if err != nil {
			return "credentials file"
		}
		return path
	}
}
