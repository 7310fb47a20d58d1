package token

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the token in a small JSON key-value file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the given file. The file and
// its directory are created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the standard token file location under the user
// config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "leaderboard-stream", "tokens.json"), nil
}

// Token returns the persisted token. A missing file means no token.
func (s *FileStore) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kv, err := s.read()
	if err != nil {
		return "", err
	}
	return kv[Key], nil
}

// SetToken persists the token, creating the file if needed.
func (s *FileStore) SetToken(ctx context.Context, tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kv, err := s.read()
	if err != nil {
		return err
	}
	kv[Key] = tok
	return s.write(kv)
}

// ClearToken removes the token. Clearing an absent token is a no-op.
func (s *FileStore) ClearToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kv, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := kv[Key]; !ok {
		return nil
	}
	delete(kv, Key)
	return s.write(kv)
}

func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	kv := map[string]string{}
	if err := json.Unmarshal(data, &kv); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	return kv, nil
}

func (s *FileStore) write(kv map[string]string) error {
	data, err := json.Marshal(kv)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}
