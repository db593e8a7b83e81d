// Package workspace manages per-run scratch directories. Every pipeline run
// gets an isolated directory named by a fresh token, and the directory is
// removed when the run finishes regardless of outcome.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Scope is one run's private scratch area. Paths created through a Scope
// share its token prefix so concurrent runs never collide.
type Scope struct {
	token string
	dir   string

	mu       sync.Mutex
	released bool
}

// NewScope creates a fresh scratch directory under the work root.
func NewScope(workRoot string) (*Scope, error) {
	if workRoot == "" {
		return nil, fmt.Errorf("work root is empty")
	}
	token := uuid.NewString()
	dir := filepath.Join(workRoot, token)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Scope{token: token, dir: dir}, nil
}

// Token returns the unique run token.
func (s *Scope) Token() string {
	return s.token
}

// Dir returns the scratch directory path.
func (s *Scope) Dir() string {
	return s.dir
}

// Path returns an absolute path inside the scratch directory for the named
// artifact.
func (s *Scope) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Release removes the scratch directory and everything inside it. It is
// idempotent so callers can defer it and also release explicitly.
func (s *Scope) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	s.released = true
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove scratch dir: %w", err)
	}
	return nil
}
