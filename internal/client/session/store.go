package session

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/filevault/internal/logging"
)

const tokenKey = "access_token"

// KeyPrefix starts every session key, whatever the tab.
const KeyPrefix = "session/"

// Store is the tab-scoped token cell. Set replaces, Get is a pure read,
// Clear is idempotent. The in-memory value is authoritative; a failing Cell
// is logged and otherwise ignored.
type Store struct {
	mu     sync.RWMutex
	token  string
	cell   Cell
	key    string
	logger logging.Logger
}

// Key returns the cell key used for tab.
func Key(tab string) string {
	if tab == "" {
		tab = "default"
	}
	return KeyPrefix + tab + "/" + tokenKey
}

// TabFromKey is the inverse of Key.
func TabFromKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, KeyPrefix)
	if !ok {
		return "", false
	}
	tab, ok := strings.CutSuffix(rest, "/"+tokenKey)
	if !ok || tab == "" {
		return "", false
	}
	return tab, true
}

// NewStore builds a store for tab and restores any token already mirrored
// in cell. A nil cell means memory only.
func NewStore(ctx context.Context, cell Cell, tab string, logger logging.Logger) *Store {
	if cell == nil {
		cell = NewMemoryCell()
	}
	s := &Store{
		cell:   cell,
		key:    Key(tab),
		logger: logger.With("module", "session_store", "tab", tab),
	}

	v, err := cell.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn(ctx, "session restore failed", "error", err)
		return s
	}
	if len(v) > 0 {
		s.token = string(v)
		s.logger.Debug(ctx, "session restored")
	}
	return s
}

func (s *Store) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token

	ctx := context.Background()
	if err := s.cell.Set(ctx, s.key, []byte(token)); err != nil {
		s.logger.Warn(ctx, "session mirror write failed", "error", err)
	}
}

// Get returns the current token and whether one is present.
func (s *Store) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""

	ctx := context.Background()
	if err := s.cell.Delete(ctx, s.key); err != nil {
		s.logger.Warn(ctx, "session mirror delete failed", "error", err)
	}
}
