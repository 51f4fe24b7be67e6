// Package session keeps the spreadsheets uploaded by each dashboard user in
// memory, isolated by session ID.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/forecast-dashboard/internal/table"
	"github.com/iwvelando/forecast-dashboard/pkg/constants"
	"go.uber.org/zap"
)

var (
	ErrInvalidID      = errors.New("invalid session id")
	ErrNoDataset      = errors.New("dataset not uploaded")
	ErrUnknownDataset = errors.New("unknown dataset kind")
)

// Dataset is one uploaded spreadsheet.
type Dataset struct {
	Kind       constants.DatasetKind `json:"kind"`
	Filename   string                `json:"filename"`
	UploadedAt time.Time             `json:"uploadedAt"`
	Table      *table.Table          `json:"table"`
}

type entry struct {
	datasets map[constants.DatasetKind]*Dataset
	lastSeen time.Time
}

// Store holds datasets per session. Entries expire ttl after their last use.
type Store struct {
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]*entry
}

// NewStore creates an empty store.
func NewStore(logger *zap.Logger, ttl time.Duration) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		logger:  logger,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// NewID returns a fresh random session ID.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape of a session ID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ParseKind validates an upload kind.
func ParseKind(s string) (constants.DatasetKind, error) {
	for _, kind := range constants.DatasetKinds {
		if string(kind) == s {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%q, %w", s, ErrUnknownDataset)
}

// Put stores the dataset under id, replacing an earlier upload of the same kind.
func (s *Store) Put(id string, ds *Dataset) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	now := s.now()
	if ds.UploadedAt.IsZero() {
		ds.UploadedAt = now
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || s.expired(e, now) {
		e = &entry{datasets: make(map[constants.DatasetKind]*Dataset)}
		s.entries[id] = e
	}
	e.datasets[ds.Kind] = ds
	e.lastSeen = now

	s.logger.Debug("dataset stored",
		zap.String("op", "session.Put"),
		zap.String("kind", string(ds.Kind)),
		zap.String("filename", ds.Filename),
		zap.Int("rows", ds.Table.Len()),
	)
	return nil
}

// Dataset returns the dataset of the given kind uploaded in session id.
func (s *Store) Dataset(id string, kind constants.DatasetKind) (*Dataset, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || s.expired(e, now) {
		return nil, fmt.Errorf("%s, %w", kind, ErrNoDataset)
	}
	e.lastSeen = now
	ds, ok := e.datasets[kind]
	if !ok {
		return nil, fmt.Errorf("%s, %w", kind, ErrNoDataset)
	}
	return ds, nil
}

// Kinds lists the dataset kinds uploaded in session id.
func (s *Store) Kinds(id string) []constants.DatasetKind {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()
	kinds := make([]constants.DatasetKind, 0, len(constants.DatasetKinds))
	e, ok := s.entries[id]
	if !ok || s.expired(e, now) {
		return kinds
	}
	for _, kind := range constants.DatasetKinds {
		if _, ok := e.datasets[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Prune drops expired sessions and returns how many were removed.
func (s *Store) Prune() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("pruned expired sessions",
			zap.String("op", "session.Prune"),
			zap.Int("removed", removed),
			zap.Int("remaining", len(s.entries)),
		)
	}
	return removed
}

// Len returns the number of live and not yet pruned sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastSeen) > s.ttl
}
