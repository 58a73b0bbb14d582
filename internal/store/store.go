package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/pkg/util"
)

const (
	lockAttempts   = 5
	lockRetryDelay = 200 * time.Millisecond
)

// TicketStore persists the full ticket collection in a single JSON file.
// Readers take a shared file lock, writers an exclusive one, so a reader
// always observes either the pre- or post-write state in full. Writes go
// to a temp file followed by an atomic rename. An in-process RWMutex
// serializes goroutines within this process; the flock covers other
// processes sharing the file.
type TicketStore struct {
	path     string
	lockPath string
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewTicketStore constructs a store over the given file path. The file
// does not need to exist yet; a missing file reads as an empty store.
func NewTicketStore(path string, logger *zap.Logger) *TicketStore {
	return &TicketStore{
		path:     path,
		lockPath: path + ".lock",
		logger:   logger,
	}
}

// Load reads the full ticket collection under a shared lock. A missing
// backing file is the expected bootstrap state and yields an empty slice.
func (s *TicketStore) Load(ctx context.Context) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fl := flock.New(s.lockPath)
	if err := acquire(ctx, fl.TryRLock, s.path); err != nil {
		return nil, err
	}
	defer fl.Unlock() //nolint:errcheck

	return s.read()
}

// Save overwrites the full ticket collection under an exclusive lock.
func (s *TicketStore) Save(ctx context.Context, tickets []domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fl := flock.New(s.lockPath)
	if err := acquire(ctx, fl.TryLock, s.path); err != nil {
		return err
	}
	defer fl.Unlock() //nolint:errcheck

	return s.write(tickets)
}

// Mutate applies fn to the current collection and persists the result,
// holding the exclusive lock across the whole read-modify-write cycle.
// Two concurrent Mutate calls can never lose an update. All mutation
// call sites go through here.
func (s *TicketStore) Mutate(ctx context.Context, fn func([]domain.Ticket) ([]domain.Ticket, error)) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fl := flock.New(s.lockPath)
	if err := acquire(ctx, fl.TryLock, s.path); err != nil {
		return nil, err
	}
	defer fl.Unlock() //nolint:errcheck

	tickets, err := s.read()
	if err != nil {
		return nil, err
	}
	mutated, err := fn(tickets)
	if err != nil {
		return nil, err
	}
	if err := s.write(mutated); err != nil {
		return nil, err
	}
	return mutated, nil
}

// Ping verifies the store directory is reachable.
func (s *TicketStore) Ping(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *TicketStore) read() ([]domain.Ticket, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Ticket{}, nil
		}
		return nil, util.NewCorruptStore(s.path, err)
	}
	var tickets []domain.Ticket
	if err := json.Unmarshal(data, &tickets); err != nil {
		// Parse failures are permanent; never retried, never masked
		// as an empty store.
		return nil, util.NewCorruptStore(s.path, err)
	}
	return tickets, nil
}

func (s *TicketStore) write(tickets []domain.Ticket) error {
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	data, err := json.MarshalIndent(tickets, "", "    ")
	if err != nil {
		return util.NewInternalError(err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tickets-*.json")
	if err != nil {
		return util.NewInternalError(err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return util.NewInternalError(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return util.NewInternalError(err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return util.NewInternalError(err)
	}
	if s.logger != nil {
		s.logger.Debug("ticket store updated", zap.Int("tickets", len(tickets)))
	}
	return nil
}

// acquire retries a non-blocking lock attempt with a fixed delay before
// surfacing the store as unavailable. Lock contention is transient;
// parse errors never pass through here.
func acquire(ctx context.Context, try func() (bool, error), path string) error {
	for attempt := 0; attempt < lockAttempts; attempt++ {
		locked, err := try()
		if err != nil {
			return util.NewInternalError(err)
		}
		if locked {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return util.NewStoreUnavailable(path)
}
