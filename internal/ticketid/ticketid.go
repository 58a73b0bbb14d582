package ticketid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/spec-kit/helpdesk/pkg/util"
)

const (
	lockAttempts   = 5
	lockRetryDelay = 200 * time.Millisecond
)

// Generator issues ticket identifiers of the form TKT-<year>-<seq> with
// the sequence zero-padded to 4 digits. Sequences come from a monotonic
// counter persisted per period in its own file, so identifiers are never
// reused even if the ticket store is reset or records removed out of
// band. Deriving the sequence from the ticket count would collide after
// any such reset.
type Generator struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewGenerator constructs a generator over the given counter file path.
func NewGenerator(path string) *Generator {
	return &Generator{path: path, now: time.Now}
}

// Next reserves and returns a new unique ticket identifier scoped to the
// current period (calendar year). The counter increment is persisted
// under an exclusive lock before the identifier is returned.
func (g *Generator) Next(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fl := flock.New(g.path + ".lock")
	if err := acquire(ctx, fl, g.path); err != nil {
		return "", err
	}
	defer fl.Unlock() //nolint:errcheck

	counters, err := g.read()
	if err != nil {
		return "", err
	}
	period := g.now().Format("2006")
	counters[period]++
	if err := g.write(counters); err != nil {
		return "", err
	}
	return fmt.Sprintf("TKT-%s-%04d", period, counters[period]), nil
}

func (g *Generator) read() (map[string]int, error) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]int{}, nil
		}
		return nil, util.NewCorruptStore(g.path, err)
	}
	var counters map[string]int
	if err := json.Unmarshal(data, &counters); err != nil {
		return nil, util.NewCorruptStore(g.path, err)
	}
	if counters == nil {
		counters = map[string]int{}
	}
	return counters, nil
}

func (g *Generator) write(counters map[string]int) error {
	data, err := json.MarshalIndent(counters, "", "    ")
	if err != nil {
		return util.NewInternalError(err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(g.path), ".counter-*.json")
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
	if err := os.Rename(tmpName, g.path); err != nil {
		os.Remove(tmpName)
		return util.NewInternalError(err)
	}
	return nil
}

func acquire(ctx context.Context, fl *flock.Flock, path string) error {
	for attempt := 0; attempt < lockAttempts; attempt++ {
		locked, err := fl.TryLock()
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
