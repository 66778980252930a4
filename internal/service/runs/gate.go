package runs

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrSubmissionInFlight is returned when a session already has a run that
// has not terminated yet.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// Gate guarantees at most one in-flight submission per interactive
// session. A session slot is held from acquisition until the run fully
// terminates.
type Gate struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewGate() *Gate {
	return &Gate{inflight: make(map[string]struct{})}
}

func (g *Gate) Acquire(session string) error {
	session = strings.TrimSpace(session)
	if session == "" {
		return errors.New("session id is required")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.inflight[session]; held {
		return fmt.Errorf("%w: session %s", ErrSubmissionInFlight, session)
	}
	g.inflight[session] = struct{}{}
	return nil
}

func (g *Gate) Release(session string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, strings.TrimSpace(session))
}
