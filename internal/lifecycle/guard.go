// Package lifecycle implements the gateway's fatal-fault policy: on any
// unrecoverable process-level failure the service logs the cause, drains the
// listener best-effort, and exits non-zero for the supervisor to restart.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/maternal-survey/survey-api/internal/logging"
)

// Listener is the active HTTP listener drained before exit.
type Listener interface {
	Shutdown(ctx context.Context) error
}

const defaultDrainTimeout = 10 * time.Second

// Guard is configured once at startup and tripped from exactly two fault
// observation points: an asynchronous listener/worker failure, or a panic
// escaping a goroutine the gateway owns. There is no recovery path.
type Guard struct {
	listener Listener
	log      *logging.Logger
	drain    time.Duration
	exit     func(int)
	once     sync.Once
}

// NewGuard creates a guard over the active listener.
func NewGuard(listener Listener, log *logging.Logger) *Guard {
	return &Guard{
		listener: listener,
		log:      log,
		drain:    defaultDrainTimeout,
		exit:     os.Exit,
	}
}

// WithDrainTimeout overrides the shutdown drain deadline.
func (g *Guard) WithDrainTimeout(d time.Duration) *Guard {
	g.drain = d
	return g
}

// WithExitFunc overrides process termination, for tests.
func (g *Guard) WithExitFunc(fn func(int)) *Guard {
	g.exit = fn
	return g
}

// AsyncFailure trips the guard for a failure observed outside any request,
// such as the listener dying.
func (g *Guard) AsyncFailure(err error) {
	g.trip(g.log.WithError(err), "unhandled async failure")
}

// Panic trips the guard for a panic that escaped to the top of a goroutine.
func (g *Guard) Panic(v interface{}) {
	g.trip(g.log.WithField("panic", fmt.Sprint(v)).WithField("stack", string(debug.Stack())), "uncaught panic")
}

// Go runs fn on a new goroutine under the guard: a returned error or an
// escaped panic trips the fatal fault path.
func (g *Guard) Go(fn func() error) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				g.Panic(rec)
			}
		}()
		if err := fn(); err != nil {
			g.AsyncFailure(err)
		}
	}()
}

// trip logs the fault, drains the listener, and exits 1. Only the first
// trigger acts; the process is gone before a second can matter.
func (g *Guard) trip(entry interface{ Error(...interface{}) }, reason string) {
	g.once.Do(func() {
		entry.Error(reason + "; shutting down")

		if g.listener != nil {
			ctx, cancel := context.WithTimeout(context.Background(), g.drain)
			defer cancel()
			if err := g.listener.Shutdown(ctx); err != nil {
				g.log.WithError(err).Error("listener shutdown failed")
			}
		}

		g.exit(1)
	})
}
