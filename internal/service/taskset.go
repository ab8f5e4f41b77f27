package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// TaskSet tracks detached units of work spawned away from any connection's
// lifetime. Tasks are not retried and not persisted: if the process exits
// without draining, in-flight work is lost. That tradeoff is intentional.
type TaskSet struct {
	wg sync.WaitGroup

	mu    sync.Mutex
	count int
}

func NewTaskSet() *TaskSet {
	return &TaskSet{}
}

// Go spawns fn on its own goroutine and tracks it until completion.
func (t *TaskSet) Go(fn func()) {
	t.wg.Add(1)
	t.mu.Lock()
	t.count++
	t.mu.Unlock()

	go func() {
		defer func() {
			t.mu.Lock()
			t.count--
			t.mu.Unlock()
			t.wg.Done()
		}()
		fn()
	}()
}

// Len returns the number of tasks currently in flight.
func (t *TaskSet) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Drain waits for outstanding tasks until ctx expires. It is best-effort:
// tasks still running at the deadline keep running, they are just no longer
// waited on.
func (t *TaskSet) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		log.Warn().Int("inFlight", t.Len()).Msg("task drain deadline reached")
		return ctx.Err()
	}
}
