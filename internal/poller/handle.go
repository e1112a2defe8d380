package poller

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

const cycleKey = "cycle"

// Handle controls a started Poller.
type Handle struct {
	p      *Poller
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	stopped  bool
	waiters  sync.WaitGroup
	inFlight atomic.Bool
}

// Stop cancels the loop and any in-flight cycle, then waits for both to exit.
// It is safe to call more than once.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Done is closed once the loop and its cycles have exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Refresh runs a cycle now and waits for it. If a cycle is already in flight
// Refresh joins it instead of starting another.
func (h *Handle) Refresh(ctx context.Context) error {
	ch, ok := h.start()
	if !ok {
		return ErrStopped
	}
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// trigger is called by the ticker; it never blocks on the cycle.
func (h *Handle) trigger() {
	if h.inFlight.Load() {
		h.p.skipped.Add(h.ctx, 1)
		h.p.logger.Debug().Msg("Previous cycle still in flight, skipping tick")
		return
	}
	h.start()
}

// start joins or begins the shared cycle. Every caller is tracked until the
// cycle it joined returns so the loop can wait for them on exit.
func (h *Handle) start() (<-chan singleflight.Result, bool) {
	h.mu.Lock()
	if h.stopped || h.ctx.Err() != nil {
		h.mu.Unlock()
		return nil, false
	}
	h.waiters.Add(1)
	h.mu.Unlock()

	ch := h.p.group.DoChan(cycleKey, func() (interface{}, error) {
		h.inFlight.Store(true)
		defer h.inFlight.Store(false)
		return nil, h.p.run(h.ctx)
	})

	out := make(chan singleflight.Result, 1)
	go func() {
		defer h.waiters.Done()
		out <- <-ch
	}()
	return out, true
}

// drain marks the handle stopped and waits for outstanding cycles.
func (h *Handle) drain() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	h.waiters.Wait()
}
