package timeline

import (
	"sync"
	"time"
)

// FollowTicker is the explicit animation port for "keep an element glued
// to a moving viewport" behavior: a frame-synchronized loop that only
// reads already-computed positions and does no interval math. It must be
// cancellable and stop immediately when the owning gesture ends.
type FollowTicker interface {
	Start(fn func(now time.Time))
	Stop()
}

// frameInterval approximates a 60Hz display.
const frameInterval = time.Second / 60

// FrameTicker drives a follow callback off a time.Ticker. Start is
// one-shot per ticker; Stop is idempotent and safe from any goroutine.
type FrameTicker struct {
	mu     sync.Mutex
	stopCh chan struct{}
}

func NewFrameTicker() *FrameTicker {
	return &FrameTicker{}
}

func (t *FrameTicker) Start(fn func(now time.Time)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopCh != nil {
		return
	}
	stop := make(chan struct{})
	t.stopCh = stop

	go func() {
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				fn(now)
			}
		}
	}()
}

func (t *FrameTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopCh == nil {
		return
	}
	close(t.stopCh)
	t.stopCh = nil
}

// ManualTicker is a FollowTicker for tests: frames fire only when Tick
// is called.
type ManualTicker struct {
	mu      sync.Mutex
	fn      func(now time.Time)
	stopped bool
	Frames  int
}

func NewManualTicker() *ManualTicker {
	return &ManualTicker{}
}

func (t *ManualTicker) Start(fn func(now time.Time)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fn = fn
	t.stopped = false
}

func (t *ManualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.fn = nil
}

// Tick fires one frame. Returns false once the ticker has been stopped.
func (t *ManualTicker) Tick(now time.Time) bool {
	t.mu.Lock()
	fn := t.fn
	stopped := t.stopped
	t.mu.Unlock()
	if stopped || fn == nil {
		return false
	}
	fn(now)
	t.mu.Lock()
	t.Frames++
	t.mu.Unlock()
	return true
}
