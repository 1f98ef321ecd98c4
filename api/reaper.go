/*
reaper.go - Eviction of idle live episodes

PURPOSE:
  Live episodes keep a cursor in memory until a client walks them to the
  terminal period. Clients that go away leave cursors behind; the reaper
  drops any cursor not touched within the TTL. Journals stay in the
  database and remain readable through GET /api/episodes/{id}.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Evicts episodes whose last step or reset is older than TTL
  - Stepping an evicted episode answers 409

USAGE:
  reaper := NewCursorReaper(handler)
  reaper.TTL = 30 * time.Minute
  reaper.Start()
  // ... later
  reaper.Stop()

SEE ALSO:
  - handlers.go: EvictIdle
*/
package api

import (
	"log"
	"sync"
	"time"
)

// CursorReaper periodically evicts idle live episodes.
type CursorReaper struct {
	Handler       *Handler
	TTL           time.Duration
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewCursorReaper creates a reaper with a 30 minute TTL checked every minute.
func NewCursorReaper(handler *Handler) *CursorReaper {
	return &CursorReaper{
		Handler:       handler,
		TTL:           30 * time.Minute,
		CheckInterval: time.Minute,
		Enabled:       true,
	}
}

// Start begins the reaper.
func (cr *CursorReaper) Start() {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if !cr.Enabled || cr.TTL <= 0 {
		log.Println("[Reaper] Disabled, not starting")
		return
	}
	if cr.CheckInterval <= 0 {
		log.Printf("[Reaper] Invalid check interval %v, not starting", cr.CheckInterval)
		return
	}
	if cr.ticker != nil {
		return
	}

	cr.ticker = time.NewTicker(cr.CheckInterval)
	cr.stop = make(chan struct{})
	cr.wg.Add(1)

	go cr.run(cr.ticker, cr.stop)

	log.Printf("[Reaper] Started with TTL %v, check interval %v", cr.TTL, cr.CheckInterval)
}

// Stop stops the reaper. It is safe to call more than once.
func (cr *CursorReaper) Stop() {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.ticker != nil {
		cr.ticker.Stop()
		close(cr.stop)
		cr.wg.Wait()
		cr.ticker = nil
		log.Println("[Reaper] Stopped")
	}
}

func (cr *CursorReaper) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer cr.wg.Done()

	for {
		select {
		case <-ticker.C:
			cr.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow evicts idle episodes immediately and reports how many went.
func (cr *CursorReaper) RunNow() int {
	evicted := cr.Handler.EvictIdle(cr.Handler.now().Add(-cr.TTL))
	if evicted > 0 {
		log.Printf("[Reaper] Evicted %d idle episodes, %d still live", evicted, cr.Handler.LiveEpisodes())
	}
	return evicted
}
