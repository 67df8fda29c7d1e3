package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// ExpirationSweeper periodically flips listings past their expiry into the
// expired state. It owns its goroutine: Start launches the ticker, Stop
// shuts it down and waits for the in-flight sweep to finish.
type ExpirationSweeper struct {
	store    ListingStore
	now      func() time.Time
	interval time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

func NewExpirationSweeper(store ListingStore, now func() time.Time, interval time.Duration) *ExpirationSweeper {
	if now == nil {
		now = time.Now
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &ExpirationSweeper{
		store:    store,
		now:      now,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start runs one immediate sweep and then sweeps on every tick until Stop.
func (s *ExpirationSweeper) Start() {
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()

			s.sweepTick()

			ticker := time.NewTicker(s.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					s.sweepTick()
				case <-s.done:
					return
				}
			}
		}()
	})
}

// Stop halts the ticker. Safe to call more than once.
func (s *ExpirationSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

// sweepTick contains errors: a failed sweep is logged and the next tick
// proceeds normally.
func (s *ExpirationSweeper) sweepTick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expired, err := s.Sweep(ctx, s.now())
	if err != nil {
		log.Printf("listing expiration sweep failed: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("expired %d listing(s)", expired)
	}
}

// Sweep flips every available listing with expiry <= now to expired and
// returns the count. Running it twice with the same now is a no-op the
// second time: expired listings no longer match the selection.
func (s *ExpirationSweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	return s.store.Expire(ctx, now)
}
