/*
scheduler.go - Background finalization sweeper

PURPOSE:
  Periodically scans open plans for ones whose target has been met but whose
  result was never written. This covers the crash window between a session
  commit and the finalization it should have triggered: if the server dies
  after the append, the next sweep finishes the job.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Scans plans in the in-progress and pending-confirmation states
  - Recomputes progress from the ledger; finalization is only attempted when
    the target is met
  - Finalization itself is idempotent, so a sweep racing a live submission
    is harmless

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 minute)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewFinalizationSweeper(store)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - mes/finalize.go: Finalization coordinator
  - handlers.go: SubmitSession (the normal finalization path)
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/production-engine/mes"
	"github.com/warp/production-engine/store/sqlite"
)

// FinalizationSweeper closes out plans that reached their target without
// being finalized inline.
type FinalizationSweeper struct {
	Store         *sqlite.Store
	CheckInterval time.Duration
	Enabled       bool

	tracker *mes.Tracker
	ticker  *time.Ticker
	stop    chan bool
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// NewFinalizationSweeper creates a new sweeper.
func NewFinalizationSweeper(store *sqlite.Store) *FinalizationSweeper {
	return &FinalizationSweeper{
		Store:         store,
		CheckInterval: 1 * time.Minute,
		Enabled:       true,
		tracker:       mes.NewTracker(store),
		stop:          make(chan bool),
	}
}

// Start begins the sweeper.
func (fs *FinalizationSweeper) Start() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !fs.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	fs.ticker = time.NewTicker(fs.CheckInterval)
	fs.wg.Add(1)

	go fs.run()

	log.Printf("[Sweeper] Started with check interval: %v", fs.CheckInterval)
}

// Stop stops the sweeper.
func (fs *FinalizationSweeper) Stop() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.ticker != nil {
		fs.ticker.Stop()
		close(fs.stop)
		fs.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (fs *FinalizationSweeper) run() {
	defer fs.wg.Done()

	// Run immediately on start
	fs.checkAndProcess()

	for {
		select {
		case <-fs.ticker.C:
			fs.checkAndProcess()
		case <-fs.stop:
			return
		}
	}
}

func (fs *FinalizationSweeper) checkAndProcess() {
	ctx := context.Background()

	plans, err := fs.Store.ListPlansByStatus(ctx, mes.StatusInProgress, mes.StatusPendingConfirmation)
	if err != nil {
		log.Printf("[Sweeper] Error listing open plans: %v", err)
		return
	}

	finalized := 0
	for _, plan := range plans {
		snap, err := fs.tracker.Progress(ctx, plan.ID)
		if err != nil {
			log.Printf("[Sweeper] Error computing progress for %s: %v", plan.ID, err)
			continue
		}
		if !snap.IsCompleted {
			continue
		}

		result, performed, err := fs.tracker.Finalize(ctx, plan.ID)
		if err != nil {
			log.Printf("[Sweeper] Error finalizing %s: %v", plan.ID, err)
			continue
		}
		if performed {
			finalized++
			overall, _ := result.OEE.Overall.Float64()
			log.Printf("[Sweeper] Finalized %s: produced=%d sessions=%d oee=%.1f%%",
				plan.ID, result.TotalProduced, result.SessionCount, overall)
		}
	}

	if finalized > 0 {
		log.Printf("[Sweeper] Completed: %d plan(s) finalized", finalized)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (fs *FinalizationSweeper) RunNow() {
	fs.checkAndProcess()
}
