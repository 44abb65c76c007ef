package indexer

import (
	"context"
	"log"
	"sync"
	"time"
)

const deepDocsInterval = 7 * 24 * time.Hour

// schedules owns the two background tickers. The index schedule and the
// docs schedule start and stop independently.
type schedules struct {
	mu       sync.Mutex
	stopIdx  chan struct{}
	stopDocs chan struct{}
	wg       sync.WaitGroup
}

// StartSchedule launches the periodic index batch. A second call while
// the schedule is running is a no-op.
func (idx *Indexer) StartSchedule(ctx context.Context, interval time.Duration) {
	idx.sched.mu.Lock()
	defer idx.sched.mu.Unlock()
	if idx.sched.stopIdx != nil {
		return
	}

	stop := make(chan struct{})
	idx.sched.stopIdx = stop
	idx.sched.wg.Add(1)

	go func() {
		defer idx.sched.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				idx.RunBatch(ctx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (idx *Indexer) StopSchedule() {
	idx.sched.mu.Lock()
	if idx.sched.stopIdx != nil {
		close(idx.sched.stopIdx)
		idx.sched.stopIdx = nil
	}
	idx.sched.mu.Unlock()
}

// StartDocsSchedule launches the periodic documentation refresh. When
// deepWeekly is set, one pass per week clears the doc namespace before
// re-scanning.
func (idx *Indexer) StartDocsSchedule(ctx context.Context, interval time.Duration, deepWeekly bool) {
	idx.sched.mu.Lock()
	defer idx.sched.mu.Unlock()
	if idx.sched.stopDocs != nil {
		return
	}

	stop := make(chan struct{})
	idx.sched.stopDocs = stop
	idx.sched.wg.Add(1)

	go func() {
		defer idx.sched.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		lastDeep := time.Now()
		for {
			select {
			case <-ticker.C:
				deep := deepWeekly && time.Since(lastDeep) >= deepDocsInterval
				if deep {
					lastDeep = time.Now()
				}
				if err := idx.RunDocsBatch(ctx, deep); err != nil {
					log.Printf("docs refresh failed: %v", err)
				}
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (idx *Indexer) StopDocsSchedule() {
	idx.sched.mu.Lock()
	if idx.sched.stopDocs != nil {
		close(idx.sched.stopDocs)
		idx.sched.stopDocs = nil
	}
	idx.sched.mu.Unlock()
}

// StopAll stops both schedules and waits for their goroutines to exit.
func (idx *Indexer) StopAll() {
	idx.StopSchedule()
	idx.StopDocsSchedule()
	idx.sched.wg.Wait()
}

// Stats reports scheduler and batch state.
type Stats struct {
	BatchInFlight      bool `json:"batch_in_flight"`
	DocsInFlight       bool `json:"docs_in_flight"`
	ScheduleRunning    bool `json:"schedule_running"`
	DocsScheduleActive bool `json:"docs_schedule_active"`
}

func (idx *Indexer) Stats() Stats {
	idx.sched.mu.Lock()
	defer idx.sched.mu.Unlock()
	return Stats{
		BatchInFlight:      idx.batchInFlight.Load(),
		DocsInFlight:       idx.docsInFlight.Load(),
		ScheduleRunning:    idx.sched.stopIdx != nil,
		DocsScheduleActive: idx.sched.stopDocs != nil,
	}
}
