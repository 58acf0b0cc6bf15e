package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"llm-orchestrator/core/models"
)

// watchdog supervises running jobs: a job with no progress update within
// the stall timeout is marked failed rather than left running indefinitely.
func (s *Scheduler) watchdog(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.WatchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.failStalledJobs()
		}
	}
}

// failStalledJobs scans running jobs and fails the ones that stalled.
// The cancel flag is also set so the orphaned training loop stops at its
// next step boundary instead of writing into a finished record.
func (s *Scheduler) failStalledJobs() {
	now := time.Now()

	type stalled struct {
		snapshot models.TrainingJob
		from     models.JobStatus
	}
	var found []stalled

	s.mu.Lock()
	for _, rec := range s.jobs {
		if rec.job.Status != models.JobStatusRunning {
			continue
		}
		idle := now.Sub(rec.lastProgressAt)
		if idle <= s.cfg.StallTimeout {
			continue
		}
		from := rec.job.Status
		s.finishLocked(rec, models.JobStatusFailed,
			fmt.Sprintf("no progress update within %s (stalled for %s)", s.cfg.StallTimeout, idle.Round(time.Second)))
		rec.cancelRequested = true
		found = append(found, stalled{snapshot: rec.job, from: from})
	}
	s.mu.Unlock()

	for _, f := range found {
		log.Printf("Watchdog failed stalled job %s", f.snapshot.ID)
		s.persist(&f.snapshot, &f.from, models.JobStatusFailed, "stall_timeout")
	}
}
