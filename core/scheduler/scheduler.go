package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"llm-orchestrator/core/models"
	"llm-orchestrator/core/registry"
	"llm-orchestrator/core/repository"
	"llm-orchestrator/core/training"

	"github.com/google/uuid"
)

// ErrJobNotFound is returned for unknown job ids
var ErrJobNotFound = errors.New("job not found")

// ErrAlreadyTerminal is returned when cancelling a finished job
var ErrAlreadyTerminal = errors.New("job already in a terminal state")

var (
	errCancelRequested = errors.New("cancel requested")
	errNonFiniteLoss   = errors.New("training loss became non-finite")
)

// Config configures the scheduler
type Config struct {
	MaxConcurrentJobs  int           // Worker pool size; concurrency across domains
	ProgressEverySteps int           // Publish progress at most once per N steps
	StallTimeout       time.Duration // Running job with no progress update is failed
	WatchdogInterval   time.Duration // How often the watchdog scans running jobs
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrentJobs:  2,
		ProgressEverySteps: 10,
		StallTimeout:       5 * time.Minute,
		WatchdogInterval:   10 * time.Second,
	}
}

// jobRecord is the shared, lock-protected status record for one job.
// The training loop and status polling both go through the scheduler mutex,
// but progress is only written at a bounded rate so polling never waits on
// a step in flight.
type jobRecord struct {
	job             models.TrainingJob
	cancelRequested bool
	lastProgressAt  time.Time
}

// Scheduler owns the lifecycle of training jobs: queuing, at-most-one
// running job per domain, progress reporting, cancellation, and handing
// completed checkpoints to the model registry (without activating them).
type Scheduler struct {
	cfg      Config
	trainer  training.Trainer
	registry *registry.Registry
	datasets repository.DatasetStore
	store    repository.JobStore

	mu     sync.Mutex
	jobs   map[string]*jobRecord
	queues map[string]*domainQueue

	tasks    chan string
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(
	cfg Config,
	trainer training.Trainer,
	reg *registry.Registry,
	datasets repository.DatasetStore,
	store repository.JobStore,
) *Scheduler {
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = 2
	}
	if cfg.ProgressEverySteps <= 0 {
		cfg.ProgressEverySteps = 10
	}
	if cfg.WatchdogInterval <= 0 {
		cfg.WatchdogInterval = 10 * time.Second
	}
	return &Scheduler{
		cfg:      cfg,
		trainer:  trainer,
		registry: reg,
		datasets: datasets,
		store:    store,
		jobs:     make(map[string]*jobRecord),
		queues:   make(map[string]*domainQueue),
		tasks:    make(chan string, 64),
		stopChan: make(chan struct{}),
	}
}

// Start launches the worker pool and the stall watchdog
func (s *Scheduler) Start(ctx context.Context) {
	for i := 0; i < s.cfg.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	if s.cfg.StallTimeout > 0 {
		s.wg.Add(1)
		go s.watchdog(ctx)
	}
}

// Stop stops the scheduler workers
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

// Submit queues a training run for the given dataset version and returns
// the job record immediately. A job for a domain already training is queued
// behind it, never rejected.
func (s *Scheduler) Submit(domainID, datasetVersion string, hp models.Hyperparameters) (*models.TrainingJob, error) {
	if hp.Epochs < 1 || hp.BatchSize < 1 || hp.LearningRate <= 0 {
		return nil, fmt.Errorf("invalid hyperparameters: epochs=%d batch_size=%d learning_rate=%g",
			hp.Epochs, hp.BatchSize, hp.LearningRate)
	}
	if _, err := s.datasets.GetDataset(domainID, datasetVersion); err != nil {
		return nil, fmt.Errorf("dataset lookup failed: %w", err)
	}

	rec := &jobRecord{
		job: models.TrainingJob{
			ID:              uuid.New().String(),
			DomainID:        domainID,
			DatasetVersion:  datasetVersion,
			Status:          models.JobStatusQueued,
			Hyperparameters: hp,
			CreatedAt:       time.Now().UTC(),
		},
	}

	// Persist the queued record before the job becomes dispatchable, so
	// a worker's later saves can never be overwritten by this one.
	snapshot := rec.job
	s.persist(&snapshot, nil, models.JobStatusQueued, "job_submitted")

	s.mu.Lock()
	s.jobs[rec.job.ID] = rec
	q := s.queues[domainID]
	if q == nil {
		q = &domainQueue{}
		s.queues[domainID] = q
	}
	q.push(rec.job.ID)
	position := q.position(rec.job.ID)
	s.maybeDispatchLocked(q)
	s.mu.Unlock()

	if position > 1 {
		log.Printf("Job %s queued behind %d job(s) for domain %s", snapshot.ID, position-1, domainID)
	}

	return &snapshot, nil
}

// Status returns a snapshot of the job. Failed jobs stay queryable.
func (s *Scheduler) Status(jobID string) (*models.TrainingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	snapshot := rec.job
	return &snapshot, nil
}

// List returns snapshots of all known jobs, newest first, optionally
// filtered by domain.
func (s *Scheduler) List(domainID string) []*models.TrainingJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.TrainingJob
	for _, rec := range s.jobs {
		if domainID != "" && rec.job.DomainID != domainID {
			continue
		}
		snapshot := rec.job
		out = append(out, &snapshot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Cancel requests cancellation of a job. Queued jobs are cancelled
// immediately; running jobs stop cooperatively at the next step boundary.
func (s *Scheduler) Cancel(jobID string) error {
	s.mu.Lock()
	rec, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		return ErrJobNotFound
	}
	if rec.job.Status.Terminal() {
		s.mu.Unlock()
		return ErrAlreadyTerminal
	}

	if rec.job.Status == models.JobStatusQueued {
		from := rec.job.Status
		s.finishLocked(rec, models.JobStatusCancelled, "")
		snapshot := rec.job
		s.mu.Unlock()
		s.persist(&snapshot, &from, models.JobStatusCancelled, "cancelled_before_start")
		return nil
	}

	// Running: mark for cooperative stop; the training loop observes the
	// flag at the next step boundary and checkpoints before stopping.
	rec.cancelRequested = true
	s.mu.Unlock()
	log.Printf("Cancel requested for running job %s", jobID)
	return nil
}

// worker consumes dispatched jobs until stopped
func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case jobID := <-s.tasks:
			s.runJob(ctx, jobID)
		}
	}
}

// runJob executes one dispatched job to a terminal state and then releases
// the domain so the next queued job can dispatch.
func (s *Scheduler) runJob(ctx context.Context, jobID string) {
	s.mu.Lock()
	rec, ok := s.jobs[jobID]
	if !ok || rec.job.Status != models.JobStatusQueued {
		// Cancelled while queued; just release the domain
		domainID := ""
		if ok {
			domainID = rec.job.DomainID
		}
		s.releaseDomainLocked(domainID)
		s.mu.Unlock()
		return
	}

	from := rec.job.Status
	now := time.Now().UTC()
	rec.job.Status = models.JobStatusRunning
	rec.job.StartedAt = &now
	rec.lastProgressAt = now
	domainID := rec.job.DomainID
	snapshot := rec.job
	s.mu.Unlock()

	s.persist(&snapshot, &from, models.JobStatusRunning, "training_started")
	log.Printf("Job %s running for domain %s (dataset %s)", jobID, domainID, snapshot.DatasetVersion)

	s.train(ctx, rec)

	s.mu.Lock()
	s.releaseDomainLocked(domainID)
	s.mu.Unlock()
}

// train invokes the training primitive and records the terminal transition
func (s *Scheduler) train(ctx context.Context, rec *jobRecord) {
	jobID := rec.job.ID

	ds, err := s.datasets.GetDataset(rec.job.DomainID, rec.job.DatasetVersion)
	if err != nil {
		s.terminate(rec, models.JobStatusFailed, fmt.Sprintf("dataset fetch failed: %v", err), "dataset_fetch_failed")
		return
	}

	onStep := func(step, totalSteps int, loss float64) error {
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return errNonFiniteLoss
		}

		s.mu.Lock()
		rec.lastProgressAt = time.Now()
		if rec.cancelRequested {
			s.mu.Unlock()
			return errCancelRequested
		}
		var snapshot *models.TrainingJob
		if step%s.cfg.ProgressEverySteps == 0 || step == totalSteps {
			rec.job.Progress = models.Progress{
				CurrentStep: step,
				TotalSteps:  totalSteps,
				Loss:        loss,
				UpdatedAt:   time.Now().UTC(),
			}
			copied := rec.job
			snapshot = &copied
		}
		s.mu.Unlock()

		if snapshot != nil {
			if err := s.store.SaveJob(snapshot); err != nil {
				log.Printf("Failed to persist progress for job %s: %v", jobID, err)
			}
		}
		return nil
	}

	result, err := s.trainer.Train(ctx, ds, rec.job.Hyperparameters, onStep)
	if err != nil {
		switch {
		case errors.Is(err, errCancelRequested):
			s.terminate(rec, models.JobStatusCancelled, "", "cancelled_at_step_boundary")
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			s.terminate(rec, models.JobStatusFailed, "training interrupted: "+err.Error(), "context_cancelled")
		default:
			s.terminate(rec, models.JobStatusFailed, err.Error(), "training_failed")
		}
		return
	}

	artifact, err := s.registry.Register(rec.job.DomainID, jobID, result.CheckpointLocation, result.Metrics)
	if err != nil {
		s.terminate(rec, models.JobStatusFailed, fmt.Sprintf("artifact registration failed: %v", err), "registration_failed")
		return
	}

	s.terminate(rec, models.JobStatusCompleted, "", "training_completed")
	log.Printf("Job %s completed, artifact %s (%s) registered inactive", jobID, artifact.ID, artifact.Version)
}

// terminate moves a job to a terminal state unless something else (the
// watchdog) already did.
func (s *Scheduler) terminate(rec *jobRecord, to models.JobStatus, errorMessage, reason string) {
	s.mu.Lock()
	if rec.job.Status.Terminal() {
		s.mu.Unlock()
		return
	}
	from := rec.job.Status
	s.finishLocked(rec, to, errorMessage)
	snapshot := rec.job
	s.mu.Unlock()

	s.persist(&snapshot, &from, to, reason)
}

// finishLocked stamps a terminal state. Caller holds the mutex.
func (s *Scheduler) finishLocked(rec *jobRecord, to models.JobStatus, errorMessage string) {
	now := time.Now().UTC()
	rec.job.Status = to
	rec.job.CompletedAt = &now
	rec.job.ErrorMessage = errorMessage
}

// releaseDomainLocked marks the domain idle and dispatches the next queued
// job for it, if any. Caller holds the mutex.
func (s *Scheduler) releaseDomainLocked(domainID string) {
	q := s.queues[domainID]
	if q == nil {
		return
	}
	q.busy = false
	s.maybeDispatchLocked(q)
}

// maybeDispatchLocked hands the queue head to the worker pool when the
// domain is idle. Caller holds the mutex; the send never blocks under it.
func (s *Scheduler) maybeDispatchLocked(q *domainQueue) {
	if q.busy {
		return
	}
	jobID, ok := q.pop()
	if !ok {
		return
	}
	q.busy = true

	select {
	case s.tasks <- jobID:
	default:
		go func() {
			select {
			case s.tasks <- jobID:
			case <-s.stopChan:
			}
		}()
	}
}

// persist writes the job record and its transition event through the store
func (s *Scheduler) persist(job *models.TrainingJob, from *models.JobStatus, to models.JobStatus, reason string) {
	if err := s.store.SaveJob(job); err != nil {
		log.Printf("Failed to persist job %s: %v", job.ID, err)
	}
	if err := s.store.RecordJobEvent(job.ID, from, to, reason); err != nil {
		log.Printf("Failed to record event for job %s: %v", job.ID, err)
	}
}
