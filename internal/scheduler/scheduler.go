// Package scheduler runs the pipeline's batch jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/etrm-io/backoffice/pkg/logger"
)

// Scheduler manages scheduled jobs. A job failure is logged and the job is
// considered done; there are no automatic retries.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger

	mu   sync.RWMutex
	jobs map[string]Job
}

// New creates a new scheduler.
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log,
		jobs: make(map[string]Job),
	}
}

// AddJob registers a job with the scheduler.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	_, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = job

	s.log.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("job added to scheduler")

	return nil
}

// Jobs returns the names of all registered jobs.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.log.Info("starting scheduler")
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.log.Info("stopping scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

// runJob executes a job once. Panics are recovered so a broken job run never
// takes the scheduler down with it.
func (s *Scheduler) runJob(job Job) {
	name := job.Name()
	start := time.Now()

	log := s.log.WithField("job", name)
	log.Info("job started")

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("job panicked: %v", r)
		}
	}()

	if err := job.Run(context.Background()); err != nil {
		log.WithError(err).Error("job failed")
		return
	}

	log.Infof("job completed in %s", time.Since(start))
}
