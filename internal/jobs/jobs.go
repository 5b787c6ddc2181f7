// Package jobs runs the periodic maintenance work: appointment reminders,
// subscription expiry, low-stock digests and session cleanup.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const jobTimeout = 2 * time.Minute

// Func does one round of work and reports how many records it touched.
type Func func(ctx context.Context) (int64, error)

type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler() *Scheduler {
	logger := cronLogger{entry: log.WithField("component", "jobs")}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers fn under a standard five-field cron spec.
func (s *Scheduler) Add(name, spec string, fn Func) error {
	if _, err := s.cron.AddFunc(spec, s.runner(name, fn)); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	log.WithFields(log.Fields{"job": name, "spec": spec}).Info("job scheduled")
	return nil
}

func (s *Scheduler) runner(name string, fn Func) func() {
	return func() {
		ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
		defer cancel()

		started := time.Now()
		n, err := fn(ctx)
		entry := log.WithFields(log.Fields{"job": name, "took": time.Since(started).String()})
		if err != nil {
			entry.WithError(err).Error("job failed")
			return
		}
		entry.WithField("affected", n).Info("job finished")
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Warn("jobs did not stop before shutdown deadline")
	}
}

func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

type cronLogger struct {
	entry *log.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(kv []interface{}) log.Fields {
	out := log.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		out[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return out
}
