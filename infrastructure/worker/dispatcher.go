// Package worker runs the periodic publishing jobs.
package worker

import (
	"context"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/infrastructure/logger"

	"github.com/robfig/cron/v3"
)

// DueRunner publishes content whose scheduled time has passed.
type DueRunner interface {
	RunDue(ctx context.Context) (*dto.RunDueResponse, error)
}

// StatePurger deletes authorization states past their TTL.
type StatePurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Dispatcher drives RunDue on a cron schedule. Overlapping runs are skipped, so one
// dispatcher per deployment keeps each item claimed by a single run. The batch itself
// carries no deadline; the runner bounds each item.
type Dispatcher struct {
	cron   *cron.Cron
	runner DueRunner
	purger StatePurger
	now    func() time.Time
}

func NewDispatcher(runner DueRunner, purger StatePurger) *Dispatcher {
	return &Dispatcher{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		runner: runner,
		purger: purger,
		now:    time.Now,
	}
}

// Schedule registers the dispatch job on spec (e.g. "@every 1m") and, when a purger
// is set, an hourly cleanup of stale authorization states.
func (d *Dispatcher) Schedule(spec string) error {
	if _, err := d.cron.AddFunc(spec, d.RunOnce); err != nil {
		return err
	}
	if d.purger != nil {
		if _, err := d.cron.AddFunc("@hourly", d.PurgeOnce); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) RunOnce() {
	started := d.now()
	summary, err := d.runner.RunDue(context.Background())
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Scheduled dispatch failed")
		return
	}
	if summary.Processed > 0 {
		logger.GetLogger().WithFields(map[string]interface{}{
			"processed": summary.Processed,
			"published": summary.Published,
			"failed":    summary.Failed,
			"took":      d.now().Sub(started).String(),
		}).Info("Scheduled dispatch finished")
	}
}

func (d *Dispatcher) PurgeOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := d.purger.PurgeExpired(ctx, d.now().UTC())
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("OAuth state purge failed")
		return
	}
	if n > 0 {
		logger.GetLogger().WithField("purged", n).Info("Expired OAuth states removed")
	}
}

// Run starts the scheduler and blocks until ctx is done, then waits for running jobs.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.cron.Start()
	<-ctx.Done()
	<-d.cron.Stop().Done()
	return nil
}
