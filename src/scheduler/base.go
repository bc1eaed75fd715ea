package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ScheduledTask runs a job on a cron schedule until cancelled.
// A run that is still in progress when the next tick fires is skipped.
type ScheduledTask struct {
	Name   string
	Spec   string
	cronID cron.EntryID
	cron   *cron.Cron
	cancel context.CancelFunc
}

func NewScheduledTask(name, cronSpec string, logger *logrus.Logger, taskFunc func(ctx context.Context) error) (*ScheduledTask, error) {
	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	task := &ScheduledTask{
		Name:   name,
		Spec:   cronSpec,
		cron:   c,
		cancel: cancel,
	}

	id, err := c.AddFunc(cronSpec, func() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		start := time.Now()
		entry := logger.WithField("task", name)
		if err := taskFunc(ctx); err != nil {
			entry.WithError(err).Error("Scheduled task failed")
			return
		}
		entry.WithField("elapsed", time.Since(start).String()).Info("Scheduled task finished")
	})
	if err != nil {
		cancel()
		return nil, err
	}

	task.cronID = id
	c.Start()
	return task, nil
}

// Next reports when the task fires again.
func (s *ScheduledTask) Next() time.Time {
	return s.cron.Entry(s.cronID).Next
}

func (s *ScheduledTask) Cancel() {
	s.cron.Remove(s.cronID)
	s.cancel()
	<-s.cron.Stop().Done()
}
