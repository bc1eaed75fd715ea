package controllers

import (
	"context"
	"sort"
	"sync"
	"time"

	"portfolio/src/config"
	"portfolio/src/scheduler"
	"portfolio/src/services"
	"portfolio/src/utils"

	"github.com/sirupsen/logrus"
)

const (
	PriceRefreshTask = "price-refresh"
	SnapshotTask     = "performance-snapshot"
)

type Controller struct {
	PriceRefresh   services.PriceRefreshServiceI
	Performance    services.PerformanceServiceI
	Logger         *logrus.Logger
	SchedulerMutex sync.Mutex
	Schedulers     map[string]*scheduler.ScheduledTask
	now            func() time.Time
}

func NewController(priceRefresh services.PriceRefreshServiceI, performance services.PerformanceServiceI, logger *logrus.Logger) *Controller {
	return &Controller{
		PriceRefresh: priceRefresh,
		Performance:  performance,
		Logger:       logger,
		Schedulers:   map[string]*scheduler.ScheduledTask{},
		now:          time.Now,
	}
}

type ScheduleInfo struct {
	Name string    `json:"name"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next"`
}

func (c *Controller) RefreshPrices(ctx context.Context) (*services.RefreshSummary, error) {
	return c.PriceRefresh.RefreshAll(ctx)
}

func (c *Controller) SnapshotPerformance(ctx context.Context) (*services.SnapshotSummary, error) {
	return c.Performance.SnapshotAll(ctx, c.now())
}

// LoadSchedules registers the price refresh and snapshot jobs. An empty spec disables a job.
func (c *Controller) LoadSchedules(cfg config.SchedulerConfig) error {
	if cfg.PriceRefreshCron != "" {
		err := c.ScheduleTask(PriceRefreshTask, cfg.PriceRefreshCron, func(ctx context.Context) error {
			_, err := c.RefreshPrices(ctx)
			return err
		})
		if err != nil {
			return err
		}
	}
	if cfg.SnapshotCron != "" {
		err := c.ScheduleTask(SnapshotTask, cfg.SnapshotCron, func(ctx context.Context) error {
			_, err := c.SnapshotPerformance(ctx)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ScheduleTask replaces any task already registered under name.
func (c *Controller) ScheduleTask(name, spec string, taskFunc func(ctx context.Context) error) error {
	c.SchedulerMutex.Lock()
	if existingTask, exists := c.Schedulers[name]; exists {
		existingTask.Cancel()
		delete(c.Schedulers, name)
	}
	c.SchedulerMutex.Unlock()

	entry := c.Logger.WithField("task", name)
	newTask, err := scheduler.NewScheduledTask(name, spec, c.Logger, func(ctx context.Context) error {
		return taskFunc(utils.WithLogger(ctx, entry))
	})
	if err != nil {
		return err
	}

	c.SchedulerMutex.Lock()
	c.Schedulers[name] = newTask
	c.SchedulerMutex.Unlock()

	entry.WithFields(logrus.Fields{"spec": spec, "next": newTask.Next()}).Info("Task scheduled")
	return nil
}

func (c *Controller) ListSchedules() []ScheduleInfo {
	c.SchedulerMutex.Lock()
	defer c.SchedulerMutex.Unlock()

	schedules := make([]ScheduleInfo, 0, len(c.Schedulers))
	for name, task := range c.Schedulers {
		schedules = append(schedules, ScheduleInfo{Name: name, Spec: task.Spec, Next: task.Next()})
	}
	sort.Slice(schedules, func(i, j int) bool { return schedules[i].Name < schedules[j].Name })
	return schedules
}

func (c *Controller) StopSchedules() {
	c.SchedulerMutex.Lock()
	defer c.SchedulerMutex.Unlock()
	for name, task := range c.Schedulers {
		task.Cancel()
		delete(c.Schedulers, name)
	}
}
