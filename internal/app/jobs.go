package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// HealthStatus is the outcome of the most recent store ping.
type HealthStatus struct {
	CheckedAt time.Time
	Err       error
}

// Reachable reports whether the last ping succeeded; false before any check.
func (h HealthStatus) Reachable() bool {
	return !h.CheckedAt.IsZero() && h.Err == nil
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.UTC
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	interval := a.appConfig.Database.HealthInterval
	if interval <= 0 {
		return
	}
	_, err = a.sched.AddFunc("@every "+interval.String(), a.SchedStoreHealthTask)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
		return
	}
	a.sched.Start()
}

// SchedStoreHealthTask pings the store and records the result. It only
// observes; an unreachable store is never reconnected.
func (a *Application) SchedStoreHealthTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	if a.store == nil {
		return
	}

	timeout := a.appConfig.Database.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := a.store.Ping(ctx)
	if err != nil {
		zap.L().Warn("database ping failed", zap.Error(err))
	}
	a.recordHealth(err)
}

func (a *Application) recordHealth(err error) {
	a.healthMu.Lock()
	a.health = HealthStatus{CheckedAt: time.Now(), Err: err}
	a.healthMu.Unlock()
}

func (a *Application) Health() HealthStatus {
	a.healthMu.RLock()
	defer a.healthMu.RUnlock()
	return a.health
}
