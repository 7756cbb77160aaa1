package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sahayak/internal/config"
	"sahayak/pkg/logger"

	"github.com/robfig/cron/v3"
)

// NotificationRetrier periodically re-sends notifications whose first push
// failed or never completed.
type NotificationRetrier struct {
	service NotificationService
	config  *config.OutboxConfig
	logger  *logger.Logger
	cron    *cron.Cron
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

func NewNotificationRetrier(service NotificationService, cfg *config.OutboxConfig, timeout time.Duration, log *logger.Logger) *NotificationRetrier {
	cl := cronLogger{log: log.WithField("component", "notification_retrier")}
	return &NotificationRetrier{
		service: service,
		config:  cfg,
		logger:  cl.log,
		timeout: timeout,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// Start schedules the retry job. It is a no-op when the outbox is disabled.
func (r *NotificationRetrier) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.config.Enabled || r.running {
		return nil
	}
	if _, err := r.cron.AddFunc(r.config.Schedule, r.RunOnce); err != nil {
		return fmt.Errorf("invalid outbox schedule %q: %w", r.config.Schedule, err)
	}
	r.cron.Start()
	r.running = true
	r.logger.WithField("schedule", r.config.Schedule).Info("Notification retrier started")
	return nil
}

// Stop waits for an in-flight run to finish or ctx to expire.
func (r *NotificationRetrier) Stop(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}
	r.running = false
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
		r.logger.Warn("Notification retrier did not stop before deadline")
	}
}

func (r *NotificationRetrier) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if _, err := r.service.RetryUndelivered(ctx); err != nil {
		r.logger.WithError(err).Error("Notification retry run failed")
	}
}

type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.WithFields(kvFields(keysAndValues)).WithError(err).Error(msg)
}

func kvFields(keysAndValues []interface{}) logger.Fields {
	fields := logger.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
