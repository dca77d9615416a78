package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mondoohq/console-core/pkg/config"
)

// Refresher keeps the bearer credential fresh in the background and
// enforces the maximum session age. Each tick it asks the identity
// backend for the current token, which triggers a refresh when the
// token is within its staleness window, and signs the session out once
// it exceeds the configured bound.
type Refresher struct {
	machine *Machine
	cfg     config.SessionConfig
	logger  *logrus.Entry
	cron    *cron.Cron
}

// NewRefresher builds a refresher for the given machine. Zero values in
// cfg fall back to a one-minute check interval and an eight-hour
// session bound.
func NewRefresher(machine *Machine, cfg config.SessionConfig, logger *logrus.Entry) *Refresher {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = time.Minute
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = 8 * time.Hour
	}
	return &Refresher{
		machine: machine,
		cfg:     cfg,
		logger:  logger.WithField("component", "auth.refresher"),
	}
}

// Start schedules the background tick. Call Stop to shut it down.
func (r *Refresher) Start() error {
	r.cron = cron.New()
	spec := fmt.Sprintf("@every %s", r.cfg.RefreshInterval)
	if _, err := r.cron.AddFunc(spec, r.tick); err != nil {
		return fmt.Errorf("scheduling token refresh: %w", err)
	}
	r.cron.Start()
	r.logger.WithField("interval", r.cfg.RefreshInterval.String()).Debug("token refresher started")
	return nil
}

// Stop halts the schedule and waits for a running tick to finish.
func (r *Refresher) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

func (r *Refresher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	r.Tick(ctx)
}

// Tick performs one refresh pass. It is exported so callers that manage
// their own scheduling can drive it directly.
func (r *Refresher) Tick(ctx context.Context) {
	if r.machine.Status() != StatusAuthenticated {
		return
	}

	start := r.machine.SessionStart()
	if !start.IsZero() && time.Since(start) > r.cfg.MaxDuration {
		r.logger.WithField("session_age", time.Since(start).String()).Info("session exceeded maximum duration, signing out")
		if err := r.machine.SignOut(ctx); err != nil {
			r.logger.WithError(err).Warn("forced sign-out failed")
		}
		return
	}

	// Token refreshes through the adapter when the credential is within
	// its staleness window.
	if _, err := r.machine.Token(ctx); err != nil {
		r.logger.WithError(err).Warn("token refresh failed")
	}
}
