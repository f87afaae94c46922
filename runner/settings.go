package runner

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mitchcodes/datautils"
	"github.com/mitchcodes/datautils/event"
	"github.com/mitchcodes/datautils/middleware"
)

// Settings holds the runner configuration. Values are fixed at
// construction.
type Settings struct {
	// IdleInterval is the pause between polls when the queue was empty.
	IdleInterval time.Duration

	// WorkingInterval is the pause between polls after a job was
	// dispatched, and the delay before the first poll after Start.
	WorkingInterval time.Duration

	// AutoStart starts the runner when a job is added to an idle runner.
	AutoStart bool

	// AutoStopOnNoJobs stops the runner once a poll finds the queue empty.
	AutoStopOnNoJobs bool

	// JobTimeout bounds jobs that do not set their own timeout. Zero
	// means no limit.
	JobTimeout time.Duration
}

// DefaultSettings returns the default runner settings.
func DefaultSettings() Settings {
	return Settings{
		IdleInterval:     250 * time.Millisecond,
		WorkingInterval:  50 * time.Millisecond,
		AutoStart:        true,
		AutoStopOnNoJobs: true,
	}
}

func (s Settings) validate() error {
	if s.IdleInterval < 0 || s.WorkingInterval < 0 || s.JobTimeout < 0 {
		return fmt.Errorf("%w: negative duration", datautils.ErrInvalidSettings)
	}
	return nil
}

// Option configures a Runner.
type Option func(*Runner) error

// WithSettings replaces all settings at once.
func WithSettings(s Settings) Option {
	return func(r *Runner) error {
		r.settings = s
		return nil
	}
}

// WithIdleInterval sets Settings.IdleInterval.
func WithIdleInterval(d time.Duration) Option {
	return func(r *Runner) error {
		r.settings.IdleInterval = d
		return nil
	}
}

// WithWorkingInterval sets Settings.WorkingInterval.
func WithWorkingInterval(d time.Duration) Option {
	return func(r *Runner) error {
		r.settings.WorkingInterval = d
		return nil
	}
}

// WithAutoStart sets Settings.AutoStart.
func WithAutoStart(enabled bool) Option {
	return func(r *Runner) error {
		r.settings.AutoStart = enabled
		return nil
	}
}

// WithAutoStopOnNoJobs sets Settings.AutoStopOnNoJobs.
func WithAutoStopOnNoJobs(enabled bool) Option {
	return func(r *Runner) error {
		r.settings.AutoStopOnNoJobs = enabled
		return nil
	}
}

// WithJobTimeout sets Settings.JobTimeout.
func WithJobTimeout(d time.Duration) Option {
	return func(r *Runner) error {
		r.settings.JobTimeout = d
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger == nil {
			return fmt.Errorf("%w: nil logger", datautils.ErrInvalidSettings)
		}
		r.logger = logger
		return nil
	}
}

// WithEventBus publishes lifecycle events on bus instead of a private one.
func WithEventBus(bus *event.Bus) Option {
	return func(r *Runner) error {
		r.events = bus
		return nil
	}
}

// WithMiddleware appends middleware to the job execution chain. Panic
// recovery and the job timeout always run outside of it.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(r *Runner) error {
		r.middleware = append(r.middleware, mws...)
		return nil
	}
}
