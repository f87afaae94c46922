package job

import (
	"time"

	"github.com/mitchcodes/datautils/id"
)

// Options configures a job at construction time.
type Options struct {
	// ID overrides the generated job ID.
	ID id.JobID

	// GroupName and MaxConcurrent place the job in a concurrency group.
	// MaxConcurrent <= 1 leaves the job sequential.
	GroupName     string
	MaxConcurrent int

	// Timeout is the maximum duration the job may run. Zero means no
	// per-job limit (the runner-wide limit, if any, still applies).
	Timeout time.Duration
}

// Option is a functional option for New.
type Option func(*Options)

// WithGroup places the job in the named concurrency group.
func WithGroup(name string, maxConcurrent int) Option {
	return func(o *Options) {
		o.GroupName = name
		o.MaxConcurrent = maxConcurrent
	}
}

// WithTimeout sets the maximum execution duration for the job.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithID sets an explicit job ID.
func WithID(jobID id.JobID) Option {
	return func(o *Options) {
		o.ID = jobID
	}
}
