package job

import (
	"context"
	"errors"
	"time"

	"github.com/mitchcodes/datautils/id"
)

// ErrNoWork is returned by Run when the job has no work function.
var ErrNoWork = errors.New("job: no work function")

// Work is the function a job executes. The context is cancelled when the
// job's timeout expires.
type Work func(ctx context.Context) error

// ConcurrencyGroup is a named bucket of jobs that may run in parallel with
// each other, up to MaxConcurrent at a time.
type ConcurrencyGroup struct {
	Name          string `json:"name"`
	MaxConcurrent int    `json:"max_concurrent"`
}

// Job represents a named unit of asynchronous work.
// Treat a Job as immutable once it has been passed to the runner.
type Job struct {
	ID        id.JobID          `json:"id"`
	Name      string            `json:"name"`
	Work      Work              `json:"-"`
	Group     *ConcurrencyGroup `json:"group,omitempty"`
	Timeout   time.Duration     `json:"timeout,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// New creates a job with a fresh ID.
func New(name string, work Work, opts ...Option) *Job {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}

	j := &Job{
		ID:        o.ID,
		Name:      name,
		Work:      work,
		Timeout:   o.Timeout,
		CreatedAt: time.Now().UTC(),
	}
	if j.ID.IsNil() {
		j.ID = id.NewJobID()
	}
	if o.GroupName != "" && o.MaxConcurrent > 1 {
		j.Group = &ConcurrencyGroup{Name: o.GroupName, MaxConcurrent: o.MaxConcurrent}
	}
	return j
}

// Concurrent reports whether the job belongs to a group that allows more
// than one job at a time.
func (j *Job) Concurrent() bool {
	return j != nil && j.Group != nil && j.Group.MaxConcurrent > 1
}

// SameGroup reports whether j and other are both concurrent and share a
// group name.
func (j *Job) SameGroup(other *Job) bool {
	if !j.Concurrent() || !other.Concurrent() {
		return false
	}
	return j.Group.Name == other.Group.Name
}

// GroupName returns the group name, or "" for sequential jobs.
func (j *Job) GroupName() string {
	if !j.Concurrent() {
		return ""
	}
	return j.Group.Name
}

// Run executes the job's work function.
func (j *Job) Run(ctx context.Context) error {
	if j.Work == nil {
		return ErrNoWork
	}
	return j.Work(ctx)
}
