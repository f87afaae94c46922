package runner

import (
	"sync"
	"time"

	"github.com/mitchcodes/datautils/event"
	"github.com/mitchcodes/datautils/job"
)

// pendingJob is a job that has started and belongs to the current
// dispatch mode.
type pendingJob struct {
	job       *job.Job
	startedAt time.Time
	done      chan struct{}
	err       error
	settled   time.Time
}

// pendingList tracks in-flight concurrent jobs until the next drain.
type pendingList struct {
	mu   sync.Mutex
	jobs []*pendingJob
}

func (l *pendingList) start(j *job.Job) *pendingJob {
	pj := &pendingJob{job: j, startedAt: time.Now(), done: make(chan struct{})}
	l.mu.Lock()
	l.jobs = append(l.jobs, pj)
	l.mu.Unlock()
	return pj
}

// settle records the outcome of pj and releases anyone waiting on it.
func (l *pendingList) settle(pj *pendingJob, err error) {
	l.mu.Lock()
	pj.err = err
	pj.settled = time.Now()
	l.mu.Unlock()
	close(pj.done)
}

func (l *pendingList) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.jobs)
}

// take empties the list and returns what it held.
func (l *pendingList) take() []*pendingJob {
	l.mu.Lock()
	defer l.mu.Unlock()
	jobs := l.jobs
	l.jobs = nil
	return jobs
}

func (l *pendingList) snapshot() []event.PendingJob {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]event.PendingJob, len(l.jobs))
	for i, pj := range l.jobs {
		out[i] = pj.snapshotLocked()
	}
	return out
}

func (l *pendingList) snapshotOf(pj *pendingJob) event.PendingJob {
	l.mu.Lock()
	defer l.mu.Unlock()
	return pj.snapshotLocked()
}

func (pj *pendingJob) snapshotLocked() event.PendingJob {
	snap := event.PendingJob{Job: pj.job, StartedAt: pj.startedAt, Err: pj.err}
	if pj.settled.IsZero() {
		snap.Elapsed = time.Since(pj.startedAt)
	} else {
		snap.Elapsed = pj.settled.Sub(pj.startedAt)
	}
	return snap
}
