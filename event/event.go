// Package event carries the runner's lifecycle notifications to observers.
//
// Every notification is an [Event] tagged with a [Kind]. Consumers either
// register a synchronous [Observer] with [Bus.Observe], or take a buffered
// channel with [Bus.Subscribe] whose lifetime is bound to a context.
package event

import (
	"time"

	"github.com/mitchcodes/datautils/job"
)

// Kind identifies a lifecycle notification.
type Kind string

const (
	// KindError carries a job failure or a failure seen while draining.
	KindError Kind = "error"
	// KindStartJob fires when a job's work begins.
	KindStartJob Kind = "startJob"
	// KindFinishJob fires when a job's work returns without error.
	KindFinishJob Kind = "finishJob"
	// KindQueueProcessed fires when a concurrency-group job succeeds.
	KindQueueProcessed Kind = "queueProcessed"
	// KindWaitingForJobs fires before the runner drains in-flight jobs.
	KindWaitingForJobs Kind = "waitingForJobsToFinish"
	// KindDoneWaitingForJobs fires once a drain has completed.
	KindDoneWaitingForJobs Kind = "doneWaitingForJobsToFinish"

	KindStarting   Kind = "starting"
	KindStarted    Kind = "started"
	KindStopping   Kind = "stopping"
	KindStopped    Kind = "stopped"
	KindCleaningUp Kind = "cleaningUp"
	KindCleanedUp  Kind = "cleanedUp"
)

// PendingJob is a snapshot of a job that was in flight when the event was
// published.
type PendingJob struct {
	Job       *job.Job      `json:"job"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed,omitempty"`
	Err       error         `json:"-"`
}

// Event is a single lifecycle notification. Which fields are set depends
// on Kind:
//
//	error                      Err, Job (when the failure belongs to a job)
//	startJob, finishJob        Job
//	queueProcessed             Job, Pending (one entry)
//	waitingForJobsToFinish     Pending
//	everything else            no payload
type Event struct {
	Kind    Kind         `json:"kind"`
	Time    time.Time    `json:"time"`
	Job     *job.Job     `json:"job,omitempty"`
	Pending []PendingJob `json:"pending,omitempty"`
	Err     error        `json:"-"`
}

// New creates an event of the given kind stamped with the current time.
func New(kind Kind) Event {
	return Event{Kind: kind, Time: time.Now().UTC()}
}
