package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mitchcodes/datautils"
	"github.com/mitchcodes/datautils/event"
	"github.com/mitchcodes/datautils/job"
	"github.com/mitchcodes/datautils/middleware"
	"github.com/mitchcodes/datautils/queue"
)

// Runner is the queued command runner. It is safe for concurrent use.
type Runner struct {
	settings   Settings
	logger     *slog.Logger
	events     *event.Bus
	ownsEvents bool
	middleware []middleware.Middleware
	chain      middleware.Middleware

	// ctx is handed to every job; cancelled when Close gives up waiting.
	ctx    context.Context
	cancel context.CancelFunc

	jobs    *queue.Queue[*job.Job]
	pending pendingList

	mu         sync.Mutex
	processing bool
	closed     bool
	state      State
	loopDone   chan struct{}

	// Owned by the poll loop goroutine.
	prev *job.Job
	sub  *subQueue
}

// New creates a runner. It does not start polling until Start is called
// or, with AutoStart, a job is added.
func New(opts ...Option) (*Runner, error) {
	r := &Runner{
		settings: DefaultSettings(),
		logger:   slog.Default(),
		jobs:     queue.New[*job.Job](),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if err := r.settings.validate(); err != nil {
		return nil, err
	}
	if r.events == nil {
		r.events = event.NewBus(r.logger)
		r.ownsEvents = true
	}

	mws := make([]middleware.Middleware, 0, len(r.middleware)+2)
	mws = append(mws, middleware.Recover(r.logger), middleware.Timeout(r.settings.JobTimeout))
	mws = append(mws, r.middleware...)
	r.chain = middleware.Chain(mws...)

	r.ctx, r.cancel = context.WithCancel(context.Background())
	return r, nil
}

// Events returns the bus lifecycle events are published on.
func (r *Runner) Events() *event.Bus { return r.events }

// Settings returns the runner settings.
func (r *Runner) Settings() Settings { return r.settings }

// State returns the current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Len returns the number of jobs waiting to be dispatched.
func (r *Runner) Len() int { return r.jobs.Len() }

// AddJob queues j. With AutoStart it also starts an idle runner.
func (r *Runner) AddJob(j *job.Job) error {
	if j == nil {
		return datautils.ErrNilJob
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return datautils.ErrRunnerClosed
	}
	r.jobs.Push(j)
	start := r.settings.AutoStart && (!r.processing || r.loopDone == nil)
	r.mu.Unlock()

	if start {
		return r.Start()
	}
	return nil
}

// Start begins polling. The first poll happens after WorkingInterval.
// Calling Start on a running runner only re-enables processing.
func (r *Runner) Start() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return datautils.ErrRunnerClosed
	}
	r.processing = true
	var done chan struct{}
	if r.loopDone == nil {
		done = make(chan struct{})
		r.loopDone = done
		r.state = StateStarting
	}
	r.mu.Unlock()

	r.emit(event.KindStarting)
	if done != nil {
		go r.loop(done)
	}
	return nil
}

// Stop asks the runner to stop. It takes effect at the next poll; jobs
// already running are drained, queued jobs stay queued.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.processing = false
	r.mu.Unlock()
}

// Wait blocks until the poll loop has gone idle or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.loopDone
	r.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the runner and waits for in-flight jobs to drain. If ctx
// expires first, the context passed to running jobs is cancelled and
// ctx's error is returned. Further AddJob calls fail with ErrRunnerClosed.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.processing = false
	done := r.loopDone
	r.mu.Unlock()

	var err error
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			r.logger.Warn("runner close timed out, cancelling running jobs")
			err = ctx.Err()
		}
	}
	r.cancel()
	if r.ownsEvents {
		r.events.Close()
	}
	return err
}

func (r *Runner) loop(done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(r.settings.WorkingInterval)
	defer timer.Stop()
	<-timer.C

	r.setState(StatePolling)
	r.emit(event.KindStarted)

	for {
		if !r.isProcessing() {
			r.setState(StateStopping)
			r.emit(event.KindStopping)
			r.cleanup()
			r.emit(event.KindStopped)
			if r.finish(false) {
				return
			}
			r.emit(event.KindStarted)
			continue
		}

		dispatched := r.dispatchNext()
		if !dispatched && r.settings.AutoStopOnNoJobs {
			r.mu.Lock()
			r.processing = false
			r.mu.Unlock()
			r.cleanup()
			if r.finish(true) {
				return
			}
			r.emit(event.KindStarted)
			continue
		}

		wait := r.settings.WorkingInterval
		if !dispatched {
			wait = r.settings.IdleInterval
		}
		timer.Reset(wait)
		<-timer.C
	}
}

// finish decides, after a cleanup, whether the loop exits. The loop keeps
// going when Start was called during cleanup, or when autoStart is set
// and jobs were added that no new loop would pick up.
func (r *Runner) finish(autoStart bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	queued := r.jobs.Len() > 0
	keep := !r.closed && ((r.processing && (queued || !r.settings.AutoStopOnNoJobs)) ||
		(autoStart && queued && r.settings.AutoStart))
	if keep {
		r.processing = true
		r.state = StatePolling
		return false
	}
	r.loopDone = nil
	r.state = StateIdle
	return true
}

// dispatchNext pops one job and dispatches it. It reports false when the
// queue was empty.
func (r *Runner) dispatchNext() bool {
	j, ok := r.jobs.Pop()
	if !ok {
		return false
	}
	defer func() { r.prev = j }()

	if r.prev.Concurrent() {
		if j.SameGroup(r.prev) && r.sub != nil {
			r.sub.submit(j)
			return true
		}
		r.closeGroup()
	}

	if j.Concurrent() {
		if r.sub == nil {
			r.drain()
			r.sub = newSubQueue(r, *j.Group)
		}
		r.sub.submit(j)
		return true
	}

	if err := r.runJob(j); err != nil {
		r.emitError(j, err)
	}
	return true
}

// closeGroup drains and discards the active concurrency group, if any.
func (r *Runner) closeGroup() {
	if r.sub == nil {
		return
	}
	r.drain()
	r.sub.close()
	r.sub = nil
}

// drain waits for every job of the current mode to settle and reports
// the failures among them.
func (r *Runner) drain() {
	if r.pending.len() == 0 && (r.sub == nil || r.sub.idle()) {
		return
	}

	evt := event.New(event.KindWaitingForJobs)
	evt.Pending = r.pending.snapshot()
	r.events.Publish(evt)

	if r.sub != nil {
		r.sub.wait()
	}
	for _, pj := range r.pending.take() {
		<-pj.done
		if pj.err != nil {
			r.emitError(pj.job, pj.err)
		}
	}

	r.emit(event.KindDoneWaitingForJobs)
}

func (r *Runner) cleanup() {
	r.setState(StateCleaningUp)
	r.emit(event.KindCleaningUp)

	r.closeGroup()
	r.drain()
	r.prev = nil

	r.emit(event.KindCleanedUp)
}

// runJob executes j on the calling goroutine and reports its start and
// successful finish.
func (r *Runner) runJob(j *job.Job) error {
	evt := event.New(event.KindStartJob)
	evt.Job = j
	r.events.Publish(evt)

	if err := r.execute(j); err != nil {
		return err
	}

	evt = event.New(event.KindFinishJob)
	evt.Job = j
	r.events.Publish(evt)
	return nil
}

// execute runs j through the middleware chain. A job with a timeout is
// abandoned once it overruns, even if its work ignores cancellation.
func (r *Runner) execute(j *job.Job) error {
	h := middleware.Wrap(r.chain, j)

	limit := j.Timeout
	if limit <= 0 {
		limit = r.settings.JobTimeout
	}
	if limit <= 0 {
		return h(r.ctx)
	}

	errc := make(chan error, 1)
	go func() { errc <- h(r.ctx) }()

	timer := time.NewTimer(limit)
	defer timer.Stop()
	select {
	case err := <-errc:
		return err
	case <-timer.C:
		r.logger.Warn("job abandoned after timeout",
			slog.String("job_id", j.ID.String()),
			slog.String("job_name", j.Name),
			slog.Duration("timeout", limit),
		)
		return fmt.Errorf("job %s exceeded %s: %w", j.Name, limit, context.DeadlineExceeded)
	}
}

func (r *Runner) emitError(j *job.Job, err error) {
	err = datautils.AsError(err)
	r.logger.Debug("job failed",
		slog.String("job_id", j.ID.String()),
		slog.String("job_name", j.Name),
		slog.String("error", err.Error()),
	)

	evt := event.New(event.KindError)
	evt.Job = j
	evt.Err = err
	r.events.Publish(evt)
}

func (r *Runner) emit(kind event.Kind) {
	r.events.Publish(event.New(kind))
}

func (r *Runner) isProcessing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processing
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}
