package runner

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/mitchcodes/datautils/event"
	"github.com/mitchcodes/datautils/job"
	"github.com/mitchcodes/datautils/queue"
)

// subQueue runs the jobs of one concurrency group with at most
// MaxConcurrent in flight. Jobs are admitted in submission order.
type subQueue struct {
	r     *Runner
	group job.ConcurrencyGroup
	slots *semaphore.Weighted

	backlog *queue.Queue[*job.Job]
	notify  chan struct{}
	quit    chan struct{}
	exited  chan struct{}

	// outstanding counts jobs submitted but not yet settled.
	outstanding atomic.Int64
	wg          sync.WaitGroup
}

func newSubQueue(r *Runner, group job.ConcurrencyGroup) *subQueue {
	s := &subQueue{
		r:       r,
		group:   group,
		slots:   semaphore.NewWeighted(int64(group.MaxConcurrent)),
		backlog: queue.New[*job.Job](),
		notify:  make(chan struct{}, 1),
		quit:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	go s.dispatch()

	r.logger.Debug("concurrency group opened",
		slog.String("group", group.Name),
		slog.Int("max_concurrent", group.MaxConcurrent),
	)
	return s
}

// submit hands j to the group without waiting for a free slot.
func (s *subQueue) submit(j *job.Job) {
	s.outstanding.Add(1)
	s.wg.Add(1)
	s.backlog.Push(j)
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subQueue) idle() bool { return s.outstanding.Load() == 0 }

// wait blocks until every submitted job has settled, including jobs that
// were still waiting for a slot.
func (s *subQueue) wait() { s.wg.Wait() }

// close stops the dispatcher. Callers wait first.
func (s *subQueue) close() {
	close(s.quit)
	<-s.exited
	s.r.logger.Debug("concurrency group closed", slog.String("group", s.group.Name))
}

func (s *subQueue) dispatch() {
	defer close(s.exited)
	for {
		j, ok := s.backlog.Pop()
		if !ok {
			select {
			case <-s.notify:
				continue
			case <-s.quit:
				if s.backlog.Len() > 0 {
					continue
				}
				return
			}
		}

		if err := s.slots.Acquire(s.r.ctx, 1); err != nil {
			s.r.emitError(j, fmt.Errorf("job %s not started: %w", j.Name, err))
			s.done()
			continue
		}
		go s.run(j)
	}
}

func (s *subQueue) run(j *job.Job) {
	defer s.done()
	defer s.slots.Release(1)

	pj := s.r.pending.start(j)
	err := s.r.runJob(j)
	s.r.pending.settle(pj, err)
	if err != nil {
		return
	}

	evt := event.New(event.KindQueueProcessed)
	evt.Job = j
	evt.Pending = []event.PendingJob{s.r.pending.snapshotOf(pj)}
	s.r.events.Publish(evt)
}

func (s *subQueue) done() {
	s.outstanding.Add(-1)
	s.wg.Done()
}
