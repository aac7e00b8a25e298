package jobs

import (
	"context"
	"errors"
	"log"
	"runtime"
	"sync"

	"github.com/google/uuid"
)

// Handler executes the work for one job. progress reports intermediate
// completion percentages; the returned string becomes the job result.
type Handler func(ctx context.Context, donorID string, progress func(int)) (string, error)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("job queue is closed")

// Queue dispatches jobs to a fixed pool of workers. Submission is decoupled
// from execution: Enqueue appends to an in-memory backlog and returns
// immediately no matter how busy the workers are. Each job runs end-to-end
// on one worker with no checkpointing, so a retried job restarts from
// scratch.
type Queue struct {
	store   Store
	handler Handler
	workers int

	mu      sync.Mutex
	cond    *sync.Cond
	pending []Job
	closed  bool
	wg      sync.WaitGroup
}

// NewQueue builds a queue over store. workers <= 0 means NumCPU; buffer
// sizes the initial backlog allocation, which grows as needed.
func NewQueue(store Store, handler Handler, workers, buffer int) *Queue {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if buffer <= 0 {
		buffer = 256
	}
	q := &Queue{
		store:   store,
		handler: handler,
		workers: workers,
		pending: make([]Job, 0, buffer),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Start launches the worker pool. ctx is passed to handlers and state writes.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				j, ok := q.next()
				if !ok {
					return
				}
				q.run(ctx, j)
			}
		}()
	}
}

// next blocks until a job is available or the queue is closed and drained.
func (q *Queue) next() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.pending) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.pending) == 0 {
		return Job{}, false
	}
	j := q.pending[0]
	q.pending = q.pending[1:]
	return j, true
}

// Close stops accepting jobs and waits for the backlog to drain.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
	q.wg.Wait()
}

// Enqueue records a PENDING job for donorID and hands it to the pool. It
// never blocks on running jobs.
func (q *Queue) Enqueue(ctx context.Context, donorID string) (string, error) {
	j := Job{ID: uuid.NewString(), DonorID: donorID, Status: StatusPending}
	if err := q.store.Put(ctx, &j); err != nil {
		return "", err
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return "", ErrClosed
	}
	q.pending = append(q.pending, j)
	q.mu.Unlock()
	q.cond.Signal()
	return j.ID, nil
}

// Poll returns the current state of a job, ErrNotFound for unknown ids.
func (q *Queue) Poll(ctx context.Context, id string) (*Job, error) {
	return q.store.Get(ctx, id)
}

func (q *Queue) run(ctx context.Context, j Job) {
	q.update(ctx, &j, StatusStarted, 10)
	result, err := q.handler(ctx, j.DonorID, func(p int) {
		q.update(ctx, &j, StatusProgress, p)
	})
	if err != nil {
		j.Error = err.Error()
		q.update(ctx, &j, StatusFailure, j.Progress)
		log.Printf("report job %s for donor %s failed: %v", j.ID, j.DonorID, err)
		return
	}
	j.Result = result
	q.update(ctx, &j, StatusSuccess, 100)
}

func (q *Queue) update(ctx context.Context, j *Job, s Status, progress int) {
	j.Status = s
	j.Progress = progress
	if err := q.store.Put(ctx, j); err != nil {
		log.Printf("job %s: persist state %s: %v", j.ID, s, err)
	}
}
