package scheduler

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TaskInfo describes a queued task.
type TaskInfo struct {
	ID   uint64
	Name string
	Due  time.Time
}

type task struct {
	TaskInfo
	fn func()
}

// Loop is a single-threaded event queue. Tasks are enqueued from any goroutine
// but only ever executed by whoever calls RunDue (directly or through Run), one at a time,
// in (due, enqueue order) order.
type Loop struct {
	clock Clock
	log   *zerolog.Logger

	mu    sync.Mutex
	queue taskHeap
	seq   uint64
	wake  chan struct{}
}

// NewLoop constructs a loop. A nil clock defaults to the wall clock.
func NewLoop(clock Clock, logger *zerolog.Logger) *Loop {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Loop{
		clock: clock,
		log:   logger,
		wake:  make(chan struct{}, 1),
	}
}

func (l *Loop) Clock() Clock { return l.clock }

// Post enqueues fn to run on the next RunDue.
func (l *Loop) Post(name string, fn func()) TaskInfo {
	return l.After(name, 0, fn)
}

// After enqueues fn to run once d has elapsed on the loop clock.
func (l *Loop) After(name string, d time.Duration, fn func()) TaskInfo {
	if d < 0 {
		d = 0
	}
	l.mu.Lock()
	l.seq++
	t := &task{
		TaskInfo: TaskInfo{ID: l.seq, Name: name, Due: l.clock.Now().Add(d)},
		fn:       fn,
	}
	heap.Push(&l.queue, t)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return t.TaskInfo
}

// Pending lists queued tasks in execution order.
func (l *Loop) Pending() []TaskInfo {
	l.mu.Lock()
	out := make([]TaskInfo, 0, len(l.queue))
	for _, t := range l.queue {
		out = append(out, t.TaskInfo)
	}
	l.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return before(out[i], out[j]) })
	return out
}

func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// NextDue reports when the earliest queued task becomes runnable.
func (l *Loop) NextDue() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return time.Time{}, false
	}
	return l.queue[0].Due, true
}

// RunDue executes every task that is due at the current clock time, including tasks
// that become due while running, and returns how many ran.
func (l *Loop) RunDue() int {
	n := 0
	for {
		now := l.clock.Now()
		l.mu.Lock()
		if len(l.queue) == 0 || l.queue[0].Due.After(now) {
			l.mu.Unlock()
			return n
		}
		t := heap.Pop(&l.queue).(*task)
		l.mu.Unlock()

		l.run(t)
		n++
	}
}

func (l *Loop) run(t *task) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Interface("panic", r).Str("task", t.Name).Uint64("task_id", t.ID).Msg("task panicked")
		}
	}()
	t.fn()
}

// Run drives the loop in real time until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Debug().Msg("event loop started")
	defer l.log.Debug().Msg("event loop stopped")
	for {
		l.RunDue()

		var timer *time.Timer
		var fire <-chan time.Time
		if due, ok := l.NextDue(); ok {
			d := due.Sub(l.clock.Now())
			if d < 0 {
				d = 0
			}
			timer = time.NewTimer(d)
			fire = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case <-l.wake:
		case <-fire:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func before(a, b TaskInfo) bool {
	if a.Due.Equal(b.Due) {
		return a.ID < b.ID
	}
	return a.Due.Before(b.Due)
}

type taskHeap []*task

func (h taskHeap) Len() int           { return len(h) }
func (h taskHeap) Less(i, j int) bool { return before(h[i].TaskInfo, h[j].TaskInfo) }
func (h taskHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)        { *h = append(*h, x.(*task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
