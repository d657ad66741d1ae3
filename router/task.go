package router

import (
	"context"
	"sync"
	"time"

	"github.com/abhishen/click/element"
)

// TaskEngine is a cooperative round-robin scheduler over every element
// registered with Schedule. It stands in for the production Task/select loop the
// original scheduler built on top of run_task/selected, scoped to a
// single goroutine driving a single Router.
type TaskEngine struct {
	mu       sync.Mutex
	elements []*element.Element
	tickets  map[string]int // element name -> relative scheduling weight

	stop chan struct{}
	done chan struct{}
}

// NewTaskEngine creates an empty engine.
func NewTaskEngine() *TaskEngine {
	return &TaskEngine{tickets: make(map[string]int)}
}

// Schedule registers e for periodic RunTask calls. Calling Schedule twice
// for the same element is a no-op.
func (t *TaskEngine) Schedule(e *element.Element) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.elements {
		if existing == e {
			return
		}
	}
	t.elements = append(t.elements, e)
	if _, ok := t.tickets[e.Name()]; !ok {
		t.tickets[e.Name()] = 1
	}
}

// Unschedule removes e from the round-robin set.
func (t *TaskEngine) Unschedule(e *element.Element) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, existing := range t.elements {
		if existing == e {
			t.elements = append(t.elements[:i], t.elements[i+1:]...)
			return
		}
	}
}

// SetTickets sets the relative scheduling weight for the named element;
// an element with more tickets gets proportionally more RunTask calls per
// round. Weight must be at least 1.
func (t *TaskEngine) SetTickets(name string, weight int) {
	if weight < 1 {
		weight = 1
	}
	t.mu.Lock()
	t.tickets[name] = weight
	t.mu.Unlock()
}

// Tickets returns the current scheduling weight for name, defaulting to
// 1 if never set.
func (t *TaskEngine) Tickets(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if w, ok := t.tickets[name]; ok {
		return w
	}
	return 1
}

// Scheduled reports whether name is currently registered for RunTask
// calls, the Go equivalent of Task::scheduled()
// (original_source/lib/element.cc:1667-1672).
func (t *TaskEngine) Scheduled(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.elements {
		if e.Name() == name {
			return true
		}
	}
	return false
}

// HomeThread returns the worker slot a scheduled element's task runs on.
// This engine drives every task from a single round-robin goroutine, so
// every scheduled element reports thread 0 and an unscheduled one reports
// -1, the Go equivalent of Task::home_thread_id() under a single-threaded
// driver (original_source/lib/element.cc:1674-1680).
func (t *TaskEngine) HomeThread(name string) int {
	if t.Scheduled(name) {
		return 0
	}
	return -1
}

// Run drives the round-robin loop until ctx is done or Stop is called.
// Each round calls RunTask on every scheduled element, repeated once per
// its ticket weight.
func (t *TaskEngine) Run(ctx context.Context) {
	t.mu.Lock()
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	t.mu.Unlock()
	defer close(t.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		default:
		}

		if !t.runRound() {
			// Nothing had work to do; yield briefly rather than spin.
			select {
			case <-ctx.Done():
				return
			case <-t.stop:
				return
			case <-time.After(time.Millisecond):
			}
		}
	}
}

func (t *TaskEngine) runRound() bool {
	t.mu.Lock()
	elements := make([]*element.Element, len(t.elements))
	copy(elements, t.elements)
	tickets := make([]int, len(elements))
	for i, e := range elements {
		tickets[i] = t.tickets[e.Name()]
	}
	t.mu.Unlock()

	didWork := false
	for i, e := range elements {
		for n := 0; n < tickets[i]; n++ {
			if e.Hooks.RunTask() {
				didWork = true
			}
		}
	}
	return didWork
}

// Stop halts a running Run loop and waits for it to return.
func (t *TaskEngine) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}
