package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirosfoundation/go-apikit/pkg/lock"
)

// State is the progress of one request through the batch
type State int

const (
	StatePending  State = iota // Tracked, not yet started
	StateEncoding              // Reading files and encoding
	StateWritten               // Body written to the output directory
	StateFailed                // Encoding or writing failed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateEncoding:
		return "encoding"
	case StateWritten:
		return "written"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrNotTracked is returned for requests the tracker does not know
	ErrNotTracked = errors.New("request not tracked")
	// ErrAlreadyTracked is returned when a request name is tracked twice
	ErrAlreadyTracked = errors.New("request already tracked")
	// ErrInvalidTransition is returned when a state change skips a step
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Job is a snapshot of one tracked request
type Job struct {
	Name       string
	State      State
	StartedAt  time.Time
	FinishedAt time.Time
	Boundary   string
	Size       int
	Files      int
	Error      string
}

// Tracker records the state of every request in a batch. It is safe for
// concurrent use.
type Tracker struct {
	sec   lock.Section
	jobs  map[string]*Job
	order []string
	now   func() time.Time
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		jobs: make(map[string]*Job),
		now:  time.Now,
	}
}

// Track registers a request in the pending state
func (t *Tracker) Track(name string) error {
	return t.sec.Protected(func() error {
		if _, exists := t.jobs[name]; exists {
			return fmt.Errorf("%w: %s", ErrAlreadyTracked, name)
		}
		t.jobs[name] = &Job{Name: name, State: StatePending}
		t.order = append(t.order, name)
		return nil
	})
}

// MarkEncoding moves a pending request to encoding
func (t *Tracker) MarkEncoding(name string) error {
	return t.transition(name, func(job *Job) error {
		if job.State != StatePending {
			return fmt.Errorf("%w: %s from %s to %s", ErrInvalidTransition, name, job.State, StateEncoding)
		}
		job.State = StateEncoding
		job.StartedAt = t.now()
		return nil
	})
}

// MarkWritten records a successfully written body
func (t *Tracker) MarkWritten(name, boundary string, size, files int) error {
	return t.transition(name, func(job *Job) error {
		if job.State != StateEncoding {
			return fmt.Errorf("%w: %s from %s to %s", ErrInvalidTransition, name, job.State, StateWritten)
		}
		job.State = StateWritten
		job.FinishedAt = t.now()
		job.Boundary = boundary
		job.Size = size
		job.Files = files
		return nil
	})
}

// MarkFailed records a failure. Requests that already finished cannot fail.
func (t *Tracker) MarkFailed(name string, cause error) error {
	return t.transition(name, func(job *Job) error {
		if job.State == StateWritten || job.State == StateFailed {
			return fmt.Errorf("%w: %s from %s to %s", ErrInvalidTransition, name, job.State, StateFailed)
		}
		job.State = StateFailed
		job.FinishedAt = t.now()
		if cause != nil {
			job.Error = cause.Error()
		}
		return nil
	})
}

func (t *Tracker) transition(name string, apply func(*Job) error) error {
	return t.sec.Protected(func() error {
		job, exists := t.jobs[name]
		if !exists {
			return fmt.Errorf("%w: %s", ErrNotTracked, name)
		}
		return apply(job)
	})
}

// Get returns a snapshot of the named request
func (t *Tracker) Get(name string) (Job, bool) {
	job, err := lock.Guarded(&t.sec, func() (Job, error) {
		job, exists := t.jobs[name]
		if !exists {
			return Job{}, ErrNotTracked
		}
		return *job, nil
	})
	return job, err == nil
}

// Jobs returns snapshots of all requests in the order they were tracked
func (t *Tracker) Jobs() []Job {
	jobs, _ := lock.Guarded(&t.sec, func() ([]Job, error) {
		out := make([]Job, 0, len(t.order))
		for _, name := range t.order {
			out = append(out, *t.jobs[name])
		}
		return out, nil
	})
	return jobs
}

// Count returns the number of requests in the given state
func (t *Tracker) Count(state State) int {
	n, _ := lock.Guarded(&t.sec, func() (int, error) {
		n := 0
		for _, job := range t.jobs {
			if job.State == state {
				n++
			}
		}
		return n, nil
	})
	return n
}
