package api

import (
	"sync"
	"time"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/sanitize"
	"github.com/google/uuid"
)

const (
	TaskRunning = "running"
	TaskDone    = "done"

	maxFinishedTasks = 100
)

// TaskStatus is the wire view of a background sanitize.
type TaskStatus struct {
	ID         string            `json:"id"`
	Identifier string            `json:"identifier"`
	State      string            `json:"state"`
	Started    time.Time         `json:"started"`
	Finished   *time.Time        `json:"finished,omitempty"`
	Outcome    *sanitize.Outcome `json:"outcome,omitempty"`
	Error      *ErrorBody        `json:"error,omitempty"`
}

type task struct {
	status TaskStatus
	err    error
	done   chan struct{}
}

// taskStore tracks background sanitizes and forgets the oldest finished ones.
type taskStore struct {
	mu       sync.Mutex
	tasks    map[string]*task
	finished []string
}

func newTaskStore() *taskStore {
	return &taskStore{tasks: make(map[string]*task)}
}

// track registers a running task and completes it from results. onDone, if
// set, sees the final error once the task is recorded.
func (s *taskStore) track(identifier string, results <-chan sanitize.Result, onDone func(error)) *task {
	t := &task{
		status: TaskStatus{
			ID:         uuid.NewString(),
			Identifier: identifier,
			State:      TaskRunning,
			Started:    time.Now().UTC(),
		},
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.tasks[t.status.ID] = t
	s.mu.Unlock()

	go func() {
		res, ok := <-results
		now := time.Now().UTC()

		s.mu.Lock()
		t.status.State = TaskDone
		t.status.Finished = &now
		if ok {
			t.status.Outcome = res.Outcome
			t.status.Error = errorBody(res.Err)
			t.err = res.Err
		}
		s.finished = append(s.finished, t.status.ID)
		for len(s.finished) > maxFinishedTasks {
			delete(s.tasks, s.finished[0])
			s.finished = s.finished[1:]
		}
		s.mu.Unlock()
		close(t.done)
		if onDone != nil {
			onDone(res.Err)
		}
	}()

	return t
}

func (s *taskStore) get(id string) (TaskStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return TaskStatus{}, false
	}
	return t.snapshot(), true
}

// snapshot must be called with the store lock held.
func (t *task) snapshot() TaskStatus {
	st := t.status
	return st
}

func (s *taskStore) status(t *task) (TaskStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.snapshot(), t.err
}
