// Implements the TaskScheduler, the pending-output list every atomic model keeps.
// Entries are ordered by time left to fire; payloads sharing a delay coalesce.

package sim

import "fmt"

// Task is one scheduler entry: everything due after TimeLeft.
type Task[E any] struct {
	TimeLeft Time
	Payload  []E
}

// TaskScheduler orders pending payloads by the simulated time left before they fire.
// Tasks are kept strictly ascending by TimeLeft and n is expected to be small,
// so insertion is a linear scan.
//
// Thread-safety: NOT thread-safe. Owned by a single atomic model.
type TaskScheduler[E any] struct {
	tasks []Task[E]
}

// NewTaskScheduler returns an empty scheduler.
func NewTaskScheduler[E any]() *TaskScheduler[E] {
	return &TaskScheduler[E]{}
}

// Add schedules element to fire after delay. Elements added with an equal
// delay are appended to the same task.
func (s *TaskScheduler[E]) Add(delay Time, element E) {
	if delay < 0 || delay.IsInf() {
		panic(fmt.Sprintf("TaskScheduler.Add: delay must be finite and non-negative, got %v", delay))
	}
	i := 0
	for ; i < len(s.tasks); i++ {
		if s.tasks[i].TimeLeft == delay {
			s.tasks[i].Payload = append(s.tasks[i].Payload, element)
			return
		}
		if s.tasks[i].TimeLeft > delay {
			break
		}
	}
	s.tasks = append(s.tasks, Task[E]{})
	copy(s.tasks[i+1:], s.tasks[i:])
	s.tasks[i] = Task[E]{TimeLeft: delay, Payload: []E{element}}
}

// TimeAdvance returns the smallest pending delay, or Infinity when empty.
func (s *TaskScheduler[E]) TimeAdvance() Time {
	if len(s.tasks) == 0 {
		return Infinity
	}
	return s.tasks[0].TimeLeft
}

// Next returns a copy of the payload due at TimeAdvance, or nil when empty.
func (s *TaskScheduler[E]) Next() []E {
	if len(s.tasks) == 0 {
		return nil
	}
	out := make([]E, len(s.tasks[0].Payload))
	copy(out, s.tasks[0].Payload)
	return out
}

// Update ages every task by elapsed. Advancing past the nearest task is a
// contract violation.
func (s *TaskScheduler[E]) Update(elapsed Time) {
	if elapsed < 0 {
		panic(fmt.Sprintf("TaskScheduler.Update: negative elapsed %d", elapsed))
	}
	if len(s.tasks) == 0 || elapsed == 0 {
		return
	}
	if elapsed > s.tasks[0].TimeLeft {
		panic(fmt.Sprintf("TaskScheduler.Update: elapsed %d exceeds time advance %d", elapsed, s.tasks[0].TimeLeft))
	}
	for i := range s.tasks {
		s.tasks[i].TimeLeft -= elapsed
	}
}

// Advance pops the task due at TimeAdvance and ages the rest by its delay.
func (s *TaskScheduler[E]) Advance() {
	if len(s.tasks) == 0 {
		return
	}
	fired := s.tasks[0].TimeLeft
	s.tasks[0] = Task[E]{}
	s.tasks = s.tasks[1:]
	s.Update(fired)
}

// ExistsFunc reports whether any pending element satisfies match.
func (s *TaskScheduler[E]) ExistsFunc(match func(E) bool) bool {
	for _, t := range s.tasks {
		for _, e := range t.Payload {
			if match(e) {
				return true
			}
		}
	}
	return false
}

// IsInNextFunc reports whether an element of the next task satisfies match.
func (s *TaskScheduler[E]) IsInNextFunc(match func(E) bool) bool {
	if len(s.tasks) == 0 {
		return false
	}
	for _, e := range s.tasks[0].Payload {
		if match(e) {
			return true
		}
	}
	return false
}

// Len returns the number of distinct pending delays.
func (s *TaskScheduler[E]) Len() int {
	return len(s.tasks)
}

// Empty reports whether nothing is scheduled.
func (s *TaskScheduler[E]) Empty() bool {
	return len(s.tasks) == 0
}

// Tasks returns the pending tasks in firing order. Callers MUST NOT modify them.
func (s *TaskScheduler[E]) Tasks() []Task[E] {
	return s.tasks
}

// Exists reports whether element is pending anywhere in s.
func Exists[E comparable](s *TaskScheduler[E], element E) bool {
	return s.ExistsFunc(func(e E) bool { return e == element })
}

// IsInNext reports whether element is part of the next task of s.
func IsInNext[E comparable](s *TaskScheduler[E], element E) bool {
	return s.IsInNextFunc(func(e E) bool { return e == element })
}
