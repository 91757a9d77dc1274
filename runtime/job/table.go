package job

import (
	"fmt"
	"sync"
)

// Table is a concurrency-safe registry of jobs keyed by opaque id.
// Enumeration is stable in registration order, so the jobs of one pipeline
// list left to right.  The lock guards only the registry mapping itself;
// signal delivery and waiting always happen outside of it.
type Table struct {
	mu    sync.RWMutex
	jobs  map[string]*Job
	order []string
}

// NewTable creates an empty job table.
func NewTable() *Table {
	return &Table{jobs: make(map[string]*Job)}
}

// Register adds jobs to the table in the given order.
func (t *Table) Register(jobs ...*Job) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range jobs {
		if j == nil {
			continue
		}
		if _, found := t.jobs[j.ID()]; !found {
			t.order = append(t.order, j.ID())
		}
		t.jobs[j.ID()] = j
	}
}

// Unregister removes the job with the given id; unknown ids are ignored.
func (t *Table) Unregister(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, found := t.jobs[id]; !found {
		return
	}
	delete(t.jobs, id)
	for i, candidate := range t.order {
		if candidate == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the registered job with the given id.
func (t *Table) Lookup(id string) (*Job, error) {
	t.mu.RLock()
	j, found := t.jobs[id]
	t.mu.RUnlock()
	if !found {
		return nil, fmt.Errorf("job %q: %w", id, ErrNotFound)
	}
	return j, nil
}

// Jobs returns a snapshot of all registered jobs in registration order.
func (t *Table) Jobs() []*Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	jobs := make([]*Job, 0, len(t.order))
	for _, id := range t.order {
		jobs = append(jobs, t.jobs[id])
	}
	return jobs
}

// Running returns the registered jobs that have not turned terminal yet.
func (t *Table) Running() []*Job {
	var running []*Job
	for _, j := range t.Jobs() {
		if j.Running() {
			running = append(running, j)
		}
	}
	return running
}

// Len returns the number of registered jobs.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.jobs)
}

// Signal resolves the symbolic or numeric signal name and delivers it to the
// registered job with the given id.  The delivery error of an already exited
// process is reported to the caller and is never fatal to the table.
func (t *Table) Signal(id string, signal string) error {
	j, err := t.Lookup(id)
	if err != nil {
		return err
	}
	sig, err := LookupSignal(signal)
	if err != nil {
		return err
	}
	return j.Signal(sig)
}

// Kill sends SIGKILL to the registered job with the given id.
func (t *Table) Kill(id string) error {
	return t.Signal(id, "KILL")
}

// Prune drops every terminal job from the table and returns how many were
// removed.
func (t *Table) Prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.order[:0]
	removed := 0
	for _, id := range t.order {
		if j := t.jobs[id]; j != nil && j.Running() {
			kept = append(kept, id)
			continue
		}
		delete(t.jobs, id)
		removed++
	}
	t.order = kept
	return removed
}
