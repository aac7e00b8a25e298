package jobs

import (
	"context"
	"sync"
)

// MemoryStore keeps job state in a mutex-guarded map. Used by tests and by
// deployments that do not need job status to survive a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]Job)}
}

func (m *MemoryStore) Put(ctx context.Context, j *Job) error {
	m.mu.Lock()
	m.jobs[j.ID] = *j
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := j
	return &out, nil
}
