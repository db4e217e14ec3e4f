package imports

import (
	"sort"
	"sync"

	"github.com/ternarybob/adimport/internal/models"
)

// registry holds the live worker handles owned by this process, one per task id
type registry struct {
	mu      sync.Mutex
	handles map[string]models.WorkerHandle
}

func newRegistry() *registry {
	return &registry{
		handles: make(map[string]models.WorkerHandle),
	}
}

// register adds a handle; false when the task id already has one
func (r *registry) register(handle models.WorkerHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[handle.TaskID]; exists {
		return false
	}
	r.handles[handle.TaskID] = handle
	return true
}

// deregister removes a handle; false when it was already gone
func (r *registry) deregister(taskID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[taskID]; !exists {
		return false
	}
	delete(r.handles, taskID)
	return true
}

func (r *registry) has(taskID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.handles[taskID]
	return exists
}

// list returns the handles ordered by start time
func (r *registry) list() []models.WorkerHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	handles := make([]models.WorkerHandle, 0, len(r.handles))
	for _, h := range r.handles {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool {
		if handles[i].StartedAt.Equal(handles[j].StartedAt) {
			return handles[i].TaskID < handles[j].TaskID
		}
		return handles[i].StartedAt.Before(handles[j].StartedAt)
	})
	return handles
}
