package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jlintlin/Grade-Converter/internal/models"
	appErrors "github.com/jlintlin/Grade-Converter/pkg/errors"
)

// MemorySessionRepository keeps gradebook sessions in process memory.
// Sessions whose last access is older than the TTL are treated as gone
// and reaped by EvictExpired.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*models.GradebookSession
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionRepository constructs the in-memory store.
func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemorySessionRepository{
		sessions: make(map[string]*models.GradebookSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Put stores or replaces a session.
func (r *MemorySessionRepository) Put(ctx context.Context, session *models.GradebookSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *session
	r.sessions[session.ID] = &stored
	return nil
}

// Get returns a copy of the session, or ErrSessionNotFound when absent
// or expired.
func (r *MemorySessionRepository) Get(ctx context.Context, id string) (*models.GradebookSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok || r.expired(session) {
		return nil, appErrors.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

// Touch refreshes the session's last-access time.
func (r *MemorySessionRepository) Touch(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || r.expired(session) {
		return appErrors.ErrSessionNotFound
	}
	session.LastAccessed = r.now()
	return nil
}

// Delete removes a session; deleting an unknown id is not an error.
func (r *MemorySessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// EvictExpired removes sessions past their TTL and reports the count.
func (r *MemorySessionRepository) EvictExpired(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, session := range r.sessions {
		if r.expired(session) {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted, nil
}

// Count returns the number of live sessions.
func (r *MemorySessionRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, session := range r.sessions {
		if !r.expired(session) {
			count++
		}
	}
	return count, nil
}

func (r *MemorySessionRepository) expired(session *models.GradebookSession) bool {
	return r.now().Sub(session.LastAccessed) > r.ttl
}
