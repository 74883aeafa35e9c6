package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jlintlin/Grade-Converter/internal/models"
	appErrors "github.com/jlintlin/Grade-Converter/pkg/errors"
)

// SessionRepository abstracts the TTL key-value store holding uploaded
// gradebooks. The grading engine never sees a session id; this layer
// resolves ids into gradebooks for the handlers.
type SessionRepository interface {
	Put(ctx context.Context, session *models.GradebookSession) error
	Get(ctx context.Context, id string) (*models.GradebookSession, error)
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	EvictExpired(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
}

// SessionService mints session ids and owns session lifecycle.
type SessionService struct {
	repo   SessionRepository
	logger *zap.Logger
}

// NewSessionService constructs SessionService.
func NewSessionService(repo SessionRepository, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, logger: logger}
}

// Create stores a freshly parsed gradebook under a new session id.
func (s *SessionService) Create(ctx context.Context, gradebook *models.Gradebook) (*models.GradebookSession, error) {
	now := time.Now().UTC()
	session := &models.GradebookSession{
		ID:           uuid.NewString(),
		Gradebook:    *gradebook,
		CreatedAt:    now,
		LastAccessed: now,
	}
	if err := s.repo.Put(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store session")
	}
	s.logger.Info("session created",
		zap.String("session_id", session.ID),
		zap.Int("students", gradebook.RowCount),
	)
	return session, nil
}

// Get resolves a session and refreshes its TTL.
func (s *SessionService) Get(ctx context.Context, id string) (*models.GradebookSession, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Touch(ctx, id); err != nil && err != appErrors.ErrSessionNotFound {
		s.logger.Warn("session touch failed", zap.String("session_id", id), zap.Error(err))
	}
	return session, nil
}

// Delete tears down a session explicitly, e.g. when the user starts over.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	return nil
}

// Stats reports live session count after reaping expired entries.
func (s *SessionService) Stats(ctx context.Context) (models.SessionStats, error) {
	evicted, err := s.repo.EvictExpired(ctx)
	if err != nil {
		return models.SessionStats{}, err
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return models.SessionStats{}, err
	}
	return models.SessionStats{ActiveSessions: count, ExpiredCleaned: evicted}, nil
}

// StartSweeper reaps expired sessions on the given interval until the
// context is cancelled. Harmless for backends with native expiry.
func (s *SessionService) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				evicted, err := s.repo.EvictExpired(ctx)
				if err != nil {
					s.logger.Warn("session sweep failed", zap.Error(err))
					continue
				}
				if evicted > 0 {
					s.logger.Info("expired sessions evicted", zap.Int("count", evicted))
				}
			}
		}
	}()
}
