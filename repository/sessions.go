package repository

import (
	"context"
	"database/sql"
	"time"

	repobun "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-signin"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SessionModel is the bun model for persisted sessions.
type SessionModel struct {
	bun.BaseModel `bun:"table:sessions"`

	Token     string    `bun:"token,pk"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,default:current_timestamp"`
}

// CreateSession implements signin.Store.
func (s *Store) CreateSession(ctx context.Context, user *signin.User) (*signin.Session, error) {
	now := time.Now()
	model := &SessionModel{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}

	if _, err := s.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return nil, err
	}

	return toSession(model), nil
}

// GetSession implements signin.Store. Expired sessions are deleted lazily
// and reported as a miss.
func (s *Store) GetSession(ctx context.Context, token string) (*signin.Session, error) {
	var model SessionModel
	err := s.db.NewSelect().
		Model(&model).
		Where("token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repobun.IsRecordNotFound(err) || err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if time.Now().After(model.ExpiresAt) {
		if err := s.DeleteSession(ctx, token); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return toSession(&model), nil
}

// DeleteSession implements signin.Store.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.NewDelete().
		Model((*SessionModel)(nil)).
		Where("token = ?", token).
		Exec(ctx)
	return err
}

func toSession(m *SessionModel) *signin.Session {
	expiresAt := m.ExpiresAt
	createdAt := m.CreatedAt
	return &signin.Session{
		Token:     m.Token,
		UserID:    m.UserID,
		ExpiresAt: &expiresAt,
		CreatedAt: &createdAt,
	}
}
