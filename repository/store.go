// Package repository provides the bun-backed Store used by the signin
// reconciler: users, linked accounts, and sessions over one database.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	repobun "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-signin"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const defaultSessionTTL = 30 * 24 * time.Hour

// Store implements signin.Store over bun.
type Store struct {
	db               *bun.DB
	users            repobun.Repository[*signin.User]
	sessionTTL       time.Duration
	deterministicIDs bool
}

var _ signin.Store = (*Store)(nil)

// Option configures the store.
type Option func(*Store)

// NewStore creates a bun-backed store.
func NewStore(db *bun.DB, opts ...Option) *Store {
	users := repobun.NewRepository[*signin.User](db, repobun.ModelHandlers[*signin.User]{
		NewRecord: func() *signin.User { return &signin.User{} },
		GetID: func(u *signin.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *signin.User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	store := &Store{
		db:         db,
		users:      users,
		sessionTTL: defaultSessionTTL,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	return store
}

// WithSessionTTL sets the lifetime of persisted sessions.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithDeterministicIDs derives new user ids from the email via hashid, so
// re-creations of the same address produce the same id across environments.
func WithDeterministicIDs() Option {
	return func(s *Store) {
		s.deterministicIDs = true
	}
}

// CreateUser implements signin.Store.
func (s *Store) CreateUser(ctx context.Context, user *signin.User) (*signin.User, error) {
	s.prepareUserDefaults(user)
	return s.users.Create(ctx, user)
}

// UpdateUser implements signin.Store.
func (s *Store) UpdateUser(ctx context.Context, user *signin.User) (*signin.User, error) {
	return s.users.Update(ctx, user, repobun.UpdateByID(user.ID.String()))
}

// GetUser implements signin.Store.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*signin.User, error) {
	return s.getUserBy(ctx, "id", id.String())
}

// GetUserByEmail implements signin.Store.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*signin.User, error) {
	return s.getUserBy(ctx, "email", email)
}

func (s *Store) getUserBy(ctx context.Context, column string, value any) (*signin.User, error) {
	record := &signin.User{}
	err := s.db.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repobun.IsRecordNotFound(err) || err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (s *Store) prepareUserDefaults(user *signin.User) {
	if user == nil {
		return
	}

	if user.ID == uuid.Nil && s.deterministicIDs && user.Email != "" {
		if id, err := hashid.NewUUID(user.Email); err == nil {
			user.ID = id
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
}
