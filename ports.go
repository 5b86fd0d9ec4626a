package signin

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence capability the reconciler depends on. Lookup
// methods return (nil, nil) on a miss so the caller branches on values, not
// sentinel errors. Any error is treated as fatal for the invocation.
//
// The store owns the uniqueness guarantees: email and the
// (provider, provider account id) pair must be unique, and concurrent
// create-or-link races must surface as conflict errors.
type Store interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	UpdateUser(ctx context.Context, user *User) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByProviderAccountID(ctx context.Context, provider, providerAccountID string) (*User, error)
	LinkAccount(ctx context.Context, link *LinkedAccount) error
	CreateSession(ctx context.Context, user *User) (*Session, error)
	GetSession(ctx context.Context, token string) (*Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// TokenCodec decodes a self-contained session token to its subject id. Only
// consulted under SessionModeJWT.
type TokenCodec interface {
	Decode(token string) (string, error)
}

// Hooks observe the mutations the reconciler performs. Hooks run inline and
// a hook error aborts the invocation.
type Hooks interface {
	UserCreated(ctx context.Context, user *User) error
	UserUpdated(ctx context.Context, user *User) error
	AccountLinked(ctx context.Context, user *User, account *ExternalAccount) error
}

// HookFuncs adapts plain functions into Hooks. Nil fields are no-ops.
type HookFuncs struct {
	OnUserCreated   func(ctx context.Context, user *User) error
	OnUserUpdated   func(ctx context.Context, user *User) error
	OnAccountLinked func(ctx context.Context, user *User, account *ExternalAccount) error
}

func (h HookFuncs) UserCreated(ctx context.Context, user *User) error {
	if h.OnUserCreated == nil {
		return nil
	}
	return h.OnUserCreated(ctx, user)
}

func (h HookFuncs) UserUpdated(ctx context.Context, user *User) error {
	if h.OnUserUpdated == nil {
		return nil
	}
	return h.OnUserUpdated(ctx, user)
}

func (h HookFuncs) AccountLinked(ctx context.Context, user *User, account *ExternalAccount) error {
	if h.OnAccountLinked == nil {
		return nil
	}
	return h.OnAccountLinked(ctx, user, account)
}

type noopHooks struct{}

func (noopHooks) UserCreated(ctx context.Context, user *User) error { return nil }
func (noopHooks) UserUpdated(ctx context.Context, user *User) error { return nil }
func (noopHooks) AccountLinked(ctx context.Context, user *User, account *ExternalAccount) error {
	return nil
}

func normalizeHooks(h Hooks) Hooks {
	if h == nil {
		return noopHooks{}
	}
	return h
}
