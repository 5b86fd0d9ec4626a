package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/goliatone/go-signin"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    email TEXT UNIQUE,
    email_verified_at TIMESTAMP NULL,
    first_name TEXT,
    last_name TEXT,
    username TEXT,
    avatar_url TEXT,
    metadata TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`
	sqliteCreateLinkedAccounts = `CREATE TABLE linked_accounts (
    id TEXT NOT NULL PRIMARY KEY,
    user_id TEXT NOT NULL,
    provider TEXT NOT NULL,
    type TEXT NOT NULL,
    provider_account_id TEXT NOT NULL,
    access_token TEXT,
    refresh_token TEXT,
    token_expires_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
    CONSTRAINT uq_linked_accounts_provider_id UNIQUE (provider, provider_account_id)
);`
	sqliteCreateSessions = `CREATE TABLE sessions (
    token TEXT NOT NULL PRIMARY KEY,
    user_id TEXT NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
);`
)

func setupStore(t *testing.T, opts ...Option) (*Store, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	for _, ddl := range []string{sqliteCreateUsers, sqliteCreateLinkedAccounts, sqliteCreateSessions} {
		_, err = bunDB.Exec(ddl)
		require.NoError(t, err)
	}

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return NewStore(bunDB, opts...), cleanup
}

func TestStoreCreateAndGetUser(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()

	created, err := store.CreateUser(ctx, &signin.User{
		Email:     "octo@example.com",
		FirstName: "Octo",
		LastName:  "Cat",
		Username:  "octo",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	byID, err := store.GetUser(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "octo@example.com", byID.Email)

	byEmail, err := store.GetUserByEmail(ctx, "octo@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, created.ID, byEmail.ID)

	missing, err := store.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing, "a miss is a value, not an error")
}

func TestStoreDuplicateEmailRejected(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.CreateUser(ctx, &signin.User{Email: "octo@example.com"})
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, &signin.User{Email: "octo@example.com"})
	assert.Error(t, err, "email uniqueness is store-enforced")
}

func TestStoreDeterministicIDs(t *testing.T) {
	store, cleanup := setupStore(t, WithDeterministicIDs())
	defer cleanup()

	ctx := context.Background()

	created, err := store.CreateUser(ctx, &signin.User{Email: "octo@example.com"})
	require.NoError(t, err)

	expected, err := hashid.NewUUID("octo@example.com")
	require.NoError(t, err)
	assert.Equal(t, expected, created.ID)
}

func TestStoreUpdateUser(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()

	created, err := store.CreateUser(ctx, &signin.User{Email: "octo@example.com"})
	require.NoError(t, err)
	require.Nil(t, created.EmailVerifiedAt)

	now := time.Now()
	created.EmailVerifiedAt = &now

	_, err = store.UpdateUser(ctx, created)
	require.NoError(t, err)

	reloaded, err := store.GetUser(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.EmailVerifiedAt)
	assert.WithinDuration(t, now, *reloaded.EmailVerifiedAt, time.Second)
}

func TestStoreLinkAccountAndResolve(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()

	user, err := store.CreateUser(ctx, &signin.User{Email: "octo@example.com"})
	require.NoError(t, err)

	expiresAt := time.Now().Add(2 * time.Hour).UTC()
	err = store.LinkAccount(ctx, &signin.LinkedAccount{
		UserID:            user.ID,
		Provider:          "github",
		Type:              signin.AccountTypeOAuth,
		ProviderAccountID: "123",
		AccessToken:       "token",
		RefreshToken:      "refresh",
		TokenExpiresAt:    &expiresAt,
	})
	require.NoError(t, err)

	resolved, err := store.GetUserByProviderAccountID(ctx, "github", "123")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, user.ID, resolved.ID)

	unknown, err := store.GetUserByProviderAccountID(ctx, "github", "999")
	require.NoError(t, err)
	assert.Nil(t, unknown)
}

func TestStoreLinkAccountConflict(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()

	first, err := store.CreateUser(ctx, &signin.User{Email: "first@example.com"})
	require.NoError(t, err)
	second, err := store.CreateUser(ctx, &signin.User{Email: "second@example.com"})
	require.NoError(t, err)

	link := func(user *signin.User) error {
		return store.LinkAccount(ctx, &signin.LinkedAccount{
			UserID:            user.ID,
			Provider:          "github",
			Type:              signin.AccountTypeOAuth,
			ProviderAccountID: "123",
		})
	}

	require.NoError(t, link(first))
	assert.Error(t, link(second), "the (provider, provider_account_id) pair is unique")
}

func TestStoreSessions(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()

	user, err := store.CreateUser(ctx, &signin.User{Email: "octo@example.com"})
	require.NoError(t, err)

	session, err := store.CreateSession(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, user.ID, session.UserID)

	found, err := store.GetSession(ctx, session.Token)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.UserID)

	require.NoError(t, store.DeleteSession(ctx, session.Token))

	gone, err := store.GetSession(ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestStoreExpiredSessionIsAMiss(t *testing.T) {
	store, cleanup := setupStore(t, WithSessionTTL(time.Millisecond))
	defer cleanup()

	ctx := context.Background()

	user, err := store.CreateUser(ctx, &signin.User{Email: "octo@example.com"})
	require.NoError(t, err)

	session, err := store.CreateSession(ctx, user)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	expired, err := store.GetSession(ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, expired, "expired sessions read as absent")
}
