package signin

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionMode selects how sessions are represented.
type SessionMode = string

const (
	// SessionModeDatabase keeps sessions as persisted records keyed by an
	// opaque token.
	SessionModeDatabase SessionMode = "database"
	// SessionModeJWT treats sessions as self-contained signed tokens; the
	// reconciler never persists or deletes them.
	SessionModeJWT SessionMode = "jwt"
)

// Link modes for the unauthenticated OAuth path that collides with an
// existing email.
const (
	// LinkModeAutoLink attaches the external account to the email-matched
	// user. This avoids duplicate users and blocks throwaway provider
	// identities registered under a victim's email from presenting as fresh
	// sign-ups, at the cost of linking without a proof-of-control session.
	LinkModeAutoLink = "auto_link"
	// LinkModeStrict rejects the collision with ErrAccountNotLinked; the
	// existing user has to sign in first and link explicitly.
	LinkModeStrict = "strict"
)

// Config controls session representation and linking strictness.
type Config struct {
	SessionMode SessionMode
	LinkMode    string
}

// Result is the outcome of a reconciled sign-in attempt.
type Result struct {
	Session   *Session `json:"session,omitempty"`
	User      *User    `json:"user,omitempty"`
	IsNewUser bool     `json:"is_new_user"`
}

// Reconciler decides what a verified sign-in attempt means for the durable
// identity records behind it.
type Reconciler struct {
	store  Store
	codec  TokenCodec
	hooks  Hooks
	logger Logger
	config Config
}

// Option configures the reconciler.
type Option func(*Reconciler)

// New creates a Reconciler. A nil store puts the reconciler in transient
// mode: no lookups, no writes, the profile is echoed back as a non-persisted
// identity.
func New(store Store, config Config, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  store,
		hooks:  noopHooks{},
		logger: defLogger{},
		config: config,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if r.config.SessionMode == "" {
		if r.codec != nil {
			r.config.SessionMode = SessionModeJWT
		} else {
			r.config.SessionMode = SessionModeDatabase
		}
	}
	if r.config.LinkMode == "" {
		r.config.LinkMode = LinkModeAutoLink
	}

	return r
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCodec sets the session token codec used under SessionModeJWT.
func WithCodec(codec TokenCodec) Option {
	return func(r *Reconciler) {
		r.codec = codec
	}
}

// WithHooks sets the mutation observer.
func WithHooks(hooks Hooks) Option {
	return func(r *Reconciler) {
		r.hooks = normalizeHooks(hooks)
	}
}

// actor is the resolved current user for the attempt, if any. A zero actor
// means the attempt is unauthenticated.
type actor struct {
	user    *User
	session *Session
}

func (a actor) signedIn() bool {
	return a.user != nil
}

// Reconcile decides the outcome of one verified sign-in attempt.
//
// sessionToken may be empty. profile and account must be present and valid;
// violations fail with ErrInvalidInput before any port call. Store failures
// surface as ErrPersistenceFailed and abort the remaining steps. Hook errors
// propagate unchanged.
func (r *Reconciler) Reconcile(ctx context.Context, sessionToken string, profile *Profile, account *ExternalAccount) (*Result, error) {
	if profile == nil {
		return nil, ErrInvalidInput
	}
	if account == nil {
		return nil, ErrInvalidInput
	}
	if err := account.Validate(); err != nil {
		return nil, wrapInvalidInput(err)
	}

	if r.store == nil {
		return r.reconcileTransient(profile), nil
	}

	current, err := r.resolveActor(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	if account.Type == AccountTypeEmail {
		return r.reconcileEmail(ctx, current, profile)
	}

	return r.reconcileOAuth(ctx, current, profile, account)
}

// reconcileTransient serves stateless deployments: the profile comes back as
// a non-persisted identity and nothing is stored.
func (r *Reconciler) reconcileTransient(profile *Profile) *Result {
	user := NewUserFromProfile(profile)
	user.ID = uuid.New()

	return &Result{
		Session: &Session{UserID: user.ID},
		User:    user,
	}
}

// resolveActor turns a session token into the current actor. An absent,
// undecodable, or dangling token is a normal "no actor" outcome, never an
// error; only store failures propagate.
func (r *Reconciler) resolveActor(ctx context.Context, token string) (actor, error) {
	if token == "" {
		return actor{}, nil
	}

	if r.config.SessionMode == SessionModeJWT {
		if r.codec == nil {
			return actor{}, nil
		}

		subject, err := r.codec.Decode(token)
		if err != nil {
			r.logger.Debug("session token rejected: %v", err)
			return actor{}, nil
		}

		id, err := uuid.Parse(subject)
		if err != nil {
			r.logger.Debug("session token subject is not a user id: %v", err)
			return actor{}, nil
		}

		user, err := r.store.GetUser(ctx, id)
		if err != nil {
			return actor{}, wrapStoreError("get_user", err)
		}
		if user == nil {
			return actor{}, nil
		}

		return actor{user: user, session: &Session{Token: token, UserID: user.ID}}, nil
	}

	session, err := r.store.GetSession(ctx, token)
	if err != nil {
		return actor{}, wrapStoreError("get_session", err)
	}
	if session == nil {
		return actor{}, nil
	}

	user, err := r.store.GetUser(ctx, session.UserID)
	if err != nil {
		return actor{}, wrapStoreError("get_user", err)
	}
	if user == nil {
		return actor{}, nil
	}

	return actor{user: user, session: session}, nil
}

func (r *Reconciler) reconcileEmail(ctx context.Context, current actor, profile *Profile) (*Result, error) {
	var existing *User
	if profile.Email != "" {
		found, err := r.store.GetUserByEmail(ctx, profile.Email)
		if err != nil {
			return nil, wrapStoreError("get_user_by_email", err)
		}
		existing = found
	}

	if existing == nil {
		user := NewUserFromProfile(profile)
		now := time.Now()
		user.EmailVerifiedAt = &now

		created, err := r.store.CreateUser(ctx, user)
		if err != nil {
			return nil, wrapStoreError("create_user", err)
		}
		if err := r.hooks.UserCreated(ctx, created); err != nil {
			return nil, err
		}

		session, err := r.issueSession(ctx, created)
		if err != nil {
			return nil, err
		}

		return &Result{Session: session, User: created, IsNewUser: true}, nil
	}

	// Repeat sign-in. A persisted session held by a different user is stale
	// and must be disposed of before the new one exists.
	if current.signedIn() &&
		r.config.SessionMode == SessionModeDatabase &&
		current.user.ID != existing.ID &&
		current.session != nil && current.session.Token != "" {
		if err := r.store.DeleteSession(ctx, current.session.Token); err != nil {
			return nil, wrapStoreError("delete_session", err)
		}
	}

	now := time.Now()
	existing.EmailVerifiedAt = &now

	updated, err := r.store.UpdateUser(ctx, existing)
	if err != nil {
		return nil, wrapStoreError("update_user", err)
	}
	if err := r.hooks.UserUpdated(ctx, updated); err != nil {
		return nil, err
	}

	session, err := r.issueSession(ctx, updated)
	if err != nil {
		return nil, err
	}

	return &Result{Session: session, User: updated, IsNewUser: false}, nil
}

func (r *Reconciler) reconcileOAuth(ctx context.Context, current actor, profile *Profile, account *ExternalAccount) (*Result, error) {
	linked, err := r.store.GetUserByProviderAccountID(ctx, account.Provider, account.ProviderAccountID)
	if err != nil {
		return nil, wrapStoreError("get_user_by_provider_account_id", err)
	}

	if linked != nil {
		if current.signedIn() {
			if linked.ID == current.user.ID {
				// Re-confirmation of an account the actor already owns.
				return &Result{Session: current.session, User: current.user, IsNewUser: false}, nil
			}
			r.logger.Info("rejected link of %s/%s: bound to another user", account.Provider, account.ProviderAccountID)
			return nil, ErrAccountNotLinked
		}

		session, err := r.issueSession(ctx, linked)
		if err != nil {
			return nil, err
		}
		return &Result{Session: session, User: linked, IsNewUser: false}, nil
	}

	if current.signedIn() {
		// The actor is an authenticated identity; no email-collision check
		// is needed to attach a new provider.
		if err := r.linkAccount(ctx, current.user, account); err != nil {
			return nil, err
		}
		return &Result{Session: current.session, User: current.user, IsNewUser: false}, nil
	}

	var owner *User
	if profile.Email != "" {
		found, err := r.store.GetUserByEmail(ctx, profile.Email)
		if err != nil {
			return nil, wrapStoreError("get_user_by_email", err)
		}
		owner = found
	}

	isNewUser := false
	if owner == nil {
		created, err := r.store.CreateUser(ctx, NewUserFromProfile(profile))
		if err != nil {
			return nil, wrapStoreError("create_user", err)
		}
		if err := r.hooks.UserCreated(ctx, created); err != nil {
			return nil, err
		}
		owner = created
		isNewUser = true
	} else if r.config.LinkMode == LinkModeStrict {
		r.logger.Info("rejected unauthenticated link of %s/%s: email already registered", account.Provider, account.ProviderAccountID)
		return nil, ErrAccountNotLinked
	}

	if err := r.linkAccount(ctx, owner, account); err != nil {
		return nil, err
	}

	session, err := r.issueSession(ctx, owner)
	if err != nil {
		return nil, err
	}

	return &Result{Session: session, User: owner, IsNewUser: isNewUser}, nil
}

func (r *Reconciler) linkAccount(ctx context.Context, user *User, account *ExternalAccount) error {
	link := &LinkedAccount{
		UserID:            user.ID,
		Provider:          account.Provider,
		Type:              account.Type,
		ProviderAccountID: account.ProviderAccountID,
		AccessToken:       account.AccessToken,
		RefreshToken:      account.RefreshToken,
		TokenExpiresAt:    account.TokenExpiresAt,
	}

	if err := r.store.LinkAccount(ctx, link); err != nil {
		return wrapStoreError("link_account", err)
	}

	return r.hooks.AccountLinked(ctx, user, account)
}

// issueSession creates a persisted session, or a placeholder the caller
// turns into a signed token under SessionModeJWT.
func (r *Reconciler) issueSession(ctx context.Context, user *User) (*Session, error) {
	if r.config.SessionMode == SessionModeJWT {
		return &Session{UserID: user.ID}, nil
	}

	session, err := r.store.CreateSession(ctx, user)
	if err != nil {
		return nil, wrapStoreError("create_session", err)
	}

	return session, nil
}
