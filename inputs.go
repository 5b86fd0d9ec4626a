package signin

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// AccountType identifies the authentication method behind an attempt.
type AccountType = string

const (
	// AccountTypeEmail marks a verified email (magic link) sign-in.
	AccountTypeEmail AccountType = "email"
	// AccountTypeOAuth marks a verified OAuth provider sign-in.
	AccountTypeOAuth AccountType = "oauth"
)

// Profile carries verified identity claims from the external provider.
// Immutable input; the reconciler never writes to it.
type Profile struct {
	Email     string         `json:"email,omitempty"`
	Name      string         `json:"name,omitempty"`
	FirstName string         `json:"first_name,omitempty"`
	LastName  string         `json:"last_name,omitempty"`
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Raw       map[string]any `json:"raw,omitempty"`
}

// ExternalAccount describes the already-verified authentication method used
// for this attempt. Transport credentials are opaque to the reconciler and
// only handed through to the store when a link is created.
type ExternalAccount struct {
	Type              AccountType `json:"type"`
	Provider          string      `json:"provider,omitempty"`
	ProviderAccountID string      `json:"provider_account_id"`
	AccessToken       string      `json:"-"`
	RefreshToken      string      `json:"-"`
	TokenExpiresAt    *time.Time  `json:"token_expires_at,omitempty"`
}

// Validate checks the reconcile preconditions for the account descriptor.
func (a ExternalAccount) Validate() error {
	if err := validation.ValidateStruct(&a,
		validation.Field(
			&a.Type,
			validation.Required,
			validation.In(AccountTypeEmail, AccountTypeOAuth),
		),
		validation.Field(
			&a.ProviderAccountID,
			validation.Required,
		),
	); err != nil {
		return err
	}

	if a.Type == AccountTypeOAuth {
		return validation.ValidateStruct(&a,
			validation.Field(&a.Provider, validation.Required),
		)
	}

	return nil
}
