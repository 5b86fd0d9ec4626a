package signin

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the durable identity record.
type User struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email           string         `bun:"email,unique,nullzero" json:"email,omitempty"`
	EmailVerifiedAt *time.Time     `bun:"email_verified_at,nullzero" json:"email_verified_at,omitempty"`
	FirstName       string         `bun:"first_name" json:"first_name,omitempty"`
	LastName        string         `bun:"last_name" json:"last_name,omitempty"`
	Username        string         `bun:"username" json:"username,omitempty"`
	AvatarURL       string         `bun:"avatar_url" json:"avatar_url,omitempty"`
	Metadata        map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt       *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt       *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// NewUserFromProfile builds an unsaved User from a verified profile.
func NewUserFromProfile(profile *Profile) *User {
	if profile == nil {
		return &User{}
	}

	user := &User{
		Email:     profile.Email,
		AvatarURL: profile.AvatarURL,
	}

	if profile.FirstName != "" {
		user.FirstName = profile.FirstName
		user.LastName = profile.LastName
	} else if profile.Name != "" {
		parts := strings.SplitN(profile.Name, " ", 2)
		user.FirstName = parts[0]
		if len(parts) > 1 {
			user.LastName = parts[1]
		}
	}

	if profile.Username != "" {
		user.Username = profile.Username
	} else if profile.Email != "" {
		user.Username = strings.Split(profile.Email, "@")[0]
	}

	if len(profile.Raw) > 0 {
		user.Metadata = map[string]any{
			"profile": profile.Raw,
		}
	}

	return user
}

// LinkedAccount is the durable (provider, provider account id) to user edge.
// Created exactly once per successful link, never mutated here.
type LinkedAccount struct {
	UserID            uuid.UUID   `json:"user_id"`
	Provider          string      `json:"provider"`
	Type              AccountType `json:"type"`
	ProviderAccountID string      `json:"provider_account_id"`
	AccessToken       string      `json:"-"`
	RefreshToken      string      `json:"-"`
	TokenExpiresAt    *time.Time  `json:"token_expires_at,omitempty"`
}

// Session represents the issued session. Under SessionModeJWT the Token is
// empty: the caller mints the self-contained token from UserID.
type Session struct {
	Token     string     `json:"-"`
	UserID    uuid.UUID  `json:"user_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
