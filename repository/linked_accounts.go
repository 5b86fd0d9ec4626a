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

// LinkedAccountModel is the bun model for linked external accounts.
type LinkedAccountModel struct {
	bun.BaseModel `bun:"table:linked_accounts"`

	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid"`
	UserID            uuid.UUID  `bun:"user_id,notnull,type:uuid"`
	Provider          string     `bun:"provider,notnull"`
	Type              string     `bun:"type,notnull"`
	ProviderAccountID string     `bun:"provider_account_id,notnull"`
	AccessToken       string     `bun:"access_token"`
	RefreshToken      string     `bun:"refresh_token"`
	TokenExpiresAt    *time.Time `bun:"token_expires_at"`
	CreatedAt         time.Time  `bun:"created_at,default:current_timestamp"`
}

// LinkAccount implements signin.Store. The insert is not an upsert: the
// (provider, provider_account_id) uniqueness constraint must reject
// conflicting links, and that conflict error is surfaced to the caller.
func (s *Store) LinkAccount(ctx context.Context, link *signin.LinkedAccount) error {
	model := &LinkedAccountModel{
		ID:                uuid.New(),
		UserID:            link.UserID,
		Provider:          link.Provider,
		Type:              string(link.Type),
		ProviderAccountID: link.ProviderAccountID,
		AccessToken:       link.AccessToken,
		RefreshToken:      link.RefreshToken,
		TokenExpiresAt:    link.TokenExpiresAt,
		CreatedAt:         time.Now(),
	}

	_, err := s.db.NewInsert().
		Model(model).
		Exec(ctx)

	return err
}

// GetUserByProviderAccountID implements signin.Store.
func (s *Store) GetUserByProviderAccountID(ctx context.Context, provider, providerAccountID string) (*signin.User, error) {
	var model LinkedAccountModel
	err := s.db.NewSelect().
		Model(&model).
		Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repobun.IsRecordNotFound(err) || err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	user, err := s.getUserBy(ctx, "id", model.UserID.String())
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Dangling edge: the link exists but its owner is gone.
		return nil, repobun.NewRecordNotFound().WithMetadata(map[string]any{
			"provider":            provider,
			"provider_account_id": providerAccountID,
			"user_id":             model.UserID.String(),
		})
	}

	return user, nil
}
