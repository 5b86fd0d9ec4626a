package signin

import "github.com/goliatone/go-errors"

const (
	TextCodeInvalidInput      = "signin_invalid_input"
	TextCodeAccountNotLinked  = "signin_account_not_linked"
	TextCodePersistenceFailed = "signin_persistence_failed"
	TextCodeTokenExpired      = "signin_token_expired"
	TextCodeTokenMalformed    = "signin_token_malformed"
)

// ErrInvalidInput is returned when the reconcile inputs fail precondition
// checks. No port call has happened when this is returned.
var ErrInvalidInput = errors.New("invalid sign-in input", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidInput).
	WithCode(errors.CodeBadRequest)

// ErrAccountNotLinked is returned when an authenticated user presents an
// external account that is already bound to a different user, or when strict
// linking rejects an unauthenticated email collision. Never auto-resolved.
var ErrAccountNotLinked = errors.New("external account is linked to another user", errors.CategoryConflict).
	WithTextCode(TextCodeAccountNotLinked).
	WithCode(errors.CodeConflict)

// ErrPersistenceFailed coalesces every store failure, including uniqueness
// races, into one opaque failure kind.
var ErrPersistenceFailed = errors.New("persistence operation failed", errors.CategoryOperation).
	WithTextCode(TextCodePersistenceFailed).
	WithCode(errors.CodeInternal)

// ErrTokenExpired is returned by Codec.Decode for expired tokens.
var ErrTokenExpired = errors.New("session token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned by Codec.Decode for tokens that do not parse
// or validate.
var ErrTokenMalformed = errors.New("session token malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

func wrapInvalidInput(err error) error {
	if err == nil {
		return ErrInvalidInput
	}
	return errors.Wrap(err, ErrInvalidInput.Category, ErrInvalidInput.Message).
		WithTextCode(ErrInvalidInput.TextCode).
		WithCode(errors.CodeBadRequest)
}

func wrapStoreError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, ErrPersistenceFailed.Category, ErrPersistenceFailed.Message).
		WithTextCode(ErrPersistenceFailed.TextCode).
		WithCode(errors.CodeInternal).
		WithMetadata(map[string]any{
			"operation": operation,
		})
}
