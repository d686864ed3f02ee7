// Package auth issues and checks the credentials of Verdant users.
package auth

import (
	"context"

	"github.com/mmynk/verdant/internal/models"
)

// Authenticator verifies user credentials. The service layer only sees this
// interface, so the credential scheme can change without touching it.
type Authenticator interface {
	// Register creates a user account. The credential format depends on
	// the implementation.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user owning email if credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	ValidateCredential(credential string) error
}
