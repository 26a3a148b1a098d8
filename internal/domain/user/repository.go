package user

import "context"

// Authenticator exchanges credentials for an opaque bearer token.
type Authenticator interface {
	Login(ctx context.Context, credentials Credentials) (string, error)
}
