package session

import "context"

// AuthAPI is the server side of authentication.
type AuthAPI interface {
	Login(ctx context.Context, form LoginForm) (*LoginResult, error)
	Me(ctx context.Context) (*Profile, error)
	Logout(ctx context.Context) error
}

// TokenRepository persists the bearer token across restarts.
type TokenRepository interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
