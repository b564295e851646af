package restapi

import (
	"context"

	"github.com/rpggio/ticketdesk/internal/apiclient"
	"github.com/rpggio/ticketdesk/internal/domain/session"
)

var _ session.AuthAPI = (*Auth)(nil)

// Auth talks to /auth.
type Auth struct {
	client *apiclient.Client
}

// NewAuth creates the auth endpoints.
func NewAuth(client *apiclient.Client) *Auth {
	return &Auth{client: client}
}

func (a *Auth) Login(ctx context.Context, form session.LoginForm) (*session.LoginResult, error) {
	var out session.LoginResult
	if err := a.client.Post(ctx, "/auth/login", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Auth) Me(ctx context.Context) (*session.Profile, error) {
	var out session.Profile
	if err := a.client.Get(ctx, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Auth) Logout(ctx context.Context) error {
	return a.client.Post(ctx, "/auth/logout", nil, nil)
}
