// Package service holds the adapters that plug the API client into the
// interfaces the application layer declares.
package service

import (
	"context"

	"github.com/edfisica/pe-assessment-hub/internal/application/session"
	"github.com/edfisica/pe-assessment-hub/internal/infrastructure/external/api"
)

// AuthAdapter adapts api.AuthAPI to session.Authenticator.
type AuthAdapter struct {
	auth *api.AuthAPI
}

func NewAuthAdapter(client *api.Client) *AuthAdapter {
	return &AuthAdapter{auth: client.Auth()}
}

func (a *AuthAdapter) Login(ctx context.Context, email, password string) (session.Credentials, error) {
	res, err := a.auth.Login(ctx, email, password)
	if err != nil {
		return session.Credentials{}, err
	}
	return session.Credentials{Token: res.Token, User: res.User}, nil
}

func (a *AuthAdapter) Register(ctx context.Context, r session.Registration) (session.Credentials, error) {
	res, err := a.auth.Register(ctx, api.Registration{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Role:     r.Role,
	})
	if err != nil {
		return session.Credentials{}, err
	}
	return session.Credentials{Token: res.Token, User: res.User}, nil
}

var _ session.Authenticator = (*AuthAdapter)(nil)
