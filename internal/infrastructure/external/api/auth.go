package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// AuthAPI groups the /auth endpoints.
type AuthAPI struct {
	c *Client
}

// AuthResult contains the result of a login or registration.
type AuthResult struct {
	Token string
	User  user.User
}

// Registration contains the fields of a new account.
type Registration struct {
	Name     string
	Email    string
	Password string
	Role     user.Role
}

// Login authenticates with email and password.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := LoginRequestDTO{Email: strings.TrimSpace(email), Password: password}
	resp, err := call[AuthResponseDTO](ctx, a.c, http.MethodPost, "/auth/login", "/auth/login", body, "data")
	if err != nil {
		return nil, err
	}
	return a.result(resp)
}

// Register creates an account and signs it in. An empty role registers a professor.
func (a *AuthAPI) Register(ctx context.Context, r Registration) (*AuthResult, error) {
	role := r.Role
	if role == "" {
		role = user.RoleProfessor
	}
	body := RegisterRequestDTO{
		Name:     strings.TrimSpace(r.Name),
		Email:    strings.TrimSpace(r.Email),
		Password: r.Password,
		Role:     string(role),
	}
	resp, err := call[AuthResponseDTO](ctx, a.c, http.MethodPost, "/auth/register", "/auth/register", body, "data")
	if err != nil {
		return nil, err
	}
	return a.result(resp)
}

func (a *AuthAPI) result(resp AuthResponseDTO) (*AuthResult, error) {
	if resp.Token == "" {
		return nil, shared.NewDomainError("api", "auth", shared.ErrInvalidFormat, "resposta de login sem token")
	}
	u, err := a.c.mapper.UserFromDTO(&resp.User)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: resp.Token, User: *u}, nil
}
