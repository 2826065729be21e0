package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/ports"
)

// userDTO is the user object every auth endpoint returns.
type userDTO struct {
	ID        string      `json:"_id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	PhotoURL  string      `json:"photoUrl"`
	Role      domain.Role `json:"role"`
	Coins     int         `json:"coins"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (u userDTO) toSession() domain.Session {
	return domain.Session{
		ID:          u.ID,
		DisplayName: u.Name,
		Email:       u.Email,
		AvatarRef:   u.PhotoURL,
		Role:        u.Role,
		CoinBalance: u.Coins,
		IssuedAt:    time.Now().UTC(),
	}
}

type authResponse struct {
	Token     string  `json:"token"`
	User      userDTO `json:"user"`
	IsNewUser bool    `json:"isNewUser"`
}

func (r *authResponse) toResult() *ports.AuthResult {
	return &ports.AuthResult{Token: r.Token, Session: r.User.toSession(), IsNewUser: r.IsNewUser}
}

type verifyResponse struct {
	User userDTO `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type externalLoginRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoUrl"`
	ExternalUID string `json:"externalUid"`
	IDToken     string `json:"idToken"`
}

// AuthAPI implements ports.AuthBackend.
type AuthAPI struct {
	gw *Gateway
}

func NewAuthAPI(gw *Gateway) *AuthAPI {
	return &AuthAPI{gw: gw}
}

func (a *AuthAPI) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	var resp authResponse
	if err := a.gw.Do(ctx, http.MethodPost, "/auth/register", in, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, nil
	}
	return resp.toResult(), nil
}

func (a *AuthAPI) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	var resp authResponse
	if err := a.gw.Do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return resp.toResult(), nil
}

func (a *AuthAPI) ExternalLogin(ctx context.Context, id ports.ExternalIdentity) (*ports.AuthResult, error) {
	body := externalLoginRequest{
		Name:        id.Name,
		Email:       id.Email,
		PhotoURL:    id.PhotoURL,
		ExternalUID: id.UID,
		IDToken:     id.Assertion,
	}
	var resp authResponse
	if err := a.gw.Do(ctx, http.MethodPost, "/auth/google-login", body, &resp); err != nil {
		return nil, err
	}
	return resp.toResult(), nil
}

// Verify reads the authoritative session for token.
func (a *AuthAPI) Verify(ctx context.Context, token string) (*domain.Session, error) {
	var resp verifyResponse
	if err := a.gw.Do(ctx, http.MethodGet, "/auth/verify", nil, &resp, WithBearer(token)); err != nil {
		return nil, err
	}
	sess := resp.User.toSession()
	return &sess, nil
}
