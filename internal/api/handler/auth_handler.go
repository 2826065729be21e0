package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/ports"
	"github.com/microtask/taskhub/internal/core/service"
)

type AuthHandler struct {
	auth    Auth
	economy domain.Economy
}

func NewAuthHandler(auth Auth, economy domain.Economy) *AuthHandler {
	return &AuthHandler{auth: auth, economy: economy}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type externalLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type selectRoleRequest struct {
	Role domain.Role `json:"role" validate:"required,oneof=worker buyer"`
}

type authResponse struct {
	Redirect string       `json:"redirect"`
	Session  *sessionView `json:"session"`
	Bonus    int          `json:"bonus,omitempty"`
}

func outcome(o *service.LoginOutcome) authResponse {
	return authResponse{Redirect: o.Route, Session: toSessionView(o.Session, nil), Bonus: o.Bonus}
}

// LoginForm describes the login view.
//
// @Summary      Login view
// @Tags         auth
// @Produce      json
// @Success      200  {object}  viewResponse
// @Success      303  "authenticated sessions go to their landing route"
// @Router       /login [get]
func (h *AuthHandler) LoginForm(c echo.Context) error {
	return c.JSON(http.StatusOK, viewResponse{View: "login"})
}

// RegisterForm describes the register view with the signup bonus per role.
//
// @Summary      Register view
// @Tags         auth
// @Produce      json
// @Success      200  {object}  viewResponse
// @Router       /register [get]
func (h *AuthHandler) RegisterForm(c echo.Context) error {
	return c.JSON(http.StatusOK, viewResponse{View: "register", Data: map[string]any{
		"roles": []domain.Role{domain.RoleWorker, domain.RoleBuyer},
		"bonus": map[domain.Role]int{
			domain.RoleWorker: h.economy.BonusFor(domain.RoleWorker),
			domain.RoleBuyer:  h.economy.BonusFor(domain.RoleBuyer),
		},
	}})
}

// Login exchanges email and password for a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	out, ok, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
	}
	return c.JSON(http.StatusOK, outcome(out))
}

// Register creates an account with the chosen role and logs it in.
//
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      ports.RegisterInput  true  "Profile and role"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req ports.RegisterInput
	if err := c.Bind(&req); err != nil {
		return badPayload(c)
	}

	out, err := h.auth.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, outcome(out))
}

// ExternalLogin exchanges a federated identity assertion for a session. A
// first-time identity is sent to role selection.
//
// @Summary      External identity login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      externalLoginRequest  true  "Provider ID token"
// @Success      200   {object}  authResponse
// @Router       /auth/external [post]
func (h *AuthHandler) ExternalLogin(c echo.Context) error {
	var req externalLoginRequest
	if err := c.Bind(&req); err != nil {
		return badPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	out, err := h.auth.LoginWithExternalIdentity(c.Request().Context(), req.IDToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, outcome(out))
}

func (h *AuthHandler) SelectRoleForm(c echo.Context) error {
	return c.JSON(http.StatusOK, viewResponse{View: "select-role", Data: map[string]any{
		"roles": []domain.Role{domain.RoleWorker, domain.RoleBuyer},
	}})
}

// SelectRole completes a deferred signup.
//
// @Summary      Select role
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      selectRoleRequest  true  "Role"
// @Success      200   {object}  authResponse
// @Failure      409   {object}  map[string]string
// @Router       /select-role [post]
func (h *AuthHandler) SelectRole(c echo.Context) error {
	var req selectRoleRequest
	if err := c.Bind(&req); err != nil {
		return badPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	out, err := h.auth.SelectRole(c.Request().Context(), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, outcome(out))
}

// Logout always ends the session, even if revoking the external identity fails.
// When the stored credential cannot be removed the user is told to retry
// instead of being shown the login screen.
//
// @Summary      Logout
// @Tags         auth
// @Success      303
// @Failure      503  {object}  map[string]string
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.auth.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, service.RouteLogin)
}
