package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"
)

const minPasswordLen = 8

// LoginRequest carries the credentials. Contrasena is never logged.
type LoginRequest struct {
	Email      string `json:"email"`
	Contrasena string `json:"contrasena"`
}

// Validate checks the request before it is sent.
func (r LoginRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.Contrasena == "" {
		return invalid("contrasena is required")
	}
	return nil
}

// LoginToken is the login payload, which the auth service sends either as
// a bare string or as {"token": "..."}.
type LoginToken string

// UnmarshalJSON accepts both shapes.
func (t *LoginToken) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = LoginToken(s)
		return nil
	}
	var obj struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*t = LoginToken(obj.Token)
	return nil
}

// ErrEmptyToken indicates a successful login response without a token.
var ErrEmptyToken = errors.New("login response has no token")

// PasswordChange completes recovery with the emailed code.
type PasswordChange struct {
	Email           string `json:"email"`
	NuevaContrasena string `json:"nuevaContrasena"`
	OTP             string `json:"otp"`
}

// Validate checks the request before it is sent.
func (r PasswordChange) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if strings.TrimSpace(r.OTP) == "" {
		return invalid("otp is required")
	}
	return validatePassword(r.NuevaContrasena)
}

// TemporaryPasswordChange replaces the temporary password assigned to a new
// user.
type TemporaryPasswordChange struct {
	Email              string `json:"email"`
	ContrasenaTemporal string `json:"contrasenaTemporal"`
	NuevaContrasena    string `json:"nuevaContrasena"`
}

// Validate checks the request before it is sent.
func (r TemporaryPasswordChange) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.ContrasenaTemporal == "" {
		return invalid("contrasenaTemporal is required")
	}
	if r.ContrasenaTemporal == r.NuevaContrasena {
		return invalid("nuevaContrasena must differ from the temporary one")
	}
	return validatePassword(r.NuevaContrasena)
}

func validatePassword(p string) error {
	if utf8.RuneCountInString(p) < minPasswordLen {
		return invalid("nuevaContrasena must have at least %d characters", minPasswordLen)
	}
	return nil
}

// AuthService handles login and password recovery.
type AuthService struct {
	c *Client
}

// NewAuthService wraps c.
func NewAuthService(c *Client) *AuthService {
	return &AuthService{c: c}
}

// Login exchanges credentials for a bearer token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	token, err := sendJSON[LoginToken](ctx, s.c, http.MethodPost, req, "login")
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrEmptyToken
	}
	return string(token), nil
}

// RequestRecovery emails a one-time code.
func (s *AuthService) RequestRecovery(ctx context.Context, email string) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", err
	}
	return sendJSON[string](ctx, s.c, http.MethodPost, map[string]string{"email": email}, "recuperar")
}

// VerifyRecoveryCode checks the emailed code.
func (s *AuthService) VerifyRecoveryCode(ctx context.Context, email, otp string) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if strings.TrimSpace(otp) == "" {
		return "", invalid("otp is required")
	}
	body := map[string]string{"email": email, "otp": otp}
	return sendJSON[string](ctx, s.c, http.MethodPost, body, "recuperar", "verificar")
}

func (s *AuthService) ChangePassword(ctx context.Context, req PasswordChange) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return sendJSON[string](ctx, s.c, http.MethodPost, req, "recuperar", "cambiar")
}

func (s *AuthService) ChangeTemporaryPassword(ctx context.Context, req TemporaryPasswordChange) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return sendJSON[string](ctx, s.c, http.MethodPost, req, "recuperar", "cambiar-temporal")
}
