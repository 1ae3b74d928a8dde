// Package session reads the bearer token issued by the auth service.
//
// Tokens are decoded locally for display and role gating only. Signatures
// are never checked here: the microservices that receive the token are the
// ones that verify it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
)

// RoleOperador is the restricted role; operators get the reduced navigation.
const RoleOperador = "OPERADOR"

var (
	// ErrNoToken indicates there is no token to decode.
	ErrNoToken = errors.New("no session token")

	// ErrMalformedToken indicates the token is not a three-part JWT with a
	// JSON payload.
	ErrMalformedToken = errors.New("malformed session token")
)

// Claims are the user attributes carried in the token payload.
type Claims struct {
	UserID     string    `json:"id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Nombre     string    `json:"nombre,omitempty"`
	ApellidoPa string    `json:"apellidoPa,omitempty"`
	ApellidoMa string    `json:"apellidoMa,omitempty"`
	Role       string    `json:"rol,omitempty"`
	Estado     *bool     `json:"estado,omitempty"`
	ExpiresAt  time.Time `json:"expiracion,omitempty"`
	IssuedAt   time.Time `json:"emision,omitempty"`

	// Payload is the raw decoded payload.
	Payload map[string]any `json:"-"`
}

// Decode parses the token payload without verifying its signature.
func Decode(token string) (Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Claims{}, ErrNoToken
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	c := Claims{
		UserID:     firstString(mc, "usuarioId", "id", "sub"),
		Email:      firstString(mc, "sub", "email", "correo"),
		Nombre:     repairLatin1(stringOf(mc["nombre"])),
		ApellidoPa: repairLatin1(stringOf(mc["apellidoPa"])),
		ApellidoMa: repairLatin1(stringOf(mc["apellidoMa"])),
		Role:       roleOf(mc),
		Estado:     truthy(mc["estado"]),
		Payload:    mc,
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	return c, nil
}

// FullName joins the name parts the way the console header shows them.
func (c Claims) FullName() string {
	switch {
	case c.Nombre != "" && c.ApellidoPa != "" && c.ApellidoMa != "":
		return strings.TrimSpace(c.Nombre + " " + c.ApellidoPa + " " + c.ApellidoMa)
	case c.Nombre != "" && c.ApellidoPa != "":
		return strings.TrimSpace(c.Nombre + " " + c.ApellidoPa)
	case c.Nombre != "":
		return c.Nombre
	default:
		return "Usuario"
	}
}

// Expired reports whether the token has an expiry at or before now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// HasRole reports whether the role matches any of roles, ignoring case.
func (c Claims) HasRole(roles ...string) bool {
	for _, r := range roles {
		if strings.EqualFold(strings.TrimSpace(r), c.Role) {
			return true
		}
	}
	return false
}

// IsOperator reports whether the user has the restricted operator role.
func (c Claims) IsOperator() bool {
	return c.HasRole(RoleOperador)
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringOf(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// roleOf accepts a plain string, an array (first element) or an object
// with nombre or tipo.
func roleOf(m map[string]any) string {
	var role any
	for _, k := range []string{"rol", "role", "roles", "authorities"} {
		if v, ok := m[k]; ok && v != nil && v != "" {
			role = v
			break
		}
	}

	switch t := role.(type) {
	case []any:
		if len(t) == 0 {
			return ""
		}
		role = t[0]
	case map[string]any:
		if s := firstString(t, "nombre", "tipo"); s != "" {
			role = s
		}
	}
	return strings.TrimSpace(stringOf(role))
}

func truthy(v any) *bool {
	var b bool
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		b = strings.EqualFold(t, "true")
	case bool:
		b = t
	case float64:
		b = t != 0
	default:
		b = true
	}
	return &b
}

// repairLatin1 undoes UTF-8 text that was decoded as Latin-1 upstream
// ("PÃ©rez" becomes "Pérez"). Strings that are not mojibake are returned
// unchanged.
func repairLatin1(s string) string {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return s
		}
		buf = append(buf, byte(r))
	}
	if !utf8.Valid(buf) || string(buf) == s {
		return s
	}
	return string(buf)
}
