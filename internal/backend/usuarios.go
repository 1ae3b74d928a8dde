package backend

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
)

// Usuario is a console user.
type Usuario struct {
	ID         int64  `json:"id,omitempty"`
	Nombre     string `json:"nombre"`
	ApellidoPa string `json:"apellidoPa"`
	ApellidoMa string `json:"apellidoMa"`
	Email      string `json:"email"`
	Contrasena string `json:"contrasena,omitempty"`
	Rol        string `json:"rol"`
}

// UsuarioRequest creates or updates a user.
type UsuarioRequest struct {
	Nombre     string `json:"nombre"`
	ApellidoPa string `json:"apellidoPa"`
	ApellidoMa string `json:"apellidoMa"`
	Email      string `json:"email"`
	Contrasena string `json:"contrasena"`
	Rol        string `json:"rol"`
}

// Validate checks the request before it is sent.
func (r UsuarioRequest) Validate() error {
	if strings.TrimSpace(r.Nombre) == "" || strings.TrimSpace(r.ApellidoPa) == "" {
		return invalid("nombre and apellidoPa are required")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if strings.TrimSpace(r.Rol) == "" {
		return invalid("rol is required")
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email %q is not valid", email)
	}
	return nil
}

// UsuariosService manages users.
type UsuariosService struct {
	c *Client
}

// NewUsuariosService wraps c.
func NewUsuariosService(c *Client) *UsuariosService {
	return &UsuariosService{c: c}
}

func (s *UsuariosService) Create(ctx context.Context, req UsuarioRequest) (Usuario, error) {
	if err := req.Validate(); err != nil {
		return Usuario{}, err
	}
	if req.Contrasena == "" {
		return Usuario{}, invalid("contrasena is required")
	}
	return sendJSON[Usuario](ctx, s.c, http.MethodPost, req)
}

func (s *UsuariosService) List(ctx context.Context) ([]Usuario, error) {
	return getList[Usuario](ctx, s.c)
}

func (s *UsuariosService) Get(ctx context.Context, id int64) (Usuario, error) {
	return getJSON[Usuario](ctx, s.c, itoa(id))
}

func (s *UsuariosService) GetByEmail(ctx context.Context, email string) (Usuario, error) {
	if err := validateEmail(email); err != nil {
		return Usuario{}, err
	}
	return getJSON[Usuario](ctx, s.c, "email", email)
}

// Update replaces the user identified by email.
func (s *UsuariosService) Update(ctx context.Context, email string, req UsuarioRequest) (Usuario, error) {
	if err := validateEmail(email); err != nil {
		return Usuario{}, err
	}
	if err := req.Validate(); err != nil {
		return Usuario{}, err
	}
	return sendJSON[Usuario](ctx, s.c, http.MethodPut, req, "email", email)
}

func (s *UsuariosService) Delete(ctx context.Context, id int64) error {
	_, err := sendJSON[any](ctx, s.c, http.MethodDelete, nil, itoa(id))
	return err
}
