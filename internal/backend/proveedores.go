package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

// Proveedor is a supplier.
type Proveedor struct {
	ID                  int64  `json:"id,omitempty"`
	NombreEmpresa       string `json:"nombreEmpresa"`
	NumTelefono         string `json:"numTelefono"`
	NombreRepresentante string `json:"nombreRepresentante,omitempty"`
	MaterialProvee      string `json:"materialProvee"`
	Fotografia          string `json:"fotografia,omitempty"`
}

// ProveedorRequest creates or updates a supplier.
type ProveedorRequest struct {
	NombreEmpresa       string
	NumTelefono         string
	MaterialProvee      string
	Fotografia          string
	NombreRepresentante string
}

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()-]{7,20}$`)

// Validate checks the request before it is sent.
func (r ProveedorRequest) Validate() error {
	if strings.TrimSpace(r.NombreEmpresa) == "" {
		return invalid("nombreEmpresa is required")
	}
	if !phonePattern.MatchString(strings.TrimSpace(r.NumTelefono)) {
		return invalid("numTelefono %q is not a phone number", r.NumTelefono)
	}
	if strings.TrimSpace(r.MaterialProvee) == "" {
		return invalid("materialProvee is required")
	}
	return nil
}

// MarshalJSON writes the body the proveedores service binds: the photo as
// bare base64 (or null) and the representative under its historical
// "nombreReprecentante" key.
func (r ProveedorRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		NombreEmpresa       string  `json:"nombreEmpresa"`
		NumTelefono         string  `json:"numTelefono"`
		MaterialProvee      string  `json:"materialProvee"`
		Fotografia          *string `json:"fotografia"`
		NombreReprecentante *string `json:"nombreReprecentante"`
	}{
		NombreEmpresa:       r.NombreEmpresa,
		NumTelefono:         r.NumTelefono,
		MaterialProvee:      r.MaterialProvee,
		Fotografia:          nullable(StripDataURL(r.Fotografia)),
		NombreReprecentante: nullable(r.NombreRepresentante),
	})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ProveedoresService manages suppliers.
type ProveedoresService struct {
	c *Client
}

// NewProveedoresService wraps c.
func NewProveedoresService(c *Client) *ProveedoresService {
	return &ProveedoresService{c: c}
}

func (s *ProveedoresService) List(ctx context.Context) ([]Proveedor, error) {
	return getList[Proveedor](ctx, s.c)
}

func (s *ProveedoresService) Get(ctx context.Context, id int64) (Proveedor, error) {
	return getJSON[Proveedor](ctx, s.c, itoa(id))
}

func (s *ProveedoresService) Create(ctx context.Context, req ProveedorRequest) (Proveedor, error) {
	if err := req.Validate(); err != nil {
		return Proveedor{}, err
	}
	return sendJSON[Proveedor](ctx, s.c, http.MethodPost, req)
}

func (s *ProveedoresService) Update(ctx context.Context, id int64, req ProveedorRequest) (Proveedor, error) {
	if err := req.Validate(); err != nil {
		return Proveedor{}, err
	}
	return sendJSON[Proveedor](ctx, s.c, http.MethodPut, req, itoa(id))
}

func (s *ProveedoresService) Delete(ctx context.Context, id int64) error {
	_, err := sendJSON[any](ctx, s.c, http.MethodDelete, nil, itoa(id))
	return err
}
