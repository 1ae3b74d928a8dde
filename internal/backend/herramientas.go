package backend

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"
)

// ProveedorResumen is the supplier summary embedded in item responses.
type ProveedorResumen struct {
	ID                  int64  `json:"id,omitempty"`
	NombreEmpresa       string `json:"nombreEmpresa,omitempty"`
	NombreRepresentante string `json:"nombreRepresentante,omitempty"`
	NumTelefono         string `json:"numTelefono,omitempty"`
	MaterialProvee      string `json:"materialProvee,omitempty"`
	Fotografia          string `json:"fotografia,omitempty"`
}

// Herramienta is a tool kept in a warehouse.
type Herramienta struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	Foto        string `json:"foto,omitempty"`
	IDAlmacen   int64  `json:"idAlmacen,omitempty"`
	IDProveedor int64  `json:"idProveedor,omitempty"`
}

// HerramientaConProveedor includes the supplier details.
type HerramientaConProveedor struct {
	ID        int64            `json:"id"`
	Nombre    string           `json:"nombre"`
	IDAlmacen int64            `json:"idAlmacen,omitempty"`
	Foto      string           `json:"foto,omitempty"`
	Proveedor ProveedorResumen `json:"proveedor"`
}

// HerramientaRequest creates or updates a tool.
type HerramientaRequest struct {
	ID          *int64 `json:"id,omitempty"`
	Nombre      string `json:"nombre"`
	Foto        string `json:"foto"`
	IDAlmacen   int64  `json:"idAlmacen"`
	IDProveedor int64  `json:"idProveedor"`
}

// Validate checks the request before it is sent.
func (r HerramientaRequest) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(r.Nombre)) < 2 {
		return invalid("nombre must have at least 2 characters")
	}
	if r.IDAlmacen <= 0 {
		return invalid("idAlmacen is required")
	}
	if r.IDProveedor <= 0 {
		return invalid("idProveedor is required")
	}
	return nil
}

// HerramientasService manages tools.
type HerramientasService struct {
	c *Client
}

// NewHerramientasService wraps c.
func NewHerramientasService(c *Client) *HerramientasService {
	return &HerramientasService{c: c}
}

func (s *HerramientasService) Create(ctx context.Context, req HerramientaRequest) (Herramienta, error) {
	if err := req.Validate(); err != nil {
		return Herramienta{}, err
	}
	req.Foto = StripDataURL(req.Foto)
	return sendJSON[Herramienta](ctx, s.c, http.MethodPost, req, "crear")
}

func (s *HerramientasService) List(ctx context.Context) ([]Herramienta, error) {
	return getJSON[[]Herramienta](ctx, s.c)
}

func (s *HerramientasService) Get(ctx context.Context, id int64) (Herramienta, error) {
	return getJSON[Herramienta](ctx, s.c, itoa(id))
}

func (s *HerramientasService) Update(ctx context.Context, id int64, req HerramientaRequest) (Herramienta, error) {
	if err := req.Validate(); err != nil {
		return Herramienta{}, err
	}
	req.Foto = StripDataURL(req.Foto)
	return sendJSON[Herramienta](ctx, s.c, http.MethodPut, req, itoa(id))
}

func (s *HerramientasService) Delete(ctx context.Context, id int64) error {
	_, err := sendJSON[any](ctx, s.c, http.MethodDelete, nil, itoa(id))
	return err
}

func (s *HerramientasService) ListWithSupplier(ctx context.Context) ([]HerramientaConProveedor, error) {
	return getJSON[[]HerramientaConProveedor](ctx, s.c, "con-proveedor")
}

func (s *HerramientasService) GetWithSupplier(ctx context.Context, id int64) (HerramientaConProveedor, error) {
	return getJSON[HerramientaConProveedor](ctx, s.c, "con-proveedor", itoa(id))
}

func (s *HerramientasService) ListBySupplier(ctx context.Context, idProveedor int64) ([]Herramienta, error) {
	return getJSON[[]Herramienta](ctx, s.c, "proveedor", itoa(idProveedor))
}
