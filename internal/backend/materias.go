package backend

import (
	"context"
	"net/http"
	"strings"
)

// MateriaPrima is a raw material kept in a warehouse.
type MateriaPrima struct {
	ID          int64   `json:"id"`
	Nombre      string  `json:"nombre"`
	Foto        string  `json:"foto,omitempty"`
	Cantidad    float64 `json:"cantidad"`
	IDProveedor int64   `json:"idProveedor,omitempty"`
}

// AlmacenResumen is the warehouse summary embedded in item responses.
type AlmacenResumen struct {
	ID                int64  `json:"id,omitempty"`
	NumeroSeguimiento string `json:"numeroSeguimiento,omitempty"`
	Ubicacion         string `json:"ubicacion,omitempty"`
	Capacidad         int    `json:"capacidad,omitempty"`
}

// MateriaPrimaConProveedor includes warehouse and supplier details.
type MateriaPrimaConProveedor struct {
	ID        int64            `json:"id"`
	Nombre    string           `json:"nombre"`
	Foto      string           `json:"foto,omitempty"`
	Cantidad  float64          `json:"cantidad"`
	Almacen   AlmacenResumen   `json:"almacen"`
	Proveedor ProveedorResumen `json:"proveedor"`
}

// MateriaPrimaRequest creates a raw material. The supplier key is spelled
// idProvedor by the service.
type MateriaPrimaRequest struct {
	Nombre      string  `json:"nombre"`
	Foto        string  `json:"foto"`
	Cantidad    float64 `json:"cantidad"`
	IDAlmacen   int64   `json:"idAlmacen"`
	IDProveedor int64   `json:"idProvedor"`
}

// Validate checks the request before it is sent.
func (r MateriaPrimaRequest) Validate() error {
	if strings.TrimSpace(r.Nombre) == "" {
		return invalid("nombre is required")
	}
	if r.Cantidad <= 0 {
		return invalid("cantidad must be positive")
	}
	if r.IDAlmacen <= 0 {
		return invalid("idAlmacen is required")
	}
	if r.IDProveedor <= 0 {
		return invalid("idProveedor is required")
	}
	return nil
}

// MateriasPrimasService manages raw materials.
type MateriasPrimasService struct {
	c *Client
}

// NewMateriasPrimasService wraps c.
func NewMateriasPrimasService(c *Client) *MateriasPrimasService {
	return &MateriasPrimasService{c: c}
}

func (s *MateriasPrimasService) Create(ctx context.Context, req MateriaPrimaRequest) (MateriaPrima, error) {
	if err := req.Validate(); err != nil {
		return MateriaPrima{}, err
	}
	req.Foto = StripDataURL(req.Foto)
	return sendJSON[MateriaPrima](ctx, s.c, http.MethodPost, req, "crear")
}

func (s *MateriasPrimasService) List(ctx context.Context) ([]MateriaPrima, error) {
	return getJSON[[]MateriaPrima](ctx, s.c)
}

func (s *MateriasPrimasService) Get(ctx context.Context, id int64) (MateriaPrima, error) {
	return getJSON[MateriaPrima](ctx, s.c, itoa(id))
}

func (s *MateriasPrimasService) Delete(ctx context.Context, id int64) error {
	_, err := sendJSON[any](ctx, s.c, http.MethodDelete, nil, itoa(id))
	return err
}

func (s *MateriasPrimasService) ListWithSupplier(ctx context.Context) ([]MateriaPrimaConProveedor, error) {
	return getJSON[[]MateriaPrimaConProveedor](ctx, s.c, "con-proveedor")
}

func (s *MateriasPrimasService) GetWithSupplier(ctx context.Context, id int64) (MateriaPrimaConProveedor, error) {
	return getJSON[MateriaPrimaConProveedor](ctx, s.c, "con-proveedor", itoa(id))
}

func (s *MateriasPrimasService) ListBySupplier(ctx context.Context, idProveedor int64) ([]MateriaPrima, error) {
	return getJSON[[]MateriaPrima](ctx, s.c, "proveedor", itoa(idProveedor))
}

func (s *MateriasPrimasService) ListByAlmacen(ctx context.Context, idAlmacen int64) ([]MateriaPrima, error) {
	return getJSON[[]MateriaPrima](ctx, s.c, "almacen", itoa(idAlmacen))
}
