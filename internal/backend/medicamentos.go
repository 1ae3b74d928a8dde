package backend

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// Medicamento is a veterinary product kept in a warehouse.
type Medicamento struct {
	ID          int64   `json:"id"`
	Nombre      string  `json:"nombre"`
	Cantidad    float64 `json:"cantidad"`
	Descripcion string  `json:"descripcion"`
	Foto        string  `json:"foto,omitempty"`
	IDProveedor int64   `json:"idProveedor,omitempty"`
}

// MedicamentoConProveedor includes the supplier details.
type MedicamentoConProveedor struct {
	ID          int64            `json:"id"`
	Nombre      string           `json:"nombre"`
	Cantidad    float64          `json:"cantidad"`
	Descripcion string           `json:"descripcion"`
	Foto        string           `json:"foto,omitempty"`
	Proveedor   ProveedorResumen `json:"proveedor"`
}

// MedicamentoRequest creates a medicine. Cantidad travels as a decimal
// string.
type MedicamentoRequest struct {
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
	IDAlmacen   int64  `json:"idAlmacen"`
	Cantidad    string `json:"cantidad"`
	IDProveedor int64  `json:"idProveedor"`
	Foto        string `json:"foto"`
}

// Validate checks the request before it is sent.
func (r MedicamentoRequest) Validate() error {
	if strings.TrimSpace(r.Nombre) == "" {
		return invalid("nombre is required")
	}
	q, err := strconv.ParseFloat(strings.TrimSpace(r.Cantidad), 64)
	if err != nil || q <= 0 {
		return invalid("cantidad %q must be a positive number", r.Cantidad)
	}
	if r.IDAlmacen <= 0 {
		return invalid("idAlmacen is required")
	}
	if r.IDProveedor <= 0 {
		return invalid("idProveedor is required")
	}
	return nil
}

// MedicamentosService manages medicines.
type MedicamentosService struct {
	c *Client
}

// NewMedicamentosService wraps c.
func NewMedicamentosService(c *Client) *MedicamentosService {
	return &MedicamentosService{c: c}
}

func (s *MedicamentosService) Create(ctx context.Context, req MedicamentoRequest) (Medicamento, error) {
	if err := req.Validate(); err != nil {
		return Medicamento{}, err
	}
	req.Foto = StripDataURL(req.Foto)
	return sendJSON[Medicamento](ctx, s.c, http.MethodPost, req, "crear")
}

func (s *MedicamentosService) Get(ctx context.Context, id int64) (Medicamento, error) {
	return getJSON[Medicamento](ctx, s.c, itoa(id))
}

func (s *MedicamentosService) List(ctx context.Context) ([]Medicamento, error) {
	return getJSON[[]Medicamento](ctx, s.c, "todos")
}

func (s *MedicamentosService) ListWithSupplier(ctx context.Context) ([]MedicamentoConProveedor, error) {
	return getJSON[[]MedicamentoConProveedor](ctx, s.c, "todos-con-proveedor")
}

func (s *MedicamentosService) ListBySupplier(ctx context.Context, idProveedor int64) ([]Medicamento, error) {
	return getJSON[[]Medicamento](ctx, s.c, "proveedor", itoa(idProveedor))
}

// ListBySupplierDetailed lists a supplier's medicines with the supplier
// details attached.
func (s *MedicamentosService) ListBySupplierDetailed(ctx context.Context, idProveedor int64) ([]MedicamentoConProveedor, error) {
	return getJSON[[]MedicamentoConProveedor](ctx, s.c, "proveedor-detalle", itoa(idProveedor))
}

func (s *MedicamentosService) Delete(ctx context.Context, id int64) error {
	_, err := sendJSON[any](ctx, s.c, http.MethodDelete, nil, "eliminar", itoa(id))
	return err
}
