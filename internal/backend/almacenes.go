package backend

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// Almacen is a warehouse with the items stored in it.
type Almacen struct {
	ID                int64          `json:"id"`
	NumeroSeguimiento string         `json:"numeroSeguimiento"`
	Ubicacion         string         `json:"ubicacion"`
	Capacidad         int            `json:"capacidad"`
	Herramientas      []Herramienta  `json:"herramientas,omitempty"`
	MateriasPrimas    []MateriaPrima `json:"materiasPrimas,omitempty"`
	Medicamentos      []Medicamento  `json:"medicamentos,omitempty"`
}

// AlmacenRequest creates a warehouse.
type AlmacenRequest struct {
	Ubicacion string `json:"ubicacion"`
	Capacidad int    `json:"capacidad"`
}

// Validate checks the request before it is sent.
func (r AlmacenRequest) Validate() error {
	if strings.TrimSpace(r.Ubicacion) == "" {
		return invalid("ubicacion is required")
	}
	if r.Capacidad <= 0 {
		return invalid("capacidad must be positive")
	}
	return nil
}

// LoteExterno is a production lot stored in a warehouse.
type LoteExterno struct {
	ID                int64  `json:"id"`
	NumeroSeguimiento string `json:"numeroSeguimiento"`
	TipoProducto      string `json:"tipoProducto"`
	FechaCreacion     string `json:"fechaCreacion"`
	IDAlmacen         int64  `json:"idAlmacen"`
}

// ReporteEspacios breaks down how a warehouse's capacity is used.
type ReporteEspacios struct {
	AlmacenID             int64         `json:"almacenId"`
	CapacidadTotal        int           `json:"capacidadTotal"`
	EspaciosInternos      int           `json:"espaciosInternos"`
	MateriasPrimas        int           `json:"materiasPrimas"`
	Herramientas          int           `json:"herramientas"`
	Medicamentos          int           `json:"medicamentos"`
	LotesExternos         int           `json:"lotesExternos"`
	TotalEspaciosOcupados int           `json:"totalEspaciosOcupados"`
	EspaciosDisponibles   int           `json:"espaciosDisponibles"`
	PorcentajeOcupacion   float64       `json:"porcentajeOcupacion"`
	DetalleLotes          []LoteExterno `json:"detalleLotes"`
}

// EspaciosActuales is the short occupancy summary.
type EspaciosActuales struct {
	TotalOcupados       int     `json:"totalOcupados"`
	Disponibles         int     `json:"disponibles"`
	PorcentajeOcupacion float64 `json:"porcentajeOcupacion"`
}

// AlmacenesService manages warehouses.
type AlmacenesService struct {
	c *Client
}

// NewAlmacenesService wraps c.
func NewAlmacenesService(c *Client) *AlmacenesService {
	return &AlmacenesService{c: c}
}

func (s *AlmacenesService) Create(ctx context.Context, req AlmacenRequest) (Almacen, error) {
	if err := req.Validate(); err != nil {
		return Almacen{}, err
	}
	return sendJSON[Almacen](ctx, s.c, http.MethodPost, req, "crear")
}

func (s *AlmacenesService) List(ctx context.Context) ([]Almacen, error) {
	return getJSON[[]Almacen](ctx, s.c)
}

func (s *AlmacenesService) Get(ctx context.Context, id int64) (Almacen, error) {
	return getJSON[Almacen](ctx, s.c, itoa(id))
}

func (s *AlmacenesService) Delete(ctx context.Context, id int64) error {
	_, err := sendJSON[any](ctx, s.c, http.MethodDelete, nil, itoa(id))
	return err
}

// UpdateSpaces asks the service to recount occupied spaces.
func (s *AlmacenesService) UpdateSpaces(ctx context.Context, id int64) (Almacen, error) {
	return sendJSON[Almacen](ctx, s.c, http.MethodPut, struct{}{}, itoa(id), "actualizar-espacios")
}

func (s *AlmacenesService) SpaceReport(ctx context.Context, id int64) (ReporteEspacios, error) {
	return getJSON[ReporteEspacios](ctx, s.c, itoa(id), "reporte-espacios")
}

func (s *AlmacenesService) CurrentSpaces(ctx context.Context, id int64) (EspaciosActuales, error) {
	return getJSON[EspaciosActuales](ctx, s.c, itoa(id), "espacios-actuales")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
