package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Lote is a production lot.
type Lote struct {
	ID                int64  `json:"id,omitempty"`
	NumeroSeguimiento string `json:"numeroSeguimiento"`
	TipoProducto      string `json:"tipoProducto"`
	FechaCreacion     string `json:"fechaCreacion"`
	IDAlmacen         int64  `json:"idAlmacen"`
}

// LoteConAlmacen is a lot with the warehouse that holds it.
type LoteConAlmacen struct {
	Lote
	Almacen Almacen `json:"almacen"`
}

// LoteRequest creates a lot.
type LoteRequest struct {
	IDAlmacen    int64  `json:"idAlmacen"`
	TipoProducto string `json:"tipoProducto"`
}

// Validate checks the request before it is sent.
func (r LoteRequest) Validate() error {
	if r.IDAlmacen <= 0 {
		return invalid("idAlmacen is required")
	}
	if strings.TrimSpace(r.TipoProducto) == "" {
		return invalid("tipoProducto is required")
	}
	return nil
}

// LotesService manages production lots.
type LotesService struct {
	c *Client
}

// NewLotesService wraps c.
func NewLotesService(c *Client) *LotesService {
	return &LotesService{c: c}
}

func (s *LotesService) Create(ctx context.Context, req LoteRequest) (Lote, error) {
	if err := req.Validate(); err != nil {
		return Lote{}, err
	}
	return sendJSON[Lote](ctx, s.c, http.MethodPost, req, "crear")
}

func (s *LotesService) List(ctx context.Context) ([]Lote, error) {
	return getList[Lote](ctx, s.c)
}

func (s *LotesService) Get(ctx context.Context, id int64) (LoteConAlmacen, error) {
	return getJSON[LoteConAlmacen](ctx, s.c, itoa(id))
}

func (s *LotesService) Delete(ctx context.Context, id int64) error {
	_, err := sendJSON[any](ctx, s.c, http.MethodDelete, nil, itoa(id))
	return err
}

// Cosecha is a harvest.
type Cosecha struct {
	ID           int64           `json:"id,omitempty"`
	FechaCosecha string          `json:"fechaCosecha"`
	Calidad      string          `json:"calidad"`
	TipoCosecha  string          `json:"tipoCosecha"`
	Cantidad     float64         `json:"cantidad"`
	IDApiario    int64           `json:"idApiario"`
	Lote         json.RawMessage `json:"lote,omitempty"`
}

// CosechaRequest creates or updates a harvest.
type CosechaRequest struct {
	IDLote      int64   `json:"idLote"`
	Calidad     string  `json:"calidad"`
	TipoCosecha string  `json:"tipoCosecha"`
	Cantidad    float64 `json:"cantidad"`
	IDApiario   int64   `json:"idApiario"`
}

// Validate checks the request before it is sent.
func (r CosechaRequest) Validate() error {
	switch {
	case r.IDLote <= 0:
		return invalid("idLote is required")
	case strings.TrimSpace(r.TipoCosecha) == "":
		return invalid("tipoCosecha is required")
	case strings.TrimSpace(r.Calidad) == "":
		return invalid("calidad is required")
	case r.Cantidad <= 0:
		return invalid("cantidad must be positive")
	case r.IDApiario <= 0:
		return invalid("idApiario is required")
	}
	return nil
}

// CosechasService manages harvests.
type CosechasService struct {
	c *Client
}

// NewCosechasService wraps c.
func NewCosechasService(c *Client) *CosechasService {
	return &CosechasService{c: c}
}

func (s *CosechasService) Create(ctx context.Context, req CosechaRequest) (Cosecha, error) {
	if err := req.Validate(); err != nil {
		return Cosecha{}, err
	}
	return sendJSON[Cosecha](ctx, s.c, http.MethodPost, req, "crear")
}

func (s *CosechasService) Update(ctx context.Context, id int64, req CosechaRequest) (Cosecha, error) {
	if err := req.Validate(); err != nil {
		return Cosecha{}, err
	}
	return sendJSON[Cosecha](ctx, s.c, http.MethodPut, req, itoa(id))
}

func (s *CosechasService) List(ctx context.Context) ([]Cosecha, error) {
	return getList[Cosecha](ctx, s.c, "listar")
}

func (s *CosechasService) Get(ctx context.Context, id int64) (Cosecha, error) {
	return getJSON[Cosecha](ctx, s.c, itoa(id))
}

func (s *CosechasService) ListByLote(ctx context.Context, idLote int64) ([]Cosecha, error) {
	return getList[Cosecha](ctx, s.c, "lote", itoa(idLote))
}

func (s *CosechasService) ListByApiario(ctx context.Context, idApiario int64) ([]Cosecha, error) {
	return getList[Cosecha](ctx, s.c, "apiario", itoa(idApiario))
}

// ListByDateRange lists harvests between two dates, inclusive.
func (s *CosechasService) ListByDateRange(ctx context.Context, from, to time.Time) ([]Cosecha, error) {
	if to.Before(from) {
		return nil, invalid("fechaFin is before fechaInicio")
	}
	r, _ := jsonRequest(http.MethodGet, nil, "rango-fechas")
	r.query = url.Values{
		"fechaInicio": {from.Format(time.DateOnly)},
		"fechaFin":    {to.Format(time.DateOnly)},
	}
	return orEmpty[Cosecha](call[[]Cosecha](ctx, s.c, r))
}

func (s *CosechasService) Delete(ctx context.Context, id int64) error {
	_, err := sendJSON[any](ctx, s.c, http.MethodDelete, nil, itoa(id))
	return err
}

// Producto is a sellable product made from a lot.
type Producto struct {
	ID             int64   `json:"id,omitempty"`
	Nombre         string  `json:"nombre"`
	PrecioMayoreo  float64 `json:"precioMayoreo"`
	PrecioMenudeo  float64 `json:"precioMenudeo"`
	Foto           string  `json:"foto,omitempty"`
	CodigoBarras   string  `json:"codigoBarras"`
	TipoDeProducto string  `json:"tipoDeProducto"`
	IDLote         int64   `json:"idLote"`
	Activo         *bool   `json:"activo,omitempty"`
}

// ProductoDetalle is the read model with lot information.
type ProductoDetalle struct {
	ID                    int64   `json:"id"`
	Nombre                string  `json:"nombre"`
	PrecioMayoreo         float64 `json:"precioMayoreo"`
	PrecioMenudeo         float64 `json:"precioMenudeo"`
	FotoBase64            string  `json:"fotoBase64,omitempty"`
	CodigoBarras          string  `json:"codigoBarras"`
	TipoDeProducto        string  `json:"tipoDeProducto"`
	IDLote                int64   `json:"idLote"`
	NumeroSeguimientoLote string  `json:"numeroSeguimientoLote"`
	TipoProductoLote      string  `json:"tipoProductoLote"`
	Activo                bool    `json:"activo"`
	FechaCreacion         string  `json:"fechaCreacion"`
	FechaActualizacion    string  `json:"fechaActualizacion"`
}

// ProductoRequest creates or updates a product.
type ProductoRequest struct {
	Nombre         string  `json:"nombre"`
	PrecioMayoreo  float64 `json:"precioMayoreo"`
	PrecioMenudeo  float64 `json:"precioMenudeo"`
	Foto           string  `json:"foto,omitempty"`
	CodigoBarras   string  `json:"codigoBarras"`
	TipoDeProducto string  `json:"tipoDeProducto"`
	IDLote         int64   `json:"idLote"`
	Activo         *bool   `json:"activo,omitempty"`
}

// Validate checks the request before it is sent.
func (r ProductoRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Nombre) == "":
		return invalid("nombre is required")
	case r.PrecioMayoreo < 0 || r.PrecioMenudeo < 0:
		return invalid("prices cannot be negative")
	case strings.TrimSpace(r.CodigoBarras) == "":
		return invalid("codigoBarras is required")
	case strings.TrimSpace(r.TipoDeProducto) == "":
		return invalid("tipoDeProducto is required")
	case r.IDLote <= 0:
		return invalid("idLote is required")
	}
	return nil
}

// ProductosService manages products.
type ProductosService struct {
	c *Client
}

// NewProductosService wraps c.
func NewProductosService(c *Client) *ProductosService {
	return &ProductosService{c: c}
}

func (s *ProductosService) Create(ctx context.Context, req ProductoRequest) (Producto, error) {
	if err := req.Validate(); err != nil {
		return Producto{}, err
	}
	req.Foto = StripDataURL(req.Foto)
	return sendJSON[Producto](ctx, s.c, http.MethodPost, req, "crear")
}

func (s *ProductosService) Update(ctx context.Context, id int64, req ProductoRequest) (Producto, error) {
	if err := req.Validate(); err != nil {
		return Producto{}, err
	}
	req.Foto = StripDataURL(req.Foto)
	return sendJSON[Producto](ctx, s.c, http.MethodPut, req, itoa(id))
}

// List returns the active products.
func (s *ProductosService) List(ctx context.Context) ([]ProductoDetalle, error) {
	return getList[ProductoDetalle](ctx, s.c, "listar")
}

func (s *ProductosService) Get(ctx context.Context, id int64) (ProductoDetalle, error) {
	return getJSON[ProductoDetalle](ctx, s.c, itoa(id))
}

func (s *ProductosService) ListByLote(ctx context.Context, idLote int64) ([]ProductoDetalle, error) {
	return getList[ProductoDetalle](ctx, s.c, "lote", itoa(idLote))
}

func (s *ProductosService) Deactivate(ctx context.Context, id int64) error {
	_, err := sendJSON[any](ctx, s.c, http.MethodPut, nil, itoa(id), "desactivar")
	return err
}

// Photo downloads the product photo.
func (s *ProductosService) Photo(ctx context.Context, id int64) ([]byte, error) {
	return s.c.blob(ctx, itoa(id), "foto")
}

// PhotoURL is the address browsers can load the photo from.
func (s *ProductosService) PhotoURL(id int64) string {
	return s.c.URL(itoa(id), "foto")
}

// UploadPhoto replaces the product photo with a multipart "foto" field.
func (s *ProductosService) UploadPhoto(ctx context.Context, id int64, filename string, content []byte) error {
	if len(content) == 0 {
		return invalid("photo is empty")
	}
	_, err := multipartFile[any](ctx, s.c, http.MethodPut, "foto", filename, content, itoa(id), "foto")
	return err
}
