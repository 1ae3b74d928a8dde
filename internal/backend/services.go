package backend

import (
	"fmt"

	"github.com/apiariosamano/colmena/internal/config"
	"github.com/apiariosamano/colmena/internal/logging"
)

// Services bundles one client per microservice.
type Services struct {
	Auth           *AuthService
	Almacenes      *AlmacenesService
	Herramientas   *HerramientasService
	MateriasPrimas *MateriasPrimasService
	Medicamentos   *MedicamentosService
	Apiarios       *ApiariosService
	IAApiarios     *IAApiariosService
	IAProduccion   *IAProduccionService
	Lotes          *LotesService
	Cosechas       *CosechasService
	Productos      *ProductosService
	Proveedores    *ProveedoresService
	Usuarios       *UsuariosService
}

// New builds every service client from configuration. Extra options are
// applied after the ones derived from cc.
func New(sc config.ServicesConfig, cc config.ClientConfig, logger *logging.Logger, extra ...Option) (*Services, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	opts := append([]Option{
		WithTimeout(cc.Timeout.Duration()),
		WithRetries(cc.MaxRetries, 0),
		WithRateLimit(cc.RateLimit, cc.Burst),
		WithLogger(logger.Named("backend")),
	}, extra...)

	client := func(name, baseURL string) (*Client, error) {
		c, err := NewClient(baseURL, opts...)
		if err != nil {
			return nil, fmt.Errorf("services.%s: %w", name, err)
		}
		return c, nil
	}

	var s Services
	for _, svc := range []struct {
		name string
		url  string
		set  func(*Client)
	}{
		{"auth", sc.Auth, func(c *Client) { s.Auth = NewAuthService(c) }},
		{"almacenes", sc.Almacenes, func(c *Client) { s.Almacenes = NewAlmacenesService(c) }},
		{"herramientas", sc.Herramientas, func(c *Client) { s.Herramientas = NewHerramientasService(c) }},
		{"materias", sc.Materias, func(c *Client) { s.MateriasPrimas = NewMateriasPrimasService(c) }},
		{"medicamentos", sc.Medicamentos, func(c *Client) { s.Medicamentos = NewMedicamentosService(c) }},
		{"apiarios", sc.Apiarios, func(c *Client) { s.Apiarios = NewApiariosService(c) }},
		{"ia_apiarios", sc.IAApiarios, func(c *Client) { s.IAApiarios = NewIAApiariosService(c) }},
		{"ia_produccion", sc.IAProduccion, func(c *Client) { s.IAProduccion = NewIAProduccionService(c) }},
		{"lotes", sc.Lotes, func(c *Client) { s.Lotes = NewLotesService(c) }},
		{"cosechas", sc.Cosechas, func(c *Client) { s.Cosechas = NewCosechasService(c) }},
		{"productos", sc.Productos, func(c *Client) { s.Productos = NewProductosService(c) }},
		{"proveedores", sc.Proveedores, func(c *Client) { s.Proveedores = NewProveedoresService(c) }},
		{"usuarios", sc.Usuarios, func(c *Client) { s.Usuarios = NewUsuariosService(c) }},
	} {
		c, err := client(svc.name, svc.url)
		if err != nil {
			return nil, err
		}
		svc.set(c)
	}
	return &s, nil
}
