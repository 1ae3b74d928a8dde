// Package inventory loads the warehouse view: almacenes with their stock
// and the suppliers behind it.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/apiariosamano/colmena/internal/backend"
	"github.com/apiariosamano/colmena/internal/logging"
)

// Listers for each service the snapshot reads. The backend services
// implement them.
type (
	AlmacenLister interface {
		List(ctx context.Context) ([]backend.Almacen, error)
	}
	HerramientaLister interface {
		ListWithSupplier(ctx context.Context) ([]backend.HerramientaConProveedor, error)
	}
	MateriaPrimaLister interface {
		ListWithSupplier(ctx context.Context) ([]backend.MateriaPrimaConProveedor, error)
	}
	MedicamentoLister interface {
		ListWithSupplier(ctx context.Context) ([]backend.MedicamentoConProveedor, error)
	}
	ProveedorLister interface {
		List(ctx context.Context) ([]backend.Proveedor, error)
	}
)

// Occupancy summarizes how full one warehouse is. Every stored item takes
// one space.
type Occupancy struct {
	AlmacenID         int64   `json:"almacenId"`
	NumeroSeguimiento string  `json:"numeroSeguimiento"`
	Ubicacion         string  `json:"ubicacion"`
	Capacidad         int     `json:"capacidad"`
	Herramientas      int     `json:"herramientas"`
	MateriasPrimas    int     `json:"materiasPrimas"`
	Medicamentos      int     `json:"medicamentos"`
	Ocupados          int     `json:"ocupados"`
	Disponibles       int     `json:"disponibles"`
	Porcentaje        float64 `json:"porcentaje"`
}

// Full reports whether no space is left.
func (o Occupancy) Full() bool { return o.Capacidad > 0 && o.Ocupados >= o.Capacidad }

// Snapshot is the inventory at one point in time.
type Snapshot struct {
	Almacenes      []backend.Almacen                  `json:"almacenes"`
	Herramientas   []backend.HerramientaConProveedor  `json:"herramientas"`
	MateriasPrimas []backend.MateriaPrimaConProveedor `json:"materiasPrimas"`
	Medicamentos   []backend.MedicamentoConProveedor  `json:"medicamentos"`
	Proveedores    []backend.Proveedor                `json:"proveedores"`
	Occupancy      []Occupancy                        `json:"occupancy"`
	LoadedAt       time.Time                          `json:"loadedAt"`
}

// LowStock returns materias primas and medicamentos whose quantity is at or
// below threshold, by name.
func (s Snapshot) LowStock(threshold float64) []string {
	var names []string
	for _, m := range s.MateriasPrimas {
		if m.Cantidad <= threshold {
			names = append(names, m.Nombre)
		}
	}
	for _, m := range s.Medicamentos {
		if m.Cantidad <= threshold {
			names = append(names, m.Nombre)
		}
	}
	sort.Strings(names)
	return names
}

// Loader fetches a Snapshot from the inventory services.
type Loader struct {
	almacenes    AlmacenLister
	herramientas HerramientaLister
	materias     MateriaPrimaLister
	medicamentos MedicamentoLister
	proveedores  ProveedorLister
	logger       *logging.Logger
	now          func() time.Time
}

// NewLoader wires a loader. All listers are required.
func NewLoader(a AlmacenLister, h HerramientaLister, m MateriaPrimaLister, med MedicamentoLister, p ProveedorLister, logger *logging.Logger) (*Loader, error) {
	if a == nil || h == nil || m == nil || med == nil || p == nil {
		return nil, errors.New("inventory loader requires every lister")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Loader{
		almacenes:    a,
		herramientas: h,
		materias:     m,
		medicamentos: med,
		proveedores:  p,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// FromServices wires a loader over the backend services.
func FromServices(s *backend.Services, logger *logging.Logger) (*Loader, error) {
	return NewLoader(s.Almacenes, s.Herramientas, s.MateriasPrimas, s.Medicamentos, s.Proveedores, logger)
}

// Load fetches everything concurrently. The first failure cancels the other
// requests and is returned.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	start := l.now()
	snap := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.Almacenes, err = l.almacenes.List(gctx)
		return wrap("almacenes", err)
	})
	g.Go(func() (err error) {
		snap.Herramientas, err = l.herramientas.ListWithSupplier(gctx)
		return wrap("herramientas", err)
	})
	g.Go(func() (err error) {
		snap.MateriasPrimas, err = l.materias.ListWithSupplier(gctx)
		return wrap("materias primas", err)
	})
	g.Go(func() (err error) {
		snap.Medicamentos, err = l.medicamentos.ListWithSupplier(gctx)
		return wrap("medicamentos", err)
	})
	g.Go(func() (err error) {
		snap.Proveedores, err = l.proveedores.List(gctx)
		return wrap("proveedores", err)
	})

	if err := g.Wait(); err != nil {
		l.logger.Warn(ctx, "inventory load failed", zap.Error(err))
		return nil, err
	}

	snap.Occupancy = Summarize(snap.Almacenes)
	snap.LoadedAt = l.now()
	l.logger.Debug(ctx, "inventory loaded",
		zap.Int("almacenes", len(snap.Almacenes)),
		zap.Int("proveedores", len(snap.Proveedores)),
		zap.Duration("elapsed", snap.LoadedAt.Sub(start)))
	return snap, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("loading %s: %w", what, err)
	}
	return nil
}

// Summarize computes occupancy per warehouse, ordered by id.
func Summarize(almacenes []backend.Almacen) []Occupancy {
	out := make([]Occupancy, 0, len(almacenes))
	for _, a := range almacenes {
		o := Occupancy{
			AlmacenID:         a.ID,
			NumeroSeguimiento: a.NumeroSeguimiento,
			Ubicacion:         a.Ubicacion,
			Capacidad:         a.Capacidad,
			Herramientas:      len(a.Herramientas),
			MateriasPrimas:    len(a.MateriasPrimas),
			Medicamentos:      len(a.Medicamentos),
		}
		o.Ocupados = o.Herramientas + o.MateriasPrimas + o.Medicamentos
		o.Disponibles = max(o.Capacidad-o.Ocupados, 0)
		if o.Capacidad > 0 {
			o.Porcentaje = math.Round(float64(o.Ocupados)/float64(o.Capacidad)*10000) / 100
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AlmacenID < out[j].AlmacenID })
	return out
}
