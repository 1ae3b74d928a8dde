package backend

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okEnvelope = `{"codigo":200,"data":null}`

type recordedRequest struct {
	method string
	path   string
	query  string
	body   string
}

// TestServiceRoutes pins the verb, path and body of every service call.
func TestServiceRoutes(t *testing.T) {
	ctx := context.Background()
	march := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	apiario := ApiarioRequest{NumeroApiario: 7, Ubicacion: "Norte", Salud: "Buena"}
	herramienta := HerramientaRequest{Nombre: "Palanca", IDAlmacen: 3, IDProveedor: 2}
	cosecha := CosechaRequest{IDLote: 8, Calidad: "A", TipoCosecha: "Miel", Cantidad: 12.5, IDApiario: 7}
	producto := ProductoRequest{Nombre: "Miel 500g", PrecioMayoreo: 80, PrecioMenudeo: 95, CodigoBarras: "750100", TipoDeProducto: "Miel", IDLote: 8}
	proveedor := ProveedorRequest{NombreEmpresa: "Cera SA", NumTelefono: "246 123 4567", MaterialProvee: "Cera"}
	usuario := UsuarioRequest{Nombre: "Ana", ApellidoPa: "Ruiz", Email: "ana@apiarios.mx", Contrasena: "miel-1234", Rol: "OPERADOR"}

	tests := []struct {
		name      string
		call      func(s *Services) error
		method    string
		path      string
		wantBody  string
		wantQuery string
		reply     string
	}{
		// auth
		{
			name: "auth login",
			call: func(s *Services) error {
				_, err := s.Auth.Login(ctx, LoginRequest{Email: "ana@apiarios.mx", Contrasena: "miel-1234"})
				return err
			},
			method: http.MethodPost, path: "/api/auth/login", wantBody: `"email":"ana@apiarios.mx"`,
			reply: `{"statusCode":200,"data":"tok.en.value"}`,
		},
		{
			name:   "auth request recovery",
			call:   func(s *Services) error { _, err := s.Auth.RequestRecovery(ctx, "ana@apiarios.mx"); return err },
			method: http.MethodPost, path: "/api/auth/recuperar", wantBody: `{"email":"ana@apiarios.mx"}`,
		},
		{
			name: "auth verify recovery code",
			call: func(s *Services) error {
				_, err := s.Auth.VerifyRecoveryCode(ctx, "ana@apiarios.mx", "123456")
				return err
			},
			method: http.MethodPost, path: "/api/auth/recuperar/verificar", wantBody: `"otp":"123456"`,
		},
		{
			name: "auth change password",
			call: func(s *Services) error {
				_, err := s.Auth.ChangePassword(ctx, PasswordChange{Email: "ana@apiarios.mx", NuevaContrasena: "nueva-clave", OTP: "123456"})
				return err
			},
			method: http.MethodPost, path: "/api/auth/recuperar/cambiar", wantBody: `"nuevaContrasena":"nueva-clave"`,
		},
		{
			name: "auth change temporary password",
			call: func(s *Services) error {
				_, err := s.Auth.ChangeTemporaryPassword(ctx, TemporaryPasswordChange{Email: "ana@apiarios.mx", ContrasenaTemporal: "tmp-1", NuevaContrasena: "nueva-clave"})
				return err
			},
			method: http.MethodPost, path: "/api/auth/recuperar/cambiar-temporal", wantBody: `"contrasenaTemporal":"tmp-1"`,
		},

		// almacenes
		{
			name: "almacenes create",
			call: func(s *Services) error {
				_, err := s.Almacenes.Create(ctx, AlmacenRequest{Ubicacion: "Norte", Capacidad: 50})
				return err
			},
			method: http.MethodPost, path: "/api/almacenes/crear", wantBody: `"capacidad":50`,
		},
		{
			name:   "almacenes list",
			call:   func(s *Services) error { _, err := s.Almacenes.List(ctx); return err },
			method: http.MethodGet, path: "/api/almacenes",
		},
		{
			name:   "almacenes get",
			call:   func(s *Services) error { _, err := s.Almacenes.Get(ctx, 3); return err },
			method: http.MethodGet, path: "/api/almacenes/3",
		},
		{
			name:   "almacenes delete",
			call:   func(s *Services) error { return s.Almacenes.Delete(ctx, 3) },
			method: http.MethodDelete, path: "/api/almacenes/3",
		},
		{
			name:   "almacenes update spaces",
			call:   func(s *Services) error { _, err := s.Almacenes.UpdateSpaces(ctx, 3); return err },
			method: http.MethodPut, path: "/api/almacenes/3/actualizar-espacios",
		},
		{
			name:   "almacenes space report",
			call:   func(s *Services) error { _, err := s.Almacenes.SpaceReport(ctx, 3); return err },
			method: http.MethodGet, path: "/api/almacenes/3/reporte-espacios",
		},
		{
			name:   "almacenes current spaces",
			call:   func(s *Services) error { _, err := s.Almacenes.CurrentSpaces(ctx, 3); return err },
			method: http.MethodGet, path: "/api/almacenes/3/espacios-actuales",
		},

		// apiarios
		{
			name:   "apiarios create",
			call:   func(s *Services) error { _, err := s.Apiarios.Create(ctx, apiario); return err },
			method: http.MethodPost, path: "/api/apiarios", wantBody: `"numeroApiario":7`,
		},
		{
			name:   "apiarios list",
			call:   func(s *Services) error { _, err := s.Apiarios.List(ctx); return err },
			method: http.MethodGet, path: "/api/apiarios",
		},
		{
			name:   "apiarios get",
			call:   func(s *Services) error { _, err := s.Apiarios.Get(ctx, 7); return err },
			method: http.MethodGet, path: "/api/apiarios/7",
		},
		{
			name:   "apiarios update",
			call:   func(s *Services) error { _, err := s.Apiarios.Update(ctx, 7, apiario); return err },
			method: http.MethodPut, path: "/api/apiarios/7", wantBody: `"salud":"Buena"`,
		},
		{
			name:   "apiarios delete",
			call:   func(s *Services) error { return s.Apiarios.Delete(ctx, 7) },
			method: http.MethodDelete, path: "/api/apiarios/7",
		},
		{
			name: "apiarios add recipe",
			call: func(s *Services) error {
				_, err := s.Apiarios.AddRecipe(ctx, 7, RecetaRequest{Descripcion: "Ácido oxálico", Medicamentos: []MedicamentoRef{{ID: 2}}})
				return err
			},
			method: http.MethodPost, path: "/api/apiarios/7/recetas", wantBody: `"medicamentos":[{"id":2}]`,
		},
		{
			name:   "apiarios delete recipe",
			call:   func(s *Services) error { return s.Apiarios.DeleteRecipe(ctx, 7) },
			method: http.MethodDelete, path: "/api/apiarios/7/receta",
		},
		{
			name:   "apiarios full history",
			call:   func(s *Services) error { _, err := s.Apiarios.FullHistory(ctx, 7); return err },
			method: http.MethodGet, path: "/api/apiarios/7/historial-completo",
		},
		{
			name:   "apiarios medical history",
			call:   func(s *Services) error { _, err := s.Apiarios.MedicalHistory(ctx, 11); return err },
			method: http.MethodGet, path: "/api/apiarios/historial-medico/11",
		},
		{
			name:   "apiarios medicines",
			call:   func(s *Services) error { _, err := s.Apiarios.Medicines(ctx); return err },
			method: http.MethodGet, path: "/api/apiarios/medicamentos",
		},
		{
			name:   "apiarios link device",
			call:   func(s *Services) error { _, err := s.Apiarios.LinkDevice(ctx, 7, "ESP32-07"); return err },
			method: http.MethodPost, path: "/api/apiarios/7/vincular-dispositivo", wantBody: `{"dispositivoId":"ESP32-07"}`,
		},
		{
			name:   "apiarios unlink device",
			call:   func(s *Services) error { _, err := s.Apiarios.UnlinkDevice(ctx, 7); return err },
			method: http.MethodDelete, path: "/api/apiarios/7/desvincular-dispositivo",
		},
		{
			name:   "apiarios without device",
			call:   func(s *Services) error { _, err := s.Apiarios.ListWithoutDevice(ctx); return err },
			method: http.MethodGet, path: "/api/apiarios/sin-dispositivo",
		},
		{
			name:   "apiarios by device",
			call:   func(s *Services) error { _, err := s.Apiarios.GetByDevice(ctx, "ESP32-07"); return err },
			method: http.MethodGet, path: "/api/apiarios/dispositivo/ESP32-07",
		},
		{
			name:   "apiarios mqtt status",
			call:   func(s *Services) error { _, err := s.Apiarios.MQTTStatus(ctx); return err },
			method: http.MethodGet, path: "/api/apiarios/mqtt/status", reply: "MQTT conectado",
		},
		{
			name:   "apiarios detected devices",
			call:   func(s *Services) error { _, err := s.Apiarios.DetectedDevices(ctx); return err },
			method: http.MethodGet, path: "/api/apiarios/dispositivos/detectados", reply: `{}`,
		},
		{
			name:   "apiarios device",
			call:   func(s *Services) error { _, err := s.Apiarios.Device(ctx, "ESP32-07"); return err },
			method: http.MethodGet, path: "/api/apiarios/dispositivos/ESP32-07", reply: `{"dispositivoId":"ESP32-07"}`,
		},
		{
			name:   "apiarios light on",
			call:   func(s *Services) error { _, err := s.Apiarios.Switch(ctx, "ESP32-07", ActuatorLight, true); return err },
			method: http.MethodPost, path: "/api/apiarios/ESP32-07/luz/true", reply: "ok",
		},
		{
			name: "apiarios motor off",
			call: func(s *Services) error {
				_, err := s.Apiarios.Switch(ctx, "ESP32-07", ActuatorMotor, false)
				return err
			},
			method: http.MethodPost, path: "/api/apiarios/ESP32-07/motor/false", reply: "ok",
		},
		{
			name:   "apiarios servo1",
			call:   func(s *Services) error { _, err := s.Apiarios.Servo(ctx, "ESP32-07", ActuatorServo1, 45); return err },
			method: http.MethodPost, path: "/api/apiarios/ESP32-07/servo1/45", reply: "ok",
		},
		{
			name:   "apiarios rgb",
			call:   func(s *Services) error { _, err := s.Apiarios.RGB(ctx, "ESP32-07", 0, 128, 255); return err },
			method: http.MethodPost, path: "/api/apiarios/ESP32-07/rgb/0/128/255", reply: "ok",
		},

		// herramientas
		{
			name:   "herramientas create",
			call:   func(s *Services) error { _, err := s.Herramientas.Create(ctx, herramienta); return err },
			method: http.MethodPost, path: "/api/herramientas/crear", wantBody: `"nombre":"Palanca"`,
		},
		{
			name:   "herramientas list",
			call:   func(s *Services) error { _, err := s.Herramientas.List(ctx); return err },
			method: http.MethodGet, path: "/api/herramientas",
		},
		{
			name:   "herramientas get",
			call:   func(s *Services) error { _, err := s.Herramientas.Get(ctx, 5); return err },
			method: http.MethodGet, path: "/api/herramientas/5",
		},
		{
			name:   "herramientas update",
			call:   func(s *Services) error { _, err := s.Herramientas.Update(ctx, 5, herramienta); return err },
			method: http.MethodPut, path: "/api/herramientas/5", wantBody: `"idProveedor":2`,
		},
		{
			name:   "herramientas delete",
			call:   func(s *Services) error { return s.Herramientas.Delete(ctx, 5) },
			method: http.MethodDelete, path: "/api/herramientas/5",
		},
		{
			name:   "herramientas with supplier",
			call:   func(s *Services) error { _, err := s.Herramientas.ListWithSupplier(ctx); return err },
			method: http.MethodGet, path: "/api/herramientas/con-proveedor",
		},
		{
			name:   "herramientas get with supplier",
			call:   func(s *Services) error { _, err := s.Herramientas.GetWithSupplier(ctx, 5); return err },
			method: http.MethodGet, path: "/api/herramientas/con-proveedor/5",
		},
		{
			name:   "herramientas by supplier",
			call:   func(s *Services) error { _, err := s.Herramientas.ListBySupplier(ctx, 2); return err },
			method: http.MethodGet, path: "/api/herramientas/proveedor/2",
		},

		// materias primas
		{
			name: "materias create",
			call: func(s *Services) error {
				_, err := s.MateriasPrimas.Create(ctx, MateriaPrimaRequest{Nombre: "Cera", Cantidad: 4, IDAlmacen: 3, IDProveedor: 2})
				return err
			},
			method: http.MethodPost, path: "/api/materias-primas/crear", wantBody: `"idProvedor":2`,
		},
		{
			name:   "materias list",
			call:   func(s *Services) error { _, err := s.MateriasPrimas.List(ctx); return err },
			method: http.MethodGet, path: "/api/materias-primas",
		},
		{
			name:   "materias get",
			call:   func(s *Services) error { _, err := s.MateriasPrimas.Get(ctx, 9); return err },
			method: http.MethodGet, path: "/api/materias-primas/9",
		},
		{
			name:   "materias delete",
			call:   func(s *Services) error { return s.MateriasPrimas.Delete(ctx, 9) },
			method: http.MethodDelete, path: "/api/materias-primas/9",
		},
		{
			name:   "materias with supplier",
			call:   func(s *Services) error { _, err := s.MateriasPrimas.ListWithSupplier(ctx); return err },
			method: http.MethodGet, path: "/api/materias-primas/con-proveedor",
		},
		{
			name:   "materias get with supplier",
			call:   func(s *Services) error { _, err := s.MateriasPrimas.GetWithSupplier(ctx, 9); return err },
			method: http.MethodGet, path: "/api/materias-primas/con-proveedor/9",
		},
		{
			name:   "materias by supplier",
			call:   func(s *Services) error { _, err := s.MateriasPrimas.ListBySupplier(ctx, 2); return err },
			method: http.MethodGet, path: "/api/materias-primas/proveedor/2",
		},
		{
			name:   "materias by almacen",
			call:   func(s *Services) error { _, err := s.MateriasPrimas.ListByAlmacen(ctx, 3); return err },
			method: http.MethodGet, path: "/api/materias-primas/almacen/3",
		},

		// medicamentos
		{
			name: "medicamentos create",
			call: func(s *Services) error {
				_, err := s.Medicamentos.Create(ctx, MedicamentoRequest{Nombre: "Oxálico", Descripcion: "Varroa", IDAlmacen: 3, Cantidad: "1.5", IDProveedor: 2})
				return err
			},
			method: http.MethodPost, path: "/api/medicamentos/crear", wantBody: `"cantidad":"1.5"`,
		},
		{
			name:   "medicamentos get",
			call:   func(s *Services) error { _, err := s.Medicamentos.Get(ctx, 4); return err },
			method: http.MethodGet, path: "/api/medicamentos/4",
		},
		{
			name:   "medicamentos list",
			call:   func(s *Services) error { _, err := s.Medicamentos.List(ctx); return err },
			method: http.MethodGet, path: "/api/medicamentos/todos",
		},
		{
			name:   "medicamentos with supplier",
			call:   func(s *Services) error { _, err := s.Medicamentos.ListWithSupplier(ctx); return err },
			method: http.MethodGet, path: "/api/medicamentos/todos-con-proveedor",
		},
		{
			name:   "medicamentos by supplier",
			call:   func(s *Services) error { _, err := s.Medicamentos.ListBySupplier(ctx, 2); return err },
			method: http.MethodGet, path: "/api/medicamentos/proveedor/2",
		},
		{
			name:   "medicamentos by supplier detailed",
			call:   func(s *Services) error { _, err := s.Medicamentos.ListBySupplierDetailed(ctx, 2); return err },
			method: http.MethodGet, path: "/api/medicamentos/proveedor-detalle/2",
		},
		{
			name:   "medicamentos delete",
			call:   func(s *Services) error { return s.Medicamentos.Delete(ctx, 4) },
			method: http.MethodDelete, path: "/api/medicamentos/eliminar/4",
		},

		// lotes
		{
			name: "lotes create",
			call: func(s *Services) error {
				_, err := s.Lotes.Create(ctx, LoteRequest{IDAlmacen: 3, TipoProducto: "Miel"})
				return err
			},
			method: http.MethodPost, path: "/api/lotes/crear", wantBody: `"tipoProducto":"Miel"`,
		},
		{
			name:   "lotes list",
			call:   func(s *Services) error { _, err := s.Lotes.List(ctx); return err },
			method: http.MethodGet, path: "/api/lotes",
		},
		{
			name:   "lotes get",
			call:   func(s *Services) error { _, err := s.Lotes.Get(ctx, 8); return err },
			method: http.MethodGet, path: "/api/lotes/8",
		},
		{
			name:   "lotes delete",
			call:   func(s *Services) error { return s.Lotes.Delete(ctx, 8) },
			method: http.MethodDelete, path: "/api/lotes/8",
		},

		// cosechas
		{
			name:   "cosechas create",
			call:   func(s *Services) error { _, err := s.Cosechas.Create(ctx, cosecha); return err },
			method: http.MethodPost, path: "/api/cosechas/crear", wantBody: `"cantidad":12.5`,
		},
		{
			name:   "cosechas update",
			call:   func(s *Services) error { _, err := s.Cosechas.Update(ctx, 6, cosecha); return err },
			method: http.MethodPut, path: "/api/cosechas/6", wantBody: `"idLote":8`,
		},
		{
			name:   "cosechas list",
			call:   func(s *Services) error { _, err := s.Cosechas.List(ctx); return err },
			method: http.MethodGet, path: "/api/cosechas/listar",
		},
		{
			name:   "cosechas get",
			call:   func(s *Services) error { _, err := s.Cosechas.Get(ctx, 6); return err },
			method: http.MethodGet, path: "/api/cosechas/6",
		},
		{
			name:   "cosechas by lote",
			call:   func(s *Services) error { _, err := s.Cosechas.ListByLote(ctx, 8); return err },
			method: http.MethodGet, path: "/api/cosechas/lote/8",
		},
		{
			name:   "cosechas by apiario",
			call:   func(s *Services) error { _, err := s.Cosechas.ListByApiario(ctx, 7); return err },
			method: http.MethodGet, path: "/api/cosechas/apiario/7",
		},
		{
			name: "cosechas by date range",
			call: func(s *Services) error {
				_, err := s.Cosechas.ListByDateRange(ctx, march, march.AddDate(0, 0, 30))
				return err
			},
			method: http.MethodGet, path: "/api/cosechas/rango-fechas",
			wantQuery: "fechaFin=2025-03-31&fechaInicio=2025-03-01",
		},
		{
			name:   "cosechas delete",
			call:   func(s *Services) error { return s.Cosechas.Delete(ctx, 6) },
			method: http.MethodDelete, path: "/api/cosechas/6",
		},

		// productos
		{
			name:   "productos create",
			call:   func(s *Services) error { _, err := s.Productos.Create(ctx, producto); return err },
			method: http.MethodPost, path: "/api/productos/crear", wantBody: `"codigoBarras":"750100"`,
		},
		{
			name:   "productos update",
			call:   func(s *Services) error { _, err := s.Productos.Update(ctx, 5, producto); return err },
			method: http.MethodPut, path: "/api/productos/5", wantBody: `"precioMenudeo":95`,
		},
		{
			name:   "productos list",
			call:   func(s *Services) error { _, err := s.Productos.List(ctx); return err },
			method: http.MethodGet, path: "/api/productos/listar",
		},
		{
			name:   "productos get",
			call:   func(s *Services) error { _, err := s.Productos.Get(ctx, 5); return err },
			method: http.MethodGet, path: "/api/productos/5",
		},
		{
			name:   "productos by lote",
			call:   func(s *Services) error { _, err := s.Productos.ListByLote(ctx, 8); return err },
			method: http.MethodGet, path: "/api/productos/lote/8",
		},
		{
			name:   "productos deactivate",
			call:   func(s *Services) error { return s.Productos.Deactivate(ctx, 5) },
			method: http.MethodPut, path: "/api/productos/5/desactivar",
		},
		{
			name:   "productos photo",
			call:   func(s *Services) error { _, err := s.Productos.Photo(ctx, 5); return err },
			method: http.MethodGet, path: "/api/productos/5/foto", reply: "\x89PNG",
		},
		{
			name:   "productos upload photo",
			call:   func(s *Services) error { return s.Productos.UploadPhoto(ctx, 5, "miel.png", []byte("\x89PNG")) },
			method: http.MethodPut, path: "/api/productos/5/foto", wantBody: `name="foto"; filename="miel.png"`,
		},

		// proveedores
		{
			name:   "proveedores list",
			call:   func(s *Services) error { _, err := s.Proveedores.List(ctx); return err },
			method: http.MethodGet, path: "/api/proveedores",
		},
		{
			name:   "proveedores get",
			call:   func(s *Services) error { _, err := s.Proveedores.Get(ctx, 2); return err },
			method: http.MethodGet, path: "/api/proveedores/2",
		},
		{
			name:   "proveedores create",
			call:   func(s *Services) error { _, err := s.Proveedores.Create(ctx, proveedor); return err },
			method: http.MethodPost, path: "/api/proveedores", wantBody: `"nombreEmpresa":"Cera SA"`,
		},
		{
			name:   "proveedores update",
			call:   func(s *Services) error { _, err := s.Proveedores.Update(ctx, 2, proveedor); return err },
			method: http.MethodPut, path: "/api/proveedores/2", wantBody: `"materialProvee":"Cera"`,
		},
		{
			name:   "proveedores delete",
			call:   func(s *Services) error { return s.Proveedores.Delete(ctx, 2) },
			method: http.MethodDelete, path: "/api/proveedores/2",
		},

		// usuarios
		{
			name:   "usuarios create",
			call:   func(s *Services) error { _, err := s.Usuarios.Create(ctx, usuario); return err },
			method: http.MethodPost, path: "/api/usuarios", wantBody: `"rol":"OPERADOR"`,
		},
		{
			name:   "usuarios list",
			call:   func(s *Services) error { _, err := s.Usuarios.List(ctx); return err },
			method: http.MethodGet, path: "/api/usuarios",
		},
		{
			name:   "usuarios get",
			call:   func(s *Services) error { _, err := s.Usuarios.Get(ctx, 9); return err },
			method: http.MethodGet, path: "/api/usuarios/9",
		},
		{
			name:   "usuarios by email",
			call:   func(s *Services) error { _, err := s.Usuarios.GetByEmail(ctx, "ana@apiarios.mx"); return err },
			method: http.MethodGet, path: "/api/usuarios/email/ana@apiarios.mx",
		},
		{
			name:   "usuarios update",
			call:   func(s *Services) error { _, err := s.Usuarios.Update(ctx, "ana@apiarios.mx", usuario); return err },
			method: http.MethodPut, path: "/api/usuarios/email/ana@apiarios.mx", wantBody: `"apellidoPa":"Ruiz"`,
		},
		{
			name:   "usuarios delete",
			call:   func(s *Services) error { return s.Usuarios.Delete(ctx, 9) },
			method: http.MethodDelete, path: "/api/usuarios/9",
		},

		// ia apiarios
		{
			name:   "ia apiarios ask",
			call:   func(s *Services) error { _, err := s.IAApiarios.Ask(ctx, "¿Hay riesgo de enjambrazón?"); return err },
			method: http.MethodPost, path: "/api/ia-analisis/consulta", wantBody: `"pregunta":"¿Hay riesgo de enjambrazón?"`,
		},
		{
			name: "ia apiarios ask with context",
			call: func(s *Services) error {
				_, err := s.IAApiarios.AskWithContext(ctx, "¿Cómo están?", "apiarios")
				return err
			},
			method: http.MethodPost, path: "/api/ia-analisis/consulta-contexto", wantBody: `"tipoContexto":"apiarios"`,
		},
		{
			name:   "ia apiarios statistics",
			call:   func(s *Services) error { _, err := s.IAApiarios.Statistics(ctx); return err },
			method: http.MethodGet, path: "/api/ia-analisis/estadisticas",
		},
		{
			name:   "ia apiarios predictions",
			call:   func(s *Services) error { _, err := s.IAApiarios.Predictions(ctx); return err },
			method: http.MethodGet, path: "/api/ia-analisis/predicciones",
		},
		{
			name:   "ia apiarios recommendations",
			call:   func(s *Services) error { _, err := s.IAApiarios.Recommendations(ctx, 7); return err },
			method: http.MethodGet, path: "/api/ia-analisis/recomendaciones/7",
		},
		{
			name:   "ia apiarios health",
			call:   func(s *Services) error { _, err := s.IAApiarios.Health(ctx); return err },
			method: http.MethodGet, path: "/api/ia-analisis/salud",
		},
		{
			name:   "ia apiarios diagnostic",
			call:   func(s *Services) error { _, err := s.IAApiarios.Diagnostic(ctx); return err },
			method: http.MethodGet, path: "/api/ia-analisis/diagnostico",
		},
		{
			name:   "ia apiarios extended diagnostic",
			call:   func(s *Services) error { _, err := s.IAApiarios.ExtendedDiagnostic(ctx); return err },
			method: http.MethodGet, path: "/api/ia-analisis/diagnostico-extendido",
		},
		{
			name:   "ia apiarios test simple",
			call:   func(s *Services) error { _, err := s.IAApiarios.TestSimple(ctx); return err },
			method: http.MethodGet, path: "/api/ia-analisis/test-simple",
		},

		// ia produccion
		{
			name:   "ia produccion statistics",
			call:   func(s *Services) error { _, err := s.IAProduccion.Statistics(ctx); return err },
			method: http.MethodGet, path: "/api/produccion/ia/estadisticas",
		},
		{
			name:   "ia produccion predictions",
			call:   func(s *Services) error { _, err := s.IAProduccion.Predictions(ctx); return err },
			method: http.MethodGet, path: "/api/produccion/ia/predicciones",
		},
		{
			name:   "ia produccion harvest suggestions",
			call:   func(s *Services) error { _, err := s.IAProduccion.HarvestSuggestions(ctx, 6); return err },
			method: http.MethodGet, path: "/api/produccion/ia/sugerencias/cosecha/6",
		},
		{
			name:   "ia produccion performance",
			call:   func(s *Services) error { _, err := s.IAProduccion.Performance(ctx, "mensual"); return err },
			method: http.MethodGet, path: "/api/produccion/ia/rendimiento/mensual",
		},
		{
			name:   "ia produccion health",
			call:   func(s *Services) error { _, err := s.IAProduccion.Health(ctx); return err },
			method: http.MethodGet, path: "/api/produccion/ia/salud",
		},
		{
			name:   "ia produccion ask",
			call:   func(s *Services) error { _, err := s.IAProduccion.Ask(ctx, "¿Cuánta miel se espera?"); return err },
			method: http.MethodPost, path: "/api/produccion/ia/consulta", wantBody: `"pregunta":"¿Cuánta miel se espera?"`,
		},
		{
			name:   "ia produccion diagnostic",
			call:   func(s *Services) error { _, err := s.IAProduccion.Diagnostic(ctx); return err },
			method: http.MethodGet, path: "/api/produccion/ia/diagnostico",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				mu  sync.Mutex
				got []recordedRequest
			)
			mux := http.NewServeMux()
			mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				mu.Lock()
				defer mu.Unlock()
				got = append(got, recordedRequest{
					method: r.Method,
					path:   r.URL.Path,
					query:  r.URL.RawQuery,
					body:   string(body),
				})
				reply := tt.reply
				if reply == "" {
					reply = okEnvelope
				}
				_, _ = io.WriteString(w, reply)
			})
			s := fakeServices(t, mux)

			require.NoError(t, tt.call(s))
			mu.Lock()
			defer mu.Unlock()
			require.Len(t, got, 1)
			assert.Equal(t, tt.method, got[0].method)
			assert.Equal(t, tt.path, got[0].path)
			if tt.wantBody != "" {
				assert.Contains(t, got[0].body, tt.wantBody)
			}
			if tt.wantQuery != "" {
				assert.Equal(t, tt.wantQuery, got[0].query)
			}
		})
	}
}
