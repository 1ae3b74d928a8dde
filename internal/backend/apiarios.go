package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Apiario is an apiary, optionally linked to a monitoring device.
type Apiario struct {
	ID               int64            `json:"id"`
	NumeroApiario    int              `json:"numeroApiario"`
	Ubicacion        string           `json:"ubicacion"`
	Salud            string           `json:"salud"`
	DispositivoID    *string          `json:"dispositivoId"`
	FechaVinculacion *string          `json:"fechaVinculacion"`
	Receta           *Receta          `json:"receta"`
	HistorialMedico  *HistorialMedico `json:"historialMedico"`
}

// HasDevice reports whether a device is linked.
func (a Apiario) HasDevice() bool {
	return a.DispositivoID != nil && *a.DispositivoID != ""
}

// Receta is a treatment prescribed to an apiary.
type Receta struct {
	ID              int64               `json:"id"`
	Descripcion     string              `json:"descripcion"`
	FechaDeCreacion string              `json:"fechaDeCreacion"`
	Medicamentos    []RecetaMedicamento `json:"medicamentos"`
}

// RecetaMedicamento is one medicine in a prescription.
type RecetaMedicamento struct {
	ID              int64        `json:"id"`
	IDMedicamento   int64        `json:"idMedicamento"`
	MedicamentoInfo *Medicamento `json:"medicamentoInfo,omitempty"`
}

// HistorialMedico is a medical history entry.
type HistorialMedico struct {
	ID              int64  `json:"id"`
	FechaAplicacion string `json:"fechaAplicacion"`
	Notas           string `json:"notas"`
}

// ApiarioRequest creates or updates an apiary.
type ApiarioRequest struct {
	NumeroApiario int    `json:"numeroApiario"`
	Ubicacion     string `json:"ubicacion"`
	Salud         string `json:"salud"`
	DispositivoID string `json:"dispositivoId,omitempty"`
}

// Validate checks the request before it is sent.
func (r ApiarioRequest) Validate() error {
	if r.NumeroApiario <= 0 {
		return invalid("numeroApiario must be positive")
	}
	if strings.TrimSpace(r.Ubicacion) == "" {
		return invalid("ubicacion is required")
	}
	if strings.TrimSpace(r.Salud) == "" {
		return invalid("salud is required")
	}
	return nil
}

// MedicamentoRef points at a medicine by id.
type MedicamentoRef struct {
	ID int64 `json:"id"`
}

// RecetaRequest prescribes medicines to an apiary.
type RecetaRequest struct {
	Descripcion  string           `json:"descripcion"`
	Medicamentos []MedicamentoRef `json:"medicamentos"`
}

// Validate checks the request before it is sent.
func (r RecetaRequest) Validate() error {
	if strings.TrimSpace(r.Descripcion) == "" {
		return invalid("descripcion is required")
	}
	if len(r.Medicamentos) == 0 {
		return invalid("at least one medicamento is required")
	}
	for _, m := range r.Medicamentos {
		if m.ID <= 0 {
			return invalid("medicamento id %d is not valid", m.ID)
		}
	}
	return nil
}

// Dispositivo is a monitoring device as reported by the apiarios service.
// Datos holds the latest sensor values when the service includes them.
type Dispositivo struct {
	DispositivoID  string            `json:"dispositivoId"`
	ApiarioID      string            `json:"apiarioId,omitempty"`
	Nombre         string            `json:"nombre,omitempty"`
	Tipo           string            `json:"tipo,omitempty"`
	Estado         string            `json:"estado,omitempty"`
	Sensores       []string          `json:"sensores,omitempty"`
	Actuadores     []string          `json:"actuadores,omitempty"`
	Timestamp      int64             `json:"timestamp,omitempty"`
	UltimaConexion string            `json:"ultimaConexion,omitempty"`
	Datos          map[string]string `json:"-"`
}

// UnmarshalJSON accepts sensor values of any JSON type in datos.
func (d *Dispositivo) UnmarshalJSON(data []byte) error {
	type plain Dispositivo
	var wire struct {
		plain
		Datos map[string]json.RawMessage `json:"datos"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*d = Dispositivo(wire.plain)
	if len(wire.Datos) > 0 {
		d.Datos = make(map[string]string, len(wire.Datos))
		for k, raw := range wire.Datos {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				s = string(raw)
			}
			d.Datos[k] = s
		}
	}
	return nil
}

// SeenAt returns the device timestamp, or the zero time when absent.
func (d Dispositivo) SeenAt() time.Time {
	if d.Timestamp <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(d.Timestamp)
}

// Actuator names as they appear in the service's command routes.
const (
	ActuatorFan = "ventilador"
	// ActuatorGate is commanded over MQTT by the apiarios service, which
	// exposes no REST route for it; Switch reports ErrUnsupportedActuator.
	ActuatorGate   = "compuerta"
	ActuatorLight  = "luz"
	ActuatorServo1 = "servo1"
	ActuatorServo2 = "servo2"
	ActuatorMotor  = "motor"
	ActuatorRGB    = "rgb"
)

// ErrUnsupportedActuator is returned for actuators the service drives but
// cannot be reached through its REST API.
var ErrUnsupportedActuator = errors.New("actuator has no REST route")

// ApiariosService manages apiaries and their devices.
type ApiariosService struct {
	c *Client
}

// NewApiariosService wraps c.
func NewApiariosService(c *Client) *ApiariosService {
	return &ApiariosService{c: c}
}

func (s *ApiariosService) Create(ctx context.Context, req ApiarioRequest) (Apiario, error) {
	if err := req.Validate(); err != nil {
		return Apiario{}, err
	}
	return sendJSON[Apiario](ctx, s.c, http.MethodPost, req)
}

func (s *ApiariosService) List(ctx context.Context) ([]Apiario, error) {
	return getList[Apiario](ctx, s.c)
}

func (s *ApiariosService) Get(ctx context.Context, id int64) (Apiario, error) {
	return getJSON[Apiario](ctx, s.c, itoa(id))
}

func (s *ApiariosService) Update(ctx context.Context, id int64, req ApiarioRequest) (Apiario, error) {
	if err := req.Validate(); err != nil {
		return Apiario{}, err
	}
	return sendJSON[Apiario](ctx, s.c, http.MethodPut, req, itoa(id))
}

func (s *ApiariosService) Delete(ctx context.Context, id int64) error {
	_, err := sendJSON[any](ctx, s.c, http.MethodDelete, nil, itoa(id))
	return err
}

func (s *ApiariosService) AddRecipe(ctx context.Context, idApiario int64, req RecetaRequest) (Receta, error) {
	if err := req.Validate(); err != nil {
		return Receta{}, err
	}
	return sendJSON[Receta](ctx, s.c, http.MethodPost, req, itoa(idApiario), "recetas")
}

// DeleteRecipe removes a fulfilled prescription and records it in the
// medical history.
func (s *ApiariosService) DeleteRecipe(ctx context.Context, idApiario int64) error {
	_, err := sendJSON[any](ctx, s.c, http.MethodDelete, nil, itoa(idApiario), "receta")
	return err
}

func (s *ApiariosService) FullHistory(ctx context.Context, idApiario int64) (json.RawMessage, error) {
	return getJSON[json.RawMessage](ctx, s.c, itoa(idApiario), "historial-completo")
}

func (s *ApiariosService) MedicalHistory(ctx context.Context, idHistorial int64) (json.RawMessage, error) {
	return getJSON[json.RawMessage](ctx, s.c, "historial-medico", itoa(idHistorial))
}

// Medicines lists the medicines that can be prescribed.
func (s *ApiariosService) Medicines(ctx context.Context) ([]Medicamento, error) {
	return getList[Medicamento](ctx, s.c, "medicamentos")
}

func (s *ApiariosService) LinkDevice(ctx context.Context, idApiario int64, dispositivoID string) (Apiario, error) {
	if strings.TrimSpace(dispositivoID) == "" {
		return Apiario{}, invalid("dispositivoId is required")
	}
	body := map[string]string{"dispositivoId": dispositivoID}
	return sendJSON[Apiario](ctx, s.c, http.MethodPost, body, itoa(idApiario), "vincular-dispositivo")
}

func (s *ApiariosService) UnlinkDevice(ctx context.Context, idApiario int64) (Apiario, error) {
	return sendJSON[Apiario](ctx, s.c, http.MethodDelete, nil, itoa(idApiario), "desvincular-dispositivo")
}

func (s *ApiariosService) ListWithoutDevice(ctx context.Context) ([]Apiario, error) {
	return getList[Apiario](ctx, s.c, "sin-dispositivo")
}

func (s *ApiariosService) GetByDevice(ctx context.Context, dispositivoID string) (Apiario, error) {
	return getJSON[Apiario](ctx, s.c, "dispositivo", dispositivoID)
}

// MQTTStatus returns the broker connection status text.
func (s *ApiariosService) MQTTStatus(ctx context.Context) (string, error) {
	return s.c.text(ctx, http.MethodGet, "mqtt", "status")
}

// DetectedDevices returns the devices that registered over MQTT, keyed by
// id. The response is not wrapped in an envelope.
func (s *ApiariosService) DetectedDevices(ctx context.Context) (map[string]Dispositivo, error) {
	return getPlain[map[string]Dispositivo](ctx, s.c, "dispositivos", "detectados")
}

// Device returns one detected device. The response is not wrapped in an
// envelope.
func (s *ApiariosService) Device(ctx context.Context, dispositivoID string) (Dispositivo, error) {
	if strings.TrimSpace(dispositivoID) == "" {
		return Dispositivo{}, invalid("dispositivoId is required")
	}
	return getPlain[Dispositivo](ctx, s.c, "dispositivos", dispositivoID)
}

// Switch turns an on/off actuator (fan, light, motor) on or off and
// returns the service's confirmation text. The gate is refused without a
// request.
func (s *ApiariosService) Switch(ctx context.Context, dispositivoID, actuator string, on bool) (string, error) {
	switch actuator {
	case ActuatorFan, ActuatorLight, ActuatorMotor:
	case ActuatorGate:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedActuator, actuator)
	default:
		return "", invalid("%q is not an on/off actuator", actuator)
	}
	return s.c.text(ctx, http.MethodPost, dispositivoID, actuator, strconv.FormatBool(on))
}

// Servo moves servo1 or servo2 to degrees.
func (s *ApiariosService) Servo(ctx context.Context, dispositivoID, servo string, degrees int) (string, error) {
	if servo != ActuatorServo1 && servo != ActuatorServo2 {
		return "", invalid("%q is not a servo", servo)
	}
	return s.c.text(ctx, http.MethodPost, dispositivoID, servo, strconv.Itoa(degrees))
}

// RGB sets the LED color.
func (s *ApiariosService) RGB(ctx context.Context, dispositivoID string, r, g, b int) (string, error) {
	return s.c.text(ctx, http.MethodPost, dispositivoID, ActuatorRGB,
		strconv.Itoa(r), strconv.Itoa(g), strconv.Itoa(b))
}
