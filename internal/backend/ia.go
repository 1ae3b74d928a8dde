package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/apiariosamano/colmena/internal/suggestions"
)

// Question is a free-form consultation for the IA services.
type Question struct {
	Pregunta     string `json:"pregunta"`
	TipoContexto string `json:"tipoContexto,omitempty"`
}

// Validate checks the request before it is sent.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Pregunta) == "" {
		return invalid("pregunta is required")
	}
	return nil
}

// Answer is a consultation response. The production service fills only
// Consulta, Respuesta and ModeloUsado.
type Answer struct {
	Consulta            string           `json:"consulta"`
	Respuesta           string           `json:"respuesta"`
	ContextoUtilizado   bool             `json:"contextoUtilizado,omitempty"`
	TipoContexto        string           `json:"tipoContexto,omitempty"`
	ModeloUsado         string           `json:"modeloUsado"`
	TiempoProcesamiento suggestions.Text `json:"tiempoProcesamiento,omitempty"`
}

// ModelHealth reports whether the service can reach its model.
type ModelHealth struct {
	OllamaDisponible  bool   `json:"ollamaDisponible"`
	Mensaje           string `json:"mensaje"`
	ModeloConfigurado string `json:"modeloConfigurado,omitempty"`
}

// Diagnostic is the full connectivity diagnostic.
type Diagnostic struct {
	Diagnostico  json.RawMessage `json:"diagnostico,omitempty"`
	Timestamp    string          `json:"timestamp,omitempty"`
	TestConexion string          `json:"testConexion,omitempty"`
	Estado       string          `json:"estado,omitempty"`
	TestExitoso  *bool           `json:"testExitoso,omitempty"`
	ErrorDetalle string          `json:"errorDetalle,omitempty"`
	Solucion     string          `json:"solucion,omitempty"`
}

// GenerationTest is the result of a minimal generation round trip.
type GenerationTest struct {
	OllamaDisponible    bool             `json:"ollamaDisponible"`
	Mensaje             string           `json:"mensaje,omitempty"`
	RespuestaIA         string           `json:"respuestaIA,omitempty"`
	LongitudRespuesta   int              `json:"longitudRespuesta,omitempty"`
	TiempoProcesamiento suggestions.Text `json:"tiempoProcesamiento,omitempty"`
	Estado              string           `json:"estado,omitempty"`
	Error               string           `json:"error,omitempty"`
	TipoError           string           `json:"tipoError,omitempty"`
}

// Recommendations is the per-apiary recommendations payload.
type Recommendations struct {
	SugerenciasIA string          `json:"sugerenciasIA"`
	Extra         json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the whole payload in Extra.
func (r *Recommendations) UnmarshalJSON(data []byte) error {
	var wire struct {
		SugerenciasIA string `json:"sugerenciasIA"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.SugerenciasIA = wire.SugerenciasIA
	r.Extra = append(json.RawMessage(nil), data...)
	return nil
}

// IAApiariosService is the apiary analysis service (/api/ia-analisis).
type IAApiariosService struct {
	c *Client
}

// NewIAApiariosService wraps c.
func NewIAApiariosService(c *Client) *IAApiariosService {
	return &IAApiariosService{c: c}
}

func (s *IAApiariosService) Ask(ctx context.Context, pregunta string) (Answer, error) {
	q := Question{Pregunta: pregunta}
	if err := q.Validate(); err != nil {
		return Answer{}, err
	}
	return sendJSON[Answer](ctx, s.c, http.MethodPost, q, "consulta")
}

// AskWithContext lets the service ground the answer on a data set
// (tipoContexto).
func (s *IAApiariosService) AskWithContext(ctx context.Context, pregunta, tipoContexto string) (Answer, error) {
	q := Question{Pregunta: pregunta, TipoContexto: tipoContexto}
	if err := q.Validate(); err != nil {
		return Answer{}, err
	}
	if strings.TrimSpace(tipoContexto) == "" {
		return Answer{}, invalid("tipoContexto is required")
	}
	return sendJSON[Answer](ctx, s.c, http.MethodPost, q, "consulta-contexto")
}

func (s *IAApiariosService) Statistics(ctx context.Context) (json.RawMessage, error) {
	return getJSON[json.RawMessage](ctx, s.c, "estadisticas")
}

func (s *IAApiariosService) Predictions(ctx context.Context) (suggestions.PredictionData, error) {
	return getJSON[suggestions.PredictionData](ctx, s.c, "predicciones")
}

func (s *IAApiariosService) Recommendations(ctx context.Context, idApiario int64) (Recommendations, error) {
	return getJSON[Recommendations](ctx, s.c, "recomendaciones", itoa(idApiario))
}

func (s *IAApiariosService) Health(ctx context.Context) (ModelHealth, error) {
	return getJSON[ModelHealth](ctx, s.c, "salud")
}

func (s *IAApiariosService) Diagnostic(ctx context.Context) (Diagnostic, error) {
	return getJSON[Diagnostic](ctx, s.c, "diagnostico")
}

func (s *IAApiariosService) ExtendedDiagnostic(ctx context.Context) (json.RawMessage, error) {
	return getJSON[json.RawMessage](ctx, s.c, "diagnostico-extendido")
}

func (s *IAApiariosService) TestSimple(ctx context.Context) (GenerationTest, error) {
	return getJSON[GenerationTest](ctx, s.c, "test-simple")
}

// ProductionStats is the production statistics payload; AnalisisIA holds
// the model's analysis text.
type ProductionStats struct {
	AnalisisIA          string           `json:"analisisIA"`
	Estadisticas        json.RawMessage  `json:"estadisticas,omitempty"`
	Resumen             json.RawMessage  `json:"resumen,omitempty"`
	TiempoProcesamiento suggestions.Text `json:"tiempoProcesamiento,omitempty"`
	ModeloUsado         string           `json:"modeloUsado,omitempty"`
}

var periodPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,32}$`)

// IAProduccionService is the production analysis service
// (/api/produccion/ia).
type IAProduccionService struct {
	c *Client
}

// NewIAProduccionService wraps c.
func NewIAProduccionService(c *Client) *IAProduccionService {
	return &IAProduccionService{c: c}
}

func (s *IAProduccionService) Statistics(ctx context.Context) (ProductionStats, error) {
	return getJSON[ProductionStats](ctx, s.c, "estadisticas")
}

func (s *IAProduccionService) Predictions(ctx context.Context) (json.RawMessage, error) {
	return getJSON[json.RawMessage](ctx, s.c, "predicciones")
}

func (s *IAProduccionService) HarvestSuggestions(ctx context.Context, idCosecha int64) (json.RawMessage, error) {
	return getJSON[json.RawMessage](ctx, s.c, "sugerencias", "cosecha", itoa(idCosecha))
}

// Performance analyses yield over a period such as "mensual".
func (s *IAProduccionService) Performance(ctx context.Context, periodo string) (json.RawMessage, error) {
	if !periodPattern.MatchString(periodo) {
		return nil, invalid("periodo %q is not valid", periodo)
	}
	return getJSON[json.RawMessage](ctx, s.c, "rendimiento", periodo)
}

func (s *IAProduccionService) Health(ctx context.Context) (ModelHealth, error) {
	return getJSON[ModelHealth](ctx, s.c, "salud")
}

func (s *IAProduccionService) Ask(ctx context.Context, pregunta string) (Answer, error) {
	q := Question{Pregunta: pregunta}
	if err := q.Validate(); err != nil {
		return Answer{}, err
	}
	return sendJSON[Answer](ctx, s.c, http.MethodPost, q, "consulta")
}

func (s *IAProduccionService) Diagnostic(ctx context.Context) (json.RawMessage, error) {
	return getJSON[json.RawMessage](ctx, s.c, "diagnostico")
}
