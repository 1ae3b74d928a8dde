package advisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/apiariosamano/colmena/internal/backend"
	"github.com/apiariosamano/colmena/internal/logging"
	"github.com/apiariosamano/colmena/internal/suggestions"
)

type fakeApiarios struct {
	rec     backend.Recommendations
	pred    suggestions.PredictionData
	answer  backend.Answer
	err     error
	askErr  error
	asked   []string
	lastCtx string
}

func (f *fakeApiarios) Recommendations(_ context.Context, id int64) (backend.Recommendations, error) {
	return f.rec, f.err
}

func (f *fakeApiarios) Predictions(context.Context) (suggestions.PredictionData, error) {
	return f.pred, f.err
}

func (f *fakeApiarios) AskWithContext(_ context.Context, q, tipo string) (backend.Answer, error) {
	f.asked = append(f.asked, q)
	f.lastCtx = tipo
	if f.askErr != nil {
		return backend.Answer{}, f.askErr
	}
	return f.answer, nil
}

type fakeProduccion struct {
	stats backend.ProductionStats
	err   error
}

func (f *fakeProduccion) Statistics(context.Context) (backend.ProductionStats, error) {
	return f.stats, f.err
}

// fakeLLM is a langchaingo model with a canned reply.
type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, m := range messages {
		for _, p := range m.Parts {
			if tp, ok := p.(llms.TextContent); ok {
				f.prompts = append(f.prompts, tp.Text)
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func newTestAdvisor(t *testing.T, a *fakeApiarios, p *fakeProduccion, opts ...Option) *Advisor {
	t.Helper()
	adv, err := New(a, p, opts...)
	require.NoError(t, err)
	return adv
}

func TestNewRequiresServices(t *testing.T) {
	_, err := New(nil, &fakeProduccion{})
	assert.Error(t, err)
	_, err = New(&fakeApiarios{}, nil)
	assert.Error(t, err)
}

func TestApiarioSuggestions(t *testing.T) {
	a := &fakeApiarios{rec: backend.Recommendations{
		SugerenciasIA: "Alimentación: Suministrar jarabe de azúcar 1:1 durante la semana\nRevisión: Inspeccionar cuadros de cría",
	}}
	adv := newTestAdvisor(t, a, &fakeProduccion{})

	cards, err := adv.ApiarioSuggestions(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Contains(t, cards[0].Title, "Alimentación")
	assert.Equal(t, "Suministrar jarabe de azúcar 1:1 durante la semana", cards[0].Description)

	a.err = &backend.APIError{Status: http.StatusNotFound}
	_, err = adv.ApiarioSuggestions(context.Background(), 4)
	require.Error(t, err)
	assert.True(t, backend.IsNotFound(err))
}

func TestPredictionsFallback(t *testing.T) {
	a := &fakeApiarios{pred: suggestions.PredictionData{
		PrediccionesIA:    "ok",
		Ubicacion:         "Tlaxcala",
		TemperaturaActual: "28",
	}}
	adv := newTestAdvisor(t, a, &fakeProduccion{})

	cards, err := adv.Predictions(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, cards)
	for _, c := range cards {
		assert.Equal(t, suggestions.KindDefault, c.Kind)
	}

	a.pred = suggestions.PredictionData{}
	cards, err = adv.Predictions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestProductionSuggestions(t *testing.T) {
	p := &fakeProduccion{stats: backend.ProductionStats{
		AnalisisIA: "## 1. Rendimiento general\nLa producción de miel subió un 12% respecto al mes anterior.\n" +
			"## 2. Calidad\nLa humedad de la miel se mantiene por debajo del 18%.",
	}}
	adv := newTestAdvisor(t, &fakeApiarios{}, p)

	cards, err := adv.ProductionSuggestions(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 2)

	p.err = errors.New("boom")
	_, err = adv.ProductionSuggestions(context.Background())
	assert.ErrorContains(t, err, "production statistics")
}

func TestAskRemote(t *testing.T) {
	a := &fakeApiarios{answer: backend.Answer{Respuesta: "Revise la ventilación", ModeloUsado: "llama3"}}
	llm := &fakeLLM{reply: "local"}
	adv := newTestAdvisor(t, a, &fakeProduccion{}, WithLocalModel(NewLocalModelWith(llm, "phi3")))

	ans, err := adv.Ask(context.Background(), "¿Por qué zumban tanto?")
	require.NoError(t, err)
	assert.Equal(t, "Revise la ventilación", ans.Respuesta)
	assert.Equal(t, ContextApiarios, a.lastCtx)
	assert.Empty(t, llm.prompts)
}

func TestAskFallsBackToLocalModel(t *testing.T) {
	tests := []struct {
		name      string
		remoteErr error
		fallback  bool
	}{
		{"transport error", errors.New("request to localhost:8082 failed: connection refused"), true},
		{"server error", &backend.APIError{Status: http.StatusBadGateway}, true},
		{"rate limited", &backend.APIError{Status: http.StatusTooManyRequests}, true},
		{"unauthorized", &backend.APIError{Status: http.StatusUnauthorized}, false},
		{"canceled", fmt.Errorf("wrapped: %w", context.Canceled), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &fakeApiarios{askErr: tt.remoteErr}
			llm := &fakeLLM{reply: "  Coloque sombra sobre las colmenas.  "}
			logger := logging.NewTestLogger()
			adv := newTestAdvisor(t, a, &fakeProduccion{},
				WithLocalModel(NewLocalModelWith(llm, "phi3")),
				WithLogger(logger.Logger))

			ans, err := adv.Ask(context.Background(), "Hace mucho calor")
			if !tt.fallback {
				require.Error(t, err)
				assert.Empty(t, llm.prompts)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Coloque sombra sobre las colmenas.", ans.Respuesta)
			assert.Equal(t, "phi3", ans.ModeloUsado)
			assert.Equal(t, "Hace mucho calor", ans.Consulta)
			require.Len(t, llm.prompts, 1)
			assert.Contains(t, llm.prompts[0], "Pregunta: Hace mucho calor")
			assert.Equal(t, 1, logger.FilterMessage("IA service unavailable, using local model").Len())
		})
	}
}

func TestAskWithoutLocalModel(t *testing.T) {
	a := &fakeApiarios{askErr: errors.New("connection refused")}
	adv := newTestAdvisor(t, a, &fakeProduccion{})

	_, err := adv.Ask(context.Background(), "hola")
	assert.ErrorContains(t, err, "connection refused")

	_, err = adv.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, backend.ErrInvalidRequest)
	assert.Len(t, a.asked, 1)
}

func TestAskBothFail(t *testing.T) {
	a := &fakeApiarios{askErr: errors.New("connection refused")}
	llm := &fakeLLM{err: errors.New("ollama not running")}
	adv := newTestAdvisor(t, a, &fakeProduccion{}, WithLocalModel(NewLocalModelWith(llm, "phi3")))

	_, err := adv.Ask(context.Background(), "hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "ollama not running")
}

func TestAskPreferLocal(t *testing.T) {
	a := &fakeApiarios{answer: backend.Answer{Respuesta: "remoto"}}
	llm := &fakeLLM{reply: "local"}
	adv := newTestAdvisor(t, a, &fakeProduccion{},
		WithLocalModel(NewLocalModelWith(llm, "phi3")),
		WithPreferLocal(true))

	ans, err := adv.Ask(context.Background(), "hola")
	require.NoError(t, err)
	assert.Equal(t, "local", ans.Respuesta)
	assert.Empty(t, a.asked)

	llm.err = errors.New("down")
	ans, err = adv.Ask(context.Background(), "hola")
	require.NoError(t, err)
	assert.Equal(t, "remoto", ans.Respuesta)
}

func TestNewLocalModelRequiresName(t *testing.T) {
	_, err := NewLocalModel(" ", "")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	m, err := NewLocalModel("llama3", "http://localhost:11434")
	require.NoError(t, err)
	assert.Equal(t, "llama3", m.Name())
}
