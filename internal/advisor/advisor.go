// Package advisor combines the IA analysis services with suggestion parsing
// so callers get cards instead of raw model text.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/apiariosamano/colmena/internal/backend"
	"github.com/apiariosamano/colmena/internal/logging"
	"github.com/apiariosamano/colmena/internal/suggestions"
)

// ApiariosIA is the subset of the apiary analysis service the advisor uses.
type ApiariosIA interface {
	Recommendations(ctx context.Context, idApiario int64) (backend.Recommendations, error)
	Predictions(ctx context.Context) (suggestions.PredictionData, error)
	AskWithContext(ctx context.Context, pregunta, tipoContexto string) (backend.Answer, error)
}

// ProduccionIA is the subset of the production analysis service the
// advisor uses.
type ProduccionIA interface {
	Statistics(ctx context.Context) (backend.ProductionStats, error)
}

// ContextApiarios is the consulta context sent with questions.
const ContextApiarios = "apiarios"

// Advisor produces suggestion cards and answers consultas.
type Advisor struct {
	apiarios    ApiariosIA
	produccion  ProduccionIA
	local       *LocalModel
	preferLocal bool
	logger      *logging.Logger
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithLocalModel enables the local fallback for Ask.
func WithLocalModel(m *LocalModel) Option {
	return func(a *Advisor) { a.local = m }
}

// WithPreferLocal asks the local model first when one is configured.
func WithPreferLocal(prefer bool) Option {
	return func(a *Advisor) { a.preferLocal = prefer }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *Advisor) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an advisor over the two IA services.
func New(apiarios ApiariosIA, produccion ProduccionIA, opts ...Option) (*Advisor, error) {
	if apiarios == nil || produccion == nil {
		return nil, errors.New("advisor requires both IA services")
	}
	a := &Advisor{
		apiarios:   apiarios,
		produccion: produccion,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ApiarioSuggestions returns the recommendation cards for one apiary.
func (a *Advisor) ApiarioSuggestions(ctx context.Context, idApiario int64) ([]suggestions.Card, error) {
	rec, err := a.apiarios.Recommendations(ctx, idApiario)
	if err != nil {
		return nil, fmt.Errorf("recommendations for apiario %d: %w", idApiario, err)
	}
	cards := suggestions.ExtractRecommendations(rec.SugerenciasIA)
	a.logger.Debug(ctx, "apiario suggestions",
		zap.Int64("apiario_id", idApiario), zap.Int("cards", len(cards)))
	return cards, nil
}

// Predictions returns the prediction cards, falling back to cards built from
// the response fields when the model text yields none.
func (a *Advisor) Predictions(ctx context.Context) ([]suggestions.Card, error) {
	d, err := a.apiarios.Predictions(ctx)
	if err != nil {
		return nil, fmt.Errorf("predictions: %w", err)
	}
	return suggestions.Predictions(d), nil
}

// ProductionSuggestions returns the cards of the production analysis.
func (a *Advisor) ProductionSuggestions(ctx context.Context) ([]suggestions.Card, error) {
	stats, err := a.produccion.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("production statistics: %w", err)
	}
	return suggestions.ExtractProduction(stats.AnalisisIA), nil
}

// Ask sends question to the apiary analysis service. When the service is
// unreachable and a local model is configured, the local model answers.
func (a *Advisor) Ask(ctx context.Context, question string) (backend.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return backend.Answer{}, fmt.Errorf("%w: pregunta is required", backend.ErrInvalidRequest)
	}

	if a.local != nil && a.preferLocal {
		ans, err := a.askLocal(ctx, question)
		if err == nil {
			return ans, nil
		}
		a.logger.Warn(ctx, "local model failed, asking remote service", zap.Error(err))
	}

	ans, err := a.apiarios.AskWithContext(ctx, question, ContextApiarios)
	if err == nil {
		return ans, nil
	}
	if a.local == nil || a.preferLocal || !Unavailable(err) {
		return backend.Answer{}, fmt.Errorf("consulta: %w", err)
	}

	a.logger.Warn(ctx, "IA service unavailable, using local model",
		zap.String("model", a.local.Name()), zap.Error(err))
	local, lerr := a.askLocal(ctx, question)
	if lerr != nil {
		return backend.Answer{}, fmt.Errorf("consulta: %w", errors.Join(err, lerr))
	}
	return local, nil
}

func (a *Advisor) askLocal(ctx context.Context, question string) (backend.Answer, error) {
	start := time.Now()
	text, err := a.local.Generate(ctx, question)
	if err != nil {
		return backend.Answer{}, err
	}
	return backend.Answer{
		Consulta:            question,
		Respuesta:           text,
		TipoContexto:        ContextApiarios,
		ModeloUsado:         a.local.Name(),
		TiempoProcesamiento: suggestions.Text(fmt.Sprintf("%.2f", time.Since(start).Seconds())),
	}, nil
}

// Unavailable reports whether err means the remote service could not answer
// at all, as opposed to rejecting the request.
func Unavailable(err error) bool {
	if err == nil || errors.Is(err, backend.ErrInvalidRequest) || errors.Is(err, context.Canceled) {
		return false
	}
	status := backend.StatusOf(err)
	return status == 0 || status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}
