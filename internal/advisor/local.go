package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// ErrInvalidConfig indicates an unusable local model configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

const systemPrompt = "Eres un asistente experto en apicultura para los apiarios Samano. " +
	"Responde en español, de forma breve y práctica."

// LocalModel answers consultas with a model served by a local Ollama.
type LocalModel struct {
	llm  llms.Model
	name string
}

// NewLocalModel connects to the Ollama server at serverURL.
func NewLocalModel(model, serverURL string) (*LocalModel, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}
	return NewLocalModelWith(llm, model), nil
}

// NewLocalModelWith wraps any langchaingo model.
func NewLocalModelWith(llm llms.Model, name string) *LocalModel {
	return &LocalModel{llm: llm, name: name}
}

// Name is the model name reported in answers.
func (m *LocalModel) Name() string { return m.name }

// Generate answers question.
func (m *LocalModel) Generate(ctx context.Context, question string) (string, error) {
	prompt := systemPrompt + "\n\nPregunta: " + strings.TrimSpace(question)
	out, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt, llms.WithTemperature(0.3))
	if err != nil {
		return "", fmt.Errorf("local model %s: %w", m.name, err)
	}
	return strings.TrimSpace(out), nil
}
