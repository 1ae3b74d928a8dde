// Package suggestions turns free-form text produced by the IA analysis
// services into display-ready suggestion cards.
//
// The services answer with a single markdown-ish string (sugerenciasIA,
// prediccionesIA, analisisIA). Parsing is best-effort: headers are detected
// from markup and a fixed list of Spanish domain phrases, and anything that
// does not fit degrades to fewer cards, never to an error.
package suggestions

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tells the UI where a card came from.
type Kind string

const (
	// KindAI marks cards parsed from model output.
	KindAI Kind = "ai"
	// KindDefault marks cards built locally from structured response data.
	KindDefault Kind = "default"
)

// Card is a titled suggestion ready to render.
type Card struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        Kind   `json:"kind"`
}

// IconRule prefixes Emoji to a title whose lowercase form contains any of
// Keywords. Rules are evaluated in order; the first match wins.
type IconRule struct {
	Emoji    string
	Keywords []string
}

// Parser converts one blob of model output into cards.
type Parser interface {
	Parse(text string) []Card
}

// Variant selects which screen's parsing rules apply.
type Variant string

const (
	// VariantApiarios segments prediction text by headers and domain phrases.
	VariantApiarios Variant = "apiarios"
	// VariantProduccion segments numbered sections of the production analysis.
	VariantProduccion Variant = "produccion"
	// VariantRecomendaciones splits "Title: description" lines.
	VariantRecomendaciones Variant = "recomendaciones"
)

// ErrUnknownVariant is returned by ParseVariant for unsupported names.
var ErrUnknownVariant = errors.New("unknown suggestion variant")

// ParseVariant parses a variant name. Empty selects VariantApiarios.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VariantApiarios, nil
	case VariantApiarios, VariantProduccion, VariantRecomendaciones:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

// ForVariant returns the default parser for v.
func ForVariant(v Variant) Parser {
	switch v {
	case VariantProduccion:
		return defaultProduction
	case VariantRecomendaciones:
		return RecommendationParser{}
	default:
		return defaultExtractor
	}
}
