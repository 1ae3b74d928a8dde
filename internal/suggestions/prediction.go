package suggestions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Text is a JSON value rendered as a string. The IA services are loose about
// types: temperaturaActual may arrive as 23.5 or "23.5 °C".
type Text string

// UnmarshalJSON accepts strings, numbers and booleans; null becomes "".
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.(type) {
	case float64, bool:
		*t = Text(string(data))
		return nil
	default:
		return fmt.Errorf("suggestions: cannot read %s as text", data)
	}
}

func (t Text) orDefault(def string) string {
	if s := strings.TrimSpace(string(t)); s != "" {
		return s
	}
	return def
}

// HistorySummary is the resumenHistorial block of a predictions response.
type HistorySummary struct {
	PorcentajeConHistorial   Text `json:"porcentajeConHistorial"`
	PorcentajeConTratamiento Text `json:"porcentajeConTratamiento"`
}

// PredictionData is the data payload of the health predictions endpoint.
type PredictionData struct {
	PrediccionesIA      string          `json:"prediccionesIA"`
	Ubicacion           Text            `json:"ubicacion"`
	TemperaturaActual   Text            `json:"temperaturaActual"`
	ModeloUsado         Text            `json:"modeloUsado"`
	TiempoProcesamiento Text            `json:"tiempoProcesamiento"`
	ApiariosAnalizados  Text            `json:"apiariosAnalizados"`
	ResumenHistorial    *HistorySummary `json:"resumenHistorial,omitempty"`
}

const notAvailable = "No disponible"

// FromPredictionData builds cards from the structured fields of a
// predictions response. It is the fallback when PrediccionesIA yields no
// cards.
func FromPredictionData(d PredictionData) []Card {
	cards := []Card{}

	if d.Ubicacion != "" || d.TemperaturaActual != "" {
		cards = append(cards, Card{
			Title: "🌡️ Condiciones Actuales",
			Description: fmt.Sprintf("Ubicación: %s. Temperatura: %s. Modelo usado: %s.",
				d.Ubicacion.orDefault(notAvailable),
				d.TemperaturaActual.orDefault(notAvailable),
				d.ModeloUsado.orDefault(notAvailable)),
			Kind: KindDefault,
		})
	}

	if r := d.ResumenHistorial; r != nil {
		cards = append(cards, Card{
			Title: "📊 Resumen del Historial",
			Description: fmt.Sprintf("%s de los apiarios tienen historial médico. %s están bajo tratamiento actual.",
				r.PorcentajeConHistorial, r.PorcentajeConTratamiento),
			Kind: KindDefault,
		})
	}

	if d.TiempoProcesamiento != "" {
		cards = append(cards, Card{
			Title: "⏱️ Análisis Realizado",
			Description: fmt.Sprintf("El análisis predictivo tomó %s y evaluó %s apiario(s).",
				d.TiempoProcesamiento, d.ApiariosAnalizados.orDefault("1")),
			Kind: KindDefault,
		})
	}

	return cards
}

// Predictions parses PrediccionesIA and falls back to FromPredictionData when
// the text yields nothing. A response without PrediccionesIA has no cards.
func Predictions(d PredictionData) []Card {
	if d.PrediccionesIA == "" {
		return []Card{}
	}
	if cards := Extract(d.PrediccionesIA); len(cards) > 0 {
		return cards
	}
	return FromPredictionData(d)
}
