package http

import (
	"github.com/apiariosamano/colmena/internal/suggestions"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// SuggestionsRequest is the request body for POST /api/v1/suggestions.
type SuggestionsRequest struct {
	Text    string `json:"text"`
	Variant string `json:"variant"`
}

// CardsResponse wraps a list of suggestion cards.
type CardsResponse struct {
	Cards []suggestions.Card `json:"cards"`
	Count int                `json:"count"`
}

// ConsultaRequest is the request body for POST /api/v1/consulta.
type ConsultaRequest struct {
	Pregunta string `json:"pregunta"`
}

// ActuatorRequest is the request body for
// POST /api/v1/dispositivos/:id/actuadores/:actuador.
type ActuatorRequest struct {
	Value string `json:"value"`
}

// ActuatorResponse reports the device service's confirmation.
type ActuatorResponse struct {
	DispositivoID string `json:"dispositivoId"`
	Actuator      string `json:"actuator"`
	Value         string `json:"value"`
	Response      string `json:"response"`
}

// SessionResponse describes the caller's token.
type SessionResponse struct {
	UserID    string `json:"usuarioId,omitempty"`
	Email     string `json:"email,omitempty"`
	Nombre    string `json:"nombre,omitempty"`
	Rol       string `json:"rol,omitempty"`
	Operador  bool   `json:"operador"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

func cardsResponse(cards []suggestions.Card) CardsResponse {
	if cards == nil {
		cards = []suggestions.Card{}
	}
	return CardsResponse{Cards: cards, Count: len(cards)}
}
