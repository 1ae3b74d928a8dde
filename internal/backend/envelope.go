package backend

import "encoding/json"

// Envelope is the response wrapper used by the microservices. Two shapes
// exist in the fleet and both decode into it:
//
//	{"codigo": 200, "descripcion": "...", "data": ...}
//	{"statusCode": 200, "message": "...", "description": "...", "data": ...}
type Envelope[T any] struct {
	Codigo      *int   `json:"codigo,omitempty"`
	Descripcion string `json:"descripcion,omitempty"`
	StatusCode  *int   `json:"statusCode,omitempty"`
	Message     string `json:"message,omitempty"`
	Description string `json:"description,omitempty"`
	Data        T      `json:"data"`
}

// Code returns the status code carried in the body, or 0 when absent.
func (e Envelope[T]) Code() int {
	switch {
	case e.Codigo != nil:
		return *e.Codigo
	case e.StatusCode != nil:
		return *e.StatusCode
	default:
		return 0
	}
}

// Text returns the human readable message of either shape.
func (e Envelope[T]) Text() string {
	for _, s := range []string{e.Descripcion, e.Description, e.Message} {
		if s != "" {
			return s
		}
	}
	return ""
}

// OK reports whether the body signals success. A missing code counts as
// success since the HTTP status was already 2xx.
func (e Envelope[T]) OK() bool {
	code := e.Code()
	return code == 0 || code >= 200 && code <= 299
}

// Err converts an unsuccessful envelope into an *APIError.
func (e Envelope[T]) Err() error {
	if e.OK() {
		return nil
	}
	return &APIError{
		Status:      e.Code(),
		Code:        e.Code(),
		Message:     e.Message,
		Description: firstNonEmpty(e.Descripcion, e.Description),
	}
}

// wireEnvelope decodes the envelope fields of an error response without
// caring about data.
type wireEnvelope = Envelope[json.RawMessage]

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
