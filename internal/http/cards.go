package http

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/apiariosamano/colmena/internal/suggestions"
)

// CardMetrics counts the suggestion cards served, by source.
type CardMetrics struct {
	cards    *prometheus.CounterVec
	requests *prometheus.CounterVec
}

// NewCardMetrics registers the counters with reg.
func NewCardMetrics(reg prometheus.Registerer) (*CardMetrics, error) {
	m := &CardMetrics{
		cards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "colmena",
			Name:      "suggestion_cards_total",
			Help:      "Suggestion cards returned, by source and card kind.",
		}, []string{"source", "kind"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "colmena",
			Name:      "suggestion_requests_total",
			Help:      "Suggestion requests, by source and whether any card was produced.",
		}, []string{"source", "empty"}),
	}
	for _, c := range []prometheus.Collector{m.cards, m.requests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records one response.
func (m *CardMetrics) Observe(source string, cards []suggestions.Card) {
	if m == nil {
		return
	}
	empty := "false"
	if len(cards) == 0 {
		empty = "true"
	}
	m.requests.WithLabelValues(source, empty).Inc()
	for _, c := range cards {
		m.cards.WithLabelValues(source, string(c.Kind)).Inc()
	}
}
