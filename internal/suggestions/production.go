package suggestions

import (
	"regexp"
	"strings"
)

// DefaultMaxProductionCards caps the production screen's list.
const DefaultMaxProductionCards = 5

var (
	productionHeader = regexp.MustCompile(`^(##\s+\d+\.|\*\*\d+\.)`)
	headingMarker    = regexp.MustCompile(`^##\s+`)
	bulletMarker     = regexp.MustCompile(`^[*-]\s*`)
)

// ProductionIcons is the icon table for harvest and yield analysis.
var ProductionIcons = []IconRule{
	{Emoji: "📈", Keywords: []string{"rendimiento", "producción"}},
	{Emoji: "🌸", Keywords: []string{"flora", "flores", "néctar"}},
	{Emoji: "🔍", Keywords: []string{"inspección", "revisión", "monitoreo"}},
	{Emoji: "🍯", Keywords: []string{"cosecha", "miel"}},
	{Emoji: "👑", Keywords: []string{"enjambrazón", "reina"}},
	{Emoji: "🌡️", Keywords: []string{"temperatura", "clima"}},
	{Emoji: "🏥", Keywords: []string{"salud", "enfermedad"}},
	{Emoji: "🍴", Keywords: []string{"alimentación", "nutrición"}},
}

// ProductionParser reads the analisisIA text of the production statistics
// endpoint, where every section starts with "## N." or "**N.".
type ProductionParser struct {
	MaxCards int
}

var defaultProduction = ProductionParser{MaxCards: DefaultMaxProductionCards}

// ExtractProduction parses text with the default production rules.
func ExtractProduction(text string) []Card {
	return defaultProduction.Parse(text)
}

// Parse returns at most MaxCards cards (all of them when MaxCards <= 0).
func (p ProductionParser) Parse(text string) []Card {
	cards := []Card{}
	var title string
	var body strings.Builder

	flush := func() {
		desc := strings.TrimSpace(body.String())
		if title != "" && desc != "" {
			cards = append(cards, Card{
				Title:       matchIcon(ProductionIcons, "💡", title) + " " + title,
				Description: desc,
				Kind:        KindAI,
			})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch {
		case productionHeader.MatchString(line):
			flush()
			t := headingMarker.ReplaceAllString(line, "")
			t = strings.TrimPrefix(t, "**")
			t = strings.TrimSuffix(t, "**")
			title = strings.TrimSpace(t)
			body.Reset()
		case strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "-"):
			body.WriteString(bulletMarker.ReplaceAllString(trimmed, ""))
			body.WriteByte(' ')
		case !strings.HasPrefix(line, "#"):
			body.WriteString(line)
			body.WriteByte(' ')
		}
	}
	flush()

	if p.MaxCards > 0 && len(cards) > p.MaxCards {
		cards = cards[:p.MaxCards]
	}
	return cards
}

var _ Parser = ProductionParser{}
