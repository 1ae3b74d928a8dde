package suggestions

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractProduction(t *testing.T) {
	text := "# Análisis de producción\n" +
		"## 1. Rendimiento de miel\n" +
		"* La producción subió un 12% este mes.\n" +
		"- Mantener la rotación de alzas.\n" +
		"\n" +
		"**2. Floración**\n" +
		"La flora local está en su pico.\n" +
		"### Notas\n"

	cards := ExtractProduction(text)
	require.Len(t, cards, 2)

	assert.Equal(t, "📈 1. Rendimiento de miel", cards[0].Title)
	assert.Equal(t, "La producción subió un 12% este mes. Mantener la rotación de alzas.", cards[0].Description)
	assert.Equal(t, KindAI, cards[0].Kind)

	assert.Equal(t, "🌸 2. Floración", cards[1].Title)
	assert.Equal(t, "La flora local está en su pico.", cards[1].Description)
}

func TestExtractProductionLimits(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 7; i++ {
		fmt.Fprintf(&b, "## %d. Sección\ncontenido de la sección %d\n", i, i)
	}

	assert.Len(t, ExtractProduction(b.String()), DefaultMaxProductionCards)
	assert.Len(t, ProductionParser{}.Parse(b.String()), 7)
	assert.Equal(t, "💡 1. Sección", ExtractProduction(b.String())[0].Title)
}

func TestExtractProductionIgnoresEmptySections(t *testing.T) {
	assert.Empty(t, ExtractProduction(""))
	assert.Empty(t, ExtractProduction("## 1. Cosecha\n\n## 2. Reina\n"))
	assert.Empty(t, ExtractProduction("texto sin secciones numeradas"))
}
