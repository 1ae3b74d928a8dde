package suggestions

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minLineLen        = 10 // lines at or below this are noise
	minBodyLineLen    = 5
	minDescriptionLen = 10
	minFallbackText   = 50
	minParagraphLen   = 30
	maxFallbackTitle  = 50
)

var (
	numberedHeader = regexp.MustCompile(`^\d+\.\s+[A-Z]`)
	headingPrefix  = regexp.MustCompile(`^#+\s*`)
	numberPrefix   = regexp.MustCompile(`^\d+\.\s*`)
)

// Config controls header detection and title icons.
type Config struct {
	// HeaderPhrases mark a line as a header when its lowercase form contains
	// any of them.
	HeaderPhrases []string
	// Icons are matched against the cleaned, lowercased title.
	Icons []IconRule
	// DefaultIcon is used when no rule matches.
	DefaultIcon string
}

// DefaultConfig returns the rules used on the apiarios prediction screen.
func DefaultConfig() Config {
	return Config{
		HeaderPhrases: []string{
			"problema potencial",
			"estrés térmico",
			"nosema",
			"análisis predictivo",
		},
		Icons: []IconRule{
			{Emoji: "🌡️", Keywords: []string{"estrés térmico", "temperatura"}},
			{Emoji: "🦠", Keywords: []string{"nosema", "infección"}},
			{Emoji: "⚠️", Keywords: []string{"problema"}},
			{Emoji: "🔮", Keywords: []string{"análisis", "predictivo"}},
		},
		DefaultIcon: "📋",
	}
}

// Extractor segments text into cards with a two-state line scanner: it is
// either looking for a header or accumulating the body of the current one.
// An Extractor holds no mutable state and is safe for concurrent use.
type Extractor struct {
	phrases     []string
	icons       []IconRule
	defaultIcon string
}

// NewExtractor creates an extractor, filling empty fields from DefaultConfig.
func NewExtractor(cfg Config) *Extractor {
	def := DefaultConfig()
	if len(cfg.HeaderPhrases) == 0 {
		cfg.HeaderPhrases = def.HeaderPhrases
	}
	if len(cfg.Icons) == 0 {
		cfg.Icons = def.Icons
	}
	if cfg.DefaultIcon == "" {
		cfg.DefaultIcon = def.DefaultIcon
	}

	phrases := make([]string, len(cfg.HeaderPhrases))
	for i, p := range cfg.HeaderPhrases {
		phrases[i] = strings.ToLower(p)
	}
	// Titles are matched lowercased, so keywords must be too.
	icons := make([]IconRule, len(cfg.Icons))
	for i, r := range cfg.Icons {
		keywords := make([]string, len(r.Keywords))
		for j, k := range r.Keywords {
			keywords[j] = strings.ToLower(k)
		}
		icons[i] = IconRule{Emoji: r.Emoji, Keywords: keywords}
	}
	return &Extractor{
		phrases:     phrases,
		icons:       icons,
		defaultIcon: cfg.DefaultIcon,
	}
}

var defaultExtractor = NewExtractor(DefaultConfig())

// Extract parses text with the default apiarios rules.
func Extract(text string) []Card {
	return defaultExtractor.Parse(text)
}

// CleanTitle strips markup from a header and prefixes its icon using the
// default rules.
func CleanTitle(title string) string {
	return defaultExtractor.CleanTitle(title)
}

// Parse returns the cards found in text. Empty input yields an empty slice.
func (e *Extractor) Parse(text string) []Card {
	cards := []Card{}
	if text == "" {
		return cards
	}

	var title, body string
	flush := func() {
		if title == "" || body == "" {
			return
		}
		desc := FormatBody(body)
		if utf8.RuneCountInString(desc) > minDescriptionLen {
			cards = append(cards, Card{Title: e.CleanTitle(title), Description: desc, Kind: KindAI})
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if utf8.RuneCountInString(line) <= minLineLen {
			continue
		}

		if e.isHeader(line) {
			flush()
			title, body = line, ""
			continue
		}
		if title != "" && utf8.RuneCountInString(line) > minBodyLineLen {
			if body == "" {
				body = line
			} else {
				body += " " + line
			}
		}
	}
	flush()

	if len(cards) == 0 && utf8.RuneCountInString(text) > minFallbackText {
		return e.paragraphs(text)
	}
	return cards
}

func (e *Extractor) isHeader(line string) bool {
	if strings.HasPrefix(line, "**") || strings.HasPrefix(line, "##") || numberedHeader.MatchString(line) {
		return true
	}
	lower := strings.ToLower(line)
	for _, p := range e.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// paragraphs is the fallback for text without recognizable headers: one card
// per blank-line separated paragraph.
func (e *Extractor) paragraphs(text string) []Card {
	cards := []Card{}
	for _, para := range strings.Split(text, "\n\n") {
		if utf8.RuneCountInString(strings.TrimSpace(para)) <= minParagraphLen {
			continue
		}

		var lines []string
		for _, l := range strings.Split(para, "\n") {
			if utf8.RuneCountInString(strings.TrimSpace(l)) > minLineLen {
				lines = append(lines, l)
			}
		}
		if len(lines) == 0 {
			continue
		}

		first := strings.TrimSpace(lines[0])
		rest := strings.Join(lines[1:], " ")
		if rest == "" {
			rest = first
		}
		cards = append(cards, Card{
			Title:       e.CleanTitle(truncate(first, maxFallbackTitle)),
			Description: FormatBody(rest),
			Kind:        KindAI,
		})
	}
	return cards
}

// CleanTitle strips bold, heading and numbering markup and prefixes exactly
// one icon.
func (e *Extractor) CleanTitle(title string) string {
	clean := strings.ReplaceAll(title, "**", "")
	clean = strings.ReplaceAll(clean, "*", "")
	clean = headingPrefix.ReplaceAllString(clean, "")
	clean = numberPrefix.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(clean)

	return matchIcon(e.icons, e.defaultIcon, clean) + " " + clean
}

// FormatBody normalizes a card description: markup removed, pipes turned
// into dashes, whitespace collapsed, first letter capitalized and terminal
// punctuation ensured.
func FormatBody(body string) string {
	clean := strings.ReplaceAll(body, "**", "")
	clean = strings.ReplaceAll(clean, "*", "")
	clean = strings.ReplaceAll(clean, "|", " - ")
	clean = strings.Join(strings.Fields(clean), " ")

	clean = capitalize(clean)
	if !strings.HasSuffix(clean, ".") && !strings.HasSuffix(clean, "!") && !strings.HasSuffix(clean, "?") {
		clean += "."
	}
	return clean
}

func matchIcon(rules []IconRule, fallback, title string) string {
	lower := strings.ToLower(title)
	for _, r := range rules {
		for _, k := range r.Keywords {
			if strings.Contains(lower, k) {
				return r.Emoji
			}
		}
	}
	return fallback
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

var _ Parser = (*Extractor)(nil)
