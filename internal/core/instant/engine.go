// Package instant maps common phrases to an icon shown before any generated
// media arrives.
package instant

import "strings"

var icons = map[string]string{
	"hello":     "👋",
	"hi":        "👋",
	"goodbye":   "👋",
	"thank you": "🙏",
	"thanks":    "🙏",
	"yes":       "✅",
	"no":        "❌",
	"help":      "🆘",
	"please":    "🤲",
	"sorry":     "😔",
}

type Engine struct {
	icons map[string]string
}

// New returns an engine over the built-in phrase table plus extra entries.
// Extra keys are normalized the same way lookups are.
func New(extra map[string]string) *Engine {
	e := &Engine{icons: make(map[string]string, len(icons)+len(extra))}
	for k, v := range icons {
		e.icons[k] = v
	}
	for k, v := range extra {
		e.icons[normalize(k)] = v
	}
	return e
}

// Icon returns the icon for text, or "" when the phrase is unknown.
func (e *Engine) Icon(text string) string {
	return e.icons[normalize(text)]
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
