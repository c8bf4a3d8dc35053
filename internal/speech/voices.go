package speech

import (
	"strings"
	"unicode"

	"github.com/steveyiyo/signspeak/internal/model"
)

var genderKeywords = map[model.Gender][]string{
	model.Female: {"female", "woman", "samantha", "victoria", "karen", "moira", "tessa", "veena", "google uk english female"},
	model.Male:   {"male", "man", "alex", "daniel", "fred", "rishi", "google uk english male"},
}

// SelectVoice picks the first voice matching the language prefix of locale
// whose name carries a keyword for gender, else the first language match.
// It returns nil when no voice speaks the language.
func SelectVoice(voices []Voice, locale string, gender model.Gender) *Voice {
	code, _, _ := strings.Cut(locale, "-")
	code = strings.ToLower(code)

	var langVoices []Voice
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Lang), code) {
			langVoices = append(langVoices, v)
		}
	}
	if len(langVoices) == 0 {
		return nil
	}
	for _, v := range langVoices {
		name := words(v.Name)
		for _, kw := range genderKeywords[gender] {
			if strings.Contains(name, " "+kw+" ") {
				return &v
			}
		}
	}
	return &langVoices[0]
}

// words lower-cases s and turns it into " w1 w2 ... " so keyword tests only
// match whole words ("man" must not match "woman").
func words(s string) string {
	f := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(f, " ") + " "
}
