package playground

// Languages the greeting derivation knows about, in cycle order.
var languages = []string{"en", "es", "fr", "de", "pt"}

var greetings = map[string]string{
	"en": "Hello",
	"es": "Hola",
	"fr": "Bonjour",
	"de": "Hallo",
	"pt": "Olá",
}

// Greeting derives a localized greeting from the language and name fields.
// Unknown languages fall back to English.
func Greeting(language, name string) string {
	word, ok := greetings[language]
	if !ok {
		word = greetings["en"]
	}
	if name == "" {
		return word + "!"
	}
	return word + ", " + name + "!"
}

// NextLanguage returns the language after current in the cycle. Unknown
// languages restart the cycle.
func NextLanguage(current string) string {
	for i, lang := range languages {
		if lang == current {
			return languages[(i+1)%len(languages)]
		}
	}
	return languages[0]
}
