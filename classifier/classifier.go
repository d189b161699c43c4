// Package classifier detects canned-response intents and broad queries.
// It is a cost-avoidance gate: a canned match skips the whole pipeline, so
// matching is exact-or-prefix against fixed lexicons, never substring, and a
// miss simply falls through to full retrieval.
package classifier

import (
	"strings"
	"unicode"

	"github.com/tutorstack/retrieval/config"
	"github.com/tutorstack/retrieval/schema"
)

// Classification is the outcome for one raw question.
type Classification struct {
	Intent schema.Intent
	// Response is the canned response text for canned intents.
	Response string
	// Broad marks summary/overview style questions; retrieval parameters are
	// relaxed for them downstream.
	Broad bool
	// Language is a best-effort hint ("en", "hi") used as part of the
	// embedding cache key. A wrong hint never affects correctness.
	Language string
}

// cannedMaxWords caps how long a question may be and still match a canned
// phrase by prefix. Anything longer is a real question by definition.
const cannedMaxWords = 5

type lexicon struct {
	intent  schema.Intent
	entries []config.CannedEntry
}

// Classifier matches questions against static lexicons. It is pure and safe
// for concurrent use.
type Classifier struct {
	lexicons      []lexicon
	broadKeywords []string
}

// New builds a classifier from config, merging built-in defaults with any
// configured lexicon entries.
func New(cfg config.ClassifierConfig) *Classifier {
	greetings := append(defaultGreetings(), cfg.Greetings...)
	thanks := append(defaultThanks(), cfg.Thanks...)
	farewells := append(defaultFarewells(), cfg.Farewells...)

	broad := defaultBroadKeywords()
	broad = append(broad, cfg.BroadKeywords...)
	for i := range broad {
		broad[i] = strings.ToLower(strings.TrimSpace(broad[i]))
	}

	return &Classifier{
		lexicons: []lexicon{
			{intent: schema.IntentGreeting, entries: greetings},
			{intent: schema.IntentThanks, entries: thanks},
			{intent: schema.IntentFarewell, entries: farewells},
		},
		broadKeywords: broad,
	}
}

// Classify inspects a raw question and returns its classification.
func (c *Classifier) Classify(text string) Classification {
	normalized := normalize(text)
	out := Classification{
		Intent:   schema.IntentNormal,
		Broad:    c.isBroad(normalized),
		Language: DetectLanguage(text),
	}

	if normalized == "" {
		return out
	}

	words := len(strings.Fields(normalized))
	for _, lex := range c.lexicons {
		for _, e := range lex.entries {
			phrase := normalize(e.Phrase)
			if phrase == "" {
				continue
			}
			if normalized == phrase {
				out.Intent = lex.intent
				out.Response = e.Response
				return out
			}
			// Prefix matches only count for very short inputs, so a real
			// question starting with "hi" is never swallowed.
			if words <= cannedMaxWords && strings.HasPrefix(normalized, phrase+" ") {
				out.Intent = lex.intent
				out.Response = e.Response
				return out
			}
		}
	}
	return out
}

func (c *Classifier) isBroad(normalized string) bool {
	if normalized == "" {
		return false
	}
	padded := " " + normalized + " "
	for _, kw := range c.broadKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(padded, " "+kw+" ") {
			return true
		}
	}
	return false
}

// normalize lowercases, trims, strips trailing punctuation and collapses
// whitespace.
func normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return strings.Join(strings.Fields(s), " ")
}

// DetectLanguage returns "hi" when the text is predominantly Devanagari,
// otherwise "en".
func DetectLanguage(text string) string {
	var devanagari, letters int
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.Is(unicode.Devanagari, r) {
				devanagari++
			}
		}
	}
	if letters > 0 && devanagari*2 > letters {
		return "hi"
	}
	return "en"
}

func defaultGreetings() []config.CannedEntry {
	return []config.CannedEntry{
		{Phrase: "hi", Response: greetingResponse},
		{Phrase: "hii", Response: greetingResponse},
		{Phrase: "hello", Response: greetingResponse},
		{Phrase: "hey", Response: greetingResponse},
		{Phrase: "good morning", Response: greetingResponse},
		{Phrase: "good afternoon", Response: greetingResponse},
		{Phrase: "good evening", Response: greetingResponse},
		{Phrase: "namaste", Response: greetingResponse},
	}
}

func defaultThanks() []config.CannedEntry {
	return []config.CannedEntry{
		{Phrase: "thanks", Response: thanksResponse},
		{Phrase: "thank you", Response: thanksResponse},
		{Phrase: "thanks a lot", Response: thanksResponse},
		{Phrase: "thank you so much", Response: thanksResponse},
		{Phrase: "dhanyavad", Response: thanksResponse},
	}
}

func defaultFarewells() []config.CannedEntry {
	return []config.CannedEntry{
		{Phrase: "bye", Response: farewellResponse},
		{Phrase: "goodbye", Response: farewellResponse},
		{Phrase: "good night", Response: farewellResponse},
		{Phrase: "see you", Response: farewellResponse},
	}
}

func defaultBroadKeywords() []string {
	return []string{
		"summary", "summarise", "summarize", "overview", "explain",
		"what is", "introduction", "describe",
	}
}

const (
	greetingResponse = "Hello! Ask me anything from your textbook and I will help you understand it."
	thanksResponse   = "You're welcome! Feel free to ask another question whenever you're stuck."
	farewellResponse = "Goodbye! Come back anytime you want to study together."
)
