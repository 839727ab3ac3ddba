// Package extract guesses the city a user is asking about from free-form
// chat input. The heuristics are pattern-based and deliberately best-effort:
// anchored phrases first, then positional fallbacks.
package extract

import (
	"regexp"
	"strings"
)

// Tried in order; more specific first. Captures stop at sentence punctuation
// so "weather in Pune, please" yields "Pune".
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)weather in (.+?)(?:\?|$|\.|,)`),
	regexp.MustCompile(`(?i)weather at (.+?)(?:\?|$|\.|,)`),
	regexp.MustCompile(`(?i)weather for (.+?)(?:\?|$|\.|,)`),
	regexp.MustCompile(`(?i)temperature in (.+?)(?:\?|$|\.|,)`),
	regexp.MustCompile(`(?i)humidity in (.+?)(?:\?|$|\.|,)`),
	regexp.MustCompile(`(?i)(.+?) weather`),
}

var (
	leadingFiller  = regexp.MustCompile(`(?i)^(in|at|for|the)\s+`)
	leadingAnchor  = regexp.MustCompile(`(?i)^(in|at)\s+`)
	fallbackFiller = regexp.MustCompile(`(?i)^(in|at|for)\s+`)
	trailingPunct  = regexp.MustCompile(`[?.,!;:]+$`)
	anyPunct       = regexp.MustCompile(`[?.,!;:]`)
)

// City returns the best-guess city named in msg. Matching is
// case-insensitive; the extracted value keeps the original casing. ok is
// false when nothing resembling a place could be found.
func City(msg string) (city string, ok bool) {
	for _, p := range patterns {
		m := p.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		c := strings.TrimSpace(m[1])
		c = strings.TrimSpace(leadingFiller.ReplaceAllString(c, ""))
		c = strings.TrimSpace(trailingPunct.ReplaceAllString(c, ""))
		if c != "" {
			return c, true
		}
	}

	// "in Tokyo" / "at Oslo" with no other anchor.
	if leadingAnchor.MatchString(msg) {
		c := strings.TrimSpace(leadingAnchor.ReplaceAllString(msg, ""))
		if len(c) > 2 {
			return strings.TrimSpace(trailingPunct.ReplaceAllString(c, "")), true
		}
	}

	// Last resort: the trailing two words of a longer message are often the
	// place ("how cold is New York").
	words := strings.Fields(msg)
	if len(words) > 2 {
		c := strings.Join(words[len(words)-2:], " ")
		c = strings.TrimSpace(anyPunct.ReplaceAllString(c, ""))
		c = strings.TrimSpace(fallbackFiller.ReplaceAllString(c, ""))
		if len(c) > 2 {
			return c, true
		}
	}

	return "", false
}
