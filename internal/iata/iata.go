// Package iata normalises free-form place names into IATA location codes.
//
// Users and models routinely send "London" or "Barselona" where the price API
// expects "LON" or "BCN". [Resolver.Resolve] accepts three-letter codes as-is
// and otherwise matches the input against a built-in table of city and
// airport names in two stages:
//
//  1. Phonetic candidate filtering: Double Metaphone codes of the input and of
//     each known name must share at least one code, and the Jaro-Winkler score
//     must reach the phonetic threshold (default 0.70).
//  2. Fuzzy fallback: when no phonetic candidate qualifies, the best pure
//     Jaro-Winkler match above the fuzzy threshold (default 0.85) wins.
package iata

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Place is one entry of the lookup table.
type Place struct {
	Name string
	Code string
}

// Option is a functional option for configuring a [Resolver].
type Option func(*Resolver)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a
// phonetically-matched name. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(r *Resolver) {
		r.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score when no phonetic
// match is found. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(r *Resolver) {
		r.fuzzyThreshold = threshold
	}
}

// WithPlaces replaces the built-in table.
func WithPlaces(places []Place) Option {
	return func(r *Resolver) {
		r.places = places
	}
}

type indexed struct {
	place  Place
	lower  string
	tokens []string
	codes  map[string]struct{}
}

// Resolver maps place names to IATA codes. It is read-only after
// construction and safe for concurrent use.
type Resolver struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
	places            []Place
	index             []indexed
	exact             map[string]string
}

// New returns a Resolver over the built-in table unless [WithPlaces] is given.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
		places:            builtinPlaces,
	}
	for _, o := range opts {
		o(r)
	}

	r.exact = make(map[string]string, len(r.places))
	r.index = make([]indexed, 0, len(r.places))
	for _, p := range r.places {
		lower := normalise(p.Name)
		if lower == "" {
			continue
		}
		r.exact[lower] = p.Code
		tokens := strings.Fields(lower)
		r.index = append(r.index, indexed{
			place:  p,
			lower:  lower,
			tokens: tokens,
			codes:  codesForTokens(tokens),
		})
	}
	return r
}

// Resolve returns the IATA code for place. ok is false when nothing matched;
// code is then the trimmed input unchanged.
func (r *Resolver) Resolve(place string) (code string, ok bool) {
	trimmed := strings.TrimSpace(place)
	if isCode(trimmed) {
		return strings.ToUpper(trimmed), true
	}

	lower := normalise(trimmed)
	if lower == "" {
		return trimmed, false
	}
	if c, found := r.exact[lower]; found {
		return c, true
	}

	tokens := strings.Fields(lower)
	inputCodes := codesForTokens(tokens)

	var (
		best         string
		bestScore    float64
		bestPhonetic bool
	)
	for _, e := range r.index {
		score := bestJWScore(tokens, e.tokens, lower, e.lower)
		if codesOverlap(inputCodes, e.codes) {
			if score >= r.phoneticThreshold && (!bestPhonetic || score > bestScore) {
				best, bestScore, bestPhonetic = e.place.Code, score, true
			}
		} else if !bestPhonetic && score >= r.fuzzyThreshold && score > bestScore {
			best, bestScore = e.place.Code, score
		}
	}
	if best == "" {
		return trimmed, false
	}
	return best, true
}

func isCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, c := range s {
		if c > unicode.MaxASCII || !unicode.IsLetter(c) {
			return false
		}
	}
	return true
}

// normalise lower-cases s and drops noise words such as "airport".
func normalise(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	out := fields[:0]
	for _, f := range fields {
		switch f {
		case "airport", "international", "intl", "city":
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore is the highest of the full-string, space-stripped, and best
// pairwise-token Jaro-Winkler scores.
func bestJWScore(inputTokens, placeTokens []string, inputFull, placeFull string) float64 {
	score := matchr.JaroWinkler(inputFull, placeFull, false)

	if len(inputTokens) > 1 || len(placeTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(inputTokens, ""), strings.Join(placeTokens, ""), false); s > score {
			score = s
		}
		// Pairwise scores only count when both sides are multi-word, so
		// "new" alone cannot claim "New York".
		if len(inputTokens) > 1 && len(placeTokens) > 1 {
			for _, it := range inputTokens {
				for _, pt := range placeTokens {
					if s := matchr.JaroWinkler(it, pt, false); s > score {
						score = s
					}
				}
			}
		}
	}
	return score
}
