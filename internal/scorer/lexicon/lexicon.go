// Package lexicon scores headlines against a financial word lexicon with
// simple negation and intensifier handling.
package lexicon

import (
	"context"
	"strings"
	"unicode"

	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/interfaces"
)

// entry is the polarity/subjectivity pair for one lexicon word.
type entry struct {
	polarity     float64
	subjectivity float64
}

// Scorer is deterministic and safe for concurrent use.
type Scorer struct {
	words        map[string]entry
	intensifiers map[string]float64
	negators     map[string]bool
}

var _ interfaces.PolarityScorer = (*Scorer)(nil)

func New() *Scorer {
	return &Scorer{
		words:        loadWords(),
		intensifiers: loadIntensifiers(),
		negators:     loadNegators(),
	}
}

// negationWindow is how many tokens a negator stays active for.
const negationWindow = 3

// Score averages the matched word polarities of text. Text with no lexicon
// words scores (0, 0).
func (s *Scorer) Score(_ context.Context, text string) (float64, float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, 0, apperr.InvalidInput("lexicon.score", "text is empty")
	}

	tokens := tokenize(strings.ToLower(text))

	var (
		polSum, subjSum float64
		matched         int
		mult            = 1.0
		negateLeft      int
	)
	for _, tok := range tokens {
		if s.isNegator(tok) {
			negateLeft = negationWindow
			continue
		}
		if m, ok := s.intensifiers[tok]; ok {
			mult *= m
			continue
		}

		e, ok := s.lookup(tok)
		if !ok {
			if negateLeft > 0 {
				negateLeft--
			}
			mult = 1.0
			continue
		}

		p := e.polarity * mult
		subj := e.subjectivity * mult
		if negateLeft > 0 {
			p *= -0.5
			negateLeft = 0
		}
		polSum += clamp(p, -1, 1)
		subjSum += clamp(subj, 0, 1)
		matched++
		mult = 1.0
	}

	if matched == 0 {
		return 0, 0, nil
	}

	polarity := polSum / float64(matched)
	if n := strings.Count(text, "!"); n > 0 {
		polarity *= 1 + 0.1*float64(min(n, 3))
	}
	return clamp(polarity, -1, 1), clamp(subjSum/float64(matched), 0, 1), nil
}

func (s *Scorer) isNegator(tok string) bool {
	return s.negators[tok] || strings.HasSuffix(tok, "n't")
}

// lookup tries tok and a few inflection-stripped forms of it.
func (s *Scorer) lookup(tok string) (entry, bool) {
	if e, ok := s.words[tok]; ok {
		return e, true
	}
	for _, suffix := range []string{"s", "es", "d", "ed", "ing"} {
		stem, found := strings.CutSuffix(tok, suffix)
		if !found || len(stem) < 3 {
			continue
		}
		if e, ok := s.words[stem]; ok {
			return e, true
		}
		if suffix == "ing" || suffix == "ed" {
			if e, ok := s.words[stem+"e"]; ok {
				return e, true
			}
			// doubled consonant: slipped -> slip
			if n := len(stem); n > 3 && stem[n-1] == stem[n-2] {
				if e, ok := s.words[stem[:n-1]]; ok {
					return e, true
				}
			}
		}
	}
	return entry{}, false
}

// tokenize splits on anything that is not a letter, digit or apostrophe.
func tokenize(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || (r == '\'' && current.Len() > 0) || (r == '’' && current.Len() > 0) {
			if r == '’' {
				r = '\''
			}
			current.WriteRune(r)
		} else if current.Len() > 0 {
			words = appendToken(words, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = appendToken(words, current.String())
	}
	return words
}

func appendToken(words []string, tok string) []string {
	if tok = strings.TrimRight(tok, "'"); tok != "" {
		words = append(words, tok)
	}
	return words
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
