package sentiment

import (
	"errors"
	"strings"
	"unicode"
)

// ErrNoText is returned when there is nothing to classify.
var ErrNoText = errors.New("no text to classify")

// LexiconModel classifies text by counting sentiment-bearing words. Strong
// words weigh double, and a preceding negator flips a word's direction.
type LexiconModel struct {
	lexicon map[string]int
}

// NewLexiconModel creates a lexicon model with the built-in hotel vocabulary.
func NewLexiconModel() *LexiconModel {
	return &LexiconModel{lexicon: defaultLexicon}
}

// Classify reduces the text to a 1 to 5 star judgment. Text with no
// sentiment-bearing words reads as a neutral 3 stars.
func (m *LexiconModel) Classify(text string) (int, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0, ErrNoText
	}

	var sum, hits int
	negate := false
	for _, token := range tokens {
		if negators[token] {
			negate = true
			continue
		}
		if weight, ok := m.lexicon[token]; ok {
			if negate {
				weight = -weight
			}
			sum += weight
			hits++
		}
		negate = false
	}

	if hits == 0 {
		return 3, nil
	}

	// Normalize to [-1, 1]; the strongest words carry weight 2.
	intensity := float64(sum) / float64(hits*2)
	switch {
	case intensity >= 0.75:
		return 5, nil
	case intensity >= 0.25:
		return 4, nil
	case intensity > -0.25:
		return 3, nil
	case intensity > -0.75:
		return 2, nil
	default:
		return 1, nil
	}
}

// tokenize lowercases the text and splits it into words, keeping
// apostrophes so contractions survive.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

// negators flip the sentiment of the word that follows them.
var negators = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"hardly":  true,
	"barely":  true,
	"wasn't":  true,
	"isn't":   true,
	"weren't": true,
	"didn't":  true,
}

// defaultLexicon is a hotel-review vocabulary. Weight 1 words lean, weight 2
// words shout.
var defaultLexicon = map[string]int{
	// positive
	"amazing":     2,
	"excellent":   2,
	"exceptional": 2,
	"fantastic":   2,
	"flawless":    2,
	"outstanding": 2,
	"perfect":     2,
	"stunning":    2,
	"superb":      2,
	"wonderful":   2,
	"attentive":   1,
	"beautiful":   1,
	"charming":    1,
	"clean":       1,
	"comfortable": 1,
	"convenient":  1,
	"cozy":        1,
	"delicious":   1,
	"friendly":    1,
	"good":        1,
	"great":       1,
	"helpful":     1,
	"lovely":      1,
	"modern":      1,
	"nice":        1,
	"pleasant":    1,
	"quiet":       1,
	"spacious":    1,
	"spotless":    1,
	"welcoming":   1,

	// negative
	"appalling":     -2,
	"awful":         -2,
	"disgusting":    -2,
	"filthy":        -2,
	"horrible":      -2,
	"terrible":      -2,
	"unacceptable":  -2,
	"worst":         -2,
	"bad":           -1,
	"broken":        -1,
	"cramped":       -1,
	"dated":         -1,
	"dirty":         -1,
	"disappointing": -1,
	"loud":          -1,
	"mediocre":      -1,
	"noisy":         -1,
	"overpriced":    -1,
	"poor":          -1,
	"rude":          -1,
	"slow":          -1,
	"smelly":        -1,
	"stained":       -1,
	"uncomfortable": -1,
	"unfriendly":    -1,
	"unhelpful":     -1,
}
