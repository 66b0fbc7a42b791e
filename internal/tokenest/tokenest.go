// Package tokenest estimates LLM token counts from raw text without calling
// a tokenizer. The estimate is deliberately conservative: the default
// aggregation takes the larger of a word-based and a character-based
// estimate so budget checks over-count rather than under-count. The
// completion service's own rejection of an over-long prompt remains the
// ground truth; callers recover from that separately.
package tokenest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Method selects how the word-based and character-based estimates are
// aggregated.
type Method string

// Aggregation methods.
const (
	MethodAverage Method = "average"
	MethodWords   Method = "words"
	MethodChars   Method = "chars"
	MethodMax     Method = "max"
	MethodMin     Method = "min"
)

// wordsPerToken and charsPerToken are the OpenAI rule-of-thumb ratios:
// one token per 0.75 words, one token per 4 characters.
const (
	wordsPerToken = 0.75
	charsPerToken = 4.0
)

// Estimator is a pure, deterministic token estimator.
type Estimator struct {
	method Method
}

// New creates an Estimator. An unrecognized or empty method falls back to
// MethodMax.
func New(method Method) *Estimator {
	switch method {
	case MethodAverage, MethodWords, MethodChars, MethodMax, MethodMin:
	default:
		method = MethodMax
	}
	return &Estimator{method: method}
}

// Estimate returns the estimated token count for text. The result is
// truncated toward zero and is never negative.
func (e *Estimator) Estimate(text string) int {
	if text == "" {
		return 0
	}

	wordCount := float64(len(strings.Fields(text)))
	charCount := float64(utf8.RuneCountInString(text))

	wordEst := wordCount / wordsPerToken
	charEst := charCount / charsPerToken

	// Whitespace and punctuation tokenize on their own more often than
	// the ratios predict; count them once and add to both estimates.
	structural := float64(countStructural(text))
	wordEst += structural
	charEst += structural

	var out float64
	switch e.method {
	case MethodAverage:
		out = (wordEst + charEst) / 2
	case MethodWords:
		out = wordEst
	case MethodChars:
		out = charEst
	case MethodMin:
		out = min(wordEst, charEst)
	default:
		out = max(wordEst, charEst)
	}

	return int(out)
}

// countStructural counts whitespace and the punctuation marks . , ! ? ;
func countStructural(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsSpace(r) || strings.ContainsRune(".,!?;", r) {
			n++
		}
	}
	return n
}
