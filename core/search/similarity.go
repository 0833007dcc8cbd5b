package search

import (
	"strings"
	"unicode"
)

// Similarity returns the Dice coefficient of the character bigrams of a and
// b, ignoring whitespace. Identical strings score 1; strings shorter than two
// characters score 0 against anything else.
func Similarity(a, b string) float64 {
	a, b = stripSpace(a), stripSpace(b)
	if a == b {
		return 1
	}
	ar, br := []rune(a), []rune(b)
	if len(ar) < 2 || len(br) < 2 {
		return 0
	}

	counts := make(map[[2]rune]int, len(ar)-1)
	for i := 0; i < len(ar)-1; i++ {
		counts[[2]rune{ar[i], ar[i+1]}]++
	}

	shared := 0
	for i := 0; i < len(br)-1; i++ {
		bigram := [2]rune{br[i], br[i+1]}
		if counts[bigram] > 0 {
			counts[bigram]--
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ar)+len(br)-2)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
