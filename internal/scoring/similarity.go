package scoring

import "github.com/agext/levenshtein"

// Levenshtein computes the rune-level edit distance between a and b with
// unit cost for insertion, deletion and substitution.
func Levenshtein(a, b string) int {
	return levenshtein.Distance(a, b, nil)
}

// Similarity scores two texts in [0, 1] after normalizing both:
// 1 - distance / max(len). Two empty texts are identical.
func Similarity(a, b string) float64 {
	return similarity(Normalize(a), Normalize(b))
}

// similarity expects already normalized input.
func similarity(a, b string) float64 {
	la, lb := runeCount(a), runeCount(b)
	maxLen := max(la, lb)
	if maxLen == 0 {
		return 1.0
	}
	if a == b {
		return 1.0
	}
	return 1.0 - float64(Levenshtein(a, b))/float64(maxLen)
}

func runeCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
