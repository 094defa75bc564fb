package backquery

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents strips combining marks so that "Zürich" and "Zurich" share a
// vocabulary entry.
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// tokenize lowercases, folds accents, and splits on non-alphanumeric runes.
// Single-rune tokens are dropped.
func tokenize(s string) []string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}
	fields := strings.FieldsFunc(strings.ToLower(folded), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, t := range fields {
		if len([]rune(t)) >= 2 {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// vectorizer maps texts into a fixed L2-normalized TF-IDF vector space.
type vectorizer struct {
	vocab map[string]int
	idf   []float64
}

// fitVectorizer learns vocabulary and smoothed inverse document frequencies
// from the given documents: idf = ln((1+n)/(1+df)) + 1.
func fitVectorizer(docs []string) *vectorizer {
	vocab := make(map[string]int)
	df := make(map[int]int)
	for _, doc := range docs {
		seen := make(map[int]bool)
		for _, tok := range tokenize(doc) {
			id, ok := vocab[tok]
			if !ok {
				id = len(vocab)
				vocab[tok] = id
			}
			if !seen[id] {
				seen[id] = true
				df[id]++
			}
		}
	}
	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for id := range idf {
		idf[id] = math.Log((1+n)/(1+float64(df[id]))) + 1
	}
	return &vectorizer{vocab: vocab, idf: idf}
}

// transform returns the L2-normalized TF-IDF vector of a text as a sparse
// term-id to weight mapping. Out-of-vocabulary tokens are ignored.
func (v *vectorizer) transform(text string) map[int]float64 {
	tf := make(map[int]float64)
	for _, tok := range tokenize(text) {
		if id, ok := v.vocab[tok]; ok {
			tf[id]++
		}
	}
	var norm2 float64
	for id, count := range tf {
		w := count * v.idf[id]
		tf[id] = w
		norm2 += w * w
	}
	if norm2 == 0 {
		return tf
	}
	scale := 1 / math.Sqrt(norm2)
	for id := range tf {
		tf[id] *= scale
	}
	return tf
}

// dot computes the inner product of two sparse vectors. With both sides
// L2-normalized this is the cosine similarity.
func dot(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for id, w := range a {
		sum += w * b[id]
	}
	return sum
}
