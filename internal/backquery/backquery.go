// Package backquery orders and prunes candidate geocodings by how well their
// address matches the vocabulary of the source article. Geocoders routinely
// return plausible-but-wrong candidates; textual co-occurrence in the source
// document is the strongest cheap signal of correctness.
package backquery

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/newsatlas/geolocate/internal/model"
)

// DefaultThreshold is the cosine similarity at or below which a candidate is
// discarded.
const DefaultThreshold = 0.1

// referenceCorpus anchors the inverse-document-frequency statistics so that
// a single article's vocabulary does not dominate the vector space.
//
//go:embed corpus.txt
var referenceCorpus string

// excludedComponents are administrative boilerplate address fields that carry
// no signal about which concrete place an article is discussing.
var excludedComponents = map[string]bool{
	"ISO_3166-1_alpha-2": true,
	"ISO_3166-1_alpha-3": true,
	"_type":              true,
	"country_code":       true,
	"road_type":          true,
	"postcode":           true,
}

// Filter scores geocoding candidates against an article text in a shared
// TF-IDF vector space and discards candidates below a similarity threshold.
type Filter struct {
	corpus    []string
	threshold float64
}

// Option configures the Filter.
type Option func(*Filter)

// WithThreshold overrides the similarity threshold.
func WithThreshold(t float64) Option {
	return func(f *Filter) {
		f.threshold = t
	}
}

// WithCorpus replaces the embedded reference corpus.
func WithCorpus(docs []string) Option {
	return func(f *Filter) {
		f.corpus = docs
	}
}

// New creates a Filter with the embedded reference corpus and the default
// threshold.
func New(opts ...Option) *Filter {
	f := &Filter{
		threshold: DefaultThreshold,
	}
	for _, line := range strings.Split(referenceCorpus, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			f.corpus = append(f.corpus, line)
		}
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Select orders each place's candidates by descending similarity of their
// address to the article text, discarding candidates at or below the
// threshold. Places left with no candidates are dropped entirely. The vector
// space is refit on every call so place names appearing only in this article
// are in-vocabulary; there is no cross-call state.
func (f *Filter) Select(candidates map[string][]model.Candidate, text string) map[string][]model.Candidate {
	vec := fitVectorizer(append(append([]string(nil), f.corpus...), text))
	textVec := vec.transform(text)

	selected := make(map[string][]model.Candidate, len(candidates))
	for name, cands := range candidates {
		scored := make([]model.Candidate, len(cands))
		copy(scored, cands)
		for i := range scored {
			addrVec := vec.transform(compileAddress(scored[i]))
			scored[i].Similarity = dot(addrVec, textVec)
		}
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Similarity > scored[j].Similarity
		})
		var kept []model.Candidate
		for _, c := range scored {
			if c.Similarity > f.threshold {
				kept = append(kept, c)
			}
		}
		if len(kept) > 0 {
			selected[name] = kept
		}
	}
	return selected
}

// compileAddress builds the text to score a candidate by: its raw address
// components minus administrative boilerplate, falling back to the formatted
// address when no components were returned.
func compileAddress(c model.Candidate) string {
	if len(c.Components) == 0 {
		return c.Address
	}
	keys := make([]string, 0, len(c.Components))
	for k := range c.Components {
		if !excludedComponents[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := c.Components[k]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
