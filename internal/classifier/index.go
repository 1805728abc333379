// Package classifier assigns taxonomy categories from keyword votes.
package classifier

import (
	"strings"
	"time"
	"unicode"

	"github.com/angelmondragon/procurematch-backend/internal/signature"
)

// Uncategorized is the catch-all bucket that never contributes votes.
const Uncategorized = "uncategorized"

// DefaultThreshold is used when callers pass a non-positive threshold.
const DefaultThreshold = 0.5

// Document is one active, categorized catalog entry.
type Document struct {
	Category string
	Text     string
}

// BuildOptions tune index construction.
type BuildOptions struct {
	// Curated maps a stemmed keyword to a category. Each seed adds CuratedWeight votes.
	Curated       map[string]string
	CuratedWeight int
}

// Index is an immutable keyword to category vote table.
type Index struct {
	version   int64
	builtAt   time.Time
	votes     map[string]map[string]int
	documents int
}

// Result is the outcome of a lookup. Found is false when no category cleared the threshold.
type Result struct {
	Category   string   `json:"category,omitempty"`
	Confidence float64  `json:"confidence"`
	Votes      int      `json:"votes"`
	Total      int      `json:"total"`
	Matched    []string `json:"matched,omitempty"`
	Found      bool     `json:"found"`
}

// Build counts every keyword occurrence of every document into a fresh index.
func Build(version int64, docs []Document, opts BuildOptions, now time.Time) *Index {
	idx := &Index{
		version: version,
		builtAt: now,
		votes:   make(map[string]map[string]int),
	}
	for _, doc := range docs {
		category := strings.TrimSpace(doc.Category)
		if category == "" || strings.EqualFold(category, Uncategorized) {
			continue
		}
		tokens := signature.Tokens(doc.Text)
		if len(tokens) == 0 {
			continue
		}
		idx.documents++
		for _, token := range tokens {
			idx.add(token, category, 1)
		}
	}
	weight := opts.CuratedWeight
	if weight <= 0 {
		weight = 1
	}
	for keyword, category := range opts.Curated {
		if keyword == "" || category == "" {
			continue
		}
		idx.add(keyword, category, weight)
	}
	return idx
}

func (i *Index) add(keyword, category string, n int) {
	byCategory, ok := i.votes[keyword]
	if !ok {
		byCategory = make(map[string]int)
		i.votes[keyword] = byCategory
	}
	byCategory[category] += n
}

func (i *Index) Version() int64 {
	return i.version
}

func (i *Index) BuiltAt() time.Time {
	return i.builtAt
}

// Size returns the number of distinct keywords and indexed documents.
func (i *Index) Size() (keywords, documents int) {
	return len(i.votes), i.documents
}

// Classify looks up the query text. Empty and purely numeric queries yield no category.
func (i *Index) Classify(text string, threshold float64) Result {
	if isBlankOrNumeric(text) {
		return Result{}
	}
	return i.ClassifyTokens(signature.Tokens(text), threshold)
}

// ClassifyTokens sums per-category votes of the given stemmed keywords.
// Ties resolve to the lexicographically smallest category.
func (i *Index) ClassifyTokens(tokens []string, threshold float64) Result {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	totals := make(map[string]int)
	total := 0
	var matched []string
	for _, token := range tokens {
		byCategory, ok := i.votes[token]
		if !ok {
			continue
		}
		matched = append(matched, token)
		for category, n := range byCategory {
			totals[category] += n
			total += n
		}
	}
	if total == 0 {
		return Result{}
	}

	best, bestVotes := "", 0
	for category, n := range totals {
		if n > bestVotes || (n == bestVotes && category < best) {
			best, bestVotes = category, n
		}
	}
	res := Result{
		Category:   best,
		Confidence: float64(bestVotes) / float64(total),
		Votes:      bestVotes,
		Total:      total,
		Matched:    matched,
	}
	res.Found = res.Confidence >= threshold
	if !res.Found {
		res.Category = ""
	}
	return res
}

func isBlankOrNumeric(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
