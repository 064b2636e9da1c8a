package index

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/connexus-ai/secondbrain/internal/model"
)

// tokenPattern matches Unicode word characters and hyphens, mirroring the
// lexical index's tokenizer contract: indexing and querying must use the
// identical tokenizer or BM25 scores become incomparable.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_\-]+`)

// Tokenize lowercases and splits text into BM25 terms.
func Tokenize(text string) []string {
	matches := tokenPattern.FindAllString(text, -1)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = strings.ToLower(m)
	}
	return out
}

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// LexicalIndex is an in-memory Okapi BM25 index. Row i corresponds to the
// same chunk as row i of the vector index's metadata sidecar.
type LexicalIndex struct {
	corpus    [][]string
	meta      []model.ChunkMeta
	docFreq   map[string]int
	avgDocLen float64
	totalDocs int
}

// BuildLexical tokenizes texts and computes per-term document frequencies.
// An empty texts slice yields an index whose Search always returns nil.
func BuildLexical(texts []string, meta []model.ChunkMeta) *LexicalIndex {
	corpus := make([][]string, len(texts))
	docFreq := make(map[string]int)
	totalLen := 0
	for i, text := range texts {
		terms := Tokenize(text)
		corpus[i] = terms
		totalLen += len(terms)
		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			docFreq[t]++
		}
	}
	avgLen := 0.0
	if len(corpus) > 0 {
		avgLen = float64(totalLen) / float64(len(corpus))
	}
	return &LexicalIndex{
		corpus:    corpus,
		meta:      append([]model.ChunkMeta(nil), meta...),
		docFreq:   docFreq,
		avgDocLen: avgLen,
		totalDocs: len(corpus),
	}
}

// Len reports the number of indexed rows.
func (l *LexicalIndex) Len() int { return l.totalDocs }

// Meta returns the sidecar metadata at row i.
func (l *LexicalIndex) Meta(i int) model.ChunkMeta { return l.meta[i] }

func (l *LexicalIndex) idf(term string) float64 {
	n := float64(l.totalDocs)
	df := float64(l.docFreq[term])
	// Okapi BM25 idf with the +1 smoothing term, floored at zero so a
	// term appearing in every document doesn't produce a negative
	// weight.
	v := math.Log(1 + (n-df+0.5)/(df+0.5))
	if v < 0 {
		return 0
	}
	return v
}

// Search tokenizes query with the same tokenizer used at build time and
// returns up to k rows ranked by descending BM25 score.
func (l *LexicalIndex) Search(query string, k int) []Scored {
	if l.totalDocs == 0 || k <= 0 {
		return nil
	}
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	scores := make([]Scored, l.totalDocs)
	for row, doc := range l.corpus {
		termFreq := make(map[string]int, len(doc))
		for _, t := range doc {
			termFreq[t]++
		}
		docLen := float64(len(doc))
		var score float64
		for _, term := range terms {
			tf := float64(termFreq[term])
			if tf == 0 {
				continue
			}
			idf := l.idf(term)
			numerator := tf * (bm25K1 + 1)
			denominator := tf + bm25K1*(1-bm25B+bm25B*docLen/l.avgDocLen)
			score += idf * numerator / denominator
		}
		scores[row] = Scored{Row: row, Score: float32(score)}
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Row < scores[j].Row
	})
	if k < len(scores) {
		scores = scores[:k]
	}
	return scores
}
