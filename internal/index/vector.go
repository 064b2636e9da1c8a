// Package index holds the two on-disk/in-memory indexes that back hybrid
// retrieval: a flat inner-product vector index and an Okapi BM25 lexical
// index. Both share the same row ordering as the chunk metadata sidecar.
package index

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/connexus-ai/secondbrain/internal/model"
)

// VectorIndex is a brute-force inner-product search over unit-norm float32
// vectors. There is no approximate structure: every query scans the full
// row set, which is acceptable at the scale this service targets.
type VectorIndex struct {
	dim     int
	vectors [][]float32
	meta    []model.ChunkMeta
}

// NewVectorIndex returns an empty index of the given embedding dimension.
func NewVectorIndex(dim int) *VectorIndex {
	return &VectorIndex{dim: dim}
}

// Dim reports the embedding dimension.
func (v *VectorIndex) Dim() int { return v.dim }

// Len reports the number of indexed rows.
func (v *VectorIndex) Len() int { return len(v.vectors) }

// Meta returns the sidecar metadata at row i.
func (v *VectorIndex) Meta(i int) model.ChunkMeta { return v.meta[i] }

// Build returns a new index holding L2-normalized copies of the given
// vectors and a copy of their metadata; the input slices are not modified.
// Callers must pass one metadata entry per vector, in the same order.
func Build(vectors [][]float32, meta []model.ChunkMeta) (*VectorIndex, error) {
	if len(vectors) != len(meta) {
		return nil, fmt.Errorf("index: vector count %d != meta count %d", len(vectors), len(meta))
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	out := make([][]float32, len(vectors))
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("index: vector %d has dim %d, expected %d", i, len(vec), dim)
		}
		out[i] = normalize(vec)
	}
	return &VectorIndex{dim: dim, vectors: out, meta: append([]model.ChunkMeta(nil), meta...)}, nil
}

func normalize(vec []float32) []float32 {
	var sumSq float64
	for _, x := range vec {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(vec))
	if norm == 0 {
		copy(out, vec)
		return out
	}
	for i, x := range vec {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Scored is a single search hit: the row index and its raw score.
type Scored struct {
	Row   int
	Score float32
}

// Search unit-normalizes the query vector and returns up to k rows ranked
// by descending inner product. Sentinel "no match" rows (index -1) never
// occur here since the index is exhaustive, but the contract mirrors the
// faiss-style search signature the engine is grounded on.
func (v *VectorIndex) Search(query []float32, k int) []Scored {
	if len(v.vectors) == 0 || k <= 0 {
		return nil
	}
	q := normalize(query)
	scores := make([]Scored, 0, len(v.vectors))
	for i, row := range v.vectors {
		var dot float32
		for j, x := range row {
			dot += x * q[j]
		}
		scores = append(scores, Scored{Row: i, Score: dot})
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

// vectorFile / metaFile name the two files a persisted index occupies
// under a data directory's index subdirectory.
const (
	vectorFile = "chunks.faiss"
	metaFile   = "chunks.faiss.meta.json"
)

type onDiskVector struct {
	Dim     int         `json:"dim"`
	Vectors [][]float32 `json:"vectors"`
}

// Exists reports whether both the vector file and its metadata sidecar are
// present on disk under dir.
func Exists(dir string) bool {
	_, err1 := os.Stat(filepath.Join(dir, vectorFile))
	_, err2 := os.Stat(filepath.Join(dir, metaFile))
	return err1 == nil && err2 == nil
}

// Load reads a persisted vector index and its sidecar from dir.
func Load(dir string) (*VectorIndex, error) {
	raw, err := os.ReadFile(filepath.Join(dir, vectorFile))
	if err != nil {
		return nil, fmt.Errorf("index: read vector file: %w", err)
	}
	var onDisk onDiskVector
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		return nil, fmt.Errorf("index: decode vector file: %w", err)
	}

	rawMeta, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return nil, fmt.Errorf("index: read meta sidecar: %w", err)
	}
	var meta []model.ChunkMeta
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return nil, fmt.Errorf("index: decode meta sidecar: %w", err)
	}

	if len(onDisk.Vectors) != len(meta) {
		return nil, fmt.Errorf("index: sidecar length %d != vector row count %d", len(meta), len(onDisk.Vectors))
	}

	return &VectorIndex{dim: onDisk.Dim, vectors: onDisk.Vectors, meta: meta}, nil
}

// Save persists the index and its sidecar under dir, creating it if needed.
func (v *VectorIndex) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("index: create dir: %w", err)
	}

	onDisk := onDiskVector{Dim: v.dim, Vectors: v.vectors}
	raw, err := json.Marshal(onDisk)
	if err != nil {
		return fmt.Errorf("index: encode vector file: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, vectorFile), raw, 0o644); err != nil {
		return fmt.Errorf("index: write vector file: %w", err)
	}

	rawMeta, err := json.Marshal(v.meta)
	if err != nil {
		return fmt.Errorf("index: encode meta sidecar: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metaFile), rawMeta, 0o644); err != nil {
		return fmt.Errorf("index: write meta sidecar: %w", err)
	}
	return nil
}
