// Package index implements the immutable flat vector index the retrieval
// core searches at request time. An index is a directory of three frozen
// artifacts written together at build time:
//
//	manifest.json — dimension, entry count, embedding model, format version
//	vectors.f32   — count×dim little-endian float32 vectors, ordinal order
//	items.jsonl   — the ordinal-to-metadata mapping (see internal/catalog)
//
// All three must agree on count; Load verifies this and fails rather than
// serve against misaligned artifacts. After Load the index is read-only and
// safe for unlimited concurrent searches.
package index

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/hireloop/asmrec-go/internal/catalog"
)

// Artifact file names within an index directory.
const (
	ManifestFile = "manifest.json"
	VectorsFile  = "vectors.f32"
	ItemsFile    = "items.jsonl"
)

// FormatVersion is the artifact format version this package reads and writes.
const FormatVersion = 1

// NoMatchID is the sentinel ordinal meaning "no match at this rank".
// Searches never surface it; consumers that receive candidates from other
// index implementations must filter it before joining against the catalog.
const NoMatchID = -1

// ErrLoad wraps every artifact load failure. Loading is fatal at startup:
// the process must not serve requests against a partially loaded index.
var ErrLoad = errors.New("index: load failed")

// Manifest describes an index directory and how to interpret its vectors.
type Manifest struct {
	// Version is the artifact format version.
	Version int `json:"version"`
	// Dim is the embedding dimension of every stored vector.
	Dim int `json:"dim"`
	// Count is the number of entries; must equal the item count.
	Count int `json:"count"`
	// Model is the embedding model the vectors were built with. Queries
	// must be embedded with the same model or distances are meaningless.
	Model string `json:"model"`
	// CreatedAt is the RFC3339 build timestamp.
	CreatedAt string `json:"created_at"`
}

// Candidate is one nearest-neighbor search result: an ordinal id and its
// squared L2 distance to the query vector.
type Candidate struct {
	// ID is the ordinal id of the matched entry.
	ID int
	// Distance is the squared L2 distance (≥ 0, smaller is closer).
	Distance float64
}

// Index is a loaded flat vector index. Immutable after Load.
type Index struct {
	manifest Manifest
	// vectors holds all entries contiguously: entry i occupies
	// vectors[i*dim : (i+1)*dim].
	vectors []float32
	items   *catalog.Store
}

// Load reads and verifies an index directory. Any missing, malformed, or
// mutually inconsistent artifact yields an error wrapping ErrLoad.
func Load(dir string) (*Index, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest: %v", ErrLoad, err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: parse manifest: %v", ErrLoad, err)
	}
	if m.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d (want %d)", ErrLoad, m.Version, FormatVersion)
	}
	if m.Dim <= 0 || m.Count < 0 {
		return nil, fmt.Errorf("%w: invalid manifest dim=%d count=%d", ErrLoad, m.Dim, m.Count)
	}

	items, err := catalog.LoadJSONL(filepath.Join(dir, ItemsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if items.Len() != m.Count {
		return nil, fmt.Errorf("%w: item count %d disagrees with manifest count %d", ErrLoad, items.Len(), m.Count)
	}

	vectors, err := loadVectors(filepath.Join(dir, VectorsFile), m.Count, m.Dim)
	if err != nil {
		return nil, err
	}

	return &Index{manifest: m, vectors: vectors, items: items}, nil
}

// loadVectors reads the raw little-endian float32 vector file, verifying its
// size matches count×dim exactly.
func loadVectors(path string, count, dim int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open vectors: %v", ErrLoad, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat vectors: %v", ErrLoad, err)
	}
	expected := int64(count) * int64(dim) * 4
	if st.Size() != expected {
		return nil, fmt.Errorf("%w: vector file size %d, want %d (count=%d dim=%d)", ErrLoad, st.Size(), expected, count, dim)
	}

	out := make([]float32, count*dim)
	if err := binary.Read(io.LimitReader(f, expected), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("%w: read vectors: %v", ErrLoad, err)
	}
	return out, nil
}

// Manifest returns a copy of the loaded manifest.
func (ix *Index) Manifest() Manifest { return ix.manifest }

// Dim returns the embedding dimension of the index.
func (ix *Index) Dim() int { return ix.manifest.Dim }

// Len returns the number of entries in the index.
func (ix *Index) Len() int { return ix.manifest.Count }

// Items returns the ordinal-aligned catalog store loaded with this index.
func (ix *Index) Items() *catalog.Store { return ix.items }

// Search returns the k entries nearest to vec by squared L2 distance,
// ascending. If fewer than k entries exist, all entries are returned.
// The query dimension must match the index dimension.
func (ix *Index) Search(vec []float32, k int) ([]Candidate, error) {
	if len(vec) != ix.manifest.Dim {
		return nil, fmt.Errorf("index: query dimension %d does not match index dimension %d", len(vec), ix.manifest.Dim)
	}
	if k < 1 {
		return nil, fmt.Errorf("index: k must be >= 1, got %d", k)
	}

	n := ix.manifest.Count
	dim := ix.manifest.Dim
	cands := make([]Candidate, n)
	for i := 0; i < n; i++ {
		row := ix.vectors[i*dim : (i+1)*dim]
		var d float64
		for j, q := range vec {
			diff := float64(q) - float64(row[j])
			d += diff * diff
		}
		cands[i] = Candidate{ID: i, Distance: d}
	}

	// Stable on distance so equal-distance entries keep ordinal order and
	// identical queries always produce identical rankings.
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].Distance < cands[b].Distance })

	if k > n {
		k = n
	}
	return cands[:k], nil
}
