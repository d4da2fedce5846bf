package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hireloop/asmrec-go/internal/catalog"
)

// Write freezes an index into dir: manifest.json, vectors.f32, and
// items.jsonl. vectors must be parallel to items and every vector must have
// the same dimension. The directory is written via a temp directory and
// renamed into place so a crashed build never leaves a loadable half-index.
func Write(dir, model string, items []catalog.Item, vectors [][]float32) error {
	if len(items) != len(vectors) {
		return fmt.Errorf("index: %d items but %d vectors", len(items), len(vectors))
	}
	if len(vectors) == 0 {
		return fmt.Errorf("index: refusing to write an empty index")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return fmt.Errorf("index: zero-dimension vectors")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("index: vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	tmp, err := os.MkdirTemp(filepath.Dir(dir), ".index-build-*")
	if err != nil {
		return fmt.Errorf("index: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	m := Manifest{
		Version:   FormatVersion,
		Dim:       dim,
		Count:     len(items),
		Model:     model,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("index: marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, ManifestFile), raw, 0o644); err != nil {
		return fmt.Errorf("index: write manifest: %w", err)
	}

	vf, err := os.Create(filepath.Join(tmp, VectorsFile))
	if err != nil {
		return fmt.Errorf("index: create vectors file: %w", err)
	}
	for i, v := range vectors {
		if err := binary.Write(vf, binary.LittleEndian, v); err != nil {
			vf.Close()
			return fmt.Errorf("index: write vector %d: %w", i, err)
		}
	}
	if err := vf.Close(); err != nil {
		return fmt.Errorf("index: close vectors file: %w", err)
	}

	itf, err := os.Create(filepath.Join(tmp, ItemsFile))
	if err != nil {
		return fmt.Errorf("index: create items file: %w", err)
	}
	if err := catalog.WriteJSONL(itf, items); err != nil {
		itf.Close()
		return err
	}
	if err := itf.Close(); err != nil {
		return fmt.Errorf("index: close items file: %w", err)
	}

	// Replace any previous index atomically-enough for a local build tool.
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("index: remove old index dir: %w", err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		return fmt.Errorf("index: move index into place: %w", err)
	}
	return nil
}
