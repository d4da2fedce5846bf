package catalog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrOrdinalOutOfRange is returned by Store.At when an ordinal id falls
// outside the loaded catalog. It indicates the vector index and the catalog
// mapping are out of sync — callers must treat it as fatal for the request,
// never as an empty result.
var ErrOrdinalOutOfRange = errors.New("catalog: ordinal id out of range")

// Store is an immutable ordinal-indexed view over catalog items, aligned 1:1
// with the vector index entries. It is constructed once at startup and is
// safe for unlimited concurrent reads.
type Store struct {
	items []Item
}

// NewStore wraps items in a Store. The slice is retained, not copied;
// callers must not mutate it afterwards.
func NewStore(items []Item) *Store {
	return &Store{items: items}
}

// Len returns the number of items in the store.
func (s *Store) Len() int { return len(s.items) }

// At returns the item at the given ordinal id. Ids outside [0, Len) return
// ErrOrdinalOutOfRange.
func (s *Store) At(id int) (Item, error) {
	if id < 0 || id >= len(s.items) {
		return Item{}, fmt.Errorf("%w: id %d, catalog size %d", ErrOrdinalOutOfRange, id, len(s.items))
	}
	return s.items[id], nil
}

// ReadJSONL parses the ordinal-to-metadata mapping artifact: one JSON item
// per line, line order = ordinal id order.
func ReadJSONL(r io.Reader) ([]Item, error) {
	var items []Item
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var it Item
		if err := json.Unmarshal(line, &it); err != nil {
			return nil, fmt.Errorf("catalog: invalid JSONL at item %d: %w", len(items), err)
		}
		items = append(items, it)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("catalog: read JSONL: %w", err)
	}
	return items, nil
}

// LoadJSONL reads the mapping artifact from disk into a Store.
func LoadJSONL(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()

	items, err := ReadJSONL(f)
	if err != nil {
		return nil, err
	}
	return NewStore(items), nil
}

// WriteJSONL writes items as the ordinal mapping artifact, one JSON object
// per line in ordinal order. Used by the index builder.
func WriteJSONL(w io.Writer, items []Item) error {
	enc := json.NewEncoder(w)
	for i, it := range items {
		if err := enc.Encode(it); err != nil {
			return fmt.Errorf("catalog: write JSONL item %d: %w", i, err)
		}
	}
	return nil
}
