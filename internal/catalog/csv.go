package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// csvHeader is the fixed column order of the catalog CSV. Row order in the
// file is the ordinal id order used by the vector index, so the file must
// only ever be appended to between index rebuilds.
var csvHeader = []string{"name", "url", "test_types", "description", "remote_testing", "job_levels"}

// ReadCSV parses a catalog CSV stream into items, preserving row order.
// The first row must be the canonical header.
func ReadCSV(r io.Reader) ([]Item, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: read CSV header: %w", err)
	}
	for i, col := range csvHeader {
		if header[i] != col {
			return nil, fmt.Errorf("catalog: unexpected CSV column %d: got %q, want %q", i, header[i], col)
		}
	}

	var items []Item
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: read CSV row %d: %w", len(items)+1, err)
		}
		items = append(items, Item{
			Name:          rec[0],
			URL:           rec[1],
			TestTypes:     splitMulti(rec[2]),
			Description:   rec[3],
			RemoteTesting: ParseRemoteTesting(rec[4]),
			JobLevels:     splitMulti(rec[5]),
		})
	}
	return items, nil
}

// ReadCSVFile loads a catalog CSV from disk.
func ReadCSVFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// AppendCSV appends items to the catalog CSV at path, writing the header
// first if the file does not exist yet. Used by the crawler.
func AppendCSV(path string, items []Item) error {
	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("catalog: open %s for append: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if writeHeader {
		if err := cw.Write(csvHeader); err != nil {
			return fmt.Errorf("catalog: write CSV header: %w", err)
		}
	}
	for _, it := range items {
		rec := []string{
			it.Name,
			it.URL,
			joinMulti(it.TestTypes),
			it.Description,
			string(it.RemoteTesting),
			joinMulti(it.JobLevels),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("catalog: write CSV row for %s: %w", it.URL, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("catalog: flush CSV: %w", err)
	}
	return nil
}
