package store

import (
	"context"
	"testing"
	"time"
)

// openTestStore opens an in-memory SQLiteStore for use in tests.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_Store_AppendAndRecent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	rec := Record{
		Query:        "entry-level accounting assessment",
		RefinedQuery: "Finance Graduate accounting remote testing",
		K:            5,
		ResultURLs:   []string{"https://example.com/a", "https://example.com/b"},
		Refined:      true,
	}
	if err := s.Append(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 record, got %d", len(got))
	}
	r := got[0]
	if r.Query != rec.Query || r.RefinedQuery != rec.RefinedQuery || r.K != rec.K {
		t.Errorf("record mismatch: got %+v", r)
	}
	if !r.Refined {
		t.Error("refined flag lost")
	}
	if len(r.ResultURLs) != 2 || r.ResultURLs[0] != "https://example.com/a" {
		t.Errorf("result urls mismatch: %v", r.ResultURLs)
	}
	if r.CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}
}

func Test_Store_RecentNewestFirst(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, q := range []string{"first", "second", "third"} {
		rec := Record{Query: q, K: 5, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("append %q: %v", q, err)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	want := []string{"third", "second", "first"}
	if len(got) != len(want) {
		t.Fatalf("want %d records, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Query != w {
			t.Errorf("record[%d]: want %q, got %q", i, w, got[i].Query)
		}
	}
}

func Test_Store_RecentLimitRespected(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for range 6 {
		if err := s.Append(ctx, Record{Query: "q", K: 3}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.Recent(ctx, 4)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("want 4 records, got %d", len(got))
	}
}

func Test_Store_EmptyHistoryReturnsNil(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	got, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("want 0 records, got %d", len(got))
	}
}

func Test_Store_EmptyResultURLsRoundTrip(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, Record{Query: "no hits", K: 5}); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := s.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 record, got %d", len(got))
	}
	if len(got[0].ResultURLs) != 0 {
		t.Errorf("want no urls, got %v", got[0].ResultURLs)
	}
}
