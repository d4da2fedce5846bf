package catalog

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func Test_ParseRemoteTesting(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want RemoteTesting
	}{
		{"Yes", RemoteYes},
		{"yes", RemoteYes},
		{"true", RemoteYes},
		{"No", RemoteNo},
		{"false", RemoteNo},
		{"", RemoteUnknown},
		{"maybe", RemoteUnknown},
		{"  Yes  ", RemoteYes},
	}
	for _, tc := range cases {
		if got := ParseRemoteTesting(tc.in); got != tc.want {
			t.Errorf("ParseRemoteTesting(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func Test_ReadCSV_CanonicalisesMultiValueFields(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"name,url,test_types,description,remote_testing,job_levels",
		`Verify Numerical,https://example.com/verify-numerical,K|A,Numerical reasoning test,Yes,Graduate|Entry-Level`,
		`Account Manager Solution,https://example.com/account-manager,C,Sales focused assessment,No,Mid-Professional`,
	}, "\n")

	items, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 items, got %d", len(items))
	}

	first := items[0]
	if got, want := len(first.TestTypes), 2; got != want {
		t.Errorf("test_types length: got %d, want %d", got, want)
	}
	if first.TestTypes[0] != "K" || first.TestTypes[1] != "A" {
		t.Errorf("test_types order not preserved: %v", first.TestTypes)
	}
	if first.RemoteTesting != RemoteYes {
		t.Errorf("remote_testing: got %q, want Yes", first.RemoteTesting)
	}

	// A single-value test_types column must still become a singleton slice.
	second := items[1]
	if len(second.TestTypes) != 1 || second.TestTypes[0] != "C" {
		t.Errorf("single test_type not canonicalised to singleton slice: %v", second.TestTypes)
	}
	if len(second.JobLevels) != 1 || second.JobLevels[0] != "Mid-Professional" {
		t.Errorf("single job_level not canonicalised: %v", second.JobLevels)
	}
}

func Test_ReadCSV_RejectsWrongHeader(t *testing.T) {
	t.Parallel()

	in := "product,link,types,desc,remote,levels\na,b,c,d,e,f\n"
	if _, err := ReadCSV(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for wrong header, got nil")
	}
}

func Test_AppendCSV_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "products.csv")
	items := []Item{
		{
			Name:          "OPQ32",
			URL:           "https://example.com/opq32",
			TestTypes:     []string{"P"},
			Description:   "Personality questionnaire",
			RemoteTesting: RemoteYes,
			JobLevels:     []string{"Manager", "Executive"},
		},
	}

	// Two appends: the second must not repeat the header.
	if err := AppendCSV(path, items); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := AppendCSV(path, items); err != nil {
		t.Fatalf("second append: %v", err)
	}

	got, err := ReadCSVFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows after two appends, got %d", len(got))
	}
	if got[1].Name != "OPQ32" || got[1].JobLevels[1] != "Executive" {
		t.Errorf("round-trip mismatch: %+v", got[1])
	}
}

func Test_Store_At_BoundsChecked(t *testing.T) {
	t.Parallel()

	s := NewStore([]Item{{Name: "a"}, {Name: "b"}})

	if _, err := s.At(1); err != nil {
		t.Errorf("At(1): unexpected error %v", err)
	}
	for _, id := range []int{-1, 2, 100} {
		_, err := s.At(id)
		if !errors.Is(err, ErrOrdinalOutOfRange) {
			t.Errorf("At(%d): want ErrOrdinalOutOfRange, got %v", id, err)
		}
	}
}

func Test_JSONL_RoundTrip(t *testing.T) {
	t.Parallel()

	items := []Item{
		{Name: "a", URL: "https://example.com/a", TestTypes: []string{"K", "P"}, RemoteTesting: RemoteYes},
		{Name: "b", URL: "https://example.com/b", RemoteTesting: RemoteUnknown, JobLevels: []string{"Graduate"}},
	}

	var buf bytes.Buffer
	if err := WriteJSONL(&buf, items); err != nil {
		t.Fatalf("WriteJSONL: %v", err)
	}
	got, err := ReadJSONL(&buf)
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 items, got %d", len(got))
	}
	if got[0].TestTypes[1] != "P" || got[1].JobLevels[0] != "Graduate" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func Test_EmbedText_IncludesRemoteOnlyWhenYes(t *testing.T) {
	t.Parallel()

	yes := Item{Name: "a", Description: "d", RemoteTesting: RemoteYes}
	no := Item{Name: "a", Description: "d", RemoteTesting: RemoteNo}

	if !strings.Contains(yes.EmbedText(), "remote testing available") {
		t.Error("EmbedText for RemoteYes should mention remote testing")
	}
	if strings.Contains(no.EmbedText(), "remote testing") {
		t.Error("EmbedText for RemoteNo should not mention remote testing")
	}
}
