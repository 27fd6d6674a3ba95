package dates_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"goodmorning/internal/dates"
	"goodmorning/internal/testsupport"
)

func TestWithin(t *testing.T) {
	now := time.Date(2025, time.December, 20, 9, 30, 0, 0, time.Local)
	entries := []dates.Entry{
		{Name: "Today", Date: "12/20"},
		{Name: "New Year", Date: "01/01", Notes: "party"},
		{Name: "Wedding", Date: "02/14", AnniversaryYear: 2015},
		{Name: "Far away", Date: "06/01"},
		{Name: "Passed", Date: "12/19"},
		{Name: "Trip", Date: "2026/01/10"},
		{Name: "Old trip", Date: "2024/12/25"},
	}
	got, err := dates.Within(entries, now, 90)
	if err != nil {
		t.Fatalf("Within: %v", err)
	}
	type row struct {
		Name  string
		Days  int
		Date  string
		Notes string
	}
	var rows []row
	for _, u := range got {
		rows = append(rows, row{u.Name, u.DaysAway, dates.FormatDate(u.Date), u.Notes})
	}
	want := []row{
		{"Today", 0, "Sat, Dec 20", ""},
		{"New Year", 12, "Thu, Jan 1", "party"},
		{"Trip", 21, "Sat, Jan 10", ""},
		{"Wedding", 56, "Sat, Feb 14", "11 year anniversary"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("unexpected upcoming dates (-want +got):\n%s", diff)
	}
}

func TestWithinRejectsBadFormat(t *testing.T) {
	_, err := dates.Within([]dates.Entry{{Name: "x", Date: "12-20"}}, time.Now(), 90)
	if err == nil {
		t.Fatal("expected format error")
	}
}

func TestLoadTOMLAndYAML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := testsupport.WriteContent(t, filepath.Join(dir, "dates.toml"), []byte(`
[[date]]
name = "Mom's birthday"
date = "03/04"
anniversary_year = 1960
`))
	yamlPath := testsupport.WriteContent(t, filepath.Join(dir, "dates.yaml"), []byte(`
date:
  - name: Dentist
    date: 2026/02/01
    notes: bring forms
`))
	fromTOML, err := dates.Load(tomlPath)
	if err != nil {
		t.Fatalf("Load toml: %v", err)
	}
	fromYAML, err := dates.Load(yamlPath)
	if err != nil {
		t.Fatalf("Load yaml: %v", err)
	}
	if fromTOML[0].AnniversaryYear != 1960 || fromYAML[0].Notes != "bring forms" {
		t.Fatalf("unexpected entries: %+v %+v", fromTOML, fromYAML)
	}

	bad := testsupport.WriteContent(t, filepath.Join(dir, "bad.toml"), []byte(`
[[date]]
name = ""
date = "13/40"
`))
	if _, err := dates.Load(bad); err == nil {
		t.Fatal("expected validation errors")
	}
}
