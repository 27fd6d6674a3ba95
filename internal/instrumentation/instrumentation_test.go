package instrumentation_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"goodmorning/internal/instrumentation"
	"goodmorning/internal/testsupport"
)

const sampleReport = `{
  "nodes": [
    {"id": 1, "label": {"name": "Babel: app"}, "children": [2], "stats": {"time": {"self": 3000000000},
      "fs": {"readFileSync": {"count": 10, "time": 500000000}}}},
    {"id": 2, "label": {"name": "applyPatches"}, "children": [], "stats": {"time": {"self": 1000000000},
      "async-disk-cache": {"get": {"count": 2, "time": 250000000}}}},
    {"id": 3, "label": {"name": "EyeglassCompiler"}, "children": [4], "stats": {"time": {"self": 2000000000},
      "fs": {"readFileSync": {"count": 5, "time": 1500000000}}}},
    {"id": 4, "label": {"name": "applyPatches"}, "children": [], "stats": {"time": {"self": 1000000000}}},
    {"id": 5, "label": {"name": "Babel: app"}, "children": [], "stats": {"time": {"self": 1000000000}}},
    {"id": 6, "label": {"name": "Funnel"}, "children": []}
  ]
}`

var approx = cmpopts.EquateApprox(0, 1e-9)

func loadSample(t *testing.T) *instrumentation.Report {
	t.Helper()
	path := testsupport.WriteContent(t, filepath.Join(t.TempDir(), "instrumentation.build.json"), []byte(sampleReport))
	report, err := instrumentation.ReadReport(path)
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}
	return report
}

func TestSelfTime(t *testing.T) {
	result := instrumentation.SelfTime(loadSample(t))
	if result.TotalSeconds != 8 {
		t.Fatalf("unexpected total %v", result.TotalSeconds)
	}
	want := []instrumentation.SelfTimeStat{
		{ID: "Babel: app", SelfTime: 4, Calls: 2, Percent: 50},
		{ID: "EyeglassCompiler", SelfTime: 2, Calls: 1, Percent: 25},
		{ID: "applyPatches: Babel: app", SelfTime: 1, Calls: 1, Percent: 12.5},
		{ID: "applyPatches: EyeglassCompiler", SelfTime: 1, Calls: 1, Percent: 12.5},
		{ID: "Funnel", SelfTime: 0, Calls: 1, Percent: 0},
	}
	if diff := cmp.Diff(want, result.Stats, approx); diff != "" {
		t.Fatalf("unexpected self time (-want +got):\n%s", diff)
	}

	var sum float64
	for _, stat := range result.Stats {
		sum += stat.SelfTime
	}
	if math.Abs(sum-result.TotalSeconds) > 1e-9 {
		t.Fatalf("self times sum to %v, total %v", sum, result.TotalSeconds)
	}
}

func TestCategorizePrecedence(t *testing.T) {
	cases := map[string]string{
		"Babel: templateCompiler":        "babel",
		"TemplateCompiler":               "templateCompiler",
		"EyeglassCompiler":               "eyeglass",
		"cleanup":                        "cleanup",
		"command":                        "command",
		"applyPatches: EyeglassCompiler": "eyeglass",
		"derivePatches: Funnel":          "patch",
		"Funnel":                         "other",
	}
	for id, want := range cases {
		if got := instrumentation.Categorize(id); got != want {
			t.Errorf("Categorize(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestCombinePercentagesSumToConstituents(t *testing.T) {
	stats := instrumentation.SelfTime(loadSample(t)).Stats
	combined := instrumentation.Combine(stats)
	if len(combined) != 7 {
		t.Fatalf("expected all seven categories, got %d", len(combined))
	}
	if combined[0].ID != "babel" || combined[0].Time != 5 || combined[0].Calls != 3 {
		t.Fatalf("unexpected top category %+v", combined[0])
	}
	var total float64
	for _, c := range combined {
		total += c.Percent
	}
	if math.Abs(total-100) > 1e-9 {
		t.Fatalf("combined percentages sum to %v", total)
	}
}

func TestFSTime(t *testing.T) {
	stats, missing := instrumentation.FSTime(loadSample(t))
	want := []instrumentation.FSStat{
		{Name: "fs - readFileSync", Count: 15, Time: 2},
		{Name: "async-disk-cache - get", Count: 2, Time: 0.25},
	}
	if diff := cmp.Diff(want, stats, approx); diff != "" {
		t.Fatalf("unexpected fs stats (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Funnel"}, missing); diff != "" {
		t.Fatalf("unexpected missing (-want +got):\n%s", diff)
	}
}

func TestDiffWithRewrites(t *testing.T) {
	rewrites := []instrumentation.Rewrite{
		{Placeholder: instrumentation.BuildDirPlaceholder, Before: "/src/before", After: "/src/after"},
	}
	selfBefore := []instrumentation.SelfTimeStat{
		{ID: "Babel: /src/before/app", SelfTime: 4, Calls: 2, Percent: 40},
		{ID: "Removed", SelfTime: 1, Calls: 1, Percent: 10},
	}
	selfAfter := []instrumentation.SelfTimeStat{
		{ID: "Babel: /src/after/app", SelfTime: 3, Calls: 2, Percent: 30},
		{ID: "New", SelfTime: 2, Calls: 1, Percent: 20},
	}
	combinedBefore := []instrumentation.CombinedStat{{ID: "babel", Time: 4, Calls: 2, Percent: 40}}
	combinedAfter := []instrumentation.CombinedStat{{ID: "babel", Time: 3, Calls: 2, Percent: 30}}

	result := instrumentation.Diff(combinedBefore, combinedAfter, selfBefore, selfAfter, rewrites)

	wantChanged := []instrumentation.SelfTimeDelta{{
		ID: "Babel: <build-dir>/app", SelfTime: -1, Calls: 0, Percent: -10,
		OriginalSelfTime: 4, NewSelfTime: 3,
	}}
	if diff := cmp.Diff(wantChanged, result.Changed, approx); diff != "" {
		t.Fatalf("unexpected changes (-want +got):\n%s", diff)
	}
	if len(result.Gone) != 1 || result.Gone[0].ID != "Removed" {
		t.Fatalf("unexpected gone %+v", result.Gone)
	}
	if len(result.Added) != 1 || result.Added[0].ID != "New" {
		t.Fatalf("unexpected added %+v", result.Added)
	}
	if result.Combined[0].Time != -1 || result.Combined[0].Percent != -10 {
		t.Fatalf("unexpected combined diff %+v", result.Combined)
	}
}

func TestWriteSelfTimeAndDiffFiles(t *testing.T) {
	dir := t.TempDir()
	first := testsupport.WriteContent(t, filepath.Join(dir, "instrumentation.1.json"), []byte(sampleReport))
	second := testsupport.WriteContent(t, filepath.Join(dir, "instrumentation.2.json"), []byte(sampleReport))
	for _, input := range []string{first, second} {
		if _, err := instrumentation.WriteSelfTime(input); err != nil {
			t.Fatalf("WriteSelfTime(%s): %v", input, err)
		}
	}
	if _, _, err := instrumentation.WriteFSTime(first); err != nil {
		t.Fatalf("WriteFSTime: %v", err)
	}

	outDir := filepath.Join(dir, "diff")
	result, err := instrumentation.DiffFiles(first, second, outDir, nil)
	if err != nil {
		t.Fatalf("DiffFiles: %v", err)
	}
	if len(result.Gone) != 0 || len(result.Added) != 0 || len(result.Changed) != 5 {
		t.Fatalf("identical builds should only produce zero deltas: %+v", result)
	}
	for _, name := range []string{"combined-diff.json", "selftime-diff.json", "selftime-gone.json", "selftime-added.json"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(first + "-fs-stats.json"); err != nil {
		t.Fatalf("expected fs stats output: %v", err)
	}
}
