package callgraph

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/stackdepth/pkg/diag"
)

type ignoreSet map[[2]string]bool

func (s ignoreSet) Has(caller, callee string) bool { return s[[2]string{caller, callee}] }

const mainDump = `main/0 (main)
  Type: function definition analyzed
  Visibility: externally_visible public
  Called by:
  Calls: sensor_read/3 log.part.0/4 sensor_read/3 printf/9
sensor_read/3 (sensor_read)
  Type: function definition analyzed
  Called by: main/0
  Calls: crc8/5
log.part.0/4 (log.part.0)
  Called by: main/0
  Calls: log.part.0/4
crc8/5 (crc8)
  Called by: sensor_read/3
`

func build(t *testing.T, ignore Ignorer, dumps ...string) (*Result, *diag.Warnings) {
	t.Helper()
	b := NewBuilder(ignore, []string{"build"})
	for _, d := range dumps {
		fs, err := Scan(strings.NewReader(d))
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		b.Add(fs)
	}
	w := diag.New()
	return b.Build(w), w
}

func TestBuildNormalizesAndDeduplicates(t *testing.T) {
	res, w := build(t, nil, mainDump)

	want := []Edge{
		{"main", "sensor_read"},
		{"main", "log"},
		{"sensor_read", "crc8"},
		{"log", "log"},
	}
	if diff := cmp.Diff(want, res.Graph.Edges()); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Unresolved{{Caller: "main", Ref: "printf/9"}}, res.Unresolved); diff != "" {
		t.Errorf("unresolved mismatch (-want +got):\n%s", diff)
	}
	if res.Files != 1 || res.Symbols != 4 {
		t.Errorf("Files, Symbols = %d, %d, want 1, 4", res.Files, res.Symbols)
	}
	if w.Len() != 0 {
		t.Errorf("unexpected warnings: %v", w.All())
	}
}

func TestBuildIgnoreSetExcludesEdges(t *testing.T) {
	res, _ := build(t, ignoreSet{{"main", "log"}: true}, mainDump)

	if res.Graph.HasEdge("main", "log") {
		t.Error("ignored edge main->log present in graph")
	}
	if !res.Graph.HasEdge("main", "sensor_read") {
		t.Error("edge main->sensor_read missing")
	}
}

func TestScanBackToBackDefinitionsDropFirstCaller(t *testing.T) {
	dump := `a/1 (a)
b/2 (b)
  Calls: c/3
c/3 (c)
`
	res, _ := build(t, nil, dump)
	if res.Graph.HasCaller("a") {
		t.Errorf("a should have no callees, got %v", res.Graph.Callees("a"))
	}
	if diff := cmp.Diff([]string{"c"}, res.Graph.Callees("b")); diff != "" {
		t.Errorf("b callees mismatch (-want +got):\n%s", diff)
	}
}

func TestScanCallsLineAttachesOnce(t *testing.T) {
	dump := `a/1 (a)
  Calls: b/2
  Calls: c/3
b/2 (b)
c/3 (c)
`
	res, _ := build(t, nil, dump)
	if diff := cmp.Diff([]string{"b"}, res.Graph.Callees("a")); diff != "" {
		t.Errorf("a callees mismatch (-want +got):\n%s", diff)
	}
}

func TestScanContextDoesNotCrossInputs(t *testing.T) {
	res, _ := build(t, nil, "a/1 (a)\n", "  Calls: b/2\nb/2 (b)\n")
	if res.Graph.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", res.Graph.EdgeCount())
	}
}

func TestBuildResolvesAcrossInputs(t *testing.T) {
	res, _ := build(t, nil,
		"app/1 (app)\n  Calls: drv_init/8\n",
		"drv_init/8 (drv_init.constprop.0)\n  Calls:\n",
	)
	if diff := cmp.Diff([]string{"drv_init"}, res.Graph.Callees("app")); diff != "" {
		t.Errorf("app callees mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDeterministic(t *testing.T) {
	first, _ := build(t, nil, mainDump)
	second, _ := build(t, nil, mainDump)
	if diff := cmp.Diff(first.Graph.Edges(), second.Graph.Edges()); diff != "" {
		t.Errorf("graphs differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Graph.Callers(), second.Graph.Callers()); diff != "" {
		t.Errorf("caller order differs (-first +second):\n%s", diff)
	}
}

func TestBuildNoInputsDefersWarning(t *testing.T) {
	res, w := build(t, nil)
	if res.Graph.Len() != 0 {
		t.Errorf("Len() = %d, want 0", res.Graph.Len())
	}
	deferred := w.ByTier(diag.TierDeferred)
	if len(deferred) != 1 {
		t.Fatalf("deferred warnings = %d, want 1", len(deferred))
	}
	if !strings.Contains(deferred[0].Message, "-fdump-ipa-cgraph") {
		t.Errorf("warning %q should mention -fdump-ipa-cgraph", deferred[0].Message)
	}
}

func TestOverlayCallees(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("a", "c")
	o := Overlay{}
	o.Add("a", "c")
	o.Add("a", "d")
	o.Add("a", "d")
	o.Add("x", "y")

	if diff := cmp.Diff([]string{"b", "c", "d"}, o.Callees(g, "a")); diff != "" {
		t.Errorf("combined callees mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"y"}, o.Callees(g, "x")); diff != "" {
		t.Errorf("overlay-only callees mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "c"}, g.Callees("a")); diff != "" {
		t.Errorf("base graph modified (-want +got):\n%s", diff)
	}
	if g.HasCaller("x") {
		t.Error("overlay leaked into base graph")
	}
}

func TestGraphFunctions(t *testing.T) {
	g := New()
	g.AddEdge("main", "b")
	g.AddEdge("main", "a")
	if diff := cmp.Diff([]string{"a", "b", "main"}, g.Functions()); diff != "" {
		t.Errorf("Functions() mismatch (-want +got):\n%s", diff)
	}
	if g.AddEdge("main", "a") {
		t.Error("duplicate AddEdge() reported new")
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
}
