package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/stackdepth/pkg/annotation"
	"github.com/matzehuels/stackdepth/pkg/callgraph"
	"github.com/matzehuels/stackdepth/pkg/diag"
	"github.com/matzehuels/stackdepth/pkg/errors"
)

type sizes map[string]int

func (s sizes) FrameSize(name string) int { return s[name] }

func engine() *Engine {
	g := callgraph.New()
	g.AddEdge("main", "init")
	g.AddEdge("uart_isr", "ack")
	return &Engine{
		Graph: g,
		Sizes: sizes{"main": 32, "init": 16, "uart_isr": 8, "ack": 4, "on_rx": 128, "work": 64},
	}
}

func TestRunBaseScenario(t *testing.T) {
	rep, err := engine().Run(context.Background(), []Scenario{Base()}, []string{"uart_isr", "main"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rep.Scenarios) != 1 {
		t.Fatalf("scenarios = %d, want 1", len(rep.Scenarios))
	}
	got := rep.Overall
	if got.Label != BaseLabel || got.Entry != "main" || got.Result.Total != 48 {
		t.Errorf("Overall = %+v, want %s/main/48", got, BaseLabel)
	}
	var order []string
	for _, e := range got.Entries {
		order = append(order, e.Entry)
	}
	if diff := cmp.Diff([]string{"main", "uart_isr"}, order); diff != "" {
		t.Errorf("entries not sorted (-want +got):\n%s", diff)
	}
}

func TestRunScenarioIsolation(t *testing.T) {
	e := engine()
	scenarios := []Scenario{
		{Label: "rx.txt", Additions: annotation.NewSet(annotation.Pair{Caller: "uart_isr", Callee: "on_rx"})},
		{Label: "work.txt", Additions: annotation.NewSet(annotation.Pair{Caller: "main", Callee: "work"})},
	}
	rep, err := e.Run(context.Background(), scenarios, []string{"main", "uart_isr"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	rx, _ := rep.Find("rx.txt")
	if rx.Entry != "uart_isr" || rx.Result.Total != 136 {
		t.Errorf("rx.txt = %s/%d, want uart_isr/136", rx.Entry, rx.Result.Total)
	}
	work, _ := rep.Find("work.txt")
	if work.Entry != "main" || work.Result.Total != 96 {
		t.Errorf("work.txt = %s/%d, want main/96", work.Entry, work.Result.Total)
	}
	for _, er := range work.Entries {
		if er.Entry == "uart_isr" && er.Result.Total != 12 {
			t.Errorf("rx.txt edges leaked into work.txt: uart_isr = %d", er.Result.Total)
		}
	}
	if rep.Overall.Label != "rx.txt" {
		t.Errorf("Overall.Label = %q, want rx.txt", rep.Overall.Label)
	}
	if e.Graph.HasEdge("uart_isr", "on_rx") || e.Graph.HasEdge("main", "work") {
		t.Error("scenario edges leaked into base graph")
	}
}

func TestRunUnboundedWins(t *testing.T) {
	scenarios := []Scenario{
		{Label: "big.txt", Additions: annotation.NewSet(annotation.Pair{Caller: "main", Callee: "on_rx"})},
		{Label: "loop.txt", Additions: annotation.NewSet(annotation.Pair{Caller: "ack", Callee: "uart_isr"})},
	}
	rep, err := engine().Run(context.Background(), scenarios, []string{"main", "uart_isr"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Overall.Label != "loop.txt" || !rep.Overall.Result.Unbounded {
		t.Errorf("Overall = %+v, want unbounded loop.txt", rep.Overall)
	}
	if diff := cmp.Diff([]string{"uart_isr", "ack", "uart_isr"}, rep.Overall.Result.Cycle); diff != "" {
		t.Errorf("cycle mismatch (-want +got):\n%s", diff)
	}
}

func TestRunNothingBeatsZero(t *testing.T) {
	e := &Engine{Graph: callgraph.New(), Sizes: sizes{}}
	rep, err := e.Run(context.Background(), []Scenario{Base()}, []string{"main"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Overall.Label != NoneLabel || len(rep.Overall.Result.Path) != 0 {
		t.Errorf("Overall = %+v, want %q with no path", rep.Overall, NoneLabel)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine().Run(ctx, []Scenario{Base()}, []string{"main"}); err == nil {
		t.Error("Run() with canceled context succeeded")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "callbacks.txt")
	if err := os.WriteFile(path, []byte("uart_isr,on_rx\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load([]string{path}, diag.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 || got[0].Label != "callbacks.txt" || got[0].Additions.Len() != 1 {
		t.Errorf("Load() = %+v", got)
	}

	base, _ := Load(nil, diag.New())
	if len(base) != 1 || base[0].Label != BaseLabel {
		t.Errorf("Load(nil) = %+v, want base scenario", base)
	}

	if _, err := Load([]string{filepath.Join(dir, "missing.txt")}, diag.New()); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}

func TestLabelsAreUnique(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{
			name:  "distinct base names",
			paths: []string{"stack/rx.txt", "stack/tick.txt"},
			want:  []string{"rx.txt", "tick.txt"},
		},
		{
			name:  "shared base name",
			paths: []string{"app/callbacks.txt", "bsp/callbacks.txt", "stack/rx.txt"},
			want:  []string{"app/callbacks.txt", "bsp/callbacks.txt", "rx.txt"},
		},
		{
			name:  "same file twice",
			paths: []string{"stack/rx.txt", "stack/./rx.txt"},
			want:  []string{"stack/rx.txt", "stack/rx.txt#2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, labels(tt.paths)); diff != "" {
				t.Errorf("labels mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadSharedBaseNames(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, sub := range []string{"app", "bsp"} {
		path := filepath.Join(dir, sub, "callbacks.txt")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("uart_isr,on_rx\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}

	got, err := Load(paths, diag.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 || got[0].Label == got[1].Label {
		t.Fatalf("Load() labels = %q, %q, want distinct", got[0].Label, got[1].Label)
	}

	rep, err := engine().Run(context.Background(), got, []string{"uart_isr"})
	if err != nil {
		t.Fatal(err)
	}
	if o, ok := rep.Find(got[1].Label); !ok || o.Label != got[1].Label {
		t.Errorf("Find(%q) = %+v, %v", got[1].Label, o, ok)
	}
}
