package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/stackdepth/pkg/diag"
	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/scenario"
)

const (
	mainSU = `src/main.c:10:5:main	32	static
src/main.c:20:13:init	16	static
src/main.c:30:13:orphan	8	static
this line is broken
`
	uartSU = `src/uart.c:5:6:uart_isr	8	static
src/uart.c:9:13:ack.part.0	4	static
src/uart.c:40:13:on_rx	128	static
`
	mainCGraph = `main/0 (main)
  Type: function definition analyzed
  Calls: init/1
init/1 (init)
  Calls:
`
	uartCGraph = `uart_isr/2 (uart_isr)
  Calls: ack.part.0/3
ack.part.0/3 (ack.part.0)
  Calls:
`
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"build/main.su":                 mainSU,
		"build/main.c.000i.cgraph":      mainCGraph,
		"build/uart/uart.su":            uartSU,
		"build/uart/uart.c.000i.cgraph": uartCGraph,
		"rx.txt":                        "uart_isr,on_rx\n",
		"ignore.txt":                    "main,init\n",
	})
	return dir
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    Options
		wantErr errors.Code
	}{
		{
			name:    "no directories",
			opts:    Options{},
			wantErr: errors.ErrCodeInvalidInput,
		},
		{
			name:    "vector table without elf",
			opts:    Options{SUDirs: []string{"b"}, VectorTable: "g_pfnVectors"},
			wantErr: errors.ErrCodeInvalidInput,
		},
		{
			name: "cgraph defaults to su",
			opts: Options{SUDirs: []string{"b"}},
			want: Options{SUDirs: []string{"b"}, CGraphDirs: []string{"b"}, EntryPoints: []string{"main"}},
		},
		{
			name: "su defaults to cgraph and entries normalized",
			opts: Options{CGraphDirs: []string{"c"}, EntryPoints: []string{" task.part.0", "", "task", "idle"}},
			want: Options{SUDirs: []string{"c"}, CGraphDirs: []string{"c"}, EntryPoints: []string{"task", "idle"}},
		},
		{
			name: "explicitly empty entries stay empty",
			opts: Options{SUDirs: []string{"b"}, EntryPoints: []string{""}},
			want: Options{SUDirs: []string{"b"}, CGraphDirs: []string{"b"}, EntryPoints: []string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.ValidateAndSetDefaults()
			if tt.wantErr != "" {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := []any{opts.SUDirs, opts.CGraphDirs, opts.EntryPoints}
			want := []any{tt.want.SUDirs, tt.want.CGraphDirs, tt.want.EntryPoints}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("defaults mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecute(t *testing.T) {
	dir := fixture(t)
	r := NewRunner(nil, nil, nil)

	res, err := r.Execute(context.Background(), Options{
		SUDirs:       []string{filepath.Join(dir, "build")},
		EntryPoints:  []string{"main", "uart_isr", "ghost"},
		AddCallFiles: []string{filepath.Join(dir, "rx.txt")},
		Reachability: true,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if res.RunID == "" {
		t.Error("RunID should be set")
	}
	if diff := cmp.Diff([]string{"ghost", "main", "uart_isr"}, res.EntryPoints); diff != "" {
		t.Errorf("entry points mismatch (-want +got):\n%s", diff)
	}
	if res.Stats.SUFiles != 2 || res.Stats.CGraphFiles != 2 || res.Stats.Functions != 6 {
		t.Errorf("Stats = %+v", res.Stats)
	}

	overall := res.Report.Overall
	if overall.Label != "rx.txt" || overall.Entry != "uart_isr" || overall.Result.Total != 136 {
		t.Errorf("Overall = %s/%s/%d, want rx.txt/uart_isr/136", overall.Label, overall.Entry, overall.Result.Total)
	}

	var names []string
	for _, u := range res.Uncalled {
		names = append(names, u.Name)
	}
	if diff := cmp.Diff([]string{"orphan"}, names); diff != "" {
		t.Errorf("uncalled mismatch (-want +got):\n%s", diff)
	}

	local := res.Warnings.ByTier(diag.TierLocal)
	var sawMalformed, sawGhost bool
	for _, w := range local {
		sawMalformed = sawMalformed || (strings.HasSuffix(w.Source, "main.su") && w.Line == 4)
		sawGhost = sawGhost || strings.Contains(w.Message, `"ghost"`)
	}
	if !sawMalformed || !sawGhost {
		t.Errorf("local warnings = %v, want malformed line and unknown ghost", local)
	}
}

func TestExecuteKeepsOverlayOnlyEntry(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"build/main.su":             "src/main.c:10:5:main\t8\tstatic\nsrc/tick.c:4:6:on_tick\t200\tstatic\n",
		"build/main.c.000i.cgraph": "main/0 (main)\n  Calls:\n",
		"tick.txt":                  "SysTick_Handler,on_tick\n",
	})

	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		SUDirs:       []string{filepath.Join(dir, "build")},
		EntryPoints:  []string{"main", "SysTick_Handler"},
		AddCallFiles: []string{filepath.Join(dir, "tick.txt")},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if diff := cmp.Diff([]string{"SysTick_Handler", "main"}, res.EntryPoints); diff != "" {
		t.Errorf("entry points mismatch (-want +got):\n%s", diff)
	}
	overall := res.Report.Overall
	if overall.Entry != "SysTick_Handler" || overall.Result.Total != 200 {
		t.Errorf("Overall = %s/%d, want SysTick_Handler/200", overall.Entry, overall.Result.Total)
	}
	if diff := cmp.Diff([]string{"SysTick_Handler", "on_tick"}, overall.Result.Path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
	for _, w := range res.Warnings.All() {
		if strings.Contains(w.Message, "SysTick_Handler") {
			t.Errorf("unexpected warning for entry known to a scenario: %s", w)
		}
	}
}

func TestExecuteIgnoreFile(t *testing.T) {
	dir := fixture(t)
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		SUDirs:     []string{filepath.Join(dir, "build")},
		IgnoreFile: filepath.Join(dir, "ignore.txt"),
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Graph.HasEdge("main", "init") {
		t.Error("ignored edge main->init present")
	}
	if got := res.Report.Overall.Result.Total; got != 32 {
		t.Errorf("Total = %d, want 32", got)
	}
	if res.Report.Overall.Label != scenario.BaseLabel {
		t.Errorf("Label = %q, want %q", res.Report.Overall.Label, scenario.BaseLabel)
	}
}

func TestExecuteFatalErrors(t *testing.T) {
	dir := fixture(t)
	empty := t.TempDir()
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{
			name: "no stack usage",
			opts: Options{SUDirs: []string{empty}},
			code: errors.ErrCodeNoStackUsage,
		},
		{
			name: "no entry points",
			opts: Options{SUDirs: []string{filepath.Join(dir, "build")}, EntryPoints: []string{" "}},
			code: errors.ErrCodeNoEntryPoints,
		},
		{
			name: "missing ignore file",
			opts: Options{SUDirs: []string{filepath.Join(dir, "build")}, IgnoreFile: filepath.Join(dir, "nope.txt")},
			code: errors.ErrCodeFileNotFound,
		},
		{
			name: "missing add-calls file",
			opts: Options{SUDirs: []string{filepath.Join(dir, "build")}, AddCallFiles: []string{filepath.Join(dir, "nope.txt")}},
			code: errors.ErrCodeFileNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(nil, nil, nil).Execute(context.Background(), tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExecuteNoCallGraphDefersWarning(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"su/main.su": mainSU})

	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		SUDirs:     []string{filepath.Join(dir, "su")},
		CGraphDirs: []string{filepath.Join(dir, "su")},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if n := len(res.Warnings.ByTier(diag.TierDeferred)); n != 1 {
		t.Errorf("deferred warnings = %d, want 1", n)
	}
	if got := res.Report.Overall.Result.Total; got != 32 {
		t.Errorf("Total = %d, want 32", got)
	}
}

func TestExecuteVectorTable(t *testing.T) {
	dir := fixture(t)
	orig := locateISRs
	t.Cleanup(func() { locateISRs = orig })
	locateISRs = func(path, table string, w *diag.Warnings) []string {
		return []string{"uart_isr"}
	}

	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		SUDirs:      []string{filepath.Join(dir, "build")},
		ELFFile:     filepath.Join(dir, "fw.elf"),
		VectorTable: "g_pfnVectors",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if diff := cmp.Diff([]string{"main", "uart_isr"}, res.EntryPoints); diff != "" {
		t.Errorf("entry points mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"uart_isr"}, res.ISRs); diff != "" {
		t.Errorf("ISRs mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteUsesCache(t *testing.T) {
	dir := fixture(t)
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	opts := Options{SUDirs: []string{filepath.Join(dir, "build")}}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.Hits != 0 || first.CacheInfo.Misses != 4 {
		t.Errorf("first run CacheInfo = %+v, want 0 hits, 4 misses", first.CacheInfo)
	}

	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if second.CacheInfo.Hits != 4 {
		t.Errorf("second run CacheInfo = %+v, want 4 hits", second.CacheInfo)
	}
	if diff := cmp.Diff(first.Graph.Edges(), second.Graph.Edges()); diff != "" {
		t.Errorf("cached graph differs (-first +second):\n%s", diff)
	}
	if first.Report.Overall.Result.Total != second.Report.Overall.Result.Total {
		t.Error("cached run produced a different result")
	}

	opts.Refresh = true
	third, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.Hits != 0 {
		t.Errorf("refresh run CacheInfo = %+v, want no hits", third.CacheInfo)
	}
}

func TestExecuteNullCacheEntryIsMiss(t *testing.T) {
	dir := fixture(t)
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	opts := Options{SUDirs: []string{filepath.Join(dir, "build")}}

	want, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	c.mu.Lock()
	for k := range c.data {
		c.data[k] = []byte("null")
	}
	c.mu.Unlock()

	got, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if got.CacheInfo.Hits != 0 || got.CacheInfo.Misses != 4 {
		t.Errorf("CacheInfo = %+v, want 0 hits, 4 misses", got.CacheInfo)
	}
	if got.Report.Overall.Result.Total != want.Report.Overall.Result.Total {
		t.Errorf("Total = %d, want %d", got.Report.Overall.Result.Total, want.Report.Overall.Result.Total)
	}
}
