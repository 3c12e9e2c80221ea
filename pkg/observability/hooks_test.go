package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

type countingCache struct {
	Noop
	hits int
}

func (c *countingCache) OnCacheHit(context.Context, string) { c.hits++ }

func TestSetAndReset(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	if _, ok := Pipeline().(Noop); !ok {
		t.Fatalf("Pipeline() = %T, want Noop", Pipeline())
	}

	counter := &countingCache{}
	Set(nil, counter)
	if _, ok := Pipeline().(Noop); !ok {
		t.Errorf("Set(nil, c) replaced pipeline hooks with %T", Pipeline())
	}
	Cache().OnCacheHit(context.Background(), "su")
	Cache().OnCacheHit(context.Background(), "cgraph")
	if counter.hits != 2 {
		t.Errorf("hits = %d, want 2", counter.hits)
	}

	Set(nil, nil)
	if Cache() != CacheHooks(counter) {
		t.Error("Set(nil, nil) dropped installed cache hooks")
	}

	Reset()
	if _, ok := Cache().(Noop); !ok {
		t.Errorf("after Reset Cache() = %T, want Noop", Cache())
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	h := LogHooks{Logger: logger}
	ctx := context.Background()

	h.OnParseComplete(ctx, "su", 42, time.Millisecond, nil)
	h.OnScenarioComplete(ctx, "loop.txt", 0, true)
	h.OnScenarioComplete(ctx, "rx.txt", 136, false)
	h.OnCacheError(ctx, "cgraph", errors.New("connection refused"))

	out := buf.String()
	for _, want := range []string{"parse finished", "records=42", "worst=unbounded", "worst=136", "connection refused"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogHooksQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	h := LogHooks{Logger: log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})}

	h.OnCacheHit(context.Background(), "su")
	h.OnRenderStart(context.Background(), "svg", 12)

	if buf.Len() != 0 {
		t.Errorf("debug events logged at info level:\n%s", buf.String())
	}
}
