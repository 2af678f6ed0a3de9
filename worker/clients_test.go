package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"svgstudio/codegen"
	"svgstudio/format"
	"svgstudio/optimizer"
	"svgstudio/svgdoc"
)

const icon = `<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24"><!-- c --><title>t</title><path d="M0 0h24v24H0z"/></svg>`

func TestOptimizerClientCaches(t *testing.T) {
	c := NewOptimizerClient(1, 10, time.Minute)
	defer c.Terminate()
	ctx := context.Background()
	cfg := optimizer.BuildConfig(optimizer.DefaultPlugins(), optimizer.DefaultSettings())

	first, err := c.Compress(ctx, icon, cfg)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if strings.Contains(first, "<title>") || len(first) >= len(icon) {
		t.Fatalf("not optimized: %s", first)
	}
	second, err := c.Compress(ctx, icon, cfg)
	if err != nil || second != first {
		t.Fatalf("second call: %q, %v", second, err)
	}
	if s := c.CacheStats(); s.Size != 1 || s.Hits != 1 {
		t.Fatalf("expected one cached entry and one hit, got %+v", s)
	}

	c.ClearCache()
	if c.CacheStats().Size != 0 {
		t.Fatal("ClearCache left entries")
	}
}

func TestOptimizerClientErrorNotCached(t *testing.T) {
	c := NewOptimizerClient(1, 10, time.Minute)
	defer c.Terminate()
	if _, err := c.Compress(context.Background(), "<nope/>", optimizer.StandardPreset()); !errors.Is(err, optimizer.ErrInvalidSVG) {
		t.Fatalf("expected ErrInvalidSVG, got %v", err)
	}
	if c.CacheStats().Size != 0 {
		t.Fatal("failure was cached")
	}
}

func TestFormatterClient(t *testing.T) {
	c := NewFormatterClient(1, 10, time.Minute)
	defer c.Terminate()
	out, err := c.Format(context.Background(), "<svg><g/></svg>", format.SVG)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<svg>\n  <g/>\n</svg>\n" {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := c.Format(context.Background(), "x", "cobol"); !errors.Is(err, format.ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
}

func TestCodegenClient(t *testing.T) {
	c := NewCodegenClient(1, 10, time.Minute)
	defer c.Terminate()
	data := svgdoc.Data{InnerContent: `<path d="M0 0"/>`, ViewBox: "0 0 24 24", ComponentName: "Icon", ProcessedContent: `<path d="M0 0"/>`}

	out, err := c.Generate(context.Background(), codegen.Svelte, data, icon)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "{...$$props}") {
		t.Fatalf("unexpected svelte code: %s", out)
	}
	if _, err := c.Generate(context.Background(), "angular", data, icon); !errors.Is(err, codegen.ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget, got %v", err)
	}
}

func TestClientsBundle(t *testing.T) {
	cs := NewClients(1, 5, time.Minute)
	defer cs.Terminate()
	stats := cs.CacheStats()
	for _, name := range []string{"optimizer", "formatter", "codegen"} {
		if stats[name].MaxSize != 5 {
			t.Fatalf("%s: unexpected stats %+v", name, stats[name])
		}
	}
	cs.ClearCaches()
}
