package optimizer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd">
<!-- Generator: Sketch -->
<svg xmlns="http://www.w3.org/2000/svg" xmlns:sketch="http://www.bohemiancoding.com/sketch/ns" width="24" height="24" viewBox="0 0 24 24" version="1.1">
  <title>icon</title>
  <desc>Created with Sketch.</desc>
  <metadata>some metadata</metadata>
  <g>
    <path d="M 2.123456 3.987654 L 10.5 10.5" fill="#ff0000" sketch:type="MSShapeGroup"/>
  </g>
</svg>`

func only(names ...string) Config {
	return Config{FloatPrecision: 2, TransformPrecision: 4, Plugins: names}
}

func TestDefaultPluginsCatalogue(t *testing.T) {
	plugins := DefaultPlugins()
	if len(plugins) != 45 {
		t.Fatalf("expected 45 plugins, got %d", len(plugins))
	}
	plugins[0].Enabled = false
	if !DefaultPlugins()[0].Enabled {
		t.Fatal("DefaultPlugins must return a copy")
	}
	for _, p := range plugins {
		if Label(p.Name) == p.Name {
			t.Fatalf("plugin %s has no label", p.Name)
		}
	}
}

func TestLabelFallsBackToName(t *testing.T) {
	if got := Label("notAPlugin"); got != "notAPlugin" {
		t.Fatalf("expected name fallback, got %q", got)
	}
	if got := Label("removeTitle"); got != "Remove <title>" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestBuildConfig(t *testing.T) {
	plugins := []Plugin{
		{Name: "removeTitle", Enabled: true},
		{Name: "removeDesc", Enabled: false},
		{Name: "removeAttributesBySelector", Enabled: true, Params: map[string]any{"attributes": []any{"data-name"}}},
	}
	settings := DefaultSettings()
	settings.FloatPrecision = 3
	cfg := BuildConfig(plugins, settings)

	if !cfg.Multipass || cfg.FloatPrecision != 3 {
		t.Fatalf("settings not carried: %+v", cfg)
	}
	if len(cfg.Plugins) != 2 || cfg.Plugins[0] != "removeTitle" {
		t.Fatalf("unexpected plugins %v", cfg.Plugins)
	}
	if _, ok := cfg.param("removeAttributesBySelector", "attributes"); !ok {
		t.Fatal("plugin params not carried")
	}
}

func TestBuildConfigNothingEnabledUsesPreset(t *testing.T) {
	cfg := BuildConfig([]Plugin{{Name: "removeTitle"}}, DefaultSettings())
	if len(cfg.Plugins) != 1 || cfg.Plugins[0] != PresetDefault {
		t.Fatalf("expected preset-default, got %v", cfg.Plugins)
	}
	if !cfg.enabledSet()["removeComments"] {
		t.Fatal("preset-default should expand to removeComments")
	}
}

func TestOptimizeDefaultsShrink(t *testing.T) {
	out, err := Optimize(sample, BuildConfig(DefaultPlugins(), DefaultSettings()))
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(out) >= len(sample) {
		t.Fatalf("expected output smaller than input (%d >= %d)", len(out), len(sample))
	}
	for _, gone := range []string{"<!DOCTYPE", "<?xml", "Generator", "<metadata", "sketch:type", "xmlns:sketch"} {
		if strings.Contains(out, gone) {
			t.Fatalf("expected %q to be removed: %s", gone, out)
		}
	}
	if !strings.Contains(out, "<svg") || !strings.Contains(out, "viewBox") {
		t.Fatalf("svg root or viewBox lost: %s", out)
	}
	if CompressionRate(sample, out) <= 0 {
		t.Fatal("expected a positive compression rate")
	}
}

func TestOptimizeEmpty(t *testing.T) {
	if _, err := Optimize("   ", StandardPreset()); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestOptimizeInvalid(t *testing.T) {
	if _, err := Optimize("<svg><g></svg>", StandardPreset()); !errors.Is(err, ErrInvalidSVG) {
		t.Fatalf("expected ErrInvalidSVG for malformed xml, got %v", err)
	}
	if _, err := Optimize("<html></html>", StandardPreset()); !errors.Is(err, ErrInvalidSVG) {
		t.Fatalf("expected ErrInvalidSVG for non-svg root, got %v", err)
	}
}

func TestRemoveTitleAndDesc(t *testing.T) {
	out, err := Optimize(sample, only("removeTitle", "removeDesc"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<title>") || strings.Contains(out, "<desc>") {
		t.Fatalf("title/desc not removed: %s", out)
	}
	if !strings.Contains(out, "<metadata>") {
		t.Fatalf("metadata removed although plugin disabled: %s", out)
	}
}

func TestRoundNumbers(t *testing.T) {
	out, err := Optimize(`<svg xmlns="http://www.w3.org/2000/svg"><path d="M 2.123456 3.987654 L 10.5 -0.001"/></svg>`, only("cleanupNumericValues"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "2.123456") || strings.Contains(out, "-0.001") {
		t.Fatalf("numbers not rounded: %s", out)
	}
}

func TestConvertEllipseToCircle(t *testing.T) {
	out, err := Optimize(`<svg xmlns="http://www.w3.org/2000/svg"><ellipse cx="5" cy="5" rx="3" ry="3"/><ellipse cx="5" cy="5" rx="3" ry="4"/></svg>`, only("convertEllipseToCircle"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `<circle cx="5" cy="5" r="3"`) {
		t.Fatalf("round ellipse not converted: %s", out)
	}
	if !strings.Contains(out, "<ellipse") {
		t.Fatalf("eccentric ellipse should stay: %s", out)
	}
}

func TestConvertShapeToPath(t *testing.T) {
	out, err := Optimize(`<svg xmlns="http://www.w3.org/2000/svg"><rect x="1" y="2" width="3" height="4"/><polygon points="0,0 1,0 1,1"/></svg>`, only("convertShapeToPath"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `d="M1 2H4V6H1z"`) {
		t.Fatalf("rect not converted: %s", out)
	}
	if !strings.Contains(out, `d="M0 0L1 0L1 1z"`) {
		t.Fatalf("polygon not converted: %s", out)
	}
}

func TestCollapseGroups(t *testing.T) {
	out, err := Optimize(`<svg xmlns="http://www.w3.org/2000/svg"><g><g fill="red"><path d="M0 0h1"/></g></g></svg>`, only("collapseGroups"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<g") {
		t.Fatalf("groups not collapsed: %s", out)
	}
	if !strings.Contains(out, `fill="red"`) {
		t.Fatalf("group attribute lost: %s", out)
	}
}

func TestMergePaths(t *testing.T) {
	out, err := Optimize(`<svg xmlns="http://www.w3.org/2000/svg"><path d="M0 0h1" fill="red"/><path d="M2 2h1" fill="red"/><path d="M4 4h1" fill="blue"/></svg>`, only("mergePaths"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "<path") != 2 {
		t.Fatalf("expected two paths after merge: %s", out)
	}
	if !strings.Contains(out, `d="M0 0h1 M2 2h1"`) {
		t.Fatalf("merged path data wrong: %s", out)
	}
}

func TestCleanupIDs(t *testing.T) {
	in := `<svg xmlns="http://www.w3.org/2000/svg"><defs><linearGradient id="used"/></defs><path id="unused" fill="url(#used)" d="M0 0"/></svg>`
	out, err := Optimize(in, only("cleanupIds"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, `id="unused"`) {
		t.Fatalf("unused id kept: %s", out)
	}
	if !strings.Contains(out, `id="used"`) {
		t.Fatalf("referenced id removed: %s", out)
	}
}

func TestRemoveDimensions(t *testing.T) {
	out, err := Optimize(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="20"><path d="M0 0"/></svg>`, only("removeDimensions"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "width=") || !strings.Contains(out, `viewBox="0 0 10 20"`) {
		t.Fatalf("dimensions not replaced by viewBox: %s", out)
	}
}

func TestRemoveHiddenElems(t *testing.T) {
	out, err := Optimize(`<svg xmlns="http://www.w3.org/2000/svg"><path d="M0 0h1" display="none"/><circle r="0"/><rect width="1" height="1"/></svg>`, only("removeHiddenElems"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<path") || strings.Contains(out, "<circle") {
		t.Fatalf("hidden elements kept: %s", out)
	}
	if !strings.Contains(out, "<rect") {
		t.Fatalf("visible rect removed: %s", out)
	}
}

func TestReusePaths(t *testing.T) {
	in := `<svg xmlns="http://www.w3.org/2000/svg"><path d="M0 0h5v5z" fill="red"/><path d="M0 0h5v5z" fill="blue"/></svg>`
	out, err := Optimize(in, only("reusePaths"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "<use") != 2 || !strings.Contains(out, `id="reuse-0"`) {
		t.Fatalf("duplicates not replaced: %s", out)
	}
}

func TestSortAttrs(t *testing.T) {
	out, err := Optimize(`<svg xmlns="http://www.w3.org/2000/svg"><path fill="red" d="M0 0" id="a"/></svg>`, only("sortAttrs"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `<path id="a" fill="red" d="M0 0"`) {
		t.Fatalf("attributes not sorted: %s", out)
	}
}

func TestMultipassIsStable(t *testing.T) {
	cfg := StandardPreset()
	once, err := Optimize(sample, cfg)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Optimize(once, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(twice) > len(once) {
		t.Fatalf("re-optimizing grew the output: %d > %d", len(twice), len(once))
	}
}

func TestGlobalSettingsPartialJSONKeepsDefaults(t *testing.T) {
	var s GlobalSettings
	if err := json.Unmarshal([]byte(`{"multipass":false}`), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := DefaultSettings()
	want.Multipass = false
	if s != want {
		t.Fatalf("settings = %+v, want %+v", s, want)
	}

	var p struct {
		Settings *GlobalSettings `json:"settings"`
	}
	if err := json.Unmarshal([]byte(`{"settings":{"floatPrecision":0}}`), &p); err != nil {
		t.Fatalf("Unmarshal pointer: %v", err)
	}
	if p.Settings.FloatPrecision != 0 || p.Settings.TransformPrecision != DefaultSettings().TransformPrecision {
		t.Fatalf("pointer settings = %+v", *p.Settings)
	}
}
