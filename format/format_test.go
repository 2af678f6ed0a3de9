package format

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatSVGIndents(t *testing.T) {
	out, err := Format(`<svg viewBox="0 0 1 1"><g><path d="M0 0"/></g></svg>`, SVG)
	if err != nil {
		t.Fatal(err)
	}
	want := "<svg viewBox=\"0 0 1 1\">\n  <g>\n    <path d=\"M0 0\"/>\n  </g>\n</svg>\n"
	if out != want {
		t.Fatalf("got\n%q\nwant\n%q", out, want)
	}
}

func TestFormatScript(t *testing.T) {
	in := "const a = 1;\t\n\n\n\n\tfoo();   \r\n"
	out, err := Format(in, TypeScript)
	if err != nil {
		t.Fatal(err)
	}
	if out != "const a = 1;\n\n  foo();\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestFormatDartUnchanged(t *testing.T) {
	in := "class A {}\n\n\n"
	out, err := Format(in, Dart)
	if err != nil || out != in {
		t.Fatalf("dart should pass through, got %q, %v", out, err)
	}
}

func TestFormatUnsupported(t *testing.T) {
	if _, err := Format("x", "cobol"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
}

func TestPrettifyFallsBack(t *testing.T) {
	in := "<svg><g></svg>"
	if got := Prettify(in); got != in {
		t.Fatalf("expected input back, got %q", got)
	}
	if got := Prettify("<svg><g/></svg>"); !strings.Contains(got, "\n  <g/>") {
		t.Fatalf("expected indented output, got %q", got)
	}
}
