package optimizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/svg"
	"golang.org/x/net/html/charset"
)

var (
	ErrEmptyInput = errors.New("empty SVG input")
	ErrInvalidSVG = errors.New("invalid SVG document")
)

const maxPasses = 10

// minifierPlugins are carried out by the minifier rather than by a tree pass.
var minifierPlugins = []string{
	"inlineStyles",
	"minifyStyles",
	"cleanupNumericValues",
	"cleanupListOfValues",
	"convertColors",
	"convertPathData",
	"convertTransform",
	"removeUnknownsAndDefaults",
}

// Optimize runs svg through the configured pipeline. Element-level plugins run
// first on a parsed tree, then the minifier handles numbers, paths, colours
// and styles. With Multipass set the whole pipeline repeats until the output
// stops shrinking.
func Optimize(input string, cfg Config) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrEmptyInput
	}
	enabled := cfg.enabledSet()

	out, err := runPass(input, cfg, enabled)
	if err != nil {
		return "", err
	}
	if !cfg.Multipass {
		return out, nil
	}
	for i := 1; i < maxPasses; i++ {
		next, err := runPass(out, cfg, enabled)
		if err != nil {
			return "", err
		}
		if len(next) >= len(out) {
			break
		}
		out = next
	}
	return out, nil
}

func runPass(input string, cfg Config, enabled map[string]bool) (string, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromString(input); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSVG, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return "", fmt.Errorf("%w: root element is not <svg>", ErrInvalidSVG)
	}

	p := &pass{doc: doc, root: root, cfg: cfg}
	for _, step := range treePasses {
		if enabled[step.name] {
			step.fn(p)
		}
	}
	if enabled["cleanupNumericValues"] || enabled["cleanupListOfValues"] || enabled["convertPathData"] {
		p.roundNumbers(cfg.FloatPrecision, numericAttrs)
	}
	if enabled["convertTransform"] {
		p.roundNumbers(cfg.TransformPrecision, transformAttrs)
	}

	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serialize: %w", err)
	}

	if !anyEnabled(enabled, minifierPlugins) {
		return strings.TrimSpace(out), nil
	}
	return minifySVG(out, !enabled["removeComments"])
}

func minifySVG(s string, keepComments bool) (string, error) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	// Rounding already happened in the tree pass; the minifier keeps every
	// remaining digit.
	m.Add("image/svg+xml", &svg.Minifier{KeepComments: keepComments, Precision: 0})
	out, err := m.String("image/svg+xml", s)
	if err != nil {
		return "", fmt.Errorf("minify: %w", err)
	}
	return out, nil
}

func anyEnabled(enabled map[string]bool, names []string) bool {
	for _, n := range names {
		if enabled[n] {
			return true
		}
	}
	return false
}
