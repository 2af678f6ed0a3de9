// Package format prettifies generated code and markup.
package format

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

const (
	JavaScript = "javascript"
	TypeScript = "typescript"
	HTML       = "html"
	SVG        = "svg"
	Dart       = "dart"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Format returns content prettified for language.
func Format(content, language string) (string, error) {
	switch language {
	case SVG, HTML:
		return Markup(content)
	case JavaScript, TypeScript:
		return Script(content), nil
	case Dart:
		return content, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
}

// Markup re-indents an XML-like document with two spaces.
func Markup(content string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(content); err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}
	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("write markup: %w", err)
	}
	return out, nil
}

// Prettify is Markup that returns the input untouched when it cannot be parsed.
func Prettify(svg string) string {
	out, err := Markup(svg)
	if err != nil {
		return svg
	}
	return out
}

// Script normalizes whitespace in JavaScript or TypeScript source.
func Script(content string) string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(strings.ReplaceAll(l, "\t", "  "), " ")
	}
	out := strings.Join(lines, "\n")
	out = blankRuns.ReplaceAllString(out, "\n\n")
	return strings.Trim(out, "\n") + "\n"
}
