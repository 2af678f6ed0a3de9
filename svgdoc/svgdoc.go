// Package svgdoc holds the helpers that turn user input (uploads, pasted text,
// base64 payloads) into SVG markup and extract what code generation needs.
package svgdoc

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/beevik/etree"
	"github.com/iancoleman/strcase"
	"golang.org/x/net/html/charset"
)

var (
	ErrNotSVG      = errors.New("content is not an SVG document")
	ErrUnsupported = errors.New("only .svg files are accepted")
)

// Data is the parsed form of an SVG that the code generators consume.
type Data struct {
	InnerContent     string `json:"innerContent"`
	ViewBox          string `json:"viewBox"`
	ComponentName    string `json:"componentName"`
	ProcessedContent string `json:"processedContent"`
}

var svgOpen = regexp.MustCompile(`(?is)<svg[\s>/]`)

// IsSVGContent reports whether text looks like an SVG document.
func IsSVGContent(text string) bool {
	t := strings.TrimSpace(text)
	if !svgOpen.MatchString(t) {
		return false
	}
	return strings.Contains(t, "</svg>") || strings.HasSuffix(t, "/>")
}

// ExtractFromBase64 decodes a data URI or a bare base64 payload. It returns
// "" when the payload is not base64 or does not decode to SVG.
func ExtractFromBase64(text string) string {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "data:") {
		meta, payload, ok := strings.Cut(t, ",")
		if !ok || !strings.Contains(meta, ";base64") {
			return ""
		}
		t = payload
	}
	t = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, t)
	raw, err := base64.StdEncoding.DecodeString(t)
	if err != nil {
		if raw, err = base64.RawStdEncoding.DecodeString(t); err != nil {
			return ""
		}
	}
	s := string(raw)
	if !IsSVGContent(s) {
		return ""
	}
	return s
}

// FromText accepts pasted text: SVG markup as-is, or a base64/data URI
// encoding of it.
func FromText(text string) (string, error) {
	if IsSVGContent(text) {
		return text, nil
	}
	if s := ExtractFromBase64(text); s != "" {
		return s, nil
	}
	return "", ErrNotSVG
}

// IsSVGFile reports whether an upload is acceptable by name or media type.
func IsSVGFile(name, contentType string) bool {
	if strings.HasPrefix(contentType, "image/svg+xml") {
		return true
	}
	return strings.EqualFold(path.Ext(name), ".svg")
}

// Decode reads r as text in the charset named by label (a Content-Type or a
// bare charset name), defaulting to UTF-8.
func Decode(r io.Reader, label string) (string, error) {
	if label != "" {
		if _, params, ok := strings.Cut(label, "charset="); ok {
			label = strings.Trim(params, `"' `)
		} else if strings.Contains(label, "/") {
			label = ""
		}
	}
	if label != "" {
		cr, err := charset.NewReaderLabel(label, r)
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", label, err)
		}
		r = cr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ComponentName derives a PascalCase identifier from a file name.
func ComponentName(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.TrimSuffix(base, ".optimized")
	name := strcase.ToCamel(base)
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, name)
	switch {
	case name == "" || base == ".":
		return "SvgIcon"
	case unicode.IsDigit(rune(name[0])):
		return "Svg" + name
	}
	return name
}

// OptimizedFileName turns "icon.svg" into "icon.optimized.svg".
func OptimizedFileName(name string) string {
	if name == "" {
		return "optimized.svg"
	}
	if strings.HasSuffix(strings.ToLower(name), ".svg") {
		return name[:len(name)-4] + ".optimized.svg"
	}
	return name + ".optimized.svg"
}

// Parse extracts the viewBox, inner markup and component name from svg.
// With currentColor set, explicit fill and stroke colours are replaced by
// currentColor in ProcessedContent.
func Parse(svg, fileName string, currentColor bool) (Data, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromString(svg); err != nil {
		return Data{}, fmt.Errorf("%w: %v", ErrNotSVG, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return Data{}, ErrNotSVG
	}

	d := Data{
		ViewBox:       viewBox(root),
		ComponentName: ComponentName(fileName),
	}
	inner, err := innerMarkup(root)
	if err != nil {
		return Data{}, err
	}
	d.InnerContent = inner
	d.ProcessedContent = inner
	if currentColor {
		cp := root.Copy()
		for _, c := range cp.ChildElements() {
			applyCurrentColor(c)
		}
		if d.ProcessedContent, err = innerMarkup(cp); err != nil {
			return Data{}, err
		}
	}
	return d, nil
}

func viewBox(root *etree.Element) string {
	if vb := strings.TrimSpace(root.SelectAttrValue("viewBox", "")); vb != "" {
		return vb
	}
	w := strings.TrimSuffix(root.SelectAttrValue("width", "24"), "px")
	h := strings.TrimSuffix(root.SelectAttrValue("height", "24"), "px")
	return "0 0 " + w + " " + h
}

func innerMarkup(root *etree.Element) (string, error) {
	holder := etree.NewDocument()
	for _, tok := range append([]etree.Token(nil), root.Copy().Child...) {
		holder.AddChild(tok)
	}
	s, err := holder.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serialize inner markup: %w", err)
	}
	return strings.TrimSpace(s), nil
}

var keepPaint = map[string]bool{"none": true, "transparent": true, "currentColor": true, "inherit": true}

func applyCurrentColor(e *etree.Element) {
	for _, key := range []string{"fill", "stroke"} {
		if a := e.SelectAttr(key); a != nil && !keepPaint[a.Value] && !strings.HasPrefix(a.Value, "url(") {
			a.Value = "currentColor"
		}
	}
	for _, c := range e.ChildElements() {
		applyCurrentColor(c)
	}
}
