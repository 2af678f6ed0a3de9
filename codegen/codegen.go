// Package codegen renders an SVG as a component for a UI framework.
package codegen

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"svgstudio/svgdoc"
)

var ErrUnknownTarget = errors.New("unknown generator type")

// Target names a framework the generator can emit code for.
type Target string

const (
	ReactJSX    Target = "react-jsx"
	ReactTSX    Target = "react-tsx"
	Vue         Target = "vue"
	Svelte      Target = "svelte"
	ReactNative Target = "react-native"
	Flutter     Target = "flutter"
)

// Targets lists every supported target in display order.
var Targets = []Target{ReactJSX, ReactTSX, Vue, Svelte, ReactNative, Flutter}

type targetInfo struct {
	ext      string
	language string
}

var targetInfos = map[Target]targetInfo{
	ReactJSX:    {"jsx", "javascript"},
	ReactTSX:    {"tsx", "typescript"},
	Vue:         {"vue", "html"},
	Svelte:      {"svelte", "html"},
	ReactNative: {"jsx", "javascript"},
	Flutter:     {"dart", "dart"},
}

func ParseTarget(s string) (Target, error) {
	t := Target(s)
	if _, ok := targetInfos[t]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTarget, s)
	}
	return t, nil
}

// Extension is the file extension of generated code, without the dot.
func (t Target) Extension() string { return targetInfos[t].ext }

// Language is the formatter language of generated code.
func (t Target) Language() string { return targetInfos[t].language }

// FileName is the conventional file name for a component.
func (t Target) FileName(component string) string {
	return component + "." + t.Extension()
}

var reactAttrs = []struct{ from, to string }{
	{"stroke-width", "strokeWidth"},
	{"stroke-linecap", "strokeLinecap"},
	{"stroke-linejoin", "strokeLinejoin"},
	{"stroke-dasharray", "strokeDasharray"},
	{"stroke-dashoffset", "strokeDashoffset"},
	{"stroke-miterlimit", "strokeMiterlimit"},
	{"stroke-opacity", "strokeOpacity"},
	{"fill-opacity", "fillOpacity"},
	{"fill-rule", "fillRule"},
	{"clip-path", "clipPath"},
	{"clip-rule", "clipRule"},
}

var reactAttrPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(reactAttrs))
	for i, a := range reactAttrs {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(a.from) + `=`)
	}
	return out
}()

// reactContent camel-cases the hyphenated attributes React rejects.
func reactContent(s string) string {
	for i, re := range reactAttrPatterns {
		s = re.ReplaceAllString(s, reactAttrs[i].to+"=")
	}
	return s
}

var nativeTags = map[string]string{
	"path":           "Path",
	"g":              "G",
	"circle":         "Circle",
	"ellipse":        "Ellipse",
	"line":           "Line",
	"polyline":       "Polyline",
	"polygon":        "Polygon",
	"rect":           "Rect",
	"defs":           "Defs",
	"linearGradient": "LinearGradient",
	"radialGradient": "RadialGradient",
	"stop":           "Stop",
	"text":           "Text",
	"tspan":          "TSpan",
}

var tagName = regexp.MustCompile(`<(/?)([A-Za-z][\w:-]*)`)

// nativeContent maps SVG tags onto react-native-svg components and returns
// the sorted import list.
func nativeContent(s string) (string, []string) {
	used := map[string]bool{}
	out := tagName.ReplaceAllStringFunc(s, func(m string) string {
		sub := tagName.FindStringSubmatch(m)
		comp, ok := nativeTags[sub[2]]
		if !ok {
			return m
		}
		used[comp] = true
		return "<" + sub[1] + comp
	})
	imports := make([]string, 0, len(used))
	for c := range used {
		imports = append(imports, c)
	}
	sort.Strings(imports)
	return reactContent(out), imports
}

// flutterMarkup escapes quotes and puts every tag on its own line.
func flutterMarkup(svg string) string {
	escaped := strings.ReplaceAll(svg, "'", `\'`)
	parts := strings.Split(escaped, ">")
	lines := make([]string, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if i < len(parts)-1 {
			part += ">"
		}
		if part != "" {
			lines = append(lines, part)
		}
	}
	return strings.Join(lines, "\n        ")
}

type view struct {
	Name    string
	ViewBox string
	Content string
	Imports string
}

var templates = template.Must(template.New("codegen").Parse(`
{{- define "react-jsx" -}}
import React from "react";

export function {{.Name}}(props) {
  return (
    <svg
      xmlns="http://www.w3.org/2000/svg"
      width="1em"
      height="1em"
      viewBox="{{.ViewBox}}"
      {...props}
    >
      {{.Content}}
    </svg>
  );
}

export default {{.Name}};
{{end}}
{{- define "react-tsx" -}}
import React, { SVGProps } from "react";

export function {{.Name}}(props: SVGProps<SVGSVGElement>) {
  return (
    <svg
      xmlns="http://www.w3.org/2000/svg"
      width="1em"
      height="1em"
      viewBox="{{.ViewBox}}"
      {...props}
    >
      {{.Content}}
    </svg>
  );
}

export default {{.Name}};
{{end}}
{{- define "vue" -}}
<template>
  <svg
    xmlns="http://www.w3.org/2000/svg"
    width="1em"
    height="1em"
    viewBox="{{.ViewBox}}"
  >
    {{.Content}}
  </svg>
</template>

<script>
export default {
  name: '{{.Name}}'
}
</script>
{{end}}
{{- define "svelte" -}}
<svg
  xmlns="http://www.w3.org/2000/svg"
  width="1em"
  height="1em"
  viewBox="{{.ViewBox}}"
  {...$$props}
>
  {{.Content}}
</svg>
{{end}}
{{- define "react-native" -}}
import React from "react";
import Svg, { {{.Imports}} } from "react-native-svg";

export function {{.Name}}(props) {
  return (
    <Svg
      xmlns="http://www.w3.org/2000/svg"
      width="1em"
      height="1em"
      viewBox="{{.ViewBox}}"
      {...props}
    >
      {{.Content}}
    </Svg>
  );
}

export default {{.Name}};
{{end}}
{{- define "flutter" -}}
import 'package:flutter/material.dart';
import 'package:flutter_svg/flutter_svg.dart';

class {{.Name}} extends StatelessWidget {
  const {{.Name}}({Key? key}) : super(key: key);

  @override
  Widget build(BuildContext context) {
    return SvgPicture.string(
      '''{{.Content}}''',
      width: 24,
      height: 24,
    );
  }
}
{{end}}`))

// Generate renders data as target code. svgString is the full document; only
// Flutter embeds it verbatim.
func Generate(target Target, data svgdoc.Data, svgString string) (string, error) {
	if _, ok := targetInfos[target]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	content := data.ProcessedContent
	if content == "" {
		content = data.InnerContent
	}
	v := view{Name: data.ComponentName, ViewBox: data.ViewBox}
	switch target {
	case ReactJSX, ReactTSX:
		v.Content = strings.TrimSpace(reactContent(content))
	case Vue, Svelte:
		v.Content = strings.TrimSpace(content)
	case ReactNative:
		c, imports := nativeContent(content)
		v.Content = strings.TrimSpace(c)
		v.Imports = strings.Join(imports, ", ")
	case Flutter:
		v.Content = flutterMarkup(svgString)
	}

	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, string(target), v); err != nil {
		return "", fmt.Errorf("render %s: %w", target, err)
	}
	return b.String(), nil
}
