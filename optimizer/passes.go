package optimizer

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

type pass struct {
	doc  *etree.Document
	root *etree.Element
	cfg  Config
}

type treePass struct {
	name string
	fn   func(p *pass)
}

// treePasses run in this order; later passes rely on earlier cleanups.
var treePasses = []treePass{
	{"removeDoctype", (*pass).removeDoctype},
	{"removeXMLProcInst", (*pass).removeXMLProcInst},
	{"removeComments", (*pass).removeComments},
	{"removeMetadata", elementRemover("metadata")},
	{"removeEditorsNSData", (*pass).removeEditorsNSData},
	{"removeTitle", elementRemover("title")},
	{"removeDesc", elementRemover("desc")},
	{"removeScriptElement", elementRemover("script")},
	{"removeStyleElement", elementRemover("style")},
	{"removeXMLNS", (*pass).removeXMLNS},
	{"cleanupAttrs", (*pass).cleanupAttrs},
	{"mergeStyles", (*pass).mergeStyles},
	{"convertStyleToAttrs", (*pass).convertStyleToAttrs},
	{"removeRasterImages", (*pass).removeRasterImages},
	{"removeAttributesBySelector", (*pass).removeAttributesBySelector},
	{"cleanupEnableBackground", attrRemover("enable-background")},
	{"removeHiddenElems", (*pass).removeHiddenElems},
	{"removeEmptyText", (*pass).removeEmptyText},
	{"removeUselessDefs", (*pass).removeUselessDefs},
	{"removeNonInheritableGroupAttrs", (*pass).removeNonInheritableGroupAttrs},
	{"removeUselessStrokeAndFill", (*pass).removeUselessStrokeAndFill},
	{"removeUnknownsAndDefaults", (*pass).removeDefaults},
	{"convertEllipseToCircle", (*pass).convertEllipseToCircle},
	{"convertShapeToPath", (*pass).convertShapeToPath},
	{"removeOffCanvasPaths", (*pass).removeOffCanvasPaths},
	{"moveElemsAttrsToGroup", (*pass).moveElemsAttrsToGroup},
	{"moveGroupAttrsToElems", (*pass).moveGroupAttrsToElems},
	{"collapseGroups", (*pass).collapseGroups},
	{"mergePaths", (*pass).mergePaths},
	{"reusePaths", (*pass).reusePaths},
	{"removeEmptyAttrs", (*pass).removeEmptyAttrs},
	{"removeEmptyContainers", (*pass).removeEmptyContainers},
	{"cleanupIds", (*pass).cleanupIDs},
	{"removeViewBox", (*pass).removeViewBox},
	{"removeDimensions", (*pass).removeDimensions},
	{"removeUnusedNS", (*pass).removeUnusedNS},
	{"sortDefsChildren", (*pass).sortDefsChildren},
	{"sortAttrs", (*pass).sortAttrs},
}

// walk visits every element below (and including) el depth first.
func walk(el *etree.Element, fn func(*etree.Element)) {
	fn(el)
	for _, c := range el.ChildElements() {
		walk(c, fn)
	}
}

// prune removes every descendant element for which drop returns true.
// Children are visited before their parent is judged.
func prune(el *etree.Element, drop func(*etree.Element) bool) {
	for _, c := range el.ChildElements() {
		prune(c, drop)
		if drop(c) {
			el.RemoveChild(c)
		}
	}
}

func elementRemover(tag string) func(p *pass) {
	return func(p *pass) {
		prune(p.root, func(e *etree.Element) bool { return e.Tag == tag })
	}
}

func attrRemover(key string) func(p *pass) {
	return func(p *pass) {
		walk(p.root, func(e *etree.Element) { e.RemoveAttr(key) })
	}
}

func (p *pass) removeDoctype() {
	for _, tok := range append([]etree.Token(nil), p.doc.Child...) {
		if d, ok := tok.(*etree.Directive); ok && strings.HasPrefix(strings.ToUpper(strings.TrimSpace(d.Data)), "DOCTYPE") {
			p.doc.RemoveChild(d)
		}
	}
}

func (p *pass) removeXMLProcInst() {
	for _, tok := range append([]etree.Token(nil), p.doc.Child...) {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			p.doc.RemoveChild(pi)
		}
	}
}

// removeComments keeps legal comments, the ones starting with "!".
func (p *pass) removeComments() {
	var strip func(el *etree.Element)
	strip = func(el *etree.Element) {
		for _, tok := range append([]etree.Token(nil), el.Child...) {
			switch t := tok.(type) {
			case *etree.Comment:
				if !strings.HasPrefix(t.Data, "!") {
					el.RemoveChild(t)
				}
			case *etree.Element:
				strip(t)
			}
		}
	}
	strip(&p.doc.Element)
}

var editorNamespaces = map[string]bool{
	"http://inkscape.sourceforge.net/DTD/sodipodi-0.dtd":      true,
	"http://sodipodi.sourceforge.net/DTD/sodipodi-0.dtd":      true,
	"http://www.inkscape.org/namespaces/inkscape":             true,
	"http://www.bohemiancoding.com/sketch/ns":                 true,
	"http://ns.adobe.com/AdobeIllustrator/10.0/":              true,
	"http://ns.adobe.com/Graphs/1.0/":                         true,
	"http://ns.adobe.com/AdobeSVGViewerExtensions/3.0/":       true,
	"http://ns.adobe.com/Variables/1.0/":                      true,
	"http://ns.adobe.com/SaveForWeb/1.0/":                     true,
	"http://ns.adobe.com/Extensibility/1.0/":                  true,
	"http://ns.adobe.com/Flows/1.0/":                          true,
	"http://ns.adobe.com/ImageReplacement/1.0/":               true,
	"http://ns.adobe.com/GenericCustomNamespace/1.0/":         true,
	"http://ns.adobe.com/XPath/1.0/":                          true,
	"http://schemas.microsoft.com/visio/2003/SVGExtensions/":  true,
	"http://taptrix.com/vectorillustrator/svg_extensions":     true,
	"http://www.figma.com/figma/ns":                           true,
	"http://purl.org/dc/elements/1.1/":                        true,
	"http://creativecommons.org/ns#":                          true,
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#":             true,
	"http://www.serif.com/":                                   true,
	"http://www.vector.evaxdesign.sk":                         true,
	"http://www.bohemiancoding.com/sketch/ns/":                true,
	"https://boxy-svg.com":                                    true,
	"http://krita.org/namespaces/svg/krita":                   true,
}

func (p *pass) removeEditorsNSData() {
	prefixes := map[string]bool{}
	for _, a := range p.root.Attr {
		if a.Space == "xmlns" && editorNamespaces[a.Value] {
			prefixes[a.Key] = true
		}
	}
	if len(prefixes) == 0 {
		return
	}
	prune(p.root, func(e *etree.Element) bool { return prefixes[e.Space] })
	walk(p.root, func(e *etree.Element) {
		for _, a := range append([]etree.Attr(nil), e.Attr...) {
			if prefixes[a.Space] || (a.Space == "xmlns" && prefixes[a.Key]) {
				e.RemoveAttr(a.FullKey())
			}
		}
	})
}

func (p *pass) removeXMLNS() {
	p.root.RemoveAttr("xmlns")
}

var spaceRun = regexp.MustCompile(`\s+`)

func (p *pass) cleanupAttrs() {
	walk(p.root, func(e *etree.Element) {
		for i := range e.Attr {
			e.Attr[i].Value = strings.TrimSpace(spaceRun.ReplaceAllString(e.Attr[i].Value, " "))
		}
	})
}

// mergeStyles folds every plain <style> element into the first one.
func (p *pass) mergeStyles() {
	var styles []*etree.Element
	walk(p.root, func(e *etree.Element) {
		if e.Tag == "style" && e.SelectAttrValue("media", "") == "" {
			styles = append(styles, e)
		}
	})
	if len(styles) < 2 {
		return
	}
	var css strings.Builder
	for _, s := range styles {
		css.WriteString(strings.TrimSpace(s.Text()))
		css.WriteString("\n")
	}
	first := styles[0]
	first.SetText(strings.TrimSpace(css.String()))
	for _, s := range styles[1:] {
		if parent := s.Parent(); parent != nil {
			parent.RemoveChild(s)
		}
	}
}

var presentationAttrs = map[string]bool{
	"alignment-baseline": true, "baseline-shift": true, "clip": true, "clip-path": true,
	"clip-rule": true, "color": true, "color-interpolation": true, "color-interpolation-filters": true,
	"color-rendering": true, "cursor": true, "direction": true, "display": true,
	"dominant-baseline": true, "fill": true, "fill-opacity": true, "fill-rule": true,
	"filter": true, "flood-color": true, "flood-opacity": true, "font-family": true,
	"font-size": true, "font-size-adjust": true, "font-stretch": true, "font-style": true,
	"font-variant": true, "font-weight": true, "image-rendering": true, "letter-spacing": true,
	"lighting-color": true, "marker-end": true, "marker-mid": true, "marker-start": true,
	"mask": true, "opacity": true, "overflow": true, "pointer-events": true,
	"shape-rendering": true, "stop-color": true, "stop-opacity": true, "stroke": true,
	"stroke-dasharray": true, "stroke-dashoffset": true, "stroke-linecap": true,
	"stroke-linejoin": true, "stroke-miterlimit": true, "stroke-opacity": true,
	"stroke-width": true, "text-anchor": true, "text-decoration": true,
	"text-rendering": true, "transform": true, "unicode-bidi": true, "visibility": true,
	"word-spacing": true, "writing-mode": true,
}

var inheritableAttrs = map[string]bool{
	"clip-rule": true, "color": true, "color-interpolation": true,
	"color-interpolation-filters": true, "color-rendering": true, "cursor": true,
	"direction": true, "fill": true, "fill-opacity": true, "fill-rule": true,
	"font-family": true, "font-size": true, "font-size-adjust": true, "font-stretch": true,
	"font-style": true, "font-variant": true, "font-weight": true, "image-rendering": true,
	"letter-spacing": true, "marker-end": true, "marker-mid": true, "marker-start": true,
	"pointer-events": true, "shape-rendering": true, "stroke": true, "stroke-dasharray": true,
	"stroke-dashoffset": true, "stroke-linecap": true, "stroke-linejoin": true,
	"stroke-miterlimit": true, "stroke-opacity": true, "stroke-width": true,
	"text-anchor": true, "text-rendering": true, "visibility": true, "word-spacing": true,
	"writing-mode": true,
}

// convertStyleToAttrs moves style declarations that have a presentation
// attribute equivalent onto the element.
func (p *pass) convertStyleToAttrs() {
	walk(p.root, func(e *etree.Element) {
		style := e.SelectAttr("style")
		if style == nil {
			return
		}
		var keep []string
		for _, decl := range strings.Split(style.Value, ";") {
			name, value, ok := strings.Cut(decl, ":")
			name, value = strings.TrimSpace(name), strings.TrimSpace(value)
			if !ok || name == "" {
				continue
			}
			if !presentationAttrs[name] || strings.Contains(value, "!important") || e.SelectAttr(name) != nil {
				keep = append(keep, name+":"+value)
				continue
			}
			e.CreateAttr(name, value)
		}
		if len(keep) == 0 {
			e.RemoveAttr("style")
			return
		}
		e.CreateAttr("style", strings.Join(keep, ";"))
	})
}

var rasterHref = regexp.MustCompile(`(?i)(\.(jpe?g|png|gif)$)|(^data:image/(jpe?g|png|gif))`)

func (p *pass) removeRasterImages() {
	prune(p.root, func(e *etree.Element) bool {
		if e.Tag != "image" {
			return false
		}
		href := e.SelectAttrValue("href", e.SelectAttrValue("xlink:href", ""))
		return rasterHref.MatchString(strings.TrimSpace(href))
	})
}

// removeAttributesBySelector removes the attribute names listed in the
// plugin's "attributes" param from every element.
func (p *pass) removeAttributesBySelector() {
	raw, ok := p.cfg.param("removeAttributesBySelector", "attributes")
	if !ok {
		return
	}
	var names []string
	switch v := raw.(type) {
	case []string:
		names = v
	case []any:
		for _, n := range v {
			if s, ok := n.(string); ok {
				names = append(names, s)
			}
		}
	case string:
		names = []string{v}
	}
	walk(p.root, func(e *etree.Element) {
		for _, n := range names {
			e.RemoveAttr(n)
		}
	})
}

func isZero(s string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && v == 0
}

func (p *pass) removeHiddenElems() {
	prune(p.root, func(e *etree.Element) bool {
		if e.SelectAttrValue("display", "") == "none" {
			return true
		}
		if op := e.SelectAttr("opacity"); op != nil && isZero(op.Value) && e.Tag != "stop" {
			return true
		}
		switch e.Tag {
		case "circle":
			return isZero(e.SelectAttrValue("r", "1"))
		case "ellipse":
			return isZero(e.SelectAttrValue("rx", "1")) || isZero(e.SelectAttrValue("ry", "1"))
		case "rect":
			return isZero(e.SelectAttrValue("width", "1")) || isZero(e.SelectAttrValue("height", "1"))
		case "path":
			return strings.TrimSpace(e.SelectAttrValue("d", "")) == ""
		case "polyline", "polygon":
			return strings.TrimSpace(e.SelectAttrValue("points", "")) == ""
		}
		return false
	})
}

func (p *pass) removeEmptyText() {
	prune(p.root, func(e *etree.Element) bool {
		switch e.Tag {
		case "text", "tspan":
			return strings.TrimSpace(e.Text()) == "" && len(e.ChildElements()) == 0
		case "tref":
			return e.SelectAttr("xlink:href") == nil && e.SelectAttr("href") == nil
		}
		return false
	})
}

// removeUselessDefs drops definitions nothing can reference.
func (p *pass) removeUselessDefs() {
	walk(p.root, func(e *etree.Element) {
		if e.Tag != "defs" {
			return
		}
		for _, c := range e.ChildElements() {
			if c.Tag != "style" && c.SelectAttr("id") == nil && !hasIDDescendant(c) {
				e.RemoveChild(c)
			}
		}
	})
}

func hasIDDescendant(e *etree.Element) bool {
	for _, c := range e.ChildElements() {
		if c.SelectAttr("id") != nil || hasIDDescendant(c) {
			return true
		}
	}
	return false
}

var nonInheritableGroupAttrs = []string{
	"alignment-baseline", "baseline-shift", "clip", "dominant-baseline",
	"flood-color", "flood-opacity", "lighting-color", "overflow",
	"stop-color", "stop-opacity",
}

func (p *pass) removeNonInheritableGroupAttrs() {
	walk(p.root, func(e *etree.Element) {
		if e.Tag != "g" {
			return
		}
		for _, a := range nonInheritableGroupAttrs {
			e.RemoveAttr(a)
		}
	})
}

func (p *pass) removeUselessStrokeAndFill() {
	if p.hasStyleOrScript() {
		return
	}
	walk(p.root, func(e *etree.Element) {
		if e.SelectAttr("id") != nil {
			return
		}
		stroke := e.SelectAttrValue("stroke", "")
		if stroke == "none" || isZero(e.SelectAttrValue("stroke-width", "1")) {
			for _, a := range append([]etree.Attr(nil), e.Attr...) {
				if strings.HasPrefix(a.Key, "stroke") && a.Space == "" {
					e.RemoveAttr(a.Key)
				}
			}
			if inherited(e.Parent(), "stroke") {
				e.CreateAttr("stroke", "none")
			}
		}
		if e.SelectAttrValue("fill", "") == "none" {
			e.RemoveAttr("fill-opacity")
			e.RemoveAttr("fill-rule")
		}
	})
}

// inherited reports whether an ancestor paints with attr (anything but none).
func inherited(e *etree.Element, attr string) bool {
	for ; e != nil; e = e.Parent() {
		if v := e.SelectAttr(attr); v != nil {
			return v.Value != "none"
		}
	}
	return false
}

var defaultValues = map[string]string{
	"fill-opacity":      "1",
	"stroke-opacity":    "1",
	"opacity":           "1",
	"stroke-width":      "1",
	"fill-rule":         "nonzero",
	"clip-rule":         "nonzero",
	"stroke-linecap":    "butt",
	"stroke-linejoin":   "miter",
	"stroke-miterlimit": "4",
	"stroke-dashoffset": "0",
	"stroke-dasharray":  "none",
	"visibility":        "visible",
	"display":           "inline",
}

var positionDefaults = map[string]bool{"x": true, "y": true}

// removeDefaults removes attributes set to their initial value unless an
// ancestor overrides that value.
func (p *pass) removeDefaults() {
	walk(p.root, func(e *etree.Element) {
		if e.SelectAttr("id") != nil {
			return
		}
		for _, a := range append([]etree.Attr(nil), e.Attr...) {
			if a.Space != "" {
				continue
			}
			if def, ok := defaultValues[a.Key]; ok && a.Value == def && !ancestorHas(e.Parent(), a.Key) {
				e.RemoveAttr(a.Key)
				continue
			}
			if positionDefaults[a.Key] && isZero(a.Value) && (e.Tag == "rect" || e.Tag == "image" || e.Tag == "use") {
				e.RemoveAttr(a.Key)
			}
		}
	})
	p.root.RemoveAttr("version")
}

func ancestorHas(e *etree.Element, attr string) bool {
	for ; e != nil; e = e.Parent() {
		if e.SelectAttr(attr) != nil {
			return true
		}
	}
	return false
}

func (p *pass) convertEllipseToCircle() {
	walk(p.root, func(e *etree.Element) {
		if e.Tag != "ellipse" {
			return
		}
		rx := e.SelectAttrValue("rx", "0")
		ry := e.SelectAttrValue("ry", "0")
		if rx == "auto" {
			rx = ry
		}
		if ry == "auto" {
			ry = rx
		}
		if rx != ry {
			return
		}
		e.Tag = "circle"
		e.RemoveAttr("rx")
		e.RemoveAttr("ry")
		e.CreateAttr("r", rx)
	})
}

func parseNum(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var listSep = regexp.MustCompile(`[\s,]+`)

// convertShapeToPath rewrites rect, line, polyline and polygon as paths.
// Rounded rects are left alone.
func (p *pass) convertShapeToPath() {
	walk(p.root, func(e *etree.Element) {
		var d string
		switch e.Tag {
		case "rect":
			if e.SelectAttr("rx") != nil || e.SelectAttr("ry") != nil {
				return
			}
			x, ok1 := parseNum(e.SelectAttrValue("x", "0"))
			y, ok2 := parseNum(e.SelectAttrValue("y", "0"))
			w, ok3 := parseNum(e.SelectAttrValue("width", ""))
			h, ok4 := parseNum(e.SelectAttrValue("height", ""))
			if !(ok1 && ok2 && ok3 && ok4) {
				return
			}
			d = "M" + fmtNum(x) + " " + fmtNum(y) + "H" + fmtNum(x+w) + "V" + fmtNum(y+h) + "H" + fmtNum(x) + "z"
			for _, a := range []string{"x", "y", "width", "height"} {
				e.RemoveAttr(a)
			}
		case "line":
			x1, ok1 := parseNum(e.SelectAttrValue("x1", "0"))
			y1, ok2 := parseNum(e.SelectAttrValue("y1", "0"))
			x2, ok3 := parseNum(e.SelectAttrValue("x2", "0"))
			y2, ok4 := parseNum(e.SelectAttrValue("y2", "0"))
			if !(ok1 && ok2 && ok3 && ok4) {
				return
			}
			d = "M" + fmtNum(x1) + " " + fmtNum(y1) + "L" + fmtNum(x2) + " " + fmtNum(y2)
			for _, a := range []string{"x1", "y1", "x2", "y2"} {
				e.RemoveAttr(a)
			}
		case "polyline", "polygon":
			pts := listSep.Split(strings.TrimSpace(e.SelectAttrValue("points", "")), -1)
			if len(pts) < 4 || len(pts)%2 != 0 {
				return
			}
			var b strings.Builder
			for i := 0; i < len(pts); i += 2 {
				if i == 0 {
					b.WriteString("M")
				} else {
					b.WriteString("L")
				}
				b.WriteString(pts[i] + " " + pts[i+1])
			}
			if e.Tag == "polygon" {
				b.WriteString("z")
			}
			d = b.String()
			e.RemoveAttr("points")
		default:
			return
		}
		e.Tag = "path"
		e.CreateAttr("d", d)
	})
}

var absolutePath = regexp.MustCompile(`^[MLHVCSQTZmlhvcsqtz0-9eE.,\s+-]*$`)
var pathNumber = regexp.MustCompile(`-?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)

// removeOffCanvasPaths drops paths drawn only with absolute commands whose
// bounding box lies entirely outside the viewBox.
func (p *pass) removeOffCanvasPaths() {
	vb := parseViewBox(p.root.SelectAttrValue("viewBox", ""))
	if vb == nil {
		return
	}
	prune(p.root, func(e *etree.Element) bool {
		if e.Tag != "path" || e.SelectAttr("transform") != nil {
			return false
		}
		d := e.SelectAttrValue("d", "")
		if !absolutePath.MatchString(d) || strings.ContainsAny(d, "mlhvcsqtHV") {
			return false
		}
		nums := pathNumber.FindAllString(d, -1)
		if len(nums) < 2 || len(nums)%2 != 0 {
			return false
		}
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for i := 0; i < len(nums); i += 2 {
			x, _ := strconv.ParseFloat(nums[i], 64)
			y, _ := strconv.ParseFloat(nums[i+1], 64)
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
		return maxX < vb[0] || minX > vb[0]+vb[2] || maxY < vb[1] || minY > vb[1]+vb[3]
	})
}

func parseViewBox(s string) []float64 {
	parts := listSep.Split(strings.TrimSpace(s), -1)
	if len(parts) != 4 {
		return nil
	}
	out := make([]float64, 4)
	for i, part := range parts {
		v, ok := parseNum(part)
		if !ok {
			return nil
		}
		out[i] = v
	}
	return out
}

// moveElemsAttrsToGroup hoists inheritable attributes shared by every child
// of a group onto the group.
func (p *pass) moveElemsAttrsToGroup() {
	if p.hasStyleOrScript() {
		return
	}
	walk(p.root, func(g *etree.Element) {
		children := g.ChildElements()
		if g.Tag != "g" || len(children) < 2 {
			return
		}
		common := map[string]string{}
		for _, a := range children[0].Attr {
			if a.Space == "" && inheritableAttrs[a.Key] {
				common[a.Key] = a.Value
			}
		}
		for _, c := range children[1:] {
			for k, v := range common {
				if c.SelectAttrValue(k, "\x00") != v {
					delete(common, k)
				}
			}
		}
		for k, v := range common {
			if g.SelectAttr(k) != nil {
				continue
			}
			g.CreateAttr(k, v)
			for _, c := range children {
				c.RemoveAttr(k)
			}
		}
	})
}

var pathLike = map[string]bool{"path": true, "g": true, "circle": true, "ellipse": true, "line": true, "polygon": true, "polyline": true, "rect": true}

// moveGroupAttrsToElems pushes a lone group transform down to its children.
func (p *pass) moveGroupAttrsToElems() {
	walk(p.root, func(g *etree.Element) {
		if g.Tag != "g" || len(g.Attr) != 1 || g.Attr[0].Key != "transform" || g.Attr[0].Space != "" {
			return
		}
		children := g.ChildElements()
		if len(children) == 0 {
			return
		}
		for _, c := range children {
			if !pathLike[c.Tag] || c.SelectAttr("id") != nil {
				return
			}
		}
		tr := g.Attr[0].Value
		for _, c := range children {
			if own := c.SelectAttrValue("transform", ""); own != "" {
				c.CreateAttr("transform", tr+" "+own)
			} else {
				c.CreateAttr("transform", tr)
			}
		}
		g.RemoveAttr("transform")
	})
}

// collapseGroups replaces attribute-less groups with their content and
// merges a single-child group's attributes into the child.
func (p *pass) collapseGroups() {
	var collapse func(el *etree.Element)
	collapse = func(el *etree.Element) {
		for _, c := range el.ChildElements() {
			collapse(c)
		}
		for _, g := range el.ChildElements() {
			if g.Tag != "g" || g.Space != "" {
				continue
			}
			kids := g.ChildElements()
			if len(g.Attr) > 0 && len(kids) == 1 && canMergeInto(g, kids[0]) {
				child := kids[0]
				for _, a := range g.Attr {
					if a.Key == "transform" {
						if own := child.SelectAttrValue("transform", ""); own != "" {
							child.CreateAttr("transform", a.Value+" "+own)
							continue
						}
					}
					child.CreateAttr(a.FullKey(), a.Value)
				}
				g.Attr = nil
			}
			if len(g.Attr) > 0 {
				continue
			}
			idx := g.Index()
			el.RemoveChild(g)
			for i, tok := range append([]etree.Token(nil), g.Child...) {
				g.RemoveChild(tok)
				el.InsertChildAt(idx+i, tok)
			}
		}
	}
	collapse(p.root)
}

func canMergeInto(g, child *etree.Element) bool {
	if child.SelectAttr("id") != nil {
		return false
	}
	for _, a := range g.Attr {
		switch a.Key {
		case "id", "class", "style", "clip-path", "mask", "filter":
			return false
		case "transform":
			continue
		}
		if child.SelectAttr(a.FullKey()) != nil {
			return false
		}
	}
	return true
}

// mergePaths joins neighbouring paths with identical attributes. Only paths
// starting with an absolute moveto are joined.
func (p *pass) mergePaths() {
	walk(p.root, func(el *etree.Element) {
		var prev *etree.Element
		for _, tok := range append([]etree.Token(nil), el.Child...) {
			c, ok := tok.(*etree.Element)
			if !ok {
				if cd, isText := tok.(*etree.CharData); isText && cd.IsWhitespace() {
					continue
				}
				prev = nil
				continue
			}
			if c.Tag != "path" || !mergeable(c) {
				prev = nil
				continue
			}
			if prev != nil && sameAttrsExceptD(prev, c) {
				prev.CreateAttr("d", prev.SelectAttrValue("d", "")+" "+c.SelectAttrValue("d", ""))
				el.RemoveChild(c)
				continue
			}
			prev = c
		}
	})
}

func mergeable(e *etree.Element) bool {
	if len(e.ChildElements()) > 0 {
		return false
	}
	for _, a := range []string{"id", "marker-start", "marker-mid", "marker-end", "clip-path", "mask", "filter", "style"} {
		if e.SelectAttr(a) != nil {
			return false
		}
	}
	return strings.HasPrefix(strings.TrimSpace(e.SelectAttrValue("d", "")), "M")
}

func sameAttrsExceptD(a, b *etree.Element) bool {
	count := func(e *etree.Element) int {
		n := 0
		for _, at := range e.Attr {
			if at.Key != "d" {
				n++
			}
		}
		return n
	}
	if count(a) != count(b) {
		return false
	}
	for _, at := range a.Attr {
		if at.Key == "d" {
			continue
		}
		if b.SelectAttrValue(at.FullKey(), "\x00") != at.Value {
			return false
		}
	}
	return true
}

// reusePaths moves repeated path data into <defs> and references it with
// <use>.
func (p *pass) reusePaths() {
	byD := map[string][]*etree.Element{}
	var order []string
	walk(p.root, func(e *etree.Element) {
		if e.Tag != "path" || e.SelectAttr("id") != nil {
			return
		}
		if par := e.Parent(); par != nil && par.Tag == "defs" {
			return
		}
		d := e.SelectAttrValue("d", "")
		if d == "" {
			return
		}
		if _, seen := byD[d]; !seen {
			order = append(order, d)
		}
		byD[d] = append(byD[d], e)
	})
	var defs *etree.Element
	n := 0
	for _, d := range order {
		paths := byD[d]
		if len(paths) < 2 {
			continue
		}
		if defs == nil {
			defs = p.root.SelectElement("defs")
			if defs == nil {
				defs = etree.NewElement("defs")
				p.root.InsertChildAt(0, defs)
			}
		}
		id := "reuse-" + strconv.Itoa(n)
		n++
		def := defs.CreateElement("path")
		def.CreateAttr("id", id)
		def.CreateAttr("d", d)
		for _, e := range paths {
			e.Tag = "use"
			e.RemoveAttr("d")
			e.CreateAttr("href", "#"+id)
		}
	}
}

var conditionalAttrs = map[string]bool{"requiredFeatures": true, "requiredExtensions": true, "systemLanguage": true}

func (p *pass) removeEmptyAttrs() {
	walk(p.root, func(e *etree.Element) {
		for _, a := range append([]etree.Attr(nil), e.Attr...) {
			if a.Value == "" && !conditionalAttrs[a.Key] && a.Space != "xmlns" {
				e.RemoveAttr(a.FullKey())
			}
		}
	})
}

var containerTags = map[string]bool{
	"a": true, "defs": true, "g": true, "marker": true, "mask": true,
	"missing-glyph": true, "pattern": true, "switch": true, "symbol": true,
}

func (p *pass) removeEmptyContainers() {
	prune(p.root, func(e *etree.Element) bool {
		if !containerTags[e.Tag] || len(e.ChildElements()) > 0 {
			return false
		}
		switch {
		case e.Tag == "pattern" && len(e.Attr) > 0:
			return false
		case e.Tag == "mask" && e.SelectAttr("id") != nil:
			return false
		case e.Tag == "g" && e.SelectAttr("filter") != nil:
			return false
		}
		return true
	})
}

var idRef = regexp.MustCompile(`url\(\s*["']?#([^"')\s]+)["']?\s*\)`)

// cleanupIDs removes ids nothing refers to. Documents carrying <style> or
// <script> are left untouched since either may select by id.
func (p *pass) cleanupIDs() {
	if p.hasStyleOrScript() {
		return
	}
	used := map[string]bool{}
	walk(p.root, func(e *etree.Element) {
		for _, a := range e.Attr {
			if a.Key == "href" && strings.HasPrefix(a.Value, "#") {
				used[a.Value[1:]] = true
				continue
			}
			for _, m := range idRef.FindAllStringSubmatch(a.Value, -1) {
				used[m[1]] = true
			}
			if a.Key == "begin" || a.Key == "end" {
				if id, _, ok := strings.Cut(a.Value, "."); ok {
					used[id] = true
				}
			}
		}
	})
	walk(p.root, func(e *etree.Element) {
		if id := e.SelectAttr("id"); id != nil && !used[id.Value] {
			e.RemoveAttr("id")
		}
	})
}

// removeViewBox drops a viewBox that only repeats width and height.
func (p *pass) removeViewBox() {
	vb := parseViewBox(p.root.SelectAttrValue("viewBox", ""))
	if vb == nil || vb[0] != 0 || vb[1] != 0 {
		return
	}
	w, okW := parseNum(strings.TrimSuffix(p.root.SelectAttrValue("width", ""), "px"))
	h, okH := parseNum(strings.TrimSuffix(p.root.SelectAttrValue("height", ""), "px"))
	if okW && okH && w == vb[2] && h == vb[3] {
		p.root.RemoveAttr("viewBox")
	}
}

// removeDimensions prefers a viewBox over width and height, creating one
// when absent.
func (p *pass) removeDimensions() {
	if p.root.SelectAttr("viewBox") == nil {
		w, okW := parseNum(strings.TrimSuffix(p.root.SelectAttrValue("width", ""), "px"))
		h, okH := parseNum(strings.TrimSuffix(p.root.SelectAttrValue("height", ""), "px"))
		if !okW || !okH {
			return
		}
		p.root.CreateAttr("viewBox", "0 0 "+fmtNum(w)+" "+fmtNum(h))
	}
	p.root.RemoveAttr("width")
	p.root.RemoveAttr("height")
}

func (p *pass) removeUnusedNS() {
	declared := map[string]bool{}
	for _, a := range p.root.Attr {
		if a.Space == "xmlns" {
			declared[a.Key] = true
		}
	}
	if len(declared) == 0 {
		return
	}
	walk(p.root, func(e *etree.Element) {
		delete(declared, e.Space)
		for _, a := range e.Attr {
			if a.Space != "xmlns" {
				delete(declared, a.Space)
			}
		}
	})
	for prefix := range declared {
		p.root.RemoveAttr("xmlns:" + prefix)
	}
}

// sortDefsChildren orders <defs> content by tag frequency, then tag name, so
// that similar elements sit next to each other and compress better.
func (p *pass) sortDefsChildren() {
	walk(p.root, func(e *etree.Element) {
		if e.Tag != "defs" {
			return
		}
		kids := e.ChildElements()
		freq := map[string]int{}
		for _, k := range kids {
			freq[k.Tag]++
		}
		sort.SliceStable(kids, func(i, j int) bool {
			a, b := kids[i], kids[j]
			if freq[a.Tag] != freq[b.Tag] {
				return freq[a.Tag] > freq[b.Tag]
			}
			if len(a.Tag) != len(b.Tag) {
				return len(a.Tag) > len(b.Tag)
			}
			return a.Tag < b.Tag
		})
		for _, k := range kids {
			e.RemoveChild(k)
		}
		for _, k := range kids {
			e.AddChild(k)
		}
	})
}

var attrOrder = []string{
	"id", "width", "height", "x", "x1", "x2", "y", "y1", "y2",
	"cx", "cy", "r", "fill", "stroke", "marker", "d", "points",
}

func attrRank(a etree.Attr) int {
	if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
		return -1
	}
	for i, name := range attrOrder {
		if a.Space == "" && (a.Key == name || strings.HasPrefix(a.Key, name+"-")) {
			return i
		}
	}
	return len(attrOrder)
}

func (p *pass) sortAttrs() {
	walk(p.root, func(e *etree.Element) {
		sort.SliceStable(e.Attr, func(i, j int) bool {
			ri, rj := attrRank(e.Attr[i]), attrRank(e.Attr[j])
			if ri != rj {
				return ri < rj
			}
			return e.Attr[i].FullKey() < e.Attr[j].FullKey()
		})
	})
}

func (p *pass) hasStyleOrScript() bool {
	found := false
	walk(p.root, func(e *etree.Element) {
		if e.Tag == "style" || e.Tag == "script" {
			found = true
		}
	})
	return found
}

var numericAttrs = map[string]bool{
	"d": true, "points": true, "x": true, "y": true, "x1": true, "y1": true,
	"x2": true, "y2": true, "cx": true, "cy": true, "r": true, "rx": true,
	"ry": true, "width": true, "height": true, "viewBox": true,
	"stroke-width": true, "stroke-dasharray": true, "stroke-dashoffset": true,
	"fx": true, "fy": true, "offset": true, "font-size": true, "opacity": true,
	"fill-opacity": true, "stroke-opacity": true,
}

var transformAttrs = map[string]bool{
	"transform": true, "gradientTransform": true, "patternTransform": true,
}

// roundNumbers rounds every number inside the listed attributes to
// precision decimals.
func (p *pass) roundNumbers(precision int, attrs map[string]bool) {
	if precision < 0 {
		return
	}
	scale := math.Pow(10, float64(precision))
	walk(p.root, func(e *etree.Element) {
		for i, a := range e.Attr {
			if a.Space != "" || !attrs[a.Key] {
				continue
			}
			// Minified arc flags ("a1 1 0 011 1") read as one number.
			if a.Key == "d" && strings.ContainsAny(a.Value, "aA") {
				continue
			}
			e.Attr[i].Value = pathNumber.ReplaceAllStringFunc(a.Value, func(num string) string {
				v, err := strconv.ParseFloat(num, 64)
				if err != nil {
					return num
				}
				r := math.Round(v*scale) / scale
				if r == 0 {
					r = 0 // -0
				}
				return strconv.FormatFloat(r, 'f', -1, 64)
			})
		}
	})
}
