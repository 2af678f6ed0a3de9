package optimizer

import "github.com/goccy/go-json"

// Plugin is a named on/off toggle for one transformation rule of the
// optimization pipeline.
type Plugin struct {
	Name    string         `json:"name"`
	Enabled bool           `json:"enabled"`
	Params  map[string]any `json:"params,omitempty"`
}

// GlobalSettings are the numeric and display settings shared by every
// plugin.
type GlobalSettings struct {
	ShowOriginal       bool `json:"showOriginal"`
	CompareGzipped     bool `json:"compareGzipped"`
	PrettifyMarkup     bool `json:"prettifyMarkup"`
	Multipass          bool `json:"multipass"`
	FloatPrecision     int  `json:"floatPrecision"`
	TransformPrecision int  `json:"transformPrecision"`
}

func DefaultSettings() GlobalSettings {
	return GlobalSettings{
		ShowOriginal:       false,
		CompareGzipped:     false,
		PrettifyMarkup:     true,
		Multipass:          true,
		FloatPrecision:     2,
		TransformPrecision: 4,
	}
}

// UnmarshalJSON decodes over DefaultSettings, so fields a client leaves out
// keep their defaults instead of zero.
func (s *GlobalSettings) UnmarshalJSON(data []byte) error {
	type plain GlobalSettings
	v := plain(DefaultSettings())
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = GlobalSettings(v)
	return nil
}

var catalogue = []Plugin{
	{Name: "removeDoctype", Enabled: true},
	{Name: "removeXMLProcInst", Enabled: true},
	{Name: "removeComments", Enabled: true},
	{Name: "removeMetadata", Enabled: true},
	{Name: "removeXMLNS", Enabled: false},
	{Name: "removeEditorsNSData", Enabled: true},
	{Name: "cleanupAttrs", Enabled: true},
	{Name: "mergeStyles", Enabled: true},
	{Name: "inlineStyles", Enabled: true},
	{Name: "minifyStyles", Enabled: true},
	{Name: "convertStyleToAttrs", Enabled: false},
	{Name: "cleanupIds", Enabled: true},
	{Name: "removeRasterImages", Enabled: false},
	{Name: "removeUselessDefs", Enabled: true},
	{Name: "cleanupNumericValues", Enabled: true},
	{Name: "cleanupListOfValues", Enabled: true},
	{Name: "convertColors", Enabled: true},
	{Name: "removeUnknownsAndDefaults", Enabled: true},
	{Name: "removeNonInheritableGroupAttrs", Enabled: true},
	{Name: "removeUselessStrokeAndFill", Enabled: true},
	{Name: "removeViewBox", Enabled: false},
	{Name: "cleanupEnableBackground", Enabled: true},
	{Name: "removeHiddenElems", Enabled: true},
	{Name: "removeEmptyText", Enabled: true},
	{Name: "convertShapeToPath", Enabled: false},
	{Name: "moveElemsAttrsToGroup", Enabled: true},
	{Name: "moveGroupAttrsToElems", Enabled: true},
	{Name: "collapseGroups", Enabled: true},
	{Name: "convertPathData", Enabled: true},
	{Name: "convertEllipseToCircle", Enabled: true},
	{Name: "convertTransform", Enabled: true},
	{Name: "removeEmptyAttrs", Enabled: true},
	{Name: "removeEmptyContainers", Enabled: true},
	{Name: "mergePaths", Enabled: true},
	{Name: "removeUnusedNS", Enabled: true},
	{Name: "reusePaths", Enabled: false},
	{Name: "sortAttrs", Enabled: false},
	{Name: "sortDefsChildren", Enabled: false},
	{Name: "removeTitle", Enabled: false},
	{Name: "removeDesc", Enabled: false},
	{Name: "removeDimensions", Enabled: false},
	{Name: "removeStyleElement", Enabled: false},
	{Name: "removeScriptElement", Enabled: false},
	{Name: "removeOffCanvasPaths", Enabled: false},
	{Name: "removeAttributesBySelector", Enabled: false},
}

var labels = map[string]string{
	"removeDoctype":                  "Remove doctype",
	"removeXMLProcInst":              "Remove XML instructions",
	"removeComments":                 "Remove comments",
	"removeMetadata":                 "Remove <metadata>",
	"removeXMLNS":                    "Remove xmlns",
	"removeEditorsNSData":            "Remove editor data",
	"cleanupAttrs":                   "Clean up attribute whitespace",
	"mergeStyles":                    "Merge styles",
	"inlineStyles":                   "Inline styles",
	"minifyStyles":                   "Minify styles",
	"convertStyleToAttrs":            "Style to attributes",
	"cleanupIds":                     "Clean up IDs",
	"removeRasterImages":             "Remove raster images",
	"removeUselessDefs":              "Remove unused defs",
	"cleanupNumericValues":           "Round/rewrite numbers",
	"cleanupListOfValues":            "Round/rewrite number lists",
	"convertColors":                  "Minify colours",
	"removeUnknownsAndDefaults":      "Remove unknowns & defaults",
	"removeNonInheritableGroupAttrs": "Remove unneeded group attrs",
	"removeUselessStrokeAndFill":     "Remove useless stroke & fill",
	"removeViewBox":                  "Remove viewBox",
	"cleanupEnableBackground":        "Remove/tidy enable-background",
	"removeHiddenElems":              "Remove hidden elements",
	"removeEmptyText":                "Remove empty text",
	"convertShapeToPath":             "Shapes to (smaller) paths",
	"moveElemsAttrsToGroup":          "Move attrs to parent group",
	"moveGroupAttrsToElems":          "Move group attrs to elements",
	"collapseGroups":                 "Collapse useless groups",
	"convertPathData":                "Round/rewrite paths",
	"convertEllipseToCircle":         "Convert non-eccentric <ellipse> to <circle>",
	"convertTransform":               "Round/rewrite transforms",
	"removeEmptyAttrs":               "Remove empty attrs",
	"removeEmptyContainers":          "Remove empty containers",
	"mergePaths":                     "Merge paths",
	"removeUnusedNS":                 "Remove unused namespaces",
	"reusePaths":                     "Replace duplicate elements with links",
	"sortAttrs":                      "Sort attrs",
	"sortDefsChildren":               "Sort children of <defs>",
	"removeTitle":                    "Remove <title>",
	"removeDesc":                     "Remove <desc>",
	"removeDimensions":               "Prefer viewBox to width/height",
	"removeStyleElement":             "Remove style elements",
	"removeScriptElement":            "Remove scripts",
	"removeOffCanvasPaths":           "Remove out-of-bounds paths",
	"removeAttributesBySelector":     "Remove deprecated attributes",
}

// presetDefault is the plugin set used when a configuration enables nothing.
var presetDefault = []string{
	"removeDoctype",
	"removeXMLProcInst",
	"removeComments",
	"removeMetadata",
	"removeEditorsNSData",
	"cleanupAttrs",
	"mergeStyles",
	"inlineStyles",
	"minifyStyles",
	"cleanupIds",
	"removeUselessDefs",
	"cleanupNumericValues",
	"convertColors",
	"removeUnknownsAndDefaults",
	"removeNonInheritableGroupAttrs",
	"removeUselessStrokeAndFill",
	"cleanupEnableBackground",
	"removeHiddenElems",
	"removeEmptyText",
	"convertShapeToPath",
	"convertEllipseToCircle",
	"moveElemsAttrsToGroup",
	"moveGroupAttrsToElems",
	"collapseGroups",
	"convertPathData",
	"convertTransform",
	"removeEmptyAttrs",
	"removeEmptyContainers",
	"mergePaths",
	"removeUnusedNS",
	"sortAttrs",
	"sortDefsChildren",
	"removeTitle",
	"removeDesc",
}

// PresetDefault is the name standing in for the default plugin set.
const PresetDefault = "preset-default"

// DefaultPlugins returns a fresh copy of the plugin catalogue with its
// default toggles.
func DefaultPlugins() []Plugin {
	out := make([]Plugin, len(catalogue))
	copy(out, catalogue)
	return out
}

// Label returns the human-readable label for a plugin, or the name itself
// when none is known.
func Label(name string) string {
	if l, ok := labels[name]; ok {
		return l
	}
	return name
}

// Known reports whether name is a plugin of the catalogue.
func Known(name string) bool {
	_, ok := labels[name]
	return ok
}
