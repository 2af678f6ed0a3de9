package svgdoc

import (
	"fmt"

	"github.com/rustyoz/svg"
)

// Info is a quick summary of a document's declared geometry.
type Info struct {
	Title   string `json:"title,omitempty"`
	Width   string `json:"width,omitempty"`
	Height  string `json:"height,omitempty"`
	ViewBox string `json:"viewBox,omitempty"`
}

// Inspect reads the declared title and dimensions of s.
func Inspect(s string) (Info, error) {
	doc, err := svg.ParseSvg(s, "", 1)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotSVG, err)
	}
	return Info{
		Title:   doc.Title,
		Width:   doc.Width,
		Height:  doc.Height,
		ViewBox: doc.ViewBox,
	}, nil
}
