// Package export rasterizes SVG markup to PNG or JPEG.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/colornames"
)

type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

const (
	MaxScale       = 8
	MaxDimension   = 8192
	DefaultQuality = 90

	// Used when the document has neither a viewBox nor a size.
	fallbackWidth  = 300
	fallbackHeight = 150
)

var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrBadColor      = errors.New("unknown background colour")
	ErrTooLarge      = errors.New("export dimensions too large")
	ErrRender        = errors.New("cannot render SVG")
)

// Options control rasterization. Zero values pick the defaults.
type Options struct {
	Format     Format  `json:"format"`
	Scale      float64 `json:"scale,omitempty"`
	Width      int     `json:"width,omitempty"`
	Background string  `json:"background,omitempty"`
	Quality    int     `json:"quality,omitempty"`
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "png", "":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

func (f Format) Extension() string {
	if f == JPEG {
		return ".jpg"
	}
	return ".png"
}

// Rasterize renders svg and encodes it. PNG keeps transparency unless a
// background is given; JPEG is always flattened, on white by default.
func Rasterize(svg string, opts Options) ([]byte, error) {
	f, err := ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	bg, err := ParseColor(opts.Background)
	if err != nil {
		return nil, err
	}

	img, err := Render(svg, opts.Scale)
	if err != nil {
		return nil, err
	}
	if opts.Width > 0 && opts.Width != img.Bounds().Dx() {
		b := img.Bounds()
		h := int(math.Ceil(float64(opts.Width) * float64(b.Dy()) / float64(b.Dx())))
		if opts.Width > MaxDimension || h > MaxDimension {
			return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, opts.Width, h)
		}
		img = imaging.Resize(img, opts.Width, 0, imaging.Lanczos)
	}

	if f == JPEG && bg == nil {
		bg = color.White
	}
	var out image.Image = img
	if bg != nil {
		b := img.Bounds()
		out = imaging.Overlay(imaging.New(b.Dx(), b.Dy(), bg), img, image.Pt(0, 0), 1)
	}

	var buf bytes.Buffer
	switch f {
	case JPEG:
		q := opts.Quality
		if q <= 0 || q > 100 {
			q = DefaultQuality
		}
		err = imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(q))
	default:
		err = imaging.Encode(&buf, out, imaging.PNG)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f, err)
	}
	return buf.Bytes(), nil
}

// Render draws svg onto a transparent RGBA image at scale times its
// intrinsic size.
func Render(svg string, scale float64) (*image.NRGBA, error) {
	if scale <= 0 {
		scale = 1
	}
	if scale > MaxScale {
		scale = MaxScale
	}

	icon, err := oksvg.ReadIconStream(strings.NewReader(svg), oksvg.WarnErrorMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if vw <= 0 || vh <= 0 {
		icon.ViewBox.W, icon.ViewBox.H = fallbackWidth, fallbackHeight
		vw, vh = fallbackWidth, fallbackHeight
	}

	w := int(math.Ceil(vw * scale))
	h := int(math.Ceil(vh * scale))
	if w > MaxDimension || h > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, w, h)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return imaging.Clone(rgba), nil
}

// ParseColor accepts "", "transparent", #rgb, #rrggbb or a CSS colour name.
// It returns nil for no background.
func ParseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "" || s == "transparent" || s == "none":
		return nil, nil
	case strings.HasPrefix(s, "#"):
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return nil, fmt.Errorf("%w: %q", ErrBadColor, s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadColor, s)
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	}
	c, ok := colornames.Map[s]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	return c, nil
}
