package export

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

const square = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect x="0" y="0" width="10" height="10" fill="#ff0000"/></svg>`

const corner = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect x="0" y="0" width="5" height="5" fill="#0000ff"/></svg>`

func TestRenderScale(t *testing.T) {
	img, err := Render(square, 2)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("unexpected size %v", b)
	}
	r, g, b, a := img.At(10, 10).RGBA()
	if r>>8 < 250 || g>>8 > 5 || b>>8 > 5 || a>>8 < 250 {
		t.Fatalf("expected red centre, got %d %d %d %d", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestRenderClampsScale(t *testing.T) {
	img, err := Render(square, 100)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 10*MaxScale {
		t.Fatalf("scale not clamped: %v", img.Bounds())
	}
	img, _ = Render(square, 0)
	if img.Bounds().Dx() != 10 {
		t.Fatalf("zero scale should default to 1: %v", img.Bounds())
	}
}

func TestRasterizePNG(t *testing.T) {
	data, err := Rasterize(corner, Options{Format: PNG, Width: 40})
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 40 {
		t.Fatalf("width not applied: %v", img.Bounds())
	}
	if _, _, _, a := img.At(35, 35).RGBA(); a != 0 {
		t.Fatal("png background should stay transparent")
	}
}

func TestRasterizeJPEGFlattensOnWhite(t *testing.T) {
	data, err := Rasterize(corner, Options{Format: "jpg", Scale: 4, Quality: 95})
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("jpeg.Decode: %v", err)
	}
	r, g, b, _ := img.At(36, 36).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Fatalf("expected white background, got %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestRasterizeBackground(t *testing.T) {
	data, err := Rasterize(corner, Options{Format: PNG, Background: "black"})
	if err != nil {
		t.Fatal(err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, a := img.At(8, 8).RGBA()
	if r != 0 || g != 0 || b != 0 || a>>8 != 255 {
		t.Fatalf("expected opaque black, got %d %d %d %d", r, g, b, a)
	}
}

func TestRasterizeErrors(t *testing.T) {
	if _, err := Rasterize(square, Options{Format: "gif"}); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if _, err := Rasterize(square, Options{Background: "notacolour"}); !errors.Is(err, ErrBadColor) {
		t.Fatalf("expected ErrBadColor, got %v", err)
	}
	if _, err := Rasterize(square, Options{Width: MaxDimension + 1}); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestRasterizeCapsDerivedHeight(t *testing.T) {
	tall := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 1000"><rect width="10" height="1000"/></svg>`
	if _, err := Rasterize(tall, Options{Width: 200}); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge for a 200x20000 resize, got %v", err)
	}

	out, err := Rasterize(tall, Options{Width: 5})
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 5 || b.Dy() != 500 {
		t.Fatalf("unexpected size %v", b)
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]color.Color{
		"":        nil,
		"none":    nil,
		"#fff":    color.RGBA{0xff, 0xff, 0xff, 0xff},
		"#102030": color.RGBA{0x10, 0x20, 0x30, 0xff},
		"Red":     color.RGBA{0xff, 0, 0, 0xff},
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseColor(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseColor("#12"); !errors.Is(err, ErrBadColor) {
		t.Fatalf("expected ErrBadColor, got %v", err)
	}
}

func TestFormatHelpers(t *testing.T) {
	if JPEG.ContentType() != "image/jpeg" || PNG.Extension() != ".png" {
		t.Fatal("unexpected format metadata")
	}
}
