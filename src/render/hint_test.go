package render

import (
	"image"
	"testing"
)

func TestDrawHintKeepsBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	out := DrawHint(src, "VG3 = 0.5, no filters")
	if out == nil {
		t.Fatalf("DrawHint returned nil")
	}
	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds changed: %v vs %v", out.Bounds(), src.Bounds())
	}
	if out == image.Image(src) {
		t.Fatalf("DrawHint must draw on a copy, not the input")
	}
}

func TestDrawHintEmptyTextNoop(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if out := DrawHint(src, "   "); out != image.Image(src) {
		t.Fatalf("blank text should return the input unchanged")
	}
}
