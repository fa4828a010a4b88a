package pngenc

import "testing"

func makeRaster(f PixelFormat, w, h int, pix []byte, pal *Palette) *Raster {
	bpp, _ := f.bytesPerPixel()
	return &Raster{Width: w, Height: h, Format: f, Pix: pix, Stride: w * bpp, Palette: pal}
}

func TestInverseBlendBoundingBox(t *testing.T) {
	// 4x1 gray image, foreground differs from background only at x=1,2.
	bg := makeRaster(Gray8, 4, 1, []byte{10, 10, 10, 10}, nil)
	fg := makeRaster(Gray8, 4, 1, []byte{10, 99, 98, 10}, nil)

	r, ok := inverseBlend(bg, fg, BlendOpSource)
	if !ok {
		t.Fatal("inverseBlend failed")
	}
	if r != (rect{X: 1, Y: 0, W: 2, H: 1}) {
		t.Fatalf("bounding rect = %+v, want {1 0 2 1}", r)
	}
	if bg.Pix[1] != 99 || bg.Pix[2] != 98 {
		t.Fatalf("SOURCE blend did not overwrite the rectangle: %v", bg.Pix)
	}
}

func TestInverseBlendEmptyDiffIsOnePixel(t *testing.T) {
	bg := makeRaster(Gray8, 3, 3, make([]byte, 9), nil)
	fg := makeRaster(Gray8, 3, 3, make([]byte, 9), nil)
	r, ok := inverseBlend(bg, fg, BlendOpSource)
	if !ok {
		t.Fatal("inverseBlend failed")
	}
	if r != (rect{X: 0, Y: 0, W: 1, H: 1}) {
		t.Fatalf("empty-diff rect = %+v, want {0 0 1 1}", r)
	}
}

func TestInverseBlendOverCopiesOpaqueChangedPixel(t *testing.T) {
	// RGBA, 2 pixels wide: pixel 0 unchanged, pixel 1 changes to opaque red.
	bg := makeRaster(RGBA32, 2, 1, []byte{1, 2, 3, 255, 5, 6, 7, 255}, nil)
	fg := makeRaster(RGBA32, 2, 1, []byte{1, 2, 3, 255, 255, 0, 0, 255}, nil)

	r, ok := inverseBlend(bg, fg, BlendOpOver)
	if !ok {
		t.Fatal("inverseBlend failed")
	}
	if r != (rect{X: 1, Y: 0, W: 1, H: 1}) {
		t.Fatalf("bounding rect = %+v, want {1 0 1 1}", r)
	}
	got := bg.Pix[4:8]
	want := []byte{255, 0, 0, 255}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("OVER pixel = %v, want %v", got, want)
		}
	}
}

func TestInverseBlendOverFailsOnPartialAlphaOverlap(t *testing.T) {
	bg := makeRaster(RGBA32, 1, 1, []byte{10, 10, 10, 128}, nil)
	fg := makeRaster(RGBA32, 1, 1, []byte{20, 20, 20, 64}, nil)
	if _, ok := inverseBlend(bg, fg, BlendOpOver); ok {
		t.Fatal("expected OVER blend to fail for two partially-transparent, differing pixels")
	}
}

func TestInverseBlendPaletteNoTransparentSlotFallsBackToSource(t *testing.T) {
	var pal Palette
	for i := range pal {
		pal[i] = 0xFF000000 // fully opaque, no transparent entry
	}
	bg := makeRaster(Palette8, 2, 1, []byte{0, 0}, &pal)
	fg := makeRaster(Palette8, 2, 1, []byte{0, 1}, &pal)

	r, ok := inverseBlend(bg, fg, BlendOpOver)
	if !ok {
		t.Fatal("expected OVER to degrade to SOURCE, not fail")
	}
	if r != (rect{X: 1, Y: 0, W: 1, H: 1}) {
		t.Fatalf("bounding rect = %+v, want {1 0 1 1}", r)
	}
	if bg.Pix[1] != 1 {
		t.Fatalf("SOURCE fallback did not copy the foreground index: got %d, want 1", bg.Pix[1])
	}
}

func TestInverseBlendPaletteOverUsesTransparentSlot(t *testing.T) {
	var pal Palette
	pal[0] = 0xFF111111
	pal[1] = 0xFF222222
	pal[2] = 0xFF333333
	pal[3] = 0xFF444444
	pal[4] = 0x00000000 // transparent entry

	// x=0 and x=2 change; x=1 (inside the bounding box) is unchanged
	// and must come out as the transparent index, not its own index.
	bg := makeRaster(Palette8, 3, 1, []byte{0, 1, 0}, &pal)
	fg := makeRaster(Palette8, 3, 1, []byte{2, 1, 3}, &pal)

	r, ok := inverseBlend(bg, fg, BlendOpOver)
	if !ok {
		t.Fatal("inverseBlend failed despite a transparent slot being available")
	}
	if r != (rect{X: 0, Y: 0, W: 3, H: 1}) {
		t.Fatalf("bounding rect = %+v, want {0 0 3 1}", r)
	}
	want := []byte{2, 4, 3}
	for i, w := range want {
		if bg.Pix[i] != w {
			t.Fatalf("bg.Pix = %v, want %v", bg.Pix, want)
		}
	}
}
