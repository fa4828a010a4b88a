package pngenc

import "bytes"

// rect is a bounding rectangle in pixel coordinates, used by the
// inverse-blend search and the APNG sequencer built on top of it.
type rect struct {
	X, Y, W, H int
}

// formatSupportsOver reports whether f carries enough information
// (an alpha channel, or a palette with at least one fully-transparent
// entry) to express an OVER-blended sub-frame at all.
func formatSupportsOver(f PixelFormat, p *Palette) bool {
	switch f {
	case RGBA32, RGBA64BE, GrayAlpha8, GrayAlpha16BE:
		return true
	case Palette8:
		_, ok := transparentPaletteIndex(p)
		return ok
	default:
		return false
	}
}

func transparentPaletteIndex(p *Palette) (byte, bool) {
	if p == nil {
		return 0, false
	}
	for i, v := range p {
		if byte(v>>24) == 0 {
			return byte(i), true
		}
	}
	return 0, false
}

// inverseBlend mutates bg so that bg's rectangle, composited under
// blend against bg's original content, reproduces fg. It returns the
// minimal bounding rectangle of bytes that differ between fg and bg,
// or false if the OVER rule cannot express some pixel pair inside that
// rectangle (the caller then skips the candidate entirely). A format or
// palette that cannot express OVER at all is not a failure: OVER is
// downgraded to SOURCE for it.
func inverseBlend(bg, fg *Raster, blend BlendOp) (rect, bool) {
	bpp, err := fg.Format.bytesPerPixel()
	if err != nil {
		return rect{}, false
	}

	minX, minY, maxX, maxY := fg.Width, fg.Height, -1, -1
	for y := 0; y < fg.Height; y++ {
		bgRow, fgRow := bg.row(y), fg.row(y)
		for x := 0; x < fg.Width; x++ {
			if !bytes.Equal(bgRow[x*bpp:x*bpp+bpp], fgRow[x*bpp:x*bpp+bpp]) {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	effective := blend
	if blend == BlendOpOver && !formatSupportsOver(fg.Format, fg.Palette) {
		effective = BlendOpSource
	}

	if maxX < 0 {
		// No differing pixel; APNG forbids zero-sized frames, so the
		// sub-frame is rewritten to a single pixel at the origin.
		r := rect{0, 0, 1, 1}
		writeEmptyDiffPixel(bg, fg, effective, bpp)
		return r, true
	}

	r := rect{minX, minY, maxX - minX + 1, maxY - minY + 1}

	if effective == BlendOpSource {
		for y := r.Y; y < r.Y+r.H; y++ {
			bgRow, fgRow := bg.row(y), fg.row(y)
			copy(bgRow[r.X*bpp:(r.X+r.W)*bpp], fgRow[r.X*bpp:(r.X+r.W)*bpp])
		}
		return r, true
	}

	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			if !blendOverPixel(bg, fg, x, y, bpp) {
				return rect{}, false
			}
		}
	}
	return r, true
}

func writeEmptyDiffPixel(bg, fg *Raster, blend BlendOp, bpp int) {
	bgRow, fgRow := bg.row(0), fg.row(0)
	if blend == BlendOpSource {
		copy(bgRow[0:bpp], fgRow[0:bpp])
		return
	}
	switch fg.Format {
	case Palette8:
		idx, _ := transparentPaletteIndex(fg.Palette)
		bgRow[0] = idx
	default:
		for i := 0; i < bpp; i++ {
			bgRow[0+i] = 0
		}
	}
}

// blendOverPixel applies the OVER rule to one pixel already known to
// lie inside the candidate's bounding rectangle, mutating bg in place.
// It returns false when the pixel pair cannot be expressed as a single
// OVER-blended sub-image (partial alpha on both sides).
func blendOverPixel(bg, fg *Raster, x, y, bpp int) bool {
	switch fg.Format {
	case RGBA32, GrayAlpha8:
		return blendOverPixelByteAlpha(bg, fg, x, y, bpp)
	case RGBA64BE, GrayAlpha16BE:
		return blendOverPixelWordAlpha(bg, fg, x, y, bpp)
	case Palette8:
		return blendOverPixelPalette(bg, fg, x, y)
	default:
		return false
	}
}

func blendOverPixelByteAlpha(bg, fg *Raster, x, y, bpp int) bool {
	bgPix := bg.row(y)[x*bpp : x*bpp+bpp]
	fgPix := fg.row(y)[x*bpp : x*bpp+bpp]
	if bytes.Equal(bgPix, fgPix) {
		for i := range bgPix {
			bgPix[i] = 0
		}
		return true
	}
	if fgPix[bpp-1] == 0xFF || bgPix[bpp-1] == 0 {
		copy(bgPix, fgPix)
		return true
	}
	return false
}

func blendOverPixelWordAlpha(bg, fg *Raster, x, y, bpp int) bool {
	bgPix := bg.row(y)[x*bpp : x*bpp+bpp]
	fgPix := fg.row(y)[x*bpp : x*bpp+bpp]
	if bytes.Equal(bgPix, fgPix) {
		for i := range bgPix {
			bgPix[i] = 0
		}
		return true
	}
	fgOpaque := fgPix[bpp-2] == 0xFF && fgPix[bpp-1] == 0xFF
	bgTransparent := bgPix[bpp-2] == 0 && bgPix[bpp-1] == 0
	if fgOpaque || bgTransparent {
		copy(bgPix, fgPix)
		return true
	}
	return false
}

func blendOverPixelPalette(bg, fg *Raster, x, y int) bool {
	bgRow, fgRow := bg.row(y), fg.row(y)
	if bgRow[x] == fgRow[x] {
		idx, ok := transparentPaletteIndex(fg.Palette)
		if !ok {
			return false
		}
		bgRow[x] = idx
		return true
	}
	fgAlpha := byte(fg.Palette[fgRow[x]] >> 24)
	bgAlpha := byte(fg.Palette[bgRow[x]] >> 24)
	if fgAlpha == 0xFF || bgAlpha == 0 {
		bgRow[x] = fgRow[x]
		return true
	}
	return false
}

// subRaster returns a Raster viewing data's pixel buffer cropped to r,
// carrying meta's Palette and FrameMeta (the logical foreground frame's
// side data, since data may be a disposed/cloned canvas rather than the
// frame actually being encoded).
func subRaster(data, meta *Raster, r rect) *Raster {
	bpp, _ := data.Format.bytesPerPixel()
	base := r.Y*data.Stride + r.X*bpp
	return &Raster{
		Width:   r.W,
		Height:  r.H,
		Format:  data.Format,
		Pix:     data.Pix[base:],
		Stride:  data.Stride,
		Palette: meta.Palette,
		Meta:    meta.Meta,
	}
}

func clearRect(r *Raster, x, y, w, h int) {
	bpp, _ := r.Format.bytesPerPixel()
	for row := y; row < y+h; row++ {
		line := r.row(row)
		for i := x * bpp; i < (x+w)*bpp; i++ {
			line[i] = 0
		}
	}
}
