package pngenc

// adam7Pass describes one of PNG's seven interlace passes: the starting
// column/row and the column/row stride a surviving pixel must satisfy.
type adam7Pass struct {
	xStart, yStart, xStep, yStep int
}

var adam7Passes = [7]adam7Pass{
	{0, 0, 8, 8},
	{4, 0, 8, 8},
	{0, 4, 4, 8},
	{2, 0, 4, 4},
	{0, 2, 2, 4},
	{1, 0, 2, 2},
	{0, 1, 1, 2},
}

// adam7Cols returns the number of columns (surviving pixels per row)
// pass p contributes for an image of the given width.
func adam7Cols(p, width int) int {
	pass := adam7Passes[p]
	if width <= pass.xStart {
		return 0
	}
	return (width - pass.xStart + pass.xStep - 1) / pass.xStep
}

// adam7Rows returns the number of rows pass p contributes for an image
// of the given height.
func adam7Rows(p, height int) int {
	pass := adam7Passes[p]
	if height <= pass.yStart {
		return 0
	}
	return (height - pass.yStart + pass.yStep - 1) / pass.yStep
}

// adam7PassRowSize returns the packed byte width of one scanline of
// pass p, or 0 if the pass contributes no pixels at this width/depth.
func adam7PassRowSize(p, width, bitsPerPixel int) int {
	cols := adam7Cols(p, width)
	if cols == 0 {
		return 0
	}
	return (cols*bitsPerPixel + 7) / 8
}

// adam7Extract packs the surviving pixels of pass p's current row into
// dst, given the full-width unfiltered source row src. dst must be
// zeroed by the caller when bitsPerPixel < 8, since sub-byte packing
// only sets bits. It returns the number of pixels written.
func adam7Extract(dst, src []byte, p, width, bitsPerPixel int) int {
	pass := adam7Passes[p]
	if bitsPerPixel < 8 {
		// Only 1-bit monochrome reaches this path in this encoder.
		n := 0
		for x := pass.xStart; x < width; x += pass.xStep {
			bit := (src[x>>3] >> (7 - uint(x&7))) & 1
			if bit != 0 {
				dst[n>>3] |= 1 << (7 - uint(n&7))
			}
			n++
		}
		return n
	}

	bpp := bitsPerPixel / 8
	n := 0
	for x := pass.xStart; x < width; x += pass.xStep {
		copy(dst[n*bpp:n*bpp+bpp], src[x*bpp:x*bpp+bpp])
		n++
	}
	return n
}
