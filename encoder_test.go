package pngenc

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"testing"
)

func TestEncodeFrameStillPNGStructure(t *testing.T) {
	enc, err := NewEncoder(Options{Predictor: PredictorNone})
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	r := &Raster{Width: 1, Height: 1, Format: RGB24, Pix: []byte{0xFF, 0x00, 0x00}, Stride: 3}
	var buf bytes.Buffer
	n, err := enc.EncodeFrame(&buf, r)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if n != buf.Len() {
		t.Fatalf("reported %d bytes written, buffer holds %d", n, buf.Len())
	}

	chunks := parseChunks(t, buf.Bytes())
	if len(chunks) < 4 {
		t.Fatalf("got %d chunks, want at least signature+IHDR+pHYs+IDAT+IEND", len(chunks))
	}
	wantOrder := []string{"IHDR", "pHYs"}
	for i, want := range wantOrder {
		if chunks[i].tag != want {
			t.Fatalf("chunk %d = %s, want %s", i, chunks[i].tag, want)
		}
	}
	if chunks[len(chunks)-1].tag != "IEND" {
		t.Fatalf("last chunk = %s, want IEND", chunks[len(chunks)-1].tag)
	}

	ihdr := chunks[0].payload
	w := binary.BigEndian.Uint32(ihdr[0:4])
	h := binary.BigEndian.Uint32(ihdr[4:8])
	if w != 1 || h != 1 {
		t.Fatalf("IHDR dims = %dx%d, want 1x1", w, h)
	}
	if ihdr[8] != byte(BitDepth8) || ihdr[9] != byte(ColorTypeTrueColor) {
		t.Fatalf("IHDR bit depth/color type = %d/%d, want %d/%d", ihdr[8], ihdr[9], BitDepth8, ColorTypeTrueColor)
	}
}

func TestEncodeFrameRejectsUnsupportedFormat(t *testing.T) {
	enc, err := NewEncoder(Options{})
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	r := &Raster{Width: 1, Height: 1, Format: PixelFormat(200), Pix: []byte{0}, Stride: 1}
	var buf bytes.Buffer
	if _, err := enc.EncodeFrame(&buf, r); err != ErrUnsupportedPixelFormat {
		t.Fatalf("err = %v, want ErrUnsupportedPixelFormat", err)
	}
}

func TestNewEncoderRejectsConflictingDensity(t *testing.T) {
	if _, err := NewEncoder(Options{DPI: 300, DPM: 1000}); err == nil {
		t.Fatal("expected an error for both DPI and DPM set")
	}
}

func TestPacketSizeMonotonicInHeight(t *testing.T) {
	small, err := PacketSize(100, 10, 24, false)
	if err != nil {
		t.Fatalf("PacketSize: %v", err)
	}
	large, err := PacketSize(100, 1000, 24, false)
	if err != nil {
		t.Fatalf("PacketSize: %v", err)
	}
	if large <= small {
		t.Fatalf("PacketSize(height=1000) = %d, want > PacketSize(height=10) = %d", large, small)
	}
}

func TestPacketSizeRejectsNonPositiveDimensions(t *testing.T) {
	if _, err := PacketSize(0, 10, 24, false); err == nil {
		t.Fatal("expected an error for zero width")
	}
}

// unfilterRows inverts PNG's five scanline predictors, turning the
// decompressed IDAT stream back into the packed pixel bytes a Raster
// would hold.
func unfilterRows(data []byte, height, rowSize, bpp int) []byte {
	out := make([]byte, height*rowSize)
	var top []byte
	off := 0
	for y := 0; y < height; y++ {
		id := data[off]
		src := data[off+1 : off+1+rowSize]
		dst := out[y*rowSize : y*rowSize+rowSize]
		switch Predictor(id) {
		case PredictorNone:
			copy(dst, src)
		case PredictorSub:
			for i, s := range src {
				var a byte
				if i >= bpp {
					a = dst[i-bpp]
				}
				dst[i] = s + a
			}
		case PredictorUp:
			for i, s := range src {
				var b byte
				if top != nil {
					b = top[i]
				}
				dst[i] = s + b
			}
		case PredictorAvg:
			for i, s := range src {
				var a int
				if i >= bpp {
					a = int(dst[i-bpp])
				}
				var b int
				if top != nil {
					b = int(top[i])
				}
				dst[i] = s + byte((a+b)/2)
			}
		case PredictorPaeth:
			for i, s := range src {
				var a, c byte
				if i >= bpp {
					a = dst[i-bpp]
					if top != nil {
						c = top[i-bpp]
					}
				}
				var b byte
				if top != nil {
					b = top[i]
				}
				dst[i] = s + paethPredictor(a, b, c)
			}
		}
		top = dst
		off += 1 + rowSize
	}
	return out
}

func decodeIDATPixels(t *testing.T, png []byte, width, height, bpp int) []byte {
	t.Helper()
	chunks := parseChunks(t, png)
	var compressed bytes.Buffer
	for _, c := range chunks {
		if c.tag == "IDAT" {
			compressed.Write(c.payload)
		}
	}
	zr, err := zlib.NewReader(&compressed)
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("reading inflated stream: %v", err)
	}
	rowSize := width * bpp
	return unfilterRows(raw, height, rowSize, bpp)
}

func TestEncodeFrameRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		format    PixelFormat
		bpp       int
		pix       []byte
		predictor Predictor
	}{
		{
			name: "RGB24/None", format: RGB24, bpp: 3,
			pix:       []byte{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120},
			predictor: PredictorNone,
		},
		{
			name: "RGB24/Sub", format: RGB24, bpp: 3,
			pix:       []byte{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120},
			predictor: PredictorSub,
		},
		{
			name: "RGBA32/Paeth", format: RGBA32, bpp: 4,
			pix: []byte{
				1, 2, 3, 255, 4, 5, 6, 255,
				7, 8, 9, 128, 10, 11, 12, 0,
			},
			predictor: PredictorPaeth,
		},
		{
			name: "RGBA32/Mixed", format: RGBA32, bpp: 4,
			pix: []byte{
				1, 2, 3, 255, 4, 5, 6, 255,
				7, 8, 9, 128, 10, 11, 12, 0,
			},
			predictor: PredictorMixed,
		},
		{
			name: "Palette8/Up", format: Palette8, bpp: 1,
			pix:       []byte{0, 1, 2, 3},
			predictor: PredictorUp,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			const width, height = 2, 2
			var pal *Palette
			if c.format == Palette8 {
				var p Palette
				for i := range p {
					p[i] = 0xFF000000 | uint32(i)
				}
				pal = &p
			}
			r := &Raster{
				Width: width, Height: height, Format: c.format,
				Pix: c.pix, Stride: width * c.bpp, Palette: pal,
			}

			enc, err := NewEncoder(Options{Predictor: c.predictor})
			if err != nil {
				t.Fatalf("NewEncoder: %v", err)
			}
			var buf bytes.Buffer
			if _, err := enc.EncodeFrame(&buf, r); err != nil {
				t.Fatalf("EncodeFrame: %v", err)
			}

			got := decodeIDATPixels(t, buf.Bytes(), width, height, c.bpp)
			if !bytes.Equal(got, c.pix) {
				t.Fatalf("round-trip mismatch:\n got  %v\n want %v", got, c.pix)
			}
		})
	}
}
