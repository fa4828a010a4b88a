package pngenc

import (
	"compress/zlib"
	"io"
	"math"

	"github.com/pkg/errors"
)

// Options configures an Encoder or APNGEncoder. Values are validated
// and resolved once, at construction, rather than on first use.
type Options struct {
	// DPI is the physical pixel density in dots per inch. Mutually
	// exclusive with DPM.
	DPI float64
	// DPM is the physical pixel density in dots per meter.
	DPM int

	Predictor         Predictor
	CompressionLevel  CompressionLevel
	Interlace         bool

	// Logger receives non-fatal warnings. Nil selects a stderr default;
	// use NoLogger to discard warnings entirely.
	Logger Logger
}

// resolveOptions validates opts and computes its derived fields.
func resolveOptions(opts Options) (dpm int, logger Logger, err error) {
	if opts.DPI > 0 && opts.DPM > 0 {
		return 0, nil, errors.Wrap(ErrInvalidConfig, "dpi and dpm are mutually exclusive")
	}
	if opts.Predictor > PredictorMixed {
		return 0, nil, errors.Wrapf(ErrInvalidConfig, "unknown predictor %d", opts.Predictor)
	}
	if opts.CompressionLevel < BestCompression || opts.CompressionLevel > 9 {
		return 0, nil, errors.Wrapf(ErrInvalidConfig, "compression level %d out of range", opts.CompressionLevel)
	}
	dpm = opts.DPM
	if opts.DPI > 0 {
		dpm = int(opts.DPI * 10000 / 254)
	}
	logger = opts.Logger
	if logger == nil {
		logger = defaultLogger()
	}
	return dpm, logger, nil
}

// Encoder writes still PNG images: one call to EncodeFrame per image,
// each producing a complete, self-contained file. It holds no state
// across calls beyond a reusable DEFLATE handle.
type Encoder struct {
	opts   Options
	dpm    int
	logger Logger
	zw     *zlib.Writer
}

// NewEncoder validates opts and constructs an Encoder. Invalid option
// combinations fail here rather than on first use.
func NewEncoder(opts Options) (*Encoder, error) {
	dpm, logger, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Encoder{opts: opts, dpm: dpm, logger: logger}, nil
}

// EncodeFrame writes a complete PNG file for r to w: signature, IHDR,
// optional metadata and palette chunks, filtered and compressed image
// data, and IEND. It returns the number of bytes written.
func (e *Encoder) EncodeFrame(w io.Writer, r *Raster) (int, error) {
	ct, bd, ok := r.Format.colorType()
	if !ok {
		return 0, ErrUnsupportedPixelFormat
	}

	cw := &countingWriter{w: w}
	if err := writeSignature(cw); err != nil {
		return cw.n, err
	}

	interlace := InterlaceNone
	if e.opts.Interlace {
		interlace = InterlaceAdam7
	}
	hp := headerParams{
		Width: r.Width, Height: r.Height,
		BitDepth: bd, ColorType: ct, Interlace: interlace,
		DPM: e.dpm, Meta: r.Meta, Palette: r.Palette,
	}
	if err := writeHeaders(cw, hp, e.logger); err != nil {
		return cw.n, err
	}

	zw, err := encodeImageData(e.zw, e.opts.CompressionLevel, cw, r, e.opts.Predictor, e.opts.Interlace, nil)
	e.zw = zw
	if err != nil {
		return cw.n, err
	}

	if err := writeChunk(cw, "IEND", nil, nil); err != nil {
		return cw.n, errors.Wrap(err, "writing IEND")
	}
	return cw.n, nil
}

// Close releases the Encoder's DEFLATE handle. The Encoder must not be
// used afterward.
func (e *Encoder) Close() error {
	e.zw = nil
	return nil
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// deflateBound conservatively over-estimates the compressed size of n
// bytes, mirroring zlib's own deflateBound: in the worst case DEFLATE
// cannot shrink incompressible input, so the bound is the input size
// plus a small fraction for stored-block overhead plus the zlib
// header/trailer.
func deflateBound(n int) int {
	return n + n/1000 + 12 + 6
}

// PacketSize computes the worst-case number of bytes a caller's output
// buffer must hold to receive one encoded frame of the given geometry,
// per §6's sizing formula. It may be called before an Encoder exists.
// fdAT selects the 16-byte-per-chunk APNG framing overhead instead of
// IDAT's 12.
func PacketSize(width, height, bitsPerPixel int, fdAT bool) (int, error) {
	if width <= 0 || height <= 0 || bitsPerPixel <= 0 {
		return 0, errors.Wrap(ErrInvalidConfig, "width, height, and bitsPerPixel must be positive")
	}

	rowBytes := (width*bitsPerPixel + 7) / 8
	bound := deflateBound(1 + rowBytes)

	framingOverhead := 12
	if fdAT {
		framingOverhead = 16
	}
	chunksPerRow := (bound + ioBufSize - 1) / ioBufSize
	if chunksPerRow < 1 {
		chunksPerRow = 1
	}

	const minHeaders = 8 /* signature */ + 25 /* IHDR */ + 21 /* pHYs */ + 12 /* IEND */

	total := minHeaders + height*(bound+framingOverhead*chunksPerRow)
	if total < 0 || int64(total) > math.MaxInt32 {
		return 0, errors.Wrap(ErrOutOfMemory, "packet size exceeds int32 range")
	}
	return total, nil
}
