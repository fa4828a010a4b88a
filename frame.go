package pngenc

import (
	"compress/zlib"
	"io"

	"github.com/pkg/errors"
)

// encodeImageData filters r's scanlines and streams the compressed
// result as IDAT (fdAT, if seq is non-nil) chunks to w. zw may be nil,
// in which case a new zlib.Writer is allocated; otherwise it is reset
// and reused, matching §5's "DEFLATE handle acquired at init, reset
// between frames." It returns the zlib.Writer for reuse on the next
// call.
func encodeImageData(zw *zlib.Writer, level CompressionLevel, w io.Writer, r *Raster, predictor Predictor, interlace bool, seq *uint32) (*zlib.Writer, error) {
	bpp, err := r.Format.bytesPerPixel()
	if err != nil {
		return zw, err
	}
	bitsPerPixel, err := r.Format.bitsPerPixel()
	if err != nil {
		return zw, err
	}

	effective := predictor
	if r.Format == Mono1 {
		// Byte-level predictors on packed bits inflate entropy.
		effective = PredictorNone
	}

	zw, streamer, err := newDeflateStream(zw, level, w, seq != nil, seq)
	if err != nil {
		return zw, err
	}

	if !interlace {
		if err := encodeRowsPlain(zw, r, bpp, effective); err != nil {
			return zw, err
		}
	} else {
		if err := encodeRowsInterlaced(zw, r, bpp, bitsPerPixel, effective); err != nil {
			return zw, err
		}
	}

	if err := zw.Close(); err != nil {
		return zw, errors.Wrap(ErrCompressionFailed, err.Error())
	}
	if err := streamer.finish(); err != nil {
		return zw, err
	}
	return zw, nil
}

func encodeRowsPlain(zw *zlib.Writer, r *Raster, bpp int, predictor Predictor) error {
	rowSize, err := r.Format.rowSize(r.Width)
	if err != nil {
		return err
	}
	bufSize := 1 + rowSize
	buf1 := make([]byte, bufSize)
	var buf2 []byte
	if predictor == PredictorMixed {
		buf2 = make([]byte, bufSize)
	}

	var top []byte
	for y := 0; y < r.Height; y++ {
		src := r.row(y)
		var filtered []byte
		if predictor == PredictorMixed {
			filtered, _ = chooseFilter(buf1, buf2, src, top, bpp)
		} else {
			filterRow(buf1, src, top, bpp, predictor)
			filtered = buf1[:1+len(src)]
		}
		if _, err := zw.Write(filtered); err != nil {
			return errors.Wrap(ErrCompressionFailed, err.Error())
		}
		top = src
	}
	return nil
}

func encodeRowsInterlaced(zw *zlib.Writer, r *Raster, bpp, bitsPerPixel int, predictor Predictor) error {
	for pass := 0; pass < 7; pass++ {
		passRowSize := adam7PassRowSize(pass, r.Width, bitsPerPixel)
		if passRowSize == 0 {
			continue
		}

		bufA := make([]byte, passRowSize)
		bufB := make([]byte, passRowSize)
		cur, prev := bufA, bufB

		fBufSize := 1 + passRowSize
		fBuf1 := make([]byte, fBufSize)
		var fBuf2 []byte
		if predictor == PredictorMixed {
			fBuf2 = make([]byte, fBufSize)
		}

		p := adam7Passes[pass]
		var top []byte
		for y := p.yStart; y < r.Height; y += p.yStep {
			if bitsPerPixel < 8 {
				for i := range cur {
					cur[i] = 0
				}
			}
			adam7Extract(cur, r.row(y), pass, r.Width, bitsPerPixel)

			var filtered []byte
			if predictor == PredictorMixed {
				filtered, _ = chooseFilter(fBuf1, fBuf2, cur, top, bpp)
			} else {
				filterRow(fBuf1, cur, top, bpp, predictor)
				filtered = fBuf1[:1+passRowSize]
			}
			if _, err := zw.Write(filtered); err != nil {
				return errors.Wrap(ErrCompressionFailed, err.Error())
			}

			top = cur
			cur, prev = prev, cur
		}
	}
	return nil
}
