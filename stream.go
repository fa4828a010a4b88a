package pngenc

import (
	"compress/zlib"
	"io"

	"github.com/pkg/errors"
)

// ioBufSize is the size of the compressor's output scratch buffer; a
// chunk is flushed every time this many compressed bytes accumulate.
const ioBufSize = 4096

// imageDataStreamer is the io.Writer a frame's zlib.Writer writes its
// compressed output into. It slices that output into fixed-size IDAT or
// fdAT chunks, incrementing the APNG sequence counter as each fdAT is
// written, the same way a C encoder driving zlib's avail_out would.
type imageDataStreamer struct {
	w    io.Writer
	buf  [ioBufSize]byte
	n    int
	fdAT bool
	seq  *uint32 // only consulted when fdAT is true
}

func (s *imageDataStreamer) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		space := len(s.buf) - s.n
		if space > len(p) {
			space = len(p)
		}
		copy(s.buf[s.n:], p[:space])
		s.n += space
		p = p[space:]
		if s.n == len(s.buf) {
			if err := s.emit(s.buf[:s.n]); err != nil {
				return total - len(p), err
			}
			s.n = 0
		}
	}
	return total, nil
}

func (s *imageDataStreamer) emit(b []byte) error {
	if !s.fdAT {
		return errors.Wrap(writeChunk(s.w, "IDAT", b, nil), "writing IDAT")
	}
	if err := writeChunk(s.w, "fdAT", b, s.seq); err != nil {
		return errors.Wrap(err, "writing fdAT")
	}
	*s.seq++
	return nil
}

// finish flushes any partially-filled scratch buffer as a final chunk.
func (s *imageDataStreamer) finish() error {
	if s.n == 0 {
		return nil
	}
	err := s.emit(s.buf[:s.n])
	s.n = 0
	return err
}

// newDeflateStream resets zw (or, if nil, allocates one) to compress
// into a fresh imageDataStreamer over w, and returns both. The zlib
// handle is reused across frames; compress/zlib's Reset clears its
// internal dictionary the same way the spec's "reset between frames"
// requires.
func newDeflateStream(zw *zlib.Writer, level CompressionLevel, w io.Writer, fdAT bool, seq *uint32) (*zlib.Writer, *imageDataStreamer, error) {
	s := &imageDataStreamer{w: w, fdAT: fdAT, seq: seq}
	if zw == nil {
		z, err := zlib.NewWriterLevel(s, level.zlib())
		if err != nil {
			return nil, nil, errors.Wrap(ErrCompressionFailed, err.Error())
		}
		return z, s, nil
	}
	zw.Reset(s)
	return zw, s, nil
}

func (l CompressionLevel) zlib() int {
	switch l {
	case DefaultCompression:
		return zlib.DefaultCompression
	case NoCompression:
		return zlib.NoCompression
	case BestSpeed:
		return zlib.BestSpeed
	case BestCompression:
		return zlib.BestCompression
	default:
		if l > 0 && int(l) <= zlib.BestCompression {
			return int(l)
		}
		return zlib.DefaultCompression
	}
}
