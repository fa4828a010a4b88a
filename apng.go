package pngenc

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// FrameControl carries the per-frame timing a caller attaches to an
// APNG frame. The core leaves delay interpretation to the muxer; it
// only plumbs the values through to the emitted fcTL chunk.
type FrameControl struct {
	DelayNum, DelayDen uint16
}

// apngPending is a fully-encoded frame whose fcTL.dispose_op is not
// yet known: it is held back until the next call to EncodeFrame (or
// Flush) pins down how this frame's canvas is disposed of.
type apngPending struct {
	x, y, w, h int
	blend      BlendOp
	delay      FrameControl
	seq        uint32
	data       []byte // IDAT (frame 0) or fully seq-stamped fdAT chunks
}

// APNGEncoder sequences a stream of raster frames into an Animated PNG
// stream: the signature and header chunks (written once, ahead of the
// first frame), then each frame's fcTL and image-data chunks. It writes
// neither acTL nor IEND. It runs with one-frame lookahead: each
// call to EncodeFrame may emit the *previous* frame, once this frame's
// arrival has determined how the previous one disposes.
type APNGEncoder struct {
	opts   Options
	dpm    int
	logger Logger
	w      io.Writer
	zw     *zlib.Writer

	seq        uint32
	frameIndex int

	paletteChecksum uint32
	paletteSet      bool

	headerBytes []byte // signature + IHDR + metadata + palette; written once
	lastFrame   *Raster
	prevFrame   *Raster
	pending     *apngPending
}

// NewAPNGEncoder validates opts and constructs an APNGEncoder that
// writes to w as frames are committed.
func NewAPNGEncoder(w io.Writer, opts Options) (*APNGEncoder, error) {
	dpm, logger, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	return &APNGEncoder{opts: opts, dpm: dpm, logger: logger, w: w}, nil
}

// EncodeFrame accepts the next raster in display order. The encoded
// bytes for this frame are not written immediately; they are written
// on a later call (or Flush) once this frame's dispose_op is decided.
func (e *APNGEncoder) EncodeFrame(r *Raster, delay FrameControl) error {
	if r.Format == Palette8 {
		cs := r.Palette.checksum()
		if e.paletteSet {
			if cs != e.paletteChecksum {
				return errors.Wrap(ErrPaletteConflict, "apng frame palette does not match frame 0")
			}
		} else {
			e.paletteChecksum = cs
			e.paletteSet = true
		}
	}

	if e.frameIndex == 0 {
		if err := e.stashFrame0(r, delay); err != nil {
			return err
		}
		e.frameIndex++
		return nil
	}

	if err := e.searchAndCommit(r, delay); err != nil {
		return err
	}
	e.frameIndex++
	return nil
}

// Flush writes the final held-back frame with dispose_op = NONE, since
// there is no later frame left to optimize its disposal against.
func (e *APNGEncoder) Flush() error {
	if e.pending == nil {
		return nil
	}
	if err := e.emitPending(DisposeOpNone); err != nil {
		return err
	}
	e.pending = nil
	return nil
}

// Close releases the APNGEncoder's DEFLATE handle. Call Flush first to
// emit the last frame; Close does not do so implicitly.
func (e *APNGEncoder) Close() error {
	e.zw = nil
	return nil
}

func (e *APNGEncoder) stashFrame0(r *Raster, delay FrameControl) error {
	full := r.clone()

	ct, bd, ok := r.Format.colorType()
	if !ok {
		return ErrUnsupportedPixelFormat
	}
	interlace := InterlaceNone
	if e.opts.Interlace {
		interlace = InterlaceAdam7
	}

	var hbuf bytes.Buffer
	if err := writeSignature(&hbuf); err != nil {
		return err
	}
	hp := headerParams{
		Width: r.Width, Height: r.Height,
		BitDepth: bd, ColorType: ct, Interlace: interlace,
		DPM: e.dpm, Meta: r.Meta, Palette: r.Palette,
	}
	if err := writeHeaders(&hbuf, hp, e.logger); err != nil {
		return err
	}
	e.headerBytes = hbuf.Bytes()

	var dbuf bytes.Buffer
	zw, err := encodeImageData(e.zw, e.opts.CompressionLevel, &dbuf, full, e.opts.Predictor, e.opts.Interlace, nil)
	e.zw = zw
	if err != nil {
		return err
	}

	e.pending = &apngPending{
		x: 0, y: 0, w: full.Width, h: full.Height,
		blend: BlendOpSource, delay: delay, seq: e.seq, data: dbuf.Bytes(),
	}
	e.seq++
	e.lastFrame = full
	return nil
}

// disposeCandidates lists the dispose_op values worth trying for the
// currently-pending frame. PREVIOUS is only meaningful once a prior
// commit has produced a prevFrame snapshot.
func (e *APNGEncoder) disposeCandidates() []DisposeOp {
	c := []DisposeOp{DisposeOpNone, DisposeOpBackground}
	if e.prevFrame != nil {
		c = append(c, DisposeOpPrevious)
	}
	return c
}

func (e *APNGEncoder) buildCanvas(dispose DisposeOp) *Raster {
	switch dispose {
	case DisposeOpNone:
		return e.lastFrame.clone()
	case DisposeOpBackground:
		c := e.lastFrame.clone()
		clearRect(c, e.pending.x, e.pending.y, e.pending.w, e.pending.h)
		return c
	case DisposeOpPrevious:
		if e.prevFrame == nil {
			return nil
		}
		return e.prevFrame.clone()
	default:
		return nil
	}
}

// searchAndCommit runs the dispose × blend search described in §4.8:
// it decides the dispose_op for the currently-pending frame (by
// comparing how small the *new* frame's sub-image becomes under each
// candidate canvas) and stashes the new frame as the next pending one.
func (e *APNGEncoder) searchAndCommit(newRaster *Raster, delay FrameControl) error {
	baseSeq := e.seq

	type winner struct {
		dispose  DisposeOp
		pending  apngPending
		finalSeq uint32
	}
	var best *winner

	for _, dispose := range e.disposeCandidates() {
		canvas := e.buildCanvas(dispose)
		if canvas == nil {
			continue
		}
		for _, blend := range [2]BlendOp{BlendOpSource, BlendOpOver} {
			work := canvas.clone()
			rc, ok := inverseBlend(work, newRaster, blend)
			if !ok {
				continue
			}
			sub := subRaster(work, newRaster, rc)

			probe := baseSeq + 1
			var buf bytes.Buffer
			zw, err := encodeImageData(e.zw, e.opts.CompressionLevel, &buf, sub, e.opts.Predictor, e.opts.Interlace, &probe)
			e.zw = zw
			if err != nil {
				return err
			}

			if best == nil || buf.Len() < len(best.pending.data) {
				best = &winner{
					dispose: dispose,
					pending: apngPending{
						x: rc.X, y: rc.Y, w: rc.W, h: rc.H,
						blend: blend, delay: delay, seq: baseSeq, data: buf.Bytes(),
					},
					finalSeq: probe,
				}
			}
		}
	}

	if best == nil {
		// Unreachable: dispose_op = NONE, blend_op = SOURCE always
		// succeeds, since SOURCE-blend can always express the diff.
		return errors.New("pngenc: no apng candidate succeeded")
	}

	if err := e.emitPending(best.dispose); err != nil {
		return err
	}

	if best.dispose != DisposeOpPrevious {
		snap := e.lastFrame.clone()
		if best.dispose == DisposeOpBackground {
			clearRect(snap, e.pending.x, e.pending.y, e.pending.w, e.pending.h)
		}
		e.prevFrame = snap
	}

	e.lastFrame = newRaster.clone()
	e.seq = best.finalSeq
	e.pending = &best.pending
	return nil
}

func (e *APNGEncoder) emitPending(dispose DisposeOp) error {
	if e.headerBytes != nil {
		if _, err := e.w.Write(e.headerBytes); err != nil {
			return errors.Wrap(err, "writing apng header prelude")
		}
		e.headerBytes = nil
	}
	p := e.pending
	if err := writeFCTL(e.w, p.seq, p.x, p.y, p.w, p.h, p.delay, dispose, p.blend); err != nil {
		return err
	}
	if _, err := e.w.Write(p.data); err != nil {
		return errors.Wrap(err, "writing apng image data")
	}
	return nil
}

func writeFCTL(w io.Writer, seq uint32, x, y, width, height int, delay FrameControl, dispose DisposeOp, blend BlendOp) error {
	var payload [22]byte
	binary.BigEndian.PutUint32(payload[0:4], uint32(width))
	binary.BigEndian.PutUint32(payload[4:8], uint32(height))
	binary.BigEndian.PutUint32(payload[8:12], uint32(x))
	binary.BigEndian.PutUint32(payload[12:16], uint32(y))
	binary.BigEndian.PutUint16(payload[16:18], delay.DelayNum)
	binary.BigEndian.PutUint16(payload[18:20], delay.DelayDen)
	payload[20] = byte(dispose)
	payload[21] = byte(blend)

	seqCopy := seq
	return errors.Wrap(writeChunk(w, "fcTL", payload[:], &seqCopy), "writing fcTL")
}
