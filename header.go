package pngenc

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// writeSignature emits the fixed 8-byte PNG signature.
func writeSignature(w io.Writer) error {
	_, err := io.WriteString(w, Signature)
	return errors.Wrap(err, "writing signature")
}

// headerParams bundles everything writeHeaders needs beyond the
// io.Writer: the IHDR geometry/color fields, the physical density in
// dots per meter (0 if unset), the frame's optional side data, and (for
// paletted frames) the shared palette.
type headerParams struct {
	Width, Height int
	BitDepth      BitDepth
	ColorType     ColorType
	Interlace     InterlaceMethod
	DPM           int
	Meta          FrameMeta
	Palette       *Palette
}

// writeHeaders emits IHDR, pHYs, and the optional metadata and palette
// chunks, in the order the PNG spec requires them relative to IDAT.
func writeHeaders(w io.Writer, p headerParams, logger Logger) error {
	if err := writeIHDR(w, p); err != nil {
		return err
	}
	if err := writePHYs(w, p.DPM); err != nil {
		return err
	}
	if err := writeSTER(w, p.Meta.Stereo3D, logger); err != nil {
		return err
	}
	if p.Meta.ColorPrimaries == PrimariesBT709 && p.Meta.TransferIsSRGB {
		if err := writeChunk(w, "sRGB", []byte{1}, nil); err != nil {
			return errors.Wrap(err, "writing sRGB")
		}
	}
	if err := writeCHRM(w, p.Meta.ColorPrimaries); err != nil {
		return err
	}
	if err := writeGAMA(w, p.Meta.Gamma); err != nil {
		return err
	}
	if p.ColorType == ColorTypePaletted {
		if err := writePaletteChunks(w, p.Palette); err != nil {
			return err
		}
	}
	return nil
}

func writeIHDR(w io.Writer, p headerParams) error {
	var buf [13]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(p.Width))
	binary.BigEndian.PutUint32(buf[4:8], uint32(p.Height))
	buf[8] = byte(p.BitDepth)
	buf[9] = byte(p.ColorType)
	buf[10] = 0 // compression method
	buf[11] = 0 // filter method
	buf[12] = byte(p.Interlace)
	return errors.Wrap(writeChunk(w, "IHDR", buf[:], nil), "writing IHDR")
}

func writePHYs(w io.Writer, dpm int) error {
	var buf [9]byte
	if dpm > 0 {
		binary.BigEndian.PutUint32(buf[0:4], uint32(dpm))
		binary.BigEndian.PutUint32(buf[4:8], uint32(dpm))
		buf[8] = 1 // unit specifier: meter
	} else {
		binary.BigEndian.PutUint32(buf[0:4], 1)
		binary.BigEndian.PutUint32(buf[4:8], 1)
		buf[8] = 0 // unit specifier: unknown
	}
	return errors.Wrap(writeChunk(w, "pHYs", buf[:], nil), "writing pHYs")
}

func writeSTER(w io.Writer, s Stereo3DInfo, logger Logger) error {
	switch s.Mode {
	case Stereo3DNone:
		return nil
	case Stereo3DSideBySide:
		b := byte(1)
		if s.Invert {
			b = 0
		}
		return errors.Wrap(writeChunk(w, "sTER", []byte{b}, nil), "writing sTER")
	default:
		if logger != nil {
			logger.Printf("only side-by-side stereo3d can be expressed in an sTER chunk; dropping")
		}
		return nil
	}
}

type chromaticity struct {
	rx, ry, gx, gy, bx, by, wx, wy float64
}

var primaryTable = map[ColorPrimaries]chromaticity{
	PrimariesBT709: {
		rx: 0.640, ry: 0.330, gx: 0.300, gy: 0.600, bx: 0.150, by: 0.060,
		wx: 0.3127, wy: 0.3290,
	},
	PrimariesBT470M: {
		rx: 0.670, ry: 0.330, gx: 0.210, gy: 0.710, bx: 0.140, by: 0.080,
		wx: 0.310, wy: 0.316,
	},
	PrimariesBT470BG: {
		rx: 0.640, ry: 0.330, gx: 0.290, gy: 0.600, bx: 0.150, by: 0.060,
		wx: 0.3127, wy: 0.3290,
	},
	PrimariesSMPTE170M: {
		rx: 0.630, ry: 0.340, gx: 0.310, gy: 0.595, bx: 0.155, by: 0.070,
		wx: 0.3127, wy: 0.3290,
	},
	PrimariesSMPTE240M: {
		rx: 0.630, ry: 0.340, gx: 0.310, gy: 0.595, bx: 0.155, by: 0.070,
		wx: 0.3127, wy: 0.3290,
	},
	PrimariesBT2020: {
		rx: 0.708, ry: 0.292, gx: 0.170, gy: 0.797, bx: 0.131, by: 0.046,
		wx: 0.3127, wy: 0.3290,
	},
}

func writeCHRM(w io.Writer, primaries ColorPrimaries) error {
	c, ok := primaryTable[primaries]
	if !ok {
		return nil
	}
	var buf [32]byte
	vals := [8]float64{c.wx, c.wy, c.rx, c.ry, c.gx, c.gy, c.bx, c.by}
	for i, v := range vals {
		binary.BigEndian.PutUint32(buf[i*4:i*4+4], uint32(math.Round(v*100000)))
	}
	return errors.Wrap(writeChunk(w, "cHRM", buf[:], nil), "writing cHRM")
}

func writeGAMA(w io.Writer, gamma float64) error {
	if gamma <= 1e-6 || gamma == 1.0 {
		return nil
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(math.Round((1.0/gamma)*100000)))
	return errors.Wrap(writeChunk(w, "gAMA", buf[:], nil), "writing gAMA")
}

func writePaletteChunks(w io.Writer, p *Palette) error {
	if p == nil {
		return errors.Wrap(ErrInvalidConfig, "paletted color type requires a Palette")
	}
	var rgb [768]byte
	var alpha [256]byte
	hasAlpha := false
	for i, v := range p {
		a := byte(v >> 24)
		if a != 0xFF {
			hasAlpha = true
		}
		alpha[i] = a
		rgb[i*3+0] = byte(v >> 16)
		rgb[i*3+1] = byte(v >> 8)
		rgb[i*3+2] = byte(v)
	}
	if err := writeChunk(w, "PLTE", rgb[:], nil); err != nil {
		return errors.Wrap(err, "writing PLTE")
	}
	if hasAlpha {
		if err := writeChunk(w, "tRNS", alpha[:], nil); err != nil {
			return errors.Wrap(err, "writing tRNS")
		}
	}
	return nil
}
