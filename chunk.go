// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pngenc

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
)

// Signature is the fixed 8-byte PNG file signature.
const Signature = "\x89PNG\r\n\x1a\n"

// ColorType is the color type of the image, per the PNG spec.
type ColorType uint8

const (
	ColorTypeGrayscale      ColorType = 0
	ColorTypeTrueColor      ColorType = 2
	ColorTypePaletted       ColorType = 3
	ColorTypeGrayscaleAlpha ColorType = 4
	ColorTypeTrueColorAlpha ColorType = 6
)

// BitDepth is the bit depth of the image, per the PNG spec.
type BitDepth uint8

const (
	BitDepth1  BitDepth = 1
	BitDepth2  BitDepth = 2
	BitDepth4  BitDepth = 4
	BitDepth8  BitDepth = 8
	BitDepth16 BitDepth = 16
)

// InterlaceMethod selects Adam7 interlacing.
type InterlaceMethod uint8

const (
	InterlaceNone InterlaceMethod = 0
	InterlaceAdam7 InterlaceMethod = 1
)

// DisposeOp is the APNG frame dispose operator.
type DisposeOp uint8

const (
	DisposeOpNone       DisposeOp = 0
	DisposeOpBackground DisposeOp = 1
	DisposeOpPrevious   DisposeOp = 2
)

// BlendOp is the APNG frame blend operator.
type BlendOp uint8

const (
	BlendOpSource BlendOp = 0
	BlendOpOver   BlendOp = 1
)

// CompressionLevel trades encoding speed for output size. The named
// values below are translated to compress/zlib's levels; positive values
// 1 through 9 are passed to compress/zlib unchanged.
type CompressionLevel int

const (
	DefaultCompression CompressionLevel = 0
	NoCompression      CompressionLevel = -1
	BestSpeed          CompressionLevel = -2
	BestCompression    CompressionLevel = -3
)

func crc32IEEE(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

// writeChunk emits one PNG chunk: big-endian length, 4-byte tag, payload,
// big-endian CRC-32 over tag+payload. If seq is non-nil, the payload is
// prefixed with the 4-byte sequence number it points at (used for the
// APNG fcTL and fdAT tags); the length and CRC both account for that prefix.
func writeChunk(w io.Writer, tag string, payload []byte, seq *uint32) (err error) {
	if len(tag) != 4 {
		return errors.Errorf("pngenc: chunk tag %q is not 4 bytes", tag)
	}

	extra := 0
	if seq != nil {
		extra = 4
	}
	length := len(payload) + extra
	if length < 0 || uint64(length) > 0xFFFFFFFF {
		return errors.Wrapf(ErrOutOfMemory, "%s chunk payload too large (%d bytes)", tag, length)
	}

	var header [8]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(length))
	copy(header[4:8], tag)

	crc := crc32.NewIEEE()
	crc.Write(header[4:8])

	if _, err = w.Write(header[:]); err != nil {
		return errors.Wrapf(err, "writing %s chunk header", tag)
	}

	if seq != nil {
		var seqBuf [4]byte
		binary.BigEndian.PutUint32(seqBuf[:], *seq)
		crc.Write(seqBuf[:])
		if _, err = w.Write(seqBuf[:]); err != nil {
			return errors.Wrapf(err, "writing %s sequence number", tag)
		}
	}

	if len(payload) > 0 {
		crc.Write(payload)
		if _, err = w.Write(payload); err != nil {
			return errors.Wrapf(err, "writing %s chunk payload", tag)
		}
	}

	var footer [4]byte
	binary.BigEndian.PutUint32(footer[:], crc.Sum32())
	if _, err = w.Write(footer[:]); err != nil {
		return errors.Wrapf(err, "writing %s chunk crc", tag)
	}
	return nil
}
