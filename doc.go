// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pngenc is a low-level PNG and APNG encoder.
//
// It turns a raster frame, or a sequence of raster frames for the animated
// variant, into a byte-exact PNG/APNG chunk stream: scanline filtering,
// chunked DEFLATE framing, and (for APNG) the inverse-blend search that
// picks a disposal and blend operation per frame. Argument parsing, muxer
// container framing (acTL, frame delay values, file assembly), and pixel
// format conversion are the caller's responsibility.
//
// For background on the formats, see:
//
// https://www.w3.org/TR/PNG/
// https://wiki.mozilla.org/APNG_Specification
package pngenc
