package pngenc

import "github.com/pkg/errors"

// Error taxonomy. Callers that need to branch on failure kind should use
// errors.Is against these sentinels. Failures the encoder detects itself
// are reported as one of these, usually wrapped with call-site context;
// a failed write to the destination io.Writer is returned as the
// writer's own error, wrapped, and matches none of them.
var (
	// ErrOutOfMemory is returned when a scratch buffer or packet buffer
	// could not be sized or allocated, including when a computed packet
	// size would overflow a signed 32-bit value.
	ErrOutOfMemory = errors.New("pngenc: out of memory")

	// ErrCompressionFailed is returned when the DEFLATE collaborator
	// reports an internal failure.
	ErrCompressionFailed = errors.New("pngenc: compression failed")

	// ErrInvalidConfig is returned when an Options value is internally
	// inconsistent, e.g. both DPI and DPM set.
	ErrInvalidConfig = errors.New("pngenc: invalid config")

	// ErrUnsupportedPixelFormat is returned when a Raster declares a
	// PixelFormat the encoder does not know how to derive a color
	// type/bit depth pair for.
	ErrUnsupportedPixelFormat = errors.New("pngenc: unsupported pixel format")

	// ErrPaletteConflict is returned when an APNG frame's palette does
	// not match the palette checksum recorded at frame 0.
	ErrPaletteConflict = errors.New("pngenc: palette conflict")
)
