// Package compression implements gzip compression of request bodies
package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const (
	// ContentEncodingGzip is the Content-Encoding value for gzip bodies
	ContentEncodingGzip = "gzip"
	// DefaultLevel is the level used by NewCompressor
	DefaultLevel = gzip.DefaultCompression
)

// ErrInvalidLevel is returned for a gzip level outside
// gzip.StatelessCompression..gzip.BestCompression
var ErrInvalidLevel = errors.New("compression: invalid gzip level")

// Compressor gzips request bodies at a fixed level. It holds no state
// besides the level and is safe for concurrent use.
type Compressor struct {
	level int
}

// NewCompressor returns a compressor using DefaultLevel
func NewCompressor() *Compressor {
	return &Compressor{level: DefaultLevel}
}

// NewCompressorWithLevel returns a compressor using level
func NewCompressorWithLevel(level int) (*Compressor, error) {
	if err := ValidateLevel(level); err != nil {
		return nil, err
	}
	return &Compressor{level: level}, nil
}

// ValidateLevel reports whether level is accepted by the gzip writer
func ValidateLevel(level int) error {
	if level < gzip.StatelessCompression || level > gzip.BestCompression {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	return nil
}

// Level returns the gzip level
func (c *Compressor) Level() int {
	return c.level
}

// Compress returns the gzip encoding of body
func (c *Compressor) Compress(body []byte) ([]byte, error) {
	var out bytes.Buffer
	zw, err := gzip.NewWriterLevel(&out, c.level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLevel, err)
	}

	_, err = zw.Write(body)
	if closeErr := zw.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return out.Bytes(), nil
}

// Decompress reverses Compress. Truncated or corrupt input is an error.
func (c *Compressor) Decompress(compressed []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("gunzip header: %w", err)
	}
	defer zr.Close()

	body, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gunzip: %w", err)
	}
	return body, nil
}

// compressedTypes are formats that carry their own compression
var compressedTypes = map[string]bool{
	"application/gzip":             true,
	"application/x-gzip":           true,
	"application/zip":              true,
	"application/zstd":             true,
	"application/x-7z-compressed":  true,
	"application/x-rar-compressed": true,
	"application/pdf":              true,
	"image/jpeg":                   true,
	"image/png":                    true,
	"image/gif":                    true,
	"image/webp":                   true,
	"video/mp4":                    true,
	"video/webm":                   true,
	"audio/mpeg":                   true,
	"audio/mp3":                    true,
	"audio/ogg":                    true,
}

// ShouldCompress reports whether content of the given MIME type benefits from gzip
func ShouldCompress(contentType string) bool {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	return !compressedTypes[mediaType]
}

// ShouldCompressAll reports whether every given MIME type benefits from gzip
func ShouldCompressAll(contentTypes ...string) bool {
	for _, ct := range contentTypes {
		if !ShouldCompress(ct) {
			return false
		}
	}
	return true
}
