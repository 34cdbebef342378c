package compression

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressor_CompressDecompress(t *testing.T) {
	compressor := NewCompressor()

	// gzip adds ~20 bytes of framing, so the input must repeat to shrink
	part := "--Boundary-x\r\nContent-Type: text/plain\r\nContent-Length: 11\r\n\r\nhello world\r\n"
	body := []byte(strings.Repeat(part, 8))

	compressed, err := compressor.Compress(body)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(body))

	decompressed, err := compressor.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, body, decompressed)
}

func TestCompressor_EmptyData(t *testing.T) {
	compressor := NewCompressor()

	compressed, err := compressor.Compress(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, compressed) // header and trailer only

	decompressed, err := compressor.Decompress(compressed)
	require.NoError(t, err)
	assert.Empty(t, decompressed)
}

func TestCompressor_LargeBody(t *testing.T) {
	compressor := NewCompressor()

	large := bytes.Repeat([]byte(`{"content":"log line"}`+"\n"), 50000)

	compressed, err := compressor.Compress(large)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(large)/10)

	decompressed, err := compressor.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, large, decompressed)
}

func TestShouldCompress(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		expected    bool
	}{
		{"text plain", "text/plain", true},
		{"application json", "application/json", true},
		{"multipart body", "multipart/form-data; boundary=Boundary-x", true},
		{"svg", "image/svg+xml", true},
		{"jpeg already compressed", "image/jpeg", false},
		{"png already compressed", "image/png", false},
		{"gzip already compressed", "application/gzip", false},
		{"zip already compressed", "application/zip", false},
		{"mp4 video", "video/mp4", false},
		{"upper case", "IMAGE/PNG", false},
		{"with charset", "text/plain; charset=utf-8", true},
		{"png with parameter", "image/png; name=a.png", false},
		{"empty", "", true}, // Default to compressible
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ShouldCompress(tt.contentType)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestShouldCompressAll(t *testing.T) {
	assert.True(t, ShouldCompressAll())
	assert.True(t, ShouldCompressAll("text/plain", "application/json"))
	assert.False(t, ShouldCompressAll("text/plain", "image/png"))
}

func TestNewCompressorWithLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   int
		wantErr bool
	}{
		{"stateless", gzip.StatelessCompression, false},
		{"huffman only", gzip.HuffmanOnly, false},
		{"default", gzip.DefaultCompression, false},
		{"store", gzip.NoCompression, false},
		{"fastest", gzip.BestSpeed, false},
		{"best", gzip.BestCompression, false},
		{"too high", 42, true},
		{"too low", -4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressor, err := NewCompressorWithLevel(tt.level)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLevel)
				assert.Nil(t, compressor)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.level, compressor.Level())

			body := []byte(strings.Repeat("level ", 64))
			compressed, err := compressor.Compress(body)
			require.NoError(t, err)
			decompressed, err := compressor.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, body, decompressed)
		})
	}
}

func TestCompressor_ZeroValueStores(t *testing.T) {
	// level 0 is gzip.NoCompression
	var compressor Compressor

	compressed, err := compressor.Compress([]byte("stored"))
	require.NoError(t, err)
	decompressed, err := compressor.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, []byte("stored"), decompressed)
}

func TestCompressor_MultipartBody(t *testing.T) {
	compressor, err := NewCompressorWithLevel(gzip.BestCompression)
	require.NoError(t, err)

	body := []byte("--Boundary-x\r\nContent-Disposition: form-data; name=\"payload_json\"\r\n" +
		"Content-Type: application/json\r\nContent-Length: 2\r\n\r\n{}\r\n--Boundary-x--\r\n")

	compressed, err := compressor.Compress(body)
	require.NoError(t, err)

	decompressed, err := compressor.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, body, decompressed)
}

func TestCompressor_InvalidData(t *testing.T) {
	compressor := &Compressor{}

	_, err := compressor.Decompress([]byte("--Boundary-x--\r\n"))
	assert.Error(t, err)
}

func TestCompressor_TruncatedData(t *testing.T) {
	compressor := NewCompressor()

	compressed, err := compressor.Compress([]byte(strings.Repeat("payload ", 100)))
	require.NoError(t, err)

	_, err = compressor.Decompress(compressed[:len(compressed)/2])
	assert.Error(t, err)
}
