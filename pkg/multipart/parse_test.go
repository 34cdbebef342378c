package multipart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	files := []File{
		{Filename: "one.txt", MimeType: "text/plain", Data: []byte("first")},
		{Filename: "two.bin", MimeType: "application/octet-stream", Data: []byte{0x00, 0x0d, 0x0a, 0x2d, 0x2d}},
		{Filename: "three.json", MimeType: "application/json", Data: []byte(`{"a":1}`)},
	}

	body, err := Encode(map[string]any{"content": "hello", "tts": false}, files)
	require.NoError(t, err)

	form, err := Parse(bytes.NewReader(body.Data), body.ContentType())
	require.NoError(t, err)

	assert.Equal(t, body.Boundary, form.Boundary)
	assert.JSONEq(t, `{"content":"hello","tts":false}`, string(form.Payload))
	require.Len(t, form.Files, 3)
	for i := range files {
		assert.Equal(t, files[i].Filename, form.Files[i].Filename)
		assert.Equal(t, files[i].MimeType, form.Files[i].MimeType)
		assert.Equal(t, files[i].Data, form.Files[i].Data)
	}

	var decoded struct {
		Content string `json:"content"`
		TTS     bool   `json:"tts"`
	}
	require.NoError(t, form.Decode(&decoded))
	assert.Equal(t, "hello", decoded.Content)
}

func TestParse_OrdersFilesByFieldIndex(t *testing.T) {
	raw := "--B\r\n" +
		"Content-Disposition: form-data; name=\"file1\"; filename=\"second\"\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"2\r\n" +
		"--B\r\n" +
		"Content-Disposition: form-data; name=\"payload_json\"\r\n" +
		"Content-Type: application/json\r\n\r\n" +
		"{}\r\n" +
		"--B\r\n" +
		"Content-Disposition: form-data; name=\"file0\"; filename=\"first\"\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"1\r\n" +
		"--B\r\n" +
		"Content-Disposition: form-data; name=\"note\"\r\n\r\n" +
		"ignored\r\n" +
		"--B--\r\n"

	form, err := Parse(strings.NewReader(raw), "multipart/form-data; boundary=B")
	require.NoError(t, err)

	require.Len(t, form.Files, 2)
	assert.Equal(t, "first", form.Files[0].Filename)
	assert.Equal(t, "second", form.Files[1].Filename)
	assert.Equal(t, "{}", string(form.Payload))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantErr     error
	}{
		{"not multipart", "application/json", "{}", ErrNotMultipart},
		{"related is not form-data", "multipart/related; boundary=B", "", ErrNotMultipart},
		{"missing boundary", "multipart/form-data", "", ErrMissingBoundary},
		{"invalid content type", "", "", nil},
		{"truncated body", "multipart/form-data; boundary=B", "--B\r\nContent-Type: text/plain\r\n\r\nabc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.body), tt.contentType)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestParse_DuplicateFileField(t *testing.T) {
	raw := "--B\r\n" +
		"Content-Disposition: form-data; name=\"file0\"; filename=\"a\"\r\n\r\n" +
		"1\r\n" +
		"--B\r\n" +
		"Content-Disposition: form-data; name=\"file0\"; filename=\"b\"\r\n\r\n" +
		"2\r\n" +
		"--B--\r\n"

	_, err := Parse(strings.NewReader(raw), "multipart/form-data; boundary=B")
	assert.Error(t, err)
}

func TestForm_DecodeEmpty(t *testing.T) {
	form := &Form{}
	var v map[string]any
	assert.ErrorIs(t, form.Decode(&v), ErrPayloadEncoding)
}

func TestFileIndex(t *testing.T) {
	tests := []struct {
		name   string
		want   int
		wantOK bool
	}{
		{"file0", 0, true},
		{"file17", 17, true},
		{"file", 0, false},
		{"filex", 0, false},
		{"payload_json", 0, false},
		{"file-1", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fileIndex(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
