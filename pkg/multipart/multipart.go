// Package multipart implements multipart/form-data body encoding for REST uploads
package multipart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

const (
	// ContentTypeFormData is the MIME type of an encoded body
	ContentTypeFormData = "multipart/form-data"
	// ContentTypeJSON is the MIME type of the payload_json part
	ContentTypeJSON = "application/json"
	// PayloadFieldName is the form field carrying the JSON document
	PayloadFieldName = "payload_json"
	// BoundaryPrefix is prepended to every generated boundary
	BoundaryPrefix = "Boundary-"
)

var (
	// ErrPayloadEncoding is returned when the JSON fields cannot be marshaled
	ErrPayloadEncoding = errors.New("multipart: payload encoding failed")
	// ErrBoundaryCollision is returned when no boundary absent from the payload was found
	ErrBoundaryCollision = errors.New("multipart: boundary collides with payload")
)

var crlf = []byte("\r\n")

// File is a single file upload
type File struct {
	Filename string
	MimeType string
	Data     []byte
}

// Body is an encoded multipart/form-data body
type Body struct {
	Boundary string
	Data     []byte
}

// ContentType returns the Content-Type header value for the body. The
// boundary is written unquoted, so one supplied through WithBoundaryFunc
// must be a valid RFC 2046 boundary token.
func (b *Body) ContentType() string {
	return ContentTypeFormData + "; boundary=" + b.Boundary
}

// MarshalFunc serializes the JSON fields of a body
type MarshalFunc func(v any) ([]byte, error)

// Encoder builds multipart bodies. An Encoder is safe for concurrent use.
type Encoder struct {
	marshal     MarshalFunc
	newBoundary func() string
	maxAttempts int
}

// Option configures an Encoder
type Option func(*Encoder)

// WithMarshaler replaces encoding/json as the JSON serializer
func WithMarshaler(fn MarshalFunc) Option {
	return func(e *Encoder) {
		if fn != nil {
			e.marshal = fn
		}
	}
}

// WithBoundaryFunc replaces the random boundary generator. Boundaries are
// used verbatim in the body and in the Content-Type header.
func WithBoundaryFunc(fn func() string) Option {
	return func(e *Encoder) {
		if fn != nil {
			e.newBoundary = fn
		}
	}
}

// WithCollisionCheck makes the encoder reject boundaries that occur in the
// JSON payload or in any file. Up to maxAttempts boundaries are tried before
// Encode gives up with ErrBoundaryCollision. A value below 1 disables the check.
func WithCollisionCheck(maxAttempts int) Option {
	return func(e *Encoder) {
		e.maxAttempts = maxAttempts
	}
}

// NewEncoder creates an encoder with the given options
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		marshal:     json.Marshal,
		newBoundary: GenerateBoundary,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEncoder = NewEncoder()

// Encode encodes fields and files with the default encoder
func Encode(fields map[string]any, files []File) (*Body, error) {
	return defaultEncoder.Encode(fields, files)
}

// Encode builds a multipart/form-data body with fields as the payload_json
// part followed by one part per file.
func (e *Encoder) Encode(fields map[string]any, files []File) (*Body, error) {
	payload, err := e.marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPayloadEncoding, err)
	}

	boundary, err := e.pickBoundary(payload, files)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(encodedSize(boundary, payload, files))

	writeBoundary(&buf, boundary)
	buf.WriteString(`Content-Disposition: form-data; name="` + PayloadFieldName + "\"\r\n")
	buf.WriteString("Content-Type: " + ContentTypeJSON + "\r\n")
	writeContent(&buf, payload)

	for i, file := range files {
		writeBoundary(&buf, boundary)
		buf.WriteString(`Content-Disposition: form-data; name="`)
		buf.WriteString(FileFieldName(i))
		buf.WriteString(`"; filename="`)
		buf.WriteString(file.Filename)
		buf.WriteString("\"\r\n")
		buf.WriteString("Content-Type: " + file.MimeType + "\r\n")
		writeContent(&buf, file.Data)
	}

	buf.WriteString("--" + boundary + "--\r\n")

	return &Body{
		Boundary: boundary,
		Data:     buf.Bytes(),
	}, nil
}

func (e *Encoder) pickBoundary(payload []byte, files []File) (string, error) {
	if e.maxAttempts < 1 {
		return e.newBoundary(), nil
	}
	for range e.maxAttempts {
		boundary := e.newBoundary()
		if !occursIn(boundary, payload, files) {
			return boundary, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrBoundaryCollision, e.maxAttempts)
}

func occursIn(boundary string, payload []byte, files []File) bool {
	b := []byte(boundary)
	if bytes.Contains(payload, b) {
		return true
	}
	for _, file := range files {
		if bytes.Contains(file.Data, b) {
			return true
		}
	}
	return false
}

// writeBoundary writes the delimiter line that opens a part
func writeBoundary(buf *bytes.Buffer, boundary string) {
	buf.WriteString("--")
	buf.WriteString(boundary)
	buf.Write(crlf)
}

// writeContent writes the Content-Length header, the header terminator,
// the part data and the trailing CRLF
func writeContent(buf *bytes.Buffer, data []byte) {
	buf.WriteString("Content-Length: ")
	buf.WriteString(strconv.Itoa(len(data)))
	buf.WriteString("\r\n\r\n")
	buf.Write(data)
	buf.Write(crlf)
}

// encodedSize estimates the body size so the buffer grows once
func encodedSize(boundary string, payload []byte, files []File) int {
	const headerOverhead = 160
	size := len(payload) + len(boundary) + headerOverhead
	for _, file := range files {
		size += len(boundary) + headerOverhead + len(file.Filename) + len(file.MimeType) + len(file.Data)
	}
	return size
}

// FileFieldName returns the form field name of the file at index i
func FileFieldName(i int) string {
	return "file" + strconv.Itoa(i)
}

// GenerateBoundary returns a fresh random boundary
func GenerateBoundary() string {
	return BoundaryPrefix + uuid.New().String()
}
