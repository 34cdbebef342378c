package multipart

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrNotMultipart is returned when the content type is not multipart/form-data
	ErrNotMultipart = errors.New("multipart: not a multipart/form-data body")
	// ErrMissingBoundary is returned when the content type has no boundary parameter
	ErrMissingBoundary = errors.New("multipart: boundary not found in content type")
)

// Form is a decoded multipart/form-data body
type Form struct {
	Boundary string
	Payload  json.RawMessage
	Files    []File
}

// Parse decodes a body produced by Encode. Files are returned in the order
// of their positional field names. Parts with other field names are skipped.
func Parse(r io.Reader, contentType string) (*Form, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to parse content type: %w", err)
	}
	if mediaType != ContentTypeFormData {
		return nil, fmt.Errorf("%w: %s", ErrNotMultipart, mediaType)
	}

	boundary := params["boundary"]
	if boundary == "" {
		return nil, ErrMissingBoundary
	}

	form := &Form{Boundary: boundary}
	indexed := make(map[int]File)

	reader := multipart.NewReader(r, boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read part: %w", err)
		}

		data, err := io.ReadAll(part)
		if err != nil {
			return nil, fmt.Errorf("failed to read part data: %w", err)
		}

		name := part.FormName()
		if name == PayloadFieldName {
			form.Payload = json.RawMessage(data)
			continue
		}

		index, ok := fileIndex(name)
		if !ok {
			continue
		}
		if _, dup := indexed[index]; dup {
			return nil, fmt.Errorf("duplicate file field %q", name)
		}
		indexed[index] = File{
			Filename: part.FileName(),
			MimeType: part.Header.Get("Content-Type"),
			Data:     data,
		}
	}

	indices := make([]int, 0, len(indexed))
	for i := range indexed {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	form.Files = make([]File, 0, len(indices))
	for _, i := range indices {
		form.Files = append(form.Files, indexed[i])
	}

	return form, nil
}

// Decode unmarshals the JSON payload into v
func (f *Form) Decode(v any) error {
	if len(f.Payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrPayloadEncoding)
	}
	return json.Unmarshal(f.Payload, v)
}

// fileIndex extracts i from a "file{i}" field name
func fileIndex(name string) (int, bool) {
	digits, ok := strings.CutPrefix(name, "file")
	if !ok || digits == "" {
		return 0, false
	}
	i, err := strconv.Atoi(digits)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
