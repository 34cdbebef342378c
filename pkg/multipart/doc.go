// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package multipart builds multipart/form-data request bodies for REST APIs
that accept a JSON document alongside file uploads.

# Body Structure

The JSON document always comes first, under the field name payload_json.
Files follow in the order given, under positional field names file0,
file1, and so on. Every part carries an exact Content-Length:

	--Boundary-6f1c...\r\n
	Content-Disposition: form-data; name="payload_json"\r\n
	Content-Type: application/json\r\n
	Content-Length: 16\r\n
	\r\n
	{"content":"hi"}\r\n
	--Boundary-6f1c...\r\n
	Content-Disposition: form-data; name="file0"; filename="a.png"\r\n
	Content-Type: image/png\r\n
	Content-Length: 1024\r\n
	\r\n
	[binary data]\r\n
	--Boundary-6f1c...--\r\n

# Encoding

	body, err := multipart.Encode(map[string]any{"content": "hi"}, []multipart.File{
	    {Filename: "a.png", MimeType: "image/png", Data: png},
	})
	req.Header.Set("Content-Type", body.ContentType())

Each call generates a fresh random boundary. The boundary is not checked
against the payload unless the encoder is built with [WithCollisionCheck].

Filenames and MIME types are written verbatim. A filename containing a
double quote produces a malformed Content-Disposition header.

# Parsing

[Parse] reads a body produced by [Encode] back into its JSON payload and
ordered files:

	form, err := multipart.Parse(r, contentType)

# References

  - multipart/form-data: https://datatracker.ietf.org/doc/html/rfc7578
  - MIME Multipart: https://datatracker.ietf.org/doc/html/rfc2046
*/
package multipart
