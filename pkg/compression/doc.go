// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package compression provides gzip compression for encoded request bodies.

Multipart bodies that carry text-like files shrink well under gzip and can
be sent with Content-Encoding: gzip to APIs that accept it.

# Compression

	compressor := compression.NewCompressor()
	compressed, err := compressor.Compress(body.Data)

	data, err := compressor.Decompress(compressed)

NewCompressorWithLevel takes any klauspost/compress gzip level, from
gzip.StatelessCompression to gzip.BestCompression, and returns
ErrInvalidLevel for anything else.

# Content Type Detection

Compressing formats that are already compressed wastes CPU and usually grows
the output. ShouldCompress reports whether a file's MIME type is worth it:

	if compression.ShouldCompress(file.MimeType) {
	    // compress
	}

Parameters such as charset are ignored. Archive, image, audio and video
formats are reported as not compressible.

# References

  - GZIP RFC 1952: https://datatracker.ietf.org/doc/html/rfc1952
  - HTTP Content-Encoding: https://datatracker.ietf.org/doc/html/rfc9110#section-8.4
*/
package compression
