// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package goapikit provides the low-level building blocks of a REST API client:
multipart/form-data body encoding and a composable critical section.

# Overview

API endpoints that accept file uploads take a multipart/form-data body
whose first part is a JSON document (payload_json) followed by one part per
file (file0, file1, ...). go-apikit encodes that body byte for byte,
including exact Content-Length headers. Client components that share
mutable state serialize access through a lock.Section.

# Package Structure

	github.com/sirosfoundation/go-apikit/pkg/multipart   - multipart/form-data encoding and parsing
	github.com/sirosfoundation/go-apikit/pkg/lock        - critical sections and guarded values
	github.com/sirosfoundation/go-apikit/pkg/convert     - typed lookups in decoded JSON objects
	github.com/sirosfoundation/go-apikit/pkg/strcase     - camelCase to snake_case conversion
	github.com/sirosfoundation/go-apikit/pkg/datefmt     - API timestamp formatting
	github.com/sirosfoundation/go-apikit/pkg/compression - gzip request bodies

The formdata command (cmd/formdata) builds bodies from a YAML description
and inspects existing ones.

# Quick Start

	import "github.com/sirosfoundation/go-apikit/pkg/multipart"

	body, err := multipart.Encode(
	    map[string]any{"content": "quarterly report"},
	    []multipart.File{{Filename: "report.pdf", MimeType: "application/pdf", Data: pdf}},
	)
	if err != nil {
	    return err
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body.Data))
	req.Header.Set("Content-Type", body.ContentType())

# Critical Sections

	type RateLimits struct {
	    sec     lock.Section
	    buckets map[string]int
	}

	func (r *RateLimits) Take(route string) error {
	    return r.sec.Protected(func() error {
	        if r.buckets[route] == 0 {
	            return ErrRateLimited
	        }
	        r.buckets[route]--
	        return nil
	    })
	}

# References

  - multipart/form-data: https://datatracker.ietf.org/doc/html/rfc7578
  - RFC 3339 timestamps: https://datatracker.ietf.org/doc/html/rfc3339

# License

BSD-2-Clause License
*/
package goapikit
