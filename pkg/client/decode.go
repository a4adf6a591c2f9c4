package client

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Supported content-encodings.
const (
	EncodingGzip     = "gzip"
	EncodingDeflate  = "deflate"
	EncodingBrotli   = "br"
	EncodingIdentity = "identity"
)

// decodeBody decompresses body according to the content-encoding header value.
// An empty encoding returns body unchanged.
func decodeBody(encoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingIdentity:
		return body, nil

	case EncodingGzip, "x-gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip header: %w", err)
		}
		defer r.Close()
		return readAll(r, "gzip")

	case EncodingDeflate:
		// HTTP deflate is zlib-wrapped, but some servers send raw deflate.
		r, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			raw := flate.NewReader(bytes.NewReader(body))
			defer raw.Close()
			return readAll(raw, "deflate")
		}
		defer r.Close()
		return readAll(r, "deflate")

	case EncodingBrotli:
		return readAll(brotli.NewReader(bytes.NewReader(body)), "brotli")

	default:
		return nil, fmt.Errorf("unsupported content-encoding %q", encoding)
	}
}

func readAll(r io.Reader, name string) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, maxDecodedBytes))
	if err != nil {
		return nil, fmt.Errorf("%s stream: %w", name, err)
	}
	return out, nil
}
