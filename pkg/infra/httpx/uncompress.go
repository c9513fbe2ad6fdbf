package httpx

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/fasthttp"
)

// MaxDecodedBodySize bounds a decoded response body.
const MaxDecodedBodySize = 16 << 20

var ErrBodyTooLarge = errors.New("decoded body exceeds limit")

// DecodeChain decodes a fasthttp response body according to its
// Content-Encoding header. It reports whether the body changed.
func DecodeChain(resp *fasthttp.Response, body []byte) ([]byte, bool, error) {
	return Decode(string(resp.Header.Peek("Content-Encoding")), body)
}

// Decode undoes a Content-Encoding chain such as "gzip, br", last encoding
// first. Supported: br, gzip, zstd, deflate (zlib-wrapped or raw).
func Decode(contentEncoding string, body []byte) ([]byte, bool, error) {
	if contentEncoding == "" {
		return body, false, nil
	}
	encodings := strings.Split(contentEncoding, ",")
	changed := false
	for i := len(encodings) - 1; i >= 0; i-- {
		enc := strings.TrimSpace(strings.ToLower(encodings[i]))
		var (
			out []byte
			err error
		)
		switch enc {
		case "", "identity", "compress":
			continue
		case "br":
			out, err = readLimited(brotli.NewReader(bytes.NewReader(body)))
		case "gzip":
			out, err = gunzip(body)
		case "zstd":
			out, err = unzstd(body)
		case "deflate":
			out, err = inflate(body)
		default:
			return nil, false, fmt.Errorf("unsupported content-encoding: %q", encodings[i])
		}
		if err != nil {
			return nil, false, fmt.Errorf("decode %s: %w", enc, err)
		}
		body = out
		changed = true
	}
	return body, changed, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, MaxDecodedBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(out) > MaxDecodedBodySize {
		return nil, ErrBodyTooLarge
	}
	return out, nil
}

func gunzip(body []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer func() { _ = gr.Close() }()
	return readLimited(gr)
}

func unzstd(body []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return readLimited(dec)
}

func inflate(body []byte) ([]byte, error) {
	if zr, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
		defer func() { _ = zr.Close() }()
		return readLimited(zr)
	}
	fr := flate.NewReader(bytes.NewReader(body))
	defer func() { _ = fr.Close() }()
	return readLimited(fr)
}
