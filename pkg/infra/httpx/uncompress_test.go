package httpx

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func gzipBytes(data []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

func brBytes(data []byte) []byte {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

func zstdBytes(data []byte) []byte {
	var buf bytes.Buffer
	w, _ := zstd.NewWriter(&buf)
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

func zlibBytes(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

func flateBytes(data []byte) []byte {
	var buf bytes.Buffer
	w, _ := flate.NewWriter(&buf, flate.DefaultCompression)
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	plain := []byte(`{"ip":"192.0.2.1","abuseConfidenceScore":87}`)

	tests := []struct {
		name     string
		encoding string
		body     []byte
		changed  bool
	}{
		{name: "none", encoding: "", body: plain},
		{name: "identity", encoding: "identity, compress", body: plain},
		{name: "gzip", encoding: "gzip", body: gzipBytes(plain), changed: true},
		{name: "brotli", encoding: "br", body: brBytes(plain), changed: true},
		{name: "zstd", encoding: "zstd", body: zstdBytes(plain), changed: true},
		{name: "deflate zlib", encoding: "deflate", body: zlibBytes(plain), changed: true},
		{name: "deflate raw", encoding: "deflate", body: flateBytes(plain), changed: true},
		{name: "chained", encoding: "gzip, br", body: brBytes(gzipBytes(plain)), changed: true},
		{name: "case and spaces", encoding: "  GZip ", body: gzipBytes(plain), changed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, changed, err := Decode(tt.encoding, tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, plain, out)
		})
	}
}

func TestDecode_UnknownEncoding(t *testing.T) {
	_, _, err := Decode("foo", []byte("abc"))
	assert.Error(t, err)
}

func TestDecode_CorruptGzip(t *testing.T) {
	_, _, err := Decode("gzip", []byte("not gzip"))
	assert.Error(t, err)
}

func TestDecodeChain_ReadsHeader(t *testing.T) {
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)
	resp.Header.Set("Content-Encoding", "gzip")

	out, changed, err := DecodeChain(resp, gzipBytes([]byte("hello")))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "hello", string(out))
}
