package network

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `{"jsonrpc":"2.0","id":1,"result":"0x2a"}`

func encode(t *testing.T, encoding string) []byte {
	buf := &bytes.Buffer{}

	switch encoding {
	case "br":
		w := brotli.NewWriter(buf)
		_, err := w.Write([]byte(payload))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case "gzip":
		w := gzip.NewWriter(buf)
		_, err := w.Write([]byte(payload))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case "zstd":
		w, err := zstd.NewWriter(buf)
		require.NoError(t, err)
		_, err = w.Write([]byte(payload))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	default:
		buf.WriteString(payload)
	}

	return buf.Bytes()
}

func TestCompressedTransport(t *testing.T) {
	for _, encoding := range []string{"br", "gzip", "zstd", ""} {
		t.Run("encoding "+encoding, func(t *testing.T) {
			body := encode(t, encoding)

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, AcceptEncoding, r.Header.Get("Accept-Encoding"))
				if encoding != "" {
					w.Header().Set("Content-Encoding", encoding)
				}
				w.Write(body)
			}))
			defer server.Close()

			client, err := NewHTTPClient(Options{})
			require.NoError(t, err)

			resp, err := client.Get(server.URL)
			require.NoError(t, err)
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, payload, string(data))
			assert.Empty(t, resp.Header.Get("Content-Encoding"))
		})
	}
}

func TestUnknownEncoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "lzma")
		w.Write([]byte(payload))
	}))
	defer server.Close()

	client, err := NewHTTPClient(Options{})
	require.NoError(t, err)

	_, err = client.Get(server.URL)
	assert.Error(t, err)
}

func TestInvalidProxy(t *testing.T) {
	_, err := NewHTTPClient(Options{Proxy: "://bad"})
	assert.Error(t, err)
}
