package network

import (
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// AcceptEncoding is the list of content encodings the client can decode.
const AcceptEncoding = "br, zstd, gzip, deflate"

type decompressorFactory = func(io.Reader) (io.ReadCloser, error)

// DecompressBody wraps response body with a decoder according to encoding
// type. Returned reader closes both decoder and the original body. The
// boolean result tells whether body was wrapped at all.
func DecompressBody(encoding string, body io.ReadCloser) (io.ReadCloser, bool, error) {
	factory, err := getDecompressorFactory(encoding)
	if err != nil {
		return nil, false, err
	}

	if factory == nil {
		return body, false, nil
	}

	reader, err := factory(body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decompress response: %s", err)
	}

	return &decodedBody{decoder: reader, raw: body}, true, nil
}

// Returns a decoder factory according to encoding type. A nil factory means
// body is not encoded.
func getDecompressorFactory(encoding string) (decompressorFactory, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "br":
		return brotliDecompress, nil
	case "deflate":
		return flateDecompress, nil
	case "gzip":
		return gzipDecompress, nil
	case "zstd":
		return zstdDecompress, nil
	case "", "identity":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown content-encoding: %s", encoding)
	}
}

// brotliDecompress decodes data with brotli
func brotliDecompress(reader io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(brotli.NewReader(reader)), nil
}

// flateDecompress decodes data with flate
func flateDecompress(reader io.Reader) (io.ReadCloser, error) {
	return flate.NewReader(reader), nil
}

// gzipDecompress decodes data with gzip.
func gzipDecompress(reader io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(reader)
}

// zstdDecompress decodes data with zstd.
func zstdDecompress(reader io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(reader)
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

type decodedBody struct {
	decoder io.ReadCloser
	raw     io.ReadCloser
}

func (b *decodedBody) Read(p []byte) (int, error) {
	return b.decoder.Read(p)
}

func (b *decodedBody) Close() error {
	decodeErr := b.decoder.Close()
	rawErr := b.raw.Close()
	if decodeErr != nil {
		return decodeErr
	}
	return rawErr
}
