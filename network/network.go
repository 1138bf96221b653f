package network

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
)

type Options struct {
	Timeout time.Duration
	Proxy   string // proxy url, e.g. http://127.0.0.1:1080
}

// NewHTTPClient returns a HTTP client that asks servers for compressed
// responses and decodes them before handing body to caller. It is shared by
// JSON-RPC connection and user task API client.
func NewHTTPClient(options Options) (*http.Client, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()

	if options.Proxy != "" {
		proxyURL, err := url.Parse(options.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %s", options.Proxy, err)
		}
		base.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Transport: &CompressedTransport{Base: base},
		Timeout:   options.Timeout,
	}

	return client, nil
}

// CompressedTransport negotiates response compression explicitly so that
// brotli and zstd are available in addition to gzip.
type CompressedTransport struct {
	Base http.RoundTripper
}

func (t *CompressedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// respect caller's own negotiation
	if req.Header.Get("Accept-Encoding") != "" {
		return base.RoundTrip(req)
	}

	outgoing := req.Clone(req.Context())
	outgoing.Header.Set("Accept-Encoding", AcceptEncoding)

	resp, err := base.RoundTrip(outgoing)
	if err != nil {
		return nil, err
	}

	encoding := resp.Header.Get("Content-Encoding")
	body, decoded, err := DecompressBody(encoding, resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}

	if decoded {
		log.Debugf("decoding %s response from %s", encoding, req.URL.Host)

		resp.Body = body
		resp.Header.Del("Content-Encoding")
		resp.Header.Del("Content-Length")
		resp.ContentLength = -1
		resp.Uncompressed = true
	}

	return resp, nil
}
