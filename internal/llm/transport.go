package llm

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/dotcommander/yagent/internal/errs"
)

// NewHTTPClient returns an HTTP client for LLM and tool requests, optionally
// routed through httpProxy. headerTimeout bounds the wait for response
// headers; the streamed body itself is not bounded.
func NewHTTPClient(httpProxy string, headerTimeout time.Duration) (*http.Client, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errs.Error{Err: fmt.Errorf("default transport is not *http.Transport"), Reason: "Could not configure HTTP client."}
	}
	tr := base.Clone()
	if httpProxy != "" {
		proxyURL, err := url.Parse(httpProxy)
		if err != nil {
			return nil, errs.Error{Err: err, Reason: "There was an error parsing your proxy URL."}
		}
		tr.Proxy = http.ProxyURL(proxyURL)
	}
	tr.DialContext = (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	tr.TLSHandshakeTimeout = 10 * time.Second
	tr.ResponseHeaderTimeout = headerTimeout
	tr.IdleConnTimeout = 90 * time.Second
	tr.ExpectContinueTimeout = 1 * time.Second
	return &http.Client{Transport: tr}, nil
}
