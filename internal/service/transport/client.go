package transport

import (
	"errors"
	"net/http"
	"time"
)

// maxRedirects bounds redirect chains; release downloads usually redirect once or twice to a CDN.
const maxRedirects = 10

var errTooManyRedirects = errors.New("too many redirects")

// NewHTTPClient returns a client whose timeout covers the whole exchange, body included.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errTooManyRedirects
			}

			return nil
		},
	}
}
