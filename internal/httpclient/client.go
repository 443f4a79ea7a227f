// Package httpclient provides the hardened HTTP client used for all
// outbound requests (source-host API, release announcements).
package httpclient

import (
	"net/http"
	"net/url"
	"time"

	"github.com/componentize/repodata/errors"
)

const maxRedirects = 10

// New creates an HTTP client with a request timeout, a redirect cap, and
// scheme validation on redirects. Upstream hosts control redirect targets,
// so they are checked the same way as the original URL.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.Newf("stopped after %d redirects", maxRedirects)
			}
			if err := validateURL(req.URL); err != nil {
				return errors.Wrap(err, "redirect blocked")
			}
			return nil
		},
	}
}

func validateURL(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Newf("scheme %q not allowed", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
