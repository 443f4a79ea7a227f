// Package github implements the source-host fetch interface against the
// GitHub REST v3 API.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/componentize/repodata/errors"
	"github.com/componentize/repodata/ingest"
	"github.com/componentize/repodata/internal/httpclient"
)

const defaultBaseURL = "https://api.github.com"

const acceptJSON = "application/vnd.github.v3+json"

// Client calls the GitHub REST API with token auth and client-side rate
// smoothing. It satisfies the ingest source interface.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	logger     *zap.SugaredLogger
}

var _ ingest.Source = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL, used for GitHub Enterprise and
// tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit overrides the client-side request rate
func WithRateLimit(requestsPerSec float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSec), 10)
	}
}

// NewClient creates a GitHub API client. An empty token makes
// unauthenticated requests, which carry a far lower rate-limit quota.
func NewClient(token string, timeout time.Duration, logger *zap.SugaredLogger, opts ...Option) *Client {
	c := &Client{
		httpClient: httpclient.New(timeout),
		baseURL:    defaultBaseURL,
		token:      token,
		// Authenticated quota is 5000/hour; smooth our own usage well
		// under it so bursts of secondary-manifest fetches never trip it.
		limiter: rate.NewLimiter(rate.Limit(1), 10),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TagExists reports whether the repository has a tag ref with the given
// name. A missing repository and a missing tag are indistinguishable here,
// both report false.
func (c *Client) TagExists(ctx context.Context, owner, repo, tag string) (bool, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/git/ref/tags/%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), tag)

	_, found, err := c.get(ctx, endpoint)
	if err != nil {
		return false, err
	}
	return found, nil
}

// contentsResponse is the subset of the contents endpoint payload we read
type contentsResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// FetchFile fetches one file at the ref via the contents endpoint,
// returning (nil, nil) when the file does not exist.
func (c *Client) FetchFile(ctx context.Context, owner, repo, ref, path string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), path, ref)

	body, found, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return decodeContents(body, path)
}

// FetchReadme fetches the repository readme at the ref, whatever its file
// name, returning (nil, nil) when the repository has none.
func (c *Client) FetchReadme(ctx context.Context, owner, repo, ref string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/readme?ref=%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), ref)

	body, found, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return decodeContents(body, "readme")
}

// get performs one API request. Not-found responses are reported through
// the found flag rather than an error; rate-limit responses carry the
// upstream reset time for the fetch loop.
func (c *Client) get(ctx context.Context, endpoint string) (body []byte, found bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, errors.Wrap(err, "rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", acceptJSON)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, errors.Wrapf(err, "GET %s", endpoint)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, nil
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, errors.Wrap(err, "read response body")
		}
		return body, true, nil
	case isRateLimited(resp):
		err := errors.Newf("GitHub API rate limit exhausted (status %d)", resp.StatusCode)
		if resetAt, ok := rateLimitReset(resp); ok {
			c.logger.Warnw("GitHub API rate limited", "reset_at", resetAt)
			return nil, false, ingest.MarkRateLimited(err, resetAt)
		}
		return nil, false, err
	default:
		return nil, false, errors.Newf("GitHub API returned status %d for %s", resp.StatusCode, endpoint)
	}
}

// decodeContents unwraps the base64 file payload of the contents endpoint
func decodeContents(body []byte, path string) ([]byte, error) {
	var contents contentsResponse
	if err := json.Unmarshal(body, &contents); err != nil {
		return nil, errors.Wrapf(err, "parse contents response for %s", path)
	}
	if contents.Type != "" && contents.Type != "file" {
		return nil, errors.Newf("%s is a %s, not a file", path, contents.Type)
	}
	if contents.Encoding != "" && contents.Encoding != "base64" {
		return nil, errors.Newf("unsupported content encoding %q for %s", contents.Encoding, path)
	}
	decoded, err := base64.StdEncoding.DecodeString(contents.Content)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s content", path)
	}
	return decoded, nil
}

// isRateLimited detects quota exhaustion. GitHub reports it as 403 or 429
// with a zeroed remaining header.
func isRateLimited(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode == http.StatusForbidden &&
		resp.Header.Get("X-RateLimit-Remaining") == "0"
}

// rateLimitReset reads the quota reset time from the response headers
func rateLimitReset(resp *http.Response) (time.Time, bool) {
	raw := resp.Header.Get("X-RateLimit-Reset")
	if raw == "" {
		return time.Time{}, false
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
