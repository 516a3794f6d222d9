package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/porter/pkg/domain/model"
	"github.com/m-mizutani/porter/pkg/domain/types"
)

// Client talks to a model hub through its repository API. A fetch first
// confirms that the repository revision is accessible, then streams the
// whole file in one request. Resume is not available through this path.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// New creates a hub client for the given endpoint. The token may be empty
// when no gated repositories are configured.
func New(endpoint, token string, options ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		token:    token,
		client:   http.DefaultClient,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Method returns the fetch method this client serves
func (c *Client) Method() model.FetchMethod {
	return model.MethodHub
}

// SupportsResume reports that hub transfers always restart from zero
func (c *Client) SupportsResume() bool {
	return false
}

// Fetch streams the file identified by src into w. The repository revision
// is checked through the hub API first so that missing or gated
// repositories fail without a download request.
func (c *Client) Fetch(ctx context.Context, src model.Source, w io.Writer, offset int64) (int64, error) {
	if offset > 0 {
		return 0, types.ErrResumeNotSupported
	}

	if err := c.checkRepo(ctx, src); err != nil {
		return 0, err
	}

	u := FileURL(c.endpoint, src)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to build download request",
			goerr.V("url", u), goerr.T(types.TagFatal))
	}
	c.authorize(req, src)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, goerr.Wrap(err, "download request failed",
			goerr.V("url", u), goerr.T(types.TagTransient))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, StatusError(resp.StatusCode, u)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, goerr.Wrap(err, "download stream interrupted",
			goerr.V("url", u), goerr.V("bytes", n), goerr.T(types.TagTransient))
	}

	return n, nil
}

// checkRepo queries the hub API for the repository revision. The response
// status distinguishes gated, missing and healthy repositories.
func (c *Client) checkRepo(ctx context.Context, src model.Source) error {
	u := fmt.Sprintf("%s/api/models/%s/revision/%s", c.endpoint, src.Repo, url.PathEscape(src.Revision))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to build repository check request",
			goerr.V("url", u), goerr.T(types.TagFatal))
	}
	c.authorize(req, src)

	resp, err := c.client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "repository check failed",
			goerr.V("repo", src.Repo), goerr.T(types.TagTransient))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return goerr.New("repository access rejected",
			goerr.V("repo", src.Repo),
			goerr.V("status", resp.StatusCode),
			goerr.T(types.TagFatal))
	case resp.StatusCode == http.StatusNotFound:
		return goerr.New("repository or revision not found",
			goerr.V("repo", src.Repo),
			goerr.V("revision", src.Revision),
			goerr.T(types.TagFatal))
	case resp.StatusCode >= 500:
		return goerr.New("hub server error",
			goerr.V("repo", src.Repo),
			goerr.V("status", resp.StatusCode),
			goerr.T(types.TagTransient))
	default:
		return goerr.New("unexpected hub response",
			goerr.V("repo", src.Repo),
			goerr.V("status", resp.StatusCode),
			goerr.T(types.TagFatal))
	}
}

func (c *Client) authorize(req *http.Request, src model.Source) {
	if src.RequiresToken && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// FileURL returns the download URL for a source file on the hub
func FileURL(endpoint string, src model.Source) string {
	return fmt.Sprintf("%s/%s/resolve/%s/%s",
		strings.TrimSuffix(endpoint, "/"),
		src.Repo,
		url.PathEscape(src.Revision),
		escapePath(src.Path),
	)
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// StatusError maps a non-2xx download response status to a classified error
func StatusError(status int, u string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return goerr.New("access rejected",
			goerr.V("status", status), goerr.V("url", u), goerr.T(types.TagFatal))
	case status == http.StatusNotFound:
		return goerr.New("file not found",
			goerr.V("status", status), goerr.V("url", u), goerr.T(types.TagFatal))
	case status == http.StatusRequestedRangeNotSatisfiable:
		return types.ErrResumeNotSupported
	case status == http.StatusTooManyRequests:
		return goerr.New("rate limited",
			goerr.V("status", status), goerr.V("url", u), goerr.T(types.TagTransient))
	case status >= 500:
		return goerr.New("server error",
			goerr.V("status", status), goerr.V("url", u), goerr.T(types.TagTransient))
	default:
		return goerr.New("unexpected response status",
			goerr.V("status", status), goerr.V("url", u), goerr.T(types.TagFatal))
	}
}
