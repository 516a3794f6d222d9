package direct

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/porter/pkg/domain/model"
	"github.com/m-mizutani/porter/pkg/domain/types"
	"github.com/m-mizutani/porter/pkg/infra/hub"
)

// Fetcher downloads resolved file URLs over plain HTTP. It asks for a byte
// range when resuming a partial file and reports back when the server does
// not honor the range request.
type Fetcher struct {
	endpoint string
	token    string
	client   *http.Client
}

// Option customizes a Fetcher
type Option func(*Fetcher)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// New creates a direct HTTP fetcher against the given hub endpoint
func New(endpoint, token string, options ...Option) *Fetcher {
	f := &Fetcher{
		endpoint: endpoint,
		token:    token,
		client:   http.DefaultClient,
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// Method returns the fetch method this fetcher serves
func (f *Fetcher) Method() model.FetchMethod {
	return model.MethodDirect
}

// SupportsResume reports that direct transfers can continue partial files
func (f *Fetcher) SupportsResume() bool {
	return true
}

// Fetch streams the file identified by src into w, starting at offset
func (f *Fetcher) Fetch(ctx context.Context, src model.Source, w io.Writer, offset int64) (int64, error) {
	u := hub.FileURL(f.endpoint, src)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to build download request",
			goerr.V("url", u), goerr.T(types.TagFatal))
	}
	if src.RequiresToken && f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, goerr.Wrap(err, "download request failed",
			goerr.V("url", u), goerr.T(types.TagTransient))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if offset > 0 {
			// The server ignored the range request and is sending the
			// whole file again. The engine restarts the stage from zero.
			return 0, types.ErrResumeNotSupported
		}
	case http.StatusPartialContent:
		if offset == 0 {
			return 0, goerr.New("partial response without a range request",
				goerr.V("url", u), goerr.T(types.TagFatal))
		}
	default:
		return 0, hub.StatusError(resp.StatusCode, u)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, goerr.Wrap(err, "download stream interrupted",
			goerr.V("url", u), goerr.V("bytes", n), goerr.T(types.TagTransient))
	}

	return n, nil
}
