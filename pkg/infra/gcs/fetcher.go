package gcs

import (
	"context"
	"errors"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/porter/pkg/domain/model"
	"github.com/m-mizutani/porter/pkg/domain/types"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Fetcher downloads objects from Google Cloud Storage mirror buckets. The
// source repo names the bucket, the source path names the object key.
// Mirrors carry no revision concept, so the source revision is ignored.
type Fetcher struct {
	client *storage.Client
}

// New creates a GCS fetcher. Credentials come from the environment; pass
// option.WithoutAuthentication() for public mirror buckets.
func New(ctx context.Context, options ...option.ClientOption) (*Fetcher, error) {
	client, err := storage.NewClient(ctx, options...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}
	return &Fetcher{client: client}, nil
}

// Close releases the underlying storage client
func (f *Fetcher) Close() error {
	return f.client.Close()
}

// Method returns the fetch method this fetcher serves
func (f *Fetcher) Method() model.FetchMethod {
	return model.MethodGCS
}

// SupportsResume reports that range reads can continue partial files
func (f *Fetcher) SupportsResume() bool {
	return true
}

// Fetch streams the object identified by src into w, starting at offset
func (f *Fetcher) Fetch(ctx context.Context, src model.Source, w io.Writer, offset int64) (int64, error) {
	obj := f.client.Bucket(src.Repo).Object(src.Path)

	r, err := obj.NewRangeReader(ctx, offset, -1)
	if err != nil {
		return 0, classifyReaderError(err, src)
	}
	defer r.Close()

	n, err := io.Copy(w, r)
	if err != nil {
		return n, goerr.Wrap(err, "object stream interrupted",
			goerr.V("bucket", src.Repo),
			goerr.V("object", src.Path),
			goerr.V("bytes", n),
			goerr.T(types.TagTransient))
	}

	return n, nil
}

func classifyReaderError(err error, src model.Source) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return goerr.Wrap(err, "object not found",
			goerr.V("bucket", src.Repo),
			goerr.V("object", src.Path),
			goerr.T(types.TagFatal))
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return goerr.Wrap(err, "bucket access rejected",
				goerr.V("bucket", src.Repo),
				goerr.T(types.TagFatal))
		case apiErr.Code == http.StatusRequestedRangeNotSatisfiable:
			return types.ErrResumeNotSupported
		case apiErr.Code >= 500:
			return goerr.Wrap(err, "storage server error",
				goerr.V("bucket", src.Repo),
				goerr.T(types.TagTransient))
		}
	}

	return goerr.Wrap(err, "failed to open object reader",
		goerr.V("bucket", src.Repo),
		goerr.V("object", src.Path),
		goerr.T(types.TagTransient))
}
