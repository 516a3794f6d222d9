package interfaces

import (
	"context"
	"io"

	"github.com/m-mizutani/porter/pkg/domain/model"
)

// FileFetcher defines one transport for retrieving a remote file. The
// transfer engine owns the stage file and retry policy; a fetcher performs
// exactly one request sequence and streams the body into w.
type FileFetcher interface {
	// Method returns the fetch method this fetcher serves
	Method() model.FetchMethod

	// SupportsResume reports whether Fetch can continue from a non-zero offset
	SupportsResume() bool

	// Fetch streams the remote file identified by src into w, starting at
	// offset. It returns the number of bytes written, which may be non-zero
	// even on error when the stream broke mid-transfer. A fetcher that
	// cannot serve the requested offset returns types.ErrResumeNotSupported.
	Fetch(ctx context.Context, src model.Source, w io.Writer, offset int64) (int64, error)
}

// Notifier defines a destination for session completion notices
type Notifier interface {
	// Notify delivers a summary of the finished session
	Notify(ctx context.Context, report *model.SessionReport) error
}
