package types

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

// Error tags classify failures so that callers can decide whether an
// operation is worth retrying.
var (
	// TagPrecondition marks environment problems detected before any
	// transfer starts. The whole session aborts on these.
	TagPrecondition = goerr.NewTag("precondition")

	// TagTransient marks failures that may resolve on retry, such as
	// network interruptions or server-side errors.
	TagTransient = goerr.NewTag("transient")

	// TagFatal marks failures that will not resolve on retry against the
	// same source, such as missing objects or rejected credentials.
	TagFatal = goerr.NewTag("fatal")
)

var (
	ErrMissingCredential = goerr.New("access token is not configured", goerr.T(TagPrecondition))
	ErrPathNotWritable   = goerr.New("destination path is not writable", goerr.T(TagPrecondition))
	ErrInsufficientSpace = goerr.New("not enough free disk space", goerr.T(TagPrecondition))
	ErrHostUnreachable   = goerr.New("remote host is not reachable", goerr.T(TagPrecondition))

	// ErrResumeNotSupported is returned by a fetcher when the remote side
	// cannot serve the requested byte offset. The transfer engine restarts
	// the file from the beginning when it sees this.
	ErrResumeNotSupported = errors.New("remote does not support resume from offset")

	// ErrArtifactsFailed is returned by the fetch command when the session
	// completed but one or more artifacts could not be fetched.
	ErrArtifactsFailed = goerr.New("one or more artifacts failed")
)

// HasTag reports whether any error in the chain carries the given tag.
func HasTag(err error, tag goerr.Tag) bool {
	for err != nil {
		if goErr, ok := err.(*goerr.Error); ok && goErr.HasTag(tag) {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsPrecondition reports whether err is an environment problem that
// should abort the session.
func IsPrecondition(err error) bool {
	return HasTag(err, TagPrecondition)
}

// IsTransient reports whether err may resolve on retry.
func IsTransient(err error) bool {
	return HasTag(err, TagTransient)
}

// IsFatal reports whether err is permanent for the source that produced it.
func IsFatal(err error) bool {
	return HasTag(err, TagFatal)
}
