package types_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/porter/pkg/domain/types"
)

func TestHasTag(t *testing.T) {
	t.Run("direct tag", func(t *testing.T) {
		err := goerr.New("boom", goerr.T(types.TagTransient))
		gt.Value(t, types.IsTransient(err)).Equal(true)
		gt.Value(t, types.IsFatal(err)).Equal(false)
	})

	t.Run("tag survives wrapping", func(t *testing.T) {
		inner := goerr.New("object not found", goerr.T(types.TagFatal))
		wrapped := goerr.Wrap(inner, "fetch failed", goerr.V("artifact", "vae"))
		gt.Value(t, types.IsFatal(wrapped)).Equal(true)
	})

	t.Run("tag survives fmt wrapping", func(t *testing.T) {
		inner := goerr.New("connection reset", goerr.T(types.TagTransient))
		wrapped := fmt.Errorf("attempt 2: %w", inner)
		gt.Value(t, types.IsTransient(wrapped)).Equal(true)
	})

	t.Run("untagged error has no class", func(t *testing.T) {
		err := errors.New("plain failure")
		gt.Value(t, types.IsTransient(err)).Equal(false)
		gt.Value(t, types.IsFatal(err)).Equal(false)
		gt.Value(t, types.IsPrecondition(err)).Equal(false)
	})

	t.Run("nil error has no class", func(t *testing.T) {
		gt.Value(t, types.IsTransient(nil)).Equal(false)
	})
}

func TestSentinels(t *testing.T) {
	t.Run("precondition sentinels carry the tag", func(t *testing.T) {
		for _, err := range []error{
			types.ErrMissingCredential,
			types.ErrPathNotWritable,
			types.ErrInsufficientSpace,
			types.ErrHostUnreachable,
		} {
			gt.Value(t, types.IsPrecondition(err)).Equal(true)
		}
	})

	t.Run("wrapped sentinel still matches errors.Is", func(t *testing.T) {
		err := goerr.Wrap(types.ErrMissingCredential, "a configured source requires a token")
		gt.Value(t, errors.Is(err, types.ErrMissingCredential)).Equal(true)
		gt.Value(t, types.IsPrecondition(err)).Equal(true)
	})

	t.Run("resume sentinel is not classified", func(t *testing.T) {
		gt.Value(t, types.IsTransient(types.ErrResumeNotSupported)).Equal(false)
		gt.Value(t, types.IsFatal(types.ErrResumeNotSupported)).Equal(false)
	})
}

func TestIDs(t *testing.T) {
	t.Run("session IDs are unique", func(t *testing.T) {
		a := types.NewSessionID()
		b := types.NewSessionID()
		gt.Value(t, a).NotEqual(b)
		gt.Value(t, a.String()).NotEqual("")
	})

	t.Run("attempt IDs are unique", func(t *testing.T) {
		a := types.NewAttemptID()
		b := types.NewAttemptID()
		gt.Value(t, a).NotEqual(b)
	})
}
