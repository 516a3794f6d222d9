package direct_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/porter/pkg/domain/model"
	"github.com/m-mizutani/porter/pkg/domain/types"
	"github.com/m-mizutani/porter/pkg/infra/direct"
)

const fileContent = "0123456789abcdefghij"

// newRangeServer serves fileContent and honors Range requests the way a
// well-behaved mirror does.
func newRangeServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rangeHeader := r.Header.Get("Range")
		if rangeHeader == "" {
			_, _ = w.Write([]byte(fileContent))
			return
		}

		offset, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(rangeHeader, "bytes="), "-"), 10, 64)
		if err != nil || offset >= int64(len(fileContent)) {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}

		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, len(fileContent)-1, len(fileContent)))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte(fileContent[offset:]))
	}))
	t.Cleanup(server.Close)
	return server
}

func testSource() model.Source {
	return model.Source{
		Repo:     "weights-mirror/wan22",
		Path:     "vae/wan_2.1_vae.safetensors",
		Revision: "main",
		Method:   model.MethodDirect,
	}
}

func TestFetcher_Fetch(t *testing.T) {
	t.Run("downloads the whole file from zero", func(t *testing.T) {
		server := newRangeServer(t)
		fetcher := direct.New(server.URL, "")

		var buf bytes.Buffer
		n, err := fetcher.Fetch(context.Background(), testSource(), &buf, 0)
		gt.NoError(t, err)
		gt.Number(t, n).Equal(int64(len(fileContent)))
		gt.Value(t, buf.String()).Equal(fileContent)
	})

	t.Run("resumes from the requested offset", func(t *testing.T) {
		server := newRangeServer(t)
		fetcher := direct.New(server.URL, "")

		var buf bytes.Buffer
		n, err := fetcher.Fetch(context.Background(), testSource(), &buf, 10)
		gt.NoError(t, err)
		gt.Number(t, n).Equal(10)
		gt.Value(t, buf.String()).Equal("abcdefghij")
	})

	t.Run("reports a server that ignores range requests", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(fileContent))
		}))
		t.Cleanup(server.Close)
		fetcher := direct.New(server.URL, "")

		var buf bytes.Buffer
		n, err := fetcher.Fetch(context.Background(), testSource(), &buf, 10)
		gt.Value(t, errors.Is(err, types.ErrResumeNotSupported)).Equal(true)

		// Nothing may reach the writer, the stage would be corrupted
		gt.Number(t, n).Equal(0)
		gt.Number(t, buf.Len()).Equal(0)
	})

	t.Run("rejects an unsolicited partial response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write([]byte("fragment"))
		}))
		t.Cleanup(server.Close)
		fetcher := direct.New(server.URL, "")

		var buf bytes.Buffer
		_, err := fetcher.Fetch(context.Background(), testSource(), &buf, 0)
		gt.Error(t, err)
		gt.Value(t, types.IsFatal(err)).Equal(true)
	})

	t.Run("range past the end surfaces as resume failure", func(t *testing.T) {
		server := newRangeServer(t)
		fetcher := direct.New(server.URL, "")

		var buf bytes.Buffer
		_, err := fetcher.Fetch(context.Background(), testSource(), &buf, int64(len(fileContent)+100))
		gt.Value(t, errors.Is(err, types.ErrResumeNotSupported)).Equal(true)
	})

	t.Run("missing file is fatal", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(server.Close)
		fetcher := direct.New(server.URL, "")

		var buf bytes.Buffer
		_, err := fetcher.Fetch(context.Background(), testSource(), &buf, 0)
		gt.Error(t, err)
		gt.Value(t, types.IsFatal(err)).Equal(true)
	})

	t.Run("server error is transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(server.Close)
		fetcher := direct.New(server.URL, "")

		var buf bytes.Buffer
		_, err := fetcher.Fetch(context.Background(), testSource(), &buf, 0)
		gt.Error(t, err)
		gt.Value(t, types.IsTransient(err)).Equal(true)
	})

	t.Run("sends the bearer token for gated sources", func(t *testing.T) {
		var mu sync.Mutex
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			gotAuth = r.Header.Get("Authorization")
			mu.Unlock()
			_, _ = w.Write([]byte(fileContent))
		}))
		t.Cleanup(server.Close)
		fetcher := direct.New(server.URL, "hf_test_token")

		src := testSource()
		src.RequiresToken = true

		var buf bytes.Buffer
		_, err := fetcher.Fetch(context.Background(), src, &buf, 0)
		gt.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		gt.Value(t, gotAuth).Equal("Bearer hf_test_token")
	})

	t.Run("interface contract", func(t *testing.T) {
		fetcher := direct.New("https://example.com", "")
		gt.Value(t, fetcher.Method()).Equal(model.MethodDirect)
		gt.Value(t, fetcher.SupportsResume()).Equal(true)
	})
}
