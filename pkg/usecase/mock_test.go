package usecase_test

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/m-mizutani/porter/pkg/domain/model"
)

// mockFetcher is a scriptable FileFetcher for tests
type mockFetcher struct {
	method model.FetchMethod
	resume bool
	fetch  func(ctx context.Context, src model.Source, w io.Writer, offset int64) (int64, error)

	mu    sync.Mutex
	calls []fetchCall
}

type fetchCall struct {
	src    model.Source
	offset int64
}

func (m *mockFetcher) Method() model.FetchMethod {
	return m.method
}

func (m *mockFetcher) SupportsResume() bool {
	return m.resume
}

func (m *mockFetcher) Fetch(ctx context.Context, src model.Source, w io.Writer, offset int64) (int64, error) {
	m.mu.Lock()
	m.calls = append(m.calls, fetchCall{src: src, offset: offset})
	m.mu.Unlock()

	if m.fetch == nil {
		return 0, nil
	}
	return m.fetch(ctx, src, w, offset)
}

func (m *mockFetcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockFetcher) call(i int) fetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

// countingTripper answers every reachability probe with a fixed status,
// 200 OK unless told otherwise
type countingTripper struct {
	count  atomic.Int64
	status int
}

func (t *countingTripper) RoundTrip(*http.Request) (*http.Response, error) {
	t.count.Add(1)
	status := t.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       http.NoBody,
		Header:     make(http.Header),
	}, nil
}

func testSource(method model.FetchMethod, repo, path string) model.Source {
	return model.Source{
		Repo:     repo,
		Path:     path,
		Revision: "main",
		Method:   method,
	}
}

func testSpec(name string, minBytes int64, sources ...model.Source) model.ArtifactSpec {
	return model.ArtifactSpec{
		Name:     name,
		Dir:      "models",
		Filename: name + ".safetensors",
		Size:     model.SizeContract{MinBytes: minBytes},
		Sources:  sources,
	}
}
