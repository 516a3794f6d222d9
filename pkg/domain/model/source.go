package model

import "fmt"

// FetchMethod represents the transport used to retrieve a source
type FetchMethod string

const (
	// MethodHub fetches through the model hub repository API. The whole
	// file is streamed in one request and resume is not available.
	MethodHub FetchMethod = "hub"

	// MethodDirect fetches the resolved file URL over plain HTTP with
	// byte-range resume support.
	MethodDirect FetchMethod = "direct"

	// MethodGCS fetches from a Google Cloud Storage mirror bucket.
	MethodGCS FetchMethod = "gcs"
)

// IsValid checks if the fetch method is one of the known transports
func (m FetchMethod) IsValid() bool {
	switch m {
	case MethodHub, MethodDirect, MethodGCS:
		return true
	default:
		return false
	}
}

// Source represents one candidate location for an artifact
type Source struct {
	Repo          string      `json:"repo" toml:"repo" yaml:"repo"`                                                   // Hub repository ("org/name") or GCS bucket name
	Path          string      `json:"path" toml:"path" yaml:"path"`                                                   // File path within the repository or bucket
	Revision      string      `json:"revision,omitempty" toml:"revision,omitempty" yaml:"revision"`                   // Repository revision, defaults to "main"
	Method        FetchMethod `json:"method,omitempty" toml:"method,omitempty" yaml:"method"`                         // Transport, defaults to "hub"
	RequiresToken bool        `json:"requires_token,omitempty" toml:"requires_token,omitempty" yaml:"requires_token"` // Whether the repository is gated
	PathAmbiguous bool        `json:"path_ambiguous,omitempty" toml:"path_ambiguous,omitempty" yaml:"path_ambiguous"` // Whether path variants should also be tried
}

// Describe returns a short human readable identifier for logs and reports
func (s Source) Describe() string {
	return fmt.Sprintf("%s:%s/%s@%s", s.Method, s.Repo, s.Path, s.Revision)
}

// Equal checks if two sources address the same remote location
func (s Source) Equal(other Source) bool {
	return s.Method == other.Method &&
		s.Repo == other.Repo &&
		s.Path == other.Path &&
		s.Revision == other.Revision
}
