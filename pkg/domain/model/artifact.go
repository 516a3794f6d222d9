package model

import (
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// ArtifactSpec represents one required file and where it can be fetched from
type ArtifactSpec struct {
	Name     string       `json:"name" toml:"name" yaml:"name"`             // Logical name used in logs and reports
	Dir      string       `json:"dir" toml:"dir" yaml:"dir"`                // Destination directory relative to the base dir
	Filename string       `json:"filename" toml:"filename" yaml:"filename"` // Final file name in the destination directory
	Size     SizeContract `json:"size" toml:"size" yaml:"size"`             // Integrity contract for the fetched file
	Sources  []Source     `json:"sources" toml:"sources" yaml:"sources"`    // Candidate locations in priority order
}

// DestPath returns the absolute destination path under baseDir
func (s *ArtifactSpec) DestPath(baseDir string) string {
	return filepath.Join(baseDir, s.Dir, s.Filename)
}

// StagePath returns the path of the in-progress staging file. Partial data
// lives here until the file passes validation and is published.
func (s *ArtifactSpec) StagePath(baseDir string) string {
	return s.DestPath(baseDir) + ".part"
}

// Validate checks that the artifact description is complete enough to fetch
func (s *ArtifactSpec) Validate() error {
	if s.Name == "" {
		return goerr.New("artifact name is required")
	}
	if s.Filename == "" {
		return goerr.New("artifact filename is required", goerr.V("artifact", s.Name))
	}
	if filepath.IsAbs(s.Dir) {
		return goerr.New("artifact dir must be relative", goerr.V("artifact", s.Name), goerr.V("dir", s.Dir))
	}
	if err := s.Size.Validate(); err != nil {
		return goerr.Wrap(err, "invalid size contract", goerr.V("artifact", s.Name))
	}
	if len(s.Sources) == 0 {
		return goerr.New("artifact needs at least one source", goerr.V("artifact", s.Name))
	}
	for i, src := range s.Sources {
		if src.Repo == "" {
			return goerr.New("source repo is required", goerr.V("artifact", s.Name), goerr.V("index", i))
		}
		if src.Path == "" {
			return goerr.New("source path is required", goerr.V("artifact", s.Name), goerr.V("index", i))
		}
		if !src.Method.IsValid() {
			return goerr.New("unknown fetch method", goerr.V("artifact", s.Name), goerr.V("method", string(src.Method)))
		}
	}
	return nil
}

// SizeContract represents the expected size of a fetched file. Either
// MinBytes or ExactBytes must be set. A file is considered complete when it
// meets the contract; anything smaller is a truncated or failed download.
type SizeContract struct {
	MinBytes       int64  `json:"min_bytes,omitempty" toml:"min_bytes,omitempty" yaml:"min_bytes"`                   // Minimum acceptable size in bytes
	ExactBytes     int64  `json:"exact_bytes,omitempty" toml:"exact_bytes,omitempty" yaml:"exact_bytes"`             // Exact expected size in bytes
	ToleranceBytes int64  `json:"tolerance_bytes,omitempty" toml:"tolerance_bytes,omitempty" yaml:"tolerance_bytes"` // Allowed deviation from ExactBytes
	SHA256         string `json:"sha256,omitempty" toml:"sha256,omitempty" yaml:"sha256"`                            // Optional content digest, verified when set
}

// Satisfied checks if an on-disk size meets the contract
func (c SizeContract) Satisfied(actual int64) bool {
	if c.ExactBytes > 0 {
		diff := actual - c.ExactBytes
		if diff < 0 {
			diff = -diff
		}
		return diff <= c.ToleranceBytes
	}
	return actual >= c.MinBytes
}

// ExpectedBytes returns the size to assume for planning and disk space
// estimates before the file exists.
func (c SizeContract) ExpectedBytes() int64 {
	if c.ExactBytes > 0 {
		return c.ExactBytes
	}
	return c.MinBytes
}

// Validate checks that the contract is usable
func (c SizeContract) Validate() error {
	if c.MinBytes <= 0 && c.ExactBytes <= 0 {
		return goerr.New("either min_bytes or exact_bytes is required")
	}
	if c.MinBytes > 0 && c.ExactBytes > 0 {
		return goerr.New("min_bytes and exact_bytes are exclusive")
	}
	if c.ToleranceBytes < 0 {
		return goerr.New("tolerance_bytes must not be negative")
	}
	if c.ToleranceBytes > 0 && c.ExactBytes <= 0 {
		return goerr.New("tolerance_bytes requires exact_bytes")
	}
	return nil
}
