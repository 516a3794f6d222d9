package model

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Manifest represents the set of artifacts a session must provide
type Manifest struct {
	Artifacts []ArtifactSpec `json:"artifacts" toml:"artifacts" yaml:"artifacts"`
}

// LoadManifest reads a manifest from a TOML or YAML file, applies defaults
// and validates it.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read manifest", goerr.V("path", path))
	}

	var manifest Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &manifest); err != nil {
			return nil, goerr.Wrap(err, "failed to parse TOML manifest", goerr.V("path", path))
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return nil, goerr.Wrap(err, "failed to parse YAML manifest", goerr.V("path", path))
		}
	default:
		return nil, goerr.New("unsupported manifest format", goerr.V("path", path))
	}

	manifest.applyDefaults()
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	return &manifest, nil
}

func (m *Manifest) applyDefaults() {
	for i := range m.Artifacts {
		for j := range m.Artifacts[i].Sources {
			src := &m.Artifacts[i].Sources[j]
			if src.Method == "" {
				src.Method = MethodHub
			}
			if src.Revision == "" && src.Method != MethodGCS {
				src.Revision = "main"
			}
		}
	}
}

// Validate checks every artifact spec and rejects duplicate destinations
func (m *Manifest) Validate() error {
	if len(m.Artifacts) == 0 {
		return goerr.New("manifest has no artifacts")
	}

	names := make(map[string]struct{}, len(m.Artifacts))
	dests := make(map[string]struct{}, len(m.Artifacts))
	for i := range m.Artifacts {
		spec := &m.Artifacts[i]
		if err := spec.Validate(); err != nil {
			return err
		}

		if _, ok := names[spec.Name]; ok {
			return goerr.New("duplicate artifact name", goerr.V("artifact", spec.Name))
		}
		names[spec.Name] = struct{}{}

		dest := filepath.Join(spec.Dir, spec.Filename)
		if _, ok := dests[dest]; ok {
			return goerr.New("duplicate destination path", goerr.V("dest", dest))
		}
		dests[dest] = struct{}{}
	}

	return nil
}

// RequiresToken checks if any configured source needs an access token
func (m *Manifest) RequiresToken() bool {
	for i := range m.Artifacts {
		for _, src := range m.Artifacts[i].Sources {
			if src.RequiresToken {
				return true
			}
		}
	}
	return false
}

// HasMethod checks if any source uses the given fetch method
func (m *Manifest) HasMethod(method FetchMethod) bool {
	for i := range m.Artifacts {
		for _, src := range m.Artifacts[i].Sources {
			if src.Method == method {
				return true
			}
		}
	}
	return false
}

// Dirs returns the distinct destination directories, relative to the base
// dir, in manifest order.
func (m *Manifest) Dirs() []string {
	seen := make(map[string]struct{}, len(m.Artifacts))
	var dirs []string
	for i := range m.Artifacts {
		dir := m.Artifacts[i].Dir
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	return dirs
}
