package usecase

import (
	"path"

	"github.com/m-mizutani/porter/pkg/domain/model"
)

// Resolver expands an artifact's declared sources into the ordered list of
// candidate sources a session will try.
type Resolver struct{}

// NewResolver creates a new source resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

// Candidates returns the candidate sources for spec in the order they must
// be attempted. Declared sources keep their manifest order. A source marked
// path_ambiguous is followed by a variant that uses only the base name of
// its path, which covers repositories that publish a flattened layout.
// The expansion is deterministic and duplicate candidates are dropped.
func (x *Resolver) Candidates(spec *model.ArtifactSpec) []model.Source {
	out := make([]model.Source, 0, len(spec.Sources))

	appendUnique := func(src model.Source) {
		for _, seen := range out {
			if seen.Equal(src) {
				return
			}
		}
		out = append(out, src)
	}

	for _, src := range spec.Sources {
		appendUnique(src)

		if !src.PathAmbiguous {
			continue
		}
		if base := path.Base(src.Path); base != src.Path {
			variant := src
			variant.Path = base
			appendUnique(variant)
		}
	}

	return out
}
