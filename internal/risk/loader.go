package risk

import (
	"context"
	"fmt"

	"github.com/goccy/go-yaml"
)

// Manifest lists the models of a registry in scoring order.
type Manifest struct {
	Models []ManifestEntry `yaml:"models"`
}

// ManifestEntry names a model and the artifact file holding its parameters.
type ManifestEntry struct {
	Name     string `yaml:"name"`
	Artifact string `yaml:"artifact"`
}

// LoadRegistry reads the manifest and every artifact it references from src.
func LoadRegistry(ctx context.Context, src Source, manifest string) (*Registry, error) {
	raw, err := src.Read(ctx, manifest)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", manifest, err)
	}
	var m Manifest
	if err := yaml.UnmarshalWithOptions(raw, &m, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", manifest, err)
	}

	loaded := make([]Model, 0, len(m.Models))
	for _, entry := range m.Models {
		if entry.Artifact == "" {
			return nil, fmt.Errorf("model %q: artifact is required", entry.Name)
		}
		data, err := src.Read(ctx, entry.Artifact)
		if err != nil {
			return nil, fmt.Errorf("read artifact for %q: %w", entry.Name, err)
		}
		model, err := DecodeArtifact(entry.Name, data)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, model)
	}
	return NewRegistry(loaded...)
}

// Load resolves uri and loads the registry it points at.
func Load(ctx context.Context, uri string, opts S3Options) (*Registry, error) {
	src, manifest, err := OpenSource(ctx, uri, opts)
	if err != nil {
		return nil, err
	}
	return LoadRegistry(ctx, src, manifest)
}
