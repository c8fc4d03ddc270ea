package config

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"
)

// ProjectFile is the optional per-plugin settings file.
const ProjectFile = "vacpac.yaml"

// Project is the decoded vacpac.yaml. Every field has a default, so a plugin
// without the file behaves exactly like one with an empty file.
type Project struct {
	Manifest string        `yaml:"manifest" validate:"required"`
	Exports  ExportsConfig `yaml:"exports"`
	Bundler  BundlerConfig `yaml:"bundler"`
	Catalog  CatalogConfig `yaml:"catalog"`
}

// ExportsConfig controls export matching.
type ExportsConfig struct {
	ResolveAliases bool `yaml:"resolveAliases"`
}

// BundlerConfig controls bundler config generation and invocation.
type BundlerConfig struct {
	Skip     bool     `yaml:"skip"`
	Config   string   `yaml:"config" validate:"required"`
	Template string   `yaml:"template"`
	Command  []string `yaml:"command" validate:"required,min=1,dive,required"`
}

// CatalogConfig controls publishing to the vector catalog.
type CatalogConfig struct {
	Collection string `yaml:"collection"`
	BatchSize  int    `yaml:"batchSize" validate:"gte=1,lte=2048"`
}

// DefaultProject returns the settings used when vacpac.yaml is absent.
func DefaultProject() *Project {
	return &Project{
		Manifest: "manifest.json",
		Bundler: BundlerConfig{
			Config:  "rollup.config.js",
			Command: []string{"npx", "rollup", "--config", "rollup.config.js"},
		},
		Catalog: CatalogConfig{BatchSize: 16},
	}
}

// LoadProject reads <dir>/vacpac.yaml over the defaults.
func LoadProject(ctx context.Context, fs afs.Service, dir string) (*Project, error) {
	project := DefaultProject()
	location := url.Join(dir, ProjectFile)
	exists, err := fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", location, err)
	}
	if !exists {
		return project, nil
	}
	data, err := fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	if err := yaml.Unmarshal(data, project); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", location, err)
	}
	if err := validate.Struct(project); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", location, err)
	}
	return project, nil
}

var collectionUnsafe = regexp.MustCompile(`[^a-z0-9_]+`)

// CollectionName returns the vector collection for a plugin, honoring an
// explicit catalog.collection setting.
func (p *Project) CollectionName(pkg *Package) string {
	if p.Catalog.Collection != "" {
		return p.Catalog.Collection
	}
	name := collectionUnsafe.ReplaceAllString(strings.ToLower(pkg.Name), "_")
	return "vacpac_" + strings.Trim(name, "_")
}
