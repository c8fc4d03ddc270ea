package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"golang.org/x/mod/semver"
)

// PackageFile is the npm metadata file read from the plugin directory.
const PackageFile = "package.json"

var validate = validator.New()

// Package holds the package.json fields a plugin build depends on.
type Package struct {
	Name    string `json:"name" validate:"required"`
	Version string `json:"version" validate:"required"`
	Main    string `json:"main" validate:"required"`
}

// LoadPackage reads and validates <dir>/package.json.
func LoadPackage(ctx context.Context, fs afs.Service, dir string) (*Package, error) {
	location := url.Join(dir, PackageFile)
	data, err := fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	pkg := &Package{}
	if err := json.Unmarshal(data, pkg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", location, err)
	}
	if err := validate.Struct(pkg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", location, err)
	}
	return pkg, nil
}

// SemverWarning returns a non-empty message when Version is not a semantic
// version. npm accepts such versions, so this is advisory only.
func (p *Package) SemverWarning() string {
	v := p.Version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if semver.IsValid(v) {
		return ""
	}
	return fmt.Sprintf("version %q of %s is not a semantic version", p.Version, p.Name)
}

// BundleName is the package name made safe for use as a file name. Scoped
// names such as @acme/tool become @acme_tool.
func (p *Package) BundleName() string {
	return strings.ReplaceAll(p.Name, "/", "_")
}
