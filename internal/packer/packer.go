package packer

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"vacpac/internal/artifact"
	"vacpac/internal/bundler"
	"vacpac/internal/config"
	"vacpac/internal/console"
	"vacpac/internal/manifest"
	"vacpac/internal/parser"
)

// BundleRunner runs the external bundler.
type BundleRunner interface {
	Run(ctx context.Context, dir string, command []string) (*bundler.Result, error)
}

// Options override vacpac.yaml for a single run.
type Options struct {
	ResolveAliases bool
	ManifestPath   string
	SkipBundle     bool
}

// Packer builds the manifest of the plugin in Dir and hands it to the
// bundler.
type Packer struct {
	Dir     string
	FS      afs.Service
	Log     *console.Logger
	Parsers *parser.ParserFactory
	Runner  BundleRunner
	Options Options
}

// New creates a Packer for dir with the default collaborators.
func New(dir string, log *console.Logger, opts Options) *Packer {
	return &Packer{
		Dir:     dir,
		FS:      afs.New(),
		Log:     log,
		Parsers: parser.NewParserFactory(),
		Runner:  bundler.NewRunner(),
		Options: opts,
	}
}

// Build is the outcome of one run.
type Build struct {
	Package      *config.Package
	Project      *config.Project
	Manifest     *manifest.Manifest
	ManifestPath string
	Written      bool
	Bundled      bool
}

// Load reads package.json and vacpac.yaml with the run options applied.
func (p *Packer) Load(ctx context.Context) (*config.Package, *config.Project, error) {
	pkg, err := config.LoadPackage(ctx, p.FS, p.Dir)
	if err != nil {
		return nil, nil, err
	}
	if warning := pkg.SemverWarning(); warning != "" {
		p.Log.Warn("%s", warning)
	}
	project, err := config.LoadProject(ctx, p.FS, p.Dir)
	if err != nil {
		return nil, nil, err
	}
	if p.Options.ResolveAliases {
		project.Exports.ResolveAliases = true
	}
	if p.Options.ManifestPath != "" {
		project.Manifest = p.Options.ManifestPath
	}
	if p.Options.SkipBundle {
		project.Bundler.Skip = true
	}
	return pkg, project, nil
}

// EntryPath is the location of the plugin's main file.
func (p *Packer) EntryPath(pkg *config.Package) string {
	return url.Join(p.Dir, path.Clean(pkg.Main))
}

// Manifest parses the entry file and extracts its manifest without writing
// anything.
func (p *Packer) Manifest(ctx context.Context) (*Build, error) {
	pkg, project, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}

	entry := p.EntryPath(pkg)
	src, err := p.FS.DownloadWithURL(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry file %s: %w", entry, err)
	}
	mp, err := p.Parsers.GetParserByFilePath(pkg.Main)
	if err != nil {
		return nil, err
	}
	p.Log.Debug("parsing %s as %s", pkg.Main, mp.Language())
	mod, err := mp.Parse(ctx, pkg.Main, src)
	if err != nil {
		return nil, err
	}

	opts := []manifest.Option{
		manifest.WithUnresolved(func(name string) {
			p.Log.Debug("export %s is not a function declaration, skipped", name)
		}),
	}
	if project.Exports.ResolveAliases {
		opts = append(opts, manifest.WithAliasResolution())
	}
	m, err := manifest.Extract(pkg.Name, pkg.Version, mod, opts...)
	if err != nil {
		return nil, err
	}
	return &Build{
		Package:      pkg,
		Project:      project,
		Manifest:     m,
		ManifestPath: url.Join(p.Dir, path.Clean(project.Manifest)),
	}, nil
}

// Pack extracts and writes the manifest, then runs the bundler unless it is
// disabled. Nothing is written when extraction fails.
func (p *Packer) Pack(ctx context.Context) (*Build, error) {
	p.Log.Info("Operating in %s", p.Dir)
	build, err := p.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	for _, fn := range build.Manifest.Functions {
		p.Log.ReportFunction(fn)
	}
	p.Log.Success("Function metadata generation complete (%d exports)", len(build.Manifest.Functions))

	build.Written, err = artifact.WriteManifest(ctx, p.FS, build.ManifestPath, build.Manifest)
	if err != nil {
		return build, err
	}
	if build.Written {
		p.Log.Success("Wrote %s", p.Log.Path(build.ManifestPath))
	} else {
		p.Log.Info("%s is up to date", p.Log.Path(build.ManifestPath))
	}

	if build.Project.Bundler.Skip {
		p.Log.Debug("bundler skipped")
		return build, nil
	}
	if err := p.Bundle(ctx, build); err != nil {
		return build, err
	}
	return build, nil
}

// Bundle makes sure a bundler config exists and runs the bundler.
func (p *Packer) Bundle(ctx context.Context, build *Build) error {
	cfg := build.Project.Bundler
	created, content, err := bundler.EnsureConfig(ctx, p.FS, p.Dir, build.Package, cfg)
	if err != nil {
		return err
	}
	if created {
		p.Log.Block(fmt.Sprintf("Created %s from template", cfg.Config), content)
	} else {
		p.Log.Debug("using existing %s", cfg.Config)
	}

	p.Log.Info("Executing %s", p.Log.Path(strings.Join(cfg.Command, " ")))
	result, err := p.Runner.Run(ctx, p.Dir, cfg.Command)
	if result != nil {
		if result.Stdout != "" {
			p.Log.Info("stdout: %s", result.Stdout)
		}
		if result.Stderr != "" {
			p.Log.Info("stderr: %s", result.Stderr)
		}
	}
	if err != nil {
		return err
	}
	build.Bundled = true
	p.Log.Success("Bundle complete")
	return nil
}
