package bundler

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"text/template"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"vacpac/internal/config"
)

//go:embed rollup.config.tmpl
var defaultTemplate string

// OutputSuffix ends the file name of every bundle produced by the built-in
// template.
const OutputSuffix = ".mkshftpb.js"

// ErrBundleFailed is returned when the bundler process exits unsuccessfully.
var ErrBundleFailed = errors.New("bundler failed")

// TemplateData is what a rollup config template is rendered with.
type TemplateData struct {
	Name       string
	BundleName string
	Main       string
	Version    string
	Output     string
}

// Render produces a bundler config from tmpl, or from the built-in rollup
// template when tmpl is empty.
func Render(tmpl string, pkg *config.Package) (string, error) {
	if tmpl == "" {
		tmpl = defaultTemplate
	}
	t, err := template.New("rollup").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse bundler template: %w", err)
	}
	var buf bytes.Buffer
	err = t.Execute(&buf, TemplateData{
		Name:       pkg.Name,
		BundleName: pkg.BundleName(),
		Main:       pkg.Main,
		Version:    pkg.Version,
		Output:     "./" + pkg.BundleName() + OutputSuffix,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render bundler template: %w", err)
	}
	return buf.String(), nil
}

// EnsureConfig writes the bundler config into dir unless one already exists.
// created reports whether a file was written and content holds what was
// written.
func EnsureConfig(ctx context.Context, fs afs.Service, dir string, pkg *config.Package, cfg config.BundlerConfig) (created bool, content string, err error) {
	location := url.Join(dir, cfg.Config)
	exists, err := fs.Exists(ctx, location)
	if err != nil {
		return false, "", fmt.Errorf("failed to check %s: %w", location, err)
	}
	if exists {
		return false, "", nil
	}

	var tmpl string
	if cfg.Template != "" {
		data, err := fs.DownloadWithURL(ctx, url.Join(dir, cfg.Template))
		if err != nil {
			return false, "", fmt.Errorf("failed to read bundler template %s: %w", cfg.Template, err)
		}
		tmpl = string(data)
	}
	content, err = Render(tmpl, pkg)
	if err != nil {
		return false, "", err
	}
	if err := fs.Upload(ctx, location, file.DefaultFileOsMode, strings.NewReader(content)); err != nil {
		return false, "", fmt.Errorf("failed to write %s: %w", location, err)
	}
	return true, content, nil
}

// Result is the captured output of a bundler run.
type Result struct {
	Stdout string
	Stderr string
}

// Runner executes the bundler command.
type Runner struct{}

// NewRunner creates a Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes command in dir and waits for it to finish. A non-zero exit is
// reported as ErrBundleFailed; the captured output is returned either way.
func (r *Runner) Run(ctx context.Context, dir string, command []string) (*Result, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrBundleFailed)
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		return result, fmt.Errorf("%w: '%s': %v", ErrBundleFailed, strings.Join(command, " "), err)
	}
	return result, nil
}
