package packer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacpac/internal/bundler"
	"vacpac/internal/console"
	"vacpac/internal/manifest"
)

type fakeRunner struct {
	calls  [][]string
	result *bundler.Result
	err    error
}

func (f *fakeRunner) Run(_ context.Context, _ string, command []string) (*bundler.Result, error) {
	f.calls = append(f.calls, command)
	if f.result == nil {
		return &bundler.Result{}, f.err
	}
	return f.result, f.err
}

const entrySource = `// greets someone
export async function greet(name) {}

/** Adds two numbers.
 * @param a
 */
export function add(a, b) {}

function foo() {}
export { foo as bar };
`

func setupPlugin(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func newPacker(dir string, runner *fakeRunner, opts Options) (*Packer, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	p := New(dir, console.New(buf, true), opts)
	p.Runner = runner
	return p, buf
}

func TestPacker_Pack(t *testing.T) {
	t.Parallel()
	dir := setupPlugin(t, map[string]string{
		"package.json": `{"name":"clock","version":"1.0.0","main":"./src/index.js"}`,
		"src/index.js": entrySource,
	})
	runner := &fakeRunner{result: &bundler.Result{Stdout: "created clock.mkshftpb.js"}}
	p, logs := newPacker(dir, runner, Options{})

	build, err := p.Pack(context.Background())
	require.NoError(t, err)
	assert.True(t, build.Written)
	assert.True(t, build.Bundled)

	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)
	expected, err := build.Manifest.JSON()
	require.NoError(t, err)
	assert.Equal(t, string(expected), string(data))

	require.Len(t, build.Manifest.Functions, 2)
	assert.Equal(t, "greet", build.Manifest.Functions[0].Identifier)
	assert.Equal(t, "greets someone", build.Manifest.Functions[0].DocString)
	assert.Equal(t, "add", build.Manifest.Functions[1].Identifier)
	assert.Equal(t, "Adds two numbers.\n@param a", build.Manifest.Functions[1].DocString)

	_, err = os.Stat(filepath.Join(dir, "rollup.config.js"))
	assert.NoError(t, err)
	assert.Equal(t, [][]string{{"npx", "rollup", "--config", "rollup.config.js"}}, runner.calls)
	assert.Contains(t, logs.String(), "Found export")
	assert.Contains(t, logs.String(), "export bar is not a function declaration")

	again, err := p.Pack(context.Background())
	require.NoError(t, err)
	assert.False(t, again.Written)
}

func TestPacker_ProjectSettings(t *testing.T) {
	t.Parallel()
	dir := setupPlugin(t, map[string]string{
		"package.json": `{"name":"clock","version":"1.0.0","main":"index.ts"}`,
		"index.ts":     "function foo(x: number) {}\nexport { foo as bar };\n",
		"vacpac.yaml":  "manifest: out/manifest.json\nexports:\n  resolveAliases: true\nbundler:\n  skip: true\n",
	})
	runner := &fakeRunner{}
	p, _ := newPacker(dir, runner, Options{})

	build, err := p.Pack(context.Background())
	require.NoError(t, err)
	assert.False(t, build.Bundled)
	assert.Empty(t, runner.calls)
	require.Len(t, build.Manifest.Functions, 1)
	assert.Equal(t, "bar", build.Manifest.Functions[0].Identifier)

	_, err = os.Stat(filepath.Join(dir, "out", "manifest.json"))
	assert.NoError(t, err)
}

func TestPacker_OptionsOverride(t *testing.T) {
	t.Parallel()
	dir := setupPlugin(t, map[string]string{
		"package.json": `{"name":"clock","version":"1.0.0","main":"index.js"}`,
		"index.js":     "export function tick() {}\n",
	})
	runner := &fakeRunner{}
	p, _ := newPacker(dir, runner, Options{SkipBundle: true, ManifestPath: "meta.json"})

	build, err := p.Pack(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runner.calls)
	assert.Contains(t, build.ManifestPath, "meta.json")
	_, err = os.Stat(filepath.Join(dir, "meta.json"))
	assert.NoError(t, err)
}

func TestPacker_MissingIdentifierWritesNothing(t *testing.T) {
	t.Parallel()
	dir := setupPlugin(t, map[string]string{
		"package.json": `{"name":"clock","version":"1.0.0","main":"index.js"}`,
		"index.js":     "export default function () {}\n",
	})
	runner := &fakeRunner{}
	p, _ := newPacker(dir, runner, Options{})

	_, err := p.Pack(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, manifest.ErrMissingIdentifier))
	assert.Empty(t, runner.calls)
	_, statErr := os.Stat(filepath.Join(dir, "manifest.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPacker_BundleFailure(t *testing.T) {
	t.Parallel()
	dir := setupPlugin(t, map[string]string{
		"package.json":     `{"name":"clock","version":"1.0.0","main":"index.js"}`,
		"index.js":         "export function tick() {}\n",
		"rollup.config.js": "export default {};\n",
	})
	runner := &fakeRunner{err: bundler.ErrBundleFailed}
	p, _ := newPacker(dir, runner, Options{})

	build, err := p.Pack(context.Background())
	assert.True(t, errors.Is(err, bundler.ErrBundleFailed))
	require.NotNil(t, build)
	assert.True(t, build.Written)
	assert.False(t, build.Bundled)

	data, err := os.ReadFile(filepath.Join(dir, "rollup.config.js"))
	require.NoError(t, err)
	assert.Equal(t, "export default {};\n", string(data))
}

func TestPacker_Manifest_Errors(t *testing.T) {
	t.Parallel()
	noPackage := t.TempDir()
	p, _ := newPacker(noPackage, &fakeRunner{}, Options{})
	_, err := p.Manifest(context.Background())
	assert.Error(t, err)

	unsupported := setupPlugin(t, map[string]string{
		"package.json": `{"name":"clock","version":"1.0.0","main":"index.coffee"}`,
		"index.coffee": "x = 1\n",
	})
	p, _ = newPacker(unsupported, &fakeRunner{}, Options{})
	_, err = p.Manifest(context.Background())
	assert.Error(t, err)
}
