package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestGet(t *testing.T) {
	t.Setenv("VACPAC_TEST_SECOND", "second")
	t.Setenv("VACPAC_TEST_EMPTY", "")

	assert.Equal(t, "second", Get("", "VACPAC_TEST_EMPTY", "VACPAC_TEST_SECOND"))
	assert.Equal(t, "", Get("VACPAC_TEST_UNSET"))
	assert.Equal(t, "fallback", GetDefault("fallback", "VACPAC_TEST_UNSET", "VACPAC_TEST_EMPTY"))
	assert.Equal(t, "second", GetDefault("fallback", "VACPAC_TEST_SECOND"))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.json", `{"VACPAC_TEST_FROM_FILE":"file","VACPAC_TEST_BLANK":""}`)
	t.Setenv("VACPAC_TEST_FROM_FILE", "env")
	t.Setenv("VACPAC_TEST_BLANK", "kept")

	require.NoError(t, loadEnvFile(filepath.Join(dir, "config.json")))
	assert.Equal(t, "file", os.Getenv("VACPAC_TEST_FROM_FILE"))
	assert.Equal(t, "kept", os.Getenv("VACPAC_TEST_BLANK"))

	assert.NoError(t, loadEnvFile(filepath.Join(dir, "missing.json")))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "VACPAC_TEST_DOTENV=fromfile\nVACPAC_TEST_PRESET=fromfile\n")
	t.Setenv("VACPAC_TEST_PRESET", "preset")
	t.Setenv("VACPAC_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("VACPAC_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(dir))
	assert.Equal(t, "fromfile", os.Getenv("VACPAC_TEST_DOTENV"))
	assert.Equal(t, "preset", os.Getenv("VACPAC_TEST_PRESET"))

	assert.NoError(t, LoadDotEnv(t.TempDir()))
}

func TestLoadPackage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := afs.New()

	dir := t.TempDir()
	writeFile(t, dir, PackageFile, `{"name":"@acme/clock","version":"1.2.0","main":"src/index.js","private":true}`)
	pkg, err := LoadPackage(ctx, fs, dir)
	require.NoError(t, err)
	assert.Equal(t, &Package{Name: "@acme/clock", Version: "1.2.0", Main: "src/index.js"}, pkg)
	assert.Equal(t, "@acme_clock", pkg.BundleName())
	assert.Empty(t, pkg.SemverWarning())

	missingMain := t.TempDir()
	writeFile(t, missingMain, PackageFile, `{"name":"clock","version":"1.0.0"}`)
	_, err = LoadPackage(ctx, fs, missingMain)
	assert.ErrorContains(t, err, "Main")

	broken := t.TempDir()
	writeFile(t, broken, PackageFile, `{"name":`)
	_, err = LoadPackage(ctx, fs, broken)
	assert.Error(t, err)

	_, err = LoadPackage(ctx, fs, t.TempDir())
	assert.Error(t, err)
}

func TestPackage_SemverWarning(t *testing.T) {
	t.Parallel()
	assert.Empty(t, (&Package{Version: "v2.0.0-beta.1"}).SemverWarning())
	assert.NotEmpty(t, (&Package{Name: "clock", Version: "latest"}).SemverWarning())
}

func TestLoadProject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := afs.New()

	project, err := LoadProject(ctx, fs, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultProject(), project)

	dir := t.TempDir()
	writeFile(t, dir, ProjectFile, `
manifest: dist/manifest.json
exports:
  resolveAliases: true
bundler:
  skip: true
catalog:
  batchSize: 4
`)
	project, err = LoadProject(ctx, fs, dir)
	require.NoError(t, err)
	assert.Equal(t, "dist/manifest.json", project.Manifest)
	assert.True(t, project.Exports.ResolveAliases)
	assert.True(t, project.Bundler.Skip)
	assert.Equal(t, "rollup.config.js", project.Bundler.Config)
	assert.Equal(t, []string{"npx", "rollup", "--config", "rollup.config.js"}, project.Bundler.Command)
	assert.Equal(t, 4, project.Catalog.BatchSize)

	invalid := t.TempDir()
	writeFile(t, invalid, ProjectFile, "catalog:\n  batchSize: 0\n")
	_, err = LoadProject(ctx, fs, invalid)
	assert.Error(t, err)
}

func TestProject_CollectionName(t *testing.T) {
	t.Parallel()
	project := DefaultProject()
	assert.Equal(t, "vacpac_acme_clock", project.CollectionName(&Package{Name: "@acme/Clock"}))

	project.Catalog.Collection = "shared"
	assert.Equal(t, "shared", project.CollectionName(&Package{Name: "clock"}))
}
