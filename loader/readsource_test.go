package loader

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSourceFile(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/scripts/a.js", []byte("export default 1;"), 0o644))

	data, err := ReadSource(fs, "/scripts/a.js")
	require.NoError(t, err)
	assert.Equal(t, "export default 1;", string(data))
}

func TestReadSourceMissingFile(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	_, err := ReadSource(fs, "/scripts/missing.js")
	require.Error(t, err)
}

func TestReadSourceBundleSkipsFilesystem(t *testing.T) {
	t.Parallel()
	// A read-only empty filesystem; a bundle load must not touch it.
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	for _, name := range []string{BundleConsole, BundleWelcome} {
		data, err := ReadSource(fs, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
}

func TestBundleContents(t *testing.T) {
	t.Parallel()
	console, err := Bundle(BundleConsole)
	require.NoError(t, err)
	assert.Contains(t, string(console), "export function dir")

	welcome, err := Bundle(BundleWelcome)
	require.NoError(t, err)
	assert.Contains(t, string(welcome), "console.info")
}

func TestBundleUnknown(t *testing.T) {
	t.Parallel()
	_, err := Bundle("--bogus")
	var invalid InvalidBundleError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "--bogus", invalid.Name)
	assert.Equal(t, "Invalid module name: --bogus", err.Error())
}
