package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Parallel()
	testdata := map[string]struct {
		dir, specifier, expected string
	}{
		"plain":            {"/scripts", "./a.js", "/scripts/a.js"},
		"parent":           {"/scripts/sub", "../a.js", "/scripts/a.js"},
		"nested":           {"/scripts", "./sub/a.js", "/scripts/sub/a.js"},
		"redundant dot":    {"/scripts", "././a.js", "/scripts/a.js"},
		"round trip":       {"/scripts", "./sub/../a.js", "/scripts/a.js"},
		"above root":       {"/", "../a.js", "/a.js"},
		"trailing in dir":  {"/scripts/", "./a.js", "/scripts/a.js"},
		"relative base":    {"scripts", "./a.js", "scripts/a.js"},
		"double dot chain": {"/a/b/c", "../../x.js", "/a/x.js"},
	}

	for name, data := range testdata {
		data := data
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			resolved, err := Resolve(data.dir, data.specifier)
			require.NoError(t, err)
			assert.Equal(t, data.expected, resolved)
		})
	}
}

func TestResolveIdentity(t *testing.T) {
	t.Parallel()
	a, err := Resolve("/scripts", "./lib.js")
	require.NoError(t, err)
	b, err := Resolve("/scripts", "./sub/../lib.js")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestResolveInvalidSpecifier(t *testing.T) {
	t.Parallel()
	for _, specifier := range []string{"lib", "lib.js", "/abs/lib.js", ".hidden.js", "--console", ""} {
		specifier := specifier
		t.Run(specifier, func(t *testing.T) {
			t.Parallel()
			_, err := Resolve("/scripts", specifier)
			var invalid InvalidSpecifierError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, specifier, invalid.Specifier)
			assert.Contains(t, err.Error(), "'"+specifier+"'")
			assert.Contains(t, err.Error(), "must begin with ./ or ../")
		})
	}
}

func TestIsRelative(t *testing.T) {
	t.Parallel()
	assert.True(t, IsRelative("./a.js"))
	assert.True(t, IsRelative("../a.js"))
	assert.False(t, IsRelative("a.js"))
	assert.False(t, IsRelative("/a.js"))
	assert.False(t, IsRelative("--console"))
}

func TestDir(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "/scripts", Dir("/scripts/a.js"))
	assert.Equal(t, "/", Dir("/a.js"))
	assert.Equal(t, ".", Dir("--console"))
}
