package loader

import (
	"github.com/spf13/afero"
)

// ReadSource returns the source text of the module at the given canonical
// path. Bundle pseudo-paths are served from the embedded bundles and never
// touch fs. The returned error carries the underlying I/O failure; callers
// that track an import chain are expected to annotate it themselves.
func ReadSource(fs afero.Fs, p string) ([]byte, error) {
	if IsBundle(p) {
		return Bundle(p)
	}
	return afero.ReadFile(fs, p)
}
