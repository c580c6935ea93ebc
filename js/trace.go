package js

import (
	"strings"
)

// loadTrace records the chain of imports being followed during a recursive
// module load. It exists purely for diagnostics: when a load fails, the
// chain is rendered innermost-first so the user can see which imports led
// to the failing file.
type loadTrace struct {
	base  string
	paths []string
}

func (t *loadTrace) push(p string) {
	t.paths = append(t.paths, p)
}

func (t *loadTrace) pop() {
	t.paths = t.paths[:len(t.paths)-1]
}

// annotate wraps err with the current import chain. The original error
// remains reachable through Unwrap.
func (t *loadTrace) annotate(err error) error {
	if len(t.paths) == 0 {
		return err
	}

	var b strings.Builder
	for i := len(t.paths) - 1; i >= 0; i-- {
		if i == len(t.paths)-1 {
			b.WriteString("    loading ")
		} else {
			b.WriteString("       from ")
		}
		b.WriteString(t.rel(t.paths[i]))
		b.WriteString("\n")
	}
	return &loadError{err: err, chain: b.String()}
}

// rel renders p relative to the base directory; bundle pseudo-paths and
// paths outside the base directory are left as they are.
func (t *loadTrace) rel(p string) string {
	prefix := t.base
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if rest := strings.TrimPrefix(p, prefix); rest != p && rest != "" {
		return rest
	}
	return p
}

// loadError is an error annotated with the import chain that led to it.
type loadError struct {
	err   error
	chain string
}

func (e *loadError) Error() string {
	return e.err.Error() + "\n" + e.chain
}

func (e *loadError) Unwrap() error {
	return e.err
}
