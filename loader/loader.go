// Package loader resolves module specifiers to canonical paths and loads
// module source text, either from the filesystem or from the embedded
// bundles shipped with the runtime.
package loader

import (
	"fmt"
	"path"
	"strings"
)

// Reserved pseudo-paths addressing the embedded, gzip-compressed bundles.
// They are valid module identities everywhere an ordinary path is, but they
// are never resolved against the filesystem.
const (
	BundleConsole = "--console"
	BundleWelcome = "--welcome"
)

const bundlePrefix = "--"

// InvalidSpecifierError is returned for import specifiers that are not
// relative. Only "./" and "../" imports are supported; there is no
// node_modules-style lookup and bare specifiers are rejected outright.
type InvalidSpecifierError struct {
	Specifier string
}

func (e InvalidSpecifierError) Error() string {
	return fmt.Sprintf("Invalid module name: '%s'. Valid imports must begin with ./ or ../", e.Specifier)
}

// InvalidBundleError is returned for "--" module names that don't address a
// known embedded bundle.
type InvalidBundleError struct {
	Name string
}

func (e InvalidBundleError) Error() string {
	return "Invalid module name: " + e.Name
}

// IsRelative reports whether specifier is a valid relative import specifier.
func IsRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// IsBundle reports whether name addresses an embedded bundle rather than a
// file on disk.
func IsBundle(name string) bool {
	return strings.HasPrefix(name, bundlePrefix)
}

// Resolve resolves specifier against the directory dir into a canonical,
// lexically normalized path. Resolution is purely lexical: "." and ".."
// segments are collapsed without consulting the filesystem, so two
// specifiers that normalize to the same path denote the same module.
// Existence is checked later, by ReadSource.
func Resolve(dir, specifier string) (string, error) {
	if !IsRelative(specifier) {
		return "", InvalidSpecifierError{Specifier: specifier}
	}
	return path.Join(dir, specifier), nil
}

// Dir returns the directory a module's own imports resolve against.
func Dir(p string) string {
	return path.Dir(p)
}
