package loader

import (
	"embed"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

//go:embed embedded/*.js.gz
var embedded embed.FS

//nolint:gochecknoglobals
var bundleFiles = map[string]string{
	BundleConsole: "embedded/console.js.gz",
	BundleWelcome: "embedded/welcome.js.gz",
}

// Bundle returns the decompressed source of the named embedded bundle, or an
// InvalidBundleError if name doesn't address one.
func Bundle(name string) ([]byte, error) {
	file, ok := bundleFiles[name]
	if !ok {
		return nil, InvalidBundleError{Name: name}
	}

	f, err := embedded.Open(file)
	if err != nil {
		// The bundles are compiled into the binary; a missing one can only
		// mean a broken build.
		panic(fmt.Sprintf("embedded bundle %s is missing: %v", file, err))
	}
	defer f.Close() //nolint:errcheck

	zr, err := gzip.NewReader(f)
	if err != nil {
		panic(fmt.Sprintf("embedded bundle %s is corrupted: %v", file, err))
	}
	defer zr.Close() //nolint:errcheck

	data, err := io.ReadAll(zr)
	if err != nil {
		panic(fmt.Sprintf("embedded bundle %s is corrupted: %v", file, err))
	}
	return data, nil
}
