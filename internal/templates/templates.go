// Package templates provides the SFC and Greengrass templates. The defaults
// are compiled in; a directory on disk with the same file names replaces them.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
)

//go:embed files
var embedded embed.FS

// Default returns the compiled-in templates.
func Default() fs.FS {
	sub, err := fs.Sub(embedded, "files")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return sub
}

// Open returns the templates in dir, or the compiled-in templates when dir is empty.
func Open(dir string) (fs.FS, error) {
	if dir == "" {
		return Default(), nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("templates directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("templates directory: %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// StaticFiles returns the names of the *.json files in fsys, sorted. These are
// copied unchanged next to the generated configuration.
func StaticFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && path.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
