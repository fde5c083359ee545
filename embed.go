// Package berth provides embedded runtime resources, currently the
// commented starter configuration that "berth init" writes to disk.
package berth

import (
	"embed"
	"io/fs"
)

//go:embed templates/config.example.yaml
var rawTemplates embed.FS

// Templates is the embedded templates filesystem with the "templates/" prefix stripped.
var Templates = mustSub(rawTemplates, "templates")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// ExampleConfig returns the starter config file contents.
func ExampleConfig() []byte {
	data, err := fs.ReadFile(Templates, "config.example.yaml")
	if err != nil {
		panic(err)
	}
	return data
}
