package hostconfig

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"text/template"
)

var versionFileTmpl = template.Must(template.New("version").Parse(`// Code generated by hostprobe; DO NOT EDIT.

package {{.Package}}

const (
	compiledMajor = {{.Version.Major}}
	compiledMinor = {{.Version.Minor}}
)
`))

// WriteVersionFile writes the generated source recording v as the compiled
// API version of package pkg.
func WriteVersionFile(w io.Writer, pkg string, v Version) error {
	var buf bytes.Buffer
	err := versionFileTmpl.Execute(&buf, struct {
		Package string
		Version Version
	}{pkg, v})
	if err != nil {
		return fmt.Errorf("failed to render version file: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to format version file: %w", err)
	}
	_, err = w.Write(src)
	return err
}
