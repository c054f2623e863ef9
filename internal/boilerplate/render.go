package boilerplate

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/oshokin/par-builder/internal/domain/par"
)

// DefaultTemplate puts the import roots on the search path when the archive
// is run by the interpreter directly. An archive that is not zip safe is first
// extracted to a temporary directory removed at exit. The launcher sets
// PAR_LAUNCHER and prepares the search path itself, so the block does nothing
// in that case.
const DefaultTemplate = `# Boilerplate added by par-compiler (zip_safe={{ pyBool .ZipSafe }})
import os as _os, sys as _sys
if not _os.environ.get('PAR_LAUNCHER'):
{{- if not .ZipSafe }}
    import atexit as _atexit, shutil as _shutil, tempfile as _tempfile, zipfile as _zipfile
    _d = _tempfile.mkdtemp(prefix='par-extract-%d-' % _os.getpid())
    _atexit.register(_shutil.rmtree, _d, True)
    with _zipfile.ZipFile(_sys.path[0]) as _z:
        _z.extractall(_d)
    _sys.path[0] = _d
    del _atexit, _shutil, _tempfile, _zipfile, _z, _d
{{- end }}
    _sys.path[1:1] = [_os.path.join(_sys.path[0], _r) for _r in {{ pyList .ImportRoots }}]
del _os, _sys
# End boilerplate
`

// Params feed a boilerplate template.
type Params struct {
	// RuntimePackage is the package carrying runtime support files.
	RuntimePackage string
	// ImportRoots are the archive-relative search roots in final order.
	ImportRoots []string
	// ZipSafe reports whether the archive may be loaded directly.
	ZipSafe bool
	// Descriptor is the stored path of the bootstrap descriptor.
	Descriptor string
}

// NewParams builds template parameters for a build.
func NewParams(importRoots []string, zipSafe bool) Params {
	return Params{
		RuntimePackage: par.RuntimePackage,
		ImportRoots:    importRoots,
		ZipSafe:        zipSafe,
		Descriptor:     par.DescriptorPath,
	}
}

var (
	//nolint:gochecknoglobals // Read-only template helpers.
	funcs = template.FuncMap{
		"pyList": pyList,
		"pyBool": pyBool,
		"join":   strings.Join,
	}

	// quoteEscaper escapes a single-quoted string literal.
	quoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)
)

// Render executes text (DefaultTemplate when empty) and checks the result is ASCII.
func Render(text string, params Params) (string, error) {
	if text == "" {
		text = DefaultTemplate
	}

	tmpl, err := template.New("boilerplate").Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("%w: parse boilerplate template: %w", par.ErrConfiguration, err)
	}

	var b strings.Builder
	if err = tmpl.Execute(&b, params); err != nil {
		return "", fmt.Errorf("%w: render boilerplate: %w", par.ErrConfiguration, err)
	}

	out := b.String()
	if err = CheckASCII(out); err != nil {
		return "", err
	}

	return out, nil
}

// pyList renders a list literal of single-quoted strings, e.g. ['a', 'b'].
func pyList(items []string) string {
	var b strings.Builder

	b.WriteByte('[')

	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteByte('\'')
		b.WriteString(quoteEscaper.Replace(item))
		b.WriteByte('\'')
	}

	b.WriteByte(']')

	return b.String()
}

// pyBool renders True or False.
func pyBool(v bool) string {
	if v {
		return "True"
	}

	return "False"
}
