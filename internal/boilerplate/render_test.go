package boilerplate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/par-builder/internal/domain/par"
)

// TestRenderDefault checks roots and flag reach the default template.
func TestRenderDefault(t *testing.T) {
	t.Parallel()

	out, err := Render("", NewParams([]string{"foo", "bar"}, true))
	require.NoError(t, err)
	require.Contains(t, out, "Boilerplate")
	require.Contains(t, out, "['foo', 'bar']")
	require.Contains(t, out, "zip_safe=True")
	require.NotContains(t, out, "extractall")
	require.NoError(t, CheckASCII(out))
}

// TestRenderDefaultNotZipSafe checks a direct run extracts before splicing roots.
func TestRenderDefaultNotZipSafe(t *testing.T) {
	t.Parallel()

	out, err := Render("", NewParams([]string{"foo"}, false))
	require.NoError(t, err)
	require.Contains(t, out, "zip_safe=False")
	require.NoError(t, CheckASCII(out))

	const guard = "if not _os.environ.get('PAR_LAUNCHER'):\n"

	body := out[strings.Index(out, guard)+len(guard):]
	require.True(t, strings.HasPrefix(body, "    import atexit"), body)

	extract := strings.Index(body, "_z.extractall(_d)")
	repoint := strings.Index(body, "_sys.path[0] = _d")
	splice := strings.Index(body, "_sys.path[1:1]")
	require.Positive(t, extract)
	require.Greater(t, repoint, extract)
	require.Greater(t, splice, repoint)
	require.Contains(t, body, "_atexit.register(_shutil.rmtree, _d, True)")
}

// TestRenderCustomTemplate runs a user supplied template.
func TestRenderCustomTemplate(t *testing.T) {
	t.Parallel()

	out, err := Render("# {{ .RuntimePackage }} {{ join .ImportRoots \":\" }} {{ pyBool .ZipSafe }}\n",
		NewParams([]string{"a", "b"}, false))
	require.NoError(t, err)
	require.Equal(t, "# subpar a:b False\n", out)
}

// TestRenderErrors covers broken templates and non-ASCII output.
func TestRenderErrors(t *testing.T) {
	t.Parallel()

	_, err := Render("{{ .Unknown", NewParams(nil, true))
	require.ErrorIs(t, err, par.ErrConfiguration)

	_, err = Render("{{ pyList .ImportRoots }}\n", NewParams([]string{"ré"}, true))
	require.ErrorIs(t, err, par.ErrConfiguration)
}

// TestPyList escapes quotes and backslashes.
func TestPyList(t *testing.T) {
	t.Parallel()

	require.Equal(t, "[]", pyList(nil))
	require.Equal(t, `['it\'s', 'a\\b']`, pyList([]string{"it's", `a\b`}))
}
