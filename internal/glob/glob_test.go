package glob

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte{}, 0o644))
}

func TestExpand_Recursive(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.pdf")
	touch(t, dir, "sub/b.pdf")
	touch(t, dir, "sub/deeper/c.txt")

	files, err := Expander{}.Expand(filepath.Join(dir, "**", "*"))
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f))
		r, _ := filepath.Rel(dir, f)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.ElementsMatch(t, []string{"a.pdf", "sub/b.pdf", "sub/deeper/c.txt"}, rel, "directories are not candidates")
}

func TestExpand_Extension(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.pdf")
	touch(t, dir, "b.txt")

	files, err := Expander{}.Expand(filepath.Join(dir, "*.pdf"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.pdf", filepath.Base(files[0]))
}

func TestExpand_NoMatches(t *testing.T) {
	files, err := Expander{}.Expand(filepath.Join(t.TempDir(), "*.none"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestExpand_BadPattern(t *testing.T) {
	_, err := Expander{}.Expand("/tmp/[unclosed")
	assert.ErrorIs(t, err, ErrBadPattern)

	_, err = Expander{}.Expand("")
	assert.ErrorIs(t, err, ErrBadPattern)
}

func TestBase(t *testing.T) {
	cases := []struct {
		pattern string
		want    string
	}{
		{"/home/me/inbox/**/*", "/home/me/inbox"},
		{"/home/me/inbox/*.pdf", "/home/me/inbox"},
		{"/home/me/inbox/file.pdf", "/home/me/inbox"},
	}
	for _, tc := range cases {
		t.Run(tc.pattern, func(t *testing.T) {
			got, err := Base(tc.pattern)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBaseExists(t *testing.T) {
	dir := t.TempDir()
	ok, err := BaseExists(filepath.Join(dir, "**", "*"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = BaseExists(filepath.Join(dir, "missing", "*"))
	require.NoError(t, err)
	assert.False(t, ok)
}
