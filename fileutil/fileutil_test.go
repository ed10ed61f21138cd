package fileutil

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// unreadableFs stats files normally but refuses to open them.
type unreadableFs struct {
	afero.Fs
}

func (fs unreadableFs) Open(name string) (afero.File, error) {
	return nil, &os.PathError{Op: "open", Path: name, Err: errors.New("permission denied")}
}

func TestIsDuplicate(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		path    string
		content string
		want    bool
	}{
		{
			name:    "missing file",
			path:    "imgs/a.jpg",
			content: "abc",
			want:    false,
		},
		{
			name:    "same content",
			files:   map[string]string{"imgs/a.jpg": "abc"},
			path:    "imgs/a.jpg",
			content: "abc",
			want:    true,
		},
		{
			name:    "different content",
			files:   map[string]string{"imgs/a.jpg": "abc"},
			path:    "imgs/a.jpg",
			content: "abd",
			want:    false,
		},
		{
			name:    "same content under another name",
			files:   map[string]string{"imgs/b.jpg": "abc"},
			path:    "imgs/a.jpg",
			content: "abc",
			want:    false,
		},
		{
			name:    "empty file and empty content",
			files:   map[string]string{"imgs/a.jpg": ""},
			path:    "imgs/a.jpg",
			content: "",
			want:    true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			for path, content := range tc.files {
				require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
			}

			require.Equal(t, tc.want, IsDuplicate(fs, tc.path, []byte(tc.content)))
		})
	}
}

func TestIsDuplicateUnreadableFailsOpen(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "a.jpg", []byte("abc"), 0644))

	fs := unreadableFs{Fs: mem}
	require.True(t, FileExists(fs, "a.jpg"))
	require.False(t, IsDuplicate(fs, "a.jpg", []byte("abc")))
}

func TestIsDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("imgs", 0755))
	require.NoError(t, afero.WriteFile(fs, "imgs/a.jpg", []byte("abc"), 0644))

	require.True(t, IsDir(fs, "imgs"))
	require.False(t, IsDir(fs, "imgs/a.jpg"))
	require.False(t, IsDir(fs, "nope"))
}
