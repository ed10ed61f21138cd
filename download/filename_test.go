package download

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveFilename(t *testing.T) {
	testCases := []struct {
		name   string
		url    string
		header map[string]string
		want   string
	}{
		{
			name: "url path",
			url:  "https://example.com/photos/sunset.jpg",
			want: "sunset.jpg",
		},
		{
			name: "url path wins over disposition",
			url:  "https://example.com/photos/sunset.jpg?size=large",
			header: map[string]string{
				"Content-Disposition": `attachment; filename="other.png"`,
			},
			want: "sunset.jpg",
		},
		{
			name: "url path keeps underscores",
			url:  "https://example.com/_my__pic.final.png",
			want: "_my__pic.final.png",
		},
		{
			name: "escaped url path",
			url:  "https://example.com/a%20b.gif",
			want: "a%20b.gif",
		},
		{
			name: "escaped slash stays in the segment",
			url:  "https://example.com/dir%2Fsub.jpg",
			want: "dir%2Fsub.jpg",
		},
		{
			name: "disposition when path has no dot",
			url:  "https://example.com/gallery/42",
			header: map[string]string{
				"Content-Disposition": `attachment; filename="pic.png"`,
			},
			want: "pic.png",
		},
		{
			name: "lower case header key",
			url:  "https://example.com/gallery/42",
			header: map[string]string{
				"content-disposition": `attachment; filename="pic.png"`,
			},
			want: "pic.png",
		},
		{
			name: "single quoted disposition",
			url:  "https://example.com/gallery/42",
			header: map[string]string{
				"Content-Disposition": `attachment; filename='pic.png'`,
			},
			want: "pic.png",
		},
		{
			name: "unquoted disposition",
			url:  "https://example.com/gallery/",
			header: map[string]string{
				"Content-Disposition": `inline; filename=pic.webp`,
			},
			want: "pic.webp",
		},
		{
			name: "disposition with directories",
			url:  "https://example.com/gallery/42",
			header: map[string]string{
				"Content-Disposition": `attachment; filename="../../etc/pic.png"`,
			},
			want: "pic.png",
		},
		{
			name: "disposition with reserved characters",
			url:  "https://example.com/gallery/42",
			header: map[string]string{
				"Content-Disposition": `attachment; filename="a:b?.png"`,
			},
			want: "a_b_.png",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			for k, v := range tc.header {
				header.Set(k, v)
			}

			require.Equal(t, tc.want, ResolveFilename(tc.url, header))
		})
	}
}

func TestResolveFilenameFallback(t *testing.T) {
	pattern := regexp.MustCompile(`^downloaded_image_[0-9a-f]{8}\.([a-z0-9+._-]+)$`)

	testCases := []struct {
		name        string
		url         string
		contentType string
		disposition string
		wantExt     string
	}{
		{"jpeg", "https://example.com/gallery/42", "image/jpeg", "", "jpg"},
		{"jpeg with params", "https://example.com/gallery/42", "image/jpeg; charset=binary", "", "jpg"},
		{"png", "https://example.com/", "image/png", "", "png"},
		{"svg", "https://example.com", "image/svg+xml", "", "svg+xml"},
		{"not an image", "https://example.com/gallery/42", "text/html", "", "bin"},
		{"missing content type", "https://example.com/gallery/42", "", "", "bin"},
		{"empty subtype", "https://example.com/gallery/42", "image/", "", "bin"},
		{"disposition without filename", "https://example.com/gallery/42", "image/gif", "attachment", "gif"},
		{"disposition without dot", "https://example.com/gallery/42", "image/gif", `attachment; filename="pic"`, "gif"},
		{"dot segment", "https://example.com/gallery/..", "image/png", "", "png"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			if tc.contentType != "" {
				header.Set("Content-Type", tc.contentType)
			}
			if tc.disposition != "" {
				header.Set("Content-Disposition", tc.disposition)
			}

			got := ResolveFilename(tc.url, header)
			m := pattern.FindStringSubmatch(got)
			require.NotNil(t, m, "unexpected filename: %s", got)
			require.Equal(t, tc.wantExt, m[1])

			// Same url, same name.
			require.Equal(t, got, ResolveFilename(tc.url, header))
		})
	}
}

func TestResolveFilenameHashDependsOnURL(t *testing.T) {
	header := http.Header{"Content-Type": []string{"image/png"}}

	a := ResolveFilename("https://example.com/gallery/1", header)
	b := ResolveFilename("https://example.com/gallery/2", header)
	require.NotEqual(t, a, b)
	require.Equal(t, "downloaded_image_"+urlHash("https://example.com/gallery/1")+".png", a)
}

func TestResolveFilenameNeverEmpty(t *testing.T) {
	inputs := []string{"", "::::", "not-a-url", "https://", "https://example.com/%zz", "/"}
	for _, u := range inputs {
		name := ResolveFilename(u, http.Header{})
		require.NotEmpty(t, name)
		require.Contains(t, name, ".")
	}
}
