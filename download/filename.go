package download

import (
	"crypto/md5"
	"encoding/hex"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/flytam/filenamify"
	log "github.com/sirupsen/logrus"
)

const fallbackPrefix = "downloaded_image_"

var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// ResolveFilename returns the local filename to save the resource at url=u
// under. In order of preference, it uses:
//
//  1. The final segment of the url path, if it has an extension.
//  2. The filename directive of the Content-Disposition header, if it has an
//     extension.
//  3. A name derived from a hash of the url, with an extension taken from the
//     Content-Type header.
//
// It always returns a usable name.
func ResolveFilename(u string, header http.Header) string {
	if name := filenameFromURL(u); name != "" {
		log.Debugf("filename from url path: %s", name)
		return name
	}

	if name := filenameFromDisposition(header.Get("Content-Disposition")); name != "" {
		log.Debugf("filename from content-disposition: %s", name)
		return name
	}

	name := fallbackPrefix + urlHash(u) + "." + extensionFromContentType(header.Get("Content-Type"))
	log.Debugf("synthesized filename: %s", name)
	return name
}

func filenameFromURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}

	// Percent-escapes stay in the name, so an escaped slash cannot split it.
	p := parsed.EscapedPath()
	return acceptCandidate(p[strings.LastIndex(p, "/")+1:])
}

func filenameFromDisposition(disp string) string {
	if !strings.Contains(disp, "filename=") {
		return ""
	}

	var name string
	if _, params, err := mime.ParseMediaType(disp); err == nil && params["filename"] != "" {
		name = params["filename"]
	} else {
		name = disp[strings.Index(disp, "filename=")+len("filename="):]
	}

	return acceptCandidate(strings.Trim(name, `"'`))
}

// acceptCandidate sanitizes a proposed filename and returns it if it still
// has an extension. Otherwise it returns "".
func acceptCandidate(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	// Drop any directory components.
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}

	clean, err := sanitize(name)
	if err != nil {
		log.WithError(err).Debugf("rejecting unsanitizable filename: %s", name)
		return ""
	}

	if !strings.Contains(clean, ".") {
		return ""
	}

	return clean
}

// sanitize replaces characters that are not allowed in filenames. Names that
// are already safe are returned unchanged.
func sanitize(name string) (string, error) {
	if !unsafeChars.MatchString(name) {
		return name, nil
	}
	return filenamify.Filenamify(name, filenamify.Options{
		Replacement: "_",
		MaxLength:   255,
	})
}

// urlHash returns the first 8 hex digits of the md5 of the url.
func urlHash(u string) string {
	sum := md5.Sum([]byte(u))
	return hex.EncodeToString(sum[:])[:8]
}

// extensionFromContentType returns the image subtype of the given content
// type, or "bin" if it is not an image type.
func extensionFromContentType(ct string) string {
	mediaType := strings.ToLower(strings.TrimSpace(ct))
	if parsed, _, err := mime.ParseMediaType(ct); err == nil {
		mediaType = parsed
	} else if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}

	sub, ok := strings.CutPrefix(mediaType, "image/")
	if !ok || sub == "" {
		return "bin"
	}

	if sub == "jpeg" {
		return "jpg"
	}

	clean, err := sanitize(sub)
	if err != nil || clean == "" {
		return "bin"
	}
	return clean
}
