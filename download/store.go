package download

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ccollins476ad/imgfetch/fileutil"
	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	DefaultUserAgent = "imgfetch/1.0"
	DefaultTimeout   = 15 * time.Second
	DefaultMaxSize   = 10 * 1024 * 1024
)

// Options tunes how a store fetches images. Zero fields take the defaults.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	MaxSize   int64
	Client    *http.Client
}

// Store downloads images into a destination directory.
type Store struct {
	destDir string // constant
	fs      afero.Fs
	hc      *http.Client
	header  http.Header
	timeout time.Duration
	maxSize int64

	pathMtx sync.Mutex             // Protects the "paths" field.
	paths   map[string]*sync.Mutex // Per-destination-path locks.
}

// Result is the outcome of fetching a single url. It is a success if Err is
// nil.
type Result struct {
	URL      string
	Filename string // Set once the filename is resolved.
	Path     string // Set once the filename is resolved.
	Skipped  bool   // True if identical content was already on disk.
	Size     int
	Err      error
}

// OK returns true if the fetch succeeded, including when nothing was written
// because the file was already present.
func (r Result) OK() bool {
	return r.Err == nil
}

// Message describes the result for the user.
func (r Result) Message() string {
	switch {
	case r.Err != nil:
		return "failed: " + r.Err.Error()
	case r.Skipped:
		return fmt.Sprintf("'%s' already exists at %s; not saving again", r.Filename, r.Path)
	default:
		return fmt.Sprintf("successfully fetched: %s (%s)\nimage saved to %s", r.Filename, humanize.IBytes(uint64(r.Size)), r.Path)
	}
}

func NewStore(destDir string, opts Options) *Store {
	return NewStoreWithFs(afero.NewOsFs(), destDir, opts)
}

func NewStoreWithFs(fs afero.Fs, destDir string, opts Options) *Store {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}

	return &Store{
		destDir: destDir,
		fs:      fs,
		hc:      opts.Client,
		header: http.Header{
			"User-Agent": []string{opts.UserAgent},
			// Transparent decompression drops Content-Length.
			"Accept-Encoding": []string{"identity"},
		},
		timeout: opts.Timeout,
		maxSize: opts.MaxSize,
		paths:   map[string]*sync.Mutex{},
	}
}

// DestDir returns the directory the store saves images to.
func (s *Store) DestDir() string {
	return s.destDir
}

// Fetch downloads the image at url=u into the store's directory. It never
// panics or returns an error; every failure is reported in the result.
//
// The steps are: validate the url, create the destination directory, GET the
// url, check that the response is an image of acceptable size, resolve a
// filename, and write the body unless the file already holds the same bytes.
func (s *Store) Fetch(ctx context.Context, u string) (res Result) {
	res.URL = u

	defer func() {
		if r := recover(); r != nil {
			res.Err = &Error{Kind: KindUnexpected, URL: u, Err: fmt.Errorf("panic: %v", r)}
		}
		if res.Err != nil {
			log.WithError(res.Err).Debugf("fetch failed: url=%s kind=%s", u, KindOf(res.Err))
		}
	}()

	parsed, err := validateURL(u)
	if err != nil {
		res.Err = err
		return res
	}

	if err := s.prepareDir(); err != nil {
		res.Err = err
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log.Infof("connecting to %s", parsed.Host)
	rsp, err := GetBody(ctx, s.hc, u, s.header)
	if err != nil {
		res.Err = err
		return res
	}
	defer rsp.Body.Close()
	log.Debugf("response: url=%s status=%d content-type=%q", u, rsp.StatusCode, rsp.ContentType())

	if err := s.checkResponse(rsp); err != nil {
		res.Err = err
		return res
	}

	b, err := rsp.ReadAll()
	if err != nil {
		res.Err = err
		return res
	}
	res.Size = len(b)

	res.Filename = ResolveFilename(u, rsp.Header)
	res.Path = filepath.Join(s.destDir, res.Filename)

	unlock := s.lockPath(res.Path)
	defer unlock()

	if fileutil.IsDuplicate(s.fs, res.Path, b) {
		log.Debugf("skipping %s: identical file already exists: %s", u, res.Path)
		res.Skipped = true
		return res
	}

	if err := s.SaveFile(res.Filename, b); err != nil {
		res.Err = err
		return res
	}

	return res
}

// SaveFile writes the given content to the given path, relative to the
// store's directory. It truncates any existing file.
func (s *Store) SaveFile(relPath string, b []byte) error {
	destPath := filepath.Join(s.destDir, relPath)
	log.Infof("saving %s (%s)", destPath, humanize.IBytes(uint64(len(b))))

	err := afero.WriteFile(s.fs, destPath, b, 0644)
	if err != nil {
		return &Error{Kind: KindIO, Err: fmt.Errorf("failed to write file: path=%s: %w", destPath, err)}
	}
	return nil
}

func validateURL(u string) (*url.URL, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, URL: u, Err: err}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{Kind: KindInvalidURL, URL: u}
	}
	return parsed, nil
}

func (s *Store) prepareDir() error {
	if fileutil.IsDir(s.fs, s.destDir) {
		return nil
	}

	log.Debugf("creating directory: %s", s.destDir)
	err := s.fs.MkdirAll(s.destDir, 0755)
	if err != nil {
		return &Error{Kind: KindDirectory, Dir: s.destDir, Err: err}
	}
	return nil
}

// checkResponse rejects responses that are not images or that advertise a
// body larger than the store's limit. It does not read the body.
func (s *Store) checkResponse(rsp *Response) error {
	ct := rsp.ContentType()
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "image/") {
		return &Error{Kind: KindNotAnImage, URL: rsp.URL, Host: rsp.Host, ContentType: ct}
	}

	if n := rsp.ContentLength(); n > s.maxSize {
		return &Error{Kind: KindTooLarge, URL: rsp.URL, Host: rsp.Host, Size: n, Limit: s.maxSize}
	}

	return nil
}

// lockPath serializes fetches that resolve to the same destination path. It
// returns the function that releases the lock.
func (s *Store) lockPath(path string) func() {
	s.pathMtx.Lock()
	mtx, ok := s.paths[path]
	if !ok {
		mtx = &sync.Mutex{}
		s.paths[path] = mtx
	}
	s.pathMtx.Unlock()

	mtx.Lock()
	return mtx.Unlock
}
