package fileutil

import (
	"bytes"
	"crypto/md5"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// FileExists returns true if a file or directory with the given path exists.
func FileExists(fs afero.Fs, filename string) bool {
	_, err := fs.Stat(filename)
	return err == nil
}

// IsDir returns true if a directory with the given path exists.
func IsDir(fs afero.Fs, filename string) bool {
	info, err := fs.Stat(filename)
	return err == nil && info.IsDir()
}

// IsDuplicate reports whether the file at the given path already holds
// exactly the given content. It returns false if there is no file at the path.
// If the existing file cannot be read, it also returns false so that the
// caller goes ahead and overwrites it.
func IsDuplicate(fs afero.Fs, filename string, content []byte) bool {
	if !FileExists(fs, filename) {
		return false
	}

	existing, err := afero.ReadFile(fs, filename)
	if err != nil {
		log.WithError(err).Debugf("cannot read existing file; treating as new: path=%s", filename)
		return false
	}

	want := md5.Sum(content)
	have := md5.Sum(existing)
	return bytes.Equal(want[:], have[:])
}
