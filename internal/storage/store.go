// Package storage manages the temporary files produced by downloads. Each file
// is named after the fileID of the download that produced it, and lives in a
// single shared directory until it has been served to a client.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hbomb79/Grabber/pkg/logger"
)

var (
	log = logger.Get("Storage")

	ErrNotFound = errors.New("file not found")
)

// Extension is the file extension (without the leading period) of a
// temporary file. The order of Extensions is the order in which files are
// searched for when locating a file by its ID.
type Extension string

const (
	MP4 Extension = "mp4"
	MP3 Extension = "mp3"
)

var Extensions = []Extension{MP4, MP3}

type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: filepath.Clean(dir)}
}

// Dir returns the directory the store keeps its files in.
func (store *Store) Dir() string { return store.dir }

// EnsureDir checks that the store directory exists, creating it if it is
// missing. An error is returned if the path exists but is not a directory.
func (store *Store) EnsureDir() error {
	if info, err := os.Stat(store.dir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("temp path '%s' is not a directory", store.dir)
		}

		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("temp path '%s' could not be accessed: %w", store.dir, err)
	}

	if err := os.MkdirAll(store.dir, os.ModeDir|os.ModePerm); err != nil {
		return fmt.Errorf("failed to create temp path '%s': %w", store.dir, err)
	}

	return nil
}

// ResolvePath returns the deterministic path of the file for the given
// ID and extension. The file may not exist.
func (store *Store) ResolvePath(fileID string, ext Extension) string {
	return filepath.Join(store.dir, Filename(fileID, ext))
}

// OutputTemplate returns a yt-dlp output template which will place
// files for the ID provided in this store.
func (store *Store) OutputTemplate(fileID string) string {
	return filepath.Join(store.dir, fileID+".%(ext)s")
}

// Exists returns true if a regular file exists at the path provided.
func (store *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Locate searches for a file with the ID provided, trying each of the known
// Extensions in turn. ErrNotFound is returned if no file exists, or if the ID
// is not one that the store could have produced.
func (store *Store) Locate(fileID string) (string, Extension, error) {
	if !IsValidID(fileID) {
		return "", "", ErrNotFound
	}

	for _, ext := range Extensions {
		if path := store.ResolvePath(fileID, ext); store.Exists(path) {
			return path, ext, nil
		}
	}

	return "", "", ErrNotFound
}

// Delete removes the file at the path provided. Failures are logged and
// otherwise ignored.
func (store *Store) Delete(path string) {
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Emit(logger.WARNING, "Failed to delete file %s: %v\n", path, err)
		}
		return
	}

	log.Emit(logger.REMOVE, "Deleted file %s\n", path)
}

// ScheduleDelete deletes the file at the path provided in the background.
// The returned channel is closed once the deletion has been attempted.
func (store *Store) ScheduleDelete(path string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		store.Delete(path)
	}()

	return done
}

// Filename returns the base name of the file for the given ID and extension.
func Filename(fileID string, ext Extension) string {
	return fmt.Sprintf("%s.%s", fileID, ext)
}

// IsValidID returns true if the ID provided is a canonical UUID, as
// produced for every download. Any other ID cannot refer to a file in the store.
func IsValidID(fileID string) bool {
	id, err := uuid.Parse(fileID)
	return err == nil && id.String() == fileID
}

// parseFilename splits a base name in to its ID and extension, returning false
// if the name is not one that the store would produce.
func parseFilename(name string) (string, Extension, bool) {
	base, ext, found := strings.Cut(name, ".")
	if !found || !IsValidID(base) {
		return "", "", false
	}

	for _, known := range Extensions {
		if Extension(ext) == known {
			return base, known, true
		}
	}

	return "", "", false
}
