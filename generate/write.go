package generate

import (
	"os"
	"path/filepath"

	"github.com/goliatone/go-errors"
)

// tempFile abstracts an os.File for testability.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// File operation hooks, overridden in tests.
var (
	createTempFile = func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) }
	chmodFile      = os.Chmod
	renameFile     = os.Rename
	removeFile     = os.Remove
)

// WriteFileAtomic writes data to a temporary file in the target's directory
// and renames it over the target path, so readers (and the compiler) never
// observe a partially written generated file.
func WriteFileAtomic(targetPath string, data []byte, perm os.FileMode) error {
	targetDir := filepath.Dir(targetPath)

	tmpFile, err := createTempFile(targetDir, filepath.Base(targetPath)+".tmp-*")
	if err != nil {
		return wrapWrite(err, "failed to create temp file", targetPath)
	}
	tmpPath := tmpFile.Name()

	cleanup := func(cause error, msg string) error {
		_ = removeFile(tmpPath)
		return wrapWrite(cause, msg, targetPath)
	}

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return cleanup(err, "failed to write temp file")
	}
	if err := tmpFile.Close(); err != nil {
		return cleanup(err, "failed to close temp file")
	}
	if err := chmodFile(tmpPath, perm); err != nil {
		return cleanup(err, "failed to chmod temp file")
	}
	if err := renameFile(tmpPath, targetPath); err != nil {
		return cleanup(err, "failed to move output into place")
	}
	return nil
}

func wrapWrite(err error, msg, target string) error {
	return errors.Wrap(err, errors.CategoryOperation, msg).
		WithTextCode("ATOMIC_WRITE_FAILED").
		WithMetadata(map[string]any{"target": target})
}
