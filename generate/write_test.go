package generate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// fakeTempFile is a controllable file-like object for WriteFileAtomic tests.
// It lets us force errors on Write and Close without using a real file.
type fakeTempFile struct {
	fileName string
	writeErr error
	closeErr error
}

func (f *fakeTempFile) Name() string { return f.fileName }

func (f *fakeTempFile) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return len(p), nil
}

func (f *fakeTempFile) Close() error {
	return f.closeErr
}

// restoreWriteSeams snapshots the global file seams and registers their
// restoration, so a seam-mutating test cannot leak into the next one.
func restoreWriteSeams(t *testing.T) {
	t.Helper()

	origCreate, origChmod, origRename, origRemove := createTempFile, chmodFile, renameFile, removeFile
	t.Cleanup(func() {
		createTempFile, chmodFile, renameFile, removeFile = origCreate, origChmod, origRename, origRemove
	})
}

//
// -----------------------------------------------------------------------------
// WriteFileAtomic()
// -----------------------------------------------------------------------------

// Covers every WriteFileAtomic error branch, including deferred cleanup:
// - createTempFile failure
// - Write failure triggers Close + remove
// - Close failure triggers remove
// - chmod failure triggers remove
// - rename failure triggers remove
func TestWriteFileAtomic_AllErrorBranches(t *testing.T) {
	// NOT parallel: mutates global seams.

	type seamOverrides struct {
		createTemp func(dir, pattern string) (tempFile, error)
		chmodTmp   func(path string, mode os.FileMode) error
		renameTmp  func(oldpath, newpath string) error
	}

	testCases := []struct {
		name                 string
		seams                seamOverrides
		expectedErrSubstring string
		expectedRemoveCount  int
	}{
		{
			name: "create temp error",
			seams: seamOverrides{
				createTemp: func(dir, pattern string) (tempFile, error) {
					return nil, errors.New("create temp failed")
				},
			},
			expectedErrSubstring: "create temp failed",
			expectedRemoveCount:  0,
		},
		{
			name: "write error removes temp",
			seams: seamOverrides{
				createTemp: func(dir, pattern string) (tempFile, error) {
					return &fakeTempFile{
						fileName: filepath.Join(dir, "tmpfile"),
						writeErr: errors.New("write failed"),
					}, nil
				},
			},
			expectedErrSubstring: "write failed",
			expectedRemoveCount:  1,
		},
		{
			name: "close error removes temp",
			seams: seamOverrides{
				createTemp: func(dir, pattern string) (tempFile, error) {
					return &fakeTempFile{
						fileName: filepath.Join(dir, "tmpfile"),
						closeErr: errors.New("close failed"),
					}, nil
				},
			},
			expectedErrSubstring: "close failed",
			expectedRemoveCount:  1,
		},
		{
			name: "chmod error removes temp",
			seams: seamOverrides{
				createTemp: func(dir, pattern string) (tempFile, error) {
					return &fakeTempFile{fileName: filepath.Join(dir, "tmpfile")}, nil
				},
				chmodTmp: func(path string, mode os.FileMode) error { return errors.New("chmod failed") },
			},
			expectedErrSubstring: "chmod failed",
			expectedRemoveCount:  1,
		},
		{
			name: "rename error removes temp",
			seams: seamOverrides{
				createTemp: func(dir, pattern string) (tempFile, error) {
					return &fakeTempFile{fileName: filepath.Join(dir, "tmpfile")}, nil
				},
				renameTmp: func(oldpath, newpath string) error { return errors.New("rename failed") },
			},
			expectedErrSubstring: "rename failed",
			expectedRemoveCount:  1,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			restoreWriteSeams(t)

			removeCount := 0
			removeFile = func(path string) error {
				removeCount++
				return nil
			}
			chmodFile = func(path string, mode os.FileMode) error { return nil }
			renameFile = func(oldpath, newpath string) error { return nil }

			createTempFile = tc.seams.createTemp
			if tc.seams.chmodTmp != nil {
				chmodFile = tc.seams.chmodTmp
			}
			if tc.seams.renameTmp != nil {
				renameFile = tc.seams.renameTmp
			}

			err := WriteFileAtomic(filepath.Join(t.TempDir(), "out.gen.go"), []byte("package x\n"), 0o644)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErrSubstring)
			assert.Equal(t, tc.expectedRemoveCount, removeCount)
		})
	}
}

// Covers: the happy path lands the exact bytes at the target and leaves no
// temp file behind.
func TestWriteFileAtomic_Success(t *testing.T) {
	// NOT parallel: other tests mutate the global seams.

	dir := t.TempDir()
	target := filepath.Join(dir, "out.gen.go")
	content := []byte("package x\n\nvar answer = 42\n")

	require.NoError(t, WriteFileAtomic(target, content, 0o644))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.gen.go", entries[0].Name())
}

// Covers: a rewrite replaces the previous content in place.
func TestWriteFileAtomic_Overwrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.gen.go")

	require.NoError(t, WriteFileAtomic(target, []byte("first\n"), 0o644))
	require.NoError(t, WriteFileAtomic(target, []byte("second\n"), 0o644))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(got))
}
