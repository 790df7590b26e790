package filesystem

import (
	"os"

	"github.com/spf13/afero"
)

// New returns the filesystem for a run
func New(dryRun bool) afero.Fs {
	if dryRun {
		return afero.NewReadOnlyFs(afero.NewOsFs())
	}
	return afero.NewOsFs()
}

// Exists reports whether path exists
func Exists(fs afero.Fs, path string) bool {
	ok, err := afero.Exists(fs, path)
	return err == nil && ok
}

// IsDir reports whether path exists and is a directory
func IsDir(fs afero.Fs, path string) bool {
	ok, err := afero.IsDir(fs, path)
	return err == nil && ok
}

// Lstat uses Lstat when the filesystem supports it and falls back to Stat
func Lstat(fs afero.Fs, path string) (os.FileInfo, error) {
	if lstater, ok := fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return fs.Stat(path)
}

// IsSymlink reports whether path is a symbolic link
func IsSymlink(fs afero.Fs, path string) bool {
	info, err := Lstat(fs, path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}

