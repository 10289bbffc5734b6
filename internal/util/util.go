package util

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// CheckError panics on unrecoverable initialization errors.
func CheckError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// InitDir creates the parent directory for path with the given mode.
func InitDir(path string, mode fs.FileMode) error {
	expanded := os.ExpandEnv(path)
	return os.MkdirAll(filepath.Dir(expanded), mode)
}
