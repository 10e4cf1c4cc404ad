package fileutils

import (
	"os"
	"path/filepath"
	"strings"
)

// FileExists checks if a file exsists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// IsDir checks if the path is an existing directory
func IsDir(filename string) bool {
	f, err := os.Stat(filename)
	return err == nil && f.IsDir()
}

// FileNameWithoutExtension returning the filename without the extension
func FileNameWithoutExtension(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
