package broker

import (
	"path/filepath"
	"strings"
)

// FileHelper converts paths relative to the working directory of the analysis
type FileHelper struct {
	workingDirectory string
}

func NewFileHelper(workingDirectory string) *FileHelper {
	if abs, err := filepath.Abs(workingDirectory); err == nil {
		workingDirectory = abs
	}
	return &FileHelper{workingDirectory: filepath.Clean(workingDirectory)}
}

func (h *FileHelper) WorkingDirectory() string {
	return h.workingDirectory
}

// NormalizePath cleans path and uses forward slashes, so equal files get equal keys
// on every platform
func (h *FileHelper) NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// AbsolutizePath resolves a relative path against the working directory
func (h *FileHelper) AbsolutizePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return h.NormalizePath(path)
	}
	return h.NormalizePath(filepath.Join(h.workingDirectory, path))
}

// RelativePath returns path relative to the working directory. Paths outside of it
// are returned absolute.
func (h *FileHelper) RelativePath(path string) string {
	abs := h.AbsolutizePath(path)
	rel, err := filepath.Rel(h.workingDirectory, filepath.FromSlash(abs))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return filepath.ToSlash(rel)
}
