package files

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/tameszaza/p2p/internal/utils"
)

var ErrNotRegular = errors.New("not a regular file")

// FileInfo holds information about a file to be sent
type FileInfo struct {
	// Path is the absolute path of the bytes to send
	Path string

	// Name is the filename announced to the peer
	Name string

	// Size is the file size in bytes
	Size int64

	// Type is the MIME type of the file (e.g., "application/pdf", "text/plain")
	Type string

	// Archived is set when Path is a temporary zip of a directory
	Archived bool

	tempDir string
}

// ValidateFile checks that path is a readable regular file and returns its
// info. Empty files are allowed.
func ValidateFile(path string) (*FileInfo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get absolute path: %w", path, err)
	}

	stat, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: file does not exist", path)
		}
		return nil, fmt.Errorf("%s: failed to stat file: %w", path, err)
	}
	if !stat.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("%s: cannot open file (check permissions): %w", path, err)
	}
	file.Close()

	return &FileInfo{
		Path: absPath,
		Name: filepath.Base(absPath),
		Size: stat.Size(),
		Type: mimeType(absPath),
	}, nil
}

// Prepare validates path for sending. A directory is zipped into a temporary
// "<dir>.zip" which Cleanup removes.
func Prepare(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil || !stat.IsDir() {
		return ValidateFile(path)
	}

	absDir, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get absolute path: %w", path, err)
	}

	tempDir, err := os.MkdirTemp("", "p2p-archive-")
	if err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	archive := filepath.Join(tempDir, filepath.Base(absDir)+".zip")
	if err := utils.ZipDirectory(absDir, archive); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("%s: zip directory: %w", path, err)
	}

	info, err := ValidateFile(archive)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	info.Archived = true
	info.tempDir = tempDir
	return info, nil
}

// Cleanup removes any temporary archive created by Prepare.
func (f *FileInfo) Cleanup() {
	if f != nil && f.tempDir != "" {
		os.RemoveAll(f.tempDir)
		f.tempDir = ""
	}
}

func mimeType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
