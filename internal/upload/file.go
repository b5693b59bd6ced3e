package upload

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNoContent is returned by File.Open when the handle was created without
// a content source.
var ErrNoContent = errors.New("file has no content source")

// FileID identifies a file handle. It is generated when the handle is
// created, so two handles with identical metadata are still distinct.
type FileID string

// OpenFunc opens the binary content behind a file handle.
type OpenFunc func() (io.ReadCloser, error)

// File is an opaque handle to binary content plus its metadata.
// The store keys entries by ID, never by name or size.
type File struct {
	ID   FileID `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"` // MIME type, may be empty

	open OpenFunc
}

// NewFile creates a handle with a fresh identity.
func NewFile(name string, size int64, mimeType string, open OpenFunc) *File {
	return &File{
		ID:   FileID(uuid.New().String()),
		Name: name,
		Size: size,
		Type: mimeType,
		open: open,
	}
}

// NewBytesFile creates a handle backed by an in-memory buffer.
func NewBytesFile(name, mimeType string, data []byte) *File {
	return NewFile(name, int64(len(data)), mimeType, func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// NewDiskFile creates a handle for a file on the local filesystem.
func NewDiskFile(path, mimeType string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.New(path + " is a directory")
	}
	return NewFile(filepath.Base(path), info.Size(), mimeType, func() (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}

// Open returns a reader over the file content. Callers must close it.
func (f *File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, ErrNoContent
	}
	return f.open()
}

// Extension returns the lowercased, dot-prefixed suffix of the name, or ""
// if the name has no dot.
func (f *File) Extension() string {
	i := strings.LastIndex(f.Name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(f.Name[i:])
}

// Kind is a coarse classification of a file used for previews.
type Kind string

const (
	KindImage      Kind = "image"
	KindVideo      Kind = "video"
	KindAudio      Kind = "audio"
	KindText       Kind = "text"
	KindCode       Kind = "code"
	KindArchive    Kind = "archive"
	KindExecutable Kind = "executable"
	KindGeneric    Kind = "file"
)

var (
	textExtensions = map[string]bool{
		"txt": true, "md": true, "rtf": true, "pdf": true,
	}
	codeExtensions = map[string]bool{
		"html": true, "css": true, "js": true, "jsx": true, "ts": true,
		"tsx": true, "json": true, "xml": true, "php": true, "py": true,
		"rb": true, "java": true, "c": true, "cpp": true, "cs": true,
		"go": true,
	}
	archiveExtensions = map[string]bool{
		"zip": true, "rar": true, "7z": true, "tar": true, "gz": true, "bz2": true,
	}
	executableExtensions = map[string]bool{
		"exe": true, "msi": true, "app": true, "apk": true, "deb": true, "rpm": true,
	}
)

// Kind classifies the file by MIME family first, then by extension.
func (f *File) Kind() Kind {
	ext := strings.TrimPrefix(f.Extension(), ".")

	switch {
	case strings.HasPrefix(f.Type, "image/"):
		return KindImage
	case strings.HasPrefix(f.Type, "video/"):
		return KindVideo
	case strings.HasPrefix(f.Type, "audio/"):
		return KindAudio
	case strings.HasPrefix(f.Type, "text/") || textExtensions[ext]:
		return KindText
	case codeExtensions[ext]:
		return KindCode
	case archiveExtensions[ext]:
		return KindArchive
	case executableExtensions[ext] || strings.HasPrefix(f.Type, "application/"):
		return KindExecutable
	default:
		return KindGeneric
	}
}
