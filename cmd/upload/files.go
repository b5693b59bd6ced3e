package main

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/JonMunkholm/fileupload/internal/upload"
)

// openFiles creates a handle per path with its content-detected type.
func openFiles(paths []string) ([]*upload.File, error) {
	files := make([]*upload.File, 0, len(paths))
	for _, path := range paths {
		var contentType string
		if mt, err := mimetype.DetectFile(path); err == nil {
			contentType, _, _ = strings.Cut(mt.String(), ";")
		}
		f, err := upload.NewDiskFile(path, contentType)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		files = append(files, f)
	}
	return files, nil
}
