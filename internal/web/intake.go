package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/JonMunkholm/fileupload/internal/upload"
)

// sniffLen is how much of each part is inspected to detect its type.
const sniffLen = 3072

// spooled is a received file and the temporary copy backing it.
type spooled struct {
	file *upload.File
	path string
}

func discard(parts []spooled) {
	for _, p := range parts {
		os.Remove(p.path)
	}
}

// spoolMultipart copies every file part of r into dir. Parts larger than
// maxSize are truncated at maxSize+1 bytes: enough for validation to reject
// them as too large without storing the rest.
func spoolMultipart(r *http.Request, dir string, maxSize int64) ([]spooled, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("invalid form: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("prepare spool dir: %w", err)
	}

	var out []spooled
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			discard(out)
			return nil, fmt.Errorf("read multipart: %w", err)
		}
		if part.FileName() == "" {
			part.Close()
			continue
		}

		sp, err := spoolPart(part, dir, maxSize)
		part.Close()
		if err != nil {
			discard(out)
			return nil, err
		}
		out = append(out, sp)
	}

	if len(out) == 0 {
		return nil, errNoFiles
	}
	return out, nil
}

func spoolPart(part *multipart.Part, dir string, maxSize int64) (spooled, error) {
	tmp, err := os.CreateTemp(dir, "part-*")
	if err != nil {
		return spooled{}, fmt.Errorf("spool %s: %w", part.FileName(), err)
	}
	path := tmp.Name()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(part, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		tmp.Close()
		os.Remove(path)
		return spooled{}, fmt.Errorf("read multipart: %w", err)
	}
	head = head[:n]

	var src io.Reader = io.MultiReader(bytes.NewReader(head), part)
	if maxSize > 0 {
		src = io.LimitReader(src, maxSize+1)
	}
	size, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return spooled{}, fmt.Errorf("read multipart: %w", err)
	}

	contentType := detectType(part.Header.Get("Content-Type"), head)
	f := upload.NewFile(part.FileName(), size, contentType, func() (io.ReadCloser, error) {
		return os.Open(path)
	})
	return spooled{file: f, path: path}, nil
}

// detectType prefers a specific declared type and falls back to sniffing
// the content when the client sent none or a generic one.
func detectType(declared string, head []byte) string {
	declared = baseType(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if len(head) == 0 {
		return declared
	}
	return baseType(mimetype.Detect(head).String())
}

func baseType(contentType string) string {
	t, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(t))
}

// spoolSet tracks the spooled copy behind each file a session received. A
// copy is deleted once its file has left the store and no upload batch
// still reads it.
type spoolSet struct {
	mu    sync.Mutex
	files map[upload.FileID]*spoolEntry
}

type spoolEntry struct {
	path string
	busy bool
}

func newSpoolSet() *spoolSet {
	return &spoolSet{files: make(map[upload.FileID]*spoolEntry)}
}

// add registers parts. busy marks them as held until their batch releases
// them, for widgets that hand files to an upload routine.
func (s *spoolSet) add(parts []spooled, busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range parts {
		s.files[p.file.ID] = &spoolEntry{path: p.path, busy: busy}
	}
}

// discard deletes the copies of files the widget did not take.
func (s *spoolSet) discard(ids []upload.FileID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if e, ok := s.files[id]; ok {
			os.Remove(e.path)
			delete(s.files, id)
		}
	}
}

// release ends a batch's hold on files and deletes the ones already
// removed from the store.
func (s *spoolSet) release(files []*upload.File, tracked func(upload.FileID) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range files {
		e, ok := s.files[f.ID]
		if !ok {
			continue
		}
		e.busy = false
		if !tracked(f.ID) {
			os.Remove(e.path)
			delete(s.files, f.ID)
		}
	}
}

// prune deletes every idle copy whose file is no longer tracked. Held
// copies are left to release.
func (s *spoolSet) prune(tracked func(upload.FileID) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.files {
		if !e.busy && !tracked(id) {
			os.Remove(e.path)
			delete(s.files, id)
		}
	}
}

func (s *spoolSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}
