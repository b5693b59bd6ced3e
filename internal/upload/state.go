package upload

import (
	"container/list"
	"fmt"
)

// Status is the lifecycle position of a single file.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusUploading Status = "uploading"
	StatusError     Status = "error"
	StatusSuccess   Status = "success"
)

// FileState is the per-file record held by the store.
type FileState struct {
	File     *File   `json:"file"`
	Progress float64 `json:"progress"`        // 0-100
	Error    string  `json:"error,omitempty"` // set only when Status is StatusError
	Status   Status  `json:"status"`
}

// StatusText is the human readable status line shown next to an item.
func (fs FileState) StatusText() string {
	switch {
	case fs.Error != "":
		return "Error: " + fs.Error
	case fs.Status == StatusUploading:
		return fmt.Sprintf("Uploading: %.0f%% complete", fs.Progress)
	case fs.Status == StatusSuccess:
		return "Upload complete"
	default:
		return "Ready to upload"
	}
}

// State is the store's state: an insertion-ordered mapping from file id to
// record, plus the drag and invalid flags.
//
// A State is only safe to read inside a selector or listener-driven Select
// call; it is mutated in place by the store.
type State struct {
	order *list.List // of *FileState
	index map[FileID]*list.Element

	DragOver bool
	Invalid  bool
}

func newState() *State {
	return &State{
		order: list.New(),
		index: make(map[FileID]*list.Element),
	}
}

// Len returns the number of tracked files.
func (s *State) Len() int {
	return len(s.index)
}

// Get returns a copy of the record for id.
func (s *State) Get(id FileID) (FileState, bool) {
	el, ok := s.index[id]
	if !ok {
		return FileState{}, false
	}
	return *el.Value.(*FileState), true
}

// Has reports whether id is tracked.
func (s *State) Has(id FileID) bool {
	_, ok := s.index[id]
	return ok
}

// Position returns the 1-based insertion position of id, or 0 if absent.
func (s *State) Position(id FileID) int {
	if !s.Has(id) {
		return 0
	}
	pos := 1
	for el := s.order.Front(); el != nil; el = el.Next() {
		if el.Value.(*FileState).File.ID == id {
			return pos
		}
		pos++
	}
	return 0
}

// Files returns copies of all records in insertion order.
func (s *State) Files() []FileState {
	out := make([]FileState, 0, s.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value.(*FileState))
	}
	return out
}

// Handles returns the tracked file handles in insertion order.
func (s *State) Handles() []*File {
	out := make([]*File, 0, s.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*FileState).File)
	}
	return out
}

func (s *State) insert(f *File) bool {
	if s.Has(f.ID) {
		return false
	}
	s.index[f.ID] = s.order.PushBack(&FileState{File: f, Status: StatusIdle})
	return true
}

func (s *State) lookup(id FileID) *FileState {
	el, ok := s.index[id]
	if !ok {
		return nil
	}
	return el.Value.(*FileState)
}

func (s *State) remove(id FileID) bool {
	el, ok := s.index[id]
	if !ok {
		return false
	}
	s.order.Remove(el)
	delete(s.index, id)
	return true
}

func (s *State) clear() {
	s.order.Init()
	s.index = make(map[FileID]*list.Element)
}
