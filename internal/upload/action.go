package upload

import (
	"fmt"
	"strings"
)

// ActionKind enumerates the store's operations.
type ActionKind int

const (
	ActionAddFiles ActionKind = iota
	ActionSetFiles
	ActionSetProgress
	ActionSetSuccess
	ActionSetError
	ActionRemoveFile
	ActionSetDragOver
	ActionSetInvalid
	ActionClear
)

func (k ActionKind) String() string {
	switch k {
	case ActionAddFiles:
		return "add_files"
	case ActionSetFiles:
		return "set_files"
	case ActionSetProgress:
		return "set_progress"
	case ActionSetSuccess:
		return "set_success"
	case ActionSetError:
		return "set_error"
	case ActionRemoveFile:
		return "remove_file"
	case ActionSetDragOver:
		return "set_drag_over"
	case ActionSetInvalid:
		return "set_invalid"
	case ActionClear:
		return "clear"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action is a store operation and its payload. Only the fields relevant to
// Kind are read. Build actions with the constructors below.
type Action struct {
	Kind     ActionKind
	Files    []*File // AddFiles, SetFiles
	File     FileID  // SetProgress, SetSuccess, SetError, RemoveFile
	Progress float64
	Message  string
	Flag     bool // SetDragOver, SetInvalid
}

// AddFiles inserts idle entries for handles not yet tracked.
func AddFiles(files ...*File) Action {
	return Action{Kind: ActionAddFiles, Files: files}
}

// SetFiles replaces the tracked set with files, keeping existing records.
func SetFiles(files ...*File) Action {
	return Action{Kind: ActionSetFiles, Files: files}
}

func SetProgress(id FileID, progress float64) Action {
	return Action{Kind: ActionSetProgress, File: id, Progress: progress}
}

func SetSuccess(id FileID) Action {
	return Action{Kind: ActionSetSuccess, File: id}
}

func SetError(id FileID, message string) Action {
	return Action{Kind: ActionSetError, File: id, Message: message}
}

func RemoveFile(id FileID) Action {
	return Action{Kind: ActionRemoveFile, File: id}
}

func SetDragOver(over bool) Action {
	return Action{Kind: ActionSetDragOver, Flag: over}
}

func SetInvalid(invalid bool) Action {
	return Action{Kind: ActionSetInvalid, Flag: invalid}
}

func Clear() Action {
	return Action{Kind: ActionClear}
}

// reduce applies a to s in place. It reports whether the file list changed
// in a way that must be announced to the value-changed callback.
func reduce(s *State, a Action) (listChanged bool) {
	switch a.Kind {
	case ActionAddFiles:
		for _, f := range a.Files {
			if f != nil {
				s.insert(f)
			}
		}
		return true

	case ActionSetFiles:
		keep := make(map[FileID]bool, len(a.Files))
		for _, f := range a.Files {
			if f != nil {
				keep[f.ID] = true
			}
		}
		for _, f := range s.Handles() {
			if !keep[f.ID] {
				s.remove(f.ID)
			}
		}
		for _, f := range a.Files {
			if f != nil {
				s.insert(f)
			}
		}
		return false

	case ActionSetProgress:
		if fs := s.lookup(a.File); fs != nil {
			fs.Progress = a.Progress
			fs.Error = ""
			fs.Status = StatusUploading
		}

	case ActionSetSuccess:
		if fs := s.lookup(a.File); fs != nil {
			fs.Progress = 100
			fs.Error = ""
			fs.Status = StatusSuccess
		}

	case ActionSetError:
		if fs := s.lookup(a.File); fs != nil {
			fs.Error = a.Message
			if strings.TrimSpace(fs.Error) == "" {
				fs.Error = FallbackErrorMessage
			}
			fs.Status = StatusError
		}

	case ActionRemoveFile:
		return s.remove(a.File)

	case ActionSetDragOver:
		s.DragOver = a.Flag

	case ActionSetInvalid:
		s.Invalid = a.Flag

	case ActionClear:
		s.clear()
		s.Invalid = false
		return true
	}
	return false
}
