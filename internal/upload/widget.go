// Package upload implements the state core of a file upload widget: file
// validation, an observable per-file status store, and the orchestrator that
// drives an externally supplied upload routine.
//
// A Widget owns exactly one Store. Every input modality (drop, file picker,
// CLI arguments, multipart form) funnels through Widget.Accept, so
// validation, store mutation and upload scheduling behave identically
// regardless of where files come from.
//
//	w := upload.New(upload.Options{
//	    Constraints: upload.Constraints{Accept: "image/*", MaxSize: 4 << 20, MaxFiles: 8},
//	    OnUpload:    disk.Upload,
//	    OnFileReject: func(f *upload.File, msg string) { log.Println(f.Name, msg) },
//	})
//	defer w.Close()
//	w.Accept(files)
package upload

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultInvalidResetDelay is how long the invalid flag stays set after a
// batch containing a rejection.
const DefaultInvalidResetDelay = 2 * time.Second

// Direction is the text direction primitives render with.
type Direction string

const (
	DirLTR Direction = "ltr"
	DirRTL Direction = "rtl"
)

// Options configures a Widget. Every callback is optional.
type Options struct {
	Constraints

	// Value puts the widget in controlled mode with this initial list.
	Value []*File
	// DefaultValue seeds an uncontrolled widget once.
	DefaultValue []*File

	OnValueChange ValueChangeFunc
	OnAccept      func(files []*File)
	OnFileAccept  func(f *File)
	OnFileReject  func(f *File, message string)
	OnUpload      UploadFunc

	Dir      Direction
	Label    string
	Name     string
	Disabled bool
	Invalid  bool
	Multiple bool
	Required bool

	InvalidResetDelay time.Duration
	Logger            *slog.Logger
}

// IDs are the element ids primitives use to wire aria relationships.
type IDs struct {
	Root     string `json:"root"`
	Input    string `json:"input"`
	Dropzone string `json:"dropzone"`
	List     string `json:"list"`
	Label    string `json:"label"`
}

// Result reports how Accept classified a batch.
type Result struct {
	Accepted []*File
	Rejected []Rejection
}

// Widget is the root of one upload widget instance.
type Widget struct {
	opts   Options
	store  *Store
	ids    IDs
	logger *slog.Logger

	disabled   atomic.Bool
	controlled atomic.Bool

	// acceptMu makes the capacity check and the insert one step.
	acceptMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	timerMu sync.Mutex
	timers  map[*int]*time.Timer
	closed  bool
}

// New creates a widget and its store.
func New(opts Options) *Widget {
	if opts.InvalidResetDelay <= 0 {
		opts.InvalidResetDelay = DefaultInvalidResetDelay
	}
	if opts.Dir == "" {
		opts.Dir = DirLTR
	}
	if opts.Label == "" {
		opts.Label = "File upload"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	root := "fu-" + uuid.New().String()[:8]
	ctx, cancel := context.WithCancel(context.Background())

	w := &Widget{
		opts:   opts,
		store:  NewStore(opts.OnValueChange, opts.Invalid),
		logger: logger.With("widget", root),
		ids: IDs{
			Root:     root,
			Input:    root + "-input",
			Dropzone: root + "-dropzone",
			List:     root + "-list",
			Label:    root + "-label",
		},
		ctx:    ctx,
		cancel: cancel,
		timers: make(map[*int]*time.Timer),
	}
	w.disabled.Store(opts.Disabled)

	if opts.Value != nil {
		w.SetValue(opts.Value)
	} else if len(opts.DefaultValue) > 0 {
		w.store.Dispatch(SetFiles(opts.DefaultValue...))
	}

	return w
}

// Store exposes the widget's store for subscriptions and selectors.
func (w *Widget) Store() *Store { return w.store }

// IDs returns the element ids of this instance.
func (w *Widget) IDs() IDs { return w.ids }

// Options returns the options the widget was created with, after defaults.
func (w *Widget) Options() Options { return w.opts }

// Disabled reports whether acceptance is currently blocked.
func (w *Widget) Disabled() bool { return w.disabled.Load() }

// SetDisabled toggles acceptance.
func (w *Widget) SetDisabled(disabled bool) { w.disabled.Store(disabled) }

// Controlled reports whether an external owner drives the file list.
func (w *Widget) Controlled() bool { return w.controlled.Load() }

// SetValue replaces the file list with an authoritative one and switches the
// widget to controlled mode. New arrivals start idle; existing records keep
// their status.
func (w *Widget) SetValue(files []*File) {
	w.controlled.Store(true)
	w.store.Dispatch(SetFiles(files...))
}

// Accept runs a batch through validation, adds the accepted files to the
// store and schedules their upload. It returns without waiting for the
// upload. A disabled widget accepts nothing. Handles the store already
// tracks are skipped and appear in neither list of the result.
//
// Concurrent calls are serialized from the capacity check to the insert, so
// MaxFiles holds across batches. Store callbacks must not call Accept.
func (w *Widget) Accept(files []*File) Result {
	if w.Disabled() || len(files) == 0 {
		return Result{}
	}

	w.acceptMu.Lock()
	fresh, current := w.untracked(files)
	accepted, rejected := w.opts.Constraints.Partition(fresh, current)
	if len(accepted) > 0 {
		w.store.Dispatch(AddFiles(accepted...))
	}
	w.acceptMu.Unlock()

	for _, r := range rejected {
		w.logger.Debug("file rejected", "file", r.File.Name, "size", r.File.Size, "reason", r.Message)
		if w.opts.OnFileReject != nil {
			w.opts.OnFileReject(r.File, r.Message)
		}
	}
	if len(rejected) > 0 {
		w.flagInvalid()
	}

	if len(accepted) > 0 {
		if w.opts.OnAccept != nil {
			w.opts.OnAccept(accepted)
		}
		if w.opts.OnFileAccept != nil {
			for _, f := range accepted {
				w.opts.OnFileAccept(f)
			}
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.upload(w.ctx, accepted)
		}()
	}

	return Result{Accepted: accepted, Rejected: rejected}
}

// untracked drops nil entries, repeats within files and handles already in
// the store, and reports how many files the store holds.
func (w *Widget) untracked(files []*File) (fresh []*File, current int) {
	seen := make(map[FileID]bool, len(files))
	w.store.Read(func(st *State) {
		current = st.Len()
		for _, f := range files {
			if f == nil || seen[f.ID] || st.Has(f.ID) {
				continue
			}
			seen[f.ID] = true
			fresh = append(fresh, f)
		}
	})
	return fresh, current
}

// DragEnter marks the drop target as hovered.
func (w *Widget) DragEnter() { w.setDragOver(true) }

// DragOver is DragEnter for repeated hover events.
func (w *Widget) DragOver() { w.setDragOver(true) }

// DragLeave clears the hover state.
func (w *Widget) DragLeave() { w.setDragOver(false) }

// Drop clears the hover state and accepts the dropped files.
func (w *Widget) Drop(files []*File) Result {
	w.store.Dispatch(SetDragOver(false))
	return w.Accept(files)
}

func (w *Widget) setDragOver(over bool) {
	if over && w.Disabled() {
		return
	}
	w.store.Dispatch(SetDragOver(over))
}

// Remove deletes a file's record. An in-flight upload for it is not
// aborted; its later callbacks are dropped by the store.
func (w *Widget) Remove(id FileID) {
	w.store.Dispatch(RemoveFile(id))
}

// Clear empties the store and resets the invalid flag.
func (w *Widget) Clear() {
	w.store.Dispatch(Clear())
}

// Wait blocks until every scheduled upload batch has returned.
func (w *Widget) Wait() {
	w.wg.Wait()
}

// Close cancels the context handed to running upload routines and stops
// pending invalid-flag timers. It does not wait for uploads; use Wait.
func (w *Widget) Close() {
	w.cancel()

	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	w.closed = true
	for key, t := range w.timers {
		t.Stop()
		delete(w.timers, key)
	}
}

// flagInvalid sets the invalid flag and arms an independent timer that
// clears it after the reset delay.
func (w *Widget) flagInvalid() {
	w.store.Dispatch(SetInvalid(true))

	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.closed {
		return
	}

	key := new(int)
	w.timers[key] = time.AfterFunc(w.opts.InvalidResetDelay, func() {
		w.timerMu.Lock()
		delete(w.timers, key)
		w.timerMu.Unlock()

		w.store.Dispatch(SetInvalid(false))
	})
}
