package upload

import (
	"context"
	"errors"
	"sync"
)

// FallbackErrorMessage is used when an upload failure carries no message.
const FallbackErrorMessage = "Upload failed"

// Callbacks are handed to an UploadFunc so it can report per-file outcomes.
// They are safe to call from any goroutine, in any order, at any time.
type Callbacks struct {
	OnProgress func(f *File, percent float64)
	OnSuccess  func(f *File)
	OnError    func(f *File, err error)
}

// UploadFunc uploads a batch. Returning an error (or panicking) fails every
// file in the batch that has not already reported success or error.
type UploadFunc func(ctx context.Context, files []*File, cb Callbacks) error

// ClampProgress bounds a reported percentage to [0, 100].
func ClampProgress(p float64) float64 {
	return min(max(0, p), 100)
}

func errorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return FallbackErrorMessage
	}
	return err.Error()
}

// batch tracks which files received an explicit outcome, so a routine
// failure only overrides files still pending.
type batch struct {
	mu      sync.Mutex
	settled map[FileID]bool
}

func (b *batch) settle(id FileID) {
	b.mu.Lock()
	b.settled[id] = true
	b.mu.Unlock()
}

func (b *batch) pending(files []*File) []*File {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*File
	for _, f := range files {
		if !b.settled[f.ID] {
			out = append(out, f)
		}
	}
	return out
}

// upload drives one accepted batch to completion.
func (w *Widget) upload(ctx context.Context, files []*File) {
	if w.opts.OnUpload == nil {
		for _, f := range files {
			w.store.Dispatch(SetSuccess(f.ID))
		}
		return
	}

	for _, f := range files {
		w.store.Dispatch(SetProgress(f.ID, 0))
	}

	b := &batch{settled: make(map[FileID]bool, len(files))}
	cb := Callbacks{
		OnProgress: func(f *File, percent float64) {
			w.store.Dispatch(SetProgress(f.ID, ClampProgress(percent)))
		},
		OnSuccess: func(f *File) {
			b.settle(f.ID)
			w.store.Dispatch(SetSuccess(f.ID))
		},
		OnError: func(f *File, err error) {
			b.settle(f.ID)
			w.store.Dispatch(SetError(f.ID, errorMessage(err)))
		},
	}

	err := invoke(ctx, w.opts.OnUpload, files, cb)
	if err == nil {
		return
	}

	pending := b.pending(files)
	w.logger.Warn("upload routine failed",
		"files", len(files),
		"pending", len(pending),
		"error", err,
	)
	msg := errorMessage(err)
	for _, f := range pending {
		w.store.Dispatch(SetError(f.ID, msg))
	}
}

// invoke calls fn, converting a panic into an error.
func invoke(ctx context.Context, fn UploadFunc, files []*File, cb Callbacks) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case error:
				err = v
			case string:
				err = errors.New(v)
			default:
				err = errors.New(FallbackErrorMessage)
			}
		}
	}()
	return fn(ctx, files, cb)
}
