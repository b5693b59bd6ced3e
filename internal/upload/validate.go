package upload

// validate.go classifies candidate files as accepted or rejected.
//
// Rules run in order and the first failure wins:
//  1. Custom validator returning a non-empty message
//  2. Type allow-list (exact MIME, dot-prefixed extension, or family/*)
//  3. Maximum size in bytes
//
// The file-count limit is applied to the batch first: files beyond the
// remaining capacity are rejected in arrival order and never reach rules 2-3.

import (
	"fmt"
	"strings"
)

const (
	MsgTypeNotAccepted = "File type not accepted"
	MsgTooLarge        = "File too large"
)

// MaxFilesMessage is the rejection message for files over the count limit.
func MaxFilesMessage(maxFiles int) string {
	return fmt.Sprintf("Maximum %d files allowed", maxFiles)
}

// ValidateFunc is a custom validation rule. A non-empty return rejects the
// file with that message.
type ValidateFunc func(f *File) string

// Constraints configures acceptance. Zero values disable a rule.
type Constraints struct {
	Accept   string // comma separated, e.g. "image/*,.pdf,application/zip"
	MaxSize  int64  // bytes
	MaxFiles int
	Validate ValidateFunc
}

// Rejection pairs a file with the reason it was not accepted.
type Rejection struct {
	File    *File
	Message string
}

// AcceptTypes splits the Accept list into trimmed, non-empty entries.
func (c Constraints) AcceptTypes() []string {
	if c.Accept == "" {
		return nil
	}
	parts := strings.Split(c.Accept, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MatchesType reports whether f satisfies the allow-list. An empty list
// accepts everything.
func (c Constraints) MatchesType(f *File) bool {
	types := c.AcceptTypes()
	if len(types) == 0 {
		return true
	}
	ext := f.Extension()
	for _, t := range types {
		switch {
		case t == f.Type:
			return true
		case strings.HasPrefix(t, ".") && strings.EqualFold(t, ext):
			return true
		case strings.HasSuffix(t, "/*") && f.Type != "" &&
			strings.HasPrefix(f.Type, strings.TrimSuffix(t, "*")):
			return true
		}
	}
	return false
}

// Check runs rules 1-3 against a single file. It returns the rejection
// message, or "" if the file is accepted.
func (c Constraints) Check(f *File) string {
	if c.Validate != nil {
		if msg := c.Validate(f); msg != "" {
			return msg
		}
	}
	if !c.MatchesType(f) {
		return MsgTypeNotAccepted
	}
	if c.MaxSize > 0 && f.Size > c.MaxSize {
		return MsgTooLarge
	}
	return ""
}

// Partition splits a batch into accepted files and rejections, given the
// number of files already held by the store. Both results preserve arrival
// order.
func (c Constraints) Partition(files []*File, current int) (accepted []*File, rejected []Rejection) {
	candidates := files

	if c.MaxFiles > 0 {
		remaining := max(0, c.MaxFiles-current)
		if remaining < len(files) {
			candidates = files[:remaining]
			for _, f := range files[remaining:] {
				msg := MaxFilesMessage(c.MaxFiles)
				if c.Validate != nil {
					if custom := c.Validate(f); custom != "" {
						msg = custom
					}
				}
				rejected = append(rejected, Rejection{File: f, Message: msg})
			}
		}
	}

	overflow := rejected
	rejected = nil
	for _, f := range candidates {
		if msg := c.Check(f); msg != "" {
			rejected = append(rejected, Rejection{File: f, Message: msg})
			continue
		}
		accepted = append(accepted, f)
	}

	// count overflow is reported first, matching the order callbacks fire
	return accepted, append(overflow, rejected...)
}
