// Package ui renders the file upload widget as composable, server-rendered
// templ components.
//
// Every primitive reads a narrow slice of the widget's store and owns no
// state. Composition is strict: Dropzone, Trigger, List, ForEachFile and
// Clear must render inside Root; ItemPreview, ItemMetadata, ItemProgress and
// ItemDelete must additionally render inside an Item. Rendering a primitive
// outside its ancestor returns a *CompositionError.
package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/fileupload/internal/upload"
)

// Component names, as used in composition errors.
const (
	RootName         = "FileUpload"
	DropzoneName     = "FileUploadDropzone"
	TriggerName      = "FileUploadTrigger"
	ListName         = "FileUploadList"
	ItemName         = "FileUploadItem"
	ItemPreviewName  = "FileUploadItemPreview"
	ItemMetadataName = "FileUploadItemMetadata"
	ItemProgressName = "FileUploadItemProgress"
	ItemDeleteName   = "FileUploadItemDelete"
	ClearName        = "FileUploadClear"
)

// ErrMissingAncestor matches every CompositionError.
var ErrMissingAncestor = errors.New("ui: primitive rendered outside its required ancestor")

// CompositionError reports a primitive rendered without its ancestor.
type CompositionError struct {
	Component string
	Ancestor  string
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("`%s` must be within `%s`", e.Component, e.Ancestor)
}

func (e *CompositionError) Is(target error) bool {
	return target == ErrMissingAncestor
}

type ctxKey int

const (
	rootKey ctxKey = iota
	itemKey
)

type rootContext struct {
	widget   *upload.Widget
	endpoint string
}

type itemContext struct {
	id        string
	state     upload.FileState
	nameID    string
	sizeID    string
	statusID  string
	messageID string
}

func useRoot(ctx context.Context, component string) (*rootContext, error) {
	rc, ok := ctx.Value(rootKey).(*rootContext)
	if !ok || rc == nil {
		return nil, &CompositionError{Component: component, Ancestor: RootName}
	}
	return rc, nil
}

func useItem(ctx context.Context, component string) (*itemContext, error) {
	ic, ok := ctx.Value(itemKey).(*itemContext)
	if !ok || ic == nil {
		return nil, &CompositionError{Component: component, Ancestor: ItemName}
	}
	return ic, nil
}
