package ui

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/fileupload/internal/upload"
)

// DropzoneProps configures the drop target.
type DropzoneProps struct {
	Class string
	Attrs Attrs
}

type dropzoneView struct {
	ids      upload.IDs
	dir      string
	disabled bool
	dragOver bool
	invalid  bool
}

// Dropzone renders the region files are dragged onto. Activating it with a
// click, Enter or Space opens the file picker; the client script wires that
// through data-slot.
func Dropzone(p DropzoneProps, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		rc, err := useRoot(ctx, DropzoneName)
		if err != nil {
			return err
		}

		w := rc.widget
		v := upload.Select(w.Store(), func(st *upload.State) dropzoneView {
			return dropzoneView{dragOver: st.DragOver, invalid: st.Invalid}
		})
		v.ids = w.IDs()
		v.dir = string(w.Options().Dir)
		v.disabled = w.Disabled()
		return dropzone(v, p, group(children)).Render(ctx, out)
	})
}

// TriggerProps configures the picker button.
type TriggerProps struct {
	Class string
	Attrs Attrs
}

// Trigger renders a button that opens the file picker.
func Trigger(p TriggerProps, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		rc, err := useRoot(ctx, TriggerName)
		if err != nil {
			return err
		}
		input := rc.widget.IDs().Input
		return trigger(input, rc.widget.Disabled(), p, group(children)).Render(ctx, out)
	})
}
