package ui

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/fileupload/internal/upload"
)

// RootProps configures the outermost element.
type RootProps struct {
	// Endpoint is the base URL the client script posts files and commands
	// to. Empty renders a static widget.
	Endpoint string
	Class    string
	Attrs    Attrs
}

type rootView struct {
	ids      upload.IDs
	opts     upload.Options
	disabled bool
	invalid  bool
}

// Root renders the widget container, the hidden file input and the
// visually hidden label, and makes w available to every descendant.
func Root(w *upload.Widget, p RootProps, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		v := rootView{
			ids:      w.IDs(),
			opts:     w.Options(),
			disabled: w.Disabled(),
			invalid:  upload.Select(w.Store(), func(st *upload.State) bool { return st.Invalid }),
		}
		ctx = context.WithValue(ctx, rootKey, &rootContext{widget: w, endpoint: p.Endpoint})
		return root(v, p, group(children)).Render(ctx, out)
	})
}
