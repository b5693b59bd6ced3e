package ui

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/fileupload/internal/upload"
)

// ClearProps configures the clear-all button.
type ClearProps struct {
	// ForceMount renders the button even when no files are present.
	ForceMount bool
	Disabled   bool
	Class      string
	Attrs      Attrs
}

// Clear renders a button that empties the store.
func Clear(p ClearProps, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		rc, err := useRoot(ctx, ClearName)
		if err != nil {
			return err
		}

		w := rc.widget
		if upload.Select(w.Store(), (*upload.State).Len) == 0 && !p.ForceMount {
			return skip(ctx)
		}
		disabled := p.Disabled || w.Disabled()
		return clearButton(w.IDs().List, disabled, p, group(children)).Render(ctx, out)
	})
}
