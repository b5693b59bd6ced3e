package ui

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/fileupload/internal/upload"
)

// Orientation of the file list.
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// ListProps configures the file list.
type ListProps struct {
	Orientation Orientation
	// ForceMount renders the list even when no files are present.
	ForceMount bool
	Class      string
	Attrs      Attrs
}

type listView struct {
	id          string
	orientation Orientation
	state       string
	dir         string
}

// List renders the file list container. It renders nothing while the store
// is empty unless ForceMount is set.
func List(p ListProps, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		rc, err := useRoot(ctx, ListName)
		if err != nil {
			return err
		}

		w := rc.widget
		count := upload.Select(w.Store(), (*upload.State).Len)
		if count == 0 && !p.ForceMount {
			return skip(ctx)
		}

		v := listView{
			id:          w.IDs().List,
			orientation: p.Orientation,
			state:       "inactive",
			dir:         string(w.Options().Dir),
		}
		if v.orientation == "" {
			v.orientation = Vertical
		}
		if count > 0 {
			v.state = "active"
		}
		return list(v, p, group(children)).Render(ctx, out)
	})
}

// ForEachFile renders one component per file in insertion order.
func ForEachFile(render func(f *upload.File) templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		rc, err := useRoot(ctx, ListName)
		if err != nil {
			return err
		}
		for _, f := range upload.Select(rc.widget.Store(), (*upload.State).Handles) {
			if err := render(f).Render(ctx, out); err != nil {
				return err
			}
		}
		return nil
	})
}

// ItemProps configures one list entry.
type ItemProps struct {
	Class string
	Attrs Attrs
}

type itemView struct {
	ic       *itemContext
	ok       bool
	position int
	count    int
	dir      string
}

// Item binds its descendants to the file identified by id. A file that is
// no longer in the store renders nothing.
func Item(id upload.FileID, p ItemProps, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		rc, err := useRoot(ctx, ItemName)
		if err != nil {
			return err
		}

		w := rc.widget
		itemID := w.IDs().Root + "-item-" + string(id)
		v := upload.Select(w.Store(), func(st *upload.State) itemView {
			fs, ok := st.Get(id)
			return itemView{
				ic:       &itemContext{id: itemID, state: fs},
				ok:       ok,
				position: st.Position(id),
				count:    st.Len(),
			}
		})
		if !v.ok {
			return skip(ctx)
		}

		v.dir = string(w.Options().Dir)
		v.ic.nameID = itemID + "-name"
		v.ic.sizeID = itemID + "-size"
		v.ic.statusID = itemID + "-status"
		v.ic.messageID = itemID + "-message"

		ctx = context.WithValue(ctx, itemKey, v.ic)
		return item(v, p, group(children)).Render(ctx, out)
	})
}
