package ui

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/fileupload/internal/upload"
)

// useRootItem resolves both ancestors of an item-level primitive.
func useRootItem(ctx context.Context, component string) (*rootContext, *itemContext, error) {
	rc, err := useRoot(ctx, component)
	if err != nil {
		return nil, nil, err
	}
	ic, err := useItem(ctx, component)
	if err != nil {
		return nil, nil, err
	}
	return rc, ic, nil
}

// ItemPreviewProps configures the thumbnail.
type ItemPreviewProps struct {
	// Render replaces the default thumbnail.
	Render func(f *upload.File) templ.Component
	Class  string
	Attrs  Attrs
}

type previewView struct {
	nameID string
	kind   string
	name   string
	// src is set for images the root endpoint can serve.
	src string
}

// ItemPreview renders an image thumbnail for image files served from the
// root endpoint, and a kind icon for everything else.
func ItemPreview(p ItemPreviewProps, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		rc, ic, err := useRootItem(ctx, ItemPreviewName)
		if err != nil {
			return err
		}

		f := ic.state.File
		v := previewView{nameID: ic.nameID, kind: string(f.Kind()), name: f.Name}
		if f.Kind() == upload.KindImage && rc.endpoint != "" {
			v.src = rc.endpoint + "/files/" + string(f.ID) + "/content"
		}
		var custom templ.Component
		if p.Render != nil {
			custom = p.Render(f)
		}
		return itemPreview(v, p, custom, group(children)).Render(ctx, out)
	})
}

// ItemMetadataProps configures the name/size block.
type ItemMetadataProps struct {
	Class string
	Attrs Attrs
}

// ItemMetadata renders the file name, human readable size and error
// message. Children, when given, replace the default content.
func ItemMetadata(p ItemMetadataProps, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		rc, ic, err := useRootItem(ctx, ItemMetadataName)
		if err != nil {
			return err
		}
		custom, err := replacement(ctx, children)
		if err != nil {
			return err
		}
		dir := string(rc.widget.Options().Dir)
		return itemMetadata(ic, dir, p, custom).Render(ctx, out)
	})
}

// FormatBytes renders a size with binary units, e.g. "1.5 MiB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(n))
}

// DefaultProgressSize is the circular progress diameter in pixels.
const DefaultProgressSize = 40

// ItemProgressProps configures the progress indicator.
type ItemProgressProps struct {
	Circular bool
	// Size is the circular diameter; zero means DefaultProgressSize.
	Size  int
	Class string
	Attrs Attrs
}

type progressView struct {
	nameID  string
	value   string
	variant string
	// bar is the linear indicator offset; ring is set for the circular one.
	bar  templ.SafeCSS
	ring *ringView
}

type ringView struct {
	size          string
	center        string
	radius        string
	circumference string
	offset        string
}

// ItemProgress renders a linear bar or a circular SVG ring. The circular
// variant disappears once the file has uploaded.
func ItemProgress(p ItemProgressProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		_, ic, err := useRootItem(ctx, ItemProgressName)
		if err != nil {
			return err
		}

		fs := ic.state
		if p.Circular && fs.Status == upload.StatusSuccess {
			return skip(ctx)
		}

		pct := upload.ClampProgress(fs.Progress)
		v := progressView{nameID: ic.nameID, value: formatFloat(pct), variant: "linear"}
		if p.Circular {
			v.variant = "circular"
			v.ring = newRing(p.Size, pct)
		} else {
			v.bar = templ.SafeCSS(fmt.Sprintf("transform: translateX(-%s%%)", formatFloat(100-pct)))
		}
		return itemProgress(v, p).Render(ctx, out)
	})
}

func newRing(size int, pct float64) *ringView {
	if size <= 0 {
		size = DefaultProgressSize
	}
	radius := float64(size-4) / 2
	circumference := 2 * math.Pi * radius
	return &ringView{
		size:          strconv.Itoa(size),
		center:        formatFloat(float64(size) / 2),
		radius:        formatFloat(radius),
		circumference: formatFloat(circumference),
		offset:        formatFloat(circumference - pct/100*circumference),
	}
}

// ItemDeleteProps configures the remove button.
type ItemDeleteProps struct {
	Class string
	Attrs Attrs
}

// ItemDelete renders a button that removes its item's file.
func ItemDelete(p ItemDeleteProps, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		_, ic, err := useRootItem(ctx, ItemDeleteName)
		if err != nil {
			return err
		}
		return itemDelete(ic, p, group(children)).Render(ctx, out)
	})
}
