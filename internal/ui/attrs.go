package ui

import (
	"bytes"
	"context"
	"maps"
	"slices"
	"strconv"

	"github.com/a-h/templ"
)

// Attrs are extra HTML attributes passed through to a primitive's element.
// They are written after the primitive's own attributes.
type Attrs map[string]string

// extra spreads a caller's class and attributes onto an element, class
// first and the rest sorted by name.
func extra(class string, attrs Attrs) templ.OrderedAttributes {
	out := make(templ.OrderedAttributes, 0, len(attrs)+1)
	if class != "" {
		out = append(out, templ.KV[string, any]("class", class))
	}
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		out = append(out, templ.KV[string, any](k, attrs[k]))
	}
	return out
}

func present(children []templ.Component) []templ.Component {
	out := make([]templ.Component, 0, len(children))
	for _, c := range children {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// group renders explicit children in order, skipping nil entries.
func group(children []templ.Component) templ.Component {
	return templ.Join(present(children)...)
}

// replacement returns the content that replaces a primitive's defaults, or
// nil when the caller supplied none. templ hands a no-op component to
// templates called without a block, so the block is rendered to tell.
func replacement(ctx context.Context, children []templ.Component) (templ.Component, error) {
	block := templ.GetChildren(ctx)
	ctx = templ.ClearChildren(ctx)

	var buf bytes.Buffer
	if err := block.Render(ctx, &buf); err != nil {
		return nil, err
	}
	explicit := present(children)
	if len(explicit) == 0 && buf.Len() == 0 {
		return nil, nil
	}
	return templ.Join(append(explicit, templ.Raw(buf.String()))...), nil
}

// skip renders nothing. It drops any block children meant for the skipped
// element so the next sibling does not inherit them.
func skip(ctx context.Context) error {
	templ.ClearChildren(ctx)
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
