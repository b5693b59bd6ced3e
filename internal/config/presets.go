package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// DefaultPreset is used when a session is created without naming one.
const DefaultPreset = "basic"

// ByteSize is a size in bytes that reads from YAML as either an integer or
// a human string such as "5 MB" or "4MiB".
type ByteSize int64

func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	var n int64
	if err := node.Decode(&n); err == nil {
		*b = ByteSize(n)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("line %d: size must be a number or string", node.Line)
	}
	parsed, err := humanize.ParseBytes(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*b = ByteSize(parsed)
	return nil
}

// Preset is a named set of widget constraints and options.
type Preset struct {
	Label    string   `yaml:"label" json:"label,omitempty"`
	Accept   string   `yaml:"accept" json:"accept,omitempty"`
	MaxSize  ByteSize `yaml:"max_size" json:"max_size,omitempty"`
	MaxFiles int      `yaml:"max_files" json:"max_files,omitempty"`
	Multiple bool     `yaml:"multiple" json:"multiple,omitempty"`
	Required bool     `yaml:"required" json:"required,omitempty"`
	Dir      string   `yaml:"dir" json:"dir,omitempty"`
}

// Presets maps preset names to presets.
type Presets map[string]Preset

// Names returns the preset names in sorted order.
func (p Presets) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a preset; an empty name selects DefaultPreset.
func (p Presets) Lookup(name string) (Preset, bool) {
	if name == "" {
		name = DefaultPreset
	}
	preset, ok := p[name]
	return preset, ok
}

// BuiltinPresets mirror the stock widget demos.
func BuiltinPresets() Presets {
	return Presets{
		"basic": {
			Label:    "Upload files",
			MaxSize:  5 * 1000 * 1000,
			MaxFiles: 2,
			Multiple: true,
		},
		"images": {
			Label:    "Upload images",
			Accept:   "image/*",
			MaxSize:  5 * 1024 * 1024,
			MaxFiles: 8,
			Multiple: true,
		},
		"dialog": {
			Label:    "Attach a document",
			Accept:   ".pdf,.doc,.docx,text/plain",
			MaxSize:  10 * 1024 * 1024,
			MaxFiles: 1,
		},
	}
}

type presetsFile struct {
	Presets map[string]Preset `yaml:"presets"`
}

// LoadPresets reads presets from a YAML file and layers them over the
// built-ins. An empty path returns the built-ins.
//
//	presets:
//	  avatars:
//	    accept: "image/png,image/jpeg"
//	    max_size: 2 MiB
//	    max_files: 1
func LoadPresets(path string) (Presets, error) {
	presets := BuiltinPresets()
	if path == "" {
		return presets, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open presets: %w", err)
	}
	defer f.Close()

	if err := decodePresets(f, presets); err != nil {
		return nil, fmt.Errorf("presets %s: %w", path, err)
	}
	return presets, nil
}

func decodePresets(r io.Reader, into Presets) error {
	var file presetsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	for name, p := range file.Presets {
		if p.MaxSize < 0 || p.MaxFiles < 0 {
			return fmt.Errorf("preset %q: limits must be non-negative", name)
		}
		if p.Dir != "" && p.Dir != "ltr" && p.Dir != "rtl" {
			return fmt.Errorf("preset %q: dir must be ltr or rtl", name)
		}
		into[name] = p
	}
	return nil
}
