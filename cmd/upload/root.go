package main

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fileupload/internal/config"
	"github.com/JonMunkholm/fileupload/internal/logging"
	"github.com/JonMunkholm/fileupload/internal/upload"
)

// flags shared by every subcommand. Explicit flags override the preset,
// which overrides the environment defaults.
type flags struct {
	preset      string
	presetsPath string
	dir         string
	accept      string
	maxSize     string
	maxFiles    int
	verbose     bool
}

// settings is the resolved configuration for one invocation.
type settings struct {
	cfg         *config.Config
	preset      string
	presets     config.Presets
	constraints upload.Constraints
	dir         string
	logger      *slog.Logger
}

func newRootCommand() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:           "upload",
		Short:         "Validate and store files like the upload widget does",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&f.preset, "preset", "p", config.DefaultPreset, "Widget preset supplying the constraints")
	pf.StringVar(&f.presetsPath, "presets", "", "YAML presets file (default: $PRESETS_PATH)")
	pf.StringVarP(&f.dir, "dir", "d", "", "Destination directory (default: $UPLOAD_DIR)")
	pf.StringVar(&f.accept, "accept", "", `Accepted types, e.g. "image/*,.pdf"`)
	pf.StringVar(&f.maxSize, "max-size", "", `Per-file size limit, e.g. "5MB"`)
	pf.IntVar(&f.maxFiles, "max-files", 0, "Maximum number of files")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Log every file event")

	rootCmd.AddCommand(newSendCommand(f))
	rootCmd.AddCommand(newCheckCommand(f))
	rootCmd.AddCommand(newPresetsCommand(f))

	return rootCmd
}

func (f *flags) resolve(cmd *cobra.Command) (*settings, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	path := f.presetsPath
	if path == "" {
		path = cfg.Presets.Path
	}
	presets, err := config.LoadPresets(path)
	if err != nil {
		return nil, err
	}
	p, ok := presets.Lookup(f.preset)
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (have %v)", f.preset, presets.Names())
	}

	c := upload.Constraints{
		Accept:   p.Accept,
		MaxSize:  int64(p.MaxSize),
		MaxFiles: p.MaxFiles,
	}
	if c.Accept == "" {
		c.Accept = cfg.Upload.Accept
	}
	if c.MaxSize == 0 {
		c.MaxSize = cfg.Upload.MaxFileSize
	}
	if c.MaxFiles == 0 {
		c.MaxFiles = cfg.Upload.MaxFiles
	}

	flagSet := cmd.Flags()
	if flagSet.Changed("accept") {
		c.Accept = f.accept
	}
	if flagSet.Changed("max-size") {
		n, err := humanize.ParseBytes(f.maxSize)
		if err != nil {
			return nil, fmt.Errorf("--max-size: %w", err)
		}
		c.MaxSize = int64(n)
	}
	if flagSet.Changed("max-files") {
		if f.maxFiles < 0 {
			return nil, fmt.Errorf("--max-files must be non-negative")
		}
		c.MaxFiles = f.maxFiles
	}

	dir := f.dir
	if dir == "" {
		dir = cfg.Upload.Dir
	}

	level := "warn"
	if f.verbose {
		level = "debug"
	}

	return &settings{
		cfg:         cfg,
		preset:      f.preset,
		presets:     presets,
		constraints: c,
		dir:         dir,
		logger:      logging.New(cmd.ErrOrStderr(), level, cfg.Logging.Format),
	}, nil
}
