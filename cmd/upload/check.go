package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCheckCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Report which files the widget would accept, without storing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			files, err := openFiles(args)
			if err != nil {
				return err
			}

			accepted, rejected := s.constraints.Partition(files, 0)

			rows := make([][]string, 0, len(files))
			for _, file := range accepted {
				rows = append(rows, []string{"ok", file.Name, humanize.IBytes(uint64(file.Size)), file.Type})
			}
			for _, r := range rejected {
				rows = append(rows, []string{"rejected", r.File.Name, humanize.IBytes(uint64(r.File.Size)), r.Message})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Result", "File", "Size", "Detail"}, rows, 3))

			if len(rejected) > 0 {
				return fmt.Errorf("%d of %d files rejected", len(rejected), len(files))
			}
			return nil
		},
	}
}

func newPresetsCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.resolve(cmd)
			if err != nil {
				return err
			}

			var rows [][]string
			for _, name := range s.presets.Names() {
				p := s.presets[name]
				accept, size, count := p.Accept, "-", "-"
				if accept == "" {
					accept = "*"
				}
				if p.MaxSize > 0 {
					size = humanize.IBytes(uint64(p.MaxSize))
				}
				if p.MaxFiles > 0 {
					count = fmt.Sprint(p.MaxFiles)
				}
				rows = append(rows, []string{name, accept, size, count})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Accept", "Max size", "Max files"}, rows, 3, 4))
			return nil
		},
	}
}
