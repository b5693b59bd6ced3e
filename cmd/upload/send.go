package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fileupload/internal/provider"
	"github.com/JonMunkholm/fileupload/internal/upload"
)

var errNothingAccepted = errors.New("no files accepted")

func newSendCommand(f *flags) *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "send <file>...",
		Short: "Validate files and copy the accepted ones to the upload directory",
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
			return send(cmd, s, files, !noProgress)
		},
	}
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Do not draw a progress bar")
	return cmd
}

// send runs files through a headless widget backed by the disk provider
// and reports each file's outcome.
func send(cmd *cobra.Command, s *settings, files []*upload.File, showProgress bool) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	limiter := provider.NewLimiter(s.cfg.Upload.MaxConcurrent, s.cfg.Upload.MaxWaitTime)
	disk := provider.NewDisk(s.dir, limiter,
		provider.WithTimeout(s.cfg.Upload.Timeout),
		provider.WithLogger(s.logger),
	)

	w := upload.New(upload.Options{
		Constraints: s.constraints,
		Multiple:    true,
		OnUpload:    disk.Upload,
		Logger:      s.logger,
		OnFileReject: func(f *upload.File, msg string) {
			fmt.Fprintf(errOut, "skipped %s: %s\n", f.Name, msg)
		},
	})
	defer w.Close()

	stop := context.AfterFunc(cmd.Context(), w.Close)
	defer stop()

	finish := func() {}
	if showProgress {
		bar := progressbar.NewOptions(100,
			progressbar.OptionSetWriter(errOut),
			progressbar.OptionSetDescription("uploading"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
		unsubscribe := w.Store().Subscribe(func() {
			bar.Set(int(upload.Select(w.Store(), overallProgress)))
		})
		finish = func() {
			unsubscribe()
			bar.Finish()
		}
	}

	res := w.Accept(files)
	if len(res.Accepted) == 0 {
		finish()
		return errNothingAccepted
	}
	w.Wait()
	finish()

	if err := cmd.Context().Err(); err != nil {
		return err
	}
	return report(out, disk, upload.Select(w.Store(), (*upload.State).Files))
}

// overallProgress weights each file's progress by its size.
func overallProgress(st *upload.State) float64 {
	var total, done float64
	for _, fs := range st.Files() {
		size := float64(max(fs.File.Size, 1))
		total += size
		done += size * fs.Progress / 100
	}
	if total == 0 {
		return 0
	}
	return upload.ClampProgress(done / total * 100)
}

func report(out io.Writer, disk *provider.Disk, states []upload.FileState) error {
	rows := make([][]string, 0, len(states))
	failed := 0
	for _, fs := range states {
		detail := disk.Path(fs.File)
		if fs.Status == upload.StatusError {
			failed++
			detail = fs.Error
		}
		rows = append(rows, []string{string(fs.Status), fs.File.Name, humanize.IBytes(uint64(fs.File.Size)), detail})
	}
	if _, err := fmt.Fprintln(out, renderTable([]string{"Status", "File", "Size", "Detail"}, rows, 3)); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(states))
	}
	return nil
}
