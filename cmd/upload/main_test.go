package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fileupload/internal/upload"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("UPLOAD_DIR", filepath.Join(t.TempDir(), "uploads"))
	t.Setenv("PRESETS_PATH", "")

	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	png := writeFile(t, dir, "pixel.png", pngHeader)
	txt := writeFile(t, dir, "notes.txt", []byte("hello"))

	out, _, err := run(t, "check", "--preset", "images", png, txt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files rejected")
	assert.Regexp(t, `ok\s*│\s*pixel\.png\s*│\s*\d+ B\s*│\s*image/png`, out)
	assert.Regexp(t, `rejected\s*│\s*notes\.txt\s*│\s*5 B\s*│\s*`+upload.MsgTypeNotAccepted, out)

	out, _, err = run(t, "check", "--preset", "images", png)
	require.NoError(t, err)
	assert.Contains(t, out, "pixel.png")
}

func TestCheckFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	big := writeFile(t, dir, "big.txt", bytes.Repeat([]byte("x"), 2048))

	out, _, err := run(t, "check", "--max-size", "1KiB", big)
	require.Error(t, err)
	assert.Contains(t, out, upload.MsgTooLarge)

	_, _, err = run(t, "check", "--max-size", "lots", big)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--max-size")

	a := writeFile(t, dir, "a.txt", []byte("a"))
	b := writeFile(t, dir, "b.txt", []byte("b"))
	out, _, err = run(t, "check", "--max-files", "1", a, b)
	require.Error(t, err)
	assert.Contains(t, out, upload.MaxFilesMessage(1))
}

func TestSend(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	a := writeFile(t, src, "a.txt", []byte("alpha"))
	b := writeFile(t, src, "b.txt", []byte("bravo"))

	out, _, err := run(t, "send", "--no-progress", "--dir", dest, a, b)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, string(upload.StatusSuccess)), out)
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "b.txt")
	assert.Contains(t, out, dest)

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, ".txt", filepath.Ext(e.Name()))
	}
}

func TestSendSkipsRejected(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	txt := writeFile(t, src, "notes.txt", []byte("hello"))

	_, errOut, err := run(t, "send", "--no-progress", "--preset", "images", "--dir", dest, txt)
	require.ErrorIs(t, err, errNothingAccepted)
	assert.Contains(t, errOut, "skipped notes.txt: "+upload.MsgTypeNotAccepted)

	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err))
}

func TestPresets(t *testing.T) {
	out, _, err := run(t, "presets")
	require.NoError(t, err)
	assert.Regexp(t, `basic\s*│\s*\*\s*│\s*4\.8 MiB\s*│\s*2`, out)
	assert.Regexp(t, `images\s*│\s*image/\*\s*│\s*5\.0 MiB\s*│\s*8`, out)

	_, _, err = run(t, "presets", "--preset", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown preset "nope"`)
}

func TestMissingFile(t *testing.T) {
	_, _, err := run(t, "check", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open ")
}

func TestOverallProgress(t *testing.T) {
	store := upload.NewStore(nil, false)
	small := upload.NewBytesFile("s", "", make([]byte, 100))
	large := upload.NewBytesFile("l", "", make([]byte, 300))
	store.Dispatch(upload.AddFiles(small, large))
	store.Dispatch(upload.SetProgress(small.ID, 100))
	store.Dispatch(upload.SetProgress(large.ID, 50))

	assert.InDelta(t, 62.5, upload.Select(store, overallProgress), 0.001)
}
