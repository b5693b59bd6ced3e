package provider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fileupload/internal/upload"
)

func TestLimiter_AcquireRelease(t *testing.T) {
	l := NewLimiter(2, time.Second)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))
	assert.Equal(t, LimiterStatus{Active: 2, Available: 0, MaxConcurrent: 2}, l.Status())

	l.Release()
	assert.Equal(t, 1, l.Status().Active)
	l.Release()
	assert.Equal(t, LimiterStatus{Active: 0, Available: 2, MaxConcurrent: 2}, l.Status())
}

func TestLimiter_TimesOutWhenFull(t *testing.T) {
	l := NewLimiter(1, 50*time.Millisecond)
	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	start := time.Now()
	err := l.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrTooManyUploads)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestLimiter_RespectsCancellation(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Acquire(ctx), context.Canceled)
}

func TestLimiter_Defaults(t *testing.T) {
	l := NewLimiter(0, 0)
	assert.Equal(t, DefaultMaxConcurrent, l.Status().MaxConcurrent)
	assert.Equal(t, DefaultMaxWait, l.maxWait)
}

func TestLimiter_WaitForDrain(t *testing.T) {
	l := NewLimiter(2, time.Second)
	require.NoError(t, l.WaitForDrain(context.Background()))

	require.NoError(t, l.Acquire(context.Background()))
	done := make(chan error, 1)
	go func() { done <- l.WaitForDrain(context.Background()) }()

	select {
	case <-done:
		t.Fatal("drained while a slot was held")
	case <-time.After(20 * time.Millisecond):
	}

	l.Release()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitForDrain did not return after release")
	}
}

type outcomes struct {
	mu       sync.Mutex
	progress map[upload.FileID][]float64
	success  []upload.FileID
	failed   map[upload.FileID]error
}

func newOutcomes() *outcomes {
	return &outcomes{
		progress: make(map[upload.FileID][]float64),
		failed:   make(map[upload.FileID]error),
	}
}

func (o *outcomes) callbacks() upload.Callbacks {
	return upload.Callbacks{
		OnProgress: func(f *upload.File, p float64) {
			o.mu.Lock()
			o.progress[f.ID] = append(o.progress[f.ID], p)
			o.mu.Unlock()
		},
		OnSuccess: func(f *upload.File) {
			o.mu.Lock()
			o.success = append(o.success, f.ID)
			o.mu.Unlock()
		},
		OnError: func(f *upload.File, err error) {
			o.mu.Lock()
			o.failed[f.ID] = err
			o.mu.Unlock()
		},
	}
}

func TestDisk_WritesFilesAndReportsProgress(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	d := NewDisk(dir, NewLimiter(1, time.Second))

	a := upload.NewBytesFile("a.txt", "text/plain", make([]byte, 64<<10))
	b := upload.NewBytesFile("b.bin", "", []byte("hello"))
	o := newOutcomes()

	require.NoError(t, d.Upload(context.Background(), []*upload.File{a, b}, o.callbacks()))

	assert.ElementsMatch(t, []upload.FileID{a.ID, b.ID}, o.success)
	assert.Empty(t, o.failed)

	got, err := os.ReadFile(d.Path(b))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
	assert.Equal(t, ".txt", filepath.Ext(d.Path(a)))

	pa := o.progress[a.ID]
	require.NotEmpty(t, pa)
	assert.Equal(t, 100.0, pa[len(pa)-1])
	assert.IsIncreasing(t, pa)
}

func TestDisk_PerFileFailure(t *testing.T) {
	d := NewDisk(t.TempDir(), nil)
	good := upload.NewBytesFile("good", "", []byte("x"))
	broken := upload.NewFile("broken", 10, "", nil)
	o := newOutcomes()

	require.NoError(t, d.Upload(context.Background(), []*upload.File{good, broken}, o.callbacks()))

	assert.Equal(t, []upload.FileID{good.ID}, o.success)
	require.Contains(t, o.failed, broken.ID)
	assert.ErrorIs(t, o.failed[broken.ID], upload.ErrNoContent)
}

func TestDisk_UnusableDirFailsBatch(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	d := NewDisk(filepath.Join(blocker, "sub"), nil)
	err := d.Upload(context.Background(), []*upload.File{upload.NewBytesFile("a", "", nil)}, newOutcomes().callbacks())
	assert.ErrorContains(t, err, "prepare upload dir")
}

func TestDisk_CancelledContext(t *testing.T) {
	d := NewDisk(t.TempDir(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := upload.NewBytesFile("a", "", []byte("data"))
	o := newOutcomes()
	err := d.Upload(ctx, []*upload.File{f}, o.callbacks())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, o.success)
	_, statErr := os.Stat(d.Path(f))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDisk_DrivesWidget(t *testing.T) {
	d := NewDisk(t.TempDir(), NewLimiter(2, time.Second))
	w := upload.New(upload.Options{OnUpload: d.Upload})
	defer w.Close()

	files := []*upload.File{
		upload.NewBytesFile("1", "", []byte("one")),
		upload.NewBytesFile("2", "", []byte("two")),
		upload.NewBytesFile("3", "", []byte("three")),
	}
	w.Accept(files)
	w.Wait()

	for _, fs := range w.Store().Snapshot().Files {
		assert.Equal(t, upload.StatusSuccess, fs.Status, fs.File.Name)
	}
}

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	mu    sync.Mutex
	calls []execCall
	err   error
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.calls = append(db.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), db.err
}

func (db *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func TestCatalog_RecordsSuccessWithClient(t *testing.T) {
	db := &fakeDB{}
	c := NewCatalog(db, func(f *upload.File) string { return "/data/" + f.Name }, nil)

	f := upload.NewBytesFile("report.pdf", "application/pdf", []byte("pdf"))
	o := newOutcomes()
	routine := c.Wrap(func(_ context.Context, files []*upload.File, cb upload.Callbacks) error {
		cb.OnProgress(files[0], 50)
		cb.OnSuccess(files[0])
		return nil
	})

	ctx := ContextWithClient(context.Background(), "10.0.0.7", "curl/8")
	require.NoError(t, routine(ctx, []*upload.File{f}, o.callbacks()))

	require.Len(t, db.calls, 1)
	assert.Equal(t, []any{string(f.ID), "report.pdf", int64(3), "application/pdf", "/data/report.pdf", "10.0.0.7", "curl/8"}, db.calls[0].args)
	assert.Equal(t, []upload.FileID{f.ID}, o.success)
	assert.Equal(t, []float64{50}, o.progress[f.ID])
}

func TestCatalog_RecordFailureFailsFile(t *testing.T) {
	db := &fakeDB{err: errors.New("connection refused")}
	c := NewCatalog(db, func(*upload.File) string { return "" }, nil)

	f := upload.NewBytesFile("a", "", nil)
	o := newOutcomes()
	routine := c.Wrap(func(_ context.Context, files []*upload.File, cb upload.Callbacks) error {
		cb.OnSuccess(files[0])
		return nil
	})

	require.NoError(t, routine(context.Background(), []*upload.File{f}, o.callbacks()))
	assert.Empty(t, o.success)
	assert.ErrorContains(t, o.failed[f.ID], "connection refused")
}

func TestCatalog_EnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, NewCatalog(db, nil, nil).EnsureSchema(context.Background()))
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, "CREATE TABLE IF NOT EXISTS uploaded_files")
}

func TestClientFromContext_Empty(t *testing.T) {
	ip, ua := ClientFromContext(context.Background())
	assert.Empty(t, ip)
	assert.Empty(t, ua)
}
