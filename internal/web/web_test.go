package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fileupload/internal/config"
	"github.com/JonMunkholm/fileupload/internal/provider"
	"github.com/JonMunkholm/fileupload/internal/upload"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Upload:  config.UploadConfig{MaxFileSize: 1 << 20, InvalidResetDelay: time.Hour},
		Session: config.SessionConfig{TTL: time.Minute},
	}
}

// recorder is an upload routine that succeeds every file and remembers
// which client each batch was uploaded for.
type recorder struct {
	mu      sync.Mutex
	names   []string
	clients []string
}

func (rec *recorder) upload(ctx context.Context, files []*upload.File, cb upload.Callbacks) error {
	ip, _ := provider.ClientFromContext(ctx)
	for _, f := range files {
		cb.OnProgress(f, 50)
		rc, err := f.Open()
		if err != nil {
			cb.OnError(f, err)
			continue
		}
		io.Copy(io.Discard, rc)
		rc.Close()
		cb.OnSuccess(f)

		rec.mu.Lock()
		rec.names = append(rec.names, f.Name)
		rec.clients = append(rec.clients, ip)
		rec.mu.Unlock()
	}
	return nil
}

func newTestServer(t *testing.T, cfg *config.Config, deps Deps) *Server {
	t.Helper()
	if deps.SpoolDir == "" {
		deps.SpoolDir = t.TempDir()
	}
	s := NewServer(cfg, deps)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s
}

func do(t *testing.T, h http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, s *Server, preset string) sessionResponse {
	t.Helper()
	body := strings.NewReader(`{"preset":"` + preset + `"}`)
	rec := do(t, s.Router(), http.MethodPost, "/api/sessions", body, "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp sessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

type part struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+p.name+`"`)
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		w.Write(p.data)
	}
	require.NoError(t, mw.WriteField("note", "ignored"))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postFiles(t *testing.T, s *Server, endpoint, query string, parts ...part) (*httptest.ResponseRecorder, addFilesResponse) {
	t.Helper()
	body, ct := multipartBody(t, parts...)
	rec := do(t, s.Router(), http.MethodPost, endpoint+"/files"+query, body, ct)

	var resp addFilesResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func snapshot(t *testing.T, s *Server, endpoint string) upload.Snapshot {
	t.Helper()
	rec := do(t, s.Router(), http.MethodGet, endpoint, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap upload.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func waitUploads(t *testing.T, s *Server, id string) {
	t.Helper()
	sess, ok := s.sessions.get(id)
	require.True(t, ok)
	sess.widget.Wait()
}

func TestCreateSession(t *testing.T) {
	s := newTestServer(t, testConfig(), Deps{})

	resp := createSession(t, s, "images")
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "images", resp.Preset)
	assert.Equal(t, "/api/sessions/"+resp.ID, resp.Endpoint)
	assert.Equal(t, "image/*", resp.Accept)
	assert.Equal(t, int64(5*1024*1024), resp.MaxSize)
	assert.Equal(t, 8, resp.MaxFiles)
	assert.True(t, strings.HasPrefix(resp.IDs.Input, resp.IDs.Root))

	t.Run("default preset", func(t *testing.T) {
		rec := do(t, s.Router(), http.MethodPost, "/api/sessions", nil, "")
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"preset":"basic"`)
	})

	t.Run("unknown preset", func(t *testing.T) {
		rec := do(t, s.Router(), http.MethodPost, "/api/sessions?preset=nope", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "WGT002")
	})

	t.Run("unknown session", func(t *testing.T) {
		rec := do(t, s.Router(), http.MethodGet, "/api/sessions/missing", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "UPL002")
	})
}

func TestWidgetOptionsFallBackToUploadDefaults(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.Accept = ".csv"
	cfg.Upload.MaxFiles = 3
	s := newTestServer(t, cfg, Deps{Presets: config.Presets{"bare": {Label: "Bare"}}})

	opts := s.widgetOptions(s.deps.Presets["bare"])
	assert.Equal(t, ".csv", opts.Accept)
	assert.Equal(t, int64(1<<20), opts.MaxSize)
	assert.Equal(t, 3, opts.MaxFiles)
	assert.Equal(t, "Bare", opts.Label)
	assert.Equal(t, time.Hour, opts.InvalidResetDelay)
}

func TestAddFilesUploadsAccepted(t *testing.T) {
	rec := &recorder{}
	s := newTestServer(t, testConfig(), Deps{Uploader: rec.upload})
	sess := createSession(t, s, "basic")

	res, resp := postFiles(t, s, sess.Endpoint, "",
		part{name: "a.txt", contentType: "text/plain", data: []byte("alpha")},
		part{name: "b.txt", data: []byte("bravo")},
	)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.Len(t, resp.Accepted, 2)
	assert.Empty(t, resp.Rejected)
	assert.Equal(t, "text/plain", resp.Accepted[1].Type, "type is sniffed when the client sends none")

	waitUploads(t, s, sess.ID)

	snap := snapshot(t, s, sess.Endpoint)
	require.Len(t, snap.Files, 2)
	for _, f := range snap.Files {
		assert.Equal(t, upload.StatusSuccess, f.Status)
		assert.Equal(t, float64(100), f.Progress)
	}
	assert.Equal(t, []string{"a.txt", "b.txt"}, rec.names)
	assert.Equal(t, []string{"192.0.2.1", "192.0.2.1"}, rec.clients, "client captured at session creation")
}

func TestAddFilesRejections(t *testing.T) {
	s := newTestServer(t, testConfig(), Deps{})
	sess := createSession(t, s, "images")

	res, resp := postFiles(t, s, sess.Endpoint, "?source=drop",
		part{name: "notes.txt", contentType: "text/plain", data: []byte("text")},
		part{name: "pic.png", contentType: "image/png", data: []byte("png")},
	)
	require.Equal(t, http.StatusOK, res.Code)
	require.Len(t, resp.Accepted, 1)
	assert.Equal(t, "pic.png", resp.Accepted[0].Name)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, "notes.txt", resp.Rejected[0].Name)
	assert.Equal(t, upload.MsgTypeNotAccepted, resp.Rejected[0].Message)

	snap := snapshot(t, s, sess.Endpoint)
	assert.True(t, snap.Invalid)
	assert.False(t, snap.DragOver)

	// Only the accepted file stays spooled.
	entries, err := os.ReadDir(filepath.Join(s.deps.SpoolDir, sess.ID))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAddFilesTooLarge(t *testing.T) {
	s := newTestServer(t, testConfig(), Deps{})
	sess := createSession(t, s, "dialog")

	big := bytes.Repeat([]byte("x"), 10*1024*1024+10)
	res, resp := postFiles(t, s, sess.Endpoint, "", part{name: "big.pdf", contentType: "application/pdf", data: big})
	require.Equal(t, http.StatusOK, res.Code)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, upload.MsgTooLarge, resp.Rejected[0].Message)
}

func TestAddFilesErrors(t *testing.T) {
	s := newTestServer(t, testConfig(), Deps{})
	sess := createSession(t, s, "basic")

	t.Run("not multipart", func(t *testing.T) {
		rec := do(t, s.Router(), http.MethodPost, sess.Endpoint+"/files", strings.NewReader("x"), "text/plain")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "FILE003")
	})

	t.Run("no files", func(t *testing.T) {
		rec, _ := postFiles(t, s, sess.Endpoint, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "FILE002")
	})

	t.Run("disabled widget", func(t *testing.T) {
		live, ok := s.sessions.get(sess.ID)
		require.True(t, ok)
		live.widget.SetDisabled(true)
		defer live.widget.SetDisabled(false)

		rec, _ := postFiles(t, s, sess.Endpoint, "", part{name: "a.txt", data: []byte("a")})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "WGT003")
	})
}

func TestDeleteAndContent(t *testing.T) {
	s := newTestServer(t, testConfig(), Deps{})
	sess := createSession(t, s, "basic")

	_, resp := postFiles(t, s, sess.Endpoint, "", part{name: "photo.png", contentType: "image/png", data: []byte("pixels")})
	require.Len(t, resp.Accepted, 1)
	fileURL := sess.Endpoint + "/files/" + string(resp.Accepted[0].ID)

	rec := do(t, s.Router(), http.MethodGet, fileURL+"/content", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pixels", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "inline")

	rec = do(t, s.Router(), http.MethodDelete, fileURL, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s.Router(), http.MethodDelete, fileURL, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "UPL003")

	rec = do(t, s.Router(), http.MethodGet, fileURL+"/content", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDragAndClear(t *testing.T) {
	s := newTestServer(t, testConfig(), Deps{})
	sess := createSession(t, s, "basic")

	rec := do(t, s.Router(), http.MethodPost, sess.Endpoint+"/drag/enter", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, snapshot(t, s, sess.Endpoint).DragOver)

	rec = do(t, s.Router(), http.MethodPost, sess.Endpoint+"/drag/leave", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, snapshot(t, s, sess.Endpoint).DragOver)

	rec = do(t, s.Router(), http.MethodPost, sess.Endpoint+"/drag/sideways", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	postFiles(t, s, sess.Endpoint, "", part{name: "a.txt", data: []byte("a")})
	require.Len(t, snapshot(t, s, sess.Endpoint).Files, 1)

	rec = do(t, s.Router(), http.MethodPost, sess.Endpoint+"/clear", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, snapshot(t, s, sess.Endpoint).Files)
}

func TestCloseSession(t *testing.T) {
	s := newTestServer(t, testConfig(), Deps{})
	sess := createSession(t, s, "basic")
	postFiles(t, s, sess.Endpoint, "", part{name: "a.txt", data: []byte("a")})

	rec := do(t, s.Router(), http.MethodDelete, sess.Endpoint, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s.Router(), http.MethodGet, sess.Endpoint, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err := os.Stat(filepath.Join(s.deps.SpoolDir, sess.ID))
	assert.True(t, os.IsNotExist(err), "spool removed on close")
}

func spoolCount(t *testing.T, s *Server, id string) int {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(s.deps.SpoolDir, id))
	require.NoError(t, err)
	return len(entries)
}

func TestDeleteAndClearRemoveSpooledFiles(t *testing.T) {
	rec := &recorder{}
	s := newTestServer(t, testConfig(), Deps{Uploader: rec.upload})
	sess := createSession(t, s, "basic")

	_, resp := postFiles(t, s, sess.Endpoint, "",
		part{name: "a.txt", data: []byte("a")},
		part{name: "b.txt", data: []byte("b")},
		part{name: "c.txt", data: []byte("c")},
	)
	require.Len(t, resp.Accepted, 3)
	waitUploads(t, s, sess.ID)
	require.Equal(t, 3, spoolCount(t, s, sess.ID))

	res := do(t, s.Router(), http.MethodDelete, sess.Endpoint+"/files/"+string(resp.Accepted[0].ID), nil, "")
	require.Equal(t, http.StatusNoContent, res.Code)
	assert.Equal(t, 2, spoolCount(t, s, sess.ID))

	res = do(t, s.Router(), http.MethodPost, sess.Endpoint+"/clear", nil, "")
	require.Equal(t, http.StatusNoContent, res.Code)
	assert.Equal(t, 0, spoolCount(t, s, sess.ID))
}

func TestDeleteDuringUploadKeepsSpoolUntilBatchReturns(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	uploader := func(ctx context.Context, files []*upload.File, cb upload.Callbacks) error {
		close(started)
		<-release
		for _, f := range files {
			cb.OnSuccess(f)
		}
		return nil
	}
	s := newTestServer(t, testConfig(), Deps{Uploader: uploader})
	sess := createSession(t, s, "basic")

	_, resp := postFiles(t, s, sess.Endpoint, "", part{name: "a.txt", data: []byte("a")})
	require.Len(t, resp.Accepted, 1)
	<-started

	res := do(t, s.Router(), http.MethodDelete, sess.Endpoint+"/files/"+string(resp.Accepted[0].ID), nil, "")
	require.Equal(t, http.StatusNoContent, res.Code)
	assert.Equal(t, 1, spoolCount(t, s, sess.ID), "still read by the running batch")

	close(release)
	waitUploads(t, s, sess.ID)
	assert.Equal(t, 0, spoolCount(t, s, sess.ID))
}

func TestRenderViewShowsFileDetailsAndErrors(t *testing.T) {
	failing := func(ctx context.Context, files []*upload.File, cb upload.Callbacks) error {
		for _, f := range files {
			cb.OnError(f, errors.New("disk <full>"))
		}
		return nil
	}
	s := newTestServer(t, testConfig(), Deps{Uploader: failing})
	sess := createSession(t, s, "basic")

	postFiles(t, s, sess.Endpoint, "", part{name: "report.txt", data: []byte("hello")})
	waitUploads(t, s, sess.ID)

	rec := do(t, s.Router(), http.MethodGet, sess.Endpoint+"/view", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-slot="file-upload-name">report.txt</span>`)
	assert.Contains(t, body, `data-slot="file-upload-size">5 B</span>`)
	assert.Contains(t, body, `role="alert" data-slot="file-upload-message">disk &lt;full&gt;</span>`)
	assert.Contains(t, body, `data-status="error"`)
}

func TestRenderViewAndPage(t *testing.T) {
	s := newTestServer(t, testConfig(), Deps{})
	sess := createSession(t, s, "basic")
	postFiles(t, s, sess.Endpoint, "", part{name: "<b>.txt", data: []byte("a")})

	rec := do(t, s.Router(), http.MethodGet, sess.Endpoint+"/view", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-slot="file-upload"`)
	assert.Contains(t, body, `data-endpoint="`+sess.Endpoint+`"`)
	assert.Contains(t, body, "&lt;b&gt;.txt")
	assert.NotContains(t, body, "<b>.txt")

	rec = do(t, s.Router(), http.MethodGet, "/?preset=images", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "<!doctype html>")
	assert.Contains(t, page, "Upload images")
	assert.Contains(t, page, `accept="image/*"`)
	assert.Contains(t, page, `/static/fileupload.js`)
	assert.Contains(t, page, `<a href="/?preset=images" aria-current="page">images</a>`)
	assert.Contains(t, page, `<a href="/?preset=basic">basic</a>`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = do(t, s.Router(), http.MethodGet, "/static/fileupload.js", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEventsStream(t *testing.T) {
	s := newTestServer(t, testConfig(), Deps{})
	sess := createSession(t, s, "basic")

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+sess.Endpoint+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := bufio.NewReader(resp.Body)
	next := func() (string, string) {
		var event, data string
		for {
			line, err := events.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case line == "" && event != "":
				return event, data
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			}
		}
	}

	event, data := next()
	assert.Equal(t, "state", event)
	assert.JSONEq(t, `{"files":[],"drag_over":false,"invalid":false}`, data)

	rec := do(t, s.Router(), http.MethodPost, sess.Endpoint+"/drag/enter", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	event, data = next()
	assert.Equal(t, "state", event)
	assert.Contains(t, data, `"drag_over":true`)

	s.sessions.remove(sess.ID)
	event, _ = next()
	assert.Equal(t, "closed", event)
}

func TestHealthAndPresets(t *testing.T) {
	limiter := provider.NewLimiter(3, time.Second)
	s := newTestServer(t, testConfig(), Deps{Limiter: limiter})
	createSession(t, s, "basic")

	rec := do(t, s.Router(), http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sessions":1`)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = do(t, s.Router(), http.MethodGet, "/api/presets", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var presets []presetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &presets))
	require.Len(t, presets, 3)
	assert.Equal(t, "basic", presets[0].Name)
	assert.Equal(t, "4.8 MiB", presets[0].MaxSizeText)
	assert.Equal(t, "images", presets[2].Name)
	assert.Equal(t, "image/*", presets[2].Accept)
}

func TestRecentUploadsWithoutCatalog(t *testing.T) {
	s := newTestServer(t, testConfig(), Deps{})

	rec := do(t, s.Router(), http.MethodGet, "/api/uploads/recent", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "DB001")
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	s := newTestServer(t, cfg, Deps{})

	rec := do(t, s.Router(), http.MethodPost, "/api/sessions", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	req.Header.Set("X-API-Key", "secret")
	ok := httptest.NewRecorder()
	s.Router().ServeHTTP(ok, req)
	assert.Equal(t, http.StatusCreated, ok.Code)

	rec = do(t, s.Router(), http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code, "health is outside the API")
}

func TestSessionSweep(t *testing.T) {
	st := newSessionStore(time.Minute, slog.Default())
	defer st.shutdown(context.Background())

	w := upload.New(upload.Options{})
	sess := newSession("s1", "basic", "", w)
	st.add(sess)
	require.Equal(t, 1, st.count())

	st.sweep(time.Now())
	assert.Equal(t, 1, st.count())

	st.sweep(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, st.count())
	_, ok := st.get("s1")
	assert.False(t, ok)

	select {
	case <-sess.done:
	default:
		t.Fatal("expired session not closed")
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{errSessionNotFound, "UPL002"},
		{errNoFiles, "FILE002"},
		{errors.New("multipart: NextPart: EOF"), "FILE003"},
		{provider.ErrTooManyUploads, "UPL001"},
		{context.DeadlineExceeded, "UPL005"},
		{errors.New("dial tcp: connection refused"), "DB002"},
		{errors.New("something odd"), "ERR000"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, MapError(tt.err).Code)
		})
	}
	assert.Equal(t, UserMessage{}, MapError(nil))
}

func TestDetectType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.Equal(t, "image/png", detectType("", png))
	assert.Equal(t, "image/png", detectType("application/octet-stream", png))
	assert.Equal(t, "application/pdf", detectType("application/pdf; charset=binary", png))
	assert.Equal(t, "", detectType("", nil))
}
