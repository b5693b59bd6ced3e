package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/fileupload/internal/config"
	"github.com/JonMunkholm/fileupload/internal/logging"
	"github.com/JonMunkholm/fileupload/internal/ui"
	"github.com/JonMunkholm/fileupload/internal/upload"
)

type sessionKey struct{}

// maxRequestFiles bounds the body of one multipart request in multiples of
// the per-file size limit.
const maxRequestFiles = 16

const defaultRecentLimit = 50

// withSession resolves {sessionID} and stores the session in the context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.get(chi.URLParam(r, "sessionID"))
		if !ok {
			respondError(w, r, errSessionNotFound, http.StatusNotFound)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *session {
	sess, _ := r.Context().Value(sessionKey{}).(*session)
	return sess
}

// widgetOptions builds widget options from a preset, falling back to the
// configured upload defaults for limits the preset leaves unset.
func (s *Server) widgetOptions(p config.Preset) upload.Options {
	c := upload.Constraints{
		Accept:   p.Accept,
		MaxSize:  int64(p.MaxSize),
		MaxFiles: p.MaxFiles,
	}
	if c.Accept == "" {
		c.Accept = s.cfg.Upload.Accept
	}
	if c.MaxSize == 0 {
		c.MaxSize = s.cfg.Upload.MaxFileSize
	}
	if c.MaxFiles == 0 {
		c.MaxFiles = s.cfg.Upload.MaxFiles
	}

	return upload.Options{
		Constraints:       c,
		Label:             p.Label,
		Dir:               upload.Direction(p.Dir),
		Multiple:          p.Multiple,
		Required:          p.Required,
		Name:              "files",
		InvalidResetDelay: s.cfg.Upload.InvalidResetDelay,
	}
}

// createSession starts a widget for preset on behalf of the caller.
func (s *Server) createSession(r *http.Request, preset string) (*session, error) {
	if preset == "" {
		preset = config.DefaultPreset
	}
	p, ok := s.deps.Presets.Lookup(preset)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownPreset, preset)
	}

	id := uuid.New().String()
	logger := s.logger.With("session", id)
	caller := clientFrom(r)

	opts := s.widgetOptions(p)
	opts.Logger = logger
	opts.OnFileReject = func(f *upload.File, msg string) {
		logger.Info("file rejected", "file", f.Name, "size", f.Size, "reason", msg)
	}
	var sess *session
	if s.deps.Uploader != nil {
		uploader := s.deps.Uploader
		opts.OnUpload = func(ctx context.Context, files []*upload.File, cb upload.Callbacks) error {
			defer sess.spool.release(files, sess.tracks)
			return uploader(caller.context(ctx), files, cb)
		}
	}

	sess = newSession(id, preset, filepath.Join(s.deps.SpoolDir, id), upload.New(opts))
	s.sessions.add(sess)
	logger.Info("session created", "preset", preset, "ip", caller.ip)
	return sess, nil
}

// sessionResponse is returned when a session is created.
type sessionResponse struct {
	ID       string     `json:"id"`
	Preset   string     `json:"preset"`
	Endpoint string     `json:"endpoint"`
	IDs      upload.IDs `json:"ids"`
	Accept   string     `json:"accept,omitempty"`
	MaxSize  int64      `json:"max_size,omitempty"`
	MaxFiles int        `json:"max_files,omitempty"`
}

func newSessionResponse(sess *session) sessionResponse {
	opts := sess.widget.Options()
	return sessionResponse{
		ID:       sess.id,
		Preset:   sess.preset,
		Endpoint: sess.endpoint(),
		IDs:      sess.widget.IDs(),
		Accept:   opts.Accept,
		MaxSize:  opts.MaxSize,
		MaxFiles: opts.MaxFiles,
	}
}

// handleIndex renders a page hosting a fresh widget.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	preset := r.URL.Query().Get("preset")
	sess, err := s.createSession(r, preset)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page(sess, s.deps.Presets.Names()).Render(r.Context(), w); err != nil {
		slog.Error("failed to render page", "error", err)
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Uploads  any    `json:"uploads,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Sessions: s.sessions.count()}
	if s.deps.Limiter != nil {
		resp.Uploads = s.deps.Limiter.Status()
	}
	writeJSON(w, r, http.StatusOK, resp)
}

type presetInfo struct {
	Name string `json:"name"`
	config.Preset
	MaxSizeText string `json:"max_size_text,omitempty"`
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	names := s.deps.Presets.Names()
	out := make([]presetInfo, 0, len(names))
	for _, name := range names {
		p := s.deps.Presets[name]
		info := presetInfo{Name: name, Preset: p}
		if p.MaxSize > 0 {
			info.MaxSizeText = ui.FormatBytes(int64(p.MaxSize))
		}
		out = append(out, info)
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleRecentUploads(w http.ResponseWriter, r *http.Request) {
	if s.deps.Catalog == nil {
		respondError(w, r, errCatalogDisabled, http.StatusNotFound)
		return
	}

	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.deps.Catalog.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, records)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preset string `json:"preset"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
	}
	if req.Preset == "" {
		req.Preset = r.URL.Query().Get("preset")
	}

	sess, err := s.createSession(r, req.Preset)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, r, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	writeJSON(w, r, http.StatusOK, sess.widget.Store().Snapshot())
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.sessions.remove(sess.id)
	logging.WithFields(r.Context(), "session", sess.id).Info("session closed")
	w.WriteHeader(http.StatusNoContent)
}

// handleRenderWidget returns the widget markup for the current state.
func (s *Server) handleRenderWidget(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := ui.Widget(sess.widget, sess.endpoint()).Render(r.Context(), w); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
	}
}

// handleEvents streams the session state as server-sent events: one
// "state" event per store change, coalesced while the client is slow.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	rc := http.NewResponseController(w)

	// The stream outlives the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	changed := make(chan struct{}, 1)
	unsubscribe := sess.widget.Store().Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	send := func() error {
		data, err := json.Marshal(sess.view.Get())
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "id: %d\nevent: state\ndata: %s\n\n", sess.widget.Store().Version(), data); err != nil {
			return err
		}
		return rc.Flush()
	}
	if err := send(); err != nil {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sess.done:
			fmt.Fprint(w, "event: closed\ndata: {}\n\n")
			rc.Flush()
			return
		case <-changed:
			if err := send(); err != nil {
				return
			}
		case <-heartbeat.C:
			sess.touch()
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

type rejectedFile struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Message string `json:"message"`
}

type addFilesResponse struct {
	Accepted []*upload.File `json:"accepted"`
	Rejected []rejectedFile `json:"rejected"`
}

// handleAddFiles receives a multipart batch. ?source=drop routes it through
// the drop path, which also clears the hover state.
func (s *Server) handleAddFiles(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.widget.Disabled() {
		respondError(w, r, errWidgetDisabled, http.StatusConflict)
		return
	}

	maxSize := sess.widget.Options().MaxSize
	if maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize*maxRequestFiles)
	}

	parts, err := spoolMultipart(r, sess.spoolDir, maxSize)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, r, fmt.Errorf("request too large: %w", err), http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	files := make([]*upload.File, len(parts))
	for i, p := range parts {
		files[i] = p.file
	}

	// Registered before the widget sees them, so a batch that finishes
	// early still finds its copies to release.
	sess.spool.add(parts, s.deps.Uploader != nil)

	var res upload.Result
	if r.URL.Query().Get("source") == "drop" {
		res = sess.widget.Drop(files)
	} else {
		res = sess.widget.Accept(files)
	}

	taken := make(map[upload.FileID]bool, len(res.Accepted))
	for _, f := range res.Accepted {
		taken[f.ID] = true
	}
	var stale []upload.FileID
	for _, f := range files {
		if !taken[f.ID] {
			stale = append(stale, f.ID)
		}
	}
	sess.spool.discard(stale)

	resp := addFilesResponse{
		Accepted: res.Accepted,
		Rejected: make([]rejectedFile, 0, len(res.Rejected)),
	}
	for _, rej := range res.Rejected {
		resp.Rejected = append(resp.Rejected, rejectedFile{Name: rej.File.Name, Size: rej.File.Size, Message: rej.Message})
	}

	if resp.Accepted == nil {
		resp.Accepted = []*upload.File{}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id := upload.FileID(chi.URLParam(r, "fileID"))
	if !upload.Select(sess.widget.Store(), func(st *upload.State) bool { return st.Has(id) }) {
		respondError(w, r, errFileNotFound, http.StatusNotFound)
		return
	}
	sess.widget.Remove(id)
	sess.spool.prune(sess.tracks)
	logging.WithFields(r.Context(), "session", sess.id, "file", id).Debug("file removed")
	w.WriteHeader(http.StatusNoContent)
}

// handleFileContent serves a file's bytes, used for image previews.
func (s *Server) handleFileContent(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id := upload.FileID(chi.URLParam(r, "fileID"))

	var (
		fs upload.FileState
		ok bool
	)
	sess.widget.Store().Read(func(st *upload.State) { fs, ok = st.Get(id) })
	if !ok {
		respondError(w, r, errFileNotFound, http.StatusNotFound)
		return
	}
	s.serveFile(w, r, fs.File)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, f *upload.File) {
	rc, err := f.Open()
	if err != nil {
		if errors.Is(err, upload.ErrNoContent) {
			respondError(w, r, fmt.Errorf("%s: no content source", f.Name), http.StatusNotFound)
			return
		}
		respondError(w, r, fmt.Errorf("%s: %w", f.Name, errFileNotFound), http.StatusNotFound)
		return
	}
	defer rc.Close()

	disposition := "attachment"
	if f.Kind() == upload.KindImage {
		disposition = "inline"
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": f.Name}))
	w.Header().Set("Cache-Control", "private, max-age=60")
	if f.Type != "" {
		w.Header().Set("Content-Type", f.Type)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}

	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, f.Name, time.Time{}, rs)
		return
	}
	w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	io.Copy(w, rc)
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	switch chi.URLParam(r, "phase") {
	case "enter":
		sess.widget.DragEnter()
	case "over":
		sess.widget.DragOver()
	case "leave":
		sess.widget.DragLeave()
	default:
		http.Error(w, "phase must be enter, over or leave", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.widget.Disabled() {
		respondError(w, r, errWidgetDisabled, http.StatusConflict)
		return
	}
	sess.widget.Clear()
	sess.spool.prune(sess.tracks)
	w.WriteHeader(http.StatusNoContent)
}
