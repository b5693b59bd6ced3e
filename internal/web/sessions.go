package web

// sessions.go keeps one upload widget per browser session. The TTL cache is
// the lookup authority; the registry remembers every live widget so expired
// and remaining sessions can be closed and their spooled files removed.

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	ttl "github.com/FloatTech/ttl"

	"github.com/JonMunkholm/fileupload/internal/upload"
)

// stateView is the slice of store state streamed to clients.
type stateView struct {
	Files    []upload.FileState `json:"files"`
	DragOver bool               `json:"drag_over"`
	Invalid  bool               `json:"invalid"`
}

type session struct {
	id       string
	preset   string
	spoolDir string
	spool    *spoolSet
	widget   *upload.Widget
	view     *upload.Selector[stateView]
	created  time.Time
	lastSeen atomic.Int64

	closeOnce sync.Once
	done      chan struct{}
}

func newSession(id, preset, spoolDir string, w *upload.Widget) *session {
	s := &session{
		id:       id,
		preset:   preset,
		spoolDir: spoolDir,
		spool:    newSpoolSet(),
		widget:   w,
		view: upload.NewSelector(w.Store(), func(st *upload.State) stateView {
			return stateView{Files: st.Files(), DragOver: st.DragOver, Invalid: st.Invalid}
		}),
		created: time.Now(),
		done:    make(chan struct{}),
	}
	s.touch()
	return s
}

func (s *session) touch() { s.lastSeen.Store(time.Now().UnixNano()) }

func (s *session) idleSince() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// tracks reports whether the widget still holds the file.
func (s *session) tracks(id upload.FileID) bool {
	return upload.Select(s.widget.Store(), func(st *upload.State) bool { return st.Has(id) })
}

// endpoint is the base URL the session's widget posts to.
func (s *session) endpoint() string { return "/api/sessions/" + s.id }

// wait blocks until the widget's uploads return or ctx ends.
func (s *session) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.widget.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close cancels running uploads, ends event streams and removes spooled
// files. It is safe to call more than once.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.widget.Close()
		if s.spoolDir != "" {
			os.RemoveAll(s.spoolDir)
		}
	})
}

type sessionStore struct {
	idle   time.Duration
	live   *ttl.Cache[string, *session]
	logger *slog.Logger

	mu  sync.Mutex
	all map[string]*session

	stop chan struct{}
	done chan struct{}
}

func newSessionStore(idle time.Duration, logger *slog.Logger) *sessionStore {
	st := &sessionStore{
		idle:   idle,
		live:   ttl.NewCache[string, *session](idle),
		logger: logger,
		all:    make(map[string]*session),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go st.janitor(max(idle/2, time.Second))
	return st
}

func (st *sessionStore) add(s *session) {
	st.mu.Lock()
	st.all[s.id] = s
	st.mu.Unlock()
	st.live.Set(s.id, s)
}

// get returns a live session and extends its lifetime.
func (st *sessionStore) get(id string) (*session, bool) {
	s := st.live.Get(id)
	if s == nil {
		st.remove(id)
		return nil, false
	}
	s.touch()
	st.live.Set(id, s)
	return s, true
}

// remove closes and forgets a session. Unknown ids are ignored.
func (st *sessionStore) remove(id string) bool {
	st.mu.Lock()
	s, ok := st.all[id]
	delete(st.all, id)
	st.mu.Unlock()

	st.live.Delete(id)
	if ok {
		s.close()
	}
	return ok
}

func (st *sessionStore) count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.all)
}

func (st *sessionStore) janitor(every time.Duration) {
	defer close(st.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-st.stop:
			return
		case <-ticker.C:
			st.sweep(time.Now())
		}
	}
}

// sweep closes sessions idle for longer than the TTL.
func (st *sessionStore) sweep(now time.Time) {
	st.mu.Lock()
	var expired []string
	for id, s := range st.all {
		if now.Sub(s.idleSince()) > st.idle {
			expired = append(expired, id)
		}
	}
	st.mu.Unlock()

	for _, id := range expired {
		if st.remove(id) {
			st.logger.Info("session expired", "session", id)
		}
	}
}

// shutdown waits for in-flight uploads until ctx ends, then closes every
// session.
func (st *sessionStore) shutdown(ctx context.Context) error {
	close(st.stop)
	<-st.done

	st.mu.Lock()
	sessions := make([]*session, 0, len(st.all))
	for _, s := range st.all {
		sessions = append(sessions, s)
	}
	st.all = make(map[string]*session)
	st.mu.Unlock()

	var err error
	for _, s := range sessions {
		if err == nil {
			err = s.wait(ctx)
		}
		st.live.Delete(s.id)
		s.close()
	}
	return err
}
