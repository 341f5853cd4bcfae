package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
)

const sessionCommitKey = "auth.session_commit"

var errNoSession = errors.New("session middleware not installed")

// sessionCommit saves the request's session at most once and sets the
// cookie on the response headers.
type sessionCommit struct {
	sm     *SessionManager
	ctx    context.Context
	header http.Header
	once   sync.Once
	err    error
}

func (s *sessionCommit) run() error {
	s.once.Do(func() {
		s.err = s.sm.writeCookie(s.ctx, s.header)
	})
	return s.err
}

// writeCookie persists a modified session or expires a destroyed one.
// scs marks every loaded session modified when an idle timeout is set, so
// this runs on most requests.
func (sm *SessionManager) writeCookie(ctx context.Context, header http.Header) error {
	rec := headerWriter{header}
	switch sm.Status(ctx) {
	case scs.Modified:
		token, expiry, err := sm.Commit(ctx)
		if err != nil {
			return err
		}
		sm.WriteSessionCookie(ctx, rec, token, expiry)
	case scs.Destroyed:
		sm.WriteSessionCookie(ctx, rec, "", time.Time{})
	}
	return nil
}

// headerWriter lets scs set cookies on a header map.
type headerWriter struct{ h http.Header }

func (w headerWriter) Header() http.Header { return w.h }
func (w headerWriter) Write(b []byte) (int, error) { return len(b), nil }
func (w headerWriter) WriteHeader(int) {}

// commitWriter saves the session before the first header or body byte.
type commitWriter struct {
	gin.ResponseWriter
	commit *sessionCommit
}

func (w *commitWriter) WriteHeader(code int) {
	w.commit.run()
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) WriteHeaderNow() {
	w.commit.run()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.commit.run()
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) WriteString(s string) (int, error) {
	w.commit.run()
	return w.ResponseWriter.WriteString(s)
}

// Persist saves the session now so handlers can report a store failure as
// a JSON error. Later writes reuse the result.
func (sm *SessionManager) Persist(c *gin.Context) error {
	v, ok := c.Get(sessionCommitKey)
	if !ok {
		return errNoSession
	}
	return v.(*sessionCommit).run()
}

// SessionLoadSave loads the session into the request context and saves it
// with the response. It must run before any session access.
func (sm *SessionManager) SessionLoadSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(sm.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := sm.Load(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
			return
		}
		c.Request = c.Request.WithContext(ctx)

		commit := &sessionCommit{sm: sm, ctx: ctx, header: c.Writer.Header()}
		c.Set(sessionCommitKey, commit)
		c.Writer = &commitWriter{ResponseWriter: c.Writer, commit: commit}

		c.Next()

		// Responses without a body still need the cookie.
		if !c.Writer.Written() {
			commit.run()
		}
	}
}
