package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/tqpictures/studio/models"
)

const sessionName = "studio_session"

type ctxKey int

const profileKey ctxKey = iota

// ProfileSource resolves the session's profile id once per request.
type ProfileSource interface {
	ByID(ctx context.Context, id string) (*models.Profile, error)
}

// Sessions owns the cookie-backed session lifecycle: created at sign-in,
// loaded into the request context by Middleware, destroyed at sign-out.
type Sessions struct {
	store    *sessions.CookieStore
	profiles ProfileSource
	log      *slog.Logger
}

func NewSessions(secret []byte, secure bool, profiles ProfileSource, log *slog.Logger) *Sessions {
	store := sessions.NewCookieStore(secret)
	store.MaxAge(86400 * 30)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	return &Sessions{store: store, profiles: profiles, log: log}
}

// Store exposes the underlying cookie store for gothic.
func (s *Sessions) Store() *sessions.CookieStore { return s.store }

func (s *Sessions) SignIn(w http.ResponseWriter, r *http.Request, profileID string) error {
	sess, _ := s.store.Get(r, sessionName)
	sess.Values["profile_id"] = profileID
	return sess.Save(r, w)
}

func (s *Sessions) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.store.Get(r, sessionName)
	delete(sess.Values, "profile_id")
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// Flash stores a one-shot notice shown on the next page render.
func (s *Sessions) Flash(w http.ResponseWriter, r *http.Request, msg string) {
	sess, _ := s.store.Get(r, sessionName)
	sess.AddFlash(msg)
	_ = sess.Save(r, w)
}

func (s *Sessions) PopFlash(w http.ResponseWriter, r *http.Request) string {
	sess, _ := s.store.Get(r, sessionName)
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	_ = sess.Save(r, w)
	if msg, ok := flashes[0].(string); ok {
		return msg
	}
	return ""
}

// Middleware resolves the cookie to a profile and stores it in the
// request context. Unknown or stale ids degrade to anonymous.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.store.Get(r, sessionName)
		if err == nil {
			if id, ok := sess.Values["profile_id"].(string); ok && id != "" {
				p, err := s.profiles.ByID(r.Context(), id)
				if err == nil {
					r = r.WithContext(WithProfile(r.Context(), p))
				} else {
					s.log.Debug("session: stale profile id", "profile_id", id)
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ProfileFrom returns the signed-in profile, or nil for anonymous.
func ProfileFrom(ctx context.Context) *models.Profile {
	p, _ := ctx.Value(profileKey).(*models.Profile)
	return p
}

func WithProfile(ctx context.Context, p *models.Profile) context.Context {
	return context.WithValue(ctx, profileKey, p)
}
