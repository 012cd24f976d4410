package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/bookavenue/storefront/internal/db"
	"github.com/bookavenue/storefront/internal/repo"
	"github.com/bookavenue/storefront/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type sessionKey struct{}

// withSession ensures the request carries a session cookie and loads the
// session state into the request context. Handlers get an explicit Session
// value, never shared mutable globals.
func (h *Handlers) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sid string
		if cookie, err := r.Cookie(h.CookieName); err == nil {
			sid = cookie.Value
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     h.CookieName,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				MaxAge:   int(session.TTLSession.Seconds()),
			})
		}

		sess, err := h.Sessions.Load(r.Context(), sid)
		if err != nil {
			h.Log.Error("Failed to load session", zap.String("sid", sid), zap.Error(err))
			sess = &session.Session{ID: sid, Cart: session.Cart{}}
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the request's session. Only valid under withSession.
func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(sessionKey{}).(*session.Session)
	if sess == nil {
		sess = &session.Session{Cart: session.Cart{}}
	}
	return sess
}

// currentUser resolves the session's user, nil for anonymous sessions or a
// stale binding.
func (h *Handlers) currentUser(r *http.Request) *db.User {
	sess := sessionFrom(r)
	if !sess.Authenticated() {
		return nil
	}

	user, err := h.Users.GetByID(r.Context(), sess.UserID)
	if err != nil {
		if !errors.Is(err, repo.ErrUserNotFound) {
			h.Log.Error("Failed to resolve session user", zap.Uint("user_id", sess.UserID), zap.Error(err))
		}
		return nil
	}
	return user
}

// publisherProfile is the capability check for publisher pages: it returns
// the profile only when the user has one with the publisher flag set. A
// missing profile means "not a publisher", not an error.
func (h *Handlers) publisherProfile(ctx context.Context, userID uint) (*db.UserProfile, bool) {
	profile, err := h.Users.ProfileByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repo.ErrProfileNotFound) {
			h.Log.Error("Failed to load profile", zap.Uint("user_id", userID), zap.Error(err))
		}
		return nil, false
	}
	if !profile.IsPublisher {
		return nil, false
	}
	return profile, true
}
