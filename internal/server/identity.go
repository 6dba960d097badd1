package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/claude/liftlog/internal/storage"
	"tailscale.com/client/tailscale/apitype"
)

type contextKey int

const (
	userIDKey contextKey = iota
	userInfoKey
)

// UserInfo is the caller's identity as shown by /api/v1/me.
type UserInfo struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

var devUser = UserInfo{Login: "local", DisplayName: "Local Dev User"}

// WhoIser resolves a tailnet peer address. It is satisfied by the tsnet
// local client.
type WhoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// UserStore maps a login to a user row.
type UserStore interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
}

func withIdentity(r *http.Request, id int, info UserInfo) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, id)
	ctx = context.WithValue(ctx, userInfoKey, info)
	return r.WithContext(ctx)
}

// DevIdentity sets user 1 for every request. Used when Tailscale is off.
func DevIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, withIdentity(r, 1, devUser))
	})
}

// TailscaleIdentity resolves the caller through WhoIs and maps the login to
// a user row, creating it on first sight. Tagged nodes without a user
// profile are rejected.
func TailscaleIdentity(lc WhoIser, users UserStore) func(http.Handler) http.Handler {
	var ids sync.Map // login -> user id
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, err := lc.WhoIs(r.Context(), r.RemoteAddr)
			if err != nil || who.UserProfile == nil || who.UserProfile.LoginName == "" {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "unknown tailnet identity"})
				return
			}
			info := UserInfo{Login: who.UserProfile.LoginName, DisplayName: who.UserProfile.DisplayName}

			id, ok := ids.Load(info.Login)
			if !ok {
				uid, err := users.GetOrCreateUser(r.Context(), info.Login, info.DisplayName)
				if err != nil {
					writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
					return
				}
				ids.Store(info.Login, uid)
				id = uid
			}
			next.ServeHTTP(w, withIdentity(r, id.(int), info))
		})
	}
}

// identity picks the tailnet or dev identity at request time so that
// SetTailscale can be called after routes are built.
func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	var ts http.Handler
	var once sync.Once
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			dev.ServeHTTP(w, r)
			return
		}
		once.Do(func() { ts = TailscaleIdentity(s.whois, s.db)(next) })
		ts.ServeHTTP(w, r)
	})
}

// userIDFromContext returns the user set by the identity middleware, or 1.
func userIDFromContext(r *http.Request) int {
	if id, ok := r.Context().Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// userInfoFromContext returns the caller set by the identity middleware,
// or the dev user.
func userInfoFromContext(r *http.Request) UserInfo {
	if info, ok := r.Context().Value(userInfoKey).(UserInfo); ok {
		return info
	}
	return devUser
}

// currentUser returns the identified caller, or nil when no identity
// middleware ran.
func currentUser(r *http.Request) *storage.User {
	id, ok := r.Context().Value(userIDKey).(int)
	if !ok {
		return nil
	}
	info := userInfoFromContext(r)
	return &storage.User{ID: id, Login: info.Login, DisplayName: info.DisplayName}
}

// mustUserID returns the identified caller or writes 401.
func mustUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	u := currentUser(r)
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no identity"})
		return 0, false
	}
	return u.ID, true
}
