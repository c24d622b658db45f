package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const cookieName = "atlas-session"

var store *sessions.CookieStore

// Init configures the cookie store. Must be called before the middleware
// is mounted.
func Init(sessionSecret string) {
	store = sessions.NewCookieStore([]byte(sessionSecret))
}

// Middleware guarantees every request carries the Atlas session cookie so a
// returning browser maps onto the same local data set.
func Middleware(sessionID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, _ := store.Get(r, cookieName)
			if session.Values["sid"] != sessionID {
				session.Values["sid"] = sessionID
				session.Save(r, w)
			}
			next.ServeHTTP(w, r)
		})
	}
}
