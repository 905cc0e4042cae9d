package handlers

import (
	"net/http"
	"time"
)

// SelectionCookie persists the chosen property token between requests.
type SelectionCookie struct {
	Name   string
	MaxAge time.Duration
}

func (c SelectionCookie) read(r *http.Request) string {
	if c.Name == "" {
		return ""
	}
	ck, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}

// write stores token, or expires the cookie when token is empty.
func (c SelectionCookie) write(w http.ResponseWriter, token string) {
	if c.Name == "" {
		return
	}
	ck := &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		ck.MaxAge = -1
	} else {
		ck.MaxAge = int(c.MaxAge.Seconds())
		ck.Expires = time.Now().Add(c.MaxAge)
	}
	http.SetCookie(w, ck)
}
