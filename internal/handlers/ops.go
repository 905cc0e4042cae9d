package handlers

import (
	"fmt"
	"net/http"
	"time"
)

// Ping is the liveness probe.
func Ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	fmt.Fprintf(w, "OK %s", time.Now().Format(time.RFC3339))
}
