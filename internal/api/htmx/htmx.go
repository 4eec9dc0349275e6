package htmx

import (
	"net/http"
	"strings"
)

func IsRequest(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}

// VaryOnRequest marks responses that differ between full page loads and htmx
// fragment swaps so caches keep them apart.
func VaryOnRequest(w http.ResponseWriter) {
	w.Header().Add("Vary", "HX-Request")
}
