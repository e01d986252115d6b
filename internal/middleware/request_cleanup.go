package middleware

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// maxDrainBytes caps how much of an unread body is consumed after the handler returns.
// Anything bigger is left to the server, which then closes the connection.
const maxDrainBytes = 1 << 20

// DrainAndCloseRequest consumes what the handler left unread and closes the body.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil || r.Body == http.NoBody {
				return
			}
			drained, err := io.CopyN(io.Discard, r.Body, maxDrainBytes)
			if drained > 0 {
				log.Tracef("drained %d unread body bytes [%s %s]", drained, r.Method, r.URL.Path)
			}
			if err != nil && err != io.EOF {
				log.Debugf("drain request body [%s]: %s", r.URL.Path, err)
			}
			_ = r.Body.Close()
		})
	}
}
