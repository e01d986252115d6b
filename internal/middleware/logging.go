package middleware

import (
	"net/http"

	"github.com/2beens/fittrack/pkg"

	log "github.com/sirupsen/logrus"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if log.IsLevelEnabled(log.TraceLevel) {
				fields := log.Fields{
					"method":     r.Method,
					"path":       r.URL.Path,
					"user_agent": r.UserAgent(),
				}
				if ip, err := pkg.ReadUserIP(r); err == nil {
					fields["ip"] = ip
				}
				log.WithFields(fields).Trace("request")
			}
			next.ServeHTTP(w, r)
		})
	}
}
