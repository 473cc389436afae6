package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/enumlive/internal/logger"
	"github.com/MrSnakeDoc/enumlive/internal/utils"
)

// AllowOnlyCIDRS rejects clients outside list with 403. An empty list is a passthrough.
func AllowOnlyCIDRS(list *utils.IPAllowList, log logger.Logger) func(http.Handler) http.Handler {
	if list == nil || list.IsEmpty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.RemoteIP(r)
			if !list.Allow(ip) {
				log.Debug("client rejected",
					logger.String("remote_ip", ip),
					logger.String("path", r.URL.Path))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
