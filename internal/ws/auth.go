package ws

import (
	"net/http"
	"strings"

	"go_hostcfg/internal/auth"

	"github.com/sirupsen/logrus"
)

// extractToken reads the JWT from the token query parameter, then the
// Authorization header. Socket.IO clients send auth.token as ?token=.
func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// WrapWithAuth rejects Socket.IO handshakes that carry no valid JWT
func WrapWithAuth(next http.Handler, logger *logrus.Entry) http.Handler {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Handshake is GET /socket.io/?EIO=...
		if r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/socket.io/") {
			token := extractToken(r)
			if token == "" {
				logger.WithField("remote", r.RemoteAddr).Warn("Handshake rejected: no token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := auth.ParseToken(token)
			if err != nil {
				logger.WithField("remote", r.RemoteAddr).WithError(err).Warn("Handshake rejected: invalid token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			logger.WithField("user", claims.Username).Debug("Handshake accepted")
		}

		next.ServeHTTP(w, r)
	})
}
