package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/memevault/memevault/internal/common"
	"github.com/memevault/memevault/internal/server/auth"
)

type contextKey string

const deviceIDKey contextKey = "device_id"

// authenticate resolves the bearer token into a device identity. Every
// failure is the same uniform 401.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, fmt.Errorf("%w: missing bearer token", common.ErrUnauthorized))
			return
		}

		deviceID, err := auth.GetDeviceIDFromToken(token, []byte(s.cfg.SecretKey))
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), deviceIDKey, deviceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// deviceID returns the authenticated device set by authenticate.
func deviceID(r *http.Request) string {
	id, _ := r.Context().Value(deviceIDKey).(string)
	return id
}

// clientIP strips the port from RemoteAddr; chi's RealIP middleware has
// already folded proxy headers in.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
