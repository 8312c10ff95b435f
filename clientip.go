package storyboard

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const fallbackIP = "127.0.0.1"

// ClientIP identifies the caller for rate limiting: the first
// X-Forwarded-For entry, else X-Real-IP, else the loopback address.
// It is installed as the Echo IPExtractor, so c.RealIP() agrees with it.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get(echo.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get(echo.HeaderXRealIP)); ip != "" {
		return ip
	}
	return fallbackIP
}
