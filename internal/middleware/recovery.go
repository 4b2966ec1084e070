package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/advocates/internal/pkg"
)

const msgInternalServerError = "internal server error"

// Recovery returns a gin middleware that recovers from panics, logs the panic
// with its stack trace, and answers 500.
//
// Page requests (Accept contains "text/html", path outside /api/) get the
// errors/500.html template. Everything else gets the JSON error envelope:
//
//	{"success": false, "error": "internal server error"}
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					slog.Any("panic", err),
					slog.String("method", c.Request.Method),
					slog.String("path", c.Request.URL.Path),
					slog.String("route", c.FullPath()),
					slog.String("stack", string(debug.Stack())),
				)

				c.Abort()

				if wantsHTML(c) {
					renderHTMLError(c)
					return
				}
				c.JSON(http.StatusInternalServerError, pkg.Response{
					Success: false,
					Error:   msgInternalServerError,
				})
			}
		}()
		c.Next()
	}
}

// renderHTMLError renders errors/500.html, falling back to plain text when no
// HTML renderer is configured or rendering fails.
func renderHTMLError(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("500 Internal Server Error"))
		}
	}()
	c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
}

// wantsHTML reports whether a page response fits the request. API paths
// always get JSON.
func wantsHTML(c *gin.Context) bool {
	if IsAPIPath(c.Request.URL.Path) {
		return false
	}
	accept := strings.ToLower(c.GetHeader("Accept"))
	return strings.Contains(accept, "text/html")
}

// IsAPIPath reports whether path belongs to the JSON API.
func IsAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
