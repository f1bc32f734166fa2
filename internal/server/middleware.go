package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/tutorly/internal/logger"
	"github.com/abhisek/tutorly/internal/session"
)

const (
	HeaderStudent   = "X-Student"
	HeaderRole      = "X-Role"
	HeaderRequestID = "X-Request-ID"
)

// Session attaches a session.Context built from the request headers and
// echoes its ID back to the caller.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sc := session.New(c.GetHeader(HeaderStudent), session.ParseRole(c.GetHeader(HeaderRole)))
		c.Request = c.Request.WithContext(session.With(c.Request.Context(), sc))
		c.Header(HeaderRequestID, sc.ID.String())
		c.Next()
	}
}

// RequireTeacher rejects callers without the teacher role.
func RequireTeacher() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.From(c.Request.Context()).IsTeacher() {
			RespondError(c, forbidden(errors.New("teacher role required")))
			return
		}
		c.Next()
	}
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if sc := session.From(c.Request.Context()); sc != nil {
			fields = append(fields, "request_id", sc.ID.String(), "role", string(sc.Role))
			if sc.Student != "" {
				fields = append(fields, "student", sc.Student)
			}
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
