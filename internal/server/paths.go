package server

import (
	"strings"

	"github.com/gin-gonic/gin"
)

func gamePath(code string) string {
	return "/game/" + code
}

// origin is the public base URL, falling back to the request's own scheme and host.
func (s *Server) origin(c *gin.Context) string {
	if s.cfg.BaseURL != "" {
		return s.cfg.BaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return scheme + "://" + c.Request.Host
}

func (s *Server) joinURL(c *gin.Context, code string) string {
	return s.origin(c) + gamePath(code)
}
