package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

const browserCookie = "bng_session"

// sessionStore identifies browsers by cookie and carries one-shot flash messages between redirects.
type sessionStore struct {
	mu      sync.Mutex
	flashes map[string]string
}

func newSessionStore() *sessionStore {
	return &sessionStore{flashes: make(map[string]string)}
}

func (s *sessionStore) SetFlash(c *gin.Context, message string) {
	if message == "" {
		return
	}
	id := s.ensureSessionID(c)
	s.mu.Lock()
	s.flashes[id] = message
	s.mu.Unlock()
}

func (s *sessionStore) PopFlash(c *gin.Context) string {
	id := s.ensureSessionID(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	message := s.flashes[id]
	delete(s.flashes, id)
	return message
}

func (s *sessionStore) ensureSessionID(c *gin.Context) string {
	if id, ok := c.Get(browserCookie); ok {
		return id.(string)
	}
	if cookie, err := c.Request.Cookie(browserCookie); err == nil && cookie.Value != "" {
		c.Set(browserCookie, cookie.Value)
		return cookie.Value
	}
	id := newToken()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     browserCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(browserCookie, id)
	return id
}
