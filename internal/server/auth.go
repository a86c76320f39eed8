package server

import (
	"net/http"
	"strings"
	"time"

	"baby-name-game/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	tokenCookie      = "bng_token"
	oauthStateCookie = "bng_oauth_state"
	accountKey       = "account_id"
)

// accountID resolves the signed-in account from the bearer header or the token cookie.
func (s *Server) accountID(c *gin.Context) (uuid.UUID, bool) {
	if value, ok := c.Get(accountKey); ok {
		return value.(uuid.UUID), true
	}
	raw := ""
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		raw = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	} else if cookie, err := c.Request.Cookie(tokenCookie); err == nil {
		raw = cookie.Value
	}
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := s.auth.ParseToken(raw)
	if err != nil {
		return uuid.Nil, false
	}
	c.Set(accountKey, id)
	return id, true
}

func (s *Server) requireParent(c *gin.Context) {
	if _, ok := s.accountID(c); !ok {
		c.Redirect(http.StatusSeeOther, "/parent")
		c.Abort()
		return
	}
	c.Next()
}

func (s *Server) requireParentAPI(c *gin.Context) {
	if _, ok := s.accountID(c); !ok {
		writeError(c, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
		c.Abort()
		return
	}
	c.Next()
}

func (s *Server) secureCookies() bool {
	return strings.HasPrefix(s.cfg.BaseURL, "https://")
}

func (s *Server) setTokenCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL / time.Second),
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}
