package server

import (
	"errors"
	"log"
	"net/http"

	"baby-name-game/internal/auth"
	"baby-name-game/internal/backend"
	"baby-name-game/internal/session"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

func writeJSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func writeError(c *gin.Context, status int, message string) {
	writeJSON(c, status, gin.H{"error": message})
}

// writeServiceError maps a domain error to its HTTP status.
func writeServiceError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed path=%s error=%v", c.Request.URL.Path, err)
		writeError(c, status, "internal error")
		return
	}
	writeError(c, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, backend.ErrDuplicateName),
		errors.Is(err, backend.ErrNoMoreClues),
		errors.Is(err, backend.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, session.ErrBlankName):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrOAuthDisabled):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func render(c *gin.Context, status int, component templ.Component) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		log.Printf("render failed path=%s error=%v", c.Request.URL.Path, err)
	}
}

// seeOther redirects a form post back to a page with GET.
func seeOther(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}
