package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"baby-name-game/internal/backend"
	"baby-name-game/internal/session"
	"baby-name-game/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const (
	msgInvalidCode = "Please enter a valid game code."
	msgNameMissing = "Please enter your name."

	defaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

func (s *Server) handleLanding(c *gin.Context) {
	render(c, http.StatusOK, web.Landing(web.LandingData{Flash: s.sessions.PopFlash(c)}))
}

func (s *Server) handleJoinCode(c *gin.Context) {
	code := backend.NormalizeCode(c.Query("code"))
	if !backend.IsValidGameCode(code) {
		render(c, http.StatusBadRequest, web.Landing(web.LandingData{Code: c.Query("code"), Error: msgInvalidCode}))
		return
	}
	c.Redirect(http.StatusSeeOther, gamePath(code))
}

func (s *Server) playKey(c *gin.Context, code string) session.Key {
	return session.Key{BrowserID: s.sessions.ensureSessionID(c), Code: code}
}

// playSession returns this browser's live session for code, loading a fresh one
// when none exists or the previous one ended in an error.
func (s *Server) playSession(c *gin.Context, code string) (*session.Session, error) {
	key := s.playKey(c, code)
	if play, ok := s.plays.Get(key); ok && play.State() != session.StateError {
		play.Touch()
		return play, nil
	}
	play := s.newPlaySession(c.Request.UserAgent())
	err := play.Load(c.Request.Context(), code)
	s.plays.Put(key, play)
	return play, err
}

func (s *Server) handleGameView(c *gin.Context) {
	code := backend.NormalizeCode(c.Param("code"))
	play, err := s.playSession(c, code)
	status := http.StatusOK
	if errors.Is(err, backend.ErrNotFound) {
		status = http.StatusNotFound
	}
	render(c, status, web.Play(web.PlayData{
		View:  play.Snapshot(),
		Code:  code,
		Flash: s.sessions.PopFlash(c),
	}))
}

func (s *Server) handleGameJoin(c *gin.Context) {
	code := backend.NormalizeCode(c.Param("code"))
	key := s.playKey(c, code)
	play, ok := s.plays.Get(key)
	if !ok {
		seeOther(c, gamePath(code))
		return
	}
	err := play.Join(c.Request.Context(), c.PostForm("name"))
	switch {
	case err == nil, errors.Is(err, session.ErrWrongState):
	case errors.Is(err, session.ErrBlankName):
		s.sessions.SetFlash(c, msgNameMissing)
	default:
		// Drop the failed session so the next visit offers the name form again.
		s.sessions.SetFlash(c, play.Snapshot().Error)
		s.plays.Remove(key)
	}
	seeOther(c, gamePath(code))
}

func (s *Server) handleGameReveal(c *gin.Context) {
	code := backend.NormalizeCode(c.Param("code"))
	if play, ok := s.plays.Get(s.playKey(c, code)); ok {
		if err := play.RevealClue(c.Request.Context()); err != nil && !errors.Is(err, session.ErrWrongState) {
			log.Printf("clue reveal failed code=%s player_id=%s error=%v", code, play.PlayerID(), err)
		}
	}
	seeOther(c, gamePath(code))
}

func (s *Server) handleGameGuess(c *gin.Context) {
	code := backend.NormalizeCode(c.Param("code"))
	if play, ok := s.plays.Get(s.playKey(c, code)); ok {
		if _, err := play.SubmitGuess(c.Request.Context(), c.PostForm("guess")); err != nil && !errors.Is(err, session.ErrWrongState) {
			log.Printf("guess failed code=%s player_id=%s error=%v", code, play.PlayerID(), err)
		}
	}
	seeOther(c, gamePath(code))
}

func (s *Server) handleGameState(c *gin.Context) {
	code := backend.NormalizeCode(c.Param("code"))
	play, err := s.playSession(c, code)
	status := http.StatusOK
	if errors.Is(err, backend.ErrNotFound) {
		status = http.StatusNotFound
	}
	writeJSON(c, status, play.Snapshot())
}

func (s *Server) handleGameQR(c *gin.Context) {
	game, err := s.svc.GetGameByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	size := defaultQRSize
	if raw := c.Query("size"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			size = min(max(value, minQRSize), maxQRSize)
		}
	}
	png, err := qrcode.Encode(s.joinURL(c, game.Code), qrcode.Medium, size)
	if err != nil {
		log.Printf("qr encode failed code=%s error=%v", game.Code, err)
		writeError(c, http.StatusInternalServerError, "could not render qr code")
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) handleGameLeaderboard(c *gin.Context) {
	game, err := s.svc.GetGameByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	entries, err := s.svc.Leaderboard(c.Request.Context(), game.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"game_code": game.Code,
		"title":     game.Title,
		"entries":   entries,
	})
}
