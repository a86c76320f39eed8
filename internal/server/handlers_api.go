package server

import (
	"errors"
	"net/http"
	"time"

	"baby-name-game/internal/backend"
	"baby-name-game/internal/form"
	"baby-name-game/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errGameInactive = errors.New("game is not currently active")

type playerURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type joinRequest struct {
	Name  string  `json:"name" binding:"required,playername"`
	Email *string `json:"email" binding:"omitempty,email"`
}

type guessRequest struct {
	Guess string `json:"guess" binding:"required,guess"`
}

var joinMessages = bindMessages{
	"Name": {
		"required":   "name is required",
		"playername": "name must be 64 characters or fewer",
	},
	"Email": {
		"email": "email is invalid",
	},
}

var guessMessages = bindMessages{
	"Guess": {
		"required": "guess is required",
		"guess":    "guess must be 128 characters or fewer",
	},
}

// publicGame is the player-safe view of a game; it never carries the baby's name.
type publicGame struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"game_code"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Status      string    `json:"status"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Active      bool      `json:"active"`
	ClueCount   int       `json:"clue_count"`
}

func publicGameFrom(game *backend.GameWithClues, now time.Time) publicGame {
	return publicGame{
		ID:          game.ID,
		Code:        game.Code,
		Title:       game.Title,
		Description: game.Description,
		Status:      game.Status,
		StartDate:   game.StartDate.Format(time.DateOnly),
		EndDate:     game.EndDate.Format(time.DateOnly),
		Active:      backend.IsGameActive(&game.Game, now),
		ClueCount:   len(game.Clues),
	}
}

func (s *Server) handleAPICreateGame(c *gin.Context) {
	var f form.GameForm
	if !bindJSON(c, &f, nil, "invalid game") {
		return
	}
	f.MarkAllTouched()
	if errs := f.Validate(); !errs.Empty() {
		writeJSON(c, http.StatusUnprocessableEntity, gin.H{
			"error":  "invalid game",
			"fields": errs.Fields,
			"clues":  errs.Clues,
		})
		return
	}
	game, err := s.createFromForm(c, &f)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{
		"game":     game,
		"join_url": s.joinURL(c, game.Code),
		"qr_url":   s.origin(c) + gamePath(game.Code) + "/qr",
	})
}

func (s *Server) handleAPIGetGame(c *gin.Context) {
	game, err := s.svc.GetGameByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, publicGameFrom(game, s.now()))
}

// handleAPIJoinGame returns the existing player of that name, or creates one.
func (s *Server) handleAPIJoinGame(c *gin.Context) {
	var req joinRequest
	if !bindJSON(c, &req, joinMessages, "invalid join request") {
		return
	}
	ctx := c.Request.Context()
	game, err := s.svc.GetGameByCode(ctx, c.Param("code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !backend.IsGameActive(&game.Game, s.now()) {
		writeError(c, http.StatusForbidden, errGameInactive.Error())
		return
	}
	name := backend.NormalizeName(req.Name)
	player, err := s.svc.GetPlayer(ctx, game.ID, name)
	if err == nil {
		writeJSON(c, http.StatusOK, player)
		return
	}
	if !errors.Is(err, backend.ErrNotFound) {
		writeServiceError(c, err)
		return
	}
	userAgent := c.Request.UserAgent()
	player, err = s.svc.JoinGame(ctx, game.ID, name, req.Email, &userAgent)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, player)
}

// apiPlayer loads the player named in the path together with its game, rejecting games that are closed.
func (s *Server) apiPlayer(c *gin.Context) (*backend.Player, *backend.GameWithClues, bool) {
	var uri playerURI
	if !bindURI(c, &uri) {
		return nil, nil, false
	}
	ctx := c.Request.Context()
	player, err := s.svc.GetPlayerByID(ctx, uuid.MustParse(uri.ID))
	if err != nil {
		writeServiceError(c, err)
		return nil, nil, false
	}
	game, err := s.svc.GetGameByID(ctx, player.GameID)
	if err != nil {
		writeServiceError(c, err)
		return nil, nil, false
	}
	if !backend.IsGameActive(&game.Game, s.now()) {
		writeError(c, http.StatusForbidden, errGameInactive.Error())
		return nil, nil, false
	}
	return player, game, true
}

func (s *Server) handleAPIRevealClue(c *gin.Context) {
	player, game, ok := s.apiPlayer(c)
	if !ok {
		return
	}
	player, err := s.svc.RevealClue(c.Request.Context(), player.ID, len(game.Clues))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"player": player,
		"clue":   game.Clues[player.CluesRevealed-1],
	})
}

func (s *Server) handleAPISubmitGuess(c *gin.Context) {
	var req guessRequest
	if !bindJSON(c, &req, guessMessages, "invalid guess") {
		return
	}
	player, game, ok := s.apiPlayer(c)
	if !ok {
		return
	}
	if player.HasWon {
		writeError(c, http.StatusConflict, "player already guessed the name")
		return
	}
	correct := session.IsCorrectGuess(req.Guess, game.BabyFirstName)
	elapsed := int(s.now().Sub(player.JoinedAt) / time.Second)
	guess, err := s.svc.SubmitGuess(c.Request.Context(), backend.SubmitGuessInput{
		PlayerID:           player.ID,
		GameID:             game.ID,
		Text:               req.Guess,
		Correct:            correct,
		TimeElapsedSeconds: max(elapsed, 0),
		CluesUsed:          player.CluesRevealed,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{
		"guess":   guess,
		"correct": correct,
	})
}

func (s *Server) handleAPIListGuesses(c *gin.Context) {
	var uri playerURI
	if !bindURI(c, &uri) {
		return
	}
	guesses, err := s.svc.ListPlayerGuesses(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"guesses": guesses})
}

func (s *Server) handleAPIParentGames(c *gin.Context) {
	accountID, _ := s.accountID(c)
	parent, err := s.auth.CurrentParent(c.Request.Context(), accountID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	games, pagination, err := s.parentGamesPage(c, parent.ID, "/api/parent/games")
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"games":       games,
		"page":        pagination.Page,
		"per_page":    pagination.PerPage,
		"total":       pagination.Total,
		"total_pages": pagination.TotalPages,
	})
}
