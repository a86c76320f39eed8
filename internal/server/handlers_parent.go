package server

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"strconv"
	"strings"

	"baby-name-game/internal/auth"
	"baby-name-game/internal/backend"
	"baby-name-game/internal/form"
	"baby-name-game/internal/web"

	"github.com/gin-gonic/gin"
)

const (
	msgProfileFailed = "Could not load your profile. Please sign in again."
	msgGamesFailed   = "Could not load your games."
	msgSignedOut     = "You have been signed out."
	msgCreateFailed  = "Failed to create game. Please try again."
	msgOAuthFailed   = "Could not complete sign in. Please try again."
	msgOAuthState    = "Sign in expired or was tampered with. Please try again."

	oauthStateTTL = 600
)

func (s *Server) renderAuth(c *gin.Context, status int, data web.AuthData) {
	if data.Mode != web.AuthModeSignup {
		data.Mode = web.AuthModeLogin
	}
	data.GoogleEnabled = s.auth.GoogleEnabled()
	if data.Flash == "" {
		data.Flash = s.sessions.PopFlash(c)
	}
	render(c, status, web.ParentAuth(data))
}

func (s *Server) handleParentHome(c *gin.Context) {
	accountID, ok := s.accountID(c)
	if !ok {
		s.renderAuth(c, http.StatusOK, web.AuthData{Mode: c.Query("mode")})
		return
	}
	parent, err := s.auth.CurrentParent(c.Request.Context(), accountID)
	if err != nil {
		log.Printf("parent profile load failed account_id=%s error=%v", accountID, err)
		s.clearCookie(c, tokenCookie)
		s.renderAuth(c, http.StatusOK, web.AuthData{Error: msgProfileFailed})
		return
	}
	flash := s.sessions.PopFlash(c)
	games, pagination, err := s.parentGamesPage(c, parent.ID, "/parent")
	if err != nil {
		log.Printf("parent games load failed parent_id=%s error=%v", parent.ID, err)
		flash = msgGamesFailed
	}
	render(c, http.StatusOK, web.Dashboard(web.DashboardData{
		ParentName: displayName(parent),
		Games:      gameRows(games),
		Pagination: pagination,
		Flash:      flash,
	}))
}

func (s *Server) handleParentLogin(c *gin.Context) {
	email := c.PostForm("email")
	token, err := s.auth.SignIn(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		s.renderAuth(c, statusFor(err), web.AuthData{Email: email, Error: authMessage(err)})
		return
	}
	s.setTokenCookie(c, token)
	seeOther(c, "/parent")
}

func (s *Server) handleParentSignup(c *gin.Context) {
	input := auth.SignUpInput{
		Email:     c.PostForm("email"),
		Password:  c.PostForm("password"),
		Username:  c.PostForm("username"),
		FirstName: c.PostForm("first_name"),
		LastName:  c.PostForm("last_name"),
	}
	account, err := s.auth.SignUp(c.Request.Context(), input)
	if err == nil {
		var token string
		token, err = s.auth.IssueToken(account.ID)
		if err == nil {
			log.Printf("parent signed up account_id=%s", account.ID)
			s.setTokenCookie(c, token)
			seeOther(c, "/parent")
			return
		}
	}
	s.renderAuth(c, statusFor(err), web.AuthData{
		Mode:      web.AuthModeSignup,
		Email:     input.Email,
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Error:     authMessage(err),
	})
}

func (s *Server) handleParentLogout(c *gin.Context) {
	s.clearCookie(c, tokenCookie)
	s.sessions.SetFlash(c, msgSignedOut)
	seeOther(c, "/parent")
}

func authMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		log.Printf("auth request failed error=%v", err)
		return "Something went wrong. Please try again."
	}
	return sentence(err.Error())
}

func (s *Server) handleCreateForm(c *gin.Context) {
	f := form.New(s.now())
	render(c, http.StatusOK, web.CreateGame(web.CreateData{Form: f, Errors: f.VisibleErrors()}))
}

func (s *Server) handleCreateSubmit(c *gin.Context) {
	var f form.GameForm
	if err := c.ShouldBind(&f); err != nil {
		log.Printf("create form bind failed error=%v", err)
	}
	f.TouchFromRequest()

	if c.PostForm("action") == "add_clue" {
		f.AddClue()
		render(c, http.StatusOK, web.CreateGame(web.CreateData{Form: &f, Errors: f.VisibleErrors()}))
		return
	}
	if raw := c.PostForm("remove_clue"); raw != "" {
		if idx, err := strconv.Atoi(raw); err == nil {
			f.RemoveClue(idx)
		}
		render(c, http.StatusOK, web.CreateGame(web.CreateData{Form: &f, Errors: f.VisibleErrors()}))
		return
	}

	f.MarkAllTouched()
	if errs := f.Validate(); !errs.Empty() {
		render(c, http.StatusUnprocessableEntity, web.CreateGame(web.CreateData{Form: &f, Errors: f.VisibleErrors()}))
		return
	}
	game, err := s.createFromForm(c, &f)
	if err != nil {
		log.Printf("game create failed error=%v", err)
		render(c, http.StatusInternalServerError, web.CreateGame(web.CreateData{
			Form:        &f,
			Errors:      f.VisibleErrors(),
			SubmitError: msgCreateFailed,
		}))
		return
	}
	render(c, http.StatusCreated, web.GameCreated(web.SuccessData{
		Title:       game.Title,
		Description: deref(game.Description),
		StartDate:   web.FormatDate(game.StartDate),
		EndDate:     web.FormatDate(game.EndDate),
		Code:        game.Code,
		JoinURL:     s.joinURL(c, game.Code),
		QRPath:      gamePath(game.Code) + "/qr",
	}))
}

func (s *Server) handleCreateValidate(c *gin.Context) {
	var f form.GameForm
	if !bindJSON(c, &f, nil, "invalid form") {
		return
	}
	f.TouchFromRequest()
	writeJSON(c, http.StatusOK, f.VisibleErrors())
}

// createFromForm creates the game for the signed-in parent and opens it for play.
func (s *Server) createFromForm(c *gin.Context, f *form.GameForm) (*backend.Game, error) {
	accountID, _ := s.accountID(c)
	parent, err := s.auth.CurrentParent(c.Request.Context(), accountID)
	if err != nil {
		return nil, err
	}
	input, err := f.ToInput(parent.ID)
	if err != nil {
		return nil, err
	}
	return s.createActiveGame(c.Request.Context(), input)
}

func (s *Server) createActiveGame(ctx context.Context, input backend.CreateGameInput) (*backend.Game, error) {
	game, err := s.svc.CreateGame(ctx, input)
	if err != nil {
		return nil, err
	}
	game, err = s.svc.UpdateGameStatus(ctx, game.ID, backend.StatusActive)
	if err != nil {
		return nil, err
	}
	log.Printf("game created game_id=%s code=%s parent_id=%s", game.ID, game.Code, game.ParentID)
	return game, nil
}

func (s *Server) handleGoogleStart(c *gin.Context) {
	if !s.auth.GoogleEnabled() {
		render(c, http.StatusNotFound, web.ErrorPage("Authentication Error", sentence(auth.ErrOAuthDisabled.Error()), "/parent", "Back to login"))
		return
	}
	state := newToken()
	url, err := s.auth.GoogleAuthURL(state)
	if err != nil {
		render(c, http.StatusInternalServerError, web.ErrorPage("Authentication Error", msgOAuthFailed, "/parent", "Back to login"))
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   oauthStateTTL,
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
	c.Redirect(http.StatusFound, url)
}

func (s *Server) handleGoogleCallback(c *gin.Context) {
	cookie, err := c.Request.Cookie(oauthStateCookie)
	state := c.Query("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		render(c, http.StatusBadRequest, web.ErrorPage("Authentication Error", msgOAuthState, "/parent", "Back to login"))
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{Name: oauthStateCookie, Path: "/auth", MaxAge: -1})
	if reason := c.Query("error"); reason != "" {
		log.Printf("oauth callback rejected error=%s", reason)
		render(c, http.StatusBadRequest, web.ErrorPage("Authentication Error", msgOAuthFailed, "/parent", "Back to login"))
		return
	}
	token, err := s.auth.CompleteOAuth(c.Request.Context(), c.Query("code"))
	if err != nil {
		log.Printf("oauth completion failed error=%v", err)
		render(c, http.StatusBadRequest, web.ErrorPage("Authentication Error", msgOAuthFailed, "/parent", "Back to login"))
		return
	}
	s.setTokenCookie(c, token)
	c.Redirect(http.StatusFound, "/parent")
}

func displayName(parent *backend.Parent) string {
	name := strings.TrimSpace(deref(parent.FirstName) + " " + deref(parent.LastName))
	if name != "" {
		return name
	}
	return parent.Username
}

func babyName(first string, middle, last *string) string {
	return strings.Join(strings.Fields(first+" "+deref(middle)+" "+deref(last)), " ")
}

func gameRows(games []backend.GameSummary) []web.GameRow {
	rows := make([]web.GameRow, 0, len(games))
	for _, game := range games {
		rows = append(rows, web.GameRow{
			Title:     game.Title,
			Code:      game.Code,
			Status:    game.Status,
			BabyName:  babyName(game.BabyFirstName, game.BabyMiddleName, game.BabyLastName),
			StartDate: web.FormatDate(game.StartDate),
			EndDate:   web.FormatDate(game.EndDate),
			Players:   game.TotalPlayers,
			Winners:   game.WinnersCount,
			Guesses:   game.TotalGuesses,
		})
	}
	return rows
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func sentence(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
